// Package tabular loads CSV corpora as dataset item sequences.
//
// A Corpus is a datasets.Loader: it reads one item per CSV row using gota
// dataframes, optionally downloading the file first. String-valued target
// columns are label-encoded to integer classes so that shape inference sees a
// classification problem.
package tabular

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/datakit-ml/datakit/datasets"
	"github.com/datakit-ml/datakit/datasets/fetch"
	"github.com/datakit-ml/datakit/types/xslices"
)

// Corpus describes a CSV-backed dataset. DataColumn is required; IDColumn and
// TargetColumn are optional. When URL is set, the file is downloaded on the
// first load.
type Corpus struct {
	// URL to download the CSV file from when it is missing. Optional.
	URL string

	// Filename of the CSV file under the dataset root.
	Filename string

	// SHA256 of the downloaded file. Optional; validated when set.
	SHA256 string

	// IDColumn names the column holding item identifiers. Optional: when
	// empty, identifiers are generated by the dataset at read time.
	IDColumn string

	// DataColumn names the column holding the data payload.
	DataColumn string

	// TargetColumn names the column holding the target payload. Optional:
	// when empty, items are unlabeled. Rows with an empty target are
	// skipped.
	TargetColumn string

	labels map[string]int
}

var _ datasets.Loader = &Corpus{}

// PrepareData implements datasets.Loader: it parses the CSV file at root and
// returns one item per row. A missing file reports datasets.ErrNotFound.
func (c *Corpus) PrepareData(root string) ([]datasets.Item, error) {
	filePath := filepath.Join(root, c.Filename)
	f, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(datasets.ErrNotFound, "no corpus file at %q", filePath)
		}
		return nil, errors.Wrapf(err, "failed opening corpus file %q", filePath)
	}
	defer func() { _ = f.Close() }()

	df := dataframe.ReadCSV(f)
	if df.Error() != nil {
		return nil, errors.Wrapf(df.Error(), "failed parsing corpus file %q", filePath)
	}
	for _, column := range []string{c.IDColumn, c.DataColumn, c.TargetColumn} {
		if column != "" && !slices.Contains(df.Names(), column) {
			return nil, errors.Errorf("corpus file %q has no column %q, found %v", filePath, column, df.Names())
		}
	}
	if c.DataColumn == "" {
		return nil, errors.Errorf("corpus %q configured without a data column", c.Filename)
	}

	var ids []string
	if c.IDColumn != "" {
		ids = df.Col(c.IDColumn).Records()
	}
	data := df.Col(c.DataColumn).Records()
	targets, err := c.targetValues(df)
	if err != nil {
		return nil, errors.WithMessagef(err, "corpus file %q", filePath)
	}

	items := make([]datasets.Item, 0, df.Nrow())
	for row := range df.Nrow() {
		if targets != nil && targets[row] == nil {
			// Unlabeled row of a labeled corpus.
			continue
		}
		it := datasets.Item{Data: data[row]}
		if ids != nil {
			it.ID = ids[row]
		}
		if targets != nil {
			it.Target = targets[row]
		}
		items = append(items, it)
	}
	return items, nil
}

// targetValues extracts the target column as opaque payloads: ints stay ints,
// floats stay floats, anything else is label-encoded. nil entries mark rows
// to skip.
func (c *Corpus) targetValues(df dataframe.DataFrame) ([]any, error) {
	if c.TargetColumn == "" {
		return nil, nil
	}
	col := df.Col(c.TargetColumn)
	values := make([]any, col.Len())
	switch col.Type() {
	case series.Int:
		for row := range col.Len() {
			if col.Elem(row).IsNA() {
				continue
			}
			class, err := col.Elem(row).Int()
			if err != nil {
				return nil, errors.Wrapf(err, "reading integer target at row %d", row)
			}
			values[row] = class
		}
	case series.Float:
		for row := range col.Len() {
			if col.Elem(row).IsNA() {
				continue
			}
			values[row] = col.Elem(row).Float()
		}
	default:
		records := col.Records()
		labeled := make([]string, 0, len(records))
		for row := range col.Len() {
			if col.Elem(row).IsNA() || strings.TrimSpace(records[row]) == "" {
				records[row] = ""
				continue
			}
			labeled = append(labeled, records[row])
		}
		c.labels = labelEncoding(labeled)
		for row, label := range records {
			if label == "" {
				continue
			}
			values[row] = c.labels[label]
		}
	}
	return values, nil
}

// labelEncoding assigns each distinct label an integer class, in sorted label
// order so the encoding is stable across loads.
func labelEncoding(records []string) map[string]int {
	labels := xslices.SortedUnique(records)
	encoding := make(map[string]int, len(labels))
	for class, label := range labels {
		encoding[label] = class
	}
	return encoding
}

// Download implements datasets.Loader.
func (c *Corpus) Download(root string) error {
	if c.URL == "" {
		return errors.Errorf("corpus %q has no download URL configured", c.Filename)
	}
	return fetch.DownloadIfMissing(c.URL, filepath.Join(root, c.Filename), c.SHA256)
}

// Setup is run by datasets.New once the data is loaded.
func (c *Corpus) Setup() error {
	if len(c.labels) > 0 {
		klog.V(1).Infof("Corpus %q label encoding: %v", c.Filename, c.labels)
	}
	return nil
}

// Labels returns the label-to-class encoding built for a string target
// column, nil when targets were already numeric or absent.
func (c *Corpus) Labels() map[string]int {
	if c.labels == nil {
		return nil
	}
	encoding := make(map[string]int, len(c.labels))
	for label, class := range c.labels {
		encoding[label] = class
	}
	return encoding
}
