package tabular

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datakit-ml/datakit/datasets"
)

const labeledCSV = `id,text,label
m1,hello there,ham
m2,buy now!!!,spam
m3,see you tomorrow,ham
m4,unlabeled row,
m5,cheap pills,spam
`

func writeCorpus(t *testing.T, content string) (root string) {
	t.Helper()
	root = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "corpus.csv"), []byte(content), 0644))
	return root
}

func TestPrepareDataLabelEncodesStringTargets(t *testing.T) {
	corpus := &Corpus{
		Filename:     "corpus.csv",
		IDColumn:     "id",
		DataColumn:   "text",
		TargetColumn: "label",
	}
	items, err := corpus.PrepareData(writeCorpus(t, labeledCSV))
	require.NoError(t, err)

	require.Len(t, items, 4, "the unlabeled row is skipped")
	assert.Equal(t, map[string]int{"ham": 0, "spam": 1}, corpus.Labels())
	assert.Equal(t, datasets.Item{ID: "m1", Data: "hello there", Target: 0}, items[0])
	assert.Equal(t, datasets.Item{ID: "m2", Data: "buy now!!!", Target: 1}, items[1])
	assert.Equal(t, "m5", items[3].ID)
}

func TestPrepareDataNumericTargets(t *testing.T) {
	corpus := &Corpus{Filename: "corpus.csv", DataColumn: "text", TargetColumn: "score"}
	items, err := corpus.PrepareData(writeCorpus(t, "text,score\nfoo,0.5\nbar,1.25\n"))
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 0.5, items[0].Target)
	assert.Nil(t, corpus.Labels())

	corpus = &Corpus{Filename: "corpus.csv", DataColumn: "text", TargetColumn: "class"}
	items, err = corpus.PrepareData(writeCorpus(t, "text,class\nfoo,3\nbar,1\n"))
	require.NoError(t, err)
	assert.Equal(t, 3, items[0].Target)
	assert.Equal(t, 1, items[1].Target)
}

func TestPrepareDataWithoutTargets(t *testing.T) {
	corpus := &Corpus{Filename: "corpus.csv", DataColumn: "text"}
	items, err := corpus.PrepareData(writeCorpus(t, "text\nfoo\nbar\n"))
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Nil(t, items[0].Target)
	assert.Empty(t, items[0].ID)
}

func TestPrepareDataMissingFile(t *testing.T) {
	corpus := &Corpus{Filename: "corpus.csv", DataColumn: "text"}
	_, err := corpus.PrepareData(t.TempDir())
	require.ErrorIs(t, err, datasets.ErrNotFound)
}

func TestPrepareDataMissingColumn(t *testing.T) {
	corpus := &Corpus{Filename: "corpus.csv", DataColumn: "body"}
	_, err := corpus.PrepareData(writeCorpus(t, "text\nfoo\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no column "body"`)
}

func TestDownloadWithoutURL(t *testing.T) {
	corpus := &Corpus{Filename: "corpus.csv", DataColumn: "text"}
	require.Error(t, corpus.Download(t.TempDir()))
}

func TestNewDownloadsCorpus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(labeledCSV))
	}))
	defer server.Close()

	corpus := &Corpus{
		URL:          server.URL,
		Filename:     "corpus.csv",
		IDColumn:     "id",
		DataColumn:   "text",
		TargetColumn: "label",
	}
	root := filepath.Join(t.TempDir(), "mail")
	ds, err := datasets.New("mail", root, corpus, true)
	require.NoError(t, err)
	require.Equal(t, 4, ds.Len())

	// Binary classification is inferred from the label-encoded targets.
	shape, err := ds.TaskShapes()
	require.NoError(t, err)
	assert.Equal(t, datasets.TaskShape(datasets.Cardinality(2)), shape)

	tasks, err := ds.Tasks()
	require.NoError(t, err)
	assert.Nil(t, tasks)

	ham, err := ds.Where(datasets.FieldTarget, func(target any) (bool, error) {
		return target == 0, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, ham.Len())
}

func TestNewWithoutDownloadPropagatesNotFound(t *testing.T) {
	corpus := &Corpus{Filename: "corpus.csv", DataColumn: "text"}
	_, err := datasets.New("mail", filepath.Join(t.TempDir(), "missing"), corpus, false)
	require.ErrorIs(t, err, datasets.ErrNotFound)
}
