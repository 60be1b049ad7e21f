// datakit_describe downloads (if needed) a CSV corpus, loads it as a dataset
// and prints its summary, a train/test split and a sample filter.
//
// Example:
//
//	datakit_describe --url=https://example.com/reviews.csv --file=reviews.csv \
//	    --data_col=text --target_col=label --data_dir=~/tmp/reviews
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/gomlx/exceptions"
	"github.com/janpfeifer/must"
	"k8s.io/klog/v2"

	"github.com/datakit-ml/datakit/datasets"
	"github.com/datakit-ml/datakit/datasets/fetch"
	"github.com/datakit-ml/datakit/datasets/tabular"
)

var (
	flagURL       = flag.String("url", "", "URL to download the corpus CSV file from, if it is missing.")
	flagDataDir   = flag.String("data_dir", "~/.datakit/corpus", "Directory holding the corpus file.")
	flagFile      = flag.String("file", "corpus.csv", "Corpus CSV file name under --data_dir.")
	flagSHA256    = flag.String("sha256", "", "Optional sha256 of the corpus file.")
	flagName      = flag.String("name", "", "Dataset name; generated if empty.")
	flagIDCol     = flag.String("id_col", "", "Column with item identifiers, optional.")
	flagDataCol   = flag.String("data_col", "data", "Column with the data payload.")
	flagTargetCol = flag.String("target_col", "", "Column with the target payload, optional.")
	flagSplit     = flag.Float64("test_split", 0.1, "Test proportion for the split demo, in [0, 1).")
	flagSeed      = flag.Int64("seed", 42, "Seed for the split shuffle.")
	flagNoDown    = flag.Bool("no_download", false, "Disable downloading, fail if the corpus file is missing.")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	if *flagSplit < 0 || *flagSplit >= 1 {
		exceptions.Panicf("--test_split must be in [0, 1), got %g", *flagSplit)
	}

	corpus := &tabular.Corpus{
		URL:          *flagURL,
		Filename:     *flagFile,
		SHA256:       *flagSHA256,
		IDColumn:     *flagIDCol,
		DataColumn:   *flagDataCol,
		TargetColumn: *flagTargetCol,
	}
	root := fetch.ReplaceTildeInDir(*flagDataDir)
	ds := must.M1(datasets.New(*flagName, root, corpus, !*flagNoDown))
	must.M(ds.Describe(os.Stdout, 0))

	train, test := must.M2(ds.Split(*flagSplit, *flagSeed))
	fmt.Printf("\nSplit with seed %d: %d train items, %d test items.\n",
		*flagSeed, train.Len(), test.Len())

	if *flagTargetCol != "" {
		labeled := must.M1(ds.Where(datasets.FieldTarget, func(target any) (bool, error) {
			return target != nil, nil
		}))
		fmt.Printf("Items with a target: %d of %d.\n", labeled.Len(), ds.Len())
	}
}
