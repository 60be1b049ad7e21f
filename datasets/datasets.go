// Package datasets implements a lazy, composable indexing layer over ordered
// collections of labeled records.
//
// A dataset is loaded (or downloaded) once into an InMemoryDataset, and from
// then on it is only ever viewed: slicing, splitting, filtering and
// concatenation all return lightweight views that remap indices into the
// original storage without copying items. Transforms are registered per
// dataset or per view and applied at read time, composing outward from the
// owning dataset through each wrapping view.
package datasets

import (
	"io"
	"iter"

	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
)

var (
	// ErrNotFound is returned (wrapped) by a Loader when no data exists at the
	// requested root location. New recovers from it once by downloading, if
	// downloading is enabled.
	ErrNotFound = errors.New("dataset data not found")

	// ErrUnsupported is returned by operations a dataset variant cannot
	// provide, e.g. Map on a view.
	ErrUnsupported = errors.New("unsupported dataset operation")

	// ErrIndexOutOfRange is returned when a position or index collection
	// refers outside [0, Len()).
	ErrIndexOutOfRange = errors.New("dataset index out of range")
)

// Item is the atomic record of a dataset: an identifier plus opaque data and
// target payloads. The core never interprets the payloads except to dispatch
// on their high-level shape, see TaskShape.
//
// An empty ID is substituted at read time with "<dataset name>-<position>".
type Item struct {
	ID     string
	Data   any
	Target any
}

// Field selects which payload of an Item an operation acts on.
type Field int

const (
	FieldData Field = iota
	FieldTarget
)

// String returns "data" or "target".
func (f Field) String() string {
	switch f {
	case FieldData:
		return "data"
	case FieldTarget:
		return "target"
	}
	return "invalid"
}

// check panics on values that are not FieldData or FieldTarget: passing an
// arbitrary int where a Field is expected is a programming error.
func (f Field) check() {
	if f != FieldData && f != FieldTarget {
		exceptions.Panicf("datasets: invalid Field(%d), must be FieldData or FieldTarget", int(f))
	}
}

// get returns the selected payload of the item.
func (it Item) get(f Field) any {
	if f == FieldTarget {
		return it.Target
	}
	return it.Data
}

// set replaces the selected payload of the item.
func (it *Item) set(f Field, value any) {
	if f == FieldTarget {
		it.Target = value
	} else {
		it.Data = value
	}
}

// Transform maps a payload value to a new value. Transforms are applied at
// read time, in registration order, each consuming the previous output.
// Errors propagate unchanged to the caller of the read.
type Transform func(value any) (any, error)

// BatchTransform maps a batch of payload values at once. It must return
// exactly one value per input.
type BatchTransform func(values []any) ([]any, error)

// Predicate reports whether a payload value should be kept by Where.
type Predicate func(value any) (bool, error)

// Dataset is the contract shared by the three dataset variants:
// InMemoryDataset (owns storage), View (index subset) and ConcatDataset
// (two datasets joined end to end).
//
// The interface is sealed by the unexported item method: the variant set is
// closed, behavior per variant is fixed.
type Dataset interface {
	// Name identifies the dataset, used in logs and generated item IDs.
	Name() string

	// Len returns the number of items.
	Len() int

	// At returns the item at the given position, with all transform
	// pipelines applied.
	At(index int) (Item, error)

	// Slice returns a view over positions [start, end), kept in ascending
	// order.
	Slice(start, end int) (*View, error)

	// Select returns a view over exactly the given positions, in caller
	// order with duplicates removed at first occurrence.
	Select(indices []int) (*View, error)

	// All returns a fresh, restartable pass over every item in index order.
	// Iteration stops at the first error.
	All() iter.Seq2[Item, error]

	// Split partitions [0, Len()) with a seeded pseudo-random shuffle and
	// returns disjoint train and test views whose indices union to the full
	// range. The test view receives the first floor(Len()*testProportion)
	// shuffled indices; both views keep the shuffle order.
	Split(testProportion float64, seed int64) (train, test *View, err error)

	// Where scans the dataset once in order and returns a view over the
	// positions whose selected payload satisfies pred, in ascending order.
	Where(field Field, pred Predicate) (*View, error)

	// Transform appends fns to this dataset's pipeline for the selected
	// field and returns the receiver, so calls can be chained. The dataset
	// or view this one was built from is not affected.
	Transform(field Field, fns ...Transform) Dataset

	// Map mutates the owned storage in place, replacing the selected payload
	// of every item with fn's result. Only InMemoryDataset supports it;
	// views and concatenations return ErrUnsupported because mutating shared
	// storage through an index remap would corrupt sibling views.
	Map(field Field, fn Transform) error

	// MapBatch is Map applied one fixed-size chunk at a time; the last chunk
	// may be shorter. A failure mid-way leaves previously mapped chunks
	// mutated.
	MapBatch(field Field, batchSize int, fn BatchTransform) error

	// Concat joins this dataset with other, in order, without copying.
	Concat(other Dataset) (*ConcatDataset, error)

	// Tasks returns the task names of a multi-task dataset, i.e. the sorted
	// key set of the first item's target when it is a string-keyed mapping.
	// A nil slice means the dataset has no multi-task structure. The result
	// is memoized on the owning dataset.
	Tasks() ([]string, error)

	// TaskShapes classifies the prediction problem from the first item's
	// target, memoized on the owning dataset. See TaskShape.
	TaskShapes() (TaskShape, error)

	// Stats reports the length and the structural classification of a sample
	// item's payloads.
	Stats() (Stats, error)

	// Examples returns the first n items (fewer if the dataset is shorter).
	Examples(n int) ([]Item, error)

	// Describe renders a human-readable summary to w. Width <= 0 detects the
	// terminal width.
	Describe(w io.Writer, width int) error

	// item resolves a position (already bounds-checked against Len) to its
	// record, applying this dataset's own transforms after whatever it
	// wraps. Unexported: it seals the interface.
	item(index int) (Item, error)
}
