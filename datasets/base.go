package datasets

import (
	"io"
	"iter"
	"math/rand"

	"github.com/pkg/errors"

	"github.com/datakit-ml/datakit/types/xslices"
)

// base carries the behavior every dataset variant shares: the two transform
// pipelines and the operations that are defined purely in terms of the
// Dataset contract. Each variant embeds a base and points self back at
// itself, so the shared methods dispatch item resolution to the right
// variant.
//
// Map and MapBatch default to ErrUnsupported here; InMemoryDataset, the only
// variant that owns storage, shadows them.
type base struct {
	self Dataset

	dataTransforms   []Transform
	targetTransforms []Transform
}

// apply runs the data pipeline and then the target pipeline over the item.
func (b *base) apply(it Item) (Item, error) {
	var err error
	if it.Data, err = applyTransforms(it.Data, b.dataTransforms); err != nil {
		return Item{}, errors.WithMessagef(err, "data transform on item %q", it.ID)
	}
	if it.Target, err = applyTransforms(it.Target, b.targetTransforms); err != nil {
		return Item{}, errors.WithMessagef(err, "target transform on item %q", it.ID)
	}
	return it, nil
}

func applyTransforms(value any, fns []Transform) (any, error) {
	var err error
	for _, fn := range fns {
		if value, err = fn(value); err != nil {
			return nil, err
		}
	}
	return value, nil
}

// Transform appends fns to the pipeline for the selected field and returns
// the dataset itself, allowing chained registration.
func (b *base) Transform(field Field, fns ...Transform) Dataset {
	field.check()
	if field == FieldTarget {
		b.targetTransforms = append(b.targetTransforms, fns...)
	} else {
		b.dataTransforms = append(b.dataTransforms, fns...)
	}
	return b.self
}

// At returns the item at index, after bounds checking.
func (b *base) At(index int) (Item, error) {
	if index < 0 || index >= b.self.Len() {
		return Item{}, errors.Wrapf(ErrIndexOutOfRange,
			"index %d into dataset %q with %d items", index, b.self.Name(), b.self.Len())
	}
	return b.self.item(index)
}

// Slice returns a view over [start, end).
func (b *base) Slice(start, end int) (*View, error) {
	n := b.self.Len()
	if start < 0 || end < start || end > n {
		return nil, errors.Wrapf(ErrIndexOutOfRange,
			"slice [%d:%d) of dataset %q with %d items", start, end, b.self.Name(), n)
	}
	indices := make([]int, 0, end-start)
	for idx := start; idx < end; idx++ {
		indices = append(indices, idx)
	}
	return newView(b.self, indices, true), nil
}

// Select returns a view over exactly the given positions, in caller order.
func (b *base) Select(indices []int) (*View, error) {
	if err := checkIndices(b.self, indices); err != nil {
		return nil, err
	}
	return newView(b.self, indices, false), nil
}

// All iterates over every item in index order. Each call starts a fresh pass.
func (b *base) All() iter.Seq2[Item, error] {
	return func(yield func(Item, error) bool) {
		for index := range b.self.Len() {
			it, err := b.self.item(index)
			if !yield(it, err) || err != nil {
				return
			}
		}
	}
}

// Split shuffles [0, Len()) with the given seed and partitions it into train
// and test views. Both views keep the shuffle order.
func (b *base) Split(testProportion float64, seed int64) (train, test *View, err error) {
	if testProportion < 0 || testProportion > 1 {
		return nil, nil, errors.Errorf("test proportion must be in [0, 1], got %g", testProportion)
	}
	shuffled := rand.New(rand.NewSource(seed)).Perm(b.self.Len())
	nTest := int(float64(len(shuffled)) * testProportion)
	test = newView(b.self, shuffled[:nTest], false)
	train = newView(b.self, shuffled[nTest:], false)
	return train, test, nil
}

// Where returns a view over the positions whose selected payload satisfies
// pred, in ascending order.
func (b *base) Where(field Field, pred Predicate) (*View, error) {
	field.check()
	var matched []int
	index := 0
	for it, err := range b.self.All() {
		if err != nil {
			return nil, err
		}
		keep, err := pred(it.get(field))
		if err != nil {
			return nil, errors.WithMessagef(err, "predicate on %s of item %d of %q", field, index, b.self.Name())
		}
		if keep {
			matched = append(matched, index)
		}
		index++
	}
	return newView(b.self, matched, true), nil
}

// Map is unsupported for datasets that do not own their storage.
func (b *base) Map(field Field, fn Transform) error {
	field.check()
	return errors.Wrapf(ErrUnsupported,
		"cannot map over %q: maps mutate shared storage, apply them to the owning dataset before creating views", b.self.Name())
}

// MapBatch is unsupported for datasets that do not own their storage.
func (b *base) MapBatch(field Field, batchSize int, fn BatchTransform) error {
	field.check()
	return errors.Wrapf(ErrUnsupported,
		"cannot map over %q: maps mutate shared storage, apply them to the owning dataset before creating views", b.self.Name())
}

// Concat joins this dataset with other.
func (b *base) Concat(other Dataset) (*ConcatDataset, error) {
	return Concat(b.self, other)
}

// Stats reports the dataset length and the structural classification of the
// first item's payloads.
func (b *base) Stats() (Stats, error) {
	return statsOf(b.self)
}

// Examples returns the first n items.
func (b *base) Examples(n int) ([]Item, error) {
	n = min(n, b.self.Len())
	items := make([]Item, 0, n)
	for index := range n {
		it, err := b.self.item(index)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, nil
}

// Describe renders a human-readable summary of the dataset to w.
func (b *base) Describe(w io.Writer, width int) error {
	return describeDataset(b.self, w, width)
}

// checkIndices validates that every index falls inside [0, ds.Len()).
func checkIndices(ds Dataset, indices []int) error {
	n := ds.Len()
	for _, index := range indices {
		if index < 0 || index >= n {
			return errors.Wrapf(ErrIndexOutOfRange,
				"index %d into dataset %q with %d items", index, ds.Name(), n)
		}
	}
	return nil
}

// dedupe applies the view index policy: sorted ascending or first-occurrence
// order, duplicates removed either way.
func dedupe(indices []int, sorted bool) []int {
	if sorted {
		return xslices.SortedUnique(indices)
	}
	return xslices.Unique(indices)
}
