package datasets

import (
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/datakit-ml/datakit/types/xslices"
)

// Loader acquires the item sequence of an InMemoryDataset. Concrete corpora
// (CSV files, archives, object storage, ...) live behind this interface; the
// core only drives the load/download/retry protocol.
//
// A Loader may additionally implement `Setup() error`, which New runs once
// after the data is available.
type Loader interface {
	// PrepareData loads the ordered item sequence from root. When nothing is
	// stored at root it must return an error wrapping ErrNotFound.
	PrepareData(root string) ([]Item, error)

	// Download fetches the data, leaving it at root in a form PrepareData
	// can load. The root directory exists by the time it is called.
	Download(root string) error
}

// InMemoryDataset owns an ordered sequence of items, created once by its
// Loader and alive for the dataset's lifetime. It is the only variant whose
// storage can be mutated (Map, MapBatch); every view ultimately resolves its
// reads here.
//
// Map is not safe to call concurrently with reads through this dataset or any
// view backed by it: finish all maps before handing the dataset to concurrent
// consumers. Read-only operations are safe for concurrent readers.
type InMemoryDataset struct {
	base
	name  string
	root  string
	items []Item

	tasksOnce sync.Once
	tasks     []string
	tasksErr  error

	shapesOnce sync.Once
	shapes     TaskShape
	shapesErr  error
}

var _ Dataset = &InMemoryDataset{}

// New loads a dataset from root using the given loader. If the load fails
// with ErrNotFound and download is true, it creates root, invokes the
// loader's Download once and retries the load exactly once; otherwise the
// error is returned as is. An empty name is replaced with a generated one.
func New(name, root string, loader Loader, download bool) (*InMemoryDataset, error) {
	if name == "" {
		name = "dataset-" + uuid.NewString()[:8]
	}
	items, err := loader.PrepareData(root)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return nil, errors.WithMessagef(err, "loading dataset %q from %q", name, root)
		}
		klog.Warningf("Data for %q could not be loaded from %q: %v", name, root, err)
		if !download {
			return nil, err
		}
		klog.Infof("Downloading %q data to %q", name, root)
		if err = os.MkdirAll(root, 0777); err != nil && !os.IsExist(err) {
			return nil, errors.Wrapf(err, "failed to create root directory %q for dataset %q", root, name)
		}
		if err = loader.Download(root); err != nil {
			return nil, errors.WithMessagef(err, "downloading dataset %q to %q", name, root)
		}
		if items, err = loader.PrepareData(root); err != nil {
			return nil, errors.WithMessagef(err, "loading dataset %q from %q after download", name, root)
		}
	}
	klog.Infof("Loaded %q: %d items from %q", name, len(items), root)

	if setter, ok := loader.(interface{ Setup() error }); ok {
		if err = setter.Setup(); err != nil {
			return nil, errors.WithMessagef(err, "setup of dataset %q", name)
		}
		klog.V(1).Infof("Setup %q done", name)
	}

	ds := &InMemoryDataset{name: name, root: root, items: items}
	ds.self = ds
	return ds, nil
}

// FromItems creates a dataset directly from an item sequence already in
// memory, bypassing the load/download protocol.
func FromItems(name string, items []Item) *InMemoryDataset {
	if name == "" {
		name = "dataset-" + uuid.NewString()[:8]
	}
	ds := &InMemoryDataset{name: name, items: items}
	ds.self = ds
	return ds
}

// Name implements Dataset.
func (ds *InMemoryDataset) Name() string { return ds.name }

// Len implements Dataset.
func (ds *InMemoryDataset) Len() int { return len(ds.items) }

// Root returns the location the dataset was loaded from. Empty for datasets
// built with FromItems.
func (ds *InMemoryDataset) Root() string { return ds.root }

// item implements Dataset: it reads the stored item, substitutes a generated
// ID if absent and applies the transform pipelines.
func (ds *InMemoryDataset) item(index int) (Item, error) {
	it := ds.items[index]
	if it.ID == "" {
		it.ID = fmt.Sprintf("%s-%d", ds.name, index)
	}
	return ds.apply(it)
}

// Map replaces the selected payload of every stored item with fn's result.
// The mutation is irreversible and bypasses the transform pipelines.
func (ds *InMemoryDataset) Map(field Field, fn Transform) error {
	field.check()
	for index := range ds.items {
		value, err := fn(ds.items[index].get(field))
		if err != nil {
			return errors.WithMessagef(err, "map over %s of item %d of %q", field, index, ds.name)
		}
		ds.items[index].set(field, value)
	}
	return nil
}

// MapBatch is Map applied one chunk of batchSize items at a time (the last
// chunk may be shorter). fn must return one value per input; a failure leaves
// chunks mapped so far mutated.
func (ds *InMemoryDataset) MapBatch(field Field, batchSize int, fn BatchTransform) error {
	field.check()
	if batchSize <= 0 {
		return errors.Errorf("batch size must be positive, got %d", batchSize)
	}
	for chunkIdx, chunk := range xslices.Chunks(ds.items, batchSize) {
		mapped, err := fn(xslices.Map(chunk, func(it Item) any { return it.get(field) }))
		if err != nil {
			return errors.WithMessagef(err, "map over %s batch %d of %q", field, chunkIdx, ds.name)
		}
		if len(mapped) != len(chunk) {
			return errors.Errorf("batch function returned %d values for a batch of %d items of %q",
				len(mapped), len(chunk), ds.name)
		}
		for offset, value := range mapped {
			chunk[offset].set(field, value)
		}
	}
	return nil
}

// Tasks returns the sorted key set of the first item's target when it is a
// string-keyed mapping, nil otherwise. Computed once and memoized: target
// types must not change after the first introspection.
func (ds *InMemoryDataset) Tasks() ([]string, error) {
	ds.tasksOnce.Do(func() {
		ds.tasks, ds.tasksErr = inferTasks(ds)
	})
	return ds.tasks, ds.tasksErr
}

// TaskShapes classifies the dataset's prediction problem from the first
// item's target. Integer targets trigger a full scan counting distinct
// classes; the result is memoized, so the scan runs at most once.
func (ds *InMemoryDataset) TaskShapes() (TaskShape, error) {
	ds.shapesOnce.Do(func() {
		ds.shapes, ds.shapesErr = inferTaskShapes(ds)
	})
	return ds.shapes, ds.shapesErr
}
