package datasets

import "github.com/pkg/errors"

// ConcatDataset joins two datasets end to end without copying: positions
// below the transition offset resolve in the first dataset, the rest in the
// second, shifted by the offset. It applies its own transform pipelines after
// delegation, exactly like a View.
//
// The transition offset and total length are frozen at construction; later
// growth of a wrapped dataset is not reflected.
type ConcatDataset struct {
	base
	first, second Dataset
	transition    int
	length        int
}

var _ Dataset = &ConcatDataset{}

// Concat joins first and second, in order.
func Concat(first, second Dataset) (*ConcatDataset, error) {
	if first == nil || second == nil {
		return nil, errors.Wrap(ErrUnsupported, "cannot concatenate a nil dataset")
	}
	c := &ConcatDataset{
		first:      first,
		second:     second,
		transition: first.Len(),
		length:     first.Len() + second.Len(),
	}
	c.self = c
	return c, nil
}

// Name implements Dataset.
func (c *ConcatDataset) Name() string { return c.first.Name() + "+" + c.second.Name() }

// Len implements Dataset.
func (c *ConcatDataset) Len() int { return c.length }

// item implements Dataset: interval dispatch on the transition offset, then
// this concatenation's own transforms.
func (c *ConcatDataset) item(index int) (Item, error) {
	var it Item
	var err error
	if index < c.transition {
		it, err = c.first.item(index)
	} else {
		it, err = c.second.item(index - c.transition)
	}
	if err != nil {
		return Item{}, err
	}
	return c.apply(it)
}

// Tasks returns the first dataset's tasks. Both sides are expected to share
// the same task structure; the first one is authoritative.
func (c *ConcatDataset) Tasks() ([]string, error) { return c.first.Tasks() }

// TaskShapes returns the first dataset's task shapes, consistent with Tasks.
func (c *ConcatDataset) TaskShapes() (TaskShape, error) { return c.first.TaskShapes() }
