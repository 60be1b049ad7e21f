package datasets

// View is a non-owning index subset over a parent dataset (an InMemoryDataset
// or another View/ConcatDataset). It resolves positions through its index
// sequence, delegates to the parent and applies its own transform pipelines
// on top of whatever the parent produced. The parent must outlive the view.
//
// The index sequence never contains duplicates; construction deduplicates.
type View struct {
	base
	parent  Dataset
	indices []int
}

var _ Dataset = &View{}

// NewView returns a view over the given parent positions, deduplicated and
// kept in ascending order.
func NewView(parent Dataset, indices []int) (*View, error) {
	if err := checkIndices(parent, indices); err != nil {
		return nil, err
	}
	return newView(parent, indices, true), nil
}

// NewViewUnsorted returns a view over the given parent positions,
// deduplicated at first occurrence but otherwise kept in caller order.
func NewViewUnsorted(parent Dataset, indices []int) (*View, error) {
	if err := checkIndices(parent, indices); err != nil {
		return nil, err
	}
	return newView(parent, indices, false), nil
}

// newView skips index validation: internal callers derive indices from the
// parent's own range.
func newView(parent Dataset, indices []int, sorted bool) *View {
	v := &View{parent: parent, indices: dedupe(indices, sorted)}
	v.self = v
	return v
}

// Name implements Dataset.
func (v *View) Name() string { return v.parent.Name() + " [view]" }

// Len implements Dataset: the number of indices, not the parent's length.
func (v *View) Len() int { return len(v.indices) }

// Parent returns the dataset this view remaps into.
func (v *View) Parent() Dataset { return v.parent }

// Indices returns the view's index sequence into the parent. The caller must
// not modify it.
func (v *View) Indices() []int { return v.indices }

// item implements Dataset: resolve through the index sequence, delegate to
// the parent, then apply this view's own transforms.
func (v *View) item(index int) (Item, error) {
	it, err := v.parent.item(v.indices[index])
	if err != nil {
		return Item{}, err
	}
	return v.apply(it)
}

// Tasks delegates to the parent: a view never redefines task structure.
func (v *View) Tasks() ([]string, error) { return v.parent.Tasks() }

// TaskShapes delegates to the parent.
func (v *View) TaskShapes() (TaskShape, error) { return v.parent.TaskShapes() }
