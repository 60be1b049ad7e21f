package datasets

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsClassifiesPayloadStructure(t *testing.T) {
	ds := FromItems("mail", []Item{
		{
			Data:   map[string]any{"mbox": "hello", "words": []string{"hello"}},
			Target: 1,
		},
		{
			Data:   map[string]any{"mbox": "world", "words": []string{"world"}},
			Target: 0,
		},
	})
	stats, err := ds.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Length)
	assert.Equal(t, map[string]any{"mbox": "string", "words": []any{"string"}}, stats.DataTypes)
	assert.Equal(t, "int", stats.TargetTypes)
}

func TestStatsArrayLikeAndNilPayloads(t *testing.T) {
	ds := FromItems("tensors", []Item{{Data: fakeTensor{dims: []int{2, 2}}}})
	stats, err := ds.Stats()
	require.NoError(t, err)
	assert.Equal(t, "array[2, 2]", stats.DataTypes)
	assert.Equal(t, "none", stats.TargetTypes)
}

func TestStatsEmptyDataset(t *testing.T) {
	ds := FromItems("empty", nil)
	stats, err := ds.Stats()
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Length)
	assert.Nil(t, stats.DataTypes)
}

func TestStatsReflectTransforms(t *testing.T) {
	ds := newTestDataset(3)
	ds.Transform(FieldTarget, func(v any) (any, error) { return float64(v.(int)), nil })
	stats, err := ds.Stats()
	require.NoError(t, err)
	assert.Equal(t, "float64", stats.TargetTypes)
}

func TestExamplesClampToLength(t *testing.T) {
	ds := newTestDataset(3)
	examples, err := ds.Examples(10)
	require.NoError(t, err)
	require.Len(t, examples, 3)
	assert.Equal(t, "item-0", examples[0].Data)

	examples, err = ds.Examples(2)
	require.NoError(t, err)
	assert.Len(t, examples, 2)
}

func TestDescribeRendersSummary(t *testing.T) {
	ds := newTestDataset(10)
	var buf bytes.Buffer
	require.NoError(t, ds.Describe(&buf, 80))

	out := buf.String()
	assert.Contains(t, out, "test:")
	assert.Contains(t, out, "length: 10")
	assert.Contains(t, out, "data types: string")
	assert.Contains(t, out, "target types: int")
	assert.Contains(t, out, "Examples:")
	assert.Contains(t, out, "test-0")
	assert.Contains(t, out, "item-4")
	assert.NotContains(t, out, "item-5", "only the first 5 examples are shown")
}

func TestDescribeMultiTaskShowsTasks(t *testing.T) {
	ds := FromItems("multi", []Item{
		{Data: "a", Target: map[string]any{"spam": 0, "score": 0.5}},
	})
	var buf bytes.Buffer
	require.NoError(t, ds.Describe(&buf, 100))
	assert.Contains(t, buf.String(), "tasks: [score spam]")
}

func TestDescribeEmptyDataset(t *testing.T) {
	ds := FromItems("empty", nil)
	var buf bytes.Buffer
	require.NoError(t, ds.Describe(&buf, 80))
	assert.Contains(t, buf.String(), "length: 0")
}

func TestFormatTypesDeterministic(t *testing.T) {
	tree := map[string]any{"b": "int", "a": []any{"string"}, "c": "none"}
	assert.Equal(t, "{a: [string], b: int, c: none}", formatTypes(tree))
}

func TestTruncateTo(t *testing.T) {
	assert.Equal(t, "short", truncateTo("short", 10))
	assert.Equal(t, "long…", truncateTo("long text that overflows", 5))
}
