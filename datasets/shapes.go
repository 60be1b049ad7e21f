package datasets

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/datakit-ml/datakit/types"
)

// TaskShape is the structural classification of a dataset's target, used to
// infer the kind of prediction problem. It is a closed tagged variant:
//
//   - Cardinality: integer targets, the number of distinct classes.
//   - Length: non-string sequence targets, their fixed length.
//   - Dims: array-like targets, their dimensions.
//   - Scalar: float targets, a single continuous value.
//   - MultiTask: string-keyed mapping targets, one shape per task.
//
// A nil TaskShape means the target carries no recognizable shape.
type TaskShape interface {
	isTaskShape()
	String() string
}

// Cardinality is the number of distinct classes of an integer-valued target.
type Cardinality int

// Length is the fixed length of a sequence-valued target.
type Length int

// Dims are the dimensions of an array-like target.
type Dims []int

// Scalar marks a single continuous value target.
type Scalar struct{}

// MultiTask maps each task name to its shape.
type MultiTask map[string]TaskShape

func (Cardinality) isTaskShape() {}
func (Length) isTaskShape()      {}
func (Dims) isTaskShape()        {}
func (Scalar) isTaskShape()      {}
func (MultiTask) isTaskShape()   {}

func (c Cardinality) String() string { return fmt.Sprintf("%d classes", int(c)) }
func (l Length) String() string      { return fmt.Sprintf("sequence of %d", int(l)) }
func (d Dims) String() string {
	parts := make([]string, len(d))
	for ii, dim := range d {
		parts[ii] = fmt.Sprintf("%d", dim)
	}
	return "array[" + strings.Join(parts, ", ") + "]"
}
func (Scalar) String() string { return "scalar" }
func (m MultiTask) String() string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for ii, key := range keys {
		shape := "none"
		if m[key] != nil {
			shape = m[key].String()
		}
		parts[ii] = key + ": " + shape
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Shaped is implemented by array-like payloads (tensors and friends) that
// know their own dimensions.
type Shaped interface {
	Shape() []int
}

// TargetClassifier extends shape classification to payload types the built-in
// dispatch does not recognize. It reports whether it matched the value.
type TargetClassifier func(value any) (TaskShape, bool)

// targetClassifiers are consulted, in registration order, after the built-in
// dispatch (mapping, sequence, array-like, integer, float) found no match.
var targetClassifiers []TargetClassifier

// RegisterTargetClassifier appends a classifier to the extension list used by
// TaskShapes. Built-in classification always runs first.
func RegisterTargetClassifier(classifier TargetClassifier) {
	targetClassifiers = append(targetClassifiers, classifier)
}

// inferTasks implements Tasks for datasets that own storage: the sorted key
// set of the first target when it is a string-keyed mapping, nil otherwise.
func inferTasks(ds Dataset) ([]string, error) {
	first, err := ds.At(0)
	if err != nil {
		return nil, errors.WithMessagef(err, "inferring tasks of %q", ds.Name())
	}
	mapping, ok := asMapping(first.Target)
	if !ok {
		return nil, nil
	}
	tasks := make([]string, 0, len(mapping))
	for key := range mapping {
		tasks = append(tasks, key)
	}
	sort.Strings(tasks)
	return tasks, nil
}

// inferTaskShapes implements TaskShapes: it dispatches on the first item's
// target shape and, for integer targets, scans the whole dataset counting
// distinct classes. Callers memoize the result.
func inferTaskShapes(ds Dataset) (TaskShape, error) {
	first, err := ds.At(0)
	if err != nil {
		return nil, errors.WithMessagef(err, "inferring task shapes of %q", ds.Name())
	}
	target := first.Target

	if mapping, ok := asMapping(target); ok {
		shapes := make(MultiTask, len(mapping))
		for key, value := range mapping {
			if _, isInt := asInt(value); isInt {
				classes, err := distinctTargetCount(ds, key)
				if err != nil {
					return nil, err
				}
				shapes[key] = Cardinality(classes)
			} else {
				shapes[key] = classifyTarget(value)
			}
		}
		return shapes, nil
	}
	if length, ok := sequenceLen(target); ok {
		return Length(length), nil
	}
	if dims, ok := arrayDims(target); ok {
		return dims, nil
	}
	if _, ok := asInt(target); ok {
		classes, err := distinctTargetCount(ds, "")
		if err != nil {
			return nil, err
		}
		return Cardinality(classes), nil
	}
	if isFloat(target) {
		return Scalar{}, nil
	}
	for _, classifier := range targetClassifiers {
		if shape, ok := classifier(target); ok {
			return shape, nil
		}
	}
	return nil, nil
}

// classifyTarget classifies a single value inside a multi-task mapping. The
// integer case is handled by the caller, which needs a dataset-wide scan.
func classifyTarget(value any) TaskShape {
	if length, ok := sequenceLen(value); ok {
		return Length(length)
	}
	if dims, ok := arrayDims(value); ok {
		return dims
	}
	if isFloat(value) {
		return Scalar{}
	}
	for _, classifier := range targetClassifiers {
		if shape, ok := classifier(value); ok {
			return shape
		}
	}
	return nil
}

// distinctTargetCount scans every target (or the value under key, when key is
// non-empty) and counts distinct integer values. All scanned values must be
// integers: mixing target types within a dataset is an error.
func distinctTargetCount(ds Dataset, key string) (int, error) {
	seen := types.MakeSet[int64]()
	index := 0
	for it, err := range ds.All() {
		if err != nil {
			return 0, err
		}
		value := it.Target
		if key != "" {
			mapping, ok := asMapping(value)
			if !ok {
				return 0, errors.Errorf("target of item %d of %q is not a mapping, expected task %q", index, ds.Name(), key)
			}
			if value, ok = mapping[key]; !ok {
				return 0, errors.Errorf("target of item %d of %q is missing task %q", index, ds.Name(), key)
			}
		}
		class, ok := asInt(value)
		if !ok {
			return 0, errors.Errorf("target of item %d of %q is %T, expected an integer class", index, ds.Name(), value)
		}
		seen.Insert(class)
		index++
	}
	return len(seen), nil
}

// asMapping reports a string-keyed mapping payload, normalized to
// map[string]any.
func asMapping(value any) (map[string]any, bool) {
	if mapping, ok := value.(map[string]any); ok {
		return mapping, true
	}
	if value == nil {
		return nil, false
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	mapping := make(map[string]any, rv.Len())
	mapIter := rv.MapRange()
	for mapIter.Next() {
		mapping[mapIter.Key().String()] = mapIter.Value().Interface()
	}
	return mapping, true
}

// sequenceLen reports the length of slice or array payloads. Strings are not
// sequences here.
func sequenceLen(value any) (int, bool) {
	if value == nil {
		return 0, false
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return 0, false
	}
	return rv.Len(), true
}

// arrayDims reports the dimensions of array-like payloads: anything exposing
// Shape() []int, or a gonum-style Dims() (rows, cols).
func arrayDims(value any) (Dims, bool) {
	if shaped, ok := value.(Shaped); ok {
		return Dims(shaped.Shape()), true
	}
	if matrix, ok := value.(interface{ Dims() (int, int) }); ok {
		rows, cols := matrix.Dims()
		return Dims{rows, cols}, true
	}
	return nil, false
}

// asInt reports integer payloads of any width or sign.
func asInt(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		return int64(v), true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		return int64(v), true
	}
	return 0, false
}

func isFloat(value any) bool {
	switch value.(type) {
	case float32, float64:
		return true
	}
	return false
}

// nestedTypes recursively classifies the structure of a payload for Stats:
// mappings become maps of classifications, sequences a single-element slice
// of their element classification, array-likes their dims, and scalars their
// Go type name.
func nestedTypes(value any) any {
	if value == nil {
		return "none"
	}
	if mapping, ok := asMapping(value); ok {
		classified := make(map[string]any, len(mapping))
		for key, element := range mapping {
			classified[key] = nestedTypes(element)
		}
		return classified
	}
	if dims, ok := arrayDims(value); ok {
		return dims.String()
	}
	if length, ok := sequenceLen(value); ok {
		if length == 0 {
			return []any{}
		}
		rv := reflect.ValueOf(value)
		return []any{nestedTypes(rv.Index(0).Interface())}
	}
	return reflect.TypeOf(value).String()
}
