// Package xslices provides generic slice utilities used throughout datakit.
package xslices

import (
	"slices"

	"golang.org/x/exp/constraints"
)

// Map returns a new slice with fn applied to each element of in.
func Map[In, Out any](in []In, fn func(In) Out) []Out {
	out := make([]Out, len(in))
	for ii, element := range in {
		out[ii] = fn(element)
	}
	return out
}

// Unique removes duplicates from values, keeping the first occurrence of each
// element in its original position. The input is not modified.
func Unique[T comparable](values []T) []T {
	seen := make(map[T]struct{}, len(values))
	unique := make([]T, 0, len(values))
	for _, v := range values {
		if _, found := seen[v]; found {
			continue
		}
		seen[v] = struct{}{}
		unique = append(unique, v)
	}
	return unique
}

// SortedUnique removes duplicates from values and returns the survivors in
// ascending order. The input is not modified.
func SortedUnique[T constraints.Ordered](values []T) []T {
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	return slices.Compact(sorted)
}

// Chunks partitions a slice into consecutive chunks of the given size; the
// last chunk may be shorter. The chunks share the input's backing array, so
// writes to a chunk are visible in the input slice.
func Chunks[T any](values []T, size int) [][]T {
	if size <= 0 {
		return nil
	}
	chunks := make([][]T, 0, (len(values)+size-1)/size)
	for start := 0; start < len(values); start += size {
		end := min(start+size, len(values))
		chunks = append(chunks, values[start:end:end])
	}
	return chunks
}
