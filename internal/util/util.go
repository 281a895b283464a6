// Package util holds small generic helpers shared across Falcon's
// packages: TransformSlice for mapping a slice to a new element type,
// and CanonicalMapIter for stable, sorted-key iteration over a map
// where output determinism matters (debug trace lines, dump output).
package util

import (
	"iter"
	"sort"
)

// TransformSlice applies converter to every element of in and returns
// the resulting slice.
func TransformSlice[T any, R any](in []T, converter func(T) R) []R {
	out := make([]R, len(in))
	for i, v := range in {
		out[i] = converter(v)
	}
	return out
}

// CanonicalMapIter yields a string-keyed map's entries in ascending key
// order, so callers that log or print map contents get deterministic
// output regardless of Go's randomized map iteration order.
func CanonicalMapIter[T any](m map[string]T) iter.Seq2[string, T] {
	return func(yield func(string, T) bool) {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			if !yield(k, m[k]) {
				return
			}
		}
	}
}
