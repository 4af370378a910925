package tracker

import "github.com/san-kum/fragtrack/internal/detector"

// Combinations returns the number of hit tuples for the given hit counts,
// a detector without hits contributing a single absent choice. Counting
// stops as soon as the result exceeds limit.
func Combinations(counts []int, limit int) int {
	n := 1
	for _, c := range counts {
		if c > 1 {
			n *= c
		}
		if n > limit {
			return n
		}
	}
	return n
}

// Product calls fn for every tuple of hit references, in lexicographic
// order of hit indices. Detectors without hits are Absent. fn must not keep
// refs; returning false stops the enumeration.
func Product(counts []int, fn func(refs []detector.HitRef) bool) {
	refs := make([]detector.HitRef, len(counts))
	productRecursive(0, counts, refs, fn)
}

func productRecursive(depth int, counts []int, refs []detector.HitRef, fn func([]detector.HitRef) bool) bool {
	if depth == len(counts) {
		return fn(refs)
	}
	if counts[depth] == 0 {
		refs[depth] = detector.Absent
		return productRecursive(depth+1, counts, refs, fn)
	}
	for i := 0; i < counts[depth]; i++ {
		refs[depth] = detector.At(i)
		if !productRecursive(depth+1, counts, refs, fn) {
			return false
		}
	}
	return true
}
