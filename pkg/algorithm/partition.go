// Package algorithm holds the in-place array primitives shared by the
// acceleration structure builders and traversals.
package algorithm

import "github.com/pkg/errors"

// Partition reorders s in place so that every element for which pred returns
// true comes before every element for which it returns false, and returns the
// index of the first false element.
//
// pred is called exactly once per element and may modify the element it is
// given. Relative order is not preserved.
func Partition[T any](s []T, pred func(*T) bool) int {
	a, b := 0, len(s)
	for {
		for {
			if a == b {
				return a
			}
			if !pred(&s[a]) {
				break
			}
			a++
		}

		for {
			b--
			if a == b {
				return a
			}
			if pred(&s[b]) {
				break
			}
		}

		s[a], s[b] = s[b], s[a]
		a++
	}
}

// PartitionPair partitions two equal-length slices in lockstep: whenever slot
// i of a moves, slot i of b moves with it. It panics if the lengths differ.
//
// pred receives the slot index being tested along with both elements. The
// index is the position of the forward or backward scan at the time of the
// test; since untested elements are never moved it is also the element's
// position before the call, but it carries no meaning across calls.
func PartitionPair[A, B any](a []A, b []B, pred func(i int, a *A, b *B) bool) int {
	if len(a) != len(b) {
		panic(errors.Errorf("PartitionPair: slice lengths differ (%d != %d)", len(a), len(b)))
	}

	lo, hi := 0, len(a)
	for {
		for {
			if lo == hi {
				return lo
			}
			if !pred(lo, &a[lo], &b[lo]) {
				break
			}
			lo++
		}

		for {
			hi--
			if lo == hi {
				return lo
			}
			if pred(hi, &a[hi], &b[hi]) {
				break
			}
		}

		a[lo], a[hi] = a[hi], a[lo]
		b[lo], b[hi] = b[hi], b[lo]
		lo++
	}
}

// QuickSelect reorders s so that s[n] holds the element that would be there
// if s were sorted by less, with no greater element before it and no smaller
// element after it. It panics if n is out of range.
func QuickSelect[T any](s []T, n int, less func(a, b *T) bool) {
	if n < 0 || n >= len(s) {
		panic(errors.Errorf("QuickSelect: index %d out of range [0, %d)", n, len(s)))
	}

	lo, hi := 0, len(s)
	for hi-lo > 1 {
		// Middle element as pivot, moved to the end so it stays put during partition.
		mid := lo + (hi-lo)/2
		s[mid], s[hi-1] = s[hi-1], s[mid]
		pivot := &s[hi-1]

		p := lo + Partition(s[lo:hi-1], func(v *T) bool { return less(v, pivot) })
		s[p], s[hi-1] = s[hi-1], s[p]
		if n < p {
			hi = p
			continue
		}

		// Gather elements equal to the pivot so runs of duplicates finish in one pass.
		pv := &s[p]
		q := p + 1 + Partition(s[p+1:hi], func(v *T) bool { return !less(pv, v) })
		if n < q {
			return
		}
		lo = q
	}
}
