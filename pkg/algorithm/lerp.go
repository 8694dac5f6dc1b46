package algorithm

import "math"

// Lerper is implemented by values that can be linearly interpolated, such as
// bounding boxes sampled at several shutter times.
type Lerper[T any] interface {
	Lerp(other T, t float64) T
}

// LerpSlice interpolates across evenly spaced time samples: the first sample
// sits at t=0 and the last at t=1. A single sample is returned as is.
// It panics on an empty slice.
func LerpSlice[T Lerper[T]](s []T, t float64) T {
	return LerpSliceFunc(s, t, func(a, b T, u float64) T { return a.Lerp(b, u) })
}

// LerpSliceFunc is LerpSlice for types that cannot carry a Lerp method
func LerpSliceFunc[T any](s []T, t float64, lerp func(a, b T, u float64) T) T {
	if len(s) == 1 {
		return s[0]
	}

	if t <= 0 {
		return s[0]
	}
	if t >= 1 {
		return s[len(s)-1]
	}

	f := t * float64(len(s)-1)
	i := int(math.Floor(f))
	if i >= len(s)-1 {
		return s[len(s)-1]
	}
	return lerp(s[i], s[i+1], f-float64(i))
}

// MergeSlicesAppend merges two time-sample lists and appends the result to
// out. Lists of equal length merge pairwise; otherwise the shorter list is
// interpolated at the sample times of the longer one. Nothing is appended if
// either list is empty.
func MergeSlicesAppend[T Lerper[T]](a, b, out []T, merge func(a, b T) T) []T {
	switch {
	case len(a) == 0 || len(b) == 0:
		return out
	case len(a) == len(b):
		for i := range a {
			out = append(out, merge(a[i], b[i]))
		}
	case len(a) > len(b):
		s := float64(len(a) - 1)
		for i := range a {
			out = append(out, merge(a[i], LerpSlice(b, float64(i)/s)))
		}
	default:
		s := float64(len(b) - 1)
		for i := range b {
			out = append(out, merge(LerpSlice(a, float64(i)/s), b[i]))
		}
	}
	return out
}
