package accel

import (
	"math"

	"github.com/pkg/errors"

	"github.com/df07/go-raytracer-accel/pkg/algorithm"
	"github.com/df07/go-raytracer-accel/pkg/core"
)

// Bounder returns the bounding box time samples of an object
type Bounder[T any] func(obj T) []core.AABB

// Number of SAH bins per axis; the 12 boundaries between them are the
// candidate split planes.
const sahBinCount = 13

// centroid of the object's bounds at mid-shutter
func centroid[T any](obj T, bounder Bounder[T]) core.Vec3 {
	return algorithm.LerpSlice(bounder(obj), 0.5).Center()
}

// SplitObjects reorders objects in place into a left and a right group and
// returns the index of the first right object together with the split axis.
// Left objects have the lower centroids on that axis. Both groups are always
// non-empty: when the heuristic cannot separate the objects (for example all
// centroids coincide) the split falls back to the middle index.
// It panics if fewer than two objects are given.
func SplitObjects[T any](objects []T, bounder Bounder[T], method SplitMethod) (int, int) {
	if len(objects) < 2 {
		panic(errors.Errorf("SplitObjects: need at least 2 objects, got %d", len(objects)))
	}

	cbounds := core.EmptyAABB()
	for _, obj := range objects {
		c := centroid(obj, bounder)
		cbounds = cbounds.Union(core.NewAABB(c, c))
	}

	axis := cbounds.LongestAxis()
	if core.Axis(cbounds.Size(), axis) <= 0 {
		// Every centroid is the same point; pick the axis with the largest
		// object extent and split evenly by index.
		return len(objects) / 2, aggregateBounds(objects, bounder).LongestAxis()
	}

	var split int
	switch method {
	case SplitMedian:
		split, axis = medianSplit(objects, bounder, axis)
	case SplitMiddle:
		split, axis = middleSplit(objects, bounder, cbounds, axis)
	default:
		split, axis = sahSplit(objects, bounder, cbounds)
	}

	if split <= 0 || split >= len(objects) {
		split = len(objects) / 2
	}
	return split, axis
}

func aggregateBounds[T any](objects []T, bounder Bounder[T]) core.AABB {
	bounds := core.EmptyAABB()
	for _, obj := range objects {
		bounds = bounds.Union(algorithm.LerpSlice(bounder(obj), 0.5))
	}
	return bounds
}

// middleSplit divides at the midpoint of the centroid bounds
func middleSplit[T any](objects []T, bounder Bounder[T], cbounds core.AABB, axis int) (int, int) {
	div := core.Axis(cbounds.Center(), axis)
	split := algorithm.Partition(objects, func(obj *T) bool {
		return core.Axis(centroid(*obj, bounder), axis) < div
	})
	return split, axis
}

// medianSplit places the median centroid at len/2
func medianSplit[T any](objects []T, bounder Bounder[T], axis int) (int, int) {
	place := len(objects) / 2
	algorithm.QuickSelect(objects, place, func(a, b *T) bool {
		return core.Axis(centroid(*a, bounder), axis) < core.Axis(centroid(*b, bounder), axis)
	})
	return place, axis
}

type sahBin struct {
	left, right           core.AABB
	leftCount, rightCount int
}

// sahSplit evaluates the surface area heuristic at evenly spaced planes
// across the centroid bounds on every axis and partitions at the cheapest.
func sahSplit[T any](objects []T, bounder Bounder[T], cbounds core.AABB) (int, int) {
	var divs [3][sahBinCount - 1]float64
	var bins [3][sahBinCount - 1]sahBin
	for d := 0; d < 3; d++ {
		lo := core.Axis(cbounds.Min, d)
		extent := core.Axis(cbounds.Max, d) - lo
		for i := range divs[d] {
			divs[d][i] = lo + extent*float64(i+1)/sahBinCount
			bins[d][i].left = core.EmptyAABB()
			bins[d][i].right = core.EmptyAABB()
		}
	}

	for _, obj := range objects {
		tb := algorithm.LerpSlice(bounder(obj), 0.5)
		c := tb.Center()
		for d := 0; d < 3; d++ {
			for i := range divs[d] {
				bin := &bins[d][i]
				if core.Axis(c, d) < divs[d][i] {
					bin.left = bin.left.Union(tb)
					bin.leftCount++
				} else {
					bin.right = bin.right.Union(tb)
					bin.rightCount++
				}
			}
		}
	}

	axis, div := -1, 0.0
	best := math.Inf(1)
	for d := 0; d < 3; d++ {
		for i := range divs[d] {
			bin := &bins[d][i]
			if bin.leftCount == 0 || bin.rightCount == 0 {
				continue
			}
			cost := bin.left.SurfaceArea()*float64(bin.leftCount) + bin.right.SurfaceArea()*float64(bin.rightCount)
			if cost < best {
				axis, div, best = d, divs[d][i], cost
			}
		}
	}
	if axis < 0 {
		return middleSplit(objects, bounder, cbounds, cbounds.LongestAxis())
	}

	split := algorithm.Partition(objects, func(obj *T) bool {
		return core.Axis(centroid(*obj, bounder), axis) < div
	})
	return split, axis
}
