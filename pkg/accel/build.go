package accel

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/df07/go-raytracer-accel/pkg/algorithm"
	"github.com/df07/go-raytracer-accel/pkg/core"
)

// buildNode is the pointer-linked tree produced by the recursive build before
// it is flattened into a depth-first array.
type buildNode struct {
	bounds      []core.AABB
	left, right *buildNode
	splitAxis   int
	start, end  int // object range, leaves only
}

func (n *buildNode) isLeaf() bool {
	return n.left == nil
}

// treeBuilder recursively splits a slice of objects. Each recursive call owns
// a disjoint sub-range of the slice, so large halves can be built on their own
// goroutine without any locking.
type treeBuilder[T any] struct {
	objects       []T
	bounder       Bounder[T]
	leafThreshold int
	method        SplitMethod
	parallel      int
}

func buildTree[T any](objects []T, bounder Bounder[T], leafThreshold int, cfg BuildConfig) *buildNode {
	b := &treeBuilder[T]{
		objects:       objects,
		bounder:       bounder,
		leafThreshold: leafThreshold,
		method:        cfg.SplitMethod,
		parallel:      cfg.ParallelThreshold,
	}
	return b.build(0, len(objects))
}

func (b *treeBuilder[T]) build(start, end int) *buildNode {
	objects := b.objects[start:end]
	if len(objects) <= b.leafThreshold || len(objects) < 2 {
		return b.leaf(start, end)
	}

	split, axis := SplitObjects(objects, b.bounder, b.method)
	node := &buildNode{splitAxis: axis}

	if b.parallel > 0 && len(objects) >= b.parallel {
		leftPanic := forkJoin(
			func() { node.left = b.build(start, start+split) },
			func() { node.right = b.build(start+split, end) })
		if leftPanic != nil {
			panic(errors.Errorf("building objects [%d, %d): %v", start, start+split, leftPanic))
		}
	} else {
		node.left = b.build(start, start+split)
		node.right = b.build(start+split, end)
	}

	node.bounds = algorithm.MergeSlicesAppend(node.left.bounds, node.right.bounds, nil, core.AABB.Union)
	return node
}

// forkJoin runs left on a new goroutine and right on the caller's, and returns
// once both are done. A panic in left is recovered and returned so the caller
// can raise it on its own goroutine.
func forkJoin(left, right func()) (leftPanic interface{}) {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer func() { leftPanic = recover() }()
		left()
	}()
	right()
	wg.Wait()
	return leftPanic
}

func (b *treeBuilder[T]) leaf(start, end int) *buildNode {
	var bounds []core.AABB
	for _, obj := range b.objects[start:end] {
		samples := b.bounder(obj)
		if bounds == nil {
			bounds = append([]core.AABB(nil), samples...)
			continue
		}
		bounds = algorithm.MergeSlicesAppend(bounds, samples, nil, core.AABB.Union)
	}
	return &buildNode{bounds: bounds, start: start, end: end}
}
