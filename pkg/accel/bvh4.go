package accel

import (
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"

	"github.com/df07/go-raytracer-accel/pkg/algorithm"
	"github.com/df07/go-raytracer-accel/pkg/core"
)

type childKind uint8

const (
	childEmpty childKind = iota
	childNode
	childLeaf
)

// bvh4Child is one slot of a BVH4 node: a nested node or a leaf range, with
// its own bounds.
type bvh4Child struct {
	kind                   childKind
	node                   int // childNode only
	objStart, objEnd       int // childLeaf only
	boundsStart, boundsEnd int
}

type bvh4Node struct {
	traversalCode uint8
	childCount    uint8
	children      [4]bvh4Child
}

// BVH4 is a 4-wide BVH made by collapsing pairs of levels of a binary BVH.
// Children are visited in a near-to-far order looked up by ray octant and
// the node's traversal code.
type BVH4 struct {
	nodes  []bvh4Node
	bounds []core.AABB
	root   bvh4Child
	depth  int
}

// NewBVH4 collapses a binary BVH. Leaf object ranges are kept, so the same
// reordered object slice serves both trees.
func NewBVH4(b *BVH) *BVH4 {
	if b == nil || len(b.nodes) == 0 {
		panic(errors.New("NewBVH4: binary BVH is empty"))
	}
	q := &BVH4{}
	q.root = q.child(b, 0, 0)
	return q
}

func (q *BVH4) child(b *BVH, index, depth int) bvh4Child {
	n := &b.nodes[index]
	c := bvh4Child{boundsStart: len(q.bounds)}
	q.bounds = append(q.bounds, b.bounds[n.boundsStart:n.boundsEnd]...)
	c.boundsEnd = len(q.bounds)

	if n.leaf {
		c.kind = childLeaf
		c.objStart, c.objEnd = n.objStart, n.objEnd
	} else {
		c.kind = childNode
		c.node = q.collapse(b, index, depth)
	}
	return c
}

// collapse turns the binary node at index and its internal children into one node
func (q *BVH4) collapse(b *BVH, index, depth int) int {
	if depth > q.depth {
		q.depth = depth
	}

	n := &b.nodes[index]
	left, right := index+1, n.secondChild
	ln, rn := &b.nodes[left], &b.nodes[right]

	split := SplitAxes{Top: n.splitAxis}
	var slots []int
	switch {
	case !ln.leaf && !rn.leaf:
		split.Topology, split.Left, split.Right = TopologyFull, ln.splitAxis, rn.splitAxis
		slots = []int{left + 1, ln.secondChild, right + 1, rn.secondChild}
	case !ln.leaf:
		split.Topology, split.Left = TopologyLeft, ln.splitAxis
		slots = []int{left + 1, ln.secondChild, right}
	case !rn.leaf:
		split.Topology, split.Right = TopologyRight, rn.splitAxis
		slots = []int{left, right + 1, rn.secondChild}
	default:
		split.Topology = TopologyTopOnly
		slots = []int{left, right}
	}

	nodeIndex := len(q.nodes)
	q.nodes = append(q.nodes, bvh4Node{})

	node := bvh4Node{traversalCode: TraversalCode(split), childCount: uint8(len(slots))}
	for i, slot := range slots {
		node.children[i] = q.child(b, slot, depth+1)
	}
	q.nodes[nodeIndex] = node
	return nodeIndex
}

// Bounds returns the root bounding box time samples
func (q *BVH4) Bounds() []core.AABB {
	return q.bounds[q.root.boundsStart:q.root.boundsEnd]
}

// Depth returns the depth of the deepest BVH4 node, with the root at depth 0
func (q *BVH4) Depth() int {
	return q.depth
}

type bvh4StackEntry struct {
	node  int // -1 for the root slot
	slot  uint8
	count int
}

func (q *BVH4) slot(e bvh4StackEntry) *bvh4Child {
	if e.node < 0 {
		return &q.root
	}
	return &q.nodes[e.node].children[e.slot]
}

// Traverse has the same contract as BVH.Traverse. Each popped entry tests
// one child's bounds; the populated children of a node are pushed in the
// order given by TraversalOrder for the octant of the first ray.
func (q *BVH4) Traverse(rays []core.AccelRay, visitor LeafVisitor, profile *Profile) {
	if len(rays) == 0 {
		return
	}

	timer := startTimer(profile)
	octant := rays[0].Octant()
	stack := make([]bvh4StackEntry, 1, 3*q.depth+4)
	stack[0] = bvh4StackEntry{node: -1, count: len(rays)}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		child := q.slot(top)
		debugAssert(child.kind != childEmpty, "BVH4 traversal reached an empty slot")
		bounds := q.bounds[child.boundsStart:child.boundsEnd]
		timer.count(top.count)
		part := algorithm.Partition(rays[:top.count], func(r *core.AccelRay) bool {
			return !r.IsDone() && algorithm.LerpSlice(bounds, r.Time).IntersectAccelRay(r)
		})
		if part == 0 {
			continue
		}

		if child.kind == childLeaf {
			timer.pause()
			visitLeaf(rays[:part], child.objStart, child.objEnd, visitor)
			timer.resume()
			continue
		}

		node := &q.nodes[child.node]
		order := TraversalOrder(octant, node.traversalCode)
		for k := int(node.childCount) - 1; k >= 0; k-- {
			stack = append(stack, bvh4StackEntry{
				node:  child.node,
				slot:  (order >> (2 * k)) & 3,
				count: part,
			})
		}
	}

	timer.stop()
}

// Stats walks the tree and reports its shape. Depths count BVH4 levels.
func (q *BVH4) Stats() Stats {
	var depths, sizes stats.Float64Data
	var walk func(c *bvh4Child, depth int)
	walk = func(c *bvh4Child, depth int) {
		if c.kind == childLeaf {
			depths = append(depths, float64(depth))
			sizes = append(sizes, float64(c.objEnd-c.objStart))
			return
		}
		node := &q.nodes[c.node]
		for i := 0; i < int(node.childCount); i++ {
			walk(&node.children[i], depth+1)
		}
	}
	walk(&q.root, 0)
	return summarize(len(q.nodes), depths, sizes)
}
