package accel

import (
	"math"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"

	"github.com/df07/go-raytracer-accel/pkg/algorithm"
	"github.com/df07/go-raytracer-accel/pkg/core"
)

// LeafVisitor receives the rays that reach a leaf. VisitLeaf is called once
// per object in the leaf with the rays still live at that point; it may lower
// a ray's MaxT or mark it done.
type LeafVisitor interface {
	VisitLeaf(object int, rays []core.AccelRay)
}

// LeafFunc adapts an ordinary function to LeafVisitor
type LeafFunc func(object int, rays []core.AccelRay)

// VisitLeaf calls f(object, rays)
func (f LeafFunc) VisitLeaf(object int, rays []core.AccelRay) {
	f(object, rays)
}

// bvhNode is either an internal node, whose first child immediately follows
// it in the node array, or a leaf covering a range of objects.
type bvhNode struct {
	boundsStart, boundsEnd int
	leaf                   bool
	secondChild            int   // internal only
	splitAxis              uint8 // internal only
	objStart, objEnd       int   // leaf only
}

// BVH is a binary bounding volume hierarchy stored as a depth-first array
type BVH struct {
	nodes  []bvhNode
	bounds []core.AABB
	depth  int
}

// NewBVH builds a BVH over objects with the default config and the given leaf threshold.
// See NewBVHWithConfig.
func NewBVH[T any](objects []T, leafThreshold int, bounder Bounder[T]) *BVH {
	cfg := DefaultBuildConfig()
	cfg.LeafThreshold = leafThreshold
	return NewBVHWithConfig(objects, bounder, cfg)
}

// NewBVHWithConfig builds a BVH over objects, reordering them in place so
// that every leaf covers a contiguous range. The object indices passed to a
// LeafVisitor index into this reordered slice. bounder must return at least
// one bounding box per object.
//
// It panics if objects is empty or the config is invalid.
func NewBVHWithConfig[T any](objects []T, bounder Bounder[T], cfg BuildConfig) *BVH {
	if len(objects) == 0 {
		panic(errors.New("NewBVH: cannot build a BVH over zero objects"))
	}
	cfg.mustValidate("BVH")

	start := time.Now()
	root := buildTree(objects, bounder, cfg.LeafThreshold, cfg)

	bvh := &BVH{}
	bvh.flatten(root, 0)

	cfg.logger().Debugw("built BVH",
		"objects", len(objects),
		"nodes", len(bvh.nodes),
		"depth", bvh.depth,
		"split", cfg.SplitMethod.String(),
		"duration", time.Since(start))
	return bvh
}

func (b *BVH) flatten(n *buildNode, depth int) int {
	if depth > b.depth {
		b.depth = depth
	}

	index := len(b.nodes)
	b.nodes = append(b.nodes, bvhNode{})

	node := bvhNode{boundsStart: len(b.bounds)}
	b.bounds = append(b.bounds, n.bounds...)
	node.boundsEnd = len(b.bounds)

	if n.isLeaf() {
		node.leaf = true
		node.objStart, node.objEnd = n.start, n.end
	} else {
		node.splitAxis = uint8(n.splitAxis)
		b.flatten(n.left, depth+1)
		node.secondChild = b.flatten(n.right, depth+1)
	}

	b.nodes[index] = node
	return index
}

// Bounds returns the root bounding box time samples
func (b *BVH) Bounds() []core.AABB {
	root := &b.nodes[0]
	return b.bounds[root.boundsStart:root.boundsEnd]
}

// Depth returns the depth of the deepest node, with the root at depth 0
func (b *BVH) Depth() int {
	return b.depth
}

type bvhStackEntry struct {
	node  int
	count int // rays[:count] reached the node's parent
}

// Traverse resolves a batch of rays against the tree. At every node the live
// rays that hit the node's bounds (interpolated by ray time) are partitioned
// to the front of the batch, and only those continue into the children,
// nearest child first. Rays marked done are dropped at the next node.
//
// rays are reordered; the caller must identify rays by AccelRay.ID. profile
// may be nil.
func (b *BVH) Traverse(rays []core.AccelRay, visitor LeafVisitor, profile *Profile) {
	if len(rays) == 0 {
		return
	}

	timer := startTimer(profile)
	stack := make([]bvhStackEntry, 1, b.depth+2)
	stack[0] = bvhStackEntry{node: 0, count: len(rays)}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		node := &b.nodes[top.node]
		bounds := b.bounds[node.boundsStart:node.boundsEnd]
		timer.count(top.count)
		part := algorithm.Partition(rays[:top.count], func(r *core.AccelRay) bool {
			return !r.IsDone() && algorithm.LerpSlice(bounds, r.Time).IntersectAccelRay(r)
		})
		if part == 0 {
			continue
		}

		if node.leaf {
			timer.pause()
			visitLeaf(rays[:part], node.objStart, node.objEnd, visitor)
			timer.resume()
			continue
		}

		// Left holds the lower coordinates on the split axis, so it is nearer
		// for rays heading in the positive direction.
		near, far := top.node+1, node.secondChild
		if math.Signbit(core.Axis(rays[0].DirInv, int(node.splitAxis))) {
			near, far = far, near
		}
		stack = append(stack,
			bvhStackEntry{node: far, count: part},
			bvhStackEntry{node: near, count: part})
	}

	timer.stop()
}

// visitLeaf hands the live rays to the visitor for each object, dropping
// rays retired by earlier objects of the same leaf.
func visitLeaf(rays []core.AccelRay, start, end int, visitor LeafVisitor) {
	live := len(rays)
	for obj := start; obj < end; obj++ {
		if obj > start {
			live = algorithm.Partition(rays[:live], func(r *core.AccelRay) bool { return !r.IsDone() })
			if live == 0 {
				return
			}
		}
		visitor.VisitLeaf(obj, rays[:live])
	}
}

// Stats summarizes the shape of a built tree
type Stats struct {
	Nodes         int
	Leaves        int
	Objects       int
	MaxDepth      int
	MeanLeafDepth float64
	MeanLeafSize  float64
}

// Stats walks the tree and reports its shape
func (b *BVH) Stats() Stats {
	var depths, sizes stats.Float64Data
	var walk func(index, depth int)
	walk = func(index, depth int) {
		node := &b.nodes[index]
		if node.leaf {
			depths = append(depths, float64(depth))
			sizes = append(sizes, float64(node.objEnd-node.objStart))
			return
		}
		walk(index+1, depth+1)
		walk(node.secondChild, depth+1)
	}
	walk(0, 0)
	return summarize(len(b.nodes), depths, sizes)
}

func summarize(nodes int, depths, sizes stats.Float64Data) Stats {
	s := Stats{Nodes: nodes, Leaves: depths.Len()}
	total, _ := sizes.Sum()
	s.Objects = int(total)
	maxDepth, _ := depths.Max()
	s.MaxDepth = int(maxDepth)
	s.MeanLeafDepth, _ = depths.Mean()
	s.MeanLeafSize, _ = sizes.Mean()
	return s
}
