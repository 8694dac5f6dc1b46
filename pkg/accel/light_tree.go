package accel

import (
	"math"
	"time"

	"github.com/df07/go-raytracer-accel/pkg/core"
)

type lightNode struct {
	boundsStart, boundsEnd int
	energy                 float64 // Sum of the energies below this node
	leaf                   bool
	secondChild            int // internal only
	lightIndex             int // leaf only
}

// LightTree selects among many lights by a weighted descent of a binary tree
// of light bounds. Each step consumes part of the random sample and rescales
// the rest, so one sample drives the whole descent.
type LightTree struct {
	nodes  []lightNode
	bounds []core.AABB
	depth  int
}

// NewLightTree builds a LightTree with the default config
func NewLightTree[T any](lights []T, info LightInfo[T]) *LightTree {
	return NewLightTreeWithConfig(lights, info, DefaultBuildConfig())
}

// NewLightTreeWithConfig builds a LightTree. The lights slice is not
// modified; selected indices refer to it. An empty slice gives a tree that
// never selects anything.
func NewLightTreeWithConfig[T any](lights []T, info LightInfo[T], cfg BuildConfig) *LightTree {
	cfg.mustValidate("light tree")
	tree := &LightTree{}
	if len(lights) == 0 {
		return tree
	}

	start := time.Now()
	refs := collectLights(lights, info)
	root := buildTree(refs, lightRefBounds, 1, cfg)
	tree.flatten(root, refs, 0)

	cfg.logger().Debugw("built light tree",
		"lights", len(lights),
		"nodes", len(tree.nodes),
		"depth", tree.depth,
		"duration", time.Since(start))
	return tree
}

func (t *LightTree) flatten(n *buildNode, refs []lightRef, depth int) (int, float64) {
	if depth > t.depth {
		t.depth = depth
	}

	index := len(t.nodes)
	t.nodes = append(t.nodes, lightNode{})

	node := lightNode{boundsStart: len(t.bounds)}
	t.bounds = append(t.bounds, n.bounds...)
	node.boundsEnd = len(t.bounds)

	if n.isLeaf() {
		ref := refs[n.start]
		node.leaf = true
		node.lightIndex = ref.index
		node.energy = math.Max(ref.energy, 0)
	} else {
		_, leftEnergy := t.flatten(n.left, refs, depth+1)
		var rightEnergy float64
		node.secondChild, rightEnergy = t.flatten(n.right, refs, depth+1)
		node.energy = leftEnergy + rightEnergy
	}

	t.nodes[index] = node
	return index, node.energy
}

// Depth returns the depth of the deepest leaf, with the root at depth 0
func (t *LightTree) Depth() int {
	return t.depth
}

func (t *LightTree) weight(index int, sp *ShadingPoint) float64 {
	node := &t.nodes[index]
	return lightWeight(t.bounds[node.boundsStart:node.boundsEnd], node.energy, sp)
}

// branch returns the probability of descending into the first child of the
// internal node at index. Children are weighted by lightWeight; when both
// weights are zero below the root (the parent's bounds reached the shading
// point but neither child's does) they fall back to their energies, so a
// descent that has started always ends at a light. ok is false only when both
// children of the root have zero weight.
func (t *LightTree) branch(index int, sp *ShadingPoint) (float64, bool) {
	first, second := index+1, t.nodes[index].secondChild
	w1 := t.weight(first, sp)
	w2 := t.weight(second, sp)
	if !(w1+w2 > 0) {
		if index == 0 {
			return 0, false
		}
		w1, w2 = t.nodes[first].energy, t.nodes[second].energy
		if !(w1+w2 > 0) {
			return 0, false
		}
	}
	p1 := w1 / (w1 + w2)
	debugAssert(p1 >= 0 && p1 <= 1, "LightTree.Select: branch probability %v outside [0, 1]", p1)
	return p1, true
}

// Select descends from the root choosing each child with probability
// proportional to its weight. The returned PDF is the product of the branch
// probabilities taken.
func (t *LightTree) Select(sp ShadingPoint, n float64) (LightSelection, bool) {
	if len(t.nodes) == 0 {
		return LightSelection{}, false
	}
	debugAssert(n >= 0 && n < 1, "LightTree.Select: sample %v outside [0, 1)", n)

	if t.nodes[0].leaf {
		if !(t.weight(0, &sp) > 0) {
			return LightSelection{}, false
		}
		return LightSelection{Index: t.nodes[0].lightIndex, PDF: 1, Residual: n}, true
	}

	index, pdf := 0, 1.0
	for !t.nodes[index].leaf {
		p1, ok := t.branch(index, &sp)
		if !ok {
			return LightSelection{}, false
		}
		if n < p1 {
			pdf *= p1
			n = clampResidual(n / p1)
			index++
		} else {
			pdf *= 1 - p1
			n = clampResidual((n - p1) / (1 - p1))
			index = t.nodes[index].secondChild
		}
	}

	return LightSelection{Index: t.nodes[index].lightIndex, PDF: pdf, Residual: n}, true
}

// ApproximateEnergy returns the summed energy of every light
func (t *LightTree) ApproximateEnergy() float64 {
	if len(t.nodes) == 0 {
		return 0
	}
	return t.nodes[0].energy
}

// Bounds returns the root bounding box time samples, or nil for an empty tree
func (t *LightTree) Bounds() []core.AABB {
	if len(t.nodes) == 0 {
		return nil
	}
	root := &t.nodes[0]
	return t.bounds[root.boundsStart:root.boundsEnd]
}

// selectionPDF returns the probability that Select picks the light with the
// given index, by evaluating every root-to-leaf path.
func (t *LightTree) selectionPDF(sp ShadingPoint, lightIndex int) float64 {
	if len(t.nodes) == 0 {
		return 0
	}
	if t.nodes[0].leaf {
		if t.nodes[0].lightIndex == lightIndex && t.weight(0, &sp) > 0 {
			return 1
		}
		return 0
	}

	var walk func(index int, p float64) float64
	walk = func(index int, p float64) float64 {
		node := &t.nodes[index]
		if node.leaf {
			if node.lightIndex == lightIndex {
				return p
			}
			return 0
		}
		p1, ok := t.branch(index, &sp)
		if !ok {
			return 0
		}
		return walk(index+1, p*p1) + walk(node.secondChild, p*(1-p1))
	}
	return walk(0, 1)
}
