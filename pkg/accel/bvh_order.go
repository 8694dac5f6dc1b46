package accel

import "sync"

// Topology records how many binary splits a BVH4 node was collapsed from.
//
// The left node of a split is the one whose centroids are lower on that
// split's axis.
type Topology uint8

const (
	// TopologyFull is four children from three splits: top, left and right
	TopologyFull Topology = iota
	// TopologyLeft is three children from the top and left splits
	TopologyLeft
	// TopologyRight is three children from the top and right splits
	TopologyRight
	// TopologyTopOnly is two children from the top split alone
	TopologyTopOnly
)

// SplitAxes describes the split axes (0=X, 1=Y, 2=Z) of the binary nodes a
// BVH4 node was built from. Left and Right are ignored when the topology
// does not include them.
type SplitAxes struct {
	Topology Topology
	Top      uint8
	Left     uint8
	Right    uint8
}

// ChildCount returns the number of children a node of this topology has
func (s SplitAxes) ChildCount() int {
	switch s.Topology {
	case TopologyFull:
		return 4
	case TopologyTopOnly:
		return 2
	default:
		return 3
	}
}

// traversalClasses is the number of distinct traversal codes:
// 27 full + 9 left + 9 right + 3 top-only.
const traversalClasses = 48

// TraversalCode maps split axes to a traversal class in [0, 48)
func TraversalCode(s SplitAxes) uint8 {
	switch s.Topology {
	case TopologyFull:
		return s.Top + s.Left*3 + s.Right*9
	case TopologyLeft:
		return s.Top + s.Left*3 + 27
	case TopologyRight:
		return s.Top + s.Right*3 + 27 + 9
	default:
		return s.Top + 27 + 9 + 9
	}
}

// DecodeTraversalCode is the inverse of TraversalCode
func DecodeTraversalCode(code uint8) SplitAxes {
	switch {
	case code < 27:
		return SplitAxes{Topology: TopologyFull, Top: code % 3, Left: (code / 3) % 3, Right: code / 9}
	case code < 36:
		c := code - 27
		return SplitAxes{Topology: TopologyLeft, Top: c % 3, Left: c / 3}
	case code < 45:
		c := code - 36
		return SplitAxes{Topology: TopologyRight, Top: c % 3, Right: c / 3}
	default:
		return SplitAxes{Topology: TopologyTopOnly, Top: code - 45}
	}
}

// traversalTable[octant][code] packs the child visiting order, two bits per
// child, nearest child in the low bits.
var traversalTable = sync.OnceValue(func() *[8][traversalClasses]uint8 {
	var table [8][traversalClasses]uint8
	for octant := uint8(0); octant < 8; octant++ {
		for code := uint8(0); code < traversalClasses; code++ {
			var packed uint8
			for i, slot := range childOrder(DecodeTraversalCode(code), octant) {
				packed |= slot << (2 * i)
			}
			table[octant][code] = packed
		}
	}
	return &table
})

// TraversalOrder returns the packed near-to-far child order of a node with
// the given traversal code for rays in the given octant (see core.Octant).
// The k-th child to visit is (order >> (2*k)) & 3.
func TraversalOrder(octant, code uint8) uint8 {
	return traversalTable()[octant&7][code]
}

// childOrder lists child slots near to far: at each split the left side
// comes first unless the ray travels toward negative values on that axis.
func childOrder(s SplitAxes, octant uint8) []uint8 {
	pair := func(lo, hi []uint8, axis uint8) []uint8 {
		if octant>>axis&1 == 1 {
			lo, hi = hi, lo
		}
		return append(append([]uint8{}, lo...), hi...)
	}

	switch s.Topology {
	case TopologyFull:
		return pair(pair([]uint8{0}, []uint8{1}, s.Left), pair([]uint8{2}, []uint8{3}, s.Right), s.Top)
	case TopologyLeft:
		return pair(pair([]uint8{0}, []uint8{1}, s.Left), []uint8{2}, s.Top)
	case TopologyRight:
		return pair([]uint8{0}, pair([]uint8{1}, []uint8{2}, s.Right), s.Top)
	default:
		return pair([]uint8{0}, []uint8{1}, s.Top)
	}
}
