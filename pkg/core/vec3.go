package core

import (
	"math"

	"github.com/golang/geo/r3"
)

// Vec3 is the point and vector type shared by every package
type Vec3 = r3.Vector

// Vec2 holds a pair of sample values
type Vec2 struct {
	X, Y float64
}

// NewVec3 creates a new Vec3
func NewVec3(x, y, z float64) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

// NewVec2 creates a new Vec2
func NewVec2(x, y float64) Vec2 {
	return Vec2{X: x, Y: y}
}

// Axis returns the component of v along axis (0=X, 1=Y, 2=Z)
func Axis(v Vec3, axis int) float64 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

// MinVec returns the component-wise minimum of two vectors
func MinVec(a, b Vec3) Vec3 {
	return Vec3{X: math.Min(a.X, b.X), Y: math.Min(a.Y, b.Y), Z: math.Min(a.Z, b.Z)}
}

// MaxVec returns the component-wise maximum of two vectors
func MaxVec(a, b Vec3) Vec3 {
	return Vec3{X: math.Max(a.X, b.X), Y: math.Max(a.Y, b.Y), Z: math.Max(a.Z, b.Z)}
}

// LerpVec linearly interpolates between a (t=0) and b (t=1)
func LerpVec(a, b Vec3, t float64) Vec3 {
	return a.Mul(1 - t).Add(b.Mul(t))
}

// Reciprocal returns the component-wise reciprocal. Zero components become
// signed infinities, which keeps the slab test well defined for axis-parallel rays.
func Reciprocal(v Vec3) Vec3 {
	return Vec3{X: 1 / v.X, Y: 1 / v.Y, Z: 1 / v.Z}
}

// Octant packs the sign of each component into three bits: bit 0 is set when
// X is negative, bit 1 for Y and bit 2 for Z.
func Octant(v Vec3) uint8 {
	var code uint8
	if math.Signbit(v.X) {
		code |= 1
	}
	if math.Signbit(v.Y) {
		code |= 2
	}
	if math.Signbit(v.Z) {
		code |= 4
	}
	return code
}
