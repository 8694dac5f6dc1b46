package core

import "math"

// AABB represents an axis-aligned bounding box
type AABB struct {
	Min Vec3 // Minimum corner
	Max Vec3 // Maximum corner
}

// NewAABB creates a new AABB from min and max points
func NewAABB(min, max Vec3) AABB {
	return AABB{Min: min, Max: max}
}

// EmptyAABB returns the identity element for Union: an inverted box that
// contains nothing and is absorbed by any other box.
func EmptyAABB() AABB {
	inf := math.Inf(1)
	return AABB{
		Min: Vec3{X: inf, Y: inf, Z: inf},
		Max: Vec3{X: -inf, Y: -inf, Z: -inf},
	}
}

// NewAABBFromPoints creates an AABB that bounds all given points
func NewAABBFromPoints(points ...Vec3) AABB {
	if len(points) == 0 {
		return EmptyAABB()
	}

	min := points[0]
	max := points[0]
	for _, point := range points[1:] {
		min = MinVec(min, point)
		max = MaxVec(max, point)
	}

	return AABB{Min: min, Max: max}
}

// IntersectInterval clips [tMin, tMax] against the box for a ray given by its
// origin and reciprocal direction. It returns the entry distance and whether
// the clipped interval is non-empty.
func (aabb AABB) IntersectInterval(origin, dirInv Vec3, tMin, tMax float64) (float64, bool) {
	for axis := 0; axis < 3; axis++ {
		inv := Axis(dirInv, axis)
		o := Axis(origin, axis)
		t1 := (Axis(aabb.Min, axis) - o) * inv
		t2 := (Axis(aabb.Max, axis) - o) * inv

		// 0 * inf yields NaN when the origin sits exactly on a slab plane of an
		// axis-parallel ray; the comparisons below then leave the interval alone.
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tMin {
			tMin = t1
		}
		if t2 < tMax {
			tMax = t2
		}
		if tMin > tMax {
			return 0, false
		}
	}
	// An axis-parallel ray outside a slab gets an interval at +Inf on both ends
	if math.IsInf(tMin, 1) {
		return 0, false
	}
	return tMin, true
}

// IntersectAccelRay tests the box against an AccelRay over [0, ray.MaxT]
func (aabb AABB) IntersectAccelRay(ray *AccelRay) bool {
	_, ok := aabb.IntersectInterval(ray.Origin, ray.DirInv, 0, ray.MaxT)
	return ok
}

// Union returns an AABB that bounds both this AABB and another
func (aabb AABB) Union(other AABB) AABB {
	return AABB{Min: MinVec(aabb.Min, other.Min), Max: MaxVec(aabb.Max, other.Max)}
}

// Contains reports whether other lies entirely inside this AABB
func (aabb AABB) Contains(other AABB) bool {
	return aabb.Min.X <= other.Min.X && aabb.Min.Y <= other.Min.Y && aabb.Min.Z <= other.Min.Z &&
		aabb.Max.X >= other.Max.X && aabb.Max.Y >= other.Max.Y && aabb.Max.Z >= other.Max.Z
}

// Lerp interpolates corner-wise toward other
func (aabb AABB) Lerp(other AABB, t float64) AABB {
	return AABB{Min: LerpVec(aabb.Min, other.Min, t), Max: LerpVec(aabb.Max, other.Max, t)}
}

// Center returns the center point of the AABB
func (aabb AABB) Center() Vec3 {
	return aabb.Min.Add(aabb.Max).Mul(0.5)
}

// Size returns the size (extent) of the AABB along each axis
func (aabb AABB) Size() Vec3 {
	return aabb.Max.Sub(aabb.Min)
}

// Diagonal returns the length of the box diagonal
func (aabb AABB) Diagonal() float64 {
	return aabb.Size().Norm()
}

// SurfaceArea returns the surface area of the AABB. Empty boxes have zero area.
func (aabb AABB) SurfaceArea() float64 {
	if !aabb.IsValid() {
		return 0
	}
	size := aabb.Size()
	return 2.0 * (size.X*size.Y + size.Y*size.Z + size.Z*size.X)
}

// LongestAxis returns the axis (0=X, 1=Y, 2=Z) with the longest extent
func (aabb AABB) LongestAxis() int {
	size := aabb.Size()
	if size.X > size.Y && size.X > size.Z {
		return 0
	}
	if size.Y > size.Z {
		return 1
	}
	return 2
}

// IsValid returns true if this is a valid AABB (min <= max for all axes)
func (aabb AABB) IsValid() bool {
	return aabb.Min.X <= aabb.Max.X &&
		aabb.Min.Y <= aabb.Max.Y &&
		aabb.Min.Z <= aabb.Max.Z
}
