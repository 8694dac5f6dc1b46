package geometry

import (
	"github.com/df07/go-raytracer-accel/pkg/core"
)

// Triangle is a single triangle defined by three vertices
type Triangle struct {
	V0, V1, V2 core.Vec3
}

// NewTriangle creates a triangle from three vertices
func NewTriangle(v0, v1, v2 core.Vec3) Triangle {
	return Triangle{V0: v0, V1: v1, V2: v2}
}

// Lerp interpolates each vertex toward other, for motion blur
func (t Triangle) Lerp(other Triangle, f float64) Triangle {
	return Triangle{
		V0: core.LerpVec(t.V0, other.V0, f),
		V1: core.LerpVec(t.V1, other.V1, f),
		V2: core.LerpVec(t.V2, other.V2, f),
	}
}

// Bounds returns the axis-aligned bounding box of the triangle
func (t Triangle) Bounds() core.AABB {
	return core.NewAABBFromPoints(t.V0, t.V1, t.V2)
}

// Normal returns the unit normal given by the winding V0, V1, V2
func (t Triangle) Normal() core.Vec3 {
	return t.V1.Sub(t.V0).Cross(t.V2.Sub(t.V0)).Normalize()
}

// Intersect tests a ray against the triangle using the Möller-Trumbore
// algorithm. It returns the ray parameter and the barycentric coordinates of
// the hit.
func (t Triangle) Intersect(origin, dir core.Vec3, tMin, tMax float64) (float64, float64, float64, bool) {
	const epsilon = 1e-12

	// Calculate two edge vectors
	edge1 := t.V1.Sub(t.V0)
	edge2 := t.V2.Sub(t.V0)

	h := dir.Cross(edge2)
	a := edge1.Dot(h)

	// Ray lies in the plane of the triangle
	if a > -epsilon && a < epsilon {
		return 0, 0, 0, false
	}

	f := 1.0 / a
	s := origin.Sub(t.V0)
	u := f * s.Dot(h)
	if u < 0.0 || u > 1.0 {
		return 0, 0, 0, false
	}

	q := s.Cross(edge1)
	v := f * dir.Dot(q)
	if v < 0.0 || u+v > 1.0 {
		return 0, 0, 0, false
	}

	tHit := f * edge2.Dot(q)
	if tHit < tMin || tHit > tMax {
		return 0, 0, 0, false
	}
	return tHit, u, v, true
}
