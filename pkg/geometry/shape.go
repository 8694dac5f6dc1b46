package geometry

import (
	"github.com/df07/go-raytracer-accel/pkg/core"
	"github.com/df07/go-raytracer-accel/pkg/shading"
)

// IntersectionKind says what, if anything, a ray ran into
type IntersectionKind uint8

const (
	// Miss means nothing was hit
	Miss IntersectionKind = iota
	// Hit is a closest-hit result with surface details filled in
	Hit
	// Occluded is the answer for an occlusion ray that hit something before MaxT
	Occluded
)

// Intersection records the result of intersecting one ray
type Intersection struct {
	Kind      IntersectionKind
	T         float64   // Parameter t along the ray
	Position  core.Vec3 // Point of intersection
	Incoming  core.Vec3 // Direction of the ray that hit
	Normal    core.Vec3 // Unit surface normal, facing against the ray
	FrontFace bool      // Whether the ray hit the front face
	U, V      float64   // Barycentric coordinates within the triangle
	Closure   shading.SurfaceClosure
}

// setFaceNormal sets the normal vector and determines front/back face
func (h *Intersection) setFaceNormal(dir, outwardNormal core.Vec3) {
	h.FrontFace = dir.Dot(outwardNormal) < 0
	if h.FrontFace {
		h.Normal = outwardNormal
	} else {
		h.Normal = outwardNormal.Mul(-1)
	}
}
