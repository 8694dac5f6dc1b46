package geometry

import (
	"github.com/df07/go-raytracer-accel/pkg/accel"
	"github.com/df07/go-raytracer-accel/pkg/core"
)

// Surface is geometry that can resolve a batch of rays
type Surface interface {
	// Bounds returns the bounding box time samples of the whole surface
	Bounds() []core.AABB

	// IntersectRays tests the live accel rays against the surface. rays and
	// isects are indexed by AccelRay.ID. Closest hits lower the accel ray's
	// MaxT and overwrite its intersection; occlusion rays that hit anything
	// are marked done and recorded as Occluded.
	IntersectRays(accelRays []core.AccelRay, rays []core.Ray, isects []Intersection, profile *accel.Profile)
}
