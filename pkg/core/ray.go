package core

import "math"

// Ray represents a ray with an origin and direction
type Ray struct {
	Origin    Vec3
	Direction Vec3
	Time      float64 // Shutter time in [0, 1], used to interpolate motion samples
	MaxT      float64 // Farthest distance of interest along the ray
	Occlusion bool    // Only whether anything is hit up to MaxT matters
}

// NewRay creates a new ray with an unbounded extent at time zero
func NewRay(origin, direction Vec3) Ray {
	return Ray{Origin: origin, Direction: direction, MaxT: math.Inf(1)}
}

// At returns the point at parameter t along the ray
func (r Ray) At(t float64) Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

const (
	accelRayOcclusion uint8 = 1 << iota
	accelRayDone
)

// AccelRay is the traversal-side view of a Ray. The acceleration structures
// shrink MaxT and set the done flag; everything else is fixed for the batch.
type AccelRay struct {
	ID     uint32 // Index of the originating Ray in the caller's batch
	Origin Vec3
	DirInv Vec3
	Time   float64
	MaxT   float64
	flags  uint8
}

// NewAccelRay creates the traversal view of ray with the given batch id
func NewAccelRay(ray Ray, id uint32) AccelRay {
	r := AccelRay{
		ID:     id,
		Origin: ray.Origin,
		DirInv: Reciprocal(ray.Direction),
		Time:   ray.Time,
		MaxT:   ray.MaxT,
	}
	if ray.Occlusion {
		r.flags |= accelRayOcclusion
	}
	return r
}

// IsOcclusion reports whether the ray only needs a yes/no answer
func (r *AccelRay) IsOcclusion() bool {
	return r.flags&accelRayOcclusion != 0
}

// IsDone reports whether the ray has been retired from traversal
func (r *AccelRay) IsDone() bool {
	return r.flags&accelRayDone != 0
}

// MarkDone retires the ray; traversal stops testing it against further nodes
func (r *AccelRay) MarkDone() {
	r.flags |= accelRayDone
}

// Octant returns the direction sign octant of the ray (see Octant)
func (r *AccelRay) Octant() uint8 {
	return Octant(r.DirInv)
}
