package renderer

import (
	"math"

	"github.com/df07/go-raytracer-accel/pkg/core"
)

// Camera generates primary rays for a pinhole camera
type Camera struct {
	origin          core.Vec3
	lowerLeftCorner core.Vec3
	horizontal      core.Vec3
	vertical        core.Vec3
}

// NewCamera creates a camera at lookFrom aimed at lookAt, with vfov the
// vertical field of view in degrees
func NewCamera(lookFrom, lookAt, vup core.Vec3, vfov, aspectRatio float64) *Camera {
	h := math.Tan(vfov * math.Pi / 360)
	viewportHeight := 2.0 * h
	viewportWidth := aspectRatio * viewportHeight

	w := lookFrom.Sub(lookAt).Normalize()
	u := vup.Cross(w).Normalize()
	v := w.Cross(u)

	horizontal := u.Mul(viewportWidth)
	vertical := v.Mul(viewportHeight)
	lowerLeftCorner := lookFrom.Sub(horizontal.Mul(0.5)).
		Sub(vertical.Mul(0.5)).
		Sub(w)

	return &Camera{
		origin:          lookFrom,
		horizontal:      horizontal,
		vertical:        vertical,
		lowerLeftCorner: lowerLeftCorner,
	}
}

// GetRay generates a ray for screen coordinates (s, t) where 0 <= s,t <= 1,
// with a unit direction and the given shutter time
func (c *Camera) GetRay(s, t, time float64) core.Ray {
	direction := c.lowerLeftCorner.
		Add(c.horizontal.Mul(s)).
		Add(c.vertical.Mul(t)).
		Sub(c.origin)

	ray := core.NewRay(c.origin, direction.Normalize())
	ray.Time = time
	return ray
}
