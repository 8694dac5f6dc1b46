// Package lights defines the light sources a scene can hold and the sampler
// that picks one of them per shading point.
package lights

import "github.com/df07/go-raytracer-accel/pkg/core"

// Light is a light source that can be sampled for direct lighting
type Light interface {
	// Bounds returns the light's bounding box time samples
	Bounds() []core.AABB

	// ApproximateEnergy returns the total power the light emits, or a cheap
	// upper estimate of it
	ApproximateEnergy() float64

	// Sample picks a point on the light as seen from point at the given
	// shutter time. Direction points from the shading point to the light.
	Sample(point core.Vec3, time float64, sample core.Vec2) LightSample

	// IsDelta reports whether the light is a single point, so the sample
	// PDF is a discrete probability rather than a density
	IsDelta() bool
}

// LightSample contains information about a sampled point on a light
type LightSample struct {
	Point     core.Vec3 // Point on the light source
	Direction core.Vec3 // Unit direction from shading point to light
	Distance  float64   // Distance to light
	Emission  float64   // Incident radiance (or irradiance for delta lights)
	PDF       float64   // Solid angle density of this sample; 1 for delta lights
}

// Info reports a light's bounds and energy in the form the light
// accelerators take
func Info(l Light) ([]core.AABB, float64) {
	return l.Bounds(), l.ApproximateEnergy()
}
