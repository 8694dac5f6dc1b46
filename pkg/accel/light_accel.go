package accel

import (
	"math"

	"github.com/df07/go-raytracer-accel/pkg/algorithm"
	"github.com/df07/go-raytracer-accel/pkg/core"
)

// ClosureEstimator is the part of a surface closure that light selection needs
type ClosureEstimator interface {
	// EstimateEvalOverSolidAngle estimates the closure's total response
	// toward a cone of directions around out with half-angle cosine cosTheta.
	// It must be non-zero wherever the exact response would be.
	EstimateEvalOverSolidAngle(inc, out, nor core.Vec3, cosTheta float64) float64
}

// ShadingPoint is the surface event a light is being chosen for
type ShadingPoint struct {
	Incoming        core.Vec3        // Direction of the ray arriving at the surface
	Position        core.Vec3        // Surface position
	Normal          core.Vec3        // Shading normal
	GeometricNormal core.Vec3        // True surface normal, used when Normal is zero
	Closure         ClosureEstimator // nil weights lights by subtended solid angle alone
	Time            float64          // Shutter time in [0, 1]
}

// LightSelection is the result of LightAccel.Select
type LightSelection struct {
	Index    int     // Index of the light in the slice the accelerator was built from
	PDF      float64 // Probability that Select picks this light for the same shading point
	Residual float64 // Leftover randomness, uniform in [0, 1), reusable as a fresh sample
}

// LightAccel chooses one light to sample for a shading point
type LightAccel interface {
	// Select picks a light using n in [0, 1). ok is false when there are no
	// lights or none of them can contribute.
	Select(sp ShadingPoint, n float64) (sel LightSelection, ok bool)

	// ApproximateEnergy returns a cheap upper estimate of the total emitted
	// energy. It is non-zero whenever any light's energy is non-zero.
	ApproximateEnergy() float64
}

// LightInfo returns a light's bounding box time samples and energy estimate
type LightInfo[T any] func(light T) (bounds []core.AABB, energy float64)

// NewLightAccel picks a LightArray for small light sets and a LightTree
// otherwise. A LightArray maps the sample onto lights in input order while a
// LightTree maps it through its spatial splits, so the same sample may pick
// different lights depending on which one is built.
func NewLightAccel[T any](lights []T, info LightInfo[T], cfg BuildConfig) LightAccel {
	cfg.mustValidate("light")
	if len(lights) < cfg.LightArrayThreshold {
		return NewLightArray(lights, info)
	}
	return NewLightTreeWithConfig(lights, info, cfg)
}

// lightRef caches a light's info during a build
type lightRef struct {
	index  int
	bounds []core.AABB
	energy float64
}

func collectLights[T any](lights []T, info LightInfo[T]) []lightRef {
	refs := make([]lightRef, len(lights))
	for i, light := range lights {
		bounds, energy := info(light)
		refs[i] = lightRef{index: i, bounds: bounds, energy: energy}
	}
	return refs
}

func lightRefBounds(r lightRef) []core.AABB {
	return r.bounds
}

const (
	// Lights are treated as subtending at least this angle (in radians, as a
	// radius to distance ratio) so point lights get finite weights.
	minLightAngle = 1e-3
	// Floor for the radius of a point light evaluated at its own position
	minLightRadius = 1e-12
	// Number of concentric cones averaged when estimating a bound's response
	lightWeightSteps = 2
	// Largest float64 below 1
	oneMinusEpsilon = 0x1.fffffffffffffp-1
)

// lightWeight estimates how much a light (or a group of lights) with the
// given bounds and energy contributes at the shading point: the closure's
// response over the cone subtended by the bounds, scaled by energy over the
// bound's cross section.
func lightWeight(bounds []core.AABB, energy float64, sp *ShadingPoint) float64 {
	if energy <= 0 {
		return 0
	}

	bbox := algorithm.LerpSlice(bounds, sp.Time)
	d := bbox.Center().Sub(sp.Position)
	dist2 := d.Norm2()
	r := math.Max(bbox.Diagonal()*0.5, minLightAngle*math.Sqrt(dist2))
	if r <= 0 {
		r = minLightRadius
	}
	invArea := 1 / (r * r)

	nor := sp.Normal
	if nor.Norm2() == 0 {
		nor = sp.GeometricNormal
	}

	contrib := 0.0
	for i := 1; i <= lightWeightSteps; i++ {
		ri := r * float64(i) / lightWeightSteps
		r2 := ri * ri
		cosThetaMax := -1.0
		if dist2 > r2 {
			cosThetaMax = math.Sqrt(1 - math.Min(r2/dist2, 1))
		}
		if sp.Closure == nil {
			contrib += 1 - cosThetaMax
		} else {
			contrib += sp.Closure.EstimateEvalOverSolidAngle(sp.Incoming, d, nor, cosThetaMax)
		}
	}
	contrib /= lightWeightSteps

	return energy * invArea * contrib
}

// clampResidual keeps a rescaled sample inside [0, 1) despite rounding
func clampResidual(n float64) float64 {
	if n < 0 {
		return 0
	}
	if n >= 1 {
		return oneMinusEpsilon
	}
	return n
}
