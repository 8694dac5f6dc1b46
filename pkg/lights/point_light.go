package lights

import (
	"math"

	"github.com/pkg/errors"

	"github.com/df07/go-raytracer-accel/pkg/algorithm"
	"github.com/df07/go-raytracer-accel/pkg/core"
)

// PointLight is an isotropic point light, optionally moving over the shutter
type PointLight struct {
	Positions []core.Vec3 // Position time samples
	Intensity float64     // Radiant intensity, power per steradian
}

// NewPointLight creates a point light from one or more position samples
func NewPointLight(positions []core.Vec3, intensity float64) (*PointLight, error) {
	if len(positions) == 0 {
		return nil, errors.New("point light needs at least one position time sample")
	}
	return &PointLight{Positions: positions, Intensity: intensity}, nil
}

// Bounds implements Light. Each time sample is a degenerate box.
func (pl *PointLight) Bounds() []core.AABB {
	bounds := make([]core.AABB, len(pl.Positions))
	for i, p := range pl.Positions {
		bounds[i] = core.NewAABB(p, p)
	}
	return bounds
}

// ApproximateEnergy implements Light
func (pl *PointLight) ApproximateEnergy() float64 {
	return 4 * math.Pi * pl.Intensity
}

// IsDelta implements Light
func (pl *PointLight) IsDelta() bool {
	return true
}

// PositionAt returns the position interpolated to the given time
func (pl *PointLight) PositionAt(time float64) core.Vec3 {
	return algorithm.LerpSliceFunc(pl.Positions, time, core.LerpVec)
}

// Sample implements Light. Emission is the irradiance at the shading point.
func (pl *PointLight) Sample(point core.Vec3, time float64, sample core.Vec2) LightSample {
	pos := pl.PositionAt(time)
	d := pos.Sub(point)
	dist := d.Norm()
	if dist == 0 {
		return LightSample{Point: pos, PDF: 1}
	}
	return LightSample{
		Point:     pos,
		Direction: d.Mul(1 / dist),
		Distance:  dist,
		Emission:  pl.Intensity / (dist * dist),
		PDF:       1,
	}
}
