package lights

import (
	"github.com/df07/go-raytracer-accel/pkg/accel"
	"github.com/df07/go-raytracer-accel/pkg/core"
)

// Sampler picks a light for a shading point through a light accelerator and
// samples a point on it
type Sampler struct {
	lights []Light
	accel  accel.LightAccel
}

// NewSampler builds the light accelerator for the given lights. Small sets
// use a flat array and larger ones a light tree, per cfg.LightArrayThreshold.
func NewSampler(lights []Light, cfg accel.BuildConfig) *Sampler {
	return &Sampler{lights: lights, accel: accel.NewLightAccel(lights, Info, cfg)}
}

// LightCount returns the number of lights
func (s *Sampler) LightCount() int {
	return len(s.lights)
}

// ApproximateEnergy returns the total energy estimate of all lights
func (s *Sampler) ApproximateEnergy() float64 {
	return s.accel.ApproximateEnergy()
}

// Sample selects a light with u and samples it with the selection's residual
// and the second component of sample2. The returned PDF combines the
// selection probability with the light's own sample PDF. ok is false when no
// light can contribute.
func (s *Sampler) Sample(sp accel.ShadingPoint, u float64, sample2 float64) (Light, LightSample, bool) {
	sel, ok := s.accel.Select(sp, u)
	if !ok {
		return nil, LightSample{}, false
	}
	light := s.lights[sel.Index]
	ls := light.Sample(sp.Position, sp.Time, core.NewVec2(sel.Residual, sample2))
	ls.PDF *= sel.PDF
	return light, ls, true
}
