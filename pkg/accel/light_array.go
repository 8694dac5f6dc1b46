package accel

// LightArray selects among a handful of lights by walking all of them. Each
// light is weighted the same way LightTree weights its leaves.
type LightArray struct {
	lights []lightRef
	energy float64
}

// NewLightArray builds a LightArray. Selected indices refer to lights.
func NewLightArray[T any](lights []T, info LightInfo[T]) *LightArray {
	a := &LightArray{lights: collectLights(lights, info)}
	for _, l := range a.lights {
		if l.energy > 0 {
			a.energy += l.energy
		}
	}
	return a
}

// Len returns the number of lights
func (a *LightArray) Len() int {
	return len(a.lights)
}

// Select picks light i with probability w_i / sum(w). The sample is mapped
// onto the cumulative weights in input order.
func (a *LightArray) Select(sp ShadingPoint, n float64) (LightSelection, bool) {
	if len(a.lights) == 0 {
		return LightSelection{}, false
	}
	debugAssert(n >= 0 && n < 1, "LightArray.Select: sample %v outside [0, 1)", n)

	weights := make([]float64, len(a.lights))
	total := 0.0
	for i := range a.lights {
		weights[i] = lightWeight(a.lights[i].bounds, a.lights[i].energy, &sp)
		total += weights[i]
	}
	if !(total > 0) {
		return LightSelection{}, false
	}

	target := n * total
	cum := 0.0
	last := -1
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		last = i
		if target < cum+w {
			return LightSelection{
				Index:    a.lights[i].index,
				PDF:      w / total,
				Residual: clampResidual((target - cum) / w),
			}, true
		}
		cum += w
	}

	// Rounding pushed the target past the running sum; take the last
	// contributing light.
	w := weights[last]
	return LightSelection{Index: a.lights[last].index, PDF: w / total, Residual: oneMinusEpsilon}, true
}

// ApproximateEnergy returns the summed energy of every light
func (a *LightArray) ApproximateEnergy() float64 {
	return a.energy
}

// selectionPDF returns the probability that Select picks the given light
func (a *LightArray) selectionPDF(sp ShadingPoint, lightIndex int) float64 {
	total, target := 0.0, 0.0
	for i := range a.lights {
		w := lightWeight(a.lights[i].bounds, a.lights[i].energy, &sp)
		total += w
		if a.lights[i].index == lightIndex {
			target = w
		}
	}
	if !(total > 0) {
		return 0
	}
	return target / total
}
