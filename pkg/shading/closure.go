// Package shading holds the surface closures attached to shading points. Only
// the parts light selection needs are implemented: the delta test and the
// solid angle estimate used to weight lights.
package shading

import (
	"math"

	"github.com/pkg/errors"

	"github.com/df07/go-raytracer-accel/pkg/core"
)

// SurfaceClosure describes how a surface point scatters light
type SurfaceClosure interface {
	// IsDelta reports whether the closure scatters into a single direction,
	// in which case light sampling is pointless.
	IsDelta() bool

	// EstimateEvalOverSolidAngle estimates the total response toward a cone
	// of directions centered on out, given the cosine of its half angle. It
	// must be non-zero wherever the exact response is.
	EstimateEvalOverSolidAngle(inc, out, nor core.Vec3, cosTheta float64) float64
}

// faceForward returns the unit normal on the side inc arrives from
func faceForward(nor, inc core.Vec3) core.Vec3 {
	nn := nor.Normalize()
	if nor.Dot(inc) <= 0 {
		return nn
	}
	return nn.Mul(-1)
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

func checkCosTheta(cosTheta float64) {
	if !(cosTheta >= -1 && cosTheta <= 1) {
		panic(errors.Errorf("cone cosine %v outside [-1, 1]", cosTheta))
	}
}

// EmitClosure marks an emissive surface. It does not scatter, so lights are
// never weighted toward it.
type EmitClosure struct{}

// IsDelta is false
func (EmitClosure) IsDelta() bool { return false }

// EstimateEvalOverSolidAngle is always 0
func (EmitClosure) EstimateEvalOverSolidAngle(inc, out, nor core.Vec3, cosTheta float64) float64 {
	return 0
}

// LambertClosure is an ideal diffuse reflector
type LambertClosure struct {
	Albedo float64
}

// NewLambertClosure creates a Lambertian closure
func NewLambertClosure(albedo float64) LambertClosure {
	return LambertClosure{Albedo: albedo}
}

// IsDelta is false
func (LambertClosure) IsDelta() bool { return false }

// EstimateEvalOverSolidAngle integrates the cosine lobe over a uniform
// spherical light subtending the cone, following Snyder's "Area Light
// Sources for Real-Time Graphics". Cones wider than a hemisphere
// (cosTheta < 0) return 1.
func (LambertClosure) EstimateEvalOverSolidAngle(inc, out, nor core.Vec3, cosTheta float64) float64 {
	checkCosTheta(cosTheta)
	if cosTheta < 0 {
		return 1
	}
	nn := faceForward(nor, inc)
	cosNV := clamp(nn.Dot(out.Normalize()), -1, 1)
	return sphereLambert(cosNV, cosTheta)
}

// sphereLambert returns the irradiance from a unit-radiance sphere whose
// center is at angle acos(nlcos) from the normal and which subtends a cone
// of half angle acos(rcos).
func sphereLambert(nlcos, rcos float64) float64 {
	nl := math.Acos(nlcos)
	r := math.Acos(rcos)
	rsin2 := 1 - rcos*rcos

	switch {
	case nl < math.Pi/2-r:
		return nlcos * rsin2
	case nl >= math.Pi/2+r:
		return 0
	}

	// The sphere straddles the horizon
	nlsin := math.Sqrt(math.Max(1-nlcos*nlcos, 0))
	rsin := math.Sqrt(rsin2)
	ysin := clamp(rcos/nlsin, -1, 1)
	ycos2 := math.Max(1-ysin*ysin, 0)
	ycos := math.Sqrt(ycos2)

	g := -2*nlsin*rcos*ycos + math.Pi/2 - math.Asin(ysin) + ysin*ycos
	h := 0.0
	if rsin > 0 {
		h = nlcos * (ycos*math.Sqrt(math.Max(rsin2-ycos2, 0)) + rsin2*math.Asin(clamp(ycos/rsin, -1, 1)))
	}

	if nl < math.Pi/2 {
		return math.Max(nlcos*rsin2+(g-h)/math.Pi, 0)
	}
	return math.Max((g+h)/math.Pi, 0)
}

const (
	maxGTRRoughness = 0.9999
	minGTRRoughness = 1.0 / 4096 // Smaller non-zero roughness is snapped to 0
	minTailShape    = 0.0001
	tailEpsilon     = 0.0001
)

// GTRClosure is the generalized Trowbridge-Reitz microfacet lobe from the
// Disney principled BRDF
type GTRClosure struct {
	Albedo    float64
	Roughness float64
	TailShape float64
	Fresnel   float64 // [0, 1]: how much Fresnel reflection comes into play

	normalization float64
}

// NewGTRClosure creates a GTR closure with its parameters clamped to their
// valid ranges. It panics if fresnel is outside [0, 1].
func NewGTRClosure(albedo, roughness, tailShape, fresnel float64) GTRClosure {
	if !(fresnel >= 0 && fresnel <= 1) {
		panic(errors.Errorf("NewGTRClosure: fresnel %v outside [0, 1]", fresnel))
	}

	c := GTRClosure{Albedo: albedo, Fresnel: fresnel}
	c.Roughness = clamp(roughness, 0, maxGTRRoughness)
	if c.Roughness < minGTRRoughness {
		c.Roughness = 0
	}
	c.TailShape = math.Max(tailShape, minTailShape)
	// The normalization has a singularity at a tail shape of exactly 1
	if math.Abs(c.TailShape-1) < tailEpsilon {
		c.TailShape = 1 + tailEpsilon
	}
	c.normalization = gtrNormalization(c.Roughness, c.TailShape)
	return c
}

func gtrNormalization(r, t float64) float64 {
	r2 := r * r
	top := (t - 1) * (r2 - 1)
	bottom := math.Pi * (1 - math.Pow(r2, 1-t))
	return top / bottom
}

// dist is the microfacet distribution for the cosine between the normal and
// the half vector, evaluated at the given roughness.
func (c GTRClosure) dist(nh, rough float64) float64 {
	if nh <= 0 {
		return 0
	}
	nh2 := nh * nh
	return c.normalization / math.Pow(1+(rough*rough-1)*nh2, c.TailShape)
}

// IsDelta reports a perfect mirror
func (c GTRClosure) IsDelta() bool {
	return c.Roughness == 0
}

// EstimateEvalOverSolidAngle approximates the lobe over the cone by widening
// the roughness in proportion to the cone angle.
func (c GTRClosure) EstimateEvalOverSolidAngle(inc, out, nor core.Vec3, cosTheta float64) float64 {
	checkCosTheta(cosTheta)

	nn := nor.Normalize()
	if nor.Dot(inc) >= 0 {
		nn = nn.Mul(-1)
	}
	aa := inc.Normalize().Mul(-1)
	bb := out.Normalize()

	theta := math.Acos(cosTheta)
	hh := aa.Add(bb).Normalize()
	nh := clamp(nn.Dot(hh), -1, 1)
	fac := c.dist(nh, math.Min(1, math.Sqrt(c.Roughness)+2*theta/math.Pi))

	return fac * math.Min(1, 1-cosTheta) / math.Pi
}
