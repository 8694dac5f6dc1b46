package shading

import (
	"math"
	"testing"

	"go.viam.com/test"

	"github.com/df07/go-raytracer-accel/pkg/core"
)

var (
	up   = core.NewVec3(0, 0, 1)
	down = core.NewVec3(0, 0, -1)
)

// outAt returns a direction at angle a from the +Z normal
func outAt(a float64) core.Vec3 {
	return core.NewVec3(math.Sin(a), 0, math.Cos(a))
}

func TestLambertEstimate(t *testing.T) {
	c := NewLambertClosure(0.8)

	t.Run("wider than a hemisphere", func(t *testing.T) {
		test.That(t, c.EstimateEvalOverSolidAngle(down, up, up, -0.5), test.ShouldEqual, 1.0)
		test.That(t, c.EstimateEvalOverSolidAngle(down, up, up, -1), test.ShouldEqual, 1.0)
	})

	t.Run("small cone overhead", func(t *testing.T) {
		cosTheta := math.Cos(0.1)
		got := c.EstimateEvalOverSolidAngle(down, up, up, cosTheta)
		test.That(t, got, test.ShouldAlmostEqual, 1-cosTheta*cosTheta, 1e-12)
	})

	t.Run("cone fully below the horizon", func(t *testing.T) {
		got := c.EstimateEvalOverSolidAngle(down, outAt(math.Pi/2+0.3), up, math.Cos(0.1))
		test.That(t, got, test.ShouldEqual, 0.0)
	})

	t.Run("cone straddling the horizon is positive", func(t *testing.T) {
		for _, a := range []float64{math.Pi/2 - 0.05, math.Pi / 2, math.Pi/2 + 0.05} {
			got := c.EstimateEvalOverSolidAngle(down, outAt(a), up, math.Cos(0.1))
			test.That(t, got, test.ShouldBeGreaterThan, 0)
		}
	})

	t.Run("continuous and non-negative", func(t *testing.T) {
		for _, r := range []float64{0.01, 0.2, 0.7, math.Pi / 2} {
			cosTheta := math.Cos(r)
			prev := c.EstimateEvalOverSolidAngle(down, outAt(0), up, cosTheta)
			for a := 0.001; a < math.Pi; a += 0.001 {
				got := c.EstimateEvalOverSolidAngle(down, outAt(a), up, cosTheta)
				test.That(t, math.IsNaN(got), test.ShouldBeFalse)
				test.That(t, got, test.ShouldBeGreaterThanOrEqualTo, 0)
				test.That(t, math.Abs(got-prev), test.ShouldBeLessThan, 0.01)
				prev = got
			}
		}
	})

	t.Run("back faces use the flipped normal", func(t *testing.T) {
		front := c.EstimateEvalOverSolidAngle(down, up, up, math.Cos(0.2))
		back := c.EstimateEvalOverSolidAngle(up, down, up, math.Cos(0.2))
		test.That(t, back, test.ShouldAlmostEqual, front, 1e-12)
	})

	t.Run("invalid cone cosine panics", func(t *testing.T) {
		test.That(t, func() { c.EstimateEvalOverSolidAngle(down, up, up, 1.5) }, test.ShouldPanic)
	})
}

func TestLambertIsDelta(t *testing.T) {
	test.That(t, NewLambertClosure(1).IsDelta(), test.ShouldBeFalse)
}

func TestEmitClosure(t *testing.T) {
	var c SurfaceClosure = EmitClosure{}
	test.That(t, c.IsDelta(), test.ShouldBeFalse)
	test.That(t, c.EstimateEvalOverSolidAngle(down, up, up, 0.5), test.ShouldEqual, 0.0)
}

func TestGTRClosure(t *testing.T) {
	t.Run("parameters are clamped", func(t *testing.T) {
		c := NewGTRClosure(1, 2, -1, 0.5)
		test.That(t, c.Roughness, test.ShouldEqual, maxGTRRoughness)
		test.That(t, c.TailShape, test.ShouldEqual, minTailShape)

		c = NewGTRClosure(1, 1e-5, 1, 0.5)
		test.That(t, c.Roughness, test.ShouldEqual, 0.0)
		test.That(t, c.IsDelta(), test.ShouldBeTrue)
		test.That(t, c.TailShape, test.ShouldEqual, 1+tailEpsilon)
	})

	t.Run("fresnel out of range panics", func(t *testing.T) {
		test.That(t, func() { NewGTRClosure(1, 0.5, 2, 1.5) }, test.ShouldPanic)
	})

	t.Run("distribution integrates to one over the hemisphere", func(t *testing.T) {
		// D(h) cos(h) integrates to 1 over the hemisphere of half vectors
		c := NewGTRClosure(1, 0.4, 2, 0)
		const steps = 20000
		sum := 0.0
		for i := 0; i < steps; i++ {
			th := (float64(i) + 0.5) / steps * math.Pi / 2
			sum += c.dist(math.Cos(th), c.Roughness) * math.Cos(th) * math.Sin(th)
		}
		sum *= 2 * math.Pi * (math.Pi / 2 / steps)
		test.That(t, sum, test.ShouldAlmostEqual, 1, 1e-3)
	})

	t.Run("estimate is positive toward the reflection", func(t *testing.T) {
		c := NewGTRClosure(1, 0.3, 2, 0.5)
		inc := core.NewVec3(1, 0, -1).Normalize()
		mirror := core.NewVec3(1, 0, 1).Normalize()
		near := c.EstimateEvalOverSolidAngle(inc, mirror, up, math.Cos(0.2))
		far := c.EstimateEvalOverSolidAngle(inc, core.NewVec3(-1, 0, 0.2), up, math.Cos(0.2))
		test.That(t, near, test.ShouldBeGreaterThan, 0)
		test.That(t, near, test.ShouldBeGreaterThan, far)
	})
}
