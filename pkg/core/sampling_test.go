package core

import (
	"math/rand"
	"testing"

	"go.viam.com/test"
)

func TestSampleDirections(t *testing.T) {
	sampler := NewRandomSampler(rand.New(rand.NewSource(1)))

	for i := 0; i < 1000; i++ {
		d := SampleOnUnitSphere(sampler.Get2D())
		test.That(t, d.Norm(), test.ShouldAlmostEqual, 1.0, 1e-9)

		x := sampler.Get1D()
		test.That(t, x, test.ShouldBeGreaterThanOrEqualTo, 0)
		test.That(t, x, test.ShouldBeLessThan, 1)
	}
}

func TestOrthonormalBasis(t *testing.T) {
	for _, n := range []Vec3{NewVec3(1, 0, 0), NewVec3(0, 1, 0), NewVec3(0, 0, -1), NewVec3(1, 2, 3).Normalize()} {
		u, v := OrthonormalBasis(n)
		test.That(t, u.Dot(n), test.ShouldAlmostEqual, 0, 1e-12)
		test.That(t, v.Dot(n), test.ShouldAlmostEqual, 0, 1e-12)
		test.That(t, u.Dot(v), test.ShouldAlmostEqual, 0, 1e-12)
		test.That(t, u.Norm(), test.ShouldAlmostEqual, 1, 1e-12)
	}
}
