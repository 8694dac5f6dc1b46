package core

import (
	"math"
	"testing"

	"go.viam.com/test"
)

func TestOctant(t *testing.T) {
	test.That(t, Octant(NewVec3(1, 1, 1)), test.ShouldEqual, uint8(0))
	test.That(t, Octant(NewVec3(-1, 1, 1)), test.ShouldEqual, uint8(1))
	test.That(t, Octant(NewVec3(1, -1, 1)), test.ShouldEqual, uint8(2))
	test.That(t, Octant(NewVec3(1, 1, -1)), test.ShouldEqual, uint8(4))
	test.That(t, Octant(NewVec3(-1, -1, -1)), test.ShouldEqual, uint8(7))

	// The reciprocal keeps the sign of a negative zero
	test.That(t, Octant(Reciprocal(NewVec3(math.Copysign(0, -1), 1, 1))), test.ShouldEqual, uint8(1))
}

func TestAxisAndLerp(t *testing.T) {
	v := NewVec3(1, 2, 3)
	test.That(t, Axis(v, 0), test.ShouldEqual, 1.0)
	test.That(t, Axis(v, 1), test.ShouldEqual, 2.0)
	test.That(t, Axis(v, 2), test.ShouldEqual, 3.0)

	test.That(t, LerpVec(NewVec3(0, 0, 0), v, 0.5), test.ShouldResemble, NewVec3(0.5, 1, 1.5))
	test.That(t, MinVec(v, NewVec3(2, 0, 3)), test.ShouldResemble, NewVec3(1, 0, 3))
	test.That(t, MaxVec(v, NewVec3(2, 0, 3)), test.ShouldResemble, NewVec3(2, 2, 3))
}

func TestAccelRay(t *testing.T) {
	ray := NewRay(NewVec3(1, 2, 3), NewVec3(0, -2, 4))
	ray.Time = 0.25
	ray.Occlusion = true

	r := NewAccelRay(ray, 7)
	test.That(t, r.ID, test.ShouldEqual, uint32(7))
	test.That(t, r.DirInv.Y, test.ShouldEqual, -0.5)
	test.That(t, math.IsInf(r.DirInv.X, 1), test.ShouldBeTrue)
	test.That(t, r.Time, test.ShouldEqual, 0.25)
	test.That(t, math.IsInf(r.MaxT, 1), test.ShouldBeTrue)
	test.That(t, r.IsOcclusion(), test.ShouldBeTrue)
	test.That(t, r.IsDone(), test.ShouldBeFalse)
	test.That(t, r.Octant(), test.ShouldEqual, uint8(2))

	r.MarkDone()
	test.That(t, r.IsDone(), test.ShouldBeTrue)
	test.That(t, r.IsOcclusion(), test.ShouldBeTrue)

	test.That(t, ray.At(0.5), test.ShouldResemble, NewVec3(1, 1, 5))
}
