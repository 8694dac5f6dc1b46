package accel

import (
	"math"
	"math/rand"
	"testing"

	"go.viam.com/test"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/df07/go-raytracer-accel/pkg/core"
	"github.com/df07/go-raytracer-accel/pkg/shading"
)

type testLight struct {
	center core.Vec3
	radius float64
	energy float64
}

func testLightInfo(l testLight) ([]core.AABB, float64) {
	r := core.NewVec3(l.radius, l.radius, l.radius)
	return []core.AABB{core.NewAABB(l.center.Sub(r), l.center.Add(r))}, l.energy
}

// selector is what LightTree and LightArray have in common in these tests
type selector interface {
	LightAccel
	selectionPDF(sp ShadingPoint, lightIndex int) float64
}

func buildBoth(lights []testLight) map[string]selector {
	return map[string]selector{
		"tree":  NewLightTree(lights, testLightInfo),
		"array": NewLightArray(lights, testLightInfo),
	}
}

// overhead is a surface facing down toward lights spread along the X axis
func overhead() ShadingPoint {
	return ShadingPoint{
		Incoming: core.NewVec3(0, 1, 0),
		Position: core.NewVec3(0, 100, 0),
		Normal:   core.NewVec3(0, -1, 0),
		Closure:  shading.NewLambertClosure(1),
	}
}

func threeLights() []testLight {
	return []testLight{
		{center: core.NewVec3(0, 0, 0), radius: 0.1, energy: 1},
		{center: core.NewVec3(1, 0, 0), radius: 0.1, energy: 2},
		{center: core.NewVec3(-1, 0, 0), radius: 0.1, energy: 9},
	}
}

func TestLightTreeSelectWeightedByEnergy(t *testing.T) {
	// The brightest light is alone on the low side of the top split
	tree := NewLightTree(threeLights(), testLightInfo)
	sp := overhead()
	test.That(t, tree.ApproximateEnergy(), test.ShouldAlmostEqual, 12.0)

	sel, ok := tree.Select(sp, 0.05)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, sel.Index, test.ShouldEqual, 2)
	test.That(t, sel.PDF, test.ShouldAlmostEqual, 9.0/12, 1e-2)
	test.That(t, sel.PDF, test.ShouldAlmostEqual, tree.selectionPDF(sp, 2), 1e-12)

	sel, ok = tree.Select(sp, 0.95)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, sel.Index, test.ShouldBeIn, []int{0, 1})
	test.That(t, sel.PDF, test.ShouldAlmostEqual, tree.selectionPDF(sp, sel.Index), 1e-12)
	test.That(t, sel.Residual, test.ShouldBeBetweenOrEqual, 0, 1)
}

func TestLightArraySelectWeightedByEnergy(t *testing.T) {
	// Cumulative weights follow input order: about 1/12, 3/12, 12/12
	array := NewLightArray(threeLights(), testLightInfo)
	sp := overhead()
	test.That(t, array.ApproximateEnergy(), test.ShouldAlmostEqual, 12.0)
	test.That(t, array.Len(), test.ShouldEqual, 3)

	sel, ok := array.Select(sp, 0.05)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, sel.Index, test.ShouldEqual, 0)
	test.That(t, sel.PDF, test.ShouldAlmostEqual, 1.0/12, 1e-2)

	sel, ok = array.Select(sp, 0.95)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, sel.Index, test.ShouldEqual, 2)
	test.That(t, sel.PDF, test.ShouldAlmostEqual, 9.0/12, 1e-2)
	test.That(t, sel.PDF, test.ShouldAlmostEqual, array.selectionPDF(sp, 2), 1e-12)
	test.That(t, sel.Residual, test.ShouldAlmostEqual, (0.95*12-3)/9, 1e-2)
}

func TestLightSelectEmpty(t *testing.T) {
	for name, accel := range buildBoth(nil) {
		t.Run(name, func(t *testing.T) {
			for _, n := range []float64{0, 0.3, 0.999} {
				_, ok := accel.Select(overhead(), n)
				test.That(t, ok, test.ShouldBeFalse)
			}
			test.That(t, accel.ApproximateEnergy(), test.ShouldEqual, 0.0)
		})
	}
}

func TestLightSelectSingle(t *testing.T) {
	lights := []testLight{{center: core.NewVec3(3, 0, 0), radius: 0.5, energy: 4}}
	for name, accel := range buildBoth(lights) {
		t.Run(name, func(t *testing.T) {
			sel, ok := accel.Select(overhead(), 0.7)
			test.That(t, ok, test.ShouldBeTrue)
			test.That(t, sel.Index, test.ShouldEqual, 0)
			test.That(t, sel.PDF, test.ShouldEqual, 1.0)
			test.That(t, sel.Residual, test.ShouldAlmostEqual, 0.7, 1e-12)
		})
	}
}

func TestLightSelectAllBehindSurface(t *testing.T) {
	var lights []testLight
	for i := 0; i < 20; i++ {
		lights = append(lights, testLight{center: core.NewVec3(float64(i)-10, -50, float64(i%3)), radius: 0.2, energy: 1})
	}
	sp := ShadingPoint{
		Incoming: core.NewVec3(0, -1, 0),
		Position: core.NewVec3(0, 0, 0),
		Normal:   core.NewVec3(0, 1, 0),
		Closure:  shading.NewLambertClosure(1),
	}
	for name, accel := range buildBoth(lights) {
		t.Run(name, func(t *testing.T) {
			_, ok := accel.Select(sp, 0.5)
			test.That(t, ok, test.ShouldBeFalse)
			test.That(t, accel.ApproximateEnergy(), test.ShouldEqual, 20.0)
		})
	}
}

func TestLightSelectZeroEnergy(t *testing.T) {
	lights := []testLight{
		{center: core.NewVec3(0, 0, 0), radius: 0.1, energy: 0},
		{center: core.NewVec3(2, 0, 0), radius: 0.1, energy: 0},
	}
	for name, accel := range buildBoth(lights) {
		t.Run(name, func(t *testing.T) {
			_, ok := accel.Select(overhead(), 0.5)
			test.That(t, ok, test.ShouldBeFalse)
			test.That(t, accel.ApproximateEnergy(), test.ShouldEqual, 0.0)
		})
	}
}

func randomLights(rng *rand.Rand, n int) []testLight {
	lights := make([]testLight, n)
	for i := range lights {
		lights[i] = testLight{
			center: randomVec(rng, 30),
			radius: rng.Float64() * 2,
			energy: 0.1 + rng.Float64()*10,
		}
		if rng.Intn(10) == 0 {
			lights[i].energy = 0
		}
	}
	return lights
}

func randomShadingPoint(rng *rand.Rand) ShadingPoint {
	normal := core.SampleOnUnitSphere(core.NewVec2(rng.Float64(), rng.Float64()))
	sp := ShadingPoint{
		Incoming: normal.Mul(-1),
		Position: randomVec(rng, 10),
		Normal:   normal,
		Time:     rng.Float64(),
	}
	switch rng.Intn(3) {
	case 0:
		sp.Closure = shading.NewLambertClosure(0.5)
	case 1:
		sp.Closure = shading.NewGTRClosure(0.5, 0.2+rng.Float64()*0.6, 2, 0.5)
	}
	return sp
}

func TestLightSelectionPDFs(t *testing.T) {
	rng := rand.New(rand.NewSource(21))
	for trial := 0; trial < 20; trial++ {
		lights := randomLights(rng, 2+rng.Intn(40))
		sp := randomShadingPoint(rng)

		for name, accel := range buildBoth(lights) {
			total := 0.0
			for i, l := range lights {
				pdf := accel.selectionPDF(sp, i)
				if l.energy == 0 {
					test.That(t, pdf, test.ShouldEqual, 0.0)
				}
				total += pdf
			}
			if total == 0 {
				continue
			}
			test.That(t, total, test.ShouldAlmostEqual, 1.0, 1e-9)

			for s := 0; s < 200; s++ {
				sel, ok := accel.Select(sp, rng.Float64())
				test.That(t, ok, test.ShouldBeTrue)
				test.That(t, lights[sel.Index].energy, test.ShouldBeGreaterThan, 0)
				test.That(t, sel.PDF, test.ShouldBeGreaterThan, 0)
				test.That(t, sel.PDF, test.ShouldAlmostEqual, accel.selectionPDF(sp, sel.Index), 1e-9)
				test.That(t, sel.Residual, test.ShouldBeGreaterThanOrEqualTo, 0)
				test.That(t, sel.Residual, test.ShouldBeLessThan, 1)
			}
			t.Logf("%s: %d lights, selection pdfs sum to %v", name, len(lights), total)
		}
	}
}

func TestLightSelectionConverges(t *testing.T) {
	rng := rand.New(rand.NewSource(33))
	lights := randomLights(rng, 24)
	sp := overhead()
	sp.Position = core.NewVec3(0, 40, 0)

	const samples = 200000
	for name, accel := range buildBoth(lights) {
		t.Run(name, func(t *testing.T) {
			counts := make([]float64, len(lights))
			residuals := 0.0
			for s := 0; s < samples; s++ {
				sel, ok := accel.Select(sp, rng.Float64())
				test.That(t, ok, test.ShouldBeTrue)
				counts[sel.Index]++
				residuals += sel.Residual
			}

			chi2, bins := 0.0, 0
			for i := range lights {
				expected := samples * accel.selectionPDF(sp, i)
				if expected < 5 {
					continue
				}
				d := counts[i] - expected
				chi2 += d * d / expected
				bins++
			}
			test.That(t, bins, test.ShouldBeGreaterThan, 2)
			limit := distuv.ChiSquared{K: float64(bins - 1)}.Quantile(0.9999)
			test.That(t, chi2, test.ShouldBeLessThan, limit)

			// The residual is a fresh uniform sample
			test.That(t, residuals/samples, test.ShouldAlmostEqual, 0.5, 0.01)
		})
	}
}

func TestLightTreeMotionBounds(t *testing.T) {
	moving := func(l testLight) ([]core.AABB, float64) {
		r := core.NewVec3(l.radius, l.radius, l.radius)
		end := l.center.Add(core.NewVec3(0, 0, 10))
		return []core.AABB{
			core.NewAABB(l.center.Sub(r), l.center.Add(r)),
			core.NewAABB(end.Sub(r), end.Add(r)),
		}, l.energy
	}
	lights := threeLights()
	tree := NewLightTree(lights, moving)
	test.That(t, tree.Bounds(), test.ShouldHaveLength, 2)
	test.That(t, tree.Bounds()[1].Min.Z, test.ShouldAlmostEqual, 9.9)

	sp := overhead()
	for _, tm := range []float64{0, 0.5, 1} {
		sp.Time = tm
		sel, ok := tree.Select(sp, 0.05)
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, sel.Index, test.ShouldEqual, 2)
	}
}

func TestLightSelectDebugChecks(t *testing.T) {
	defer func(old bool) { DebugChecks = old }(DebugChecks)
	tree := NewLightTree(threeLights(), testLightInfo)
	array := NewLightArray(threeLights(), testLightInfo)
	sp := overhead()

	DebugChecks = true
	test.That(t, func() { tree.Select(sp, 1.5) }, test.ShouldPanic)
	test.That(t, func() { array.Select(sp, -0.1) }, test.ShouldPanic)

	DebugChecks = false
	var sel LightSelection
	var ok bool
	test.That(t, func() { sel, ok = tree.Select(sp, 1.5) }, test.ShouldNotPanic)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, sel.Residual, test.ShouldBeBetweenOrEqual, 0, 1)
	test.That(t, func() { sel, ok = array.Select(sp, -0.1) }, test.ShouldNotPanic)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, sel.Index, test.ShouldEqual, 0)
}

func TestLightSelectOrder(t *testing.T) {
	// The same sample picks by input order in the array and by the spatial
	// split in the tree.
	sp := overhead()
	sel, ok := NewLightArray(threeLights(), testLightInfo).Select(sp, 0.05)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, sel.Index, test.ShouldEqual, 0)

	sel, ok = NewLightTree(threeLights(), testLightInfo).Select(sp, 0.05)
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, sel.Index, test.ShouldEqual, 2)
}

func TestNewLightAccel(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	cfg := DefaultBuildConfig()

	small := NewLightAccel(randomLights(rng, cfg.LightArrayThreshold-1), testLightInfo, cfg)
	_, isArray := small.(*LightArray)
	test.That(t, isArray, test.ShouldBeTrue)

	large := NewLightAccel(randomLights(rng, cfg.LightArrayThreshold), testLightInfo, cfg)
	tree, isTree := large.(*LightTree)
	test.That(t, isTree, test.ShouldBeTrue)
	test.That(t, tree.Depth(), test.ShouldBeGreaterThan, 0)
}

func TestLightWeight(t *testing.T) {
	bounds := []core.AABB{core.NewAABB(core.NewVec3(-1, -1, -1), core.NewVec3(1, 1, 1))}

	t.Run("closer lights weigh more", func(t *testing.T) {
		near := ShadingPoint{Position: core.NewVec3(0, 10, 0), Normal: core.NewVec3(0, -1, 0), Incoming: core.NewVec3(0, 1, 0)}
		far := near
		far.Position = core.NewVec3(0, 20, 0)
		test.That(t, lightWeight(bounds, 1, &near), test.ShouldBeGreaterThan, lightWeight(bounds, 1, &far))
	})

	t.Run("inside the bounds", func(t *testing.T) {
		sp := ShadingPoint{Normal: core.NewVec3(0, 1, 0), Incoming: core.NewVec3(0, -1, 0), Closure: shading.NewLambertClosure(1)}
		w := lightWeight(bounds, 2, &sp)
		test.That(t, w, test.ShouldBeGreaterThan, 0)
		test.That(t, math.IsInf(w, 0), test.ShouldBeFalse)
	})

	t.Run("point light at the shading point", func(t *testing.T) {
		point := []core.AABB{core.NewAABB(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, 0))}
		sp := ShadingPoint{Normal: core.NewVec3(0, 1, 0)}
		w := lightWeight(point, 1, &sp)
		test.That(t, math.IsNaN(w), test.ShouldBeFalse)
		test.That(t, w, test.ShouldBeGreaterThan, 0)
	})

	t.Run("geometric normal fallback", func(t *testing.T) {
		sp := ShadingPoint{
			Position:        core.NewVec3(0, 10, 0),
			GeometricNormal: core.NewVec3(0, -1, 0),
			Incoming:        core.NewVec3(0, 1, 0),
			Closure:         shading.NewLambertClosure(1),
		}
		withNormal := sp
		withNormal.Normal = sp.GeometricNormal
		test.That(t, lightWeight(bounds, 1, &sp), test.ShouldEqual, lightWeight(bounds, 1, &withNormal))
	})

	t.Run("non-positive energy", func(t *testing.T) {
		sp := overhead()
		test.That(t, lightWeight(bounds, 0, &sp), test.ShouldEqual, 0.0)
		test.That(t, lightWeight(bounds, -1, &sp), test.ShouldEqual, 0.0)
	})
}

func TestClampResidual(t *testing.T) {
	test.That(t, clampResidual(-1e-17), test.ShouldEqual, 0.0)
	test.That(t, clampResidual(0.25), test.ShouldEqual, 0.25)
	test.That(t, clampResidual(1), test.ShouldBeLessThan, 1)
	test.That(t, clampResidual(1), test.ShouldEqual, math.Nextafter(1, 0))
}
