package accel

import (
	"math"
	"math/rand"

	"github.com/df07/go-raytracer-accel/pkg/algorithm"
	"github.com/df07/go-raytracer-accel/pkg/core"
)

func init() {
	DebugChecks = true
}

// box is a test object: one bounding box per time sample
type box struct {
	id      int
	samples []core.AABB
}

func boxBounds(b box) []core.AABB {
	return b.samples
}

func unitCube(origin core.Vec3) core.AABB {
	return core.NewAABB(origin, origin.Add(core.NewVec3(1, 1, 1)))
}

func randomVec(rng *rand.Rand, scale float64) core.Vec3 {
	return core.NewVec3(
		(rng.Float64()*2-1)*scale,
		(rng.Float64()*2-1)*scale,
		(rng.Float64()*2-1)*scale)
}

// randomBoxes returns n boxes, each with the given number of time samples,
// drifting a little between samples.
func randomBoxes(rng *rand.Rand, n, samples int) []box {
	boxes := make([]box, n)
	for i := range boxes {
		center := randomVec(rng, 20)
		half := core.NewVec3(0.1+rng.Float64(), 0.1+rng.Float64(), 0.1+rng.Float64())
		drift := randomVec(rng, 1)
		boxes[i].id = i
		for s := 0; s < samples; s++ {
			c := center.Add(drift.Mul(float64(s)))
			boxes[i].samples = append(boxes[i].samples, core.NewAABB(c.Sub(half), c.Add(half)))
		}
	}
	return boxes
}

func randomRays(rng *rand.Rand, n int, occlusion bool) []core.Ray {
	rays := make([]core.Ray, n)
	for i := range rays {
		origin := randomVec(rng, 30)
		target := randomVec(rng, 10)
		rays[i] = core.NewRay(origin, target.Sub(origin).Normalize())
		rays[i].Time = rng.Float64()
		rays[i].Occlusion = occlusion
		if rng.Intn(4) == 0 {
			rays[i].MaxT = 5 + rng.Float64()*20
		}
	}
	return rays
}

func accelRays(rays []core.Ray) []core.AccelRay {
	out := make([]core.AccelRay, len(rays))
	for i, r := range rays {
		out[i] = core.NewAccelRay(r, uint32(i))
	}
	return out
}

// boxHit returns the entry distance of ray into b at the ray's time
func boxHit(b box, ray *core.AccelRay) (float64, bool) {
	return algorithm.LerpSlice(b.samples, ray.Time).IntersectInterval(ray.Origin, ray.DirInv, 0, ray.MaxT)
}

// traverser is what BVH and BVH4 have in common
type traverser interface {
	Traverse(rays []core.AccelRay, visitor LeafVisitor, profile *Profile)
	Bounds() []core.AABB
}

// closestHits traverses with a visitor that tightens MaxT to the nearest box
// and returns the nearest hit distance per ray (+Inf for none).
func closestHits(tr traverser, objects []box, rays []core.Ray, profile *Profile) []float64 {
	hits := make([]float64, len(rays))
	for i := range hits {
		hits[i] = math.Inf(1)
	}
	batch := accelRays(rays)
	tr.Traverse(batch, LeafFunc(func(object int, live []core.AccelRay) {
		for i := range live {
			r := &live[i]
			if t, ok := boxHit(objects[object], r); ok && t < hits[r.ID] {
				r.MaxT = t
				hits[r.ID] = t
			}
		}
	}), profile)
	return hits
}

func bruteClosest(objects []box, rays []core.Ray) []float64 {
	hits := make([]float64, len(rays))
	for i, ray := range rays {
		hits[i] = math.Inf(1)
		r := core.NewAccelRay(ray, uint32(i))
		for _, b := range objects {
			if t, ok := boxHit(b, &r); ok && t < hits[i] {
				hits[i] = t
			}
		}
	}
	return hits
}
