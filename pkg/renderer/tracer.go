package renderer

import (
	"math"
	"time"

	"github.com/df07/go-raytracer-accel/pkg/accel"
	"github.com/df07/go-raytracer-accel/pkg/algorithm"
	"github.com/df07/go-raytracer-accel/pkg/core"
	"github.com/df07/go-raytracer-accel/pkg/geometry"
	"github.com/df07/go-raytracer-accel/pkg/lights"
)

// Shadow rays start this far off the surface and stop this fraction short of
// the light.
const (
	shadowOffset    = 1e-6
	shadowShortfall = 1e-6
)

// Scene is what the direct-lighting tracer renders
type Scene struct {
	Surface geometry.Surface
	Lights  *lights.Sampler
	Camera  *Camera
}

// path is the state of one pixel sample as it moves through a batch
type path struct {
	pixel int
	isect geometry.Intersection
	light lights.LightSample
	lit   bool
}

// batchTracer holds one worker's scratch buffers. It is not safe for
// concurrent use.
type batchTracer struct {
	scene     Scene
	width     int
	height    int
	paths     []path
	rays      []core.Ray
	accelRays []core.AccelRay
	isects    []geometry.Intersection
	profile   accel.Profile
}

func newBatchTracer(scene Scene, width, height, batchSize int) *batchTracer {
	return &batchTracer{
		scene:     scene,
		width:     width,
		height:    height,
		paths:     make([]path, 0, batchSize),
		rays:      make([]core.Ray, 0, batchSize),
		accelRays: make([]core.AccelRay, 0, batchSize),
		isects:    make([]geometry.Intersection, 0, batchSize),
	}
}

// intersect traces rays[:n] through the scene, filling isects[:n]
func (bt *batchTracer) intersect(n int) {
	bt.accelRays = bt.accelRays[:0]
	bt.isects = bt.isects[:n]
	for i := 0; i < n; i++ {
		bt.accelRays = append(bt.accelRays, core.NewAccelRay(bt.rays[i], uint32(i)))
		bt.isects[i] = geometry.Intersection{}
	}
	bt.scene.Surface.IntersectRays(bt.accelRays, bt.rays[:n], bt.isects, &bt.profile)
}

// trace renders one sample for each pixel in [start, end) and adds it to
// pixels. Paths that stop contributing are compacted out after each stage so
// later stages only trace live rays.
func (bt *batchTracer) trace(start, end int, sampler core.Sampler, pixels []PixelStats) BatchStats {
	begin := time.Now()
	n := end - start
	bt.paths = bt.paths[:n]
	bt.rays = bt.rays[:n]

	// Camera rays
	for i := 0; i < n; i++ {
		pixel := start + i
		x, y := pixel%bt.width, pixel/bt.width
		jitter := sampler.Get2D()
		s := (float64(x) + jitter.X) / float64(bt.width)
		t := 1 - (float64(y)+jitter.Y)/float64(bt.height)
		bt.paths[i] = path{pixel: pixel}
		bt.rays[i] = bt.scene.Camera.GetRay(s, t, sampler.Get1D())
	}
	bt.intersect(n)
	stats := BatchStats{CameraRays: n}

	// Keep paths that hit a surface worth lighting. isects is not reordered,
	// so the predicate reads it by the slot index.
	live := algorithm.PartitionPair(bt.paths, bt.rays, func(i int, p *path, _ *core.Ray) bool {
		isect := bt.isects[i]
		if isect.Kind != geometry.Hit {
			return false
		}
		p.isect = isect
		return isect.Closure == nil || !isect.Closure.IsDelta()
	})
	for i := live; i < n; i++ {
		if bt.paths[i].isect.Kind == geometry.Hit {
			stats.Hits++
		}
	}
	stats.Hits += live

	// Select a light and build its shadow ray
	for i := 0; i < live; i++ {
		p := &bt.paths[i]
		sp := accel.ShadingPoint{
			Incoming:        p.isect.Incoming,
			Position:        p.isect.Position,
			Normal:          p.isect.Normal,
			GeometricNormal: p.isect.Normal,
			Time:            bt.rays[i].Time,
		}
		if p.isect.Closure != nil {
			sp.Closure = p.isect.Closure
		}

		_, ls, ok := bt.scene.Lights.Sample(sp, sampler.Get1D(), sampler.Get1D())
		if !ok {
			continue
		}
		stats.LightSamples++
		cos := ls.Direction.Dot(p.isect.Normal)
		if !(cos > 0) || !(ls.PDF > 0) || !(ls.Emission > 0) || !(ls.Distance > 0) {
			continue
		}
		p.light = ls
		p.lit = true

		ray := core.NewRay(p.isect.Position.Add(p.isect.Normal.Mul(shadowOffset)), ls.Direction)
		ray.Time = sp.Time
		ray.MaxT = ls.Distance * (1 - shadowShortfall)
		ray.Occlusion = true
		bt.rays[i] = ray
	}

	shadow := algorithm.PartitionPair(bt.paths[:live], bt.rays[:live], func(_ int, p *path, _ *core.Ray) bool {
		return p.lit
	})
	stats.Unlit = live - shadow

	// Shadow rays
	stats.ShadowRays = shadow
	if shadow > 0 {
		bt.intersect(shadow)
	}
	for i := 0; i < n; i++ {
		p := &bt.paths[i]
		value := 0.0
		if i < shadow {
			if bt.isects[i].Kind == geometry.Occluded {
				stats.Occluded++
			} else {
				value = contribution(p)
			}
		}
		pixels[p.pixel].AddSample(value)
	}

	stats.Duration = time.Since(begin)
	return stats
}

// contribution is the unshadowed irradiance estimate for a lit path
func contribution(p *path) float64 {
	cos := math.Max(p.light.Direction.Dot(p.isect.Normal), 0)
	return p.light.Emission * cos / p.light.PDF
}
