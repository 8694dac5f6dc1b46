package main

import (
	"math"
	"math/rand/v2"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/df07/go-raytracer-accel/pkg/accel"
	"github.com/df07/go-raytracer-accel/pkg/core"
	"github.com/df07/go-raytracer-accel/pkg/geometry"
	"github.com/df07/go-raytracer-accel/pkg/lights"
	"github.com/df07/go-raytracer-accel/pkg/loaders"
	"github.com/df07/go-raytracer-accel/pkg/renderer"
	"github.com/df07/go-raytracer-accel/pkg/shading"
)

// sceneOptions controls the random benchmark scene
type sceneOptions struct {
	Boxes   int
	Spheres int
	Lights  int
	Motion  bool    // Give every object and light a second, displaced time sample
	Extent  float64 // Objects are scattered over [-Extent, Extent] in x and z
	Seed    int64
	UseBVH4 bool
	PLYPath string // Optional mesh file added to the scene as is
	Build   accel.BuildConfig
}

// sceneSummary describes what buildScene produced
type sceneSummary struct {
	Surfaces  int
	Triangles int
	Lights    int
	TopLevel  accel.Stats
}

// sceneRandom draws the scene's random values from one seeded source
type sceneRandom struct {
	unit distuv.Uniform
	src  rand.Source
}

func newSceneRandom(seed int64) *sceneRandom {
	src := rand.NewPCG(uint64(seed), 0x9e3779b97f4a7c15)
	return &sceneRandom{unit: distuv.Uniform{Min: 0, Max: 1, Src: src}, src: src}
}

func (r *sceneRandom) between(lo, hi float64) float64 {
	return distuv.Uniform{Min: lo, Max: hi, Src: r.src}.Rand()
}

func (r *sceneRandom) point(extent, minY, maxY float64) core.Vec3 {
	return core.NewVec3(r.between(-extent, extent), r.between(minY, maxY), r.between(-extent, extent))
}

// motion returns the time samples for a point, displaced at t=1 when moving
func (r *sceneRandom) motion(p core.Vec3, moving bool) []core.Vec3 {
	if !moving {
		return []core.Vec3{p}
	}
	d := core.NewVec3(r.between(-0.5, 0.5), r.between(0, 0.25), r.between(-0.5, 0.5))
	return []core.Vec3{p, p.Add(d)}
}

func (r *sceneRandom) closure() shading.SurfaceClosure {
	if r.unit.Rand() < 0.7 {
		return shading.NewLambertClosure(r.between(0.2, 0.9))
	}
	return shading.NewGTRClosure(r.between(0.2, 0.9), r.between(0.05, 0.6), r.between(1, 3), r.unit.Rand())
}

// buildScene creates a floor, random boxes and spheres, and random sphere and
// point lights above them, and aims a camera at the middle
func buildScene(opts sceneOptions, aspectRatio float64) (renderer.Scene, sceneSummary, error) {
	if opts.Boxes < 0 || opts.Spheres < 0 || opts.Lights < 1 {
		return renderer.Scene{}, sceneSummary{}, errors.Errorf(
			"need non-negative object counts and at least one light, got %d boxes, %d spheres, %d lights",
			opts.Boxes, opts.Spheres, opts.Lights)
	}

	random := newSceneRandom(opts.Seed)
	meshOptions := &geometry.TriangleMeshOptions{Build: opts.Build, UseBVH4: opts.UseBVH4}
	var surfaces []geometry.Surface
	var summary sceneSummary

	addMesh := func(samples [][]core.Vec3, faces []int, closure shading.SurfaceClosure) error {
		mesh, err := geometry.NewTriangleMesh(samples, faces, closure, meshOptions)
		if err != nil {
			return err
		}
		surfaces = append(surfaces, mesh)
		summary.Triangles += mesh.TriangleCount()
		return nil
	}

	e := opts.Extent * 2
	floor := []core.Vec3{
		core.NewVec3(-e, 0, -e),
		core.NewVec3(e, 0, -e),
		core.NewVec3(e, 0, e),
		core.NewVec3(-e, 0, e),
	}
	if err := addMesh([][]core.Vec3{floor}, []int{0, 1, 2, 0, 2, 3}, shading.NewLambertClosure(0.5)); err != nil {
		return renderer.Scene{}, sceneSummary{}, errors.Wrap(err, "floor")
	}

	for i := 0; i < opts.Boxes; i++ {
		size := core.NewVec3(random.between(0.1, 0.6), random.between(0.1, 1), random.between(0.1, 0.6))
		rotation := core.NewVec3(0, random.between(0, math.Pi), 0)
		var samples [][]core.Vec3
		for _, c := range random.motion(random.point(opts.Extent, 0, 0), opts.Motion) {
			samples = append(samples, geometry.BoxVertices(c.Add(core.NewVec3(0, size.Y, 0)), size, rotation))
		}
		if err := addMesh(samples, geometry.BoxFaces(), random.closure()); err != nil {
			return renderer.Scene{}, sceneSummary{}, errors.Wrapf(err, "box %d", i)
		}
	}

	for i := 0; i < opts.Spheres; i++ {
		radius := random.between(0.1, 0.7)
		var samples [][]core.Vec3
		var faces []int
		for _, c := range random.motion(random.point(opts.Extent, radius, radius+1), opts.Motion) {
			var vertices []core.Vec3
			vertices, faces = geometry.SphereVertices(c, radius, 8, 16)
			samples = append(samples, vertices)
		}
		if err := addMesh(samples, faces, random.closure()); err != nil {
			return renderer.Scene{}, sceneSummary{}, errors.Wrapf(err, "sphere %d", i)
		}
	}

	if opts.PLYPath != "" {
		ply, err := loaders.LoadPLY(opts.PLYPath, opts.Build.Logger)
		if err != nil {
			return renderer.Scene{}, sceneSummary{}, err
		}
		if err := addMesh([][]core.Vec3{ply.Vertices}, ply.Faces, shading.NewLambertClosure(0.7)); err != nil {
			return renderer.Scene{}, sceneSummary{}, errors.Wrap(err, opts.PLYPath)
		}
	}

	group, err := geometry.NewGroup(surfaces, opts.Build, opts.UseBVH4)
	if err != nil {
		return renderer.Scene{}, sceneSummary{}, err
	}
	summary.Surfaces = len(surfaces)
	summary.TopLevel = group.Stats()

	sceneLights := make([]lights.Light, 0, opts.Lights)
	for i := 0; i < opts.Lights; i++ {
		centers := random.motion(random.point(opts.Extent, 2, 6), opts.Motion)
		if random.unit.Rand() < 0.5 {
			l, err := lights.NewPointLight(centers, random.between(1, 20))
			if err != nil {
				return renderer.Scene{}, sceneSummary{}, errors.Wrapf(err, "light %d", i)
			}
			sceneLights = append(sceneLights, l)
			continue
		}
		l, err := lights.NewSphereLight(centers, random.between(0.05, 0.3), random.between(1, 20))
		if err != nil {
			return renderer.Scene{}, sceneSummary{}, errors.Wrapf(err, "light %d", i)
		}
		sceneLights = append(sceneLights, l)
	}
	summary.Lights = len(sceneLights)

	camera := renderer.NewCamera(
		core.NewVec3(0, opts.Extent*0.8+2, opts.Extent*1.5+2),
		core.NewVec3(0, 0, 0),
		core.NewVec3(0, 1, 0),
		45, aspectRatio)

	return renderer.Scene{
		Surface: group,
		Lights:  lights.NewSampler(sceneLights, opts.Build),
		Camera:  camera,
	}, summary, nil
}
