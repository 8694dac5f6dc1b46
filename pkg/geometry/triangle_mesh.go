package geometry

import (
	"math"

	"github.com/pkg/errors"

	"github.com/df07/go-raytracer-accel/pkg/accel"
	"github.com/df07/go-raytracer-accel/pkg/algorithm"
	"github.com/df07/go-raytracer-accel/pkg/core"
	"github.com/df07/go-raytracer-accel/pkg/shading"
)

// Rays are intersected from just past their origin so a ray leaving a
// surface does not hit it again.
const rayEpsilon = 1e-9

// TriangleMesh is a set of triangles, optionally moving over the shutter
// interval, intersected through its own BVH
type TriangleMesh struct {
	timeSamples int
	triangles   []Triangle // timeSamples consecutive entries per triangle
	indices     []int      // Start of each triangle in triangles, in BVH leaf order
	bounds      []core.AABB
	bvh         *accel.BVH
	bvh4        *accel.BVH4
	closure     shading.SurfaceClosure
}

// TriangleMeshOptions contains optional parameters for triangle mesh creation
type TriangleMeshOptions struct {
	Rotation *core.Vec3        // Optional rotation to apply to vertices
	Center   *core.Vec3        // Optional center point for rotation
	Build    accel.BuildConfig // BVH build settings; zero value means defaults
	UseBVH4  bool              // Traverse a 4-wide BVH instead of the binary one
}

// NewTriangleMesh creates a mesh from vertex positions and face indices.
// vertexSamples holds one vertex array per time sample, evenly spaced over
// the shutter interval; every array must have the same length. faces holds
// three vertex indices per triangle. options may be nil.
func NewTriangleMesh(vertexSamples [][]core.Vec3, faces []int, closure shading.SurfaceClosure, options *TriangleMeshOptions) (*TriangleMesh, error) {
	if len(vertexSamples) == 0 {
		return nil, errors.New("triangle mesh needs at least one vertex time sample")
	}
	if len(faces) == 0 || len(faces)%3 != 0 {
		return nil, errors.Errorf("face indices must be a non-zero multiple of 3, got %d", len(faces))
	}
	numVerts := len(vertexSamples[0])
	for i, vs := range vertexSamples {
		if len(vs) != numVerts {
			return nil, errors.Errorf("vertex time sample %d has %d vertices, expected %d", i, len(vs), numVerts)
		}
	}
	for _, f := range faces {
		if f < 0 || f >= numVerts {
			return nil, errors.Errorf("face index %d out of range [0, %d)", f, numVerts)
		}
	}

	opts := TriangleMeshOptions{Build: accel.DefaultBuildConfig()}
	if options != nil {
		opts = *options
		if opts.Build == (accel.BuildConfig{}) {
			opts.Build = accel.DefaultBuildConfig()
		}
	}
	if err := opts.Build.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid mesh build config")
	}

	samples := len(vertexSamples)
	numTris := len(faces) / 3
	mesh := &TriangleMesh{
		timeSamples: samples,
		triangles:   make([]Triangle, 0, numTris*samples),
		indices:     make([]int, numTris),
		closure:     closure,
	}

	for tri := 0; tri < numTris; tri++ {
		for s := 0; s < samples; s++ {
			v := func(k int) core.Vec3 {
				p := vertexSamples[s][faces[tri*3+k]]
				if opts.Rotation != nil {
					if opts.Center != nil {
						p = p.Sub(*opts.Center)
					}
					p = rotateVertex(p, *opts.Rotation)
					if opts.Center != nil {
						p = p.Add(*opts.Center)
					}
				}
				return p
			}
			mesh.triangles = append(mesh.triangles, NewTriangle(v(0), v(1), v(2)))
		}
		mesh.indices[tri] = tri * samples
	}

	triBounds := make([]core.AABB, len(mesh.triangles))
	for i, t := range mesh.triangles {
		triBounds[i] = t.Bounds()
	}

	mesh.bvh = accel.NewBVHWithConfig(mesh.indices, func(start int) []core.AABB {
		return triBounds[start : start+samples]
	}, opts.Build)
	if opts.UseBVH4 {
		mesh.bvh4 = accel.NewBVH4(mesh.bvh)
	}
	mesh.bounds = mesh.bvh.Bounds()
	return mesh, nil
}

// Bounds returns the mesh bounding box time samples
func (m *TriangleMesh) Bounds() []core.AABB {
	return m.bounds
}

// TriangleCount returns the number of triangles in this mesh
func (m *TriangleMesh) TriangleCount() int {
	return len(m.indices)
}

// TriangleAt returns the i-th triangle interpolated to the given time
func (m *TriangleMesh) TriangleAt(i int, time float64) Triangle {
	start := m.indices[i]
	return algorithm.LerpSlice(m.triangles[start:start+m.timeSamples], time)
}

// IntersectRays implements Surface
func (m *TriangleMesh) IntersectRays(accelRays []core.AccelRay, rays []core.Ray, isects []Intersection, profile *accel.Profile) {
	visitor := meshVisitor{mesh: m, rays: rays, isects: isects}
	if m.bvh4 != nil {
		m.bvh4.Traverse(accelRays, visitor, profile)
		return
	}
	m.bvh.Traverse(accelRays, visitor, profile)
}

type meshVisitor struct {
	mesh   *TriangleMesh
	rays   []core.Ray
	isects []Intersection
}

func (v meshVisitor) VisitLeaf(object int, live []core.AccelRay) {
	for i := range live {
		r := &live[i]
		wr := &v.rays[r.ID]
		tri := v.mesh.TriangleAt(object, wr.Time)
		t, u, w, ok := tri.Intersect(wr.Origin, wr.Direction, rayEpsilon, r.MaxT)
		if !ok || t >= r.MaxT {
			continue
		}

		if r.IsOcclusion() {
			v.isects[r.ID] = Intersection{Kind: Occluded, T: t}
			r.MarkDone()
			continue
		}

		isect := Intersection{
			Kind:     Hit,
			T:        t,
			Position: wr.At(t),
			Incoming: wr.Direction,
			U:        u,
			V:        w,
			Closure:  v.mesh.closure,
		}
		isect.setFaceNormal(wr.Direction, tri.Normal())
		v.isects[r.ID] = isect
		r.MaxT = t
	}
}

// rotateVertex applies rotation around X, Y, Z axes (in that order)
func rotateVertex(vertex, rotation core.Vec3) core.Vec3 {
	if rotation.X != 0 {
		cos, sin := math.Cos(rotation.X), math.Sin(rotation.X)
		vertex = core.NewVec3(vertex.X, vertex.Y*cos-vertex.Z*sin, vertex.Y*sin+vertex.Z*cos)
	}
	if rotation.Y != 0 {
		cos, sin := math.Cos(rotation.Y), math.Sin(rotation.Y)
		vertex = core.NewVec3(vertex.X*cos+vertex.Z*sin, vertex.Y, -vertex.X*sin+vertex.Z*cos)
	}
	if rotation.Z != 0 {
		cos, sin := math.Cos(rotation.Z), math.Sin(rotation.Z)
		vertex = core.NewVec3(vertex.X*cos-vertex.Y*sin, vertex.X*sin+vertex.Y*cos, vertex.Z)
	}
	return vertex
}

// Stats reports the shape of the mesh's tree
func (m *TriangleMesh) Stats() accel.Stats {
	if m.bvh4 != nil {
		return m.bvh4.Stats()
	}
	return m.bvh.Stats()
}
