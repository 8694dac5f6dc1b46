package geometry

import (
	"math"

	"github.com/df07/go-raytracer-accel/pkg/core"
)

// SphereVertices tessellates a sphere into a latitude/longitude grid. It
// returns the vertices and the face indices of 2*segments*(rings-1) triangles.
// rings is clamped to at least 2 and segments to at least 3.
func SphereVertices(center core.Vec3, radius float64, rings, segments int) ([]core.Vec3, []int) {
	if rings < 2 {
		rings = 2
	}
	if segments < 3 {
		segments = 3
	}

	var vertices []core.Vec3
	vertices = append(vertices, center.Add(core.NewVec3(0, radius, 0)))
	for r := 1; r < rings; r++ {
		theta := math.Pi * float64(r) / float64(rings)
		for s := 0; s < segments; s++ {
			phi := 2 * math.Pi * float64(s) / float64(segments)
			dir := core.NewVec3(math.Sin(theta)*math.Cos(phi), math.Cos(theta), math.Sin(theta)*math.Sin(phi))
			vertices = append(vertices, center.Add(dir.Mul(radius)))
		}
	}
	bottom := len(vertices)
	vertices = append(vertices, center.Add(core.NewVec3(0, -radius, 0)))

	ring := func(r, s int) int {
		return 1 + (r-1)*segments + s%segments
	}

	var faces []int
	for s := 0; s < segments; s++ {
		faces = append(faces, 0, ring(1, s+1), ring(1, s))
	}
	for r := 1; r < rings-1; r++ {
		for s := 0; s < segments; s++ {
			a, b := ring(r, s), ring(r, s+1)
			c, d := ring(r+1, s), ring(r+1, s+1)
			faces = append(faces, a, b, d, a, d, c)
		}
	}
	for s := 0; s < segments; s++ {
		faces = append(faces, bottom, ring(rings-1, s), ring(rings-1, s+1))
	}
	return vertices, faces
}
