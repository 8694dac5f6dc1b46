package geometry

import (
	"github.com/df07/go-raytracer-accel/pkg/core"
)

// BoxVertices returns the 8 corners of a box with the given center and
// half-extents, rotated about its center (radians around X, Y, Z, applied in
// that order).
func BoxVertices(center, size, rotation core.Vec3) []core.Vec3 {
	corners := []core.Vec3{
		core.NewVec3(-1, -1, -1), // 0: left-bottom-back
		core.NewVec3(1, -1, -1),  // 1: right-bottom-back
		core.NewVec3(1, 1, -1),   // 2: right-top-back
		core.NewVec3(-1, 1, -1),  // 3: left-top-back
		core.NewVec3(-1, -1, 1),  // 4: left-bottom-front
		core.NewVec3(1, -1, 1),   // 5: right-bottom-front
		core.NewVec3(1, 1, 1),    // 6: right-top-front
		core.NewVec3(-1, 1, 1),   // 7: left-top-front
	}
	for i := range corners {
		c := core.NewVec3(corners[i].X*size.X, corners[i].Y*size.Y, corners[i].Z*size.Z)
		corners[i] = rotateVertex(c, rotation).Add(center)
	}
	return corners
}

// boxFaces lists the two triangles of each box face, wound so the normals
// point outward
var boxFaces = []int{
	4, 5, 6, 4, 6, 7, // Front (Z+)
	1, 0, 3, 1, 3, 2, // Back (Z-)
	5, 1, 2, 5, 2, 6, // Right (X+)
	0, 4, 7, 0, 7, 3, // Left (X-)
	3, 7, 6, 3, 6, 2, // Top (Y+)
	4, 0, 1, 4, 1, 5, // Bottom (Y-)
}

// BoxFaces returns the face indices for the corners from BoxVertices
func BoxFaces() []int {
	return append([]int(nil), boxFaces...)
}
