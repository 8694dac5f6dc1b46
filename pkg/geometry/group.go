package geometry

import (
	"github.com/pkg/errors"

	"github.com/df07/go-raytracer-accel/pkg/accel"
	"github.com/df07/go-raytracer-accel/pkg/core"
)

// Group is a Surface made of other surfaces, with a top-level BVH over their
// bounds. Rays reaching a leaf are handed to that surface's own IntersectRays.
type Group struct {
	surfaces []Surface // In BVH leaf order
	bvh      *accel.BVH
	bvh4     *accel.BVH4
}

// NewGroup builds a group over surfaces. The slice is reordered.
func NewGroup(surfaces []Surface, cfg accel.BuildConfig, useBVH4 bool) (*Group, error) {
	if len(surfaces) == 0 {
		return nil, errors.New("group needs at least one surface")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid group build config")
	}

	g := &Group{surfaces: surfaces}
	g.bvh = accel.NewBVHWithConfig(surfaces, Surface.Bounds, cfg)
	if useBVH4 {
		g.bvh4 = accel.NewBVH4(g.bvh)
	}
	return g, nil
}

// Bounds returns the bounding box time samples of every surface together
func (g *Group) Bounds() []core.AABB {
	return g.bvh.Bounds()
}

// Surfaces returns the member surfaces in traversal order
func (g *Group) Surfaces() []Surface {
	return g.surfaces
}

// IntersectRays implements Surface
func (g *Group) IntersectRays(accelRays []core.AccelRay, rays []core.Ray, isects []Intersection, profile *accel.Profile) {
	visit := accel.LeafFunc(func(object int, live []core.AccelRay) {
		g.surfaces[object].IntersectRays(live, rays, isects, profile)
	})
	if g.bvh4 != nil {
		g.bvh4.Traverse(accelRays, visit, profile)
		return
	}
	g.bvh.Traverse(accelRays, visit, profile)
}

// Stats reports the shape of the top-level tree
func (g *Group) Stats() accel.Stats {
	if g.bvh4 != nil {
		return g.bvh4.Stats()
	}
	return g.bvh.Stats()
}
