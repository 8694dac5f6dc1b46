package lights

import (
	"math"

	"github.com/pkg/errors"

	"github.com/df07/go-raytracer-accel/pkg/algorithm"
	"github.com/df07/go-raytracer-accel/pkg/core"
)

// SphereLight represents a spherical area light whose center may move over
// the shutter interval
type SphereLight struct {
	Centers  []core.Vec3 // Center time samples
	Radius   float64
	Radiance float64 // Emitted radiance, uniform over the surface
}

// NewSphereLight creates a spherical light. centers holds one or more evenly
// spaced time samples.
func NewSphereLight(centers []core.Vec3, radius, radiance float64) (*SphereLight, error) {
	if len(centers) == 0 {
		return nil, errors.New("sphere light needs at least one center time sample")
	}
	if !(radius > 0) {
		return nil, errors.Errorf("sphere light radius must be positive, got %v", radius)
	}
	return &SphereLight{Centers: centers, Radius: radius, Radiance: radiance}, nil
}

// Bounds implements Light
func (sl *SphereLight) Bounds() []core.AABB {
	r := core.NewVec3(sl.Radius, sl.Radius, sl.Radius)
	bounds := make([]core.AABB, len(sl.Centers))
	for i, c := range sl.Centers {
		bounds[i] = core.NewAABB(c.Sub(r), c.Add(r))
	}
	return bounds
}

// ApproximateEnergy implements Light: radiance times surface area times pi
func (sl *SphereLight) ApproximateEnergy() float64 {
	return sl.Radiance * 4 * math.Pi * sl.Radius * sl.Radius * math.Pi
}

// IsDelta implements Light
func (sl *SphereLight) IsDelta() bool {
	return false
}

// CenterAt returns the center interpolated to the given time
func (sl *SphereLight) CenterAt(time float64) core.Vec3 {
	return algorithm.LerpSliceFunc(sl.Centers, time, core.LerpVec)
}

// Sample implements Light. Outside the sphere it samples the cone the sphere
// subtends; inside, every direction sees the sphere.
func (sl *SphereLight) Sample(point core.Vec3, time float64, sample core.Vec2) LightSample {
	center := sl.CenterAt(time)
	toCenter := center.Sub(point)
	distanceToCenter := toCenter.Norm()

	if distanceToCenter <= sl.Radius {
		dir := core.SampleOnUnitSphere(sample)
		dist := sl.exitDistance(point, center, dir)
		return LightSample{
			Point:     point.Add(dir.Mul(dist)),
			Direction: dir,
			Distance:  dist,
			Emission:  sl.Radiance,
			PDF:       1 / (4 * math.Pi),
		}
	}

	// Coordinate system with w pointing toward the sphere center
	w := toCenter.Mul(1 / distanceToCenter)
	u, v := core.OrthonormalBasis(w)

	sinThetaMax := sl.Radius / distanceToCenter
	cosThetaMax := math.Sqrt(math.Max(0, 1.0-sinThetaMax*sinThetaMax))

	cosTheta := 1.0 - sample.X*(1.0-cosThetaMax)
	sinTheta := math.Sqrt(math.Max(0, 1.0-cosTheta*cosTheta))
	phi := 2.0 * math.Pi * sample.Y
	dir := u.Mul(sinTheta * math.Cos(phi)).Add(v.Mul(sinTheta * math.Sin(phi))).Add(w.Mul(cosTheta))

	// Nearest intersection with the sphere along dir
	b := dir.Dot(toCenter)
	disc := math.Max(0, b*b-(distanceToCenter*distanceToCenter-sl.Radius*sl.Radius))
	dist := b - math.Sqrt(disc)

	return LightSample{
		Point:     point.Add(dir.Mul(dist)),
		Direction: dir,
		Distance:  dist,
		Emission:  sl.Radiance,
		PDF:       1.0 / (2.0 * math.Pi * (1.0 - cosThetaMax)),
	}
}

// exitDistance returns where a ray from inside the sphere leaves it
func (sl *SphereLight) exitDistance(point, center, dir core.Vec3) float64 {
	oc := point.Sub(center)
	b := oc.Dot(dir)
	c := oc.Dot(oc) - sl.Radius*sl.Radius
	return -b + math.Sqrt(math.Max(0, b*b-c))
}
