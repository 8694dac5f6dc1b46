package renderer

import (
	"time"

	"github.com/montanaflynn/stats"

	"github.com/df07/go-raytracer-accel/pkg/accel"
)

// PixelStats accumulates the direct-lighting estimates of one pixel
type PixelStats struct {
	Accum       float64 // Sum of the direct lighting estimates
	AccumSq     float64 // Sum of squared estimates, for variance
	SampleCount int
}

// AddSample adds one estimate
func (ps *PixelStats) AddSample(value float64) {
	ps.Accum += value
	ps.AccumSq += value * value
	ps.SampleCount++
}

// Mean returns the average estimate, or 0 before any sample
func (ps *PixelStats) Mean() float64 {
	if ps.SampleCount == 0 {
		return 0
	}
	return ps.Accum / float64(ps.SampleCount)
}

// Variance returns the sample variance of the estimates
func (ps *PixelStats) Variance() float64 {
	if ps.SampleCount < 2 {
		return 0
	}
	n := float64(ps.SampleCount)
	mean := ps.Accum / n
	return (ps.AccumSq - n*mean*mean) / (n - 1)
}

// BatchStats counts what happened to the rays of one batch
type BatchStats struct {
	CameraRays   int // Primary rays traced
	Hits         int // Primary rays that hit a surface
	LightSamples int // Hits for which a light was selected
	ShadowRays   int // Occlusion rays traced
	Occluded     int // Occlusion rays that were blocked
	Unlit        int // Hits where no light could contribute
	Duration     time.Duration
}

func (s *BatchStats) add(other BatchStats) {
	s.CameraRays += other.CameraRays
	s.Hits += other.Hits
	s.LightSamples += other.LightSamples
	s.ShadowRays += other.ShadowRays
	s.Occluded += other.Occluded
	s.Unlit += other.Unlit
	s.Duration += other.Duration
}

// PassStats summarizes one rendering pass
type PassStats struct {
	Pass    int
	Batches int
	BatchStats
	Elapsed time.Duration // Wall clock time of the pass

	// Batch timing summary in milliseconds
	BatchMeanMs   float64
	BatchMedianMs float64
	BatchP95Ms    float64

	MeanEstimate float64       // Mean pixel estimate after this pass
	Profile      accel.Profile // Traversal counters flushed during this pass
}

// HitRate returns the fraction of camera rays that hit something
func (s PassStats) HitRate() float64 {
	if s.CameraRays == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.CameraRays)
}

// summarizeBatches fills in the timing summary from per-batch durations
func (s *PassStats) summarizeBatches(batches []BatchStats) {
	durations := make(stats.Float64Data, len(batches))
	for i, b := range batches {
		s.add(b)
		durations[i] = float64(b.Duration) / float64(time.Millisecond)
	}
	s.Batches = len(batches)
	if len(durations) == 0 {
		return
	}
	s.BatchMeanMs, _ = durations.Mean()
	s.BatchMedianMs, _ = durations.Median()
	s.BatchP95Ms, _ = durations.Percentile(95)
}

// meanEstimate returns the average pixel estimate over the image
func meanEstimate(pixels []PixelStats) float64 {
	means := make(stats.Float64Data, len(pixels))
	for i := range pixels {
		means[i] = pixels[i].Mean()
	}
	m, err := means.Mean()
	if err != nil {
		return 0
	}
	return m
}
