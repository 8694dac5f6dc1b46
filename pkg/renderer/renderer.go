// Package renderer traces camera and shadow rays through a scene to exercise the
// acceleration structures: camera rays through the geometry BVHs, one light
// chosen per hit through the light accelerator, and a shadow ray toward it.
package renderer

import (
	"context"
	"math/rand"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/df07/go-raytracer-accel/pkg/accel"
	"github.com/df07/go-raytracer-accel/pkg/core"
)

// batchTask is one batch of pixels for one pass
type batchTask struct {
	index      int
	start, end int
	seed       int64
}

// Renderer runs progressive passes of the direct-lighting tracer over a worker pool
type Renderer struct {
	scene   Scene
	config  Config
	pixels  []PixelStats
	totals  accel.ProfileTotals
	pass    int
	logger  *zap.SugaredLogger
	batches []batchTask
}

// New creates a renderer. logger may be nil.
func New(scene Scene, config Config, logger *zap.SugaredLogger) (*Renderer, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid renderer config")
	}
	if scene.Surface == nil || scene.Lights == nil || scene.Camera == nil {
		return nil, errors.New("scene needs a surface, lights and a camera")
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	total := config.Width * config.Height
	r := &Renderer{
		scene:  scene,
		config: config,
		pixels: make([]PixelStats, total),
		logger: logger,
	}
	for start := 0; start < total; start += config.BatchSize {
		end := start + config.BatchSize
		if end > total {
			end = total
		}
		r.batches = append(r.batches, batchTask{index: len(r.batches), start: start, end: end})
	}
	return r, nil
}

// RenderPass traces one sample per pixel. Workers each own their scratch
// buffers and traversal Profile, and flush the Profile when they finish.
// A cancelled context stops handing out batches; the pass is then partial,
// it is not counted in Passes, and an error is returned.
func (r *Renderer) RenderPass(ctx context.Context) (PassStats, error) {
	begin := time.Now()
	pass := r.pass + 1
	before := r.totals.Snapshot()

	tasks := make(chan batchTask)
	results := make([]BatchStats, len(r.batches))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(tasks)
		for _, task := range r.batches {
			if err := gctx.Err(); err != nil {
				return err
			}
			task.seed = r.config.Seed + int64(pass)*int64(len(r.batches)) + int64(task.index)
			select {
			case tasks <- task:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	workers := r.config.numWorkers()
	if workers > len(r.batches) {
		workers = len(r.batches)
	}
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			bt := newBatchTracer(r.scene, r.config.Width, r.config.Height, r.config.BatchSize)
			defer r.totals.Flush(&bt.profile)
			for task := range tasks {
				sampler := core.NewRandomSampler(rand.New(rand.NewSource(task.seed)))
				// Batches cover disjoint pixels and result slots
				results[task.index] = bt.trace(task.start, task.end, sampler, r.pixels)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return PassStats{}, errors.Wrapf(err, "pass %d", pass)
	}
	r.pass = pass

	after := r.totals.Snapshot()
	stats := PassStats{
		Pass:    pass,
		Elapsed: time.Since(begin),
		Profile: accel.Profile{
			TraversalTime: after.TraversalTime - before.TraversalTime,
			NodeRayTests:  after.NodeRayTests - before.NodeRayTests,
		},
	}
	stats.summarizeBatches(results)
	stats.MeanEstimate = meanEstimate(r.pixels)

	r.logger.Infow("pass complete",
		"pass", stats.Pass,
		"elapsed", stats.Elapsed,
		"cameraRays", stats.CameraRays,
		"hitRate", stats.HitRate(),
		"shadowRays", stats.ShadowRays,
		"occluded", stats.Occluded,
		"unlit", stats.Unlit,
		"nodeRayTests", stats.Profile.NodeRayTests,
		"batchMeanMs", stats.BatchMeanMs,
		"batchP95Ms", stats.BatchP95Ms)
	return stats, nil
}

// Passes returns the number of completed passes
func (r *Renderer) Passes() int {
	return r.pass
}

// Pixel returns the accumulated statistics of pixel (x, y). Batches finished
// before a pass was cancelled stay accumulated, so after a cancelled pass
// SampleCount may exceed Passes for some pixels.
func (r *Renderer) Pixel(x, y int) PixelStats {
	return r.pixels[y*r.config.Width+x]
}

// Profile returns the traversal counters summed over every pass
func (r *Renderer) Profile() accel.Profile {
	return r.totals.Snapshot()
}

// ProfileFlushes returns how many worker Profiles have been flushed
func (r *Renderer) ProfileFlushes() int64 {
	return r.totals.Flushes()
}
