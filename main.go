// Package main is accelbench: it generates a random scene, builds its
// acceleration structures, and times direct-lighting passes through them.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/df07/go-raytracer-accel/pkg/accel"
	"github.com/df07/go-raytracer-accel/pkg/renderer"
)

const (
	flagDebug               = "debug"
	flagWidth               = "width"
	flagHeight              = "height"
	flagPasses              = "passes"
	flagWorkers             = "workers"
	flagBatchSize           = "batch-size"
	flagBVH4                = "bvh4"
	flagSeed                = "seed"
	flagLeafThreshold       = "leaf-threshold"
	flagSplit               = "split"
	flagParallelThreshold   = "parallel-threshold"
	flagLightArrayThreshold = "light-array-threshold"
	flagBoxes               = "boxes"
	flagSpheres             = "spheres"
	flagLights              = "lights"
	flagMotion              = "motion"
	flagExtent              = "extent"
	flagPLY                 = "ply"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	build := accel.DefaultBuildConfig()
	render := renderer.DefaultConfig()

	return &cli.App{
		Name:  "accelbench",
		Usage: "build BVHs and light trees over a random scene and time direct-lighting passes through them",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: flagDebug, Aliases: []string{"vvv"}, Usage: "enable debug logging"},
			&cli.IntFlag{Name: flagWidth, Value: render.Width, Usage: "image width in pixels"},
			&cli.IntFlag{Name: flagHeight, Value: render.Height, Usage: "image height in pixels"},
			&cli.IntFlag{Name: flagPasses, Value: 4, Usage: "number of one-sample-per-pixel passes"},
			&cli.IntFlag{Name: flagWorkers, Value: render.Workers, Usage: "parallel workers, 0 for one per CPU"},
			&cli.IntFlag{Name: flagBatchSize, Value: render.BatchSize, Usage: "pixels traced together as one ray batch"},
			&cli.BoolFlag{Name: flagBVH4, Usage: "traverse 4-wide BVHs"},
			&cli.Int64Flag{Name: flagSeed, Value: render.Seed, Usage: "random seed for the scene and the passes"},
			&cli.IntFlag{Name: flagLeafThreshold, Value: build.LeafThreshold, Usage: "max objects per BVH leaf"},
			&cli.StringFlag{Name: flagSplit, Value: build.SplitMethod.String(), Usage: "split method: sah, middle or median"},
			&cli.IntFlag{Name: flagParallelThreshold, Value: build.ParallelThreshold, Usage: "build halves of ranges this large concurrently, 0 to disable"},
			&cli.IntFlag{Name: flagLightArrayThreshold, Value: build.LightArrayThreshold, Usage: "use a flat light array below this many lights"},
			&cli.IntFlag{Name: flagBoxes, Value: 200, Usage: "number of random boxes"},
			&cli.IntFlag{Name: flagSpheres, Value: 100, Usage: "number of random spheres"},
			&cli.IntFlag{Name: flagLights, Value: 64, Usage: "number of random lights"},
			&cli.BoolFlag{Name: flagMotion, Usage: "give objects and lights motion blur"},
			&cli.Float64Flag{Name: flagExtent, Value: 10, Usage: "half-width of the area objects are scattered over"},
			&cli.StringFlag{Name: flagPLY, Usage: "add the mesh in PLY `FILE` to the scene"},
		},
		Action: runBench,
	}
}

// newLogger builds the console logger the command reports through
func newLogger(debug bool) (*zap.SugaredLogger, error) {
	level := zap.InfoLevel
	if debug {
		level = zap.DebugLevel
	}
	logger, err := zap.Config{
		Level:    zap.NewAtomicLevelAt(level),
		Encoding: "console",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			FunctionKey:    zapcore.OmitKey,
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalColorLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		DisableStacktrace: true,
		OutputPaths:       []string{"stdout"},
		ErrorOutputPaths:  []string{"stderr"},
	}.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar().Named("accelbench"), nil
}

// configsFromFlags maps the command line onto the build and renderer configs
func configsFromFlags(c *cli.Context, logger *zap.SugaredLogger) (accel.BuildConfig, renderer.Config, error) {
	split, err := accel.ParseSplitMethod(c.String(flagSplit))
	if err != nil {
		return accel.BuildConfig{}, renderer.Config{}, err
	}

	build := accel.BuildConfig{
		LeafThreshold:       c.Int(flagLeafThreshold),
		SplitMethod:         split,
		ParallelThreshold:   c.Int(flagParallelThreshold),
		LightArrayThreshold: c.Int(flagLightArrayThreshold),
		Logger:              logger.Named("build"),
	}
	if err := build.Validate(); err != nil {
		return accel.BuildConfig{}, renderer.Config{}, errors.Wrap(err, "invalid build flags")
	}

	render := renderer.Config{
		Width:     c.Int(flagWidth),
		Height:    c.Int(flagHeight),
		Workers:   c.Int(flagWorkers),
		BatchSize: c.Int(flagBatchSize),
		UseBVH4:   c.Bool(flagBVH4),
		Seed:      c.Int64(flagSeed),
	}
	if err := render.Validate(); err != nil {
		return accel.BuildConfig{}, renderer.Config{}, errors.Wrap(err, "invalid render flags")
	}
	return build, render, nil
}

func runBench(c *cli.Context) error {
	logger, err := newLogger(c.Bool(flagDebug))
	if err != nil {
		return errors.Wrap(err, "creating logger")
	}
	defer func() {
		//nolint:errcheck
		logger.Sync()
	}()
	return bench(c, logger)
}

// bench runs the benchmark with the given logger
func bench(c *cli.Context, logger *zap.SugaredLogger) error {
	build, render, err := configsFromFlags(c, logger)
	if err != nil {
		return err
	}
	passes := c.Int(flagPasses)
	if passes < 1 {
		return errors.Errorf("passes must be at least 1, got %d", passes)
	}

	start := time.Now()
	scene, summary, err := buildScene(sceneOptions{
		Boxes:   c.Int(flagBoxes),
		Spheres: c.Int(flagSpheres),
		Lights:  c.Int(flagLights),
		Motion:  c.Bool(flagMotion),
		Extent:  c.Float64(flagExtent),
		PLYPath: c.String(flagPLY),
		Seed:    render.Seed,
		UseBVH4: render.UseBVH4,
		Build:   build,
	}, float64(render.Width)/float64(render.Height))
	if err != nil {
		return errors.Wrap(err, "building scene")
	}
	logger.Infow("scene built",
		"surfaces", summary.Surfaces,
		"triangles", summary.Triangles,
		"lights", summary.Lights,
		"lightEnergy", scene.Lights.ApproximateEnergy(),
		"topLevelNodes", summary.TopLevel.Nodes,
		"topLevelDepth", summary.TopLevel.MaxDepth,
		"split", build.SplitMethod,
		"bvh4", render.UseBVH4,
		"duration", time.Since(start))

	r, err := renderer.New(scene, render, logger.Named("render"))
	if err != nil {
		return err
	}

	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}
	var total time.Duration
	var last renderer.PassStats
	for i := 0; i < passes; i++ {
		if last, err = r.RenderPass(ctx); err != nil {
			return err
		}
		total += last.Elapsed
	}

	profile := r.Profile()
	logger.Infow("benchmark complete",
		"passes", r.Passes(),
		"renderTime", total,
		"traversalTime", profile.TraversalTime,
		"nodeRayTests", profile.NodeRayTests,
		"meanEstimate", last.MeanEstimate)
	return nil
}
