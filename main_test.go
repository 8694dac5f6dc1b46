package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"go.viam.com/test"

	"github.com/df07/go-raytracer-accel/pkg/accel"
)

func TestBuildScene(t *testing.T) {
	for _, motion := range []bool{false, true} {
		scene, summary, err := buildScene(sceneOptions{
			Boxes:   10,
			Spheres: 3,
			Lights:  12,
			Motion:  motion,
			Extent:  5,
			Seed:    1,
			Build:   accel.DefaultBuildConfig(),
		}, 16.0/9)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, summary.Surfaces, test.ShouldEqual, 14)
		test.That(t, summary.Triangles, test.ShouldEqual, 2+10*12+3*2*16*7)
		test.That(t, summary.Lights, test.ShouldEqual, 12)
		test.That(t, summary.TopLevel.Objects, test.ShouldEqual, 14)
		test.That(t, scene.Lights.LightCount(), test.ShouldEqual, 12)
		test.That(t, scene.Lights.ApproximateEnergy(), test.ShouldBeGreaterThan, 0)

		wantSamples := 1
		if motion {
			wantSamples = 2
		}
		test.That(t, scene.Surface.Bounds(), test.ShouldHaveLength, wantSamples)
	}

	_, _, err := buildScene(sceneOptions{Lights: 0, Build: accel.DefaultBuildConfig()}, 1)
	test.That(t, err, test.ShouldNotBeNil)
}

func runWithObserver(t *testing.T, args ...string) (*observer.ObservedLogs, error) {
	t.Helper()
	obsCore, logs := observer.New(zap.DebugLevel)
	app := newApp()
	app.Action = func(c *cli.Context) error {
		return bench(c, zap.New(obsCore).Sugar())
	}
	return logs, app.Run(append([]string{"accelbench"}, args...))
}

func TestBench(t *testing.T) {
	logs, err := runWithObserver(t,
		"--width", "16", "--height", "12", "--passes", "2", "--workers", "2",
		"--boxes", "20", "--spheres", "2", "--lights", "10", "--light-array-threshold", "4",
		"--bvh4", "--motion")
	test.That(t, err, test.ShouldBeNil)

	test.That(t, logs.FilterMessage("scene built").Len(), test.ShouldEqual, 1)
	test.That(t, logs.FilterMessage("pass complete").Len(), test.ShouldEqual, 2)
	test.That(t, logs.FilterMessage("built light tree").Len(), test.ShouldEqual, 1)
	test.That(t, logs.FilterMessage("built BVH").Len(), test.ShouldBeGreaterThan, 0)

	done := logs.FilterMessage("benchmark complete").All()
	test.That(t, done, test.ShouldHaveLength, 1)
	test.That(t, done[0].ContextMap()["passes"], test.ShouldEqual, int64(2))
}

func TestBenchPLY(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tri.ply")
	ply := "ply\nformat ascii 1.0\nelement vertex 3\nproperty float x\nproperty float y\nproperty float z\n" +
		"element face 1\nproperty list uchar int vertex_indices\nend_header\n0 0 0\n1 0 0\n0 1 0\n3 0 1 2\n"
	test.That(t, os.WriteFile(path, []byte(ply), 0o600), test.ShouldBeNil)

	logs, err := runWithObserver(t, "--width", "8", "--height", "8", "--passes", "1",
		"--boxes", "3", "--spheres", "0", "--lights", "2", "--ply", path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, logs.FilterMessage("loaded PLY").Len(), test.ShouldEqual, 1)
	built := logs.FilterMessage("scene built").All()
	test.That(t, built, test.ShouldHaveLength, 1)
	test.That(t, built[0].ContextMap()["triangles"], test.ShouldEqual, int64(2+3*12+1))

	_, err = runWithObserver(t, "--ply", filepath.Join(t.TempDir(), "missing.ply"))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestBenchInvalidFlags(t *testing.T) {
	_, err := runWithObserver(t, "--split", "octree")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "unknown split method")

	_, err = runWithObserver(t, "--leaf-threshold", "0", "--light-array-threshold", "-1")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "invalid build flags")

	_, err = runWithObserver(t, "--width", "0")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "invalid render flags")

	_, err = runWithObserver(t, "--passes", "0")
	test.That(t, err, test.ShouldNotBeNil)
}
