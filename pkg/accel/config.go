// Package accel contains the ray acceleration structures (binary and 4-wide
// BVHs) and the light selection structures (LightTree, LightArray) used at
// render time.
package accel

import (
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// SplitMethod chooses how ObjectSplitter divides a set of objects
type SplitMethod int

const (
	// SplitSAH bins object centroids and minimizes the surface area heuristic
	SplitSAH SplitMethod = iota
	// SplitMiddle splits at the spatial middle of the longest centroid axis
	SplitMiddle
	// SplitMedian splits at the median centroid on the longest centroid axis
	SplitMedian
)

func (m SplitMethod) String() string {
	switch m {
	case SplitSAH:
		return "sah"
	case SplitMiddle:
		return "middle"
	case SplitMedian:
		return "median"
	default:
		return "unknown"
	}
}

// ParseSplitMethod parses the String form of a SplitMethod
func ParseSplitMethod(s string) (SplitMethod, error) {
	switch strings.ToLower(s) {
	case "sah":
		return SplitSAH, nil
	case "middle":
		return SplitMiddle, nil
	case "median":
		return SplitMedian, nil
	}
	return 0, errors.Errorf("unknown split method %q", s)
}

// BuildConfig controls how BVHs and light accelerators are constructed
type BuildConfig struct {
	LeafThreshold       int                // Max objects per BVH leaf
	SplitMethod         SplitMethod        // Object split heuristic
	ParallelThreshold   int                // Sub-ranges at least this large build their halves concurrently; 0 disables
	LightArrayThreshold int                // Light sets smaller than this use a LightArray
	Logger              *zap.SugaredLogger // Build summaries at debug level; nil discards
}

// DefaultBuildConfig returns the settings used when none are supplied
func DefaultBuildConfig() BuildConfig {
	return BuildConfig{
		LeafThreshold:       4,
		SplitMethod:         SplitSAH,
		ParallelThreshold:   4096,
		LightArrayThreshold: 8,
	}
}

// Validate reports every invalid field
func (c BuildConfig) Validate() error {
	var err error
	if c.LeafThreshold < 1 {
		err = multierr.Append(err, errors.Errorf("leaf threshold must be at least 1, got %d", c.LeafThreshold))
	}
	if c.SplitMethod < SplitSAH || c.SplitMethod > SplitMedian {
		err = multierr.Append(err, errors.Errorf("unknown split method %d", int(c.SplitMethod)))
	}
	if c.ParallelThreshold < 0 {
		err = multierr.Append(err, errors.Errorf("parallel threshold must not be negative, got %d", c.ParallelThreshold))
	}
	if c.LightArrayThreshold < 0 {
		err = multierr.Append(err, errors.Errorf("light array threshold must not be negative, got %d", c.LightArrayThreshold))
	}
	return err
}

func (c BuildConfig) logger() *zap.SugaredLogger {
	if c.Logger == nil {
		return zap.NewNop().Sugar()
	}
	return c.Logger
}

// mustValidate panics on an invalid config; a bad config is a caller bug.
func (c BuildConfig) mustValidate(what string) {
	if err := c.Validate(); err != nil {
		panic(errors.Wrapf(err, "invalid %s build config", what))
	}
}

// DebugChecks enables range assertions on derived values during selection
// and traversal. Off by default; tests turn it on.
var DebugChecks = false

func debugAssert(cond bool, format string, args ...interface{}) {
	if DebugChecks && !cond {
		panic(errors.Errorf(format, args...))
	}
}
