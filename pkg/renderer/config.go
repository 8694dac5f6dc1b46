package renderer

import (
	"runtime"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Config controls the direct-lighting tracer
type Config struct {
	Width     int   // Image width in pixels
	Height    int   // Image height in pixels
	Workers   int   // Parallel workers; 0 uses the CPU count
	BatchSize int   // Pixels traced together as one ray batch
	UseBVH4   bool  // Traverse 4-wide BVHs
	Seed      int64 // Base seed; every batch of every pass derives its own
}

// DefaultConfig returns sensible default values
func DefaultConfig() Config {
	return Config{
		Width:     320,
		Height:    180,
		Workers:   0,
		BatchSize: 256,
		Seed:      42,
	}
}

// Validate reports every invalid field
func (c Config) Validate() error {
	var err error
	if c.Width < 1 || c.Height < 1 {
		err = multierr.Append(err, errors.Errorf("image size must be positive, got %dx%d", c.Width, c.Height))
	}
	if c.Workers < 0 {
		err = multierr.Append(err, errors.Errorf("workers must not be negative, got %d", c.Workers))
	}
	if c.BatchSize < 1 {
		err = multierr.Append(err, errors.Errorf("batch size must be at least 1, got %d", c.BatchSize))
	}
	return err
}

func (c Config) numWorkers() int {
	if c.Workers <= 0 {
		return runtime.NumCPU()
	}
	return c.Workers
}
