package ports

import (
	"errors"
	"fmt"
	"math"
)

// Defaults reproduce the original failing case.
const (
	DefaultSeed              = 1490700921
	DefaultRows              = 64
	DefaultCols              = 785
	DefaultRetries           = 3
	DefaultOverflowThreshold = 1e20
)

// ErrInvalidConfig is wrapped by every Config.Validate failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// SamplerKind selects the distribution the matrix is drawn from.
type SamplerKind string

const (
	SamplerNormal  SamplerKind = "normal"
	SamplerUniform SamplerKind = "uniform"
)

// Config is the immutable TestConfiguration for one scenario. It is built once
// and passed by value; nothing in the probe mutates it.
type Config struct {
	Seed              int64       `json:"seed"`
	Rows              int         `json:"rows"`
	Cols              int         `json:"cols"`
	Retries           int         `json:"retries"` // maximum generation attempts before giving up
	OverflowThreshold float64     `json:"overflow_threshold"`
	Sampler           SamplerKind `json:"sampler"`
}

// DefaultConfig returns the configuration of the reference reproduction case.
func DefaultConfig() Config {
	return Config{
		Seed:              DefaultSeed,
		Rows:              DefaultRows,
		Cols:              DefaultCols,
		Retries:           DefaultRetries,
		OverflowThreshold: DefaultOverflowThreshold,
		Sampler:           SamplerNormal,
	}
}

// Validate checks the shape and budget invariants. LAPACK takes 32-bit
// integers for dimensions and for its own index arithmetic, so rows, cols
// and rows*cols must all fit an int32.
func (c Config) Validate() error {
	switch {
	case c.Rows <= 0 || c.Cols <= 0:
		return fmt.Errorf("%w: shape [%d x %d] must be positive", ErrInvalidConfig, c.Rows, c.Cols)
	case c.Rows > math.MaxInt32 || c.Cols > math.MaxInt32:
		return fmt.Errorf("%w: shape [%d x %d] exceeds 32-bit LAPACK dimensions", ErrInvalidConfig, c.Rows, c.Cols)
	case int64(c.Rows)*int64(c.Cols) > math.MaxInt32:
		return fmt.Errorf("%w: element count of [%d x %d] exceeds 32-bit LAPACK indexing", ErrInvalidConfig, c.Rows, c.Cols)
	case c.Retries < 1:
		return fmt.Errorf("%w: retries must be at least 1, got %d", ErrInvalidConfig, c.Retries)
	case math.IsNaN(c.OverflowThreshold) || math.IsInf(c.OverflowThreshold, 0) || c.OverflowThreshold <= 0:
		return fmt.Errorf("%w: overflow threshold must be positive and finite, got %g", ErrInvalidConfig, c.OverflowThreshold)
	}
	switch c.Sampler {
	case SamplerNormal, SamplerUniform:
	default:
		return fmt.Errorf("%w: unknown sampler %q", ErrInvalidConfig, c.Sampler)
	}
	return nil
}

// Numel returns rows*cols. Only meaningful after Validate succeeded.
func (c Config) Numel() int {
	return c.Rows * c.Cols
}

// MinDim returns min(rows, cols), the number of singular values.
func (c Config) MinDim() int {
	return min(c.Rows, c.Cols)
}

// Key identifies the reproducibility class of a configuration: two runs with
// the same key draw the same matrices. Used as the ledger namespace.
func (c Config) Key() string {
	return fmt.Sprintf("seed=%d/%dx%d/%s/r%d/t%g", c.Seed, c.Rows, c.Cols, c.Sampler, c.Retries, c.OverflowThreshold)
}
