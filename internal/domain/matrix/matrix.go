// Package matrix holds the column-major buffers a single probe attempt owns:
// the input matrix (which the decomposition may overwrite) and the singular
// value buffer with its trailing scratch half.
package matrix

import (
	"errors"
	"fmt"

	"github.com/corey/svdprobe/internal/domain/rng"
	"github.com/corey/svdprobe/internal/domain/validate"
	"github.com/corey/svdprobe/internal/ports"
)

// ErrDegenerateInput means the generator produced a NaN, infinite or
// subnormal element. That is a defect of the RNG or the configuration, not a
// property under test, so it is never retried.
var ErrDegenerateInput = errors.New("degenerate generated input")

// DegenerateInputError locates the first offending element.
type DegenerateInputError struct {
	Index int
	Value float64
	Class validate.Class
}

func (e *DegenerateInputError) Error() string {
	return fmt.Sprintf("generated element %d is %s (%g): %v", e.Index, e.Class, e.Value, ErrDegenerateInput)
}

func (e *DegenerateInputError) Unwrap() error { return ErrDegenerateInput }

// Dense is a rows x cols matrix stored column-major: element (i, j) lives at
// Data[i+j*Rows].
type Dense[T ports.Real] struct {
	Rows, Cols int
	Data       []T
}

// New allocates a zeroed rows x cols matrix.
func New[T ports.Real](rows, cols int) (*Dense[T], error) {
	cfg := ports.Config{Rows: rows, Cols: cols, Retries: 1, OverflowThreshold: 1, Sampler: ports.SamplerNormal}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Dense[T]{Rows: rows, Cols: cols, Data: make([]T, rows*cols)}, nil
}

// At returns element (i, j).
func (m *Dense[T]) At(i, j int) T {
	return m.Data[i+j*m.Rows]
}

// LD returns the leading dimension of the column-major layout.
func (m *Dense[T]) LD() int {
	return m.Rows
}

// Fill overwrites every element with a fresh draw from s, in storage order,
// then rejects degenerate draws.
func (m *Dense[T]) Fill(s rng.Sampler[T]) error {
	for i := range m.Data {
		m.Data[i] = s.Next()
	}
	return CheckGenerated(m.Data)
}

// CheckGenerated fails with a *DegenerateInputError on the first NaN,
// infinite or subnormal element. The scan is strict: it always reports.
func CheckGenerated[T ports.Real](buf []T) error {
	for i, x := range buf {
		if c := validate.Classify(x); c.Degenerate() {
			return &DegenerateInputError{Index: i, Value: float64(x), Class: c}
		}
	}
	return nil
}

// SingularValues is the 2*min(rows, cols) buffer handed to gesvd. The first
// half receives the singular values, the second half is the superb scratch.
type SingularValues[T ports.Real] struct {
	Data []T
	k    int
}

// NewSingularValues allocates the buffer for k = min(rows, cols).
func NewSingularValues[T ports.Real](k int) *SingularValues[T] {
	return &SingularValues[T]{Data: make([]T, 2*k), k: k}
}

// Values returns the singular value half.
func (s *SingularValues[T]) Values() []T { return s.Data[:s.k] }

// Scratch returns the superb half.
func (s *SingularValues[T]) Scratch() []T { return s.Data[s.k:] }

// Reset zeroes the whole buffer before an attempt.
func (s *SingularValues[T]) Reset() {
	clear(s.Data)
}
