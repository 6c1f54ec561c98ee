package validate

import (
	"errors"
	"fmt"

	"github.com/corey/svdprobe/internal/ports"
)

// Outcome is the tri-state result of validating one buffer.
type Outcome uint8

const (
	Valid Outcome = iota
	InvalidNonFinite
	InvalidOverflow
)

func (o Outcome) String() string {
	switch o {
	case Valid:
		return "valid"
	case InvalidNonFinite:
		return "invalid: non-finite or subnormal"
	case InvalidOverflow:
		return "invalid: overflow"
	default:
		return fmt.Sprintf("Outcome(%d)", uint8(o))
	}
}

var (
	// ErrUnexpectedNonFinite marks a NaN, infinite or subnormal element in
	// the output of a decomposition that reported success.
	ErrUnexpectedNonFinite = errors.New("unexpected non-finite or subnormal value")
	// ErrUnexpectedOverflow marks an element whose magnitude exceeds the
	// overflow threshold in the output of a decomposition that reported success.
	ErrUnexpectedOverflow = errors.New("unexpected overflow")
)

// Violation is the first offending element found by Check.
type Violation struct {
	Buffer    string
	Index     int
	Value     float64
	Class     Class
	Threshold float64
	Outcome   Outcome
}

func (v *Violation) Error() string {
	if v.Outcome == InvalidOverflow {
		return fmt.Sprintf("%s[%d] = %g exceeds %g: %v", v.Buffer, v.Index, v.Value, v.Threshold, ErrUnexpectedOverflow)
	}
	return fmt.Sprintf("%s[%d] is %s: %v", v.Buffer, v.Index, v.Class, ErrUnexpectedNonFinite)
}

func (v *Violation) Unwrap() error {
	if v.Outcome == InvalidOverflow {
		return ErrUnexpectedOverflow
	}
	return ErrUnexpectedNonFinite
}

// Check runs the two predicates in order and stops at the first violation:
// first every element must be finite and not subnormal, then every magnitude
// must be at most threshold. It returns nil for a valid buffer and a
// *Violation otherwise.
func Check[T ports.Real](name string, buf []T, threshold float64) error {
	for i, x := range buf {
		if c := Classify(x); c.Degenerate() {
			return &Violation{Buffer: name, Index: i, Value: float64(x), Class: c, Threshold: threshold, Outcome: InvalidNonFinite}
		}
	}
	for i, x := range buf {
		if Abs(x) > threshold {
			return &Violation{Buffer: name, Index: i, Value: float64(x), Class: Classify(x), Threshold: threshold, Outcome: InvalidOverflow}
		}
	}
	return nil
}

// OutcomeOf maps a Check error to its Outcome.
func OutcomeOf(err error) Outcome {
	var v *Violation
	if errors.As(err, &v) {
		return v.Outcome
	}
	return Valid
}

// Report is the non-failing, full-buffer variant of Check.
type Report struct {
	Buffer     string
	Len        int
	NaNs       int
	Infs       int
	Subnormals int
	Overflows  int
	FirstBad   int // index of the first degenerate element, -1 if none
	MaxAbs     float64
	Outcome    Outcome
}

// Probe scans the whole buffer without stopping and counts every category.
// Its Outcome matches what Check would return.
func Probe[T ports.Real](name string, buf []T, threshold float64) Report {
	r := Report{Buffer: name, Len: len(buf), FirstBad: -1}
	for i, x := range buf {
		switch Classify(x) {
		case NaN:
			r.NaNs++
		case Infinite:
			r.Infs++
		case Subnormal:
			r.Subnormals++
		default:
			a := Abs(x)
			if a > threshold {
				r.Overflows++
			}
			if a > r.MaxAbs {
				r.MaxAbs = a
			}
			continue
		}
		if r.FirstBad < 0 {
			r.FirstBad = i
		}
	}
	switch {
	case r.NaNs+r.Infs+r.Subnormals > 0:
		r.Outcome = InvalidNonFinite
	case r.Overflows > 0:
		r.Outcome = InvalidOverflow
	}
	return r
}

func (r Report) String() string {
	return fmt.Sprintf("%s: %s (len=%d nan=%d inf=%d subnormal=%d overflow=%d max|x|=%g)",
		r.Buffer, r.Outcome, r.Len, r.NaNs, r.Infs, r.Subnormals, r.Overflows, r.MaxAbs)
}
