// Package runner drives one probe of the decomposition routine at one
// precision: generate a matrix, decompose it, retry on non-convergence, and
// validate the output once the routine reports success.
//
// State machine:
//
//	Generating -> Decomposing -> Converged    -> Validating -> Passed | Failed
//	                          \-> NotConverged -> Generating (retries left)
//	                                           \-> GaveUp    (budget spent)
//	Generating | Decomposing -> Aborted (degenerate input, invalid argument)
//
// Every retry regenerates the whole matrix from the same random stream; the
// stream is never re-seeded, so the k-th attempt always sees the k-th matrix
// drawn from the configured seed.
package runner

import (
	"fmt"
	"io"

	"github.com/corey/svdprobe/internal/domain/matrix"
	"github.com/corey/svdprobe/internal/domain/rng"
	"github.com/corey/svdprobe/internal/domain/validate"
	"github.com/corey/svdprobe/internal/ports"
)

// State is a node of the probe state machine.
type State uint8

const (
	Generating State = iota
	Decomposing
	Converged
	NotConverged
	Validating
	Passed
	Failed
	GaveUp
	Aborted
)

var stateNames = [...]string{
	Generating:   "generating",
	Decomposing:  "decomposing",
	Converged:    "converged",
	NotConverged: "not-converged",
	Validating:   "validating",
	Passed:       "passed",
	Failed:       "failed",
	GaveUp:       "gave-up",
	Aborted:      "aborted",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// Result is the outcome of one Run.
type Result struct {
	Precision ports.Precision
	Verdict   State // Passed, Failed, GaveUp or Aborted
	Attempts  int
	Status    int // last gesvd status
	Trace     []State

	// Matrix and Values are full-buffer reports, set once the routine converged.
	Matrix validate.Report
	Values validate.Report

	// Err explains every verdict but Passed: a *validate.Violation for Failed,
	// the last *ConvergenceFailure for GaveUp, the fatal error for Aborted.
	Err error
}

// Failed reports whether the probe did not pass, for whatever reason.
func (r *Result) Failed() bool {
	return r.Verdict != Passed
}

// Reason is a one-line description of why the probe did not pass.
func (r *Result) Reason() string {
	switch r.Verdict {
	case Passed:
		return ""
	case GaveUp:
		return fmt.Sprintf("did not converge after %d attempts (last status %d)", r.Attempts, r.Status)
	default:
		if r.Err != nil {
			return r.Err.Error()
		}
		return r.Verdict.String()
	}
}

func (r *Result) enter(s State) {
	r.Trace = append(r.Trace, s)
}

func (r *Result) finish(s State, err error) {
	r.enter(s)
	r.Verdict = s
	r.Err = err
}

// Run probes d at precision T under cfg. Diagnostics go to log (nil discards).
//
// A non-nil error is returned only for fatal conditions: an invalid cfg, a
// degenerate generated matrix or a negative gesvd status. Non-convergence and
// validation failures are outcomes, reported through the Result.
func Run[T ports.Real](cfg ports.Config, d ports.Decomposer[T], log io.Writer) (*Result, error) {
	if log == nil {
		log = io.Discard
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	res := &Result{Precision: ports.PrecisionOf[T]()}
	fmt.Fprintf(log, "Probing gesvd<%s> with seed=%d over random [%d x %d] %s matrix\n",
		res.Precision.Short(), cfg.Seed, cfg.Rows, cfg.Cols, cfg.Sampler)

	a, err := matrix.New[T](cfg.Rows, cfg.Cols)
	if err != nil {
		return nil, err
	}
	s := matrix.NewSingularValues[T](cfg.MinDim())
	sampler := rng.New[T](cfg.Sampler, rng.NewSource(cfg.Seed))

	converged := false
	for !converged && res.Attempts < cfg.Retries {
		res.Attempts++

		res.enter(Generating)
		if err := a.Fill(sampler); err != nil {
			res.finish(Aborted, err)
			fmt.Fprintf(log, "  attempt %d: %v\n", res.Attempts, err)
			return res, err
		}
		s.Reset()

		res.enter(Decomposing)
		res.Status = Invoke(d, a, s)
		switch err := classify(res.Status, res.Attempts); {
		case err == nil:
			res.enter(Converged)
			converged = true
			fmt.Fprintf(log, "  attempt %d: gesvd returned success, examining the results\n", res.Attempts)
		case Recoverable(err):
			res.enter(NotConverged)
			res.Err = err
			fmt.Fprintf(log, "  attempt %d: gesvd returned %d, probably ill-conditioned data, regenerating (%d/%d)\n",
				res.Attempts, res.Status, res.Attempts, cfg.Retries)
		default:
			res.finish(Aborted, err)
			fmt.Fprintf(log, "  attempt %d: %v\n", res.Attempts, err)
			return res, err
		}
	}

	if !converged {
		res.finish(GaveUp, res.Err)
		fmt.Fprintf(log, "  failed to converge after %d attempts\n", res.Attempts)
		return res, nil
	}

	res.enter(Validating)
	res.Matrix = validate.Probe("A", a.Data, cfg.OverflowThreshold)
	res.Values = validate.Probe("S", s.Data, cfg.OverflowThreshold)
	if err := validateOutput(a.Data, s.Data, cfg.OverflowThreshold); err != nil {
		res.finish(Failed, err)
		fmt.Fprintf(log, "  returned buffers are invalid: %v\n", err)
		fmt.Fprintf(log, "    %s\n    %s\n", res.Matrix, res.Values)
		return res, nil
	}
	res.finish(Passed, nil)
	return res, nil
}

// validateOutput checks the overwritten matrix first, then the singular
// value buffer, stopping at the first violation.
func validateOutput[T ports.Real](a, s []T, threshold float64) error {
	if err := validate.Check("A", a, threshold); err != nil {
		return err
	}
	return validate.Check("S", s, threshold)
}
