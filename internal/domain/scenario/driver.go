// Package scenario runs the float32/float64 probe pair under each
// floating-point regime and folds the six outcomes into a Mask.
package scenario

import (
	"errors"
	"fmt"
	"io"

	"github.com/corey/svdprobe/internal/domain/runner"
	"github.com/corey/svdprobe/internal/ports"
)

// ErrBackendPanic marks a probe aborted because the backend panicked.
var ErrBackendPanic = errors.New("backend panicked")

// Driver runs one probe pair under whatever floating-point environment is
// active when Run is called. It never touches the environment itself.
type Driver struct {
	Backend ports.Backend
	Log     io.Writer
}

// Pair holds the two results of one regime.
type Pair struct {
	Regime  Regime
	F32     *runner.Result
	F64     *runner.Result
	Skipped bool
}

// Failed returns (failed32, failed64). A skipped pair reports no failures.
func (p Pair) Failed() (bool, bool) {
	if p.Skipped {
		return false, false
	}
	return p.F32.Failed(), p.F64.Failed()
}

// Hard reports whether either probe aborted on a fatal error.
func (p Pair) Hard() bool {
	if p.Skipped {
		return false
	}
	return p.F32.Verdict == runner.Aborted || p.F64.Verdict == runner.Aborted
}

// Run probes the float32 entry point, then the float64 one, with the same cfg.
// Fatal errors are captured in the results; Run always returns both.
func (d *Driver) Run(cfg ports.Config, r Regime) Pair {
	log := d.Log
	if log == nil {
		log = io.Discard
	}
	p := Pair{Regime: r}
	p.F32 = probe(cfg, d.Backend.Float32(), log)
	fmt.Fprintln(log)
	p.F64 = probe(cfg, d.Backend.Float64(), log)
	return p
}

func probe[T ports.Real](cfg ports.Config, dec ports.Decomposer[T], log io.Writer) *runner.Result {
	res, err := runGuarded(cfg, dec, log)
	if res == nil {
		res = &runner.Result{Precision: ports.PrecisionOf[T](), Verdict: runner.Aborted, Err: err}
	}
	if res.Failed() {
		fmt.Fprintf(log, "gesvd<%s>: ### FAILED ### %s: %s\n", res.Precision.Short(), res.Verdict, res.Reason())
	} else {
		fmt.Fprintf(log, "gesvd<%s>: passed\n", res.Precision.Short())
	}
	return res
}

// runGuarded turns a panic inside the backend into an aborted probe, so the
// sequence still reaches every regime.
func runGuarded[T ports.Real](cfg ports.Config, dec ports.Decomposer[T], log io.Writer) (res *runner.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("%w: %v", ErrBackendPanic, r)
		}
	}()
	return runner.Run[T](cfg, dec, log)
}
