package scenario

import (
	"fmt"
	"io"
	"runtime"

	"github.com/corey/svdprobe/internal/domain/runner"
	"github.com/corey/svdprobe/internal/ports"
)

// Sequence owns the floating-point environment for the duration of a run.
// It snapshots the environment, applies each regime strictly before its pair,
// and restores the snapshot on every exit path.
type Sequence struct {
	Env     ports.FloatEnv
	Driver  *Driver
	Regimes []Regime // subset to run, nil means all
	Log     io.Writer
}

// Report is the outcome of a full sequence.
type Report struct {
	Config   ports.Config
	Pairs    []Pair // one per regime in run order, skipped ones included
	Mask     Mask
	Hard     bool
	Warnings []string // environment settings that could not be applied
	Initial  ports.FloatEnvState
	Final    ports.FloatEnvState
}

// Code is the process exit code: the failure mask, plus HardFailureBit when a
// sub-scenario aborted.
func (r *Report) Code() int {
	code := int(r.Mask)
	if r.Hard {
		code |= HardFailureBit
	}
	return code
}

// Traces flattens the report for the ledger, in mask bit order.
func (r *Report) Traces() []ports.ScenarioTrace {
	var out []ports.ScenarioTrace
	for _, p := range r.Pairs {
		if p.Skipped {
			for _, prec := range []ports.Precision{ports.Float32, ports.Float64} {
				out = append(out, ports.ScenarioTrace{Precision: prec, Regime: p.Regime.String(), Verdict: "skipped", Skipped: true})
			}
			continue
		}
		for _, res := range []*runner.Result{p.F32, p.F64} {
			out = append(out, ports.ScenarioTrace{
				Precision: res.Precision,
				Regime:    p.Regime.String(),
				Verdict:   res.Verdict.String(),
				Attempts:  res.Attempts,
				Status:    res.Status,
				Reason:    res.Reason(),
			})
		}
	}
	return out
}

// Run executes every selected regime in the fixed order. It always completes
// all of them, whatever the individual outcomes. The returned error is
// non-nil only for an invalid cfg, in which case nothing ran.
func (s *Sequence) Run(cfg ports.Config) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := s.Log
	if log == nil {
		log = io.Discard
	}
	selected := make(map[Regime]bool)
	for _, r := range s.Regimes {
		selected[r] = true
	}

	// The control registers are per thread: keep every pair on this one.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	rep := &Report{Config: cfg, Initial: s.Env.State()}
	defer func() {
		if err := s.Env.Restore(rep.Initial); err != nil {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("restore: %v", err))
		}
		rep.Final = s.Env.State()
	}()

	for _, r := range Regimes {
		if len(selected) > 0 && !selected[r] {
			rep.Pairs = append(rep.Pairs, Pair{Regime: r, Skipped: true})
			continue
		}

		fmt.Fprintf(log, "\n=== Running probes with %s\n", r.Describe())
		if err := r.Apply(s.Env); err != nil {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("%s: %v", r, err))
			fmt.Fprintf(log, "warning: %v\n", err)
		}
		fmt.Fprintf(log, "Floating-point environment: %s\n", s.Env.State())

		p := s.Driver.Run(cfg, r)
		f32, f64 := p.Failed()
		if f32 {
			rep.Mask = rep.Mask.Set(ports.Float32, r)
		}
		if f64 {
			rep.Mask = rep.Mask.Set(ports.Float64, r)
		}
		rep.Hard = rep.Hard || p.Hard()
		rep.Pairs = append(rep.Pairs, p)
	}
	return rep, nil
}
