// Package app wires together all adapters and domain logic.
// It provides lifecycle management for one svdprobe invocation: open the
// backend, the floating-point controller and the ledger, run the regime
// sequence, record the outcome, close everything.
package app

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/corey/svdprobe/internal/adapters/bbolt"
	"github.com/corey/svdprobe/internal/adapters/fpenv"
	"github.com/corey/svdprobe/internal/domain/scenario"
	"github.com/corey/svdprobe/internal/ports"
)

// Options holds initialization parameters for the App.
type Options struct {
	Config      ports.Config
	Backend     string            // BackendLAPACKE (default) or BackendGonum
	Library     string            // explicit LAPACKE path (default: $SVDPROBE_LIBRARY, then search)
	ProjectRoot string            // base for .svdprobe/ and lib/ (default: cwd)
	LedgerPath  string            // bbolt file (default: .svdprobe/ledger.db)
	NoLedger    bool              // skip recording and regression diffing
	Regimes     []scenario.Regime // subset to run (default: all)
	Log         io.Writer         // diagnostics (default: discard)

	// Env replaces the hardware controller; tests inject a fake.
	Env ports.FloatEnv
	// OpenBackend replaces backend resolution; tests inject a fake.
	OpenBackend func(Options) (ports.Backend, string, error)
}

// App is the top-level container wiring all components together.
type App struct {
	Paths   *Paths
	Backend ports.Backend
	Env     ports.FloatEnv
	Ledger  ports.Ledger // nil when disabled

	store   *bbolt.Store
	library string // resolved library path, "" for pure-Go backends
	opts    Options
	now     func() time.Time
}

// Outcome is the result of one Run: the sequence report, the ledger record
// and its comparison with the previous run of the same configuration.
type Outcome struct {
	Report   *scenario.Report
	Record   *ports.RunRecord
	Previous *ports.RunRecord // nil on the first run or without a ledger
	Diff     Diff
	// LedgerErr is set when the run could not be recorded. The run itself
	// still counts.
	LedgerErr error
}

// Code is the process exit code of the run.
func (o *Outcome) Code() int {
	return o.Report.Code()
}

// New creates an App with all dependencies wired. Options are validated
// before anything is opened.
func New(opts Options) (*App, error) {
	if err := opts.Config.Validate(); err != nil {
		return nil, err
	}
	if opts.Backend == "" {
		opts.Backend = BackendLAPACKE
	}
	if opts.ProjectRoot == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("project root: %w", err)
		}
		opts.ProjectRoot = wd
	}
	if opts.Log == nil {
		opts.Log = io.Discard
	}
	open := opts.OpenBackend
	if open == nil {
		open = OpenBackend
	}

	a := &App{Paths: NewPaths(opts.ProjectRoot), opts: opts, now: time.Now}

	backend, library, err := open(opts)
	if err != nil {
		return nil, fmt.Errorf("open backend: %w", err)
	}
	a.Backend, a.library = backend, library

	a.Env = opts.Env
	if a.Env == nil {
		ctl := fpenv.New()
		if !ctl.Supported() {
			fmt.Fprintf(opts.Log, "warning: no floating-point control on %s, regimes run in the default environment\n", ctl.Platform())
		}
		a.Env = ctl
	}

	if !opts.NoLedger {
		path := opts.LedgerPath
		if path == "" {
			if err := a.Paths.EnsureDirs(); err != nil {
				a.Backend.Close()
				return nil, fmt.Errorf("create %s: %w", a.Paths.Root, err)
			}
			path = a.Paths.Ledger
		}
		store, err := bbolt.NewStore(path)
		if err != nil {
			a.Backend.Close()
			return nil, fmt.Errorf("open ledger: %w", err)
		}
		a.store, a.Ledger = store, store
	}
	return a, nil
}

// Library returns the path of the loaded native library, "" for gonum.
func (a *App) Library() string {
	return a.library
}

// LedgerKey is the ledger namespace of this App's runs.
func (a *App) LedgerKey() string {
	return KeyFor(a.Backend.Name(), a.opts.Config)
}

// KeyFor namespaces ledger records by backend and configuration.
func KeyFor(backend string, cfg ports.Config) string {
	return backend + "/" + cfg.Key()
}

// Run executes the regime sequence, records it and diffs it against the
// previous run. The error is non-nil only if the sequence could not start.
func (a *App) Run() (*Outcome, error) {
	seq := &scenario.Sequence{
		Env:     a.Env,
		Driver:  &scenario.Driver{Backend: a.Backend, Log: a.opts.Log},
		Regimes: a.opts.Regimes,
		Log:     a.opts.Log,
	}
	rep, err := seq.Run(a.opts.Config)
	if err != nil {
		return nil, err
	}

	out := &Outcome{
		Report: rep,
		Record: &ports.RunRecord{
			Timestamp: a.now().Unix(),
			Backend:   a.Backend.Name(),
			Library:   a.library,
			Config:    a.opts.Config,
			Mask:      uint8(rep.Mask),
			Hard:      rep.Hard,
			Results:   rep.Traces(),
		},
	}
	if a.Ledger == nil {
		return out, nil
	}

	key := a.LedgerKey()
	prev, err := a.Ledger.Last(key)
	if err != nil {
		out.LedgerErr = err
		return out, nil
	}
	out.Previous = prev
	if prev != nil {
		out.Diff = Compare(prev, out.Record)
	}
	if _, err := a.Ledger.Append(key, out.Record); err != nil {
		out.LedgerErr = err
	}
	return out, nil
}

// History returns up to limit past runs of the current configuration,
// newest first.
func (a *App) History(limit int) ([]*ports.RunRecord, error) {
	if a.Ledger == nil {
		return nil, nil
	}
	return a.Ledger.History(a.LedgerKey(), limit)
}

// Close releases the backend and the ledger.
func (a *App) Close() error {
	var firstErr error
	if a.store != nil {
		firstErr = a.store.Close()
	}
	if err := a.Backend.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
