package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/corey/svdprobe/internal/adapters/lapacke"
	"github.com/corey/svdprobe/internal/app"
	"github.com/corey/svdprobe/internal/domain/scenario"
	"github.com/corey/svdprobe/internal/ports"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// probeFlags are shared by run, history and watch.
type probeFlags struct {
	seed      int64
	rows      int
	cols      int
	retries   int
	threshold float64
	sampler   string
	backend   string
	library   string
	ledger    string
	noLedger  bool
	regimes   string
	quiet     bool
	color     string
}

// registerConfig adds the flags that select a configuration (and so a ledger key).
func (f *probeFlags) registerConfig(c *cobra.Command) {
	d := ports.DefaultConfig()
	fs := c.Flags()
	fs.Int64Var(&f.seed, "seed", d.Seed, "Random seed")
	fs.IntVar(&f.rows, "rows", d.Rows, "Matrix rows")
	fs.IntVar(&f.cols, "cols", d.Cols, "Matrix columns")
	fs.IntVar(&f.retries, "retries", d.Retries, "Matrix generations allowed per probe when gesvd does not converge")
	fs.Float64Var(&f.threshold, "threshold", d.OverflowThreshold, "Overflow threshold for returned values")
	fs.StringVar(&f.sampler, "sampler", string(d.Sampler), "Element distribution: normal or uniform")
	fs.StringVar(&f.backend, "backend", app.BackendLAPACKE, "SVD backend: "+strings.Join(app.Backends, " or "))
	fs.StringVar(&f.ledger, "ledger", "", "Ledger database (default .svdprobe/ledger.db)")
}

// registerRun adds the flags that only matter when probes execute.
func (f *probeFlags) registerRun(c *cobra.Command) {
	fs := c.Flags()
	fs.StringVar(&f.library, "library", "", "LAPACKE shared library (default $"+lapacke.EnvLibrary+", then search)")
	fs.BoolVar(&f.noLedger, "no-ledger", false, "Do not record the run")
	fs.StringVar(&f.regimes, "regimes", "", "Comma-separated subset of default,noden,noden-rtz")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "Print the summary only")
	fs.StringVar(&f.color, "color", "auto", "Colorize output: auto, always, never")
}

func (f *probeFlags) config() (ports.Config, error) {
	cfg := ports.Config{
		Seed:              f.seed,
		Rows:              f.rows,
		Cols:              f.cols,
		Retries:           f.retries,
		OverflowThreshold: f.threshold,
		Sampler:           ports.SamplerKind(f.sampler),
	}
	return cfg, cfg.Validate()
}

// options builds app.Options, logging diagnostics to log.
func (f *probeFlags) options(log io.Writer) (app.Options, error) {
	cfg, err := f.config()
	if err != nil {
		return app.Options{}, err
	}
	opts := app.Options{
		Config:      cfg,
		Backend:     f.backend,
		Library:     f.library,
		ProjectRoot: projectRoot(),
		LedgerPath:  f.ledger,
		NoLedger:    f.noLedger,
		Log:         log,
	}
	if f.regimes != "" {
		if opts.Regimes, err = scenario.ParseRegimes(f.regimes); err != nil {
			return app.Options{}, err
		}
	}
	return opts, nil
}

// ledgerPath resolves --ledger against the project root.
func (f *probeFlags) ledgerPath() string {
	if f.ledger != "" {
		return f.ledger
	}
	return app.NewPaths(projectRoot()).Ledger
}

// diagnostics returns the writer probe diagnostics go to: stdout unless
// quiet, plus the last-run log when it can be created.
func (f *probeFlags) diagnostics() (io.Writer, func()) {
	var sinks []io.Writer
	if !f.quiet {
		sinks = append(sinks, os.Stdout)
	}
	closeFn := func() {}
	p := app.NewPaths(projectRoot())
	if err := p.EnsureDirs(); err == nil {
		if fh, err := os.Create(p.LastRun); err == nil {
			sinks = append(sinks, fh)
			closeFn = func() { fh.Close() }
		}
	}
	if len(sinks) == 0 {
		return io.Discard, closeFn
	}
	return io.MultiWriter(sinks...), closeFn
}

// passthrough rebuilds the explicitly set flags of c as arguments, for
// re-running the same configuration in a child process.
func passthrough(c *cobra.Command, skip ...string) []string {
	skipped := make(map[string]bool)
	for _, s := range skip {
		skipped[s] = true
	}
	var args []string
	c.Flags().Visit(func(fl *pflag.Flag) {
		if !skipped[fl.Name] {
			args = append(args, fmt.Sprintf("--%s=%s", fl.Name, fl.Value.String()))
		}
	})
	return args
}
