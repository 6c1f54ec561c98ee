package app

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/corey/svdprobe/internal/domain/scenario"
	"github.com/corey/svdprobe/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// App lifecycle: backend + environment + ledger wiring, regression diff
// =============================================================================

// memEnv is an in-memory floating-point environment.
type memEnv struct{ state ports.FloatEnvState }

func (e *memEnv) DisableDenormals() error {
	e.state.DenormalsAreZero, e.state.FlushToZero = true, true
	return nil
}

func (e *memEnv) EnableDenormals() error {
	e.state.DenormalsAreZero, e.state.FlushToZero = false, false
	return nil
}

func (e *memEnv) SetRoundingMode(m ports.RoundingMode) error {
	e.state.Rounding = m
	return nil
}

func (e *memEnv) State() ports.FloatEnvState          { return e.state }
func (e *memEnv) Restore(s ports.FloatEnvState) error { e.state = s; return nil }

// stubDecomposer fills S with ones, or with garbage when bad says so.
type stubDecomposer[T ports.Real] struct {
	env    *memEnv
	bad    func(ports.FloatEnvState) bool
	status int
}

func (d *stubDecomposer[T]) Gesvd(call ports.GesvdCall[T]) int {
	if d.status != 0 {
		return d.status
	}
	for i := range call.S {
		call.S[i] = 1
	}
	if d.bad != nil && d.bad(d.env.State()) {
		call.S[0] = 1e30
	}
	return 0
}

type stubBackend struct {
	f32    *stubDecomposer[float32]
	f64    *stubDecomposer[float64]
	closed bool
}

func (b *stubBackend) Name() string                       { return "stub" }
func (b *stubBackend) Float32() ports.Decomposer[float32] { return b.f32 }
func (b *stubBackend) Float64() ports.Decomposer[float64] { return b.f64 }
func (b *stubBackend) Close() error                       { b.closed = true; return nil }

func newStub(env *memEnv) *stubBackend {
	return &stubBackend{
		f32: &stubDecomposer[float32]{env: env},
		f64: &stubDecomposer[float64]{env: env},
	}
}

func chopping(s ports.FloatEnvState) bool { return s.Rounding == ports.RoundTowardZero }

func smallConfig() ports.Config {
	cfg := ports.DefaultConfig()
	cfg.Rows, cfg.Cols = 3, 7
	return cfg
}

func newTestApp(t *testing.T, b *stubBackend, env *memEnv, mutate func(*Options)) *App {
	t.Helper()
	opts := Options{
		Config:      smallConfig(),
		ProjectRoot: t.TempDir(),
		Env:         env,
		OpenBackend: func(Options) (ports.Backend, string, error) { return b, "/fake/liblapacke.so", nil },
	}
	if mutate != nil {
		mutate(&opts)
	}
	a, err := New(opts)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := smallConfig()
	cfg.Retries = 0
	_, err := New(Options{Config: cfg})
	assert.ErrorIs(t, err, ports.ErrInvalidConfig)
}

func TestNew_UnknownBackend(t *testing.T) {
	_, err := New(Options{Config: smallConfig(), Backend: "mkl", ProjectRoot: t.TempDir(), NoLedger: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown backend")
}

func TestNew_DefaultLedgerUnderProjectRoot(t *testing.T) {
	env := &memEnv{}
	a := newTestApp(t, newStub(env), env, nil)
	assert.FileExists(t, a.Paths.Ledger)
	assert.Equal(t, "/fake/liblapacke.so", a.Library())
	assert.Equal(t, "stub/"+smallConfig().Key(), a.LedgerKey())
}

func TestRun_RecordsAndDiffs(t *testing.T) {
	env := &memEnv{}
	b := newStub(env)
	var log bytes.Buffer
	a := newTestApp(t, b, env, func(o *Options) { o.Log = &log })

	first, err := a.Run()
	require.NoError(t, err)
	assert.Zero(t, first.Code())
	assert.Nil(t, first.Previous, "fresh configuration has no baseline")
	assert.NoError(t, first.LedgerErr)
	assert.Equal(t, uint64(1), first.Record.Seq)
	assert.Len(t, first.Record.Results, 6)
	assert.Contains(t, log.String(), "gesvd<float>: passed")

	// The library "regresses" under round-toward-zero.
	b.f32.bad, b.f64.bad = chopping, chopping
	second, err := a.Run()
	require.NoError(t, err)
	assert.Equal(t, 48, second.Code())
	require.NotNil(t, second.Previous)
	assert.Equal(t, uint64(1), second.Previous.Seq)
	assert.Equal(t, scenario.Mask(48), second.Diff.Regressed)
	assert.Zero(t, second.Diff.Fixed)
	assert.True(t, second.Diff.Changed())

	hist, err := a.History(0)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, uint8(48), hist[0].Mask)
	assert.Equal(t, "/fake/liblapacke.so", hist[0].Library)
}

func TestRun_HardFailureSetsBit(t *testing.T) {
	env := &memEnv{}
	b := newStub(env)
	b.f64.status = -4
	a := newTestApp(t, b, env, func(o *Options) { o.NoLedger = true })

	out, err := a.Run()
	require.NoError(t, err)
	assert.True(t, out.Record.Hard)
	assert.Equal(t, 42|scenario.HardFailureBit, out.Code(), "every double probe aborted")
	assert.Nil(t, out.Previous)

	hist, err := a.History(5)
	assert.NoError(t, err)
	assert.Nil(t, hist, "no ledger, no history")
}

func TestRun_SubsetDoesNotReadAsFix(t *testing.T) {
	env := &memEnv{}
	b := newStub(env)
	b.f32.bad = chopping
	dir := t.TempDir()
	ledger := filepath.Join(dir, "ledger.db")

	full := newTestApp(t, b, env, func(o *Options) { o.LedgerPath = ledger })
	out, err := full.Run()
	require.NoError(t, err)
	assert.Equal(t, 16, out.Code())
	require.NoError(t, full.Close())

	subset := newTestApp(t, b, env, func(o *Options) {
		o.LedgerPath = ledger
		o.Regimes = []scenario.Regime{scenario.Default}
	})
	out, err = subset.Run()
	require.NoError(t, err)
	assert.Zero(t, out.Code())
	require.NotNil(t, out.Previous)
	assert.False(t, out.Diff.Changed(), "the noden-rtz bit was not re-tested")
}

func TestRun_RestoresEnvironment(t *testing.T) {
	env := &memEnv{state: ports.FloatEnvState{Rounding: ports.RoundUp, Raw: 7}}
	a := newTestApp(t, newStub(env), env, func(o *Options) { o.NoLedger = true })
	_, err := a.Run()
	require.NoError(t, err)
	assert.Equal(t, ports.FloatEnvState{Rounding: ports.RoundUp, Raw: 7}, env.State())
}

func TestClose_ReleasesBackend(t *testing.T) {
	env := &memEnv{}
	b := newStub(env)
	a, err := New(Options{
		Config: smallConfig(), ProjectRoot: t.TempDir(), Env: env, NoLedger: true,
		OpenBackend: func(Options) (ports.Backend, string, error) { return b, "", nil },
	})
	require.NoError(t, err)
	require.NoError(t, a.Close())
	assert.True(t, b.closed)
}

func TestCompare(t *testing.T) {
	rec := func(mask uint8, skipped ...string) *ports.RunRecord {
		r := &ports.RunRecord{Mask: mask}
		skip := make(map[string]bool)
		for _, s := range skipped {
			skip[s] = true
		}
		for _, reg := range scenario.Regimes {
			for _, p := range []ports.Precision{ports.Float32, ports.Float64} {
				r.Results = append(r.Results, ports.ScenarioTrace{Precision: p, Regime: reg.String(), Skipped: skip[reg.String()]})
			}
		}
		return r
	}

	d := Compare(rec(0b000011), rec(0b110001))
	assert.Equal(t, scenario.Mask(0b110000), d.Regressed)
	assert.Equal(t, scenario.Mask(0b000010), d.Fixed)

	d = Compare(rec(0b110000), rec(0, "noden-rtz"))
	assert.False(t, d.Changed())

	assert.False(t, Compare(rec(53), rec(53)).Changed())
}

func TestOpenBackend_Gonum(t *testing.T) {
	b, lib, err := OpenBackend(Options{Backend: BackendGonum})
	require.NoError(t, err)
	assert.Equal(t, "gonum", b.Name())
	assert.Empty(t, lib)
}

func TestOpenBackend_MissingLibrary(t *testing.T) {
	_, _, err := OpenBackend(Options{Backend: BackendLAPACKE, Library: filepath.Join(t.TempDir(), "liblapacke.so")})
	assert.Error(t, err)
}
