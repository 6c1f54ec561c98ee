package scenario

import (
	"bytes"
	"errors"
	"testing"

	"github.com/corey/svdprobe/internal/domain/runner"
	"github.com/corey/svdprobe/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errNoFPU = errors.New("unsupported")

// fakeEnv models the FPU control state in memory.
type fakeEnv struct {
	state       ports.FloatEnvState
	unsupported bool
	log         []string
}

func (e *fakeEnv) DisableDenormals() error {
	e.log = append(e.log, "disable")
	if e.unsupported {
		return errNoFPU
	}
	e.state.DenormalsAreZero, e.state.FlushToZero = true, true
	return nil
}

func (e *fakeEnv) EnableDenormals() error {
	e.log = append(e.log, "enable")
	if e.unsupported {
		return errNoFPU
	}
	e.state.DenormalsAreZero, e.state.FlushToZero = false, false
	return nil
}

func (e *fakeEnv) SetRoundingMode(m ports.RoundingMode) error {
	e.log = append(e.log, "round:"+m.String())
	if e.unsupported {
		return errNoFPU
	}
	e.state.Rounding = m
	return nil
}

func (e *fakeEnv) State() ports.FloatEnvState { return e.state }

func (e *fakeEnv) Restore(s ports.FloatEnvState) error {
	e.log = append(e.log, "restore")
	e.state = s
	return nil
}

// envDecomposer returns a status and optionally corrupts the output depending
// on the fake environment active at call time.
type envDecomposer[T ports.Real] struct {
	env    *fakeEnv
	seen   []ports.FloatEnvState
	status func(ports.FloatEnvState) int
	junk   func(ports.FloatEnvState) bool
	crash  func(ports.FloatEnvState) bool
}

func (d *envDecomposer[T]) Gesvd(call ports.GesvdCall[T]) int {
	st := d.env.State()
	d.seen = append(d.seen, st)
	if d.crash != nil && d.crash(st) {
		panic("not coded for overwrite")
	}
	status := 0
	if d.status != nil {
		status = d.status(st)
	}
	if status == 0 {
		for i := range call.S {
			call.S[i] = 1
		}
		if d.junk != nil && d.junk(st) {
			call.S[0] = 1e30
		}
	}
	return status
}

type fakeBackend struct {
	f32 *envDecomposer[float32]
	f64 *envDecomposer[float64]
}

func (b *fakeBackend) Name() string                       { return "fake" }
func (b *fakeBackend) Float32() ports.Decomposer[float32] { return b.f32 }
func (b *fakeBackend) Float64() ports.Decomposer[float64] { return b.f64 }
func (b *fakeBackend) Close() error                       { return nil }

func newFake(env *fakeEnv) *fakeBackend {
	return &fakeBackend{
		f32: &envDecomposer[float32]{env: env},
		f64: &envDecomposer[float64]{env: env},
	}
}

func testConfig() ports.Config {
	cfg := ports.DefaultConfig()
	cfg.Rows, cfg.Cols = 4, 9
	return cfg
}

func TestMask_BitTable(t *testing.T) {
	assert.Equal(t, Mask(1), Bit(ports.Float32, Default))
	assert.Equal(t, Mask(2), Bit(ports.Float64, Default))
	assert.Equal(t, Mask(4), Bit(ports.Float32, DenormalsOff))
	assert.Equal(t, Mask(8), Bit(ports.Float64, DenormalsOff))
	assert.Equal(t, Mask(16), Bit(ports.Float32, DenormalsOffChop))
	assert.Equal(t, Mask(32), Bit(ports.Float64, DenormalsOffChop))

	var all Mask
	for _, r := range Regimes {
		all = all.Set(ports.Float32, r).Set(ports.Float64, r)
	}
	assert.Equal(t, AllClasses, all)
	assert.Len(t, all.Classes(), 6)
}

func TestMask_String(t *testing.T) {
	assert.Equal(t, "0 (all passed)", Mask(0).String())
	m := Mask(0).Set(ports.Float32, Default).Set(ports.Float64, DenormalsOffChop)
	assert.Equal(t, "33 (float/default, double/noden-rtz)", m.String())
	assert.True(t, m.Has(ports.Float32, Default))
	assert.False(t, m.Has(ports.Float64, Default))
}

func TestParseRegimes(t *testing.T) {
	rs, err := ParseRegimes("noden-rtz, default,default")
	require.NoError(t, err)
	assert.Equal(t, []Regime{Default, DenormalsOffChop}, rs)

	_, err = ParseRegimes("default,bogus")
	assert.Error(t, err)
	_, err = ParseRegimes(" , ")
	assert.Error(t, err)

	for _, r := range Regimes {
		got, err := ParseRegime(r.String())
		require.NoError(t, err)
		assert.Equal(t, r, got)
	}
}

func TestRegime_Apply(t *testing.T) {
	env := &fakeEnv{}
	require.NoError(t, DenormalsOffChop.Apply(env))
	assert.True(t, env.state.DenormalsDisabled())
	assert.Equal(t, ports.RoundTowardZero, env.state.Rounding)

	require.NoError(t, Default.Apply(env))
	assert.False(t, env.state.DenormalsAreZero)
	assert.Equal(t, ports.RoundNearest, env.state.Rounding)
}

func TestRegime_ApplyUnsupportedTriesEverything(t *testing.T) {
	env := &fakeEnv{unsupported: true}
	err := DenormalsOff.Apply(env)
	require.Error(t, err)
	assert.Equal(t, []string{"disable", "round:nearest"}, env.log)
}

func TestDriver_RunsBothPrecisions(t *testing.T) {
	env := &fakeEnv{}
	b := newFake(env)
	b.f32.junk = func(ports.FloatEnvState) bool { return true }

	var log bytes.Buffer
	d := &Driver{Backend: b, Log: &log}
	p := d.Run(testConfig(), Default)

	f32, f64 := p.Failed()
	assert.True(t, f32)
	assert.False(t, f64)
	assert.False(t, p.Hard())
	assert.Equal(t, runner.Failed, p.F32.Verdict)
	assert.Equal(t, runner.Passed, p.F64.Verdict)
	assert.Contains(t, log.String(), "gesvd<float>: ### FAILED ###")
	assert.Contains(t, log.String(), "gesvd<double>: passed")
}

func TestDriver_InvalidArgumentIsHard(t *testing.T) {
	env := &fakeEnv{}
	b := newFake(env)
	b.f64.status = func(ports.FloatEnvState) int { return -3 }

	p := (&Driver{Backend: b}).Run(testConfig(), Default)
	assert.True(t, p.Hard())
	assert.Equal(t, runner.Aborted, p.F64.Verdict)
	_, f64 := p.Failed()
	assert.True(t, f64)
}

func TestSequence_ReproducesBugPattern(t *testing.T) {
	// float32 produces junk in every regime, float64 only once rounding
	// toward zero is active.
	env := &fakeEnv{}
	b := newFake(env)
	b.f32.junk = func(ports.FloatEnvState) bool { return true }
	b.f64.junk = func(s ports.FloatEnvState) bool { return s.Rounding == ports.RoundTowardZero }

	seq := &Sequence{Env: env, Driver: &Driver{Backend: b}}
	rep, err := seq.Run(testConfig())
	require.NoError(t, err)

	assert.Equal(t, Mask(1|4|16|32), rep.Mask)
	assert.Equal(t, 53, rep.Code())
	assert.False(t, rep.Hard)
	assert.Len(t, rep.Pairs, 3)
	assert.Empty(t, rep.Warnings)
}

func TestSequence_EnvironmentAppliedBeforeEachPair(t *testing.T) {
	env := &fakeEnv{}
	b := newFake(env)
	seq := &Sequence{Env: env, Driver: &Driver{Backend: b}}
	_, err := seq.Run(testConfig())
	require.NoError(t, err)

	require.Len(t, b.f32.seen, 3)
	require.Len(t, b.f64.seen, 3)
	for i, seen := range [][]ports.FloatEnvState{b.f32.seen, b.f64.seen} {
		assert.False(t, seen[0].DenormalsAreZero, "probe %d default", i)
		assert.Equal(t, ports.RoundNearest, seen[0].Rounding)
		assert.True(t, seen[1].DenormalsDisabled())
		assert.Equal(t, ports.RoundNearest, seen[1].Rounding)
		assert.True(t, seen[2].DenormalsDisabled())
		assert.Equal(t, ports.RoundTowardZero, seen[2].Rounding)
	}
}

func TestSequence_RestoresEnvironment(t *testing.T) {
	initial := ports.FloatEnvState{Rounding: ports.RoundUp, Raw: 0xabc}
	env := &fakeEnv{state: initial}
	seq := &Sequence{Env: env, Driver: &Driver{Backend: newFake(env)}}
	rep, err := seq.Run(testConfig())
	require.NoError(t, err)

	assert.Equal(t, initial, env.state)
	assert.Equal(t, initial, rep.Initial)
	assert.Equal(t, initial, rep.Final)
	assert.Equal(t, "restore", env.log[len(env.log)-1])
}

func TestSequence_UnsupportedEnvironmentIsSoft(t *testing.T) {
	env := &fakeEnv{unsupported: true}
	seq := &Sequence{Env: env, Driver: &Driver{Backend: newFake(env)}}
	rep, err := seq.Run(testConfig())
	require.NoError(t, err)

	assert.Len(t, rep.Warnings, 3)
	assert.Equal(t, Mask(0), rep.Mask)
	assert.Len(t, rep.Pairs, 3, "all regimes still run")
}

func TestSequence_CompletesAfterHardFailures(t *testing.T) {
	env := &fakeEnv{}
	b := newFake(env)
	b.f32.status = func(ports.FloatEnvState) int { return -1 }
	b.f64.status = func(ports.FloatEnvState) int { return 1 }

	rep, err := (&Sequence{Env: env, Driver: &Driver{Backend: b}}).Run(testConfig())
	require.NoError(t, err)
	assert.Equal(t, AllClasses, rep.Mask)
	assert.True(t, rep.Hard)
	assert.Equal(t, int(AllClasses)|HardFailureBit, rep.Code())

	for _, p := range rep.Pairs {
		assert.Equal(t, runner.Aborted, p.F32.Verdict)
		assert.Equal(t, runner.GaveUp, p.F64.Verdict)
	}
}

func TestDriver_BackendPanicAborts(t *testing.T) {
	env := &fakeEnv{}
	b := newFake(env)
	b.f32.crash = func(ports.FloatEnvState) bool { return true }

	var log bytes.Buffer
	p := (&Driver{Backend: b, Log: &log}).Run(testConfig(), Default)
	require.NotNil(t, p.F32)
	assert.Equal(t, runner.Aborted, p.F32.Verdict)
	assert.ErrorIs(t, p.F32.Err, ErrBackendPanic)
	assert.Contains(t, p.F32.Reason(), "not coded for overwrite")
	assert.Equal(t, runner.Passed, p.F64.Verdict, "the other precision still runs")
	assert.True(t, p.Hard())
}

func TestSequence_CompletesAfterBackendPanic(t *testing.T) {
	env := &fakeEnv{}
	b := newFake(env)
	b.f64.crash = func(s ports.FloatEnvState) bool { return s.DenormalsDisabled() }

	rep, err := (&Sequence{Env: env, Driver: &Driver{Backend: b}}).Run(testConfig())
	require.NoError(t, err)
	assert.Len(t, b.f32.seen, 3)
	assert.Equal(t, Mask(8|32), rep.Mask)
	assert.Equal(t, 8|32|HardFailureBit, rep.Code())
	assert.Equal(t, "restore", env.log[len(env.log)-1])
}

func TestSequence_SubsetSkipsRegimes(t *testing.T) {
	env := &fakeEnv{}
	b := newFake(env)
	b.f32.junk = func(ports.FloatEnvState) bool { return true }
	seq := &Sequence{Env: env, Driver: &Driver{Backend: b}, Regimes: []Regime{DenormalsOffChop}}
	rep, err := seq.Run(testConfig())
	require.NoError(t, err)

	assert.Equal(t, Mask(16), rep.Mask)
	require.Len(t, rep.Pairs, 3)
	assert.True(t, rep.Pairs[0].Skipped)
	assert.True(t, rep.Pairs[1].Skipped)
	assert.False(t, rep.Pairs[2].Skipped)
	assert.Len(t, b.f32.seen, 1)

	traces := rep.Traces()
	require.Len(t, traces, 6)
	assert.True(t, traces[0].Skipped)
	assert.Equal(t, "failed", traces[4].Verdict)
	assert.Equal(t, ports.Float32, traces[4].Precision)
	assert.Equal(t, "noden-rtz", traces[4].Regime)
	assert.Equal(t, "passed", traces[5].Verdict)
}

func TestSequence_InvalidConfig(t *testing.T) {
	env := &fakeEnv{}
	cfg := testConfig()
	cfg.Cols = 0
	_, err := (&Sequence{Env: env, Driver: &Driver{Backend: newFake(env)}}).Run(cfg)
	assert.ErrorIs(t, err, ports.ErrInvalidConfig)
	assert.Empty(t, env.log, "environment untouched")
}
