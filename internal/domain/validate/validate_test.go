package validate

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		f32  float32
		f64  float64
		want Class
	}{
		{"zero", 0, 0, Zero},
		{"neg zero", float32(math.Copysign(0, -1)), math.Copysign(0, -1), Zero},
		{"one", 1, 1, Normal},
		{"smallest normal", 0x1p-126, 0x1p-1022, Normal},
		{"subnormal", 0x1p-127, 0x1p-1023, Subnormal},
		{"smallest subnormal", math.SmallestNonzeroFloat32, math.SmallestNonzeroFloat64, Subnormal},
		{"max", math.MaxFloat32, math.MaxFloat64, Normal},
		{"+inf", float32(math.Inf(1)), math.Inf(1), Infinite},
		{"-inf", float32(math.Inf(-1)), math.Inf(-1), Infinite},
		{"nan", float32(math.NaN()), math.NaN(), NaN},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.f32), "float32")
			assert.Equal(t, tt.want, Classify(tt.f64), "float64")
		})
	}
}

func TestClassify_Float32SubnormalIsNormalAsFloat64(t *testing.T) {
	// The precision of the element type decides, not the value.
	x := float32(0x1p-130)
	assert.Equal(t, Subnormal, Classify(x))
	assert.Equal(t, Normal, Classify(float64(x)))
}

func TestAbs(t *testing.T) {
	assert.Equal(t, 2.5, Abs(-2.5))
	assert.Equal(t, 2.5, Abs(float32(-2.5)))
	assert.Equal(t, 0.0, Abs(math.Copysign(0, -1)))
}

func TestCheck_ValidBuffer(t *testing.T) {
	buf := []float64{0, 1, -1, 1e20, -1e20, 0x1p-1022, 3.5}
	assert.NoError(t, Check("S", buf, 1e20))
	assert.Equal(t, Valid, Probe("S", buf, 1e20).Outcome)
}

func TestCheck_AllNaN(t *testing.T) {
	buf := []float32{float32(math.NaN()), float32(math.NaN())}
	err := Check("A", buf, 1e20)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnexpectedNonFinite))
	assert.Equal(t, InvalidNonFinite, OutcomeOf(err))

	var v *Violation
	require.True(t, errors.As(err, &v))
	assert.Equal(t, "A", v.Buffer)
	assert.Equal(t, 0, v.Index)
	assert.Equal(t, NaN, v.Class)
}

func TestCheck_Overflow(t *testing.T) {
	buf := []float64{1, 2, -3e20, 4}
	err := Check("S", buf, 1e20)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnexpectedOverflow))
	assert.Equal(t, InvalidOverflow, OutcomeOf(err))
	assert.Contains(t, err.Error(), "S[2]")
}

func TestCheck_NonFiniteWinsOverEarlierOverflow(t *testing.T) {
	// Predicate 1 runs over the whole buffer before predicate 2.
	buf := []float64{5e20, 1, 0x1p-1040}
	err := Check("A", buf, 1e20)
	assert.Equal(t, InvalidNonFinite, OutcomeOf(err))
	var v *Violation
	require.True(t, errors.As(err, &v))
	assert.Equal(t, 2, v.Index)
	assert.Equal(t, Subnormal, v.Class)
}

func TestCheck_Infinity(t *testing.T) {
	assert.Equal(t, InvalidNonFinite, OutcomeOf(Check("S", []float64{math.Inf(1)}, 1e20)))
}

func TestCheck_Empty(t *testing.T) {
	assert.NoError(t, Check[float32]("S", nil, 1e20))
}

func TestProbe_CountsEverything(t *testing.T) {
	buf := []float32{
		1,
		float32(math.NaN()),
		0x1p-140,
		2e20,
		float32(math.Inf(-1)),
		0x1p-135,
		-4e20,
	}
	r := Probe("A", buf, 1e20)
	assert.Equal(t, 7, r.Len)
	assert.Equal(t, 1, r.NaNs)
	assert.Equal(t, 1, r.Infs)
	assert.Equal(t, 2, r.Subnormals)
	assert.Equal(t, 2, r.Overflows)
	assert.Equal(t, 1, r.FirstBad)
	assert.InDelta(t, 4e20, r.MaxAbs, 1e14)
	assert.Equal(t, InvalidNonFinite, r.Outcome)
	assert.Contains(t, r.String(), "subnormal=2")
}

func TestProbe_OverflowOnly(t *testing.T) {
	r := Probe("S", []float64{1, 2e21}, 1e20)
	assert.Equal(t, InvalidOverflow, r.Outcome)
	assert.Equal(t, -1, r.FirstBad)
}

func TestProbe_MatchesCheck(t *testing.T) {
	bufs := [][]float64{
		{1, 2, 3},
		{1, math.NaN()},
		{1e30},
		{1e30, 0x1p-1050},
		{},
	}
	for _, b := range bufs {
		assert.Equal(t, OutcomeOf(Check("x", b, 1e20)), Probe("x", b, 1e20).Outcome)
	}
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "valid", Valid.String())
	assert.Contains(t, InvalidOverflow.String(), "overflow")
	assert.Contains(t, InvalidNonFinite.String(), "non-finite")
}
