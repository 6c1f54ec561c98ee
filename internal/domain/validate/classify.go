// Package validate inspects decomposition output buffers for the numeric
// signatures of the precision bug: NaN, infinities, subnormal values and
// magnitudes beyond a threshold.
//
// Classification works on the IEEE bit pattern, never on float comparisons.
// With denormals-are-zero active the FPU reads a subnormal operand as zero, so
// x != 0 would report false for exactly the values we are looking for.
package validate

import (
	"math"

	"github.com/corey/svdprobe/internal/ports"
)

// Class is the IEEE 754 category of a value.
type Class uint8

const (
	Zero Class = iota
	Subnormal
	Normal
	Infinite
	NaN
)

func (c Class) String() string {
	switch c {
	case Zero:
		return "zero"
	case Subnormal:
		return "subnormal"
	case Normal:
		return "normal"
	case Infinite:
		return "infinite"
	case NaN:
		return "NaN"
	default:
		return "unknown"
	}
}

// Degenerate reports whether c is NaN, infinite or subnormal.
func (c Class) Degenerate() bool {
	return c == Subnormal || c == Infinite || c == NaN
}

// Classify returns the IEEE category of x.
func Classify[T ports.Real](x T) Class {
	switch v := any(x).(type) {
	case float32:
		b := math.Float32bits(v)
		return classBits(uint64(b>>23&0xff), uint64(b&0x7fffff), 0xff)
	default:
		b := math.Float64bits(any(x).(float64))
		return classBits(b>>52&0x7ff, b&(1<<52-1), 0x7ff)
	}
}

func classBits(exp, frac, expMax uint64) Class {
	switch {
	case exp == 0 && frac == 0:
		return Zero
	case exp == 0:
		return Subnormal
	case exp == expMax && frac == 0:
		return Infinite
	case exp == expMax:
		return NaN
	default:
		return Normal
	}
}

// Abs returns |x| as float64 by clearing the sign bit.
func Abs[T ports.Real](x T) float64 {
	switch v := any(x).(type) {
	case float32:
		return float64(math.Float32frombits(math.Float32bits(v) &^ (1 << 31)))
	default:
		return math.Float64frombits(math.Float64bits(any(x).(float64)) &^ (1 << 63))
	}
}
