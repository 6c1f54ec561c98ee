// Package rng provides the seeded random source the probe draws its matrices
// from, plus uniform and standard-normal samplers at either precision.
//
// Everything here is deterministic for a fixed seed: the same seed and sampler
// kind always produce the same sequence of values, on every platform.
package rng

import (
	"math"
	"math/rand/v2"

	"github.com/corey/svdprobe/internal/ports"
)

// pcgStream is the fixed PCG increment. The seed alone selects the sequence.
const pcgStream = 0xda3e39cb94b95bdb

// Source is a seedable generator with a 32-bit unsigned output stream. It
// has the shape sampling algorithms expect of a uniform random bit generator:
// a constant Min and Max and a Uint32 that advances the state.
type Source struct {
	pcg *rand.PCG
}

// NewSource creates a Source seeded from seed.
func NewSource(seed int64) *Source {
	return &Source{pcg: rand.NewPCG(uint64(seed), pcgStream)}
}

// Min is the smallest value Uint32 returns.
func (*Source) Min() uint32 { return 0 }

// Max is the largest value Uint32 returns.
func (*Source) Max() uint32 { return math.MaxUint32 }

// Uint32 returns the next 32 bits of the stream.
func (s *Source) Uint32() uint32 {
	return uint32(s.pcg.Uint64() >> 32)
}

// Sampler yields real values of type T.
type Sampler[T ports.Real] interface {
	Next() T
}

// New returns the sampler of the given kind drawing from src.
func New[T ports.Real](kind ports.SamplerKind, src *Source) Sampler[T] {
	if kind == ports.SamplerUniform {
		return NewUniform[T](src)
	}
	return NewNormal[T](src)
}

// canonical returns a value in [0, 1) carrying the full mantissa of T.
// float32 consumes one draw, float64 two.
func canonical[T ports.Real](src *Source) T {
	var zero T
	if _, ok := any(zero).(float32); ok {
		return T(float32(src.Uint32()>>8) * 0x1p-24)
	}
	hi, lo := uint64(src.Uint32()), uint64(src.Uint32())
	return T(float64((hi<<32|lo)>>11) * 0x1p-53)
}

// Uniform draws from [-1, 1).
type Uniform[T ports.Real] struct {
	src *Source
}

// NewUniform creates a uniform sampler over [-1, 1).
func NewUniform[T ports.Real](src *Source) *Uniform[T] {
	return &Uniform[T]{src: src}
}

// Next returns the next sample.
func (u *Uniform[T]) Next() T {
	return canonical[T](u.src)*2 - 1
}

// Normal draws from the standard normal distribution using the Marsaglia
// polar method. Each accepted pair yields two samples; the second is cached.
type Normal[T ports.Real] struct {
	src      *Source
	saved    T
	hasSaved bool
}

// NewNormal creates a standard-normal sampler.
func NewNormal[T ports.Real](src *Source) *Normal[T] {
	return &Normal[T]{src: src}
}

// Next returns the next sample.
func (n *Normal[T]) Next() T {
	if n.hasSaved {
		n.hasSaved = false
		return n.saved
	}
	var x, y, r2 T
	for {
		x = canonical[T](n.src)*2 - 1
		y = canonical[T](n.src)*2 - 1
		r2 = x*x + y*y
		if r2 <= 1 && r2 != 0 {
			break
		}
	}
	mult := math.Sqrt(-2 * math.Log(float64(r2)) / float64(r2))
	n.saved = T(float64(x) * mult)
	n.hasSaved = true
	return T(float64(y) * mult)
}
