//go:build amd64

package fpenv

import (
	"golang.org/x/sys/cpu"

	"github.com/corey/svdprobe/internal/ports"
)

// MXCSR layout: exception flags are bits 0-5, DAZ is bit 6, FTZ bit 15,
// rounding control bits 13-14 with 00 nearest, 01 down, 10 up, 11 toward
// zero (the ports.RoundingMode order).
const (
	mxcsrFlags   = 0x3f
	mxcsrDAZ     = 1 << 6
	mxcsrFTZ     = 1 << 15
	mxcsrRCShift = 13
	mxcsrRCMask  = 3 << mxcsrRCShift
)

const platform = "amd64/MXCSR"

// SSE2 is part of the amd64 baseline, so MXCSR is always there. Setting DAZ
// on a CPU without it faults; every SSE3 part has it.
var (
	canControl     = true
	canFlushInputs = cpu.X86.HasSSE3
)

func getMXCSR() uint32
func setMXCSR(v uint32)

func readControl() uint64 { return uint64(getMXCSR()) }

func writeControl(v uint64) { setMXCSR(uint32(v)) }

// decode drops the sticky exception flags from Raw: they change with every
// inexact operation and are not part of the environment being controlled.
func decode(raw uint64) ports.FloatEnvState {
	raw &^= mxcsrFlags
	return ports.FloatEnvState{
		DenormalsAreZero: raw&mxcsrDAZ != 0,
		FlushToZero:      raw&mxcsrFTZ != 0,
		Rounding:         ports.RoundingMode(raw & mxcsrRCMask >> mxcsrRCShift),
		Raw:              raw,
	}
}

func withDenormals(raw uint64, disabled bool) uint64 {
	bits := uint64(mxcsrFTZ)
	if canFlushInputs {
		bits |= mxcsrDAZ
	}
	if disabled {
		return raw | bits
	}
	return raw &^ (mxcsrFTZ | mxcsrDAZ)
}

func withRounding(raw uint64, mode ports.RoundingMode) uint64 {
	return raw&^mxcsrRCMask | uint64(mode)<<mxcsrRCShift
}
