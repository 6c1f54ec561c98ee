package scenario

import (
	"fmt"
	"strings"

	"github.com/corey/svdprobe/internal/ports"
)

// Mask accumulates one failure bit per (precision, regime) pair. Bit
// 2*regime+precision is set when that sub-scenario failed:
//
//	bit 0   1  float  / default
//	bit 1   2  double / default
//	bit 2   4  float  / denormals off
//	bit 3   8  double / denormals off
//	bit 4  16  float  / denormals off + round toward zero
//	bit 5  32  double / denormals off + round toward zero
//
// Zero means every sub-scenario passed.
type Mask uint8

// HardFailureBit is set in the process exit code, above the six mask bits,
// when a sub-scenario aborted on a fatal error or the run could not start.
const HardFailureBit = 1 << 6

// AllClasses has every failure bit set.
const AllClasses Mask = 1<<6 - 1

// Bit returns the mask bit of a (precision, regime) pair.
func Bit(p ports.Precision, r Regime) Mask {
	return 1 << (2*int(r) + p.Index())
}

// Set records a failure for the pair.
func (m Mask) Set(p ports.Precision, r Regime) Mask {
	return m | Bit(p, r)
}

// Has reports whether the pair failed.
func (m Mask) Has(p ports.Precision, r Regime) bool {
	return m&Bit(p, r) != 0
}

// Classes lists the failed pairs in bit order, e.g. "float/default".
func (m Mask) Classes() []string {
	var out []string
	for _, r := range Regimes {
		for _, p := range []ports.Precision{ports.Float32, ports.Float64} {
			if m.Has(p, r) {
				out = append(out, fmt.Sprintf("%s/%s", p.Short(), r))
			}
		}
	}
	return out
}

func (m Mask) String() string {
	if m == 0 {
		return "0 (all passed)"
	}
	return fmt.Sprintf("%d (%s)", uint8(m), strings.Join(m.Classes(), ", "))
}
