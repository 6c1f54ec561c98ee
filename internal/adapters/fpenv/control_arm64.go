//go:build arm64

package fpenv

import (
	"golang.org/x/sys/cpu"

	"github.com/corey/svdprobe/internal/ports"
)

// FPCR layout: FZ is bit 24 and flushes both inputs and outputs, so it
// covers flush-to-zero and denormals-are-zero at once. RMode is bits 22-23
// with 00 nearest, 01 toward +Inf, 10 toward -Inf, 11 toward zero.
const (
	fpcrFZ         = 1 << 24
	fpcrRModeShift = 22
	fpcrRModeMask  = 3 << fpcrRModeShift
)

const platform = "arm64/FPCR"

var (
	canControl     = cpu.ARM64.HasFP || cpu.ARM64.HasASIMD
	canFlushInputs = true
)

var toRMode = [...]uint64{
	ports.RoundNearest:    0,
	ports.RoundUp:         1,
	ports.RoundDown:       2,
	ports.RoundTowardZero: 3,
}

var fromRMode = [...]ports.RoundingMode{
	0: ports.RoundNearest,
	1: ports.RoundUp,
	2: ports.RoundDown,
	3: ports.RoundTowardZero,
}

func getFPCR() uint64
func setFPCR(v uint64)

func readControl() uint64 { return getFPCR() }

func writeControl(v uint64) { setFPCR(v) }

func decode(raw uint64) ports.FloatEnvState {
	fz := raw&fpcrFZ != 0
	return ports.FloatEnvState{
		DenormalsAreZero: fz,
		FlushToZero:      fz,
		Rounding:         fromRMode[raw&fpcrRModeMask>>fpcrRModeShift],
		Raw:              raw,
	}
}

func withDenormals(raw uint64, disabled bool) uint64 {
	if disabled {
		return raw | fpcrFZ
	}
	return raw &^ fpcrFZ
}

func withRounding(raw uint64, mode ports.RoundingMode) uint64 {
	return raw&^fpcrRModeMask | toRMode[mode]<<fpcrRModeShift
}
