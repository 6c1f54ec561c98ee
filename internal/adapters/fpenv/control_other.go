//go:build !amd64 && !arm64

package fpenv

import "github.com/corey/svdprobe/internal/ports"

const platform = "unsupported"

var (
	canControl     = false
	canFlushInputs = false
)

func readControl() uint64 { return 0 }

func writeControl(uint64) {}

func decode(raw uint64) ports.FloatEnvState {
	return ports.FloatEnvState{Rounding: ports.RoundNearest, Raw: raw}
}

func withDenormals(raw uint64, _ bool) uint64 { return raw }

func withRounding(raw uint64, _ ports.RoundingMode) uint64 { return raw }
