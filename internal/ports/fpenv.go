package ports

import "fmt"

// RoundingMode is an IEEE 754 rounding direction.
type RoundingMode uint8

const (
	RoundNearest RoundingMode = iota
	RoundDown                 // toward -Inf
	RoundUp                   // toward +Inf
	RoundTowardZero
)

func (m RoundingMode) String() string {
	switch m {
	case RoundNearest:
		return "nearest"
	case RoundDown:
		return "down"
	case RoundUp:
		return "up"
	case RoundTowardZero:
		return "toward-zero"
	default:
		return fmt.Sprintf("RoundingMode(%d)", uint8(m))
	}
}

// FloatEnvState is a snapshot of the FPU control state relevant to the probe.
type FloatEnvState struct {
	DenormalsAreZero bool
	FlushToZero      bool
	Rounding         RoundingMode
	// Raw is the architecture control word the snapshot was decoded from.
	// Restore writes it back verbatim so bits the probe does not model survive.
	Raw uint64
}

// DenormalsDisabled reports whether subnormal values are flushed on both input and output.
func (s FloatEnvState) DenormalsDisabled() bool {
	return s.DenormalsAreZero && s.FlushToZero
}

func (s FloatEnvState) String() string {
	den := "enabled"
	switch {
	case s.DenormalsDisabled():
		den = "disabled"
	case s.DenormalsAreZero || s.FlushToZero:
		den = "partially disabled"
	}
	return fmt.Sprintf("denormals %s, rounding %s", den, s.Rounding)
}

// FloatEnv owns the process-wide floating-point control state of the calling
// OS thread. Callers must lock the goroutine to its thread for the lifetime of
// any change and restore the snapshot on every exit path.
//
// Mutators return an error wrapping an "unsupported" sentinel when the platform
// cannot apply the setting; callers treat that as a warning.
type FloatEnv interface {
	DisableDenormals() error
	EnableDenormals() error
	SetRoundingMode(mode RoundingMode) error
	State() FloatEnvState
	Restore(s FloatEnvState) error
}
