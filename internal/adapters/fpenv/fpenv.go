// Package fpenv implements ports.FloatEnv on the processor's floating-point
// control register: MXCSR on amd64, FPCR on arm64. Other architectures get a
// controller that reports every change as unsupported.
//
// The register is per OS thread. Callers lock the goroutine to its thread
// (runtime.LockOSThread) before changing anything and restore the snapshot
// before unlocking; otherwise the change leaks to whatever goroutine the
// scheduler puts on that thread next.
package fpenv

import (
	"errors"
	"fmt"

	"github.com/corey/svdprobe/internal/ports"
)

// ErrUnsupported means the platform cannot apply the requested setting.
// It is a soft condition: the run continues in whatever state resulted.
var ErrUnsupported = errors.New("floating-point control not supported on this platform")

// Controller reads and writes the control register of the calling thread.
// The zero value is ready to use.
type Controller struct{}

var _ ports.FloatEnv = (*Controller)(nil)

// New returns a Controller.
func New() *Controller {
	return &Controller{}
}

// Platform names the register being driven, e.g. "amd64/MXCSR".
func (*Controller) Platform() string {
	return platform
}

// Supported reports whether the control register can be written at all.
func (*Controller) Supported() bool {
	return canControl
}

// FlushesInputs reports whether denormals-are-zero (input flushing) is
// available in addition to flush-to-zero.
func (*Controller) FlushesInputs() bool {
	return canControl && canFlushInputs
}

// DisableDenormals turns on flush-to-zero and denormals-are-zero.
func (c *Controller) DisableDenormals() error {
	if !canControl {
		return fmt.Errorf("disable denormals: %w", ErrUnsupported)
	}
	writeControl(withDenormals(readControl(), true))
	if !canFlushInputs {
		return fmt.Errorf("denormals-are-zero: %w (flush-to-zero applied)", ErrUnsupported)
	}
	return nil
}

// EnableDenormals restores gradual underflow: both flush bits cleared.
func (c *Controller) EnableDenormals() error {
	if !canControl {
		return fmt.Errorf("enable denormals: %w", ErrUnsupported)
	}
	writeControl(withDenormals(readControl(), false))
	return nil
}

// SetRoundingMode sets the rounding direction of subsequent arithmetic.
func (c *Controller) SetRoundingMode(mode ports.RoundingMode) error {
	if !canControl {
		return fmt.Errorf("set rounding %s: %w", mode, ErrUnsupported)
	}
	if mode > ports.RoundTowardZero {
		return fmt.Errorf("set rounding: unknown mode %s", mode)
	}
	writeControl(withRounding(readControl(), mode))
	return nil
}

// State decodes the current control register.
func (c *Controller) State() ports.FloatEnvState {
	if !canControl {
		return ports.FloatEnvState{Rounding: ports.RoundNearest}
	}
	return decode(readControl())
}

// Restore writes a snapshot taken by State back verbatim.
func (c *Controller) Restore(s ports.FloatEnvState) error {
	if !canControl {
		return fmt.Errorf("restore: %w", ErrUnsupported)
	}
	writeControl(s.Raw)
	return nil
}
