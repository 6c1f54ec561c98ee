package cmd

import (
	"errors"
	"fmt"

	"github.com/corey/svdprobe/internal/domain/scenario"
)

// SetupFailureCode is the exit code when no probe could run at all.
const SetupFailureCode = scenario.HardFailureBit

// probeExit is returned by run to signal a nonzero failure mask as the
// process exit code. The summary has already been printed.
type probeExit struct{ code int }

func (e probeExit) Error() string {
	return fmt.Sprintf("probe failures (exit %d)", e.code)
}

// ExitCode extracts the exit code from a probeExit error.
// Returns -1 if the error is not a probeExit.
func ExitCode(err error) int {
	var pe probeExit
	if errors.As(err, &pe) {
		return pe.code
	}
	return -1
}
