// svdprobe reproduces precision-dependent failures of a LAPACK SVD routine.
// It probes the float and double gesvd entry points under three floating-point
// regimes and exits with a bitmask of the failing combinations.
package main

import (
	"fmt"
	"os"

	"github.com/corey/svdprobe/cmd/svdprobe/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		if code := cmd.ExitCode(err); code >= 0 {
			os.Exit(code)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(cmd.SetupFailureCode)
	}
}
