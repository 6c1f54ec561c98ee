package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "svdprobe",
	Short: "svdprobe — SVD precision regression probe",
	Long: "Probes a LAPACK gesvd implementation with seeded random matrices in float and double,\n" +
		"under the default floating-point environment, with denormals disabled, and with\n" +
		"denormals disabled and round-toward-zero. Exit code: bitmask of failing combinations.",
	SilenceErrors: true,
	SilenceUsage:  true,
}

// projectRoot returns the project root (cwd by default).
func projectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(SetupFailureCode)
	}
	return dir
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(envCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(watchCmd)
}
