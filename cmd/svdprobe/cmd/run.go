package cmd

import (
	"fmt"

	"github.com/corey/svdprobe/internal/app"
	"github.com/spf13/cobra"
)

var runFlags probeFlags

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the six probes and exit with the failure mask",
	Long: "Runs gesvd<float> and gesvd<double> under each floating-point regime.\n" +
		"Exit code bits: 1 float/default, 2 double/default, 4 float/noden, 8 double/noden,\n" +
		"16 float/noden-rtz, 32 double/noden-rtz; 64 when a probe aborted or the run could not start.",
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	runFlags.registerConfig(runCmd)
	runFlags.registerRun(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	log, closeLog := runFlags.diagnostics()
	defer closeLog()

	opts, err := runFlags.options(log)
	if err != nil {
		return err
	}
	a, err := app.New(opts)
	if err != nil {
		return err
	}
	defer a.Close()

	out, err := a.Run()
	if err != nil {
		return err
	}

	fmt.Print(formatSummary(out, a.Library(), resolveColor(runFlags.color)))
	if code := out.Code(); code != 0 {
		return probeExit{code: code}
	}
	return nil
}
