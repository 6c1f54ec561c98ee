package cmd

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/corey/svdprobe/internal/adapters/fpenv"
	"github.com/corey/svdprobe/internal/domain/scenario"
	"github.com/corey/svdprobe/internal/ports"
	"github.com/spf13/cobra"
)

var (
	envColor   string
	envRegimes bool
)

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Report the floating-point environment and what can be changed",
	Args:  cobra.NoArgs,
	RunE:  runEnv,
}

func init() {
	envCmd.Flags().StringVar(&envColor, "color", "auto", "Colorize output: auto, always, never")
	envCmd.Flags().BoolVar(&envRegimes, "regimes", false, "Apply each regime in turn and report the resulting state")
}

func runEnv(cmd *cobra.Command, args []string) error {
	ctl := fpenv.New()
	color := resolveColor(envColor)

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	initial := ctl.State()
	fmt.Print(formatEnv(ctl.Platform(), ctl.Supported(), ctl.FlushesInputs(), initial, color))
	if !envRegimes || !ctl.Supported() {
		return nil
	}

	showRegimes(os.Stdout, ctl, initial, painter(color))
	return nil
}

// showRegimes applies each regime to env in turn, prints the resulting state,
// then restores initial. A failed restore is reported as a warning.
func showRegimes(w io.Writer, env ports.FloatEnv, initial ports.FloatEnvState, p painter) {
	for _, r := range scenario.Regimes {
		if err := r.Apply(env); err != nil {
			fmt.Fprintln(w, p.paint(colorYellow, fmt.Sprintf("warning: %s: %v", r, err)))
		}
		fmt.Fprintf(w, "  %-11s %s\n", r, env.State())
	}
	if err := env.Restore(initial); err != nil {
		fmt.Fprintln(w, p.paint(colorYellow, fmt.Sprintf("warning: restore: %v", err)))
	}
}
