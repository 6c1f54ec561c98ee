package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	fsw "github.com/corey/svdprobe/internal/adapters/fsnotify"
	"github.com/corey/svdprobe/internal/app"
	"github.com/corey/svdprobe/internal/domain/scenario"
	"github.com/spf13/cobra"
)

var watchFlags probeFlags

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-run the probes whenever the LAPACKE library changes",
	Long: "Resolves the LAPACKE library once, runs the probes, and runs them again in a fresh\n" +
		"process each time the library file (or its symlink target) is rewritten or replaced.\n" +
		"A loaded shared library cannot be swapped in place, hence the child process.",
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchFlags.registerConfig(watchCmd)
	watchFlags.registerRun(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if watchFlags.backend != app.BackendLAPACKE {
		return fmt.Errorf("watch needs the %s backend", app.BackendLAPACKE)
	}
	opts, err := watchFlags.options(nil)
	if err != nil {
		return err
	}
	backend, lib, err := app.OpenBackend(opts)
	if err != nil {
		return err
	}
	backend.Close()

	exe, err := os.Executable()
	if err != nil {
		return err
	}
	childArgs := append([]string{"run", "--library=" + lib}, passthrough(cmd, "library")...)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := fsw.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Stop()

	trigger := make(chan struct{}, 1)
	if err := w.WatchFile(lib, func(string) {
		select {
		case trigger <- struct{}{}:
		default: // a run is already queued
		}
	}); err != nil {
		return fmt.Errorf("watch %s: %w", lib, err)
	}

	p := painter(resolveColor(watchFlags.color))
	fmt.Printf("%s %s (Ctrl-C to stop)\n", p.paint(colorBold, "Watching"), lib)
	last := runChild(ctx, p, exe, childArgs, -1)
	for {
		select {
		case <-trigger:
			fmt.Printf("\n%s %s changed at %s\n", p.paint(colorCyan, "⟳"), lib, time.Now().Format("15:04:05"))
			last = runChild(ctx, p, exe, childArgs, last)
		case <-ctx.Done():
			fmt.Println()
			return nil
		}
	}
}

// runChild runs one probe process and reports its exit code, highlighting
// a change from the previous code (-1 for none).
func runChild(ctx context.Context, p painter, exe string, args []string, prev int) int {
	child := exec.CommandContext(ctx, exe, args...)
	child.Stdout, child.Stderr = os.Stdout, os.Stderr

	code := 0
	if err := child.Run(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Println(p.paint(colorRed, fmt.Sprintf("run failed: %v", err)))
			return prev
		}
		code = exitErr.ExitCode()
	}
	if ctx.Err() != nil {
		return prev
	}

	status := fmt.Sprintf("exit %d: %s", code, scenario.Mask(code&int(scenario.AllClasses)))
	switch {
	case prev >= 0 && code != prev:
		fmt.Println(p.paint(colorYellow, fmt.Sprintf("%s (was %d)", status, prev)))
	case code == 0:
		fmt.Println(p.paint(colorGreen, status))
	default:
		fmt.Println(p.paint(colorRed, status))
	}
	return code
}
