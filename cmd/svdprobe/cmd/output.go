package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/corey/svdprobe/internal/app"
	"github.com/corey/svdprobe/internal/domain/runner"
	"github.com/corey/svdprobe/internal/domain/scenario"
	"github.com/corey/svdprobe/internal/ports"
)

// ANSI color codes for terminal output.
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
)

// painter wraps text in a color when enabled.
type painter bool

func (p painter) paint(color, s string) string {
	if !p {
		return s
	}
	return color + s + colorReset
}

// formatSummary renders the verdict table and the mask.
//
//	Summary: seed=1490700921 64x785 normal, lapacke (/usr/lib/libopenblas.so.0)
//	  regime      float      double
//	  default     FAILED     passed
//	  noden       passed     passed
//	  noden-rtz   FAILED     FAILED
//	Mask: 49 (float/default, float/noden-rtz, double/noden-rtz)
func formatSummary(out *app.Outcome, library string, color bool) string {
	p := painter(color)
	rep := out.Report
	cfg := rep.Config

	var sb strings.Builder
	backend := out.Record.Backend
	if library != "" {
		backend += " (" + library + ")"
	}
	sb.WriteString(fmt.Sprintf("\n%s seed=%d %dx%d %s, %s\n",
		p.paint(colorBold, "Summary:"), cfg.Seed, cfg.Rows, cfg.Cols, cfg.Sampler, backend))
	sb.WriteString(p.paint(colorGray, fmt.Sprintf("  %-11s %-10s %-10s", "regime", "float", "double")) + "\n")
	for _, pair := range rep.Pairs {
		sb.WriteString(fmt.Sprintf("  %-11s %s %s\n", pair.Regime,
			verdictCell(p, pair, pair.F32), verdictCell(p, pair, pair.F64)))
	}

	maskColor := colorGreen
	if rep.Mask != 0 {
		maskColor = colorRed
	}
	sb.WriteString(fmt.Sprintf("Mask: %s\n", p.paint(maskColor, rep.Mask.String())))
	if rep.Hard {
		sb.WriteString(p.paint(colorRed, "Hard failure: a probe aborted (exit code includes 64)") + "\n")
	}

	for _, pair := range rep.Pairs {
		for _, res := range []*runner.Result{pair.F32, pair.F64} {
			if res != nil && res.Failed() {
				sb.WriteString(fmt.Sprintf("  %s %s/%s: %s\n", p.paint(colorGray, "·"),
					res.Precision.Short(), pair.Regime, res.Reason()))
			}
		}
	}

	if out.Previous != nil {
		sb.WriteString(formatDiff(p, out.Previous, out.Diff))
	}
	for _, w := range rep.Warnings {
		sb.WriteString(p.paint(colorYellow, "warning: "+w) + "\n")
	}
	if out.LedgerErr != nil {
		sb.WriteString(p.paint(colorYellow, fmt.Sprintf("warning: run not recorded: %v", out.LedgerErr)) + "\n")
	}
	return sb.String()
}

func verdictCell(p painter, pair scenario.Pair, res *runner.Result) string {
	switch {
	case pair.Skipped || res == nil:
		return p.paint(colorGray, fmt.Sprintf("%-10s", "skipped"))
	case res.Verdict == runner.Passed:
		return p.paint(colorGreen, fmt.Sprintf("%-10s", "passed"))
	case res.Verdict == runner.Aborted:
		return p.paint(colorRed, fmt.Sprintf("%-10s", "ABORTED"))
	case res.Verdict == runner.GaveUp:
		return p.paint(colorYellow, fmt.Sprintf("%-10s", "GAVE UP"))
	default:
		return p.paint(colorRed, fmt.Sprintf("%-10s", "FAILED"))
	}
}

func formatDiff(p painter, prev *ports.RunRecord, d app.Diff) string {
	if !d.Changed() {
		return p.paint(colorGray, fmt.Sprintf("Unchanged since run #%d", prev.Seq)) + "\n"
	}
	var sb strings.Builder
	if d.Regressed != 0 {
		sb.WriteString(fmt.Sprintf("%s since run #%d: %s\n", p.paint(colorRed, "Regressed"),
			prev.Seq, strings.Join(d.Regressed.Classes(), ", ")))
	}
	if d.Fixed != 0 {
		sb.WriteString(fmt.Sprintf("%s since run #%d: %s\n", p.paint(colorGreen, "Fixed"),
			prev.Seq, strings.Join(d.Fixed.Classes(), ", ")))
	}
	return sb.String()
}

// formatHistory renders ledger records, newest first.
//
//	#12  2026-10-19 14:03  mask 49  lapacke  /usr/lib/libopenblas.so.0
func formatHistory(key string, recs []*ports.RunRecord, color bool) string {
	p := painter(color)
	var sb strings.Builder
	sb.WriteString(p.paint(colorBold, key) + "\n")
	if len(recs) == 0 {
		sb.WriteString("  no runs recorded\n")
		return sb.String()
	}
	for _, r := range recs {
		mask := scenario.Mask(r.Mask)
		maskColor := colorGreen
		if mask != 0 || r.Hard {
			maskColor = colorRed
		}
		hard := ""
		if r.Hard {
			hard = " +hard"
		}
		sb.WriteString(fmt.Sprintf("  %s  %s  %s  %s",
			p.paint(colorCyan, fmt.Sprintf("#%-4d", r.Seq)),
			time.Unix(r.Timestamp, 0).Format("2006-01-02 15:04"),
			p.paint(maskColor, fmt.Sprintf("mask %-2d%s", r.Mask, hard)),
			r.Backend))
		if r.Library != "" {
			sb.WriteString("  " + p.paint(colorGray, r.Library))
		}
		sb.WriteString("\n")
		if classes := mask.Classes(); len(classes) > 0 {
			sb.WriteString("        " + p.paint(colorGray, strings.Join(classes, ", ")) + "\n")
		}
	}
	return sb.String()
}

// formatEnv renders the floating-point environment report.
func formatEnv(platform string, supported, flushInputs bool, state ports.FloatEnvState, color bool) string {
	p := painter(color)
	yesNo := func(b bool) string {
		if b {
			return p.paint(colorGreen, "yes")
		}
		return p.paint(colorYellow, "no")
	}
	var sb strings.Builder
	row := func(label, value string) {
		sb.WriteString(fmt.Sprintf("  %-20s %s\n", label+":", value))
	}
	sb.WriteString(fmt.Sprintf("%s %s\n", p.paint(colorBold, "Platform:"), platform))
	row("controllable", yesNo(supported))
	row("DAZ available", yesNo(flushInputs))
	row("flush-to-zero", yesNo(state.FlushToZero))
	row("denormals-are-zero", yesNo(state.DenormalsAreZero))
	row("rounding", state.Rounding.String())
	row("control register", fmt.Sprintf("%#x", state.Raw))
	sb.WriteString(fmt.Sprintf("Floating-point environment: %s\n", state))
	return sb.String()
}
