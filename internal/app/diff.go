package app

import (
	"github.com/corey/svdprobe/internal/domain/scenario"
	"github.com/corey/svdprobe/internal/ports"
)

// Diff compares two runs of the same configuration over the sub-scenarios
// both of them ran.
type Diff struct {
	Regressed scenario.Mask // failing now, passing before
	Fixed     scenario.Mask // passing now, failing before
}

// Changed reports whether any sub-scenario flipped.
func (d Diff) Changed() bool {
	return d.Regressed != 0 || d.Fixed != 0
}

// Compare diffs cur against prev. Sub-scenarios skipped in either run are
// left out, so running a regime subset never reads as a fix.
func Compare(prev, cur *ports.RunRecord) Diff {
	both := ran(prev) & ran(cur)
	was, is := scenario.Mask(prev.Mask)&both, scenario.Mask(cur.Mask)&both
	return Diff{
		Regressed: is &^ was,
		Fixed:     was &^ is,
	}
}

// ran returns the mask of sub-scenarios rec actually executed.
func ran(rec *ports.RunRecord) scenario.Mask {
	var m scenario.Mask
	for _, tr := range rec.Results {
		if tr.Skipped {
			continue
		}
		if r, err := scenario.ParseRegime(tr.Regime); err == nil {
			m = m.Set(tr.Precision, r)
		}
	}
	return m
}
