package scenario

import (
	"errors"
	"fmt"
	"strings"

	"github.com/corey/svdprobe/internal/ports"
)

// Regime is a floating-point environment the scenario pair runs under.
type Regime uint8

const (
	Default           Regime = iota // denormals enabled, round to nearest
	DenormalsOff                    // flush-to-zero + denormals-are-zero, round to nearest
	DenormalsOffChop                // flush-to-zero + denormals-are-zero, round toward zero
)

// Regimes is the fixed run order. Mask bits follow it.
var Regimes = []Regime{Default, DenormalsOff, DenormalsOffChop}

var regimeNames = map[Regime]string{
	Default:          "default",
	DenormalsOff:     "noden",
	DenormalsOffChop: "noden-rtz",
}

func (r Regime) String() string {
	if n, ok := regimeNames[r]; ok {
		return n
	}
	return fmt.Sprintf("Regime(%d)", uint8(r))
}

// Describe is the long form used in console headers.
func (r Regime) Describe() string {
	switch r {
	case Default:
		return "default environment"
	case DenormalsOff:
		return "denormals disabled"
	case DenormalsOffChop:
		return "denormals disabled and rounding toward zero"
	default:
		return r.String()
	}
}

// Apply puts env into the regime. Every setting is attempted even when an
// earlier one fails; the joined error lists the ones that could not be applied.
func (r Regime) Apply(env ports.FloatEnv) error {
	var errs []error
	switch r {
	case Default:
		errs = append(errs, env.EnableDenormals())
	default:
		errs = append(errs, env.DisableDenormals())
	}
	mode := ports.RoundNearest
	if r == DenormalsOffChop {
		mode = ports.RoundTowardZero
	}
	errs = append(errs, env.SetRoundingMode(mode))
	return errors.Join(errs...)
}

// ParseRegime parses one regime name.
func ParseRegime(name string) (Regime, error) {
	for _, r := range Regimes {
		if regimeNames[r] == name {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown regime %q (want default, noden, noden-rtz)", name)
}

// ParseRegimes parses a comma-separated subset such as "default,noden-rtz".
// The result keeps the fixed run order and drops duplicates.
func ParseRegimes(s string) ([]Regime, error) {
	want := make(map[Regime]bool)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		r, err := ParseRegime(part)
		if err != nil {
			return nil, err
		}
		want[r] = true
	}
	if len(want) == 0 {
		return nil, fmt.Errorf("no regimes selected")
	}
	var out []Regime
	for _, r := range Regimes {
		if want[r] {
			out = append(out, r)
		}
	}
	return out, nil
}
