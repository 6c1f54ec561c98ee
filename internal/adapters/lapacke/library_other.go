//go:build !(darwin || freebsd || linux)

package lapacke

import (
	"errors"
	"runtime"

	"github.com/corey/svdprobe/internal/ports"
)

// Library is unavailable on this platform; Open always fails.
type Library struct{}

var _ ports.Backend = (*Library)(nil)

// Open reports that dynamic loading is not supported here.
func Open(candidates []string) (*Library, error) {
	return nil, errors.New("lapacke: dynamic loading not supported on " + runtime.GOOS)
}

func (l *Library) Name() string                       { return "lapacke" }
func (l *Library) Path() string                       { return "" }
func (l *Library) Float32() ports.Decomposer[float32] { return nil }
func (l *Library) Float64() ports.Decomposer[float64] { return nil }
func (l *Library) Close() error                       { return nil }
