//go:build darwin || freebsd || linux

package lapacke

import (
	"errors"
	"fmt"
	"math"
	"runtime"
	"strings"

	"github.com/ebitengine/purego"

	"github.com/corey/svdprobe/internal/ports"
)

// C signatures, lapack_int being a 32-bit int (LP64 interface):
//
//	lapack_int LAPACKE_sgesvd(int matrix_layout, char jobu, char jobvt,
//	        lapack_int m, lapack_int n, float* a, lapack_int lda, float* s,
//	        float* u, lapack_int ldu, float* vt, lapack_int ldvt, float* superb);
type (
	sgesvdFunc func(layout int32, jobu, jobvt byte, m, n int32, a *float32, lda int32, s, u *float32, ldu int32, vt *float32, ldvt int32, superb *float32) int32
	dgesvdFunc func(layout int32, jobu, jobvt byte, m, n int32, a *float64, lda int32, s, u *float64, ldu int32, vt *float64, ldvt int32, superb *float64) int32
)

// Library is a loaded LAPACKE shared library.
type Library struct {
	path   string
	handle uintptr
	sgesvd sgesvdFunc
	dgesvd dgesvdFunc
}

var _ ports.Backend = (*Library)(nil)

// Open dlopens the first candidate that exports both gesvd entry points.
// The errors of every rejected candidate are joined into the returned error.
func Open(candidates []string) (*Library, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("lapacke: no library found (set %s or --library)", EnvLibrary)
	}
	var errs []error
	for _, path := range candidates {
		lib, err := load(path)
		if err == nil {
			return lib, nil
		}
		errs = append(errs, err)
	}
	return nil, fmt.Errorf("lapacke: %w", errors.Join(errs...))
}

func load(path string) (*Library, error) {
	handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, fmt.Errorf("dlopen %s: %w", path, err)
	}
	lib := &Library{path: path, handle: handle}
	for sym, fptr := range map[string]any{symSgesvd: &lib.sgesvd, symDgesvd: &lib.dgesvd} {
		addr, err := purego.Dlsym(handle, sym)
		if err != nil || addr == 0 {
			purego.Dlclose(handle)
			return nil, fmt.Errorf("%s: symbol %s not exported", path, sym)
		}
		purego.RegisterFunc(fptr, addr)
	}
	return lib, nil
}

// Name identifies the backend in reports.
func (l *Library) Name() string { return "lapacke" }

// Path returns the file the library was loaded from.
func (l *Library) Path() string { return l.path }

// Float32 returns the LAPACKE_sgesvd entry point.
func (l *Library) Float32() ports.Decomposer[float32] { return sgesvd{l.sgesvd} }

// Float64 returns the LAPACKE_dgesvd entry point.
func (l *Library) Float64() ports.Decomposer[float64] { return dgesvd{l.dgesvd} }

// Close releases the dlopen handle. Decomposers obtained earlier must not be
// used afterwards.
func (l *Library) Close() error {
	if l.handle == 0 {
		return nil
	}
	err := purego.Dlclose(l.handle)
	l.handle = 0
	return err
}

// String describes the library for diagnostics.
func (l *Library) String() string {
	return fmt.Sprintf("%s (%s)", l.path, strings.Join([]string{symSgesvd, symDgesvd}, ", "))
}

type sgesvd struct{ fn sgesvdFunc }

func (d sgesvd) Gesvd(c ports.GesvdCall[float32]) int {
	if st := precheck(c); st != 0 {
		return st
	}
	info := d.fn(colMajor, byte(c.JobU), byte(c.JobVT), int32(c.M), int32(c.N),
		first(c.A), int32(c.LDA), first(c.S), first(c.U), int32(c.LDU), first(c.VT), int32(c.LDVT), first(c.Superb))
	runtime.KeepAlive(c)
	return int(info)
}

type dgesvd struct{ fn dgesvdFunc }

func (d dgesvd) Gesvd(c ports.GesvdCall[float64]) int {
	if st := precheck(c); st != 0 {
		return st
	}
	info := d.fn(colMajor, byte(c.JobU), byte(c.JobVT), int32(c.M), int32(c.N),
		first(c.A), int32(c.LDA), first(c.S), first(c.U), int32(c.LDU), first(c.VT), int32(c.LDVT), first(c.Superb))
	runtime.KeepAlive(c)
	return int(info)
}

// precheck rejects calls LAPACKE would reject, calls with Go slices too short
// for the routine, and dimensions that do not fit lapack_int.
func precheck[T ports.Real](c ports.GesvdCall[T]) int {
	if st := c.Check(); st != 0 {
		return st
	}
	for i, v := range []int{c.M, c.N, c.LDA, c.LDU, c.LDVT} {
		if v > math.MaxInt32 {
			return -[]int{4, 5, 7, 10, 12}[i]
		}
	}
	return 0
}

// first returns a pointer to s[0], or nil for an empty slice.
func first[T ports.Real](s []T) *T {
	if len(s) == 0 {
		return nil
	}
	return &s[0]
}
