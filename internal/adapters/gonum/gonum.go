// Package gonum implements ports.Backend on gonum's pure-Go LAPACK, a
// reference decomposer that needs no native library.
//
// gonum's routines are row-major. A column-major m×n buffer with leading
// dimension lda is, byte for byte, the row-major n×m transpose, and the SVD
// of the transpose swaps the roles of U and Vᵀ. Each call is therefore
// forwarded with the dimensions, the job codes and the U/VT buffers swapped.
// The float32 entry point promotes to float64 and rounds back, so it shares
// the float64 algorithm but still stores single-precision results.
package gonum

import (
	"github.com/corey/svdprobe/internal/ports"
	"gonum.org/v1/gonum/lapack"
	"gonum.org/v1/gonum/lapack/gonum"
)

// Backend is the gonum reference backend. The zero value is ready to use.
type Backend struct {
	impl gonum.Implementation
}

var _ ports.Backend = (*Backend)(nil)

// New returns a gonum backend.
func New() *Backend {
	return &Backend{}
}

func (b *Backend) Name() string { return "gonum" }

func (b *Backend) Float32() ports.Decomposer[float32] { return single{b} }

func (b *Backend) Float64() ports.Decomposer[float64] { return double{b} }

func (b *Backend) Close() error { return nil }

type double struct{ b *Backend }

func (d double) Gesvd(c ports.GesvdCall[float64]) int {
	if st := c.Check(); st != 0 {
		return st
	}
	return d.b.gesvd(c)
}

type single struct{ b *Backend }

func (d single) Gesvd(c ports.GesvdCall[float32]) int {
	if st := c.Check(); st != 0 {
		return st
	}
	wide := ports.GesvdCall[float64]{
		JobU: c.JobU, JobVT: c.JobVT, M: c.M, N: c.N,
		A: widen(c.A), LDA: c.LDA,
		S: widen(c.S),
		U: widen(c.U), LDU: c.LDU,
		VT: widen(c.VT), LDVT: c.LDVT,
		Superb: widen(c.Superb),
	}
	st := d.b.gesvd(wide)
	narrow(c.A, wide.A)
	narrow(c.S, wide.S)
	narrow(c.U, wide.U)
	narrow(c.VT, wide.VT)
	narrow(c.Superb, wide.Superb)
	return st
}

// gesvd runs a validated column-major call through the row-major routine.
// It returns 0 on convergence, otherwise the number of superdiagonals of
// the intermediate bidiagonal form that did not converge to zero, which
// the routine leaves in work[1:minmn] and which are copied to Superb.
//
// gonum does not implement overwrite mode. An overwritten factor is stored
// into scratch and copied over A once the routine returns.
func (b *Backend) gesvd(c ports.GesvdCall[float64]) int {
	m, n := c.N, c.M
	jobU, jobVT := svdJob(c.JobVT), svdJob(c.JobU)
	u, ldu := c.VT, c.LDVT
	vt, ldvt := c.U, c.LDU
	minmn := min(m, n)
	if minmn == 0 {
		return 0
	}

	var (
		scratch []float64
		rows    int // of scratch, copied over the leading rows of A
		width   int
	)
	switch {
	case jobU == lapack.SVDOverwrite:
		scratch, rows, width = make([]float64, m*minmn), m, minmn
		jobU, u, ldu = lapack.SVDStore, scratch, minmn
	case jobVT == lapack.SVDOverwrite:
		scratch, rows, width = make([]float64, minmn*n), minmn, n
		jobVT, vt, ldvt = lapack.SVDStore, scratch, n
	}

	query := make([]float64, 1)
	b.impl.Dgesvd(jobU, jobVT, m, n, c.A, c.LDA, c.S, u, ldu, vt, ldvt, query, -1)
	work := make([]float64, max(int(query[0]), 1))

	ok := b.impl.Dgesvd(jobU, jobVT, m, n, c.A, c.LDA, c.S, u, ldu, vt, ldvt, work, len(work))
	for i := range rows {
		copy(c.A[i*c.LDA:i*c.LDA+width], scratch[i*width:(i+1)*width])
	}
	if ok {
		return 0
	}
	unconverged := 0
	for i := 1; i < minmn; i++ {
		if i-1 < len(c.Superb) {
			c.Superb[i-1] = work[i]
		}
		if work[i] != 0 {
			unconverged++
		}
	}
	return max(unconverged, 1)
}

func svdJob(j ports.Job) lapack.SVDJob {
	switch j {
	case ports.JobAll:
		return lapack.SVDAll
	case ports.JobStore:
		return lapack.SVDStore
	case ports.JobOverwrite:
		return lapack.SVDOverwrite
	default:
		return lapack.SVDNone
	}
}

func widen(s []float32) []float64 {
	if s == nil {
		return nil
	}
	out := make([]float64, len(s))
	for i, v := range s {
		out[i] = float64(v)
	}
	return out
}

func narrow(dst []float32, src []float64) {
	for i, v := range src {
		dst[i] = float32(v)
	}
}
