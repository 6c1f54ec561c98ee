package ports

// Job is a LAPACK gesvd job code for one orthogonal factor.
type Job byte

const (
	JobAll       Job = 'A' // all columns/rows into U/Vt
	JobStore     Job = 'S' // the leading min(m,n) columns/rows into U/Vt
	JobOverwrite Job = 'O' // the leading min(m,n) columns/rows overwrite A
	JobNone      Job = 'N' // factor not computed
)

// GesvdCall carries the arguments of a column-major gesvd call, mirroring
// LAPACKE_?gesvd(LAPACK_COL_MAJOR, jobu, jobvt, m, n, a, lda, s, u, ldu, vt, ldvt, superb).
// U and VT may be nil when their job is JobNone or JobOverwrite.
type GesvdCall[T Real] struct {
	JobU, JobVT Job
	M, N        int
	A           []T
	LDA         int
	S           []T
	U           []T
	LDU         int
	VT          []T
	LDVT        int
	Superb      []T
}

// Check validates the call the way LAPACKE does before entering the routine,
// plus slice bounds so a foreign routine never reads past a Go buffer. It
// returns 0 or -i where i is the offending LAPACKE argument position
// (layout=1, jobu=2, jobvt=3, m=4, n=5, a=6, lda=7, s=8, u=9, ldu=10,
// vt=11, ldvt=12, superb=13).
func (c GesvdCall[T]) Check() int {
	minmn := min(c.M, c.N)
	uCols := map[Job]int{JobAll: c.M, JobStore: minmn}
	vtRows := map[Job]int{JobAll: c.N, JobStore: minmn}
	switch {
	case !c.JobU.valid():
		return -2
	case !c.JobVT.valid(), c.JobU == JobOverwrite && c.JobVT == JobOverwrite:
		return -3
	case c.M < 0:
		return -4
	case c.N < 0:
		return -5
	case c.LDA < max(1, c.M):
		return -7
	case c.M > 0 && c.N > 0 && len(c.A) < c.LDA*(c.N-1)+c.M:
		return -6
	case len(c.S) < minmn:
		return -8
	case c.LDU < 1 || uCols[c.JobU] > 0 && c.LDU < c.M:
		return -10
	case uCols[c.JobU] > 0 && len(c.U) < c.LDU*(uCols[c.JobU]-1)+c.M:
		return -9
	case c.LDVT < 1 || vtRows[c.JobVT] > 0 && c.LDVT < vtRows[c.JobVT]:
		return -12
	case vtRows[c.JobVT] > 0 && c.N > 0 && len(c.VT) < c.LDVT*(c.N-1)+vtRows[c.JobVT]:
		return -11
	case minmn > 1 && len(c.Superb) < minmn-1:
		return -13
	}
	return 0
}

func (j Job) valid() bool {
	switch j {
	case JobAll, JobStore, JobOverwrite, JobNone:
		return true
	}
	return false
}

// Decomposer is the external SVD routine for one precision. Gesvd returns the
// routine's info status: 0 success, >0 the iterative refinement did not
// converge, <0 argument -status was invalid.
//
// Implementations must not retain the slices after returning.
type Decomposer[T Real] interface {
	Gesvd(call GesvdCall[T]) int
}

// Backend bundles the float32 and float64 entry points of one linear-algebra
// library. Each accessor is typed by its precision, so choosing one is
// resolved at compile time.
type Backend interface {
	Name() string
	Float32() Decomposer[float32]
	Float64() Decomposer[float64]
	Close() error
}
