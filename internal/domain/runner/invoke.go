package runner

import (
	"github.com/corey/svdprobe/internal/domain/matrix"
	"github.com/corey/svdprobe/internal/ports"
)

// Economy builds the economy-mode call the probe always makes: singular values
// only, plus the smaller orthogonal factor written over A instead of into a
// separate buffer. The left factor is requested when rows >= cols, the right
// one otherwise; the other factor is not computed at all.
func Economy[T ports.Real](a *matrix.Dense[T], s *matrix.SingularValues[T]) ports.GesvdCall[T] {
	call := ports.GesvdCall[T]{
		JobU:   ports.JobNone,
		JobVT:  ports.JobNone,
		M:      a.Rows,
		N:      a.Cols,
		A:      a.Data,
		LDA:    a.LD(),
		S:      s.Values(),
		LDU:    a.Rows,
		LDVT:   a.Cols,
		Superb: s.Scratch(),
	}
	if a.Rows >= a.Cols {
		call.JobU = ports.JobOverwrite
	} else {
		call.JobVT = ports.JobOverwrite
	}
	return call
}

// Invoke runs the economy-mode decomposition of a into s and returns the
// routine's status unchanged.
func Invoke[T ports.Real](d ports.Decomposer[T], a *matrix.Dense[T], s *matrix.SingularValues[T]) int {
	return d.Gesvd(Economy(a, s))
}
