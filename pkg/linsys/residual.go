package linsys

import (
	"gonum.org/v1/gonum/mat"
)

// VerifyResidual reassembles A from the stamped entries and reports
// ‖A·x − b‖ using gonum, independent of the sparse solver's own
// factorization path. Intended for tests, not the hot analysis path -
// it materializes a dense n×n matrix.
func (s *System) VerifyResidual() float64 {
	n := s.n
	data := make([]float64, n*n)
	for i := 1; i <= n; i++ {
		for j := 1; j <= n; j++ {
			data[(i-1)*n+(j-1)] = s.matrix.GetElement(int64(i), int64(j)).Real
		}
	}
	a := mat.NewDense(n, n, data)

	b := mat.NewVecDense(n, nil)
	x := mat.NewVecDense(n, nil)
	for i := 1; i <= n; i++ {
		b.SetVec(i-1, s.rhs[i])
		x.SetVec(i-1, s.solution[i])
	}

	var ax mat.VecDense
	ax.MulVec(a, x)

	var diff mat.VecDense
	diff.SubVec(&ax, b)

	return mat.Norm(&diff, 2)
}
