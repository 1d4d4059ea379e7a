// Package linsys owns the linear system A·x = b that the circuit engine
// repeatedly stamps and solves, for both the real (DC/transient) and
// complex (AC sweep) scalar fields, backed by the sparse matrix library
// in either a pre-densified ("dense") or lazily-populated ("sparse")
// configuration.
package linsys

import (
	"fmt"

	"github.com/edp1096/sparse"
	"github.com/mnasim/spicesim/internal/errs"
)

// Backing selects whether every (i,j) cell is pre-populated up front
// ("dense") or created lazily as components stamp into it ("sparse").
// Both backings are served by the same underlying solver; see
// SPEC_FULL.md's DOMAIN STACK section for the rationale.
type Backing int

const (
	Dense Backing = iota
	Sparse
)

func (b Backing) String() string {
	if b == Sparse {
		return "sparse"
	}
	return "dense"
}

// ParseBacking maps the host-facing "dense"/"sparse" option string.
func ParseBacking(s string) (Backing, error) {
	switch s {
	case "", "dense":
		return Dense, nil
	case "sparse":
		return Sparse, nil
	default:
		return Dense, errs.New(errs.NetlistSyntaxError, "unknown linear system backend %q", s)
	}
}

// System is the linear system A·x = b for n variables, real or complex.
type System struct {
	n         int
	isComplex bool
	backing   Backing

	matrix *sparse.Matrix
	config *sparse.Configuration

	rhs      []float64 // 1-based; for complex, interleaved [re0 im0 re1 im1 ...]
	rhsImag  []float64 // unused placeholder; config uses interleaved rhs, not separated vectors
	solution []float64
}

// New creates a fresh system: A = 0, b = 0, x undefined.
func New(n int, isComplex bool, backing Backing) (*System, error) {
	config := &sparse.Configuration{
		Real:                    true,
		Complex:                 isComplex,
		SeparatedComplexVectors: false,
		Expandable:              true,
		Translate:               false,
		ModifiedNodal:           true,
		TiesMultiplier:          5,
		PrinterWidth:            140,
		Annotate:                0,
	}

	mat, err := sparse.Create(int64(n), config)
	if err != nil {
		return nil, errs.Wrap(errs.LinearSolveError, err, "creating %s linear system of size %d", backing, n)
	}

	vecSize := n + 1
	if isComplex {
		vecSize *= 2
	}

	s := &System{
		n:         n,
		isComplex: isComplex,
		backing:   backing,
		matrix:    mat,
		config:    config,
		rhs:       make([]float64, vecSize),
		rhsImag:   make([]float64, 1),
		solution:  make([]float64, vecSize),
	}

	if backing == Dense {
		s.densify()
	}

	return s, nil
}

// densify pre-populates every (i,j) cell, mirroring the teacher's
// SetupElements - this is what distinguishes the "dense" backing from
// "sparse" on top of the same underlying matrix structure.
func (s *System) densify() {
	for i := 1; i <= s.n; i++ {
		for j := 1; j <= s.n; j++ {
			s.matrix.GetElement(int64(i), int64(j))
		}
	}
}

func (s *System) Size() int        { return s.n }
func (s *System) IsComplex() bool  { return s.isComplex }
func (s *System) Backing() Backing { return s.backing }

func (s *System) checkIndex(i int) {
	if i < 1 || i > s.n {
		panic(fmt.Sprintf("linsys: index %d out of range for size %d", i, s.n))
	}
}

// AddReal adds value into A[i,j] (1-based). Used for shared,
// incrementally-summed rows.
func (s *System) AddReal(i, j int, value float64) {
	s.checkIndex(i)
	s.checkIndex(j)
	s.matrix.GetElement(int64(i), int64(j)).Real += value
}

// SetReal overwrites A[i,j]. Used for component-exclusive rows.
func (s *System) SetReal(i, j int, value float64) {
	s.checkIndex(i)
	s.checkIndex(j)
	s.matrix.GetElement(int64(i), int64(j)).Real = value
}

// PeekReal reads back A[i,j] without modifying it, for debug printing.
func (s *System) PeekReal(i, j int) float64 {
	s.checkIndex(i)
	s.checkIndex(j)
	return s.matrix.GetElement(int64(i), int64(j)).Real
}

// PeekRHS reads back b[i] (the real part, for complex systems) without
// modifying it, for debug printing.
func (s *System) PeekRHS(i int) float64 {
	s.checkIndex(i)
	if s.isComplex {
		return s.rhs[2*i]
	}
	return s.rhs[i]
}

// AddComplex adds (real, imag) into A[i,j].
func (s *System) AddComplex(i, j int, real, imag float64) {
	s.checkIndex(i)
	s.checkIndex(j)
	e := s.matrix.GetElement(int64(i), int64(j))
	e.Real += real
	e.Imag += imag
}

// SetComplex overwrites A[i,j] with (real, imag).
func (s *System) SetComplex(i, j int, real, imag float64) {
	s.checkIndex(i)
	s.checkIndex(j)
	e := s.matrix.GetElement(int64(i), int64(j))
	e.Real = real
	e.Imag = imag
}

// AddRHS adds value into b[i].
func (s *System) AddRHS(i int, value float64) {
	s.checkIndex(i)
	if s.isComplex {
		s.rhs[2*i] += value
		return
	}
	s.rhs[i] += value
}

// SetRHS overwrites b[i]. For a real system this writes index i only -
// never the whole vector, which is the fix for the source's DC inductor
// bug (see DESIGN.md).
func (s *System) SetRHS(i int, value float64) {
	s.checkIndex(i)
	if s.isComplex {
		s.rhs[2*i] = value
		return
	}
	s.rhs[i] = value
}

// AddComplexRHS adds (real, imag) into b[i] of a complex system.
func (s *System) AddComplexRHS(i int, real, imag float64) {
	s.checkIndex(i)
	s.rhs[2*i] += real
	s.rhs[2*i+1] += imag
}

// SetComplexRHS overwrites b[i] of a complex system.
func (s *System) SetComplexRHS(i int, real, imag float64) {
	s.checkIndex(i)
	s.rhs[2*i] = real
	s.rhs[2*i+1] = imag
}

// Clear resets A and b to zero, keeping the same size and backing.
func (s *System) Clear() {
	s.matrix.Clear()
	for i := range s.rhs {
		s.rhs[i] = 0
	}
	if s.backing == Dense {
		s.densify()
	}
}

// Solve computes x such that A·x = b.
func (s *System) Solve() error {
	if err := s.matrix.Factor(); err != nil {
		return errs.Wrap(errs.LinearSolveError, err, "%s matrix factorization failed", s.backing)
	}

	var err error
	if s.isComplex {
		s.solution, _, err = s.matrix.SolveComplex(s.rhs, s.rhsImag)
		if err != nil {
			return errs.Wrap(errs.LinearSolveError, err, "%s complex solve failed", s.backing)
		}
	} else {
		s.solution, err = s.matrix.Solve(s.rhs)
		if err != nil {
			return errs.Wrap(errs.LinearSolveError, err, "%s solve failed", s.backing)
		}
	}
	return nil
}

// Real returns x[i] of a real system.
func (s *System) Real(i int) float64 {
	s.checkIndex(i)
	return s.solution[i]
}

// Complex returns x[i] (real, imag) of a complex system.
func (s *System) Complex(i int) (float64, float64) {
	s.checkIndex(i)
	return s.solution[2*i], s.solution[2*i+1]
}

// Destroy releases the underlying matrix resources.
func (s *System) Destroy() {
	if s.matrix != nil {
		s.matrix.Destroy()
	}
}
