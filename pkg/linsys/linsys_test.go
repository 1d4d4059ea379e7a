package linsys

import (
	"math"
	"testing"
)

func TestSolveRealDense(t *testing.T) {
	// 2x2 system: 2x1 - x2 = 1 ; -x1 + 2x2 = 0  ->  x1=2/3, x2=1/3
	s, err := New(2, false, Dense)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Destroy()

	s.AddReal(1, 1, 2)
	s.AddReal(1, 2, -1)
	s.AddReal(2, 1, -1)
	s.AddReal(2, 2, 2)
	s.AddRHS(1, 1)
	s.AddRHS(2, 0)

	if err := s.Solve(); err != nil {
		t.Fatalf("Solve: %v", err)
	}

	if got, want := s.Real(1), 2.0/3.0; math.Abs(got-want) > 1e-9 {
		t.Errorf("x1 = %v, want %v", got, want)
	}
	if got, want := s.Real(2), 1.0/3.0; math.Abs(got-want) > 1e-9 {
		t.Errorf("x2 = %v, want %v", got, want)
	}

	if r := s.VerifyResidual(); r > 1e-9 {
		t.Errorf("residual too large: %v", r)
	}
}

func TestSolveRealSparseMatchesDense(t *testing.T) {
	build := func(backing Backing) *System {
		s, err := New(3, false, backing)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		s.AddReal(1, 1, 1)
		s.AddReal(2, 2, 1)
		s.AddReal(3, 3, 1)
		s.AddRHS(1, 4)
		s.AddRHS(2, 9)
		s.AddRHS(3, 16)
		if err := s.Solve(); err != nil {
			t.Fatalf("Solve: %v", err)
		}
		return s
	}

	dense := build(Dense)
	sparse := build(Sparse)

	for i := 1; i <= 3; i++ {
		d, sp := dense.Real(i), sparse.Real(i)
		if math.Abs(d-sp) > 1e-9 {
			t.Errorf("index %d: dense=%v sparse=%v differ", i, d, sp)
		}
	}
}

func TestSolveComplex(t *testing.T) {
	s, err := New(1, true, Dense)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Destroy()

	// (2+j1)*x = (4+j2) -> x = 2
	s.SetComplex(1, 1, 2, 1)
	s.SetComplexRHS(1, 4, 2)

	if err := s.Solve(); err != nil {
		t.Fatalf("Solve: %v", err)
	}

	re, im := s.Complex(1)
	if math.Abs(re-2) > 1e-9 || math.Abs(im) > 1e-9 {
		t.Errorf("x = %v+j%v, want 2+j0", re, im)
	}
}

func TestOverwriteExclusiveRow(t *testing.T) {
	s, err := New(1, false, Dense)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Destroy()

	s.AddReal(1, 1, 5)
	s.SetReal(1, 1, 3)
	s.SetRHS(1, 6)

	if err := s.Solve(); err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if got, want := s.Real(1), 2.0; math.Abs(got-want) > 1e-9 {
		t.Errorf("x1 = %v, want %v (overwrite should discard the prior AddReal)", got, want)
	}
}

func TestParseBacking(t *testing.T) {
	cases := []struct {
		in      string
		want    Backing
		wantErr bool
	}{
		{"", Dense, false},
		{"dense", Dense, false},
		{"sparse", Sparse, false},
		{"bogus", Dense, true},
	}
	for _, c := range cases {
		got, err := ParseBacking(c.in)
		if (err != nil) != c.wantErr {
			t.Errorf("ParseBacking(%q) err=%v, wantErr=%v", c.in, err, c.wantErr)
		}
		if err == nil && got != c.want {
			t.Errorf("ParseBacking(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}
