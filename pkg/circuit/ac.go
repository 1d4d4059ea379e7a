package circuit

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/mnasim/spicesim/internal/errs"
	"github.com/mnasim/spicesim/pkg/component"
	"github.com/mnasim/spicesim/pkg/linsys"
)

// ACSweep solves the circuit's complex frequency response at N points
// between fStart and fEnd, returning the swept frequency grid and the
// complex value of each requested variable at every point.
func (ckt *Circuit) ACSweep(varNames []string, fStart, fEnd float64, n int, logScale bool, backend linsys.Backing, maxIter int, debug bool) ([]float64, map[string][]complex128, error) {
	freqs := make([]float64, n)
	if n == 1 {
		freqs[0] = fStart
	} else if logScale {
		floats.LogSpan(freqs, fStart, fEnd)
	} else {
		floats.Span(freqs, fStart, fEnd)
	}

	idx := make([]int, len(varNames))
	for i, name := range varNames {
		j, ok := ckt.vars.Lookup(name)
		if !ok {
			return nil, nil, errs.New(errs.UnknownVariable, "unknown variable %q", name)
		}
		idx[i] = j
	}

	ls, err := linsys.New(ckt.vars.Size(), true, backend)
	if err != nil {
		return nil, nil, err
	}
	ckt.ls = ls
	ckt.desc = component.Description{Mode: component.ACSweep, Omega: 2 * math.Pi * freqs[0]}

	for _, c := range ckt.components {
		if err := c.InitLinearSystem(ckt.ls, ckt.vars, &ckt.desc); err != nil {
			return nil, nil, err
		}
	}

	out := make(map[string][]complex128, len(varNames))
	for _, name := range varNames {
		out[name] = make([]complex128, 0, n)
	}

	for _, f := range freqs {
		ckt.desc.Omega = 2 * math.Pi * f
		for _, c := range ckt.lc {
			if err := c.UpdateLinearSystem(ckt.ls, ckt.vars, &ckt.desc); err != nil {
				return nil, nil, err
			}
		}

		if err := ckt.solveNonlinear(ckt.desc, maxIter, debug); err != nil {
			return nil, nil, err
		}

		for i, name := range varNames {
			re, im := ckt.ls.Complex(idx[i])
			out[name] = append(out[name], complex(re, im))
		}
	}

	return freqs, out, nil
}
