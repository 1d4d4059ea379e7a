package circuit

import (
	"math"

	"github.com/mnasim/spicesim/internal/errs"
	"github.com/mnasim/spicesim/pkg/component"
)

// solutionNorm is the sum of magnitudes of the current solution vector,
// real or complex, used to scale the Newton convergence tolerance.
func (ckt *Circuit) solutionNorm() float64 {
	sum := 0.0
	n := ckt.ls.Size()
	if ckt.ls.IsComplex() {
		for i := 1; i <= n; i++ {
			re, im := ckt.ls.Complex(i)
			sum += math.Hypot(re, im)
		}
	} else {
		for i := 1; i <= n; i++ {
			sum += math.Abs(ckt.ls.Real(i))
		}
	}
	return sum
}

// solveNonlinear drives the damped Newton-Raphson loop over the
// circuit's diodes. A circuit with no diodes converges on the initial
// solve. desc carries the analysis mode (DC/Transient/ACSweep) that the
// already-stamped linear system corresponds to.
func (ckt *Circuit) solveNonlinear(desc component.Description, maxIter int, debug bool) error {
	if err := ckt.ls.Solve(); err != nil {
		return err
	}
	if debug {
		ckt.DebugPrintVariables()
	}

	for iter := 0; iter < maxIter; iter++ {
		biasErr := 0.0
		for _, d := range ckt.nonLinear {
			biasErr += math.Abs(d.CalculateDCBiasError(ckt.ls))
		}

		norm := ckt.solutionNorm()
		tol := 1e-6
		if scaled := 1e-3 * norm; scaled > tol {
			tol = scaled
		}
		if biasErr < tol {
			return nil
		}

		for _, d := range ckt.nonLinear {
			d.UpdateState(ckt.ls, ckt.vars)
			if err := d.UpdateLinearSystem(ckt.ls, ckt.vars, &desc); err != nil {
				return err
			}
		}
		if err := ckt.ls.Solve(); err != nil {
			return err
		}
		if debug {
			ckt.DebugPrintVariables()
		}
	}

	return errs.New(errs.NonConvergence, "Newton iteration did not converge within %d iterations", maxIter)
}
