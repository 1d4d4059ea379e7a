package circuit

import (
	"github.com/mnasim/spicesim/pkg/component"
	"github.com/mnasim/spicesim/pkg/linsys"
)

// DCAnalysis solves the circuit's operating point: every reactive
// element is stamped as its DC companion (capacitor open, inductor
// short) and the diode Newton loop runs to convergence.
func (ckt *Circuit) DCAnalysis(backend linsys.Backing, maxIter int, debug bool) error {
	ls, err := linsys.New(ckt.vars.Size(), false, backend)
	if err != nil {
		return err
	}
	ckt.ls = ls
	ckt.desc = component.Description{Mode: component.DC}

	for _, c := range ckt.components {
		if err := c.InitLinearSystem(ckt.ls, ckt.vars, &ckt.desc); err != nil {
			return err
		}
	}

	return ckt.solveNonlinear(ckt.desc, maxIter, debug)
}
