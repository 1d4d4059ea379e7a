package component

import "github.com/mnasim/spicesim/pkg/linsys"

// Capacitor and inductor share the same current-balance shape and the
// same three-mode (transient/AC/DC) companion-model structure for their
// exclusive row; only the coefficients differ.

func (c *Component) reactiveCurrentBalance(ls *linsys.System) {
	if !c.Node1.Const {
		ls.AddReal(c.idx1, c.idxCur, 1)
	}
	if !c.Node2.Const {
		ls.AddReal(c.idx2, c.idxCur, -1)
	}
}

func (c *Component) zeroExclusiveRow(ls *linsys.System) {
	row := c.idxCur
	if !c.Node1.Const {
		ls.SetReal(row, c.idx1, 0)
	}
	if !c.Node2.Const {
		ls.SetReal(row, c.idx2, 0)
	}
	ls.SetReal(row, row, 0)
	ls.SetRHS(row, 0)
}

func (c *Component) initCapacitor(ls *linsys.System, desc *Description) error {
	c.reactiveCurrentBalance(ls)
	return c.stampCapacitorRow(ls, desc)
}

func (c *Component) updateCapacitor(ls *linsys.System, desc *Description) error {
	return c.stampCapacitorRow(ls, desc)
}

func (c *Component) stampCapacitorRow(ls *linsys.System, desc *Description) error {
	c.zeroExclusiveRow(ls)
	row := c.idxCur

	switch desc.Mode {
	case Transient:
		h := desc.TimeStep / (2 * c.Value)
		addTerm(ls, row, c.Node1, c.idx1, 1)
		addTerm(ls, row, c.Node2, c.idx2, -1)
		ls.AddReal(row, row, -h)
		ls.AddRHS(row, h*c.IState+c.VState)

	case ACSweep:
		beta := desc.Omega * c.Value
		addTermComplex(ls, row, c.Node1, c.idx1, 0, beta)
		addTermComplex(ls, row, c.Node2, c.idx2, 0, -beta)
		ls.AddComplex(row, row, -1, 0)

	case DC:
		ls.AddReal(row, row, 1)
	}
	return nil
}

func (c *Component) updateCapacitorState(ls *linsys.System) {
	v1 := terminalValue(ls, c.Node1, c.idx1)
	v2 := terminalValue(ls, c.Node2, c.idx2)
	c.VState = v1 - v2
	c.IState = ls.Real(c.idxCur)
}

func (c *Component) initInductor(ls *linsys.System, desc *Description) error {
	c.reactiveCurrentBalance(ls)
	return c.stampInductorRow(ls, desc)
}

func (c *Component) updateInductor(ls *linsys.System, desc *Description) error {
	return c.stampInductorRow(ls, desc)
}

func (c *Component) stampInductorRow(ls *linsys.System, desc *Description) error {
	c.zeroExclusiveRow(ls)
	row := c.idxCur

	switch desc.Mode {
	case Transient:
		h := desc.TimeStep / (2 * c.Value)
		addTerm(ls, row, c.Node1, c.idx1, h)
		addTerm(ls, row, c.Node2, c.idx2, -h)
		ls.AddReal(row, row, -1)
		ls.AddRHS(row, -h*c.VState-c.IState)

	case ACSweep:
		// gamma = 1/(j*omega*L) = -j/(omega*L)
		gammaIm := -1.0 / (desc.Omega * c.Value)
		addTermComplex(ls, row, c.Node1, c.idx1, 0, gammaIm)
		addTermComplex(ls, row, c.Node2, c.idx2, 0, -gammaIm)
		ls.AddComplex(row, row, -1, 0)

	case DC:
		addTerm(ls, row, c.Node1, c.idx1, 1)
		addTerm(ls, row, c.Node2, c.idx2, -1)
		// b[i] is 0 apart from constant-terminal terms; only this row's
		// entry is written, never the whole vector (see DESIGN.md's note
		// on the source's DC inductor bug).
	}
	return nil
}

func (c *Component) updateInductorState(ls *linsys.System) {
	v1 := terminalValue(ls, c.Node1, c.idx1)
	v2 := terminalValue(ls, c.Node2, c.idx2)
	c.VState = v1 - v2
	c.IState = ls.Real(c.idxCur)
}
