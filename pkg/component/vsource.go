package component

import "github.com/mnasim/spicesim/pkg/linsys"

// An independent voltage source and a voltage generator share the same
// current-balance and auxiliary-equation stamps (see SPEC_FULL.md §4.2);
// the only behavioral difference is that a VS can be eliminated by
// constant propagation (Disabled) while a VG never is.

func (c *Component) currentBalance(ls *linsys.System) {
	if !c.Node1.Const {
		ls.AddReal(c.idx1, c.idxCur, -1)
	}
	if !c.Node2.Const {
		ls.AddReal(c.idx2, c.idxCur, 1)
	}
}

// stampAuxRow (re)builds the component-exclusive auxiliary equation row
// A[i,v1]=+1, A[i,v2]=-1, b[i]=V, zeroing first since this row is fully
// overwritten on every restamp.
func (c *Component) stampAuxRow(ls *linsys.System) {
	row := c.idxCur
	if !c.Node1.Const {
		ls.SetReal(row, c.idx1, 0)
	}
	if !c.Node2.Const {
		ls.SetReal(row, c.idx2, 0)
	}
	ls.SetRHS(row, 0)

	addTerm(ls, row, c.Node1, c.idx1, 1)
	addTerm(ls, row, c.Node2, c.idx2, -1)
	ls.AddRHS(row, c.Voltage)
}

func (c *Component) initVoltageSource(ls *linsys.System) error {
	if c.Disabled {
		return nil
	}
	c.currentBalance(ls)
	c.stampAuxRow(ls)
	return nil
}

func (c *Component) updateVoltageSource(ls *linsys.System) error {
	if c.Disabled {
		return nil
	}
	// current balance is shared but was stamped once at init and never
	// changes (nodes don't move); only the exclusive row is refreshed.
	c.stampAuxRow(ls)
	return nil
}

func (c *Component) initVoltageGenerator(ls *linsys.System) error {
	c.currentBalance(ls)
	c.stampAuxRow(ls)
	return nil
}

func (c *Component) updateVoltageGenerator(ls *linsys.System) error {
	c.stampAuxRow(ls)
	return nil
}

// SetVoltage changes a live voltage value (host-surface modification
// hook, e.g. a VG cycled between two levels between transient runs).
func (c *Component) SetVoltage(v float64) { c.Voltage = v }

// SetResistance changes a resistor's value; the partial-undo machinery
// in resistor.go picks up the new value on the next UpdateLinearSystem.
func (c *Component) SetResistance(r float64) { c.Resistance = r }
