package component

import "github.com/mnasim/spicesim/pkg/linsys"

// stampConductance applies the standard two-terminal conductance stamp:
// +g on each variable terminal's diagonal, -g cross terms between two
// variable terminals, and the constant-terminal case moving its
// contribution to the other terminal's RHS entry (addTerm already
// applies the sign flip).
func (c *Component) stampConductance(ls *linsys.System, g float64) {
	if !c.Node1.Const {
		addTerm(ls, c.idx1, c.Node1, c.idx1, g)
		addTerm(ls, c.idx1, c.Node2, c.idx2, -g)
	}
	if !c.Node2.Const {
		addTerm(ls, c.idx2, c.Node2, c.idx2, g)
		addTerm(ls, c.idx2, c.Node1, c.idx1, -g)
	}
}

func (c *Component) initResistor(ls *linsys.System) error {
	g := 1.0 / c.Resistance
	c.stampConductance(ls, g)
	c.oldResistance = c.Resistance
	return nil
}

func (c *Component) updateResistor(ls *linsys.System) error {
	oldG := 1.0 / c.oldResistance
	c.stampConductance(ls, -oldG)
	newG := 1.0 / c.Resistance
	c.stampConductance(ls, newG)
	c.oldResistance = c.Resistance
	return nil
}
