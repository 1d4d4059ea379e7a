package component

import (
	"math"

	"github.com/mnasim/spicesim/pkg/linsys"
)

// diodeLinearization returns the companion-model parameters for the
// exponential diode i = i0*exp(m*(v-v0)) linearised about v_bias.
func (c *Component) diodeLinearization() (iBias, gD, vOff float64) {
	iBias = c.I0 * math.Exp(c.M*(c.VBias-c.V0))
	gD = c.M * iBias
	vOff = c.VBias - iBias/gD
	return
}

func (c *Component) initDiode(ls *linsys.System, desc *Description) error {
	if !c.Node1.Const {
		ls.AddReal(c.idx1, c.idxCur, 1)
	}
	if !c.Node2.Const {
		ls.AddReal(c.idx2, c.idxCur, -1)
	}
	c.stampDiodeExclusiveRows(ls)
	return nil
}

func (c *Component) updateDiode(ls *linsys.System, desc *Description) error {
	c.stampDiodeExclusiveRows(ls)
	return nil
}

// stampDiodeExclusiveRows rebuilds the two rows only this diode touches:
// the internal-node KCL row and its own branch-current equation. Both
// are fully overwritten every restamp, so every cell that might hold a
// stale value from a prior bias point is zeroed first.
func (c *Component) stampDiodeExclusiveRows(ls *linsys.System) {
	iBias, gD, vOff := c.diodeLinearization()

	rowInt := c.idxInt
	if !c.Node2.Const {
		ls.SetReal(rowInt, c.idx2, 0)
	}
	ls.SetReal(rowInt, c.idxCur, 0)
	ls.SetReal(rowInt, rowInt, 0)
	ls.SetRHS(rowInt, 0)

	ls.AddReal(rowInt, c.idxCur, -1)
	ls.AddReal(rowInt, rowInt, gD)
	addTerm(ls, rowInt, c.Node2, c.idx2, -gD)

	rowCur := c.idxCur
	if !c.Node1.Const {
		ls.SetReal(rowCur, c.idx1, 0)
	}
	ls.SetReal(rowCur, rowInt, 0)
	ls.SetRHS(rowCur, 0)

	ls.AddReal(rowCur, rowInt, -1)
	addTerm(ls, rowCur, c.Node1, c.idx1, 1)
	ls.AddRHS(rowCur, vOff)
}

func (c *Component) diodeBiasError(ls *linsys.System) float64 {
	v1 := terminalValue(ls, c.Node1, c.idx1)
	v2 := terminalValue(ls, c.Node2, c.idx2)
	v := v1 - v2
	i := ls.Real(c.idxCur)
	return c.I0*math.Exp(c.M*(v-c.V0)) - i
}

// updateDiodeState applies the damped bias-point update: the new
// operating voltage lags the solved node voltage by at most 0.3V per
// Newton iteration, which is what keeps the exponential from diverging
// during early iterations far from the true operating point.
func (c *Component) updateDiodeState(ls *linsys.System) {
	v1 := terminalValue(ls, c.Node1, c.idx1)
	v2 := terminalValue(ls, c.Node2, c.idx2)
	v := v1 - v2

	switch {
	case v > c.VBias+0.3:
		c.VBias += 0.3
	case v < c.VBias-0.3:
		c.VBias -= 0.3
	default:
		c.VBias = v
	}
}
