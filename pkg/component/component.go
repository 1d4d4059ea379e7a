// Package component implements the sum type of circuit element variants
// (Resistor, IndependentVoltageSource, VoltageGenerator, Diode,
// Capacitor, Inductor) and their stamping contracts into a linear
// system. A single tagged struct is used instead of the dynamic-dispatch
// interface hierarchy an object-oriented original would reach for: the
// stamping code below switches on Kind, which keeps the set of variants
// exhaustive at compile time and avoids a per-device allocation.
package component

import (
	"fmt"
	"math"

	"github.com/mnasim/spicesim/internal/errs"
	"github.com/mnasim/spicesim/pkg/linsys"
)

// Kind discriminates the six component variants.
type Kind int

const (
	Resistor Kind = iota
	VoltageSource
	VoltageGenerator
	Diode
	Capacitor
	Inductor
)

func (k Kind) String() string {
	switch k {
	case Resistor:
		return "R"
	case VoltageSource:
		return "VS"
	case VoltageGenerator:
		return "VG"
	case Diode:
		return "D"
	case Capacitor:
		return "C"
	case Inductor:
		return "L"
	default:
		return "?"
	}
}

// Terminal is one end of a two-terminal component: either a symbolic
// node name (a live unknown) or a fixed numeric voltage.
type Terminal struct {
	Name  string
	Const bool
	Value float64
}

// Node constructs a symbolic (variable) terminal.
func Node(name string) Terminal { return Terminal{Name: name} }

// Fixed constructs a constant-voltage terminal.
func Fixed(name string, value float64) Terminal {
	return Terminal{Name: name, Const: true, Value: value}
}

func (t Terminal) String() string {
	if t.Const {
		return fmt.Sprintf("%s(=%g)", t.Name, t.Value)
	}
	return t.Name
}

// Vars resolves a variable name to its index for the current analysis
// run. Implemented by pkg/circuit's variable table; declared here so
// this package does not need to import it.
type Vars interface {
	Index(name string) int
}

// Component is the tagged union holding state for every variant. Only
// the fields relevant to Kind are meaningful; this mirrors the source's
// per-class field sets without the allocation and dispatch overhead of
// one struct type per kind.
type Component struct {
	Kind Kind
	Name string // "" until name generation runs; "$k" for auto-generated

	Node1, Node2 Terminal

	// Resistor
	Resistance    float64
	oldResistance float64

	// VS / VG
	Voltage  float64
	Disabled bool // VS only; always false for VG

	// Diode
	I0, M, V0 float64
	VBias     float64 // operating-point state

	// Capacitor / Inductor
	Value  float64 // farads or henries
	VState float64 // v_cap or v_L
	IState float64 // i_cap or i_L

	// Auxiliary names, assigned once names are finalized.
	CurrentVar   string // VS, VG, Diode, Capacitor, Inductor
	InternalNode string // Diode only

	// Cached resolved indices for the current analysis run, set by the
	// circuit assembly pass. -1 means "not applicable / constant".
	idx1, idx2, idxCur, idxInt int
}

// NewResistor builds an unnamed resistor between n1 and n2.
func NewResistor(n1, n2 Terminal, resistance float64) *Component {
	return &Component{Kind: Resistor, Node1: n1, Node2: n2, Resistance: resistance}
}

// NewVoltageSource builds an unnamed independent voltage source.
func NewVoltageSource(n1, n2 Terminal, voltage float64) *Component {
	return &Component{Kind: VoltageSource, Node1: n1, Node2: n2, Voltage: voltage}
}

// NewVoltageGenerator builds an unnamed voltage generator (never
// eliminated by constant propagation).
func NewVoltageGenerator(n1, n2 Terminal, voltage float64) *Component {
	return &Component{Kind: VoltageGenerator, Node1: n1, Node2: n2, Voltage: voltage}
}

// NewDiode builds an unnamed diode with i = i0*exp(m*(v-v0)).
func NewDiode(n1, n2 Terminal, i0, m, v0 float64) *Component {
	return &Component{Kind: Diode, Node1: n1, Node2: n2, I0: i0, M: m, V0: v0, VBias: v0}
}

// NewCapacitor builds an unnamed capacitor with initial state.
func NewCapacitor(n1, n2 Terminal, capacitance, v0, i0 float64) *Component {
	return &Component{Kind: Capacitor, Node1: n1, Node2: n2, Value: capacitance, VState: v0, IState: i0}
}

// NewInductor builds an unnamed inductor with initial state.
func NewInductor(n1, n2 Terminal, inductance, v0, i0 float64) *Component {
	return &Component{Kind: Inductor, Node1: n1, Node2: n2, Value: inductance, VState: v0, IState: i0}
}

// CheckName validates a user-supplied component or constant name.
func CheckName(name string) error {
	if len(name) == 0 {
		return errs.New(errs.NameError, "empty name")
	}
	if name[0] == '$' {
		return errs.New(errs.NameError, "name %q may not start with '$'", name)
	}
	for _, r := range name {
		if r == '.' {
			return errs.New(errs.NameError, "name %q may not contain '.'", name)
		}
	}
	return nil
}

// AssignAutoName assigns "$k" if the component has no user-given name.
func (c *Component) AssignAutoName(k int) {
	if c.Name == "" {
		c.Name = fmt.Sprintf("$%d", k)
	}
}

// IsAutoNamed reports whether this component's name was auto-generated
// and therefore must be excluded from the components table.
func (c *Component) IsAutoNamed() bool {
	return len(c.Name) > 0 && c.Name[0] == '$'
}

// AssignAuxiliaryNames derives the auxiliary current/internal-node
// variable names from the (by now finalized) component name.
func (c *Component) AssignAuxiliaryNames() {
	switch c.Kind {
	case VoltageSource, VoltageGenerator, Capacitor, Inductor:
		c.CurrentVar = c.Name + ".current"
	case Diode:
		c.CurrentVar = c.Name + ".current"
		c.InternalNode = c.Name + ".internal_node"
	}
}

// ResolveConstants inlines any terminal whose symbolic name has since
// become a known constant, and (VS only) attempts to eliminate the
// component when exactly one terminal remains symbolic. It returns
// whether anything changed, so the assembly loop can iterate to a
// fixed point; both bases on which this is grounded (the Python
// original's base-class False and the VS override's possible implicit
// None) are modeled uniformly as returning false for "no change".
func (c *Component) ResolveConstants(constants map[string]float64) (bool, error) {
	changed := false

	if !c.Node1.Const {
		if v, ok := constants[c.Node1.Name]; ok {
			c.Node1 = Fixed(c.Node1.Name, v)
			changed = true
		}
	}
	if !c.Node2.Const {
		if v, ok := constants[c.Node2.Name]; ok {
			c.Node2 = Fixed(c.Node2.Name, v)
			changed = true
		}
	}

	if c.Kind != VoltageSource || c.Disabled {
		return changed, nil
	}

	switch {
	case c.Node1.Const && c.Node2.Const:
		if math.Abs((c.Node1.Value-c.Node2.Value)-c.Voltage) > 1e-6 {
			return changed, errs.New(errs.InconsistentConstants,
				"voltage source %q: %g - %g != %g (declared value)",
				c.Name, c.Node1.Value, c.Node2.Value, c.Voltage)
		}
		c.Disabled = true
		return true, nil

	case c.Node1.Const && !c.Node2.Const:
		value := c.Node1.Value - c.Voltage // node1 - value = node2
		constants[c.Node2.Name] = value
		c.Node2 = Fixed(c.Node2.Name, value)
		c.Disabled = true
		return true, nil

	case !c.Node1.Const && c.Node2.Const:
		value := c.Node2.Value + c.Voltage // node1 - node2 = value
		constants[c.Node1.Name] = value
		c.Node1 = Fixed(c.Node1.Name, value)
		c.Disabled = true
		return true, nil

	default:
		return changed, nil
	}
}

// VariableNames returns, in the order the variable table should see
// them, every variable name this component introduces: its non-constant
// node terminals plus any auxiliary current/internal-node variables.
func (c *Component) VariableNames() []string {
	var names []string
	if c.Kind == VoltageSource && c.Disabled {
		return nil
	}

	if !c.Node1.Const {
		names = append(names, c.Node1.Name)
	}
	if !c.Node2.Const {
		names = append(names, c.Node2.Name)
	}

	switch c.Kind {
	case VoltageSource, VoltageGenerator, Capacitor, Inductor:
		names = append(names, c.CurrentVar)
	case Diode:
		names = append(names, c.CurrentVar, c.InternalNode)
	}
	return names
}

// ResolveIndices caches the matrix indices this component will use for
// the current analysis run.
func (c *Component) ResolveIndices(vars Vars) {
	c.idx1, c.idx2, c.idxCur, c.idxInt = -1, -1, -1, -1
	if !c.Node1.Const {
		c.idx1 = vars.Index(c.Node1.Name)
	}
	if !c.Node2.Const {
		c.idx2 = vars.Index(c.Node2.Name)
	}
	if c.CurrentVar != "" && !(c.Kind == VoltageSource && c.Disabled) {
		c.idxCur = vars.Index(c.CurrentVar)
	}
	if c.InternalNode != "" {
		c.idxInt = vars.Index(c.InternalNode)
	}
}

// addTerm adds coeff into the row's entry for terminal t (variable
// case) or moves coeff*value to the RHS with the opposite sign
// (constant case) - the standard MNA "move a known column to b" rule.
func addTerm(ls *linsys.System, row int, t Terminal, idx int, coeff float64) {
	if !t.Const {
		ls.AddReal(row, idx, coeff)
		return
	}
	ls.AddRHS(row, -coeff*t.Value)
}

func addTermComplex(ls *linsys.System, row int, t Terminal, idx int, coeffRe, coeffIm float64) {
	if !t.Const {
		ls.AddComplex(row, idx, coeffRe, coeffIm)
		return
	}
	ls.AddComplexRHS(row, -coeffRe*t.Value, -coeffIm*t.Value)
}

// InitLinearSystem stamps this component into a freshly-zeroed system.
func (c *Component) InitLinearSystem(ls *linsys.System, vars Vars, desc *Description) error {
	c.ResolveIndices(vars)
	switch c.Kind {
	case Resistor:
		return c.initResistor(ls)
	case VoltageSource:
		return c.initVoltageSource(ls)
	case VoltageGenerator:
		return c.initVoltageGenerator(ls)
	case Diode:
		return c.initDiode(ls, desc)
	case Capacitor:
		return c.initCapacitor(ls, desc)
	case Inductor:
		return c.initInductor(ls, desc)
	default:
		return fmt.Errorf("component: unknown kind %v", c.Kind)
	}
}

// UpdateLinearSystem refreshes this component's contribution to an
// already-stamped system (value change, new bias point, new time step
// or frequency).
func (c *Component) UpdateLinearSystem(ls *linsys.System, vars Vars, desc *Description) error {
	c.ResolveIndices(vars)
	switch c.Kind {
	case Resistor:
		return c.updateResistor(ls)
	case VoltageSource:
		return c.updateVoltageSource(ls)
	case VoltageGenerator:
		return c.updateVoltageGenerator(ls)
	case Diode:
		return c.updateDiode(ls, desc)
	case Capacitor:
		return c.updateCapacitor(ls, desc)
	case Inductor:
		return c.updateInductor(ls, desc)
	default:
		return fmt.Errorf("component: unknown kind %v", c.Kind)
	}
}

// UpdateState records post-solve state: the diode's damped bias point,
// or the capacitor/inductor's (v, i) pair.
func (c *Component) UpdateState(ls *linsys.System, vars Vars) {
	switch c.Kind {
	case Diode:
		c.updateDiodeState(ls)
	case Capacitor:
		c.updateCapacitorState(ls)
	case Inductor:
		c.updateInductorState(ls)
	}
}

// CalculateDCBiasError returns the signed current residual used by the
// Newton convergence test. Only diodes are nonlinear in this engine.
func (c *Component) CalculateDCBiasError(ls *linsys.System) float64 {
	if c.Kind != Diode {
		return 0
	}
	return c.diodeBiasError(ls)
}

// terminalValue reads a terminal's voltage out of the solved vector
// (constant terminals read back their fixed value).
func terminalValue(ls *linsys.System, t Terminal, idx int) float64 {
	if t.Const {
		return t.Value
	}
	return ls.Real(idx)
}
