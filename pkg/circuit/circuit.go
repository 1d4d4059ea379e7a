// Package circuit implements circuit assembly (name generation, constant
// propagation, variable-index allocation, partitioning) and the analysis
// driver (DC Newton loop, transient time-stepping, AC sweep) described in
// SPEC_FULL.md. It is the host-facing surface: one Circuit is built from
// a parsed component list and then driven through one or more analyses.
package circuit

import (
	"fmt"

	"github.com/mnasim/spicesim/internal/errs"
	"github.com/mnasim/spicesim/pkg/component"
	"github.com/mnasim/spicesim/pkg/linsys"
)

// Circuit owns the assembled component set, the variable table, and the
// linear system for whichever analysis is currently running.
type Circuit struct {
	components []*component.Component
	byName     map[string]*component.Component
	constants  map[string]float64

	constantVoltages []*component.Component // all VS
	nonLinear        []*component.Component // diodes
	lc               []*component.Component // capacitors and inductors
	modified         map[*component.Component]bool

	vars *VarTable
	ls   *linsys.System
	desc component.Description

	t               float64
	startRecordTime float64
	recordNames     []string
	recordIdx       []int
	timestamps      []float64
	series          [][]float64
}

// New runs circuit assembly once over a parsed component list: name
// generation, uniqueness checking, constant propagation, partitioning,
// and variable-index allocation. The resulting variable table is reused
// by every analysis subsequently run against this Circuit; only the
// linear system itself is rebuilt per analysis call.
func New(components []*component.Component, constants map[string]float64) (*Circuit, error) {
	merged := make(map[string]float64, len(constants)+1)
	for k, v := range constants {
		merged[k] = v
	}
	if _, ok := merged["gnd"]; !ok {
		merged["gnd"] = 0
	}
	for name := range merged {
		if err := component.CheckName(name); err != nil {
			return nil, err
		}
	}

	if err := assignNames(components); err != nil {
		return nil, err
	}
	if err := checkUnique(components); err != nil {
		return nil, err
	}
	if err := propagateConstants(components, merged); err != nil {
		return nil, err
	}

	vars := newVarTable()
	for _, c := range components {
		for _, name := range c.VariableNames() {
			vars.allocate(name)
		}
	}

	byName := make(map[string]*component.Component)
	var constantVoltages, nonLinear, lc []*component.Component
	for _, c := range components {
		if !c.IsAutoNamed() {
			byName[c.Name] = c
		}
		switch c.Kind {
		case component.VoltageSource:
			constantVoltages = append(constantVoltages, c)
		case component.Diode:
			nonLinear = append(nonLinear, c)
		case component.Capacitor, component.Inductor:
			lc = append(lc, c)
		}
	}

	return &Circuit{
		components:       components,
		byName:           byName,
		constants:        merged,
		constantVoltages: constantVoltages,
		nonLinear:        nonLinear,
		lc:               lc,
		modified:         make(map[*component.Component]bool),
		vars:             vars,
	}, nil
}

func assignNames(components []*component.Component) error {
	k := 0
	for _, c := range components {
		if c.Name != "" {
			if err := component.CheckName(c.Name); err != nil {
				return err
			}
		} else {
			c.AssignAutoName(k)
			k++
		}
		c.AssignAuxiliaryNames()
	}
	return nil
}

func checkUnique(components []*component.Component) error {
	seen := make(map[string]bool, len(components))
	for _, c := range components {
		if seen[c.Name] {
			return errs.New(errs.NameError, "duplicate component name %q", c.Name)
		}
		seen[c.Name] = true
	}
	return nil
}

// propagateConstants repeatedly resolves VS components until a fixed
// point, then runs one final resolution pass over every component so
// that non-VS terminals referencing a newly-fixed node get inlined too.
func propagateConstants(components []*component.Component, constants map[string]float64) error {
	for {
		changed := false
		for _, c := range components {
			if c.Kind != component.VoltageSource {
				continue
			}
			ch, err := c.ResolveConstants(constants)
			if err != nil {
				return err
			}
			changed = changed || ch
		}
		if !changed {
			break
		}
	}

	for _, c := range components {
		if _, err := c.ResolveConstants(constants); err != nil {
			return err
		}
	}
	return nil
}

// GetVariable returns the most recently solved value of a node or
// auxiliary-current variable.
func (ckt *Circuit) GetVariable(name string) (float64, error) {
	idx, ok := ckt.vars.Lookup(name)
	if !ok {
		return 0, errs.New(errs.UnknownVariable, "unknown variable %q", name)
	}
	if ckt.ls == nil {
		return 0, errs.New(errs.UnknownVariable, "no analysis has produced a solution yet")
	}
	if ckt.ls.IsComplex() {
		re, _ := ckt.ls.Complex(idx)
		return re, nil
	}
	return ckt.ls.Real(idx), nil
}

// GetComponentForModification returns the named component (or nil) and
// records it in the modified set; the next ContinueTransientSimulation
// call restamps exactly those components before stepping.
func (ckt *Circuit) GetComponentForModification(name string) *component.Component {
	c, ok := ckt.byName[name]
	if !ok {
		return nil
	}
	ckt.modified[c] = true
	return c
}

// DebugPrintVariables prints every variable name and its current index,
// ported from the source's print_all_variables debug helper.
func (ckt *Circuit) DebugPrintVariables() {
	for i := 1; i <= ckt.vars.Size(); i++ {
		fmt.Printf("x[%d] = %s\n", i, ckt.vars.NameAt(i))
	}
}

// DebugPrintEquations prints the current A·x=b system, ported from the
// source's print_equations helper and the teacher's PrintSystem. Complex
// systems print only the real part of each coefficient; AC debugging is
// expected to lean on DebugPrintVariables plus GetVariable instead.
func (ckt *Circuit) DebugPrintEquations() {
	if ckt.ls == nil {
		fmt.Println("(no linear system yet)")
		return
	}
	n := ckt.ls.Size()
	for i := 1; i <= n; i++ {
		fmt.Printf("eq %d (%s):", i, ckt.vars.NameAt(i))
		for j := 1; j <= n; j++ {
			if v := ckt.ls.PeekReal(i, j); v != 0 {
				fmt.Printf(" %+g*%s", v, ckt.vars.NameAt(j))
			}
		}
		fmt.Printf(" = %+g\n", ckt.ls.PeekRHS(i))
	}
}
