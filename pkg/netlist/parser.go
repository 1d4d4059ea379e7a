// Package netlist decodes the line-oriented circuit description format
// into a pkg/circuit.Circuit: whitespace-tokenized component lines plus
// constant-voltage-reference lines, with engineering-suffix numeric
// values.
package netlist

import (
	"strconv"
	"strings"

	"github.com/mnasim/spicesim/internal/errs"
	"github.com/mnasim/spicesim/pkg/circuit"
	"github.com/mnasim/spicesim/pkg/component"
)

// suffixPowers maps an engineering suffix letter to its power of ten.
// "M" is deliberately 1e9, matching the source's existing behavior
// rather than the industry-standard mega = 1e6 (see SPEC_FULL.md).
var suffixPowers = map[byte]int{
	'T': 12,
	'G': 9,
	'M': 9,
	'k': 3,
	'K': 3,
	'm': -3,
	'u': -6,
	'n': -9,
	'p': -12,
}

func parseValueEnding(value string) (string, int) {
	if len(value) < 1 {
		return value, 0
	}
	last := value[len(value)-1]
	if power, ok := suffixPowers[last]; ok {
		return value[:len(value)-1], power
	}
	return value, 0
}

// removeEnding strips a trailing unit string (case-insensitively) if
// present, e.g. "10kOhm" with ending "ohm" becomes "10k".
func removeEnding(value, ending string) string {
	if len(value) < len(ending) {
		return value
	}
	tail := value[len(value)-len(ending):]
	if strings.EqualFold(tail, ending) {
		return value[:len(value)-len(ending)]
	}
	return value
}

func parseFloatValue(raw string) (float64, error) {
	trimmed, power := parseValueEnding(raw)
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, errs.Wrap(errs.NetlistSyntaxError, err, "failed to parse value %q", raw)
	}
	if power < 0 {
		return f / pow10(-power), nil
	}
	return f * pow10(power), nil
}

func pow10(power int) float64 {
	v := 1.0
	if power >= 0 {
		for i := 0; i < power; i++ {
			v *= 10
		}
		return v
	}
	for i := 0; i < -power; i++ {
		v /= 10
	}
	return v
}

// nodeTerminal wraps a node token; symbolic node names become live
// component.Node terminals, numeric constant propagation later converts
// any that resolve to fixed voltages.
func nodeTerminal(name string) component.Terminal { return component.Node(name) }

type builder struct {
	components []*component.Component
	constants  map[string]float64
}

// Build parses a netlist description into the component list and
// constant map that circuit.New expects.
func Build(text string) ([]*component.Component, map[string]float64, error) {
	b := &builder{constants: make(map[string]float64)}

	for _, rawLine := range strings.Split(text, "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") ||
			strings.HasPrefix(line, ";") || strings.HasPrefix(line, "*") {
			continue
		}

		var err error
		switch {
		case strings.HasPrefix(line, "R "):
			err = b.parseR(line)
		case strings.HasPrefix(line, "VS "):
			err = b.parseVS(line)
		case strings.HasPrefix(line, "VG "):
			err = b.parseVG(line)
		case strings.HasPrefix(line, "D "):
			err = b.parseD(line)
		case strings.HasPrefix(line, "C "):
			err = b.parseC(line)
		case strings.HasPrefix(line, "L "):
			err = b.parseL(line)
		default:
			ok, perr := b.tryParseVoltageConstant(line)
			if perr != nil {
				err = perr
			} else if !ok {
				err = errs.New(errs.NetlistSyntaxError, "unrecognized line %q", line)
			}
		}
		if err != nil {
			return nil, nil, errs.Wrap(errs.NetlistSyntaxError, err, "failed to process line %q", line)
		}
	}

	for name := range b.constants {
		if err := component.CheckName(name); err != nil {
			return nil, nil, err
		}
	}

	return b.components, b.constants, nil
}

// BuildCircuitFromNetlist parses text and assembles the resulting
// circuit in one call.
func BuildCircuitFromNetlist(text string) (*circuit.Circuit, error) {
	components, constants, err := Build(text)
	if err != nil {
		return nil, err
	}
	return circuit.New(components, constants)
}

// parseTwoNodeComponent handles the "MODEL [name] n1 n2 value" shape
// shared by R, VS, and VG.
func parseTwoNodeComponent(tokens []string, unitEnding string) (name, node1, node2 string, value float64, err error) {
	if len(tokens) < 4 || len(tokens) > 5 {
		err = errs.New(errs.NetlistSyntaxError, "incorrect number of arguments")
		return
	}
	base := 1
	if len(tokens) == 5 {
		name = tokens[1]
		base = 2
	}
	node1 = tokens[base]
	node2 = tokens[base+1]
	valueTok := removeEnding(tokens[base+2], unitEnding)
	value, err = parseFloatValue(valueTok)
	return
}

func (b *builder) parseR(line string) error {
	tokens := strings.Fields(line)
	name, n1, n2, value, err := parseTwoNodeComponent(tokens, "ohm")
	if err != nil {
		return err
	}
	c := component.NewResistor(nodeTerminal(n1), nodeTerminal(n2), value)
	c.Name = name
	b.components = append(b.components, c)
	return nil
}

func (b *builder) parseVS(line string) error {
	tokens := strings.Fields(line)
	name, n1, n2, value, err := parseTwoNodeComponent(tokens, "v")
	if err != nil {
		return err
	}
	c := component.NewVoltageSource(nodeTerminal(n1), nodeTerminal(n2), value)
	c.Name = name
	b.components = append(b.components, c)
	return nil
}

func (b *builder) parseVG(line string) error {
	tokens := strings.Fields(line)
	name, n1, n2, value, err := parseTwoNodeComponent(tokens, "v")
	if err != nil {
		return err
	}
	c := component.NewVoltageGenerator(nodeTerminal(n1), nodeTerminal(n2), value)
	c.Name = name
	b.components = append(b.components, c)
	return nil
}

// extractParameters parses a fixed-length run of "name=value" tokens.
func extractParameters(tokens []string) (map[string]float64, error) {
	results := make(map[string]float64, len(tokens))
	for _, tok := range tokens {
		words := strings.SplitN(tok, "=", 2)
		if len(words) != 2 {
			return nil, errs.New(errs.NetlistSyntaxError, "could not split %q into a name=value pair", tok)
		}
		v, err := strconv.ParseFloat(words[1], 64)
		if err != nil {
			return nil, errs.Wrap(errs.NetlistSyntaxError, err, "expecting %q to be a float", words[1])
		}
		results[words[0]] = v
	}
	return results, nil
}

func (b *builder) parseD(line string) error {
	tokens := strings.Fields(line)
	if len(tokens) < 6 || len(tokens) > 7 {
		return errs.New(errs.NetlistSyntaxError, "incorrect number of arguments")
	}
	name := ""
	base := 1
	if len(tokens) == 7 {
		name = tokens[1]
		base = 2
	}
	node1 := tokens[base]
	node2 := tokens[base+1]

	params, err := extractParameters(tokens[base+2 : base+5])
	if err != nil {
		return err
	}
	for _, key := range []string{"i0", "m", "v0"} {
		if _, ok := params[key]; !ok {
			return errs.New(errs.NetlistSyntaxError, "expecting parameter %q", key)
		}
	}

	c := component.NewDiode(nodeTerminal(node1), nodeTerminal(node2), params["i0"], params["m"], params["v0"])
	c.Name = name
	b.components = append(b.components, c)
	return nil
}

func (b *builder) tryParseVoltageConstant(line string) (bool, error) {
	sides := strings.SplitN(line, "=", 2)
	if len(sides) != 2 {
		return false, nil
	}
	name := strings.Fields(sides[0])
	valueTok := strings.Fields(sides[1])
	if len(name) != 1 || len(valueTok) != 1 {
		return false, nil
	}
	value, err := parseFloatValue(removeEnding(valueTok[0], "v"))
	if err != nil {
		return false, err
	}
	b.constants[name[0]] = value
	return true, nil
}

// extractOptionalParameters walks back from the end of tokens collecting
// "name=value" parameters until it finds a token that is not one; it
// returns the index of that last non-parameter token.
func extractOptionalParameters(tokens []string) (int, map[string]float64, error) {
	params := make(map[string]float64)
	for i := len(tokens) - 1; i >= 0; i-- {
		words := strings.SplitN(tokens[i], "=", 2)
		if len(words) != 2 {
			return i, params, nil
		}
		v, err := strconv.ParseFloat(words[1], 64)
		if err != nil {
			return 0, nil, errs.Wrap(errs.NetlistSyntaxError, err, "expecting %q to be a float", words[1])
		}
		params[words[0]] = v
	}
	return 0, params, nil
}

func parseCOrL(line, unit string) (node1, node2 string, value, v0, i0 float64, name string, err error) {
	tokens := strings.Fields(line)
	count, optional, perr := extractOptionalParameters(tokens)
	if perr != nil {
		err = perr
		return
	}
	if v, ok := optional["i0"]; ok {
		i0 = v
	}
	if v, ok := optional["v0"]; ok {
		v0 = v
	}

	if count < 3 || count > 4 {
		err = errs.New(errs.NetlistSyntaxError, "incorrect number of arguments")
		return
	}
	base := 1
	if count == 4 {
		name = tokens[1]
		base = 2
	}
	node1 = tokens[base]
	node2 = tokens[base+1]
	value, err = parseFloatValue(removeEnding(tokens[base+2], unit))
	return
}

func (b *builder) parseC(line string) error {
	n1, n2, value, v0, i0, name, err := parseCOrL(line, "f")
	if err != nil {
		return err
	}
	c := component.NewCapacitor(nodeTerminal(n1), nodeTerminal(n2), value, v0, i0)
	c.Name = name
	b.components = append(b.components, c)
	return nil
}

func (b *builder) parseL(line string) error {
	n1, n2, value, v0, i0, name, err := parseCOrL(line, "h")
	if err != nil {
		return err
	}
	c := component.NewInductor(nodeTerminal(n1), nodeTerminal(n2), value, v0, i0)
	c.Name = name
	b.components = append(b.components, c)
	return nil
}
