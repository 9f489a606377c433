// Package qasm reads and writes OpenQASM 2.0 for the external circuit
// model.
package qasm

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/pkg/errors"

	"qbridge/ext"
	"qbridge/sym"
)

// ErrSyntax is returned for source the reader does not understand.
var ErrSyntax = errors.New("qasm syntax error")

// Pre-compiled regexps for statement forms.
var (
	headerRegex      = regexp.MustCompile(`^OPENQASM\s+(\d+)(?:\.\d+)?$`)
	includeRegex     = regexp.MustCompile(`^include\s+"[^"]*"$`)
	regRegex         = regexp.MustCompile(`^(qreg|creg)\s+(\w+)\s*\[\s*(\d+)\s*\]$`)
	measureRegex     = regexp.MustCompile(`^measure\s+(.+?)\s*->\s*(.+)$`)
	resetRegex       = regexp.MustCompile(`^reset\s+(.+)$`)
	barrierRegex     = regexp.MustCompile(`^barrier\s+(.+)$`)
	ifRegex          = regexp.MustCompile(`^if\s*\(\s*(\w+)\s*(?:\[\s*(\d+)\s*\])?\s*==\s*(\d+)\s*\)\s*(.+)$`)
	gateDefRegex     = regexp.MustCompile(`^(gate|opaque)\s+(\w+)\s*(?:\(([^)]*)\))?\s*(.*)$`)
	operandRegex     = regexp.MustCompile(`^(\w+)(?:\s*\[\s*(\d+)\s*\])?$`)
	identRegex       = regexp.MustCompile(`^[A-Za-z_]\w*`)
	globalPhaseRegex = regexp.MustCompile(`^//\s*globalphase\s+(.+)$`)
)

// builtinAliases maps the OpenQASM 2.0 primitives onto library gates.
var builtinAliases = map[string]string{
	"U":  "u3",
	"CX": "cx",
}

// gateDef is a user gate declaration. Opaque gates have no body.
type gateDef struct {
	name    string
	formals []string
	qargs   []string
	body    []statement
	opaque  bool
}

type statement struct {
	line   int
	text   string
	body   string
	braced bool
}

// scope resolves the names used inside a gate body.
type scope struct {
	qubits map[string]ext.Qubit
	params map[string]sym.Expr
}

type parser struct {
	circ   *ext.Circuit
	gates  map[string]*gateDef
	params map[string]*ext.Parameter
}

// Parse reads an OpenQASM 2.0 program. Free identifiers in gate arguments
// become circuit parameters, one per name. A "// globalphase <expr>"
// comment sets the global phase.
func Parse(src string) (*ext.Circuit, error) {
	p := &parser{
		circ:   ext.NewCircuit(0, 0),
		gates:  map[string]*gateDef{},
		params: map[string]*ext.Parameter{},
	}

	stmts, phase, err := split(src)
	if err != nil {
		return nil, err
	}
	if phase != "" {
		e, err := sym.Parse(phase)
		if err != nil {
			return nil, errors.Wrap(err, "parse global phase")
		}
		p.circ.GlobalPhase = p.bind(e)
	}

	for i, st := range stmts {
		if i == 0 {
			m := headerRegex.FindStringSubmatch(st.text)
			if m == nil {
				return nil, errors.Wrapf(ErrSyntax, "line %d: missing OPENQASM header", st.line)
			}
			if m[1] != "2" {
				return nil, errors.Wrapf(ErrSyntax, "line %d: unsupported version %s", st.line, m[1])
			}
			continue
		}
		if err := p.statement(st); err != nil {
			return nil, errors.Wrapf(err, "line %d", st.line)
		}
	}
	return p.circ, nil
}

// split strips comments and cuts src into statements. Gate bodies stay
// attached to their declaration.
func split(src string) ([]statement, string, error) {
	var phase string
	lines := strings.Split(src, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if m := globalPhaseRegex.FindStringSubmatch(trimmed); m != nil {
			phase = strings.TrimSpace(m[1])
		}
		if idx := strings.Index(line, "//"); idx >= 0 {
			lines[i] = line[:idx]
		}
	}
	text := strings.Join(lines, "\n")

	var out []statement
	var sb strings.Builder
	line, start := 1, 1
	pending := false
	flush := func(st statement) {
		if st.text != "" || st.braced {
			out = append(out, st)
		}
		sb.Reset()
		pending = false
	}
	for i := 0; i < len(text); i++ {
		ch := text[i]
		if !pending && !unicode.IsSpace(rune(ch)) {
			start, pending = line, true
		}
		switch ch {
		case '\n':
			line++
			sb.WriteByte(' ')
		case ';':
			flush(statement{line: start, text: strings.TrimSpace(sb.String())})
		case '{':
			end := strings.IndexByte(text[i:], '}')
			if end < 0 {
				return nil, "", errors.Wrapf(ErrSyntax, "line %d: unterminated gate body", start)
			}
			body := text[i+1 : i+end]
			flush(statement{line: start, text: strings.TrimSpace(sb.String()), body: body, braced: true})
			line += strings.Count(body, "\n")
			i += end
		default:
			sb.WriteByte(ch)
		}
	}
	if strings.TrimSpace(sb.String()) != "" {
		return nil, "", errors.Wrapf(ErrSyntax, "line %d: missing ;", start)
	}
	return out, phase, nil
}

func (p *parser) statement(st statement) error {
	line := st.text
	if st.braced || strings.HasPrefix(line, "opaque ") {
		return p.declare(st)
	}
	if includeRegex.MatchString(line) {
		return nil
	}
	if m := regRegex.FindStringSubmatch(line); m != nil {
		size, _ := strconv.Atoi(m[3])
		if m[1] == "qreg" {
			return p.circ.AddQRegister(m[2], size)
		}
		return p.circ.AddCRegister(m[2], size)
	}
	if m := ifRegex.FindStringSubmatch(line); m != nil {
		value, err := strconv.ParseUint(m[3], 10, 64)
		if err != nil {
			return errors.Wrapf(ErrSyntax, "bad condition value %q", m[3])
		}
		opt := ext.IfRegister(m[1], value)
		if m[2] != "" {
			idx, _ := strconv.Atoi(m[2])
			opt = ext.IfBit(ext.C(m[1], idx), value)
		}
		return p.operation(m[4], opt)
	}
	return p.operation(line)
}

// operation handles the statements that may follow a condition.
func (p *parser) operation(line string, opts ...ext.InstructionOption) error {
	if m := measureRegex.FindStringSubmatch(line); m != nil {
		qs, err := p.qubitOperand(m[1])
		if err != nil {
			return err
		}
		cs, err := p.clbitOperand(m[2])
		if err != nil {
			return err
		}
		if len(qs) != len(cs) {
			return errors.Wrapf(ErrSyntax, "measure of %d qubits into %d bits", len(qs), len(cs))
		}
		for i := range qs {
			if err := p.circ.Append(ext.NewGate(ext.Measure), qs[i:i+1], cs[i:i+1], opts...); err != nil {
				return err
			}
		}
		return nil
	}
	if m := resetRegex.FindStringSubmatch(line); m != nil {
		qs, err := p.qubitOperand(m[1])
		if err != nil {
			return err
		}
		for i := range qs {
			if err := p.circ.Append(ext.NewGate(ext.Reset), qs[i:i+1], nil, opts...); err != nil {
				return err
			}
		}
		return nil
	}
	if m := barrierRegex.FindStringSubmatch(line); m != nil {
		if len(opts) > 0 {
			return errors.Wrap(ErrSyntax, "conditional barrier")
		}
		groups, err := p.qubitOperands(m[1], nil)
		if err != nil {
			return err
		}
		var qs []ext.Qubit
		for _, g := range groups {
			qs = append(qs, g...)
		}
		return p.circ.Append(ext.NewBarrier(len(qs)), qs, nil)
	}
	return p.apply(p.circ, nil, line, opts...)
}

// apply parses a gate application into target. Whole-register operands
// broadcast the gate across the register.
func (p *parser) apply(target *ext.Circuit, sc *scope, line string, opts ...ext.InstructionOption) error {
	name, args, rest, err := splitApplication(line)
	if err != nil {
		return err
	}
	params := make([]sym.Expr, len(args))
	for i, a := range args {
		e, err := sym.Parse(a)
		if err != nil {
			return errors.Wrapf(err, "parameter %d of %s", i, name)
		}
		if sc != nil {
			if e, err = e.Subs(sc.params); err != nil {
				return err
			}
		}
		params[i] = e
	}
	groups, err := p.qubitOperands(rest, sc)
	if err != nil {
		return err
	}

	width := 1
	for _, g := range groups {
		if len(g) > 1 {
			if width > 1 && len(g) != width {
				return errors.Wrapf(ErrSyntax, "%s: registers of different sizes", name)
			}
			width = len(g)
		}
	}
	for i := 0; i < width; i++ {
		qs := make([]ext.Qubit, len(groups))
		for j, g := range groups {
			if len(g) == 1 {
				qs[j] = g[0]
			} else {
				qs[j] = g[i]
			}
		}
		op, err := p.gate(name, params, len(qs))
		if err != nil {
			return err
		}
		if err := target.Append(op, qs, nil, opts...); err != nil {
			return err
		}
	}
	return nil
}

// gate builds the operation named name. User declarations shadow the
// standard library.
func (p *parser) gate(name string, params []sym.Expr, nqubits int) (*ext.Operation, error) {
	bound := make([]ext.Param, len(params))
	for i, e := range params {
		bound[i] = p.bind(e)
	}
	if def, ok := p.gates[name]; ok {
		return p.instantiate(def, params, bound)
	}

	if alias, ok := builtinAliases[name]; ok {
		name = alias
	}
	kind, ok := ext.GateKindByName(name)
	if !ok {
		return nil, errors.Wrapf(ErrSyntax, "unknown gate %s", name)
	}
	switch kind {
	case ext.MCX, ext.MCXGrayCode, ext.MCXRecursive, ext.MCXVChain:
		if nqubits < 2 {
			return nil, errors.Wrapf(ErrSyntax, "%s needs a control", name)
		}
		return ext.NewMCX(kind, nqubits-1), nil
	case ext.Measure, ext.Reset, ext.Barrier:
		return nil, errors.Wrapf(ErrSyntax, "%s is not a gate", name)
	}
	if kind.Variadic() {
		return nil, errors.Wrapf(ErrSyntax, "%s cannot be written in OpenQASM 2.0", name)
	}
	if len(bound) != kind.NumParams() {
		return nil, errors.Wrapf(ErrSyntax, "%s takes %d parameters, got %d", name, kind.NumParams(), len(bound))
	}
	return ext.NewGate(kind, bound...), nil
}

// instantiate expands a user gate with the actual parameters substituted
// into its body.
func (p *parser) instantiate(def *gateDef, params []sym.Expr, bound []ext.Param) (*ext.Operation, error) {
	if len(params) != len(def.formals) {
		return nil, errors.Wrapf(ErrSyntax, "%s takes %d parameters, got %d", def.name, len(def.formals), len(params))
	}
	if def.opaque {
		return &ext.Operation{Kind: ext.Gate, Name: def.name, Params: bound, NumQubits: len(def.qargs)}, nil
	}

	body := ext.NewCircuit(len(def.qargs), 0)
	body.Name = def.name
	sc := &scope{
		qubits: make(map[string]ext.Qubit, len(def.qargs)),
		params: make(map[string]sym.Expr, len(def.formals)),
	}
	for i, q := range def.qargs {
		sc.qubits[q] = ext.Q("q", i)
	}
	for i, f := range def.formals {
		sc.params[f] = params[i]
	}
	for _, st := range def.body {
		if m := barrierRegex.FindStringSubmatch(st.text); m != nil {
			groups, err := p.qubitOperands(m[1], sc)
			if err != nil {
				return nil, err
			}
			var qs []ext.Qubit
			for _, g := range groups {
				qs = append(qs, g...)
			}
			if err := body.Append(ext.NewBarrier(len(qs)), qs, nil); err != nil {
				return nil, err
			}
			continue
		}
		if err := p.apply(body, sc, st.text); err != nil {
			return nil, errors.Wrapf(err, "in gate %s", def.name)
		}
	}
	return ext.NewCompoundGate(def.name, body, bound...), nil
}

func (p *parser) declare(st statement) error {
	m := gateDefRegex.FindStringSubmatch(st.text)
	if m == nil {
		return errors.Wrapf(ErrSyntax, "bad gate declaration %q", st.text)
	}
	def := &gateDef{name: m[2], opaque: m[1] == "opaque"}
	if strings.TrimSpace(m[3]) != "" {
		def.formals = splitList(m[3])
	}
	def.qargs = splitList(m[4])
	if len(def.qargs) == 0 {
		return errors.Wrapf(ErrSyntax, "gate %s has no qubits", def.name)
	}
	if def.opaque == st.braced {
		return errors.Wrapf(ErrSyntax, "bad gate declaration %q", st.text)
	}
	for _, s := range strings.Split(st.body, ";") {
		if s = strings.TrimSpace(s); s != "" {
			def.body = append(def.body, statement{line: st.line, text: s})
		}
	}
	if _, ok := p.gates[def.name]; ok {
		return errors.Wrapf(ErrSyntax, "gate %s already declared", def.name)
	}
	p.gates[def.name] = def
	return nil
}

// bind turns an expression into a parameter, creating one circuit
// parameter per free symbol name.
func (p *parser) bind(e sym.Expr) ext.Param {
	var ps []*ext.Parameter
	for _, name := range e.FreeSymbols() {
		prm, ok := p.params[name]
		if !ok {
			prm = ext.NewParameter(name)
			p.params[name] = prm
		}
		ps = append(ps, prm)
	}
	return ext.Bind(e, ps...)
}

func (p *parser) qubitOperand(s string) ([]ext.Qubit, error) {
	groups, err := p.qubitOperands(s, nil)
	if err != nil {
		return nil, err
	}
	if len(groups) != 1 {
		return nil, errors.Wrapf(ErrSyntax, "expected one operand, got %q", s)
	}
	return groups[0], nil
}

// qubitOperands resolves a comma separated operand list. Inside a gate
// body only formal names are allowed.
func (p *parser) qubitOperands(s string, sc *scope) ([][]ext.Qubit, error) {
	var out [][]ext.Qubit
	for _, item := range splitList(s) {
		if sc != nil {
			q, ok := sc.qubits[item]
			if !ok {
				return nil, errors.Wrapf(ErrSyntax, "unknown qubit argument %s", item)
			}
			out = append(out, []ext.Qubit{q})
			continue
		}
		m := operandRegex.FindStringSubmatch(item)
		if m == nil {
			return nil, errors.Wrapf(ErrSyntax, "bad operand %q", item)
		}
		reg, ok := p.circ.QReg(m[1])
		if !ok {
			return nil, errors.Wrapf(ErrSyntax, "unknown quantum register %s", m[1])
		}
		if m[2] != "" {
			idx, _ := strconv.Atoi(m[2])
			out = append(out, []ext.Qubit{ext.Q(reg.Name, idx)})
			continue
		}
		qs := make([]ext.Qubit, reg.Size)
		for i := range qs {
			qs[i] = ext.Q(reg.Name, i)
		}
		out = append(out, qs)
	}
	if len(out) == 0 {
		return nil, errors.Wrap(ErrSyntax, "missing operands")
	}
	return out, nil
}

func (p *parser) clbitOperand(s string) ([]ext.Clbit, error) {
	m := operandRegex.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return nil, errors.Wrapf(ErrSyntax, "bad operand %q", s)
	}
	reg, ok := p.circ.CReg(m[1])
	if !ok {
		return nil, errors.Wrapf(ErrSyntax, "unknown classical register %s", m[1])
	}
	if m[2] != "" {
		idx, _ := strconv.Atoi(m[2])
		return []ext.Clbit{ext.C(reg.Name, idx)}, nil
	}
	cs := make([]ext.Clbit, reg.Size)
	for i := range cs {
		cs[i] = ext.C(reg.Name, i)
	}
	return cs, nil
}

// splitApplication cuts "name(args) operands" into its parts. Arguments
// may nest parentheses.
func splitApplication(line string) (string, []string, string, error) {
	name := identRegex.FindString(line)
	if name == "" {
		return "", nil, "", errors.Wrapf(ErrSyntax, "unrecognised statement %q", line)
	}
	rest := strings.TrimSpace(line[len(name):])
	if !strings.HasPrefix(rest, "(") {
		return name, nil, rest, nil
	}
	depth := 0
	for i, ch := range rest {
		switch ch {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				var args []string
				if inner := strings.TrimSpace(rest[1:i]); inner != "" {
					args = splitTopLevel(inner)
				}
				return name, args, strings.TrimSpace(rest[i+1:]), nil
			}
		}
	}
	return "", nil, "", errors.Wrapf(ErrSyntax, "unbalanced parentheses in %q", line)
}

// splitTopLevel splits on commas outside parentheses.
func splitTopLevel(s string) []string {
	var out []string
	depth, start := 0, 0
	for i, ch := range s {
		switch ch {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	return append(out, strings.TrimSpace(s[start:]))
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
