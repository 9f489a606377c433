package qasm

import (
	"fmt"
	"regexp"
	"strings"

	"qbridge/ext"
)

var nonIdentRegex = regexp.MustCompile(`\W`)

type writer struct {
	defs  strings.Builder
	names map[*ext.Circuit]string
	used  map[string]bool
}

// operandNames maps the operands of the circuit being written to their
// spelling in the output.
type operandNames struct {
	qubit func(ext.Qubit) string
	clbit func(ext.Clbit) string
	// gate bodies allow neither conditions nor non-unitary statements
	inGate bool
}

// Format renders c as OpenQASM 2.0. Compound gates become gate
// definitions; compound instructions with bits are inlined. Constructs
// the language cannot express are written as comments.
func Format(c *ext.Circuit) string {
	w := &writer{names: map[*ext.Circuit]string{}, used: map[string]bool{}}
	names := operandNames{
		qubit: func(q ext.Qubit) string { return q.String() },
		clbit: func(b ext.Clbit) string { return b.String() },
	}

	var body strings.Builder
	for _, in := range c.Data {
		w.instruction(&body, in, names, nil)
	}

	var sb strings.Builder
	sb.WriteString("OPENQASM 2.0;\n")
	sb.WriteString("include \"qelib1.inc\";\n")
	if !isZero(c.GlobalPhase) {
		fmt.Fprintf(&sb, "// globalphase %s\n", c.GlobalPhase)
	}
	sb.WriteString("\n")
	for _, r := range c.QRegs {
		fmt.Fprintf(&sb, "qreg %s[%d];\n", r.Name, r.Size)
	}
	for _, r := range c.CRegs {
		fmt.Fprintf(&sb, "creg %s[%d];\n", r.Name, r.Size)
	}
	if w.defs.Len() > 0 {
		sb.WriteString("\n")
		sb.WriteString(w.defs.String())
	}
	sb.WriteString("\n")
	sb.WriteString(body.String())
	return sb.String()
}

func isZero(p ext.Param) bool {
	return !p.IsSymbolic() && p.Value() == 0
}

func formatParams(ps []ext.Param) string {
	if len(ps) == 0 {
		return ""
	}
	parts := make([]string, len(ps))
	for i, p := range ps {
		parts[i] = p.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func (n operandNames) qubits(qs []ext.Qubit) string {
	parts := make([]string, len(qs))
	for i, q := range qs {
		parts[i] = n.qubit(q)
	}
	return strings.Join(parts, ", ")
}

func unsupported(sb *strings.Builder, what string, in ext.Instruction, names operandNames) {
	fmt.Fprintf(sb, "// %s on %s is not expressible in OpenQASM 2.0\n", what, names.qubits(in.Qubits))
}

// instruction writes one instruction. outer is the condition of an
// enclosing inlined instruction.
func (w *writer) instruction(sb *strings.Builder, in ext.Instruction, names operandNames, outer *ext.Condition) {
	op := in.Op
	cond := in.Condition
	if outer != nil {
		if cond != nil {
			unsupported(sb, "nested condition on "+op.Name, in, names)
			return
		}
		cond = outer
	}
	if cond != nil && names.inGate {
		unsupported(sb, "conditional "+op.Name, in, names)
		return
	}

	prefix := ""
	if cond != nil {
		if cond.Bit != nil {
			prefix = fmt.Sprintf("if(%s==%d) ", names.clbit(*cond.Bit), cond.Value)
		} else {
			prefix = fmt.Sprintf("if(%s==%d) ", cond.Register, cond.Value)
		}
	}

	switch op.Kind {
	case ext.Measure, ext.Reset:
		if names.inGate {
			unsupported(sb, op.Name, in, names)
			return
		}
		if op.Kind == ext.Measure {
			fmt.Fprintf(sb, "%smeasure %s -> %s;\n", prefix, names.qubit(in.Qubits[0]), names.clbit(in.Clbits[0]))
		} else {
			fmt.Fprintf(sb, "%sreset %s;\n", prefix, names.qubit(in.Qubits[0]))
		}
		return
	case ext.Barrier:
		fmt.Fprintf(sb, "barrier %s;\n", names.qubits(in.Qubits))
		return
	case ext.Gate, ext.Compound:
		if op.Definition == nil {
			name := w.declareOpaque(op)
			fmt.Fprintf(sb, "%s%s%s %s;\n", prefix, name, formatParams(op.Params), names.qubits(in.Qubits))
			return
		}
		if op.Definition.NumClbits() == 0 {
			name := w.define(op)
			fmt.Fprintf(sb, "%s%s %s;\n", prefix, name, names.qubits(in.Qubits))
			return
		}
		if names.inGate {
			unsupported(sb, op.Name, in, names)
			return
		}
		w.inline(sb, in, names, cond)
		return
	case ext.MCX, ext.MCXGrayCode, ext.MCXRecursive, ext.MCXVChain:
	default:
		if op.Kind.Variadic() || !op.Kind.Valid() {
			unsupported(sb, op.Name, in, names)
			return
		}
	}

	// Controls firing on |0> are wrapped in X gates.
	var flips []ext.Qubit
	if op.IsControlled() && !op.DefaultCtrlState() {
		if cond != nil {
			unsupported(sb, "conditional open-controlled "+op.Name, in, names)
			return
		}
		for i := 0; i < op.NumCtrlQubits; i++ {
			if op.CtrlState>>uint(i)&1 == 0 {
				flips = append(flips, in.Qubits[i])
			}
		}
	}
	for _, q := range flips {
		fmt.Fprintf(sb, "x %s;\n", names.qubit(q))
	}
	fmt.Fprintf(sb, "%s%s%s %s;\n", prefix, op.Kind, formatParams(op.Params), names.qubits(in.Qubits))
	for _, q := range flips {
		fmt.Fprintf(sb, "x %s;\n", names.qubit(q))
	}
}

// inline writes the definition of a compound instruction in place, its
// operands renamed to the instruction's.
func (w *writer) inline(sb *strings.Builder, in ext.Instruction, names operandNames, cond *ext.Condition) {
	def := in.Op.Definition
	qmap := map[ext.Qubit]string{}
	for i, q := range def.Qubits() {
		qmap[q] = names.qubit(in.Qubits[i])
	}
	cmap := map[ext.Clbit]string{}
	for i, b := range def.Clbits() {
		cmap[b] = names.clbit(in.Clbits[i])
	}
	inner := operandNames{
		qubit: func(q ext.Qubit) string { return qmap[q] },
		clbit: func(b ext.Clbit) string { return cmap[b] },
	}
	fmt.Fprintf(sb, "// %s\n", in.Op.Name)
	if !isZero(def.GlobalPhase) {
		fmt.Fprintf(sb, "// phase %s dropped\n", def.GlobalPhase)
	}
	for _, sub := range def.Data {
		if sub.Condition != nil && sub.Condition.Bit == nil {
			// register conditions name a register of the definition
			unsupported(sb, "register condition inside "+in.Op.Name, sub, inner)
			continue
		}
		w.instruction(sb, sub, inner, cond)
	}
}

// define emits a gate definition for a qubit-only compound operation and
// returns its name. Parameters are already substituted into the body.
func (w *writer) define(op *ext.Operation) string {
	def := op.Definition
	if name, ok := w.names[def]; ok {
		return name
	}
	name := w.fresh(op.Name)
	w.names[def] = name

	formals := map[ext.Qubit]string{}
	var args []string
	for i, q := range def.Qubits() {
		formals[q] = fmt.Sprintf("q%d", i)
		args = append(args, formals[q])
	}
	names := operandNames{
		qubit:  func(q ext.Qubit) string { return formals[q] },
		clbit:  func(b ext.Clbit) string { return b.String() },
		inGate: true,
	}

	var body strings.Builder
	if !isZero(def.GlobalPhase) {
		fmt.Fprintf(&body, "  // phase %s dropped\n", def.GlobalPhase)
	}
	for _, in := range def.Data {
		var line strings.Builder
		w.instruction(&line, in, names, nil)
		for _, l := range strings.SplitAfter(line.String(), "\n") {
			if l != "" {
				body.WriteString("  " + l)
			}
		}
	}
	fmt.Fprintf(&w.defs, "gate %s %s {\n%s}\n", name, strings.Join(args, ", "), body.String())
	return name
}

func (w *writer) declareOpaque(op *ext.Operation) string {
	if w.used[op.Name] {
		return op.Name
	}
	w.used[op.Name] = true
	formals := ""
	if len(op.Params) > 0 {
		ps := make([]string, len(op.Params))
		for i := range ps {
			ps[i] = fmt.Sprintf("p%d", i)
		}
		formals = "(" + strings.Join(ps, ", ") + ")"
	}
	args := make([]string, op.NumQubits)
	for i := range args {
		args[i] = fmt.Sprintf("q%d", i)
	}
	fmt.Fprintf(&w.defs, "opaque %s%s %s;\n", op.Name, formals, strings.Join(args, ", "))
	return op.Name
}

// fresh returns an identifier based on name that clashes with neither a
// library gate nor an earlier definition.
func (w *writer) fresh(name string) string {
	base := nonIdentRegex.ReplaceAllString(name, "_")
	if base == "" || base[0] >= '0' && base[0] <= '9' {
		base = "g_" + base
	}
	candidate := base
	for i := 1; ; i++ {
		_, builtin := ext.GateKindByName(candidate)
		if !builtin && !w.used[candidate] && builtinAliases[candidate] == "" {
			break
		}
		candidate = fmt.Sprintf("%s_%d", base, i)
	}
	w.used[candidate] = true
	return candidate
}
