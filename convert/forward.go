package convert

import (
	"math"
	"math/cmplx"
	"strconv"

	"github.com/pkg/errors"

	"qbridge/ext"
	"qbridge/native"
	"qbridge/sym"
)

// maxImagCoeff is the largest imaginary part of a Pauli coefficient
// treated as rounding noise.
const maxImagCoeff = 1e-12

type forwardBuilder struct {
	conv   *Converter
	bridge ParamBridge
	depth  int
	circ   *native.Circuit
	qubits map[ext.Qubit]native.UnitID
	bits   map[ext.Clbit]native.UnitID
	cregs  map[string][]native.UnitID
}

func (c *Converter) toNative(qc *ext.Circuit, depth int) (*native.Circuit, error) {
	if err := c.checkDepth(qc.Name, depth); err != nil {
		return nil, err
	}
	b := &forwardBuilder{
		conv:   c,
		bridge: ParamBridge{PreserveUUID: c.cfg.PreserveParamUUID},
		depth:  depth,
		circ:   &native.Circuit{Name: qc.Name},
		qubits: map[ext.Qubit]native.UnitID{},
		bits:   map[ext.Clbit]native.UnitID{},
		cregs:  map[string][]native.UnitID{},
	}
	for _, reg := range qc.QRegs {
		units, err := b.circ.AddQRegister(reg.Name, reg.Size)
		if err != nil {
			return nil, err
		}
		for i, u := range units {
			b.qubits[ext.Q(reg.Name, i)] = u
		}
	}
	for _, reg := range qc.CRegs {
		units, err := b.circ.AddCRegister(reg.Name, reg.Size)
		if err != nil {
			return nil, err
		}
		for i, u := range units {
			b.bits[ext.C(reg.Name, i)] = u
		}
		b.cregs[reg.Name] = units
	}
	b.circ.AddPhase(b.bridge.ToNative(qc.GlobalPhase))

	for i, in := range qc.Data {
		if err := b.add(in); err != nil {
			return nil, errors.Wrapf(err, "translate instruction %d (%s)", i, in.Op.Name)
		}
	}
	instructionsTranslatedTotal.WithLabelValues(directionToNative).Add(float64(len(qc.Data)))
	return b.circ, nil
}

func (b *forwardBuilder) add(in ext.Instruction) error {
	op := in.Op
	var opts []native.CommandOption
	if in.Condition != nil {
		opt, err := b.condition(op, in.Condition)
		if err != nil {
			return err
		}
		opts = append(opts, opt)
	}
	qubits, err := b.mapQubits(op, in.Qubits)
	if err != nil {
		return err
	}
	bits, err := b.mapBits(op, in.Clbits)
	if err != nil {
		return err
	}

	var flips []native.UnitID
	if op.IsControlled() && !op.DefaultCtrlState() {
		for i := 0; i < op.NumCtrlQubits; i++ {
			if op.CtrlState>>uint(i)&1 == 0 {
				flips = append(flips, qubits[i])
			}
		}
	}
	if err := b.flip(flips); err != nil {
		return err
	}
	if err := b.emit(op, qubits, bits, opts); err != nil {
		return err
	}
	return b.flip(flips)
}

func (b *forwardBuilder) flip(qubits []native.UnitID) error {
	for _, q := range qubits {
		if err := b.circ.AddGate(native.X, nil, []native.UnitID{q}); err != nil {
			return err
		}
	}
	return nil
}

func (b *forwardBuilder) mapQubits(op *ext.Operation, qs []ext.Qubit) ([]native.UnitID, error) {
	out := make([]native.UnitID, len(qs))
	for i, q := range qs {
		u, ok := b.qubits[q]
		if !ok {
			return nil, newError(ErrUnsupportedAddressing, op.Name, "qubit %s is not declared", q)
		}
		out[i] = u
	}
	return out, nil
}

func (b *forwardBuilder) mapBits(op *ext.Operation, cs []ext.Clbit) ([]native.UnitID, error) {
	out := make([]native.UnitID, len(cs))
	for i, c := range cs {
		u, ok := b.bits[c]
		if !ok {
			return nil, newError(ErrUnsupportedAddressing, op.Name, "bit %s is not declared", c)
		}
		out[i] = u
	}
	return out, nil
}

func (b *forwardBuilder) condition(op *ext.Operation, cond *ext.Condition) (native.CommandOption, error) {
	if cond.Bit != nil {
		bit, ok := b.bits[*cond.Bit]
		if !ok {
			return nil, newError(ErrUnsupportedCondition, op.Name, "condition bit %s is not declared", *cond.Bit)
		}
		if cond.Value > 1 {
			return nil, newError(ErrUnsupportedCondition, op.Name, "bit %s compared with %d", *cond.Bit, cond.Value)
		}
		return native.WithCondition([]native.UnitID{bit}, cond.Value), nil
	}
	reg, ok := b.cregs[cond.Register]
	if !ok {
		return nil, newError(ErrUnsupportedCondition, op.Name, "condition register %q is not declared", cond.Register)
	}
	if len(reg) < 64 && cond.Value>>uint(len(reg)) != 0 {
		return nil, newError(ErrUnsupportedCondition, op.Name, "value %d does not fit register %s", cond.Value, cond.Register)
	}
	return native.WithCondition(reg, cond.Value), nil
}

func (b *forwardBuilder) params(ps []ext.Param) []sym.Expr {
	out := make([]sym.Expr, len(ps))
	for i, p := range ps {
		out[i] = b.bridge.ToNative(p)
	}
	return out
}

func (b *forwardBuilder) emit(op *ext.Operation, qubits, bits []native.UnitID, opts []native.CommandOption) error {
	switch op.Kind {
	case ext.CU:
		return b.emitCU(op, qubits, opts)
	case ext.Initialize, ext.StatePreparation:
		return b.emitStatePreparation(op, qubits, opts)
	case ext.Compound, ext.Gate:
		return b.emitCompound(op, qubits, bits, opts)
	case ext.Unitary:
		return b.emitUnitary(op, qubits, opts)
	case ext.PauliEvolution:
		return b.emitPauliEvolution(op, qubits, opts)
	case ext.Controlled:
		return b.emitControlled(op, qubits, opts)
	case ext.Barrier:
		return b.circ.AddBarrier(append(qubits, bits...))
	}

	t, err := ToOpType(op.Kind)
	if err != nil {
		var te *TranslationError
		if errors.As(err, &te) {
			te.Op = op.Name
			te.Remedy = flattenRemedy
		}
		return err
	}
	return b.circ.AddGate(t, b.params(op.Params), append(qubits, bits...), opts...)
}

func (b *forwardBuilder) emitCU(op *ext.Operation, qubits []native.UnitID, opts []native.CommandOption) error {
	gamma := op.Params[3]
	if gamma.IsSymbolic() || gamma.Value() != 0 {
		return newError(ErrNotImplementedVariant, op.Name, "controlled-U with non-zero phase %s", gamma)
	}
	return b.circ.AddGate(native.CU3, b.params(op.Params[:3]), qubits, opts...)
}

func reversed(us []native.UnitID) []native.UnitID {
	out := make([]native.UnitID, len(us))
	for i, u := range us {
		out[len(us)-1-i] = u
	}
	return out
}

func (b *forwardBuilder) emitStatePreparation(op *ext.Operation, qubits []native.UnitID, opts []native.CommandOption) error {
	reset := op.Kind == ext.Initialize
	switch {
	case op.Amplitudes != nil:
		box, err := native.NewStatePreparationBox(op.Amplitudes, reset)
		if err != nil {
			return newError(ErrUnsupportedGate, op.Name, "%v", err)
		}
		return b.circ.AddOp(box, reversed(qubits), opts...)
	case op.IntState != nil:
		return b.expandLabel(op, strconv.FormatUint(*op.IntState, 2), qubits, reset, opts)
	}
	return b.expandLabel(op, op.Label, qubits, reset, opts)
}

// expandLabel prepares the product state named by label, its last
// character on the first qubit.
func (b *forwardBuilder) expandLabel(op *ext.Operation, label string, qubits []native.UnitID, reset bool, opts []native.CommandOption) error {
	if len(label) > len(qubits) {
		return newError(ErrUnsupportedGate, op.Name, "state %q does not fit %d qubits", label, len(qubits))
	}
	if reset {
		for _, q := range qubits {
			if err := b.circ.AddGate(native.Reset, nil, []native.UnitID{q}, opts...); err != nil {
				return err
			}
		}
	}
	for count := 0; count < len(label); count++ {
		var gates []native.OpType
		switch ch := label[len(label)-1-count]; ch {
		case '0':
		case '1':
			gates = []native.OpType{native.X}
		case '+':
			gates = []native.OpType{native.H}
		case '-':
			gates = []native.OpType{native.X, native.H}
		case 'r':
			gates = []native.OpType{native.H, native.S}
		case 'l':
			gates = []native.OpType{native.H, native.Sdg}
		default:
			return newError(ErrUnsupportedGate, op.Name, "cannot prepare state %q", ch)
		}
		for _, g := range gates {
			if err := b.circ.AddGate(g, nil, []native.UnitID{qubits[count]}, opts...); err != nil {
				return err
			}
		}
	}
	return nil
}

func (b *forwardBuilder) emitCompound(op *ext.Operation, qubits, bits []native.UnitID, opts []native.CommandOption) error {
	if op.Definition == nil {
		return &TranslationError{
			Kind:   ErrUnsupportedGate,
			Op:     op.Name,
			Detail: "compound instruction has no definition",
			Remedy: flattenRemedy,
		}
	}
	sub, err := b.conv.toNative(op.Definition, b.depth+1)
	if err != nil {
		return errors.Wrapf(err, "translate definition of %s", op.Name)
	}
	sub.Name = op.Name
	return b.circ.AddOp(native.NewCircBox(sub), append(qubits, bits...), opts...)
}

func (b *forwardBuilder) emitUnitary(op *ext.Operation, qubits []native.UnitID, opts []native.CommandOption) error {
	switch n := len(qubits); {
	case n == 0:
		b.circ.AddPhase(sym.Num(cmplx.Phase(op.Matrix[0][0]) / math.Pi))
		return nil
	case n <= 3:
		box, err := native.NewUnitaryBox(op.Matrix)
		if err != nil {
			return newError(ErrUnsupportedGate, op.Name, "%v", err)
		}
		return b.circ.AddOp(box, reversed(qubits), opts...)
	default:
		return newError(ErrUnsupportedGate, op.Name, "unitary on %d qubits; only 1, 2 and 3 are supported", n)
	}
}

var pauliByLetter = map[byte]native.Pauli{
	'I': native.PauliI,
	'X': native.PauliX,
	'Y': native.PauliY,
	'Z': native.PauliZ,
}

type pauliTerm struct {
	paulis []native.Pauli
	angle  sym.Expr
}

func commute(a, b []native.Pauli) bool {
	anti := 0
	for i := range a {
		if a[i] != native.PauliI && b[i] != native.PauliI && a[i] != b[i] {
			anti++
		}
	}
	return anti%2 == 0
}

// emitPauliEvolution lowers exp(-itH) to PauliExpBoxes, grouped in
// operator order into mutually commuting sets.
func (b *forwardBuilder) emitPauliEvolution(op *ext.Operation, qubits []native.UnitID, opts []native.CommandOption) error {
	h := op.Operator
	n := h.NumQubits()
	t := b.bridge.ToNative(op.Params[0])

	var groups [][]pauliTerm
	for i, label := range h.Labels {
		c := h.Coeffs[i]
		if math.Abs(imag(c)) > maxImagCoeff {
			return newError(ErrNonHermitianOperator, op.Name, "term %s has coefficient %v", label, c)
		}
		if len(label) != n {
			return newError(ErrUnsupportedGate, op.Name, "term %s is not %d qubits wide", label, n)
		}
		paulis := make([]native.Pauli, n)
		for q := 0; q < n; q++ {
			p, ok := pauliByLetter[label[n-1-q]]
			if !ok {
				return newError(ErrUnsupportedGate, op.Name, "term %s is not a Pauli string", label)
			}
			paulis[q] = p
		}
		term := pauliTerm{paulis: paulis, angle: t.Scale(2 * real(c))}

		placed := false
		for g := range groups {
			fits := true
			for _, other := range groups[g] {
				if !commute(other.paulis, paulis) {
					fits = false
					break
				}
			}
			if fits {
				groups[g] = append(groups[g], term)
				placed = true
				break
			}
		}
		if !placed {
			groups = append(groups, []pauliTerm{term})
		}
	}

	seq := native.NewCircuit(n, 0)
	seq.Name = op.Name
	for _, group := range groups {
		inner := native.NewCircuit(n, 0)
		for _, term := range group {
			if err := inner.AddOp(native.NewPauliExpBox(term.paulis, term.angle), inner.Qubits()); err != nil {
				return err
			}
		}
		if err := seq.AddOp(native.NewCircBox(inner), seq.Qubits()); err != nil {
			return err
		}
	}
	return b.circ.AddOp(native.NewCircBox(seq), qubits, opts...)
}

// emitControlled lowers a generically controlled base: Y, Z and RY have
// dedicated multi-controlled opcodes, other bases go through a
// QControlBox around the lowered base.
func (b *forwardBuilder) emitControlled(op *ext.Operation, qubits []native.UnitID, opts []native.CommandOption) error {
	base := op.Base
	switch base.Kind {
	case ext.RY:
		return b.circ.AddGate(native.CnRy, b.params(base.Params), qubits, opts...)
	case ext.Y:
		return b.circ.AddGate(native.CnY, nil, qubits, opts...)
	case ext.Z:
		return b.circ.AddGate(native.CnZ, nil, qubits, opts...)
	}
	if base.NumClbits > 0 {
		return newError(ErrUnsupportedGate, op.Name, "cannot control %s, it acts on bits", base.Name)
	}

	inner := ext.NewCircuit(base.NumQubits, 0)
	inner.Name = base.Name
	if err := inner.Append(base, inner.Qubits(), nil); err != nil {
		return newError(ErrUnsupportedGate, op.Name, "%v", err)
	}
	sub, err := b.conv.toNative(inner, b.depth+1)
	if err != nil {
		return errors.Wrapf(err, "translate base of %s", op.Name)
	}
	box := native.NewQControlBox(native.NewCircBox(sub), op.NumCtrlQubits)
	return b.circ.AddOp(box, qubits, opts...)
}
