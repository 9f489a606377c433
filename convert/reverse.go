package convert

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"qbridge/ext"
	"qbridge/native"
	"qbridge/sym"
)

// scratchBitRegister holds the predicate bits of lowered register
// conditions; it has no external counterpart.
const scratchBitRegister = "tk_SCRATCH_BIT"

// rangePredicate is a staged equality predicate waiting for the
// conditional that reads its target bit.
type rangePredicate struct {
	target native.UnitID
	bits   []native.UnitID
	value  uint64
}

type reverseEmitter struct {
	conv     *Converter
	qc       *ext.Circuit
	registry *SymbolRegistry
	depth    int
	// phase collects the offsets of phase-adjusted opcodes.
	phase sym.Expr
}

func (c *Converter) toExternal(tkc *native.Circuit, depth int) (*ext.Circuit, error) {
	return c.raise(tkc, depth, NewSymbolRegistry())
}

func (c *Converter) raise(tkc *native.Circuit, depth int, registry *SymbolRegistry) (*ext.Circuit, error) {
	if err := c.checkDepth(tkc.Name, depth); err != nil {
		return nil, err
	}
	circ := tkc.Copy()
	if circ.HasImplicitPermutation() {
		if c.cfg.ReplaceImplicitSwaps {
			if err := circ.ReplaceImplicitWireSwaps(); err != nil {
				return nil, err
			}
		} else {
			c.logger.Warn("dropping implicit qubit permutation",
				zap.String("circuit", circ.Name),
				zap.Ints("permutation", circ.ImplicitPermutation()),
			)
		}
	}
	if c.rebaser != nil {
		rebased, err := c.rebaser.Rebase(circ)
		if err != nil {
			return nil, errors.Wrap(err, "rebase")
		}
		circ = rebased
	}

	qc, err := externalRegisters(circ)
	if err != nil {
		return nil, err
	}
	e := &reverseEmitter{conv: c, qc: qc, registry: registry, depth: depth}

	var pending *rangePredicate
	for i, cmd := range circ.Commands {
		if pending, err = e.add(cmd, pending); err != nil {
			return nil, errors.Wrapf(err, "translate command %d (%s)", i, cmd.Op)
		}
	}
	if pending != nil {
		return nil, newError(ErrUnsupportedCondition, native.RangePredicate.String(),
			"predicate on %s is never read", pending.target)
	}
	qc.GlobalPhase = registry.ToExternal(e.phase.Add(circ.Phase))
	instructionsTranslatedTotal.WithLabelValues(directionToExternal).Add(float64(len(circ.Commands)))
	return qc, nil
}

// externalRegisters declares one register per native register name, in
// order of first appearance, sized to its largest index.
func externalRegisters(circ *native.Circuit) (*ext.Circuit, error) {
	qc := &ext.Circuit{Name: circ.Name}
	declare := func(units []native.UnitID, add func(string, int) error) error {
		var order []string
		size := map[string]int{}
		for _, u := range units {
			if len(u.Index) != 1 {
				return newError(ErrUnsupportedAddressing, u.String(), "units must have exactly one index")
			}
			if u.Type == native.BitUnit && u.Reg == scratchBitRegister {
				continue
			}
			if _, ok := size[u.Reg]; !ok {
				order = append(order, u.Reg)
			}
			if u.Index[0]+1 > size[u.Reg] {
				size[u.Reg] = u.Index[0] + 1
			}
		}
		for _, name := range order {
			if err := add(name, size[name]); err != nil {
				return err
			}
		}
		return nil
	}
	if err := declare(circ.Qubits(), qc.AddQRegister); err != nil {
		return nil, err
	}
	if err := declare(circ.Bits(), qc.AddCRegister); err != nil {
		return nil, err
	}
	return qc, nil
}

func (e *reverseEmitter) add(cmd native.Command, pending *rangePredicate) (*rangePredicate, error) {
	op := cmd.Op
	if pending != nil && op.Type != native.Conditional {
		return nil, newError(ErrUnsupportedCondition, op.String(),
			"predicate on %s is not read by the next command", pending.target)
	}

	switch op.Type {
	case native.RangePredicate:
		if op.Lower != op.Upper {
			return nil, newError(ErrUnsupportedCondition, op.String(), "only equality predicates are supported")
		}
		n := len(cmd.Args)
		return &rangePredicate{target: cmd.Args[n-1], bits: cmd.Args[:n-1], value: op.Lower}, nil

	case native.Conditional:
		condArgs, args := cmd.Args[:op.Width], cmd.Args[op.Width:]
		if pending != nil && (op.Width != 1 || !condArgs[0].Equal(pending.target) || op.Value != 1) {
			return nil, newError(ErrUnsupportedCondition, op.String(),
				"predicate on %s is not read by the next command", pending.target)
		}
		// conditional phases are dropped without resolving the condition
		if op.Inner.Type == native.Phase {
			e.conv.logger.Debug("dropping conditional phase",
				zap.String("circuit", e.qc.Name),
				zap.Stringer("phase", op.Inner.Params[0]),
			)
			return nil, nil
		}
		var cond *ext.Condition
		var err error
		if pending != nil {
			cond, err = e.condition(op, pending.bits, pending.value)
		} else {
			cond, err = e.condition(op, condArgs, op.Value)
		}
		if err != nil {
			return nil, err
		}
		idx, err := e.emit(op.Inner, args)
		if err != nil {
			return nil, err
		}
		for _, i := range idx {
			e.qc.Data[i].Condition = cond
		}
		return nil, nil
	}

	_, err := e.emit(op, cmd.Args)
	return nil, err
}

// condition reads bits (2^i digit first) as a whole register or a single
// bit.
func (e *reverseEmitter) condition(op *native.Op, bits []native.UnitID, value uint64) (*ext.Condition, error) {
	if len(bits) == 0 {
		return nil, newError(ErrUnsupportedCondition, op.String(), "condition reads no bits")
	}
	clbits, err := e.clbits(bits)
	if err != nil {
		return nil, err
	}
	name := clbits[0].Register
	if reg, ok := e.qc.CReg(name); ok && reg.Size == len(clbits) {
		whole := true
		for i, b := range clbits {
			if b != ext.C(name, i) {
				whole = false
				break
			}
		}
		if whole {
			return &ext.Condition{Register: name, Value: value}, nil
		}
	}
	if len(clbits) == 1 {
		return &ext.Condition{Bit: &clbits[0], Value: value}, nil
	}
	return nil, newError(ErrUnsupportedCondition, op.String(),
		"condition on %d bits is not a whole register", len(clbits))
}

func (e *reverseEmitter) qubits(us []native.UnitID) []ext.Qubit {
	out := make([]ext.Qubit, len(us))
	for i, u := range us {
		out[i] = ext.Q(u.Reg, u.Index[0])
	}
	return out
}

func (e *reverseEmitter) clbits(us []native.UnitID) ([]ext.Clbit, error) {
	out := make([]ext.Clbit, len(us))
	for i, u := range us {
		if u.Reg == scratchBitRegister {
			return nil, newError(ErrUnsupportedAddressing, u.String(), "scratch bits have no external counterpart")
		}
		out[i] = ext.C(u.Reg, u.Index[0])
	}
	return out, nil
}

func (e *reverseEmitter) params(ps []sym.Expr) []ext.Param {
	out := make([]ext.Param, len(ps))
	for i, p := range ps {
		out[i] = e.registry.ToExternal(p)
	}
	return out
}

func (e *reverseEmitter) append(op *ext.Operation, qubits []ext.Qubit, clbits []ext.Clbit) ([]int, error) {
	if err := e.qc.Append(op, qubits, clbits); err != nil {
		return nil, newError(ErrUnsupportedGate, op.Name, "%v", err)
	}
	return []int{len(e.qc.Data) - 1}, nil
}

func allControls(n int) uint64 {
	return 1<<uint(n) - 1
}

// sub raises a box's circuit one level deeper, sharing parameters.
func (e *reverseEmitter) sub(c *native.Circuit) (*ext.Circuit, error) {
	return e.conv.raise(c, e.depth+1, e.registry)
}

func reverseQubits(qs []ext.Qubit) []ext.Qubit {
	out := make([]ext.Qubit, len(qs))
	for i, q := range qs {
		out[len(qs)-1-i] = q
	}
	return out
}

// emit appends the external form of op and returns the indices of the
// appended instructions.
func (e *reverseEmitter) emit(op *native.Op, args []native.UnitID) ([]int, error) {
	var qargs, bargs []native.UnitID
	for _, u := range args {
		if u.Type == native.QubitUnit {
			qargs = append(qargs, u)
		} else {
			bargs = append(bargs, u)
		}
	}
	qubits := e.qubits(qargs)
	clbits, err := e.clbits(bargs)
	if err != nil {
		return nil, err
	}

	switch op.Type {
	case native.CircBox, native.CustomGate, native.PauliExpBox:
		box, err := op.BoxCircuit()
		if err != nil {
			return nil, newError(ErrUnsupportedGate, op.String(), "%v", err)
		}
		sub, err := e.sub(box)
		if err != nil {
			return nil, errors.Wrapf(err, "translate %s", op)
		}
		var gate *ext.Operation
		switch op.Type {
		case native.CircBox:
			name := op.Name
			if name == "" {
				name = "circuit"
			}
			gate = ext.NewInstruction(name, sub)
		case native.CustomGate:
			gate = ext.NewCompoundGate(op.Name, sub, e.params(op.Params)...)
		default:
			gate = ext.NewCompoundGate("pauliexp", sub, e.params(op.Params)...)
		}
		return e.append(gate, qubits, clbits)

	case native.Unitary1qBox, native.Unitary2qBox, native.Unitary3qBox:
		return e.append(ext.NewUnitary(op.Matrix), reverseQubits(qubits), nil)

	case native.StatePreparationBox:
		kind := ext.StatePreparation
		if op.WithInitialReset {
			kind = ext.Initialize
		}
		return e.append(ext.NewInitializeAmplitudes(kind, op.Statevector), reverseQubits(qubits), nil)

	case native.Barrier:
		if len(clbits) > 0 {
			return nil, newError(ErrUnsupportedBarrier, op.String(), "barrier spans %d classical bits", len(clbits))
		}
		return e.append(ext.NewBarrier(len(qubits)), qubits, nil)

	case native.CnX, native.CnY, native.CnZ, native.CnRy:
		n := len(qubits) - 1
		var base *ext.Operation
		switch op.Type {
		case native.CnX:
			base = ext.NewGate(ext.X)
		case native.CnY:
			base = ext.NewGate(ext.Y)
		case native.CnZ:
			base = ext.NewGate(ext.Z)
		default:
			base = ext.NewGate(ext.RY, e.params(op.Params)...)
		}
		if n == 0 {
			return e.append(base, qubits, nil)
		}
		return e.append(ext.Control(base, n, allControls(n)), qubits, nil)

	case native.QControlBox:
		base, err := e.controlBase(op.Base)
		if err != nil {
			return nil, err
		}
		n := op.NumControls
		return e.append(ext.Control(base, n, allControls(n)), qubits, nil)

	case native.CU3:
		ps := append(e.params(op.Params), ext.Float(0))
		return e.append(ext.NewGate(ext.CU, ps...), qubits, nil)

	case native.TK1:
		ps, phase := TK1ToU3(op.Params[0], op.Params[1], op.Params[2])
		e.phase = e.phase.Add(phase)
		return e.append(ext.NewGate(ext.U, e.params(ps)...), qubits, nil)

	case native.Phase:
		e.phase = e.phase.Add(op.Params[0])
		return nil, nil
	}

	kind, phase, err := ToGateKind(op.Type)
	if err != nil {
		var te *TranslationError
		if errors.As(err, &te) && op.Type.IsBox() {
			te.Remedy = flattenRemedy
		}
		return nil, err
	}
	if kind.Variadic() || len(op.Params) != kind.NumParams() {
		return nil, newError(ErrUnsupportedGate, op.String(), "no fixed-width external form")
	}
	e.phase = e.phase.Add(sym.Num(phase))
	return e.append(ext.NewGate(kind, e.params(op.Params)...), qubits, clbits)
}

// controlBase raises the controlled operation of a QControlBox. A box
// holding one plain instruction on all its qubits lifts to that
// instruction's operation.
func (e *reverseEmitter) controlBase(base *native.Op) (*ext.Operation, error) {
	var inner *native.Circuit
	if base.Type == native.CircBox {
		inner = base.Circuit
	} else {
		inner = native.NewCircuit(base.NumQubits(), 0)
		if err := inner.AddOp(base, inner.Qubits()); err != nil {
			return nil, newError(ErrUnsupportedGate, base.String(), "%v", err)
		}
	}
	sub, err := e.sub(inner)
	if err != nil {
		return nil, errors.Wrapf(err, "translate controlled %s", base)
	}
	if len(sub.Data) == 1 && sub.NumClbits() == 0 && !sub.GlobalPhase.IsSymbolic() && sub.GlobalPhase.Value() == 0 {
		in := sub.Data[0]
		all := sub.Qubits()
		lift := in.Condition == nil && len(in.Qubits) == len(all)
		for i := 0; lift && i < len(all); i++ {
			lift = in.Qubits[i] == all[i]
		}
		if lift {
			return in.Op, nil
		}
	}
	name := base.Name
	if name == "" {
		name = base.Type.String()
	}
	if sub.NumClbits() > 0 {
		return nil, newError(ErrUnsupportedGate, name, "cannot control an operation on bits")
	}
	return ext.NewCompoundGate(name, sub), nil
}
