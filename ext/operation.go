package ext

import (
	"fmt"
	"math/bits"
)

// SparsePauliOp is a weighted sum of Pauli strings. Labels are written
// most significant qubit first: character i addresses qubit n-1-i.
type SparsePauliOp struct {
	Labels []string
	Coeffs []complex128
}

// NumQubits is the label width.
func (o *SparsePauliOp) NumQubits() int {
	if len(o.Labels) == 0 {
		return 0
	}
	return len(o.Labels[0])
}

// Operation is an external gate or instruction, independent of operands.
type Operation struct {
	Kind      GateKind
	Name      string
	Params    []Param
	NumQubits int
	NumClbits int

	// Definition of compound operations.
	Definition *Circuit

	// Control data. Base is set for Controlled; fixed controlled classes
	// only carry the counts.
	Base          *Operation
	NumCtrlQubits int
	CtrlState     uint64

	// Unitary payload, row-major.
	Matrix [][]complex128

	// State preparation payload. Exactly one form is set.
	Label      string
	Amplitudes []complex128
	IntState   *uint64

	// PauliEvolution payload. Params[0] is the evolution time.
	Operator *SparsePauliOp
}

func allOnes(n int) uint64 {
	if n <= 0 {
		return 0
	}
	return 1<<uint(n) - 1
}

// NewGate builds an operation of a fixed-signature kind.
func NewGate(kind GateKind, params ...Param) *Operation {
	info := gateTable[kind]
	if info.qubits == variadic {
		panic(fmt.Sprintf("ext: %s needs an explicit width", kind))
	}
	if len(params) != info.params {
		panic(fmt.Sprintf("ext: %s takes %d params, got %d", kind, info.params, len(params)))
	}
	return &Operation{
		Kind:          kind,
		Name:          info.name,
		Params:        params,
		NumQubits:     info.qubits,
		NumClbits:     info.clbits,
		NumCtrlQubits: info.controls,
		CtrlState:     allOnes(info.controls),
	}
}

// NewMCX builds a multi-controlled X of the given class.
func NewMCX(kind GateKind, numCtrl int) *Operation {
	return &Operation{
		Kind:          kind,
		Name:          gateTable[kind].name,
		NumQubits:     numCtrl + 1,
		NumCtrlQubits: numCtrl,
		CtrlState:     allOnes(numCtrl),
	}
}

// NewBarrier builds a barrier over n qubits.
func NewBarrier(n int) *Operation {
	return &Operation{Kind: Barrier, Name: "barrier", NumQubits: n}
}

// NewUnitary wraps a 2^n x 2^n matrix. Qubit 0 is the least significant
// index bit.
func NewUnitary(m [][]complex128) *Operation {
	return &Operation{Kind: Unitary, Name: "unitary", NumQubits: bits.Len(uint(len(m))) - 1, Matrix: m}
}

func newStatePrep(kind GateKind, n int) *Operation {
	return &Operation{Kind: kind, Name: gateTable[kind].name, NumQubits: n}
}

// NewInitializeLabel resets n qubits then prepares the product state
// named by label ('0', '1', '+', '-', 'r', 'l'), last character on qubit 0.
func NewInitializeLabel(kind GateKind, label string) *Operation {
	op := newStatePrep(kind, len(label))
	op.Label = label
	return op
}

// NewInitializeAmplitudes prepares a state from its amplitudes.
func NewInitializeAmplitudes(kind GateKind, amps []complex128) *Operation {
	op := newStatePrep(kind, bits.Len(uint(len(amps)))-1)
	op.Amplitudes = amps
	return op
}

// NewInitializeInt prepares the computational basis state |v> on n qubits.
func NewInitializeInt(kind GateKind, v uint64, n int) *Operation {
	op := newStatePrep(kind, n)
	op.IntState = &v
	return op
}

// NewPauliEvolution builds exp(-i t H).
func NewPauliEvolution(h *SparsePauliOp, t Param) *Operation {
	return &Operation{
		Kind:      PauliEvolution,
		Name:      "PauliEvolution",
		Params:    []Param{t},
		NumQubits: h.NumQubits(),
		Operator:  h,
	}
}

// NewInstruction wraps a sub-circuit as a compound instruction.
func NewInstruction(name string, def *Circuit) *Operation {
	return &Operation{
		Kind:       Compound,
		Name:       name,
		NumQubits:  def.NumQubits(),
		NumClbits:  def.NumClbits(),
		Definition: def,
	}
}

// NewCompoundGate wraps a qubit-only sub-circuit as a named gate.
func NewCompoundGate(name string, def *Circuit, params ...Param) *Operation {
	return &Operation{
		Kind:       Gate,
		Name:       name,
		Params:     params,
		NumQubits:  def.NumQubits(),
		Definition: def,
	}
}

// Control lifts base to n controls firing on ctrlState. Bases with a
// dedicated controlled class use that class.
func Control(base *Operation, n int, ctrlState uint64) *Operation {
	var op *Operation
	switch {
	case base.Kind == X:
		switch n {
		case 1:
			op = NewGate(CX)
		case 2:
			op = NewGate(CCX)
		case 3:
			op = NewGate(C3X)
		case 4:
			op = NewGate(C4X)
		default:
			op = NewMCX(MCX, n)
		}
	case base.Kind == Z && n == 2:
		op = NewGate(CCZ)
	case base.Kind == Swap && n == 1:
		op = NewGate(CSwap)
	case base.Kind == U && n == 1:
		op = NewGate(CU, append(append([]Param{}, base.Params...), Float(0))...)
	case n == 1:
		if k, ok := singleControlled[base.Kind]; ok {
			op = NewGate(k, base.Params...)
		}
	}
	if op == nil {
		op = &Operation{
			Kind:          Controlled,
			Name:          "c" + base.Name,
			Params:        base.Params,
			NumQubits:     base.NumQubits + n,
			Base:          base,
			NumCtrlQubits: n,
		}
	}
	op.CtrlState = ctrlState
	return op
}

var singleControlled = map[GateKind]GateKind{
	H:     CH,
	Phase: CPhase,
	RX:    CRX,
	RY:    CRY,
	RZ:    CRZ,
	U1:    CU1,
	U3:    CU3,
	SX:    CSX,
	Y:     CY,
	Z:     CZ,
}

// IsControlled reports whether the operation has control qubits.
func (op *Operation) IsControlled() bool {
	return op.NumCtrlQubits > 0
}

// DefaultCtrlState reports whether every control fires on |1>.
func (op *Operation) DefaultCtrlState() bool {
	return op.CtrlState == allOnes(op.NumCtrlQubits)
}
