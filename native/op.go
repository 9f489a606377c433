package native

import (
	"fmt"
	"math/bits"
	"strings"

	"github.com/pkg/errors"

	"qbridge/sym"
)

// Pauli is a single-qubit Pauli operator.
type Pauli int

const (
	PauliI Pauli = iota
	PauliX
	PauliY
	PauliZ
)

func (p Pauli) String() string {
	return [...]string{"I", "X", "Y", "Z"}[p]
}

// Op is an opcode with its parameters and, for boxes, its payload.
type Op struct {
	Type   OpType
	Params []sym.Expr

	// CircBox and CustomGate. Formals name the definition's symbols that
	// a CustomGate binds to Params.
	Name    string
	Circuit *Circuit
	Formals []string

	// PauliExpBox, angle in Params[0].
	Paulis []Pauli

	// Unitary boxes, row-major, qubit 0 most significant.
	Matrix [][]complex128

	// StatePreparationBox.
	Statevector      []complex128
	WithInitialReset bool

	// QControlBox.
	Base        *Op
	NumControls int

	// Conditional wraps Inner; RangePredicate tests Width bits. Value is
	// the conditional's expected value.
	Inner        *Op
	Width        int
	Value        uint64
	Lower, Upper uint64

	// Arity of variadic built-in opcodes, fixed when the op is added.
	arity int
}

// NewOp builds a built-in opcode. Variadic opcodes take their width from
// the arguments they are added with.
func NewOp(t OpType, params ...sym.Expr) *Op {
	return &Op{Type: t, Params: params}
}

// NewCircBox wraps a circuit as a box.
func NewCircBox(c *Circuit) *Op {
	return &Op{Type: CircBox, Name: c.Name, Circuit: c}
}

// NewCustomGate instantiates a named gate definition, binding formals to
// params.
func NewCustomGate(name string, def *Circuit, formals []string, params ...sym.Expr) (*Op, error) {
	if len(formals) != len(params) {
		return nil, errors.Errorf("gate %s takes %d params, got %d", name, len(formals), len(params))
	}
	return &Op{Type: CustomGate, Name: name, Circuit: def, Formals: formals, Params: params}, nil
}

// NewPauliExpBox builds exp(-iπt/2 P) for the Pauli string P.
func NewPauliExpBox(paulis []Pauli, t sym.Expr) *Op {
	return &Op{Type: PauliExpBox, Paulis: paulis, Params: []sym.Expr{t}}
}

// NewQControlBox adds n controls to base.
func NewQControlBox(base *Op, n int) *Op {
	return &Op{Type: QControlBox, Base: base, NumControls: n}
}

// NewUnitaryBox wraps a 2x2, 4x4 or 8x8 matrix.
func NewUnitaryBox(m [][]complex128) (*Op, error) {
	var t OpType
	switch len(m) {
	case 2:
		t = Unitary1qBox
	case 4:
		t = Unitary2qBox
	case 8:
		t = Unitary3qBox
	default:
		return nil, errors.Errorf("unitary box of dimension %d", len(m))
	}
	for _, row := range m {
		if len(row) != len(m) {
			return nil, errors.New("unitary box matrix is not square")
		}
	}
	return &Op{Type: t, Matrix: m}, nil
}

// NewStatePreparationBox prepares sv, optionally resetting first.
func NewStatePreparationBox(sv []complex128, withInitialReset bool) (*Op, error) {
	n := bits.Len(uint(len(sv))) - 1
	if n < 1 || 1<<uint(n) != len(sv) {
		return nil, errors.Errorf("statevector length %d is not a power of two", len(sv))
	}
	return &Op{Type: StatePreparationBox, Statevector: sv, WithInitialReset: withInitialReset}, nil
}

// NewRangePredicate writes (lower <= value(bits) <= upper) to a target bit.
func NewRangePredicate(width int, lower, upper uint64) *Op {
	return &Op{Type: RangePredicate, Width: width, Lower: lower, Upper: upper}
}

// NewConditional runs inner when the first width arguments read value.
func NewConditional(inner *Op, width int, value uint64) *Op {
	return &Op{Type: Conditional, Inner: inner, Width: width, Value: value}
}

// NumQubits is the qubit count of the op.
func (op *Op) NumQubits() int {
	switch op.Type {
	case CircBox, CustomGate:
		return len(op.Circuit.Qubits())
	case PauliExpBox:
		return len(op.Paulis)
	case QControlBox:
		return op.Base.NumQubits() + op.NumControls
	case StatePreparationBox:
		return bits.Len(uint(len(op.Statevector))) - 1
	case Conditional:
		return op.Inner.NumQubits()
	}
	if n := op.Type.NumQubits(); n != anyArity {
		return n
	}
	return op.arity
}

// NumBits is the classical argument count of the op.
func (op *Op) NumBits() int {
	switch op.Type {
	case Measure:
		return 1
	case CircBox, CustomGate:
		return len(op.Circuit.Bits())
	case RangePredicate:
		return op.Width + 1
	case Conditional:
		return op.Width + op.Inner.NumBits()
	}
	return 0
}

// BoxCircuit returns the circuit a box op stands for.
func (op *Op) BoxCircuit() (*Circuit, error) {
	switch op.Type {
	case CircBox:
		return op.Circuit, nil
	case CustomGate:
		m := make(map[string]sym.Expr, len(op.Formals))
		for i, f := range op.Formals {
			m[f] = op.Params[i]
		}
		return op.Circuit.Substitute(m)
	case PauliExpBox:
		return op.PauliGadget(), nil
	}
	return nil, errors.Errorf("%s has no circuit", op.Type)
}

// FreeSymbols lists the symbols of the op and any nested circuit.
func (op *Op) FreeSymbols() []string {
	var names []string
	for _, p := range op.Params {
		names = append(names, p.FreeSymbols()...)
	}
	if op.Circuit != nil && op.Type == CircBox {
		names = append(names, op.Circuit.FreeSymbols()...)
	}
	if op.Base != nil {
		names = append(names, op.Base.FreeSymbols()...)
	}
	if op.Inner != nil {
		names = append(names, op.Inner.FreeSymbols()...)
	}
	return names
}

func (op *Op) String() string {
	name := op.Type.String()
	switch op.Type {
	case CircBox, CustomGate:
		if op.Name != "" {
			name = op.Name
		}
	case PauliExpBox:
		var sb strings.Builder
		for _, p := range op.Paulis {
			sb.WriteString(p.String())
		}
		name = "PauliExpBox[" + sb.String() + "]"
	case QControlBox:
		name = fmt.Sprintf("QControlBox(%d, %s)", op.NumControls, op.Base)
	case StatePreparationBox:
		if op.WithInitialReset {
			name += "[reset]"
		}
	case RangePredicate:
		name = fmt.Sprintf("RangePredicate[%d,%d]", op.Lower, op.Upper)
	case Conditional:
		return fmt.Sprintf("IF (%d bits == %d) THEN %s", op.Width, op.Value, op.Inner)
	}
	if len(op.Params) == 0 {
		return name
	}
	ps := make([]string, len(op.Params))
	for i, p := range op.Params {
		ps[i] = p.String()
	}
	return name + "(" + strings.Join(ps, ", ") + ")"
}
