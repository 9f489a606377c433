// Package native is the converter's own circuit IR: opcodes applied to
// unit ids, parameters as symbolic expressions in half-turns (1 = π
// radians), and a global phase in the same unit.
package native

import "fmt"

// OpType identifies a native opcode.
type OpType int

const (
	Noop OpType = iota
	H
	X
	Y
	Z
	S
	Sdg
	T
	Tdg
	SX
	SXdg
	V
	Vdg
	Rx
	Ry
	Rz
	U1
	U2
	U3
	PhasedX
	TK1
	Phase

	CX
	CY
	CZ
	CH
	CSX
	CSXdg
	CV
	CVdg
	CRx
	CRy
	CRz
	CU1
	CU3
	ECR
	ISWAP
	ISWAPMax
	XXPhase
	YYPhase
	ZZPhase
	ZZMax
	TK2
	FSim
	Sycamore
	SWAP
	BRIDGE
	CCX
	CSWAP
	CnX
	CnY
	CnZ
	CnRy
	XXPhase3
	NPhasedX

	Measure
	Reset
	Barrier
	Conditional
	RangePredicate

	CircBox
	CustomGate
	PauliExpBox
	QControlBox
	Unitary1qBox
	Unitary2qBox
	Unitary3qBox
	StatePreparationBox

	numOpTypes
)

const anyArity = -1

type opInfo struct {
	name   string
	params int
	qubits int
}

var opTable = [...]opInfo{
	Noop:    {"noop", 0, 1},
	H:       {"H", 0, 1},
	X:       {"X", 0, 1},
	Y:       {"Y", 0, 1},
	Z:       {"Z", 0, 1},
	S:       {"S", 0, 1},
	Sdg:     {"Sdg", 0, 1},
	T:       {"T", 0, 1},
	Tdg:     {"Tdg", 0, 1},
	SX:      {"SX", 0, 1},
	SXdg:    {"SXdg", 0, 1},
	V:       {"V", 0, 1},
	Vdg:     {"Vdg", 0, 1},
	Rx:      {"Rx", 1, 1},
	Ry:      {"Ry", 1, 1},
	Rz:      {"Rz", 1, 1},
	U1:      {"U1", 1, 1},
	U2:      {"U2", 2, 1},
	U3:      {"U3", 3, 1},
	PhasedX: {"PhasedX", 2, 1},
	TK1:     {"TK1", 3, 1},
	Phase:   {"Phase", 1, 0},

	CX:       {"CX", 0, 2},
	CY:       {"CY", 0, 2},
	CZ:       {"CZ", 0, 2},
	CH:       {"CH", 0, 2},
	CSX:      {"CSX", 0, 2},
	CSXdg:    {"CSXdg", 0, 2},
	CV:       {"CV", 0, 2},
	CVdg:     {"CVdg", 0, 2},
	CRx:      {"CRx", 1, 2},
	CRy:      {"CRy", 1, 2},
	CRz:      {"CRz", 1, 2},
	CU1:      {"CU1", 1, 2},
	CU3:      {"CU3", 3, 2},
	ECR:      {"ECR", 0, 2},
	ISWAP:    {"ISWAP", 1, 2},
	ISWAPMax: {"ISWAPMax", 0, 2},
	XXPhase:  {"XXPhase", 1, 2},
	YYPhase:  {"YYPhase", 1, 2},
	ZZPhase:  {"ZZPhase", 1, 2},
	ZZMax:    {"ZZMax", 0, 2},
	TK2:      {"TK2", 3, 2},
	FSim:     {"FSim", 2, 2},
	Sycamore: {"Sycamore", 0, 2},
	SWAP:     {"SWAP", 0, 2},
	BRIDGE:   {"BRIDGE", 0, 3},
	CCX:      {"CCX", 0, 3},
	CSWAP:    {"CSWAP", 0, 3},
	CnX:      {"CnX", 0, anyArity},
	CnY:      {"CnY", 0, anyArity},
	CnZ:      {"CnZ", 0, anyArity},
	CnRy:     {"CnRy", 1, anyArity},
	XXPhase3: {"XXPhase3", 1, 3},
	NPhasedX: {"NPhasedX", 2, anyArity},

	Measure:        {"Measure", 0, 1},
	Reset:          {"Reset", 0, 1},
	Barrier:        {"Barrier", 0, anyArity},
	Conditional:    {"Conditional", 0, anyArity},
	RangePredicate: {"RangePredicate", 0, 0},

	CircBox:             {"CircBox", 0, anyArity},
	CustomGate:          {"CustomGate", anyArity, anyArity},
	PauliExpBox:         {"PauliExpBox", 1, anyArity},
	QControlBox:         {"QControlBox", 0, anyArity},
	Unitary1qBox:        {"Unitary1qBox", 0, 1},
	Unitary2qBox:        {"Unitary2qBox", 0, 2},
	Unitary3qBox:        {"Unitary3qBox", 0, 3},
	StatePreparationBox: {"StatePreparationBox", 0, anyArity},
}

var _ = [1]int{}[len(opTable)-int(numOpTypes)]

var opTypeByName = func() map[string]OpType {
	m := make(map[string]OpType, len(opTable))
	for t, info := range opTable {
		m[info.name] = OpType(t)
	}
	return m
}()

func (t OpType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("OpType(%d)", int(t))
	}
	return opTable[t].name
}

// Valid reports whether t is a declared opcode.
func (t OpType) Valid() bool {
	return t >= 0 && t < numOpTypes
}

// NumParams is the fixed parameter count, or -1.
func (t OpType) NumParams() int {
	if !t.Valid() {
		return anyArity
	}
	return opTable[t].params
}

// NumQubits is the fixed qubit count, or -1.
func (t OpType) NumQubits() int {
	if !t.Valid() {
		return anyArity
	}
	return opTable[t].qubits
}

// IsBox reports whether ops of this type carry a payload beyond params.
func (t OpType) IsBox() bool {
	return t >= CircBox && t <= StatePreparationBox
}

// OpTypeByName looks up an opcode by name.
func OpTypeByName(name string) (OpType, bool) {
	t, ok := opTypeByName[name]
	return t, ok
}

// AllOpTypes lists every declared opcode.
func AllOpTypes() []OpType {
	out := make([]OpType, numOpTypes)
	for i := range out {
		out[i] = OpType(i)
	}
	return out
}
