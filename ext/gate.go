// Package ext is the external circuit IR: gate classes addressed by
// (register, index) pairs with radian parameters, the representation the
// converter reads and writes on the ecosystem side.
package ext

import "fmt"

// GateKind identifies the class of an external operation.
type GateKind int

const (
	H GateKind = iota
	I
	Phase
	R
	RX
	RY
	RZ
	S
	Sdg
	SX
	SXdg
	T
	Tdg
	U
	U1
	U2
	U3
	X
	Y
	Z

	CH
	CPhase
	CRX
	CRY
	CRZ
	CU
	CU1
	CU3
	CX
	CSX
	CY
	CZ
	ECR
	ISwap
	RXX
	RYY
	RZZ
	Swap

	C3X
	C4X
	CCX
	CCZ
	CSwap
	MCX
	MCXGrayCode
	MCXRecursive
	MCXVChain

	Barrier
	Measure
	Reset
	Initialize
	StatePreparation
	Unitary
	PauliEvolution
	// Controlled is a base operation lifted to n controls without a
	// dedicated class.
	Controlled
	// Compound and Gate are defined by a sub-circuit.
	Compound
	Gate

	numGateKinds
)

const variadic = -1

type gateInfo struct {
	name     string
	params   int
	qubits   int
	clbits   int
	controls int
	base     GateKind
}

// gateTable is indexed by GateKind. Its length is checked against
// numGateKinds at compile time below.
var gateTable = [...]gateInfo{
	H:     {name: "h", qubits: 1},
	I:     {name: "id", qubits: 1},
	Phase: {name: "p", params: 1, qubits: 1},
	R:     {name: "r", params: 2, qubits: 1},
	RX:    {name: "rx", params: 1, qubits: 1},
	RY:    {name: "ry", params: 1, qubits: 1},
	RZ:    {name: "rz", params: 1, qubits: 1},
	S:     {name: "s", qubits: 1},
	Sdg:   {name: "sdg", qubits: 1},
	SX:    {name: "sx", qubits: 1},
	SXdg:  {name: "sxdg", qubits: 1},
	T:     {name: "t", qubits: 1},
	Tdg:   {name: "tdg", qubits: 1},
	U:     {name: "u", params: 3, qubits: 1},
	U1:    {name: "u1", params: 1, qubits: 1},
	U2:    {name: "u2", params: 2, qubits: 1},
	U3:    {name: "u3", params: 3, qubits: 1},
	X:     {name: "x", qubits: 1},
	Y:     {name: "y", qubits: 1},
	Z:     {name: "z", qubits: 1},

	CH:     {name: "ch", qubits: 2, controls: 1, base: H},
	CPhase: {name: "cp", params: 1, qubits: 2, controls: 1, base: Phase},
	CRX:    {name: "crx", params: 1, qubits: 2, controls: 1, base: RX},
	CRY:    {name: "cry", params: 1, qubits: 2, controls: 1, base: RY},
	CRZ:    {name: "crz", params: 1, qubits: 2, controls: 1, base: RZ},
	CU:     {name: "cu", params: 4, qubits: 2, controls: 1, base: U},
	CU1:    {name: "cu1", params: 1, qubits: 2, controls: 1, base: U1},
	CU3:    {name: "cu3", params: 3, qubits: 2, controls: 1, base: U3},
	CX:     {name: "cx", qubits: 2, controls: 1, base: X},
	CSX:    {name: "csx", qubits: 2, controls: 1, base: SX},
	CY:     {name: "cy", qubits: 2, controls: 1, base: Y},
	CZ:     {name: "cz", qubits: 2, controls: 1, base: Z},
	ECR:    {name: "ecr", qubits: 2},
	ISwap:  {name: "iswap", qubits: 2},
	RXX:    {name: "rxx", params: 1, qubits: 2},
	RYY:    {name: "ryy", params: 1, qubits: 2},
	RZZ:    {name: "rzz", params: 1, qubits: 2},
	Swap:   {name: "swap", qubits: 2},

	C3X:          {name: "c3x", qubits: 4, controls: 3, base: X},
	C4X:          {name: "c4x", qubits: 5, controls: 4, base: X},
	CCX:          {name: "ccx", qubits: 3, controls: 2, base: X},
	CCZ:          {name: "ccz", qubits: 3, controls: 2, base: Z},
	CSwap:        {name: "cswap", qubits: 3, controls: 1, base: Swap},
	MCX:          {name: "mcx", qubits: variadic, controls: variadic, base: X},
	MCXGrayCode:  {name: "mcx_gray", qubits: variadic, controls: variadic, base: X},
	MCXRecursive: {name: "mcx_recursive", qubits: variadic, controls: variadic, base: X},
	MCXVChain:    {name: "mcx_vchain", qubits: variadic, controls: variadic, base: X},

	Barrier:          {name: "barrier", qubits: variadic},
	Measure:          {name: "measure", qubits: 1, clbits: 1},
	Reset:            {name: "reset", qubits: 1},
	Initialize:       {name: "initialize", qubits: variadic},
	StatePreparation: {name: "state_preparation", qubits: variadic},
	Unitary:          {name: "unitary", qubits: variadic},
	PauliEvolution:   {name: "PauliEvolution", params: 1, qubits: variadic},
	Controlled:       {name: "controlled", qubits: variadic, controls: variadic},
	Compound:         {name: "instruction", qubits: variadic, clbits: variadic},
	Gate:             {name: "gate", qubits: variadic},
}

var _ = [1]int{}[len(gateTable)-int(numGateKinds)]

var gateKindByName = func() map[string]GateKind {
	m := make(map[string]GateKind, len(gateTable))
	for k, info := range gateTable {
		m[info.name] = GateKind(k)
	}
	return m
}()

// String returns the external gate name.
func (k GateKind) String() string {
	if k < 0 || k >= numGateKinds {
		return fmt.Sprintf("GateKind(%d)", int(k))
	}
	return gateTable[k].name
}

// Valid reports whether k is a declared kind.
func (k GateKind) Valid() bool {
	return k >= 0 && k < numGateKinds
}

// NumParams is the parameter count of fixed-signature kinds.
func (k GateKind) NumParams() int {
	return gateTable[k].params
}

// Variadic reports whether the qubit count is chosen per instance.
func (k GateKind) Variadic() bool {
	return gateTable[k].qubits == variadic
}

// GateKindByName looks up a kind by its external name.
func GateKindByName(name string) (GateKind, bool) {
	k, ok := gateKindByName[name]
	return k, ok
}

// AllGateKinds lists every declared kind in declaration order.
func AllGateKinds() []GateKind {
	out := make([]GateKind, numGateKinds)
	for i := range out {
		out[i] = GateKind(i)
	}
	return out
}
