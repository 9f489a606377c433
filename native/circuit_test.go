package native

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qbridge/sym"
)

func half(v float64) sym.Expr { return sym.Num(v) }

func TestOpTableComplete(t *testing.T) {
	for _, ot := range AllOpTypes() {
		name := ot.String()
		require.NotEmpty(t, name, "opcode %d has no name", int(ot))
		back, ok := OpTypeByName(name)
		require.True(t, ok, name)
		assert.Equal(t, ot, back)
	}
	assert.False(t, OpType(999).Valid())
	assert.Equal(t, "OpType(999)", OpType(999).String())
}

func TestAddGateValidation(t *testing.T) {
	c := NewCircuit(3, 2)
	q, b := c.Qubits(), c.Bits()

	require.NoError(t, c.AddGate(H, nil, q[:1]))
	require.NoError(t, c.AddGate(Rz, []sym.Expr{half(0.5)}, q[1:2]))
	require.NoError(t, c.AddGate(CnX, nil, q))
	require.NoError(t, c.AddGate(Measure, nil, []UnitID{q[0], b[0]}))

	assert.Error(t, c.AddGate(Rz, nil, q[:1]), "missing param")
	assert.Error(t, c.AddGate(CX, nil, q[:1]), "wrong arity")
	assert.Error(t, c.AddGate(Measure, nil, []UnitID{b[0], q[0]}), "wrong unit types")
	assert.ErrorIs(t, c.AddGate(X, nil, []UnitID{Qubit("q", 7)}), ErrUnknownUnit)
	assert.Error(t, c.AddGate(OpType(999), nil, q[:1]))

	assert.Len(t, c.Commands, 4)
	assert.Equal(t, 3, c.Commands[2].Op.NumQubits())
}

func TestConditionalLayout(t *testing.T) {
	c := NewCircuit(1, 2)
	q, b := c.Qubits(), c.Bits()
	require.NoError(t, c.AddGate(X, nil, q, WithCondition(b, 2)))

	cmd := c.Commands[0]
	require.Equal(t, Conditional, cmd.Op.Type)
	assert.Equal(t, 2, cmd.Op.Width)
	assert.Equal(t, uint64(2), cmd.Op.Value)
	assert.Equal(t, X, cmd.Op.Inner.Type)
	assert.Equal(t, []UnitID{b[0], b[1], q[0]}, cmd.Args)
	assert.Equal(t, "IF (2 bits == 2) THEN X c[0], c[1], q[0];", cmd.String())
}

func TestAddCircuitRemapsAndKeepsPhase(t *testing.T) {
	sub := NewCircuit(2, 0)
	sq := sub.Qubits()
	require.NoError(t, sub.AddGate(CX, nil, []UnitID{sq[0], sq[1]}))
	sub.AddPhase(half(0.25))

	c := NewCircuit(0, 0)
	anc, err := c.AddQRegister("anc", 2)
	require.NoError(t, err)
	require.NoError(t, c.AddCircuit(sub, []UnitID{anc[1], anc[0]}, nil))

	require.Len(t, c.Commands, 1)
	assert.Equal(t, []UnitID{Qubit("anc", 1), Qubit("anc", 0)}, c.Commands[0].Args)
	assert.True(t, c.Phase.Equal(half(0.25)))

	assert.Error(t, c.AddCircuit(sub, anc[:1], nil))
	_, err = c.AddQRegister("anc", 1)
	assert.Error(t, err)
}

func TestReplaceImplicitWireSwaps(t *testing.T) {
	c := NewCircuit(3, 0)
	q := c.Qubits()
	assert.False(t, c.HasImplicitPermutation())
	require.Error(t, c.SetImplicitPermutation([]int{0, 0, 1}))
	require.NoError(t, c.SetImplicitPermutation([]int{1, 2, 0}))
	assert.True(t, c.HasImplicitPermutation())

	require.NoError(t, c.ReplaceImplicitWireSwaps())
	assert.False(t, c.HasImplicitPermutation())

	// Replay the swaps on the wire contents and check every state returns.
	held := []int{2, 0, 1}
	index := map[string]int{q[0].Key(): 0, q[1].Key(): 1, q[2].Key(): 2}
	for _, cmd := range c.Commands {
		require.Equal(t, SWAP, cmd.Op.Type)
		a, b := index[cmd.Args[0].Key()], index[cmd.Args[1].Key()]
		held[a], held[b] = held[b], held[a]
	}
	assert.Equal(t, []int{0, 1, 2}, held)
}

func TestFreeSymbolsAndSubstitute(t *testing.T) {
	inner := NewCircuit(1, 0)
	require.NoError(t, inner.AddGate(Rx, []sym.Expr{sym.Symbol("b")}, inner.Qubits()))

	c := NewCircuit(1, 0)
	require.NoError(t, c.AddGate(Rz, []sym.Expr{sym.Symbol("a")}, c.Qubits()))
	require.NoError(t, c.AddOp(NewCircBox(inner), c.Qubits()))
	c.AddPhase(sym.Symbol("p"))
	assert.Equal(t, []string{"a", "b", "p"}, c.FreeSymbols())

	s, err := c.Substitute(map[string]sym.Expr{"b": half(0.5)})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "p"}, s.FreeSymbols())
	assert.Equal(t, []string{"a", "b", "p"}, c.FreeSymbols(), "receiver untouched")
}

func TestCustomGateBinding(t *testing.T) {
	def := NewCircuit(1, 0)
	require.NoError(t, def.AddGate(Rz, []sym.Expr{sym.MustParse("2*lam")}, def.Qubits()))

	_, err := NewCustomGate("g", def, []string{"lam"})
	assert.Error(t, err)

	op, err := NewCustomGate("g", def, []string{"lam"}, half(0.25))
	require.NoError(t, err)
	bound, err := op.BoxCircuit()
	require.NoError(t, err)
	v, ok := bound.Commands[0].Op.Params[0].Float()
	require.True(t, ok)
	assert.Equal(t, 0.5, v)
}

func TestPauliGadget(t *testing.T) {
	box := NewPauliExpBox([]Pauli{PauliX, PauliI, PauliY}, half(0.3))
	g := box.PauliGadget()

	var types []OpType
	for _, cmd := range g.Commands {
		types = append(types, cmd.Op.Type)
	}
	assert.Equal(t, []OpType{H, Rx, CX, Rz, CX, H, Rx}, types)
	assert.Equal(t, []UnitID{Qubit("q", 0), Qubit("q", 2)}, g.Commands[2].Args)
	assert.True(t, g.Commands[1].Op.Params[0].Equal(half(0.5)))
	assert.True(t, g.Commands[6].Op.Params[0].Equal(half(-0.5)))
	assert.True(t, g.Phase.IsZero())

	id := NewPauliExpBox([]Pauli{PauliI, PauliI}, half(0.3)).PauliGadget()
	assert.Empty(t, id.Commands)
	assert.True(t, id.Phase.Equal(half(-0.15)))
}

func TestBoxConstructors(t *testing.T) {
	_, err := NewUnitaryBox(make([][]complex128, 3))
	assert.Error(t, err)
	u, err := NewUnitaryBox([][]complex128{{1, 0}, {0, 1}})
	require.NoError(t, err)
	assert.Equal(t, Unitary1qBox, u.Type)

	_, err = NewStatePreparationBox([]complex128{1, 0, 0}, false)
	assert.Error(t, err)
	sp, err := NewStatePreparationBox([]complex128{1, 0, 0, 0}, true)
	require.NoError(t, err)
	assert.Equal(t, 2, sp.NumQubits())

	qc := NewQControlBox(NewCircBox(NewCircuit(1, 0)), 2)
	assert.Equal(t, 3, qc.NumQubits())
}
