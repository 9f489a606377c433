package convert_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"qbridge/config"
	"qbridge/convert"
	"qbridge/ext"
	"qbridge/native"
	"qbridge/sym"
)

const tol = 1e-9

func newConverter(t *testing.T, cfg config.ConvertConfig, opts ...convert.Option) *convert.Converter {
	return convert.New(cfg, zaptest.NewLogger(t), opts...)
}

func qubits(reg string, idx ...int) []ext.Qubit {
	out := make([]ext.Qubit, len(idx))
	for i, x := range idx {
		out[i] = ext.Q(reg, x)
	}
	return out
}

func opTypes(c *native.Circuit) []native.OpType {
	out := make([]native.OpType, len(c.Commands))
	for i, cmd := range c.Commands {
		out[i] = cmd.Op.Type
	}
	return out
}

func roundTrip(t *testing.T, conv *convert.Converter, qc *ext.Circuit) (*native.Circuit, *ext.Circuit) {
	t.Helper()
	tkc, err := conv.ToNative(qc)
	require.NoError(t, err)
	back, err := conv.ToExternal(tkc)
	require.NoError(t, err)
	return tkc, back
}

func TestRoundTripFixedGates(t *testing.T) {
	tests := []struct {
		name string
		op   *ext.Operation
		want native.OpType
	}{
		{"hadamard", ext.NewGate(ext.H), native.H},
		{"identity", ext.NewGate(ext.I), native.Noop},
		{"phase", ext.NewGate(ext.Phase, ext.Float(0.7)), native.U1},
		{"r", ext.NewGate(ext.R, ext.Float(0.1), ext.Float(0.2)), native.PhasedX},
		{"rx", ext.NewGate(ext.RX, ext.Float(math.Pi/2)), native.Rx},
		{"u", ext.NewGate(ext.U, ext.Float(0.1), ext.Float(0.2), ext.Float(0.3)), native.U3},
		{"cx", ext.NewGate(ext.CX), native.CX},
		{"crz", ext.NewGate(ext.CRZ, ext.Float(-1.2)), native.CRz},
		{"ecr", ext.NewGate(ext.ECR), native.ECR},
		{"rzz", ext.NewGate(ext.RZZ, ext.Float(0.25)), native.ZZPhase},
		{"iswap", ext.NewGate(ext.ISwap), native.ISWAPMax},
		{"ccx", ext.NewGate(ext.CCX), native.CCX},
		{"cswap", ext.NewGate(ext.CSwap), native.CSWAP},
	}

	conv := newConverter(t, config.ConvertConfig{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := tt.op.NumQubits
			qc := ext.NewCircuit(n, 0)
			idx := make([]int, n)
			for i := range idx {
				idx[i] = i
			}
			qc.MustAppend(tt.op, qubits("q", idx...), nil)

			tkc, back := roundTrip(t, conv, qc)
			require.Len(t, tkc.Commands, 1)
			assert.Equal(t, tt.want, tkc.Commands[0].Op.Type)

			require.Len(t, back.Data, 1)
			got := back.Data[0]
			assert.Equal(t, tt.op.Kind, got.Op.Kind)
			assert.Equal(t, qc.Data[0].Qubits, got.Qubits)
			require.Len(t, got.Op.Params, len(tt.op.Params))
			for i, p := range tt.op.Params {
				assert.InDelta(t, p.Value(), got.Op.Params[i].Value(), tol)
			}
			assert.InDelta(t, 0, back.GlobalPhase.Value(), tol)
		})
	}
}

func TestRoundTripMultiControlled(t *testing.T) {
	conv := newConverter(t, config.ConvertConfig{})

	qc := ext.NewCircuit(4, 0)
	qc.MustAppend(ext.NewMCX(ext.MCX, 3), qubits("q", 0, 1, 2, 3), nil)
	qc.MustAppend(ext.Control(ext.NewGate(ext.Y), 2, 3), qubits("q", 0, 1, 2), nil)
	qc.MustAppend(ext.Control(ext.NewGate(ext.Z), 3, 7), qubits("q", 0, 1, 2, 3), nil)
	qc.MustAppend(ext.Control(ext.NewGate(ext.RY, ext.Float(0.4)), 2, 3), qubits("q", 1, 2, 3), nil)

	tkc, back := roundTrip(t, conv, qc)
	assert.Equal(t, []native.OpType{native.CnX, native.CnY, native.CnZ, native.CnRy}, opTypes(tkc))

	require.Len(t, back.Data, 4)
	assert.Equal(t, ext.C3X, back.Data[0].Op.Kind)
	assert.Equal(t, 3, back.Data[0].Op.NumCtrlQubits)

	for i, base := range []ext.GateKind{ext.Y, ext.Z, ext.RY} {
		op := back.Data[i+1].Op
		assert.Equal(t, ext.Controlled, op.Kind)
		assert.Equal(t, base, op.Base.Kind)
		assert.Equal(t, qc.Data[i+1].Op.NumCtrlQubits, op.NumCtrlQubits)
		assert.True(t, op.DefaultCtrlState())
	}
	assert.InDelta(t, 0.4, back.Data[3].Op.Base.Params[0].Value(), tol)
}

func TestRaiseCnXByControlCount(t *testing.T) {
	conv := newConverter(t, config.ConvertConfig{})

	tests := []struct {
		controls int
		kind     ext.GateKind
	}{
		{1, ext.CX},
		{2, ext.CCX},
		{3, ext.C3X},
		{4, ext.C4X},
		{5, ext.MCX},
		{6, ext.MCX},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			c := native.NewCircuit(tt.controls+1, 0)
			require.NoError(t, c.AddGate(native.CnX, nil, c.Qubits()))

			qc, err := conv.ToExternal(c)
			require.NoError(t, err)
			require.Len(t, qc.Data, 1)
			assert.Equal(t, tt.kind, qc.Data[0].Op.Kind)
			assert.Equal(t, tt.controls, qc.Data[0].Op.NumCtrlQubits)
			assert.True(t, qc.Data[0].Op.DefaultCtrlState())
		})
	}
}

func TestToNativeCtrlStateSandwich(t *testing.T) {
	conv := newConverter(t, config.ConvertConfig{})

	qc := ext.NewCircuit(3, 0)
	// fires when q0 is |1> and q1 is |0>
	qc.MustAppend(ext.Control(ext.NewGate(ext.X), 2, 0b01), qubits("q", 0, 1, 2), nil)

	tkc, err := conv.ToNative(qc)
	require.NoError(t, err)
	assert.Equal(t, []native.OpType{native.X, native.CCX, native.X}, opTypes(tkc))
	assert.Equal(t, "q[1]", tkc.Commands[0].Args[0].String())
	assert.Equal(t, "q[1]", tkc.Commands[2].Args[0].String())
}

func TestUnitaryEndianness(t *testing.T) {
	conv := newConverter(t, config.ConvertConfig{})

	m := [][]complex128{
		{1, 0, 0, 0},
		{0, 0, 0, 1},
		{0, 0, 1, 0},
		{0, 1, 0, 0},
	}
	qc := ext.NewCircuit(2, 0)
	qc.MustAppend(ext.NewUnitary(m), qubits("q", 0, 1), nil)

	tkc, back := roundTrip(t, conv, qc)
	require.Len(t, tkc.Commands, 1)
	assert.Equal(t, native.Unitary2qBox, tkc.Commands[0].Op.Type)
	assert.Equal(t, []string{"q[1]", "q[0]"}, []string{
		tkc.Commands[0].Args[0].String(),
		tkc.Commands[0].Args[1].String(),
	})

	require.Len(t, back.Data, 1)
	assert.Equal(t, ext.Unitary, back.Data[0].Op.Kind)
	assert.Equal(t, qubits("q", 0, 1), back.Data[0].Qubits)
	assert.Equal(t, m, back.Data[0].Op.Matrix)
}

func TestZeroQubitUnitaryIsPhase(t *testing.T) {
	conv := newConverter(t, config.ConvertConfig{})

	qc := ext.NewCircuit(1, 0)
	qc.MustAppend(ext.NewUnitary([][]complex128{{1i}}), nil, nil)

	tkc, err := conv.ToNative(qc)
	require.NoError(t, err)
	assert.Empty(t, tkc.Commands)
	phase, ok := tkc.Phase.Float()
	require.True(t, ok)
	assert.InDelta(t, 0.5, phase, tol)
}

func TestInitializeLabel(t *testing.T) {
	conv := newConverter(t, config.ConvertConfig{})

	qc := ext.NewCircuit(2, 0)
	qc.MustAppend(ext.NewInitializeLabel(ext.Initialize, "01"), qubits("q", 0, 1), nil)

	tkc, err := conv.ToNative(qc)
	require.NoError(t, err)
	assert.Equal(t, []native.OpType{native.Reset, native.Reset, native.X}, opTypes(tkc))
	assert.Equal(t, "q[0]", tkc.Commands[2].Args[0].String())
}

func TestStatePreparationLabelWithoutReset(t *testing.T) {
	conv := newConverter(t, config.ConvertConfig{})

	qc := ext.NewCircuit(3, 0)
	qc.MustAppend(ext.NewInitializeLabel(ext.StatePreparation, "r-+"), qubits("q", 0, 1, 2), nil)

	tkc, err := conv.ToNative(qc)
	require.NoError(t, err)
	assert.Equal(t, []native.OpType{native.H, native.X, native.H, native.H, native.S}, opTypes(tkc))
}

func TestInitializeInt(t *testing.T) {
	conv := newConverter(t, config.ConvertConfig{})

	qc := ext.NewCircuit(3, 0)
	qc.MustAppend(ext.NewInitializeInt(ext.StatePreparation, 6, 3), qubits("q", 0, 1, 2), nil)

	tkc, err := conv.ToNative(qc)
	require.NoError(t, err)
	require.Equal(t, []native.OpType{native.X, native.X}, opTypes(tkc))
	assert.Equal(t, "q[1]", tkc.Commands[0].Args[0].String())
	assert.Equal(t, "q[2]", tkc.Commands[1].Args[0].String())

	qc = ext.NewCircuit(2, 0)
	qc.MustAppend(ext.NewInitializeInt(ext.StatePreparation, 6, 2), qubits("q", 0, 1), nil)
	_, err = conv.ToNative(qc)
	assert.ErrorIs(t, err, convert.ErrUnsupportedGate)
}

func TestInitializeAmplitudesRoundTrip(t *testing.T) {
	conv := newConverter(t, config.ConvertConfig{})

	amps := []complex128{complex(1/math.Sqrt2, 0), 0, 0, complex(1/math.Sqrt2, 0)}
	qc := ext.NewCircuit(2, 0)
	qc.MustAppend(ext.NewInitializeAmplitudes(ext.Initialize, amps), qubits("q", 0, 1), nil)

	tkc, back := roundTrip(t, conv, qc)
	require.Len(t, tkc.Commands, 1)
	box := tkc.Commands[0].Op
	assert.Equal(t, native.StatePreparationBox, box.Type)
	assert.True(t, box.WithInitialReset)

	require.Len(t, back.Data, 1)
	assert.Equal(t, ext.Initialize, back.Data[0].Op.Kind)
	assert.Equal(t, amps, back.Data[0].Op.Amplitudes)
	assert.Equal(t, qubits("q", 0, 1), back.Data[0].Qubits)
}

func TestTK1PhaseConservation(t *testing.T) {
	conv := newConverter(t, config.ConvertConfig{})

	tkc := native.NewCircuit(1, 0)
	require.NoError(t, tkc.AddGate(native.TK1,
		[]sym.Expr{sym.Num(0.2), sym.Num(0.3), sym.Num(0.4)}, tkc.Qubits()))

	qc, err := conv.ToExternal(tkc)
	require.NoError(t, err)
	require.Len(t, qc.Data, 1)
	u := qc.Data[0].Op
	assert.Equal(t, ext.U, u.Kind)
	assert.InDelta(t, 0.3*math.Pi, u.Params[0].Value(), tol)
	assert.InDelta(t, -0.3*math.Pi, u.Params[1].Value(), tol)
	assert.InDelta(t, 0.9*math.Pi, u.Params[2].Value(), tol)
	assert.InDelta(t, -0.3*math.Pi, qc.GlobalPhase.Value(), tol)
}

func TestPhasedOpcodes(t *testing.T) {
	conv := newConverter(t, config.ConvertConfig{})

	tkc := native.NewCircuit(1, 0)
	q := tkc.Qubits()
	require.NoError(t, tkc.AddGate(native.V, nil, q))
	require.NoError(t, tkc.AddGate(native.V, nil, q))
	require.NoError(t, tkc.AddGate(native.Vdg, nil, q))
	tkc.AddPhase(sym.Num(1))

	qc, err := conv.ToExternal(tkc)
	require.NoError(t, err)
	require.Len(t, qc.Data, 3)
	assert.Equal(t, ext.SX, qc.Data[0].Op.Kind)
	assert.Equal(t, ext.SXdg, qc.Data[2].Op.Kind)
	assert.InDelta(t, 0.75*math.Pi, qc.GlobalPhase.Value(), tol)
}

func TestRegisterConditionRoundTrip(t *testing.T) {
	conv := newConverter(t, config.ConvertConfig{})

	qc := ext.NewCircuit(1, 0)
	require.NoError(t, qc.AddCRegister("c", 3))
	qc.MustAppend(ext.NewGate(ext.X), qubits("q", 0), nil, ext.IfRegister("c", 5))
	qc.MustAppend(ext.NewGate(ext.Z), qubits("q", 0), nil, ext.IfBit(ext.C("c", 1), 1))

	tkc, back := roundTrip(t, conv, qc)
	require.Len(t, tkc.Commands, 2)
	cond := tkc.Commands[0].Op
	assert.Equal(t, native.Conditional, cond.Type)
	assert.Equal(t, 3, cond.Width)
	assert.Equal(t, uint64(5), cond.Value)

	require.Len(t, back.Data, 2)
	assert.Equal(t, &ext.Condition{Register: "c", Value: 5}, back.Data[0].Condition)
	bit := ext.C("c", 1)
	assert.Equal(t, &ext.Condition{Bit: &bit, Value: 1}, back.Data[1].Condition)
}

func TestConditionOnUnknownRegister(t *testing.T) {
	conv := newConverter(t, config.ConvertConfig{})

	qc := ext.NewCircuit(1, 1)
	qc.Data = append(qc.Data, ext.Instruction{
		Op:        ext.NewGate(ext.X),
		Qubits:    qubits("q", 0),
		Condition: &ext.Condition{Register: "missing", Value: 1},
	})
	_, err := conv.ToNative(qc)
	assert.ErrorIs(t, err, convert.ErrUnsupportedCondition)
}

func scratchCircuit(t *testing.T) *native.Circuit {
	t.Helper()
	tkc := native.NewCircuit(1, 0)
	creg, err := tkc.AddCRegister("c", 3)
	require.NoError(t, err)
	scratch := native.Bit("tk_SCRATCH_BIT", 0)
	require.NoError(t, tkc.AddBit(scratch))
	args := append(append([]native.UnitID{}, creg...), scratch)
	require.NoError(t, tkc.AddOp(native.NewRangePredicate(3, 5, 5), args))
	return tkc
}

func TestRangePredicateCondition(t *testing.T) {
	conv := newConverter(t, config.ConvertConfig{})

	tkc := scratchCircuit(t)
	require.NoError(t, tkc.AddGate(native.X, nil, tkc.Qubits(),
		native.WithCondition([]native.UnitID{native.Bit("tk_SCRATCH_BIT", 0)}, 1)))

	qc, err := conv.ToExternal(tkc)
	require.NoError(t, err)
	require.Len(t, qc.CRegs, 1)
	assert.Equal(t, "c", qc.CRegs[0].Name)
	require.Len(t, qc.Data, 1)
	assert.Equal(t, ext.X, qc.Data[0].Op.Kind)
	assert.Equal(t, &ext.Condition{Register: "c", Value: 5}, qc.Data[0].Condition)
}

func TestRangePredicateNotConsumed(t *testing.T) {
	conv := newConverter(t, config.ConvertConfig{})

	tkc := scratchCircuit(t)
	_, err := conv.ToExternal(tkc)
	assert.ErrorIs(t, err, convert.ErrUnsupportedCondition)

	tkc = scratchCircuit(t)
	require.NoError(t, tkc.AddGate(native.H, nil, tkc.Qubits()))
	_, err = conv.ToExternal(tkc)
	assert.ErrorIs(t, err, convert.ErrUnsupportedCondition)
}

func TestRangePredicateInterval(t *testing.T) {
	conv := newConverter(t, config.ConvertConfig{})

	tkc := native.NewCircuit(1, 0)
	creg, err := tkc.AddCRegister("c", 2)
	require.NoError(t, err)
	require.NoError(t, tkc.AddOp(native.NewRangePredicate(1, 0, 1), creg))
	_, err = conv.ToExternal(tkc)
	assert.ErrorIs(t, err, convert.ErrUnsupportedCondition)
}

func TestConditionalPhaseDropped(t *testing.T) {
	conv := newConverter(t, config.ConvertConfig{})

	tkc := native.NewCircuit(1, 1)
	require.NoError(t, tkc.AddOp(native.NewOp(native.Phase, sym.Num(0.5)), nil,
		native.WithCondition(tkc.Bits(), 1)))

	qc, err := conv.ToExternal(tkc)
	require.NoError(t, err)
	assert.Empty(t, qc.Data)
	assert.InDelta(t, 0, qc.GlobalPhase.Value(), tol)
}

func TestConditionalPhaseOnScratchBitDropped(t *testing.T) {
	conv := newConverter(t, config.ConvertConfig{})

	tkc := native.NewCircuit(1, 0)
	scratch := native.Bit("tk_SCRATCH_BIT", 0)
	require.NoError(t, tkc.AddBit(scratch))
	require.NoError(t, tkc.AddOp(native.NewOp(native.Phase, sym.Num(0.25)), nil,
		native.WithCondition([]native.UnitID{scratch}, 1)))
	require.NoError(t, tkc.AddGate(native.H, nil, tkc.Qubits()))

	qc, err := conv.ToExternal(tkc)
	require.NoError(t, err)
	require.Len(t, qc.Data, 1)
	assert.Equal(t, ext.H, qc.Data[0].Op.Kind)
	assert.InDelta(t, 0, qc.GlobalPhase.Value(), tol)
}

func TestRangePredicateReadByConditionalPhase(t *testing.T) {
	conv := newConverter(t, config.ConvertConfig{})

	tkc := scratchCircuit(t)
	require.NoError(t, tkc.AddOp(native.NewOp(native.Phase, sym.Num(0.5)), nil,
		native.WithCondition([]native.UnitID{native.Bit("tk_SCRATCH_BIT", 0)}, 1)))

	qc, err := conv.ToExternal(tkc)
	require.NoError(t, err)
	assert.Empty(t, qc.Data)
}

func TestUnknownOpType(t *testing.T) {
	conv := newConverter(t, config.ConvertConfig{})

	tkc := native.NewCircuit(1, 0)
	tkc.Commands = append(tkc.Commands, native.Command{
		Op:   native.NewOp(native.OpType(999)),
		Args: tkc.Qubits(),
	})
	_, err := conv.ToExternal(tkc)
	assert.ErrorIs(t, err, convert.ErrUnsupportedGate)
}

func TestParameterIdentity(t *testing.T) {
	theta := ext.NewParameter("theta")
	qc := ext.NewCircuit(1, 0)
	qc.MustAppend(ext.NewGate(ext.RX, ext.ParamOf(theta)), qubits("q", 0), nil)

	t.Run("preserved", func(t *testing.T) {
		conv := newConverter(t, config.ConvertConfig{PreserveParamUUID: true})
		tkc, back := roundTrip(t, conv, qc)
		assert.Contains(t, tkc.FreeSymbols()[0], "theta_UUID:")

		ps := back.Parameters()
		require.Len(t, ps, 1)
		assert.True(t, ps[0].Same(theta))
		assert.True(t, qc.Data[0].Op.Params[0].Approx(back.Data[0].Op.Params[0], tol))
	})

	t.Run("fresh", func(t *testing.T) {
		conv := newConverter(t, config.ConvertConfig{})
		tkc, back := roundTrip(t, conv, qc)
		assert.Equal(t, []string{"theta"}, tkc.FreeSymbols())

		ps := back.Parameters()
		require.Len(t, ps, 1)
		assert.Equal(t, "theta", ps[0].Name)
		assert.False(t, ps[0].Same(theta))
	})
}

func TestSymbolicHalfTurns(t *testing.T) {
	conv := newConverter(t, config.ConvertConfig{})

	a := ext.NewParameter("a")
	qc := ext.NewCircuit(1, 0)
	qc.MustAppend(ext.NewGate(ext.RZ, ext.Bind(sym.MustParse("2*a + pi/2"), a)), qubits("q", 0), nil)

	tkc, back := roundTrip(t, conv, qc)
	want := sym.MustParse("2*a/pi + 1/2")
	assert.True(t, tkc.Commands[0].Op.Params[0].Approx(want, tol), "got %s", tkc.Commands[0].Op.Params[0])

	got := back.Data[0].Op.Params[0]
	require.True(t, got.IsSymbolic())
	assert.True(t, got.Sym().Approx(sym.MustParse("2*a + pi/2"), tol), "got %s", got)
}

func TestControlledUPhase(t *testing.T) {
	conv := newConverter(t, config.ConvertConfig{})

	qc := ext.NewCircuit(2, 0)
	qc.MustAppend(ext.NewGate(ext.CU, ext.Float(0.1), ext.Float(0.2), ext.Float(0.3), ext.Float(0.5)), qubits("q", 0, 1), nil)
	_, err := conv.ToNative(qc)
	assert.ErrorIs(t, err, convert.ErrNotImplementedVariant)

	qc = ext.NewCircuit(2, 0)
	qc.MustAppend(ext.NewGate(ext.CU, ext.Float(0.1), ext.Float(0.2), ext.Float(0.3), ext.Float(0)), qubits("q", 0, 1), nil)
	tkc, back := roundTrip(t, conv, qc)
	assert.Equal(t, []native.OpType{native.CU3}, opTypes(tkc))
	require.Len(t, back.Data, 1)
	assert.Equal(t, ext.CU, back.Data[0].Op.Kind)
	require.Len(t, back.Data[0].Op.Params, 4)
	assert.InDelta(t, 0, back.Data[0].Op.Params[3].Value(), tol)
}

func TestPauliEvolution(t *testing.T) {
	conv := newConverter(t, config.ConvertConfig{})

	h := &ext.SparsePauliOp{
		Labels: []string{"XX", "ZI", "YY"},
		Coeffs: []complex128{1, 0.5, 2},
	}
	qc := ext.NewCircuit(2, 0)
	qc.MustAppend(ext.NewPauliEvolution(h, ext.Float(math.Pi)), qubits("q", 0, 1), nil)

	tkc, err := conv.ToNative(qc)
	require.NoError(t, err)
	require.Len(t, tkc.Commands, 1)
	seq := tkc.Commands[0].Op
	require.Equal(t, native.CircBox, seq.Type)

	// XX and YY commute, ZI anticommutes with XX.
	require.Len(t, seq.Circuit.Commands, 2)
	first := seq.Circuit.Commands[0].Op.Circuit
	second := seq.Circuit.Commands[1].Op.Circuit
	require.Len(t, first.Commands, 2)
	require.Len(t, second.Commands, 1)

	xx := first.Commands[0].Op
	assert.Equal(t, []native.Pauli{native.PauliX, native.PauliX}, xx.Paulis)
	assert.True(t, xx.Params[0].Approx(sym.Num(2), tol))
	yy := first.Commands[1].Op
	assert.True(t, yy.Params[0].Approx(sym.Num(4), tol))

	zi := second.Commands[0].Op
	assert.Equal(t, []native.Pauli{native.PauliI, native.PauliZ}, zi.Paulis)
	assert.True(t, zi.Params[0].Approx(sym.Num(1), tol))
}

func TestPauliEvolutionNonHermitian(t *testing.T) {
	conv := newConverter(t, config.ConvertConfig{})

	h := &ext.SparsePauliOp{Labels: []string{"XZ"}, Coeffs: []complex128{complex(1, 0.5)}}
	qc := ext.NewCircuit(2, 0)
	qc.MustAppend(ext.NewPauliEvolution(h, ext.Float(1)), qubits("q", 0, 1), nil)
	_, err := conv.ToNative(qc)
	assert.ErrorIs(t, err, convert.ErrNonHermitianOperator)
}

func TestCompoundInstructionRoundTrip(t *testing.T) {
	conv := newConverter(t, config.ConvertConfig{})

	bell := ext.NewCircuit(2, 0)
	bell.MustAppend(ext.NewGate(ext.H), qubits("q", 0), nil)
	bell.MustAppend(ext.NewGate(ext.CX), qubits("q", 0, 1), nil)

	qc := ext.NewCircuit(3, 0)
	qc.MustAppend(ext.NewInstruction("bell", bell), qubits("q", 1, 2), nil)

	tkc, back := roundTrip(t, conv, qc)
	require.Len(t, tkc.Commands, 1)
	box := tkc.Commands[0].Op
	assert.Equal(t, native.CircBox, box.Type)
	assert.Equal(t, "bell", box.Name)

	require.Len(t, back.Data, 1)
	op := back.Data[0].Op
	assert.Equal(t, ext.Compound, op.Kind)
	assert.Equal(t, "bell", op.Name)
	require.Len(t, op.Definition.Data, 2)
	assert.Equal(t, ext.CX, op.Definition.Data[1].Op.Kind)
}

func TestCompoundWithoutDefinition(t *testing.T) {
	conv := newConverter(t, config.ConvertConfig{})

	qc := ext.NewCircuit(1, 0)
	qc.MustAppend(&ext.Operation{Kind: ext.Compound, Name: "opaque", NumQubits: 1}, qubits("q", 0), nil)
	_, err := conv.ToNative(qc)
	require.ErrorIs(t, err, convert.ErrUnsupportedGate)

	var te *convert.TranslationError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "opaque", te.Op)
	assert.NotEmpty(t, te.Remedy)
	assert.Contains(t, err.Error(), "translate instruction 0 (opaque)")
}

func TestRecursionLimit(t *testing.T) {
	conv := newConverter(t, config.ConvertConfig{MaxRecursionDepth: 2})

	inner := ext.NewCircuit(1, 0)
	inner.MustAppend(ext.NewGate(ext.X), qubits("q", 0), nil)
	for i := 0; i < 3; i++ {
		outer := ext.NewCircuit(1, 0)
		outer.MustAppend(ext.NewInstruction("level", inner), qubits("q", 0), nil)
		inner = outer
	}
	_, err := conv.ToNative(inner)
	assert.ErrorIs(t, err, convert.ErrRecursionLimit)
}

func TestQControlBoxLift(t *testing.T) {
	conv := newConverter(t, config.ConvertConfig{})

	base := native.NewCircuit(1, 0)
	require.NoError(t, base.AddGate(native.H, nil, base.Qubits()))

	tkc := native.NewCircuit(3, 0)
	require.NoError(t, tkc.AddOp(native.NewQControlBox(native.NewCircBox(base), 2), tkc.Qubits()))

	qc, err := conv.ToExternal(tkc)
	require.NoError(t, err)
	require.Len(t, qc.Data, 1)
	op := qc.Data[0].Op
	assert.Equal(t, ext.Controlled, op.Kind)
	assert.Equal(t, ext.H, op.Base.Kind)
	assert.Equal(t, 2, op.NumCtrlQubits)

	// lowering again builds the same box
	again, err := conv.ToNative(qc)
	require.NoError(t, err)
	require.Len(t, again.Commands, 1)
	box := again.Commands[0].Op
	assert.Equal(t, native.QControlBox, box.Type)
	assert.Equal(t, 2, box.NumControls)
}

func TestBarrierOnBits(t *testing.T) {
	conv := newConverter(t, config.ConvertConfig{})

	tkc := native.NewCircuit(1, 1)
	require.NoError(t, tkc.AddBarrier(append(tkc.Qubits(), tkc.Bits()...)))
	_, err := conv.ToExternal(tkc)
	assert.ErrorIs(t, err, convert.ErrUnsupportedBarrier)
}

func TestMultiIndexAddressing(t *testing.T) {
	conv := newConverter(t, config.ConvertConfig{})

	tkc := &native.Circuit{}
	require.NoError(t, tkc.AddQubit(native.Qubit("grid", 0, 1)))
	_, err := conv.ToExternal(tkc)
	assert.ErrorIs(t, err, convert.ErrUnsupportedAddressing)
}

func TestImplicitPermutation(t *testing.T) {
	build := func(t *testing.T) *native.Circuit {
		tkc := native.NewCircuit(2, 0)
		require.NoError(t, tkc.AddGate(native.H, nil, tkc.Qubits()[:1]))
		require.NoError(t, tkc.SetImplicitPermutation([]int{1, 0}))
		return tkc
	}

	conv := newConverter(t, config.ConvertConfig{ReplaceImplicitSwaps: true})
	qc, err := conv.ToExternal(build(t))
	require.NoError(t, err)
	require.Len(t, qc.Data, 2)
	assert.Equal(t, ext.Swap, qc.Data[1].Op.Kind)

	conv = newConverter(t, config.ConvertConfig{})
	tkc := build(t)
	qc, err = conv.ToExternal(tkc)
	require.NoError(t, err)
	assert.Len(t, qc.Data, 1)
	assert.True(t, tkc.HasImplicitPermutation(), "input circuit is not modified")
}

func TestRegistersFollowFirstAppearance(t *testing.T) {
	conv := newConverter(t, config.ConvertConfig{})

	tkc := &native.Circuit{}
	require.NoError(t, tkc.AddQubit(native.Qubit("b", 2)))
	require.NoError(t, tkc.AddQubit(native.Qubit("a", 0)))
	require.NoError(t, tkc.AddQubit(native.Qubit("b", 0)))

	qc, err := conv.ToExternal(tkc)
	require.NoError(t, err)
	assert.Equal(t, []ext.QuantumRegister{{Name: "b", Size: 3}, {Name: "a", Size: 1}}, qc.QRegs)
}

func TestMeasureRoundTrip(t *testing.T) {
	conv := newConverter(t, config.ConvertConfig{})

	qc := ext.NewCircuit(2, 2)
	qc.MustAppend(ext.NewGate(ext.H), qubits("q", 0), nil)
	qc.MustAppend(ext.NewBarrier(2), qubits("q", 0, 1), nil)
	qc.MustAppend(ext.NewGate(ext.Measure), qubits("q", 1), []ext.Clbit{ext.C("c", 0)})
	qc.MustAppend(ext.NewGate(ext.Reset), qubits("q", 1), nil)

	tkc, back := roundTrip(t, conv, qc)
	assert.Equal(t, []native.OpType{native.H, native.Barrier, native.Measure, native.Reset}, opTypes(tkc))
	require.Len(t, back.Data, 4)
	assert.Equal(t, []ext.Clbit{ext.C("c", 0)}, back.Data[2].Clbits)
	assert.Equal(t, qc.QRegs, back.QRegs)
	assert.Equal(t, qc.CRegs, back.CRegs)
}

func TestProtectedSet(t *testing.T) {
	for _, op := range []native.OpType{native.V, native.CnY, native.CU3, native.QControlBox, native.Measure, native.Phase} {
		assert.True(t, convert.IsProtected(op), op.String())
	}
	for _, op := range []native.OpType{native.TK1, native.ZZMax, native.FSim, native.NPhasedX} {
		assert.False(t, convert.IsProtected(op), op.String())
	}
	ops := convert.ProtectedOpTypes()
	for i := 1; i < len(ops); i++ {
		assert.Less(t, ops[i-1], ops[i])
	}
}
