package rebase

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"qbridge/config"
	"qbridge/convert"
	"qbridge/ext"
	"qbridge/internal/statevec"
	"qbridge/native"
	"qbridge/sym"
)

const tol = 1e-9

// scrambled returns an entangled state with no zero amplitudes, so that
// comparing states also compares the phases of every basis column.
func scrambled(t *testing.T, n int) *statevec.StateVector {
	t.Helper()
	c := native.NewCircuit(n, 0)
	q := c.Qubits()
	for i := range q {
		require.NoError(t, c.AddGate(native.H, nil, q[i:i+1]))
		require.NoError(t, c.AddGate(native.Ry, []sym.Expr{sym.Num(0.37 * float64(i+1))}, q[i:i+1]))
		require.NoError(t, c.AddGate(native.Rz, []sym.Expr{sym.Num(0.21 * float64(i+1))}, q[i:i+1]))
	}
	for i := 0; i+1 < n; i++ {
		require.NoError(t, c.AddGate(native.CX, nil, q[i:i+2]))
	}
	sv, err := statevec.Simulate(c, nil, nil)
	require.NoError(t, err)
	return sv
}

func assertAllProtected(t *testing.T, c *native.Circuit) {
	t.Helper()
	for _, cmd := range c.Commands {
		op := cmd.Op
		if op.Type == native.Conditional {
			op = op.Inner
		}
		assert.True(t, convert.IsProtected(op.Type), "%s is not protected", op.Type)
	}
}

func TestRulesPreserveUnitary(t *testing.T) {
	p := func(vs ...float64) []sym.Expr {
		out := make([]sym.Expr, len(vs))
		for i, v := range vs {
			out[i] = sym.Num(v)
		}
		return out
	}
	tests := []struct {
		name   string
		op     native.OpType
		params []sym.Expr
		qubits int
	}{
		{"zzmax", native.ZZMax, nil, 2},
		{"iswap", native.ISWAP, p(0.3), 2},
		{"fsim", native.FSim, p(0.2, 0.7), 2},
		{"sycamore", native.Sycamore, nil, 2},
		{"tk2", native.TK2, p(0.1, 0.2, 0.3), 2},
		{"xxphase3", native.XXPhase3, p(0.4), 3},
		{"cv", native.CV, nil, 2},
		{"cvdg", native.CVdg, nil, 2},
		{"csxdg", native.CSXdg, nil, 2},
		{"bridge", native.BRIDGE, nil, 3},
		{"nphasedx", native.NPhasedX, p(0.3, -0.6), 3},
		{"tk1", native.TK1, p(0.2, 0.3, 0.4), 1},
	}

	pass := New(32, zaptest.NewLogger(t))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := native.NewCircuit(tt.qubits, 0)
			require.NoError(t, c.AddGate(tt.op, tt.params, c.Qubits()))

			out, err := pass.Rebase(c)
			require.NoError(t, err)
			assertAllProtected(t, out)

			init := scrambled(t, tt.qubits)
			want, err := statevec.Simulate(c, init, nil)
			require.NoError(t, err)
			got, err := statevec.Simulate(out, init, nil)
			require.NoError(t, err)
			assert.True(t, want.Approx(got, tol), "want %v\ngot  %v", want.Amplitudes, got.Amplitudes)
		})
	}
}

func TestSymbolicRule(t *testing.T) {
	c := native.NewCircuit(2, 0)
	require.NoError(t, c.AddGate(native.FSim, []sym.Expr{sym.MustParse("a"), sym.MustParse("2*b")}, c.Qubits()))

	out, err := New(32, nil).Rebase(c)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, out.FreeSymbols())

	env := map[string]float64{"a": 0.15, "b": -0.4}
	init := scrambled(t, 2)
	want, err := statevec.Simulate(c, init, env)
	require.NoError(t, err)
	got, err := statevec.Simulate(out, init, env)
	require.NoError(t, err)
	assert.True(t, want.Approx(got, tol))
}

func TestProtectedUntouched(t *testing.T) {
	c := native.NewCircuit(2, 1)
	q := c.Qubits()
	require.NoError(t, c.AddGate(native.H, nil, q[:1]))
	require.NoError(t, c.AddGate(native.CX, nil, q))
	require.NoError(t, c.AddGate(native.Measure, nil, []native.UnitID{q[0], c.Bits()[0]}))

	out, err := New(32, nil).Rebase(c)
	require.NoError(t, err)
	assert.Equal(t, c.Commands, out.Commands)
}

func TestConditionalRewrite(t *testing.T) {
	c := native.NewCircuit(2, 1)
	cond := native.WithCondition(c.Bits(), 1)
	require.NoError(t, c.AddGate(native.ZZMax, nil, c.Qubits(), cond))
	require.NoError(t, c.AddGate(native.TK1, []sym.Expr{sym.Num(0.5), sym.Num(0.5), sym.Num(0.5)}, c.Qubits()[:1], cond))

	out, err := New(32, nil).Rebase(c)
	require.NoError(t, err)
	assertAllProtected(t, out)

	var inner []native.OpType
	for _, cmd := range out.Commands {
		require.Equal(t, native.Conditional, cmd.Op.Type)
		assert.Equal(t, uint64(1), cmd.Op.Value)
		assert.Equal(t, "c[0]", cmd.Args[0].String())
		inner = append(inner, cmd.Op.Inner.Type)
	}
	assert.Equal(t, []native.OpType{native.CX, native.U3, native.Phase, native.CX, native.U3, native.Phase}, inner)
	assert.True(t, out.Phase.IsZero())
}

func TestNoRule(t *testing.T) {
	c := native.NewCircuit(1, 0)
	c.Commands = append(c.Commands, native.Command{Op: native.NewOp(native.OpType(999)), Args: c.Qubits()})

	_, err := New(32, nil).Rebase(c)
	assert.ErrorIs(t, err, convert.ErrUnsupportedGate)
}

func TestIterationBudget(t *testing.T) {
	c := native.NewCircuit(2, 0)
	require.NoError(t, c.AddGate(native.Sycamore, nil, c.Qubits()))

	_, err := New(2, nil).Rebase(c)
	assert.ErrorIs(t, err, ErrNoFixedPoint)

	_, err = New(4, nil).Rebase(c)
	assert.NoError(t, err)
}

func TestConverterWithRebase(t *testing.T) {
	cfg := config.ConvertConfig{}.WithDefaults()
	logger := zaptest.NewLogger(t)
	conv := convert.New(cfg, logger, convert.WithRebaser(New(cfg.MaxRebaseIterations, logger)))

	tkc := native.NewCircuit(2, 0)
	require.NoError(t, tkc.AddGate(native.ZZMax, nil, tkc.Qubits()))

	qc, err := conv.ToExternal(tkc)
	require.NoError(t, err)
	require.Len(t, qc.Data, 3)
	assert.Equal(t, ext.CX, qc.Data[0].Op.Kind)
	assert.Equal(t, ext.U, qc.Data[1].Op.Kind)
	assert.Equal(t, []ext.Qubit{ext.Q("q", 1)}, qc.Data[1].Qubits)
	assert.Equal(t, ext.CX, qc.Data[2].Op.Kind)
	// TK1(1/2, 0, 0) leaves a phase of -1/4 half-turns.
	assert.InDelta(t, -math.Pi/4, qc.GlobalPhase.Value(), tol)

	// lowering the result gives back an equivalent circuit
	back, err := conv.ToNative(qc)
	require.NoError(t, err)
	want, err := statevec.Simulate(tkc, scrambled(t, 2), nil)
	require.NoError(t, err)
	got, err := statevec.Simulate(back, scrambled(t, 2), nil)
	require.NoError(t, err)
	assert.True(t, want.Approx(got, tol))
}
