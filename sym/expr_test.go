package sym

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDivideByPiRoundTrip(t *testing.T) {
	for _, x := range []float64{0, 1, -0.25, math.Pi / 3, 1e-9, 12345.678} {
		half, err := Num(x).Div(Pi())
		require.NoError(t, err)
		back := half.Mul(Pi())
		v, ok := back.Float()
		require.True(t, ok)
		assert.Equal(t, x, v, "x=%g", x)
	}

	theta := Symbol("theta").Scale(2).Add(Symbol("phi"))
	half, err := theta.Div(Pi())
	require.NoError(t, err)
	assert.False(t, half.IsNumeric())
	assert.True(t, half.Mul(Pi()).Equal(theta))
}

func TestCanonicalForm(t *testing.T) {
	a := Symbol("b").Add(Symbol("a")).Add(Num(1))
	b := Num(1).Add(Symbol("a")).Add(Symbol("b"))
	assert.True(t, a.Equal(b))
	assert.Equal(t, a.String(), b.String())

	assert.True(t, Symbol("x").Sub(Symbol("x")).IsZero())
	assert.Equal(t, "0", Symbol("x").Sub(Symbol("x")).String())
}

func TestFreeSymbols(t *testing.T) {
	e := MustParse("2*zeta + alpha/pi - alpha*zeta")
	assert.Equal(t, []string{"alpha", "zeta"}, e.FreeSymbols())
	assert.Empty(t, MustParse("3*pi/4").FreeSymbols())
	assert.True(t, MustParse("3*pi/4").IsNumeric())
}

func TestDivRejectsSums(t *testing.T) {
	_, err := Symbol("x").Div(Symbol("x").Add(Num(1)))
	assert.ErrorIs(t, err, ErrNonMonomialDivisor)
}

func TestEval(t *testing.T) {
	e := MustParse("theta/2 + pi")
	v, err := e.Eval(map[string]float64{"theta": 1})
	require.NoError(t, err)
	assert.InDelta(t, 0.5+math.Pi, v, 1e-12)

	_, err = e.Eval(nil)
	assert.ErrorIs(t, err, ErrUnboundSymbol)
}

func TestRenameAndSubs(t *testing.T) {
	e := MustParse("2*a + b")
	r := e.Rename(map[string]string{"a": "a_UUID:1"})
	assert.Equal(t, []string{"a_UUID:1", "b"}, r.FreeSymbols())

	merged := e.Rename(map[string]string{"b": "a"})
	assert.True(t, merged.Equal(Symbol("a").Scale(3)))

	s, err := MustParse("lambda/2").Subs(map[string]Expr{"lambda": MustParse("pi + x")})
	require.NoError(t, err)
	assert.True(t, s.Equal(MustParse("pi/2 + x/2")))

	_, err = MustParse("1/lambda").Subs(map[string]Expr{"lambda": MustParse("pi + x")})
	assert.ErrorIs(t, err, ErrNonMonomialDivisor)
}

func TestApprox(t *testing.T) {
	a, b := 0.1, 0.2
	assert.True(t, Num(a+b).Approx(Num(0.3), 1e-12))
	assert.False(t, Num(a+b).Equal(Num(0.3)))

	assert.False(t, Symbol("x").Approx(Symbol("y"), 1))
	assert.False(t, Symbol("x").Approx(Num(0), 1))
	assert.False(t, Num(0).Approx(Symbol("x"), 1))
	assert.False(t, MustParse("x + y").Approx(Symbol("x"), 1))
	assert.True(t, Symbol("x").Scale(1+1e-13).Approx(Symbol("x"), 1e-12))

	// numeric residue against a missing term compares with zero
	assert.True(t, MustParse("theta + pi/2").Approx(MustParse("theta + pi/2").Add(Num(1e-15)), 1e-12))
	assert.False(t, Pi().Approx(Num(0), 0.1))
	assert.True(t, Num(1e-15).Approx(Num(0), 1e-12))
}
