// Package sym implements the small symbolic algebra used for gate
// parameters: finite sums of monomials over named symbols and π with
// integer exponents and float coefficients.
//
// π is kept as an atom instead of being folded into coefficients, so
// dividing by π and multiplying back cancels exactly.
package sym

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ErrNonMonomialDivisor is returned when dividing by a sum of terms.
var ErrNonMonomialDivisor = errors.New("divisor is not a monomial")

// ErrUnboundSymbol is returned by Eval for a symbol missing from the
// environment.
var ErrUnboundSymbol = errors.New("unbound symbol")

// factor is one atom raised to a non-zero power. An empty name is π.
type factor struct {
	name string
	exp  int
}

type term struct {
	coeff   float64
	factors []factor
}

// Expr is an immutable expression in canonical form. The zero value is 0.
type Expr struct {
	terms []term
}

// Num returns the constant v.
func Num(v float64) Expr {
	if v == 0 {
		return Expr{}
	}
	return Expr{terms: []term{{coeff: v}}}
}

// Symbol returns the free symbol with the given name.
func Symbol(name string) Expr {
	return Expr{terms: []term{{coeff: 1, factors: []factor{{name: name, exp: 1}}}}}
}

// Pi returns π as an atom.
func Pi() Expr {
	return Expr{terms: []term{{coeff: 1, factors: []factor{{exp: 1}}}}}
}

func lessFactor(a, b factor) bool {
	if a.name == "" || b.name == "" {
		return a.name == "" && b.name != ""
	}
	return a.name < b.name
}

func (t term) key() string {
	var sb strings.Builder
	for _, f := range t.factors {
		if f.name == "" {
			sb.WriteString("\x00pi")
		} else {
			sb.WriteString(f.name)
		}
		sb.WriteByte('^')
		sb.WriteString(strconv.Itoa(f.exp))
		sb.WriteByte(' ')
	}
	return sb.String()
}

// normalize merges like terms, drops zero coefficients and sorts.
func normalize(ts []term) Expr {
	index := make(map[string]int, len(ts))
	out := make([]term, 0, len(ts))
	for _, t := range ts {
		k := t.key()
		if i, ok := index[k]; ok {
			out[i].coeff += t.coeff
			continue
		}
		index[k] = len(out)
		out = append(out, term{coeff: t.coeff, factors: t.factors})
	}
	kept := out[:0]
	for _, t := range out {
		if t.coeff != 0 {
			kept = append(kept, t)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].key() < kept[j].key() })
	if len(kept) == 0 {
		return Expr{}
	}
	return Expr{terms: kept}
}

func mulTerms(a, b term) term {
	fs := make([]factor, 0, len(a.factors)+len(b.factors))
	fs = append(fs, a.factors...)
	for _, f := range b.factors {
		merged := false
		for i := range fs {
			if fs[i].name == f.name {
				fs[i].exp += f.exp
				merged = true
				break
			}
		}
		if !merged {
			fs = append(fs, f)
		}
	}
	kept := fs[:0]
	for _, f := range fs {
		if f.exp != 0 {
			kept = append(kept, f)
		}
	}
	sort.Slice(kept, func(i, j int) bool { return lessFactor(kept[i], kept[j]) })
	return term{coeff: a.coeff * b.coeff, factors: kept}
}

// Add returns e + o.
func (e Expr) Add(o Expr) Expr {
	ts := make([]term, 0, len(e.terms)+len(o.terms))
	ts = append(ts, e.terms...)
	ts = append(ts, o.terms...)
	return normalize(ts)
}

// Neg returns -e.
func (e Expr) Neg() Expr {
	return e.Scale(-1)
}

// Sub returns e - o.
func (e Expr) Sub(o Expr) Expr {
	return e.Add(o.Neg())
}

// Scale multiplies every coefficient by k.
func (e Expr) Scale(k float64) Expr {
	ts := make([]term, len(e.terms))
	for i, t := range e.terms {
		ts[i] = term{coeff: t.coeff * k, factors: t.factors}
	}
	return normalize(ts)
}

// Mul returns e * o, distributing over both sums.
func (e Expr) Mul(o Expr) Expr {
	ts := make([]term, 0, len(e.terms)*len(o.terms))
	for _, a := range e.terms {
		for _, b := range o.terms {
			ts = append(ts, mulTerms(a, b))
		}
	}
	return normalize(ts)
}

func (e Expr) inverse() (Expr, error) {
	if len(e.terms) != 1 {
		return Expr{}, ErrNonMonomialDivisor
	}
	t := e.terms[0]
	fs := make([]factor, len(t.factors))
	for i, f := range t.factors {
		fs[i] = factor{name: f.name, exp: -f.exp}
	}
	return Expr{terms: []term{{coeff: 1 / t.coeff, factors: fs}}}, nil
}

// Div returns e / o. The divisor must be a single non-zero monomial.
func (e Expr) Div(o Expr) (Expr, error) {
	inv, err := o.inverse()
	if err != nil {
		return Expr{}, errors.Wrapf(err, "divide by %s", o)
	}
	return e.Mul(inv), nil
}

// Pow raises e to an integer power. Negative powers need a monomial.
func (e Expr) Pow(n int) (Expr, error) {
	base := e
	if n < 0 {
		inv, err := e.inverse()
		if err != nil {
			return Expr{}, errors.Wrapf(err, "raise %s to %d", e, n)
		}
		base, n = inv, -n
	}
	out := Num(1)
	for ; n > 0; n-- {
		out = out.Mul(base)
	}
	return out, nil
}

// IsZero reports whether e is identically 0.
func (e Expr) IsZero() bool {
	return len(e.terms) == 0
}

// FreeSymbols returns the sorted names of the symbols in e.
func (e Expr) FreeSymbols() []string {
	seen := map[string]bool{}
	var names []string
	for _, t := range e.terms {
		for _, f := range t.factors {
			if f.name != "" && !seen[f.name] {
				seen[f.name] = true
				names = append(names, f.name)
			}
		}
	}
	sort.Strings(names)
	return names
}

// IsNumeric reports whether e has no free symbols.
func (e Expr) IsNumeric() bool {
	for _, t := range e.terms {
		for _, f := range t.factors {
			if f.name != "" {
				return false
			}
		}
	}
	return true
}

// Float evaluates a numeric expression with π = math.Pi.
func (e Expr) Float() (float64, bool) {
	if !e.IsNumeric() {
		return 0, false
	}
	v, _ := e.Eval(nil)
	return v, true
}

// Eval evaluates e with symbols bound by env.
func (e Expr) Eval(env map[string]float64) (float64, error) {
	sum := 0.0
	for _, t := range e.terms {
		v := t.coeff
		for _, f := range t.factors {
			base := math.Pi
			if f.name != "" {
				b, ok := env[f.name]
				if !ok {
					return 0, errors.Wrap(ErrUnboundSymbol, f.name)
				}
				base = b
			}
			v *= math.Pow(base, float64(f.exp))
		}
		sum += v
	}
	return sum, nil
}

// Rename returns e with symbols renamed by m. Names absent from m are kept.
func (e Expr) Rename(m map[string]string) Expr {
	ts := make([]term, len(e.terms))
	for i, t := range e.terms {
		acc := term{coeff: t.coeff}
		for _, f := range t.factors {
			if to, ok := m[f.name]; ok && f.name != "" {
				f.name = to
			}
			acc = mulTerms(acc, term{coeff: 1, factors: []factor{f}})
		}
		ts[i] = acc
	}
	return normalize(ts)
}

// Subs replaces symbols by expressions.
func (e Expr) Subs(m map[string]Expr) (Expr, error) {
	out := Expr{}
	for _, t := range e.terms {
		acc := Num(t.coeff)
		for _, f := range t.factors {
			var base Expr
			if v, ok := m[f.name]; ok && f.name != "" {
				base = v
			} else {
				base = Expr{terms: []term{{coeff: 1, factors: []factor{{name: f.name, exp: 1}}}}}
			}
			p, err := base.Pow(f.exp)
			if err != nil {
				return Expr{}, errors.Wrap(err, "substitute")
			}
			acc = acc.Mul(p)
		}
		out = out.Add(acc)
	}
	return out, nil
}

// Equal reports exact structural equality of two canonical expressions.
func (e Expr) Equal(o Expr) bool {
	return e.Approx(o, 0)
}

// Approx reports equality of structure with coefficients within tol.
// A term naming a free symbol must appear on both sides; a purely numeric
// term missing from one side counts as zero there.
func (e Expr) Approx(o Expr, tol float64) bool {
	theirs := make(map[string]float64, len(o.terms))
	for _, t := range o.terms {
		theirs[t.key()] = t.coeff
	}
	for _, t := range e.terms {
		k := t.key()
		c, ok := theirs[k]
		if !ok && t.hasSymbol() {
			return false
		}
		if math.Abs(t.coeff-c) > tol {
			return false
		}
		delete(theirs, k)
	}
	for _, t := range o.terms {
		if _, left := theirs[t.key()]; !left {
			continue
		}
		if t.hasSymbol() || math.Abs(t.coeff) > tol {
			return false
		}
	}
	return true
}

func (t term) hasSymbol() bool {
	for _, f := range t.factors {
		if f.name != "" {
			return true
		}
	}
	return false
}
