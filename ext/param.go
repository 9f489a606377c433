package ext

import (
	"math"
	"sort"

	"github.com/google/uuid"

	"qbridge/sym"
)

// Parameter is a named free symbol. Two parameters are the same object
// only when both name and identity token match.
type Parameter struct {
	Name string
	UUID uuid.UUID
}

// NewParameter creates a parameter with a fresh identity token.
func NewParameter(name string) *Parameter {
	return &Parameter{Name: name, UUID: uuid.New()}
}

// Same reports object identity.
func (p *Parameter) Same(o *Parameter) bool {
	return p != nil && o != nil && p.Name == o.Name && p.UUID == o.UUID
}

// ParameterExpression is a radian expression whose symbols are bound to
// parameters, keyed by symbol name.
type ParameterExpression struct {
	Expr   sym.Expr
	Params map[string]*Parameter
}

// Param is a gate parameter: a float or a parameter expression.
type Param struct {
	value float64
	expr  *ParameterExpression
}

// Float returns a numeric parameter.
func Float(v float64) Param {
	return Param{value: v}
}

// ParamOf returns the parameter expression consisting of p alone.
func ParamOf(p *Parameter) Param {
	return Param{expr: &ParameterExpression{
		Expr:   sym.Symbol(p.Name),
		Params: map[string]*Parameter{p.Name: p},
	}}
}

// Bind builds a parameter from an expression over the given parameters.
// A numeric expression collapses to a float.
func Bind(e sym.Expr, params ...*Parameter) Param {
	if v, ok := e.Float(); ok {
		return Float(v)
	}
	m := make(map[string]*Parameter, len(params))
	for _, p := range params {
		m[p.Name] = p
	}
	return Param{expr: &ParameterExpression{Expr: e, Params: m}}
}

// IsSymbolic reports whether p has free symbols.
func (p Param) IsSymbolic() bool {
	return p.expr != nil
}

// Value returns the numeric value of a non-symbolic parameter.
func (p Param) Value() float64 {
	return p.value
}

// Expression returns the parameter expression, nil when numeric.
func (p Param) Expression() *ParameterExpression {
	return p.expr
}

// Sym returns p as a radian expression.
func (p Param) Sym() sym.Expr {
	if p.expr != nil {
		return p.expr.Expr
	}
	return sym.Num(p.value)
}

// Parameters returns the parameters p depends on, sorted by name.
func (p Param) Parameters() []*Parameter {
	if p.expr == nil {
		return nil
	}
	out := make([]*Parameter, 0, len(p.expr.Params))
	for _, name := range p.expr.Expr.FreeSymbols() {
		if prm, ok := p.expr.Params[name]; ok {
			out = append(out, prm)
		}
	}
	return out
}

func (p Param) String() string {
	if p.expr != nil {
		return p.expr.Expr.String()
	}
	return sym.FormatAngle(p.value)
}

// Approx compares two parameters. Symbolic parameters must also be bound
// to the same parameter objects.
func (p Param) Approx(o Param, tol float64) bool {
	if p.IsSymbolic() != o.IsSymbolic() {
		return false
	}
	if !p.IsSymbolic() {
		return math.Abs(p.value-o.value) <= tol
	}
	if !p.expr.Expr.Approx(o.expr.Expr, tol) {
		return false
	}
	for _, name := range p.expr.Expr.FreeSymbols() {
		if !p.expr.Params[name].Same(o.expr.Params[name]) {
			return false
		}
	}
	return true
}

func sortParameters(ps []*Parameter) {
	sort.Slice(ps, func(i, j int) bool { return ps[i].Name < ps[j].Name })
}
