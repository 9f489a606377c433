package sym

import (
	"math"
	"strconv"
	"strings"
)

type piForm struct {
	value   float64
	display string
}

// piForms are the multiples of π printed symbolically.
var piForms = []piForm{
	{2 * math.Pi, "2*pi"},
	{math.Pi, "pi"},
	{math.Pi / 2, "pi/2"},
	{math.Pi / 3, "pi/3"},
	{math.Pi / 4, "pi/4"},
	{math.Pi / 6, "pi/6"},
	{math.Pi / 8, "pi/8"},
	{3 * math.Pi / 4, "3*pi/4"},
	{3 * math.Pi / 2, "3*pi/2"},
	{2 * math.Pi / 3, "2*pi/3"},
}

// FormatAngle formats a radian value, using pi notation for common
// fractions of π.
func FormatAngle(val float64) string {
	for _, pf := range piForms {
		if math.Abs(val-pf.value) < 1e-10 {
			return pf.display
		}
		if math.Abs(val+pf.value) < 1e-10 {
			return "-" + pf.display
		}
	}
	return formatCoeff(val)
}

func formatCoeff(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func (f factor) String() string {
	name := f.name
	if name == "" {
		name = "pi"
	}
	exp := f.exp
	if exp < 0 {
		exp = -exp
	}
	if exp == 1 {
		return name
	}
	return name + "^" + strconv.Itoa(exp)
}

// body formats |t| without its sign.
func (t term) body() string {
	c := math.Abs(t.coeff)
	if len(t.factors) == 1 && t.factors[0].name == "" && t.factors[0].exp == 1 {
		for _, pf := range piForms {
			if math.Abs(c*math.Pi-pf.value) < 1e-10 {
				return pf.display
			}
		}
	}

	var num, den []string
	for _, f := range t.factors {
		if f.exp > 0 {
			num = append(num, f.String())
		} else {
			den = append(den, f.String())
		}
	}

	var sb strings.Builder
	switch {
	case len(num) == 0:
		sb.WriteString(formatCoeff(c))
	case c == 1:
		sb.WriteString(strings.Join(num, "*"))
	default:
		sb.WriteString(formatCoeff(c))
		sb.WriteByte('*')
		sb.WriteString(strings.Join(num, "*"))
	}
	for _, d := range den {
		sb.WriteByte('/')
		sb.WriteString(d)
	}
	return sb.String()
}

// String renders e in the infix syntax accepted by Parse.
func (e Expr) String() string {
	if len(e.terms) == 0 {
		return "0"
	}
	var sb strings.Builder
	for i, t := range e.terms {
		switch {
		case i == 0 && t.coeff < 0:
			sb.WriteByte('-')
		case i > 0 && t.coeff < 0:
			sb.WriteString(" - ")
		case i > 0:
			sb.WriteString(" + ")
		}
		sb.WriteString(t.body())
	}
	return sb.String()
}
