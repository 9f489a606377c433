package convert

import (
	"math"
	"strings"

	"github.com/google/uuid"

	"qbridge/ext"
	"qbridge/sym"
)

// uuidSeparator joins a parameter name and its identity token in native
// symbol names.
const uuidSeparator = "_UUID:"

// ParamBridge lowers external radian parameters to native half-turns.
type ParamBridge struct {
	// PreserveUUID encodes each parameter's identity token into the
	// native symbol name.
	PreserveUUID bool
}

// ToNative divides p by π, keeping its symbols.
func (b ParamBridge) ToNative(p ext.Param) sym.Expr {
	if !p.IsSymbolic() {
		return sym.Num(p.Value() / math.Pi)
	}
	e := p.Sym()
	if b.PreserveUUID {
		rename := make(map[string]string, len(p.Expression().Params))
		for name, prm := range p.Expression().Params {
			rename[name] = name + uuidSeparator + prm.UUID.String()
		}
		e = e.Rename(rename)
	}
	out, err := e.Div(sym.Pi())
	if err != nil {
		// π is a monomial.
		panic(err)
	}
	return out
}

// SymbolRegistry binds native symbol names to external parameters for
// one translation, so a name always yields the same parameter object.
type SymbolRegistry struct {
	params map[string]*ext.Parameter
}

func NewSymbolRegistry() *SymbolRegistry {
	return &SymbolRegistry{params: map[string]*ext.Parameter{}}
}

// Parameter returns the parameter for a native symbol name, decoding an
// identity token suffix when present.
func (r *SymbolRegistry) Parameter(name string) *ext.Parameter {
	if p, ok := r.params[name]; ok {
		return p
	}
	var p *ext.Parameter
	if i := strings.Index(name, uuidSeparator); i >= 0 {
		if id, err := uuid.Parse(name[i+len(uuidSeparator):]); err == nil {
			p = &ext.Parameter{Name: name[:i], UUID: id}
		}
	}
	if p == nil {
		p = ext.NewParameter(name)
	}
	r.params[name] = p
	return p
}

// ToExternal multiplies e by π. A result without free symbols collapses
// to a float.
func (r *SymbolRegistry) ToExternal(e sym.Expr) ext.Param {
	rad := e.Mul(sym.Pi())
	if v, ok := rad.Float(); ok {
		return ext.Float(v)
	}
	names := rad.FreeSymbols()
	rename := make(map[string]string, len(names))
	params := make([]*ext.Parameter, 0, len(names))
	for _, name := range names {
		p := r.Parameter(name)
		if p.Name != name {
			rename[name] = p.Name
		}
		params = append(params, p)
	}
	return ext.Bind(rad.Rename(rename), params...)
}
