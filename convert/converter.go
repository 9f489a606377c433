// Package convert translates circuits between the external and native
// IRs. ToNative lowers external circuits; ToExternal rebases a native
// circuit onto the protected opcode set and raises it.
package convert

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"qbridge/config"
	"qbridge/ext"
	"qbridge/native"
)

// Rebaser rewrites a native circuit onto protected opcodes.
type Rebaser interface {
	Rebase(c *native.Circuit) (*native.Circuit, error)
}

// Converter holds configuration only; it is safe for concurrent use.
type Converter struct {
	cfg     config.ConvertConfig
	logger  *zap.Logger
	rebaser Rebaser
}

type Option func(*Converter)

// WithRebaser runs r on every native circuit before raising it.
func WithRebaser(r Rebaser) Option {
	return func(c *Converter) {
		c.rebaser = r
	}
}

func New(cfg config.ConvertConfig, logger *zap.Logger, opts ...Option) *Converter {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Converter{cfg: cfg.WithDefaults(), logger: logger}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ToNative lowers an external circuit.
func (c *Converter) ToNative(qc *ext.Circuit) (*native.Circuit, error) {
	start := time.Now()
	c.logger.Debug("lowering circuit",
		zap.String("circuit", qc.Name),
		zap.Int("instructions", len(qc.Data)),
	)
	out, err := c.toNative(qc, 0)
	observe(directionToNative, start, err)
	return out, err
}

// ToExternal raises a native circuit.
func (c *Converter) ToExternal(tkc *native.Circuit) (*ext.Circuit, error) {
	start := time.Now()
	c.logger.Debug("raising circuit",
		zap.String("circuit", tkc.Name),
		zap.Int("commands", len(tkc.Commands)),
	)
	out, err := c.toExternal(tkc, 0)
	observe(directionToExternal, start, err)
	return out, err
}

func (c *Converter) checkDepth(name string, depth int) error {
	if depth > c.cfg.MaxRecursionDepth {
		return newError(ErrRecursionLimit, name, "sub-circuits nested deeper than %d", c.cfg.MaxRecursionDepth)
	}
	return nil
}

// protectedExtra are raisable opcodes outside the reverse table.
var protectedExtra = []native.OpType{
	native.Phase,
	native.CnY,
	native.CnZ,
	native.CnRy,
	native.Unitary1qBox,
	native.Unitary2qBox,
	native.Unitary3qBox,
	native.CustomGate,
	native.PauliExpBox,
	native.QControlBox,
	native.Conditional,
	native.RangePredicate,
}

var protected = func() map[native.OpType]bool {
	m := map[native.OpType]bool{}
	for op := range opToGate {
		m[op] = true
	}
	for op := range opToGatePhased {
		m[op] = true
	}
	for _, op := range protectedExtra {
		m[op] = true
	}
	return m
}()

// IsProtected reports whether the reverse emitter raises t exactly.
func IsProtected(t native.OpType) bool {
	return protected[t]
}

// ProtectedOpTypes lists the protected opcodes in declaration order.
func ProtectedOpTypes() []native.OpType {
	out := make([]native.OpType, 0, len(protected))
	for op := range protected {
		out = append(out, op)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
