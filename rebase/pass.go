// Package rebase rewrites native circuits onto the opcodes the reverse
// emitter raises exactly.
package rebase

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"qbridge/convert"
	"qbridge/native"
)

// ErrNoFixedPoint is returned when rewriting does not settle within the
// iteration budget.
var ErrNoFixedPoint = errors.New("rebase did not reach a fixed point")

// Pass applies the rewrite rules until every command is protected. It
// implements convert.Rebaser.
type Pass struct {
	maxIterations int
	logger        *zap.Logger
}

var _ convert.Rebaser = (*Pass)(nil)

func New(maxIterations int, logger *zap.Logger) *Pass {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pass{maxIterations: maxIterations, logger: logger}
}

// Rebase returns a rewritten copy of c. Boxes are left alone; the
// converter rebases their circuits when it raises them.
func (p *Pass) Rebase(c *native.Circuit) (*native.Circuit, error) {
	cur := c
	for iter := 0; iter < p.maxIterations; iter++ {
		next, changed, err := p.sweep(cur)
		if err != nil {
			return nil, err
		}
		if !changed {
			sweepsPerCircuit.Observe(float64(iter))
			p.logger.Debug("rebased circuit",
				zap.String("circuit", c.Name),
				zap.Int("sweeps", iter),
				zap.Int("commands", len(next.Commands)),
			)
			return next, nil
		}
		cur = next
	}
	return nil, errors.Wrapf(ErrNoFixedPoint, "after %d sweeps", p.maxIterations)
}

// sweep rewrites every unprotected command once.
func (p *Pass) sweep(c *native.Circuit) (*native.Circuit, bool, error) {
	out := c.Copy()
	out.Commands = nil
	changed := false
	for i, cmd := range c.Commands {
		op, args := cmd.Op, cmd.Args
		var opts []native.CommandOption
		if op.Type == native.Conditional {
			opts = append(opts, native.WithCondition(args[:op.Width], op.Value))
			op, args = op.Inner, args[op.Width:]
		}
		if convert.IsProtected(op.Type) {
			out.Commands = append(out.Commands, cmd)
			continue
		}

		r, ok := rules[op.Type]
		if !ok {
			return nil, false, errors.Wrapf(convert.ErrUnsupportedGate, "no rebase rule for %s", op.Type)
		}
		rw := r(op.Params, len(args))
		for _, s := range rw.steps {
			stepArgs := make([]native.UnitID, len(s.args))
			for j, a := range s.args {
				stepArgs[j] = args[a]
			}
			if err := out.AddGate(s.op, s.ps, stepArgs, opts...); err != nil {
				return nil, false, errors.Wrapf(err, "rebase command %d (%s)", i, cmd.Op)
			}
		}
		if !rw.phase.IsZero() {
			if len(opts) == 0 {
				out.AddPhase(rw.phase)
			} else if err := out.AddOp(native.NewOp(native.Phase, rw.phase), nil, opts...); err != nil {
				return nil, false, errors.Wrapf(err, "rebase command %d (%s)", i, cmd.Op)
			}
		}
		rewritesTotal.WithLabelValues(op.Type.String()).Inc()
		changed = true
	}
	return out, changed, nil
}
