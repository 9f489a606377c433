package rebase

import (
	"qbridge/convert"
	"qbridge/native"
	"qbridge/sym"
)

// step is one command produced by a rule, addressing the rewritten
// command's arguments by position.
type step struct {
	op   native.OpType
	args []int
	ps   []sym.Expr
}

// rewrite is the replacement for one command: its steps and the global
// phase they leave over.
type rewrite struct {
	steps []step
	phase sym.Expr
}

type rule func(ps []sym.Expr, nargs int) rewrite

func steps(ss ...step) rewrite {
	return rewrite{steps: ss}
}

// rules rewrite unprotected opcodes into opcodes closer to the protected
// set. Every rule is exact, global phase included.
var rules = map[native.OpType]rule{
	native.ZZMax: func(_ []sym.Expr, _ int) rewrite {
		return steps(
			step{native.CX, []int{0, 1}, nil},
			step{native.TK1, []int{1}, []sym.Expr{sym.Num(0.5), sym.Num(0), sym.Num(0)}},
			step{native.CX, []int{0, 1}, nil},
		)
	},
	native.ISWAP: func(ps []sym.Expr, _ int) rewrite {
		t := ps[0].Scale(-0.5)
		return steps(
			step{native.XXPhase, []int{0, 1}, []sym.Expr{t}},
			step{native.YYPhase, []int{0, 1}, []sym.Expr{t}},
		)
	},
	native.FSim: func(ps []sym.Expr, _ int) rewrite {
		return steps(
			step{native.ISWAP, []int{0, 1}, []sym.Expr{ps[0].Scale(-2)}},
			step{native.CU1, []int{0, 1}, []sym.Expr{ps[1].Neg()}},
		)
	},
	native.Sycamore: func(_ []sym.Expr, _ int) rewrite {
		return steps(step{native.FSim, []int{0, 1}, []sym.Expr{sym.Num(0.5), sym.Num(1.0 / 6)}})
	},
	native.TK2: func(ps []sym.Expr, _ int) rewrite {
		return steps(
			step{native.XXPhase, []int{0, 1}, []sym.Expr{ps[0]}},
			step{native.YYPhase, []int{0, 1}, []sym.Expr{ps[1]}},
			step{native.ZZPhase, []int{0, 1}, []sym.Expr{ps[2]}},
		)
	},
	native.XXPhase3: func(ps []sym.Expr, _ int) rewrite {
		return steps(
			step{native.XXPhase, []int{0, 1}, ps},
			step{native.XXPhase, []int{1, 2}, ps},
			step{native.XXPhase, []int{0, 2}, ps},
		)
	},
	native.CV: func(_ []sym.Expr, _ int) rewrite {
		return steps(step{native.CRx, []int{0, 1}, []sym.Expr{sym.Num(0.5)}})
	},
	native.CVdg: func(_ []sym.Expr, _ int) rewrite {
		return steps(step{native.CRx, []int{0, 1}, []sym.Expr{sym.Num(-0.5)}})
	},
	native.CSXdg: func(_ []sym.Expr, _ int) rewrite {
		return steps(
			step{native.CRx, []int{0, 1}, []sym.Expr{sym.Num(-0.5)}},
			step{native.U1, []int{0}, []sym.Expr{sym.Num(-0.25)}},
		)
	},
	native.BRIDGE: func(_ []sym.Expr, _ int) rewrite {
		return steps(step{native.CX, []int{0, 2}, nil})
	},
	native.NPhasedX: func(ps []sym.Expr, nargs int) rewrite {
		var out rewrite
		for q := 0; q < nargs; q++ {
			out.steps = append(out.steps, step{native.TK1, []int{q}, []sym.Expr{ps[1], ps[0], ps[1].Neg()}})
		}
		return out
	},
	native.TK1: func(ps []sym.Expr, _ int) rewrite {
		u3, phase := convert.TK1ToU3(ps[0], ps[1], ps[2])
		return rewrite{
			steps: []step{{native.U3, []int{0}, u3}},
			phase: phase,
		}
	},
}
