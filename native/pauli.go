package native

import "qbridge/sym"

// PauliGadget synthesises a PauliExpBox as basis changes around a CX
// ladder with a single Rz. An all-identity string is a pure phase.
func (op *Op) PauliGadget() *Circuit {
	n := len(op.Paulis)
	c := NewCircuit(n, 0)
	c.Name = op.String()
	t := op.Params[0]
	q := c.Qubits()

	var support []int
	for i, p := range op.Paulis {
		if p != PauliI {
			support = append(support, i)
		}
	}
	if len(support) == 0 {
		c.AddPhase(t.Scale(-0.5))
		return c
	}

	half := sym.Num(0.5)
	basis := func(undo bool) {
		for _, i := range support {
			switch op.Paulis[i] {
			case PauliX:
				_ = c.AddGate(H, nil, []UnitID{q[i]})
			case PauliY:
				angle := half
				if undo {
					angle = half.Neg()
				}
				_ = c.AddGate(Rx, []sym.Expr{angle}, []UnitID{q[i]})
			}
		}
	}

	basis(false)
	for k := 0; k+1 < len(support); k++ {
		_ = c.AddGate(CX, nil, []UnitID{q[support[k]], q[support[k+1]]})
	}
	_ = c.AddGate(Rz, []sym.Expr{t}, []UnitID{q[support[len(support)-1]]})
	for k := len(support) - 2; k >= 0; k-- {
		_ = c.AddGate(CX, nil, []UnitID{q[support[k]], q[support[k+1]]})
	}
	basis(true)
	return c
}
