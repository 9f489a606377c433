package main

import (
	"qbridge/native"
)

// cellKind is what a command draws on one wire.
type cellKind int

const (
	cellEmpty cellKind = iota
	cellGate
	cellControl
	cellTarget
	cellSwap
	cellBit
	cellBarrier
)

// cellInfo describes what occupies a single cell in the circuit grid.
type cellInfo struct {
	kind  cellKind
	label string
	cmd   int // index into the circuit's commands, -1 when empty
	// vertical connections to the command's other wires
	vertAbove   bool
	vertBelow   bool
	passThrough bool
	// the connection carries a classical value
	classical bool
}

// circuitGrid places the commands of a native circuit on steps. Rows are
// the circuit's qubits followed by its bits.
type circuitGrid struct {
	labels    []string
	numQubits int
	steps     int
	cells     map[[2]int]cellInfo
}

// controlled maps controlled opcodes to the label of their target box and
// their number of controls. Variadic opcodes control all but the last wire.
var controlled = map[native.OpType]struct {
	label    string
	controls int
}{
	native.CY:    {"Y", 1},
	native.CH:    {"H", 1},
	native.CSX:   {"SX", 1},
	native.CSXdg: {"SXdg", 1},
	native.CV:    {"V", 1},
	native.CVdg:  {"Vdg", 1},
	native.CRx:   {"Rx", 1},
	native.CRy:   {"Ry", 1},
	native.CRz:   {"Rz", 1},
	native.CU1:   {"U1", 1},
	native.CU3:   {"U3", 1},
	native.CnY:   {"Y", -1},
	native.CnRy:  {"Ry", -1},
}

func opLabel(op *native.Op) string {
	switch op.Type {
	case native.CircBox, native.CustomGate:
		if op.Name != "" {
			return op.Name
		}
	case native.PauliExpBox:
		label := ""
		for _, p := range op.Paulis {
			label += p.String()
		}
		return label
	case native.StatePreparationBox:
		return "|ψ⟩"
	case native.Reset:
		return "|0⟩"
	case native.RangePredicate:
		return "RP"
	}
	return op.Type.String()
}

// glyphs returns the cell drawn on each of op's n arguments.
func glyphs(op *native.Op, n int) []cellInfo {
	out := make([]cellInfo, n)
	fill := func(from, to int, kind cellKind, label string) {
		for i := from; i < to; i++ {
			out[i] = cellInfo{kind: kind, label: label}
		}
	}

	switch op.Type {
	case native.Conditional:
		w := min(op.Width, n)
		fill(0, w, cellBit, "●")
		copy(out[w:], glyphs(op.Inner, n-w))
		return out
	case native.CX, native.CCX, native.CnX:
		fill(0, n-1, cellControl, "●")
		fill(n-1, n, cellTarget, "⊕")
		return out
	case native.CZ, native.CnZ:
		fill(0, n, cellControl, "●")
		return out
	case native.SWAP:
		fill(0, n, cellSwap, "×")
		return out
	case native.CSWAP:
		fill(0, 1, cellControl, "●")
		fill(1, n, cellSwap, "×")
		return out
	case native.Measure:
		fill(0, 1, cellGate, "M")
		fill(1, n, cellBit, "╩")
		return out
	case native.Barrier:
		fill(0, n, cellBarrier, "")
		return out
	case native.QControlBox:
		c := min(op.NumControls, n)
		fill(0, c, cellControl, "●")
		fill(c, n, cellGate, opLabel(op.Base))
		return out
	}

	if ctl, ok := controlled[op.Type]; ok {
		c := ctl.controls
		if c < 0 {
			c = n - 1
		}
		fill(0, c, cellControl, "●")
		fill(c, n, cellGate, ctl.label)
		return out
	}
	fill(0, n, cellGate, opLabel(op))
	return out
}

// layoutCircuit assigns every command the earliest step at which all the
// wires it spans are free. Commands on disjoint wires share a step.
func layoutCircuit(c *native.Circuit) circuitGrid {
	g := circuitGrid{cells: map[[2]int]cellInfo{}}
	rowOf := map[string]int{}
	for _, q := range c.Qubits() {
		rowOf[q.Key()] = len(g.labels)
		g.labels = append(g.labels, q.String())
	}
	g.numQubits = len(g.labels)
	for _, b := range c.Bits() {
		rowOf[b.Key()] = len(g.labels)
		g.labels = append(g.labels, b.String())
	}

	free := make([]int, len(g.labels))
	for i, cmd := range c.Commands {
		if len(cmd.Args) == 0 {
			continue
		}
		rows := make([]int, len(cmd.Args))
		lo, hi := len(g.labels), -1
		for j, a := range cmd.Args {
			rows[j] = rowOf[a.Key()]
			lo = min(lo, rows[j])
			hi = max(hi, rows[j])
		}

		step := 0
		for r := lo; r <= hi; r++ {
			step = max(step, free[r])
		}
		for r := lo; r <= hi; r++ {
			free[r] = step + 1
		}
		g.steps = max(g.steps, step+1)

		cells := glyphs(cmd.Op, len(rows))
		classical := cmd.Op.Type == native.Measure || cmd.Op.Type == native.Conditional || cmd.Op.Type == native.RangePredicate
		used := map[int]bool{}
		for j, r := range rows {
			info := cells[j]
			info.cmd = i
			info.classical = classical
			g.cells[[2]int{step, r}] = info
			used[r] = true
		}
		if cmd.Op.Type == native.Barrier {
			continue
		}
		for r := lo; r <= hi; r++ {
			info, ok := g.cells[[2]int{step, r}]
			if !ok {
				info = cellInfo{kind: cellEmpty, cmd: i, classical: classical}
			}
			info.vertAbove = r > lo
			info.vertBelow = r < hi
			info.passThrough = !used[r]
			g.cells[[2]int{step, r}] = info
		}
	}
	return g
}

// cellAt returns the cell at (step, row). Empty cells have cmd -1.
func (g circuitGrid) cellAt(step, row int) cellInfo {
	if info, ok := g.cells[[2]int{step, row}]; ok {
		return info
	}
	return cellInfo{cmd: -1}
}

func (g circuitGrid) isBitRow(row int) bool {
	return row >= g.numQubits
}
