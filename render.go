package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// ──────────────────────────── Rendering helpers ────────────────────────────

// padCenter centres a string within the given width, cutting it when it
// does not fit.
func padCenter(s string, width int) string {
	r := []rune(s)
	if len(r) >= width {
		return string(r[:width])
	}
	total := width - len(r)
	left := total / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", total-left)
}

// ──────────────────────────── Cell rendering ────────────────────────────

// renderCell returns 3 lines (top, mid, bot) for a single cell, each
// exactly cellW visual characters wide. The cursor cell is boxed.
func renderCell(info cellInfo, bitRow, cursor bool) (top, mid, bot string) {
	if !cursor {
		return drawCell(info, bitRow, cellW)
	}
	innerW := cellW - 2
	_, mid, _ = drawCell(info, bitRow, innerW)
	top = cursorBoxStyle.Render("╔" + strings.Repeat("═", innerW) + "╗")
	mid = cursorBoxStyle.Render("║") + mid + cursorBoxStyle.Render("║")
	bot = cursorBoxStyle.Render("╚" + strings.Repeat("═", innerW) + "╝")
	return
}

func drawCell(info cellInfo, bitRow bool, w int) (top, mid, bot string) {
	half := w / 2
	blank := strings.Repeat(" ", w)
	vertGlyph, crossGlyph := "│", "┼"
	if info.classical {
		vertGlyph, crossGlyph = cbitConnectorStyle.Render("║"), cbitConnectorStyle.Render("╫")
	}
	if bitRow {
		crossGlyph = "╪"
		if info.classical {
			crossGlyph = cbitConnectorStyle.Render("╬")
		}
	}
	vert := strings.Repeat(" ", half) + vertGlyph + strings.Repeat(" ", w-half-1)
	wire := func(n int) string {
		if bitRow {
			return cbitWireStyle.Render(strings.Repeat("═", n))
		}
		return strings.Repeat("─", n)
	}
	center := func(s string) string {
		return wire(half) + s + wire(w-half-1)
	}

	top, bot = blank, blank
	if info.vertAbove {
		top = vert
	}
	if info.vertBelow {
		bot = vert
	}

	switch info.kind {
	case cellBarrier:
		top = strings.Repeat(" ", half) + dimStyle.Render("┊") + strings.Repeat(" ", w-half-1)
		bot = top
		mid = center(dimStyle.Render("┊"))
	case cellGate:
		margin := (w - gateBoxW) / 2
		right := w - margin - gateBoxW
		edge := func(left, joint, rightCorner string, joined bool) string {
			dashes := strings.Repeat("─", gateNameW)
			if joined {
				l := gateNameW / 2
				dashes = strings.Repeat("─", l) + joint + strings.Repeat("─", gateNameW-l-1)
			}
			return strings.Repeat(" ", margin) + gateStyle.Render(left+dashes+rightCorner) + strings.Repeat(" ", right)
		}
		top = edge("┌", "┴", "┐", info.vertAbove)
		mid = wire(margin) + gateStyle.Render("┤"+padCenter(info.label, gateNameW)+"├") + wire(right)
		bot = edge("└", "┬", "┘", info.vertBelow)
	case cellControl, cellTarget, cellSwap:
		mid = center(gateStyle.Render(info.label))
	case cellBit:
		mid = center(cbitConnectorStyle.Render(info.label))
	default:
		if info.passThrough {
			mid = center(crossGlyph)
		} else {
			mid = wire(w)
		}
	}
	return
}

// ──────────────────────────── Panel rendering ────────────────────────────

// renderCircuitPanel renders the native circuit grid.
func (m Model) renderCircuitPanel(width, height int) string {
	var sb strings.Builder

	title := "Native Circuit"
	if m.native != nil {
		title = fmt.Sprintf("Native Circuit  phase %s", m.native.Phase)
	}
	sb.WriteString(titleStyle.Render(title))
	sb.WriteString("\n\n")

	availWidth := width - labelVisualW - 4
	maxSteps := max(availWidth/cellW, 1)
	startStep := 0
	if m.cursorStep >= maxSteps {
		startStep = m.cursorStep - maxSteps + 1
	}
	if startStep > 0 {
		fmt.Fprintf(&sb, "  ◀ showing steps %d–%d\n", startStep, startStep+maxSteps-1)
	}

	header := strings.Repeat(" ", labelVisualW)
	for step := startStep; step < startStep+maxSteps; step++ {
		header += dimStyle.Render(padCenter(fmt.Sprintf("%d", step), cellW))
	}
	sb.WriteString(header + "\n")

	for row, label := range m.grid.labels {
		bitRow := m.grid.isBitRow(row)
		topLine := strings.Repeat(" ", labelVisualW)
		botLine := topLine
		var midLine string
		if bitRow {
			midLine = cbitLabelStyle.Render(fmt.Sprintf("%-6s", label)) + cbitWireStyle.Render("══")
		} else {
			midLine = qubitLabelStyle.Render(fmt.Sprintf("%-6s", label)) + "──"
		}

		for step := startStep; step < startStep+maxSteps; step++ {
			cursor := m.focus == focusCircuit && step == m.cursorStep && row == m.cursorRow
			top, mid, bot := renderCell(m.grid.cellAt(step, row), bitRow, cursor)
			topLine += top
			midLine += mid
			botLine += bot
		}
		sb.WriteString(topLine + "\n")
		sb.WriteString(midLine + "\n")
		sb.WriteString(botLine + "\n")
	}

	fmt.Fprintf(&sb, "\n  Step %d", m.cursorStep)
	if cmd := m.commandAtCursor(); cmd != nil {
		fmt.Fprintf(&sb, "  │  %s", activeStyle.Render(cmd.String()))
	}
	if m.statusMsg != "" {
		fmt.Fprintf(&sb, "  │  %s", activeStyle.Render(m.statusMsg))
	}

	return circuitStyle.Width(width).Height(height).Render(sb.String())
}

// renderQASMPanel renders the QASM editor panel.
func (m Model) renderQASMPanel(width, height int) string {
	var sb strings.Builder

	title := "OpenQASM 2.0"
	if m.focus == focusQASM {
		title += " [ACTIVE]"
	}
	sb.WriteString(titleStyle.Render(title))
	sb.WriteString("\n\n")
	sb.WriteString(m.qasmEditor.View())

	return qasmStyle.Width(width).Height(height).Render(sb.String())
}

// renderOutputPanel shows the translation result in the selected view, or
// the error that stopped it.
func (m Model) renderOutputPanel(width, height int) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(m.view.String()))
	sb.WriteString("\n\n")

	body := m.output
	if m.errMsg != "" {
		body = errorStyle.Render(ansi.Wordwrap(m.errMsg, max(width-4, 10), " "))
	}
	lines := strings.Split(body, "\n")
	if limit := max(height-4, 1); len(lines) > limit {
		lines = append(lines[:limit-1], dimStyle.Render(fmt.Sprintf("… %d more lines", len(lines)-limit+1)))
	}
	sb.WriteString(strings.Join(lines, "\n"))

	return outputStyle.Width(width).Height(height).Render(sb.String())
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// renderControlsPanel renders the bottom help/controls bar.
func (m Model) renderControlsPanel(width, height int) string {
	var sb strings.Builder

	sb.WriteString(activeStyle.Render("Navigate: "))
	sb.WriteString("↑↓/jk Wire  ←→/hl Step  Tab Switch focus  g Gate table  q/^C Quit\n")

	sb.WriteString(activeStyle.Render("Convert:  "))
	fmt.Fprintf(&sb, "u Preserve ids [%s]  w Replace swaps [%s]  v View  ^S Save %s",
		onOff(m.cfg.Convert.PreserveParamUUID),
		onOff(m.cfg.Convert.ReplaceImplicitSwaps),
		m.cfg.TUI.SavePath,
	)

	return controlsStyle.Width(width).Height(height).Render(sb.String())
}

// ──────────────────────────── Overlay helpers ────────────────────────────

// overlayAt composites the overlay string on top of the background at
// visible position (x, y).
func overlayAt(bg, overlay string, x, y int) string {
	bgLines := strings.Split(bg, "\n")
	for i, ovLine := range strings.Split(overlay, "\n") {
		if idx := y + i; idx >= 0 && idx < len(bgLines) {
			bgLines[idx] = spliceLineAt(bgLines[idx], ovLine, x)
		}
	}
	return strings.Join(bgLines, "\n")
}

// spliceLineAt replaces the visible columns of bgLine from x onwards with
// overlay, keeping the escape sequences on either side.
func spliceLineAt(bgLine, overlay string, x int) string {
	left := ansi.Truncate(bgLine, x, "")
	if w := ansi.StringWidth(left); w < x {
		left += strings.Repeat(" ", x-w)
	}
	right := ansi.TruncateLeft(bgLine, x+ansi.StringWidth(overlay), "")
	return left + overlay + right
}
