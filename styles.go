package main

import "github.com/charmbracelet/lipgloss"

// Layout constants
const (
	cellW        = 11 // step column width
	labelVisualW = 8  // wire label area, wide enough for "q[10]"
	gateNameW    = 5
	gateBoxW     = gateNameW + 2 // box edges on both sides
	menuRows     = 12            // correspondence rows visible at once
)

// palette names the colours by role in the inspector.
var palette = struct {
	wire, register, native, external, output, controls lipgloss.Color
	accent, highlight, failure, muted, text              lipgloss.Color
}{
	wire:      "#565f89",
	register:  "#7dcfff",
	native:    "#7aa2f7",
	external:  "#bb9af7",
	output:    "#7dcfff",
	controls:  "#9ece6a",
	accent:    "#ff9e64",
	highlight: "#e0af68",
	failure:   "#f7768e",
	muted:     "#565f89",
	text:      "#c0caf5",
}

func panel(border lipgloss.Color, padding ...int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(padding...)
}

func fg(c lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c)
}

var (
	circuitStyle    = panel(palette.native, 1)
	qasmStyle       = panel(palette.external, 1)
	outputStyle     = panel(palette.output, 1)
	controlsStyle   = panel(palette.controls, 0, 1)
	menuBorderStyle = panel(palette.accent, 0, 1)

	titleStyle        = fg(palette.accent).Bold(true)
	cursorBoxStyle    = fg(palette.accent).Bold(true)
	menuSelectedStyle = fg(palette.accent).Bold(true)
	menuNormalStyle   = fg(palette.text)
	activeStyle       = fg(palette.highlight)
	errorStyle        = fg(palette.failure)
	dimStyle          = fg(palette.muted)

	qubitLabelStyle = fg(palette.register)
	gateStyle       = fg("#73daca").Bold(true)

	// classical wires and the connectors that read or write them
	cbitLabelStyle     = fg(palette.highlight)
	cbitWireStyle      = fg(palette.wire)
	cbitConnectorStyle = fg(palette.highlight).Bold(true)
)
