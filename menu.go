package main

import (
	"fmt"
	"strings"

	"qbridge/convert"
)

// menuItem is one row of the gate correspondence browser.
type menuItem struct {
	name   string
	symbol string
	note   string
}

// menuCategory groups related rows under a tab.
type menuCategory struct {
	name  string
	items []menuItem
}

// buildGateMenu sorts the correspondence table into tabs: kinds that
// translate both ways, kinds that only lower, opcodes raised with a phase
// offset, and the full protected opcode set.
func buildGateMenu() []menuCategory {
	exact := menuCategory{name: "Exact"}
	oneWay := menuCategory{name: "Lower only"}
	phased := menuCategory{name: "Phased"}
	for _, c := range convert.Correspondences() {
		item := menuItem{name: c.Gate.String(), symbol: c.Op.String()}
		switch {
		case c.Phase != 0:
			item.note = fmt.Sprintf("phase %+g", c.Phase)
			phased.items = append(phased.items, item)
		case c.Reverse:
			exact.items = append(exact.items, item)
		default:
			if back, _, err := convert.ToGateKind(c.Op); err == nil {
				item.note = "raises to " + back.String()
			}
			oneWay.items = append(oneWay.items, item)
		}
	}

	protected := menuCategory{name: "Protected"}
	for _, op := range convert.ProtectedOpTypes() {
		item := menuItem{name: op.String(), note: "structural"}
		if kind, _, err := convert.ToGateKind(op); err == nil {
			item.symbol = kind.String()
			item.note = ""
		}
		protected.items = append(protected.items, item)
	}
	return []menuCategory{exact, oneWay, phased, protected}
}

var gateMenu = buildGateMenu()

// menuWindow returns the range of rows to show so that the selected row
// stays visible.
func menuWindow(selected, total, rows int) (int, int) {
	if total <= rows {
		return 0, total
	}
	start := max(min(selected-rows/2, total-rows), 0)
	return start, start + rows
}

// renderMenu renders the floating correspondence browser.
func (m Model) renderMenu() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Gate Correspondence"))
	sb.WriteString("\n")

	for i, cat := range gateMenu {
		name := " " + cat.name + " "
		if i == m.menuCat {
			sb.WriteString(activeStyle.Render(name))
		} else {
			sb.WriteString(dimStyle.Render(name))
		}
		if i < len(gateMenu)-1 {
			sb.WriteString(dimStyle.Render("│"))
		}
	}
	sb.WriteString("\n")
	sb.WriteString(dimStyle.Render(strings.Repeat("─", 48)))
	sb.WriteString("\n")

	cat := gateMenu[m.menuCat]
	from, to := menuWindow(m.menuItem, len(cat.items), menuRows)
	for i := from; i < to; i++ {
		item := cat.items[i]
		if i == m.menuItem {
			sb.WriteString(menuSelectedStyle.Render(" ▸ "))
			sb.WriteString(menuSelectedStyle.Render(fmt.Sprintf("%-18s", item.name)))
			sb.WriteString(gateStyle.Render(fmt.Sprintf("%-14s", item.symbol)))
		} else {
			sb.WriteString("   ")
			sb.WriteString(menuNormalStyle.Render(fmt.Sprintf("%-18s", item.name)))
			sb.WriteString(dimStyle.Render(fmt.Sprintf("%-14s", item.symbol)))
		}
		if item.note != "" {
			sb.WriteString(dimStyle.Render(" " + item.note))
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "%s", dimStyle.Render(fmt.Sprintf(" %d/%d  ↑↓ Select  ←→ Tab  Esc ✕", m.menuItem+1, len(cat.items))))

	return menuBorderStyle.Render(sb.String())
}
