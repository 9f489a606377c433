package main

import (
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"qbridge/config"
)

func newTestModel(t *testing.T, source string) Model {
	t.Helper()
	cfg := config.Config{}.WithDefaults()
	cfg.TUI.SavePath = filepath.Join(t.TempDir(), "circuit.native")
	return initialModel(cfg, zaptest.NewLogger(t), source)
}

func press(t *testing.T, m Model, keys ...tea.KeyMsg) Model {
	t.Helper()
	for _, k := range keys {
		next, _ := m.Update(k)
		var ok bool
		m, ok = next.(Model)
		require.True(t, ok)
	}
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestInitialModelTranslatesSample(t *testing.T) {
	m := newTestModel(t, "")
	require.Empty(t, m.errMsg)
	require.NotNil(t, m.native)
	assert.Len(t, m.grid.labels, 6)
	assert.Equal(t, 3, m.grid.numQubits)
	assert.Equal(t, m.native.String(), m.output)

	cmd := m.commandAtCursor()
	require.NotNil(t, cmd)
	assert.Equal(t, "H q[0];", cmd.String())
}

func TestModelParseError(t *testing.T) {
	m := newTestModel(t, "OPENQASM 2.0;\nqreg q[1];\nfoo q[0];\n")
	assert.Contains(t, m.errMsg, "unknown gate foo")
	assert.Nil(t, m.native)
	assert.Nil(t, m.commandAtCursor())
}

func TestModelViews(t *testing.T) {
	m := newTestModel(t, "OPENQASM 2.0;\ninclude \"qelib1.inc\";\nqreg q[2];\nx q[0];\ncx q[0], q[1];\n")
	require.Empty(t, m.errMsg)

	m = press(t, m, runes("v"))
	assert.Equal(t, viewQASM, m.view)
	assert.Empty(t, m.errMsg)
	assert.Contains(t, m.output, "OPENQASM 2.0;")
	assert.Contains(t, m.output, "cx q[0], q[1];")

	m = press(t, m, runes("v"))
	assert.Equal(t, viewProbabilities, m.view)
	assert.Empty(t, m.errMsg)
	assert.Contains(t, m.output, "q[0]")
	assert.Contains(t, m.output, "1.000")

	m = press(t, m, runes("v"))
	assert.Equal(t, viewNative, m.view)
}

func TestModelProbabilitiesNeedBoundSymbols(t *testing.T) {
	m := newTestModel(t, "OPENQASM 2.0;\nqreg q[1];\nrz(theta) q[0];\n")
	require.Empty(t, m.errMsg)

	m = press(t, m, runes("v"), runes("v"))
	assert.Contains(t, m.errMsg, "unbound symbols")
}

func TestModelToggles(t *testing.T) {
	m := newTestModel(t, "")
	m = press(t, m, runes("w"), runes("u"))
	assert.True(t, m.cfg.Convert.ReplaceImplicitSwaps)
	assert.True(t, m.cfg.Convert.PreserveParamUUID)
	assert.Empty(t, m.errMsg)

	m = press(t, m, runes("w"))
	assert.False(t, m.cfg.Convert.ReplaceImplicitSwaps)
}

func TestModelCursor(t *testing.T) {
	m := newTestModel(t, "")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyUp}, tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, 0, m.cursorRow)
	assert.Equal(t, 0, m.cursorStep)

	// the CX follows the H on q[0]
	m = press(t, m, tea.KeyMsg{Type: tea.KeyRight})
	cmd := m.commandAtCursor()
	require.NotNil(t, cmd)
	assert.Equal(t, "CX q[0], q[1];", cmd.String())

	for i := 0; i < 20; i++ {
		m = press(t, m, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyRight})
	}
	assert.Equal(t, len(m.grid.labels)-1, m.cursorRow)
	assert.Equal(t, m.grid.steps-1, m.cursorStep)
}

func TestModelSave(t *testing.T) {
	m := newTestModel(t, "")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	assert.Equal(t, "Saved "+m.cfg.TUI.SavePath, m.statusMsg)

	data, err := os.ReadFile(m.cfg.TUI.SavePath)
	require.NoError(t, err)
	assert.Equal(t, m.native.String(), string(data))
}

func TestModelEditRetranslates(t *testing.T) {
	m := newTestModel(t, "OPENQASM 2.0;\nqreg q[1];\n")
	require.Empty(t, m.native.Commands)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, focusQASM, m.focus)
	m = press(t, m, runes("h q[0];"))
	require.Empty(t, m.errMsg)
	require.Len(t, m.native.Commands, 1)
	assert.Equal(t, "H q[0];", m.native.Commands[0].String())

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, focusCircuit, m.focus)
}

func TestModelMenu(t *testing.T) {
	m := newTestModel(t, "")
	m = press(t, m, runes("g"))
	assert.Equal(t, focusMenu, m.focus)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyRight}, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, m.menuCat)
	assert.Equal(t, 1, m.menuItem)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, 0, m.menuCat)
	assert.Equal(t, 0, m.menuItem)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, focusCircuit, m.focus)
}

func TestModelView(t *testing.T) {
	m := newTestModel(t, "")
	assert.Equal(t, "Loading...", m.View())

	next, _ := m.Update(tea.WindowSizeMsg{Width: 160, Height: 48})
	m = next.(Model)
	view := m.View()
	assert.Contains(t, view, "Native Circuit")
	assert.Contains(t, view, "q[0]")

	m = press(t, m, runes("g"))
	assert.Contains(t, m.View(), "Gate Correspondence")
}
