package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"qbridge/config"
	"qbridge/internal/statevec"
	"qbridge/native"
	"qbridge/qasm"
)

// focus represents which panel has keyboard input.
type focus int

const (
	focusCircuit focus = iota
	focusQASM
	focusMenu
)

// outputView selects what the output panel shows.
type outputView int

const (
	viewNative outputView = iota
	viewQASM
	viewProbabilities
	numViews
)

func (v outputView) String() string {
	switch v {
	case viewQASM:
		return "Round-trip QASM"
	case viewProbabilities:
		return "Qubit Probabilities"
	}
	return "Native Commands"
}

// maxSimulatedQubits bounds the circuits the probability view simulates.
const maxSimulatedQubits = 12

const sampleQASM = `OPENQASM 2.0;
include "qelib1.inc";

qreg q[3];
creg c[3];

h q[0];
cx q[0], q[1];
cu1(pi/4) q[1], q[2];
ry(pi/3) q[2];
swap q[0], q[2];
measure q[0] -> c[0];
measure q[1] -> c[1];
if(c==3) x q[2];
`

// Model represents the TUI application state. The QASM editor is the
// source; the grid and output panel show its native translation.
type Model struct {
	cfg    config.Config
	logger *zap.Logger

	native *native.Circuit
	grid   circuitGrid
	output string
	errMsg string
	view   outputView

	cursorRow  int
	cursorStep int
	width      int
	height     int
	qasmEditor textarea.Model
	focus      focus
	lastQASM   string
	statusMsg  string // transient status message (e.g. save confirmation)

	// Menu state
	menuCat  int
	menuItem int
}

func initialModel(cfg config.Config, logger *zap.Logger, source string) Model {
	if logger == nil {
		logger = zap.NewNop()
	}
	ta := textarea.New()
	ta.Placeholder = "Edit QASM here..."
	ta.SetWidth(40)
	ta.SetHeight(20)
	ta.ShowLineNumbers = true
	ta.CharLimit = 0
	ta.MaxHeight = 0
	ta.KeyMap.InsertNewline.SetEnabled(true)
	if source == "" {
		source = sampleQASM
	}
	ta.SetValue(source)

	m := Model{
		cfg:        cfg,
		logger:     logger,
		qasmEditor: ta,
		focus:      focusCircuit,
	}
	m.translate()
	return m
}

func (m *Model) fail(err error) {
	m.errMsg = err.Error()
	m.logger.Debug("translation failed", zap.Error(err))
}

// translate parses the editor contents and lowers them. On failure the
// previous circuit stays on screen beside the error.
func (m *Model) translate() {
	src := m.qasmEditor.Value()
	m.lastQASM = src
	m.errMsg = ""

	qc, err := qasm.Parse(src)
	if err != nil {
		m.fail(err)
		return
	}
	nc, err := newConverter(m.cfg.Convert, m.logger).ToNative(qc)
	if err != nil {
		m.fail(err)
		return
	}
	m.native = nc
	m.grid = layoutCircuit(nc)
	m.clampCursor()
	m.refreshOutput()
}

// refreshOutput recomputes the output panel for the current view.
func (m *Model) refreshOutput() {
	if m.native == nil {
		return
	}
	m.errMsg = ""
	switch m.view {
	case viewQASM:
		qc, err := newConverter(m.cfg.Convert, m.logger).ToExternal(m.native)
		if err != nil {
			m.fail(err)
			return
		}
		m.output = qasm.Format(qc)
	case viewProbabilities:
		out, err := probabilities(m.native)
		if err != nil {
			m.fail(err)
			return
		}
		m.output = out
	default:
		m.output = m.native.String()
	}
}

// probabilities lists the chance of reading 1 on each qubit before any
// measurement.
func probabilities(c *native.Circuit) (string, error) {
	qubits := c.Qubits()
	if len(qubits) > maxSimulatedQubits {
		return "", errors.Errorf("%d qubits is too many to simulate", len(qubits))
	}
	if free := c.FreeSymbols(); len(free) > 0 {
		return "", errors.Errorf("unbound symbols: %s", strings.Join(free, ", "))
	}
	sv, err := statevec.Simulate(c, nil, nil)
	if err != nil {
		return "", errors.Wrap(err, "simulate")
	}

	const barW = 20
	var sb strings.Builder
	for i, p := range sv.QubitProbabilities() {
		filled := int(p.Prob1*barW + 0.5)
		fmt.Fprintf(&sb, "%-6s %s %.3f\n", qubits[i],
			gateStyle.Render(strings.Repeat("█", filled))+dimStyle.Render(strings.Repeat("░", barW-filled)),
			p.Prob1)
	}
	return sb.String(), nil
}

func (m *Model) clampCursor() {
	m.cursorRow = max(min(m.cursorRow, len(m.grid.labels)-1), 0)
	m.cursorStep = max(min(m.cursorStep, m.grid.steps-1), 0)
}

// commandAtCursor returns the command drawn under the cursor, if any.
func (m Model) commandAtCursor() *native.Command {
	info := m.grid.cellAt(m.cursorStep, m.cursorRow)
	if info.cmd < 0 || info.passThrough || m.native == nil || info.cmd >= len(m.native.Commands) {
		return nil
	}
	return &m.native.Commands[info.cmd]
}

func (m *Model) save() {
	if m.native == nil {
		m.statusMsg = "Nothing to save"
		return
	}
	path := m.cfg.TUI.SavePath
	if err := os.WriteFile(path, []byte(m.native.String()), 0644); err != nil {
		m.statusMsg = fmt.Sprintf("Save error: %v", err)
		m.logger.Error("save failed", zap.String("path", path), zap.Error(err))
		return
	}
	m.statusMsg = "Saved " + path
}

// ──────────────────────────── Init / Update ────────────────────────────

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.qasmEditor.SetWidth(max(msg.Width/3-6, 20))
		m.qasmEditor.SetHeight(max(msg.Height-16, 4))

	case tea.KeyMsg:
		key := msg.String()
		m.statusMsg = ""

		if key == "ctrl+c" {
			return m, tea.Quit
		}

		switch m.focus {
		case focusCircuit:
			switch key {
			case "q":
				return m, tea.Quit
			case "tab":
				m.focus = focusQASM
				cmds = append(cmds, m.qasmEditor.Focus())
			case "ctrl+s":
				m.save()
			case "up", "k":
				if m.cursorRow > 0 {
					m.cursorRow--
				}
			case "down", "j":
				if m.cursorRow < len(m.grid.labels)-1 {
					m.cursorRow++
				}
			case "left", "h":
				if m.cursorStep > 0 {
					m.cursorStep--
				}
			case "right", "l":
				if m.cursorStep < m.grid.steps-1 {
					m.cursorStep++
				}
			case "u":
				m.cfg.Convert.PreserveParamUUID = !m.cfg.Convert.PreserveParamUUID
				m.translate()
			case "w":
				m.cfg.Convert.ReplaceImplicitSwaps = !m.cfg.Convert.ReplaceImplicitSwaps
				m.translate()
			case "v":
				m.view = (m.view + 1) % numViews
				m.refreshOutput()
			case "g":
				m.focus = focusMenu
				m.menuCat = 0
				m.menuItem = 0
			}

		case focusMenu:
			switch key {
			case "esc", "g":
				m.focus = focusCircuit
			case "up", "k":
				if m.menuItem > 0 {
					m.menuItem--
				}
			case "down", "j":
				if m.menuItem < len(gateMenu[m.menuCat].items)-1 {
					m.menuItem++
				}
			case "left", "h":
				if m.menuCat > 0 {
					m.menuCat--
					m.menuItem = 0
				}
			case "right", "l":
				if m.menuCat < len(gateMenu)-1 {
					m.menuCat++
					m.menuItem = 0
				}
			}

		case focusQASM:
			switch key {
			case "tab", "esc":
				m.focus = focusCircuit
				m.qasmEditor.Blur()
			default:
				var cmd tea.Cmd
				m.qasmEditor, cmd = m.qasmEditor.Update(msg)
				cmds = append(cmds, cmd)
				if m.qasmEditor.Value() != m.lastQASM {
					m.translate()
				}
			}
		}
	}

	return m, tea.Batch(cmds...)
}

// View renders the UI.
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	qasmWidth := m.width / 3
	leftWidth := m.width - qasmWidth - 4
	controlsHeight := 4
	mainHeight := max(m.height-controlsHeight-4, 12)
	circuitHeight := mainHeight * 3 / 5
	outputHeight := mainHeight - circuitHeight - 2

	left := lipgloss.JoinVertical(lipgloss.Left,
		m.renderCircuitPanel(leftWidth, circuitHeight),
		m.renderOutputPanel(leftWidth, outputHeight),
	)
	topRow := lipgloss.JoinHorizontal(lipgloss.Top, left, m.renderQASMPanel(qasmWidth, mainHeight))
	frame := lipgloss.JoinVertical(lipgloss.Left, topRow, m.renderControlsPanel(m.width-4, controlsHeight-2))

	if m.focus == focusMenu {
		frame = overlayAt(frame, m.renderMenu(), 2, 2)
	}
	return frame
}
