// Command qbridge translates OpenQASM 2.0 circuits to the native IR and
// back, and inspects the translation interactively.
package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"qbridge/characterisation"
	"qbridge/config"
	"qbridge/convert"
	"qbridge/ext"
	"qbridge/native"
	"qbridge/qasm"
	"qbridge/rebase"
)

var (
	configPath   string
	debug        bool
	preserveUUID bool
	replaceSwaps bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "qbridge [file.qasm]",
	Short: "Quantum circuit translator",
	Long: `qbridge lowers OpenQASM 2.0 circuits to the native IR, rebases native
circuits onto the raisable gate set and raises them back.

Without a subcommand it opens the interactive inspector.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		if flags.Changed("debug") {
			cfg.Debug = debug
		}
		if flags.Changed("preserve-uuid") {
			cfg.Convert.PreserveParamUUID = preserveUUID
		}
		if flags.Changed("replace-swaps") {
			cfg.Convert.ReplaceImplicitSwaps = replaceSwaps
		}
		logger, err = cfg.CreateLogger()
		return err
	},
	RunE: runTUI,
}

var tuiCmd = &cobra.Command{
	Use:   "tui [file.qasm]",
	Short: "Open the interactive inspector",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTUI,
}

var nativeCmd = &cobra.Command{
	Use:   "native <file.qasm>",
	Short: "Print the native translation of a circuit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		qc, err := loadCircuit(args[0])
		if err != nil {
			return err
		}
		nc, err := newConverter(cfg.Convert, logger).ToNative(qc)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), commandTable(nc))
		return nil
	},
}

var roundtripCmd = &cobra.Command{
	Use:   "roundtrip <file.qasm>",
	Short: "Lower a circuit, rebase it and raise it back to OpenQASM",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		qc, err := loadCircuit(args[0])
		if err != nil {
			return err
		}
		conv := newConverter(cfg.Convert, logger)
		nc, err := conv.ToNative(qc)
		if err != nil {
			return err
		}
		back, err := conv.ToExternal(nc)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), qasm.Format(back))
		return nil
	},
}

var gatesCmd = &cobra.Command{
	Use:   "gates",
	Short: "Print the gate correspondence table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), correspondenceTable())
		names := make([]string, 0)
		for _, op := range convert.ProtectedOpTypes() {
			names = append(names, op.String())
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\nProtected: %s\n", strings.Join(names, ", "))
		return nil
	},
}

var characteriseCmd = &cobra.Command{
	Use:   "characterise <backend.yaml>",
	Short: "Summarise the error figures of a device description",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, err := characterisation.LoadBackend(args[0])
		if err != nil {
			return err
		}
		ch := characterisation.Process(backend.Configuration, backend.Properties)
		logger.Debug("processed backend",
			zap.String("backend", backend.Configuration.Name),
			zap.Int("nodes", len(ch.NodeErrors)),
			zap.Int("links", len(ch.EdgeErrors)),
		)
		for _, t := range characterisationTables(backend.Configuration, ch) {
			fmt.Fprintln(cmd.OutOrStdout(), t)
			fmt.Fprintln(cmd.OutOrStdout())
		}
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	flags.BoolVar(&debug, "debug", false, "development logging")
	flags.BoolVar(&preserveUUID, "preserve-uuid", false, "keep parameter identities across a round trip")
	flags.BoolVar(&replaceSwaps, "replace-swaps", false, "materialise implicit wire permutations as SWAPs")

	rootCmd.AddCommand(tuiCmd, nativeCmd, roundtripCmd, gatesCmd, characteriseCmd)
}

func newConverter(cfg config.ConvertConfig, logger *zap.Logger) *convert.Converter {
	cfg = cfg.WithDefaults()
	return convert.New(cfg, logger, convert.WithRebaser(rebase.New(cfg.MaxRebaseIterations, logger)))
}

func loadCircuit(path string) (*ext.Circuit, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "load circuit")
	}
	qc, err := qasm.Parse(string(src))
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	return qc, nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	source := ""
	if len(args) == 1 {
		src, err := os.ReadFile(args[0])
		if err != nil {
			return errors.Wrap(err, "load circuit")
		}
		source = string(src)
	}
	// stderr belongs to the terminal UI
	m := initialModel(*cfg, zap.NewNop(), source)
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return errors.Wrap(err, "run inspector")
}

func commandTable(c *native.Circuit) string {
	t := table.NewWriter()
	t.SetTitle(fmt.Sprintf("%d qubits, %d bits", len(c.Qubits()), len(c.Bits())))
	t.AppendHeader(table.Row{"#", "Op", "Args"})
	for i, cmd := range c.Commands {
		args := make([]string, len(cmd.Args))
		for j, a := range cmd.Args {
			args[j] = a.String()
		}
		t.AppendRow(table.Row{i, cmd.Op.String(), strings.Join(args, ", ")})
	}
	t.AppendFooter(table.Row{"", "phase", c.Phase.String()})
	return t.Render()
}

func correspondenceTable() string {
	t := table.NewWriter()
	t.SetTitle("Gate correspondence")
	t.AppendHeader(table.Row{"Gate", "Native", "Phase", "Raises back"})
	for _, c := range convert.Correspondences() {
		phase := ""
		if c.Phase != 0 {
			phase = fmt.Sprintf("%+g", c.Phase)
		}
		t.AppendRow(table.Row{c.Gate.String(), c.Op.String(), phase, c.Reverse})
	}
	return t.Render()
}

func characterisationTables(bc characterisation.BackendConfiguration, ch characterisation.Characterisation) []string {
	avg := characterisation.Average(ch)

	nodes := table.NewWriter()
	nodes.SetTitle(fmt.Sprintf("%s: node errors", bc.Name))
	nodes.AppendHeader(table.Row{"Node", "Gate", "Error"})
	for _, n := range characterisation.SortedNodes(ch.NodeErrors) {
		for _, op := range sortedOps(ch.NodeErrors[n]) {
			nodes.AppendRow(table.Row{n, op.String(), ch.NodeErrors[n][op]})
		}
		nodes.AppendRow(table.Row{n, "mean", avg.NodeErrors[n]})
		nodes.AppendSeparator()
	}

	edges := table.NewWriter()
	edges.SetTitle("Edge errors")
	edges.AppendHeader(table.Row{"Link", "Gate", "Error"})
	for _, l := range characterisation.SortedLinks(ch.EdgeErrors) {
		name := fmt.Sprintf("%d→%d", l.From, l.To)
		for _, op := range sortedOps(ch.EdgeErrors[l]) {
			edges.AppendRow(table.Row{name, op.String(), ch.EdgeErrors[l][op]})
		}
		edges.AppendSeparator()
	}

	readout := table.NewWriter()
	readout.SetTitle("Readout errors")
	readout.AppendHeader(table.Row{"Node", "P(1|0)", "P(0|1)", "Mean"})
	for _, n := range characterisation.SortedNodes(ch.ReadoutErrors) {
		m := ch.ReadoutErrors[n]
		readout.AppendRow(table.Row{n, m[0][1], m[1][0], avg.ReadoutErrors[n]})
	}

	gates := make([]string, 0)
	for _, op := range characterisation.GateSet(bc) {
		gates = append(gates, op.String())
	}
	return []string{nodes.Render(), edges.Render(), readout.Render(), "Gate set: " + strings.Join(gates, ", ")}
}

func sortedOps(m map[native.OpType]float64) []native.OpType {
	out := make([]native.OpType, 0, len(m))
	for op := range m {
		out = append(out, op)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func main() {
	err := rootCmd.Execute()
	if logger != nil {
		if err != nil {
			logger.Error("command failed", zap.Error(err))
		}
		_ = logger.Sync()
	}
	if err != nil {
		if logger == nil {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
