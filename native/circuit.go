package native

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"qbridge/sym"
)

// ErrUnknownUnit is returned when a command addresses a unit the circuit
// does not declare.
var ErrUnknownUnit = errors.New("unknown unit")

// UnitType distinguishes qubits from classical bits.
type UnitType int

const (
	QubitUnit UnitType = iota
	BitUnit
)

// UnitID names a qubit or bit by register and index. The translators
// accept exactly one index component.
type UnitID struct {
	Type  UnitType
	Reg   string
	Index []int
}

// Qubit returns the id of reg[index...].
func Qubit(reg string, index ...int) UnitID {
	return UnitID{Type: QubitUnit, Reg: reg, Index: index}
}

// Bit returns the id of classical reg[index...].
func Bit(reg string, index ...int) UnitID {
	return UnitID{Type: BitUnit, Reg: reg, Index: index}
}

func (u UnitID) String() string {
	parts := make([]string, len(u.Index))
	for i, x := range u.Index {
		parts[i] = strconv.Itoa(x)
	}
	return u.Reg + "[" + strings.Join(parts, ",") + "]"
}

// Key is a comparable form of u for maps.
func (u UnitID) Key() string {
	if u.Type == BitUnit {
		return "b:" + u.String()
	}
	return "q:" + u.String()
}

// Equal compares two ids.
func (u UnitID) Equal(o UnitID) bool {
	return u.Key() == o.Key()
}

// Command is an op applied to units. Conditionals list their condition
// bits first.
type Command struct {
	Op   *Op
	Args []UnitID
}

func (c Command) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = a.String()
	}
	if len(args) == 0 {
		return c.Op.String() + ";"
	}
	return c.Op.String() + " " + strings.Join(args, ", ") + ";"
}

// Circuit is a native circuit. Phase is in half-turns.
type Circuit struct {
	Name     string
	Commands []Command
	Phase    sym.Expr

	qubits []UnitID
	bits   []UnitID
	units  map[string]bool
	perm   []int
}

// NewCircuit returns a circuit over q[0..numQubits) and c[0..numBits).
func NewCircuit(numQubits, numBits int) *Circuit {
	c := &Circuit{}
	for i := 0; i < numQubits; i++ {
		_ = c.AddQubit(Qubit("q", i))
	}
	for i := 0; i < numBits; i++ {
		_ = c.AddBit(Bit("c", i))
	}
	return c
}

func (c *Circuit) addUnit(u UnitID) error {
	if c.units == nil {
		c.units = map[string]bool{}
	}
	if c.units[u.Key()] {
		return errors.Errorf("unit %s already declared", u)
	}
	c.units[u.Key()] = true
	if u.Type == QubitUnit {
		c.qubits = append(c.qubits, u)
		c.perm = nil
	} else {
		c.bits = append(c.bits, u)
	}
	return nil
}

// AddQubit declares a qubit.
func (c *Circuit) AddQubit(u UnitID) error {
	u.Type = QubitUnit
	return c.addUnit(u)
}

// AddBit declares a classical bit.
func (c *Circuit) AddBit(u UnitID) error {
	u.Type = BitUnit
	return c.addUnit(u)
}

// AddQRegister declares name[0..size) and returns its qubits.
func (c *Circuit) AddQRegister(name string, size int) ([]UnitID, error) {
	out := make([]UnitID, size)
	for i := range out {
		out[i] = Qubit(name, i)
		if err := c.AddQubit(out[i]); err != nil {
			return nil, errors.Wrapf(err, "add register %s", name)
		}
	}
	return out, nil
}

// AddCRegister declares classical name[0..size) and returns its bits.
func (c *Circuit) AddCRegister(name string, size int) ([]UnitID, error) {
	out := make([]UnitID, size)
	for i := range out {
		out[i] = Bit(name, i)
		if err := c.AddBit(out[i]); err != nil {
			return nil, errors.Wrapf(err, "add register %s", name)
		}
	}
	return out, nil
}

// Qubits returns the qubits in declaration order.
func (c *Circuit) Qubits() []UnitID {
	return append([]UnitID(nil), c.qubits...)
}

// Bits returns the bits in declaration order.
func (c *Circuit) Bits() []UnitID {
	return append([]UnitID(nil), c.bits...)
}

// Has reports whether u is declared.
func (c *Circuit) Has(u UnitID) bool {
	return c.units[u.Key()]
}

// CommandOption configures an added command.
type CommandOption func(*commandConfig)

type commandConfig struct {
	condBits  []UnitID
	condValue uint64
	condition bool
}

// WithCondition runs the command only when bits read value, bit i being
// the 2^i digit.
func WithCondition(bits []UnitID, value uint64) CommandOption {
	return func(cfg *commandConfig) {
		cfg.condBits = bits
		cfg.condValue = value
		cfg.condition = true
	}
}

// withArity copies op and fixes the width of variadic built-ins.
func withArity(op *Op, nargs int) *Op {
	cp := *op
	switch {
	case cp.Type == Conditional:
		cp.Inner = withArity(cp.Inner, nargs-cp.Width)
	case !cp.Type.IsBox() && opTable[cp.Type].qubits == anyArity:
		cp.arity = nargs
	}
	return &cp
}

func (op *Op) argLayout() []UnitType {
	var out []UnitType
	fill := func(n int, t UnitType) {
		for i := 0; i < n; i++ {
			out = append(out, t)
		}
	}
	switch op.Type {
	case Conditional:
		fill(op.Width, BitUnit)
		return append(out, op.Inner.argLayout()...)
	case RangePredicate:
		fill(op.Width+1, BitUnit)
		return out
	case Measure:
		return []UnitType{QubitUnit, BitUnit}
	}
	fill(op.NumQubits(), QubitUnit)
	fill(op.NumBits(), BitUnit)
	return out
}

// AddOp appends op on args.
func (c *Circuit) AddOp(op *Op, args []UnitID, opts ...CommandOption) error {
	if !op.Type.Valid() {
		return errors.Errorf("invalid opcode %s", op.Type)
	}
	if n := op.Type.NumParams(); n != anyArity && len(op.Params) != n {
		return errors.Errorf("%s takes %d params, got %d", op.Type, n, len(op.Params))
	}
	cfg := commandConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.condition {
		op = NewConditional(op, len(cfg.condBits), cfg.condValue)
		args = append(append([]UnitID(nil), cfg.condBits...), args...)
	}
	op = withArity(op, len(args))
	for _, u := range args {
		if !c.Has(u) {
			return errors.Wrapf(ErrUnknownUnit, "%s on %s", op, u)
		}
	}
	if op.Type != Barrier {
		layout := op.argLayout()
		if len(layout) != len(args) {
			return errors.Errorf("%s expects %d args, got %d", op, len(layout), len(args))
		}
		for i, t := range layout {
			if args[i].Type != t {
				return errors.Errorf("%s: argument %d (%s) has the wrong unit type", op, i, args[i])
			}
		}
	}
	c.Commands = append(c.Commands, Command{Op: op, Args: append([]UnitID(nil), args...)})
	return nil
}

// AddGate appends a built-in opcode.
func (c *Circuit) AddGate(t OpType, params []sym.Expr, args []UnitID, opts ...CommandOption) error {
	return c.AddOp(NewOp(t, params...), args, opts...)
}

// AddBarrier appends a barrier over units.
func (c *Circuit) AddBarrier(units []UnitID) error {
	return c.AddOp(NewOp(Barrier), units)
}

// AddPhase adds to the global phase.
func (c *Circuit) AddPhase(e sym.Expr) {
	c.Phase = c.Phase.Add(e)
}

// AddCircuit appends sub, mapping its qubits and bits positionally.
func (c *Circuit) AddCircuit(sub *Circuit, qubits, bits []UnitID) error {
	if len(qubits) != len(sub.qubits) || len(bits) != len(sub.bits) {
		return errors.Errorf("circuit over %d qubits and %d bits added on %d and %d",
			len(sub.qubits), len(sub.bits), len(qubits), len(bits))
	}
	remap := make(map[string]UnitID, len(qubits)+len(bits))
	for i, q := range sub.qubits {
		remap[q.Key()] = qubits[i]
	}
	for i, b := range sub.bits {
		remap[b.Key()] = bits[i]
	}
	for _, cmd := range sub.Commands {
		args := make([]UnitID, len(cmd.Args))
		for i, a := range cmd.Args {
			args[i] = remap[a.Key()]
		}
		if err := c.AddOp(cmd.Op, args); err != nil {
			return errors.Wrap(err, "append circuit")
		}
	}
	c.AddPhase(sub.Phase)
	return nil
}

// Copy returns a copy sharing ops, which are treated as immutable.
func (c *Circuit) Copy() *Circuit {
	out := &Circuit{
		Name:     c.Name,
		Commands: append([]Command(nil), c.Commands...),
		Phase:    c.Phase,
		qubits:   append([]UnitID(nil), c.qubits...),
		bits:     append([]UnitID(nil), c.bits...),
		units:    make(map[string]bool, len(c.units)),
		perm:     append([]int(nil), c.perm...),
	}
	for k := range c.units {
		out.units[k] = true
	}
	return out
}

func substituteOp(op *Op, m map[string]sym.Expr) (*Op, error) {
	cp := *op
	cp.Params = make([]sym.Expr, len(op.Params))
	for i, p := range op.Params {
		e, err := p.Subs(m)
		if err != nil {
			return nil, err
		}
		cp.Params[i] = e
	}
	var err error
	if op.Type == CircBox && op.Circuit != nil {
		if cp.Circuit, err = op.Circuit.Substitute(m); err != nil {
			return nil, err
		}
	}
	if op.Inner != nil {
		if cp.Inner, err = substituteOp(op.Inner, m); err != nil {
			return nil, err
		}
	}
	if op.Base != nil {
		if cp.Base, err = substituteOp(op.Base, m); err != nil {
			return nil, err
		}
	}
	return &cp, nil
}

// Substitute returns a copy with symbols replaced by m.
func (c *Circuit) Substitute(m map[string]sym.Expr) (*Circuit, error) {
	out := c.Copy()
	phase, err := c.Phase.Subs(m)
	if err != nil {
		return nil, errors.Wrap(err, "substitute phase")
	}
	out.Phase = phase
	for i, cmd := range out.Commands {
		op, err := substituteOp(cmd.Op, m)
		if err != nil {
			return nil, errors.Wrapf(err, "substitute command %d", i)
		}
		out.Commands[i].Op = op
	}
	return out, nil
}

// FreeSymbols returns the sorted symbol names used anywhere in c.
func (c *Circuit) FreeSymbols() []string {
	seen := map[string]bool{}
	for _, s := range c.Phase.FreeSymbols() {
		seen[s] = true
	}
	for _, cmd := range c.Commands {
		for _, s := range cmd.Op.FreeSymbols() {
			seen[s] = true
		}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// SetImplicitPermutation records that the state of qubit i ends on wire
// perm[i], indices following Qubits().
func (c *Circuit) SetImplicitPermutation(perm []int) error {
	if len(perm) != len(c.qubits) {
		return errors.Errorf("permutation of %d entries for %d qubits", len(perm), len(c.qubits))
	}
	seen := make([]bool, len(perm))
	for _, p := range perm {
		if p < 0 || p >= len(perm) || seen[p] {
			return errors.Errorf("%v is not a permutation", perm)
		}
		seen[p] = true
	}
	c.perm = append([]int(nil), perm...)
	return nil
}

// ImplicitPermutation returns the wire permutation, identity when unset.
func (c *Circuit) ImplicitPermutation() []int {
	out := make([]int, len(c.qubits))
	for i := range out {
		out[i] = i
		if c.perm != nil {
			out[i] = c.perm[i]
		}
	}
	return out
}

// HasImplicitPermutation reports a non-identity wire permutation.
func (c *Circuit) HasImplicitPermutation() bool {
	for i, p := range c.perm {
		if i != p {
			return true
		}
	}
	return false
}

// ReplaceImplicitWireSwaps appends the SWAPs realising the implicit
// permutation and clears it.
func (c *Circuit) ReplaceImplicitWireSwaps() error {
	perm := c.ImplicitPermutation()
	// held[w] is the qubit whose state is on wire w.
	held := make([]int, len(perm))
	for q, w := range perm {
		held[w] = q
	}
	for w := range held {
		if held[w] == w {
			continue
		}
		v := w + 1
		for held[v] != w {
			v++
		}
		if err := c.AddGate(SWAP, nil, []UnitID{c.qubits[w], c.qubits[v]}); err != nil {
			return errors.Wrap(err, "replace implicit swaps")
		}
		held[w], held[v] = held[v], held[w]
	}
	c.perm = nil
	return nil
}

func (c *Circuit) String() string {
	var sb strings.Builder
	name := c.Name
	if name == "" {
		name = "circuit"
	}
	fmt.Fprintf(&sb, "%s: %d qubits, %d bits, phase %s\n", name, len(c.qubits), len(c.bits), c.Phase)
	for _, cmd := range c.Commands {
		sb.WriteString(cmd.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}
