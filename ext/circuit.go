package ext

import (
	"fmt"

	"github.com/pkg/errors"
)

// QuantumRegister is a named, sized block of qubits.
type QuantumRegister struct {
	Name string
	Size int
}

// ClassicalRegister is a named, sized block of bits.
type ClassicalRegister struct {
	Name string
	Size int
}

// Qubit addresses one qubit as (register, index).
type Qubit struct {
	Register string
	Index    int
}

// Clbit addresses one classical bit as (register, index).
type Clbit struct {
	Register string
	Index    int
}

// Q is shorthand for a qubit in register reg.
func Q(reg string, i int) Qubit { return Qubit{Register: reg, Index: i} }

// C is shorthand for a bit in register reg.
func C(reg string, i int) Clbit { return Clbit{Register: reg, Index: i} }

func (q Qubit) String() string { return fmt.Sprintf("%s[%d]", q.Register, q.Index) }
func (c Clbit) String() string { return fmt.Sprintf("%s[%d]", c.Register, c.Index) }

// Condition gates an instruction on a classical register or a single bit
// equal to Value.
type Condition struct {
	Register string
	Bit      *Clbit
	Value    uint64
}

// Instruction is an operation applied to operands.
type Instruction struct {
	Op        *Operation
	Qubits    []Qubit
	Clbits    []Clbit
	Condition *Condition
}

// Circuit is an external circuit: registers, instruction stream and a
// global phase in radians.
type Circuit struct {
	Name        string
	QRegs       []QuantumRegister
	CRegs       []ClassicalRegister
	Data        []Instruction
	GlobalPhase Param
}

// NewCircuit returns a circuit with registers q and c of the given sizes.
// A zero size omits the register.
func NewCircuit(numQubits, numClbits int) *Circuit {
	c := &Circuit{Name: "circuit"}
	if numQubits > 0 {
		c.QRegs = append(c.QRegs, QuantumRegister{Name: "q", Size: numQubits})
	}
	if numClbits > 0 {
		c.CRegs = append(c.CRegs, ClassicalRegister{Name: "c", Size: numClbits})
	}
	return c
}

// AddQRegister declares a quantum register.
func (c *Circuit) AddQRegister(name string, size int) error {
	if _, ok := c.QReg(name); ok {
		return errors.Errorf("register %s already declared", name)
	}
	if _, ok := c.CReg(name); ok {
		return errors.Errorf("register %s already declared", name)
	}
	c.QRegs = append(c.QRegs, QuantumRegister{Name: name, Size: size})
	return nil
}

// AddCRegister declares a classical register.
func (c *Circuit) AddCRegister(name string, size int) error {
	if _, ok := c.QReg(name); ok {
		return errors.Errorf("register %s already declared", name)
	}
	if _, ok := c.CReg(name); ok {
		return errors.Errorf("register %s already declared", name)
	}
	c.CRegs = append(c.CRegs, ClassicalRegister{Name: name, Size: size})
	return nil
}

// QReg finds a quantum register by name.
func (c *Circuit) QReg(name string) (QuantumRegister, bool) {
	for _, r := range c.QRegs {
		if r.Name == name {
			return r, true
		}
	}
	return QuantumRegister{}, false
}

// CReg finds a classical register by name.
func (c *Circuit) CReg(name string) (ClassicalRegister, bool) {
	for _, r := range c.CRegs {
		if r.Name == name {
			return r, true
		}
	}
	return ClassicalRegister{}, false
}

// Qubits lists all qubits in register declaration order.
func (c *Circuit) Qubits() []Qubit {
	var out []Qubit
	for _, r := range c.QRegs {
		for i := 0; i < r.Size; i++ {
			out = append(out, Qubit{Register: r.Name, Index: i})
		}
	}
	return out
}

// Clbits lists all bits in register declaration order.
func (c *Circuit) Clbits() []Clbit {
	var out []Clbit
	for _, r := range c.CRegs {
		for i := 0; i < r.Size; i++ {
			out = append(out, Clbit{Register: r.Name, Index: i})
		}
	}
	return out
}

// NumQubits is the total qubit count.
func (c *Circuit) NumQubits() int {
	n := 0
	for _, r := range c.QRegs {
		n += r.Size
	}
	return n
}

// NumClbits is the total bit count.
func (c *Circuit) NumClbits() int {
	n := 0
	for _, r := range c.CRegs {
		n += r.Size
	}
	return n
}

func (c *Circuit) hasQubit(q Qubit) bool {
	r, ok := c.QReg(q.Register)
	return ok && q.Index >= 0 && q.Index < r.Size
}

func (c *Circuit) hasClbit(b Clbit) bool {
	r, ok := c.CReg(b.Register)
	return ok && b.Index >= 0 && b.Index < r.Size
}

// InstructionOption configures an appended instruction.
type InstructionOption func(*Instruction)

// IfRegister conditions the instruction on register reg == value.
func IfRegister(reg string, value uint64) InstructionOption {
	return func(in *Instruction) {
		in.Condition = &Condition{Register: reg, Value: value}
	}
}

// IfBit conditions the instruction on bit == value.
func IfBit(bit Clbit, value uint64) InstructionOption {
	return func(in *Instruction) {
		b := bit
		in.Condition = &Condition{Bit: &b, Value: value}
	}
}

// Append adds op on the given operands after validating widths and
// membership.
func (c *Circuit) Append(op *Operation, qubits []Qubit, clbits []Clbit, opts ...InstructionOption) error {
	if len(qubits) != op.NumQubits {
		return errors.Errorf("%s expects %d qubits, got %d", op.Name, op.NumQubits, len(qubits))
	}
	if len(clbits) != op.NumClbits {
		return errors.Errorf("%s expects %d clbits, got %d", op.Name, op.NumClbits, len(clbits))
	}
	for _, q := range qubits {
		if !c.hasQubit(q) {
			return errors.Errorf("%s: qubit %s not in circuit", op.Name, q)
		}
	}
	for _, b := range clbits {
		if !c.hasClbit(b) {
			return errors.Errorf("%s: bit %s not in circuit", op.Name, b)
		}
	}
	in := Instruction{Op: op, Qubits: qubits, Clbits: clbits}
	for _, opt := range opts {
		opt(&in)
	}
	if cond := in.Condition; cond != nil {
		if cond.Bit != nil && !c.hasClbit(*cond.Bit) {
			return errors.Errorf("%s: condition bit %s not in circuit", op.Name, *cond.Bit)
		}
		if cond.Bit == nil {
			if _, ok := c.CReg(cond.Register); !ok {
				return errors.Errorf("%s: condition register %s not in circuit", op.Name, cond.Register)
			}
		}
	}
	c.Data = append(c.Data, in)
	return nil
}

// MustAppend is Append for circuits built in code.
func (c *Circuit) MustAppend(op *Operation, qubits []Qubit, clbits []Clbit, opts ...InstructionOption) {
	if err := c.Append(op, qubits, clbits, opts...); err != nil {
		panic(err)
	}
}

// Parameters lists the parameters used by top-level instructions and the
// global phase, sorted by name.
func (c *Circuit) Parameters() []*Parameter {
	seen := map[*Parameter]bool{}
	var out []*Parameter
	add := func(p Param) {
		for _, prm := range p.Parameters() {
			if !seen[prm] {
				seen[prm] = true
				out = append(out, prm)
			}
		}
	}
	add(c.GlobalPhase)
	for _, in := range c.Data {
		for _, p := range in.Op.Params {
			add(p)
		}
	}
	sortParameters(out)
	return out
}
