// Package statevec is a dense state-vector simulator for small native
// circuits. Tests use it to check that rewrites preserve the unitary,
// global phase included; the inspector uses it for qubit probabilities.
package statevec

import (
	"math"
	"math/cmplx"

	"github.com/pkg/errors"

	"qbridge/native"
)

// StateVector holds the 2^n amplitudes of an n-qubit state. Qubit 0 is
// the most significant bit of the basis index, as in unitary boxes.
type StateVector struct {
	Amplitudes []complex128
	NumQubits  int
}

func New(numQubits int) *StateVector {
	amps := make([]complex128, 1<<uint(numQubits))
	amps[0] = 1
	return &StateVector{Amplitudes: amps, NumQubits: numQubits}
}

func (s *StateVector) Clone() *StateVector {
	amps := make([]complex128, len(s.Amplitudes))
	copy(amps, s.Amplitudes)
	return &StateVector{Amplitudes: amps, NumQubits: s.NumQubits}
}

func (s *StateVector) bit(q int) int {
	return 1 << uint(s.NumQubits-1-q)
}

// apply multiplies the amplitudes on qubits qs by m, qs[0] being the most
// significant index bit of m.
func (s *StateVector) apply(m [][]complex128, qs []int) {
	k := len(qs)
	dim := 1 << uint(k)
	offs := make([]int, dim)
	mask := 0
	for r := range offs {
		for j, q := range qs {
			if r>>uint(k-1-j)&1 == 1 {
				offs[r] |= s.bit(q)
			}
		}
	}
	for _, q := range qs {
		mask |= s.bit(q)
	}
	in := make([]complex128, dim)
	for i := range s.Amplitudes {
		if i&mask != 0 {
			continue
		}
		for r := 0; r < dim; r++ {
			in[r] = s.Amplitudes[i|offs[r]]
		}
		for r := 0; r < dim; r++ {
			var acc complex128
			for c := 0; c < dim; c++ {
				acc += m[r][c] * in[c]
			}
			s.Amplitudes[i|offs[r]] = acc
		}
	}
}

// reset projects q onto |0> and renormalises. A qubit certainly in |1>
// is flipped instead.
func (s *StateVector) reset(q int) {
	bit := s.bit(q)
	prob0 := 0.0
	for i, a := range s.Amplitudes {
		if i&bit == 0 {
			prob0 += real(a * cmplx.Conj(a))
		}
	}
	if prob0 < 1e-12 {
		s.apply(matX, []int{q})
		return
	}
	norm := math.Sqrt(prob0)
	for i := range s.Amplitudes {
		if i&bit == 0 {
			s.Amplitudes[i] /= complex(norm, 0)
		} else {
			s.Amplitudes[i] = 0
		}
	}
}

// Approx compares amplitudes, global phase included.
func (s *StateVector) Approx(o *StateVector, tol float64) bool {
	if len(s.Amplitudes) != len(o.Amplitudes) {
		return false
	}
	for i, a := range s.Amplitudes {
		if cmplx.Abs(a-o.Amplitudes[i]) > tol {
			return false
		}
	}
	return true
}

type QubitProbability struct {
	Prob0 float64
	Prob1 float64
}

func (s *StateVector) QubitProbabilities() []QubitProbability {
	probs := make([]QubitProbability, s.NumQubits)
	for i, a := range s.Amplitudes {
		prob := real(a * cmplx.Conj(a))
		for q := 0; q < s.NumQubits; q++ {
			if i&s.bit(q) != 0 {
				probs[q].Prob1 += prob
			} else {
				probs[q].Prob0 += prob
			}
		}
	}
	return probs
}

// Simulate runs c on init, or on |0...0> when init is nil. Symbols are
// bound by env. Measurements and conditional commands are skipped.
func Simulate(c *native.Circuit, init *StateVector, env map[string]float64) (*StateVector, error) {
	qubits := c.Qubits()
	state := init
	if state == nil {
		state = New(len(qubits))
	} else {
		state = state.Clone()
	}
	if state.NumQubits != len(qubits) {
		return nil, errors.Errorf("state of %d qubits for a circuit of %d", state.NumQubits, len(qubits))
	}
	pos := make(map[string]int, len(qubits))
	for i, q := range qubits {
		pos[q.Key()] = i
	}

	for i, cmd := range c.Commands {
		var qs []int
		for _, a := range cmd.Args {
			if a.Type == native.QubitUnit {
				qs = append(qs, pos[a.Key()])
			}
		}
		if err := state.run(cmd.Op, qs, env); err != nil {
			return nil, errors.Wrapf(err, "simulate command %d (%s)", i, cmd.Op)
		}
	}
	phase, err := c.Phase.Eval(env)
	if err != nil {
		return nil, errors.Wrap(err, "simulate phase")
	}
	g := expi(phase)
	for i := range state.Amplitudes {
		state.Amplitudes[i] *= g
	}
	return state, nil
}

// Unitary returns the matrix of c, built column by column.
func Unitary(c *native.Circuit, env map[string]float64) ([][]complex128, error) {
	n := len(c.Qubits())
	dim := 1 << uint(n)
	m := make([][]complex128, dim)
	for r := range m {
		m[r] = make([]complex128, dim)
	}
	for col := 0; col < dim; col++ {
		basis := &StateVector{Amplitudes: make([]complex128, dim), NumQubits: n}
		basis.Amplitudes[col] = 1
		out, err := Simulate(c, basis, env)
		if err != nil {
			return nil, err
		}
		for r := range m {
			m[r][col] = out.Amplitudes[r]
		}
	}
	return m, nil
}

func (s *StateVector) run(op *native.Op, qs []int, env map[string]float64) error {
	params := make([]float64, len(op.Params))
	for i, p := range op.Params {
		v, err := p.Eval(env)
		if err != nil {
			return err
		}
		params[i] = v
	}

	switch op.Type {
	case native.Noop, native.Barrier, native.Measure, native.Conditional, native.RangePredicate:
		return nil
	case native.Reset:
		s.reset(qs[0])
		return nil
	case native.Phase:
		g := expi(params[0])
		for i := range s.Amplitudes {
			s.Amplitudes[i] *= g
		}
		return nil
	case native.NPhasedX:
		m := phasedX(params[0], params[1])
		for _, q := range qs {
			s.apply(m, []int{q})
		}
		return nil
	case native.XXPhase3:
		m := pauliPhase(pauliXX, params[0])
		for _, pair := range [][2]int{{0, 1}, {1, 2}, {0, 2}} {
			s.apply(m, []int{qs[pair[0]], qs[pair[1]]})
		}
		return nil
	}

	m, err := opMatrix(op, params, len(qs), env)
	if err != nil {
		return err
	}
	s.apply(m, qs)
	return nil
}

// expi is e^{iπt}.
func expi(t float64) complex128 {
	return cmplx.Exp(complex(0, math.Pi*t))
}

func halfTurn(t float64) (complex128, complex128) {
	return complex(math.Cos(math.Pi*t/2), 0), complex(math.Sin(math.Pi*t/2), 0)
}

var (
	matH  = [][]complex128{{math.Sqrt2 / 2, math.Sqrt2 / 2}, {math.Sqrt2 / 2, -math.Sqrt2 / 2}}
	matX  = [][]complex128{{0, 1}, {1, 0}}
	matY  = [][]complex128{{0, -1i}, {1i, 0}}
	matZ  = [][]complex128{{1, 0}, {0, -1}}
	matSX = [][]complex128{{(1 + 1i) / 2, (1 - 1i) / 2}, {(1 - 1i) / 2, (1 + 1i) / 2}}

	matSWAP = [][]complex128{{1, 0, 0, 0}, {0, 0, 1, 0}, {0, 1, 0, 0}, {0, 0, 0, 1}}
	matECR  = [][]complex128{
		{0, math.Sqrt2 / 2, 0, 1i * math.Sqrt2 / 2},
		{math.Sqrt2 / 2, 0, -1i * math.Sqrt2 / 2, 0},
		{0, 1i * math.Sqrt2 / 2, 0, math.Sqrt2 / 2},
		{-1i * math.Sqrt2 / 2, 0, math.Sqrt2 / 2, 0},
	}

	pauliXX = [][]complex128{{0, 0, 0, 1}, {0, 0, 1, 0}, {0, 1, 0, 0}, {1, 0, 0, 0}}
	pauliYY = [][]complex128{{0, 0, 0, -1}, {0, 0, 1, 0}, {0, 1, 0, 0}, {-1, 0, 0, 0}}
	pauliZZ = [][]complex128{{1, 0, 0, 0}, {0, -1, 0, 0}, {0, 0, -1, 0}, {0, 0, 0, 1}}
)

func rx(t float64) [][]complex128 {
	c, s := halfTurn(t)
	return [][]complex128{{c, -1i * s}, {-1i * s, c}}
}

func ry(t float64) [][]complex128 {
	c, s := halfTurn(t)
	return [][]complex128{{c, -s}, {s, c}}
}

func rz(t float64) [][]complex128 {
	return [][]complex128{{expi(-t / 2), 0}, {0, expi(t / 2)}}
}

func u1(t float64) [][]complex128 {
	return [][]complex128{{1, 0}, {0, expi(t)}}
}

func u3(theta, phi, lambda float64) [][]complex128 {
	c, s := halfTurn(theta)
	return [][]complex128{
		{c, -expi(lambda) * s},
		{expi(phi) * s, expi(phi+lambda) * c},
	}
}

func phasedX(a, b float64) [][]complex128 {
	return matmul(rz(b), matmul(rx(a), rz(-b)))
}

func dagger(m [][]complex128) [][]complex128 {
	out := make([][]complex128, len(m))
	for r := range m {
		out[r] = make([]complex128, len(m))
		for c := range m {
			out[r][c] = cmplx.Conj(m[c][r])
		}
	}
	return out
}

func matmul(a, b [][]complex128) [][]complex128 {
	out := make([][]complex128, len(a))
	for r := range a {
		out[r] = make([]complex128, len(b[0]))
		for c := range b[0] {
			for k := range b {
				out[r][c] += a[r][k] * b[k][c]
			}
		}
	}
	return out
}

// pauliPhase is exp(-iπt/2 P) for a Pauli product P.
func pauliPhase(p [][]complex128, t float64) [][]complex128 {
	c, s := halfTurn(t)
	out := make([][]complex128, len(p))
	for r := range p {
		out[r] = make([]complex128, len(p))
		for col := range p {
			out[r][col] = -1i * s * p[r][col]
			if r == col {
				out[r][col] += c
			}
		}
	}
	return out
}

// controlled adds n controls ahead of m's qubits.
func controlled(m [][]complex128, n int) [][]complex128 {
	dim := len(m) << uint(n)
	off := dim - len(m)
	out := make([][]complex128, dim)
	for r := range out {
		out[r] = make([]complex128, dim)
		if r < off {
			out[r][r] = 1
			continue
		}
		copy(out[r][off:], m[r-off])
	}
	return out
}

func iswap(a float64) [][]complex128 {
	c, s := halfTurn(a)
	return [][]complex128{{1, 0, 0, 0}, {0, c, 1i * s, 0}, {0, 1i * s, c, 0}, {0, 0, 0, 1}}
}

func fsim(a, b float64) [][]complex128 {
	c, s := halfTurn(2 * a)
	return [][]complex128{{1, 0, 0, 0}, {0, c, -1i * s, 0}, {0, -1i * s, c, 0}, {0, 0, 0, expi(-b)}}
}

// bridge is CX from the first qubit to the third.
func bridge() [][]complex128 {
	out := make([][]complex128, 8)
	for r := range out {
		out[r] = make([]complex128, 8)
	}
	for col := 0; col < 8; col++ {
		row := col
		if col&4 != 0 {
			row ^= 1
		}
		out[row][col] = 1
	}
	return out
}

func opMatrix(op *native.Op, p []float64, nq int, env map[string]float64) ([][]complex128, error) {
	switch op.Type {
	case native.H:
		return matH, nil
	case native.X:
		return matX, nil
	case native.Y:
		return matY, nil
	case native.Z:
		return matZ, nil
	case native.S:
		return u1(0.5), nil
	case native.Sdg:
		return u1(-0.5), nil
	case native.T:
		return u1(0.25), nil
	case native.Tdg:
		return u1(-0.25), nil
	case native.SX:
		return matSX, nil
	case native.SXdg:
		return dagger(matSX), nil
	case native.V:
		return rx(0.5), nil
	case native.Vdg:
		return rx(-0.5), nil
	case native.Rx:
		return rx(p[0]), nil
	case native.Ry:
		return ry(p[0]), nil
	case native.Rz:
		return rz(p[0]), nil
	case native.U1:
		return u1(p[0]), nil
	case native.U2:
		return u3(0.5, p[0], p[1]), nil
	case native.U3:
		return u3(p[0], p[1], p[2]), nil
	case native.PhasedX:
		return phasedX(p[0], p[1]), nil
	case native.TK1:
		return matmul(rz(p[0]), matmul(rx(p[1]), rz(p[2]))), nil

	case native.CX:
		return controlled(matX, 1), nil
	case native.CY:
		return controlled(matY, 1), nil
	case native.CZ:
		return controlled(matZ, 1), nil
	case native.CH:
		return controlled(matH, 1), nil
	case native.CSX:
		return controlled(matSX, 1), nil
	case native.CSXdg:
		return controlled(dagger(matSX), 1), nil
	case native.CV:
		return controlled(rx(0.5), 1), nil
	case native.CVdg:
		return controlled(rx(-0.5), 1), nil
	case native.CRx:
		return controlled(rx(p[0]), 1), nil
	case native.CRy:
		return controlled(ry(p[0]), 1), nil
	case native.CRz:
		return controlled(rz(p[0]), 1), nil
	case native.CU1:
		return controlled(u1(p[0]), 1), nil
	case native.CU3:
		return controlled(u3(p[0], p[1], p[2]), 1), nil
	case native.ECR:
		return matECR, nil
	case native.ISWAP:
		return iswap(p[0]), nil
	case native.ISWAPMax:
		return iswap(1), nil
	case native.XXPhase:
		return pauliPhase(pauliXX, p[0]), nil
	case native.YYPhase:
		return pauliPhase(pauliYY, p[0]), nil
	case native.ZZPhase:
		return pauliPhase(pauliZZ, p[0]), nil
	case native.ZZMax:
		return pauliPhase(pauliZZ, 0.5), nil
	case native.TK2:
		return matmul(pauliPhase(pauliXX, p[0]), matmul(pauliPhase(pauliYY, p[1]), pauliPhase(pauliZZ, p[2]))), nil
	case native.FSim:
		return fsim(p[0], p[1]), nil
	case native.Sycamore:
		return fsim(0.5, 1.0/6), nil
	case native.SWAP:
		return matSWAP, nil
	case native.BRIDGE:
		return bridge(), nil
	case native.CCX:
		return controlled(matX, 2), nil
	case native.CSWAP:
		return controlled(matSWAP, 1), nil
	case native.CnX:
		return controlled(matX, nq-1), nil
	case native.CnY:
		return controlled(matY, nq-1), nil
	case native.CnZ:
		return controlled(matZ, nq-1), nil
	case native.CnRy:
		return controlled(ry(p[0]), nq-1), nil

	case native.Unitary1qBox, native.Unitary2qBox, native.Unitary3qBox:
		return op.Matrix, nil
	case native.CircBox, native.CustomGate, native.PauliExpBox:
		sub, err := op.BoxCircuit()
		if err != nil {
			return nil, err
		}
		return Unitary(sub, env)
	case native.QControlBox:
		base := native.NewCircuit(op.Base.NumQubits(), 0)
		if err := base.AddOp(op.Base, base.Qubits()); err != nil {
			return nil, err
		}
		m, err := Unitary(base, env)
		if err != nil {
			return nil, err
		}
		return controlled(m, op.NumControls), nil
	}
	return nil, errors.Errorf("cannot simulate %s", op.Type)
}
