package convert

import (
	"qbridge/ext"
	"qbridge/native"
	"qbridge/sym"
)

// gateToOp maps external kinds to native opcodes with identical parameter
// semantics. Kinds needing construction (Unitary, PauliEvolution,
// Controlled) are handled by the forward builder and absent here.
var gateToOp = map[ext.GateKind]native.OpType{
	// single-qubit
	ext.H:     native.H,
	ext.I:     native.Noop,
	ext.Phase: native.U1,
	ext.R:     native.PhasedX,
	ext.RX:    native.Rx,
	ext.RY:    native.Ry,
	ext.RZ:    native.Rz,
	ext.Sdg:   native.Sdg,
	ext.S:     native.S,
	ext.SXdg:  native.SXdg,
	ext.SX:    native.SX,
	ext.Tdg:   native.Tdg,
	ext.T:     native.T,
	ext.U1:    native.U1,
	ext.U2:    native.U2,
	ext.U3:    native.U3,
	ext.U:     native.U3,
	ext.X:     native.X,
	ext.Y:     native.Y,
	ext.Z:     native.Z,

	// two-qubit
	ext.CH:     native.CH,
	ext.CPhase: native.CU1,
	ext.CRX:    native.CRx,
	ext.CRY:    native.CRy,
	ext.CRZ:    native.CRz,
	ext.CU:     native.CU3,
	ext.CU1:    native.CU1,
	ext.CU3:    native.CU3,
	ext.CX:     native.CX,
	ext.CSX:    native.CSX,
	ext.CY:     native.CY,
	ext.CZ:     native.CZ,
	ext.ECR:    native.ECR,
	ext.ISwap:  native.ISWAPMax,
	ext.RXX:    native.XXPhase,
	ext.RYY:    native.YYPhase,
	ext.RZZ:    native.ZZPhase,
	ext.Swap:   native.SWAP,

	// multi-qubit and non-unitary
	ext.C3X:              native.CnX,
	ext.C4X:              native.CnX,
	ext.CCX:              native.CCX,
	ext.CCZ:              native.CnZ,
	ext.CSwap:            native.CSWAP,
	ext.MCX:              native.CnX,
	ext.MCXGrayCode:      native.CnX,
	ext.MCXRecursive:     native.CnX,
	ext.MCXVChain:        native.CnX,
	ext.Barrier:          native.Barrier,
	ext.Compound:         native.CircBox,
	ext.Gate:             native.CircBox,
	ext.Measure:          native.Measure,
	ext.Reset:            native.Reset,
	ext.Initialize:       native.StatePreparationBox,
	ext.StatePreparation: native.StatePreparationBox,
}

// opToGate is the fixed reverse map. Where several external kinds share
// an opcode the non-deprecated class is the representative: U3 raises to
// U, U1 to Phase, CU1 to CPhase, CU3 to CU, CnX to MCX.
var opToGate = map[native.OpType]ext.GateKind{
	native.H:       ext.H,
	native.Noop:    ext.I,
	native.U1:      ext.Phase,
	native.PhasedX: ext.R,
	native.Rx:      ext.RX,
	native.Ry:      ext.RY,
	native.Rz:      ext.RZ,
	native.Sdg:     ext.Sdg,
	native.S:       ext.S,
	native.SXdg:    ext.SXdg,
	native.SX:      ext.SX,
	native.Tdg:     ext.Tdg,
	native.T:       ext.T,
	native.U2:      ext.U2,
	native.U3:      ext.U,
	native.X:       ext.X,
	native.Y:       ext.Y,
	native.Z:       ext.Z,

	native.CH:       ext.CH,
	native.CU1:      ext.CPhase,
	native.CRx:      ext.CRX,
	native.CRy:      ext.CRY,
	native.CRz:      ext.CRZ,
	native.CU3:      ext.CU,
	native.CX:       ext.CX,
	native.CSX:      ext.CSX,
	native.CY:       ext.CY,
	native.CZ:       ext.CZ,
	native.ECR:      ext.ECR,
	native.ISWAPMax: ext.ISwap,
	native.XXPhase:  ext.RXX,
	native.YYPhase:  ext.RYY,
	native.ZZPhase:  ext.RZZ,
	native.SWAP:     ext.Swap,

	native.CnX:                 ext.MCX,
	native.CCX:                 ext.CCX,
	native.CSWAP:               ext.CSwap,
	native.Barrier:             ext.Barrier,
	native.CircBox:             ext.Compound,
	native.Measure:             ext.Measure,
	native.Reset:               ext.Reset,
	native.StatePreparationBox: ext.Initialize,
}

type phasedGate struct {
	kind  ext.GateKind
	phase float64
}

// opToGatePhased covers opcodes equal to an external kind only up to a
// global phase, given in half-turns.
var opToGatePhased = map[native.OpType]phasedGate{
	native.V:   {ext.SX, -0.25},
	native.Vdg: {ext.SXdg, 0.25},
}

// opTypeByGateName classifies device gate names. The multi-controlled X
// classes and compound kinds have no fixed name and are left out.
var opTypeByGateName = map[string]native.OpType{
	"h":     native.H,
	"id":    native.Noop,
	"p":     native.U1,
	"r":     native.PhasedX,
	"rx":    native.Rx,
	"ry":    native.Ry,
	"rz":    native.Rz,
	"s":     native.S,
	"sdg":   native.Sdg,
	"sx":    native.SX,
	"sxdg":  native.SXdg,
	"t":     native.T,
	"tdg":   native.Tdg,
	"u":     native.U3,
	"u1":    native.U1,
	"u2":    native.U2,
	"u3":    native.U3,
	"x":     native.X,
	"y":     native.Y,
	"z":     native.Z,
	"ch":    native.CH,
	"cp":    native.CU1,
	"crx":   native.CRx,
	"cry":   native.CRy,
	"crz":   native.CRz,
	"cu":    native.CU3,
	"cu1":   native.CU1,
	"cu3":   native.CU3,
	"cx":    native.CX,
	"csx":   native.CSX,
	"cy":    native.CY,
	"cz":    native.CZ,
	"ecr":   native.ECR,
	"iswap": native.ISWAPMax,
	"rxx":   native.XXPhase,
	"ryy":   native.YYPhase,
	"rzz":   native.ZZPhase,
	"swap":  native.SWAP,
	"c3x":   native.CnX,
	"c4x":   native.CnX,
	"ccx":   native.CCX,
	"ccz":   native.CnZ,
	"cswap": native.CSWAP,

	"barrier":           native.Barrier,
	"measure":           native.Measure,
	"reset":             native.Reset,
	"initialize":        native.StatePreparationBox,
	"state_preparation": native.StatePreparationBox,
	"unitary":           native.Unitary1qBox,
}

// ToOpType returns the opcode with the same semantics as kind.
func ToOpType(kind ext.GateKind) (native.OpType, error) {
	op, ok := gateToOp[kind]
	if !ok {
		return 0, newError(ErrUnsupportedGate, kind.String(), "no native opcode")
	}
	return op, nil
}

// ToGateKind returns the external kind for op and the global phase, in
// half-turns, separating them.
func ToGateKind(op native.OpType) (ext.GateKind, float64, error) {
	if kind, ok := opToGate[op]; ok {
		return kind, 0, nil
	}
	if pg, ok := opToGatePhased[op]; ok {
		return pg.kind, pg.phase, nil
	}
	return 0, 0, newError(ErrUnsupportedGate, op.String(), "no external gate")
}

// OpTypeByGateName classifies an external gate name.
func OpTypeByGateName(name string) (native.OpType, bool) {
	op, ok := opTypeByGateName[name]
	return op, ok
}

// TK1ToU3 rewrites TK1(a, b, c) as U3(b, a-1/2, c+1/2) with global phase
// -(a+c)/2, all in half-turns.
func TK1ToU3(a, b, c sym.Expr) ([]sym.Expr, sym.Expr) {
	h := sym.Num(0.5)
	params := []sym.Expr{b, a.Sub(h), c.Add(h)}
	phase := a.Add(c).Scale(-0.5)
	return params, phase
}

// Correspondence is one row of the gate table.
type Correspondence struct {
	Gate  ext.GateKind
	Op    native.OpType
	Phase float64
	// Reverse is set when raising Op yields Gate.
	Reverse bool
}

// Correspondences lists the forward table in external kind order,
// followed by the phase-offset rows.
func Correspondences() []Correspondence {
	var out []Correspondence
	for _, kind := range ext.AllGateKinds() {
		op, ok := gateToOp[kind]
		if !ok {
			continue
		}
		back, ok := opToGate[op]
		out = append(out, Correspondence{Gate: kind, Op: op, Reverse: ok && back == kind})
	}
	for _, op := range []native.OpType{native.V, native.Vdg} {
		pg := opToGatePhased[op]
		out = append(out, Correspondence{Gate: pg.kind, Op: op, Phase: pg.phase, Reverse: true})
	}
	return out
}
