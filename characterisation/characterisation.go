// Package characterisation turns device calibration data into per-node
// and per-link error figures keyed by native opcode.
package characterisation

import (
	"sort"

	"qbridge/convert"
	"qbridge/native"
)

type Node int

type Link struct {
	From, To Node
}

type Architecture struct {
	NumNodes int
	// Nil when FullyConnected is set.
	Links          []Link
	FullyConnected bool
}

// Connected reports whether a two-qubit gate may act on l.
func (a Architecture) Connected(l Link) bool {
	if a.FullyConnected {
		return l.From != l.To && int(l.From) < a.NumNodes && int(l.To) < a.NumNodes
	}
	for _, x := range a.Links {
		if x == l {
			return true
		}
	}
	return false
}

// QubitValue is an optional per-qubit figure; Value is nil when the
// device did not report it.
type QubitValue struct {
	Qubit int
	Value *float64
}

type GateTime struct {
	Name   string
	Qubits []int
	Length float64
}

type Characterisation struct {
	NodeErrors map[Node]map[native.OpType]float64
	EdgeErrors map[Link]map[native.OpType]float64
	// Symmetric 2x2 readout matrices, for qubits that report an error.
	ReadoutErrors map[Node][2][2]float64
	Architecture  Architecture
	T1Times       []QubitValue
	T2Times       []QubitValue
	Frequencies   []QubitValue
	GateTimes     []GateTime
}

// AvgCharacterisation collapses the per-opcode figures into one number
// per node or link.
type AvgCharacterisation struct {
	NodeErrors    map[Node]float64
	EdgeErrors    map[Link]float64
	ReadoutErrors map[Node]float64
}

func optional(values []Nduv, name string) *float64 {
	if v, ok := lookup(values, name); ok {
		return &v
	}
	return nil
}

// Process builds the characterisation of a device. props may be nil, in
// which case only the architecture is filled in.
func Process(cfg BackendConfiguration, props *BackendProperties) Characterisation {
	ch := Characterisation{
		NodeErrors:    map[Node]map[native.OpType]float64{},
		EdgeErrors:    map[Link]map[native.OpType]float64{},
		ReadoutErrors: map[Node][2][2]float64{},
		Architecture:  Architecture{NumNodes: cfg.NumQubits},
	}
	if cfg.CouplingMap == nil {
		ch.Architecture.FullyConnected = true
	} else {
		for _, pair := range cfg.CouplingMap {
			ch.Architecture.Links = append(ch.Architecture.Links, Link{Node(pair[0]), Node(pair[1])})
		}
	}
	if props == nil {
		return ch
	}

	for i, info := range props.Qubits {
		ch.T1Times = append(ch.T1Times, QubitValue{i, optional(info, "T1")})
		ch.T2Times = append(ch.T2Times, QubitValue{i, optional(info, "T2")})
		ch.Frequencies = append(ch.Frequencies, QubitValue{i, optional(info, "frequency")})
		if e, ok := lookup(info, "readout_error"); ok && e != 0 {
			ch.ReadoutErrors[Node(i)] = [2][2]float64{{1 - e, e}, {e, 1 - e}}
		}
	}

	for _, g := range props.Gates {
		op, ok := convert.OpTypeByGateName(g.Gate)
		if !ok {
			continue
		}
		gateError, _ := lookup(g.Parameters, "gate_error")
		gateLength, _ := lookup(g.Parameters, "gate_length")
		ch.GateTimes = append(ch.GateTimes, GateTime{Name: g.Gate, Qubits: g.Qubits, Length: gateLength})

		switch len(g.Qubits) {
		case 1:
			setError(ch.NodeErrors, Node(g.Qubits[0]), op, gateError)
		case 2:
			link := Link{Node(g.Qubits[0]), Node(g.Qubits[1])}
			setError(ch.EdgeErrors, link, op, gateError)
			// the reverse direction costs a pair of extra basis changes
			rev := Link{link.To, link.From}
			if !ch.Architecture.Connected(rev) {
				setError(ch.EdgeErrors, rev, op, 2*gateError)
			}
		}
	}
	return ch
}

func setError[K comparable](m map[K]map[native.OpType]float64, k K, op native.OpType, e float64) {
	if m[k] == nil {
		m[k] = map[native.OpType]float64{}
	}
	m[k][op] = e
}

func mean(xs map[native.OpType]float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func Average(ch Characterisation) AvgCharacterisation {
	avg := AvgCharacterisation{
		NodeErrors:    make(map[Node]float64, len(ch.NodeErrors)),
		EdgeErrors:    make(map[Link]float64, len(ch.EdgeErrors)),
		ReadoutErrors: make(map[Node]float64, len(ch.ReadoutErrors)),
	}
	for n, errs := range ch.NodeErrors {
		avg.NodeErrors[n] = mean(errs)
	}
	for l, errs := range ch.EdgeErrors {
		avg.EdgeErrors[l] = mean(errs)
	}
	for n, m := range ch.ReadoutErrors {
		avg.ReadoutErrors[n] = (m[0][1] + m[1][0]) / 2
	}
	return avg
}

// GateSet returns the native opcodes a device accepts. Simulators are
// described by their basis gates and always take measure, reset and
// barrier; real devices list their supported instructions.
func GateSet(cfg BackendConfiguration) []native.OpType {
	names := cfg.SupportedInstructions
	set := map[native.OpType]bool{}
	if cfg.Simulator {
		names = cfg.BasisGates
		set[native.Measure] = true
		set[native.Reset] = true
		set[native.Barrier] = true
	}
	for _, name := range names {
		if op, ok := convert.OpTypeByGateName(name); ok {
			set[op] = true
		}
	}
	out := make([]native.OpType, 0, len(set))
	for op := range set {
		out = append(out, op)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// SortedNodes returns the keys of m in ascending order.
func SortedNodes[V any](m map[Node]V) []Node {
	out := make([]Node, 0, len(m))
	for n := range m {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// SortedLinks returns the keys of m ordered by source then target.
func SortedLinks[V any](m map[Link]V) []Link {
	out := make([]Link, 0, len(m))
	for l := range m {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].To < out[j].To
	})
	return out
}
