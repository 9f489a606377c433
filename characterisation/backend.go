package characterisation

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Nduv is a named, dated, unit-carrying value reported by a device.
type Nduv struct {
	Name  string  `yaml:"name"`
	Value float64 `yaml:"value"`
	Unit  string  `yaml:"unit"`
	Date  string  `yaml:"date"`
}

type GateProperties struct {
	Gate       string `yaml:"gate"`
	Qubits     []int  `yaml:"qubits"`
	Parameters []Nduv `yaml:"parameters"`
}

// BackendProperties are the calibration data of a device. Qubits[i] lists
// the values measured on qubit i.
type BackendProperties struct {
	Qubits [][]Nduv         `yaml:"qubits"`
	Gates  []GateProperties `yaml:"gates"`
}

type BackendConfiguration struct {
	Name      string `yaml:"name"`
	NumQubits int    `yaml:"nQubits"`
	// Directed pairs of qubits a two-qubit gate may act on. Nil means
	// every pair is connected.
	CouplingMap           [][2]int `yaml:"couplingMap"`
	Simulator             bool     `yaml:"simulator"`
	BasisGates            []string `yaml:"basisGates"`
	SupportedInstructions []string `yaml:"supportedInstructions"`
}

// Backend is the on-disk form read by LoadBackend.
type Backend struct {
	Configuration BackendConfiguration `yaml:"configuration"`
	Properties    *BackendProperties   `yaml:"properties"`
}

func LoadBackend(path string) (*Backend, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "load backend")
	}
	var b Backend
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, errors.Wrap(err, "load backend")
	}
	if b.Configuration.NumQubits <= 0 {
		return nil, errors.Errorf("load backend: nQubits must be positive, got %d", b.Configuration.NumQubits)
	}
	return &b, nil
}

func lookup(values []Nduv, name string) (float64, bool) {
	for _, v := range values {
		if v.Name == name {
			return v.Value, true
		}
	}
	return 0, false
}
