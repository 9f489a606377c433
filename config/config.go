// Package config holds the YAML configuration of the converter and the
// command line tools.
package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	defaultMaxRecursionDepth   = 64
	defaultMaxRebaseIterations = 32
)

type ConvertConfig struct {
	// Encode each parameter's identity token into native symbol names so
	// that raising restores the same parameter objects.
	PreserveParamUUID bool `yaml:"preserveParamUuid"`
	// Materialise implicit wire permutations as SWAPs before raising.
	ReplaceImplicitSwaps bool `yaml:"replaceImplicitSwaps"`
	// The deepest nesting of boxed sub-circuits accepted.
	MaxRecursionDepth int `yaml:"maxRecursionDepth"`
	// The number of rewrite sweeps the rebase pass may take.
	MaxRebaseIterations int `yaml:"maxRebaseIterations"`
}

// WithDefaults returns a copy of the ConvertConfig with any missing fields
// set to their default values.
func (c ConvertConfig) WithDefaults() ConvertConfig {
	cpy := c
	if cpy.MaxRecursionDepth == 0 {
		cpy.MaxRecursionDepth = defaultMaxRecursionDepth
	}
	if cpy.MaxRebaseIterations == 0 {
		cpy.MaxRebaseIterations = defaultMaxRebaseIterations
	}
	return cpy
}

type TUIConfig struct {
	// Where ctrl+s writes the translated native circuit.
	SavePath string `yaml:"savePath"`
}

// WithDefaults returns a copy of the TUIConfig with any missing fields set
// to their default values.
func (c TUIConfig) WithDefaults() TUIConfig {
	cpy := c
	if cpy.SavePath == "" {
		cpy.SavePath = "circuit.native"
	}
	return cpy
}

type Config struct {
	Debug   bool          `yaml:"debug"`
	Convert ConvertConfig `yaml:"convert"`
	TUI     TUIConfig     `yaml:"tui"`
}

// WithDefaults returns a copy of the Config with any missing fields set to
// their default values.
func (c Config) WithDefaults() Config {
	cpy := c
	cpy.Convert = cpy.Convert.WithDefaults()
	cpy.TUI = cpy.TUI.WithDefaults()
	return cpy
}

// LoadConfig reads the configuration at path. An empty path yields the
// defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "load config")
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, errors.Wrap(err, "load config")
		}
	}
	cfg = cfg.WithDefaults()
	return &cfg, nil
}
