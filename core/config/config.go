// Package config describes fuzzy controllers in TOML or YAML files and
// builds them.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

type Format string

const (
	TOML Format = "toml"
	YAML Format = "yaml"
)

var ErrFormat = errors.New("unsupported configuration format")

//go:embed pendulum.toml
var pendulumTOML []byte

type Config struct {
	Logic   Logic      `toml:"logic" yaml:"logic"`
	Inputs  []Variable `toml:"inputs" yaml:"inputs"`
	Outputs []Variable `toml:"outputs" yaml:"outputs"`
	Tables  []Table    `toml:"tables,omitempty" yaml:"tables,omitempty"`
	Rules   []Rule     `toml:"rules,omitempty" yaml:"rules,omitempty"`
	Plant   Plant      `toml:"plant,omitempty" yaml:"plant,omitempty"`
	Loop    Loop       `toml:"loop,omitempty" yaml:"loop,omitempty"`
}

// Logic selects the operators by kind. Empty fields fall back to min, the
// dual of the norm, complement and cog.
type Logic struct {
	Norm        string `toml:"norm,omitempty" yaml:"norm,omitempty"`
	Conorm      string `toml:"conorm,omitempty" yaml:"conorm,omitempty"`
	Negation    string `toml:"negation,omitempty" yaml:"negation,omitempty"`
	Defuzzifier string `toml:"defuzzifier,omitempty" yaml:"defuzzifier,omitempty"`
	Resolution  int    `toml:"resolution,omitempty" yaml:"resolution,omitempty"`
}

// Variable declares a linguistic variable either as a generated partition
// ("uniform" or "saturated") of the named adjectives or as explicit sets.
type Variable struct {
	Name       string   `toml:"name" yaml:"name"`
	Min        float64  `toml:"min" yaml:"min"`
	Max        float64  `toml:"max" yaml:"max"`
	Partition  string   `toml:"partition,omitempty" yaml:"partition,omitempty"`
	Adjectives []string `toml:"adjectives,omitempty" yaml:"adjectives,omitempty"`
	Sets       []Set    `toml:"sets,omitempty" yaml:"sets,omitempty"`
}

type Set struct {
	Name   string  `toml:"name" yaml:"name"`
	Points []Point `toml:"points" yaml:"points"`
}

type Point struct {
	X float64 `toml:"x" yaml:"x"`
	Y float64 `toml:"y" yaml:"y"`
}

// Table is a rule table over two input variables. Cells[i][j] names the
// adjective of Output concluded when Rows is its i-th adjective and Columns
// its j-th; an empty cell or "-" adds no rule.
type Table struct {
	Rows    string     `toml:"rows" yaml:"rows"`
	Columns string     `toml:"columns" yaml:"columns"`
	Output  string     `toml:"output" yaml:"output"`
	Cells   [][]string `toml:"cells" yaml:"cells"`
}

// Rule is a single rule whose antecedent is the conjunction of All or the
// disjunction of Any. Terms have the form "variable.adjective", optionally
// prefixed with "not ".
type Rule struct {
	All  []string `toml:"all,omitempty" yaml:"all,omitempty"`
	Any  []string `toml:"any,omitempty" yaml:"any,omitempty"`
	Then string   `toml:"then" yaml:"then"`
}

// Plant holds the initial state and step size of the simulated cart-pole.
type Plant struct {
	Angle float64 `toml:"angle,omitempty" yaml:"angle,omitempty"`
	Rate  float64 `toml:"rate,omitempty" yaml:"rate,omitempty"`
	Dt    float64 `toml:"dt,omitempty" yaml:"dt,omitempty"`
}

type Loop struct {
	Fallback string `toml:"fallback,omitempty" yaml:"fallback,omitempty"`
	History  int    `toml:"history,omitempty" yaml:"history,omitempty"`
}

// FormatOf derives the format of a configuration file from its extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return TOML, nil
	case ".yaml", ".yml":
		return YAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrFormat, path)
	}
}

// Decode reads a configuration. Unknown fields are rejected.
func Decode(r io.Reader, f Format) (*Config, error) {
	var cfg Config
	switch f {
	case TOML:
		err := toml.NewDecoder(r).DisallowUnknownFields().Decode(&cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to decode TOML configuration: %w", err)
		}
	case YAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		err := dec.Decode(&cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to decode YAML configuration: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrFormat, f)
	}
	return &cfg, nil
}

func Load(path string) (*Config, error) {
	f, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return Decode(bytes.NewReader(raw), f)
}

func (cfg *Config) Encode(w io.Writer, f Format) error {
	switch f {
	case TOML:
		enc := toml.NewEncoder(w)
		enc.SetIndentTables(true)
		return enc.Encode(cfg)
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: %q", ErrFormat, f)
	}
}

// Pendulum returns the built-in inverted pendulum controller: seven
// saturated angle adjectives over ±3π/8 rad, five saturated angular rate
// adjectives over ±9π/2 rad/s and nine uniform force adjectives over
// ±100 N, joined by a 7x5 rule table.
func Pendulum() *Config {
	cfg, err := Decode(bytes.NewReader(pendulumTOML), TOML)
	if err != nil {
		panic(err)
	}
	return cfg
}
