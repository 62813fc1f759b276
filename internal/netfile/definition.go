// Package netfile loads and saves network definitions. A definition is a
// YAML (or JSON) document listing variables with their states, parents
// and tables, plus an optional course binding that names the exercise,
// chapter and result variables used by assessments.
//
// Example:
//
//	name: tiny
//	variables:
//	  - name: Ifs
//	    kind: boolean
//	    table: [[0.5, 0.5]]
//	  - name: Ex1
//	    kind: boolean
//	    parents: [Ifs]
//	    table:
//	      - [0.75, 0.25]   # Ifs=false
//	      - [0.15, 0.85]   # Ifs=true
//
// Table rows follow the Cartesian order of parent states with the first
// parent most significant.
package netfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/Harshitk-cp/aptnet/internal/bayesnet"
	"gopkg.in/yaml.v3"
)

var ErrInvalidDefinition = errors.New("netfile: invalid definition")

// Definition is the serialized form of a network.
type Definition struct {
	Name      string     `yaml:"name" json:"name"`
	Course    *Course    `yaml:"course,omitempty" json:"course,omitempty"`
	Variables []Variable `yaml:"variables" json:"variables"`
}

type Variable struct {
	Name      string      `yaml:"name" json:"name"`
	Kind      string      `yaml:"kind" json:"kind"`
	States    []string    `yaml:"states,omitempty" json:"states,omitempty"`
	Values    []float64   `yaml:"values,omitempty" json:"values,omitempty"`
	Bounds    []float64   `yaml:"bounds,omitempty" json:"bounds,omitempty"`
	Parents   []string    `yaml:"parents,omitempty" json:"parents,omitempty"`
	Table     [][]float64 `yaml:"table,omitempty" json:"table,omitempty"`
	Gaussians []Gaussian  `yaml:"gaussians,omitempty" json:"gaussians,omitempty"`
}

type Gaussian struct {
	Mean     float64 `yaml:"mean" json:"mean"`
	Variance float64 `yaml:"variance" json:"variance"`
}

// Load reads a definition from disk. Files ending in .json are decoded as
// JSON, everything else as YAML.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read network %s: %w", path, err)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return ParseJSON(data)
	}
	return Parse(data)
}

// Parse decodes a YAML definition.
func Parse(data []byte) (*Definition, error) {
	var d Definition
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}
	return &d, nil
}

// ParseJSON decodes a JSON definition.
func ParseJSON(data []byte) (*Definition, error) {
	var d Definition
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}
	return &d, nil
}

// Save writes d to path, as JSON for .json files and YAML otherwise.
func Save(path string, d *Definition) error {
	var (
		data []byte
		err  error
	)
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err = json.MarshalIndent(d, "", "  ")
	} else {
		data, err = yaml.Marshal(d)
	}
	if err != nil {
		return fmt.Errorf("encode network: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Build turns the definition into a model. Variables are added in
// document order, then edges in each variable's parent order, then
// tables.
func (d *Definition) Build() (*bayesnet.Model, error) {
	m := bayesnet.NewModel()
	for _, v := range d.Variables {
		st, err := v.states()
		if err != nil {
			return nil, err
		}
		if _, err := m.AddVariable(v.Name, st); err != nil {
			return nil, err
		}
	}
	for _, v := range d.Variables {
		child, _ := m.Lookup(v.Name)
		for _, p := range v.Parents {
			parent, ok := m.Lookup(p)
			if !ok {
				return nil, fmt.Errorf("%w: %q has unknown parent %q", bayesnet.ErrModelDefinition, v.Name, p)
			}
			if err := m.AddEdge(parent, child); err != nil {
				return nil, err
			}
		}
	}
	for _, v := range d.Variables {
		id, _ := m.Lookup(v.Name)
		if m.Variable(id).Discrete() {
			if v.Table != nil {
				if err := m.SetTable(id, v.Table); err != nil {
					return nil, err
				}
			}
			continue
		}
		if v.Gaussians != nil {
			gs := make([]bayesnet.Gaussian, len(v.Gaussians))
			for i, g := range v.Gaussians {
				gs[i] = bayesnet.Gaussian{Mean: g.Mean, Variance: g.Variance}
			}
			if err := m.SetGaussian(id, gs); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func (v Variable) states() (bayesnet.States, error) {
	kind, ok := bayesnet.ParseKind(strings.ToLower(v.Kind))
	if !ok {
		return nil, fmt.Errorf("%w: %q has unknown kind %q", bayesnet.ErrModelDefinition, v.Name, v.Kind)
	}
	switch kind {
	case bayesnet.KindBoolean:
		return bayesnet.Boolean(), nil
	case bayesnet.KindLabelled:
		return bayesnet.Labelled(v.States...), nil
	case bayesnet.KindNumbered:
		return bayesnet.Numbered(v.Values...), nil
	case bayesnet.KindInterval:
		return bayesnet.Intervals(v.Bounds...), nil
	default:
		return bayesnet.Continuous(), nil
	}
}

// FromModel captures a model as a definition so it can be saved.
func FromModel(name string, m *bayesnet.Model, course *Course) *Definition {
	d := &Definition{Name: name, Course: course}
	for _, id := range ids(m.Len()) {
		x := m.Variable(id)
		v := Variable{Name: x.Name, Kind: x.Kind().String(), Table: x.Table()}
		for _, p := range x.Parents {
			v.Parents = append(v.Parents, m.Variable(p).Name)
		}
		switch x.Kind() {
		case bayesnet.KindLabelled:
			for i := 0; i < x.States.Len(); i++ {
				v.States = append(v.States, x.States.Label(i))
			}
		case bayesnet.KindNumbered:
			for i := 0; i < x.States.Len(); i++ {
				f, _ := numberedValue(x.States, i)
				v.Values = append(v.Values, f)
			}
		case bayesnet.KindInterval:
			for i := 0; i < x.States.Len(); i++ {
				iv, _ := bayesnet.IntervalAt(x.States, i)
				if i == 0 {
					v.Bounds = append(v.Bounds, iv.Low)
				}
				v.Bounds = append(v.Bounds, iv.High)
			}
		case bayesnet.KindContinuous:
			for _, g := range x.Gaussians() {
				v.Gaussians = append(v.Gaussians, Gaussian{Mean: g.Mean, Variance: g.Variance})
			}
		}
		d.Variables = append(d.Variables, v)
	}
	return d
}

func numberedValue(s bayesnet.States, i int) (float64, bool) {
	f, err := strconv.ParseFloat(s.Label(i), 64)
	return f, err == nil
}

func ids(n int) []bayesnet.VarID {
	out := make([]bayesnet.VarID, n)
	for i := range out {
		out[i] = bayesnet.VarID(i)
	}
	return out
}
