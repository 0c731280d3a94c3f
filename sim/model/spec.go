// Package model loads reaction-network descriptions from YAML and registers
// them with a sim.Simulation.
package model

import (
	"bytes"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/reactsim/reactsim/sim/expr"
)

// Species kinds.
const (
	KindSimple   = "simple"
	KindComposed = "composed"
	KindChoice   = "choice"
)

// ModelSpec is the top-level model description.
// Loaded from YAML via LoadModelSpec(path).
type ModelSpec struct {
	Version    string             `yaml:"version"`
	Name       string             `yaml:"name,omitempty"`
	Runtime    float64            `yaml:"runtime,omitempty"`    // 0 = caller decides
	LogPeriod  float64            `yaml:"log_period,omitempty"` // 0 = engine default
	Parameters map[string]float64 `yaml:"parameters,omitempty"`
	Species    []SpeciesSpec      `yaml:"species"`
	Reactions  []ReactionSpec     `yaml:"reactions,omitempty"`
	Delayed    []DelayedSpec      `yaml:"delayed,omitempty"`
}

// SpeciesSpec declares one state.
type SpeciesSpec struct {
	Name      string     `yaml:"name"`
	Kind      string     `yaml:"kind,omitempty"` // default simple
	Initial   float64    `yaml:"initial,omitempty"`
	Capacity  int        `yaml:"capacity,omitempty"`  // composed only
	Condition string     `yaml:"condition,omitempty"` // choice only
	IfTrue    []TermSpec `yaml:"if_true,omitempty"`
	IfFalse   []TermSpec `yaml:"if_false,omitempty"`
}

// TermSpec is a (state, multiplicity) pair. Count defaults to 1.
type TermSpec struct {
	State string   `yaml:"state"`
	Count *float64 `yaml:"count,omitempty"`
}

// TransformeeSpec consumes Consumed members and gives back Produced of them
// with their generation advanced.
type TransformeeSpec struct {
	State    string  `yaml:"state"`
	Consumed float64 `yaml:"consumed"`
	Produced float64 `yaml:"produced"`
}

// ReactionSpec declares a propensity reaction.
type ReactionSpec struct {
	Name         string            `yaml:"name"`
	Rate         string            `yaml:"rate"`
	Reactants    []TermSpec        `yaml:"reactants,omitempty"`
	Modifiers    []TermSpec        `yaml:"modifiers,omitempty"`
	Products     []TermSpec        `yaml:"products,omitempty"`
	Transformees []TransformeeSpec `yaml:"transformees,omitempty"`
}

// DelayedSpec declares a delayed reaction: each molecule of State matures
// Delay after it was created and is turned into Products.
type DelayedSpec struct {
	Name     string     `yaml:"name"`
	State    string     `yaml:"state"`
	Delay    float64    `yaml:"delay"`
	Products []TermSpec `yaml:"products,omitempty"`
}

// Valid value registries.
var (
	validKinds = map[string]bool{
		"": true, KindSimple: true, KindComposed: true, KindChoice: true,
	}
	validVersions = map[string]bool{
		"": true, "1": true,
	}
)

// LoadModelSpec reads and parses a YAML model file.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadModelSpec(path string) (*ModelSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading model spec: %w", err)
	}
	return ParseModelSpec(data)
}

// ParseModelSpec parses a YAML model description.
func ParseModelSpec(data []byte) (*ModelSpec, error) {
	var spec ModelSpec
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&spec); err != nil {
		return nil, fmt.Errorf("parsing model spec: %w", err)
	}
	return &spec, nil
}

// Validate checks the model for errors that do not need a simulation to
// detect. Name resolution and cross-references are checked while building.
func (s *ModelSpec) Validate() error {
	if !validVersions[s.Version] {
		return fmt.Errorf("unsupported version %q; valid: 1", s.Version)
	}
	if len(s.Species) == 0 {
		return fmt.Errorf("at least one species required")
	}
	if err := validateNonNegative("runtime", s.Runtime); err != nil {
		return err
	}
	if err := validateNonNegative("log_period", s.LogPeriod); err != nil {
		return err
	}
	for name, v := range s.Parameters {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("parameters.%s must be a finite number, got %f", name, v)
		}
		if expr.IsReserved(name) {
			return fmt.Errorf("parameters.%s: name is reserved in expressions", name)
		}
	}
	for i := range s.Species {
		if err := validateSpecies(&s.Species[i], i); err != nil {
			return err
		}
	}
	for i := range s.Reactions {
		if err := validateReaction(&s.Reactions[i], i); err != nil {
			return err
		}
	}
	for i := range s.Delayed {
		if err := validateDelayed(&s.Delayed[i], i); err != nil {
			return err
		}
	}
	return nil
}

func validateSpecies(sp *SpeciesSpec, idx int) error {
	prefix := fmt.Sprintf("species[%d]", idx)
	if sp.Name == "" {
		return fmt.Errorf("%s: name required", prefix)
	}
	prefix = fmt.Sprintf("species[%d] %q", idx, sp.Name)
	if expr.IsReserved(sp.Name) {
		return fmt.Errorf("%s: name is reserved in expressions", prefix)
	}
	if !validKinds[sp.Kind] {
		return fmt.Errorf("%s: unknown kind %q; valid: simple, composed, choice", prefix, sp.Kind)
	}
	if _, err := count(prefix+".initial", sp.Initial, true); err != nil {
		return err
	}
	if sp.Kind == KindChoice {
		if sp.Condition == "" {
			return fmt.Errorf("%s: choice requires a condition", prefix)
		}
		if sp.Initial != 0 {
			return fmt.Errorf("%s: choice cannot have an initial population", prefix)
		}
		if err := validateTerms(prefix+".if_true", sp.IfTrue); err != nil {
			return err
		}
		return validateTerms(prefix+".if_false", sp.IfFalse)
	}
	if sp.Condition != "" || len(sp.IfTrue) > 0 || len(sp.IfFalse) > 0 {
		return fmt.Errorf("%s: condition and branches are only valid for choice species", prefix)
	}
	if sp.Capacity != 0 && sp.Kind != KindComposed {
		return fmt.Errorf("%s: capacity is only valid for composed species", prefix)
	}
	if sp.Capacity < 0 {
		return fmt.Errorf("%s: capacity must be non-negative, got %d", prefix, sp.Capacity)
	}
	return nil
}

func validateReaction(r *ReactionSpec, idx int) error {
	prefix := fmt.Sprintf("reactions[%d]", idx)
	if r.Name == "" {
		return fmt.Errorf("%s: name required", prefix)
	}
	prefix = fmt.Sprintf("reactions[%d] %q", idx, r.Name)
	if r.Rate == "" {
		return fmt.Errorf("%s: rate required", prefix)
	}
	for field, terms := range map[string][]TermSpec{"reactants": r.Reactants, "modifiers": r.Modifiers, "products": r.Products} {
		if err := validateTerms(prefix+"."+field, terms); err != nil {
			return err
		}
	}
	for i, t := range r.Transformees {
		p := fmt.Sprintf("%s.transformees[%d]", prefix, i)
		if t.State == "" {
			return fmt.Errorf("%s: state required", p)
		}
		consumed, err := count(p+".consumed", t.Consumed, false)
		if err != nil {
			return err
		}
		produced, err := count(p+".produced", t.Produced, true)
		if err != nil {
			return err
		}
		if produced > consumed {
			return fmt.Errorf("%s: produced (%d) must not exceed consumed (%d)", p, produced, consumed)
		}
	}
	return nil
}

func validateDelayed(d *DelayedSpec, idx int) error {
	prefix := fmt.Sprintf("delayed[%d]", idx)
	if d.Name == "" {
		return fmt.Errorf("%s: name required", prefix)
	}
	prefix = fmt.Sprintf("delayed[%d] %q", idx, d.Name)
	if d.State == "" {
		return fmt.Errorf("%s: state required", prefix)
	}
	if err := validateNonNegative(prefix+".delay", d.Delay); err != nil {
		return err
	}
	return validateTerms(prefix+".products", d.Products)
}

func validateTerms(prefix string, terms []TermSpec) error {
	for i, t := range terms {
		p := fmt.Sprintf("%s[%d]", prefix, i)
		if t.State == "" {
			return fmt.Errorf("%s: state required", p)
		}
		if _, err := t.multiplicity(p); err != nil {
			return err
		}
	}
	return nil
}

func (t TermSpec) multiplicity(name string) (uint64, error) {
	if t.Count == nil {
		return 1, nil
	}
	return count(name+".count", *t.Count, false)
}

// count converts a YAML number to a stoichiometry, rejecting negative and
// fractional values.
func count(name string, v float64, allowZero bool) (uint64, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || v != math.Trunc(v) || v > math.MaxInt64 {
		return 0, fmt.Errorf("%s must be a non-negative integer, got %v", name, v)
	}
	if v == 0 && !allowZero {
		return 0, fmt.Errorf("%s must be positive, got 0", name)
	}
	return uint64(v), nil
}

func validateNonNegative(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%s must be a finite number, got %f", name, v)
	}
	if v < 0 {
		return fmt.Errorf("%s must be non-negative, got %f", name, v)
	}
	return nil
}
