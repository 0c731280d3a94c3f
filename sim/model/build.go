package model

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/reactsim/reactsim/sim"
	"github.com/reactsim/reactsim/sim/expr"
)

// Model is a ModelSpec registered with a simulation.
type Model struct {
	Spec   *ModelSpec
	Sim    *sim.Simulation
	Engine *expr.Engine
}

// Build validates spec and registers its parameters, species and reactions
// with s. Registration stops at the first error; s is then partially built
// and should be discarded.
func Build(spec *ModelSpec, s *sim.Simulation) (*Model, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	b := &builder{spec: spec, sim: s, engine: expr.NewEngine()}
	steps := []func() error{
		b.parameters,
		b.species,
		b.choiceProducts,
		b.reactions,
		b.delayed,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}
	if spec.LogPeriod > 0 {
		if err := s.SetLogPeriod(spec.LogPeriod); err != nil {
			return nil, err
		}
	}
	logrus.Debugf("model %q: %d species, %d propensity reactions, %d delayed reactions",
		spec.Name, len(spec.Species), len(spec.Reactions), len(spec.Delayed))
	return &Model{Spec: spec, Sim: s, Engine: b.engine}, nil
}

type builder struct {
	spec   *ModelSpec
	sim    *sim.Simulation
	engine *expr.Engine
	// choices are registered before their targets exist
	choices map[string]*sim.ChoiceState
}

func (b *builder) parameters() error {
	names := make([]string, 0, len(b.spec.Parameters))
	for name := range b.spec.Parameters {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := b.sim.SetParameter(name, b.spec.Parameters[name]); err != nil {
			return fmt.Errorf("parameter %q: %w", name, err)
		}
	}
	return nil
}

func (b *builder) species() error {
	b.choices = make(map[string]*sim.ChoiceState)
	for _, sp := range b.spec.Species {
		initial := uint64(sp.Initial)
		var err error
		switch sp.Kind {
		case "", KindSimple:
			_, err = b.sim.CreateSimpleState(sp.Name, initial)
		case KindComposed:
			capacity := sp.Capacity
			if capacity == 0 {
				capacity = sim.DefaultComposedCapacity
			}
			_, err = b.sim.AddState(sim.NewComposedStateWithCapacity[Molecule](sp.Name, initial, Factory{}, capacity))
		case KindChoice:
			var cond *expr.Expr
			cond, err = b.engine.Compile(sp.Condition)
			if err != nil {
				return fmt.Errorf("species %q: condition: %w", sp.Name, err)
			}
			b.choices[sp.Name], err = b.sim.CreateChoiceState(sp.Name, cond)
		}
		if err != nil {
			return fmt.Errorf("species %q: %w", sp.Name, err)
		}
	}
	return nil
}

func (b *builder) choiceProducts() error {
	for _, sp := range b.spec.Species {
		if sp.Kind != KindChoice {
			continue
		}
		choice := b.choices[sp.Name]
		sides := []struct {
			branch bool
			terms  []TermSpec
		}{{true, sp.IfTrue}, {false, sp.IfFalse}}
		for _, side := range sides {
			for _, t := range side.terms {
				n, _ := t.multiplicity("")
				if err := b.sim.AddChoiceProduct(choice, side.branch, t.State, n); err != nil {
					return fmt.Errorf("species %q: %w", sp.Name, err)
				}
			}
		}
	}
	return nil
}

func (b *builder) reactions() error {
	for _, rs := range b.spec.Reactions {
		rate, err := b.engine.Compile(rs.Rate)
		if err != nil {
			return fmt.Errorf("reaction %q: rate: %w", rs.Name, err)
		}
		r, err := b.sim.CreatePropensityReaction(rs.Name, rate.Rate())
		if err != nil {
			return err
		}
		adders := []struct {
			terms []TermSpec
			add   func(*sim.PropensityReaction, string, uint64) error
		}{
			{rs.Reactants, b.sim.AddReactant},
			{rs.Modifiers, b.sim.AddModifier},
			{rs.Products, b.sim.AddProduct},
		}
		for _, a := range adders {
			for _, t := range a.terms {
				n, _ := t.multiplicity("")
				if err := a.add(r, t.State, n); err != nil {
					return fmt.Errorf("reaction %q: %w", rs.Name, err)
				}
			}
		}
		for _, t := range rs.Transformees {
			if err := b.sim.AddTransformee(r, t.State, uint64(t.Consumed), uint64(t.Produced)); err != nil {
				return fmt.Errorf("reaction %q: %w", rs.Name, err)
			}
		}
	}
	return nil
}

func (b *builder) delayed() error {
	for _, ds := range b.spec.Delayed {
		products := make([]sim.Component, 0, len(ds.Products))
		for _, t := range ds.Products {
			id, ok := b.sim.StateID(t.State)
			if !ok {
				return fmt.Errorf("delayed reaction %q: %w: %q", ds.Name, sim.ErrUnknownState, t.State)
			}
			n, _ := t.multiplicity("")
			products = append(products, sim.Component{State: id, Stoichiometry: n})
		}
		delay := ds.Delay
		nextTime := func(m Molecule) float64 { return m.Created + delay }
		fire := func(_ Molecule, ctx *sim.Context) error {
			for _, p := range products {
				if err := ctx.State(p.State).Add(ctx, p.Stoichiometry); err != nil {
					return err
				}
			}
			return nil
		}
		if _, err := sim.CreateDelayedReaction[Molecule](b.sim, ds.Name, ds.State, nextTime, fire); err != nil {
			return fmt.Errorf("delayed reaction %q: %w", ds.Name, err)
		}
	}
	return nil
}

// StateNames returns the species names in declaration order, skipping choice
// species, which never hold a population.
func (s *ModelSpec) StateNames() []string {
	names := make([]string, 0, len(s.Species))
	for _, sp := range s.Species {
		if sp.Kind != KindChoice {
			names = append(names, sp.Name)
		}
	}
	return names
}
