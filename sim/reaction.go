package sim

import (
	"fmt"
	"math"
)

// Reaction is the part shared by propensity-driven and delayed reactions.
type Reaction interface {
	Name() string
	Initialize(ctx *Context) error
	Uninitialize()
}

// Rate is a rate constant, possibly re-evaluated on every call.
type Rate interface {
	Value(ctx *Context) (float64, error)
}

// ConstantRate is a precomputed literal rate.
type ConstantRate float64

func (r ConstantRate) Value(_ *Context) (float64, error) {
	return float64(r), nil
}

// RateFunc adapts a plain function to Rate.
type RateFunc func(ctx *Context) (float64, error)

func (f RateFunc) Value(ctx *Context) (float64, error) {
	return f(ctx)
}

// Transformee is a state consumed on the reactant side and partly reproduced
// on the product side with changed per-molecule properties. Produced distinct
// members are modified in place; the remaining Consumed-Produced are removed.
type Transformee struct {
	State    StateID
	Consumed uint64
	Produced uint64
}

// PropensityReaction fires with mass-action propensity
// rate * Π fallingFactorial(Num, stoichiometry) over reactants, modifiers
// and transformees.
type PropensityReaction struct {
	name         string
	rate         Rate
	reactants    []Component
	modifiers    []Component
	products     []Component
	transformees []Transformee
}

// NewPropensityReaction creates an empty reaction. Components are attached
// through the Simulation once it is registered.
func NewPropensityReaction(name string, rate Rate) *PropensityReaction {
	return &PropensityReaction{name: name, rate: rate}
}

func (r *PropensityReaction) Name() string                { return r.name }
func (r *PropensityReaction) Initialize(_ *Context) error { return nil }
func (r *PropensityReaction) Uninitialize()               {}

func (r *PropensityReaction) Reactants() []Component      { return r.reactants }
func (r *PropensityReaction) Modifiers() []Component      { return r.modifiers }
func (r *PropensityReaction) Products() []Component       { return r.products }
func (r *PropensityReaction) Transformees() []Transformee { return r.transformees }

// ComputeRate returns the current propensity.
func (r *PropensityReaction) ComputeRate(ctx *Context) (float64, error) {
	k, err := r.rate.Value(ctx)
	if err != nil {
		return 0, fmt.Errorf("reaction %q: rate: %w", r.name, err)
	}
	a := k
	for _, c := range r.reactants {
		a *= fallingFactorial(ctx.State(c.State).Num(), c.Stoichiometry)
	}
	for _, c := range r.modifiers {
		a *= fallingFactorial(ctx.State(c.State).Num(), c.Stoichiometry)
	}
	for _, t := range r.transformees {
		a *= fallingFactorial(ctx.State(t.State).Num(), t.Consumed)
	}
	if math.IsNaN(a) || math.IsInf(a, 0) || a < 0 {
		return 0, fmt.Errorf("%w: reaction %q computed %g", ErrInvalidPropensity, r.name, a)
	}
	return a, nil
}

// Fire adds products, transforms transformees, then removes reactants.
// Modifiers are untouched.
func (r *PropensityReaction) Fire(ctx *Context) error {
	for _, c := range r.products {
		if err := ctx.State(c.State).Add(ctx, c.Stoichiometry); err != nil {
			return err
		}
	}
	for _, t := range r.transformees {
		s := ctx.State(t.State)
		if err := s.Remove(ctx, t.Consumed-t.Produced); err != nil {
			return err
		}
		if err := modifyDistinct(ctx, s, t.Produced); err != nil {
			return err
		}
	}
	for _, c := range r.reactants {
		if err := ctx.State(c.State).Remove(ctx, c.Stoichiometry); err != nil {
			return err
		}
	}
	return nil
}

// multiModifier is implemented by states that can modify several distinct
// members in one call.
type multiModifier interface {
	ModifyN(ctx *Context, n uint64) error
}

// modifyDistinct transforms n distinct members of s.
func modifyDistinct(ctx *Context, s State, n uint64) error {
	if n == 0 {
		return nil
	}
	if m, ok := s.(multiModifier); ok {
		return m.ModifyN(ctx, n)
	}
	for i := uint64(0); i < n; i++ {
		if err := s.Modify(ctx); err != nil {
			return err
		}
	}
	return nil
}

// fallingFactorial returns n·(n-1)·…·(n-k+1), or 0 when n < k.
func fallingFactorial(n, k uint64) float64 {
	if n < k {
		return 0
	}
	f := 1.0
	for i := uint64(0); i < k; i++ {
		f *= float64(n - i)
	}
	return f
}

// DelayedReaction fires at a deterministic time derived from the oldest
// member of the composed state it is bound to.
type DelayedReaction interface {
	Reaction
	// NextReactionTime returns +Inf when the bound state is empty.
	NextReactionTime(ctx *Context) float64
	// Fire removes the front molecule and runs the fire action on it.
	Fire(ctx *Context) error
}

// NextTimeFunc maps a molecule to the time it matures.
type NextTimeFunc[T any] func(m T) float64

// FireActionFunc runs when a molecule matures, after it has been removed.
type FireActionFunc[T any] func(m T, ctx *Context) error

type delayedReaction[T any] struct {
	name     string
	state    StateID
	nextTime NextTimeFunc[T]
	fire     FireActionFunc[T]
}

func (r *delayedReaction[T]) Name() string                { return r.name }
func (r *delayedReaction[T]) Initialize(_ *Context) error { return nil }
func (r *delayedReaction[T]) Uninitialize()               {}

func (r *delayedReaction[T]) bound(ctx *Context) *ComposedState[T] {
	return ctx.State(r.state).(*ComposedState[T])
}

func (r *delayedReaction[T]) NextReactionTime(ctx *Context) float64 {
	front, ok := r.bound(ctx).Front()
	if !ok {
		return math.Inf(1)
	}
	return r.nextTime(front)
}

func (r *delayedReaction[T]) Fire(ctx *Context) error {
	front, err := r.bound(ctx).PopFront()
	if err != nil {
		return err
	}
	if r.fire == nil {
		return nil
	}
	return r.fire(front, ctx)
}
