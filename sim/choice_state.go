package sim

// Condition is a boolean evaluated against the current variable bindings.
type Condition interface {
	Evaluate(ctx *Context) (bool, error)
}

// ConditionFunc adapts a plain function to Condition.
type ConditionFunc func(ctx *Context) (bool, error)

func (f ConditionFunc) Evaluate(ctx *Context) (bool, error) {
	return f(ctx)
}

// ChoiceState is a stateless router. Adding to it fires it: the condition is
// evaluated and every target on the winning side is incremented by its
// multiplicity. It never holds a population.
type ChoiceState struct {
	name      string
	condition Condition
	ifTrue    []Component
	ifFalse   []Component
}

// NewChoiceState creates a ChoiceState. Targets are attached with
// Simulation.AddChoiceProduct once the state is registered.
func NewChoiceState(name string, condition Condition) *ChoiceState {
	return &ChoiceState{name: name, condition: condition}
}

func (s *ChoiceState) Name() string             { return s.name }
func (s *ChoiceState) InitialCondition() uint64 { return 0 }

// Num always reports 0.
func (s *ChoiceState) Num() uint64 { return 0 }

// Add fires the choice n times; the condition is re-evaluated on each firing.
func (s *ChoiceState) Add(ctx *Context, n uint64) error {
	for i := uint64(0); i < n; i++ {
		if err := s.Fire(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (s *ChoiceState) Remove(_ *Context, _ uint64) error {
	return ErrNotAPopulation
}

func (s *ChoiceState) Modify(_ *Context) error {
	return ErrNotAPopulation
}

// Fire evaluates the condition once and increments exactly one side.
func (s *ChoiceState) Fire(ctx *Context) error {
	ok, err := s.condition.Evaluate(ctx)
	if err != nil {
		return err
	}
	side := s.ifFalse
	if ok {
		side = s.ifTrue
	}
	for _, c := range side {
		if err := ctx.State(c.State).Add(ctx, c.Stoichiometry); err != nil {
			return err
		}
	}
	return nil
}

// Products returns the targets of one side.
func (s *ChoiceState) Products(branch bool) []Component {
	if branch {
		return s.ifTrue
	}
	return s.ifFalse
}

func (s *ChoiceState) Initialize(_ *Context) error { return nil }
func (s *ChoiceState) Uninitialize()               {}
