package sim

// StateID is the stable key of a state inside a Simulation. Reactions store
// keys, never the states themselves.
type StateID int

// State is the population model of one species.
type State interface {
	Name() string
	InitialCondition() uint64
	// Num returns the current population.
	Num() uint64
	// Add increases the population by n.
	Add(ctx *Context, n uint64) error
	// Remove decreases the population by n, failing with an *UnderflowError
	// when n exceeds Num.
	Remove(ctx *Context, n uint64) error
	// Modify changes one member chosen uniformly at random, in place.
	Modify(ctx *Context) error
	// Initialize sets the population to the initial condition.
	Initialize(ctx *Context) error
	// Uninitialize drains the population and releases per-run resources.
	Uninitialize()
}

// Component pairs a state key with an integer multiplicity.
type Component struct {
	State         StateID
	Stoichiometry uint64
}

// SimpleState is an unstructured molecule count.
type SimpleState struct {
	name    string
	initial uint64
	num     uint64
}

// NewSimpleState creates a SimpleState. Register it with Simulation.AddState.
func NewSimpleState(name string, initial uint64) *SimpleState {
	return &SimpleState{name: name, initial: initial}
}

func (s *SimpleState) Name() string             { return s.name }
func (s *SimpleState) InitialCondition() uint64 { return s.initial }
func (s *SimpleState) Num() uint64              { return s.num }

func (s *SimpleState) Add(_ *Context, n uint64) error {
	s.num += n
	return nil
}

func (s *SimpleState) Remove(_ *Context, n uint64) error {
	if n > s.num {
		return &UnderflowError{State: s.name, Available: s.num, Requested: n}
	}
	s.num -= n
	return nil
}

// Modify is a no-op: members of a SimpleState are indistinguishable.
func (s *SimpleState) Modify(_ *Context) error {
	return nil
}

func (s *SimpleState) Initialize(_ *Context) error {
	s.num = s.initial
	return nil
}

func (s *SimpleState) Uninitialize() {
	s.num = 0
}
