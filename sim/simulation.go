// sim/simulation.go
package sim

import (
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/reactsim/reactsim/sim/trace"
)

// EventCounts tallies the events fired in the current or last run.
type EventCounts struct {
	Propensity int
	Delayed    int
}

// Total returns the number of fired events.
func (c EventCounts) Total() int {
	return c.Propensity + c.Delayed
}

// Simulation owns the registry of states and reactions, the clock and the
// random source, and runs the hybrid Gillespie / delayed-event scheduler.
type Simulation struct {
	// Clock is the current simulation time. It never decreases and never
	// exceeds Horizon.
	Clock float64
	// Horizon is the runtime of the current or last run.
	Horizon float64
	// Logs drives the logger tasks.
	Logs *LogManager
	// Trace records every fired event when non-nil and at TraceLevelEvents.
	// It is reset at the start of each run.
	Trace *trace.SimulationTrace

	states     []State
	stateIndex map[string]StateID

	propensity      []*PropensityReaction
	propensityIndex map[string]int
	delayed         []DelayedReaction
	delayedIndex    map[string]int

	parameters   map[string]float64
	outputFolder string

	rng     *RandomSource
	ctx     *Context
	rates   []float64
	counts  EventCounts
	running bool
}

// NewSimulation creates an empty registry whose random source is seeded from key.
func NewSimulation(key SimulationKey) *Simulation {
	s := &Simulation{
		Logs:            NewLogManager(),
		stateIndex:      make(map[string]StateID),
		propensityIndex: make(map[string]int),
		delayedIndex:    make(map[string]int),
		parameters:      make(map[string]float64),
		outputFolder:    ".",
		rng:             NewRandomSource(key),
	}
	s.ctx = &Context{RNG: s.rng, sim: s}
	return s
}

// Context returns the context handed to states and reactions.
func (sim *Simulation) Context() *Context {
	return sim.ctx
}

// RNG returns the shared random source.
func (sim *Simulation) RNG() *RandomSource {
	return sim.rng
}

// Counts returns the events fired so far in the current or last run.
func (sim *Simulation) Counts() EventCounts {
	return sim.counts
}

// States returns the registered states in registration order.
func (sim *Simulation) States() []State {
	return sim.states
}

// PropensityReactions returns the registered propensity reactions.
func (sim *Simulation) PropensityReactions() []*PropensityReaction {
	return sim.propensity
}

// DelayedReactions returns the registered delayed reactions.
func (sim *Simulation) DelayedReactions() []DelayedReaction {
	return sim.delayed
}

// OutputFolder returns the base folder handed to disk-writing loggers.
func (sim *Simulation) OutputFolder() string {
	return sim.outputFolder
}

// === Registry ===

func (sim *Simulation) checkMutable() error {
	if sim.running {
		return ErrRegistryFrozen
	}
	return nil
}

func (sim *Simulation) nameTaken(name string) bool {
	if _, ok := sim.stateIndex[name]; ok {
		return true
	}
	if _, ok := sim.propensityIndex[name]; ok {
		return true
	}
	_, ok := sim.delayedIndex[name]
	return ok
}

// AddState registers a state and returns its key.
func (sim *Simulation) AddState(s State) (StateID, error) {
	if err := sim.checkMutable(); err != nil {
		return 0, err
	}
	if sim.nameTaken(s.Name()) {
		return 0, fmt.Errorf("%w: %q", ErrDuplicateName, s.Name())
	}
	id := StateID(len(sim.states))
	sim.states = append(sim.states, s)
	sim.stateIndex[s.Name()] = id
	return id, nil
}

// CreateSimpleState creates and registers a SimpleState.
func (sim *Simulation) CreateSimpleState(name string, initial uint64) (*SimpleState, error) {
	s := NewSimpleState(name, initial)
	if _, err := sim.AddState(s); err != nil {
		return nil, err
	}
	return s, nil
}

// CreateChoiceState creates and registers a ChoiceState.
func (sim *Simulation) CreateChoiceState(name string, condition Condition) (*ChoiceState, error) {
	s := NewChoiceState(name, condition)
	if _, err := sim.AddState(s); err != nil {
		return nil, err
	}
	return s, nil
}

// CreateComposedState creates and registers a ComposedState.
func CreateComposedState[T any](sim *Simulation, name string, initial uint64, factory MoleculeFactory[T]) (*ComposedState[T], error) {
	s := NewComposedState(name, initial, factory)
	if _, err := sim.AddState(s); err != nil {
		return nil, err
	}
	return s, nil
}

// AddChoiceProduct attaches target with the given multiplicity to one side
// of a registered ChoiceState.
func (sim *Simulation) AddChoiceProduct(choice *ChoiceState, branch bool, target string, multiplicity uint64) error {
	if err := sim.checkMutable(); err != nil {
		return err
	}
	if s, ok := sim.GetState(choice.Name()); !ok || s != State(choice) {
		return fmt.Errorf("%w: choice %q is not registered", ErrUnknownState, choice.Name())
	}
	id, err := sim.resolveState(target)
	if err != nil {
		return err
	}
	if target == choice.Name() {
		return fmt.Errorf("%w: choice %q cannot target itself", ErrInvalidReactant, target)
	}
	if multiplicity == 0 {
		return fmt.Errorf("%w: choice %q target %q", ErrInvalidStoichiometry, choice.Name(), target)
	}
	if sim.choiceReaches(id, choice) {
		return fmt.Errorf("%w: choice %q target %q routes back to it", ErrInvalidReactant, choice.Name(), target)
	}
	c := Component{State: id, Stoichiometry: multiplicity}
	if branch {
		choice.ifTrue = append(choice.ifTrue, c)
	} else {
		choice.ifFalse = append(choice.ifFalse, c)
	}
	return nil
}

// choiceReaches reports whether routing a firing into from can reach choice
// through chained choice products.
func (sim *Simulation) choiceReaches(from StateID, choice *ChoiceState) bool {
	seen := make(map[StateID]bool)
	stack := []StateID{from}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[id] {
			continue
		}
		seen[id] = true
		c, ok := sim.states[id].(*ChoiceState)
		if !ok {
			continue
		}
		if c == choice {
			return true
		}
		for _, next := range c.ifTrue {
			stack = append(stack, next.State)
		}
		for _, next := range c.ifFalse {
			stack = append(stack, next.State)
		}
	}
	return false
}

// GetState looks a state up by name.
func (sim *Simulation) GetState(name string) (State, bool) {
	id, ok := sim.stateIndex[name]
	if !ok {
		return nil, false
	}
	return sim.states[id], true
}

// StateID returns the key of a registered state.
func (sim *Simulation) StateID(name string) (StateID, bool) {
	id, ok := sim.stateIndex[name]
	return id, ok
}

func (sim *Simulation) resolveState(name string) (StateID, error) {
	id, ok := sim.stateIndex[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownState, name)
	}
	return id, nil
}

// resolvePopulation resolves a state that a reaction consumes or senses.
func (sim *Simulation) resolvePopulation(reaction, name string) (StateID, error) {
	id, err := sim.resolveState(name)
	if err != nil {
		return 0, err
	}
	if _, ok := sim.states[id].(*ChoiceState); ok {
		return 0, fmt.Errorf("%w: reaction %q uses choice %q as a reactant", ErrInvalidReactant, reaction, name)
	}
	return id, nil
}

// CreatePropensityReaction creates and registers a PropensityReaction.
func (sim *Simulation) CreatePropensityReaction(name string, rate Rate) (*PropensityReaction, error) {
	if err := sim.checkMutable(); err != nil {
		return nil, err
	}
	if sim.nameTaken(name) {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}
	if rate == nil {
		return nil, fmt.Errorf("%w: reaction %q has no rate", ErrInvalidPropensity, name)
	}
	r := NewPropensityReaction(name, rate)
	sim.propensityIndex[name] = len(sim.propensity)
	sim.propensity = append(sim.propensity, r)
	return r, nil
}

func (sim *Simulation) checkReaction(r *PropensityReaction) error {
	if err := sim.checkMutable(); err != nil {
		return err
	}
	if got, ok := sim.GetPropensityReaction(r.Name()); !ok || got != r {
		return fmt.Errorf("%w: %q", ErrUnknownReaction, r.Name())
	}
	return nil
}

func (sim *Simulation) component(r *PropensityReaction, state string, stoichiometry uint64, consumed bool) (Component, error) {
	if err := sim.checkReaction(r); err != nil {
		return Component{}, err
	}
	if stoichiometry == 0 {
		return Component{}, fmt.Errorf("%w: reaction %q state %q", ErrInvalidStoichiometry, r.Name(), state)
	}
	var id StateID
	var err error
	if consumed {
		id, err = sim.resolvePopulation(r.Name(), state)
	} else {
		id, err = sim.resolveState(state)
	}
	if err != nil {
		return Component{}, err
	}
	return Component{State: id, Stoichiometry: stoichiometry}, nil
}

// AddReactant adds a component consumed on fire.
func (sim *Simulation) AddReactant(r *PropensityReaction, state string, stoichiometry uint64) error {
	c, err := sim.component(r, state, stoichiometry, true)
	if err != nil {
		return err
	}
	r.reactants = append(r.reactants, c)
	return nil
}

// AddModifier adds a catalyst: it scales the propensity but is not consumed.
func (sim *Simulation) AddModifier(r *PropensityReaction, state string, stoichiometry uint64) error {
	c, err := sim.component(r, state, stoichiometry, true)
	if err != nil {
		return err
	}
	r.modifiers = append(r.modifiers, c)
	return nil
}

// AddProduct adds a component produced on fire.
func (sim *Simulation) AddProduct(r *PropensityReaction, state string, stoichiometry uint64) error {
	c, err := sim.component(r, state, stoichiometry, false)
	if err != nil {
		return err
	}
	r.products = append(r.products, c)
	return nil
}

// AddTransformee adds a state that is consumed with stoichiometry consumed
// and reproduced, modified, with stoichiometry produced.
func (sim *Simulation) AddTransformee(r *PropensityReaction, state string, consumed, produced uint64) error {
	c, err := sim.component(r, state, consumed, true)
	if err != nil {
		return err
	}
	if produced > consumed {
		return fmt.Errorf("%w: reaction %q state %q consumes %d, produces %d", ErrInvalidTransformee, r.Name(), state, consumed, produced)
	}
	r.transformees = append(r.transformees, Transformee{State: c.State, Consumed: consumed, Produced: produced})
	return nil
}

// GetPropensityReaction looks a propensity reaction up by name.
func (sim *Simulation) GetPropensityReaction(name string) (*PropensityReaction, bool) {
	i, ok := sim.propensityIndex[name]
	if !ok {
		return nil, false
	}
	return sim.propensity[i], true
}

// CreateDelayedReaction creates and registers a DelayedReaction bound to the
// composed state named state, whose molecules must be of type T.
func CreateDelayedReaction[T any](sim *Simulation, name, state string, nextTime NextTimeFunc[T], fire FireActionFunc[T]) (DelayedReaction, error) {
	if err := sim.checkMutable(); err != nil {
		return nil, err
	}
	if sim.nameTaken(name) {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}
	id, err := sim.resolveState(state)
	if err != nil {
		return nil, err
	}
	if _, ok := sim.states[id].(*ComposedState[T]); !ok {
		return nil, fmt.Errorf("%w: reaction %q, state %q is %T", ErrNotComposed, name, state, sim.states[id])
	}
	if nextTime == nil {
		return nil, fmt.Errorf("%w: reaction %q has no maturation time", ErrNotComposed, name)
	}
	r := &delayedReaction[T]{name: name, state: id, nextTime: nextTime, fire: fire}
	sim.delayedIndex[name] = len(sim.delayed)
	sim.delayed = append(sim.delayed, r)
	return r, nil
}

// GetDelayedReaction looks a delayed reaction up by name.
func (sim *Simulation) GetDelayedReaction(name string) (DelayedReaction, bool) {
	i, ok := sim.delayedIndex[name]
	if !ok {
		return nil, false
	}
	return sim.delayed[i], true
}

// SetParameter binds a named value visible to rate and condition expressions.
func (sim *Simulation) SetParameter(name string, value float64) error {
	if err := sim.checkMutable(); err != nil {
		return err
	}
	sim.parameters[name] = value
	return nil
}

// Parameters returns the bound parameters.
func (sim *Simulation) Parameters() map[string]float64 {
	return sim.parameters
}

// SetLogPeriod sets the sampling interval; it must be positive and finite.
func (sim *Simulation) SetLogPeriod(period float64) error {
	if err := sim.checkMutable(); err != nil {
		return err
	}
	if !(period > 0) || math.IsInf(period, 1) {
		return fmt.Errorf("%w: got %g", ErrInvalidLogPeriod, period)
	}
	sim.Logs.period = period
	return nil
}

// SetBaseOutputFolder sets the folder handed to disk-writing loggers.
func (sim *Simulation) SetBaseOutputFolder(path string) error {
	if err := sim.checkMutable(); err != nil {
		return err
	}
	sim.outputFolder = path
	return nil
}

// AddLogger registers a logger task.
func (sim *Simulation) AddLogger(task LoggerTask) error {
	if err := sim.checkMutable(); err != nil {
		return err
	}
	sim.Logs.tasks = append(sim.Logs.tasks, task)
	return nil
}

// === Run ===

// Run initialises every state and reaction, advances simulation time to
// runtime, and uninitialises everything again. Any failure aborts the run and
// is returned; runtime invariant violations come back as *SimulationError.
func (sim *Simulation) Run(runtime float64) error {
	if math.IsNaN(runtime) || math.IsInf(runtime, 0) || runtime < 0 {
		return fmt.Errorf("%w: got %g", ErrInvalidRuntime, runtime)
	}
	if sim.running {
		return ErrRegistryFrozen
	}
	sim.running = true
	defer func() { sim.running = false }()

	sim.Horizon = runtime
	sim.setClock(0)
	sim.counts = EventCounts{}
	sim.rng.Reset()
	sim.rates = make([]float64, len(sim.propensity))
	if sim.Trace != nil {
		sim.Trace.Reset()
	}

	folder := ""
	if sim.Logs.writesToDisk() {
		if err := os.MkdirAll(sim.outputFolder, 0o755); err != nil {
			return fmt.Errorf("create output folder %s: %w", sim.outputFolder, err)
		}
		folder = sim.outputFolder
	}

	if err := sim.initialize(); err != nil {
		sim.uninitialize()
		return err
	}
	if err := sim.Logs.Initialize(folder, sim); err != nil {
		sim.uninitialize()
		return err
	}

	logrus.Infof("Starting simulation: %d states, %d propensity reactions, %d delayed reactions, runtime=%g, log period=%g",
		len(sim.states), len(sim.propensity), len(sim.delayed), runtime, sim.Logs.Period())

	runErr := sim.loop()
	if runErr == nil {
		sim.setClock(sim.Horizon)
	}
	logErr := sim.Logs.Uninitialize(sim.Clock, runErr == nil)
	sim.uninitialize()

	if runErr != nil {
		logrus.Errorf("[t=%g] Simulation aborted: %v", sim.Clock, runErr)
		return errors.Join(runErr, logErr)
	}
	logrus.Infof("[t=%g] Simulation ended after %d events (%d propensity, %d delayed)",
		sim.Clock, sim.counts.Total(), sim.counts.Propensity, sim.counts.Delayed)
	return logErr
}

func (sim *Simulation) setClock(t float64) {
	sim.Clock = t
	sim.ctx.Time = t
}

func (sim *Simulation) initialize() error {
	for _, s := range sim.states {
		if err := s.Initialize(sim.ctx); err != nil {
			return fmt.Errorf("initialize state %q: %w", s.Name(), err)
		}
	}
	for _, r := range sim.propensity {
		if len(r.reactants)+len(r.modifiers)+len(r.products)+len(r.transformees) == 0 {
			logrus.Warnf("reaction %q has no components and will fire without effect", r.Name())
		}
		if err := r.Initialize(sim.ctx); err != nil {
			return fmt.Errorf("initialize reaction %q: %w", r.Name(), err)
		}
	}
	for _, r := range sim.delayed {
		if err := r.Initialize(sim.ctx); err != nil {
			return fmt.Errorf("initialize reaction %q: %w", r.Name(), err)
		}
	}
	return nil
}

func (sim *Simulation) uninitialize() {
	for _, r := range sim.propensity {
		r.Uninitialize()
	}
	for _, r := range sim.delayed {
		r.Uninitialize()
	}
	for _, s := range sim.states {
		s.Uninitialize()
	}
}

func (sim *Simulation) loop() error {
	for {
		ev, err := sim.nextEvent()
		if err != nil {
			return &SimulationError{Time: sim.Clock, Err: err}
		}
		if ev == nil {
			return nil
		}
		if err := ev.Execute(sim); err != nil {
			return &SimulationError{Time: sim.Clock, Reaction: eventReaction(ev), Err: err}
		}
		sim.record(ev)
	}
}

// nextEvent races the next propensity event against the earliest delayed
// event, advances the clock, and flushes due samples before returning the
// winner. It returns nil once the next event would fall past the horizon.
func (sim *Simulation) nextEvent() (Event, error) {
	a0, err := sim.computeRates()
	if err != nil {
		return nil, err
	}
	tau := math.Inf(1)
	r1 := sim.rng.OpenUniform()
	if a0 > 0 {
		tau = math.Log(1/r1) / a0
	}

	nextDelayed, winner, err := sim.nextDelayedReaction()
	if err != nil {
		return nil, err
	}

	if !delayedFirst(nextDelayed, sim.Clock+tau) {
		if sim.Clock+tau > sim.Horizon {
			return nil, nil
		}
		sim.setClock(sim.Clock + tau)
		if err := sim.Logs.NotifyBeforeChange(sim.Clock); err != nil {
			return nil, err
		}
		return &PropensityEvent{time: sim.Clock, Reaction: sim.propensity[sim.selectPropensity(a0)]}, nil
	}

	if nextDelayed > sim.Horizon {
		return nil, nil
	}
	// a maturation time in the past fires now; the clock never runs backwards
	sim.setClock(math.Max(sim.Clock, nextDelayed))
	if err := sim.Logs.NotifyBeforeChange(sim.Clock); err != nil {
		return nil, err
	}
	return &DelayedEvent{time: sim.Clock, Reaction: sim.delayed[winner]}, nil
}

// computeRates refreshes every propensity and returns their sum.
func (sim *Simulation) computeRates() (float64, error) {
	a0 := 0.0
	for i, r := range sim.propensity {
		a, err := r.ComputeRate(sim.ctx)
		if err != nil {
			return 0, err
		}
		sim.rates[i] = a
		a0 += a
	}
	return a0, nil
}

// delayedFirst reports whether a delayed reaction maturing at nextDelayed
// fires before a propensity event at propensityTime. The delayed reaction
// wins a tie, including when both are +Inf.
func delayedFirst(nextDelayed, propensityTime float64) bool {
	return nextDelayed <= propensityTime
}

// nextDelayedReaction returns the earliest maturation time and its reaction;
// the first registered reaction wins ties.
func (sim *Simulation) nextDelayedReaction() (float64, int, error) {
	best, winner := math.Inf(1), -1
	for i, r := range sim.delayed {
		t := r.NextReactionTime(sim.ctx)
		if math.IsNaN(t) {
			return 0, -1, fmt.Errorf("%w: delayed reaction %q", ErrInvalidMaturationTime, r.Name())
		}
		if t < best {
			best, winner = t, i
		}
	}
	return best, winner, nil
}

// selectPropensity picks a reaction with probability proportional to its
// propensity by scanning cumulative sums.
func (sim *Simulation) selectPropensity(a0 float64) int {
	fraction := sim.rng.Float64() * a0
	sum, last := 0.0, -1
	for i, a := range sim.rates {
		if a == 0 {
			continue
		}
		sum += a
		last = i
		if sum >= fraction {
			return i
		}
	}
	// rounding left the running sum just short of a0
	return last
}

func (sim *Simulation) record(ev Event) {
	if sim.Trace == nil || sim.Trace.Config.Level != trace.TraceLevelEvents {
		return
	}
	kind := trace.KindPropensity
	if _, ok := ev.(*DelayedEvent); ok {
		kind = trace.KindDelayed
	}
	sim.Trace.RecordEvent(trace.EventRecord{
		Clock:    ev.Timestamp(),
		Reaction: eventReaction(ev),
		Kind:     kind,
	})
}
