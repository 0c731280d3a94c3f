package sim

// Context is passed to every Add, Remove, Modify, Fire and ComputeRate call.
// It carries the current simulation time, the shared random source and
// read access to the registry for resolving state keys.
type Context struct {
	Time float64
	RNG  *RandomSource
	sim  *Simulation
}

// NewContext builds a Context that is not attached to a Simulation. States
// that resolve other states through it (ChoiceState) need an attached one.
func NewContext(time float64, rng *RandomSource) *Context {
	return &Context{Time: time, RNG: rng}
}

// State resolves a state key. Keys are only handed out by the registry, so an
// unknown key is a programming error.
func (c *Context) State(id StateID) State {
	return c.sim.states[id]
}

// StateNamed looks a state up by name.
func (c *Context) StateNamed(name string) (State, bool) {
	if c.sim == nil {
		return nil, false
	}
	id, ok := c.sim.stateIndex[name]
	if !ok {
		return nil, false
	}
	return c.sim.states[id], true
}

// TimeVariable is the binding that always resolves to the current time.
const TimeVariable = "time"

// Lookup resolves a variable binding: TimeVariable, a parameter, or a state's
// current population. Parameters shadow states of the same name.
func (c *Context) Lookup(name string) (float64, bool) {
	if name == TimeVariable {
		return c.Time, true
	}
	if c.sim == nil {
		return 0, false
	}
	if v, ok := c.sim.parameters[name]; ok {
		return v, true
	}
	if id, ok := c.sim.stateIndex[name]; ok {
		return float64(c.sim.states[id].Num()), true
	}
	return 0, false
}
