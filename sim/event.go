package sim

import "github.com/sirupsen/logrus"

// Event is one firing chosen by the scheduler. Each event has a Timestamp
// (simulation time) and an Execute method that applies it to the registry.
type Event interface {
	Timestamp() float64
	Execute(*Simulation) error
}

// PropensityEvent fires the propensity reaction that won the Gillespie draw.
type PropensityEvent struct {
	time     float64
	Reaction *PropensityReaction
}

// Timestamp returns the time the reaction fires at.
func (e *PropensityEvent) Timestamp() float64 {
	return e.time
}

// Execute fires the reaction.
func (e *PropensityEvent) Execute(sim *Simulation) error {
	logrus.Debugf("<< Propensity: %s at t=%g", e.Reaction.Name(), e.time)
	sim.counts.Propensity++
	return e.Reaction.Fire(sim.ctx)
}

// DelayedEvent fires a delayed reaction whose front molecule matured.
type DelayedEvent struct {
	time     float64
	Reaction DelayedReaction
}

// Timestamp returns the maturation time.
func (e *DelayedEvent) Timestamp() float64 {
	return e.time
}

// Execute fires the reaction.
func (e *DelayedEvent) Execute(sim *Simulation) error {
	logrus.Debugf("<< Delayed: %s at t=%g", e.Reaction.Name(), e.time)
	sim.counts.Delayed++
	return e.Reaction.Fire(sim.ctx)
}

func eventReaction(ev Event) string {
	switch e := ev.(type) {
	case *PropensityEvent:
		return e.Reaction.Name()
	case *DelayedEvent:
		return e.Reaction.Name()
	}
	return ""
}
