// Package loggers provides sim.LoggerTask implementations: a CSV population
// table, a SQLite sample store, a Prometheus textfile exporter, a progress
// reporter and end-of-run summary statistics.
package loggers

import (
	"github.com/reactsim/reactsim/sim"
)

// populations returns the states that hold a population, in registration
// order. Choice states are routers and are never sampled.
func populations(s *sim.Simulation) []sim.State {
	var out []sim.State
	for _, st := range s.States() {
		if _, ok := st.(*sim.ChoiceState); ok {
			continue
		}
		out = append(out, st)
	}
	return out
}

func names(states []sim.State) []string {
	out := make([]string, len(states))
	for i, st := range states {
		out[i] = st.Name()
	}
	return out
}
