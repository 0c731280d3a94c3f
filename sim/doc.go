// Package sim provides the stochastic reaction-network simulation engine.
//
// # Reading Guide
//
// Start with these files to understand the simulation kernel:
//   - state.go, composed_state.go, choice_state.go: the population models
//   - reaction.go: propensity-driven and delayed reactions
//   - simulation.go: the registry and the hybrid scheduling loop
//   - logging.go: how samples are synchronised with the event stream
//
// # Scheduling
//
// Each iteration recomputes every propensity, draws an exponential waiting
// time (Gillespie direct method), and races it against the earliest delayed
// reaction. The delayed reaction wins ties. Samples on the fixed log grid are
// written before the winning event mutates any state.
//
// # Sub-packages
//   - sim/trace/: per-event trace records
//   - sim/expr/: Lua-backed rate and condition expressions
//   - sim/model/: YAML model files and the builder that registers them
//   - sim/loggers/: CSV, SQLite, Prometheus, progress and summary logger tasks
package sim
