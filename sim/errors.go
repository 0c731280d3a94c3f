package sim

import (
	"errors"
	"fmt"
)

// Model-definition errors. Returned synchronously by the registry API; a
// failed call leaves the registry unchanged.
var (
	ErrDuplicateName        = errors.New("sim: duplicate name")
	ErrUnknownState         = errors.New("sim: unknown state")
	ErrUnknownReaction      = errors.New("sim: unknown reaction")
	ErrInvalidStoichiometry = errors.New("sim: stoichiometry must be a positive integer")
	ErrInvalidTransformee   = errors.New("sim: transformee must consume at least as much as it produces")
	ErrInvalidReactant      = errors.New("sim: state cannot be consumed or sensed by a reaction")
	ErrNotComposed          = errors.New("sim: delayed reaction must be bound to a composed state")
	ErrRegistryFrozen       = errors.New("sim: registry cannot change while a run is in progress")
	ErrInvalidLogPeriod     = errors.New("sim: log period must be positive")
	ErrInvalidRuntime       = errors.New("sim: runtime must be finite and non-negative")
)

// Runtime invariant violations. These indicate an inconsistent model and
// abort the run.
var (
	ErrPopulationUnderflow   = errors.New("sim: population underflow")
	ErrInvalidPropensity     = errors.New("sim: propensity must be finite and non-negative")
	ErrNotAPopulation        = errors.New("sim: state holds no population")
	ErrInvalidMaturationTime = errors.New("sim: maturation time must not be NaN")
)

// UnderflowError reports a Remove that asked for more members than a state holds.
type UnderflowError struct {
	State     string
	Available uint64
	Requested uint64
}

func (e *UnderflowError) Error() string {
	return fmt.Sprintf("%v: state %q holds %d, requested %d", ErrPopulationUnderflow, e.State, e.Available, e.Requested)
}

// Is lets errors.Is match ErrPopulationUnderflow.
func (e *UnderflowError) Is(target error) bool {
	return target == ErrPopulationUnderflow
}

// SimulationError wraps a failure raised while executing an event, with the
// reaction and simulation time it happened at.
type SimulationError struct {
	Time     float64
	Reaction string
	Err      error
}

func (e *SimulationError) Error() string {
	if e.Reaction == "" {
		return fmt.Sprintf("t=%g: %v", e.Time, e.Err)
	}
	return fmt.Sprintf("t=%g: reaction %q: %v", e.Time, e.Reaction, e.Err)
}

func (e *SimulationError) Unwrap() error {
	return e.Err
}
