// Package trace provides per-event recording for simulation runs.
// This package has no dependencies on sim/; it stores plain data types.
package trace

// EventKind says which scheduler phase produced an event.
type EventKind string

const (
	// KindPropensity marks a Gillespie-selected propensity reaction.
	KindPropensity EventKind = "propensity"
	// KindDelayed marks a delayed reaction whose molecule matured.
	KindDelayed EventKind = "delayed"
)

// EventRecord captures a single fired event.
type EventRecord struct {
	Clock    float64
	Reaction string
	Kind     EventKind
}
