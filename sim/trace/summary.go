package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalEvents     int
	PropensityCount int
	DelayedCount    int
	FirstClock      float64
	LastClock       float64
	FireCounts      map[string]int // reaction name → times fired
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		FireCounts: make(map[string]int),
	}
	if st == nil || len(st.Events) == 0 {
		return summary
	}

	summary.TotalEvents = len(st.Events)
	summary.FirstClock = st.Events[0].Clock
	summary.LastClock = st.Events[len(st.Events)-1].Clock
	for _, e := range st.Events {
		switch e.Kind {
		case KindPropensity:
			summary.PropensityCount++
		case KindDelayed:
			summary.DelayedCount++
		}
		summary.FireCounts[e.Reaction]++
	}

	return summary
}
