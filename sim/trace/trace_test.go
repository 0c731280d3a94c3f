package trace

import (
	"testing"
)

func TestSimulationTrace_RecordEvent_AppendsRecord(t *testing.T) {
	// GIVEN a trace configured for events
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelEvents})

	// WHEN an event record is recorded
	st.RecordEvent(EventRecord{Clock: 1.5, Reaction: "decay", Kind: KindPropensity})

	// THEN the trace contains one record with correct data
	if len(st.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(st.Events))
	}
	if st.Events[0].Reaction != "decay" {
		t.Errorf("expected reaction decay, got %s", st.Events[0].Reaction)
	}
	if st.Events[0].Kind != KindPropensity {
		t.Errorf("expected kind propensity, got %s", st.Events[0].Kind)
	}
}

func TestSimulationTrace_MultipleRecords_PreservesOrder(t *testing.T) {
	// GIVEN a trace
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelEvents})

	// WHEN multiple records are added
	st.RecordEvent(EventRecord{Clock: 1, Reaction: "a", Kind: KindPropensity})
	st.RecordEvent(EventRecord{Clock: 2, Reaction: "b", Kind: KindDelayed})
	st.RecordEvent(EventRecord{Clock: 3, Reaction: "c", Kind: KindPropensity})

	// THEN order is preserved
	if len(st.Events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(st.Events))
	}
	for i, want := range []string{"a", "b", "c"} {
		if st.Events[i].Reaction != want {
			t.Errorf("event %d: got %s, want %s", i, st.Events[i].Reaction, want)
		}
	}
}

func TestSimulationTrace_MaxEvents_DropsOverflow(t *testing.T) {
	// GIVEN a trace capped at 2 records
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelEvents, MaxEvents: 2})

	// WHEN 5 records are added
	for i := 0; i < 5; i++ {
		st.RecordEvent(EventRecord{Clock: float64(i), Reaction: "r", Kind: KindPropensity})
	}

	// THEN only the first 2 are stored and 3 are counted as dropped
	if len(st.Events) != 2 {
		t.Errorf("expected 2 stored events, got %d", len(st.Events))
	}
	if st.Dropped != 3 {
		t.Errorf("expected 3 dropped, got %d", st.Dropped)
	}
	if st.Events[1].Clock != 1 {
		t.Errorf("expected second stored clock 1, got %g", st.Events[1].Clock)
	}
}

func TestSimulationTrace_Reset_ClearsRecords(t *testing.T) {
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelEvents, MaxEvents: 1})
	st.RecordEvent(EventRecord{Clock: 1, Reaction: "r"})
	st.RecordEvent(EventRecord{Clock: 2, Reaction: "r"})

	st.Reset()

	if len(st.Events) != 0 || st.Dropped != 0 {
		t.Errorf("expected empty trace after reset, got %d events, %d dropped", len(st.Events), st.Dropped)
	}
	if st.Config.MaxEvents != 1 {
		t.Error("reset must keep the configuration")
	}
}

func TestIsValidTraceLevel_ValidLevels(t *testing.T) {
	tests := []struct {
		level string
		valid bool
	}{
		{"none", true},
		{"events", true},
		{"", true},
		{"decisions", false},
		{"EVENTS", false},
	}
	for _, tt := range tests {
		if got := IsValidTraceLevel(tt.level); got != tt.valid {
			t.Errorf("IsValidTraceLevel(%q) = %v, want %v", tt.level, got, tt.valid)
		}
	}
}
