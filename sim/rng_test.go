package sim

import (
	"math"
	"testing"
)

// === SimulationKey Tests ===

func TestSimulationKey_Creation(t *testing.T) {
	tests := []struct {
		name string
		seed int64
	}{
		{"positive seed", 42},
		{"zero seed", 0},
		{"negative seed", -1},
		{"max int64", math.MaxInt64},
		{"min int64", math.MinInt64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := NewSimulationKey(tt.seed)
			if int64(key) != tt.seed {
				t.Errorf("NewSimulationKey(%d) = %d, want %d", tt.seed, key, tt.seed)
			}
		})
	}
}

// === RandomSource Tests ===

func TestRandomSource_SameKey_SameSequence(t *testing.T) {
	r1 := NewRandomSource(NewSimulationKey(42))
	r2 := NewRandomSource(NewSimulationKey(42))

	for i := 0; i < 10; i++ {
		if a, b := r1.Float64(), r2.Float64(); a != b {
			t.Fatalf("draw %d: got %v and %v, want identical", i, a, b)
		}
	}
}

func TestRandomSource_Reset_ReplaysStream(t *testing.T) {
	r := NewRandomSource(NewSimulationKey(7))
	first := []float64{r.Float64(), r.OpenUniform(), float64(r.Intn(100))}

	r.Reset()
	again := []float64{r.Float64(), r.OpenUniform(), float64(r.Intn(100))}

	for i := range first {
		if first[i] != again[i] {
			t.Errorf("draw %d after reset: got %v, want %v", i, again[i], first[i])
		}
	}
	if r.Key() != NewSimulationKey(7) {
		t.Errorf("Key() = %d, want 7", r.Key())
	}
}

func TestRandomSource_OpenUniform_NeverZero(t *testing.T) {
	r := NewRandomSource(NewSimulationKey(1))
	for i := 0; i < 100000; i++ {
		u := r.OpenUniform()
		if u <= 0 || u > 1 {
			t.Fatalf("OpenUniform() = %v, want (0, 1]", u)
		}
		if math.IsInf(math.Log(1/u), 0) {
			t.Fatalf("log(1/%v) is infinite", u)
		}
	}
}

func TestRandomSource_Intn_Range(t *testing.T) {
	r := NewRandomSource(NewSimulationKey(3))
	seen := make(map[int]bool)
	for i := 0; i < 1000; i++ {
		v := r.Intn(5)
		if v < 0 || v >= 5 {
			t.Fatalf("Intn(5) = %d", v)
		}
		seen[v] = true
	}
	if len(seen) != 5 {
		t.Errorf("expected all 5 values, saw %d", len(seen))
	}
}
