package sim

import (
	"math/rand"
)

// === SimulationKey ===

// SimulationKey uniquely identifies a reproducible simulation run.
// Two simulations with the same SimulationKey and identical model
// MUST produce bit-for-bit identical event sequences and logged tables.
type SimulationKey int64

// NewSimulationKey creates a SimulationKey from a seed value.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

// === RandomSource ===

// RandomSource is the single generator shared by every draw in a run.
//
// Draw order per scheduler iteration is fixed: waiting time, then selection
// fraction, then any index draws made by Modify while firing. Changing that
// order changes every seeded result.
//
// Thread-safety: NOT thread-safe. Must be called from single goroutine.
type RandomSource struct {
	key SimulationKey
	rng *rand.Rand
}

// NewRandomSource creates a RandomSource seeded from key.
func NewRandomSource(key SimulationKey) *RandomSource {
	return &RandomSource{
		key: key,
		rng: rand.New(rand.NewSource(int64(key))),
	}
}

// Reset reseeds the generator so a new run replays the same stream.
func (r *RandomSource) Reset() {
	r.rng = rand.New(rand.NewSource(int64(r.key)))
}

// Key returns the SimulationKey used to seed this source.
func (r *RandomSource) Key() SimulationKey {
	return r.key
}

// Float64 returns a uniform value in [0, 1).
func (r *RandomSource) Float64() float64 {
	return r.rng.Float64()
}

// OpenUniform returns a uniform value in (0, 1], safe to pass to math.Log.
func (r *RandomSource) OpenUniform() float64 {
	return 1 - r.rng.Float64()
}

// Intn returns a uniform integer in [0, n). Panics if n <= 0.
func (r *RandomSource) Intn(n int) int {
	return r.rng.Intn(n)
}
