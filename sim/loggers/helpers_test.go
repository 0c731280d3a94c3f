package loggers

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/reactsim/reactsim/sim"
)

// newDecay builds A -> B with rate k, plus a choice state that must never be
// sampled.
func newDecay(t *testing.T, folder string, a0 uint64, k float64) *sim.Simulation {
	t.Helper()
	s := sim.NewSimulation(sim.NewSimulationKey(11))
	_, err := s.CreateSimpleState("A", a0)
	require.NoError(t, err)
	_, err = s.CreateSimpleState("B", 0)
	require.NoError(t, err)
	choice, err := s.CreateChoiceState("route", sim.ConditionFunc(func(*sim.Context) (bool, error) { return true, nil }))
	require.NoError(t, err)
	require.NoError(t, s.AddChoiceProduct(choice, true, "B", 1))
	if k > 0 {
		r, err := s.CreatePropensityReaction("decay", sim.ConstantRate(k))
		require.NoError(t, err)
		require.NoError(t, s.AddReactant(r, "A", 1))
		require.NoError(t, s.AddProduct(r, "B", 1))
	}
	require.NoError(t, s.SetBaseOutputFolder(folder))
	return s
}
