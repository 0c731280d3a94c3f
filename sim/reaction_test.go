package sim

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFallingFactorial(t *testing.T) {
	tests := []struct {
		n, k uint64
		want float64
	}{
		{5, 0, 1},
		{5, 1, 5},
		{5, 2, 20},
		{5, 3, 60},
		{2, 3, 0},
		{0, 1, 0},
		{3, 3, 6},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, fallingFactorial(tt.n, tt.k), "n=%d k=%d", tt.n, tt.k)
	}
}

func TestPropensityReaction_ComputeRate_MassAction(t *testing.T) {
	// GIVEN 2A + E(catalyst) -> C with k = 0.5, A = 4, E = 3
	s := NewSimulation(NewSimulationKey(1))
	_, err := s.CreateSimpleState("A", 4)
	require.NoError(t, err)
	_, err = s.CreateSimpleState("E", 3)
	require.NoError(t, err)
	_, err = s.CreateSimpleState("C", 0)
	require.NoError(t, err)
	r, err := s.CreatePropensityReaction("dimerize", ConstantRate(0.5))
	require.NoError(t, err)
	require.NoError(t, s.AddReactant(r, "A", 2))
	require.NoError(t, s.AddModifier(r, "E", 1))
	require.NoError(t, s.AddProduct(r, "C", 1))
	require.NoError(t, s.initialize())

	// WHEN the propensity is computed
	a, err := r.ComputeRate(s.Context())

	// THEN it is k * 4*3 * 3
	require.NoError(t, err)
	assert.Equal(t, 0.5*12*3, a)
}

func TestPropensityReaction_ComputeRate_TimeDependentRate(t *testing.T) {
	s := NewSimulation(NewSimulationKey(1))
	r, err := s.CreatePropensityReaction("source", RateFunc(func(ctx *Context) (float64, error) {
		return 2 * ctx.Time, nil
	}))
	require.NoError(t, err)
	s.setClock(3)

	a, err := r.ComputeRate(s.Context())
	require.NoError(t, err)
	assert.Equal(t, 6.0, a)
}

func TestPropensityReaction_ComputeRate_RejectsNegativeAndNaN(t *testing.T) {
	s := NewSimulation(NewSimulationKey(1))
	neg, err := s.CreatePropensityReaction("neg", ConstantRate(-1))
	require.NoError(t, err)
	nan, err := s.CreatePropensityReaction("nan", ConstantRate(math.NaN()))
	require.NoError(t, err)

	_, err = neg.ComputeRate(s.Context())
	assert.True(t, errors.Is(err, ErrInvalidPropensity))
	_, err = nan.ComputeRate(s.Context())
	assert.True(t, errors.Is(err, ErrInvalidPropensity))
}

func TestPropensityReaction_Fire_ConservesStoichiometry(t *testing.T) {
	// GIVEN A + B -> 2C with a catalyst E
	s := NewSimulation(NewSimulationKey(1))
	for name, n := range map[string]uint64{"A": 5, "B": 7, "C": 0, "E": 1} {
		_, err := s.CreateSimpleState(name, n)
		require.NoError(t, err)
	}
	r, err := s.CreatePropensityReaction("bind", ConstantRate(1))
	require.NoError(t, err)
	require.NoError(t, s.AddReactant(r, "A", 1))
	require.NoError(t, s.AddReactant(r, "B", 1))
	require.NoError(t, s.AddModifier(r, "E", 1))
	require.NoError(t, s.AddProduct(r, "C", 2))
	require.NoError(t, s.initialize())
	ctx := s.Context()

	// WHEN it fires three times
	for i := 0; i < 3; i++ {
		require.NoError(t, r.Fire(ctx))
	}

	// THEN A+C/2 and B+C/2 are conserved and the catalyst is untouched
	a, _ := s.GetState("A")
	b, _ := s.GetState("B")
	c, _ := s.GetState("C")
	e, _ := s.GetState("E")
	assert.Equal(t, uint64(2), a.Num())
	assert.Equal(t, uint64(4), b.Num())
	assert.Equal(t, uint64(6), c.Num())
	assert.Equal(t, uint64(1), e.Num())
}

func TestPropensityReaction_Fire_TransformeeModifiesInPlace(t *testing.T) {
	// GIVEN an enzyme pool of 3 and a reaction that ages one enzyme per firing
	s := NewSimulation(NewSimulationKey(3))
	enzymes, err := CreateComposedState[testMolecule](s, "Enz", 3, &seqFactory{})
	require.NoError(t, err)
	_, err = s.CreateSimpleState("P", 0)
	require.NoError(t, err)
	r, err := s.CreatePropensityReaction("age", ConstantRate(1))
	require.NoError(t, err)
	require.NoError(t, s.AddTransformee(r, "Enz", 1, 1))
	require.NoError(t, s.AddProduct(r, "P", 1))
	require.NoError(t, s.initialize())

	// WHEN it fires twice
	require.NoError(t, r.Fire(s.Context()))
	require.NoError(t, r.Fire(s.Context()))

	// THEN the pool size is unchanged and two generations were added in place
	assert.Equal(t, uint64(3), enzymes.Num())
	total := 0
	for _, m := range enzymes.Members() {
		total += m.Gen
	}
	assert.Equal(t, 2, total)
	assert.Equal(t, []int{0, 1, 2}, seqs(enzymes.Members()))
}

func TestPropensityReaction_Fire_TransformeeConsumesDifference(t *testing.T) {
	s := NewSimulation(NewSimulationKey(3))
	enzymes, err := CreateComposedState[testMolecule](s, "Enz", 4, &seqFactory{})
	require.NoError(t, err)
	r, err := s.CreatePropensityReaction("merge", ConstantRate(1))
	require.NoError(t, err)
	require.NoError(t, s.AddTransformee(r, "Enz", 2, 1))
	require.NoError(t, s.initialize())

	a, err := r.ComputeRate(s.Context())
	require.NoError(t, err)
	assert.Equal(t, 12.0, a)

	require.NoError(t, r.Fire(s.Context()))
	assert.Equal(t, uint64(3), enzymes.Num())
}

func TestPropensityReaction_Fire_TransformeeModifiesDistinctMembers(t *testing.T) {
	for seed := int64(0); seed < 50; seed++ {
		// GIVEN a pair of molecules transformed together, 2 consumed and 2 produced
		s := NewSimulation(NewSimulationKey(seed))
		pair, err := CreateComposedState[testMolecule](s, "Pair", 2, &seqFactory{})
		require.NoError(t, err)
		r, err := s.CreatePropensityReaction("bind", ConstantRate(1))
		require.NoError(t, err)
		require.NoError(t, s.AddTransformee(r, "Pair", 2, 2))
		require.NoError(t, s.initialize())

		// WHEN it fires once
		require.NoError(t, r.Fire(s.Context()))

		// THEN both members advanced exactly one generation
		require.Equal(t, uint64(2), pair.Num())
		for _, m := range pair.Members() {
			assert.Equal(t, 1, m.Gen, "seed %d member %d", seed, m.Seq)
		}
		assert.Equal(t, []int{0, 1}, seqs(pair.Members()))
	}
}

func TestPropensityReaction_Fire_Underflow(t *testing.T) {
	s, _ := newDecayModel(t, 1, 1, 0)
	r, _ := s.GetPropensityReaction("decay")
	require.NoError(t, s.initialize())

	err := r.Fire(s.Context())
	assert.True(t, errors.Is(err, ErrPopulationUnderflow))
}

func TestDelayedReaction_NextReactionTime_FollowsOldestMolecule(t *testing.T) {
	// GIVEN a delayed reaction maturing 5 after creation
	s := NewSimulation(NewSimulationKey(1))
	infected, err := CreateComposedState[testMolecule](s, "I", 0, &seqFactory{})
	require.NoError(t, err)
	var fired []int
	r, err := CreateDelayedReaction(s, "recover", "I",
		func(m testMolecule) float64 { return m.Created + 5 },
		func(m testMolecule, _ *Context) error {
			fired = append(fired, m.Seq)
			return nil
		})
	require.NoError(t, err)
	require.NoError(t, s.initialize())
	ctx := s.Context()

	// THEN an empty state never fires
	assert.True(t, math.IsInf(r.NextReactionTime(ctx), 1))

	// WHEN molecules are added at t=1 and t=3
	s.setClock(1)
	require.NoError(t, infected.Add(ctx, 1))
	s.setClock(3)
	require.NoError(t, infected.Add(ctx, 1))

	// THEN the earliest addition decides, and firing pops it
	assert.Equal(t, 6.0, r.NextReactionTime(ctx))
	require.NoError(t, r.Fire(ctx))
	assert.Equal(t, []int{0}, fired)
	assert.Equal(t, 8.0, r.NextReactionTime(ctx))
	assert.Equal(t, uint64(1), infected.Num())
}
