package opt

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSearch(t *testing.T, goal Goal, b Bounds) *search {
	t.Helper()
	s, err := buildOptions([]Option{WithGoal(goal), WithSeed(1)}).begin("test", sphere, b)
	require.NoError(t, err)
	return s
}

func TestColonyDepositPositiveCosts(t *testing.T) {
	aco, err := NewAntColony(DefaultColonyConfig())
	require.NoError(t, err)
	s := newTestSearch(t, Minimize, Uniform(-1, 1, 2))

	pheromone := []float64{1, 1}
	aco.deposit(s, pheromone, []Candidate{{Score: 2}, {Score: 4}})
	assert.Equal(t, []float64{1.75, 1.75}, pheromone)
}

func TestColonyDepositOffsetsNonPositiveCosts(t *testing.T) {
	aco, err := NewAntColony(DefaultColonyConfig())
	require.NoError(t, err)
	s := newTestSearch(t, Minimize, Uniform(-1, 1, 1))

	pheromone := []float64{0}
	aco.deposit(s, pheromone, []Candidate{{Score: 0}, {Score: -3}})
	for _, v := range pheromone {
		assert.False(t, math.IsInf(v, 0) || math.IsNaN(v))
		assert.Greater(t, v, 0.0)
	}
	assert.InEpsilon(t, 1/weightFloor, pheromone[0], 1e-4)
}

func TestColonyDepositMaximizeUsesOrientedCost(t *testing.T) {
	aco, err := NewAntColony(DefaultColonyConfig())
	require.NoError(t, err)
	s := newTestSearch(t, Maximize, Uniform(-1, 1, 1))

	pheromone := []float64{0}
	aco.deposit(s, pheromone, []Candidate{{Score: -2}, {Score: -4}})
	assert.Equal(t, []float64{0.75}, pheromone)
}

func TestColonySelectDimensionExploits(t *testing.T) {
	aco, err := NewAntColony(ColonyConfig{NumAnts: 1, NumIterations: 1, Alpha: 1, Beta: 1, Rho: 0.5, Q0: 1})
	require.NoError(t, err)
	s := newTestSearch(t, Minimize, Uniform(-10, 10, 3))

	// smallest |x| carries the highest heuristic weight
	for i := 0; i < 20; i++ {
		assert.Equal(t, 1, aco.selectDimension(s, []float64{1, 1, 1}, []float64{5, -0.5, 3}))
	}
	// a zero component is floored rather than dividing by zero
	assert.Equal(t, 2, aco.selectDimension(s, []float64{1, 1, 1}, []float64{5, -0.5, 0}))
}

func TestColonySelectDimensionExplores(t *testing.T) {
	aco, err := NewAntColony(ColonyConfig{NumAnts: 1, NumIterations: 1, Alpha: 1, Beta: 1, Rho: 0.5, Q0: 0})
	require.NoError(t, err)
	s := newTestSearch(t, Minimize, Uniform(-10, 10, 2))
	s.rng = rand.New(rand.NewSource(99))

	seen := map[int]int{}
	for i := 0; i < 400; i++ {
		seen[aco.selectDimension(s, []float64{1, 1}, []float64{1, 1})]++
	}
	assert.Greater(t, seen[0], 100)
	assert.Greater(t, seen[1], 100)
}

func TestColonyRefineNeverWorsensAnts(t *testing.T) {
	aco, err := NewAntColony(ColonyConfig{NumAnts: 4, NumIterations: 1, Alpha: 1, Beta: 1, Rho: 0.5, Q0: 0.5, LocalSearchSigma: 2})
	require.NoError(t, err)
	s := newTestSearch(t, Minimize, Uniform(-3, 3, 2))

	ants, err := s.population(4)
	require.NoError(t, err)
	for round := 0; round < 30; round++ {
		before := make([]float64, len(ants))
		for i, a := range ants {
			before[i] = a.Score
		}
		require.NoError(t, aco.refine(s, ants, func(int) int { return round % 2 }))
		for i, a := range ants {
			assert.LessOrEqual(t, a.Score, before[i])
			assert.Equal(t, sphere(a.Position), a.Score)
		}
	}
}

func TestColonyFindsBowlMinimum(t *testing.T) {
	aco, err := NewAntColony(DefaultColonyConfig(), WithSeed(6))
	require.NoError(t, err)
	res, err := aco.Run(sphere, Uniform(-2, 2, 2))
	require.NoError(t, err)
	assert.Less(t, res.Best.Score, 0.01)
	assert.Equal(t, 100, res.Iterations)
}

func TestColonyConfigValidation(t *testing.T) {
	base := DefaultColonyConfig()
	tests := map[string]func(c *ColonyConfig){
		"NumAnts":          func(c *ColonyConfig) { c.NumAnts = 0 },
		"NumIterations":    func(c *ColonyConfig) { c.NumIterations = 0 },
		"Alpha":            func(c *ColonyConfig) { c.Alpha = -1 },
		"Beta":             func(c *ColonyConfig) { c.Beta = math.NaN() },
		"Rho":              func(c *ColonyConfig) { c.Rho = 1 },
		"Q0":               func(c *ColonyConfig) { c.Q0 = 1.5 },
		"LocalSearchSigma": func(c *ColonyConfig) { c.LocalSearchSigma = -0.1 },
	}
	for field, mutate := range tests {
		t.Run(field, func(t *testing.T) {
			cfg := base
			mutate(&cfg)
			_, err := NewAntColony(cfg)
			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, field, cfgErr.Field)
		})
	}
}
