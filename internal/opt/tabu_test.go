package opt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTabuMemoryFIFO(t *testing.T) {
	m := newTabuMemory(3)
	for i := 1; i <= 7; i++ {
		m.push([]float64{float64(i), -float64(i)})
		require.LessOrEqual(t, m.len(), 3)
	}

	assert.Equal(t, [][]float64{{5, -5}, {6, -6}, {7, -7}}, m.positions())
	assert.True(t, m.contains([]float64{6, -6}))
	assert.False(t, m.contains([]float64{4, -4}), "oldest entries are evicted")
	assert.False(t, m.contains([]float64{6, 6}))
}

func TestTabuMemoryPartiallyFilled(t *testing.T) {
	m := newTabuMemory(4)
	m.push([]float64{1})
	m.push([]float64{2})
	assert.Equal(t, 2, m.len())
	assert.Equal(t, [][]float64{{1}, {2}}, m.positions())
}

func TestTabuMemoryCopiesPositions(t *testing.T) {
	m := newTabuMemory(2)
	x := []float64{1, 2}
	m.push(x)
	x[0] = 5
	assert.True(t, m.contains([]float64{1, 2}))
}

func TestTabuStopsWithoutAdmissibleNeighbor(t *testing.T) {
	// A point interval only has one position, and it is tabu from the start.
	tabu, err := NewTabuSearch(TabuConfig{TabuListSize: 3, MaxIterations: 50, NeighborhoodSize: 5, StepSize: 1})
	require.NoError(t, err)

	res, err := tabu.Run(sphere, Uniform(2, 2, 2))
	require.NoError(t, err)
	assert.Equal(t, StopNoAdmissible, res.Stop)
	assert.Equal(t, 0, res.Iterations)
	assert.Equal(t, []float64{2, 2}, res.Best.Position)
	assert.Equal(t, 8.0, res.Best.Score)
	assert.Equal(t, 1, res.Evaluations)
}

func TestTabuNeighborhoods(t *testing.T) {
	for _, n := range []Neighborhood{NeighborhoodWindow, NeighborhoodStep, NeighborhoodResample} {
		t.Run(string(n), func(t *testing.T) {
			tabu, err := NewTabuSearch(TabuConfig{TabuListSize: 10, MaxIterations: 100, NeighborhoodSize: 10, StepSize: 0.5, Neighborhood: n}, WithSeed(8))
			require.NoError(t, err)
			res, err := tabu.Run(sphere, Uniform(-3, 3, 2))
			require.NoError(t, err)
			assert.Equal(t, StopBudget, res.Stop)
			assert.Equal(t, 100, res.Iterations)
			assert.Equal(t, 1+100*10, res.Evaluations)
			assert.Less(t, res.Best.Score, 0.5)
		})
	}
}

func TestTabuStartIsClipped(t *testing.T) {
	var first []float64
	probe := func(x []float64) float64 {
		if first == nil {
			first = append([]float64(nil), x...)
		}
		return sphere(x)
	}
	tabu, err := NewTabuSearch(TabuConfig{TabuListSize: 2, MaxIterations: 1, NeighborhoodSize: 1, StepSize: 0.1}, WithStart([]float64{10, -0.5}))
	require.NoError(t, err)
	_, err = tabu.Run(probe, Uniform(-1, 1, 2))
	require.NoError(t, err)
	assert.Equal(t, []float64{1, -0.5}, first)
}

func TestTabuStartDimensionMismatch(t *testing.T) {
	tabu, err := NewTabuSearch(DefaultTabuConfig(), WithStart([]float64{1}))
	require.NoError(t, err)
	_, err = tabu.Run(sphere, Uniform(-1, 1, 2))
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestTabuConfigValidation(t *testing.T) {
	base := DefaultTabuConfig()
	tests := map[string]func(c *TabuConfig){
		"TabuListSize":     func(c *TabuConfig) { c.TabuListSize = 0 },
		"MaxIterations":    func(c *TabuConfig) { c.MaxIterations = -1 },
		"NeighborhoodSize": func(c *TabuConfig) { c.NeighborhoodSize = 0 },
		"StepSize":         func(c *TabuConfig) { c.StepSize = 0 },
		"Neighborhood":     func(c *TabuConfig) { c.Neighborhood = "spiral" },
	}
	for field, mutate := range tests {
		t.Run(field, func(t *testing.T) {
			cfg := base
			mutate(&cfg)
			_, err := NewTabuSearch(cfg)
			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, field, cfgErr.Field)
		})
	}
}
