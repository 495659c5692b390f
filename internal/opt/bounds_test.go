package opt

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniformBounds(t *testing.T) {
	b := Uniform(-5, 5, 3)
	require.Equal(t, 3, b.Dim())
	require.NoError(t, b.Validate())
	assert.True(t, b.IsUniform())
	assert.Equal(t, []float64{-5, -5, -5}, b.Lower)
	assert.Equal(t, []float64{5, 5, 5}, b.Upper)
}

func TestPerDimensionBounds(t *testing.T) {
	b, err := PerDimension(map[int]Interval{
		0: {Low: -1, High: 1},
		1: {Low: 0, High: 10},
	})
	require.NoError(t, err)
	assert.Equal(t, []float64{-1, 0}, b.Lower)
	assert.Equal(t, []float64{1, 10}, b.Upper)
	assert.False(t, b.IsUniform())
}

func TestPerDimensionMissingIndex(t *testing.T) {
	_, err := PerDimension(map[int]Interval{0: {0, 1}, 2: {0, 1}})
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestBoundsValidate(t *testing.T) {
	tests := []struct {
		name string
		b    Bounds
	}{
		{"empty", Bounds{}},
		{"low above high", Uniform(1, -1, 2)},
		{"length mismatch", Bounds{Lower: []float64{0, 0}, Upper: []float64{1}}},
		{"nan", Bounds{Lower: []float64{math.NaN()}, Upper: []float64{1}}},
		{"inf", Bounds{Lower: []float64{0}, Upper: []float64{math.Inf(1)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.b.Validate()
			require.Error(t, err)
			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, "Bounds", cfgErr.Field)
		})
	}
}

func TestDegenerateIntervalIsValid(t *testing.T) {
	require.NoError(t, Uniform(2, 2, 1).Validate())
}

func TestClip(t *testing.T) {
	b, err := PerDimension(map[int]Interval{0: {-1, 1}, 1: {0, 10}, 2: {-3, 3}})
	require.NoError(t, err)

	x := []float64{-7, 12, math.NaN()}
	got := b.Clip(x)
	assert.Equal(t, []float64{-1, 10, 0}, got)
	assert.Equal(t, got, x, "Clip works in place")
	assert.True(t, b.Contains(got))
}

func TestSampleStaysInside(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	b, err := PerDimension(map[int]Interval{0: {-1, 1}, 1: {100, 101}})
	require.NoError(t, err)
	for i := 0; i < 1000; i++ {
		require.True(t, b.Contains(b.Sample(rng)))
	}
}

func TestContainsDimensionMismatch(t *testing.T) {
	assert.False(t, Uniform(0, 1, 2).Contains([]float64{0.5}))
}
