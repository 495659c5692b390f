package opt

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvalersAgree(t *testing.T) {
	positions := make([][]float64, 50)
	for i := range positions {
		positions[i] = []float64{float64(i), float64(-i) / 2}
	}

	serial, err := SerialEvaler{}.Eval(rastrigin, positions)
	require.NoError(t, err)
	pooled, err := PoolEvaler{MaxGoroutines: 8}.Eval(rastrigin, positions)
	require.NoError(t, err)
	assert.Equal(t, serial, pooled)

	defaultPool, err := PoolEvaler{}.Eval(rastrigin, positions)
	require.NoError(t, err)
	assert.Equal(t, serial, defaultPool)
}

func TestEvalersReportFirstNonFinite(t *testing.T) {
	obj := func(x []float64) float64 {
		if x[0] >= 3 {
			return math.Inf(-1)
		}
		return x[0]
	}
	positions := [][]float64{{0}, {1}, {2}, {3}, {4}}

	for name, ev := range map[string]Evaler{"serial": SerialEvaler{}, "pool": PoolEvaler{MaxGoroutines: 3}} {
		t.Run(name, func(t *testing.T) {
			scores, err := ev.Eval(obj, positions)
			require.ErrorIs(t, err, ErrNonFinite)
			assert.Equal(t, []float64{0, 1, 2}, scores)

			var nf *NonFiniteError
			require.ErrorAs(t, err, &nf)
			assert.Equal(t, []float64{3}, nf.Position)
		})
	}
}
