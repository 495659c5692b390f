package bench

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/metaopt/internal/opt"
)

func TestOptimaEvaluateToTheirScore(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			fn, err := New(name, 0)
			require.NoError(t, err)

			b := fn.Bounds()
			require.NoError(t, b.Validate())

			optima := fn.Optima()
			require.NotEmpty(t, optima)
			for _, o := range optima {
				require.Len(t, o.Position, b.Dim())
				assert.True(t, b.Contains(o.Position), "optimum %v outside bounds", o.Position)
				assert.InDelta(t, o.Score, fn.Eval(o.Position), 1e-3)
			}
		})
	}
}

func TestNewDimensions(t *testing.T) {
	fn, err := New("Rosenbrock", 5)
	require.NoError(t, err)
	assert.Equal(t, 5, fn.Bounds().Dim())
	assert.Equal(t, "Rosenbrock_5D", fn.Name())

	fn, err = New("griewank", 0)
	require.NoError(t, err)
	assert.Equal(t, 10, fn.Bounds().Dim())

	_, err = New("holdertable", 3)
	assert.Error(t, err)

	fn, err = New("holdertable", 2)
	require.NoError(t, err)
	assert.Equal(t, "HolderTable", fn.Name())

	_, err = New("sphere", -1)
	assert.Error(t, err)
}

func TestNewUnknown(t *testing.T) {
	_, err := New("eggholder", 2)
	require.ErrorIs(t, err, ErrUnknownFunc)
}

func TestMichalewiczOptimaOnlyIn2D(t *testing.T) {
	assert.Empty(t, Michalewicz{NDim: 5}.Optima())
	assert.False(t, Solved(Michalewicz{NDim: 5}, opt.Candidate{Score: -100}, 0.01))
}

func TestSolved(t *testing.T) {
	fn := HolderTable{}
	assert.True(t, Solved(fn, opt.Candidate{Score: -19.2}, 0.01))
	assert.False(t, Solved(fn, opt.Candidate{Score: -15}, 0.01))

	// zero optima fall back to the absolute floor
	assert.True(t, Solved(Sphere{NDim: 2}, opt.Candidate{Score: 0.0005}, 0.01))
	assert.False(t, Solved(Sphere{NDim: 2}, opt.Candidate{Score: 0.01}, 0.01))
}

func TestSwarmSolvesSphere(t *testing.T) {
	fn, err := New("sphere", 3)
	require.NoError(t, err)

	pso, err := opt.NewParticleSwarm(opt.DefaultSwarmConfig(), opt.WithSeed(3))
	require.NoError(t, err)
	res, err := pso.Run(fn.Eval, fn.Bounds())
	require.NoError(t, err)
	assert.True(t, Solved(fn, res.Best, 0.01), "best %v", res.Best.Score)
}
