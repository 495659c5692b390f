package opt

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rastrigin is multimodal enough to exercise every acceptance path.
func rastrigin(x []float64) float64 {
	sum := 10 * float64(len(x))
	for _, v := range x {
		sum += v*v - 10*math.Cos(2*math.Pi*v)
	}
	return sum
}

type factory func(opts ...Option) (Optimizer, error)

// strategies builds every core optimizer with small budgets.
func strategies() map[string]factory {
	return map[string]factory{
		"tabu": func(opts ...Option) (Optimizer, error) {
			return NewTabuSearch(TabuConfig{TabuListSize: 5, MaxIterations: 40, NeighborhoodSize: 8, StepSize: 0.5}, opts...)
		},
		"anneal": func(opts ...Option) (Optimizer, error) {
			return NewSimulatedAnnealing(AnnealConfig{MaxIterations: 200, InitialTemperature: 10, FinalTemperature: 0.01, StepSize: 0.5, CoolingFactor: 0.95}, opts...)
		},
		"swarm": func(opts ...Option) (Optimizer, error) {
			return NewParticleSwarm(SwarmConfig{NumParticles: 8, MaxIterations: 30, InertiaWeight: 0.7, CognitiveWeight: 1.4, SocialWeight: 1.4}, opts...)
		},
		"colony": func(opts ...Option) (Optimizer, error) {
			return NewAntColony(ColonyConfig{NumAnts: 5, NumIterations: 20, Alpha: 1, Beta: 2, Rho: 0.1, Q0: 0.5}, opts...)
		},
		"bees": func(opts ...Option) (Optimizer, error) {
			return NewBeesAlgorithm(BeesConfig{NumEmployedBees: 8, NumOnlookerBees: 4, MaxIterations: 30}, opts...)
		},
		"foraging": func(opts ...Option) (Optimizer, error) {
			return NewBacterialForaging(ForagingConfig{NumBacteria: 8, NumIterations: 30, ChemotacticStepSize: 0.1, SwimLength: 1, TumbleRate: 0.2}, opts...)
		},
	}
}

func testBounds(t *testing.T) Bounds {
	t.Helper()
	b, err := PerDimension(map[int]Interval{0: {-5.12, 5.12}, 1: {-1, 3}, 2: {0.5, 2}})
	require.NoError(t, err)
	return b
}

func TestEveryProbeStaysInBounds(t *testing.T) {
	b := testBounds(t)
	for name, build := range strategies() {
		t.Run(name, func(t *testing.T) {
			var outside [][]float64
			probe := func(x []float64) float64 {
				if !b.Contains(x) {
					outside = append(outside, append([]float64(nil), x...))
				}
				return rastrigin(x)
			}

			o, err := build(WithSeed(5))
			require.NoError(t, err)
			res, err := o.Run(probe, b)
			require.NoError(t, err)

			assert.Empty(t, outside, "objective evaluated outside the bounds")
			assert.True(t, b.Contains(res.Best.Position))
		})
	}
}

func TestBestNeverWorsens(t *testing.T) {
	for _, goal := range []Goal{Minimize, Maximize} {
		for name, build := range strategies() {
			t.Run(name+"/"+goal.String(), func(t *testing.T) {
				var history []float64
				o, err := build(WithGoal(goal), WithSeed(9), WithObserver(func(p Progress) error {
					history = append(history, p.Best.Score)
					return nil
				}))
				require.NoError(t, err)

				res, err := o.Run(rastrigin, testBounds(t))
				require.NoError(t, err)
				require.NotEmpty(t, history)

				for i := 1; i < len(history); i++ {
					require.False(t, goal.Better(history[i-1], history[i]),
						"best worsened at iteration %d: %v -> %v", i+1, history[i-1], history[i])
				}
				assert.Equal(t, history[len(history)-1], res.Best.Score)
				assert.Equal(t, len(history), res.Iterations)
			})
		}
	}
}

func TestScoreMatchesPosition(t *testing.T) {
	for name, build := range strategies() {
		t.Run(name, func(t *testing.T) {
			o, err := build(WithSeed(2))
			require.NoError(t, err)
			res, err := o.Run(rastrigin, testBounds(t))
			require.NoError(t, err)
			assert.Equal(t, rastrigin(res.Best.Position), res.Best.Score)
		})
	}
}

func TestDeterministicWithSeed(t *testing.T) {
	for name, build := range strategies() {
		t.Run(name, func(t *testing.T) {
			run := func() Result {
				o, err := build(WithSeed(42))
				require.NoError(t, err)
				res, err := o.Run(rastrigin, testBounds(t))
				require.NoError(t, err)
				return res
			}
			assert.Equal(t, run(), run())
		})
	}
}

func TestPoolEvalerMatchesSerial(t *testing.T) {
	for name, build := range strategies() {
		t.Run(name, func(t *testing.T) {
			serial, err := build(WithSeed(13), WithEvaler(SerialEvaler{}))
			require.NoError(t, err)
			pooled, err := build(WithSeed(13), WithEvaler(PoolEvaler{MaxGoroutines: 4}))
			require.NoError(t, err)

			a, err := serial.Run(rastrigin, testBounds(t))
			require.NoError(t, err)
			b, err := pooled.Run(rastrigin, testBounds(t))
			require.NoError(t, err)
			assert.Equal(t, a, b)
		})
	}
}

func TestNonFiniteObjectiveIsFatal(t *testing.T) {
	for name, build := range strategies() {
		t.Run(name, func(t *testing.T) {
			calls := 0
			poisoned := func(x []float64) float64 {
				calls++
				if calls > 5 {
					return math.NaN()
				}
				return sphere(x)
			}
			o, err := build(WithSeed(1))
			require.NoError(t, err)
			res, err := o.Run(poisoned, Uniform(-1, 1, 2))
			require.ErrorIs(t, err, ErrNonFinite)
			assert.Equal(t, StopError, res.Stop)
			assert.Equal(t, 5, res.Evaluations)
		})
	}
}

func TestInvalidBoundsRejectedBeforeSearch(t *testing.T) {
	for name, build := range strategies() {
		t.Run(name, func(t *testing.T) {
			calls := 0
			o, err := build()
			require.NoError(t, err)
			_, err = o.Run(func(x []float64) float64 { calls++; return 0 }, Uniform(1, -1, 2))
			require.ErrorIs(t, err, ErrInvalidConfig)
			assert.Zero(t, calls)
		})
	}
}

func TestObserverStop(t *testing.T) {
	for name, build := range strategies() {
		t.Run(name, func(t *testing.T) {
			o, err := build(WithObserver(func(p Progress) error {
				if p.Iteration == 3 {
					return ErrStop
				}
				return nil
			}))
			require.NoError(t, err)
			res, err := o.Run(rastrigin, testBounds(t))
			require.NoError(t, err)
			assert.Equal(t, StopObserver, res.Stop)
			assert.Equal(t, 3, res.Iterations)
		})
	}
}

func TestObserverErrorAborts(t *testing.T) {
	boom := errors.New("boom")
	for name, build := range strategies() {
		t.Run(name, func(t *testing.T) {
			o, err := build(WithObserver(func(Progress) error { return boom }))
			require.NoError(t, err)
			res, err := o.Run(rastrigin, testBounds(t))
			require.ErrorIs(t, err, boom)
			assert.Equal(t, 1, res.Iterations)
			assert.True(t, testBounds(t).Contains(res.Best.Position))
		})
	}
}

func TestEvaluationsCounted(t *testing.T) {
	for name, build := range strategies() {
		t.Run(name, func(t *testing.T) {
			calls := 0
			o, err := build(WithSeed(3))
			require.NoError(t, err)
			res, err := o.Run(func(x []float64) float64 { calls++; return sphere(x) }, testBounds(t))
			require.NoError(t, err)
			assert.Equal(t, calls, res.Evaluations)
		})
	}
}

func TestGoalDirection(t *testing.T) {
	hill := func(x []float64) float64 { return -sphere(x) }
	for name, build := range strategies() {
		t.Run(name, func(t *testing.T) {
			up, err := build(WithSeed(4), WithGoal(Maximize))
			require.NoError(t, err)
			down, err := build(WithSeed(4), WithGoal(Minimize))
			require.NoError(t, err)

			high, err := up.Run(hill, Uniform(-5, 5, 2))
			require.NoError(t, err)
			low, err := down.Run(hill, Uniform(-5, 5, 2))
			require.NoError(t, err)
			assert.Greater(t, high.Best.Score, low.Best.Score)
		})
	}
}
