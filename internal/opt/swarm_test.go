package opt

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSwarmSingleParticleSettles(t *testing.T) {
	// With no cognitive or social pull the particle coasts on inertia alone:
	// each step is the previous one scaled by the inertia weight, so the
	// particle comes to rest and the best never worsens.
	var probes [][]float64
	probe := func(x []float64) float64 {
		probes = append(probes, append([]float64(nil), x...))
		return sphere(x)
	}

	pso, err := NewParticleSwarm(SwarmConfig{
		NumParticles:  1,
		MaxIterations: 80,
		InertiaWeight: 0.7,
	}, WithSeed(17))
	require.NoError(t, err)

	res, err := pso.Run(probe, Uniform(-5, 5, 1))
	require.NoError(t, err)
	require.Len(t, probes, 81)

	for k := 1; k < len(probes); k++ {
		step := math.Abs(probes[k][0] - probes[k-1][0])
		assert.LessOrEqual(t, step, math.Pow(0.7, float64(k))+1e-12, "step %d", k)
	}
	assert.Less(t, math.Abs(probes[80][0]-probes[79][0]), 1e-10)
	assert.LessOrEqual(t, res.Best.Score, sphere(probes[0]))
}

func TestSwarmConvergesOnBowl(t *testing.T) {
	pso, err := NewParticleSwarm(SwarmConfig{
		NumParticles:    20,
		MaxIterations:   200,
		InertiaWeight:   0.7,
		CognitiveWeight: 1.4,
		SocialWeight:    1.4,
	}, WithSeed(1))
	require.NoError(t, err)

	res, err := pso.Run(sphere, Uniform(-5, 5, 1))
	require.NoError(t, err)
	assert.Less(t, math.Abs(res.Best.Position[0]), 1e-3)
}

func TestSwarmSteer(t *testing.T) {
	pso, err := NewParticleSwarm(SwarmConfig{NumParticles: 1, MaxIterations: 1, InertiaWeight: 0.5, CognitiveWeight: 2, SocialWeight: 4})
	require.NoError(t, err)

	pt := &particle{
		Candidate: Candidate{Position: []float64{1, 1}},
		vel:       []float64{2, -2},
		personal:  Candidate{Position: []float64{2, 0}},
	}
	pso.steer(pt, []float64{0, 3}, 0.5, 0.25)

	// 0.5*v + 2*0.5*(pbest-x) + 4*0.25*(gbest-x)
	assert.Equal(t, []float64{1 + 1 - 1, -1 - 1 + 2}, pt.vel)
}

func TestSwarmDefaultsInitialVelocity(t *testing.T) {
	pso, err := NewParticleSwarm(SwarmConfig{NumParticles: 2, MaxIterations: 1})
	require.NoError(t, err)
	assert.Equal(t, 1.0, pso.cfg.InitialVelocity)
}

func TestSwarmConfigValidation(t *testing.T) {
	base := DefaultSwarmConfig()
	tests := map[string]func(c *SwarmConfig){
		"NumParticles":    func(c *SwarmConfig) { c.NumParticles = 0 },
		"MaxIterations":   func(c *SwarmConfig) { c.MaxIterations = 0 },
		"InertiaWeight":   func(c *SwarmConfig) { c.InertiaWeight = math.NaN() },
		"SocialWeight":    func(c *SwarmConfig) { c.SocialWeight = math.Inf(1) },
		"InitialVelocity": func(c *SwarmConfig) { c.InitialVelocity = -1 },
	}
	for field, mutate := range tests {
		t.Run(field, func(t *testing.T) {
			cfg := base
			mutate(&cfg)
			_, err := NewParticleSwarm(cfg)
			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, field, cfgErr.Field)
		})
	}
}
