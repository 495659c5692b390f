package opt

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// SwarmConfig holds Particle Swarm parameters.
type SwarmConfig struct {
	NumParticles    int     `json:"numParticles"`
	MaxIterations   int     `json:"maxIterations"`
	InertiaWeight   float64 `json:"inertiaWeight"`
	CognitiveWeight float64 `json:"cognitiveWeight"`
	SocialWeight    float64 `json:"socialWeight"`
	// InitialVelocity bounds the uniform draw of starting velocities,
	// U(-InitialVelocity, InitialVelocity) per component. Zero means 1.
	InitialVelocity float64 `json:"initialVelocity,omitempty"`
}

// DefaultSwarmConfig returns the parameters used by the command line tools.
func DefaultSwarmConfig() SwarmConfig {
	return SwarmConfig{
		NumParticles:    50,
		MaxIterations:   100,
		InertiaWeight:   0.7,
		CognitiveWeight: 1.4,
		SocialWeight:    1.4,
		InitialVelocity: 1,
	}
}

func (c SwarmConfig) validate() error {
	if c.NumParticles <= 0 {
		return configErrorf("NumParticles", "must be positive, got %d", c.NumParticles)
	}
	if c.MaxIterations <= 0 {
		return configErrorf("MaxIterations", "must be positive, got %d", c.MaxIterations)
	}
	for _, w := range []struct {
		field string
		v     float64
	}{
		{"InertiaWeight", c.InertiaWeight},
		{"CognitiveWeight", c.CognitiveWeight},
		{"SocialWeight", c.SocialWeight},
	} {
		if math.IsNaN(w.v) || math.IsInf(w.v, 0) {
			return configErrorf(w.field, "must be finite, got %g", w.v)
		}
	}
	if !(c.InitialVelocity > 0) || math.IsInf(c.InitialVelocity, 0) {
		return configErrorf("InitialVelocity", "must be positive and finite, got %g", c.InitialVelocity)
	}
	return nil
}

// particle is a swarm member. Its Candidate is always the current position.
type particle struct {
	Candidate
	vel      []float64
	personal Candidate
}

// ParticleSwarm is a global-best particle swarm optimizer. Velocities are not
// clamped; only positions are clipped.
type ParticleSwarm struct {
	cfg  SwarmConfig
	opts Options
}

// NewParticleSwarm validates cfg and returns the optimizer.
func NewParticleSwarm(cfg SwarmConfig, opts ...Option) (*ParticleSwarm, error) {
	if cfg.InitialVelocity == 0 {
		cfg.InitialVelocity = 1
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &ParticleSwarm{cfg: cfg, opts: buildOptions(opts)}, nil
}

func (p *ParticleSwarm) Name() string { return "swarm" }

func (p *ParticleSwarm) Run(obj Objective, b Bounds) (Result, error) {
	s, err := p.opts.begin(p.Name(), obj, b)
	if err != nil {
		return Result{}, err
	}

	pop, err := s.population(p.cfg.NumParticles)
	if err != nil {
		return s.fail(err)
	}
	swarm := make([]*particle, len(pop))
	for i, c := range pop {
		vel := randomDirection(s.rng, b.Dim())
		floats.Scale(p.cfg.InitialVelocity, vel)
		swarm[i] = &particle{Candidate: c, vel: vel, personal: c.Clone()}
		s.best.Offer(c)
	}

	positions := make([][]float64, len(swarm))
	for s.iter < p.cfg.MaxIterations {
		// every particle steers by the global best of the previous iteration
		global := s.best.Candidate().Position
		for i, pt := range swarm {
			r1, r2 := s.rng.Float64(), s.rng.Float64()
			p.steer(pt, global, r1, r2)
			floats.Add(pt.Position, pt.vel)
			s.bounds.Clip(pt.Position)
			positions[i] = pt.Position
		}

		scores, err := s.evalAll(positions)
		if err != nil {
			return s.fail(err)
		}

		for i, pt := range swarm {
			pt.Score = scores[i]
			if s.goal.Better(pt.Score, pt.personal.Score) {
				pt.personal = pt.Candidate.Clone()
			}
			s.best.Offer(pt.Candidate)
		}

		if stop, err := s.completeIteration(); err != nil {
			return s.fail(err)
		} else if stop {
			return s.finish(StopObserver), nil
		}
	}
	return s.finish(StopBudget), nil
}

// steer applies v = w*v + c1*r1*(pbest-x) + c2*r2*(gbest-x).
func (p *ParticleSwarm) steer(pt *particle, global []float64, r1, r2 float64) {
	cognitive := make([]float64, len(pt.Position))
	floats.SubTo(cognitive, pt.personal.Position, pt.Position)
	social := make([]float64, len(pt.Position))
	floats.SubTo(social, global, pt.Position)

	floats.Scale(p.cfg.InertiaWeight, pt.vel)
	floats.AddScaled(pt.vel, p.cfg.CognitiveWeight*r1, cognitive)
	floats.AddScaled(pt.vel, p.cfg.SocialWeight*r2, social)
}
