package opt

import (
	"fmt"
	"math"

	"github.com/cwbudde/mayfly"
)

// MayflyConfig holds parameters for the external Mayfly optimizer.
type MayflyConfig struct {
	MaxIterations int `json:"maxIterations"`
	// PopSize is the number of mayflies per sex. The library needs at
	// least 20.
	PopSize int `json:"popSize"`
}

// DefaultMayflyConfig returns the parameters used by the command line tools.
func DefaultMayflyConfig() MayflyConfig {
	return MayflyConfig{MaxIterations: 100, PopSize: 20}
}

func (c MayflyConfig) validate() error {
	if c.MaxIterations <= 0 {
		return configErrorf("MaxIterations", "must be positive, got %d", c.MaxIterations)
	}
	if c.PopSize < 20 {
		return configErrorf("PopSize", "must be at least 20, got %d", c.PopSize)
	}
	return nil
}

// MayflyAdapter wraps the external Mayfly library to conform to our Optimizer
// interface. The library runs to completion on its own, so an Observer sees
// a single Progress once it returns.
type MayflyAdapter struct {
	cfg  MayflyConfig
	opts Options
}

// NewMayfly creates a new Mayfly optimizer adapter.
func NewMayfly(cfg MayflyConfig, opts ...Option) (*MayflyAdapter, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &MayflyAdapter{cfg: cfg, opts: buildOptions(opts)}, nil
}

func (m *MayflyAdapter) Name() string { return "mayfly" }

// Run executes the Mayfly optimization using the external library. The
// library only supports one interval shared by every dimension.
func (m *MayflyAdapter) Run(obj Objective, b Bounds) (Result, error) {
	s, err := m.opts.begin(m.Name(), obj, b)
	if err != nil {
		return Result{}, err
	}
	if !s.bounds.IsUniform() {
		return Result{}, configErrorf("Bounds", "mayfly requires the same interval in every dimension")
	}

	// The library minimizes and may probe outside the box, so every probe is
	// clipped and oriented before it reaches the objective.
	var nonFinite error
	config := mayfly.NewDefaultConfig()
	config.ObjectiveFunc = func(x []float64) float64 {
		p := s.bounds.Clip(append([]float64(nil), x...))
		v, err := checkFinite(p, obj(p))
		s.nevals++
		if err != nil {
			if nonFinite == nil {
				nonFinite = err
			}
			return math.MaxFloat64
		}
		return s.goal.cost(v)
	}
	config.ProblemSize = s.bounds.Dim()
	config.MaxIterations = m.cfg.MaxIterations
	config.NPop = m.cfg.PopSize
	config.LowerBound = s.bounds.Lower[0]
	config.UpperBound = s.bounds.Upper[0]
	config.Rand = s.rng

	result, err := mayfly.Optimize(config)
	if err != nil {
		return s.fail(fmt.Errorf("mayfly: %w", err))
	}
	if nonFinite != nil {
		return s.fail(nonFinite)
	}

	pos := s.bounds.Clip(append([]float64(nil), result.GlobalBest.Position...))
	s.best.Offer(Candidate{Position: pos, Score: s.goal.cost(result.GlobalBest.Cost)})
	s.iter = m.cfg.MaxIterations - 1

	if stop, err := s.completeIteration(); err != nil {
		return s.fail(err)
	} else if stop {
		return s.finish(StopObserver), nil
	}
	return s.finish(StopBudget), nil
}
