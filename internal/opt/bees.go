package opt

import "math"

// BeesConfig holds Bees Algorithm parameters.
type BeesConfig struct {
	NumEmployedBees int `json:"numEmployedBees"`
	NumOnlookerBees int `json:"numOnlookerBees"`
	MaxIterations   int `json:"maxIterations"`
	// NeighborRadius is the half-width of the uniform exploration step.
	// Zero means 1.
	NeighborRadius float64 `json:"neighborRadius,omitempty"`
}

// DefaultBeesConfig returns the parameters used by the command line tools.
func DefaultBeesConfig() BeesConfig {
	return BeesConfig{
		NumEmployedBees: 50,
		NumOnlookerBees: 50,
		MaxIterations:   100,
		NeighborRadius:  1,
	}
}

func (c BeesConfig) validate() error {
	if c.NumEmployedBees <= 0 {
		return configErrorf("NumEmployedBees", "must be positive, got %d", c.NumEmployedBees)
	}
	if c.NumOnlookerBees < 0 {
		return configErrorf("NumOnlookerBees", "must not be negative, got %d", c.NumOnlookerBees)
	}
	if c.NumOnlookerBees > c.NumEmployedBees {
		return configErrorf("NumOnlookerBees", "(%d) exceeds NumEmployedBees (%d)", c.NumOnlookerBees, c.NumEmployedBees)
	}
	if c.MaxIterations <= 0 {
		return configErrorf("MaxIterations", "must be positive, got %d", c.MaxIterations)
	}
	if !(c.NeighborRadius > 0) || math.IsInf(c.NeighborRadius, 0) {
		return configErrorf("NeighborRadius", "must be positive and finite, got %g", c.NeighborRadius)
	}
	return nil
}

// BeesAlgorithm keeps a fixed population of employed bees. Every bee explores
// its neighborhood each iteration, then onlookers revisit a fitness-weighted
// sample of the bees for a second exploration.
type BeesAlgorithm struct {
	cfg  BeesConfig
	opts Options
}

// NewBeesAlgorithm validates cfg and returns the optimizer. More onlookers
// than employed bees is rejected with a *ConfigError.
func NewBeesAlgorithm(cfg BeesConfig, opts ...Option) (*BeesAlgorithm, error) {
	if cfg.NeighborRadius == 0 {
		cfg.NeighborRadius = 1
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &BeesAlgorithm{cfg: cfg, opts: buildOptions(opts)}, nil
}

func (a *BeesAlgorithm) Name() string { return "bees" }

func (a *BeesAlgorithm) Run(obj Objective, b Bounds) (Result, error) {
	s, err := a.opts.begin(a.Name(), obj, b)
	if err != nil {
		return Result{}, err
	}

	bees, err := s.population(a.cfg.NumEmployedBees)
	if err != nil {
		return s.fail(err)
	}
	for _, bee := range bees {
		s.best.Offer(bee)
	}

	employed := make([]int, len(bees))
	for i := range employed {
		employed[i] = i
	}

	for s.iter < a.cfg.MaxIterations {
		if err := a.explore(s, bees, employed); err != nil {
			return s.fail(err)
		}

		if a.cfg.NumOnlookerBees > 0 {
			scores := make([]float64, len(bees))
			for i, bee := range bees {
				scores[i] = bee.Score
			}
			onlookers := sampleWithoutReplacement(s.rng, shiftedWeights(scores), a.cfg.NumOnlookerBees)
			if err := a.explore(s, bees, onlookers); err != nil {
				return s.fail(err)
			}
		}

		for _, bee := range bees {
			s.best.Offer(bee)
		}

		if stop, err := s.completeIteration(); err != nil {
			return s.fail(err)
		} else if stop {
			return s.finish(StopObserver), nil
		}
	}
	return s.finish(StopBudget), nil
}

// explore sends each bee in idx to one uniform neighbor and keeps the move on
// strict improvement.
func (a *BeesAlgorithm) explore(s *search, bees []Candidate, idx []int) error {
	proposals := make([][]float64, len(idx))
	for k, i := range idx {
		proposals[k] = uniformStep(s.rng, s.bounds, bees[i].Position, a.cfg.NeighborRadius)
	}
	scores, err := s.evalAll(proposals)
	if err != nil {
		return err
	}
	for k, i := range idx {
		if s.goal.Better(scores[k], bees[i].Score) {
			bees[i] = Candidate{Position: proposals[k], Score: scores[k]}
		}
	}
	return nil
}
