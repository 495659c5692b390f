package opt

import "math"

// AnnealConfig holds Simulated Annealing parameters.
type AnnealConfig struct {
	MaxIterations      int     `json:"maxIterations"`
	InitialTemperature float64 `json:"initialTemperature"`
	FinalTemperature   float64 `json:"finalTemperature"`
	StepSize           float64 `json:"stepSize"`
	CoolingFactor      float64 `json:"coolingFactor"`
}

// DefaultAnnealConfig returns the parameters used by the command line tools.
func DefaultAnnealConfig() AnnealConfig {
	return AnnealConfig{
		MaxIterations:      1000,
		InitialTemperature: 100,
		FinalTemperature:   0.1,
		StepSize:           0.5,
		CoolingFactor:      0.9,
	}
}

func (c AnnealConfig) validate() error {
	if c.MaxIterations <= 0 {
		return configErrorf("MaxIterations", "must be positive, got %d", c.MaxIterations)
	}
	if !(c.InitialTemperature > 0) || math.IsInf(c.InitialTemperature, 0) {
		return configErrorf("InitialTemperature", "must be positive and finite, got %g", c.InitialTemperature)
	}
	if !(c.FinalTemperature > 0) {
		return configErrorf("FinalTemperature", "must be positive, got %g", c.FinalTemperature)
	}
	if c.FinalTemperature >= c.InitialTemperature {
		return configErrorf("FinalTemperature", "must be below InitialTemperature (%g), got %g", c.InitialTemperature, c.FinalTemperature)
	}
	if !(c.StepSize > 0) {
		return configErrorf("StepSize", "must be positive, got %g", c.StepSize)
	}
	if !(c.CoolingFactor > 0 && c.CoolingFactor < 1) {
		return configErrorf("CoolingFactor", "must be in (0,1), got %g", c.CoolingFactor)
	}
	return nil
}

// SimulatedAnnealing is a single-trajectory search that accepts worse moves
// with a probability that shrinks as the temperature cools.
type SimulatedAnnealing struct {
	cfg  AnnealConfig
	opts Options
}

// NewSimulatedAnnealing validates cfg and returns the optimizer.
func NewSimulatedAnnealing(cfg AnnealConfig, opts ...Option) (*SimulatedAnnealing, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &SimulatedAnnealing{cfg: cfg, opts: buildOptions(opts)}, nil
}

func (a *SimulatedAnnealing) Name() string { return "anneal" }

func (a *SimulatedAnnealing) Run(obj Objective, b Bounds) (Result, error) {
	s, err := a.opts.begin(a.Name(), obj, b)
	if err != nil {
		return Result{}, err
	}

	current, err := s.eval(s.initial())
	if err != nil {
		return s.fail(err)
	}
	s.best.Offer(current)

	temp := a.cfg.InitialTemperature
	for s.iter < a.cfg.MaxIterations {
		if temp <= a.cfg.FinalTemperature {
			return s.finish(StopTemperature), nil
		}

		next, err := s.eval(uniformStep(s.rng, s.bounds, current.Position, a.cfg.StepSize))
		if err != nil {
			return s.fail(err)
		}

		if s.rng.Float64() < acceptance(s.goal, current.Score, next.Score, temp) {
			current = next
		}
		s.best.Offer(next)

		temp *= a.cfg.CoolingFactor

		if stop, err := s.completeIteration(); err != nil {
			return s.fail(err)
		} else if stop {
			return s.finish(StopObserver), nil
		}
	}
	return s.finish(StopBudget), nil
}

// acceptance is the Metropolis criterion. temp must be positive.
func acceptance(goal Goal, current, next, temp float64) float64 {
	if goal.Better(next, current) {
		return 1
	}
	return math.Exp((goal.cost(current) - goal.cost(next)) / temp)
}
