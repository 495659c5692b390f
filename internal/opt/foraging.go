package opt

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// ForagingConfig holds Bacterial Foraging parameters.
type ForagingConfig struct {
	NumBacteria         int     `json:"numBacteria"`
	NumIterations       int     `json:"numIterations"`
	ChemotacticStepSize float64 `json:"chemotacticStepSize"`
	SwimLength          float64 `json:"swimLength"`
	TumbleRate          float64 `json:"tumbleRate"`
}

// DefaultForagingConfig returns the parameters used by the command line tools.
func DefaultForagingConfig() ForagingConfig {
	return ForagingConfig{
		NumBacteria:         50,
		NumIterations:       100,
		ChemotacticStepSize: 0.1,
		SwimLength:          0.2,
		TumbleRate:          0.1,
	}
}

func (c ForagingConfig) validate() error {
	if c.NumBacteria <= 0 {
		return configErrorf("NumBacteria", "must be positive, got %d", c.NumBacteria)
	}
	if c.NumIterations <= 0 {
		return configErrorf("NumIterations", "must be positive, got %d", c.NumIterations)
	}
	if !(c.ChemotacticStepSize > 0) || math.IsInf(c.ChemotacticStepSize, 0) {
		return configErrorf("ChemotacticStepSize", "must be positive and finite, got %g", c.ChemotacticStepSize)
	}
	if !(c.SwimLength > 0) || math.IsInf(c.SwimLength, 0) {
		return configErrorf("SwimLength", "must be positive and finite, got %g", c.SwimLength)
	}
	if !(c.TumbleRate >= 0 && c.TumbleRate <= 1) {
		return configErrorf("TumbleRate", "must be in [0,1], got %g", c.TumbleRate)
	}
	return nil
}

// BacterialForaging moves every bacterium through chemotaxis, swim and tumble
// sub-steps each iteration. Moves are never rejected.
type BacterialForaging struct {
	cfg  ForagingConfig
	opts Options
}

// NewBacterialForaging validates cfg and returns the optimizer.
func NewBacterialForaging(cfg ForagingConfig, opts ...Option) (*BacterialForaging, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &BacterialForaging{cfg: cfg, opts: buildOptions(opts)}, nil
}

func (f *BacterialForaging) Name() string { return "foraging" }

func (f *BacterialForaging) Run(obj Objective, b Bounds) (Result, error) {
	s, err := f.opts.begin(f.Name(), obj, b)
	if err != nil {
		return Result{}, err
	}

	colony, err := s.population(f.cfg.NumBacteria)
	if err != nil {
		return s.fail(err)
	}
	for _, c := range colony {
		s.best.Offer(c)
	}

	for s.iter < f.cfg.NumIterations {
		// chemotaxis
		err := f.move(s, colony, func() float64 { return f.cfg.ChemotacticStepSize })
		if err != nil {
			return s.fail(err)
		}

		// swim
		err = f.move(s, colony, func() float64 { return s.rng.Float64() * f.cfg.SwimLength })
		if err != nil {
			return s.fail(err)
		}

		if err := f.tumble(s, colony); err != nil {
			return s.fail(err)
		}

		for _, c := range colony {
			s.best.Offer(c)
		}

		if stop, err := s.completeIteration(); err != nil {
			return s.fail(err)
		} else if stop {
			return s.finish(StopObserver), nil
		}
	}
	return s.finish(StopBudget), nil
}

// move displaces every bacterium by step()·d along a fresh direction d and
// re-scores it unconditionally.
func (f *BacterialForaging) move(s *search, colony []Candidate, step func() float64) error {
	positions := make([][]float64, len(colony))
	for i, c := range colony {
		length := step()
		p := append([]float64(nil), c.Position...)
		floats.AddScaled(p, length, randomDirection(s.rng, len(p)))
		positions[i] = s.bounds.Clip(p)
	}
	scores, err := s.evalAll(positions)
	if err != nil {
		return err
	}
	for i := range colony {
		colony[i] = Candidate{Position: positions[i], Score: scores[i]}
	}
	return nil
}

// tumble resamples each bacterium uniformly with probability TumbleRate.
func (f *BacterialForaging) tumble(s *search, colony []Candidate) error {
	var idx []int
	var positions [][]float64
	for i := range colony {
		if s.rng.Float64() < f.cfg.TumbleRate {
			idx = append(idx, i)
			positions = append(positions, s.bounds.Sample(s.rng))
		}
	}
	if len(idx) == 0 {
		return nil
	}
	scores, err := s.evalAll(positions)
	if err != nil {
		return err
	}
	for k, i := range idx {
		colony[i] = Candidate{Position: positions[k], Score: scores[k]}
	}
	return nil
}
