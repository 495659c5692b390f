package opt

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// ColonyConfig holds Ant Colony System parameters.
type ColonyConfig struct {
	NumAnts       int     `json:"numAnts"`
	NumIterations int     `json:"numIterations"`
	Alpha         float64 `json:"alpha"`
	Beta          float64 `json:"beta"`
	Rho           float64 `json:"rho"`
	Q0            float64 `json:"q0"`
	// LocalSearchSigma is the standard deviation of the per-dimension
	// Gaussian step. Zero means 0.1.
	LocalSearchSigma float64 `json:"localSearchSigma,omitempty"`
}

// DefaultColonyConfig returns the parameters used by the command line tools.
func DefaultColonyConfig() ColonyConfig {
	return ColonyConfig{
		NumAnts:          20,
		NumIterations:    100,
		Alpha:            1,
		Beta:             2,
		Rho:              0.5,
		Q0:               0.8,
		LocalSearchSigma: 0.1,
	}
}

func (c ColonyConfig) validate() error {
	if c.NumAnts <= 0 {
		return configErrorf("NumAnts", "must be positive, got %d", c.NumAnts)
	}
	if c.NumIterations <= 0 {
		return configErrorf("NumIterations", "must be positive, got %d", c.NumIterations)
	}
	if !(c.Alpha >= 0) || math.IsInf(c.Alpha, 0) {
		return configErrorf("Alpha", "must be non-negative and finite, got %g", c.Alpha)
	}
	if !(c.Beta >= 0) || math.IsInf(c.Beta, 0) {
		return configErrorf("Beta", "must be non-negative and finite, got %g", c.Beta)
	}
	if !(c.Rho > 0 && c.Rho < 1) {
		return configErrorf("Rho", "must be in (0,1), got %g", c.Rho)
	}
	if !(c.Q0 >= 0 && c.Q0 <= 1) {
		return configErrorf("Q0", "must be in [0,1], got %g", c.Q0)
	}
	if !(c.LocalSearchSigma > 0) || math.IsInf(c.LocalSearchSigma, 0) {
		return configErrorf("LocalSearchSigma", "must be positive and finite, got %g", c.LocalSearchSigma)
	}
	return nil
}

// AntColony is an Ant Colony System for continuous domains. Each ant
// hill-climbs one component at a time; a per-dimension pheromone field,
// reinforced by good ants and evaporated every iteration, biases which
// component an ant refines next.
type AntColony struct {
	cfg  ColonyConfig
	opts Options
}

// NewAntColony validates cfg and returns the optimizer.
func NewAntColony(cfg ColonyConfig, opts ...Option) (*AntColony, error) {
	if cfg.LocalSearchSigma == 0 {
		cfg.LocalSearchSigma = 0.1
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &AntColony{cfg: cfg, opts: buildOptions(opts)}, nil
}

func (a *AntColony) Name() string { return "colony" }

func (a *AntColony) Run(obj Objective, b Bounds) (Result, error) {
	s, err := a.opts.begin(a.Name(), obj, b)
	if err != nil {
		return Result{}, err
	}

	ants, err := s.population(a.cfg.NumAnts)
	if err != nil {
		return s.fail(err)
	}
	for _, ant := range ants {
		s.best.Offer(ant)
	}

	pheromone := make([]float64, b.Dim())
	for i := range pheromone {
		pheromone[i] = 1
	}

	for s.iter < a.cfg.NumIterations {
		for d := 0; d < b.Dim(); d++ {
			if err := a.refine(s, ants, func(int) int { return d }); err != nil {
				return s.fail(err)
			}
		}

		// guided step: every ant reads the same field
		picks := make([]int, len(ants))
		for i, ant := range ants {
			picks[i] = a.selectDimension(s, pheromone, ant.Position)
		}
		if err := a.refine(s, ants, func(i int) int { return picks[i] }); err != nil {
			return s.fail(err)
		}

		a.deposit(s, pheromone, ants)
		for _, ant := range ants {
			s.best.Offer(ant)
		}
		floats.Scale(1-a.cfg.Rho, pheromone)

		if stop, err := s.completeIteration(); err != nil {
			return s.fail(err)
		} else if stop {
			return s.finish(StopObserver), nil
		}
	}
	return s.finish(StopBudget), nil
}

// refine proposes a Gaussian step on dimension dim(i) for every ant i and
// keeps it unless the score gets worse.
func (a *AntColony) refine(s *search, ants []Candidate, dim func(i int) int) error {
	proposals := make([][]float64, len(ants))
	for i, ant := range ants {
		p := append([]float64(nil), ant.Position...)
		d := dim(i)
		p[d] = gaussianComponent(s.rng, s.bounds, ant.Position, d, a.cfg.LocalSearchSigma)
		proposals[i] = p
	}
	scores, err := s.evalAll(proposals)
	if err != nil {
		return err
	}
	for i := range ants {
		if !s.goal.Better(ants[i].Score, scores[i]) {
			ants[i] = Candidate{Position: proposals[i], Score: scores[i]}
		}
	}
	return nil
}

// selectDimension exploits the strongest dimension with probability Q0 and
// otherwise samples proportionally to tau^alpha * (1/|x|)^beta.
func (a *AntColony) selectDimension(s *search, pheromone, x []float64) int {
	w := make([]float64, len(x))
	for d := range w {
		eta := 1 / math.Max(math.Abs(x[d]), weightFloor)
		w[d] = math.Pow(pheromone[d], a.cfg.Alpha) * math.Pow(eta, a.cfg.Beta)
	}
	if s.rng.Float64() < a.cfg.Q0 {
		return floats.MaxIdx(w)
	}
	return roulette(s.rng, w)
}

// deposit adds 1/(cost+offset) to every dimension for every ant. The offset
// is zero unless some cost is non-positive, in which case it lifts the
// smallest denominator to weightFloor.
func (a *AntColony) deposit(s *search, pheromone []float64, ants []Candidate) {
	costs := make([]float64, len(ants))
	for i, ant := range ants {
		costs[i] = s.goal.cost(ant.Score)
	}
	offset := 0.0
	if lowest := floats.Min(costs); lowest <= 0 {
		offset = weightFloor - lowest
	}
	total := 0.0
	for _, c := range costs {
		total += 1 / (c + offset)
	}
	floats.AddConst(total, pheromone)
}
