package opt

import "gonum.org/v1/gonum/floats"

// TabuConfig holds Tabu Search parameters.
type TabuConfig struct {
	TabuListSize     int          `json:"tabuListSize"`
	MaxIterations    int          `json:"maxIterations"`
	NeighborhoodSize int          `json:"neighborhoodSize"`
	StepSize         float64      `json:"stepSize"`
	Neighborhood     Neighborhood `json:"neighborhood,omitempty"`
}

// DefaultTabuConfig returns the parameters used by the command line tools.
func DefaultTabuConfig() TabuConfig {
	return TabuConfig{
		TabuListSize:     10,
		MaxIterations:    100,
		NeighborhoodSize: 10,
		StepSize:         1,
		Neighborhood:     NeighborhoodWindow,
	}
}

func (c TabuConfig) validate() error {
	if c.TabuListSize <= 0 {
		return configErrorf("TabuListSize", "must be positive, got %d", c.TabuListSize)
	}
	if c.MaxIterations <= 0 {
		return configErrorf("MaxIterations", "must be positive, got %d", c.MaxIterations)
	}
	if c.NeighborhoodSize <= 0 {
		return configErrorf("NeighborhoodSize", "must be positive, got %d", c.NeighborhoodSize)
	}
	if !(c.StepSize > 0) {
		return configErrorf("StepSize", "must be positive, got %g", c.StepSize)
	}
	switch c.Neighborhood {
	case NeighborhoodWindow, NeighborhoodStep, NeighborhoodResample:
	default:
		return configErrorf("Neighborhood", "unknown neighborhood %q", c.Neighborhood)
	}
	return nil
}

// TabuSearch moves to the best non-tabu neighbor of the current point each
// iteration and remembers recently visited positions in a FIFO list.
type TabuSearch struct {
	cfg  TabuConfig
	opts Options
}

// NewTabuSearch validates cfg and returns a Tabu Search optimizer. An empty
// Neighborhood selects NeighborhoodWindow.
func NewTabuSearch(cfg TabuConfig, opts ...Option) (*TabuSearch, error) {
	if cfg.Neighborhood == "" {
		cfg.Neighborhood = NeighborhoodWindow
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &TabuSearch{cfg: cfg, opts: buildOptions(opts)}, nil
}

func (t *TabuSearch) Name() string { return "tabu" }

func (t *TabuSearch) Run(obj Objective, b Bounds) (Result, error) {
	s, err := t.opts.begin(t.Name(), obj, b)
	if err != nil {
		return Result{}, err
	}

	current, err := s.eval(s.initial())
	if err != nil {
		return s.fail(err)
	}
	s.best.Offer(current)

	memory := newTabuMemory(t.cfg.TabuListSize)
	memory.push(current.Position)

	for s.iter < t.cfg.MaxIterations {
		// perturb
		admissible := make([][]float64, 0, t.cfg.NeighborhoodSize)
		for i := 0; i < t.cfg.NeighborhoodSize; i++ {
			n := t.neighbor(s, current.Position)
			if memory.contains(n) {
				continue
			}
			admissible = append(admissible, n)
		}
		if len(admissible) == 0 {
			return s.finish(StopNoAdmissible), nil
		}

		// evaluate
		scores, err := s.evalAll(admissible)
		if err != nil {
			return s.fail(err)
		}

		// select: first encountered wins ties
		pick := 0
		for i := 1; i < len(scores); i++ {
			if s.goal.Better(scores[i], scores[pick]) {
				pick = i
			}
		}

		// move and record
		current = Candidate{Position: admissible[pick], Score: scores[pick]}
		memory.push(current.Position)
		s.best.Offer(current)

		if stop, err := s.completeIteration(); err != nil {
			return s.fail(err)
		} else if stop {
			return s.finish(StopObserver), nil
		}
	}
	return s.finish(StopBudget), nil
}

func (t *TabuSearch) neighbor(s *search, x []float64) []float64 {
	switch t.cfg.Neighborhood {
	case NeighborhoodStep:
		return uniformStep(s.rng, s.bounds, x, t.cfg.StepSize)
	case NeighborhoodResample:
		return s.bounds.Sample(s.rng)
	default:
		return windowSample(s.rng, s.bounds, x, t.cfg.StepSize)
	}
}

// tabuMemory is a bounded FIFO of visited positions. Membership is exact
// component-wise equality.
type tabuMemory struct {
	entries [][]float64
	head    int
	size    int
}

func newTabuMemory(capacity int) *tabuMemory {
	return &tabuMemory{entries: make([][]float64, capacity)}
}

// push appends a copy of x, evicting the oldest entry when full.
func (m *tabuMemory) push(x []float64) {
	idx := (m.head + m.size) % len(m.entries)
	m.entries[idx] = append([]float64(nil), x...)
	if m.size < len(m.entries) {
		m.size++
		return
	}
	m.head = (m.head + 1) % len(m.entries)
}

func (m *tabuMemory) contains(x []float64) bool {
	for i := 0; i < m.size; i++ {
		if floats.Equal(m.entries[(m.head+i)%len(m.entries)], x) {
			return true
		}
	}
	return false
}

// positions returns the stored positions from oldest to newest.
func (m *tabuMemory) positions() [][]float64 {
	out := make([][]float64, m.size)
	for i := range out {
		out[i] = m.entries[(m.head+i)%len(m.entries)]
	}
	return out
}

func (m *tabuMemory) len() int { return m.size }
