package opt

import (
	"errors"
	"log/slog"
	"math/rand"
)

// Optimizer defines an optimization algorithm interface
type Optimizer interface {
	// Name identifies the strategy (e.g. "tabu", "anneal").
	Name() string
	// Run searches the box b for the best point of obj. Configuration and
	// bounds errors are reported before the first iteration.
	Run(obj Objective, b Bounds) (Result, error)
}

// StopReason records why a run terminated.
type StopReason string

const (
	StopBudget       StopReason = "budget"
	StopTemperature  StopReason = "temperature"
	StopNoAdmissible StopReason = "no-admissible-neighbor"
	StopObserver     StopReason = "observer"
	StopError        StopReason = "error"
)

// Result is the outcome of a run.
type Result struct {
	Best        Candidate  `json:"best"`
	Iterations  int        `json:"iterations"`
	Evaluations int        `json:"evaluations"`
	Stop        StopReason `json:"stop"`
}

// Progress is passed to an Observer after every completed iteration.
type Progress struct {
	Algorithm   string
	Iteration   int
	Best        Candidate
	Evaluations int
}

// Observer is called after each iteration. Returning ErrStop ends the run
// normally; any other error aborts it and is returned from Run.
type Observer func(Progress) error

// Options holds settings common to every strategy.
type Options struct {
	Goal     Goal
	Seed     int64
	Rand     *rand.Rand
	Evaler   Evaler
	Observer Observer
	Start    []float64
	Logger   *slog.Logger
}

// Option configures Options.
type Option func(*Options)

// WithGoal selects minimization (default) or maximization.
func WithGoal(g Goal) Option {
	return func(o *Options) { o.Goal = g }
}

// WithSeed seeds the run's random source. The default seed is 1.
func WithSeed(seed int64) Option {
	return func(o *Options) { o.Seed = seed }
}

// WithRand supplies the random source directly. It takes precedence over
// WithSeed and is consumed across successive runs.
func WithRand(rng *rand.Rand) Option {
	return func(o *Options) { o.Rand = rng }
}

// WithEvaler sets how batches of positions are scored.
func WithEvaler(ev Evaler) Option {
	return func(o *Options) { o.Evaler = ev }
}

// WithObserver registers a per-iteration callback.
func WithObserver(fn Observer) Option {
	return func(o *Options) { o.Observer = fn }
}

// WithStart fixes the initial point of single-trajectory strategies (tabu,
// anneal). It is clipped into the bounds.
func WithStart(x []float64) Option {
	return func(o *Options) { o.Start = append([]float64(nil), x...) }
}

// WithLogger sets the logger used for run start and finish messages.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

func buildOptions(opts []Option) Options {
	o := Options{Seed: 1}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Evaler == nil {
		o.Evaler = SerialEvaler{}
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// search is the per-run state shared by every strategy: the random source,
// the evaluation counter and the global best accumulator.
type search struct {
	name     string
	obj      Objective
	bounds   Bounds
	goal     Goal
	rng      *rand.Rand
	ev       Evaler
	observer Observer
	logger   *slog.Logger
	start    []float64
	best     *Best
	iter     int
	nevals   int
}

func (o Options) begin(name string, obj Objective, b Bounds) (*search, error) {
	if obj == nil {
		return nil, configErrorf("Objective", "cannot be nil")
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if o.Start != nil && len(o.Start) != b.Dim() {
		return nil, configErrorf("Start", "has %d dimensions, bounds have %d", len(o.Start), b.Dim())
	}

	rng := o.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(o.Seed))
	}

	s := &search{
		name:     name,
		obj:      obj,
		bounds:   b.clone(),
		goal:     o.Goal,
		rng:      rng,
		ev:       o.Evaler,
		observer: o.Observer,
		logger:   o.Logger,
		best:     NewBest(o.Goal),
	}
	if o.Start != nil {
		s.start = s.bounds.Clip(append([]float64(nil), o.Start...))
	}

	s.logger.Debug("Starting optimization", "algorithm", name, "dim", b.Dim(), "goal", o.Goal.String())
	return s, nil
}

// initial returns the configured start point or a uniform sample.
func (s *search) initial() []float64 {
	if s.start != nil {
		return append([]float64(nil), s.start...)
	}
	return s.bounds.Sample(s.rng)
}

func (s *search) eval(pos []float64) (Candidate, error) {
	c, err := Evaluate(s.obj, pos)
	if err != nil {
		return Candidate{}, err
	}
	s.nevals++
	return c, nil
}

func (s *search) evalAll(positions [][]float64) ([]float64, error) {
	scores, err := s.ev.Eval(s.obj, positions)
	s.nevals += len(scores)
	return scores, err
}

// population samples n uniform points and scores them.
func (s *search) population(n int) ([]Candidate, error) {
	positions := make([][]float64, n)
	for i := range positions {
		positions[i] = s.bounds.Sample(s.rng)
	}
	scores, err := s.evalAll(positions)
	if err != nil {
		return nil, err
	}
	pop := make([]Candidate, n)
	for i := range pop {
		pop[i] = Candidate{Position: positions[i], Score: scores[i]}
	}
	return pop, nil
}

// completeIteration advances the iteration counter and notifies the
// observer. It reports whether the run must stop.
func (s *search) completeIteration() (bool, error) {
	s.iter++
	if s.observer == nil {
		return false, nil
	}
	err := s.observer(Progress{
		Algorithm:   s.name,
		Iteration:   s.iter,
		Best:        s.best.Candidate(),
		Evaluations: s.nevals,
	})
	if errors.Is(err, ErrStop) {
		return true, nil
	}
	return err != nil, err
}

func (s *search) finish(reason StopReason) Result {
	res := Result{
		Best:        s.best.Candidate(),
		Iterations:  s.iter,
		Evaluations: s.nevals,
		Stop:        reason,
	}
	s.logger.Debug("Optimization finished",
		"algorithm", s.name,
		"iterations", res.Iterations,
		"evaluations", res.Evaluations,
		"best_score", res.Best.Score,
		"stop", string(reason),
	)
	return res
}

// fail returns the partial result together with err.
func (s *search) fail(err error) (Result, error) {
	res := s.finish(StopError)
	s.logger.Warn("Optimization aborted", "algorithm", s.name, "iteration", s.iter, "error", err)
	return res, err
}
