// Package config describes a single optimization run: which algorithm, which
// benchmark landscape, and every tunable parameter, loadable from JSON.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/cwbudde/metaopt/internal/bench"
	"github.com/cwbudde/metaopt/internal/opt"
)

// Algorithms lists the accepted values of RunConfig.Algorithm.
var Algorithms = []string{"tabu", "anneal", "swarm", "colony", "bees", "foraging", "mayfly"}

// CoreAlgorithms are the strategies implemented in this module, without the
// external mayfly adapter.
var CoreAlgorithms = Algorithms[:6]

// RunConfig holds configuration for one optimization run.
type RunConfig struct {
	Algorithm string        `json:"algorithm"`
	Benchmark string        `json:"benchmark"`
	Dim       int           `json:"dim,omitempty"` // 0 = benchmark default
	Goal      string        `json:"goal"`          // min, max
	Seed      int64         `json:"seed"`
	Workers   int           `json:"workers,omitempty"` // > 1 evaluates batches on a goroutine pool
	Bounds    *BoundsConfig `json:"bounds,omitempty"`  // overrides the benchmark's box
	Start     []float64     `json:"start,omitempty"`   // initial point for tabu and anneal

	Tabu     opt.TabuConfig     `json:"tabu"`
	Anneal   opt.AnnealConfig   `json:"anneal"`
	Swarm    opt.SwarmConfig    `json:"swarm"`
	Colony   opt.ColonyConfig   `json:"colony"`
	Bees     opt.BeesConfig     `json:"bees"`
	Foraging opt.ForagingConfig `json:"foraging"`
	Mayfly   opt.MayflyConfig   `json:"mayfly"`
}

// BoundsConfig is either one interval shared by every dimension
// ({"low": -5, "high": 5}) or one interval per dimension index
// ({"perDim": {"0": {"low": 0, "high": 1}, "1": {...}}}).
type BoundsConfig struct {
	Low    *float64                `json:"low,omitempty"`
	High   *float64                `json:"high,omitempty"`
	PerDim map[string]opt.Interval `json:"perDim,omitempty"`
}

// Default returns a RunConfig with every algorithm block populated.
func Default() RunConfig {
	return RunConfig{
		Algorithm: "swarm",
		Benchmark: "ackley",
		Goal:      "min",
		Seed:      1,
		Tabu:      opt.DefaultTabuConfig(),
		Anneal:    opt.DefaultAnnealConfig(),
		Swarm:     opt.DefaultSwarmConfig(),
		Colony:    opt.DefaultColonyConfig(),
		Bees:      opt.DefaultBeesConfig(),
		Foraging:  opt.DefaultForagingConfig(),
		Mayfly:    opt.DefaultMayflyConfig(),
	}
}

// Load reads a JSON file and overlays it onto Default().
func Load(path string) (RunConfig, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	slog.Debug("Config loaded", "path", path, "algorithm", cfg.Algorithm, "benchmark", cfg.Benchmark)
	return cfg, nil
}

// Validate checks the run-level fields. Algorithm parameters are validated by
// the optimizer constructors during Build.
func (c RunConfig) Validate() error {
	if !isAlgorithm(c.Algorithm) {
		return &ValidationError{Field: "algorithm", Reason: fmt.Sprintf("must be one of %s, got %q", strings.Join(Algorithms, ", "), c.Algorithm)}
	}
	if c.Benchmark == "" {
		return &ValidationError{Field: "benchmark", Reason: "cannot be empty"}
	}
	if _, err := c.ParseGoal(); err != nil {
		return err
	}
	if c.Dim < 0 {
		return &ValidationError{Field: "dim", Reason: "cannot be negative"}
	}
	if c.Workers < 0 {
		return &ValidationError{Field: "workers", Reason: "cannot be negative"}
	}
	if c.Bounds != nil {
		if err := c.Bounds.validate(); err != nil {
			return err
		}
	}
	return nil
}

// Run is a fully built run: the optimizer, the benchmark it targets and the
// box it searches.
type Run struct {
	Optimizer opt.Optimizer
	Func      bench.Func
	Bounds    opt.Bounds
}

// Execute runs the optimizer on the benchmark.
func (r Run) Execute() (opt.Result, error) {
	return r.Optimizer.Run(r.Func.Eval, r.Bounds)
}

// Build validates c and constructs the run. extra options (observer, logger)
// are applied after the ones derived from c.
func (c RunConfig) Build(extra ...opt.Option) (Run, error) {
	if err := c.Validate(); err != nil {
		return Run{}, err
	}

	fn, err := bench.New(c.Benchmark, c.Dim)
	if err != nil {
		return Run{}, &ValidationError{Field: "benchmark", Reason: err.Error()}
	}

	b := fn.Bounds()
	if c.Bounds != nil {
		if b, err = c.Bounds.build(b.Dim()); err != nil {
			return Run{}, err
		}
	}

	goal, _ := c.ParseGoal()
	opts := []opt.Option{opt.WithGoal(goal), opt.WithSeed(c.Seed)}
	if c.Workers > 1 {
		opts = append(opts, opt.WithEvaler(opt.PoolEvaler{MaxGoroutines: c.Workers}))
	}
	if c.Start != nil {
		opts = append(opts, opt.WithStart(c.Start))
	}
	opts = append(opts, extra...)

	o, err := c.optimizer(opts)
	if err != nil {
		return Run{}, fmt.Errorf("%s: %w", c.Algorithm, err)
	}
	return Run{Optimizer: o, Func: fn, Bounds: b}, nil
}

func (c RunConfig) optimizer(opts []opt.Option) (opt.Optimizer, error) {
	switch c.Algorithm {
	case "tabu":
		return opt.NewTabuSearch(c.Tabu, opts...)
	case "anneal":
		return opt.NewSimulatedAnnealing(c.Anneal, opts...)
	case "swarm":
		return opt.NewParticleSwarm(c.Swarm, opts...)
	case "colony":
		return opt.NewAntColony(c.Colony, opts...)
	case "bees":
		return opt.NewBeesAlgorithm(c.Bees, opts...)
	case "foraging":
		return opt.NewBacterialForaging(c.Foraging, opts...)
	case "mayfly":
		return opt.NewMayfly(c.Mayfly, opts...)
	}
	return nil, &ValidationError{Field: "algorithm", Reason: fmt.Sprintf("unknown algorithm %q", c.Algorithm)}
}

// ParseGoal maps the goal field to an opt.Goal; empty means minimize.
func (c RunConfig) ParseGoal() (opt.Goal, error) {
	switch c.Goal {
	case "", "min":
		return opt.Minimize, nil
	case "max":
		return opt.Maximize, nil
	}
	return opt.Minimize, &ValidationError{Field: "goal", Reason: fmt.Sprintf("must be min or max, got %q", c.Goal)}
}

func isAlgorithm(name string) bool {
	for _, a := range Algorithms {
		if a == name {
			return true
		}
	}
	return false
}

func (bc *BoundsConfig) validate() error {
	uniform := bc.Low != nil || bc.High != nil
	if uniform && bc.PerDim != nil {
		return &ValidationError{Field: "bounds", Reason: "use either low/high or perDim, not both"}
	}
	if uniform && (bc.Low == nil || bc.High == nil) {
		return &ValidationError{Field: "bounds", Reason: "low and high must both be set"}
	}
	if !uniform && len(bc.PerDim) == 0 {
		return &ValidationError{Field: "bounds", Reason: "cannot be empty"}
	}
	return nil
}

// build turns the override into opt.Bounds. A shared interval takes the
// benchmark's dimension; per-dimension intervals must match it.
func (bc *BoundsConfig) build(dim int) (opt.Bounds, error) {
	if err := bc.validate(); err != nil {
		return opt.Bounds{}, err
	}
	if bc.PerDim == nil {
		b := opt.Uniform(*bc.Low, *bc.High, dim)
		return b, b.Validate()
	}

	intervals := make(map[int]opt.Interval, len(bc.PerDim))
	for key, iv := range bc.PerDim {
		i, err := strconv.Atoi(key)
		if err != nil {
			return opt.Bounds{}, &ValidationError{Field: "bounds.perDim", Reason: fmt.Sprintf("key %q is not a dimension index", key)}
		}
		intervals[i] = iv
	}
	b, err := opt.PerDimension(intervals)
	if err != nil {
		return opt.Bounds{}, err
	}
	if b.Dim() != dim {
		return opt.Bounds{}, &ValidationError{Field: "bounds.perDim", Reason: fmt.Sprintf("has %d dimensions, benchmark has %d", b.Dim(), dim)}
	}
	return b, nil
}

// ValidationError represents an invalid run configuration.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Field + " " + e.Reason
}
