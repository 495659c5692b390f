package opt

import (
	"log/slog"
	"math"
)

// ConvergenceConfig defines parameters for detecting optimization convergence
type ConvergenceConfig struct {
	// Patience is the number of iterations with no significant improvement
	// before the run is considered converged.
	Patience int

	// Threshold is the minimum improvement of the best cost required to count
	// as progress, relative to the magnitude of the last significant cost.
	// Example: 0.001 = 0.1% improvement required
	Threshold float64
}

// DefaultConvergenceConfig returns sensible defaults for convergence detection
func DefaultConvergenceConfig() ConvergenceConfig {
	return ConvergenceConfig{
		Patience:  20,
		Threshold: 1e-6,
	}
}

// ConvergenceTracker tracks cost history and detects when optimization has converged.
// Costs are goal oriented: lower is better.
type ConvergenceTracker struct {
	config          ConvergenceConfig
	costHistory     []float64
	bestCost        float64 // Best cost ever seen
	lastSignificant float64 // Last cost that was a significant improvement
	staleCount      int     // Number of iterations without significant improvement
}

// NewConvergenceTracker creates a new convergence tracker with the given config
func NewConvergenceTracker(config ConvergenceConfig) *ConvergenceTracker {
	return &ConvergenceTracker{
		config:          config,
		bestCost:        math.Inf(1),
		lastSignificant: math.Inf(1),
	}
}

// Update records a new cost value and returns true if convergence is detected
func (c *ConvergenceTracker) Update(cost float64) bool {
	if c.config.Patience <= 0 {
		return false
	}

	c.costHistory = append(c.costHistory, cost)
	if cost < c.bestCost {
		c.bestCost = cost
	}

	if len(c.costHistory) == 1 {
		c.lastSignificant = cost
		return false
	}

	// Absolute scale keeps the test meaningful for costs at or below zero.
	improvement := (c.lastSignificant - cost) / math.Max(math.Abs(c.lastSignificant), 1)
	if improvement > c.config.Threshold {
		c.lastSignificant = cost
		c.staleCount = 0
		slog.Debug("Cost improvement detected",
			"cost", cost,
			"relative_improvement", improvement,
		)
		return false
	}

	c.staleCount++
	if c.staleCount >= c.config.Patience {
		slog.Info("Convergence detected - stopping early",
			"stale_count", c.staleCount,
			"patience", c.config.Patience,
			"best_cost", c.bestCost,
		)
		return true
	}
	return false
}

// BestCost returns the best cost seen so far
func (c *ConvergenceTracker) BestCost() float64 {
	return c.bestCost
}

// History returns the full cost history
func (c *ConvergenceTracker) History() []float64 {
	return append([]float64{}, c.costHistory...)
}

// StaleCount returns the current number of iterations without improvement
func (c *ConvergenceTracker) StaleCount() int {
	return c.staleCount
}

// Reset clears the tracker's state
func (c *ConvergenceTracker) Reset() {
	c.costHistory = nil
	c.bestCost = math.Inf(1)
	c.lastSignificant = math.Inf(1)
	c.staleCount = 0
}

// UntilStalled returns an Observer that stops a run with ErrStop once the best
// score has not improved by more than threshold for patience iterations.
func UntilStalled(goal Goal, cfg ConvergenceConfig) Observer {
	tracker := NewConvergenceTracker(cfg)
	return func(p Progress) error {
		if tracker.Update(goal.cost(p.Best.Score)) {
			return ErrStop
		}
		return nil
	}
}

// Chain combines observers; they run in order and the first error wins.
func Chain(observers ...Observer) Observer {
	return func(p Progress) error {
		for _, o := range observers {
			if o == nil {
				continue
			}
			if err := o(p); err != nil {
				return err
			}
		}
		return nil
	}
}
