package store

import (
	"fmt"
	"math"
	"time"

	"github.com/cwbudde/metaopt/internal/config"
	"github.com/cwbudde/metaopt/internal/opt"
)

// RunRecord is a finished optimization run as persisted on disk.
//
// The record keeps the full RunConfig so a run can be repeated exactly: all
// strategies are deterministic for a given seed and configuration, so
// re-executing Config reproduces Result bit for bit.
type RunRecord struct {
	// RunID is the unique identifier for this run
	RunID string `json:"runId"`

	// Config is the configuration the run was built from
	Config config.RunConfig `json:"config"`

	// Result is the optimizer's final result
	Result opt.Result `json:"result"`

	// Error holds the message of a failed run. Result is then partial.
	Error string `json:"error,omitempty"`

	// Duration is the wall-clock time spent inside the optimizer
	Duration time.Duration `json:"duration"`

	// Timestamp records when the run finished
	Timestamp time.Time `json:"timestamp"`
}

// RunInfo contains metadata about a run without the best position.
// Used for listing runs.
type RunInfo struct {
	RunID       string         `json:"runId"`
	Algorithm   string         `json:"algorithm"`
	Benchmark   string         `json:"benchmark"`
	Goal        string         `json:"goal"`
	BestScore   float64        `json:"bestScore"`
	Iterations  int            `json:"iterations"`
	Evaluations int            `json:"evaluations"`
	Stop        opt.StopReason `json:"stop"`
	Timestamp   time.Time      `json:"timestamp"`
}

// NewRunRecord creates a record for a run that just finished.
func NewRunRecord(runID string, cfg config.RunConfig, res opt.Result, runErr error, d time.Duration) *RunRecord {
	rec := &RunRecord{
		RunID:     runID,
		Config:    cfg,
		Result:    res,
		Duration:  d,
		Timestamp: time.Now(),
	}
	if runErr != nil {
		rec.Error = runErr.Error()
	}
	return rec
}

// ToInfo converts a full RunRecord to RunInfo.
func (r *RunRecord) ToInfo() RunInfo {
	return RunInfo{
		RunID:       r.RunID,
		Algorithm:   r.Config.Algorithm,
		Benchmark:   r.Config.Benchmark,
		Goal:        r.Config.Goal,
		BestScore:   r.Result.Best.Score,
		Iterations:  r.Result.Iterations,
		Evaluations: r.Result.Evaluations,
		Stop:        r.Result.Stop,
		Timestamp:   r.Timestamp,
	}
}

// Validate checks if the record has valid data.
func (r *RunRecord) Validate() error {
	if r.RunID == "" {
		return &ValidationError{Field: "RunID", Reason: "cannot be empty"}
	}
	if r.Timestamp.IsZero() {
		return &ValidationError{Field: "Timestamp", Reason: "cannot be zero"}
	}
	if r.Result.Iterations < 0 {
		return &ValidationError{Field: "Result.Iterations", Reason: "cannot be negative"}
	}
	if r.Result.Evaluations < 0 {
		return &ValidationError{Field: "Result.Evaluations", Reason: "cannot be negative"}
	}
	if err := r.Config.Validate(); err != nil {
		return &ValidationError{Field: "Config", Reason: err.Error()}
	}
	// a run that evaluated nothing has no best yet
	if r.Result.Evaluations == 0 {
		return nil
	}
	if len(r.Result.Best.Position) == 0 {
		return &ValidationError{Field: "Result.Best.Position", Reason: "cannot be empty"}
	}
	for i, v := range r.Result.Best.Position {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &ValidationError{Field: "Result.Best.Position", Reason: fmt.Sprintf("component %d is not finite", i)}
		}
	}
	return nil
}

// ValidationError represents a run record validation error.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Field + " " + e.Reason
}
