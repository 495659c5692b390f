package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cwbudde/metaopt/internal/opt"
	"github.com/cwbudde/metaopt/internal/store"
)

// progressInterval throttles progress broadcasts while a job runs.
var progressInterval = 500 * time.Millisecond

// runJob executes a job in the background. Cancelling ctx stops the optimizer
// at the next iteration boundary. Completed runs are saved to runStore when it
// is not nil.
func runJob(ctx context.Context, jm *JobManager, runStore store.Store, jobID string) error {
	job, exists := jm.GetJob(jobID)
	if !exists {
		return fmt.Errorf("job not found: %s", jobID)
	}

	select {
	case <-ctx.Done():
		markJobCancelled(jm, jobID)
		return ctx.Err()
	default:
	}

	err := jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateRunning
	})
	if err != nil {
		return err
	}

	logger := slog.Default().With("job_id", jobID)
	logger.Info("Starting job", "algorithm", job.Config.Algorithm, "benchmark", job.Config.Benchmark)

	observer := func(p opt.Progress) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		best := p.Best.Clone()
		return jm.UpdateJob(jobID, func(j *Job) {
			j.Best = &best
			j.Iterations = p.Iteration
			j.Evaluations = p.Evaluations
		})
	}

	run, err := job.Config.Build(opt.WithObserver(observer), opt.WithLogger(logger))
	if err != nil {
		markJobFailed(jm, jobID, err)
		return err
	}

	progressDone := make(chan struct{})
	monitorDone := make(chan struct{})
	go func() {
		defer close(monitorDone)
		monitorProgress(ctx, jm, jobID, progressDone)
	}()

	start := time.Now()
	res, runErr := run.Execute()
	elapsed := time.Since(start)
	close(progressDone)
	// no stale progress event may follow the final one
	<-monitorDone

	if runErr != nil {
		recordResult(jm, jobID, res)
		if errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded) {
			markJobCancelled(jm, jobID)
		} else {
			markJobFailed(jm, jobID, runErr)
		}
		return runErr
	}

	recordResult(jm, jobID, res)
	endTime := time.Now()
	err = jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCompleted
		j.Stop = res.Stop
		j.EndTime = &endTime
	})
	if err != nil {
		return err
	}

	logger.Info("Job completed",
		"elapsed", elapsed,
		"iterations", res.Iterations,
		"evaluations", res.Evaluations,
		"best_score", res.Best.Score,
		"stop", string(res.Stop),
	)

	if runStore != nil {
		rec := store.NewRunRecord(jobID, job.Config, res, nil, elapsed)
		if err := runStore.SaveRun(jobID, rec); err != nil {
			logger.Error("Failed to save run", "error", err)
		}
	}

	broadcastState(jm, jobID)
	return nil
}

// recordResult copies the final (possibly partial) result into the job.
func recordResult(jm *JobManager, jobID string, res opt.Result) {
	jm.UpdateJob(jobID, func(j *Job) {
		j.Iterations = res.Iterations
		j.Evaluations = res.Evaluations
		if res.Evaluations > 0 {
			best := res.Best.Clone()
			j.Best = &best
		}
	})
}

// monitorProgress periodically broadcasts progress events during optimization
func monitorProgress(ctx context.Context, jm *JobManager, jobID string, done chan struct{}) {
	ticker := time.NewTicker(progressInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !broadcastState(jm, jobID) {
				return
			}
		}
	}
}

// broadcastState sends the job's current state to stream subscribers.
func broadcastState(jm *JobManager, jobID string) bool {
	job, exists := jm.GetJob(jobID)
	if !exists {
		return false
	}
	jm.broadcaster.Broadcast(newProgressEvent(job))
	return true
}

// markJobFailed marks a job as failed with an error message
func markJobFailed(jm *JobManager, jobID string, err error) {
	endTime := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateFailed
		j.Stop = opt.StopError
		j.Error = err.Error()
		j.EndTime = &endTime
	})
	slog.Error("Job failed", "job_id", jobID, "error", err)
	broadcastState(jm, jobID)
}

// markJobCancelled marks a job as cancelled
func markJobCancelled(jm *JobManager, jobID string) {
	endTime := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCancelled
		j.Stop = opt.StopObserver
		j.EndTime = &endTime
	})
	slog.Info("Job cancelled", "job_id", jobID)
	broadcastState(jm, jobID)
}
