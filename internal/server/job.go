package server

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cwbudde/metaopt/internal/config"
	"github.com/cwbudde/metaopt/internal/opt"
)

// JobState represents the current state of a job
type JobState string

const (
	StatePending   JobState = "pending"
	StateRunning   JobState = "running"
	StateCompleted JobState = "completed"
	StateFailed    JobState = "failed"
	StateCancelled JobState = "cancelled"
)

// Terminal reports whether the state is final.
func (s JobState) Terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateCancelled
}

// Job is an optimization run executed by the server.
type Job struct {
	ID          string           `json:"id"`
	State       JobState         `json:"state"`
	Config      config.RunConfig `json:"config"`
	Best        *opt.Candidate   `json:"best,omitempty"`
	Iterations  int              `json:"iterations"`
	Evaluations int              `json:"evaluations"`
	Stop        opt.StopReason   `json:"stop,omitempty"`
	StartTime   time.Time        `json:"startTime"`
	EndTime     *time.Time       `json:"endTime,omitempty"`
	Error       string           `json:"error,omitempty"`
}

// Elapsed returns the run time so far, or the total run time of a finished job.
func (j Job) Elapsed() time.Duration {
	if j.EndTime != nil {
		return j.EndTime.Sub(j.StartTime)
	}
	return time.Since(j.StartTime)
}

// JobManager manages the lifecycle of jobs. Jobs are handed out as copies so
// callers never race with the worker updating them.
type JobManager struct {
	mu          sync.RWMutex
	jobs        map[string]*Job
	contexts    map[string]context.Context
	cancels     map[string]context.CancelFunc
	broadcaster *EventBroadcaster
}

// NewJobManager creates a new JobManager
func NewJobManager() *JobManager {
	return &JobManager{
		jobs:        make(map[string]*Job),
		contexts:    make(map[string]context.Context),
		cancels:     make(map[string]context.CancelFunc),
		broadcaster: NewEventBroadcaster(),
	}
}

// CreateJob creates a pending job for the given configuration. The job is
// cancellable from the moment it exists; its worker picks up the context
// with jobContext.
func (jm *JobManager) CreateJob(cfg config.RunConfig) Job {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	job := &Job{
		ID:        uuid.New().String(),
		State:     StatePending,
		Config:    cfg,
		StartTime: time.Now(),
	}
	ctx, cancel := context.WithCancel(context.Background())
	jm.jobs[job.ID] = job
	jm.contexts[job.ID] = ctx
	jm.cancels[job.ID] = cancel
	return *job
}

// GetJob retrieves a snapshot of a job by ID.
func (jm *JobManager) GetJob(id string) (Job, bool) {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	job, exists := jm.jobs[id]
	if !exists {
		return Job{}, false
	}
	return job.snapshot(), true
}

// ListJobs returns snapshots of all jobs, oldest first.
func (jm *JobManager) ListJobs() []Job {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	jobs := make([]Job, 0, len(jm.jobs))
	for _, job := range jm.jobs {
		jobs = append(jobs, job.snapshot())
	}
	sort.Slice(jobs, func(a, b int) bool {
		return jobs[a].StartTime.Before(jobs[b].StartTime)
	})
	return jobs
}

// UpdateJob atomically updates a job using the provided function
func (jm *JobManager) UpdateJob(id string, updateFn func(*Job)) error {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	job, exists := jm.jobs[id]
	if !exists {
		return fmt.Errorf("job not found: %s", id)
	}

	updateFn(job)
	return nil
}

// GetRunningJobs returns all jobs currently in the running state
func (jm *JobManager) GetRunningJobs() []Job {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	running := make([]Job, 0)
	for _, job := range jm.jobs {
		if job.State == StateRunning {
			running = append(running, job.snapshot())
		}
	}
	return running
}

// jobContext returns the context registered for the job by CreateJob.
func (jm *JobManager) jobContext(id string) (context.Context, context.CancelFunc, bool) {
	jm.mu.RLock()
	defer jm.mu.RUnlock()
	ctx, ok := jm.contexts[id]
	if !ok {
		return nil, nil, false
	}
	return ctx, jm.cancels[id], true
}

// detach releases the job's context once its worker is done.
func (jm *JobManager) detach(id string) {
	jm.mu.Lock()
	if cancel, ok := jm.cancels[id]; ok {
		cancel()
		delete(jm.cancels, id)
		delete(jm.contexts, id)
	}
	jm.mu.Unlock()
}

// CancelJob stops a pending or running job. A pending job is cancelled
// before its worker starts optimizing.
func (jm *JobManager) CancelJob(id string) error {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	job, exists := jm.jobs[id]
	if !exists {
		return fmt.Errorf("job not found: %s", id)
	}
	if job.State.Terminal() {
		return fmt.Errorf("job %s already %s", id, job.State)
	}
	cancel, ok := jm.cancels[id]
	if !ok {
		return fmt.Errorf("job %s is not cancellable", id)
	}
	cancel()
	return nil
}

// CancelAll stops every job that has not finished.
func (jm *JobManager) CancelAll() {
	jm.mu.Lock()
	defer jm.mu.Unlock()
	for _, cancel := range jm.cancels {
		cancel()
	}
}

func (j *Job) snapshot() Job {
	c := *j
	if j.Best != nil {
		best := j.Best.Clone()
		c.Best = &best
	}
	if j.EndTime != nil {
		end := *j.EndTime
		c.EndTime = &end
	}
	return c
}
