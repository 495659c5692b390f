package server

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cwbudde/metaopt/internal/config"
	"github.com/cwbudde/metaopt/internal/opt"
)

func testConfig(algorithm string) config.RunConfig {
	cfg := config.Default()
	cfg.Algorithm = algorithm
	cfg.Benchmark = "sphere"
	cfg.Seed = 42
	return cfg
}

func TestJobManager_CreateJob(t *testing.T) {
	jm := NewJobManager()

	job := jm.CreateJob(testConfig("swarm"))

	if job.ID == "" {
		t.Error("Job ID should not be empty")
	}
	if job.State != StatePending {
		t.Errorf("Initial state should be pending, got %s", job.State)
	}
	if job.Config.Algorithm != "swarm" {
		t.Errorf("Config not set correctly")
	}
}

func TestJobManager_GetJob(t *testing.T) {
	jm := NewJobManager()
	job := jm.CreateJob(testConfig("tabu"))

	retrieved, exists := jm.GetJob(job.ID)
	if !exists {
		t.Fatal("Job should exist")
	}
	if retrieved.ID != job.ID {
		t.Error("Retrieved wrong job")
	}

	if _, exists := jm.GetJob("nonexistent"); exists {
		t.Error("Should not find nonexistent job")
	}
}

func TestJobManager_GetJobReturnsCopy(t *testing.T) {
	jm := NewJobManager()
	job := jm.CreateJob(testConfig("tabu"))

	jm.UpdateJob(job.ID, func(j *Job) {
		j.Best = &opt.Candidate{Position: []float64{1, 2}, Score: 5}
	})

	snap, _ := jm.GetJob(job.ID)
	snap.Best.Position[0] = 99
	snap.State = StateFailed

	again, _ := jm.GetJob(job.ID)
	if again.Best.Position[0] != 1 {
		t.Error("Mutating a snapshot changed the stored job")
	}
	if again.State != StatePending {
		t.Errorf("State changed through snapshot: %s", again.State)
	}
}

func TestJobManager_ListJobs(t *testing.T) {
	jm := NewJobManager()

	if len(jm.ListJobs()) != 0 {
		t.Error("Should start with no jobs")
	}

	first := jm.CreateJob(testConfig("tabu"))
	time.Sleep(time.Millisecond)
	jm.CreateJob(testConfig("bees"))

	jobs := jm.ListJobs()
	if len(jobs) != 2 {
		t.Fatalf("Expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0].ID != first.ID {
		t.Error("Jobs should be listed oldest first")
	}
}

func TestJobManager_UpdateJob(t *testing.T) {
	jm := NewJobManager()
	job := jm.CreateJob(testConfig("anneal"))

	err := jm.UpdateJob(job.ID, func(j *Job) {
		j.State = StateRunning
		j.Iterations = 10
	})
	if err != nil {
		t.Fatalf("UpdateJob failed: %v", err)
	}

	updated, _ := jm.GetJob(job.ID)
	if updated.State != StateRunning || updated.Iterations != 10 {
		t.Errorf("Update not applied: %+v", updated)
	}
	if len(jm.GetRunningJobs()) != 1 {
		t.Error("Expected one running job")
	}

	if err := jm.UpdateJob("nonexistent", func(j *Job) {}); err == nil {
		t.Error("Expected error for nonexistent job")
	}
}

func TestJobManager_CancelJob(t *testing.T) {
	jm := NewJobManager()
	job := jm.CreateJob(testConfig("swarm"))

	ctx, _, ok := jm.jobContext(job.ID)
	if !ok {
		t.Fatal("CreateJob should register a context")
	}

	if err := jm.CancelJob(job.ID); err != nil {
		t.Fatalf("CancelJob failed: %v", err)
	}
	select {
	case <-ctx.Done():
	default:
		t.Error("Job context should be cancelled")
	}

	jm.UpdateJob(job.ID, func(j *Job) { j.State = StateCancelled })
	if err := jm.CancelJob(job.ID); err == nil {
		t.Error("Cancelling a finished job should fail")
	}
	if err := jm.CancelJob("nonexistent"); err == nil {
		t.Error("Expected error for nonexistent job")
	}
}

func TestJobManager_CancelBeforeWorkerStarts(t *testing.T) {
	jm := NewJobManager()
	job := jm.CreateJob(testConfig("swarm"))

	// cancel lands before any worker picked the job up
	if err := jm.CancelJob(job.ID); err != nil {
		t.Fatalf("Cancelling a pending job should succeed, got %v", err)
	}

	ctx, _, _ := jm.jobContext(job.ID)
	if err := runJob(ctx, jm, nil, job.ID); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	jm.detach(job.ID)

	updated, _ := jm.GetJob(job.ID)
	if updated.State != StateCancelled {
		t.Errorf("Expected cancelled, got %s", updated.State)
	}
	if _, _, ok := jm.jobContext(job.ID); ok {
		t.Error("detach should release the job context")
	}
}

func TestJobState_Terminal(t *testing.T) {
	for state, want := range map[JobState]bool{
		StatePending:   false,
		StateRunning:   false,
		StateCompleted: true,
		StateFailed:    true,
		StateCancelled: true,
	} {
		if state.Terminal() != want {
			t.Errorf("%s.Terminal() = %v, want %v", state, !want, want)
		}
	}
}
