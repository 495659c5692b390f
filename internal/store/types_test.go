package store

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/cwbudde/metaopt/internal/opt"
)

func TestRunRecord_JSONSerialization(t *testing.T) {
	rec := createTestRecord("json")

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded RunRecord
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if decoded.Result.Best.Score != rec.Result.Best.Score {
		t.Errorf("Score = %v, want %v", decoded.Result.Best.Score, rec.Result.Best.Score)
	}
	if decoded.Config.Anneal != rec.Config.Anneal {
		t.Errorf("Anneal config = %+v, want %+v", decoded.Config.Anneal, rec.Config.Anneal)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"runId", "config", "result", "duration", "timestamp"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("Missing JSON key %q", key)
		}
	}
	if _, ok := raw["error"]; ok {
		t.Error("Empty error should be omitted")
	}
}

func TestRunRecord_Validate_Valid(t *testing.T) {
	if err := createTestRecord("valid").Validate(); err != nil {
		t.Errorf("Expected valid record, got %v", err)
	}
}

func TestRunRecord_Validate_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *RunRecord)
		field  string
	}{
		{"empty run id", func(r *RunRecord) { r.RunID = "" }, "RunID"},
		{"zero timestamp", func(r *RunRecord) { r.Timestamp = time.Time{} }, "Timestamp"},
		{"negative iterations", func(r *RunRecord) { r.Result.Iterations = -1 }, "Result.Iterations"},
		{"negative evaluations", func(r *RunRecord) { r.Result.Evaluations = -1 }, "Result.Evaluations"},
		{"bad config", func(r *RunRecord) { r.Config.Algorithm = "hillclimb" }, "Config"},
		{"empty best", func(r *RunRecord) { r.Result.Best.Position = nil }, "Result.Best.Position"},
		{"non-finite best", func(r *RunRecord) { r.Result.Best.Position[0] = math.Inf(1) }, "Result.Best.Position"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := createTestRecord("invalid")
			tt.mutate(rec)

			var vErr *ValidationError
			if err := rec.Validate(); !errors.As(err, &vErr) {
				t.Fatalf("Expected ValidationError, got %v", err)
			}
			if vErr.Field != tt.field {
				t.Errorf("Field = %q, want %q", vErr.Field, tt.field)
			}
		})
	}
}

func TestRunRecord_Validate_NoEvaluations(t *testing.T) {
	rec := createTestRecord("early")
	rec.Result = opt.Result{Stop: opt.StopError}
	if err := rec.Validate(); err != nil {
		t.Errorf("Run without evaluations should validate, got %v", err)
	}
}

func TestRunRecord_ToInfo(t *testing.T) {
	rec := createTestRecord("info")
	info := rec.ToInfo()

	if info.RunID != "info" || info.Algorithm != "anneal" || info.Benchmark != "sphere" {
		t.Errorf("Unexpected identity fields: %+v", info)
	}
	if info.BestScore != rec.Result.Best.Score {
		t.Errorf("BestScore = %v, want %v", info.BestScore, rec.Result.Best.Score)
	}
	if info.Iterations != 66 || info.Evaluations != 67 || info.Stop != opt.StopTemperature {
		t.Errorf("Unexpected result fields: %+v", info)
	}
}

func TestNewRunRecord(t *testing.T) {
	rec := createTestRecord("src")
	before := time.Now()

	created := NewRunRecord("new", rec.Config, rec.Result, errors.New("boom"), time.Second)
	if created.RunID != "new" || created.Duration != time.Second {
		t.Errorf("Unexpected record: %+v", created)
	}
	if created.Error != "boom" {
		t.Errorf("Error = %q, want boom", created.Error)
	}
	if created.Timestamp.Before(before) {
		t.Error("Timestamp should be set to now")
	}

	if ok := NewRunRecord("ok", rec.Config, rec.Result, nil, 0); ok.Error != "" {
		t.Errorf("Expected empty error, got %q", ok.Error)
	}
}
