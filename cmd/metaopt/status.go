package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var serverURL string

var statusCmd = &cobra.Command{
	Use:   "status [run-id]",
	Short: "Query server status or a specific run",
	Long: `Queries the server for run status information.
If no run-id is provided, lists all runs.
If run-id is provided, shows detailed status for that run.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "Server URL")
	rootCmd.AddCommand(statusCmd)
}

type remoteCandidate struct {
	Position []float64 `json:"position"`
	Score    float64   `json:"score"`
}

// remoteRun mirrors the fields of the server's run status document that the
// CLI prints. Runs the server only knows from its store come back as saved
// records (runId, result); normalize folds those into the same fields.
type remoteRun struct {
	ID     string `json:"id"`
	RunID  string `json:"runId"`
	State  string `json:"state"`
	Config struct {
		Algorithm string `json:"algorithm"`
		Benchmark string `json:"benchmark"`
		Goal      string `json:"goal"`
		Seed      int64  `json:"seed"`
	} `json:"config"`
	Best        *remoteCandidate `json:"best"`
	Iterations  int              `json:"iterations"`
	Evaluations int              `json:"evaluations"`
	Stop        string           `json:"stop"`
	Elapsed     float64          `json:"elapsed"`
	EPS         float64          `json:"evalsPerSecond"`
	Error       string           `json:"error"`
	Result      *struct {
		Best        remoteCandidate `json:"best"`
		Iterations  int             `json:"iterations"`
		Evaluations int             `json:"evaluations"`
		Stop        string          `json:"stop"`
	} `json:"result"`
	Duration time.Duration `json:"duration"`
}

func (r *remoteRun) normalize() {
	if r.Result == nil {
		return
	}
	r.ID = r.RunID
	r.State = "saved"
	r.Best = &r.Result.Best
	r.Iterations = r.Result.Iterations
	r.Evaluations = r.Result.Evaluations
	r.Stop = r.Result.Stop
	r.Elapsed = r.Duration.Seconds()
	if r.Elapsed > 0 {
		r.EPS = float64(r.Evaluations) / r.Elapsed
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	base := strings.TrimRight(serverURL, "/")
	if len(args) == 0 {
		return listRemoteRuns(cmd.OutOrStdout(), base+"/api/v1/runs")
	}
	runID := args[0]
	return showRemoteRun(cmd.OutOrStdout(), base+"/api/v1/runs/"+runID+"/status", runID)
}

func listRemoteRuns(w io.Writer, url string) error {
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned error: %s", string(body))
	}

	var runs []remoteRun
	if err := json.NewDecoder(resp.Body).Decode(&runs); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs found")
		return nil
	}

	fmt.Fprintf(w, "Found %d run(s):\n\n", len(runs))
	for _, run := range runs {
		fmt.Fprintf(w, "Run ID: %s\n", run.ID)
		fmt.Fprintf(w, "  State: %s\n", run.State)
		fmt.Fprintf(w, "  Algorithm: %s on %s\n", run.Config.Algorithm, run.Config.Benchmark)
		if run.Best != nil {
			fmt.Fprintf(w, "  Best: %.6g after %d iterations\n", run.Best.Score, run.Iterations)
		}
		fmt.Fprintln(w)
	}
	return nil
}

func showRemoteRun(w io.Writer, url, runID string) error {
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("run not found: %s", runID)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned error: %s", string(body))
	}

	var run remoteRun
	if err := json.NewDecoder(resp.Body).Decode(&run); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	run.normalize()

	fmt.Fprintf(w, "Run: %s\n", run.ID)
	fmt.Fprintf(w, "State: %s\n", run.State)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Configuration:")
	fmt.Fprintf(w, "  Algorithm: %s\n", run.Config.Algorithm)
	fmt.Fprintf(w, "  Benchmark: %s\n", run.Config.Benchmark)
	fmt.Fprintf(w, "  Goal: %s\n", run.Config.Goal)
	fmt.Fprintf(w, "  Seed: %d\n", run.Config.Seed)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Progress:")
	fmt.Fprintf(w, "  Iterations: %d\n", run.Iterations)
	fmt.Fprintf(w, "  Evaluations: %d\n", run.Evaluations)
	if run.Best != nil {
		fmt.Fprintf(w, "  Best Score: %.10g\n", run.Best.Score)
		fmt.Fprintf(w, "  Best Position: %v\n", run.Best.Position)
	}
	if run.Stop != "" {
		fmt.Fprintf(w, "  Stop: %s\n", run.Stop)
	}
	elapsed := time.Duration(run.Elapsed * float64(time.Second))
	fmt.Fprintf(w, "  Elapsed: %s\n", elapsed.Round(time.Millisecond))
	if run.EPS > 0 {
		fmt.Fprintf(w, "  Throughput: %.0f evals/sec\n", run.EPS)
	}

	if run.Error != "" {
		fmt.Fprintf(w, "\nError: %s\n", run.Error)
	}
	return nil
}
