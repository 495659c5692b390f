package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/cwbudde/metaopt/internal/bench"
	"github.com/cwbudde/metaopt/internal/config"
	"github.com/cwbudde/metaopt/internal/opt"
	"github.com/cwbudde/metaopt/internal/store"
)

var (
	configPath string
	algorithm  string
	benchmark  string
	goal       string
	dim        int
	workers    int
	seed       int64
	saveRun    bool
	traceRun   bool
	traceDB    string
	patience   int
	threshold  float64
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one optimizer on one benchmark function",
	Long: `Runs a single optimization and prints the best point found.
Flags override the values of --config.`,
	RunE: runOptimization,
}

func init() {
	defaults := config.Default()
	runCmd.Flags().StringVar(&configPath, "config", "", "JSON run configuration")
	runCmd.Flags().StringVar(&algorithm, "algorithm", defaults.Algorithm, "Optimizer: tabu, anneal, swarm, colony, bees, foraging, mayfly")
	runCmd.Flags().StringVar(&benchmark, "benchmark", defaults.Benchmark, "Benchmark function (see 'metaopt bench')")
	runCmd.Flags().StringVar(&goal, "goal", defaults.Goal, "Optimization goal: min or max")
	runCmd.Flags().IntVar(&dim, "dim", 0, "Dimension (0 = benchmark default)")
	runCmd.Flags().IntVar(&workers, "workers", 0, "Evaluate batches on N goroutines (0 or 1 = serial)")
	runCmd.Flags().Int64Var(&seed, "seed", defaults.Seed, "Random seed")
	runCmd.Flags().BoolVar(&saveRun, "save", false, "Save the result under --data-dir")
	runCmd.Flags().BoolVar(&traceRun, "trace", false, "With --save, write a per-iteration JSONL trace")
	runCmd.Flags().StringVar(&traceDB, "trace-db", "", "Record the per-iteration trace into this SQLite database")
	runCmd.Flags().IntVar(&patience, "patience", 0, "Stop after N iterations without improvement (0 = disabled)")
	runCmd.Flags().Float64Var(&threshold, "threshold", opt.DefaultConvergenceConfig().Threshold, "Relative improvement that resets --patience")

	rootCmd.AddCommand(runCmd)
}

// runOptions are the driver-side extras of a run.
type runOptions struct {
	Save      bool
	Trace     bool
	TraceDB   string
	Patience  int
	Threshold float64
}

// runOutcome is a finished run as reported by the CLI.
type runOutcome struct {
	ID      string
	Config  config.RunConfig
	Func    bench.Func
	Result  opt.Result
	Elapsed time.Duration
}

func runOptimization(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	out, err := executeRun(cfg, runOptions{
		Save:      saveRun,
		Trace:     traceRun,
		TraceDB:   traceDB,
		Patience:  patience,
		Threshold: threshold,
	})
	if err != nil {
		return err
	}

	printOutcome(cmd.OutOrStdout(), out)
	return nil
}

// resolveConfig loads --config (or the defaults) and applies explicitly set
// flags on top.
func resolveConfig(cmd *cobra.Command) (config.RunConfig, error) {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return cfg, err
		}
	}

	flags := cmd.Flags()
	if configPath == "" || flags.Changed("algorithm") {
		cfg.Algorithm = algorithm
	}
	if configPath == "" || flags.Changed("benchmark") {
		cfg.Benchmark = benchmark
	}
	if configPath == "" || flags.Changed("goal") {
		cfg.Goal = goal
	}
	if configPath == "" || flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("dim") {
		cfg.Dim = dim
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	return cfg, cfg.Validate()
}

func executeRun(cfg config.RunConfig, ro runOptions) (runOutcome, error) {
	out := runOutcome{ID: uuid.New().String(), Config: cfg}

	var observers []opt.Observer

	if ro.Patience > 0 {
		g, err := cfg.ParseGoal()
		if err != nil {
			return out, err
		}
		observers = append(observers, opt.UntilStalled(g, opt.ConvergenceConfig{
			Patience:  ro.Patience,
			Threshold: ro.Threshold,
		}))
	}

	if ro.Save && ro.Trace {
		tw, err := store.NewTraceWriter(dataDir, out.ID, false)
		if err != nil {
			return out, err
		}
		defer tw.Close()
		observers = append(observers, tw.Observer(false))
	}

	if ro.TraceDB != "" {
		db, err := store.OpenSQLite(ro.TraceDB)
		if err != nil {
			return out, err
		}
		defer db.Close()
		tr, err := store.NewSQLTrace(db, out.ID)
		if err != nil {
			return out, err
		}
		observers = append(observers, tr.Observer())
	}

	run, err := cfg.Build(opt.WithObserver(opt.Chain(observers...)))
	if err != nil {
		return out, err
	}
	out.Func = run.Func

	slog.Info("Starting optimization",
		"run_id", out.ID,
		"algorithm", cfg.Algorithm,
		"benchmark", run.Func.Name(),
		"dim", run.Bounds.Dim(),
		"seed", cfg.Seed,
	)

	start := time.Now()
	res, runErr := run.Execute()
	out.Elapsed = time.Since(start)
	out.Result = res

	if ro.Save {
		fsStore, err := store.NewFSStore(dataDir)
		if err != nil {
			return out, errors.Join(runErr, err)
		}
		rec := store.NewRunRecord(out.ID, cfg, res, runErr, out.Elapsed)
		if err := fsStore.SaveRun(out.ID, rec); err != nil {
			return out, errors.Join(runErr, err)
		}
	}
	if runErr != nil {
		return out, runErr
	}

	slog.Info("Optimization complete",
		"run_id", out.ID,
		"elapsed", out.Elapsed,
		"iterations", res.Iterations,
		"evaluations", res.Evaluations,
		"best_score", res.Best.Score,
		"stop", string(res.Stop),
	)
	return out, nil
}

func printOutcome(w io.Writer, out runOutcome) {
	res := out.Result
	fmt.Fprintf(w, "%s on %s (seed %d)\n", out.Config.Algorithm, out.Func.Name(), out.Config.Seed)
	fmt.Fprintf(w, "  Best score:  %.10g\n", res.Best.Score)
	fmt.Fprintf(w, "  Position:    %v\n", res.Best.Position)
	fmt.Fprintf(w, "  Iterations:  %d\n", res.Iterations)
	fmt.Fprintf(w, "  Evaluations: %d\n", res.Evaluations)
	fmt.Fprintf(w, "  Stop:        %s\n", res.Stop)
	fmt.Fprintf(w, "  Elapsed:     %s\n", out.Elapsed.Round(time.Microsecond))
	// optima are minima
	if optima := out.Func.Optima(); len(optima) > 0 && out.Config.Goal != "max" {
		fmt.Fprintf(w, "  Optimum:     %.10g (solved: %v)\n", optima[0].Score, bench.Solved(out.Func, res.Best, 0.01))
	}
	fmt.Fprintf(w, "  Run ID:      %s\n", out.ID)
}
