package main

import (
	"fmt"
	"io"
	"runtime"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/cwbudde/metaopt/internal/bench"
	"github.com/cwbudde/metaopt/internal/config"
	"github.com/cwbudde/metaopt/internal/opt"
)

var (
	compareRuns     int
	compareParallel int
	compareMayfly   bool
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Run every optimizer on one benchmark and tabulate the results",
	Long: `Runs each core optimizer with its default parameters (or the parameter
blocks of --config) on the same benchmark. With --runs N every optimizer is
repeated with seeds seed..seed+N-1.`,
	RunE: runCompare,
}

func init() {
	defaults := config.Default()
	compareCmd.Flags().StringVar(&configPath, "config", "", "JSON run configuration supplying algorithm parameters")
	compareCmd.Flags().StringVar(&benchmark, "benchmark", defaults.Benchmark, "Benchmark function")
	compareCmd.Flags().IntVar(&dim, "dim", 0, "Dimension (0 = benchmark default)")
	compareCmd.Flags().Int64Var(&seed, "seed", defaults.Seed, "First random seed")
	compareCmd.Flags().IntVar(&compareRuns, "runs", 1, "Repetitions per optimizer")
	compareCmd.Flags().IntVar(&compareParallel, "parallel", runtime.GOMAXPROCS(0), "Optimizations run concurrently")
	compareCmd.Flags().BoolVar(&compareMayfly, "mayfly", false, "Include the mayfly optimizer")

	rootCmd.AddCommand(compareCmd)
}

// compareRow summarizes the repetitions of one optimizer.
type compareRow struct {
	Algorithm   string
	Scores      []float64
	Evaluations int
	Solved      int
	Elapsed     time.Duration
	Err         error
}

func runCompare(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return err
		}
	}
	if configPath == "" || cmd.Flags().Changed("benchmark") {
		cfg.Benchmark = benchmark
	}
	if cmd.Flags().Changed("dim") {
		cfg.Dim = dim
	}
	if configPath == "" || cmd.Flags().Changed("seed") {
		cfg.Seed = seed
	}

	algorithms := config.CoreAlgorithms
	if compareMayfly {
		algorithms = config.Algorithms
	}

	rows, err := compareAlgorithms(cfg, algorithms, compareRuns, compareParallel)
	if err != nil {
		return err
	}

	fn, err := bench.New(cfg.Benchmark, cfg.Dim)
	if err != nil {
		return err
	}
	g, err := cfg.ParseGoal()
	if err != nil {
		return err
	}
	printComparison(cmd.OutOrStdout(), fn, g, rows)
	return nil
}

// compareAlgorithms runs every algorithm runs times and returns one row per
// algorithm in the order given.
func compareAlgorithms(base config.RunConfig, algorithms []string, runs, parallel int) ([]compareRow, error) {
	if runs <= 0 {
		return nil, fmt.Errorf("runs must be positive, got %d", runs)
	}
	if parallel <= 0 {
		parallel = 1
	}

	type trial struct {
		algo    int
		score   float64
		evals   int
		solved  bool
		elapsed time.Duration
		err     error
	}

	p := pool.NewWithResults[trial]().WithMaxGoroutines(parallel)
	for a, name := range algorithms {
		for r := 0; r < runs; r++ {
			cfg := base
			cfg.Algorithm = name
			cfg.Seed = base.Seed + int64(r)
			a := a
			p.Go(func() trial {
				run, err := cfg.Build()
				if err != nil {
					return trial{algo: a, err: err}
				}
				start := time.Now()
				res, err := run.Execute()
				return trial{
					algo:    a,
					score:   res.Best.Score,
					evals:   res.Evaluations,
					solved:  err == nil && cfg.Goal != "max" && bench.Solved(run.Func, res.Best, 0.01),
					elapsed: time.Since(start),
					err:     err,
				}
			})
		}
	}

	rows := make([]compareRow, len(algorithms))
	for i, name := range algorithms {
		rows[i].Algorithm = name
	}
	trials := p.Wait()
	// completion order varies with scheduling
	sort.SliceStable(trials, func(i, j int) bool { return trials[i].algo < trials[j].algo })
	for _, t := range trials {
		row := &rows[t.algo]
		if t.err != nil {
			row.Err = t.err
			continue
		}
		row.Scores = append(row.Scores, t.score)
		row.Evaluations += t.evals
		row.Elapsed += t.elapsed
		if t.solved {
			row.Solved++
		}
	}
	return rows, nil
}

// bestScore picks the best of scores under goal.
func bestScore(g opt.Goal, scores []float64) float64 {
	if g == opt.Maximize {
		return floats.Max(scores)
	}
	return floats.Min(scores)
}

func printComparison(w io.Writer, fn bench.Func, g opt.Goal, rows []compareRow) {
	fmt.Fprintf(w, "Benchmark: %s (dim %d)", fn.Name(), fn.Bounds().Dim())
	if optima := fn.Optima(); len(optima) > 0 {
		fmt.Fprintf(w, ", optimum %.6g", optima[0].Score)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ALGORITHM\tBEST\tMEAN\tSTDDEV\tSOLVED\tEVALS\tTIME")
	fmt.Fprintln(tw, "---------\t----\t----\t------\t------\t-----\t----")
	for _, row := range rows {
		if row.Err != nil {
			fmt.Fprintf(tw, "%s\terror: %v\t\t\t\t\t\n", row.Algorithm, row.Err)
			continue
		}
		n := len(row.Scores)
		mean, std := stat.MeanStdDev(row.Scores, nil)
		if n < 2 {
			std = 0
		}
		fmt.Fprintf(tw, "%s\t%.6g\t%.6g\t%.3g\t%d/%d\t%d\t%s\n",
			row.Algorithm,
			bestScore(g, row.Scores),
			mean,
			std,
			row.Solved, n,
			row.Evaluations/n,
			(row.Elapsed / time.Duration(n)).Round(time.Microsecond),
		)
	}
	tw.Flush()
}
