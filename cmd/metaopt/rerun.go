package main

import (
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/cwbudde/metaopt/internal/store"
)

var rerunSave bool

var rerunCmd = &cobra.Command{
	Use:   "rerun [run-id]",
	Short: "Repeat a saved run and check that it reproduces",
	Long: `Loads the configuration of a saved run, executes it again and compares
the new result with the stored one. Runs are deterministic for a fixed seed,
so a mismatch means the code or the environment changed. Early stopping
requested with --patience is not part of the saved configuration.`,
	Args: cobra.ExactArgs(1),
	RunE: runRerun,
}

func init() {
	rerunCmd.Flags().BoolVar(&rerunSave, "save", false, "Save the repeated run as a new run")
	runsCmd.AddCommand(rerunCmd)
}

func runRerun(cmd *cobra.Command, args []string) error {
	runStore, err := store.NewFSStore(dataDir)
	if err != nil {
		return fmt.Errorf("failed to create run store: %w", err)
	}

	rec, err := runStore.LoadRun(args[0])
	if err != nil {
		return err
	}

	out, err := executeRun(rec.Config, runOptions{Save: rerunSave})
	if err != nil {
		return err
	}

	w := outWriter(cmd)
	printOutcome(w, out)
	reportReproduction(w, rec, out)
	return nil
}

// reproduced reports whether a repeated run found the same best candidate
// with the same amount of work.
func reproduced(rec *store.RunRecord, out runOutcome) bool {
	a, b := rec.Result, out.Result
	return a.Best.Score == b.Best.Score &&
		slices.Equal(a.Best.Position, b.Best.Position) &&
		a.Iterations == b.Iterations &&
		a.Evaluations == b.Evaluations
}

func reportReproduction(w io.Writer, rec *store.RunRecord, out runOutcome) {
	if reproduced(rec, out) {
		fmt.Fprintf(w, "\nReproduced run %s exactly.\n", rec.RunID)
		return
	}
	fmt.Fprintf(w, "\nRun %s did NOT reproduce:\n", rec.RunID)
	fmt.Fprintf(w, "  stored:   score %.10g, %d iterations, %d evaluations\n",
		rec.Result.Best.Score, rec.Result.Iterations, rec.Result.Evaluations)
	fmt.Fprintf(w, "  repeated: score %.10g, %d iterations, %d evaluations\n",
		out.Result.Best.Score, out.Result.Iterations, out.Result.Evaluations)
}
