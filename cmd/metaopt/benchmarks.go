package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cwbudde/metaopt/internal/bench"
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "List the benchmark functions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return listBenchmarks(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(benchCmd)
}

func listBenchmarks(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tDIM\tBOUNDS\tOPTIMUM")
	fmt.Fprintln(tw, "----\t---\t------\t-------")
	for _, name := range bench.Names() {
		fn, err := bench.New(name, 0)
		if err != nil {
			return err
		}
		b := fn.Bounds()

		box := "per-dimension"
		if b.IsUniform() {
			box = fmt.Sprintf("[%g, %g]", b.Lower[0], b.Upper[0])
		}
		optimum := "-"
		if optima := fn.Optima(); len(optima) > 0 {
			optimum = fmt.Sprintf("%.6g", optima[0].Score)
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", name, b.Dim(), box, optimum)
	}
	return tw.Flush()
}
