package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/andresmejia3/warpframe/internal/flowio"
	"github.com/andresmejia3/warpframe/internal/flowstats"
	"github.com/andresmejia3/warpframe/internal/utils"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <flow.flo>",
	Short: "Print displacement statistics of a flow and the padding it needs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		if err := validateInputFile(args[0], "Flow file"); err != nil {
			return err
		}
		flow, err := flowio.ReadFile(args[0])
		if err != nil {
			utils.ShowError("Failed to read flow", err, nil)
			return err
		}
		printFlowSummary(os.Stdout, flowstats.Summarize(flow), flowstats.SuggestPadding(flow))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func printFlowSummary(out io.Writer, s flowstats.Summary, suggested float64) {
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintf(w, "SIZE\t%dx%d\n", s.Width, s.Height)
	fmt.Fprintf(w, "MEAN\t%.3f px\n", s.Mean)
	fmt.Fprintf(w, "STDDEV\t%.3f px\n", s.StdDev)
	fmt.Fprintf(w, "MEDIAN\t%.3f px\n", s.Median)
	fmt.Fprintf(w, "P95\t%.3f px\n", s.P95)
	fmt.Fprintf(w, "MAX\t%.3f px\n", s.Max)
	fmt.Fprintf(w, "MAX |DX|\t%.3f px\n", s.MaxAbsDX)
	fmt.Fprintf(w, "MAX |DY|\t%.3f px\n", s.MaxAbsDY)
	if s.NonFinite > 0 {
		fmt.Fprintf(w, "NON-FINITE\t%d\n", s.NonFinite)
	}
	fmt.Fprintf(w, "REACH\t%d px\n", s.Reach())
	fmt.Fprintf(w, "SUGGESTED PADDING\t%.2f\n", suggested)
	w.Flush()
}
