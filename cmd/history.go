package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/andresmejia3/warpframe/internal/store"
	"github.com/andresmejia3/warpframe/internal/utils"
	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:         "history",
	Short:       "List recorded warp runs, newest first",
	Annotations: map[string]string{storeAnnotation: storeRequired},
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		runs, err := DB.ListRuns(cmd.Context(), historyLimit)
		if err != nil {
			utils.ShowError("Failed to list runs", err, nil)
			return err
		}
		printRuns(os.Stdout, runs)
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of runs to show")
	rootCmd.AddCommand(historyCmd)
}

func printRuns(out io.Writer, runs []store.RunSummary) {
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "RUN\tKIND\tINPUT\tMODE\tPADDING\tFRAMES\tSTATUS\tDURATION\tSTARTED")
	fmt.Fprintln(w, "---\t----\t-----\t----\t-------\t------\t------\t--------\t-------")
	for _, r := range runs {
		status := r.Status
		if r.Error != "" {
			status += ": " + r.Error
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2f (%d px)\t%d/%d\t%s\t%s\t%s\n",
			r.ID.String()[:8], r.Kind, r.InputPath, r.PaddingMode, r.Padding, r.PadWidth,
			r.WarpedFrames, r.Frames, status, fmtTime(r.Duration.Seconds()),
			r.StartedAt.Local().Format("2006-01-02 15:04"))
	}
	w.Flush()
}
