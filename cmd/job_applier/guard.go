package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sekbote/job-applier/internal/runguard"
)

var guardCommand = &cobra.Command{
	Use:   "guard",
	Short: "Inspect or clear the once-per-day run guard",
}

var guardLogsDir string

var guardStatusCommand = &cobra.Command{
	Use:   "status",
	Short: "Show recorded run dates and whether today's run happened",
	RunE: func(_ *cobra.Command, _ []string) error {
		guard := runguard.NewFileGuard(guardLogsDir)

		ran, err := guard.HasRunToday()
		if err != nil {
			return err
		}
		dates, err := guard.Dates()
		if err != nil {
			return err
		}

		if ran {
			fmt.Fprintln(os.Stdout, "Today: already ran")
		} else {
			fmt.Fprintln(os.Stdout, "Today: not yet run")
		}
		if len(dates) == 0 {
			fmt.Fprintln(os.Stdout, "No runs recorded.")
			return nil
		}
		fmt.Fprintf(os.Stdout, "Recorded runs (%d):\n", len(dates))
		for _, d := range dates {
			fmt.Fprintf(os.Stdout, "  %s\n", d)
		}
		return nil
	},
}

var guardClearCommand = &cobra.Command{
	Use:   "clear",
	Short: "Remove the run guard record so the pipeline can run again today",
	RunE: func(_ *cobra.Command, _ []string) error {
		guard := runguard.NewFileGuard(guardLogsDir)
		if err := guard.Clear(); err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, "Run guard cleared.")
		return nil
	},
}

func init() {
	guardCommand.PersistentFlags().StringVar(&guardLogsDir, "logs-dir", "logs", "Directory holding the run guard file")
	guardCommand.AddCommand(guardStatusCommand)
	guardCommand.AddCommand(guardClearCommand)
	rootCmd.AddCommand(guardCommand)
}
