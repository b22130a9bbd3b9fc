package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sekbote/job-applier/internal/logging"
	"github.com/sekbote/job-applier/internal/observability"
	"github.com/sekbote/job-applier/internal/tracker"
	"github.com/sekbote/job-applier/internal/types"
)

var trackerCommand = &cobra.Command{
	Use:   "tracker",
	Short: "Inspect or maintain the job tracker spreadsheet",
}

var (
	trackerPath       string
	trackerListStatus string
)

var trackerListCommand = &cobra.Command{
	Use:   "list",
	Short: "List tracked jobs, optionally filtered by status",
	RunE: func(_ *cobra.Command, _ []string) error {
		store := newTrackerStore()

		var filter tracker.Filter
		if trackerListStatus != "" {
			status := types.Status(trackerListStatus)
			if !status.Valid() {
				return fmt.Errorf("unknown status %q", trackerListStatus)
			}
			filter.Status = status
		}

		records, err := store.List(filter)
		if err != nil {
			return err
		}
		observability.NewPrinter(os.Stdout).PrintRecords(records)
		return nil
	},
}

var trackerResetCommand = &cobra.Command{
	Use:   "reset <job_id>",
	Short: "Reset a terminal record back to pending so it can be reprocessed",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		store := newTrackerStore()
		if err := store.Reset(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Job %s reset to pending.\n", args[0])
		return nil
	},
}

func newTrackerStore() *tracker.XLSXStore {
	return tracker.NewXLSXStore(trackerPath, logging.New(false))
}

func init() {
	trackerCommand.PersistentFlags().StringVar(&trackerPath, "tracker", "data/jobs_tracker.xlsx", "Path to the tracker spreadsheet")
	trackerListCommand.Flags().StringVar(&trackerListStatus, "status", "", "Filter by status: pending, skipped, applied, failed, manual_required")
	trackerCommand.AddCommand(trackerListCommand)
	trackerCommand.AddCommand(trackerResetCommand)
	rootCmd.AddCommand(trackerCommand)
}
