package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sekbote/job-applier/internal/logging"
	"github.com/sekbote/job-applier/internal/pipeline"
)

var scheduleCommand = &cobra.Command{
	Use:   "schedule",
	Short: "Run the pipeline on a daily schedule",
	Long: `Keeps the process alive and triggers a pipeline run every day at the given
time. The run guard still applies, so a restart of the scheduler on a day
that already ran does nothing until the next day.`,
	RunE: runScheduleCmd,
}

var (
	scheduleAt         string
	scheduleConfigPath string
	scheduleVerbose    bool
)

func init() {
	scheduleCommand.Flags().StringVar(&scheduleAt, "at", "09:00", "Daily run time, 24h HH:MM")
	scheduleCommand.Flags().StringVar(&scheduleConfigPath, "config", "", "Path to config.json file")
	scheduleCommand.Flags().BoolVarP(&scheduleVerbose, "verbose", "v", false, "Print detailed debug information")

	rootCmd.AddCommand(scheduleCommand)
}

func runScheduleCmd(cmd *cobra.Command, _ []string) error {
	spec, err := cronSpecForTime(scheduleAt)
	if err != nil {
		return err
	}

	runConfigPath = scheduleConfigPath
	runVerbose = scheduleVerbose
	cfg, err := loadRunConfig(cmd)
	if err != nil {
		return err
	}

	logger := logging.New(scheduleVerbose)
	defer logger.Sync() //nolint:errcheck

	c := cron.New()
	_, err = c.AddFunc(spec, func() {
		logger.Info("scheduled run starting")
		_, err := executePipeline(context.Background(), cfg, false, false)
		switch {
		case errors.Is(err, pipeline.ErrAlreadyRan):
			logger.Info("scheduled run skipped, already ran today")
		case err != nil:
			logger.Error("scheduled run failed", zap.Error(err))
		default:
			logger.Info("scheduled run finished")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid schedule: %w", err)
	}

	logger.Info("scheduler started", zap.String("daily_at", scheduleAt))
	c.Run()
	return nil
}

// cronSpecForTime turns "HH:MM" into a daily cron expression.
func cronSpecForTime(at string) (string, error) {
	parts := strings.SplitN(at, ":", 2)
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid time %q, expected HH:MM", at)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return "", fmt.Errorf("invalid hour in %q", at)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return "", fmt.Errorf("invalid minute in %q", at)
	}
	return fmt.Sprintf("%d %d * * *", minute, hour), nil
}
