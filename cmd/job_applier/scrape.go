package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sekbote/job-applier/internal/config"
	"github.com/sekbote/job-applier/internal/logging"
	"github.com/sekbote/job-applier/internal/scraper"
)

var scrapeCommand = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape job boards and print listings as JSON",
	Long:  "Runs only the scraping stage and prints the deduplicated listings as JSON. Useful for checking what a full run would see without scoring or applying.",
	RunE:  runScrapeCmd,
}

var (
	scrapeRole      string
	scrapeLocations []string
	scrapePlatforms []string
	scrapeDays      int
	scrapeLimit     int
	scrapeVerbose   bool
)

func init() {
	scrapeCommand.Flags().StringVarP(&scrapeRole, "role", "r", "", "Job title to search for")
	scrapeCommand.Flags().StringArrayVarP(&scrapeLocations, "location", "l", nil, "Location to search (repeatable)")
	scrapeCommand.Flags().StringArrayVarP(&scrapePlatforms, "platform", "p", nil, "Platform to scrape (repeatable)")
	scrapeCommand.Flags().IntVar(&scrapeDays, "days", 0, "Only consider postings from the last N days")
	scrapeCommand.Flags().IntVar(&scrapeLimit, "limit", 0, "Maximum listings to return")
	scrapeCommand.Flags().BoolVarP(&scrapeVerbose, "verbose", "v", false, "Print detailed debug information")

	rootCmd.AddCommand(scrapeCommand)
}

func runScrapeCmd(cmd *cobra.Command, _ []string) error {
	defaults := config.Defaults()
	if scrapeRole == "" {
		scrapeRole = defaults.Role
	}
	if len(scrapeLocations) == 0 {
		scrapeLocations = defaults.Locations
	}
	if len(scrapePlatforms) == 0 {
		scrapePlatforms = defaults.Platforms
	}
	if scrapeDays == 0 {
		scrapeDays = defaults.DaysBack
	}
	if scrapeLimit == 0 {
		scrapeLimit = defaults.MaxJobs * 3
	}

	logger := logging.New(scrapeVerbose)
	defer logger.Sync() //nolint:errcheck

	jobs, err := scraper.NewMulti(logger).Scrape(context.Background(), scraper.Query{
		Role:      scrapeRole,
		Locations: scrapeLocations,
		Platforms: scrapePlatforms,
		DaysBack:  scrapeDays,
		Limit:     scrapeLimit,
	})
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(jobs, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding listings: %w", err)
	}
	fmt.Fprintln(os.Stdout, string(out))
	return nil
}
