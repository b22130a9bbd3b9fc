// Package main provides the job application pipeline CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "job_applier",
	Short: "Automated job application pipeline",
	Long:  "job_applier scrapes job boards, scores listings against your resume, tailors a PDF resume per job, and submits applications through browser automation while tracking every job in a spreadsheet.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
