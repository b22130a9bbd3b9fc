// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/sekbote/job-applier/internal/pipeline"
	"github.com/sekbote/job-applier/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintScore outputs a human-readable summary of one job's match score.
func (p *Printer) PrintScore(job types.JobListing, score *types.ScoreResult) {
	if score == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Company:  %s\n", job.Company))
	sb.WriteString(fmt.Sprintf("Role:     %s\n", job.Title))
	sb.WriteString(fmt.Sprintf("Score:    %d/100\n", score.Score))
	sb.WriteString("\n")

	if len(score.Strengths) > 0 {
		sb.WriteString("Strengths:\n")
		count := min(len(score.Strengths), maxItemsToShow)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  • %s\n", score.Strengths[i]))
		}
		if len(score.Strengths) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(score.Strengths)-maxItemsToShow))
		}
		sb.WriteString("\n")
	}

	if len(score.Gaps) > 0 {
		sb.WriteString("Gaps:\n")
		count := min(len(score.Gaps), maxItemsToShow)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  • %s\n", score.Gaps[i]))
		}
		if len(score.Gaps) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(score.Gaps)-maxItemsToShow))
		}
		sb.WriteString("\n")
	}

	if len(score.MissingKeywords) > 0 {
		sb.WriteString(fmt.Sprintf("Missing keywords: %s\n", strings.Join(score.MissingKeywords, ", ")))
	}
	if score.Recommendation != "" {
		sb.WriteString(fmt.Sprintf("Recommendation: %s\n", score.Recommendation))
	}

	p.printBox("JOB MATCH SCORE", strings.TrimRight(sb.String(), "\n"))
}

// PrintSummary outputs the end-of-run totals.
func (p *Printer) PrintSummary(s *pipeline.Summary) {
	if s == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Scraped:          %d\n", s.Scraped))
	sb.WriteString(fmt.Sprintf("Scored:           %d\n", s.Scored))
	sb.WriteString(fmt.Sprintf("Applied:          %d\n", s.Applied))
	sb.WriteString(fmt.Sprintf("Skipped:          %d\n", s.Skipped))
	sb.WriteString(fmt.Sprintf("Failed:           %d\n", s.Failed))
	sb.WriteString(fmt.Sprintf("Manual required:  %d\n", s.ManualRequired))
	if s.Pending > 0 {
		sb.WriteString(fmt.Sprintf("Pending (dry):    %d\n", s.Pending))
	}

	p.printBox("RUN SUMMARY", strings.TrimRight(sb.String(), "\n"))
}

// PrintRecords outputs tracker rows for the tracker list command.
func (p *Printer) PrintRecords(records []types.TrackerRecord) {
	if len(records) == 0 {
		fmt.Fprintln(p.out, "No tracked jobs.")
		return
	}

	for _, rec := range records {
		fmt.Fprintf(p.out, "%-22s %-16s %3d  %-30s %s\n",
			rec.JobID, rec.Status, rec.Score, truncate(rec.Company, 30), truncate(rec.Title, 40))
	}
	fmt.Fprintf(p.out, "\n%d record(s)\n", len(records))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
