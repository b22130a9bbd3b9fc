// Package scraper collects job listings from supported job boards.
package scraper

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sekbote/job-applier/internal/types"
)

// Query describes a job search across one or more platforms.
type Query struct {
	Role      string
	Locations []string
	Platforms []string
	DaysBack  int
	Limit     int
}

// Scraper fetches job listings matching a query.
type Scraper interface {
	Scrape(ctx context.Context, q Query) ([]types.JobListing, error)
}

// ScrapeError represents a scraping failure for a platform.
type ScrapeError struct {
	Platform string
	Message  string
	Cause    error
}

func (e *ScrapeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("scrape %s: %s: %v", e.Platform, e.Message, e.Cause)
	}
	return fmt.Sprintf("scrape %s: %s", e.Platform, e.Message)
}

func (e *ScrapeError) Unwrap() error {
	return e.Cause
}

// platformScraper fetches listings from a single job board.
type platformScraper interface {
	Platform() string
	scrape(ctx context.Context, role, location string, daysBack, limit int) ([]types.JobListing, error)
}

// Multi fans a query out across platform scrapers. Individual platform
// failures are logged and skipped; the scrape only fails when every
// requested platform fails.
type Multi struct {
	scrapers map[string]platformScraper
	logger   *zap.Logger
}

// NewMulti creates a Multi covering the supported platforms.
func NewMulti(logger *zap.Logger) *Multi {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Multi{
		scrapers: map[string]platformScraper{
			"linkedin":  newLinkedIn(),
			"indeed":    newIndeed(),
			"glassdoor": newGlassdoor(),
		},
		logger: logger,
	}
}

// Scrape runs the query against every requested platform concurrently and
// returns deduplicated listings, at most q.Limit of them.
func (m *Multi) Scrape(ctx context.Context, q Query) ([]types.JobListing, error) {
	locations := q.Locations
	if len(locations) == 0 {
		locations = []string{""}
	}

	var (
		mu       sync.Mutex
		all      []types.JobListing
		failures []error
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, name := range q.Platforms {
		ps, ok := m.scrapers[name]
		if !ok {
			m.logger.Warn("unsupported platform", zap.String("platform", name))
			continue
		}
		g.Go(func() error {
			var jobs []types.JobListing
			var lastErr error
			for _, loc := range locations {
				found, err := ps.scrape(gctx, q.Role, loc, q.DaysBack, q.Limit)
				if err != nil {
					lastErr = err
					m.logger.Warn("platform scrape failed",
						zap.String("platform", ps.Platform()),
						zap.String("location", loc),
						zap.Error(err))
					continue
				}
				jobs = append(jobs, found...)
			}
			mu.Lock()
			defer mu.Unlock()
			if len(jobs) == 0 && lastErr != nil {
				failures = append(failures, lastErr)
				return nil
			}
			all = append(all, jobs...)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(all) == 0 && len(failures) > 0 && len(failures) >= countSupported(m, q.Platforms) {
		return nil, &ScrapeError{Platform: "all", Message: "every platform failed", Cause: failures[0]}
	}

	deduped := dedupe(all)
	sort.SliceStable(deduped, func(i, j int) bool {
		if deduped[i].Platform != deduped[j].Platform {
			return deduped[i].Platform < deduped[j].Platform
		}
		return deduped[i].Title < deduped[j].Title
	})
	if q.Limit > 0 && len(deduped) > q.Limit {
		deduped = deduped[:q.Limit]
	}
	return deduped, nil
}

func countSupported(m *Multi, platforms []string) int {
	n := 0
	for _, p := range platforms {
		if _, ok := m.scrapers[p]; ok {
			n++
		}
	}
	return n
}

func dedupe(jobs []types.JobListing) []types.JobListing {
	seen := make(map[string]struct{}, len(jobs))
	out := make([]types.JobListing, 0, len(jobs))
	for _, j := range jobs {
		if _, ok := seen[j.ID]; ok {
			continue
		}
		seen[j.ID] = struct{}{}
		out = append(out, j)
	}
	return out
}
