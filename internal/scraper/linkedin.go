package scraper

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"golang.org/x/time/rate"

	"github.com/sekbote/job-applier/internal/types"
)

// linkedIn scrapes the LinkedIn guest job search pages. The guest pages are
// server-rendered and do not require a session.
type linkedIn struct {
	limiter *rate.Limiter
	baseURL string
}

func newLinkedIn() *linkedIn {
	return &linkedIn{
		limiter: rate.NewLimiter(rate.Every(2*time.Second), 1),
		baseURL: "https://www.linkedin.com",
	}
}

func (l *linkedIn) Platform() string { return "linkedin" }

func (l *linkedIn) scrape(ctx context.Context, role, location string, daysBack, limit int) ([]types.JobListing, error) {
	var jobs []types.JobListing

	c := newCollector(ctx, l.limiter)

	var scrapeErr error
	c.OnError(func(r *colly.Response, err error) {
		scrapeErr = &ScrapeError{
			Platform: "linkedin",
			Message:  fmt.Sprintf("status %d for %s", r.StatusCode, r.Request.URL),
			Cause:    err,
		}
	})

	c.OnHTML("div.base-card", func(e *colly.HTMLElement) {
		if limit > 0 && len(jobs) >= limit {
			return
		}
		title := strings.TrimSpace(e.ChildText("h3.base-search-card__title"))
		company := strings.TrimSpace(e.ChildText("h4.base-search-card__subtitle"))
		if title == "" || company == "" {
			return
		}
		link := e.ChildAttr("a.base-card__full-link", "href")
		if link == "" {
			return
		}
		link = stripTrackingQuery(link)
		jobs = append(jobs, types.JobListing{
			ID:         types.MakeJobID("linkedin", link, company, title),
			Title:      title,
			Company:    company,
			Location:   strings.TrimSpace(e.ChildText("span.job-search-card__location")),
			ApplyURL:   link,
			Platform:   "linkedin",
			PostedDate: strings.TrimSpace(e.ChildAttr("time.job-search-card__listdate", "datetime")),
			ScrapedAt:  time.Now(),
		})
	})

	searchURL := fmt.Sprintf("%s/jobs/search?keywords=%s&location=%s&f_TPR=r%d",
		l.baseURL,
		url.QueryEscape(role),
		url.QueryEscape(location),
		daysBack*86400,
	)
	if err := c.Visit(searchURL); err != nil {
		return nil, &ScrapeError{Platform: "linkedin", Message: "visit failed", Cause: err}
	}
	c.Wait()

	if len(jobs) == 0 && scrapeErr != nil {
		return nil, scrapeErr
	}
	return jobs, nil
}

// stripTrackingQuery drops the query string from a job link so the same
// posting hashes to the same ID across runs.
func stripTrackingQuery(link string) string {
	if i := strings.IndexByte(link, '?'); i >= 0 {
		return link[:i]
	}
	return link
}
