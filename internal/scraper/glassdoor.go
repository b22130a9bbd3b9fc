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

// glassdoor scrapes the Glassdoor job search SERP. Glassdoor is aggressive
// about bot detection, so failures here are common and non-fatal as long as
// another platform succeeds.
type glassdoor struct {
	limiter *rate.Limiter
	baseURL string
}

func newGlassdoor() *glassdoor {
	return &glassdoor{
		limiter: rate.NewLimiter(rate.Every(3*time.Second), 1),
		baseURL: "https://www.glassdoor.com",
	}
}

func (g *glassdoor) Platform() string { return "glassdoor" }

func (g *glassdoor) scrape(ctx context.Context, role, location string, daysBack, limit int) ([]types.JobListing, error) {
	var jobs []types.JobListing

	c := newCollector(ctx, g.limiter)

	var scrapeErr error
	c.OnError(func(r *colly.Response, err error) {
		scrapeErr = &ScrapeError{
			Platform: "glassdoor",
			Message:  fmt.Sprintf("status %d for %s", r.StatusCode, r.Request.URL),
			Cause:    err,
		}
	})

	c.OnHTML("li[data-test='jobListing']", func(e *colly.HTMLElement) {
		if limit > 0 && len(jobs) >= limit {
			return
		}
		title := strings.TrimSpace(e.ChildText("a[data-test='job-title']"))
		company := strings.TrimSpace(e.ChildText("span.EmployerProfile_compactEmployerName__9MGcV"))
		if company == "" {
			company = strings.TrimSpace(e.ChildText("[data-test='employer-name']"))
		}
		if title == "" || company == "" {
			return
		}
		href := e.ChildAttr("a[data-test='job-title']", "href")
		if href == "" {
			return
		}
		link := e.Request.AbsoluteURL(stripTrackingQuery(href))
		jobs = append(jobs, types.JobListing{
			ID:         types.MakeJobID("glassdoor", link, company, title),
			Title:      title,
			Company:    company,
			Location:   strings.TrimSpace(e.ChildText("[data-test='emp-location']")),
			ApplyURL:   link,
			Platform:   "glassdoor",
			PostedDate: strings.TrimSpace(e.ChildText("[data-test='job-age']")),
			ScrapedAt:  time.Now(),
		})
	})

	searchURL := fmt.Sprintf("%s/Job/jobs.htm?sc.keyword=%s&locKeyword=%s&fromAge=%d",
		g.baseURL,
		url.QueryEscape(role),
		url.QueryEscape(location),
		daysBack,
	)
	if err := c.Visit(searchURL); err != nil {
		return nil, &ScrapeError{Platform: "glassdoor", Message: "visit failed", Cause: err}
	}
	c.Wait()

	if len(jobs) == 0 && scrapeErr != nil {
		return nil, scrapeErr
	}
	return jobs, nil
}
