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

type indeed struct {
	limiter *rate.Limiter
	baseURL string
}

func newIndeed() *indeed {
	return &indeed{
		limiter: rate.NewLimiter(rate.Every(2*time.Second), 1),
		baseURL: "https://www.indeed.com",
	}
}

func (in *indeed) Platform() string { return "indeed" }

func (in *indeed) scrape(ctx context.Context, role, location string, daysBack, limit int) ([]types.JobListing, error) {
	var jobs []types.JobListing

	c := newCollector(ctx, in.limiter)

	var scrapeErr error
	c.OnError(func(r *colly.Response, err error) {
		scrapeErr = &ScrapeError{
			Platform: "indeed",
			Message:  fmt.Sprintf("status %d for %s", r.StatusCode, r.Request.URL),
			Cause:    err,
		}
	})

	c.OnHTML("div.job_seen_beacon", func(e *colly.HTMLElement) {
		if limit > 0 && len(jobs) >= limit {
			return
		}
		title := strings.TrimSpace(e.ChildAttr("h2.jobTitle span[title]", "title"))
		if title == "" {
			title = strings.TrimSpace(e.ChildText("h2.jobTitle"))
		}
		company := strings.TrimSpace(e.ChildText("span.companyName"))
		if company == "" {
			company = strings.TrimSpace(e.ChildText("[data-testid='company-name']"))
		}
		if title == "" || company == "" {
			return
		}
		href := e.ChildAttr("h2.jobTitle a", "href")
		if href == "" {
			return
		}
		link := e.Request.AbsoluteURL(stripTrackingQuery(href))
		jobs = append(jobs, types.JobListing{
			ID:          types.MakeJobID("indeed", link, company, title),
			Title:       title,
			Company:     company,
			Location:    strings.TrimSpace(e.ChildText("div.companyLocation")),
			Description: strings.TrimSpace(e.ChildText("div.job-snippet")),
			ApplyURL:    link,
			Platform:    "indeed",
			PostedDate:  strings.TrimSpace(e.ChildText("span.date")),
			ScrapedAt:   time.Now(),
		})
	})

	searchURL := fmt.Sprintf("%s/jobs?q=%s&l=%s&fromage=%d",
		in.baseURL,
		url.QueryEscape(role),
		url.QueryEscape(location),
		daysBack,
	)
	if err := c.Visit(searchURL); err != nil {
		return nil, &ScrapeError{Platform: "indeed", Message: "visit failed", Cause: err}
	}
	c.Wait()

	if len(jobs) == 0 && scrapeErr != nil {
		return nil, scrapeErr
	}
	return jobs, nil
}
