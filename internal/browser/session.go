// Package browser owns the shared headless-browser session used to submit
// applications.
package browser

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// SessionError represents a browser automation failure.
type SessionError struct {
	Message string
	Cause   error
}

func (e *SessionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("browser: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("browser: %s", e.Message)
}

func (e *SessionError) Unwrap() error {
	return e.Cause
}

// TwoFactorError is returned by Login when the site presents a verification
// checkpoint that only a human can pass.
type TwoFactorError struct {
	URL string
}

func (e *TwoFactorError) Error() string {
	return fmt.Sprintf("browser: login hit a verification checkpoint at %s", e.URL)
}

// Options configures a Session.
type Options struct {
	Headless   bool
	CookiePath string
	ChromePath string
	Logger     *zap.Logger
}

// Session wraps one Chrome instance reused across application attempts. A
// single session keeps cookies and login state alive for the whole run.
type Session struct {
	ctx         context.Context
	cancelCtx   context.CancelFunc
	cancelAlloc context.CancelFunc
	cookiePath  string
	logger      *zap.Logger
}

// NewSession starts Chrome with automation-hiding flags and restores any
// persisted cookies.
func NewSession(ctx context.Context, opts Options) (*Session, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(defaultUserAgent),
	)
	if opts.ChromePath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ChromePath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, cancelCtx := chromedp.NewContext(allocCtx)

	// Start the browser so cookie restore has a target.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelCtx()
		cancelAlloc()
		return nil, &SessionError{Message: "starting browser", Cause: err}
	}

	s := &Session{
		ctx:         browserCtx,
		cancelCtx:   cancelCtx,
		cancelAlloc: cancelAlloc,
		cookiePath:  opts.CookiePath,
		logger:      logger,
	}

	if opts.CookiePath != "" {
		if err := s.restoreCookies(); err != nil {
			if !os.IsNotExist(err) {
				logger.Warn("cookie restore failed", zap.Error(err))
			}
		} else {
			logger.Debug("session cookies restored", zap.String("path", opts.CookiePath))
		}
	}

	return s, nil
}

// Close persists cookies and shuts the browser down.
func (s *Session) Close() error {
	if s.cookiePath != "" {
		if err := s.saveCookies(); err != nil {
			s.logger.Warn("cookie save failed", zap.Error(err))
		}
	}
	s.cancelCtx()
	s.cancelAlloc()
	return nil
}

// Navigate loads a URL and waits for the document body.
func (s *Session) Navigate(ctx context.Context, url string) error {
	runCtx, cancel := s.bound(ctx, 45*time.Second)
	defer cancel()
	err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(2*time.Second),
	)
	if err != nil {
		return &SessionError{Message: fmt.Sprintf("navigating to %s", url), Cause: err}
	}
	return nil
}

// CurrentURL returns the location of the active page.
func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	runCtx, cancel := s.bound(ctx, 10*time.Second)
	defer cancel()
	var loc string
	if err := chromedp.Run(runCtx, chromedp.Location(&loc)); err != nil {
		return "", &SessionError{Message: "reading location", Cause: err}
	}
	return loc, nil
}

// BodyText returns the visible text of the current page.
func (s *Session) BodyText(ctx context.Context) (string, error) {
	runCtx, cancel := s.bound(ctx, 15*time.Second)
	defer cancel()
	var text string
	if err := chromedp.Run(runCtx, chromedp.Text("body", &text, chromedp.ByQuery)); err != nil {
		return "", &SessionError{Message: "reading body text", Cause: err}
	}
	return text, nil
}

// FormHTML returns the outer HTML of the first form on the page, or the whole
// body when no form element exists.
func (s *Session) FormHTML(ctx context.Context) (string, error) {
	runCtx, cancel := s.bound(ctx, 15*time.Second)
	defer cancel()
	var html string
	err := chromedp.Run(runCtx, chromedp.Evaluate(
		`(function(){ const f = document.querySelector('form'); return (f || document.body).outerHTML; })()`,
		&html,
	))
	if err != nil {
		return "", &SessionError{Message: "reading form HTML", Cause: err}
	}
	return html, nil
}

// Screenshot captures a full-page PNG.
func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	runCtx, cancel := s.bound(ctx, 20*time.Second)
	defer cancel()
	var buf []byte
	if err := chromedp.Run(runCtx, chromedp.FullScreenshot(&buf, 90)); err != nil {
		return nil, &SessionError{Message: "capturing screenshot", Cause: err}
	}
	return buf, nil
}

// Login signs in to LinkedIn. A verification checkpoint after submit is a
// TwoFactorError; the caller treats it as requiring manual action.
func (s *Session) Login(ctx context.Context, email, password string) error {
	if err := s.Navigate(ctx, "https://www.linkedin.com/login"); err != nil {
		return err
	}

	loc, err := s.CurrentURL(ctx)
	if err != nil {
		return err
	}
	// Restored cookies may already carry a live session.
	if !containsAny(loc, []string{"/login", "/checkpoint"}) {
		s.logger.Debug("already logged in", zap.String("url", loc))
		return nil
	}

	runCtx, cancel := s.bound(ctx, 60*time.Second)
	defer cancel()
	err = chromedp.Run(runCtx,
		chromedp.WaitVisible("#username", chromedp.ByID),
		chromedp.SendKeys("#username", email, chromedp.ByID),
		chromedp.SendKeys("#password", password, chromedp.ByID),
		chromedp.Click(`button[type="submit"]`, chromedp.ByQuery),
		chromedp.Sleep(5*time.Second),
	)
	if err != nil {
		return &SessionError{Message: "submitting login form", Cause: err}
	}

	loc, err = s.CurrentURL(ctx)
	if err != nil {
		return err
	}
	if containsAny(loc, []string{"/checkpoint", "/challenge"}) {
		return &TwoFactorError{URL: loc}
	}
	if containsAny(loc, []string{"/login"}) {
		return &SessionError{Message: "login rejected, still on login page"}
	}

	if s.cookiePath != "" {
		if err := s.saveCookies(); err != nil {
			s.logger.Warn("cookie save after login failed", zap.Error(err))
		}
	}
	s.logger.Info("logged in", zap.String("url", loc))
	return nil
}

// bound derives a run context that honors both the caller's deadline and the
// session lifetime.
func (s *Session) bound(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	merged, cancelMerge := context.WithCancel(s.ctx)
	go func() {
		select {
		case <-ctx.Done():
			cancelMerge()
		case <-merged.Done():
		}
	}()
	runCtx, cancelTimeout := context.WithTimeout(merged, timeout)
	return runCtx, func() {
		cancelTimeout()
		cancelMerge()
	}
}
