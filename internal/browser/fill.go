package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// findByLabelJS resolves a form control by its visible label. Resolution order:
// label[for] text, placeholder, aria-label, name, id. Matching is a
// case-insensitive substring test.
const findByLabelJS = `(function(label) {
	const needle = label.toLowerCase();
	const matches = (s) => s && s.toLowerCase().includes(needle);
	for (const lab of document.querySelectorAll('label[for]')) {
		if (matches(lab.innerText)) {
			const el = document.getElementById(lab.htmlFor);
			if (el) return el;
		}
	}
	for (const el of document.querySelectorAll('input, textarea, select')) {
		if (matches(el.placeholder) || matches(el.getAttribute('aria-label')) ||
			matches(el.name) || matches(el.id)) {
			return el;
		}
	}
	return null;
})`

// FillByLabel locates a form field by its label and types the value into it.
// Returns an error when no field matches.
func (s *Session) FillByLabel(ctx context.Context, label, value string) error {
	runCtx, cancel := s.bound(ctx, 15*time.Second)
	defer cancel()

	js := fmt.Sprintf(`(function() {
		const el = %s(%q);
		if (!el) return false;
		if (el.tagName === 'SELECT') {
			const want = %q.toLowerCase();
			for (const opt of el.options) {
				if (opt.text.toLowerCase().includes(want)) { el.value = opt.value; break; }
			}
		} else {
			el.focus();
			el.value = %q;
		}
		el.dispatchEvent(new Event('input', {bubbles: true}));
		el.dispatchEvent(new Event('change', {bubbles: true}));
		return true;
	})()`, findByLabelJS, label, value, value)

	var ok bool
	if err := chromedp.Run(runCtx, chromedp.Evaluate(js, &ok)); err != nil {
		return &SessionError{Message: fmt.Sprintf("filling field %q", label), Cause: err}
	}
	if !ok {
		return &SessionError{Message: fmt.Sprintf("no field matched label %q", label)}
	}
	return nil
}

// FillSelector types a value into the element matching a CSS selector.
func (s *Session) FillSelector(ctx context.Context, selector, value string) error {
	runCtx, cancel := s.bound(ctx, 15*time.Second)
	defer cancel()
	err := chromedp.Run(runCtx,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Clear(selector, chromedp.ByQuery),
		chromedp.SendKeys(selector, value, chromedp.ByQuery),
	)
	if err != nil {
		return &SessionError{Message: fmt.Sprintf("filling selector %q", selector), Cause: err}
	}
	return nil
}

// UploadResume attaches the resume file to the page's file input.
func (s *Session) UploadResume(ctx context.Context, resumePath string) error {
	runCtx, cancel := s.bound(ctx, 20*time.Second)
	defer cancel()
	err := chromedp.Run(runCtx,
		chromedp.SetUploadFiles(`input[type="file"]`, []string{resumePath}, chromedp.ByQuery),
		chromedp.Sleep(2*time.Second),
	)
	if err != nil {
		return &SessionError{Message: "uploading resume", Cause: err}
	}
	return nil
}

// ClickButton clicks the first visible button whose text contains the given
// string, case-insensitively. Returns an error when no button matches.
func (s *Session) ClickButton(ctx context.Context, text string) error {
	runCtx, cancel := s.bound(ctx, 15*time.Second)
	defer cancel()

	// CSS has no :contains(), so the lookup runs in page JS.
	js := fmt.Sprintf(`(function() {
		const needle = %q.toLowerCase();
		const candidates = document.querySelectorAll('button, a[role="button"], input[type="submit"]');
		for (const el of candidates) {
			const label = (el.innerText || el.value || el.getAttribute('aria-label') || '').trim().toLowerCase();
			if (label.includes(needle) && el.offsetParent !== null) {
				el.click();
				return true;
			}
		}
		return false;
	})()`, text)

	var ok bool
	if err := chromedp.Run(runCtx, chromedp.Evaluate(js, &ok)); err != nil {
		return &SessionError{Message: fmt.Sprintf("clicking %q", text), Cause: err}
	}
	if !ok {
		return &SessionError{Message: fmt.Sprintf("no visible button matched %q", text)}
	}
	return nil
}

// ClickSelector clicks the element matching a CSS selector.
func (s *Session) ClickSelector(ctx context.Context, selector string) error {
	runCtx, cancel := s.bound(ctx, 15*time.Second)
	defer cancel()
	err := chromedp.Run(runCtx,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Click(selector, chromedp.ByQuery),
	)
	if err != nil {
		return &SessionError{Message: fmt.Sprintf("clicking selector %q", selector), Cause: err}
	}
	return nil
}

// ElementExists reports whether a selector matches anything on the page.
func (s *Session) ElementExists(ctx context.Context, selector string) (bool, error) {
	runCtx, cancel := s.bound(ctx, 10*time.Second)
	defer cancel()
	var ok bool
	js := fmt.Sprintf(`document.querySelector(%q) !== null`, selector)
	if err := chromedp.Run(runCtx, chromedp.Evaluate(js, &ok)); err != nil {
		return false, &SessionError{Message: fmt.Sprintf("checking selector %q", selector), Cause: err}
	}
	return ok, nil
}
