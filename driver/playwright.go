package driver

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/kuitang/pwhelpers/errs"
)

// PlaywrightPage adapts a playwright.Page to Page.
type PlaywrightPage struct {
	page playwright.Page
}

var _ Page = (*PlaywrightPage)(nil)

// NewPlaywrightPage wraps page.
func NewPlaywrightPage(page playwright.Page) *PlaywrightPage {
	return &PlaywrightPage{page: page}
}

// Unwrap returns the underlying playwright page.
func (p *PlaywrightPage) Unwrap() playwright.Page {
	return p.page
}

func (p *PlaywrightPage) locator(sel Selector) playwright.Locator {
	if sel.TestID != "" {
		return p.page.GetByTestId(sel.TestID)
	}
	return p.page.Locator(sel.CSS)
}

// Goto navigates to url. Relative URLs resolve against the context's BaseURL.
func (p *PlaywrightPage) Goto(url string) error {
	if _, err := p.page.Goto(url); err != nil {
		return classify(errs.Unavailable, fmt.Sprintf("navigate to %s", url), err)
	}
	return nil
}

// AddInitScript registers JavaScript that runs before any page script on every load.
func (p *PlaywrightPage) AddInitScript(script string) error {
	if err := p.page.AddInitScript(playwright.Script{Content: playwright.String(script)}); err != nil {
		return classify(errs.Internal, "add init script", err)
	}
	return nil
}

// AbortRequests aborts every request whose URL matches urlPattern.
func (p *PlaywrightPage) AbortRequests(urlPattern string) error {
	err := p.page.Route(urlPattern, func(route playwright.Route) {
		_ = route.Abort()
	})
	if err != nil {
		return classify(errs.Internal, fmt.Sprintf("route %s", urlPattern), err)
	}
	return nil
}

// WaitForNetworkIdle waits for the networkidle load state.
func (p *PlaywrightPage) WaitForNetworkIdle(timeout time.Duration) error {
	err := p.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateNetworkidle,
		Timeout: milliseconds(timeout),
	})
	if err != nil {
		return classify(errs.Internal, "wait for network idle", err)
	}
	return nil
}

// WaitForURL waits until the page URL matches pattern.
func (p *PlaywrightPage) WaitForURL(pattern any, timeout time.Duration) error {
	err := p.page.WaitForURL(pattern, playwright.PageWaitForURLOptions{
		Timeout: milliseconds(timeout),
	})
	if err != nil {
		return classify(errs.Internal, fmt.Sprintf("wait for URL %v (current %s)", pattern, p.page.URL()), err)
	}
	return nil
}

// WaitVisible waits until one of candidates is visible.
func (p *PlaywrightPage) WaitVisible(timeout time.Duration, candidates ...Selector) error {
	if len(candidates) == 0 {
		return errs.New(errs.InvalidArgument, "wait visible: no selectors")
	}
	loc := p.locator(candidates[0])
	for _, sel := range candidates[1:] {
		loc = loc.Or(p.locator(sel))
	}
	err := loc.First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: milliseconds(timeout),
	})
	if err != nil {
		return classify(errs.Internal, fmt.Sprintf("wait for %v to be visible", candidates), err)
	}
	return nil
}

// IsVisible reports whether sel is currently visible, without waiting.
func (p *PlaywrightPage) IsVisible(sel Selector) (bool, error) {
	visible, err := p.locator(sel).First().IsVisible()
	if err != nil {
		return false, classify(errs.Internal, fmt.Sprintf("probe %s", sel), err)
	}
	return visible, nil
}

// Fill fills the first element matching sel.
func (p *PlaywrightPage) Fill(sel Selector, value string) error {
	if err := p.locator(sel).First().Fill(value); err != nil {
		return classify(errs.Internal, fmt.Sprintf("fill %s", sel), err)
	}
	return nil
}

// Click clicks the first element matching sel.
func (p *PlaywrightPage) Click(sel Selector) error {
	if err := p.locator(sel).First().Click(); err != nil {
		return classify(errs.Internal, fmt.Sprintf("click %s", sel), err)
	}
	return nil
}

// StorageState captures cookies and origin storage of the page's context as JSON.
func (p *PlaywrightPage) StorageState() ([]byte, error) {
	state, err := p.page.Context().StorageState()
	if err != nil {
		return nil, classify(errs.Internal, "capture storage state", err)
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return nil, errs.Wrap(errs.Internal, "encode storage state", err)
	}
	return data, nil
}

// classify maps playwright timeouts to errs.Timeout and everything else to fallback.
func classify(fallback errs.Code, op string, err error) error {
	if errors.Is(err, playwright.ErrTimeout) {
		return errs.Wrap(errs.Timeout, op, err)
	}
	return errs.Wrap(fallback, op, err)
}

func milliseconds(d time.Duration) *float64 {
	if d <= 0 {
		return nil
	}
	return playwright.Float(float64(d.Milliseconds()))
}
