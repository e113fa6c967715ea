// Package driver defines the small slice of a browser page that the test helpers need,
// and adapts a playwright-go Page to it.
//
// Helpers depend on the Page interface rather than on playwright directly so their
// ordering and fallback logic can be exercised with drivertest.Recorder.
package driver

import (
	"time"
)

// Selector identifies an element either by test id (data-testid) or by CSS selector.
type Selector struct {
	TestID string
	CSS    string
}

// TestID selects by data-testid.
func TestID(id string) Selector {
	return Selector{TestID: id}
}

// CSS selects by CSS selector.
func CSS(selector string) Selector {
	return Selector{CSS: selector}
}

// IsZero reports whether the selector is unset.
func (s Selector) IsZero() bool {
	return s.TestID == "" && s.CSS == ""
}

func (s Selector) String() string {
	if s.TestID != "" {
		return "testid=" + s.TestID
	}
	return "css=" + s.CSS
}

// Page is a browser page as seen by the helpers.
//
// URL patterns passed to WaitForURL follow playwright: a glob string, a *regexp.Regexp or a
// func(string) bool.
type Page interface {
	Goto(url string) error
	AddInitScript(script string) error
	AbortRequests(urlPattern string) error
	WaitForNetworkIdle(timeout time.Duration) error
	WaitForURL(pattern any, timeout time.Duration) error
	// WaitVisible waits until at least one of the candidates is visible.
	WaitVisible(timeout time.Duration, candidates ...Selector) error
	IsVisible(sel Selector) (bool, error)
	Fill(sel Selector, value string) error
	Click(sel Selector) error
	// StorageState returns the serialized session (cookies, local storage) as JSON.
	StorageState() ([]byte, error)
}
