package auth

import (
	"time"

	"github.com/kuitang/pwhelpers/driver"
	"github.com/kuitang/pwhelpers/errs"
)

// Advisory is the outcome of a best-effort step. A non-nil Err was observed and ignored.
type Advisory struct {
	Step string
	Err  error
}

// Settled reports whether the step completed without error.
func (a Advisory) Settled() bool {
	return a.Err == nil
}

const (
	stepLoginPageIdle  = "login_page_network_idle"
	stepCompletionIdle = "completion_network_idle"
)

// CompletionOptions configures AwaitLoginCompletion.
type CompletionOptions struct {
	// URL is a glob string, *regexp.Regexp or func(string) bool. Nil skips the URL wait.
	URL any
	// Timeout applies to each wait. Default DefaultTimeout.
	Timeout time.Duration
}

// AwaitLoginCompletion waits for the network to settle, then for the page URL to match
// opts.URL. The network-idle wait is advisory and its failure is returned, not raised. The
// URL wait is authoritative: if it fails the login did not complete.
func AwaitLoginCompletion(page driver.Page, opts CompletionOptions) (Advisory, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	idle := Advisory{Step: stepCompletionIdle, Err: page.WaitForNetworkIdle(timeout)}
	if opts.URL == nil {
		return idle, nil
	}
	if err := page.WaitForURL(opts.URL, timeout); err != nil {
		return idle, errs.Wrap(errs.CodeOf(err), "login did not complete", err)
	}
	return idle, nil
}
