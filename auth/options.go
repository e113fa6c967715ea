package auth

import (
	"context"
	"regexp"
	"time"

	"github.com/kuitang/pwhelpers/driver"
	"github.com/kuitang/pwhelpers/errs"
	"github.com/kuitang/pwhelpers/internal/config"
	"github.com/kuitang/pwhelpers/internal/urlutil"
)

const (
	// DefaultBaseURL is used when neither Options.BaseURL nor BASE_URL is set.
	DefaultBaseURL = "https://my.timocom.com/app/"
	// DefaultStatePath is used when neither Options.StatePath nor AUTH_STATE_PATH is set.
	DefaultStatePath = "playwright/.auth/user.json"
	// DefaultTimeout bounds completion detection and the second-factor field wait.
	DefaultTimeout = 10 * time.Second
	// TANLength is the number of digits a second-factor code must have.
	TANLength = 6
)

// DefaultSuccessURL matches the gateway page the application lands on after login.
var DefaultSuccessURL = regexp.MustCompile(".*tcgate.*")

// TrackingFlagsScript suppresses the onboarding tour and the news dialog on first load.
const TrackingFlagsScript = `window.localStorage.setItem('timocom_joyride_inactive', 'true');
window.sessionStorage.setItem('timocom_news_show_dialog', 'false');`

// SecondFactorFunc supplies a one-time TAN code once the code field is shown.
type SecondFactorFunc func(ctx context.Context) (string, error)

// Selectors locate the login form controls of both UI variants and the TAN step.
type Selectors struct {
	LegacyUsername driver.Selector
	LegacyPassword driver.Selector
	LegacySubmit   driver.Selector

	CurrentUsername driver.Selector
	CurrentPassword driver.Selector
	CurrentSubmit   driver.Selector

	TANInput  driver.Selector
	TANSubmit driver.Selector
}

// DefaultSelectors returns the selectors of the production login pages.
func DefaultSelectors() Selectors {
	return Selectors{
		LegacyUsername: driver.TestID("email"),
		LegacyPassword: driver.TestID("password"),
		LegacySubmit:   driver.TestID("submit-button"),

		CurrentUsername: driver.CSS("input#username"),
		CurrentPassword: driver.CSS("input#password"),
		CurrentSubmit:   driver.CSS("button#kc-login"),

		TANInput:  driver.CSS("input#otp"),
		TANSubmit: driver.CSS("button#kc-tan-submit"),
	}
}

// withDefaults fills every unset selector from DefaultSelectors.
func (s Selectors) withDefaults() Selectors {
	d := DefaultSelectors()
	fill := func(dst *driver.Selector, def driver.Selector) {
		if dst.IsZero() {
			*dst = def
		}
	}
	fill(&s.LegacyUsername, d.LegacyUsername)
	fill(&s.LegacyPassword, d.LegacyPassword)
	fill(&s.LegacySubmit, d.LegacySubmit)
	fill(&s.CurrentUsername, d.CurrentUsername)
	fill(&s.CurrentPassword, d.CurrentPassword)
	fill(&s.CurrentSubmit, d.CurrentSubmit)
	fill(&s.TANInput, d.TANInput)
	fill(&s.TANSubmit, d.TANSubmit)
	return s
}

// Options configures one bootstrap run. User and Pass are required.
type Options struct {
	BaseURL string
	User    string
	Pass    string
	// SuccessURL is a glob string, *regexp.Regexp or func(string) bool. Default DefaultSuccessURL.
	SuccessURL any
	StatePath  string
	// KeepTrackingFlags skips TrackingFlagsScript. The zero value deactivates the flags.
	KeepTrackingFlags bool
	// SecondFactor enables the TAN step when set.
	SecondFactor SecondFactorFunc
	Timeout      time.Duration
	// LoginPath is appended to the base URL to reach the login entry. Empty means the base URL itself.
	LoginPath string
	Selectors Selectors
	// SkipStateCleanup keeps the stale state directory in place.
	SkipStateCleanup bool
}

// Resolved is Options after defaulting.
type Resolved struct {
	BaseURL            string
	LoginURL           string
	User               string
	StatePath          string
	SuccessURL         any
	Timeout            time.Duration
	Selectors          Selectors
	DeactivateTracking bool
	StateCleanup       bool
	SecondFactor       bool
}

// Resolve applies defaults to opts. Environment fallbacks come from env only, never from the
// process, so callers control every input.
func Resolve(opts Options, env config.Env) (Resolved, error) {
	if opts.User == "" || opts.Pass == "" {
		return Resolved{}, errs.New(errs.InvalidArgument, "user and pass are required")
	}

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = env.GetOrDefault(config.EnvBaseURL, DefaultBaseURL)
	}
	baseURL = urlutil.NormalizeBaseURL(baseURL)

	statePath := opts.StatePath
	if statePath == "" {
		statePath = env.GetOrDefault(config.EnvAuthStatePath, DefaultStatePath)
	}

	successURL := opts.SuccessURL
	if successURL == nil {
		successURL = DefaultSuccessURL
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return Resolved{
		BaseURL:            baseURL,
		LoginURL:           urlutil.JoinPath(baseURL, opts.LoginPath),
		User:               opts.User,
		StatePath:          statePath,
		SuccessURL:         successURL,
		Timeout:            timeout,
		Selectors:          opts.Selectors.withDefaults(),
		DeactivateTracking: !opts.KeepTrackingFlags,
		StateCleanup:       !opts.SkipStateCleanup,
		SecondFactor:       opts.SecondFactor != nil,
	}, nil
}
