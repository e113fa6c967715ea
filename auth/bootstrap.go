// Package auth logs a test user into the application through a browser page and persists
// the resulting session so later tests can start authenticated.
//
// The bootstrap order is fixed: stale-state cleanup, tracking-flag init script, navigation,
// login form, optional TAN, completion detection, persistence. Persistence only happens
// after completion detection succeeds, so a failed run never leaves a state file behind.
package auth

import (
	"context"
	"os"

	"github.com/google/uuid"

	"github.com/kuitang/pwhelpers/driver"
	"github.com/kuitang/pwhelpers/errs"
	"github.com/kuitang/pwhelpers/internal/config"
	"github.com/kuitang/pwhelpers/internal/obs"
	"github.com/kuitang/pwhelpers/statestore"
)

// FormVariant identifies which login form the page rendered.
type FormVariant int

const (
	FormUnknown FormVariant = iota
	// FormLegacy submits username and password in one step.
	FormLegacy
	// FormCurrent asks for the username first, then the password.
	FormCurrent
)

func (v FormVariant) String() string {
	switch v {
	case FormLegacy:
		return "legacy"
	case FormCurrent:
		return "current"
	default:
		return "unknown"
	}
}

func (v FormVariant) username(s Selectors) driver.Selector {
	if v == FormLegacy {
		return s.LegacyUsername
	}
	return s.CurrentUsername
}

func (v FormVariant) password(s Selectors) driver.Selector {
	if v == FormLegacy {
		return s.LegacyPassword
	}
	return s.CurrentPassword
}

func (v FormVariant) submit(s Selectors) driver.Selector {
	if v == FormLegacy {
		return s.LegacySubmit
	}
	return s.CurrentSubmit
}

// Report describes a bootstrap run. It is returned on failure too, filled up to the
// step that failed.
type Report struct {
	RunID      string
	Config     Resolved
	Variant    FormVariant
	Cleanup    CleanupOutcome
	Advisories []Advisory
	// StatePath is set once the state file has been written.
	StatePath string
	// MirrorLocation is set once the state has been mirrored.
	MirrorLocation string
}

// Bootstrapper runs the login bootstrap with injectable collaborators. The zero value
// uses the process environment, os.RemoveAll and statestore.FileStore.
type Bootstrapper struct {
	Env       config.Env
	RemoveAll func(path string) error
	Store     statestore.Store
	// Mirror, when set, receives the state after the local file is written.
	Mirror   statestore.Mirror
	NewRunID func() string
}

// Bootstrap logs in through page with the zero Bootstrapper.
func Bootstrap(ctx context.Context, page driver.Page, opts Options) (*Report, error) {
	return (&Bootstrapper{}).Run(ctx, page, opts)
}

// Run executes the bootstrap. Any failing required step aborts the run without
// persisting state; nothing is retried.
func (b *Bootstrapper) Run(ctx context.Context, page driver.Page, opts Options) (*Report, error) {
	env := b.Env
	if env == nil {
		env = config.Process()
	}
	newRunID := b.NewRunID
	if newRunID == nil {
		newRunID = uuid.NewString
	}

	report := &Report{RunID: newRunID()}
	cfg, err := Resolve(opts, env)
	if err != nil {
		return report, err
	}
	report.Config = cfg

	ctx = obs.WithCorrelation(ctx, obs.Correlation{RunID: report.RunID, User: cfg.User, StatePath: cfg.StatePath})
	logger := obs.From(ctx, "auth")
	logger.Info("login bootstrap started", "login_url", cfg.LoginURL, "second_factor", cfg.SecondFactor)

	removeAll := b.RemoveAll
	if removeAll == nil {
		removeAll = os.RemoveAll
	}
	report.Cleanup = cleanStaleState(cfg.StatePath, cfg.StateCleanup, removeAll)
	if report.Cleanup.Err != nil {
		logger.Warn("stale state cleanup failed", "target", report.Cleanup.Target, "error", report.Cleanup.Err)
	} else {
		logger.Debug("stale state cleanup", "decision", report.Cleanup.Decision, "target", report.Cleanup.Target)
	}

	if cfg.DeactivateTracking {
		if err := page.AddInitScript(TrackingFlagsScript); err != nil {
			return report, stepError("register tracking-flag script", err)
		}
	}

	if err := page.Goto(cfg.LoginURL); err != nil {
		return report, stepError("open login page", err)
	}
	if err := page.WaitForNetworkIdle(cfg.Timeout); err != nil {
		report.Advisories = append(report.Advisories, Advisory{Step: stepLoginPageIdle, Err: err})
		logger.Debug("login page did not reach network idle", "error", err)
	}

	variant, err := detectFormVariant(page, cfg)
	if err != nil {
		return report, err
	}
	report.Variant = variant
	logger.Debug("login form detected", "variant", variant.String())

	if err := submitCredentials(page, cfg, variant, opts.Pass); err != nil {
		return report, err
	}

	if cfg.SecondFactor {
		if err := submitSecondFactor(ctx, page, cfg, opts.SecondFactor); err != nil {
			return report, err
		}
	}

	idle, err := AwaitLoginCompletion(page, CompletionOptions{URL: cfg.SuccessURL, Timeout: cfg.Timeout})
	if !idle.Settled() {
		report.Advisories = append(report.Advisories, idle)
	}
	if err != nil {
		logger.Error("login did not complete", "error", err)
		return report, err
	}

	if err := b.persist(ctx, page, cfg, report); err != nil {
		logger.Error("persist login state failed", "error", err)
		return report, err
	}
	logger.Info("login bootstrap finished", "variant", variant.String(), "mirror", report.MirrorLocation)
	return report, nil
}

func detectFormVariant(page driver.Page, cfg Resolved) (FormVariant, error) {
	sel := cfg.Selectors
	if err := page.WaitVisible(cfg.Timeout, sel.LegacyUsername, sel.CurrentUsername); err != nil {
		return FormUnknown, stepError("find username field", err)
	}
	legacy, err := page.IsVisible(sel.LegacyUsername)
	if err != nil {
		return FormUnknown, stepError("probe legacy login form", err)
	}
	if legacy {
		return FormLegacy, nil
	}
	return FormCurrent, nil
}

func submitCredentials(page driver.Page, cfg Resolved, variant FormVariant, pass string) error {
	sel := cfg.Selectors
	if err := page.Fill(variant.username(sel), cfg.User); err != nil {
		return stepError("fill username", err)
	}
	if variant == FormCurrent {
		if err := page.Click(sel.CurrentSubmit); err != nil {
			return stepError("submit username", err)
		}
	}
	if err := page.Fill(variant.password(sel), pass); err != nil {
		return stepError("fill password", err)
	}
	if err := page.Click(variant.submit(sel)); err != nil {
		return stepError("submit password", err)
	}
	return nil
}

func submitSecondFactor(ctx context.Context, page driver.Page, cfg Resolved, supply SecondFactorFunc) error {
	sel := cfg.Selectors
	if err := page.WaitVisible(cfg.Timeout, sel.TANInput); err != nil {
		return stepError("wait for TAN field", err)
	}
	code, err := supply(ctx)
	if err != nil {
		return stepError("obtain TAN", err)
	}
	if !isTAN(code) {
		return errs.New(errs.InvalidArgument, "TAN must be exactly 6 digits")
	}
	if err := page.Fill(sel.TANInput, code); err != nil {
		return stepError("fill TAN", err)
	}
	if err := page.Click(sel.TANSubmit); err != nil {
		return stepError("submit TAN", err)
	}
	return nil
}

func (b *Bootstrapper) persist(ctx context.Context, page driver.Page, cfg Resolved, report *Report) error {
	state, err := page.StorageState()
	if err != nil {
		return stepError("capture login state", err)
	}

	store := b.Store
	if store == nil {
		store = statestore.FileStore{}
	}
	if err := store.Save(ctx, cfg.StatePath, state); err != nil {
		return errs.Wrap(errs.Internal, "write login state", err)
	}
	report.StatePath = cfg.StatePath

	if b.Mirror != nil {
		if err := b.Mirror.Upload(ctx, state); err != nil {
			return errs.Wrap(errs.Unavailable, "mirror login state", err)
		}
		report.MirrorLocation = b.Mirror.Location()
	}
	return nil
}

// stepError keeps the driver's error code and names the step that failed.
func stepError(step string, err error) error {
	return errs.Wrap(errs.CodeOf(err), step, err)
}

func isTAN(code string) bool {
	if len(code) != TANLength {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
