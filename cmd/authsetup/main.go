// Command authsetup logs the test user in with a real Chromium and writes the Playwright
// storage state that browser tests load to start authenticated.
//
// Usage:
//
//	TEST_USER=... TEST_PASS=... go run ./cmd/authsetup -state playwright/.auth/user.json
//
// Set TEST_TAN to answer the second-factor step and STATE_MIRROR_BUCKET/STATE_MIRROR_KEY to
// copy the state to S3 after it is written.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/kuitang/pwhelpers/analytics"
	"github.com/kuitang/pwhelpers/auth"
	"github.com/kuitang/pwhelpers/driver"
	"github.com/kuitang/pwhelpers/errs"
	"github.com/kuitang/pwhelpers/internal/config"
	"github.com/kuitang/pwhelpers/internal/obs"
	"github.com/kuitang/pwhelpers/internal/s3client"
	"github.com/kuitang/pwhelpers/statestore"
)

func main() {
	obs.Init()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := config.Process()
	cfg, err := config.LoadAuthSetup(env, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if err := run(ctx, cfg, env, os.Stdout); err != nil {
		obs.Pkg("authsetup").Error("login bootstrap failed", "code", string(errs.CodeOf(err)), "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.AuthSetupConfig, env config.Env, out io.Writer) error {
	mirror, err := newMirror(ctx, cfg.Mirror)
	if err != nil {
		return err
	}

	browser, err := driver.Launch(cfg.Headless)
	if err != nil {
		return errs.Wrap(errs.Unavailable, "start browser", err)
	}
	defer browser.Close()

	page, bctx, err := browser.NewPage(driver.ContextOptions{BaseURL: cfg.BaseURL})
	if err != nil {
		return errs.Wrap(errs.Unavailable, "open page", err)
	}
	defer bctx.Close()

	if cfg.BlockAnalytics {
		if err := analytics.BlockAll(page); err != nil {
			return err
		}
	}

	b := &auth.Bootstrapper{Env: env}
	if mirror != nil {
		b.Mirror = mirror
	}
	report, err := b.Run(ctx, page, optionsFromConfig(cfg))
	if err != nil {
		return err
	}
	return writeReport(out, report)
}

func optionsFromConfig(cfg *config.AuthSetupConfig) auth.Options {
	opts := auth.Options{
		BaseURL:           cfg.BaseURL,
		User:              cfg.User,
		Pass:              cfg.Pass,
		StatePath:         cfg.StatePath,
		KeepTrackingFlags: cfg.KeepTrackingFlags,
		Timeout:           cfg.Timeout,
		LoginPath:         cfg.LoginPath,
		SkipStateCleanup:  cfg.SkipStateCleanup,
	}
	if cfg.TAN != "" {
		tan := cfg.TAN
		opts.SecondFactor = func(context.Context) (string, error) { return tan, nil }
	}
	return opts
}

func newMirror(ctx context.Context, cfg config.MirrorConfig) (*statestore.S3Mirror, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	client, err := s3client.New(ctx, s3client.Config{
		Endpoint:        cfg.Endpoint,
		Region:          cfg.Region,
		AccessKeyID:     cfg.AccessKeyID,
		SecretAccessKey: cfg.SecretAccessKey,
		Bucket:          cfg.Bucket,
		UsePathStyle:    cfg.Endpoint != "",
	})
	if err != nil {
		return nil, errs.Wrap(errs.InvalidArgument, "configure state mirror", err)
	}
	return statestore.NewS3Mirror(client, cfg.Key), nil
}

type reportJSON struct {
	RunID      string   `json:"run_id"`
	LoginURL   string   `json:"login_url"`
	Variant    string   `json:"form_variant"`
	Cleanup    string   `json:"cleanup"`
	Removed    string   `json:"removed,omitempty"`
	Advisories []string `json:"advisories,omitempty"`
	StatePath  string   `json:"state_path"`
	Mirror     string   `json:"mirror,omitempty"`
}

func writeReport(w io.Writer, report *auth.Report) error {
	out := reportJSON{
		RunID:     report.RunID,
		LoginURL:  report.Config.LoginURL,
		Variant:   report.Variant.String(),
		Cleanup:   string(report.Cleanup.Decision),
		StatePath: report.StatePath,
		Mirror:    report.MirrorLocation,
	}
	if report.Cleanup.Removed() {
		out.Removed = report.Cleanup.Target
	}
	for _, a := range report.Advisories {
		out.Advisories = append(out.Advisories, fmt.Sprintf("%s: %v", a.Step, a.Err))
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
