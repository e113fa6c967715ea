package driver

import (
	"fmt"
	"os"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Browser owns a Playwright driver process and one Chromium instance.
type Browser struct {
	pw      *playwright.Playwright
	browser playwright.Browser
}

// ContextOptions configures a new browser context.
type ContextOptions struct {
	// BaseURL lets navigation helpers pass relative paths.
	BaseURL string
	// StatePath loads a previously persisted login state. Missing files are an error.
	StatePath string
	// DefaultTimeout applies to every action and navigation in the context.
	DefaultTimeout time.Duration
}

// Launch starts Playwright and a Chromium browser.
func Launch(headless bool) (*Browser, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(headless),
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launch chromium: %w", err)
	}
	return &Browser{pw: pw, browser: browser}, nil
}

// NewPage opens an isolated context and returns its first page.
// Closing the returned context closes the page.
func (b *Browser) NewPage(opts ContextOptions) (*PlaywrightPage, playwright.BrowserContext, error) {
	var ctxOpts playwright.BrowserNewContextOptions
	if opts.BaseURL != "" {
		ctxOpts.BaseURL = playwright.String(opts.BaseURL)
	}
	if opts.StatePath != "" {
		if _, err := os.Stat(opts.StatePath); err != nil {
			return nil, nil, fmt.Errorf("login state %s: %w", opts.StatePath, err)
		}
		ctxOpts.StorageStatePath = playwright.String(opts.StatePath)
	}

	bctx, err := b.browser.NewContext(ctxOpts)
	if err != nil {
		return nil, nil, fmt.Errorf("create browser context: %w", err)
	}
	if opts.DefaultTimeout > 0 {
		ms := float64(opts.DefaultTimeout.Milliseconds())
		bctx.SetDefaultTimeout(ms)
		bctx.SetDefaultNavigationTimeout(ms)
	}

	page, err := bctx.NewPage()
	if err != nil {
		_ = bctx.Close()
		return nil, nil, fmt.Errorf("create page: %w", err)
	}
	return NewPlaywrightPage(page), bctx, nil
}

// Close releases the browser and the Playwright driver.
func (b *Browser) Close() error {
	var firstErr error
	if err := b.browser.Close(); err != nil {
		firstErr = fmt.Errorf("close browser: %w", err)
	}
	if err := b.pw.Stop(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("stop playwright: %w", err)
	}
	return firstErr
}
