// Package analytics keeps third-party analytics out of browser tests by aborting their
// requests before they leave the browser.
package analytics

import "fmt"

const (
	// PendoPattern matches the Pendo CDN.
	PendoPattern = "https://cdn.eu.pendo.io/**"
	// EUMPattern matches end-user monitoring telemetry.
	EUMPattern = "https://eum.timocom.com/**"

	// PendoConsentScript turns off the Pendo consent banner.
	PendoConsentScript = `window.localStorage.setItem('timocom_appheader_pendoAnalyticsEnabled', 'false');`
)

// Page is the part of driver.Page the blocker uses.
type Page interface {
	AbortRequests(urlPattern string) error
	AddInitScript(script string) error
}

// BlockPendo aborts Pendo requests and disables the Pendo consent banner.
func BlockPendo(page Page) error {
	if err := page.AbortRequests(PendoPattern); err != nil {
		return fmt.Errorf("block pendo: %w", err)
	}
	if err := page.AddInitScript(PendoConsentScript); err != nil {
		return fmt.Errorf("disable pendo consent: %w", err)
	}
	return nil
}

// BlockEUM aborts end-user monitoring requests.
func BlockEUM(page Page) error {
	if err := page.AbortRequests(EUMPattern); err != nil {
		return fmt.Errorf("block eum: %w", err)
	}
	return nil
}

// BlockAll applies BlockPendo then BlockEUM.
func BlockAll(page Page) error {
	if err := BlockPendo(page); err != nil {
		return err
	}
	return BlockEUM(page)
}
