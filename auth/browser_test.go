package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kuitang/pwhelpers/analytics"
	"github.com/kuitang/pwhelpers/driver"
	"github.com/kuitang/pwhelpers/internal/config"
	"github.com/kuitang/pwhelpers/statestore"
)

const browserTimeout = 5 * time.Second

const currentLoginPage = `<!DOCTYPE html>
<html><body>
<input id="username" name="username">
<input id="password" name="password" type="password" style="display:none">
<button id="kc-login" type="button">Continue</button>
<input id="otp" name="otp" style="display:none">
<button id="kc-tan-submit" type="button" style="display:none">Confirm</button>
<script>
const needsTAN = %t;
let step = 0;
function finish() {
  document.cookie = 'sid=' + document.getElementById('username').value + '; path=/';
  window.location.href = 'tcgate/';
}
document.getElementById('kc-login').addEventListener('click', () => {
  if (step === 0) {
    step = 1;
    document.getElementById('password').style.display = 'block';
    return;
  }
  if (needsTAN) {
    document.getElementById('otp').style.display = 'block';
    document.getElementById('kc-tan-submit').style.display = 'block';
    return;
  }
  finish();
});
document.getElementById('kc-tan-submit').addEventListener('click', () => {
  if (document.getElementById('otp').value === '424242') finish();
});
</script>
</body></html>`

const legacyLoginPage = `<!DOCTYPE html>
<html><body>
<input data-testid="email" name="email">
<input data-testid="password" name="password" type="password">
<button data-testid="submit-button" type="button">Login</button>
<script>
document.querySelector('[data-testid="submit-button"]').addEventListener('click', () => {
  document.cookie = 'sid=' + document.querySelector('[data-testid="email"]').value + '; path=/';
  window.location.href = 'tcgate/';
});
</script>
</body></html>`

func loginServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	serve := func(body string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			fmt.Fprint(w, body)
		}
	}
	mux.HandleFunc("/current/app/", serve(fmt.Sprintf(currentLoginPage, false)))
	mux.HandleFunc("/tan/app/", serve(fmt.Sprintf(currentLoginPage, true)))
	mux.HandleFunc("/legacy/app/", serve(legacyLoginPage))
	mux.HandleFunc("/whoami", func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie("sid")
		if err != nil {
			http.Error(w, "anonymous", http.StatusUnauthorized)
			return
		}
		fmt.Fprintf(w, "<html><body>user:%s</body></html>", c.Value)
	})
	for _, prefix := range []string{"/current", "/tan", "/legacy"} {
		mux.HandleFunc(prefix+"/app/tcgate/", serve("<html><body>gateway</body></html>"))
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func launchBrowser(t *testing.T) *driver.Browser {
	t.Helper()
	if testing.Short() {
		t.Skip("browser test skipped in short mode")
	}
	browser, err := driver.Launch(true)
	if err != nil {
		t.Skip("Playwright not available:", err)
	}
	t.Cleanup(func() { _ = browser.Close() })
	return browser
}

func TestBootstrap_Browser(t *testing.T) {
	browser := launchBrowser(t)
	srv := loginServer(t)

	tests := []struct {
		name    string
		prefix  string
		variant FormVariant
		tan     bool
	}{
		{name: "current form", prefix: "/current", variant: FormCurrent},
		{name: "legacy form", prefix: "/legacy", variant: FormLegacy},
		{name: "second factor", prefix: "/tan", variant: FormCurrent, tan: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, bctx, err := browser.NewPage(driver.ContextOptions{DefaultTimeout: browserTimeout})
			require.NoError(t, err)
			defer bctx.Close()
			require.NoError(t, analytics.BlockAll(page))

			statePath := filepath.Join(t.TempDir(), "auth", "user.json")
			opts := Options{
				BaseURL:   srv.URL + tt.prefix + "/app",
				User:      "alice",
				Pass:      "secret",
				StatePath: statePath,
				Timeout:   browserTimeout,
			}
			if tt.tan {
				opts.SecondFactor = func(context.Context) (string, error) { return "424242", nil }
			}

			b := &Bootstrapper{Env: config.Env{}}
			report, err := b.Run(context.Background(), page, opts)
			require.NoError(t, err)
			assert.Equal(t, tt.variant, report.Variant)
			assert.Equal(t, CleanupSkipAbsolute, report.Cleanup.Decision)
			assert.Equal(t, statePath, report.StatePath)

			state, err := statestore.ReadFile(statePath)
			require.NoError(t, err)
			assert.Contains(t, string(state), `"sid"`)
			assert.Contains(t, string(state), "timocom_joyride_inactive")
		})
	}
}

func TestBootstrap_BrowserStateIsReusable(t *testing.T) {
	browser := launchBrowser(t)
	srv := loginServer(t)

	page, bctx, err := browser.NewPage(driver.ContextOptions{DefaultTimeout: browserTimeout})
	require.NoError(t, err)
	statePath := filepath.Join(t.TempDir(), "user.json")
	_, err = (&Bootstrapper{Env: config.Env{}}).Run(context.Background(), page, Options{
		BaseURL:   srv.URL + "/legacy/app/",
		User:      "bob",
		Pass:      "secret",
		StatePath: statePath,
		Timeout:   browserTimeout,
	})
	require.NoError(t, err)
	require.NoError(t, bctx.Close())

	reused, reusedCtx, err := browser.NewPage(driver.ContextOptions{StatePath: statePath, DefaultTimeout: browserTimeout})
	require.NoError(t, err)
	defer reusedCtx.Close()

	require.NoError(t, reused.Goto(srv.URL+"/whoami"))
	body, err := reused.Unwrap().Content()
	require.NoError(t, err)
	assert.True(t, strings.Contains(body, "user:bob"), "expected reused session, got %s", body)
}

func TestBootstrap_BrowserWrongTANNeverPersists(t *testing.T) {
	browser := launchBrowser(t)
	srv := loginServer(t)

	page, bctx, err := browser.NewPage(driver.ContextOptions{DefaultTimeout: browserTimeout})
	require.NoError(t, err)
	defer bctx.Close()

	statePath := filepath.Join(t.TempDir(), "user.json")
	_, err = (&Bootstrapper{Env: config.Env{}}).Run(context.Background(), page, Options{
		BaseURL:      srv.URL + "/tan/app/",
		User:         "carol",
		Pass:         "secret",
		StatePath:    statePath,
		Timeout:      time.Second,
		SecondFactor: func(context.Context) (string, error) { return "000000", nil },
	})
	require.Error(t, err)

	_, statErr := statestore.ReadFile(statePath)
	assert.Error(t, statErr, "a failed login must not leave a state file")
}
