package auth

import (
	"strings"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/kuitang/pwhelpers/driver"
	"github.com/kuitang/pwhelpers/errs"
	"github.com/kuitang/pwhelpers/internal/config"
)

func TestResolve_StatePathPrecedence(t *testing.T) {
	t.Parallel()
	opts := Options{User: "u", Pass: "p"}

	got, err := Resolve(opts, config.Env{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.StatePath != DefaultStatePath {
		t.Fatalf("default StatePath = %q", got.StatePath)
	}

	env := config.Env{config.EnvAuthStatePath: "env/state.json"}
	got, _ = Resolve(opts, env)
	if got.StatePath != "env/state.json" {
		t.Fatalf("env StatePath = %q", got.StatePath)
	}

	opts.StatePath = "explicit/state.json"
	got, _ = Resolve(opts, env)
	if got.StatePath != "explicit/state.json" {
		t.Fatalf("explicit StatePath = %q", got.StatePath)
	}
}

func TestResolve_BaseURLPrecedence(t *testing.T) {
	t.Parallel()
	opts := Options{User: "u", Pass: "p"}

	got, _ := Resolve(opts, nil)
	if got.BaseURL != DefaultBaseURL || got.LoginURL != DefaultBaseURL {
		t.Fatalf("default BaseURL = %q, LoginURL = %q", got.BaseURL, got.LoginURL)
	}

	got, _ = Resolve(opts, config.Env{config.EnvBaseURL: "https://env.example.com/app"})
	if got.BaseURL != "https://env.example.com/app/" {
		t.Fatalf("env BaseURL = %q", got.BaseURL)
	}

	opts.BaseURL = "https://explicit.example.com/app/"
	got, _ = Resolve(opts, config.Env{config.EnvBaseURL: "https://env.example.com/app"})
	if got.BaseURL != "https://explicit.example.com/app/" {
		t.Fatalf("explicit BaseURL = %q", got.BaseURL)
	}
}

func TestResolve_LoginURLJoinsPath(t *testing.T) {
	t.Parallel()
	for loginPath, want := range map[string]string{
		"":                           "https://example.com/app/",
		"weblogin/":                  "https://example.com/app/weblogin/",
		"/weblogin/":                 "https://example.com/app/weblogin/",
		"https://sso.example.com/x/": "https://sso.example.com/x/",
	} {
		got, err := Resolve(Options{User: "u", Pass: "p", BaseURL: "https://example.com/app", LoginPath: loginPath}, nil)
		if err != nil {
			t.Fatalf("Resolve(%q): %v", loginPath, err)
		}
		if got.LoginURL != want {
			t.Fatalf("LoginPath %q: LoginURL = %q, want %q", loginPath, got.LoginURL, want)
		}
	}
}

func TestResolve_Defaults(t *testing.T) {
	t.Parallel()
	got, err := Resolve(Options{User: "u", Pass: "p"}, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Timeout != DefaultTimeout {
		t.Fatalf("Timeout = %v", got.Timeout)
	}
	if got.SuccessURL != DefaultSuccessURL {
		t.Fatalf("SuccessURL = %v", got.SuccessURL)
	}
	if !got.DeactivateTracking || !got.StateCleanup || got.SecondFactor {
		t.Fatalf("unexpected toggles: %+v", got)
	}
	if got.Selectors != DefaultSelectors() {
		t.Fatalf("Selectors = %+v", got.Selectors)
	}
}

func TestResolve_PartialSelectorsKeepDefaults(t *testing.T) {
	t.Parallel()
	got, _ := Resolve(Options{
		User:      "u",
		Pass:      "p",
		Timeout:   2 * time.Second,
		Selectors: Selectors{TANInput: driver.CSS("input#code")},
	}, nil)
	if got.Selectors.TANInput != driver.CSS("input#code") {
		t.Fatalf("TANInput = %v", got.Selectors.TANInput)
	}
	if got.Selectors.LegacyUsername != driver.TestID("email") {
		t.Fatalf("LegacyUsername = %v", got.Selectors.LegacyUsername)
	}
	if got.Timeout != 2*time.Second {
		t.Fatalf("Timeout = %v", got.Timeout)
	}
}

func TestResolve_RequiresCredentials(t *testing.T) {
	t.Parallel()
	for _, opts := range []Options{{}, {User: "u"}, {Pass: "p"}} {
		_, err := Resolve(opts, nil)
		if !errs.Is(err, errs.InvalidArgument) {
			t.Fatalf("Resolve(%+v) error = %v, want invalid_argument", opts, err)
		}
	}
}

func TestCleanupTarget_KnownPaths(t *testing.T) {
	t.Parallel()
	tests := map[string]struct {
		target   string
		decision CleanupDecision
	}{
		"playwright/.auth/user.json": {"playwright", CleanupRemove},
		"./custom/state/user.json":   {"custom", CleanupRemove},
		"././nested/user.json":       {"nested", CleanupRemove},
		".auth/user.json":            {".auth", CleanupRemove},
		"user.json":                  {"user.json", CleanupRemove},
		"/abs/state/user.json":       {"", CleanupSkipAbsolute},
		"../outside/state.json":      {"", CleanupSkipTraversal},
		"./../outside/state.json":    {"", CleanupSkipTraversal},
		".":                          {"", CleanupSkipTraversal},
		"./":                         {"", CleanupSkipEmpty},
		"":                           {"", CleanupSkipEmpty},
	}
	for path, want := range tests {
		target, decision := CleanupTarget(path)
		if target != want.target || decision != want.decision {
			t.Fatalf("CleanupTarget(%q) = (%q, %s), want (%q, %s)", path, target, decision, want.target, want.decision)
		}
	}
}

var segmentGen = rapid.StringMatching(`[A-Za-z0-9_][A-Za-z0-9_.-]{0,11}`)

func testCleanupTarget_RemovesFirstSegment(t *rapid.T) {
	first := segmentGen.Draw(t, "first")
	rest := rapid.SliceOfN(segmentGen, 0, 4).Draw(t, "rest")
	prefixes := rapid.IntRange(0, 3).Draw(t, "dot_slash_prefixes")

	path := strings.Repeat("./", prefixes) + strings.Join(append([]string{first}, rest...), "/")
	target, decision := CleanupTarget(path)
	if decision != CleanupRemove || target != first {
		t.Fatalf("CleanupTarget(%q) = (%q, %s), want (%q, remove)", path, target, decision, first)
	}
}

func TestCleanupTarget_RemovesFirstSegment(t *testing.T) {
	t.Parallel()
	rapid.Check(t, testCleanupTarget_RemovesFirstSegment)
}

func testCleanupTarget_NeverEscapes(t *rapid.T) {
	rest := rapid.SliceOfN(segmentGen, 1, 4).Draw(t, "rest")
	escape := rapid.SampledFrom([]string{"/", "../", "./../", "../../", "/tmp/"}).Draw(t, "escape")

	path := escape + strings.Join(rest, "/")
	target, decision := CleanupTarget(path)
	if target != "" || decision == CleanupRemove {
		t.Fatalf("CleanupTarget(%q) = (%q, %s), want no removal", path, target, decision)
	}
}

func TestCleanupTarget_NeverEscapes(t *testing.T) {
	t.Parallel()
	rapid.Check(t, testCleanupTarget_NeverEscapes)
}
