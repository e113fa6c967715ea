// Package config resolves helper configuration from an explicit environment snapshot.
// Nothing in this package reads the process environment except Process, so library code
// and tests can pass their own Env without mutating global state.
//
// The two CLI loaders (LoadAuthSetup, LoadToken) combine flags with the snapshot: flags
// win, secrets only come from the environment.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Environment variable names consumed by the helpers.
const (
	EnvBaseURL            = "BASE_URL"
	EnvAuthStatePath      = "AUTH_STATE_PATH"
	EnvTestUser           = "TEST_USER"
	EnvTestPass           = "TEST_PASS"
	EnvTestTAN            = "TEST_TAN"
	EnvAuthTimeout        = "AUTH_TIMEOUT"
	EnvHeadless           = "HEADLESS"
	EnvMirrorBucket       = "STATE_MIRROR_BUCKET"
	EnvMirrorKey          = "STATE_MIRROR_KEY"
	EnvAWSEndpointS3      = "AWS_ENDPOINT_URL_S3"
	EnvAWSRegion          = "AWS_REGION"
	EnvAWSAccessKeyID     = "AWS_ACCESS_KEY_ID"
	EnvAWSSecretAccessKey = "AWS_SECRET_ACCESS_KEY"
	EnvOAuthAuthServer    = "OAUTH_AUTH_SERVER"
	EnvOAuthClientID      = "OAUTH_CLIENT_ID"
	EnvOAuthClientSecret  = "OAUTH_CLIENT_SECRET"
	EnvOAuthGrantType     = "OAUTH_GRANT_TYPE"
	EnvOAuthUsername      = "OAUTH_USERNAME"
	EnvOAuthPassword      = "OAUTH_PASSWORD"
)

const (
	defaultAuthTimeout  = 10 * time.Second
	defaultMirrorRegion = "auto"
)

// Env is an immutable snapshot of environment variables.
type Env map[string]string

// FromEnviron builds a snapshot from KEY=VALUE pairs as returned by os.Environ.
func FromEnviron(environ []string) Env {
	env := make(Env, len(environ))
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			continue
		}
		env[key] = value
	}
	return env
}

// Process snapshots the current process environment.
func Process() Env {
	return FromEnviron(os.Environ())
}

// Get returns the trimmed value for key, or "" when unset.
func (e Env) Get(key string) string {
	if e == nil {
		return ""
	}
	return strings.TrimSpace(e[key])
}

// Raw returns the value for key exactly as set. Secrets are read with Raw so surrounding
// whitespace stays part of the value.
func (e Env) Raw(key string) string {
	if e == nil {
		return ""
	}
	return e[key]
}

// GetOrDefault returns the value for key, or defaultValue when unset or blank.
func (e Env) GetOrDefault(key, defaultValue string) string {
	if value := e.Get(key); value != "" {
		return value
	}
	return defaultValue
}

// Bool parses key as a boolean, returning defaultValue when unset or unparseable.
func (e Env) Bool(key string, defaultValue bool) bool {
	value := e.Get(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// Duration parses key as a time.Duration. Bare integers are read as milliseconds,
// matching the way browser timeouts are usually written.
func (e Env) Duration(key string, defaultValue time.Duration) time.Duration {
	value := e.Get(key)
	if value == "" {
		return defaultValue
	}
	if ms, err := strconv.Atoi(value); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// ValidationError represents a configuration validation error with multiple issues.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("configuration validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}

// MirrorConfig configures the optional S3 mirror of the login state file.
type MirrorConfig struct {
	Bucket          string
	Key             string
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// Enabled reports whether a mirror bucket is configured.
func (m MirrorConfig) Enabled() bool {
	return m.Bucket != ""
}

func loadMirror(env Env) MirrorConfig {
	return MirrorConfig{
		Bucket:          env.Get(EnvMirrorBucket),
		Key:             env.Get(EnvMirrorKey),
		Endpoint:        env.Get(EnvAWSEndpointS3),
		Region:          env.GetOrDefault(EnvAWSRegion, defaultMirrorRegion),
		AccessKeyID:     env.Get(EnvAWSAccessKeyID),
		SecretAccessKey: env.Raw(EnvAWSSecretAccessKey),
	}
}

// AuthSetupConfig holds the configuration of cmd/authsetup.
type AuthSetupConfig struct {
	BaseURL           string
	User              string
	Pass              string
	TAN               string
	StatePath         string
	LoginPath         string
	Timeout           time.Duration
	Headless          bool
	KeepTrackingFlags bool
	BlockAnalytics    bool
	SkipStateCleanup  bool
	Mirror            MirrorConfig
}

// LoadAuthSetup parses args and fills the rest from env.
// BaseURL and StatePath stay empty when neither flag nor env sets them so the bootstrap
// routine applies its own documented defaults.
func LoadAuthSetup(env Env, args []string) (*AuthSetupConfig, error) {
	cfg := &AuthSetupConfig{}

	fs := flag.NewFlagSet("authsetup", flag.ContinueOnError)
	fs.StringVar(&cfg.BaseURL, "base-url", env.Get(EnvBaseURL), "Application base URL (env BASE_URL)")
	fs.StringVar(&cfg.StatePath, "state", env.Get(EnvAuthStatePath), "Where to write the storage state (env AUTH_STATE_PATH)")
	fs.StringVar(&cfg.LoginPath, "login-path", "", "Login entry path relative to the base URL")
	fs.DurationVar(&cfg.Timeout, "timeout", env.Duration(EnvAuthTimeout, defaultAuthTimeout), "Completion and second-factor timeout (env AUTH_TIMEOUT)")
	fs.BoolVar(&cfg.Headless, "headless", env.Bool(EnvHeadless, true), "Run Chromium headless (env HEADLESS)")
	fs.BoolVar(&cfg.KeepTrackingFlags, "keep-tracking-flags", false, "Do not deactivate joyride/news flags")
	fs.BoolVar(&cfg.BlockAnalytics, "block-analytics", true, "Abort analytics requests during login")
	fs.BoolVar(&cfg.SkipStateCleanup, "skip-cleanup", false, "Do not delete stale state before login")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	cfg.User = env.Get(EnvTestUser)
	cfg.Pass = env.Raw(EnvTestPass)
	cfg.TAN = env.Get(EnvTestTAN)
	cfg.Mirror = loadMirror(env)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that all required configuration is present and valid.
func (c *AuthSetupConfig) Validate() error {
	var errs []string

	if c.User == "" {
		errs = append(errs, "TEST_USER is required")
	}
	if c.Pass == "" {
		errs = append(errs, "TEST_PASS is required")
	}
	if c.Timeout <= 0 {
		errs = append(errs, "AUTH_TIMEOUT must be positive")
	}
	if c.TAN != "" && !isSixDigits(c.TAN) {
		errs = append(errs, "TEST_TAN must be exactly 6 digits")
	}
	if c.Mirror.Enabled() && c.Mirror.Key == "" {
		errs = append(errs, "STATE_MIRROR_KEY is required when STATE_MIRROR_BUCKET is set")
	}

	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

// TokenConfig holds the configuration of cmd/oauthtoken.
type TokenConfig struct {
	AuthServer      string
	ClientID        string
	ClientSecret    string
	GrantType       string
	Username        string
	Password        string
	AppendTokenPath bool
	Extra           map[string]string
	PrintJSON       bool
}

// LoadToken parses args and fills secrets from env.
func LoadToken(env Env, args []string) (*TokenConfig, error) {
	cfg := &TokenConfig{Extra: map[string]string{}}

	fs := flag.NewFlagSet("oauthtoken", flag.ContinueOnError)
	fs.StringVar(&cfg.AuthServer, "server", env.Get(EnvOAuthAuthServer), "Token endpoint or bare host (env OAUTH_AUTH_SERVER)")
	fs.StringVar(&cfg.ClientID, "client-id", env.Get(EnvOAuthClientID), "OAuth client id (env OAUTH_CLIENT_ID)")
	fs.StringVar(&cfg.GrantType, "grant", env.GetOrDefault(EnvOAuthGrantType, "password"), "password or client_credentials (env OAUTH_GRANT_TYPE)")
	fs.StringVar(&cfg.Username, "username", env.Get(EnvOAuthUsername), "Resource owner username (env OAUTH_USERNAME)")
	fs.BoolVar(&cfg.AppendTokenPath, "append-token-path", false, "Append /auth/oauth/token to a bare host")
	fs.BoolVar(&cfg.PrintJSON, "json", false, "Print the full token response instead of the header")
	fs.Func("extra", "Extra form field key=value (repeatable)", func(v string) error {
		key, value, ok := strings.Cut(v, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return fmt.Errorf("expected key=value, got %q", v)
		}
		cfg.Extra[strings.TrimSpace(key)] = value
		return nil
	})
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	cfg.ClientSecret = env.Raw(EnvOAuthClientSecret)
	cfg.Password = env.Raw(EnvOAuthPassword)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the grant-specific fields are present.
func (c *TokenConfig) Validate() error {
	var errs []string

	if c.AuthServer == "" {
		errs = append(errs, "OAUTH_AUTH_SERVER (or -server) is required")
	}
	if c.ClientID == "" {
		errs = append(errs, "OAUTH_CLIENT_ID (or -client-id) is required")
	}
	if c.ClientSecret == "" {
		errs = append(errs, "OAUTH_CLIENT_SECRET is required")
	}
	switch c.GrantType {
	case "password":
		if c.Username == "" {
			errs = append(errs, "OAUTH_USERNAME (or -username) is required for the password grant")
		}
		if c.Password == "" {
			errs = append(errs, "OAUTH_PASSWORD is required for the password grant")
		}
	case "client_credentials":
	default:
		errs = append(errs, fmt.Sprintf("unsupported grant type %q (want password or client_credentials)", c.GrantType))
	}

	if len(errs) > 0 {
		sort.Strings(errs)
		return &ValidationError{Errors: errs}
	}
	return nil
}

func isSixDigits(s string) bool {
	if len(s) != 6 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
