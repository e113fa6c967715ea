// Package token fetches OAuth2 access tokens for API-level tests.
//
// Fetch issues a single form-encoded POST with the password or client-credentials grant
// and classifies failures with errs codes: missing fields are invalid_argument and never
// reach the network, transport failures are unavailable, unparseable or non-2xx responses
// are bad_response, and a 2xx JSON body without access_token is protocol_violation.
//
// The caller passes the full token endpoint in Request.AuthServer. Deployments that expose
// only a bare host set AppendTokenPath to add TokenPath.
package token

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/oauth2"

	"github.com/kuitang/pwhelpers/errs"
	"github.com/kuitang/pwhelpers/internal/logutil"
	"github.com/kuitang/pwhelpers/internal/obs"
	"github.com/kuitang/pwhelpers/internal/urlutil"
)

// GrantType is an OAuth2 grant.
type GrantType string

const (
	GrantPassword          GrantType = "password"
	GrantClientCredentials GrantType = "client_credentials"
)

const (
	// TokenPath is appended to AuthServer when Request.AppendTokenPath is set.
	TokenPath = "/auth/oauth/token"
	// DefaultTokenType is used for the Authorization header when the server omits token_type.
	DefaultTokenType = "Bearer"

	bodyExcerptChars = 200
	responseLogChars = 2000
)

var defaultClient = obs.NewClient("token", nil)

// Request describes one token request.
type Request struct {
	AuthServer   string
	ClientID     string
	ClientSecret string
	GrantType    GrantType
	// Username and Password are required for GrantPassword only.
	Username string
	Password string
	// Extra form fields are merged after the grant fields; same keys replace them.
	Extra           map[string]string
	AppendTokenPath bool
	// HTTPClient defaults to the client stored under oauth2.HTTPClient in ctx, else
	// http.DefaultClient.
	HTTPClient *http.Client
}

// Endpoint returns the normalized token URL for r.
func (r Request) Endpoint() string {
	endpoint := urlutil.NormalizeHost(r.AuthServer)
	if r.AppendTokenPath {
		endpoint += TokenPath
	}
	return endpoint
}

// Validate reports missing grant-specific fields without touching the network.
func (r Request) Validate() error {
	var missing []string
	add := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	add("authServer", r.AuthServer)
	add("clientId", r.ClientID)
	add("clientSecret", r.ClientSecret)

	switch r.GrantType {
	case GrantPassword:
		add("username", r.Username)
		add("password", r.Password)
	case GrantClientCredentials:
	default:
		return errs.New(errs.InvalidArgument, fmt.Sprintf("unsupported grant type %q", r.GrantType))
	}

	if len(missing) > 0 {
		return errs.New(errs.InvalidArgument,
			fmt.Sprintf("missing required %s grant fields: %s", r.GrantType, strings.Join(missing, ", ")))
	}
	return nil
}

func (r Request) form() url.Values {
	form := url.Values{}
	form.Set("grant_type", string(r.GrantType))
	switch r.GrantType {
	case GrantPassword:
		form.Set("username", r.Username)
		form.Set("password", r.Password)
	case GrantClientCredentials:
		form.Set("client_id", r.ClientID)
		form.Set("client_secret", r.ClientSecret)
	}
	for k, v := range r.Extra {
		form.Set(k, v)
	}
	return form
}

func (r Request) httpClient(ctx context.Context) *http.Client {
	if r.HTTPClient != nil {
		return r.HTTPClient
	}
	if c, ok := ctx.Value(oauth2.HTTPClient).(*http.Client); ok && c != nil {
		return c
	}
	return defaultClient
}

// Fetch requests a token. It makes at most one HTTP call and never retries.
func Fetch(ctx context.Context, req Request) (*Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	logger := obs.From(ctx, "token")

	endpoint := req.Endpoint()
	form := req.form()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errs.Wrap(errs.InvalidArgument, "build token request", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Accept", "application/json")
	if req.GrantType == GrantPassword {
		httpReq.SetBasicAuth(req.ClientID, req.ClientSecret)
	}

	logger.Debug("token request",
		"endpoint", endpoint,
		"grant_type", string(req.GrantType),
		"form", logutil.FormatFormForLog(form),
		"headers", logutil.FormatHeadersForLog(httpReq.Header),
	)

	resp, err := req.httpClient(ctx).Do(httpReq)
	if err != nil {
		return nil, errs.Wrap(errs.Unavailable, fmt.Sprintf("token request to %s", endpoint), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Wrap(errs.Unavailable, "read token response", err)
	}
	logger.Debug("token response",
		"status", resp.StatusCode,
		"body", logutil.TruncateForLog(logutil.RedactBodyForLog(body), responseLogChars),
	)

	// An empty body reads as an empty object so the status or missing token is reported.
	parsed := Response{Extra: map[string]any{}}
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &parsed); err != nil {
			return nil, errs.New(errs.BadResponse, fmt.Sprintf("non-JSON token response (status %d): %s",
				resp.StatusCode, logutil.Excerpt(string(body), bodyExcerptChars)))
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errs.New(errs.BadResponse, fmt.Sprintf("token request failed (%d): %s",
			resp.StatusCode, failureReason(&parsed, resp)))
	}

	if parsed.AccessToken == "" {
		return nil, errs.New(errs.ProtocolViolation, "no access_token in response")
	}
	return &parsed, nil
}

// failureReason prefers error_description, then error, then the HTTP status text.
func failureReason(parsed *Response, resp *http.Response) string {
	if s, ok := parsed.Extra["error_description"].(string); ok && s != "" {
		return s
	}
	if s, ok := parsed.Extra["error"].(string); ok && s != "" {
		return s
	}
	if text := http.StatusText(resp.StatusCode); text != "" {
		return text
	}
	return resp.Status
}

// AuthorizationHeader fetches a token and returns the Authorization header value.
func AuthorizationHeader(ctx context.Context, req Request) (string, error) {
	resp, err := Fetch(ctx, req)
	if err != nil {
		return "", err
	}
	return resp.AuthorizationHeader(), nil
}

// Response is a decoded token response. Fields other than the standard ones are kept
// in Extra.
type Response struct {
	AccessToken  string
	TokenType    string
	RefreshToken string
	ExpiresIn    *int64
	Scope        string
	Extra        map[string]any
}

// AuthorizationHeader returns "<token_type or Bearer> <access_token>".
func (r *Response) AuthorizationHeader() string {
	tokenType := r.TokenType
	if tokenType == "" {
		tokenType = DefaultTokenType
	}
	return tokenType + " " + r.AccessToken
}

// UnmarshalJSON decodes a JSON object. Standard fields of the wrong type are left in Extra.
func (r *Response) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	if raw == nil {
		return fmt.Errorf("token response is not a JSON object")
	}

	*r = Response{Extra: map[string]any{}}
	for k, v := range raw {
		switch k {
		case "access_token", "token_type", "refresh_token", "scope":
			s, ok := v.(string)
			if !ok {
				r.Extra[k] = v
				continue
			}
			switch k {
			case "access_token":
				r.AccessToken = s
			case "token_type":
				r.TokenType = s
			case "refresh_token":
				r.RefreshToken = s
			case "scope":
				r.Scope = s
			}
		case "expires_in":
			if n, ok := parseSeconds(v); ok {
				r.ExpiresIn = &n
			} else {
				r.Extra[k] = v
			}
		default:
			r.Extra[k] = v
		}
	}
	return nil
}

// MarshalJSON writes the response back in wire form.
func (r Response) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Extra)+5)
	for k, v := range r.Extra {
		out[k] = v
	}
	out["access_token"] = r.AccessToken
	if r.TokenType != "" {
		out["token_type"] = r.TokenType
	}
	if r.RefreshToken != "" {
		out["refresh_token"] = r.RefreshToken
	}
	if r.ExpiresIn != nil {
		out["expires_in"] = *r.ExpiresIn
	}
	if r.Scope != "" {
		out["scope"] = r.Scope
	}
	return json.Marshal(out)
}

func parseSeconds(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		if f, err := n.Float64(); err == nil {
			return int64(f), true
		}
	case string:
		if i, err := strconv.ParseInt(n, 10, 64); err == nil {
			return i, true
		}
	}
	return 0, false
}
