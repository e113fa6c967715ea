package token

import (
	"context"
	"net/http"
	"time"

	"github.com/go-jose/go-jose/v3/jwt"
	"golang.org/x/oauth2"

	"github.com/kuitang/pwhelpers/errs"
)

// Claims are the unverified claims of a JWT access token.
type Claims struct {
	jwt.Claims
	Scope    string `json:"scope,omitempty"`
	ClientID string `json:"client_id,omitempty"`
	// Raw holds every claim, including the ones above.
	Raw map[string]any `json:"-"`
}

// InspectClaims decodes accessToken as a JWT without verifying its signature. Tests use
// it to assert on scopes and expiry; never use it to make trust decisions.
func InspectClaims(accessToken string) (*Claims, error) {
	parsed, err := jwt.ParseSigned(accessToken)
	if err != nil {
		return nil, errs.Wrap(errs.InvalidArgument, "access token is not a JWT", err)
	}
	claims := &Claims{}
	if err := parsed.UnsafeClaimsWithoutVerification(claims, &claims.Raw); err != nil {
		return nil, errs.Wrap(errs.InvalidArgument, "decode access token claims", err)
	}
	return claims, nil
}

// Expiry returns when the token expires: from expires_in relative to now, else from the
// exp claim of a JWT access token, else the zero time.
func (r *Response) Expiry(now time.Time) time.Time {
	if r.ExpiresIn != nil {
		return now.Add(time.Duration(*r.ExpiresIn) * time.Second)
	}
	claims, err := InspectClaims(r.AccessToken)
	if err != nil || claims.Expiry == nil {
		return time.Time{}
	}
	return claims.Expiry.Time()
}

// OAuth2Token converts r to an oauth2.Token whose Extra exposes the passthrough fields.
func (r *Response) OAuth2Token(now time.Time) *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  r.AccessToken,
		TokenType:    r.TokenType,
		RefreshToken: r.RefreshToken,
		Expiry:       r.Expiry(now),
	}
	if tok.TokenType == "" {
		tok.TokenType = DefaultTokenType
	}
	if len(r.Extra) > 0 {
		return tok.WithExtra(r.Extra)
	}
	return tok
}

type fetchSource struct {
	ctx context.Context
	req Request
	now func() time.Time
}

func (s *fetchSource) Token() (*oauth2.Token, error) {
	resp, err := Fetch(s.ctx, s.req)
	if err != nil {
		return nil, err
	}
	return resp.OAuth2Token(s.now()), nil
}

// NewTokenSource returns a TokenSource that fetches with req and reuses the token until
// it expires. Tokens without a known expiry are reused for the life of the source.
// Invalid requests fail on the first Token call.
func NewTokenSource(ctx context.Context, req Request) oauth2.TokenSource {
	return oauth2.ReuseTokenSource(nil, &fetchSource{ctx: ctx, req: req, now: time.Now})
}

// NewClient returns an HTTP client that authorizes every request with a token from req.
func NewClient(ctx context.Context, req Request) *http.Client {
	return oauth2.NewClient(ctx, NewTokenSource(ctx, req))
}
