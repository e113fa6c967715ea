// Command oauthtoken fetches an OAuth2 access token and prints a ready-to-use
// Authorization header value, or the whole token response with -json.
//
// Usage:
//
//	OAUTH_CLIENT_SECRET=... OAUTH_PASSWORD=... go run ./cmd/oauthtoken \
//	    -server auth.example.com/oauth/token -client-id cli -username alice
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/kuitang/pwhelpers/errs"
	"github.com/kuitang/pwhelpers/internal/config"
	"github.com/kuitang/pwhelpers/internal/obs"
	"github.com/kuitang/pwhelpers/token"
)

func main() {
	obs.Init()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadToken(config.Process(), os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if err := run(ctx, cfg, os.Stdout); err != nil {
		obs.Pkg("oauthtoken").Error("token request failed", "code", string(errs.CodeOf(err)), "error", err)
		os.Exit(1)
	}
}

func requestFromConfig(cfg *config.TokenConfig) token.Request {
	return token.Request{
		AuthServer:      cfg.AuthServer,
		ClientID:        cfg.ClientID,
		ClientSecret:    cfg.ClientSecret,
		GrantType:       token.GrantType(cfg.GrantType),
		Username:        cfg.Username,
		Password:        cfg.Password,
		Extra:           cfg.Extra,
		AppendTokenPath: cfg.AppendTokenPath,
	}
}

func run(ctx context.Context, cfg *config.TokenConfig, out io.Writer) error {
	resp, err := token.Fetch(ctx, requestFromConfig(cfg))
	if err != nil {
		return err
	}
	if !cfg.PrintJSON {
		_, err := fmt.Fprintln(out, resp.AuthorizationHeader())
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}
