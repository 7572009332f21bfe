// internal/auth/tokensource/tokensource.go

// Package tokensource obtains access tokens from the identity provider with
// the OAuth2 client credentials grant.
package tokensource

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"castingagency/internal/config"
)

// New returns a token source for the configured client. Tokens are requested
// for the configured audience and cached until they expire.
func New(ctx context.Context, cfg config.Auth, client *http.Client) (oauth2.TokenSource, error) {
	if cfg.Client.TokenURL == "" {
		return nil, fmt.Errorf("token URL is required")
	}

	cc := &clientcredentials.Config{
		ClientID:     cfg.Client.ID,
		ClientSecret: cfg.Client.Secret,
		TokenURL:     cfg.Client.TokenURL,
		EndpointParams: url.Values{
			"audience": {cfg.Audience},
		},
		AuthStyle: oauth2.AuthStyleInParams,
	}

	if client != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, client)
	}
	return cc.TokenSource(ctx), nil
}

// AccessToken fetches a single access token
func AccessToken(ctx context.Context, cfg config.Auth, client *http.Client) (string, error) {
	ts, err := New(ctx, cfg, client)
	if err != nil {
		return "", err
	}
	tok, err := ts.Token()
	if err != nil {
		return "", fmt.Errorf("failed to obtain access token: %w", err)
	}
	return tok.AccessToken, nil
}
