// internal/auth/keyset/discovery.go
package keyset

import (
	"context"
	"fmt"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"

	"castingagency/internal/config"
)

// Discover reads the issuer's OpenID discovery document and returns its
// jwks_uri. The document's issuer must match exactly, trailing slash included.
func Discover(ctx context.Context, issuer string, client *http.Client) (string, error) {
	if client != nil {
		ctx = oidc.ClientContext(ctx, client)
	}

	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return "", fmt.Errorf("failed to discover provider %q: %w", issuer, err)
	}

	var metadata struct {
		JWKSURL string `json:"jwks_uri"`
	}
	if err := provider.Claims(&metadata); err != nil {
		return "", fmt.Errorf("failed to decode discovery document: %w", err)
	}
	if metadata.JWKSURL == "" {
		return "", fmt.Errorf("discovery document for %q has no jwks_uri", issuer)
	}
	return metadata.JWKSURL, nil
}

// ResolveJWKSURL picks the JWKS endpoint: an explicit URL wins, then the URL
// derived from the identity domain, then discovery on the issuer.
func ResolveJWKSURL(ctx context.Context, cfg config.Auth, client *http.Client) (string, error) {
	switch {
	case cfg.JWKSURL != "":
		return cfg.JWKSURL, nil
	case cfg.Domain != "":
		return "https://" + cfg.Domain + "/.well-known/jwks.json", nil
	case cfg.DiscoveryEnabled:
		return Discover(ctx, cfg.Issuer, client)
	}
	return "", fmt.Errorf("no JWKS URL configured")
}
