// internal/auth/verifier/verifier.go

// Package verifier validates bearer tokens against the trusted authority.
package verifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"castingagency/internal/auth"
	"castingagency/internal/auth/keyset"
)

// Algorithms accepted for token signatures
var Algorithms = []string{"RS256", "RS384", "RS512"}

// Config holds the expected token claims
type Config struct {
	// Issuer must equal the "iss" claim exactly
	Issuer string
	// Audience must be contained in the "aud" claim
	Audience string
	// Leeway is the clock skew allowed when checking expiry
	Leeway time.Duration
	// Now overrides the clock, for tests
	Now func() time.Time
}

// tokenClaims is the decoded token payload. Custom claims stay raw until the
// signature is verified so a malformed shape is reported as a claims error.
type tokenClaims struct {
	jwt.RegisteredClaims
	Permissions json.RawMessage `json:"permissions"`
	Roles       json.RawMessage `json:"roles"`
}

// Verifier turns a bearer token into a validated ClaimSet. It holds no
// per-request state and is safe for concurrent use.
type Verifier struct {
	keys   keyset.KeySet
	parser *jwt.Parser
}

// New creates a verifier for tokens signed by keys
func New(cfg Config, keys keyset.KeySet) (*Verifier, error) {
	if cfg.Issuer == "" {
		return nil, fmt.Errorf("issuer is required")
	}
	if cfg.Audience == "" {
		return nil, fmt.Errorf("audience is required")
	}
	if keys == nil {
		return nil, fmt.Errorf("key set is required")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods(Algorithms),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithAudience(cfg.Audience),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(cfg.Leeway),
	}
	if cfg.Now != nil {
		opts = append(opts, jwt.WithTimeFunc(cfg.Now))
	}

	return &Verifier{
		keys:   keys,
		parser: jwt.NewParser(opts...),
	}, nil
}

// Verify extracts the bearer token from an Authorization header value and
// verifies it.
func (v *Verifier) Verify(ctx context.Context, header string) (*auth.ClaimSet, error) {
	token, err := auth.ParseBearer(header)
	if err != nil {
		return nil, err
	}
	return v.VerifyToken(ctx, token)
}

// VerifyToken verifies the signature, expiry, audience and issuer of token.
// Every failure is an *auth.AuthError.
func (v *Verifier) VerifyToken(ctx context.Context, token string) (*auth.ClaimSet, error) {
	unverified, _, err := v.parser.ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return nil, auth.ErrInvalidHeader("Authorization malformed.", err)
	}
	kid, _ := unverified.Header["kid"].(string)
	if kid == "" {
		return nil, auth.ErrInvalidHeader("Authorization malformed.", errors.New("token header has no kid"))
	}

	key, err := v.keys.Key(ctx, kid)
	switch {
	case errors.Is(err, keyset.ErrKeyNotFound):
		return nil, auth.ErrInvalidHeader("Unable to find the appropriate key.", err)
	case err != nil:
		return nil, auth.ErrKeyFetch(err)
	}

	claims := &tokenClaims{}
	_, err = v.parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return key, nil
	})
	if err != nil {
		return nil, classify(err)
	}

	return claimSet(claims), nil
}

// classify maps parser errors onto the authorization taxonomy. The signature
// is checked before any claim, so a forged token never reports as expired.
func classify(err error) *auth.AuthError {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return auth.ErrInvalidSignature(err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return auth.ErrTokenExpired(err)
	case errors.Is(err, jwt.ErrTokenInvalidAudience),
		errors.Is(err, jwt.ErrTokenInvalidIssuer),
		errors.Is(err, jwt.ErrTokenNotValidYet),
		errors.Is(err, jwt.ErrTokenUsedBeforeIssued),
		errors.Is(err, jwt.ErrTokenRequiredClaimMissing),
		errors.Is(err, jwt.ErrTokenInvalidClaims):
		return auth.ErrInvalidClaims(err)
	default:
		return auth.ErrInvalidHeader("Unable to parse authentication token.", err)
	}
}

func claimSet(c *tokenClaims) *auth.ClaimSet {
	cs := &auth.ClaimSet{
		Subject:  c.Subject,
		Issuer:   c.Issuer,
		Audience: []string(c.Audience),
	}
	var ok bool
	if cs.Permissions, ok = stringList(c.Permissions); !ok {
		cs.PermissionsMalformed = true
	}
	// roles only feed the development role table; a malformed value grants nothing
	cs.Roles, _ = stringList(c.Roles)
	if c.ExpiresAt != nil {
		cs.ExpiresAt = c.ExpiresAt.Time
	}
	if c.IssuedAt != nil {
		cs.IssuedAt = c.IssuedAt.Time
	}
	return cs
}

// stringList decodes an optional string array claim. An absent or null claim
// is nil; any other shape reports ok=false.
func stringList(raw json.RawMessage) (list []string, ok bool) {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, true
	}
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, false
	}
	if list == nil {
		list = []string{}
	}
	return list, true
}
