// internal/auth/authtest/issuer.go

// Package authtest provides a token issuer for tests. It signs RS256 tokens
// and serves the matching JWKS and discovery document from an httptest
// server, so verification runs end to end without a real identity provider.
package authtest

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
)

// DefaultAudience is the audience used when none is given
const DefaultAudience = "casting-agency"

// Issuer is a test identity provider
type Issuer struct {
	t        testing.TB
	server   *httptest.Server
	audience string

	mu   sync.RWMutex
	key  *rsa.PrivateKey
	kid  string
	keys int

	fetches atomic.Int64
	failing atomic.Bool
}

// NewIssuer starts a test issuer. The server is closed when the test ends.
func NewIssuer(t testing.TB, audience string) *Issuer {
	t.Helper()
	if audience == "" {
		audience = DefaultAudience
	}

	ti := &Issuer{t: t, audience: audience}
	ti.Rotate()

	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/jwks.json", ti.handleJWKS)
	mux.HandleFunc("/.well-known/openid-configuration", ti.handleDiscovery)
	ti.server = httptest.NewServer(mux)
	t.Cleanup(ti.server.Close)

	return ti
}

// Issuer returns the "iss" value of minted tokens, with a trailing slash
func (ti *Issuer) Issuer() string {
	return ti.server.URL + "/"
}

// Audience returns the "aud" value of minted tokens
func (ti *Issuer) Audience() string {
	return ti.audience
}

// JWKSURL returns the URL of the served key set
func (ti *Issuer) JWKSURL() string {
	return ti.server.URL + "/.well-known/jwks.json"
}

// Client returns an HTTP client for the issuer's server
func (ti *Issuer) Client() *http.Client {
	return ti.server.Client()
}

// Fetches returns how many times the JWKS has been served
func (ti *Issuer) Fetches() int64 {
	return ti.fetches.Load()
}

// SetFailing makes the JWKS endpoint answer 500 until reset
func (ti *Issuer) SetFailing(failing bool) {
	ti.failing.Store(failing)
}

// KeyID returns the id of the current signing key
func (ti *Issuer) KeyID() string {
	ti.mu.RLock()
	defer ti.mu.RUnlock()
	return ti.kid
}

// PublicKey returns the current public key
func (ti *Issuer) PublicKey() *rsa.PublicKey {
	ti.mu.RLock()
	defer ti.mu.RUnlock()
	return &ti.key.PublicKey
}

// Rotate replaces the signing key with a fresh one under a new key id.
// The old key is no longer served.
func (ti *Issuer) Rotate() {
	ti.t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		ti.t.Fatalf("failed to generate RSA key: %v", err)
	}

	ti.mu.Lock()
	defer ti.mu.Unlock()
	ti.keys++
	ti.key = key
	ti.kid = fmt.Sprintf("test-key-%d", ti.keys)
}

func (ti *Issuer) handleJWKS(w http.ResponseWriter, r *http.Request) {
	ti.fetches.Add(1)
	if ti.failing.Load() {
		http.Error(w, "unavailable", http.StatusInternalServerError)
		return
	}

	key, err := jwk.FromRaw(ti.PublicKey())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	_ = key.Set(jwk.KeyIDKey, ti.KeyID())
	_ = key.Set(jwk.AlgorithmKey, jwa.RS256)
	_ = key.Set(jwk.KeyUsageKey, "sig")

	set := jwk.NewSet()
	if err := set.AddKey(key); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(set)
}

func (ti *Issuer) handleDiscovery(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"issuer":                                ti.Issuer(),
		"jwks_uri":                              ti.JWKSURL(),
		"authorization_endpoint":                ti.server.URL + "/authorize",
		"token_endpoint":                        ti.server.URL + "/oauth/token",
		"id_token_signing_alg_values_supported": []string{"RS256"},
	})
}

// Claims returns the registered claims of a valid token for subject
func (ti *Issuer) Claims(subject string) jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"sub": subject,
		"iss": ti.Issuer(),
		"aud": ti.audience,
		"exp": now.Add(time.Hour).Unix(),
		"iat": now.Unix(),
	}
}

// Sign signs claims with the current key and key id
func (ti *Issuer) Sign(claims jwt.MapClaims) string {
	return ti.SignWithKid(claims, ti.KeyID())
}

// SignWithKid signs claims with the current key under the given key id.
// An empty kid omits the header.
func (ti *Issuer) SignWithKid(claims jwt.MapClaims, kid string) string {
	ti.t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	if kid != "" {
		token.Header["kid"] = kid
	}

	ti.mu.RLock()
	signed, err := token.SignedString(ti.key)
	ti.mu.RUnlock()
	if err != nil {
		ti.t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

// Token returns a valid token granting permissions
func (ti *Issuer) Token(subject string, permissions ...string) string {
	claims := ti.Claims(subject)
	if permissions == nil {
		permissions = []string{}
	}
	claims["permissions"] = permissions
	return ti.Sign(claims)
}

// TokenWithoutPermissions returns a valid token with no permissions claim
func (ti *Issuer) TokenWithoutPermissions(subject string) string {
	return ti.Sign(ti.Claims(subject))
}

// ExpiredToken returns a token that expired an hour ago
func (ti *Issuer) ExpiredToken(subject string, permissions ...string) string {
	claims := ti.Claims(subject)
	claims["exp"] = time.Now().Add(-time.Hour).Unix()
	claims["iat"] = time.Now().Add(-2 * time.Hour).Unix()
	claims["permissions"] = permissions
	return ti.Sign(claims)
}

// RoleToken returns a valid token carrying the roles claim and no permissions
func (ti *Issuer) RoleToken(subject string, roles ...string) string {
	claims := ti.Claims(subject)
	claims["roles"] = roles
	return ti.Sign(claims)
}

// Tamper alters the payload of a signed token without re-signing it
func Tamper(token string) string {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return token
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return token
	}
	var claims map[string]any
	if err := json.Unmarshal(payload, &claims); err != nil {
		return token
	}
	claims["sub"] = "attacker"
	altered, err := json.Marshal(claims)
	if err != nil {
		return token
	}
	parts[1] = base64.RawURLEncoding.EncodeToString(altered)
	return strings.Join(parts, ".")
}

// Bearer formats an Authorization header value
func Bearer(token string) string {
	return "Bearer " + token
}
