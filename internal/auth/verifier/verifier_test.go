package verifier

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"net/http"
	"reflect"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"castingagency/internal/auth"
	"castingagency/internal/auth/authtest"
	"castingagency/internal/auth/keyset"
)

func newVerifier(t *testing.T, issuer *authtest.Issuer) *Verifier {
	t.Helper()
	v, err := New(Config{Issuer: issuer.Issuer(), Audience: issuer.Audience()},
		keyset.Static{issuer.KeyID(): issuer.PublicKey()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return v
}

func wantKind(t *testing.T, err error, kind auth.Kind, status int) *auth.AuthError {
	t.Helper()
	ae, ok := auth.AsAuthError(err)
	if !ok {
		t.Fatalf("err = %v (%T), want *auth.AuthError", err, err)
	}
	if ae.Kind != kind || ae.StatusCode != status {
		t.Fatalf("got %s/%d (%v), want %s/%d", ae.Kind, ae.StatusCode, ae, kind, status)
	}
	return ae
}

func TestVerifyValidToken(t *testing.T) {
	issuer := authtest.NewIssuer(t, "")
	v := newVerifier(t, issuer)

	token := issuer.Token("auth0|producer", "get:movies", "delete:movies")
	claims, err := v.Verify(context.Background(), authtest.Bearer(token))
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Subject != "auth0|producer" {
		t.Fatalf("subject = %q", claims.Subject)
	}
	if claims.Issuer != issuer.Issuer() {
		t.Fatalf("issuer = %q", claims.Issuer)
	}
	if !reflect.DeepEqual(claims.Audience, []string{issuer.Audience()}) {
		t.Fatalf("audience = %v", claims.Audience)
	}
	if !reflect.DeepEqual(claims.Permissions, []string{"get:movies", "delete:movies"}) {
		t.Fatalf("permissions = %v", claims.Permissions)
	}
	if claims.ExpiresAt.IsZero() || claims.IssuedAt.IsZero() {
		t.Fatalf("expected exp and iat to be set: %+v", claims)
	}
}

func TestVerifyIsDeterministic(t *testing.T) {
	issuer := authtest.NewIssuer(t, "")
	v := newVerifier(t, issuer)
	header := authtest.Bearer(issuer.Token("user", "get:actors"))

	first, err := v.Verify(context.Background(), header)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	second, err := v.Verify(context.Background(), header)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("claim sets differ:\n%+v\n%+v", first, second)
	}
}

func TestVerifyPermissionsClaimShape(t *testing.T) {
	issuer := authtest.NewIssuer(t, "")
	v := newVerifier(t, issuer)

	absent, err := v.VerifyToken(context.Background(), issuer.TokenWithoutPermissions("user"))
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if absent.HasPermissions() {
		t.Fatalf("permissions claim should be absent, got %v", absent.Permissions)
	}

	empty, err := v.VerifyToken(context.Background(), issuer.Token("user"))
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if !empty.HasPermissions() || len(empty.Permissions) != 0 {
		t.Fatalf("permissions claim should be present and empty, got %#v", empty.Permissions)
	}

	for _, value := range []any{"get:movies", map[string]any{"get": "movies"}, []any{"get:movies", 7}} {
		claims := issuer.Claims("user")
		claims["permissions"] = value
		cs, err := v.VerifyToken(context.Background(), issuer.Sign(claims))
		if err != nil {
			t.Fatalf("permissions %v: VerifyToken: %v", value, err)
		}
		if !cs.PermissionsMalformed || cs.HasPermissions() {
			t.Fatalf("permissions %v: expected a malformed claim, got %+v", value, cs)
		}
	}
}

func TestVerifyAudienceList(t *testing.T) {
	issuer := authtest.NewIssuer(t, "")
	v := newVerifier(t, issuer)

	claims := issuer.Claims("user")
	claims["aud"] = []string{"https://other.example.com", issuer.Audience()}
	claims["permissions"] = []string{"get:movies"}

	cs, err := v.VerifyToken(context.Background(), issuer.Sign(claims))
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if len(cs.Audience) != 2 {
		t.Fatalf("audience = %v", cs.Audience)
	}
}

func TestVerifyFailures(t *testing.T) {
	issuer := authtest.NewIssuer(t, "")
	v := newVerifier(t, issuer)

	otherKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	forged := jwt.NewWithClaims(jwt.SigningMethodRS256, issuer.Claims("user"))
	forged.Header["kid"] = issuer.KeyID()
	forgedToken, err := forged.SignedString(otherKey)
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}

	hmac := jwt.NewWithClaims(jwt.SigningMethodHS256, issuer.Claims("user"))
	hmac.Header["kid"] = issuer.KeyID()
	hmacToken, err := hmac.SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}

	wrongAud := issuer.Claims("user")
	wrongAud["aud"] = "someone-else"

	wrongIss := issuer.Claims("user")
	wrongIss["iss"] = "https://evil.example.com/"

	noExp := issuer.Claims("user")
	delete(noExp, "exp")

	stringPerms := issuer.Claims("user")
	stringPerms["permissions"] = "get:movies"

	expiredForged := issuer.Claims("user")
	expiredForged["exp"] = time.Now().Add(-time.Hour).Unix()

	tests := []struct {
		name   string
		header string
		kind   auth.Kind
		status int
		desc   string
	}{
		{"missing header", "", auth.AuthHeaderMissing, http.StatusUnauthorized, "Authorization header is expected"},
		{"basic scheme", "Basic abc", auth.InvalidHeader, http.StatusUnauthorized, ""},
		{"lowercase bearer", "bearer " + issuer.Token("user"), auth.InvalidHeader, http.StatusUnauthorized, ""},
		{"bearer only", "Bearer", auth.InvalidHeader, http.StatusUnauthorized, "Token not found."},
		{"three parts", "Bearer a b", auth.InvalidHeader, http.StatusUnauthorized, ""},
		{"garbage token", "Bearer not-a-jwt", auth.InvalidHeader, http.StatusUnauthorized, "Authorization malformed."},
		{"no kid", authtest.Bearer(issuer.SignWithKid(issuer.Claims("user"), "")), auth.InvalidHeader, http.StatusUnauthorized, "Authorization malformed."},
		{"unknown kid", authtest.Bearer(issuer.SignWithKid(issuer.Claims("user"), "other")), auth.InvalidHeader, http.StatusUnauthorized, "Unable to find the appropriate key."},
		{"tampered", authtest.Bearer(authtest.Tamper(issuer.Token("user", "get:movies"))), auth.InvalidSignature, http.StatusUnauthorized, "Token signature is invalid."},
		{"wrong key", authtest.Bearer(forgedToken), auth.InvalidSignature, http.StatusUnauthorized, ""},
		{"hmac algorithm", authtest.Bearer(hmacToken), auth.InvalidSignature, http.StatusUnauthorized, ""},
		{"expired", authtest.Bearer(issuer.ExpiredToken("user", "get:movies")), auth.TokenExpired, http.StatusUnauthorized, "Token expired."},
		{"wrong audience", authtest.Bearer(issuer.Sign(wrongAud)), auth.InvalidClaims, http.StatusUnauthorized, "Incorrect claims. Please, check the audience and issuer."},
		{"wrong issuer", authtest.Bearer(issuer.Sign(wrongIss)), auth.InvalidClaims, http.StatusUnauthorized, ""},
		{"missing exp", authtest.Bearer(issuer.Sign(noExp)), auth.InvalidClaims, http.StatusUnauthorized, ""},
		{"malformed permissions and tampered", authtest.Bearer(authtest.Tamper(issuer.Sign(stringPerms))), auth.InvalidSignature, http.StatusUnauthorized, "Token signature is invalid."},
		{"expired and tampered", authtest.Bearer(authtest.Tamper(issuer.Sign(expiredForged))), auth.InvalidSignature, http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := v.Verify(context.Background(), tt.header)
			if claims != nil {
				t.Fatalf("expected no claims, got %+v", claims)
			}
			ae := wantKind(t, err, tt.kind, tt.status)
			if tt.desc != "" && ae.Description != tt.desc {
				t.Fatalf("description = %q, want %q", ae.Description, tt.desc)
			}
		})
	}
}

type failingKeys struct{}

func (failingKeys) Key(context.Context, string) (crypto.PublicKey, error) {
	return nil, errors.Join(keyset.ErrFetch, errors.New("connection refused"))
}

func TestVerifyKeyFetchFailure(t *testing.T) {
	issuer := authtest.NewIssuer(t, "")
	v, err := New(Config{Issuer: issuer.Issuer(), Audience: issuer.Audience()}, failingKeys{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = v.Verify(context.Background(), authtest.Bearer(issuer.Token("user")))
	wantKind(t, err, auth.KeyFetchFailed, http.StatusServiceUnavailable)
}

func TestVerifyAgainstRemoteKeys(t *testing.T) {
	issuer := authtest.NewIssuer(t, "")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	keys, err := keyset.NewRemote(ctx, issuer.JWKSURL(), keyset.Options{
		HTTPClient:       issuer.Client(),
		MinForcedRefresh: time.Nanosecond,
	}, nil, nil)
	if err != nil {
		t.Fatalf("NewRemote: %v", err)
	}
	v, err := New(Config{Issuer: issuer.Issuer(), Audience: issuer.Audience()}, keys)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := v.Verify(ctx, authtest.Bearer(issuer.Token("user", "get:movies"))); err != nil {
		t.Fatalf("Verify: %v", err)
	}

	issuer.Rotate()
	if _, err := v.Verify(ctx, authtest.Bearer(issuer.Token("user", "get:movies"))); err != nil {
		t.Fatalf("Verify after key rotation: %v", err)
	}

	issuer.SetFailing(true)
	issuer.Rotate()
	_, err = v.Verify(ctx, authtest.Bearer(issuer.Token("user", "get:movies")))
	wantKind(t, err, auth.KeyFetchFailed, http.StatusServiceUnavailable)
}

func TestVerifyLeeway(t *testing.T) {
	issuer := authtest.NewIssuer(t, "")
	keys := keyset.Static{issuer.KeyID(): issuer.PublicKey()}

	claims := issuer.Claims("user")
	claims["exp"] = time.Now().Add(-30 * time.Second).Unix()
	token := issuer.Sign(claims)

	strict, _ := New(Config{Issuer: issuer.Issuer(), Audience: issuer.Audience()}, keys)
	if _, err := strict.VerifyToken(context.Background(), token); err == nil {
		t.Fatalf("expected expiry without leeway")
	}

	lenient, _ := New(Config{Issuer: issuer.Issuer(), Audience: issuer.Audience(), Leeway: time.Minute}, keys)
	if _, err := lenient.VerifyToken(context.Background(), token); err != nil {
		t.Fatalf("VerifyToken with leeway: %v", err)
	}
}

func TestNewValidation(t *testing.T) {
	keys := keyset.Static{}
	if _, err := New(Config{Audience: "a"}, keys); err == nil {
		t.Fatalf("expected error without issuer")
	}
	if _, err := New(Config{Issuer: "i"}, keys); err == nil {
		t.Fatalf("expected error without audience")
	}
	if _, err := New(Config{Issuer: "i", Audience: "a"}, nil); err == nil {
		t.Fatalf("expected error without keys")
	}
}
