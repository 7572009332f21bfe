package gate

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"castingagency/internal/auth"
	"castingagency/internal/auth/authtest"
	"castingagency/internal/auth/keyset"
	"castingagency/internal/auth/verifier"
	"castingagency/internal/authz"
	"castingagency/internal/contextutil"
)

func newGate(t *testing.T, issuer *authtest.Issuer, resolver authz.PermissionResolver) *Gate {
	t.Helper()
	v, err := verifier.New(verifier.Config{Issuer: issuer.Issuer(), Audience: issuer.Audience()},
		keyset.Static{issuer.KeyID(): issuer.PublicKey()})
	if err != nil {
		t.Fatalf("verifier.New: %v", err)
	}
	return New(v, authz.NewChecker(resolver), nil, nil)
}

func request(header string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/api/v1/movies", nil)
	if header != "" {
		r.Header.Set("Authorization", header)
	}
	return r
}

func TestAuthorize(t *testing.T) {
	issuer := authtest.NewIssuer(t, "")
	g := newGate(t, issuer, nil)

	stringPerms := issuer.Claims("user")
	stringPerms["permissions"] = "get:movies"

	tests := []struct {
		name     string
		header   string
		required auth.Permission
		kind     auth.Kind
		status   int
		message  string
	}{
		{
			name:     "missing header",
			required: auth.GetMovies,
			kind:     auth.AuthHeaderMissing,
			status:   http.StatusUnauthorized,
			message:  "Authorization header is expected",
		},
		{
			name:     "tampered signature",
			header:   authtest.Bearer(authtest.Tamper(issuer.Token("user", "get:movies"))),
			required: auth.GetMovies,
			kind:     auth.InvalidSignature,
			status:   http.StatusUnauthorized,
		},
		{
			name:     "expired",
			header:   authtest.Bearer(issuer.ExpiredToken("user", "get:movies")),
			required: auth.GetMovies,
			kind:     auth.TokenExpired,
			status:   http.StatusUnauthorized,
		},
		{
			name:     "permission missing",
			header:   authtest.Bearer(issuer.Token("assistant", "get:movies", "get:actors")),
			required: auth.DeleteMovies,
			kind:     auth.Forbidden,
			status:   http.StatusForbidden,
			message:  "Forbidden",
		},
		{
			name:     "permissions claim absent",
			header:   authtest.Bearer(issuer.TokenWithoutPermissions("user")),
			required: auth.GetMovies,
			kind:     auth.InvalidClaims,
			status:   http.StatusBadRequest,
			message:  "Permissions not included in JWT.",
		},
		{
			name:     "permissions claim not a list",
			header:   authtest.Bearer(issuer.Sign(stringPerms)),
			required: auth.GetMovies,
			kind:     auth.InvalidClaims,
			status:   http.StatusBadRequest,
			message:  "Permissions claim is malformed.",
		},
		{
			name:     "executive producer deletes movies",
			header:   authtest.Bearer(issuer.Token("producer", "delete:movies", "post:movies")),
			required: auth.DeleteMovies,
		},
		{
			name:     "empty requirement with valid token",
			header:   authtest.Bearer(issuer.TokenWithoutPermissions("user")),
			required: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := g.Authorize(request(tt.header), tt.required)
			if tt.kind == "" {
				if err != nil {
					t.Fatalf("Authorize: %v", err)
				}
				if claims == nil {
					t.Fatalf("expected claims on success")
				}
				return
			}

			if claims != nil {
				t.Fatalf("claims must be nil on failure, got %+v", claims)
			}
			var ae *auth.AuthError
			if !errors.As(err, &ae) {
				t.Fatalf("err = %v, want *auth.AuthError", err)
			}
			if ae.Kind != tt.kind || ae.StatusCode != tt.status {
				t.Fatalf("got %s/%d, want %s/%d", ae.Kind, ae.StatusCode, tt.kind, tt.status)
			}
			if tt.message != "" && ae.Description != tt.message {
				t.Fatalf("description = %q, want %q", ae.Description, tt.message)
			}
		})
	}
}

type stubVerifier struct {
	claims *auth.ClaimSet
	err    error
}

func (s stubVerifier) Verify(context.Context, string) (*auth.ClaimSet, error) {
	return s.claims, s.err
}

type countingChecker struct {
	calls int
}

func (c *countingChecker) Check(auth.Permission, *auth.ClaimSet) error {
	c.calls++
	return nil
}

func TestAuthorizeShortCircuits(t *testing.T) {
	checker := &countingChecker{}
	g := New(stubVerifier{err: auth.ErrTokenExpired(nil)}, checker, nil, nil)

	if _, err := g.Authorize(request("Bearer x"), auth.GetMovies); err == nil {
		t.Fatalf("expected error")
	}
	if checker.calls != 0 {
		t.Fatalf("checker called %d times after verification failure", checker.calls)
	}
}

func TestAuthorizeWrapsUnknownErrors(t *testing.T) {
	g := New(stubVerifier{err: errors.New("boom")}, &countingChecker{}, nil, nil)

	_, err := g.Authorize(request("Bearer x"), auth.GetMovies)
	ae, ok := auth.AsAuthError(err)
	if !ok || ae.StatusCode != http.StatusUnauthorized {
		t.Fatalf("err = %v, want 401 *auth.AuthError", err)
	}
}

func TestAuthorizeKeyFetchFailure(t *testing.T) {
	g := New(stubVerifier{err: auth.ErrKeyFetch(errors.New("timeout"))}, &countingChecker{}, nil, nil)

	_, err := g.Authorize(request("Bearer x"), auth.GetMovies)
	ae, ok := auth.AsAuthError(err)
	if !ok || ae.Kind != auth.KeyFetchFailed || ae.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("err = %v, want 503 key_fetch_failed", err)
	}
}

func TestAuthorizeRequestStoresClaims(t *testing.T) {
	issuer := authtest.NewIssuer(t, "")
	g := newGate(t, issuer, nil)

	r, claims, err := g.AuthorizeRequest(request(authtest.Bearer(issuer.Token("director", "patch:actors"))), auth.PatchActors)
	if err != nil {
		t.Fatalf("AuthorizeRequest: %v", err)
	}
	if got := contextutil.GetClaims(r.Context()); got != claims || got.Subject != "director" {
		t.Fatalf("claims in context = %+v, want %+v", got, claims)
	}
}

func TestAuthorizeWithRoles(t *testing.T) {
	issuer := authtest.NewIssuer(t, "")
	g := newGate(t, issuer, authz.DefaultRoles())

	header := authtest.Bearer(issuer.RoleToken("producer", authz.ExecutiveProducer))
	if _, err := g.Authorize(request(header), auth.DeleteMovies); err != nil {
		t.Fatalf("executive producer should delete movies: %v", err)
	}

	header = authtest.Bearer(issuer.RoleToken("assistant", authz.CastingAssistant))
	_, err := g.Authorize(request(header), auth.DeleteMovies)
	if ae, ok := auth.AsAuthError(err); !ok || ae.Kind != auth.Forbidden {
		t.Fatalf("casting assistant must not delete movies, got %v", err)
	}
}
