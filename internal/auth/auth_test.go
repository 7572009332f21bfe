package auth

import (
	"errors"
	"net/http"
	"testing"
)

func TestParseBearer(t *testing.T) {
	tests := []struct {
		header string
		token  string
		kind   Kind
		desc   string
	}{
		{header: "Bearer abc.def.ghi", token: "abc.def.ghi"},
		{header: "", kind: AuthHeaderMissing, desc: "Authorization header is expected"},
		{header: "bearer abc", kind: InvalidHeader},
		{header: "BEARER abc", kind: InvalidHeader},
		{header: "Token abc", kind: InvalidHeader},
		{header: "Bearer", kind: InvalidHeader, desc: "Token not found."},
		{header: "Bearer ", kind: InvalidHeader, desc: "Token not found."},
		{header: "Bearer a b", kind: InvalidHeader, desc: "Authorization header must be bearer token."},
		{header: "Bearer  abc", kind: InvalidHeader},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			token, err := ParseBearer(tt.header)
			if tt.kind == "" {
				if err != nil {
					t.Fatalf("ParseBearer: %v", err)
				}
				if token != tt.token {
					t.Fatalf("token = %q, want %q", token, tt.token)
				}
				return
			}
			ae, ok := AsAuthError(err)
			if !ok {
				t.Fatalf("err = %v, want *AuthError", err)
			}
			if ae.Kind != tt.kind || ae.StatusCode != http.StatusUnauthorized {
				t.Fatalf("got %s/%d, want %s/401", ae.Kind, ae.StatusCode, tt.kind)
			}
			if tt.desc != "" && ae.Description != tt.desc {
				t.Fatalf("description = %q, want %q", ae.Description, tt.desc)
			}
		})
	}
}

func TestAuthErrorMatching(t *testing.T) {
	cause := errors.New("signature mismatch")
	err := error(ErrInvalidSignature(cause))

	if !errors.Is(err, ErrInvalidSignature(nil)) {
		t.Fatalf("errors.Is should match on kind")
	}
	if errors.Is(err, ErrTokenExpired(nil)) {
		t.Fatalf("errors.Is must not match a different kind")
	}
	if !errors.Is(err, cause) {
		t.Fatalf("cause should be reachable through Unwrap")
	}
}

func TestStatusCodes(t *testing.T) {
	tests := []struct {
		err    *AuthError
		status int
	}{
		{ErrHeaderMissing(), http.StatusUnauthorized},
		{ErrInvalidHeader("x", nil), http.StatusUnauthorized},
		{ErrInvalidSignature(nil), http.StatusUnauthorized},
		{ErrTokenExpired(nil), http.StatusUnauthorized},
		{ErrInvalidClaims(nil), http.StatusUnauthorized},
		{ErrPermissionsMissing(), http.StatusBadRequest},
		{ErrForbidden(GetMovies), http.StatusForbidden},
		{ErrKeyFetch(nil), http.StatusServiceUnavailable},
		{ErrPermissionsMalformed(), http.StatusBadRequest},
	}
	for _, tt := range tests {
		if tt.err.StatusCode != tt.status {
			t.Fatalf("%s: status = %d, want %d", tt.err.Kind, tt.err.StatusCode, tt.status)
		}
	}
}

func TestClaimSetPermissions(t *testing.T) {
	var nilClaims *ClaimSet
	if nilClaims.HasPermissions() {
		t.Fatalf("nil claim set grants nothing")
	}

	absent := &ClaimSet{}
	if absent.HasPermissions() {
		t.Fatalf("absent claim reported as present")
	}

	cs := &ClaimSet{Permissions: []string{"get:movies"}}
	if !cs.HasPermissions() {
		t.Fatalf("present claim reported as absent: %v", cs.Permissions)
	}
}
