// internal/auth/errors.go
package auth

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an authorization failure
type Kind string

const (
	AuthHeaderMissing Kind = "auth_header_missing"
	InvalidHeader     Kind = "invalid_header"
	InvalidSignature  Kind = "invalid_signature"
	TokenExpired      Kind = "token_expired"
	InvalidClaims     Kind = "invalid_claims"
	Forbidden         Kind = "forbidden"
	KeyFetchFailed    Kind = "key_fetch_failed"
)

// AuthError is returned by every failed step of an authorization attempt.
// StatusCode and Description are reported to the caller unchanged.
type AuthError struct {
	StatusCode  int
	Kind        Kind
	Description string
	// Err is the underlying cause, never shown to callers
	Err error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Description, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Description)
}

func (e *AuthError) Unwrap() error { return e.Err }

// Is matches another *AuthError of the same kind
func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	return ok && t.Kind == e.Kind
}

func newError(status int, kind Kind, desc string, cause error) *AuthError {
	return &AuthError{StatusCode: status, Kind: kind, Description: desc, Err: cause}
}

// ErrHeaderMissing reports a request without an Authorization header
func ErrHeaderMissing() *AuthError {
	return newError(http.StatusUnauthorized, AuthHeaderMissing, "Authorization header is expected", nil)
}

// ErrInvalidHeader reports a malformed header, token or key id
func ErrInvalidHeader(desc string, cause error) *AuthError {
	return newError(http.StatusUnauthorized, InvalidHeader, desc, cause)
}

// ErrInvalidSignature reports a token whose signature does not verify
func ErrInvalidSignature(cause error) *AuthError {
	return newError(http.StatusUnauthorized, InvalidSignature, "Token signature is invalid.", cause)
}

// ErrTokenExpired reports a token past its expiry
func ErrTokenExpired(cause error) *AuthError {
	return newError(http.StatusUnauthorized, TokenExpired, "Token expired.", cause)
}

// ErrInvalidClaims reports an audience, issuer or other registered claim mismatch
func ErrInvalidClaims(cause error) *AuthError {
	return newError(http.StatusUnauthorized, InvalidClaims, "Incorrect claims. Please, check the audience and issuer.", cause)
}

// ErrPermissionsMissing reports a verified token without a permissions claim
func ErrPermissionsMissing() *AuthError {
	return newError(http.StatusBadRequest, InvalidClaims, "Permissions not included in JWT.", nil)
}

// ErrPermissionsMalformed reports a verified token whose permissions claim
// is not a list of strings
func ErrPermissionsMalformed() *AuthError {
	return newError(http.StatusBadRequest, InvalidClaims, "Permissions claim is malformed.", nil)
}

// ErrForbidden reports a verified token lacking the required permission
func ErrForbidden(required Permission) *AuthError {
	return newError(http.StatusForbidden, Forbidden, "Forbidden", fmt.Errorf("missing permission %q", required))
}

// ErrKeyFetch reports that signing keys could not be obtained
func ErrKeyFetch(cause error) *AuthError {
	return newError(http.StatusServiceUnavailable, KeyFetchFailed, "Unable to fetch signing keys.", cause)
}

// AsAuthError returns the *AuthError in err's chain, if any
func AsAuthError(err error) (*AuthError, bool) {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}
