// internal/auth/gate/gate.go

// Package gate composes token verification and permission checking in front
// of a protected operation.
package gate

import (
	"context"
	"net/http"

	"castingagency/internal/auth"
	"castingagency/internal/contextutil"
	"castingagency/internal/observability/logging"
	"castingagency/internal/observability/metrics"
)

// OutcomeAllowed is the metrics outcome for a successful attempt
const OutcomeAllowed = "allowed"

// TokenVerifier validates an Authorization header value
type TokenVerifier interface {
	Verify(ctx context.Context, header string) (*auth.ClaimSet, error)
}

// PermissionChecker decides whether claims satisfy a requirement
type PermissionChecker interface {
	Check(required auth.Permission, claims *auth.ClaimSet) error
}

// Gate runs header extraction, token verification and the permission check,
// stopping at the first failure. Attempts share no state.
type Gate struct {
	verifier TokenVerifier
	checker  PermissionChecker
	logger   *logging.Logger
	metrics  *metrics.Collector
}

// New creates a gate
func New(verifier TokenVerifier, checker PermissionChecker, logger *logging.Logger, collector *metrics.Collector) *Gate {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Gate{
		verifier: verifier,
		checker:  checker,
		logger:   logger.WithModule("auth.gate"),
		metrics:  collector,
	}
}

// Authorize returns the caller's claims when the request carries a valid
// token granting required. On failure the error is an *auth.AuthError and
// the claims are nil.
func (g *Gate) Authorize(r *http.Request, required auth.Permission) (*auth.ClaimSet, error) {
	ctx := r.Context()
	logger := contextutil.LoggerOr(ctx, g.logger)

	claims, err := g.verifier.Verify(ctx, r.Header.Get("Authorization"))
	if err == nil {
		err = g.checker.Check(required, claims)
	}
	if err != nil {
		ae, ok := auth.AsAuthError(err)
		if !ok {
			ae = auth.ErrInvalidHeader("Unable to parse authentication token.", err)
		}
		g.metrics.RecordAuthorization(string(required), string(ae.Kind))

		attrs := []any{
			"permission", required,
			"kind", ae.Kind,
			"status", ae.StatusCode,
		}
		if claims != nil {
			attrs = append(attrs, "subject", claims.Subject)
		}
		if ae.Kind == auth.KeyFetchFailed {
			logger.Error("Authorization failed", append(attrs, logging.Err(ae.Err))...)
		} else {
			logger.Info("Authorization denied", append(attrs, "reason", ae.Error())...)
		}
		return nil, ae
	}

	g.metrics.RecordAuthorization(string(required), OutcomeAllowed)
	logger.Debug("Authorization granted", "permission", required, "subject", claims.Subject)
	return claims, nil
}

// AuthorizeRequest is Authorize returning a request whose context carries
// the claims.
func (g *Gate) AuthorizeRequest(r *http.Request, required auth.Permission) (*http.Request, *auth.ClaimSet, error) {
	claims, err := g.Authorize(r, required)
	if err != nil {
		return r, nil, err
	}
	return r.WithContext(contextutil.WithClaims(r.Context(), claims)), claims, nil
}
