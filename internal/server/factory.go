// internal/server/factory.go
package server

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"time"

	"castingagency/internal/api"
	"castingagency/internal/auth/gate"
	"castingagency/internal/auth/keyset"
	"castingagency/internal/auth/verifier"
	"castingagency/internal/authz"
	"castingagency/internal/config"
	"castingagency/internal/observability"
	"castingagency/internal/observability/logging"
	"castingagency/internal/store"
	tlsconfig "castingagency/internal/tls"
)

const storePingTimeout = 5 * time.Second

// NewFromConfig creates a new server from configuration. Background key
// refreshes stop when ctx is cancelled.
func NewFromConfig(ctx context.Context, cfg *config.Config) (*Server, error) {
	// Initialize observability
	obs, err := observability.NewProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}
	logger := obs.Logger

	// Initialize TLS configuration
	var tlsCfg *tls.Config
	if cfg.TLS.Enabled {
		tlsSetup := &tlsconfig.Config{
			Logger:   logger,
			CertPath: cfg.TLS.CertPath,
			KeyPath:  cfg.TLS.KeyPath,
		}
		if tlsCfg, err = tlsSetup.GetTLSConfig(); err != nil {
			return nil, fmt.Errorf("failed to create TLS configuration: %w", err)
		}
	}

	// Initialize token verification
	keys, err := newKeySet(ctx, cfg.Auth, obs)
	if err != nil {
		return nil, err
	}
	tokenVerifier, err := verifier.New(verifier.Config{
		Issuer:   cfg.Auth.Issuer,
		Audience: cfg.Auth.Audience,
		Leeway:   cfg.Auth.Leeway,
	}, keys)
	if err != nil {
		return nil, fmt.Errorf("failed to create token verifier: %w", err)
	}

	var resolver authz.PermissionResolver = authz.ClaimPermissions{}
	if cfg.Auth.RolesEnabled {
		logger.Warn("Resolving permissions from roles; use only for development")
		resolver = authz.DefaultRoles()
	}
	authGate := gate.New(tokenVerifier, authz.NewChecker(resolver), logger, obs.Metrics)

	// Initialize storage
	repo, err := store.Open(store.Config{
		Driver:      cfg.Database.Driver,
		DSN:         cfg.Database.URL,
		AutoMigrate: cfg.Database.AutoMigrate,
	}, logger, obs.Metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, storePingTimeout)
	defer cancel()
	if err := repo.Ping(pingCtx); err != nil {
		_ = repo.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}

	routes := api.New(api.Config{AllowedOrigins: cfg.CORS.AllowedOrigins}, repo, authGate, logger)

	serverConfig := Config{
		Address:         cfg.Server.Address,
		MetricsAddress:  cfg.Metrics.Address,
		TLS:             tlsCfg,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}

	// Create complete middleware chain: observability -> CORS -> routes
	handler := obs.Middleware(routes.Handler())

	srv := New(serverConfig, handler, obs.MetricsHandler(), logger)
	srv.CloseOnStop(repo)
	return srv, nil
}

// newKeySet resolves the JWKS endpoint and registers it for refresh
func newKeySet(ctx context.Context, cfg config.Auth, obs *observability.Provider) (*keyset.Remote, error) {
	client := &http.Client{Timeout: cfg.JWKSFetchTimeout}

	jwksURL, err := keyset.ResolveJWKSURL(ctx, cfg, client)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve JWKS URL: %w", err)
	}

	keys, err := keyset.NewRemote(ctx, jwksURL, keyset.Options{
		RefreshInterval: cfg.JWKSRefreshInterval,
		FetchTimeout:    cfg.JWKSFetchTimeout,
		HTTPClient:      client,
	}, obs.Logger, obs.Metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to create key set: %w", err)
	}

	obs.Logger.Info("Token verification configured",
		"issuer", cfg.Issuer,
		"audience", cfg.Audience,
		"jwks_url", logging.RedactStringURL(keys.URL()))
	return keys, nil
}
