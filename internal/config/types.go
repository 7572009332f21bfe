// internal/config/types.go
package config

import (
	"time"
)

// Config represents the complete application configuration
type Config struct {
	// Server holds HTTP server configuration
	Server struct {
		// Address is the address to listen on
		Address string
		// ShutdownTimeout is the maximum time to wait for a graceful shutdown
		ShutdownTimeout time.Duration
	}

	// Metrics holds metrics server configuration
	Metrics struct {
		// Address is the address to listen on for the metrics server
		Address string
	}

	// TLS holds TLS configuration
	TLS struct {
		// Enabled indicates whether TLS is enabled
		Enabled bool
		// CertPath is the path to the TLS certificate
		CertPath string
		// KeyPath is the path to the TLS key
		KeyPath string
	}

	// Auth holds configuration for the trusted token authority
	Auth Auth

	// Database holds persistence configuration
	Database struct {
		// Driver is the gorm dialect to use (postgres, sqlite)
		Driver string
		// URL is the DSN, or the database file for sqlite
		URL string
		// AutoMigrate creates or updates the schema at startup
		AutoMigrate bool
	}

	// CORS holds cross-origin configuration
	CORS struct {
		// AllowedOrigins lists origins allowed to call the API
		AllowedOrigins []string
	}

	// Observability holds observability configuration
	Observability struct {
		// LogLevel is the minimum log level to emit
		LogLevel string
		// LogFormat is the log format (json, text, console)
		LogFormat string
	}
}

// Auth describes the trusted token authority
type Auth struct {
	// Domain is the identity provider domain
	Domain string
	// Issuer is the expected "iss" claim
	Issuer string
	// Audience is the expected "aud" claim
	Audience string
	// JWKSURL is the signing key endpoint
	JWKSURL string
	// DiscoveryEnabled resolves JWKSURL from the issuer's discovery document
	DiscoveryEnabled bool
	// JWKSFetchTimeout bounds every inline key fetch
	JWKSFetchTimeout time.Duration
	// JWKSRefreshInterval is the floor for background key refreshes
	JWKSRefreshInterval time.Duration
	// Leeway is the clock skew allowed when checking expiry
	Leeway time.Duration
	// RolesEnabled resolves permissions from the static role table
	RolesEnabled bool

	// Client holds client credentials for the castingtoken tool
	Client struct {
		ID       string
		Secret   string
		TokenURL string
	}
}
