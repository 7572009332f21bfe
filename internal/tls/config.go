// internal/tls/config.go
package tls

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"time"

	"castingagency/internal/observability/logging"
)

// ExpiryWarning is how long before expiry the server certificate is reported
const ExpiryWarning = 30 * 24 * time.Hour

// Config holds the TLS configuration
type Config struct {
	// Logger is the logger to use
	Logger *logging.Logger

	// CertPath is the path to the server certificate
	CertPath string

	// KeyPath is the path to the server key
	KeyPath string

	// Now returns the current time; time.Now when nil
	Now func() time.Time
}

// GetTLSConfig creates a TLS configuration for the server
func (c *Config) GetTLSConfig() (*tls.Config, error) {
	logger := c.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	logger.Debug("Initializing TLS configuration")

	cert, err := tls.LoadX509KeyPair(c.CertPath, c.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load server certificate: %w", err)
	}

	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return nil, fmt.Errorf("failed to parse server certificate: %w", err)
	}
	cert.Leaf = leaf

	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	if err := CheckValidity(leaf, now(), ExpiryWarning, logger); err != nil {
		return nil, err
	}

	logger.Info("TLS configuration successful", "subject", Subject(leaf))
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}
