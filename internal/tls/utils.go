// internal/tls/utils.go
package tls

import (
	"crypto/x509"
	"fmt"
	"time"

	"castingagency/internal/observability/logging"
)

// CheckValidity rejects a certificate outside its validity period and warns
// when it expires within window
func CheckValidity(cert *x509.Certificate, now time.Time, window time.Duration, logger *logging.Logger) error {
	if now.Before(cert.NotBefore) {
		return fmt.Errorf("server certificate is not valid before %s", cert.NotBefore.Format(time.RFC3339))
	}
	if now.After(cert.NotAfter) {
		return fmt.Errorf("server certificate expired at %s", cert.NotAfter.Format(time.RFC3339))
	}

	if remaining := cert.NotAfter.Sub(now); remaining < window && logger != nil {
		logger.Warn("Server certificate expires soon",
			"subject", Subject(cert),
			"not_after", cert.NotAfter,
			"remaining", remaining.Round(time.Hour))
	}
	return nil
}

// Subject returns the certificate's Common Name, or its first DNS name when
// the Common Name is empty
func Subject(cert *x509.Certificate) string {
	if cert.Subject.CommonName != "" {
		return cert.Subject.CommonName
	}
	if len(cert.DNSNames) > 0 {
		return cert.DNSNames[0]
	}
	return ""
}
