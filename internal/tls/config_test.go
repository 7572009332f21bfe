package tls

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"castingagency/internal/observability/logging"
)

func writeCert(t *testing.T, notBefore, notAfter time.Time) (certPath, keyPath string) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "casting.local"},
		NotBefore:    notBefore,
		NotAfter:     notAfter,
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("CreateCertificate: %v", err)
	}
	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		t.Fatalf("MarshalECPrivateKey: %v", err)
	}

	dir := t.TempDir()
	certPath = filepath.Join(dir, "server.crt")
	keyPath = filepath.Join(dir, "server.key")
	if err := os.WriteFile(certPath, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0o600); err != nil {
		t.Fatalf("write cert: %v", err)
	}
	if err := os.WriteFile(keyPath, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}), 0o600); err != nil {
		t.Fatalf("write key: %v", err)
	}
	return certPath, keyPath
}

func TestGetTLSConfig(t *testing.T) {
	now := time.Now()
	certPath, keyPath := writeCert(t, now.Add(-time.Hour), now.Add(365*24*time.Hour))

	cfg := &Config{CertPath: certPath, KeyPath: keyPath}
	tlsCfg, err := cfg.GetTLSConfig()
	if err != nil {
		t.Fatalf("GetTLSConfig: %v", err)
	}
	if len(tlsCfg.Certificates) != 1 || tlsCfg.Certificates[0].Leaf == nil {
		t.Fatalf("expected one parsed certificate")
	}
	if got := Subject(tlsCfg.Certificates[0].Leaf); got != "casting.local" {
		t.Fatalf("Subject = %q", got)
	}
}

func TestGetTLSConfigRejectsExpired(t *testing.T) {
	now := time.Now()
	certPath, keyPath := writeCert(t, now.Add(-48*time.Hour), now.Add(-24*time.Hour))

	cfg := &Config{CertPath: certPath, KeyPath: keyPath}
	if _, err := cfg.GetTLSConfig(); err == nil || !strings.Contains(err.Error(), "expired") {
		t.Fatalf("expected expiry error, got %v", err)
	}
}

func TestGetTLSConfigMissingFiles(t *testing.T) {
	cfg := &Config{CertPath: "/nonexistent/server.crt", KeyPath: "/nonexistent/server.key"}
	if _, err := cfg.GetTLSConfig(); err == nil {
		t.Fatalf("expected error for missing files")
	}
}

func TestCheckValidityWarnsBeforeExpiry(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(&buf, "info", "json")
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}

	now := time.Now()
	cert := &x509.Certificate{
		Subject:   pkix.Name{CommonName: "casting.local"},
		NotBefore: now.Add(-time.Hour),
		NotAfter:  now.Add(24 * time.Hour),
	}
	if err := CheckValidity(cert, now, ExpiryWarning, logger); err != nil {
		t.Fatalf("CheckValidity: %v", err)
	}
	if !strings.Contains(buf.String(), "expires soon") {
		t.Fatalf("expected expiry warning, got %s", buf.String())
	}

	if err := CheckValidity(cert, now.Add(-2*time.Hour), ExpiryWarning, logger); err == nil {
		t.Fatalf("expected not-yet-valid error")
	}
}
