// internal/auth/keyset/keyset.go

// Package keyset provides the signing keys used to verify access tokens.
package keyset

import (
	"context"
	"crypto"
	"errors"
	"fmt"
)

var (
	// ErrKeyNotFound is returned when no key matches the requested key id
	ErrKeyNotFound = errors.New("signing key not found")

	// ErrFetch is returned when the key set could not be retrieved
	ErrFetch = errors.New("failed to fetch signing keys")
)

// KeySet resolves a token's key id to a public key. Implementations must be
// safe for concurrent use.
type KeySet interface {
	Key(ctx context.Context, kid string) (crypto.PublicKey, error)
}

// Static is a fixed key set
type Static map[string]crypto.PublicKey

// Key implements KeySet
func (s Static) Key(_ context.Context, kid string) (crypto.PublicKey, error) {
	if key, ok := s[kid]; ok {
		return key, nil
	}
	return nil, fmt.Errorf("%w: kid %q", ErrKeyNotFound, kid)
}
