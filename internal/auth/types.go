// internal/auth/types.go
package auth

import (
	"time"
)

// Permission is a capability string carried in the token's permissions claim
type Permission string

// Permissions guarding the resource operations
const (
	GetMovies    Permission = "get:movies"
	PostMovies   Permission = "post:movies"
	PatchMovies  Permission = "patch:movies"
	DeleteMovies Permission = "delete:movies"
	GetActors    Permission = "get:actors"
	PostActors   Permission = "post:actors"
	PatchActors  Permission = "patch:actors"
	DeleteActors Permission = "delete:actors"
)

// ClaimSet is the validated payload of an access token. It is only produced
// after signature, expiry, audience and issuer checks pass and must be
// treated as read-only by its consumers.
type ClaimSet struct {
	// Subject is the "sub" claim
	Subject string
	// Issuer is the "iss" claim
	Issuer string
	// Audience holds the "aud" claim, normalized to a list
	Audience []string
	// ExpiresAt is the "exp" claim
	ExpiresAt time.Time
	// IssuedAt is the "iat" claim, zero when absent
	IssuedAt time.Time
	// Permissions is the "permissions" claim. It is nil when the claim is
	// absent and empty when the claim is present with no entries.
	Permissions []string
	// PermissionsMalformed is set when the "permissions" claim is present
	// but not a list of strings; Permissions is then nil
	PermissionsMalformed bool
	// Roles is the optional "roles" claim
	Roles []string
}

// HasPermissions reports whether the permissions claim was present
func (c *ClaimSet) HasPermissions() bool {
	return c != nil && c.Permissions != nil
}
