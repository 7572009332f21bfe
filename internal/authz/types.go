// internal/authz/types.go
package authz

import (
	"castingagency/internal/auth"
)

// PermissionResolver yields the permissions granted by a verified claim set.
// The boolean reports whether the token carried any permission information
// at all; false is distinct from an empty grant.
type PermissionResolver interface {
	Permissions(claims *auth.ClaimSet) ([]string, bool)
}

// ClaimPermissions reads the token's "permissions" claim
type ClaimPermissions struct{}

// Permissions implements PermissionResolver
func (ClaimPermissions) Permissions(claims *auth.ClaimSet) ([]string, bool) {
	if !claims.HasPermissions() {
		return nil, false
	}
	return claims.Permissions, true
}

// Role names of the built-in role table
const (
	CastingAssistant  = "Casting Assistant"
	CastingDirector   = "Casting Director"
	ExecutiveProducer = "Executive Producer"
)

// StaticRoles grants permissions by the token's "roles" claim in addition to
// its "permissions" claim. It exists for development against identity
// providers that do not issue permissions.
type StaticRoles map[string][]auth.Permission

// DefaultRoles returns the agency's role table
func DefaultRoles() StaticRoles {
	assistant := []auth.Permission{auth.GetMovies, auth.GetActors}
	director := append(append([]auth.Permission{}, assistant...),
		auth.PostActors, auth.DeleteActors, auth.PatchMovies, auth.PatchActors)
	producer := append(append([]auth.Permission{}, director...),
		auth.PostMovies, auth.DeleteMovies)

	return StaticRoles{
		CastingAssistant:  assistant,
		CastingDirector:   director,
		ExecutiveProducer: producer,
	}
}

// Permissions implements PermissionResolver
func (r StaticRoles) Permissions(claims *auth.ClaimSet) ([]string, bool) {
	if claims == nil {
		return nil, false
	}

	present := claims.HasPermissions()
	perms := append([]string{}, claims.Permissions...)
	for _, role := range claims.Roles {
		granted, ok := r[role]
		if !ok {
			continue
		}
		present = true
		for _, p := range granted {
			perms = append(perms, string(p))
		}
	}
	if !present {
		return nil, false
	}
	return perms, true
}
