// internal/authz/checker.go
package authz

import (
	"golang.org/x/exp/slices"

	"castingagency/internal/auth"
)

// Checker decides whether a verified claim set satisfies a permission
// requirement
type Checker struct {
	resolver PermissionResolver
}

// NewChecker creates a checker. A nil resolver reads the permissions claim.
func NewChecker(resolver PermissionResolver) *Checker {
	if resolver == nil {
		resolver = ClaimPermissions{}
	}
	return &Checker{resolver: resolver}
}

// Check returns nil when required is empty or granted. Matching is exact
// string equality. A missing or malformed permissions claim is a 400.
func (c *Checker) Check(required auth.Permission, claims *auth.ClaimSet) error {
	if required == "" {
		return nil
	}

	if claims != nil && claims.PermissionsMalformed {
		return auth.ErrPermissionsMalformed()
	}
	granted, ok := c.resolver.Permissions(claims)
	if !ok {
		return auth.ErrPermissionsMissing()
	}
	if !slices.Contains(granted, string(required)) {
		return auth.ErrForbidden(required)
	}
	return nil
}
