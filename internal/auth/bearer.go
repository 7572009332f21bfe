// internal/auth/bearer.go
package auth

import "strings"

// ParseBearer extracts the token from an Authorization header value. The
// header must be exactly two space separated parts, the first of which is
// literally "Bearer".
func ParseBearer(header string) (string, error) {
	if header == "" {
		return "", ErrHeaderMissing()
	}

	parts := strings.Split(header, " ")
	if parts[0] != "Bearer" {
		return "", ErrInvalidHeader("Authorization header must start with \"Bearer\".", nil)
	}
	if len(parts) == 1 || parts[1] == "" {
		return "", ErrInvalidHeader("Token not found.", nil)
	}
	if len(parts) > 2 {
		return "", ErrInvalidHeader("Authorization header must be bearer token.", nil)
	}
	return parts[1], nil
}
