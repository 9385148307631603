package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the identity-token fields shown to the user.
type Claims struct {
	Email    string `json:"email"`
	Username string `json:"cognito:username"`
	jwt.RegisteredClaims
}

// DecodeClaims reads the payload of a JWT without checking its signature.
// The backend's authorizer verifies tokens; this is for display only.
func DecodeClaims(token string) (*Claims, error) {
	var claims Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}
	return &claims, nil
}

// Who returns the best human-readable name in the claims.
func (c *Claims) Who() string {
	switch {
	case c.Email != "":
		return c.Email
	case c.Username != "":
		return c.Username
	default:
		return c.Subject
	}
}

// Expiry returns the token's own expiry, or the zero time.
func (c *Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}
