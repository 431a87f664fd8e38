package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccountClaims is the token payload
type AccountClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role"`
}

// GetEmail returns the email claim, falling back to the subject
func (c *AccountClaims) GetEmail() string {
	if c.Email != "" {
		return c.Email
	}
	return c.Subject
}

// GetRole returns the raw role claim
func (c *AccountClaims) GetRole() string {
	return c.Role
}

// AccountRole returns the role claim as a Role
func (c *AccountClaims) AccountRole() Role {
	return Role(c.Role)
}

// HasRole checks if the claims carry one of the given roles
func (c *AccountClaims) HasRole(allowed ...Role) bool {
	return c.AccountRole().In(allowed...)
}

// Expires returns the expiration time
func (c *AccountClaims) Expires() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// IssuedAtTime returns the issued at time
func (c *AccountClaims) IssuedAtTime() time.Time {
	if c.IssuedAt == nil {
		return time.Time{}
	}
	return c.IssuedAt.Time
}

// IsExpired reports whether exp is missing or not after now
func (c *AccountClaims) IsExpired(now time.Time) bool {
	exp := c.Expires()
	return exp.IsZero() || !now.Before(exp)
}
