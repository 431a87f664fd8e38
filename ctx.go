package auth

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/goliatone/go-account-auth/middleware/jwtware"
)

var claimsCtxKey = &contextKey{"claims"}

type contextKey struct {
	name string
}

// WithClaimsContext sets the AccountClaims in the given context
func WithClaimsContext(r context.Context, claims *AccountClaims) context.Context {
	return context.WithValue(r, claimsCtxKey, claims)
}

// GetClaims extracts the AccountClaims from the standard context
func GetClaims(ctx context.Context) (*AccountClaims, bool) {
	raw, ok := ctx.Value(claimsCtxKey).(*AccountClaims)
	return raw, ok && raw != nil
}

// ClaimsFromFiber extracts the AccountClaims stored by the JWT middleware
func ClaimsFromFiber(c *fiber.Ctx, key string) (*AccountClaims, bool) {
	if key == "" {
		key = "user" // Default key used by JWT middleware
	}
	claims, ok := c.Locals(key).(*AccountClaims)
	return claims, ok && claims != nil
}

// ContextEnricherAdapter converts jwtware claims into AccountClaims on the
// request context.
func ContextEnricherAdapter(ctx context.Context, claims jwtware.AuthClaims) context.Context {
	if accountClaims, ok := claims.(*AccountClaims); ok {
		return WithClaimsContext(ctx, accountClaims)
	}
	return ctx
}

// JWTValidator exposes a TokenValidator to the jwtware middleware
func JWTValidator(v TokenValidator) jwtware.TokenValidator {
	return jwtware.TokenValidatorFunc(func(raw string) (jwtware.AuthClaims, error) {
		claims, err := v.Validate(raw)
		if err != nil {
			return nil, err
		}
		return claims, nil
	})
}
