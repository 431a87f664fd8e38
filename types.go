package auth

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger is the structured logger used across the package.
// Arguments after msg are key/value pairs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config holds auth options
type Config interface {
	GetSigningKey() string
	GetContextKey() string
	GetTokenTTL() time.Duration
	GetTokenLookup() string
	GetAuthScheme() string
	GetIssuer() string
	GetAudience() []string
	GetRejectedRouteKey() string
	GetLoginPath() string
	GetBcryptCost() int
	GetCookieSecure() bool
}

// CredentialStore is the read side of account storage used by login
type CredentialStore interface {
	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindRoleByEmail(ctx context.Context, email string) (Role, error)
}

// PasswordAuthenticator authenticates passwords
type PasswordAuthenticator interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

// Authenticator holds methods to deal with authentication
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	SessionFromToken(token string) (*AccountClaims, error)
	IdentityFromClaims(ctx context.Context, claims *AccountClaims) (*Account, error)
}

// TokenIssuer signs account tokens
type TokenIssuer interface {
	Issue(email string, role Role) (string, time.Time, error)
}

// TokenValidator parses and checks account tokens
type TokenValidator interface {
	Validate(token string) (*AccountClaims, error)
}

// LoginResult is what a successful login hands back to the caller
type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Role      Role      `json:"role"`
	Email     string    `json:"email"`
}

// SlogLogger adapts *slog.Logger to Logger
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger wraps l, falling back to a text handler on stderr.
func NewSlogLogger(l *slog.Logger) *SlogLogger {
	if l == nil {
		l = slog.New(slog.NewTextHandler(os.Stderr, nil)).With("component", "auth")
	}
	return &SlogLogger{logger: l}
}

func (s *SlogLogger) Debug(msg string, args ...any) { s.logger.Debug(msg, args...) }
func (s *SlogLogger) Info(msg string, args ...any)  { s.logger.Info(msg, args...) }
func (s *SlogLogger) Warn(msg string, args ...any)  { s.logger.Warn(msg, args...) }
func (s *SlogLogger) Error(msg string, args ...any) { s.logger.Error(msg, args...) }

func defLogger() Logger {
	return NewSlogLogger(nil)
}
