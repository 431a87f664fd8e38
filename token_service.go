package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// DefaultTokenTTL is used when no TTL is configured
const DefaultTokenTTL = 24 * time.Hour

// TokenService issues and validates account tokens
type TokenService struct {
	signingKey []byte
	ttl        time.Duration
	issuer     string
	audience   jwt.ClaimStrings
	logger     Logger
	now        func() time.Time
}

var (
	_ TokenIssuer    = (*TokenService)(nil)
	_ TokenValidator = (*TokenService)(nil)
)

// NewTokenService creates a new TokenService instance
func NewTokenService(signingKey []byte, ttl time.Duration, issuer string, audience []string, logger Logger) *TokenService {
	if logger == nil {
		logger = defLogger()
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	var aud jwt.ClaimStrings
	if len(audience) > 0 {
		aud = make(jwt.ClaimStrings, len(audience))
		copy(aud, audience)
	}

	return &TokenService{
		signingKey: signingKey,
		ttl:        ttl,
		issuer:     issuer,
		audience:   aud,
		logger:     logger,
		now:        time.Now,
	}
}

// TokenServiceFromConfig builds a TokenService from Config
func TokenServiceFromConfig(cfg Config, logger Logger) *TokenService {
	return NewTokenService(
		[]byte(cfg.GetSigningKey()),
		cfg.GetTokenTTL(),
		cfg.GetIssuer(),
		cfg.GetAudience(),
		logger,
	)
}

// WithClock replaces the time source, used for issuance and expiry checks
func (ts *TokenService) WithClock(now func() time.Time) *TokenService {
	if now != nil {
		ts.now = now
	}
	return ts
}

// TTL returns the lifetime given to new tokens
func (ts *TokenService) TTL() time.Duration {
	return ts.ttl
}

// Issue creates a signed token for email carrying role.
// It refuses to sign a token with an empty or unrecognized role.
func (ts *TokenService) Issue(email string, role Role) (string, time.Time, error) {
	if len(ts.signingKey) == 0 {
		return "", time.Time{}, ErrMissingSigningKey
	}

	email = NormalizeEmail(email)
	if email == "" {
		return "", time.Time{}, goerrors.New("email is required to issue a token", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}

	if role == "" {
		return "", time.Time{}, withMetadata(ErrMissingRole, map[string]any{"email": email})
	}

	if !role.IsValid() {
		return "", time.Time{}, withMetadata(ErrUnknownRole, map[string]any{
			"email": email,
			"role":  string(role),
		})
	}

	issuedAt := ts.now()
	expiresAt := issuedAt.Add(ts.ttl)

	claims := &AccountClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    ts.issuer,
			Subject:   email,
			Audience:  ts.audience,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Email: email,
		Role:  string(role),
	}

	token, err := ts.SignClaims(claims)
	if err != nil {
		return "", time.Time{}, err
	}

	return token, claims.ExpiresAt.Time, nil
}

// SignClaims signs arbitrary account claims using the configured signing key.
func (ts *TokenService) SignClaims(claims *AccountClaims) (string, error) {
	if claims == nil {
		return "", goerrors.New("claims must not be nil", goerrors.CategoryInternal)
	}

	if len(ts.signingKey) == 0 {
		return "", ErrMissingSigningKey
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign JWT")
	}

	return signedString, nil
}

// Validate parses and validates a token string, returning structured claims
func (ts *TokenService) Validate(tokenString string) (*AccountClaims, error) {
	if tokenString == "" {
		return nil, ErrTokenMissing
	}

	if len(ts.signingKey) == 0 {
		return nil, ErrMissingSigningKey
	}

	token, err := jwt.ParseWithClaims(tokenString, &AccountClaims{}, func(t *jwt.Token) (any, error) {
		return ts.signingKey, nil
	}, ts.parserOptions()...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		ts.logger.Debug("token validation failed", "error", err)
		return nil, goerrors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).
			WithTextCode(ErrTokenMalformed.TextCode).
			WithCode(ErrTokenMalformed.Code)
	}

	claims, ok := token.Claims.(*AccountClaims)
	if !ok || !token.Valid {
		ts.logger.Error("token service could not decode claims")
		return nil, ErrTokenMalformed
	}

	if claims.GetEmail() == "" {
		return nil, withMetadata(ErrTokenMalformed, map[string]any{"reason": "missing subject"})
	}

	if !claims.AccountRole().IsValid() {
		ts.logger.Warn("token carries unrecognized role", "role", claims.Role)
		return nil, withMetadata(ErrTokenMalformed, map[string]any{
			"reason": "unrecognized role",
			"role":   claims.Role,
		})
	}

	return claims, nil
}

func (ts *TokenService) parserOptions() []jwt.ParserOption {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(ts.now),
	}
	if ts.issuer != "" {
		opts = append(opts, jwt.WithIssuer(ts.issuer))
	}
	if len(ts.audience) > 0 {
		opts = append(opts, jwt.WithAudience(ts.audience[0]))
	}
	return opts
}
