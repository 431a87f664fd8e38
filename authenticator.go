package auth

import (
	"context"
	"sync"
)

const timingPassword = "dummy-password-for-timing"

// Auther runs the credential login flow and turns tokens back into sessions
type Auther struct {
	store        CredentialStore
	tokens       *TokenService
	hasher       PasswordAuthenticator
	logger       Logger
	activitySink ActivitySink
	dummyHash    func() string
}

var _ Authenticator = (*Auther)(nil)

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(store CredentialStore, opts Config) *Auther {
	logger := defLogger()
	a := &Auther{
		store:        store,
		tokens:       TokenServiceFromConfig(opts, logger),
		logger:       logger,
		activitySink: noopActivitySink{},
	}
	return a.WithPasswordAuthenticator(NewPasswordAuthenticator(opts.GetBcryptCost()))
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger == nil {
		return s
	}
	s.logger = logger
	s.tokens.logger = logger
	return s
}

// WithActivitySink configures an ActivitySink for emitting auth events.
func (s *Auther) WithActivitySink(sink ActivitySink) *Auther {
	s.activitySink = normalizeActivitySink(sink)
	return s
}

// WithPasswordAuthenticator sets the hasher used to check passwords. It
// should be the same one that produced the stored hashes, the unknown
// email path compares against a hash made with it.
func (s *Auther) WithPasswordAuthenticator(hasher PasswordAuthenticator) *Auther {
	if hasher == nil {
		return s
	}
	s.hasher = hasher
	s.dummyHash = sync.OnceValue(func() string {
		h, err := hasher.HashPassword(timingPassword)
		if err != nil {
			s.logger.Warn("timing hash unavailable", "error", err)
			return ""
		}
		return h
	})
	return s
}

// WithTokenService replaces the token service built from config
func (s *Auther) WithTokenService(ts *TokenService) *Auther {
	if ts != nil {
		s.tokens = ts
	}
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() *TokenService {
	return s.tokens
}

// Login verifies email and password and issues a token carrying the
// account role. Unknown emails and wrong passwords fail with the same error.
func (s *Auther) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = NormalizeEmail(email)

	account, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if IsAccountNotFound(err) {
			s.burnPasswordCompare(password)
			s.loginFailed(ctx, email, "unknown email")
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("login credential lookup failed", "error", err)
		s.loginFailed(ctx, email, "store error")
		return nil, err
	}

	if !account.IsUsable() {
		s.burnPasswordCompare(password)
		s.loginFailed(ctx, email, "account unusable")
		return nil, ErrInvalidCredentials
	}

	if err := s.hasher.ComparePasswordAndHash(password, account.PasswordHash); err != nil {
		s.loginFailed(ctx, email, "password mismatch")
		return nil, ErrInvalidCredentials
	}

	role, err := s.store.FindRoleByEmail(ctx, email)
	if err != nil {
		if IsAccountNotFound(err) {
			// deleted between the two lookups
			s.loginFailed(ctx, email, "account vanished")
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("login role lookup failed", "error", err)
		s.loginFailed(ctx, email, "store error")
		return nil, err
	}

	token, expiresAt, err := s.tokens.Issue(email, role)
	if err != nil {
		s.logger.Error("login token issue failed", "email", email, "error", err)
		s.loginFailed(ctx, email, "token issue")
		return nil, err
	}

	recordActivity(ctx, s.activitySink, s.logger, ActivityEvent{
		EventType: ActivityEventLoginSuccess,
		Actor:     ActorRef{Email: email, Role: role, Type: "account"},
		AccountID: account.ID,
		Email:     email,
	})

	return &LoginResult{
		Token:     token,
		ExpiresAt: expiresAt,
		Role:      role,
		Email:     email,
	}, nil
}

// SessionFromToken validates a raw token and returns its claims
func (s *Auther) SessionFromToken(raw string) (*AccountClaims, error) {
	claims, err := s.tokens.Validate(raw)
	if err != nil {
		s.logger.Debug("session from token validation failed", "error", err)
		return nil, err
	}
	return claims, nil
}

// IdentityFromClaims loads the account a token refers to
func (s *Auther) IdentityFromClaims(ctx context.Context, claims *AccountClaims) (*Account, error) {
	if claims == nil {
		return nil, ErrTokenMissing
	}

	account, err := s.store.FindByEmail(ctx, claims.GetEmail())
	if err != nil {
		if IsAccountNotFound(err) {
			// token outlived its account
			return nil, withMetadata(ErrTokenMalformed, map[string]any{"reason": "account not found"})
		}
		return nil, err
	}

	return account, nil
}

func (s *Auther) loginFailed(ctx context.Context, email, reason string) {
	s.logger.Info("login failed", "email", email, "reason", reason)
	recordActivity(ctx, s.activitySink, s.logger, ActivityEvent{
		EventType: ActivityEventLoginFailure,
		Actor:     ActorRef{Type: "unknown"},
		Email:     email,
		Metadata:  map[string]any{"reason": reason},
	})
}

// burnPasswordCompare runs one comparison against a hash made by the
// configured hasher so a lookup miss costs the same as a wrong password.
func (s *Auther) burnPasswordCompare(password string) {
	_ = s.hasher.ComparePasswordAndHash(password, s.dummyHash())
}
