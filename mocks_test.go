package auth_test

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	auth "github.com/goliatone/go-account-auth"
)

const testSigningKey = "test-signing-key-with-at-least-32-bytes"

// MockCredentialStore implements auth.CredentialStore
type MockCredentialStore struct {
	mock.Mock
}

func (m *MockCredentialStore) FindByEmail(ctx context.Context, email string) (*auth.Account, error) {
	args := m.Called(ctx, email)
	if acc, ok := args.Get(0).(*auth.Account); ok {
		return acc, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockCredentialStore) FindRoleByEmail(ctx context.Context, email string) (auth.Role, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(auth.Role), args.Error(1)
}

// MockConfig implements auth.Config
type MockConfig struct {
	SigningKey   string
	TTL          time.Duration
	Issuer       string
	Audience     []string
	LoginPath    string
	CookieSecure bool
}

func newMockConfig() *MockConfig {
	return &MockConfig{
		SigningKey: testSigningKey,
		TTL:        time.Hour,
		Issuer:     "test-issuer",
		Audience:   []string{"test:audience"},
		LoginPath:  "/login",
	}
}

func (m *MockConfig) GetSigningKey() string        { return m.SigningKey }
func (m *MockConfig) GetContextKey() string        { return "session" }
func (m *MockConfig) GetTokenTTL() time.Duration   { return m.TTL }
func (m *MockConfig) GetTokenLookup() string       { return "header:Authorization,cookie:session" }
func (m *MockConfig) GetAuthScheme() string        { return "Bearer" }
func (m *MockConfig) GetIssuer() string            { return m.Issuer }
func (m *MockConfig) GetAudience() []string        { return m.Audience }
func (m *MockConfig) GetRejectedRouteKey() string  { return "rejected_route" }
func (m *MockConfig) GetLoginPath() string         { return m.LoginPath }
func (m *MockConfig) GetBcryptCost() int           { return 4 }
func (m *MockConfig) GetCookieSecure() bool        { return m.CookieSecure }

// recordingSink keeps every activity event it receives
type recordingSink struct {
	mu     sync.Mutex
	events []auth.ActivityEvent
}

func (r *recordingSink) Record(_ context.Context, event auth.ActivityEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingSink) Events() []auth.ActivityEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]auth.ActivityEvent, len(r.events))
	copy(out, r.events)
	return out
}

func (r *recordingSink) Types() []auth.ActivityEventType {
	var out []auth.ActivityEventType
	for _, e := range r.Events() {
		out = append(out, e.EventType)
	}
	return out
}
