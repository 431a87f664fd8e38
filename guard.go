package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessPolicy names the roles allowed on a route
type AccessPolicy struct {
	Name  string
	Roles []Role
}

var (
	// AdminOnly allows only administrators
	AdminOnly = AccessPolicy{Name: "admin-only", Roles: []Role{RoleAdmin}}
	// AnyAccount allows every authenticated role
	AnyAccount = AccessPolicy{Name: "any-account", Roles: AllRoles()}
)

// RoleNames returns the allow-list as strings
func (p AccessPolicy) RoleNames() []string {
	out := make([]string, 0, len(p.Roles))
	for _, r := range p.Roles {
		out = append(out, string(r))
	}
	return out
}

// Authorize checks already validated claims against an allow-list.
// Missing claims are unauthenticated, a role outside the list is forbidden.
func Authorize(claims *AccountClaims, allowed ...Role) error {
	if claims == nil {
		return ErrTokenMissing
	}

	if !claims.HasRole(allowed...) {
		return withMetadata(ErrForbidden, map[string]any{
			"role":    claims.Role,
			"allowed": allowed,
		})
	}

	return nil
}

// SessionState is what the client knows about the current session
type SessionState struct {
	Authenticated bool      `json:"authenticated"`
	Email         string    `json:"email,omitempty"`
	Role          Role      `json:"role,omitempty"`
	ExpiresAt     time.Time `json:"expires_at,omitempty"`
}

// Anonymous is the state for a missing, unreadable or expired token
var Anonymous = SessionState{}

// GuardDecision is the outcome of a client navigation check
type GuardDecision struct {
	Allow    bool         `json:"allow"`
	Redirect string       `json:"redirect,omitempty"`
	State    SessionState `json:"state"`
}

// ClientGuard mirrors what a browser client does with a stored token: it
// reads claims without checking the signature. It only drives navigation,
// every API call is still checked by the server.
type ClientGuard struct {
	loginPath string
	now       func() time.Time
}

// NewClientGuard returns a guard that sends anonymous visitors to loginPath
func NewClientGuard(loginPath string) *ClientGuard {
	if loginPath == "" {
		loginPath = "/login"
	}
	return &ClientGuard{loginPath: loginPath, now: time.Now}
}

// WithClock replaces the time source
func (g *ClientGuard) WithClock(now func() time.Time) *ClientGuard {
	if now != nil {
		g.now = now
	}
	return g
}

// State decodes the token into a session state
func (g *ClientGuard) State(token string) SessionState {
	if token == "" {
		return Anonymous
	}

	claims := &AccountClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return Anonymous
	}

	if claims.IsExpired(g.now()) {
		return Anonymous
	}

	role := claims.AccountRole()
	if !role.IsValid() {
		return Anonymous
	}

	return SessionState{
		Authenticated: true,
		Email:         claims.GetEmail(),
		Role:          role,
		ExpiresAt:     claims.Expires(),
	}
}

// Check decides whether a page restricted to allowed may be shown
func (g *ClientGuard) Check(token string, allowed ...Role) GuardDecision {
	state := g.State(token)

	if !state.Authenticated {
		return GuardDecision{Redirect: g.loginPath, State: state}
	}

	if !state.Role.In(allowed...) {
		return GuardDecision{Redirect: state.Role.LandingPage(), State: state}
	}

	return GuardDecision{Allow: true, State: state}
}
