package auth

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"

	"github.com/goliatone/go-account-auth/middleware/jwtware"
)

// RouteAuthenticator wires tokens into fiber: the session cookie, the
// protected route middleware and the page guard.
type RouteAuthenticator struct {
	auth           Authenticator
	validator      TokenValidator
	cfg            Config
	guard          *ClientGuard
	cookieDuration time.Duration
	Logger         Logger
	ErrorHandler   fiber.ErrorHandler
}

func NewHTTPAuthenticator(auther *Auther, cfg Config) *RouteAuthenticator {
	cookieDuration := DefaultTokenTTL
	if cfg.GetTokenTTL() > 0 {
		cookieDuration = cfg.GetTokenTTL()
	}

	a := &RouteAuthenticator{
		cfg:            cfg,
		auth:           auther,
		validator:      auther.TokenService(),
		guard:          NewClientGuard(cfg.GetLoginPath()),
		Logger:         defLogger(),
		cookieDuration: cookieDuration,
	}
	a.ErrorHandler = a.defaultErrHandler

	return a
}

// WithLogger sets the logger
func (a *RouteAuthenticator) WithLogger(logger Logger) *RouteAuthenticator {
	if logger != nil {
		a.Logger = logger
	}
	return a
}

// SessionCookieName is the cookie holding the token
func (a *RouteAuthenticator) SessionCookieName() string {
	return a.cfg.GetContextKey()
}

// Guard returns the client guard used by PageGuard
func (a *RouteAuthenticator) Guard() *ClientGuard {
	return a.guard
}

// Protect validates the bearer token and enforces the policy roles.
// Failures are answered by ErrorHandler with 401 or 403.
func (a *RouteAuthenticator) Protect(policy AccessPolicy) fiber.Handler {
	return jwtware.New(jwtware.Config{
		ErrorHandler:    a.ErrorHandler,
		TokenValidator:  JWTValidator(a.validator),
		AuthScheme:      a.cfg.GetAuthScheme(),
		ContextKey:      a.cfg.GetContextKey(),
		TokenLookup:     a.cfg.GetTokenLookup(),
		AllowedRoles:    policy.RoleNames(),
		ContextEnricher: ContextEnricherAdapter,
		ValidationListeners: []jwtware.ValidationListener{
			func(c *fiber.Ctx, claims jwtware.AuthClaims) error {
				a.Logger.Debug("token accepted",
					"email", claims.GetEmail(),
					"role", claims.GetRole(),
					"policy", policy.Name,
					"path", c.Path(),
				)
				return nil
			},
		},
	})
}

// PageGuard gates server rendered pages the way a browser client would:
// anonymous visitors go to the login page, others to their landing page.
func (a *RouteAuthenticator) PageGuard(policy AccessPolicy) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(a.cfg.GetContextKey())
		decision := a.guard.Check(token, policy.Roles...)
		if decision.Allow {
			return c.Next()
		}

		if !decision.State.Authenticated {
			a.SetRedirect(c)
		}

		return c.Redirect(decision.Redirect, redirectStatus(c))
	}
}

// SetSession stores the token in the session cookie
func (a *RouteAuthenticator) SetSession(c *fiber.Ctx, result *LoginResult) {
	if result == nil {
		return
	}

	expires := time.Now().Add(a.cookieDuration)
	if !result.ExpiresAt.IsZero() {
		expires = result.ExpiresAt
	}

	c.Cookie(&fiber.Cookie{
		Name:     a.cfg.GetContextKey(),
		Value:    result.Token,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   a.cfg.GetCookieSecure(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// Logout only clears the cookie, issued tokens stay valid until expiry
func (a *RouteAuthenticator) Logout(c *fiber.Ctx) {
	a.cookieDel(c, a.cfg.GetContextKey())
}

func (a *RouteAuthenticator) GetRedirect(c *fiber.Ctx, def string) string {
	rejectedRoute := a.cfg.GetRejectedRouteKey()
	r := c.Cookies(rejectedRoute)
	if r == "" {
		return def
	}
	a.cookieDel(c, rejectedRoute)
	return r
}

func (a *RouteAuthenticator) SetRedirect(c *fiber.Ctx) {
	rejectedRoute := a.cfg.GetRejectedRouteKey()

	a.Logger.Debug("setting redirect cookie", "key", rejectedRoute, "path", c.OriginalURL())

	c.Cookie(&fiber.Cookie{
		Name:     rejectedRoute,
		Value:    c.OriginalURL(),
		Path:     "/",
		Expires:  time.Now().Add(time.Minute * 5),
		HTTPOnly: true,
		Secure:   a.cfg.GetCookieSecure(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (a *RouteAuthenticator) cookieDel(c *fiber.Ctx, name string) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   a.cfg.GetCookieSecure(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (a *RouteAuthenticator) defaultErrHandler(c *fiber.Ctx, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		richErr = goerrors.Wrap(err, goerrors.CategoryAuth, "Invalid authentication token").
			WithTextCode(TextCodeTokenMalformed).
			WithCode(goerrors.CodeUnauthorized)
	}

	a.Logger.Info(
		"route authentication rejected",
		"error", richErr.Message,
		"text_code", richErr.TextCode,
		"path", c.OriginalURL(),
		"details", print.MaybePrettyJSON(richErr.Metadata),
	)

	return SendError(c, a.Logger, richErr)
}

func redirectStatus(c *fiber.Ctx) int {
	if c.Method() == fiber.MethodGet {
		return http.StatusFound
	}
	return http.StatusSeeOther
}
