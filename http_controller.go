package auth

import (
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/google/uuid"
)

// Envelope is the shape of every JSON response
type Envelope struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

type AccountControllerRoutes struct {
	Login    string
	Logout   string
	Me       string
	Session  string
	Accounts string
	Profile  string
}

type AccountController struct {
	Debug  bool
	Logger Logger
	Repo   RepositoryManager
	Auther *Auther
	HTTP   *RouteAuthenticator
	Routes *AccountControllerRoutes

	commandOpts []CommandOption
	create      *CreateAccountHandler
	update      *UpdateAccountHandler
	profile     *UpdateProfileHandler
	remove      *DeleteAccountHandler
}

type AccountControllerOption func(*AccountController) *AccountController

func WithControllerRepo(repo RepositoryManager) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		c.Repo = repo
		return c
	}
}

func WithControllerAuther(auther *Auther, routes *RouteAuthenticator) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		c.Auther = auther
		c.HTTP = routes
		return c
	}
}

func WithControllerLogger(logger Logger) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithControllerCommandOptions(opts ...CommandOption) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		c.commandOpts = append(c.commandOpts, opts...)
		return c
	}
}

func WithControllerDebug(debug bool) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		c.Debug = debug
		return c
	}
}

func NewAccountController(opts ...AccountControllerOption) *AccountController {
	c := &AccountController{
		Logger: defLogger(),
		Routes: &AccountControllerRoutes{
			Login:    "/api/auth/login",
			Logout:   "/api/auth/logout",
			Me:       "/api/auth/me",
			Session:  "/api/auth/session",
			Accounts: "/api/accounts",
			Profile:  "/api/profile",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in account controller...")
	}

	if c.Auther == nil || c.HTTP == nil {
		panic("Missing Auther in account controller...")
	}

	cmdOpts := append([]CommandOption{WithCommandLogger(c.Logger)}, c.commandOpts...)
	c.create = NewCreateAccountHandler(c.Repo, cmdOpts...)
	c.update = NewUpdateAccountHandler(c.Repo, cmdOpts...)
	c.profile = NewUpdateProfileHandler(c.Repo, cmdOpts...)
	c.remove = NewDeleteAccountHandler(c.Repo, cmdOpts...)

	return c
}

// Register mounts the auth, account and profile routes
func (a *AccountController) Register(r fiber.Router) {
	r.Post(a.Routes.Login, a.Login)
	r.Post(a.Routes.Logout, a.Logout)
	r.Get(a.Routes.Session, a.Session)
	r.Get(a.Routes.Me, a.HTTP.Protect(AnyAccount), a.Me)

	admin := a.HTTP.Protect(AdminOnly)
	r.Get(a.Routes.Accounts, admin, a.ListAccounts)
	r.Post(a.Routes.Accounts, admin, a.CreateAccount)
	r.Get(a.Routes.Accounts+"/role/:email", admin, a.GetAccountRole)
	r.Get(a.Routes.Accounts+"/:id", admin, a.GetAccount)
	r.Put(a.Routes.Accounts+"/:id", admin, a.UpdateAccount)
	r.Delete(a.Routes.Accounts+"/:id", admin, a.DeleteAccount)

	r.Put(a.Routes.Profile, a.HTTP.Protect(AnyAccount), a.UpdateProfile)
}

// LoginRequest payload
type LoginRequest struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules on the normalized email
func (r LoginRequest) Validate() error {
	r.Email = NormalizeEmail(r.Email)
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

func (a *AccountController) Login(c *fiber.Ctx) error {
	payload := new(LoginRequest)
	if err := c.BodyParser(payload); err != nil {
		return a.sendError(c, validationError(err, "could not parse login payload"))
	}

	if err := payload.Validate(); err != nil {
		return a.sendError(c, validationError(err, "invalid login payload"))
	}

	if a.Debug {
		a.Logger.Debug("login attempt", "email", NormalizeEmail(payload.Email))
	}

	result, err := a.Auther.Login(c.UserContext(), payload.Email, payload.Password)
	if err != nil {
		return a.sendError(c, err)
	}

	a.HTTP.SetSession(c, result)

	return c.Status(http.StatusOK).JSON(Envelope{
		Title:   "Login successful",
		Message: "Signed in as " + result.Email,
		Data: fiber.Map{
			"token":      result.Token,
			"expires_at": result.ExpiresAt,
			"role":       result.Role,
			"email":      result.Email,
			"redirect":   a.HTTP.GetRedirect(c, result.Role.LandingPage()),
		},
	})
}

func (a *AccountController) Logout(c *fiber.Ctx) error {
	a.HTTP.Logout(c)
	return c.Status(http.StatusOK).JSON(Envelope{
		Title:   "Logged out",
		Message: "Session cookie cleared",
	})
}

// Session reports the client side view of the current token. The bearer
// header wins over the cookie, same order as the protected routes.
func (a *AccountController) Session(c *fiber.Ctx) error {
	token := bearerToken(c, a.HTTP.cfg.GetAuthScheme())
	if token == "" {
		token = c.Cookies(a.HTTP.SessionCookieName())
	}

	state := a.HTTP.Guard().State(token)
	return c.Status(http.StatusOK).JSON(Envelope{
		Title:   "Session",
		Message: sessionMessage(state),
		Data:    state,
	})
}

func (a *AccountController) Me(c *fiber.Ctx) error {
	claims, ok := a.claims(c)
	if !ok {
		return a.sendError(c, ErrTokenMissing)
	}

	account, err := a.Auther.IdentityFromClaims(c.UserContext(), claims)
	if err != nil {
		return a.sendError(c, err)
	}

	return c.Status(http.StatusOK).JSON(Envelope{
		Title:   "Account",
		Message: "Current account",
		Data:    account,
	})
}

func (a *AccountController) ListAccounts(c *fiber.Ctx) error {
	records, err := a.Repo.Accounts().ListActive(c.UserContext())
	if err != nil {
		return a.sendError(c, err)
	}

	return c.Status(http.StatusOK).JSON(Envelope{
		Title:   "Accounts",
		Message: "Active accounts",
		Data:    records,
	})
}

func (a *AccountController) GetAccount(c *fiber.Ctx) error {
	id, err := accountID(c)
	if err != nil {
		return a.sendError(c, err)
	}

	account, err := a.Repo.Accounts().FindByID(c.UserContext(), id)
	if err != nil {
		return a.sendError(c, err)
	}

	return c.Status(http.StatusOK).JSON(Envelope{
		Title:   "Account",
		Message: "Account found",
		Data:    account,
	})
}

// GetAccountRole runs the same role lookup used at login
func (a *AccountController) GetAccountRole(c *fiber.Ctx) error {
	email := NormalizeEmail(c.Params("email"))

	role, err := a.Repo.Accounts().FindRoleByEmail(c.UserContext(), email)
	if err != nil {
		return a.sendError(c, err)
	}

	return c.Status(http.StatusOK).JSON(Envelope{
		Title:   "Account role",
		Message: "Role for " + email,
		Data: fiber.Map{
			"email": email,
			"role":  role,
		},
	})
}

func (a *AccountController) CreateAccount(c *fiber.Ctx) error {
	claims, _ := a.claims(c)

	msg := CreateAccountMessage{}
	if err := c.BodyParser(&msg); err != nil {
		return a.sendError(c, validationError(err, "could not parse account payload"))
	}

	var created *Account
	msg.Actor = ActorFromClaims(claims)
	if claims != nil {
		msg.CreatorEmail = claims.GetEmail()
	}
	msg.OnResponse = func(account *Account) { created = account }

	if err := a.create.Execute(c.UserContext(), msg); err != nil {
		return a.sendError(c, err)
	}

	return c.Status(http.StatusCreated).JSON(Envelope{
		Title:   "Account created",
		Message: "Account " + created.Email + " created",
		Data:    created,
	})
}

func (a *AccountController) UpdateAccount(c *fiber.Ctx) error {
	id, err := accountID(c)
	if err != nil {
		return a.sendError(c, err)
	}

	claims, _ := a.claims(c)

	msg := UpdateAccountMessage{}
	if err := c.BodyParser(&msg); err != nil {
		return a.sendError(c, validationError(err, "could not parse account payload"))
	}

	var updated *Account
	msg.ID = id
	msg.Actor = ActorFromClaims(claims)
	msg.OnResponse = func(account *Account) { updated = account }

	if err := a.update.Execute(c.UserContext(), msg); err != nil {
		return a.sendError(c, err)
	}

	return c.Status(http.StatusOK).JSON(Envelope{
		Title:   "Account updated",
		Message: "Account " + updated.Email + " updated",
		Data:    updated,
	})
}

func (a *AccountController) DeleteAccount(c *fiber.Ctx) error {
	id, err := accountID(c)
	if err != nil {
		return a.sendError(c, err)
	}

	claims, _ := a.claims(c)

	if err := a.remove.Execute(c.UserContext(), DeleteAccountMessage{
		ID:    id,
		Actor: ActorFromClaims(claims),
	}); err != nil {
		return a.sendError(c, err)
	}

	return c.Status(http.StatusOK).JSON(Envelope{
		Title:   "Account deleted",
		Message: "Account deleted",
		Data:    fiber.Map{"id": id},
	})
}

func (a *AccountController) UpdateProfile(c *fiber.Ctx) error {
	claims, ok := a.claims(c)
	if !ok {
		return a.sendError(c, ErrTokenMissing)
	}

	msg := UpdateProfileMessage{}
	if err := c.BodyParser(&msg); err != nil {
		return a.sendError(c, validationError(err, "could not parse profile payload"))
	}

	var updated *Account
	msg.Email = claims.GetEmail()
	msg.OnResponse = func(account *Account) { updated = account }

	if err := a.profile.Execute(c.UserContext(), msg); err != nil {
		return a.sendError(c, err)
	}

	return c.Status(http.StatusOK).JSON(Envelope{
		Title:   "Profile updated",
		Message: "Profile saved",
		Data:    updated,
	})
}

// claims returns the token claims set by the JWT middleware
func (a *AccountController) claims(c *fiber.Ctx) (*AccountClaims, bool) {
	if claims, ok := GetClaims(c.UserContext()); ok {
		return claims, true
	}
	return ClaimsFromFiber(c, a.HTTP.cfg.GetContextKey())
}

func (a *AccountController) sendError(c *fiber.Ctx, err error) error {
	return SendError(c, a.Logger, err)
}

// SendError writes err as an Envelope. Infrastructure failures are logged
// in full and answered with a generic message.
func SendError(c *fiber.Ctx, logger Logger, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		richErr = goerrors.Wrap(err, goerrors.CategoryInternal, "An unexpected server error occurred").
			WithCode(goerrors.CodeInternal)
	}

	status := ErrorStatus(richErr)
	if status >= http.StatusInternalServerError {
		if logger != nil {
			logger.Error("request failed",
				"path", c.Path(),
				"method", c.Method(),
				"error", err,
				"text_code", richErr.TextCode,
				"details", print.MaybePrettyJSON(richErr.Metadata),
			)
		}
		return c.Status(status).JSON(Envelope{
			Title:   "Server error",
			Message: "An unexpected server error occurred",
		})
	}

	data := fiber.Map{}
	if richErr.TextCode != "" {
		data["code"] = richErr.TextCode
	}
	if fields, ok := richErr.Metadata["fields"]; ok {
		data["fields"] = fields
	}

	return c.Status(status).JSON(Envelope{
		Title:   http.StatusText(status),
		Message: richErr.Message,
		Data:    data,
	})
}

// ErrorStatus maps an error category to an HTTP status code
func ErrorStatus(richErr *goerrors.Error) int {
	if richErr == nil {
		return http.StatusInternalServerError
	}

	switch richErr.Category {
	case goerrors.CategoryValidation, goerrors.CategoryBadInput:
		return http.StatusBadRequest
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryConflict:
		return http.StatusConflict
	}

	if richErr.Code >= 400 && richErr.Code < 600 {
		return richErr.Code
	}
	return http.StatusInternalServerError
}

func accountID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, goerrors.New("account id must be a UUID", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest).
			WithMetadata(map[string]any{"id": c.Params("id")})
	}
	return id, nil
}

func bearerToken(c *fiber.Ctx, scheme string) string {
	if scheme == "" {
		scheme = "Bearer"
	}
	h := c.Get(fiber.HeaderAuthorization)
	l := len(scheme)
	if len(h) > l+1 && h[l] == ' ' && strings.EqualFold(h[:l], scheme) {
		return h[l+1:]
	}
	return ""
}

func sessionMessage(state SessionState) string {
	if !state.Authenticated {
		return "Anonymous"
	}
	return "Authenticated as " + string(state.Role)
}
