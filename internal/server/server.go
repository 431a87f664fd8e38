package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"

	auth "github.com/goliatone/go-account-auth"
	"github.com/goliatone/go-account-auth/activitymap"
	"github.com/goliatone/go-account-auth/internal/config"
)

// Server is the authd HTTP server
type Server struct {
	app    *fiber.App
	cfg    *config.Config
	repo   auth.RepositoryManager
	logger auth.Logger
}

// New builds the fiber app with every route mounted
func New(cfg *config.Config, db *bun.DB, logger auth.Logger) (*Server, error) {
	if logger == nil {
		logger = auth.NewSlogLogger(nil)
	}

	repo := auth.NewRepositoryManager(db)
	if err := repo.Validate(); err != nil {
		return nil, err
	}

	sink := activitymap.LogSink(logger, activitymap.WithDefaultChannel("authd"))
	hasher := auth.NewPasswordAuthenticator(cfg.GetBcryptCost())

	auther := auth.NewAuthenticator(repo.Accounts(), cfg).
		WithLogger(logger).
		WithPasswordAuthenticator(hasher).
		WithActivitySink(sink)

	routes := auth.NewHTTPAuthenticator(auther, cfg).WithLogger(logger)

	controller := auth.NewAccountController(
		auth.WithControllerRepo(repo),
		auth.WithControllerAuther(auther, routes),
		auth.WithControllerLogger(logger),
		auth.WithControllerDebug(cfg.Debug),
		auth.WithControllerCommandOptions(
			auth.WithCommandActivitySink(sink),
			auth.WithPasswordAuthenticator(hasher),
		),
	)

	s := &Server{
		cfg:    cfg,
		repo:   repo,
		logger: logger,
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "authd",
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		DisableStartupMessage: true,
		ErrorHandler:          s.errorHandler,
	})

	s.app.Get("/healthz", s.health)
	controller.Register(s.app)
	registerPages(s.app, routes)

	return s, nil
}

// App exposes the fiber app, mostly for tests
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen blocks serving HTTP until ctx is cancelled
func (s *Server) Listen(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.cfg.Server.Addr)
		errCh <- s.app.Listen(s.cfg.Server.Addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	timeout := s.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	s.logger.Info("http server shutting down", "timeout", timeout)
	return s.app.ShutdownWithTimeout(timeout)
}

func (s *Server) health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	if err := s.repo.Ping(ctx); err != nil {
		s.logger.Error("health check failed", "error", err)
		return c.Status(http.StatusServiceUnavailable).JSON(auth.Envelope{
			Title:   "Unhealthy",
			Message: "database unreachable",
			Data:    fiber.Map{"database": "down"},
		})
	}

	return c.Status(http.StatusOK).JSON(auth.Envelope{
		Title:   "Healthy",
		Message: "ok",
		Data:    fiber.Map{"database": "up"},
	})
}

func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(auth.Envelope{
			Title:   http.StatusText(fiberErr.Code),
			Message: fiberErr.Message,
		})
	}

	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		richErr = goerrors.Wrap(err, goerrors.CategoryInternal, "unhandled error")
	}

	return auth.SendError(c, s.logger, richErr)
}

// registerPages mounts the role landing pages behind the page guard
func registerPages(app fiber.Router, routes *auth.RouteAuthenticator) {
	page := func(title string) fiber.Handler {
		return func(c *fiber.Ctx) error {
			claims := routes.Guard().State(c.Cookies(routes.SessionCookieName()))
			return c.JSON(auth.Envelope{
				Title:   title,
				Message: "Welcome " + claims.Email,
				Data:    claims,
			})
		}
	}

	app.Get("/admin", routes.PageGuard(auth.AdminOnly), page("Admin"))
	app.Get("/teacher", routes.PageGuard(auth.AccessPolicy{
		Name:  "staff",
		Roles: []auth.Role{auth.RoleAdmin, auth.RoleTeacher},
	}), page("Teacher"))
	app.Get("/schedule", routes.PageGuard(auth.AnyAccount), page("Schedule"))
}
