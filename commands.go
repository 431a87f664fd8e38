package auth

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

const commandTimeout = time.Second * 10

// CommandOption configures the account command handlers
type CommandOption func(*commandDeps)

type commandDeps struct {
	repo   RepositoryManager
	hasher PasswordAuthenticator
	logger Logger
	sink   ActivitySink
}

// WithCommandLogger sets the logger used by command handlers
func WithCommandLogger(logger Logger) CommandOption {
	return func(d *commandDeps) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithCommandActivitySink sets the sink that receives account events
func WithCommandActivitySink(sink ActivitySink) CommandOption {
	return func(d *commandDeps) {
		d.sink = normalizeActivitySink(sink)
	}
}

// WithPasswordAuthenticator replaces the bcrypt hasher
func WithPasswordAuthenticator(hasher PasswordAuthenticator) CommandOption {
	return func(d *commandDeps) {
		if hasher != nil {
			d.hasher = hasher
		}
	}
}

func newCommandDeps(repo RepositoryManager, opts ...CommandOption) commandDeps {
	d := commandDeps{
		repo:   repo,
		hasher: NewPasswordAuthenticator(0),
		logger: defLogger(),
		sink:   noopActivitySink{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&d)
		}
	}
	return d
}

func (d commandDeps) record(ctx context.Context, event ActivityEvent) {
	recordActivity(ctx, d.sink, d.logger, event)
}

func (d commandDeps) hash(password string) (string, error) {
	hash, err := d.hasher.HashPassword(password)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) && richErr.Category == goerrors.CategoryValidation {
			return "", richErr
		}
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
	}
	return hash, nil
}

func cancelled(ctx context.Context, operation string) error {
	return goerrors.Wrap(
		ctx.Err(),
		goerrors.CategoryOperation,
		"context cancelled during "+operation,
	)
}

// txResult passes rich errors through and wraps anything else
func txResult(err error, message string) error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr
	}

	return goerrors.Wrap(err, goerrors.CategoryInternal, message).
		WithTextCode(TextCodeStoreUnavailable).
		WithCode(goerrors.CodeInternal)
}
