package auth

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/uptrace/bun"
)

// SeedAdminMessage provisions the first administrator. Running it again
// for an existing email is a no-op.
type SeedAdminMessage struct {
	Name       string
	Email      string
	Password   string
	OnResponse func(account *Account, created bool)
}

func (e SeedAdminMessage) Type() string { return "account.seed_admin" }

// Validate will validate the payload
func (e SeedAdminMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&e.Email, validation.Required, is.Email),
		validation.Field(&e.Password, append([]validation.Rule{validation.Required}, PasswordRules()...)...),
	)
}

type SeedAdminHandler struct {
	commandDeps
}

func NewSeedAdminHandler(repo RepositoryManager, opts ...CommandOption) *SeedAdminHandler {
	return &SeedAdminHandler{commandDeps: newCommandDeps(repo, opts...)}
}

func (h *SeedAdminHandler) Execute(ctx context.Context, event SeedAdminMessage) error {
	select {
	case <-ctx.Done():
		return cancelled(ctx, "admin seed")
	default:
		return h.execute(ctx, event)
	}
}

func (h *SeedAdminHandler) execute(ctx context.Context, event SeedAdminMessage) error {
	if err := event.Validate(); err != nil {
		return validationError(err, "invalid admin seed")
	}

	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	var account *Account
	created := false

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		existing, err := h.repo.Accounts().GetByEmailTx(ctx, tx, event.Email)
		if err == nil {
			account = existing
			return nil
		}
		if !IsAccountNotFound(err) {
			return err
		}

		hash, err := h.hash(event.Password)
		if err != nil {
			return err
		}

		account, err = h.repo.Accounts().CreateTx(ctx, tx, &Account{
			Name:         event.Name,
			Email:        event.Email,
			PasswordHash: hash,
			Role:         RoleAdmin,
		})
		created = err == nil
		return err
	})

	if err = txResult(err, "admin seed transaction failed"); err != nil {
		return err
	}

	if created {
		h.logger.Info("admin account seeded", "email", account.Email)
		h.record(ctx, ActivityEvent{
			EventType: ActivityEventAccountCreated,
			Actor:     SystemActor,
			AccountID: account.ID,
			Email:     account.Email,
			Metadata:  map[string]any{"role": string(RoleAdmin), "seed": true},
		})
	} else {
		h.logger.Info("admin seed skipped, account exists", "email", account.Email)
	}

	if event.OnResponse != nil {
		event.OnResponse(account, created)
	}

	return nil
}
