package auth

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type CreateAccountMessage struct {
	Name         string                 `json:"name" example:"John Doe"`
	Email        string                 `json:"email" example:"john@x.com"`
	Password     string                 `json:"password"`
	Role         string                 `json:"role" example:"Student"`
	CreatorEmail string                 `json:"-"`
	Actor        ActorRef               `json:"-"`
	OnResponse   func(account *Account) `json:"-"`
}

func (e CreateAccountMessage) Type() string { return "account.create" }

// Validate will validate the payload
func (e CreateAccountMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&e.Email, validation.Required, validation.Length(3, 254), is.Email),
		validation.Field(&e.Password, append([]validation.Rule{validation.Required}, PasswordRules()...)...),
		validation.Field(&e.Role, validation.Required, validation.By(ValidateRole)),
	)
}

type CreateAccountHandler struct {
	commandDeps
}

func NewCreateAccountHandler(repo RepositoryManager, opts ...CommandOption) *CreateAccountHandler {
	return &CreateAccountHandler{commandDeps: newCommandDeps(repo, opts...)}
}

func (h *CreateAccountHandler) Execute(ctx context.Context, event CreateAccountMessage) error {
	select {
	case <-ctx.Done():
		return cancelled(ctx, "account creation")
	default:
		return h.execute(ctx, event)
	}
}

func (h *CreateAccountHandler) execute(ctx context.Context, event CreateAccountMessage) error {
	if err := event.Validate(); err != nil {
		return validationError(err, "invalid account payload")
	}

	role, err := ParseRole(event.Role)
	if err != nil {
		return err
	}

	hash, err := h.hash(event.Password)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	var created *Account
	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, err := h.repo.Accounts().ExistsByEmailTx(ctx, tx, event.Email, uuid.Nil)
		if err != nil {
			return err
		}
		if exists {
			return withMetadata(ErrEmailTaken, map[string]any{"email": NormalizeEmail(event.Email)})
		}

		created, err = h.repo.Accounts().CreateTx(ctx, tx, &Account{
			Name:         event.Name,
			Email:        event.Email,
			PasswordHash: hash,
			Role:         role,
			CreatorEmail: event.CreatorEmail,
		})
		return err
	})

	if err = txResult(err, "account creation transaction failed"); err != nil {
		return err
	}

	h.logger.Info("account created", "id", created.ID, "email", created.Email, "role", created.Role)
	h.record(ctx, ActivityEvent{
		EventType: ActivityEventAccountCreated,
		Actor:     event.Actor,
		AccountID: created.ID,
		Email:     created.Email,
		Metadata:  map[string]any{"role": string(created.Role)},
	})

	if event.OnResponse != nil {
		event.OnResponse(created)
	}

	return nil
}
