package auth

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UpdateAccountMessage is an admin edit. An empty password keeps the
// current one.
type UpdateAccountMessage struct {
	ID         uuid.UUID              `json:"-"`
	Name       string                 `json:"name"`
	Email      string                 `json:"email"`
	Role       string                 `json:"role"`
	Password   string                 `json:"password,omitempty"`
	Actor      ActorRef               `json:"-"`
	OnResponse func(account *Account) `json:"-"`
}

func (e UpdateAccountMessage) Type() string { return "account.update" }

// Validate will validate the payload
func (e UpdateAccountMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.ID, validation.By(ValidateAccountID)),
		validation.Field(&e.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&e.Email, validation.Required, validation.Length(3, 254), is.Email),
		validation.Field(&e.Role, validation.Required, validation.By(ValidateRole)),
		validation.Field(&e.Password, PasswordRules()...),
	)
}

type UpdateAccountHandler struct {
	commandDeps
}

func NewUpdateAccountHandler(repo RepositoryManager, opts ...CommandOption) *UpdateAccountHandler {
	return &UpdateAccountHandler{commandDeps: newCommandDeps(repo, opts...)}
}

func (h *UpdateAccountHandler) Execute(ctx context.Context, event UpdateAccountMessage) error {
	select {
	case <-ctx.Done():
		return cancelled(ctx, "account update")
	default:
		return h.execute(ctx, event)
	}
}

func (h *UpdateAccountHandler) execute(ctx context.Context, event UpdateAccountMessage) error {
	if err := event.Validate(); err != nil {
		return validationError(err, "invalid account payload")
	}

	role, err := ParseRole(event.Role)
	if err != nil {
		return err
	}

	columns := []string{"name", "email", "role"}
	record := &Account{
		ID:    event.ID,
		Name:  event.Name,
		Email: event.Email,
		Role:  role,
	}

	if event.Password != "" {
		if record.PasswordHash, err = h.hash(event.Password); err != nil {
			return err
		}
		columns = append(columns, "password_hash")
	}

	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	var updated *Account
	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := h.repo.Accounts().FindByIDTx(ctx, tx, event.ID); err != nil {
			return err
		}

		taken, err := h.repo.Accounts().ExistsByEmailTx(ctx, tx, event.Email, event.ID)
		if err != nil {
			return err
		}
		if taken {
			return withMetadata(ErrEmailTaken, map[string]any{"email": NormalizeEmail(event.Email)})
		}

		updated, err = h.repo.Accounts().UpdateColumnsTx(ctx, tx, record, columns...)
		return err
	})

	if err = txResult(err, "account update transaction failed"); err != nil {
		return err
	}

	h.record(ctx, ActivityEvent{
		EventType: ActivityEventAccountUpdated,
		Actor:     event.Actor,
		AccountID: updated.ID,
		Email:     updated.Email,
		Metadata: map[string]any{
			"role":             string(updated.Role),
			"password_changed": event.Password != "",
		},
	})

	if event.OnResponse != nil {
		event.OnResponse(updated)
	}

	return nil
}
