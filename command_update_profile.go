package auth

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// UpdateProfileMessage is a self-service edit. Changing the password
// requires the current one.
type UpdateProfileMessage struct {
	Email           string                 `json:"-"`
	Name            string                 `json:"name"`
	CurrentPassword string                 `json:"current_password,omitempty"`
	NewPassword     string                 `json:"new_password,omitempty"`
	ConfirmPassword string                 `json:"confirm_password,omitempty"`
	OnResponse      func(account *Account) `json:"-"`
}

func (e UpdateProfileMessage) Type() string { return "account.profile.update" }

// Validate will validate the payload
func (e UpdateProfileMessage) Validate() error {
	passwordChange := e.NewPassword != ""

	return validation.ValidateStruct(&e,
		validation.Field(&e.Email, validation.Required),
		validation.Field(&e.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&e.NewPassword, PasswordRules()...),
		validation.Field(&e.CurrentPassword, validation.By(requiredIf(passwordChange))),
		validation.Field(&e.ConfirmPassword, validation.By(requiredIf(passwordChange)), validation.By(ValidateStringEquals(e.NewPassword))),
	)
}

func requiredIf(cond bool) validation.RuleFunc {
	return func(value interface{}) error {
		if !cond {
			return nil
		}
		return validation.Validate(value, validation.Required)
	}
}

type UpdateProfileHandler struct {
	commandDeps
}

func NewUpdateProfileHandler(repo RepositoryManager, opts ...CommandOption) *UpdateProfileHandler {
	return &UpdateProfileHandler{commandDeps: newCommandDeps(repo, opts...)}
}

func (h *UpdateProfileHandler) Execute(ctx context.Context, event UpdateProfileMessage) error {
	select {
	case <-ctx.Done():
		return cancelled(ctx, "profile update")
	default:
		return h.execute(ctx, event)
	}
}

func (h *UpdateProfileHandler) execute(ctx context.Context, event UpdateProfileMessage) error {
	if err := event.Validate(); err != nil {
		return validationError(err, "invalid profile payload")
	}

	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	var updated *Account
	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		current, err := h.repo.Accounts().GetByEmailTx(ctx, tx, event.Email)
		if err != nil {
			return err
		}

		columns := []string{"name"}
		record := &Account{
			ID:    current.ID,
			Name:  event.Name,
			Email: current.Email,
		}

		if event.NewPassword != "" {
			if err := h.hasher.ComparePasswordAndHash(event.CurrentPassword, current.PasswordHash); err != nil {
				return validationError(validation.Errors{
					"current_password": goerrors.New("does not match", goerrors.CategoryValidation),
				}, "invalid profile payload")
			}

			if record.PasswordHash, err = h.hash(event.NewPassword); err != nil {
				return err
			}
			columns = append(columns, "password_hash")
		}

		updated, err = h.repo.Accounts().UpdateColumnsTx(ctx, tx, record, columns...)
		return err
	})

	if err = txResult(err, "profile update transaction failed"); err != nil {
		return err
	}

	h.record(ctx, ActivityEvent{
		EventType: ActivityEventProfileUpdated,
		Actor:     ActorRef{Email: updated.Email, Role: updated.Role, Type: "account"},
		AccountID: updated.ID,
		Email:     updated.Email,
		Metadata:  map[string]any{"password_changed": event.NewPassword != ""},
	})

	if event.OnResponse != nil {
		event.OnResponse(updated)
	}

	return nil
}
