package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type DeleteAccountMessage struct {
	ID    uuid.UUID
	Actor ActorRef
}

func (e DeleteAccountMessage) Type() string { return "account.delete" }

type DeleteAccountHandler struct {
	commandDeps
}

func NewDeleteAccountHandler(repo RepositoryManager, opts ...CommandOption) *DeleteAccountHandler {
	return &DeleteAccountHandler{commandDeps: newCommandDeps(repo, opts...)}
}

func (h *DeleteAccountHandler) Execute(ctx context.Context, event DeleteAccountMessage) error {
	select {
	case <-ctx.Done():
		return cancelled(ctx, "account deletion")
	default:
		return h.execute(ctx, event)
	}
}

func (h *DeleteAccountHandler) execute(ctx context.Context, event DeleteAccountMessage) error {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	var deleted *Account
	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		if deleted, err = h.repo.Accounts().FindByIDTx(ctx, tx, event.ID); err != nil {
			return err
		}
		return h.repo.Accounts().SoftDeleteTx(ctx, tx, event.ID)
	})

	if err = txResult(err, "account deletion transaction failed"); err != nil {
		return err
	}

	h.logger.Info("account deleted", "id", deleted.ID, "email", deleted.Email)
	h.record(ctx, ActivityEvent{
		EventType: ActivityEventAccountDeleted,
		Actor:     event.Actor,
		AccountID: deleted.ID,
		Email:     deleted.Email,
	})

	return nil
}
