package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventLoginSuccess   ActivityEventType = "auth.login.success"
	ActivityEventLoginFailure   ActivityEventType = "auth.login.failure"
	ActivityEventAccountCreated ActivityEventType = "account.created"
	ActivityEventAccountUpdated ActivityEventType = "account.updated"
	ActivityEventAccountDeleted ActivityEventType = "account.deleted"
	ActivityEventProfileUpdated ActivityEventType = "account.profile.updated"
)

// ActorRef identifies who performed an action
type ActorRef struct {
	Email string `json:"email,omitempty"`
	Role  Role   `json:"role,omitempty"`
	Type  string `json:"type"`
}

// SystemActor is used for first-party actions such as the admin seed
var SystemActor = ActorRef{Type: "system"}

// ActorFromClaims builds an ActorRef for an authenticated caller
func ActorFromClaims(claims *AccountClaims) ActorRef {
	if claims == nil {
		return ActorRef{Type: "unknown"}
	}
	return ActorRef{
		Email: claims.GetEmail(),
		Role:  claims.AccountRole(),
		Type:  "account",
	}
}

// ActivityEvent captures audit-friendly information about an action.
type ActivityEvent struct {
	EventType  ActivityEventType
	Actor      ActorRef
	AccountID  uuid.UUID
	Email      string
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink consumes activity events for auditing/telemetry purposes.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

// LoggingActivitySink writes every event to a Logger
type LoggingActivitySink struct {
	Logger Logger
}

// Record implements ActivitySink.
func (s LoggingActivitySink) Record(_ context.Context, event ActivityEvent) error {
	logger := s.Logger
	if logger == nil {
		logger = defLogger()
	}
	logger.Info("activity",
		"event", string(event.EventType),
		"actor", event.Actor.Email,
		"actor_type", event.Actor.Type,
		"account_id", event.AccountID.String(),
		"email", event.Email,
		"occurred_at", event.OccurredAt,
	)
	return nil
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}

func recordActivity(ctx context.Context, sink ActivitySink, logger Logger, event ActivityEvent) {
	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	if err := normalizeActivitySink(sink).Record(ctx, event); err != nil && logger != nil {
		logger.Warn("activity sink record error", "event", string(event.EventType), "error", err)
	}
}
