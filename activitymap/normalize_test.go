package activitymap_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	auth "github.com/goliatone/go-account-auth"
	"github.com/goliatone/go-account-auth/activitymap"
)

func TestNormalizeDefaults(t *testing.T) {
	t.Parallel()

	ts := time.Date(2026, 1, 10, 9, 30, 0, 0, time.UTC)
	accountID := uuid.MustParse("5f0c6d0e-2b6a-4d0f-9a57-3a1f0c1e2d44")
	event := auth.ActivityEvent{
		EventType: auth.ActivityEventAccountUpdated,
		Actor:     auth.ActorRef{Email: "root@x.com", Role: auth.RoleAdmin, Type: "account"},
		AccountID: accountID,
		Email:     "john@x.com",
		Metadata: map[string]any{
			"role": "Teacher",
		},
		OccurredAt: ts,
	}

	out := activitymap.Normalize(event)

	if out.ActorID != "root@x.com" {
		t.Fatalf("expected actor_id root@x.com, got %q", out.ActorID)
	}
	if out.Verb != string(auth.ActivityEventAccountUpdated) {
		t.Fatalf("expected verb %q, got %q", auth.ActivityEventAccountUpdated, out.Verb)
	}
	if out.ObjectType != "account" {
		t.Fatalf("expected object_type account, got %q", out.ObjectType)
	}
	if out.ObjectID != accountID.String() {
		t.Fatalf("expected object_id %s, got %q", accountID, out.ObjectID)
	}
	if out.Channel != "auth" {
		t.Fatalf("expected channel auth, got %q", out.Channel)
	}
	if !out.OccurredAt.Equal(ts) {
		t.Fatalf("expected occurred_at %v, got %v", ts, out.OccurredAt)
	}

	if out.Metadata["role"] != "Teacher" {
		t.Fatalf("expected metadata role Teacher, got %#v", out.Metadata["role"])
	}
	if out.Metadata[activitymap.MetadataKeyActorType] != "account" {
		t.Fatalf("expected metadata actor_type account, got %#v", out.Metadata[activitymap.MetadataKeyActorType])
	}
	if out.Metadata[activitymap.MetadataKeyActorRole] != "Admin" {
		t.Fatalf("expected metadata actor_role Admin, got %#v", out.Metadata[activitymap.MetadataKeyActorRole])
	}
	if out.Metadata[activitymap.MetadataKeyEmail] != "john@x.com" {
		t.Fatalf("expected metadata email john@x.com, got %#v", out.Metadata[activitymap.MetadataKeyEmail])
	}

	// source metadata must not be mutated
	if _, ok := event.Metadata[activitymap.MetadataKeyActorType]; ok {
		t.Fatalf("expected source metadata untouched")
	}
}

func TestNormalizeFailedLogin(t *testing.T) {
	t.Parallel()

	out := activitymap.Normalize(auth.ActivityEvent{
		EventType: auth.ActivityEventLoginFailure,
		Actor:     auth.ActorRef{Type: "unknown"},
		Email:     "nobody@x.com",
	})

	if out.ActorID != "system" {
		t.Fatalf("expected fallback actor system, got %q", out.ActorID)
	}
	if out.ObjectID != "nobody@x.com" {
		t.Fatalf("expected object_id from email, got %q", out.ObjectID)
	}
	if out.OccurredAt.IsZero() {
		t.Fatalf("expected occurred_at to be filled")
	}
}

func TestNormalizeOptions(t *testing.T) {
	t.Parallel()

	out := activitymap.Normalize(
		auth.ActivityEvent{EventType: auth.ActivityEventAccountCreated, AccountID: uuid.New(), Email: "jane@x.com"},
		activitymap.WithDefaultChannel(" authd "),
		activitymap.WithDefaultObjectType("member"),
		activitymap.WithActorFallback("seed"),
		activitymap.WithObjectIDResolver(func(e auth.ActivityEvent) string { return e.Email }),
	)

	if out.Channel != "authd" {
		t.Fatalf("expected channel authd, got %q", out.Channel)
	}
	if out.ObjectType != "member" {
		t.Fatalf("expected object_type member, got %q", out.ObjectType)
	}
	if out.ActorID != "seed" {
		t.Fatalf("expected actor seed, got %q", out.ActorID)
	}
	if out.ObjectID != "jane@x.com" {
		t.Fatalf("expected object_id jane@x.com, got %q", out.ObjectID)
	}
}

type captureLogger struct {
	messages []string
}

func (c *captureLogger) Debug(msg string, args ...any) {}
func (c *captureLogger) Info(msg string, args ...any)  { c.messages = append(c.messages, msg) }
func (c *captureLogger) Warn(msg string, args ...any)  {}
func (c *captureLogger) Error(msg string, args ...any) {}

func TestLogSink(t *testing.T) {
	t.Parallel()

	logger := &captureLogger{}
	sink := activitymap.LogSink(logger)

	if err := sink.Record(context.Background(), auth.ActivityEvent{EventType: auth.ActivityEventLoginSuccess}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(logger.messages) != 1 || logger.messages[0] != "activity" {
		t.Fatalf("expected one activity log line, got %#v", logger.messages)
	}
}
