package auth_test

import (
	"context"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auth "github.com/goliatone/go-account-auth"
)

func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr), "expected rich error, got %v", err)
	assert.Equal(t, goerrors.CategoryValidation, richErr.Category)
	fields, _ := richErr.Metadata["fields"].(map[string]string)
	return fields
}

func TestCreateAccountHandler(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	sink := &recordingSink{}
	handler := auth.NewCreateAccountHandler(repo, fastHasher(), auth.WithCommandActivitySink(sink))

	t.Run("creates account", func(t *testing.T) {
		var created *auth.Account
		err := handler.Execute(ctx, auth.CreateAccountMessage{
			Name:         "John",
			Email:        "John@X.com",
			Password:     "Secret123!",
			Role:         "student",
			CreatorEmail: "root@x.com",
			Actor:        auth.ActorRef{Email: "root@x.com", Role: auth.RoleAdmin, Type: "account"},
			OnResponse:   func(a *auth.Account) { created = a },
		})
		require.NoError(t, err)
		require.NotNil(t, created)

		assert.Equal(t, "john@x.com", created.Email)
		assert.Equal(t, auth.RoleStudent, created.Role)
		assert.Equal(t, "root@x.com", created.CreatorEmail)
		assert.NoError(t, auth.ComparePasswordAndHash("Secret123!", created.PasswordHash))

		events := sink.Events()
		require.Len(t, events, 1)
		assert.Equal(t, auth.ActivityEventAccountCreated, events[0].EventType)
		assert.Equal(t, "root@x.com", events[0].Actor.Email)
	})

	t.Run("duplicate email", func(t *testing.T) {
		err := handler.Execute(ctx, auth.CreateAccountMessage{
			Name:     "John Again",
			Email:    "john@x.com",
			Password: "Secret123!",
			Role:     "Teacher",
		})
		require.Error(t, err)
		assert.True(t, auth.HasTextCode(err, auth.TextCodeEmailTaken))
	})

	t.Run("invalid payload", func(t *testing.T) {
		err := handler.Execute(ctx, auth.CreateAccountMessage{
			Name:     "",
			Email:    "not-an-email",
			Password: "short",
			Role:     "Owner",
		})
		require.Error(t, err)

		fields := fieldErrors(t, err)
		assert.Contains(t, fields, "name")
		assert.Contains(t, fields, "email")
		assert.Contains(t, fields, "password")
		assert.Contains(t, fields, "role")
	})

	t.Run("weak password", func(t *testing.T) {
		for _, pw := range []string{"secret123!", "Secretttt!", "Secret1234"} {
			err := handler.Execute(ctx, auth.CreateAccountMessage{
				Name:     "Weak",
				Email:    "weak@x.com",
				Password: pw,
				Role:     "Student",
			})
			require.Error(t, err, pw)
			assert.Contains(t, fieldErrors(t, err), "password", pw)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		err := handler.Execute(cctx, auth.CreateAccountMessage{})
		require.Error(t, err)
	})
}

func TestUpdateAccountHandler(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	handler := auth.NewUpdateAccountHandler(repo, fastHasher())

	john := insertAccount(t, repo, "John", "john@x.com", "Secret123!", auth.RoleStudent)
	insertAccount(t, repo, "Jane", "jane@x.com", "Secret123!", auth.RoleTeacher)

	t.Run("changes role and keeps password", func(t *testing.T) {
		var updated *auth.Account
		err := handler.Execute(ctx, auth.UpdateAccountMessage{
			ID:         john.ID,
			Name:       "John",
			Email:      "john@x.com",
			Role:       "Teacher",
			OnResponse: func(a *auth.Account) { updated = a },
		})
		require.NoError(t, err)
		assert.Equal(t, auth.RoleTeacher, updated.Role)
		assert.NoError(t, auth.ComparePasswordAndHash("Secret123!", updated.PasswordHash))

		role, err := repo.Accounts().FindRoleByEmail(ctx, "john@x.com")
		require.NoError(t, err)
		assert.Equal(t, auth.RoleTeacher, role)
	})

	t.Run("resets password", func(t *testing.T) {
		err := handler.Execute(ctx, auth.UpdateAccountMessage{
			ID:       john.ID,
			Name:     "John",
			Email:    "john@x.com",
			Role:     "Teacher",
			Password: "NewSecret1!",
		})
		require.NoError(t, err)

		account, err := repo.Accounts().FindByID(ctx, john.ID)
		require.NoError(t, err)
		assert.NoError(t, auth.ComparePasswordAndHash("NewSecret1!", account.PasswordHash))
	})

	t.Run("email owned by another account", func(t *testing.T) {
		err := handler.Execute(ctx, auth.UpdateAccountMessage{
			ID:    john.ID,
			Name:  "John",
			Email: "jane@x.com",
			Role:  "Teacher",
		})
		require.Error(t, err)
		assert.True(t, auth.HasTextCode(err, auth.TextCodeEmailTaken))
	})

	t.Run("missing id", func(t *testing.T) {
		err := handler.Execute(ctx, auth.UpdateAccountMessage{
			Name:  "John",
			Email: "john@x.com",
			Role:  "Teacher",
		})
		require.Error(t, err)

		var richErr *goerrors.Error
		require.True(t, goerrors.As(err, &richErr))
		assert.Equal(t, goerrors.CategoryValidation, richErr.Category)
	})

	t.Run("unknown account", func(t *testing.T) {
		err := handler.Execute(ctx, auth.UpdateAccountMessage{
			ID:    uuid.New(),
			Name:  "Ghost",
			Email: "ghost@x.com",
			Role:  "Student",
		})
		require.Error(t, err)
		assert.True(t, auth.IsAccountNotFound(err))
	})
}

func TestDeleteAccountHandler(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	sink := &recordingSink{}
	handler := auth.NewDeleteAccountHandler(repo, auth.WithCommandActivitySink(sink))

	john := insertAccount(t, repo, "John", "john@x.com", "Secret123!", auth.RoleStudent)

	require.NoError(t, handler.Execute(ctx, auth.DeleteAccountMessage{ID: john.ID, Actor: auth.SystemActor}))

	_, err := repo.Accounts().FindByEmail(ctx, "john@x.com")
	assert.True(t, auth.IsAccountNotFound(err))

	err = handler.Execute(ctx, auth.DeleteAccountMessage{ID: john.ID})
	assert.True(t, auth.IsAccountNotFound(err))

	assert.Equal(t, []auth.ActivityEventType{auth.ActivityEventAccountDeleted}, sink.Types())
}

func TestUpdateProfileHandler(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	handler := auth.NewUpdateProfileHandler(repo, fastHasher())

	insertAccount(t, repo, "John", "john@x.com", "Secret123!", auth.RoleStudent)

	t.Run("renames", func(t *testing.T) {
		var updated *auth.Account
		err := handler.Execute(ctx, auth.UpdateProfileMessage{
			Email:      "john@x.com",
			Name:       "Johnny",
			OnResponse: func(a *auth.Account) { updated = a },
		})
		require.NoError(t, err)
		assert.Equal(t, "Johnny", updated.Name)
		assert.Equal(t, auth.RoleStudent, updated.Role)
	})

	t.Run("wrong current password", func(t *testing.T) {
		err := handler.Execute(ctx, auth.UpdateProfileMessage{
			Email:           "john@x.com",
			Name:            "Johnny",
			CurrentPassword: "Wrong123!",
			NewPassword:     "NewSecret1!",
			ConfirmPassword: "NewSecret1!",
		})
		require.Error(t, err)
		assert.Contains(t, fieldErrors(t, err), "current_password")
	})

	t.Run("confirmation mismatch", func(t *testing.T) {
		err := handler.Execute(ctx, auth.UpdateProfileMessage{
			Email:           "john@x.com",
			Name:            "Johnny",
			CurrentPassword: "Secret123!",
			NewPassword:     "NewSecret1!",
			ConfirmPassword: "NewSecret2!",
		})
		require.Error(t, err)
		assert.Contains(t, fieldErrors(t, err), "confirm_password")
	})

	t.Run("changes password", func(t *testing.T) {
		err := handler.Execute(ctx, auth.UpdateProfileMessage{
			Email:           "john@x.com",
			Name:            "Johnny",
			CurrentPassword: "Secret123!",
			NewPassword:     "NewSecret1!",
			ConfirmPassword: "NewSecret1!",
		})
		require.NoError(t, err)

		account, err := repo.Accounts().FindByEmail(ctx, "john@x.com")
		require.NoError(t, err)
		assert.NoError(t, auth.ComparePasswordAndHash("NewSecret1!", account.PasswordHash))
	})
}

func TestSeedAdminHandler(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	handler := auth.NewSeedAdminHandler(repo, fastHasher())

	seed := func() (*auth.Account, bool) {
		var (
			account *auth.Account
			created bool
		)
		err := handler.Execute(ctx, auth.SeedAdminMessage{
			Name:     "Root",
			Email:    "root@x.com",
			Password: "RootPass1!",
			OnResponse: func(a *auth.Account, c bool) {
				account, created = a, c
			},
		})
		require.NoError(t, err)
		return account, created
	}

	first, created := seed()
	assert.True(t, created)
	assert.Equal(t, auth.RoleAdmin, first.Role)

	second, created := seed()
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	list, err := repo.Accounts().ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
