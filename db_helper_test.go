package auth_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"golang.org/x/crypto/bcrypt"

	auth "github.com/goliatone/go-account-auth"
	"github.com/goliatone/go-account-auth/internal/bunx"
	"github.com/goliatone/go-account-auth/migrations"
)

// newTestDB opens a private in-memory sqlite database with the schema applied
func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := bunx.NewDB(dsn, bunx.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = bunx.Close(db) })

	_, err = migrations.Up(context.Background(), db)
	require.NoError(t, err)

	return db
}

func newTestRepo(t *testing.T) auth.RepositoryManager {
	t.Helper()
	repo := auth.NewRepositoryManager(newTestDB(t))
	require.NoError(t, repo.Validate())
	return repo
}

func fastHasher() auth.CommandOption {
	return auth.WithPasswordAuthenticator(auth.NewPasswordAuthenticator(bcrypt.MinCost))
}

// insertAccount stores an account straight through the repository
func insertAccount(t *testing.T, repo auth.RepositoryManager, name, email, password string, role auth.Role) *auth.Account {
	t.Helper()

	hash, err := auth.HashPasswordWithCost(password, bcrypt.MinCost)
	require.NoError(t, err)

	var created *auth.Account
	err = repo.RunInTx(context.Background(), nil, func(ctx context.Context, tx bun.Tx) error {
		created, err = repo.Accounts().CreateTx(ctx, tx, &auth.Account{
			Name:         name,
			Email:        email,
			PasswordHash: hash,
			Role:         role,
		})
		return err
	})
	require.NoError(t, err)
	return created
}
