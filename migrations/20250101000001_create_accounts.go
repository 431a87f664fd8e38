package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	auth "github.com/goliatone/go-account-auth"
)

func init() {
	Migrations.MustRegister(up_20250101000001, down_20250101000001)
}

// up_20250101000001 creates the accounts table and the unique index on
// active emails
func up_20250101000001(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().
		Model((*auth.Account)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create accounts table: %w", err)
	}

	// soft deleted rows keep their email, only active rows must be unique
	_, err = db.NewCreateIndex().
		Model((*auth.Account)(nil)).
		Index("accounts_email_active_idx").
		Unique().
		Column("email").
		Where("deleted_at IS NULL").
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create accounts email index: %w", err)
	}

	return nil
}

// down_20250101000001 drops the accounts table
func down_20250101000001(ctx context.Context, db *bun.DB) error {
	_, err := db.NewDropTable().
		Model((*auth.Account)(nil)).
		IfExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to drop accounts table: %w", err)
	}

	return nil
}
