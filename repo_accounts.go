package auth

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

// Accounts is the bun backed account repository. Methods with a Tx suffix
// run on the given bun.IDB so callers can group them in one transaction.
type Accounts interface {
	repository.Repository[*Account]
	CredentialStore

	FindByID(ctx context.Context, id uuid.UUID) (*Account, error)
	FindByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*Account, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Account, error)
	ExistsByEmailTx(ctx context.Context, tx bun.IDB, email string, excludeID uuid.UUID) (bool, error)
	ListActive(ctx context.Context) ([]*Account, error)

	CreateTx(ctx context.Context, tx bun.IDB, record *Account, criteria ...repository.InsertCriteria) (*Account, error)
	UpdateColumnsTx(ctx context.Context, tx bun.IDB, record *Account, columns ...string) (*Account, error)
	SoftDeleteTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error
}

type accounts struct {
	repository.Repository[*Account]
	db  *bun.DB
	now func() time.Time
}

var (
	_ Accounts                        = (*accounts)(nil)
	_ repository.Repository[*Account] = (*accounts)(nil)
)

// NewAccountsRepository returns an Accounts repository on db
func NewAccountsRepository(db *bun.DB) Accounts {
	repo := repository.NewRepository[*Account](db, repository.ModelHandlers[*Account]{
		NewRecord: func() *Account { return &Account{} },
		GetID: func(a *Account) uuid.UUID {
			if a == nil {
				return uuid.Nil
			}
			return a.ID
		},
		SetID: func(a *Account, id uuid.UUID) {
			if a != nil {
				a.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &accounts{
		Repository: repo,
		db:         db,
		now:        time.Now,
	}
}

// FindByEmail implements CredentialStore
func (a *accounts) FindByEmail(ctx context.Context, email string) (*Account, error) {
	return a.GetByEmailTx(ctx, a.db, email)
}

// FindRoleByEmail implements CredentialStore. It only reads the role column.
func (a *accounts) FindRoleByEmail(ctx context.Context, email string) (Role, error) {
	email = NormalizeEmail(email)

	var raw string
	err := a.db.NewSelect().
		Model((*Account)(nil)).
		Column("role").
		Where("?TableAlias.email = ?", email).
		Limit(1).
		Scan(ctx, &raw)
	if err != nil {
		return "", notFoundOr(err, "find_role_by_email", map[string]any{"email": email})
	}

	return normalizeStoredRole(raw), nil
}

// FindByID loads an active account through the generic repository
func (a *accounts) FindByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	if id == uuid.Nil {
		return nil, withMetadata(ErrAccountNotFound, map[string]any{"id": id.String()})
	}

	record, err := a.Repository.GetByID(ctx, id.String())
	if err != nil {
		return nil, notFoundOr(err, "get_by_id", map[string]any{"id": id.String()})
	}

	record.Role = normalizeStoredRole(string(record.Role))
	return record, nil
}

func (a *accounts) FindByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*Account, error) {
	record := &Account{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, notFoundOr(err, "get_by_id", map[string]any{"id": id.String()})
	}

	record.Role = normalizeStoredRole(string(record.Role))
	return record, nil
}

func (a *accounts) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*Account, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, withMetadata(ErrAccountNotFound, map[string]any{"email": email})
	}

	record := &Account{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", email).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, notFoundOr(err, "get_by_email", map[string]any{"email": email})
	}

	record.Role = normalizeStoredRole(string(record.Role))
	return record, nil
}

func (a *accounts) ExistsByEmailTx(ctx context.Context, tx bun.IDB, email string, excludeID uuid.UUID) (bool, error) {
	q := tx.NewSelect().
		Model((*Account)(nil)).
		Where("?TableAlias.email = ?", NormalizeEmail(email))

	if excludeID != uuid.Nil {
		q = q.Where("?TableAlias.id != ?", excludeID)
	}

	exists, err := q.Exists(ctx)
	if err != nil {
		return false, storeError(err, "exists_by_email")
	}
	return exists, nil
}

// ListActive returns every non deleted account ordered by creation
func (a *accounts) ListActive(ctx context.Context) ([]*Account, error) {
	records := make([]*Account, 0)
	err := a.db.NewSelect().
		Model(&records).
		OrderExpr("?TableAlias.created_at ASC, ?TableAlias.email ASC").
		Scan(ctx)
	if err != nil {
		return nil, storeError(err, "list")
	}

	for _, r := range records {
		r.Role = normalizeStoredRole(string(r.Role))
	}
	return records, nil
}

func (a *accounts) CreateTx(ctx context.Context, tx bun.IDB, record *Account, criteria ...repository.InsertCriteria) (*Account, error) {
	prepareAccountDefaults(record, a.now())

	if _, err := a.Repository.CreateTx(ctx, tx, record, criteria...); err != nil {
		if isUniqueViolation(err) {
			return nil, withMetadata(ErrEmailTaken, map[string]any{"email": record.Email})
		}
		return nil, storeError(err, "create")
	}

	return a.FindByIDTx(ctx, tx, record.ID)
}

// UpdateColumnsTx writes the given columns, updated_at is always included.
// Without columns name, email and role are written.
func (a *accounts) UpdateColumnsTx(ctx context.Context, tx bun.IDB, record *Account, columns ...string) (*Account, error) {
	if len(columns) == 0 {
		columns = []string{"name", "email", "role"}
	}

	record.Email = NormalizeEmail(record.Email)
	now := a.now()
	record.UpdatedAt = &now
	columns = append(columns, "updated_at")

	res, err := tx.NewUpdate().
		Model(record).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, withMetadata(ErrEmailTaken, map[string]any{"email": record.Email})
		}
		return nil, storeError(err, "update")
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, withMetadata(ErrAccountNotFound, map[string]any{"id": record.ID.String()})
	}

	return a.FindByIDTx(ctx, tx, record.ID)
}

// SoftDeleteTx marks the account deleted, freeing its email for reuse
func (a *accounts) SoftDeleteTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	res, err := tx.NewDelete().
		Model(&Account{ID: id}).
		WherePK().
		Exec(ctx)
	if err != nil {
		return storeError(err, "delete")
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return withMetadata(ErrAccountNotFound, map[string]any{"id": id.String()})
	}

	return nil
}

func prepareAccountDefaults(record *Account, now time.Time) {
	if record == nil {
		return
	}

	record.Email = NormalizeEmail(record.Email)
	record.Name = strings.TrimSpace(record.Name)
	record.CreatorEmail = NormalizeEmail(record.CreatorEmail)

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.CreatedAt == nil {
		record.CreatedAt = &now
	}
	if record.UpdatedAt == nil {
		record.UpdatedAt = &now
	}
}

func isRecordNotFound(err error) bool {
	return repository.IsRecordNotFound(err) || errors.Is(err, sql.ErrNoRows)
}

func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.IntegrityViolation()
	}

	// the generic repository may wrap the driver error, check every layer
	for e := err; e != nil; e = errors.Unwrap(e) {
		msg := strings.ToLower(e.Error())
		if strings.Contains(msg, "unique constraint failed") ||
			strings.Contains(msg, "constraint failed: unique") {
			return true
		}
	}
	return false
}
