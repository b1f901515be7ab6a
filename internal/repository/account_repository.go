package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/eaglebank/account-registry/shared/models"
)

const accountColumns = `id, first_name, last_name, email_address, created_at, updated_at`

// AccountWriteRepository handles every state-mutating operation and the
// reads the command service bases decisions on. It always hits the database.
type AccountWriteRepository struct {
	db      *sql.DB
	dialect *Dialect
}

func NewAccountWriteRepository(db *sql.DB, dialect *Dialect) *AccountWriteRepository {
	return &AccountWriteRepository{db: db, dialect: dialect}
}

func (r *AccountWriteRepository) Create(ctx context.Context, account *models.Account) error {
	query := r.dialect.Rebind(`
		INSERT INTO account (id, first_name, last_name, email_address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`)
	_, err := r.db.ExecContext(ctx, query,
		account.ID, account.FirstName, account.LastName, account.EmailAddress,
		account.CreatedAt, account.UpdatedAt,
	)
	if err != nil {
		if dup := r.dialect.translate(err); dup != nil {
			return dup
		}
		return errors.Wrap(err, "failed to create account")
	}
	return nil
}

// GetByID fetches a live account.
func (r *AccountWriteRepository) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	query := r.dialect.Rebind(`
		SELECT ` + accountColumns + `
		FROM account
		WHERE id = $1 AND deleted_at IS NULL
	`)
	var account models.Account
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&account.ID, &account.FirstName, &account.LastName, &account.EmailAddress,
		&account.CreatedAt, &account.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get account")
	}
	return &account, nil
}

// MaxID returns the highest id ever assigned, deleted accounts included.
// ok is false when the table has never held a row.
func (r *AccountWriteRepository) MaxID(ctx context.Context) (id int64, ok bool, err error) {
	var maxID sql.NullInt64
	if err := r.db.QueryRowContext(ctx, `SELECT MAX(id) FROM account`).Scan(&maxID); err != nil {
		return 0, false, errors.Wrap(err, "failed to read max account id")
	}
	return maxID.Int64, maxID.Valid, nil
}

// EmailInUse reports whether a live account other than excludeID holds email.
// The match is exact.
func (r *AccountWriteRepository) EmailInUse(ctx context.Context, email string, excludeID int64) (bool, error) {
	query := r.dialect.Rebind(`
		SELECT COUNT(*)
		FROM account
		WHERE email_address = $1 AND id <> $2 AND deleted_at IS NULL
	`)
	var count int64
	if err := r.db.QueryRowContext(ctx, query, email, excludeID).Scan(&count); err != nil {
		return false, errors.Wrap(err, "failed to check email")
	}
	return count > 0, nil
}

// Update writes every mutable column of a live account.
func (r *AccountWriteRepository) Update(ctx context.Context, account *models.Account) error {
	query := r.dialect.Rebind(`
		UPDATE account
		SET first_name = $2, last_name = $3, email_address = $4, updated_at = $5
		WHERE id = $1 AND deleted_at IS NULL
	`)
	result, err := r.db.ExecContext(ctx, query,
		account.ID, account.FirstName, account.LastName, account.EmailAddress, account.UpdatedAt,
	)
	if err != nil {
		if dup := r.dialect.translate(err); dup != nil {
			return dup
		}
		return errors.Wrap(err, "failed to update account")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to check rows affected")
	}
	if rows == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// Delete soft-deletes a live account. The row keeps its id so MaxID never
// goes backwards and ids are not reused.
func (r *AccountWriteRepository) Delete(ctx context.Context, id int64, at time.Time) error {
	query := r.dialect.Rebind(`UPDATE account SET deleted_at = $2 WHERE id = $1 AND deleted_at IS NULL`)
	result, err := r.db.ExecContext(ctx, query, id, at)
	if err != nil {
		return errors.Wrap(err, "failed to delete account")
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to check rows affected")
	}
	if rows == 0 {
		return ErrAccountNotFound
	}
	return nil
}
