package repository

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/pkg/errors"

	"github.com/eaglebank/account-registry/shared/models"
)

// AccountViewKeyPrefix prefixes the Redis keys of cached account views.
const AccountViewKeyPrefix = "account:view:"

// ViewCache stores account views by id. Implemented by the Redis ViewCache.
type ViewCache interface {
	Get(ctx context.Context, key string) (*models.AccountView, bool)
	Set(ctx context.Context, key string, value *models.AccountView)
	Delete(ctx context.Context, key string)
}

// AccountReadRepository serves searches. By-id lookups try the view cache
// when one is configured. Only the command side writes to the cache, so a
// cold read racing an update or delete cannot put back a stale view.
type AccountReadRepository struct {
	db      *sql.DB
	dialect *Dialect
	cache   ViewCache
}

// NewAccountReadRepository builds the read side. cache may be nil.
func NewAccountReadRepository(db *sql.DB, dialect *Dialect, cache ViewCache) *AccountReadRepository {
	return &AccountReadRepository{db: db, dialect: dialect, cache: cache}
}

// GetByID returns the view of a live account, trying the cache first.
func (r *AccountReadRepository) GetByID(ctx context.Context, id int64) (*models.AccountView, error) {
	key := strconv.FormatInt(id, 10)
	if r.cache != nil {
		if view, ok := r.cache.Get(ctx, key); ok {
			return view, nil
		}
	}

	views, err := r.list(ctx, `WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return nil, ErrAccountNotFound
	}
	return &views[0], nil
}

// FindAll returns every live account ordered by id.
func (r *AccountReadRepository) FindAll(ctx context.Context) ([]models.AccountView, error) {
	return r.list(ctx, `WHERE deleted_at IS NULL ORDER BY id`)
}

// FindByEmailFragment returns live accounts whose email contains fragment.
// The match is a case-sensitive substring search with no wildcards.
func (r *AccountReadRepository) FindByEmailFragment(ctx context.Context, fragment string) ([]models.AccountView, error) {
	return r.list(ctx, `WHERE `+r.dialect.containsEmail+` AND deleted_at IS NULL ORDER BY id`, fragment)
}

// CacheAccountView refreshes the cached view of an account.
func (r *AccountReadRepository) CacheAccountView(ctx context.Context, view *models.AccountView) {
	if r.cache == nil {
		return
	}
	r.cache.Set(ctx, strconv.FormatInt(view.ID, 10), view)
}

// InvalidateAccountView drops the cached view of a deleted account.
func (r *AccountReadRepository) InvalidateAccountView(ctx context.Context, id int64) {
	if r.cache == nil {
		return
	}
	r.cache.Delete(ctx, strconv.FormatInt(id, 10))
}

func (r *AccountReadRepository) list(ctx context.Context, where string, args ...any) ([]models.AccountView, error) {
	query := r.dialect.Rebind(`SELECT ` + accountColumns + ` FROM account ` + where)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list accounts")
	}
	defer rows.Close()

	views := []models.AccountView{}
	for rows.Next() {
		var view models.AccountView
		if err := rows.Scan(
			&view.ID, &view.FirstName, &view.LastName, &view.EmailAddress,
			&view.CreatedAt, &view.UpdatedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan account")
		}
		views = append(views, view)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate accounts")
	}
	return views, nil
}
