package query

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/outofforest/logger"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/eaglebank/account-registry/internal/repository"
	"github.com/eaglebank/account-registry/shared/apperr"
	"github.com/eaglebank/account-registry/shared/cqrs"
	"github.com/eaglebank/account-registry/shared/models"
)

func newService(t *testing.T) (context.Context, *repository.AccountWriteRepository, *AccountQueryService) {
	t.Helper()
	ctx := logger.WithLogger(t.Context(), logger.New(logger.DefaultConfig))

	db, dialect, err := repository.Open(ctx, repository.DriverSQLite, filepath.Join(t.TempDir(), "account.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, repository.EnsureSchema(ctx, db, dialect))

	write := repository.NewAccountWriteRepository(db, dialect)
	read := repository.NewAccountReadRepository(db, dialect, nil)

	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	for _, a := range []models.Account{
		{ID: 101, FirstName: "John", LastName: "Doe", EmailAddress: "john@example.com"},
		{ID: 102, FirstName: "Jane", LastName: "Doe", EmailAddress: "jane@example.org"},
		{ID: 103, FirstName: "Carl", LastName: "Roe", EmailAddress: "carl@other.net"},
	} {
		a.CreatedAt, a.UpdatedAt = now, now
		require.NoError(t, write.Create(ctx, &a))
	}
	return ctx, write, NewAccountQueryService(read)
}

func TestSearchAll(t *testing.T) {
	ctx, write, service := newService(t)

	result, err := service.SearchAll(ctx, cqrs.SearchAllQuery{})
	require.NoError(t, err)
	require.Equal(t, 3, result.Count)
	require.Equal(t, "Total of 3 accounts retrieved successfully", result.Message())

	for _, id := range []int64{101, 102, 103} {
		require.NoError(t, write.Delete(ctx, id, time.Now()))
	}
	result, err = service.SearchAll(ctx, cqrs.SearchAllQuery{})
	require.NoError(t, err)
	require.Equal(t, 0, result.Count)
	require.NotNil(t, result.Accounts)
	require.Equal(t, "There are no accounts on the database", result.Message())
}

func TestSearchByID(t *testing.T) {
	ctx, _, service := newService(t)

	result, err := service.SearchByID(ctx, cqrs.GetAccountQuery{ID: "102"})
	require.NoError(t, err)
	require.Equal(t, 1, result.Count)
	require.Equal(t, "Jane", result.Accounts[0].FirstName)
	require.Equal(t, "Account retrieved successfully", result.Message())

	result, err = service.SearchByID(ctx, cqrs.GetAccountQuery{ID: "999"})
	require.NoError(t, err, "an unknown id is an empty result")
	require.Equal(t, 0, result.Count)
	require.Empty(t, result.Accounts)

	_, err = service.SearchByID(ctx, cqrs.GetAccountQuery{ID: "abc"})
	require.Error(t, err)
	require.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	require.Equal(t, "'abc' is not a valid account Id", err.Error())
}

func TestSearchByEmail(t *testing.T) {
	ctx, _, service := newService(t)

	result, err := service.SearchByEmail(ctx, cqrs.SearchByEmailQuery{Fragment: "example"})
	require.NoError(t, err)
	require.Equal(t, 2, result.Count)
	require.Equal(t, "john@example.com", result.Accounts[0].EmailAddress)
	require.Equal(t, "jane@example.org", result.Accounts[1].EmailAddress)

	result, err = service.SearchByEmail(ctx, cqrs.SearchByEmailQuery{Fragment: "carl@other.net"})
	require.NoError(t, err)
	require.Equal(t, 1, result.Count)

	result, err = service.SearchByEmail(ctx, cqrs.SearchByEmailQuery{Fragment: "nobody"})
	require.NoError(t, err)
	require.Equal(t, 0, result.Count)
}

type brokenReader struct{}

func (brokenReader) GetByID(context.Context, int64) (*models.AccountView, error) {
	return nil, errors.New("connection reset")
}

func (brokenReader) FindAll(context.Context) ([]models.AccountView, error) {
	return nil, errors.New("connection reset")
}

func (brokenReader) FindByEmailFragment(context.Context, string) ([]models.AccountView, error) {
	return nil, errors.New("connection reset")
}

func TestSearchStorageFailure(t *testing.T) {
	ctx := logger.WithLogger(t.Context(), logger.New(logger.DefaultConfig))
	service := NewAccountQueryService(brokenReader{})

	_, err := service.SearchAll(ctx, cqrs.SearchAllQuery{})
	require.Equal(t, apperr.KindStorage, apperr.KindOf(err))

	_, err = service.SearchByID(ctx, cqrs.GetAccountQuery{ID: "101"})
	require.Equal(t, apperr.KindStorage, apperr.KindOf(err))

	_, err = service.SearchByEmail(ctx, cqrs.SearchByEmailQuery{Fragment: "x"})
	require.Equal(t, apperr.KindStorage, apperr.KindOf(err))
	require.NotContains(t, err.(*apperr.Error).Message, "connection reset")
}

func TestSearchResultMessage(t *testing.T) {
	require.Equal(t, "There are no accounts on the database", SearchResult{}.Message())
	require.Equal(t, "Account retrieved successfully", SearchResult{Count: 1}.Message())
	require.Equal(t, "Total of 12 accounts retrieved successfully", SearchResult{Count: 12}.Message())
}
