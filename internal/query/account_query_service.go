package query

import (
	"context"
	"fmt"

	"github.com/outofforest/logger"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/eaglebank/account-registry/internal/repository"
	"github.com/eaglebank/account-registry/shared/apperr"
	"github.com/eaglebank/account-registry/shared/cqrs"
	"github.com/eaglebank/account-registry/shared/models"
	"github.com/eaglebank/account-registry/shared/utils"
)

// AccountReader is the read side of the record store.
type AccountReader interface {
	GetByID(ctx context.Context, id int64) (*models.AccountView, error)
	FindAll(ctx context.Context) ([]models.AccountView, error)
	FindByEmailFragment(ctx context.Context, fragment string) ([]models.AccountView, error)
}

// SearchResult is a search outcome. An empty result is still a success.
type SearchResult struct {
	Accounts []models.AccountView
	Count    int
}

// Message describes the result for the caller.
func (r SearchResult) Message() string {
	switch {
	case r.Count < 1:
		return "There are no accounts on the database"
	case r.Count == 1:
		return "Account retrieved successfully"
	default:
		return fmt.Sprintf("Total of %d accounts retrieved successfully", r.Count)
	}
}

type AccountQueryService struct {
	readRepo AccountReader
}

func NewAccountQueryService(readRepo AccountReader) *AccountQueryService {
	return &AccountQueryService{readRepo: readRepo}
}

// SearchAll returns every live account.
func (s *AccountQueryService) SearchAll(ctx context.Context, _ cqrs.SearchAllQuery) (*SearchResult, error) {
	views, err := s.readRepo.FindAll(ctx)
	if err != nil {
		return nil, storageFailure(ctx, "search all", err)
	}
	return newResult(views), nil
}

// SearchByID returns the account with the given id, or an empty result when
// there is none. A malformed id is reported as not found.
func (s *AccountQueryService) SearchByID(ctx context.Context, q cqrs.GetAccountQuery) (*SearchResult, error) {
	id, ok := utils.ParseAccountID(q.ID)
	if !ok {
		return nil, apperr.NotFound(fmt.Sprintf("'%s' is not a valid account Id", q.ID))
	}

	view, err := s.readRepo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrAccountNotFound) {
		return newResult(nil), nil
	}
	if err != nil {
		return nil, storageFailure(ctx, "search by id", err)
	}
	return newResult([]models.AccountView{*view}), nil
}

// SearchByEmail returns accounts whose email contains the fragment.
func (s *AccountQueryService) SearchByEmail(ctx context.Context, q cqrs.SearchByEmailQuery) (*SearchResult, error) {
	views, err := s.readRepo.FindByEmailFragment(ctx, q.Fragment)
	if err != nil {
		return nil, storageFailure(ctx, "search by email", err)
	}
	return newResult(views), nil
}

func newResult(views []models.AccountView) *SearchResult {
	if views == nil {
		views = []models.AccountView{}
	}
	return &SearchResult{Accounts: views, Count: len(views)}
}

func storageFailure(ctx context.Context, operation string, err error) error {
	logger.Get(ctx).Error("Account search failed", zap.String("operation", operation), zap.Error(err))
	return apperr.Storage(err)
}
