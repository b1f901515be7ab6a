package command

import (
	"context"
	"fmt"
	"time"

	"github.com/outofforest/logger"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/eaglebank/account-registry/internal/changeset"
	"github.com/eaglebank/account-registry/internal/repository"
	"github.com/eaglebank/account-registry/internal/validation"
	"github.com/eaglebank/account-registry/shared/apperr"
	"github.com/eaglebank/account-registry/shared/cqrs"
	"github.com/eaglebank/account-registry/shared/events"
	"github.com/eaglebank/account-registry/shared/models"
	"github.com/eaglebank/account-registry/shared/utils"
)

// MsgEmailInUse is reported when an email already belongs to a live account.
const MsgEmailInUse = "This email address is already registered to an existing account"

// maxCreateAttempts bounds the retries of a create that lost an id race.
const maxCreateAttempts = 3

// AccountStore is the write side of the record store.
type AccountStore interface {
	Create(ctx context.Context, account *models.Account) error
	GetByID(ctx context.Context, id int64) (*models.Account, error)
	MaxID(ctx context.Context) (int64, bool, error)
	EmailInUse(ctx context.Context, email string, excludeID int64) (bool, error)
	Update(ctx context.Context, account *models.Account) error
	Delete(ctx context.Context, id int64, at time.Time) error
}

// ViewProjector keeps the read-side cache in step with writes.
type ViewProjector interface {
	CacheAccountView(ctx context.Context, view *models.AccountView)
	InvalidateAccountView(ctx context.Context, id int64)
}

// EventPublisher appends domain events to a stream.
type EventPublisher interface {
	Publish(ctx context.Context, stream, eventType string, data any) error
}

// Config configures the command service.
type Config struct {
	// RestrictedIDs can never be updated or deleted.
	RestrictedIDs RestrictedIDs
	// IDSeed stands in for the highest id while the store has never held an account.
	IDSeed int64
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// UpdateResult is the outcome of a successful update. Changes is empty when
// the request carried nothing new.
type UpdateResult struct {
	Account *models.Account
	Changes *changeset.ChangeSet
}

// fieldUpdate binds a request field to the account field it may replace.
type fieldUpdate struct {
	name      string
	target    func(a *models.Account) *string
	candidate func(cmd *cqrs.UpdateAccountCommand) models.OptionalString
}

// updatableFields lists the mutable fields in the order they are diffed.
var updatableFields = []fieldUpdate{
	{
		name:      "firstName",
		target:    func(a *models.Account) *string { return &a.FirstName },
		candidate: func(cmd *cqrs.UpdateAccountCommand) models.OptionalString { return cmd.FirstName },
	},
	{
		name:      "lastName",
		target:    func(a *models.Account) *string { return &a.LastName },
		candidate: func(cmd *cqrs.UpdateAccountCommand) models.OptionalString { return cmd.LastName },
	},
	{
		name:      "emailAddress",
		target:    func(a *models.Account) *string { return &a.EmailAddress },
		candidate: func(cmd *cqrs.UpdateAccountCommand) models.OptionalString { return cmd.EmailAddress },
	},
}

// AccountCommandService runs the create, update and delete workflows. Every
// operation re-reads the store; nothing is held between calls.
type AccountCommandService struct {
	store      AccountStore
	projector  ViewProjector
	publisher  EventPublisher
	restricted RestrictedIDs
	seed       int64
	clock      func() time.Time
}

func NewAccountCommandService(
	store AccountStore,
	projector ViewProjector,
	publisher EventPublisher,
	config Config,
) *AccountCommandService {
	if publisher == nil {
		publisher = events.Discard{}
	}
	clock := config.Clock
	if clock == nil {
		clock = time.Now
	}
	return &AccountCommandService{
		store:      store,
		projector:  projector,
		publisher:  publisher,
		restricted: config.RestrictedIDs,
		seed:       config.IDSeed,
		clock:      clock,
	}
}

// CreateAccount validates the candidate, assigns the next id and inserts it.
func (s *AccountCommandService) CreateAccount(ctx context.Context, cmd cqrs.CreateAccountCommand) (*models.Account, error) {
	log := logger.Get(ctx)

	now := s.now()
	account := &models.Account{
		FirstName:    cmd.FirstName,
		LastName:     cmd.LastName,
		EmailAddress: cmd.EmailAddress,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if violations := validation.Validate(account); len(violations) > 0 {
		return nil, apperr.Validation(violations)
	}

	for attempt := 1; ; attempt++ {
		inUse, err := s.store.EmailInUse(ctx, account.EmailAddress, 0)
		if err != nil {
			return nil, storageFailure(ctx, "create", err)
		}
		if inUse {
			return nil, apperr.Conflict(MsgEmailInUse)
		}

		id, err := s.nextID(ctx)
		if err != nil {
			return nil, storageFailure(ctx, "create", err)
		}
		account.ID = id

		err = s.store.Create(ctx, account)
		if err == nil {
			break
		}
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			return nil, apperr.Conflict(MsgEmailInUse)
		case errors.Is(err, repository.ErrDuplicateID) && attempt < maxCreateAttempts:
			log.Warn("Account id taken concurrently, retrying", zap.Int64("id", id), zap.Int("attempt", attempt))
		default:
			return nil, storageFailure(ctx, "create", err)
		}
	}

	s.projector.CacheAccountView(ctx, account.ToView())
	s.publish(ctx, events.AccountCreated, events.AccountCreatedEvent{
		ID:           account.ID,
		EmailAddress: account.EmailAddress,
	})
	log.Info("Account created", zap.Int64("id", account.ID))
	return account, nil
}

// UpdateAccount applies the set fields of cmd that differ from the stored
// record. updatedAt is refreshed and persisted even when nothing changed.
func (s *AccountCommandService) UpdateAccount(ctx context.Context, cmd cqrs.UpdateAccountCommand) (*UpdateResult, error) {
	id, ok := utils.ParseAccountID(cmd.ID)
	if !ok {
		return nil, invalidID(cmd.ID)
	}
	if s.restricted.Contains(id) {
		return nil, apperr.Forbidden(fmt.Sprintf("Account ID '%s' is restricted and cannot be updated", cmd.ID))
	}

	account, err := s.store.GetByID(ctx, id)
	if errors.Is(err, repository.ErrAccountNotFound) {
		return nil, invalidID(cmd.ID)
	}
	if err != nil {
		return nil, storageFailure(ctx, "update", err)
	}

	if email := cmd.EmailAddress; email.IsSet() && email.Value() != account.EmailAddress {
		inUse, err := s.store.EmailInUse(ctx, email.Value(), id)
		if err != nil {
			return nil, storageFailure(ctx, "update", err)
		}
		if inUse {
			return nil, apperr.Conflict(MsgEmailInUse)
		}
	}

	changes := &changeset.ChangeSet{}
	for _, field := range updatableFields {
		changeset.Apply(changes, field.name, field.target(account), field.candidate(&cmd).Value(), changeset.Blank)
	}
	if violations := validation.Validate(account); len(violations) > 0 {
		return nil, apperr.Validation(violations)
	}

	account.UpdatedAt = s.now()
	if err := s.store.Update(ctx, account); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			return nil, apperr.Conflict(MsgEmailInUse)
		case errors.Is(err, repository.ErrAccountNotFound):
			return nil, invalidID(cmd.ID)
		default:
			return nil, storageFailure(ctx, "update", err)
		}
	}

	s.projector.CacheAccountView(ctx, account.ToView())
	s.publish(ctx, events.AccountUpdated, events.AccountUpdatedEvent{
		ID:      account.ID,
		Changes: changes.Map(),
	})
	logger.Get(ctx).Info("Account updated", zap.Int64("id", account.ID), zap.Int("changes", changes.Len()))
	return &UpdateResult{Account: account, Changes: changes}, nil
}

// DeleteAccount removes an account. Restricted ids are refused whether or not
// the account exists.
func (s *AccountCommandService) DeleteAccount(ctx context.Context, cmd cqrs.DeleteAccountCommand) error {
	id, ok := utils.ParseAccountID(cmd.ID)
	if !ok {
		return invalidID(cmd.ID)
	}
	if s.restricted.Contains(id) {
		return apperr.Forbidden(fmt.Sprintf("Account ID '%s' is restricted and cannot be deleted", cmd.ID))
	}

	if _, err := s.store.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return invalidID(cmd.ID)
		}
		return storageFailure(ctx, "delete", err)
	}

	if err := s.store.Delete(ctx, id, s.now()); err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return invalidID(cmd.ID)
		}
		return storageFailure(ctx, "delete", err)
	}

	s.projector.InvalidateAccountView(ctx, id)
	s.publish(ctx, events.AccountDeleted, events.AccountDeletedEvent{ID: id})
	logger.Get(ctx).Info("Account deleted", zap.Int64("id", id))
	return nil
}

// nextID returns max(id)+1, using the seed when the store is empty.
func (s *AccountCommandService) nextID(ctx context.Context) (int64, error) {
	maxID, ok, err := s.store.MaxID(ctx)
	if err != nil {
		return 0, err
	}
	if !ok {
		maxID = s.seed
	}
	return maxID + 1, nil
}

// now is truncated to microseconds so stamps survive every store unchanged.
func (s *AccountCommandService) now() time.Time {
	return s.clock().UTC().Truncate(time.Microsecond)
}

func (s *AccountCommandService) publish(ctx context.Context, eventType string, data any) {
	if err := s.publisher.Publish(ctx, events.AccountEventsStream, eventType, data); err != nil {
		logger.Get(ctx).Warn("Failed to publish event", zap.String("type", eventType), zap.Error(err))
	}
}

func invalidID(raw string) error {
	return apperr.NotFound(fmt.Sprintf("'%s' is not a valid account Id", raw))
}

func storageFailure(ctx context.Context, operation string, err error) error {
	logger.Get(ctx).Error("Account store failure", zap.String("operation", operation), zap.Error(err))
	return apperr.Storage(err)
}
