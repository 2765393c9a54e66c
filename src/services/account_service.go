package services

import (
	"context"
	"fmt"
	"time"

	"github.com/username/institutionledger/src/logger"
	"github.com/username/institutionledger/src/model"
	"github.com/username/institutionledger/src/models"
)

// Clock returns the current instant. Services take one so point-in-time
// behaviour can be tested.
type Clock func() time.Time

func systemClock() time.Time { return time.Now().UTC() }

type accountServiceImpl struct {
	store Store
	now   Clock
}

func NewAccountService(store Store, now Clock) AccountService {
	if now == nil {
		now = systemClock
	}
	return &accountServiceImpl{store: store, now: now}
}

func (s *accountServiceImpl) GetOrCreate(ctx context.Context, institutionID, personID, accountName string, accountType models.AccountType, transferID *int64) (*model.Account, error) {
	if accountType != models.AccountTypeSavings && accountType != models.AccountTypeFullAccess {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAccountType, accountType)
	}

	var account *model.Account
	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		existing, err := s.store.FindOpenAccount(ctx, institutionID, personID, accountName)
		if err != nil {
			return err
		}
		if existing != nil {
			account = existing
			return nil
		}

		created := &model.Account{
			InstitutionID: institutionID,
			PersonID:      personID,
			AccountName:   accountName,
			AccountType:   accountType,
			Status:        models.AccountStatusOpen,
			CreatedAt:     s.now(),
			TransferID:    transferID,
		}
		if err := s.store.SaveAccount(ctx, created); err != nil {
			return err
		}
		logger.FromContext(ctx).Info("Account opened",
			"accountID", created.ID, "institutionID", institutionID, "personID", personID,
			"accountName", accountName, "accountType", accountType)
		account = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

func (s *accountServiceImpl) Find(ctx context.Context, institutionID, personID, accountName string) (*model.Account, error) {
	return s.store.FindOpenAccount(ctx, institutionID, personID, accountName)
}

// Close is idempotent: a second call keeps the first closedAt.
func (s *accountServiceImpl) Close(ctx context.Context, account *model.Account) error {
	if account.IsClosed() {
		return nil
	}
	closedAt := s.now()
	changed, err := s.store.CloseAccount(ctx, account.ID, closedAt)
	if err != nil {
		return err
	}
	if !changed {
		// Closed by someone else since it was loaded; reload to pick up their closedAt.
		current, err := s.store.FindAccount(ctx, account.ID)
		if err != nil {
			return err
		}
		if current == nil {
			return fmt.Errorf("%w: account %d", ErrNoSuchAccount, account.ID)
		}
		*account = *current
		return nil
	}
	account.Status = models.AccountStatusClosed
	account.ClosedAt = model.NullTime{Time: closedAt, Valid: true}
	logger.FromContext(ctx).Info("Account closed", "accountID", account.ID, "institutionID", account.InstitutionID, "personID", account.PersonID)
	return nil
}

func (s *accountServiceImpl) HistoricStatus(account *model.Account, at time.Time) models.AccountStatus {
	return account.HistoricStatus(at)
}

func (s *accountServiceImpl) OpenAccounts(ctx context.Context, institutionID, personID string) ([]model.Account, error) {
	return s.store.FindOpenAccounts(ctx, institutionID, personID)
}

func (s *accountServiceImpl) NamedAccounts(ctx context.Context, personID, accountName string) ([]model.Account, error) {
	return s.store.FindAccountsByName(ctx, personID, accountName)
}
