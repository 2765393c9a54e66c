package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/username/institutionledger/src/logger"
	"github.com/username/institutionledger/src/model"
	"github.com/username/institutionledger/src/models"
)

const balanceTransferDescription = "balance transfer"

type transferServiceImpl struct {
	store        Store
	accounts     AccountService
	transactions TransactionService
	reportCache  *ReportCache
	newRef       func() string
}

func NewTransferService(store Store, accounts AccountService, transactions TransactionService, reportCache *ReportCache) TransferService {
	return &transferServiceImpl{
		store:        store,
		accounts:     accounts,
		transactions: transactions,
		reportCache:  reportCache,
		newRef:       func() string { return uuid.New().String() },
	}
}

// TransferFunds debits source and credits target under one correlation id.
// Either both legs are stored or neither is.
func (s *transferServiceImpl) TransferFunds(ctx context.Context, source, target *model.Account, amount int64, description string) (*model.Transaction, *model.Transaction, error) {
	if amount <= 0 {
		return nil, nil, fmt.Errorf("%w: %d must be positive", ErrInvalidAmount, amount)
	}
	if source.ID == target.ID {
		return nil, nil, fmt.Errorf("%w: account %d cannot transfer to itself", ErrInvalidTransfer, source.ID)
	}

	clientRef := s.newRef()
	ctxLogger := logger.FromContext(ctx).With("clientRef", clientRef, "sourceAccountID", source.ID, "targetAccountID", target.ID)

	var debit, credit *model.Transaction
	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		src, err := s.reload(ctx, source)
		if err != nil {
			return err
		}
		dst, err := s.reload(ctx, target)
		if err != nil {
			return err
		}
		if src.IsClosed() {
			return fmt.Errorf("%w: source account %d", ErrAccountClosed, src.ID)
		}
		if dst.IsClosed() {
			return fmt.Errorf("%w: target account %d", ErrAccountClosed, dst.ID)
		}

		balance, err := s.transactions.Balance(ctx, src, nil)
		if err != nil {
			return err
		}
		if balance < amount {
			return fmt.Errorf("%w: balance %d is less than %d", ErrInsufficientFunds, balance, amount)
		}

		if debit, err = s.transactions.Append(ctx, src, models.TransactionDebit, amount, description, clientRef); err != nil {
			return err
		}
		credit, err = s.transactions.Append(ctx, dst, models.TransactionCredit, amount, description, clientRef)
		return err
	})
	if err != nil {
		if isDomainError(err) {
			ctxLogger.Warn("Transfer rejected", "amount", amount, "error", err)
		}
		return nil, nil, err
	}

	s.reportCache.InvalidateInstitution(source.InstitutionID)
	s.reportCache.InvalidateInstitution(target.InstitutionID)
	ctxLogger.Info("Funds transferred", "amount", amount, "debitID", debit.ID, "creditID", credit.ID)
	return debit, credit, nil
}

func (s *transferServiceImpl) TransferBetweenAccounts(ctx context.Context, institutionID, personID, fromAccountName, toAccountName string, toAccountType models.AccountType, amount int64) (*model.Transaction, *model.Transaction, error) {
	var debit, credit *model.Transaction
	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		source, err := s.accounts.Find(ctx, institutionID, personID, fromAccountName)
		if err != nil {
			return err
		}
		if source == nil {
			return fmt.Errorf("%w: %s/%s/%s", ErrNoSuchAccount, institutionID, personID, fromAccountName)
		}
		target, err := s.accounts.GetOrCreate(ctx, institutionID, personID, toAccountName, toAccountType, nil)
		if err != nil {
			return err
		}
		debit, credit, err = s.TransferFunds(ctx, source, target, amount, balanceTransferDescription)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return debit, credit, nil
}

// reload reads the stored account so status checks see the latest close.
func (s *transferServiceImpl) reload(ctx context.Context, account *model.Account) (*model.Account, error) {
	current, err := s.store.FindAccount(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, fmt.Errorf("%w: account %d", ErrNoSuchAccount, account.ID)
	}
	return current, nil
}
