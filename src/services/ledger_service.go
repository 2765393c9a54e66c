package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/username/institutionledger/src/logger"
	"github.com/username/institutionledger/src/model"
	"github.com/username/institutionledger/src/models"
)

type ledgerServiceImpl struct {
	store        Store
	accounts     AccountService
	transactions TransactionService
	reportCache  *ReportCache
}

func NewLedgerService(store Store, accounts AccountService, transactions TransactionService, reportCache *ReportCache) LedgerService {
	return &ledgerServiceImpl{
		store:        store,
		accounts:     accounts,
		transactions: transactions,
		reportCache:  reportCache,
	}
}

// PostTransaction creates the account on first use, then applies the posting
// rules: nothing on a closed account, credits always, debits only on
// FULL_ACCESS accounts holding enough funds. The checks and the append share
// one unit of work.
func (s *ledgerServiceImpl) PostTransaction(ctx context.Context, req PostRequest) (*model.Transaction, error) {
	ctxLogger := logger.FromContext(ctx).With("institutionID", req.InstitutionID, "personID", req.PersonID, "accountName", req.AccountName)

	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: %d must be positive", ErrInvalidAmount, req.Amount)
	}
	if req.Operation != models.TransactionCredit && req.Operation != models.TransactionDebit {
		return nil, fmt.Errorf("%w: %q", ErrInvalidOperation, req.Operation)
	}

	var posted *model.Transaction
	err := s.store.WithinTx(ctx, func(ctx context.Context) error {
		account, err := s.accounts.GetOrCreate(ctx, req.InstitutionID, req.PersonID, req.AccountName, req.AccountType, nil)
		if err != nil {
			return err
		}
		if account.IsClosed() {
			return fmt.Errorf("%w: account %d", ErrAccountClosed, account.ID)
		}

		if req.Operation == models.TransactionDebit {
			if account.AccountType == models.AccountTypeSavings {
				return fmt.Errorf("%w: %s is a savings account", ErrDebitNotSupported, account.AccountName)
			}
			balance, err := s.transactions.Balance(ctx, account, nil)
			if err != nil {
				return err
			}
			if balance < req.Amount {
				return fmt.Errorf("%w: balance %d is less than %d", ErrInsufficientFunds, balance, req.Amount)
			}
		}

		posted, err = s.transactions.Append(ctx, account, req.Operation, req.Amount, req.Description, req.ClientReference)
		return err
	})
	if err != nil {
		if isDomainError(err) {
			ctxLogger.Warn("Posting rejected", "operation", req.Operation, "amount", req.Amount, "error", err)
		}
		return nil, err
	}

	s.reportCache.InvalidateInstitution(req.InstitutionID)
	ctxLogger.Info("Transaction posted", "transactionID", posted.ID, "operation", posted.Type, "amount", posted.Amount)
	return posted, nil
}

func (s *ledgerServiceImpl) BalanceOf(ctx context.Context, institutionID, personID, accountName string) (models.Balance, error) {
	account, err := s.requireAccount(ctx, institutionID, personID, accountName)
	if err != nil {
		return models.Balance{}, err
	}
	amount, err := s.transactions.Balance(ctx, account, nil)
	if err != nil {
		return models.Balance{}, err
	}
	return models.NewBalance(account.AccountName, amount), nil
}

func (s *ledgerServiceImpl) TransactionsOf(ctx context.Context, institutionID, personID, accountName string, r models.DateRange) ([]models.TransactionDetail, error) {
	account, err := s.requireAccount(ctx, institutionID, personID, accountName)
	if err != nil {
		return nil, err
	}
	txs, err := s.transactions.Query(ctx, account, r)
	if err != nil {
		return nil, err
	}
	details := make([]models.TransactionDetail, 0, len(txs))
	for _, t := range txs {
		details = append(details, detailFor(t, account))
	}
	return details, nil
}

func (s *ledgerServiceImpl) PersonTransactions(ctx context.Context, personID, accountName string, r models.DateRange) ([]models.TransactionDetail, error) {
	accounts, err := s.accounts.NamedAccounts(ctx, personID, accountName)
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, fmt.Errorf("%w: %s has no account named %s", ErrNoSuchAccount, personID, accountName)
	}

	type entry struct {
		tx      model.Transaction
		account *model.Account
	}
	var entries []entry
	for i := range accounts {
		txs, err := s.transactions.Query(ctx, &accounts[i], r)
		if err != nil {
			return nil, err
		}
		for _, t := range txs {
			entries = append(entries, entry{tx: t, account: &accounts[i]})
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].tx.Timestamp.Equal(entries[j].tx.Timestamp) {
			return entries[i].tx.ID < entries[j].tx.ID
		}
		return entries[i].tx.Timestamp.Before(entries[j].tx.Timestamp)
	})

	details := make([]models.TransactionDetail, 0, len(entries))
	for _, e := range entries {
		details = append(details, detailFor(e.tx, e.account))
	}
	return details, nil
}

func (s *ledgerServiceImpl) TransferLegs(ctx context.Context, correlationID string) ([]models.TransactionDetail, error) {
	txs, err := s.store.FindTransactionsByClientReference(ctx, correlationID)
	if err != nil {
		return nil, err
	}
	if len(txs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchTransfer, correlationID)
	}

	accounts := make(map[int64]*model.Account)
	details := make([]models.TransactionDetail, 0, len(txs))
	for _, t := range txs {
		account, ok := accounts[t.AccountID]
		if !ok {
			if account, err = s.store.FindAccount(ctx, t.AccountID); err != nil {
				return nil, err
			}
			if account == nil {
				return nil, fmt.Errorf("transaction %d references missing account %d", t.ID, t.AccountID)
			}
			accounts[t.AccountID] = account
		}
		details = append(details, detailFor(t, account))
	}
	return details, nil
}

func (s *ledgerServiceImpl) requireAccount(ctx context.Context, institutionID, personID, accountName string) (*model.Account, error) {
	account, err := s.accounts.Find(ctx, institutionID, personID, accountName)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, fmt.Errorf("%w: %s/%s/%s", ErrNoSuchAccount, institutionID, personID, accountName)
	}
	return account, nil
}

func detailFor(t model.Transaction, account *model.Account) models.TransactionDetail {
	d := t.Detail()
	d.AccountName = account.AccountName
	d.InstitutionID = account.InstitutionID
	return d
}
