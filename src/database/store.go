package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/username/institutionledger/src/logger"
	"github.com/username/institutionledger/src/model"
	"github.com/username/institutionledger/src/models"
)

type txKey struct{}

// Store is the SQLite persistence collaborator of the ledger services.
// Every method runs on the transaction carried by ctx when there is one.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) conn(ctx context.Context) model.DBTX {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return s.db
}

// WithinTx runs fn as one unit of work. A nested call joins the outer
// transaction, so composed operations commit or roll back together.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}

	txDB, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if p := recover(); p != nil {
			_ = txDB.Rollback()
			panic(p)
		}
		if !committed {
			if rbErr := txDB.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				logger.ErrorFromContext(ctx, "Error rolling back DB transaction", "rollbackError", rbErr)
			}
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, txDB)); err != nil {
		return err
	}
	if err := txDB.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	committed = true
	return nil
}

func (s *Store) SaveAccount(ctx context.Context, a *model.Account) error {
	if err := model.InsertAccount(ctx, s.conn(ctx), a); err != nil {
		return fmt.Errorf("insert account %s/%s/%s: %w", a.InstitutionID, a.PersonID, a.AccountName, err)
	}
	return nil
}

func (s *Store) CloseAccount(ctx context.Context, id int64, closedAt time.Time) (bool, error) {
	closed, err := model.CloseAccount(ctx, s.conn(ctx), id, closedAt)
	if err != nil {
		return false, fmt.Errorf("close account %d: %w", id, err)
	}
	return closed, nil
}

// FindAccount returns nil when no account has the id.
func (s *Store) FindAccount(ctx context.Context, id int64) (*model.Account, error) {
	a, err := model.GetAccountByID(ctx, s.conn(ctx), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get account %d: %w", id, err)
	}
	return a, nil
}

// FindOpenAccount returns nil when the person has no OPEN account of that name.
func (s *Store) FindOpenAccount(ctx context.Context, institutionID, personID, accountName string) (*model.Account, error) {
	a, err := model.GetOpenAccount(ctx, s.conn(ctx), institutionID, personID, accountName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get open account %s/%s/%s: %w", institutionID, personID, accountName, err)
	}
	return a, nil
}

func (s *Store) FindOpenAccounts(ctx context.Context, institutionID, personID string) ([]model.Account, error) {
	accounts, err := model.GetOpenAccountsByPerson(ctx, s.conn(ctx), institutionID, personID)
	if err != nil {
		return nil, fmt.Errorf("list open accounts %s/%s: %w", institutionID, personID, err)
	}
	return accounts, nil
}

// FindAccountsByInstitution lists the OPEN accounts of an institution, or when
// createdBefore is set, every account created before that instant.
func (s *Store) FindAccountsByInstitution(ctx context.Context, institutionID string, createdBefore *time.Time) ([]model.Account, error) {
	var (
		accounts []model.Account
		err      error
	)
	if createdBefore == nil {
		accounts, err = model.GetOpenAccountsByInstitution(ctx, s.conn(ctx), institutionID)
	} else {
		accounts, err = model.GetAccountsCreatedBefore(ctx, s.conn(ctx), institutionID, *createdBefore)
	}
	if err != nil {
		return nil, fmt.Errorf("list accounts of institution %s: %w", institutionID, err)
	}
	return accounts, nil
}

func (s *Store) FindAccountsByName(ctx context.Context, personID, accountName string) ([]model.Account, error) {
	accounts, err := model.GetAccountsByName(ctx, s.conn(ctx), personID, accountName)
	if err != nil {
		return nil, fmt.Errorf("list accounts named %s for %s: %w", accountName, personID, err)
	}
	return accounts, nil
}

func (s *Store) FindAccountsByTransfers(ctx context.Context, transferIDs []int64) ([]model.Account, error) {
	accounts, err := model.GetAccountsByTransferIDs(ctx, s.conn(ctx), transferIDs)
	if err != nil {
		return nil, fmt.Errorf("list accounts by transfer: %w", err)
	}
	return accounts, nil
}

func (s *Store) SaveTransaction(ctx context.Context, t *model.Transaction) error {
	if err := model.InsertTransaction(ctx, s.conn(ctx), t); err != nil {
		return fmt.Errorf("insert transaction for account %d: %w", t.AccountID, err)
	}
	return nil
}

func (s *Store) FindTransactions(ctx context.Context, accountID int64, r models.DateRange) ([]model.Transaction, error) {
	txs, err := model.GetTransactionsByAccount(ctx, s.conn(ctx), accountID, r)
	if err != nil {
		return nil, fmt.Errorf("list transactions of account %d: %w", accountID, err)
	}
	return txs, nil
}

func (s *Store) FindTransactionsByClientReference(ctx context.Context, clientRef string) ([]model.Transaction, error) {
	txs, err := model.GetTransactionsByClientReference(ctx, s.conn(ctx), clientRef)
	if err != nil {
		return nil, fmt.Errorf("list transactions with reference %s: %w", clientRef, err)
	}
	return txs, nil
}

func (s *Store) SaveTransfer(ctx context.Context, tr *model.TransferRecord) error {
	if err := model.InsertTransfer(ctx, s.conn(ctx), tr); err != nil {
		return fmt.Errorf("insert transfer for %s: %w", tr.PersonID, err)
	}
	return nil
}

func (s *Store) CompleteTransfer(ctx context.Context, id int64, completedAt time.Time) error {
	if err := model.CompleteTransfer(ctx, s.conn(ctx), id, completedAt); err != nil {
		return fmt.Errorf("complete transfer %d: %w", id, err)
	}
	return nil
}

func (s *Store) FindTransfers(ctx context.Context, institutionID string, direction models.TransferDirection, r models.DateRange) ([]model.TransferRecord, error) {
	transfers, err := model.GetTransfers(ctx, s.conn(ctx), institutionID, direction, r)
	if err != nil {
		return nil, fmt.Errorf("list transfers %s of %s: %w", direction, institutionID, err)
	}
	return transfers, nil
}
