package services

import (
	"context"
	"errors"
	"time"

	"github.com/username/institutionledger/src/model"
	"github.com/username/institutionledger/src/models"
)

// Domain errors. Callers match them with errors.Is; services wrap them with
// a descriptive message.
var (
	ErrAccountClosed      = errors.New("account closed")
	ErrDebitNotSupported  = errors.New("debit not supported")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrNoSuchAccount      = errors.New("no such account")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidTransfer    = errors.New("invalid transfer")
	ErrInvalidAccountType = errors.New("invalid account type")
	ErrInvalidOperation   = errors.New("invalid operation")
	ErrNoSuchTransfer     = errors.New("no such transfer")
)

// isDomainError reports whether err is a rule rejection rather than a fault.
func isDomainError(err error) bool {
	for _, target := range []error{
		ErrAccountClosed, ErrDebitNotSupported, ErrInsufficientFunds, ErrNoSuchAccount,
		ErrInvalidAmount, ErrInvalidTransfer, ErrInvalidAccountType, ErrInvalidOperation,
		ErrNoSuchTransfer,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Store is the persistence collaborator. Implementations must run every call
// on the unit of work carried by ctx, if any.
type Store interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error

	SaveAccount(ctx context.Context, a *model.Account) error
	CloseAccount(ctx context.Context, id int64, closedAt time.Time) (bool, error)
	FindAccount(ctx context.Context, id int64) (*model.Account, error)
	FindOpenAccount(ctx context.Context, institutionID, personID, accountName string) (*model.Account, error)
	FindOpenAccounts(ctx context.Context, institutionID, personID string) ([]model.Account, error)
	FindAccountsByInstitution(ctx context.Context, institutionID string, createdBefore *time.Time) ([]model.Account, error)
	FindAccountsByName(ctx context.Context, personID, accountName string) ([]model.Account, error)
	FindAccountsByTransfers(ctx context.Context, transferIDs []int64) ([]model.Account, error)

	SaveTransaction(ctx context.Context, t *model.Transaction) error
	FindTransactions(ctx context.Context, accountID int64, r models.DateRange) ([]model.Transaction, error)
	FindTransactionsByClientReference(ctx context.Context, clientRef string) ([]model.Transaction, error)

	SaveTransfer(ctx context.Context, tr *model.TransferRecord) error
	CompleteTransfer(ctx context.Context, id int64, completedAt time.Time) error
	FindTransfers(ctx context.Context, institutionID string, direction models.TransferDirection, r models.DateRange) ([]model.TransferRecord, error)
}

// AccountService owns account identity and lifecycle.
type AccountService interface {
	// GetOrCreate returns the OPEN account for the key, creating it when absent.
	// transferID tags a new account with the migration that created it.
	GetOrCreate(ctx context.Context, institutionID, personID, accountName string, accountType models.AccountType, transferID *int64) (*model.Account, error)
	// Find returns nil when no OPEN account matches.
	Find(ctx context.Context, institutionID, personID, accountName string) (*model.Account, error)
	Close(ctx context.Context, account *model.Account) error
	HistoricStatus(account *model.Account, at time.Time) models.AccountStatus
	OpenAccounts(ctx context.Context, institutionID, personID string) ([]model.Account, error)
	NamedAccounts(ctx context.Context, personID, accountName string) ([]model.Account, error)
}

// TransactionService is the append-only ledger and the balances derived from it.
type TransactionService interface {
	Append(ctx context.Context, account *model.Account, txType models.TransactionType, amount int64, description, clientRef string) (*model.Transaction, error)
	Query(ctx context.Context, account *model.Account, r models.DateRange) ([]model.Transaction, error)
	// Balance folds the ledger up to asOf inclusive, or the whole ledger when asOf is nil.
	Balance(ctx context.Context, account *model.Account, asOf *time.Time) (int64, error)
}

// PostRequest is a single posting against a named account.
type PostRequest struct {
	InstitutionID   string
	PersonID        string
	AccountName     string
	AccountType     models.AccountType
	Operation       models.TransactionType
	Amount          int64
	Description     string
	ClientReference string
}

// LedgerService validates and posts single transactions and answers
// per-account queries.
type LedgerService interface {
	PostTransaction(ctx context.Context, req PostRequest) (*model.Transaction, error)
	BalanceOf(ctx context.Context, institutionID, personID, accountName string) (models.Balance, error)
	TransactionsOf(ctx context.Context, institutionID, personID, accountName string, r models.DateRange) ([]models.TransactionDetail, error)
	// PersonTransactions lists a person's entries for an account name at every
	// institution, closed accounts included.
	PersonTransactions(ctx context.Context, personID, accountName string, r models.DateRange) ([]models.TransactionDetail, error)
	// TransferLegs reconstructs a transfer from the entries sharing its
	// correlation id, oldest first.
	TransferLegs(ctx context.Context, correlationID string) ([]models.TransactionDetail, error)
}

// TransferService moves funds between two accounts atomically.
type TransferService interface {
	TransferFunds(ctx context.Context, source, target *model.Account, amount int64, description string) (debit, credit *model.Transaction, err error)
	TransferBetweenAccounts(ctx context.Context, institutionID, personID, fromAccountName, toAccountName string, toAccountType models.AccountType, amount int64) (debit, credit *model.Transaction, err error)
}

// InstitutionTransferService migrates a person's accounts between institutions.
type InstitutionTransferService interface {
	TransferPersonAccounts(ctx context.Context, personID, fromInstitutionID, toInstitutionID string) (*model.TransferRecord, error)
	TransferSummary(ctx context.Context, institutionID string, r models.DateRange) (*models.InstitutionTransferSummary, error)
}

// ReportService builds institution summaries.
type ReportService interface {
	InstitutionSummary(ctx context.Context, institutionID string, at *time.Time) (models.InstitutionSummary, error)
	PersonAccounts(ctx context.Context, institutionID, personID string) ([]models.Balance, error)
}
