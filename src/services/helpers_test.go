package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/username/institutionledger/src/database"
	"github.com/username/institutionledger/src/model"
	"github.com/username/institutionledger/src/models"
)

// stepClock advances by step on every reading so consecutive events get
// distinct, ordered timestamps.
type stepClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func newStepClock() *stepClock {
	return &stepClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), step: time.Second}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

// Peek returns the instant the next reading will yield.
func (c *stepClock) Peek() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stepClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	store        *database.Store
	clock        *stepClock
	cache        *ReportCache
	accounts     AccountService
	transactions TransactionService
	ledger       LedgerService
	transfers    TransferService
	migrations   InstitutionTransferService
	reports      ReportService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.RunMigrations(db))

	return newTestEnvWithStore(database.NewStore(db))
}

func newTestEnvWithStore(store Store) *testEnv {
	env := &testEnv{clock: newStepClock(), cache: NewReportCache(time.Minute, time.Minute)}
	if s, ok := store.(*database.Store); ok {
		env.store = s
	}
	env.accounts = NewAccountService(store, env.clock.Now)
	env.transactions = NewTransactionService(store, env.clock.Now)
	env.ledger = NewLedgerService(store, env.accounts, env.transactions, env.cache)
	env.transfers = NewTransferService(store, env.accounts, env.transactions, env.cache)
	env.migrations = NewInstitutionTransferService(store, env.accounts, env.transactions, env.transfers, env.cache, env.clock.Now)
	env.reports = NewReportService(store, env.accounts, env.transactions, env.cache)
	return env
}

func (e *testEnv) post(t *testing.T, institutionID, personID, accountName string, op models.TransactionType, amount int64) (*model.Transaction, error) {
	t.Helper()
	return e.ledger.PostTransaction(context.Background(), PostRequest{
		InstitutionID:   institutionID,
		PersonID:        personID,
		AccountName:     accountName,
		AccountType:     model.InferAccountType(accountName),
		Operation:       op,
		Amount:          amount,
		Description:     "test posting",
		ClientReference: "ref-" + accountName,
	})
}

func (e *testEnv) mustPost(t *testing.T, institutionID, personID, accountName string, op models.TransactionType, amount int64) *model.Transaction {
	t.Helper()
	tx, err := e.post(t, institutionID, personID, accountName, op, amount)
	require.NoError(t, err)
	return tx
}

func (e *testEnv) balance(t *testing.T, institutionID, personID, accountName string) int64 {
	t.Helper()
	b, err := e.ledger.BalanceOf(context.Background(), institutionID, personID, accountName)
	require.NoError(t, err)
	return b.Amount
}

func (e *testEnv) ledgerLength(t *testing.T, institutionID, personID, accountName string) int {
	t.Helper()
	txs, err := e.ledger.TransactionsOf(context.Background(), institutionID, personID, accountName, models.Unbounded())
	require.NoError(t, err)
	return len(txs)
}
