package services

import (
	"context"
	"fmt"
	"time"

	"github.com/username/institutionledger/src/model"
	"github.com/username/institutionledger/src/models"
)

type transactionServiceImpl struct {
	store Store
	now   Clock
}

func NewTransactionService(store Store, now Clock) TransactionService {
	if now == nil {
		now = systemClock
	}
	return &transactionServiceImpl{store: store, now: now}
}

// Append stores an entry without business validation beyond a positive amount.
func (s *transactionServiceImpl) Append(ctx context.Context, account *model.Account, txType models.TransactionType, amount int64, description, clientRef string) (*model.Transaction, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: %d must be positive", ErrInvalidAmount, amount)
	}
	t := &model.Transaction{
		AccountID:       account.ID,
		Type:            txType,
		Amount:          amount,
		Description:     description,
		ClientReference: clientRef,
		Timestamp:       s.now(),
	}
	if err := s.store.SaveTransaction(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *transactionServiceImpl) Query(ctx context.Context, account *model.Account, r models.DateRange) ([]model.Transaction, error) {
	return s.store.FindTransactions(ctx, account.ID, r)
}

func (s *transactionServiceImpl) Balance(ctx context.Context, account *model.Account, asOf *time.Time) (int64, error) {
	r := models.Unbounded()
	if asOf != nil {
		r = models.Until(*asOf)
	}
	txs, err := s.store.FindTransactions(ctx, account.ID, r)
	if err != nil {
		return 0, err
	}
	return sumLedger(txs), nil
}

func sumLedger(txs []model.Transaction) int64 {
	var balance int64
	for _, t := range txs {
		switch t.Type {
		case models.TransactionCredit:
			balance += t.Amount
		case models.TransactionDebit:
			balance -= t.Amount
		}
	}
	return balance
}
