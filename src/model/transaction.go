package model

import (
	"context"
	"time"

	"github.com/username/institutionledger/src/models"
)

// Transaction is an immutable ledger entry. There is no update or delete path.
type Transaction struct {
	ID              int64                  `json:"id"`
	AccountID       int64                  `json:"accountId"`
	Type            models.TransactionType `json:"transactionType"`
	Amount          int64                  `json:"amount"`
	Description     string                 `json:"description"`
	ClientReference string                 `json:"clientReference"`
	Timestamp       time.Time              `json:"timestamp"`
}

// Detail converts the entry to its client-facing shape.
func (t Transaction) Detail() models.TransactionDetail {
	return models.TransactionDetail{
		TransactionID:   t.ID,
		Description:     t.Description,
		ClientReference: t.ClientReference,
		TransactionType: t.Type,
		Amount:          t.Amount,
		AmountDisplay:   models.FormatMinorUnits(t.Amount),
		Timestamp:       t.Timestamp,
	}
}

func InsertTransaction(ctx context.Context, db DBTX, t *Transaction) error {
	res, err := db.ExecContext(ctx, `
		INSERT INTO transactions (account_id, transaction_type, amount, description, client_reference, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		t.AccountID, string(t.Type), t.Amount, t.Description, t.ClientReference, toNanos(t.Timestamp))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = id
	return nil
}

const transactionSelect = `
	SELECT id, account_id, transaction_type, amount, description, client_reference, created_at
	FROM transactions WHERE account_id = ?`

const transactionOrder = ` ORDER BY created_at ASC, id ASC`

// GetTransactionsByAccount lists an account's ledger in timestamp order,
// restricted to the inclusive range.
func GetTransactionsByAccount(ctx context.Context, db DBTX, accountID int64, r models.DateRange) ([]Transaction, error) {
	query := transactionSelect
	args := []any{accountID}
	switch r.Kind() {
	case models.RangeBoth:
		query += ` AND created_at BETWEEN ? AND ?`
		args = append(args, toNanos(r.From()), toNanos(r.To()))
	case models.RangeFromOnly:
		query += ` AND created_at >= ?`
		args = append(args, toNanos(r.From()))
	case models.RangeToOnly:
		query += ` AND created_at <= ?`
		args = append(args, toNanos(r.To()))
	case models.RangeNone:
	}

	rows, err := db.QueryContext(ctx, query+transactionOrder, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []Transaction
	for rows.Next() {
		var t Transaction
		var createdAt int64
		if err := rows.Scan(&t.ID, &t.AccountID, &t.Type, &t.Amount, &t.Description, &t.ClientReference, &createdAt); err != nil {
			return nil, err
		}
		t.Timestamp = fromNanos(createdAt)
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

// GetTransactionsByClientReference finds every leg sharing a correlation id.
func GetTransactionsByClientReference(ctx context.Context, db DBTX, clientRef string) ([]Transaction, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, account_id, transaction_type, amount, description, client_reference, created_at
		FROM transactions WHERE client_reference = ?
		ORDER BY id ASC`, clientRef)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []Transaction
	for rows.Next() {
		var t Transaction
		var createdAt int64
		if err := rows.Scan(&t.ID, &t.AccountID, &t.Type, &t.Amount, &t.Description, &t.ClientReference, &createdAt); err != nil {
			return nil, err
		}
		t.Timestamp = fromNanos(createdAt)
		txs = append(txs, t)
	}
	return txs, rows.Err()
}
