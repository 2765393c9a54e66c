package model

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/username/institutionledger/src/models"
)

type Account struct {
	ID            int64                `json:"id"`
	InstitutionID string               `json:"institutionId"`
	PersonID      string               `json:"personId"`
	AccountName   string               `json:"accountName"`
	AccountType   models.AccountType   `json:"accountType"`
	Status        models.AccountStatus `json:"accountStatus"`
	CreatedAt     time.Time            `json:"createdAt"`
	ClosedAt      NullTime             `json:"closedAt"`
	// TransferID links an account to the migration that created it.
	TransferID *int64 `json:"transferId,omitempty"`
}

func (a *Account) IsClosed() bool { return a.Status == models.AccountStatusClosed }

// HistoricStatus reports the status the account had at the given instant
// without consulting the stored status.
func (a *Account) HistoricStatus(at time.Time) models.AccountStatus {
	if a.ClosedAt.Valid && !at.Before(a.ClosedAt.Time) {
		return models.AccountStatusClosed
	}
	return models.AccountStatusOpen
}

// InferAccountType derives the type from the account name.
//
// Deprecated: callers should pass an explicit account type. This remains for
// clients that post to "savings" without stating a type.
func InferAccountType(accountName string) models.AccountType {
	if strings.EqualFold(strings.TrimSpace(accountName), "savings") {
		return models.AccountTypeSavings
	}
	return models.AccountTypeFullAccess
}

const accountColumns = `id, institution_id, person_id, account_name, account_type, status, created_at, closed_at, transfer_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*Account, error) {
	var a Account
	var createdAt int64
	var closedAt, transferID sql.NullInt64
	if err := row.Scan(&a.ID, &a.InstitutionID, &a.PersonID, &a.AccountName, &a.AccountType,
		&a.Status, &createdAt, &closedAt, &transferID); err != nil {
		return nil, err
	}
	a.CreatedAt = fromNanos(createdAt)
	a.ClosedAt = nullTimeFromNanos(closedAt)
	if transferID.Valid {
		id := transferID.Int64
		a.TransferID = &id
	}
	return &a, nil
}

func queryAccounts(ctx context.Context, db DBTX, query string, args ...any) ([]Account, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *a)
	}
	return accounts, rows.Err()
}

// InsertAccount stores a new account and fills in its ID.
func InsertAccount(ctx context.Context, db DBTX, a *Account) error {
	var transferID any
	if a.TransferID != nil {
		transferID = *a.TransferID
	}
	res, err := db.ExecContext(ctx, `
		INSERT INTO accounts (institution_id, person_id, account_name, account_type, status, created_at, closed_at, transfer_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.InstitutionID, a.PersonID, a.AccountName, string(a.AccountType), string(a.Status),
		toNanos(a.CreatedAt), nanosArg(a.ClosedAt), transferID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = id
	return nil
}

// CloseAccount marks an open account closed. It reports false when the
// account was already closed, leaving the original closed_at untouched.
func CloseAccount(ctx context.Context, db DBTX, id int64, closedAt time.Time) (bool, error) {
	res, err := db.ExecContext(ctx,
		`UPDATE accounts SET status = ?, closed_at = ? WHERE id = ? AND status = ?`,
		string(models.AccountStatusClosed), toNanos(closedAt), id, string(models.AccountStatusOpen))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func GetAccountByID(ctx context.Context, db DBTX, id int64) (*Account, error) {
	row := db.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, err
	}
	return a, nil
}

// GetOpenAccount returns sql.ErrNoRows when no OPEN account matches the key.
func GetOpenAccount(ctx context.Context, db DBTX, institutionID, personID, accountName string) (*Account, error) {
	row := db.QueryRowContext(ctx, `
		SELECT `+accountColumns+` FROM accounts
		WHERE institution_id = ? AND person_id = ? AND account_name = ? AND status = ?`,
		institutionID, personID, accountName, string(models.AccountStatusOpen))
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, err
	}
	return a, nil
}

func GetOpenAccountsByPerson(ctx context.Context, db DBTX, institutionID, personID string) ([]Account, error) {
	return queryAccounts(ctx, db, `
		SELECT `+accountColumns+` FROM accounts
		WHERE institution_id = ? AND person_id = ? AND status = ?
		ORDER BY id ASC`,
		institutionID, personID, string(models.AccountStatusOpen))
}

func GetOpenAccountsByInstitution(ctx context.Context, db DBTX, institutionID string) ([]Account, error) {
	return queryAccounts(ctx, db, `
		SELECT `+accountColumns+` FROM accounts
		WHERE institution_id = ? AND status = ?
		ORDER BY person_id ASC, id ASC`,
		institutionID, string(models.AccountStatusOpen))
}

// GetAccountsCreatedBefore returns every account of the institution created
// strictly before the instant, whatever its current status.
func GetAccountsCreatedBefore(ctx context.Context, db DBTX, institutionID string, before time.Time) ([]Account, error) {
	return queryAccounts(ctx, db, `
		SELECT `+accountColumns+` FROM accounts
		WHERE institution_id = ? AND created_at < ?
		ORDER BY person_id ASC, id ASC`,
		institutionID, toNanos(before))
}

// GetAccountsByName returns a person's accounts with the given name at every
// institution, open or closed, oldest first.
func GetAccountsByName(ctx context.Context, db DBTX, personID, accountName string) ([]Account, error) {
	return queryAccounts(ctx, db, `
		SELECT `+accountColumns+` FROM accounts
		WHERE person_id = ? AND account_name = ?
		ORDER BY created_at ASC, id ASC`,
		personID, accountName)
}

func GetAccountsByTransferIDs(ctx context.Context, db DBTX, transferIDs []int64) ([]Account, error) {
	if len(transferIDs) == 0 {
		return nil, nil
	}
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE transfer_id IN (?` +
		strings.Repeat(",?", len(transferIDs)-1) + `) ORDER BY id ASC`
	args := make([]any, len(transferIDs))
	for i, id := range transferIDs {
		args[i] = id
	}
	return queryAccounts(ctx, db, query, args...)
}
