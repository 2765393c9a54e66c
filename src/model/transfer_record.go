package model

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/username/institutionledger/src/models"
)

// TransferRecord is the provenance of a cross-institution migration.
type TransferRecord struct {
	ID                int64     `json:"id"`
	PersonID          string    `json:"personId"`
	FromInstitutionID string    `json:"fromInstitutionId"`
	ToInstitutionID   string    `json:"toInstitutionId"`
	InitiatedAt       time.Time `json:"initiatedAt"`
	CompletedAt       NullTime  `json:"completedAt"`
}

func InsertTransfer(ctx context.Context, db DBTX, tr *TransferRecord) error {
	res, err := db.ExecContext(ctx, `
		INSERT INTO transfers (person_id, from_institution_id, to_institution_id, initiated_at, completed_at)
		VALUES (?, ?, ?, ?, ?)`,
		tr.PersonID, tr.FromInstitutionID, tr.ToInstitutionID, toNanos(tr.InitiatedAt), nanosArg(tr.CompletedAt))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	tr.ID = id
	return nil
}

// CompleteTransfer stamps completed_at once; a second call fails.
func CompleteTransfer(ctx context.Context, db DBTX, id int64, completedAt time.Time) error {
	res, err := db.ExecContext(ctx,
		`UPDATE transfers SET completed_at = ? WHERE id = ? AND completed_at IS NULL`,
		toNanos(completedAt), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return fmt.Errorf("transfer %d not found or already completed", id)
	}
	return nil
}

// GetTransfers lists completed transfers into or out of an institution whose
// completion time falls inside the inclusive range.
func GetTransfers(ctx context.Context, db DBTX, institutionID string, direction models.TransferDirection, r models.DateRange) ([]TransferRecord, error) {
	column := "to_institution_id"
	if direction == models.DirectionOut {
		column = "from_institution_id"
	}
	query := `
		SELECT id, person_id, from_institution_id, to_institution_id, initiated_at, completed_at
		FROM transfers WHERE ` + column + ` = ? AND completed_at IS NOT NULL`
	args := []any{institutionID}
	switch r.Kind() {
	case models.RangeBoth:
		query += ` AND completed_at BETWEEN ? AND ?`
		args = append(args, toNanos(r.From()), toNanos(r.To()))
	case models.RangeFromOnly:
		query += ` AND completed_at >= ?`
		args = append(args, toNanos(r.From()))
	case models.RangeToOnly:
		query += ` AND completed_at <= ?`
		args = append(args, toNanos(r.To()))
	case models.RangeNone:
	}

	rows, err := db.QueryContext(ctx, query+` ORDER BY completed_at ASC, id ASC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transfers []TransferRecord
	for rows.Next() {
		var tr TransferRecord
		var initiatedAt int64
		var completedAt sql.NullInt64
		if err := rows.Scan(&tr.ID, &tr.PersonID, &tr.FromInstitutionID, &tr.ToInstitutionID, &initiatedAt, &completedAt); err != nil {
			return nil, err
		}
		tr.InitiatedAt = fromNanos(initiatedAt)
		tr.CompletedAt = nullTimeFromNanos(completedAt)
		transfers = append(transfers, tr)
	}
	return transfers, rows.Err()
}
