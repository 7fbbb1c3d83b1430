package database

import (
	"context"
	"database/sql"
	"fmt"
)

type PostgresCancellationLedger struct {
	db *sql.DB
}

func NewPostgresCancellationLedger(db *sql.DB) *PostgresCancellationLedger {
	return &PostgresCancellationLedger{db: db}
}

// InsertIfAbsent treats a unique violation on (user_id, target_date) as success.
func (r *PostgresCancellationLedger) InsertIfAbsent(ctx context.Context, userID, localDate string) error {
	query := `INSERT INTO follow_up_cancellations (user_id, target_date) VALUES ($1, $2)`
	if _, err := r.db.ExecContext(ctx, query, userID, localDate); err != nil {
		if isUniqueViolation(err) {
			return nil
		}
		return fmt.Errorf("error inserting follow-up cancellation: %w", err)
	}
	return nil
}

func (r *PostgresCancellationLedger) Exists(ctx context.Context, userID, localDate string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM follow_up_cancellations WHERE user_id = $1 AND target_date = $2)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, userID, localDate).Scan(&exists); err != nil {
		return false, fmt.Errorf("error checking follow-up cancellation: %w", err)
	}
	return exists, nil
}
