package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"journal_reminder_service/internal/domain/notification"
)

type PostgresLogRepository struct {
	db *sql.DB
}

func NewPostgresLogRepository(db *sql.DB) *PostgresLogRepository {
	return &PostgresLogRepository{db: db}
}

func (r *PostgresLogRepository) ListForRange(ctx context.Context, userID string, start, end time.Time) ([]*notification.Log, error) {
	query := `SELECT id, user_id, notification_type, sent_at, result, entry_recorded_at, error_message
               FROM notification_logs
               WHERE user_id = $1 AND sent_at >= $2 AND sent_at < $3
               ORDER BY sent_at`
	rows, err := r.db.QueryContext(ctx, query, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("error listing notification logs: %w", err)
	}
	defer rows.Close()

	var logs []*notification.Log
	for rows.Next() {
		l := &notification.Log{}
		if err := rows.Scan(&l.ID, &l.UserID, &l.Type, &l.SentAt, &l.Result, &l.EntryRecordedAt, &l.ErrorMessage); err != nil {
			return nil, fmt.Errorf("error scanning notification log: %w", err)
		}
		logs = append(logs, l)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notification logs: %w", err)
	}
	return logs, nil
}

func (r *PostgresLogRepository) Append(ctx context.Context, l *notification.Log) error {
	query := `INSERT INTO notification_logs (user_id, notification_type, sent_at, result, entry_recorded_at, error_message)
               VALUES ($1, $2, $3, $4, $5, $6)
               RETURNING id`
	err := r.db.QueryRowContext(ctx, query, l.UserID, l.Type, l.SentAt, l.Result, l.EntryRecordedAt, l.ErrorMessage).Scan(&l.ID)
	if err != nil {
		return fmt.Errorf("error appending notification log: %w", err)
	}
	return nil
}

func (r *PostgresLogRepository) UpdateEntryRecordedAt(ctx context.Context, userID string, start, end, recordedAt time.Time) (int64, error) {
	query := `UPDATE notification_logs
               SET entry_recorded_at = $4
               WHERE user_id = $1 AND sent_at >= $2 AND sent_at < $3 AND entry_recorded_at IS NULL`
	res, err := r.db.ExecContext(ctx, query, userID, start, end, recordedAt)
	if err != nil {
		return 0, fmt.Errorf("error updating entry recorded at: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error reading affected rows: %w", err)
	}
	return n, nil
}
