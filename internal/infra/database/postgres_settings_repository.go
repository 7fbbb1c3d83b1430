package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"journal_reminder_service/internal/domain/notification"

	"github.com/lib/pq"
)

const settingsColumns = `user_id, enabled, primary_time, timezone, follow_up_enabled,
       follow_up_interval_minutes, follow_up_max_count, active_days, updated_at`

type PostgresSettingsRepository struct {
	db *sql.DB
}

func NewPostgresSettingsRepository(db *sql.DB) *PostgresSettingsRepository {
	return &PostgresSettingsRepository{db: db}
}

func (r *PostgresSettingsRepository) GetByUserID(ctx context.Context, userID string) (*notification.Settings, error) {
	query := `SELECT ` + settingsColumns + ` FROM notification_settings WHERE user_id = $1`
	s, err := scanSettings(r.db.QueryRowContext(ctx, query, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notification.ErrSettingsNotFound
		}
		return nil, fmt.Errorf("error getting notification settings: %w", err)
	}
	return s, nil
}

func (r *PostgresSettingsRepository) ListEnabled(ctx context.Context) ([]*notification.Settings, error) {
	query := `SELECT ` + settingsColumns + ` FROM notification_settings WHERE enabled = TRUE ORDER BY user_id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing enabled notification settings: %w", err)
	}
	defer rows.Close()

	var all []*notification.Settings
	for rows.Next() {
		s, err := scanSettings(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning notification settings: %w", err)
		}
		all = append(all, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notification settings: %w", err)
	}
	return all, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSettings(row rowScanner) (*notification.Settings, error) {
	s := &notification.Settings{}
	var days pq.Int64Array
	err := row.Scan(&s.UserID, &s.Enabled, &s.PrimaryTime, &s.Timezone, &s.FollowUpEnabled,
		&s.FollowUpIntervalMinutes, &s.FollowUpMaxCount, &days, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	s.ActiveDays = make([]int, len(days))
	for i, d := range days {
		s.ActiveDays[i] = int(d)
	}
	return s, nil
}
