package database

import (
	"context"
	"database/sql"
	"fmt"

	"journal_reminder_service/internal/domain/push"

	"github.com/google/uuid"
)

type PostgresSubscriptionRepository struct {
	db *sql.DB
}

func NewPostgresSubscriptionRepository(db *sql.DB) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{db: db}
}

func (r *PostgresSubscriptionRepository) ListForUser(ctx context.Context, userID string) ([]*push.Subscription, error) {
	query := `SELECT id, user_id, endpoint, p256dh_key, auth_key, user_agent, created_at
               FROM push_subscriptions WHERE user_id = $1 ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing push subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []*push.Subscription
	for rows.Next() {
		s := &push.Subscription{}
		if err := rows.Scan(&s.ID, &s.UserID, &s.Endpoint, &s.P256dhKey, &s.AuthKey, &s.UserAgent, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning push subscription: %w", err)
		}
		subs = append(subs, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating push subscriptions: %w", err)
	}
	return subs, nil
}

func (r *PostgresSubscriptionRepository) Remove(ctx context.Context, subscriptionID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM push_subscriptions WHERE id = $1`, subscriptionID)
	if err != nil {
		return fmt.Errorf("error removing push subscription: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading affected rows: %w", err)
	}
	if n == 0 {
		return push.ErrSubscriptionNotFound
	}
	return nil
}

// Upsert registers sub, or moves an existing endpoint to sub's user and keys.
// sub.ID and sub.CreatedAt are filled from the stored row.
func (r *PostgresSubscriptionRepository) Upsert(ctx context.Context, sub *push.Subscription) error {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	query := `INSERT INTO push_subscriptions (id, user_id, endpoint, p256dh_key, auth_key, user_agent)
               VALUES ($1, $2, $3, $4, $5, $6)
               ON CONFLICT (endpoint) DO UPDATE
               SET user_id = EXCLUDED.user_id, p256dh_key = EXCLUDED.p256dh_key,
                   auth_key = EXCLUDED.auth_key, user_agent = EXCLUDED.user_agent
               RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, sub.ID, sub.UserID, sub.Endpoint, sub.P256dhKey, sub.AuthKey, sub.UserAgent).
		Scan(&sub.ID, &sub.CreatedAt)
	if err != nil {
		return fmt.Errorf("error upserting push subscription: %w", err)
	}
	return nil
}
