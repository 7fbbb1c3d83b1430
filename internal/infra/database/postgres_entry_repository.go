package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PostgresEntryRepository reads the journaling app's entries table.
type PostgresEntryRepository struct {
	db *sql.DB
}

func NewPostgresEntryRepository(db *sql.DB) *PostgresEntryRepository {
	return &PostgresEntryRepository{db: db}
}

func (r *PostgresEntryRepository) ExistsNonDeletedInRange(ctx context.Context, userID string, start, end time.Time) (bool, error) {
	query := `SELECT EXISTS (
                   SELECT 1 FROM entries
                   WHERE user_id = $1 AND is_deleted = FALSE AND created_at >= $2 AND created_at < $3
               )`
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, userID, start, end).Scan(&exists); err != nil {
		return false, fmt.Errorf("error checking entries in range: %w", err)
	}
	return exists, nil
}
