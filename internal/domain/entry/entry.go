// internal/domain/entry/entry.go
package entry

import (
	"context"
	"time"
)

// CreatedEvent is emitted by the journaling app after a user records an entry.
type CreatedEvent struct {
	UserID    string    `json:"userId"`
	EntryID   string    `json:"entryId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Repository answers the one question the reminder engine asks about entries.
type Repository interface {
	// ExistsNonDeletedInRange reports whether the user has a non-deleted entry with start <= created_at < end.
	ExistsNonDeletedInRange(ctx context.Context, userID string, start, end time.Time) (bool, error)
}
