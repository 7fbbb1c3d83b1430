// internal/domain/notification/repository.go
package notification

import (
	"context"
	"time"
)

// SettingsRepository reads NotificationSettings.
type SettingsRepository interface {
	// GetByUserID returns ErrSettingsNotFound when the user has no configuration.
	GetByUserID(ctx context.Context, userID string) (*Settings, error)
	// ListEnabled returns every settings row with Enabled = true, for the periodic sweeps.
	ListEnabled(ctx context.Context) ([]*Settings, error)
}

// LogRepository appends and queries the send log.
type LogRepository interface {
	// ListForRange returns the user's logs with start <= sent_at < end.
	ListForRange(ctx context.Context, userID string, start, end time.Time) ([]*Log, error)
	Append(ctx context.Context, l *Log) error
	// UpdateEntryRecordedAt stamps recordedAt on the user's logs of the day window
	// that have no entry yet, returning the number of rows touched.
	UpdateEntryRecordedAt(ctx context.Context, userID string, start, end, recordedAt time.Time) (int64, error)
}

// CancellationLedger stores "no more follow-ups today" marks, unique per (user, local date).
type CancellationLedger interface {
	// InsertIfAbsent succeeds when the mark already exists.
	InsertIfAbsent(ctx context.Context, userID, localDate string) error
	Exists(ctx context.Context, userID, localDate string) (bool, error)
}
