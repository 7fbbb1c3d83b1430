// internal/domain/notification/log.go
package notification

import (
	"database/sql"
	"time"
)

// LogType distinguishes the daily reminder from the chase reminders that follow it.
type LogType string

const (
	LogTypeMainReminder  LogType = "main_reminder"
	LogTypeChaseReminder LogType = "chase_reminder"
)

// LogResult is the outcome recorded for one send attempt.
type LogResult string

const (
	LogResultSuccess LogResult = "success"
	LogResultFailed  LogResult = "failed"
	LogResultSkipped LogResult = "skipped"
)

// Log is one append-only row per send attempt or skip decision.
// Corresponds to the 'notification_logs' table.
type Log struct {
	ID              int64
	UserID          string
	Type            LogType
	SentAt          time.Time
	Result          LogResult
	EntryRecordedAt sql.NullTime
	ErrorMessage    sql.NullString
}

// CountByType counts logs of the given type.
func CountByType(logs []*Log, t LogType) int {
	n := 0
	for _, l := range logs {
		if l.Type == t {
			n++
		}
	}
	return n
}
