// internal/domain/notification/settings.go
package notification

import (
	"fmt"
	"time"

	"journal_reminder_service/internal/domain/localtime"
)

// Settings is the per-user reminder configuration.
// Corresponds to the 'notification_settings' table; written by the settings UI, read-only here.
type Settings struct {
	UserID                  string
	Enabled                 bool
	PrimaryTime             string // "HH:mm", 24h
	Timezone                string // IANA name
	FollowUpEnabled         bool
	FollowUpIntervalMinutes int
	FollowUpMaxCount        int
	ActiveDays              []int // 0 = Sunday
	UpdatedAt               time.Time
}

// Validate checks a settings row before it is used for scheduling.
func (s *Settings) Validate() error {
	if _, err := localtime.ParseClock(s.PrimaryTime); err != nil {
		return fmt.Errorf("%w: primary time: %v", ErrValidation, err)
	}
	if _, err := localtime.LoadLocation(s.Timezone); err != nil {
		return err
	}
	if s.FollowUpIntervalMinutes <= 0 {
		return fmt.Errorf("%w: follow-up interval must be positive, got %d", ErrValidation, s.FollowUpIntervalMinutes)
	}
	if s.FollowUpMaxCount < 0 {
		return fmt.Errorf("%w: follow-up max count must not be negative, got %d", ErrValidation, s.FollowUpMaxCount)
	}
	for _, d := range s.ActiveDays {
		if d < 0 || d > 6 {
			return fmt.Errorf("%w: active day %d out of range 0..6", ErrValidation, d)
		}
	}
	return nil
}

// IsActiveDay reports whether reminders are configured for the weekday.
func (s *Settings) IsActiveDay(day time.Weekday) bool {
	for _, d := range s.ActiveDays {
		if d == int(day) {
			return true
		}
	}
	return false
}
