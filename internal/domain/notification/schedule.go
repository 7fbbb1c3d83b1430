// internal/domain/notification/schedule.go
package notification

import (
	"fmt"
	"time"

	"journal_reminder_service/internal/domain/localtime"
)

// FollowUp is one scheduled chase reminder.
type FollowUp struct {
	Number      int // 1-based
	ScheduledAt time.Time
	Type        LogType
}

// Schedule is the day's reminder plan. It is derived, never persisted.
type Schedule struct {
	Primary   time.Time
	FollowUps []FollowUp
}

// ComputeSchedule places primaryTime on the reference instant's local date in
// timezone and lays out maxCount follow-ups intervalMinutes apart after it.
func ComputeSchedule(primaryTime string, intervalMinutes, maxCount int, timezone string, reference time.Time) (Schedule, error) {
	minutes, err := localtime.ParseClock(primaryTime)
	if err != nil {
		return Schedule{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if maxCount < 0 {
		return Schedule{}, fmt.Errorf("%w: max count must not be negative, got %d", ErrValidation, maxCount)
	}
	if maxCount > 0 && intervalMinutes <= 0 {
		return Schedule{}, fmt.Errorf("%w: interval must be positive, got %d", ErrValidation, intervalMinutes)
	}
	loc, err := localtime.LoadLocation(timezone)
	if err != nil {
		return Schedule{}, err
	}

	midnight := localtime.StartOfDay(reference, loc)
	primary := time.Date(midnight.Year(), midnight.Month(), midnight.Day(), minutes/60, minutes%60, 0, 0, loc).UTC()

	interval := time.Duration(intervalMinutes) * time.Minute
	followUps := make([]FollowUp, 0, maxCount)
	for i := 1; i <= maxCount; i++ {
		followUps = append(followUps, FollowUp{
			Number:      i,
			ScheduledAt: primary.Add(time.Duration(i) * interval),
			Type:        LogTypeChaseReminder,
		})
	}
	return Schedule{Primary: primary, FollowUps: followUps}, nil
}
