// internal/app/followup_service.go
package app

import (
	"context"
	"errors"
	"time"

	"journal_reminder_service/internal/domain/entry"
	"journal_reminder_service/internal/domain/localtime"
	"journal_reminder_service/internal/domain/notification"

	"github.com/sirupsen/logrus"
)

// defaultTimezone is used for ledger and log bookkeeping when a user has no settings row.
const defaultTimezone = "UTC"

// FollowUpService decides when chase reminders fire. It holds no state of its
// own: every call rebuilds the day from settings, the send log and entries.
type FollowUpService struct {
	settingsRepo notification.SettingsRepository
	logRepo      notification.LogRepository
	entryRepo    entry.Repository
	ledger       notification.CancellationLedger
	logger       *logrus.Entry
}

func NewFollowUpService(
	sr notification.SettingsRepository,
	lr notification.LogRepository,
	er entry.Repository,
	ledger notification.CancellationLedger,
	logger *logrus.Entry,
) *FollowUpService {
	return &FollowUpService{
		settingsRepo: sr,
		logRepo:      lr,
		entryRepo:    er,
		ledger:       ledger,
		logger:       logger.WithField("component", "followup_service"),
	}
}

// dayState is what the decision needs from storage, loaded once per call.
type dayState struct {
	chaseSent int
	recorded  bool
}

// ShouldSendFollowUp returns whether the next chase reminder is due at now.
// The first matching rule wins: disabled, max count reached, already
// recorded, nothing left in the schedule, not yet time, send.
func (s *FollowUpService) ShouldSendFollowUp(ctx context.Context, userID string, now time.Time) (notification.Decision, error) {
	settings, err := s.settingsRepo.GetByUserID(ctx, userID)
	if err != nil {
		return notification.Decision{}, notification.WrapDatabase("get notification settings", err)
	}
	if !settings.FollowUpEnabled {
		return notification.Decision{ShouldSend: false, FollowUpCount: 0, Reason: notification.ReasonDisabled}, nil
	}

	st, err := s.loadDay(ctx, userID, settings, now)
	if err != nil {
		return notification.Decision{}, err
	}
	if st.chaseSent >= settings.FollowUpMaxCount {
		return notification.Decision{FollowUpCount: st.chaseSent, Reason: notification.ReasonMaxCountReached}, nil
	}
	if st.recorded {
		return notification.Decision{FollowUpCount: st.chaseSent, Reason: notification.ReasonAlreadyRecorded}, nil
	}

	next, ok, err := nextFollowUp(settings, st.chaseSent, now)
	if err != nil {
		return notification.Decision{}, err
	}
	if !ok {
		return notification.Decision{FollowUpCount: st.chaseSent, Reason: notification.ReasonMaxCountReached}, nil
	}
	if now.Before(next.ScheduledAt) {
		return notification.Decision{FollowUpCount: st.chaseSent + 1, Reason: notification.ReasonNotTimeYet}, nil
	}
	return notification.Decision{ShouldSend: true, FollowUpCount: st.chaseSent + 1}, nil
}

// NextFollowUpTime returns when the next pending follow-up is scheduled, or nil
// when follow-ups are disabled, exhausted, or the user already recorded today.
// The returned time may be in the past when a follow-up is overdue.
func (s *FollowUpService) NextFollowUpTime(ctx context.Context, userID string, now time.Time) (*time.Time, error) {
	settings, err := s.settingsRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, notification.WrapDatabase("get notification settings", err)
	}
	if !settings.FollowUpEnabled {
		return nil, nil
	}

	st, err := s.loadDay(ctx, userID, settings, now)
	if err != nil {
		return nil, err
	}
	if st.chaseSent >= settings.FollowUpMaxCount || st.recorded {
		return nil, nil
	}

	next, ok, err := nextFollowUp(settings, st.chaseSent, now)
	if err != nil || !ok {
		return nil, err
	}
	at := next.ScheduledAt
	return &at, nil
}

// CancelFollowUps marks target's local day as cancelled for the user.
// Repeating the call for the same day succeeds.
func (s *FollowUpService) CancelFollowUps(ctx context.Context, userID string, target time.Time) error {
	date, err := s.localDate(ctx, userID, target)
	if err != nil {
		return err
	}
	if err := s.ledger.InsertIfAbsent(ctx, userID, date); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{"user_id": userID, "date": date}).Error("Failed to record follow-up cancellation")
		return notification.WrapDatabase("insert follow-up cancellation", err)
	}
	s.logger.WithFields(logrus.Fields{"user_id": userID, "date": date}).Debug("Follow-ups cancelled")
	return nil
}

// IsFollowUpCancelled reports whether target's local day has a cancellation mark.
func (s *FollowUpService) IsFollowUpCancelled(ctx context.Context, userID string, target time.Time) (bool, error) {
	date, err := s.localDate(ctx, userID, target)
	if err != nil {
		return false, err
	}
	ok, err := s.ledger.Exists(ctx, userID, date)
	if err != nil {
		return false, notification.WrapDatabase("check follow-up cancellation", err)
	}
	return ok, nil
}

// UserTimezone returns the user's configured timezone, or UTC when the user has no settings.
func (s *FollowUpService) UserTimezone(ctx context.Context, userID string) (string, error) {
	settings, err := s.settingsRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, notification.ErrSettingsNotFound) {
			return defaultTimezone, nil
		}
		return "", notification.WrapDatabase("get notification settings", err)
	}
	return settings.Timezone, nil
}

func (s *FollowUpService) localDate(ctx context.Context, userID string, target time.Time) (string, error) {
	tz, err := s.UserTimezone(ctx, userID)
	if err != nil {
		return "", err
	}
	return localtime.LocalDateString(tz, target)
}

// loadDay reads the day window's logs and entry existence. Entries are not
// queried once the max count is reached since that rule wins anyway.
func (s *FollowUpService) loadDay(ctx context.Context, userID string, settings *notification.Settings, now time.Time) (*dayState, error) {
	bounds, err := localtime.DayBoundaries(settings.Timezone, now)
	if err != nil {
		return nil, err
	}
	logs, err := s.logRepo.ListForRange(ctx, userID, bounds.Start, bounds.End)
	if err != nil {
		return nil, notification.WrapDatabase("list notification logs", err)
	}
	st := &dayState{chaseSent: notification.CountByType(logs, notification.LogTypeChaseReminder)}
	if st.chaseSent >= settings.FollowUpMaxCount {
		return st, nil
	}
	st.recorded, err = s.entryRepo.ExistsNonDeletedInRange(ctx, userID, bounds.Start, bounds.End)
	if err != nil {
		return nil, notification.WrapDatabase("check entries for day", err)
	}
	return st, nil
}

// nextFollowUp returns the (chaseSent+1)-th follow-up of now's schedule.
func nextFollowUp(settings *notification.Settings, chaseSent int, now time.Time) (notification.FollowUp, bool, error) {
	schedule, err := notification.ComputeSchedule(
		settings.PrimaryTime,
		settings.FollowUpIntervalMinutes,
		settings.FollowUpMaxCount,
		settings.Timezone,
		now,
	)
	if err != nil {
		return notification.FollowUp{}, false, err
	}
	if chaseSent < 0 || chaseSent >= len(schedule.FollowUps) {
		return notification.FollowUp{}, false, nil
	}
	return schedule.FollowUps[chaseSent], true, nil
}
