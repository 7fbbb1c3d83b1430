// internal/app/reminder_service.go
package app

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"journal_reminder_service/internal/domain/entry"
	"journal_reminder_service/internal/domain/localtime"
	"journal_reminder_service/internal/domain/notification"

	"github.com/sirupsen/logrus"
)

// ReminderRunner is what the periodic scheduler drives.
type ReminderRunner interface {
	RunMainReminderTick(ctx context.Context, now time.Time) (TickSummary, error)
	RunFollowUpTick(ctx context.Context, now time.Time) (TickSummary, error)
}

// DispatchOutcome is the result of a main reminder dispatch.
// Results is empty when the reminder was skipped.
type DispatchOutcome struct {
	Skipped bool
	Results []notification.SendResult
}

// EntryHookResult reports which bookkeeping branches succeeded after an entry was created.
type EntryHookResult struct {
	LogUpdated         bool `json:"logUpdated"`
	FollowUpsCancelled bool `json:"followUpsCancelled"`
}

// TickSummary counts what one sweep did.
type TickSummary struct {
	Checked    int
	Dispatched int
	Failed     int
}

// ReminderService composes the follow-up engine, the dispatcher and the send log.
type ReminderService struct {
	dispatcher   *Dispatcher
	followUps    *FollowUpService
	settingsRepo notification.SettingsRepository
	logRepo      notification.LogRepository
	payloads     PayloadBuilder
	logger       *logrus.Entry
	now          func() time.Time
}

func NewReminderService(
	d *Dispatcher,
	f *FollowUpService,
	sr notification.SettingsRepository,
	lr notification.LogRepository,
	payloads PayloadBuilder,
	logger *logrus.Entry,
) *ReminderService {
	return &ReminderService{
		dispatcher:   d,
		followUps:    f,
		settingsRepo: sr,
		logRepo:      lr,
		payloads:     payloads,
		logger:       logger.WithField("component", "reminder_service"),
		now:          time.Now,
	}
}

// DispatchMainNotification sends the daily reminder unless the user already
// recorded today. Every decision is logged; a failed log write is not returned.
func (s *ReminderService) DispatchMainNotification(ctx context.Context, userID string, payload notification.Payload, timezone string) (DispatchOutcome, error) {
	return s.dispatchMain(ctx, userID, payload, timezone, s.now())
}

func (s *ReminderService) dispatchMain(ctx context.Context, userID string, payload notification.Payload, timezone string, now time.Time) (DispatchOutcome, error) {
	logCtx := s.logger.WithFields(logrus.Fields{"user_id": userID, "type": notification.LogTypeMainReminder})

	skip, err := s.dispatcher.ShouldSkipNotification(ctx, userID, now, timezone)
	if err != nil {
		logCtx.WithError(err).Error("Failed to check whether to skip main reminder")
		return DispatchOutcome{}, err
	}
	if skip {
		logCtx.Info("Entry already recorded today, main reminder skipped")
		s.appendLog(ctx, &notification.Log{
			UserID: userID,
			Type:   notification.LogTypeMainReminder,
			SentAt: now,
			Result: notification.LogResultSkipped,
		})
		return DispatchOutcome{Skipped: true}, nil
	}

	results, sendErr := s.dispatcher.SendToAllDevices(ctx, userID, payload)
	s.appendLog(ctx, sendLog(userID, notification.LogTypeMainReminder, now, sendErr))
	if sendErr != nil {
		logCtx.WithError(sendErr).Warn("Main reminder not delivered")
		return DispatchOutcome{}, sendErr
	}
	return DispatchOutcome{Results: results}, nil
}

// DispatchFollowUp sends the next chase reminder when the engine says it is due.
// The returned decision is the one the send was based on.
func (s *ReminderService) DispatchFollowUp(ctx context.Context, userID string, now time.Time) (notification.Decision, error) {
	logCtx := s.logger.WithFields(logrus.Fields{"user_id": userID, "type": notification.LogTypeChaseReminder})

	decision, err := s.followUps.ShouldSendFollowUp(ctx, userID, now)
	if err != nil {
		return notification.Decision{}, err
	}
	if !decision.ShouldSend {
		logCtx.WithField("reason", decision.Reason).Debug("Follow-up not sent")
		return decision, nil
	}

	_, sendErr := s.dispatcher.SendToAllDevices(ctx, userID, s.payloads.Chase(decision.FollowUpCount))
	s.appendLog(ctx, sendLog(userID, notification.LogTypeChaseReminder, now, sendErr))
	if sendErr != nil {
		logCtx.WithError(sendErr).WithField("follow_up", decision.FollowUpCount).Warn("Follow-up not delivered")
		return decision, sendErr
	}
	logCtx.WithField("follow_up", decision.FollowUpCount).Info("Follow-up sent")
	return decision, nil
}

// HandleEntryCreated stamps today's log with the entry time and cancels the
// rest of today's follow-ups. Both run concurrently and neither can fail the
// call: a failure, panics included, only flips its flag to false. Only invalid
// input is an error.
func (s *ReminderService) HandleEntryCreated(ctx context.Context, ev entry.CreatedEvent) (res EntryHookResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.WithField("panic", r).Error("Unexpected failure in entry-created hook")
			res, err = EntryHookResult{}, fmt.Errorf("entry-created hook: unexpected failure: %v", r)
		}
	}()

	if err := validateEntryEvent(ev); err != nil {
		return EntryHookResult{}, err
	}
	logCtx := s.logger.WithFields(logrus.Fields{"user_id": ev.UserID, "entry_id": ev.EntryID})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		res.LogUpdated = s.runBranch(logCtx, "update_entry_recorded", func() error {
			return s.recordEntry(ctx, ev)
		})
	}()
	go func() {
		defer wg.Done()
		res.FollowUpsCancelled = s.runBranch(logCtx, "cancel_follow_ups", func() error {
			return s.followUps.CancelFollowUps(ctx, ev.UserID, ev.CreatedAt)
		})
	}()
	wg.Wait()

	logCtx.WithFields(logrus.Fields{
		"log_updated":          res.LogUpdated,
		"follow_ups_cancelled": res.FollowUpsCancelled,
	}).Info("Entry-created hook handled")
	return res, nil
}

// RunMainReminderTick dispatches the main reminder to every enabled user whose primary time is now.
func (s *ReminderService) RunMainReminderTick(ctx context.Context, now time.Time) (TickSummary, error) {
	all, err := s.settingsRepo.ListEnabled(ctx)
	if err != nil {
		return TickSummary{}, notification.WrapDatabase("list enabled settings", err)
	}

	var sum TickSummary
	for _, st := range all {
		sum.Checked++
		if err := st.Validate(); err != nil {
			s.logger.WithError(err).WithField("user_id", st.UserID).Warn("Invalid reminder settings, skipping user")
			continue
		}
		due, err := IsTimeToSendNotification(st, now)
		if err != nil {
			s.logger.WithError(err).WithField("user_id", st.UserID).Warn("Invalid reminder settings, skipping user")
			continue
		}
		if !due {
			continue
		}
		if _, err := s.dispatchMain(ctx, st.UserID, s.payloads.Main(), st.Timezone, now); err != nil {
			sum.Failed++
			continue
		}
		sum.Dispatched++
	}
	return sum, nil
}

// RunFollowUpTick evaluates follow-ups for every enabled user on one of their active days.
func (s *ReminderService) RunFollowUpTick(ctx context.Context, now time.Time) (TickSummary, error) {
	all, err := s.settingsRepo.ListEnabled(ctx)
	if err != nil {
		return TickSummary{}, notification.WrapDatabase("list enabled settings", err)
	}

	var sum TickSummary
	for _, st := range all {
		if !st.FollowUpEnabled {
			continue
		}
		if err := st.Validate(); err != nil {
			s.logger.WithError(err).WithField("user_id", st.UserID).Warn("Invalid reminder settings, skipping user")
			continue
		}
		day, err := localtime.DayOfWeek(st.Timezone, now)
		if err != nil {
			s.logger.WithError(err).WithField("user_id", st.UserID).Warn("Invalid reminder settings, skipping user")
			continue
		}
		if !st.IsActiveDay(day) {
			continue
		}
		sum.Checked++
		decision, err := s.DispatchFollowUp(ctx, st.UserID, now)
		if err != nil {
			sum.Failed++
			continue
		}
		if decision.ShouldSend {
			sum.Dispatched++
		}
	}
	return sum, nil
}

func (s *ReminderService) recordEntry(ctx context.Context, ev entry.CreatedEvent) error {
	tz, err := s.followUps.UserTimezone(ctx, ev.UserID)
	if err != nil {
		return err
	}
	bounds, err := localtime.DayBoundaries(tz, ev.CreatedAt)
	if err != nil {
		return err
	}
	if _, err := s.logRepo.UpdateEntryRecordedAt(ctx, ev.UserID, bounds.Start, bounds.End, ev.CreatedAt); err != nil {
		return notification.WrapDatabase("update entry recorded at", err)
	}
	return nil
}

// runBranch converts an error or panic from fn into false.
func (s *ReminderService) runBranch(logCtx *logrus.Entry, name string, fn func() error) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logCtx.WithFields(logrus.Fields{"branch": name, "panic": r}).Error("Entry-created branch panicked")
			ok = false
		}
	}()
	if err := fn(); err != nil {
		logCtx.WithError(err).WithField("branch", name).Warn("Entry-created branch failed")
		return false
	}
	return true
}

func (s *ReminderService) appendLog(ctx context.Context, l *notification.Log) {
	if err := s.logRepo.Append(ctx, l); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"user_id": l.UserID,
			"type":    l.Type,
			"result":  l.Result,
		}).Warn("Failed to write notification log")
	}
}

func sendLog(userID string, t notification.LogType, at time.Time, sendErr error) *notification.Log {
	l := &notification.Log{UserID: userID, Type: t, SentAt: at, Result: notification.LogResultSuccess}
	if sendErr != nil {
		l.Result = notification.LogResultFailed
		l.ErrorMessage = sql.NullString{String: string(notification.KindOf(sendErr)), Valid: true}
	}
	return l
}

func validateEntryEvent(ev entry.CreatedEvent) error {
	var problems []string
	if strings.TrimSpace(ev.UserID) == "" {
		problems = append(problems, "userId is required")
	}
	if strings.TrimSpace(ev.EntryID) == "" {
		problems = append(problems, "entryId is required")
	}
	if ev.CreatedAt.IsZero() {
		problems = append(problems, "createdAt must be a valid timestamp")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", notification.ErrValidation, strings.Join(problems, "; "))
	}
	return nil
}
