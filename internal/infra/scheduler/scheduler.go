package scheduler

import (
	"context"
	"fmt"
	"time"

	"journal_reminder_service/internal/app"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const (
	mainReminderTimeout = 50 * time.Second
	followUpTimeout     = 50 * time.Second
)

// ReminderScheduler drives the reminder sweeps from cron. Both default
// specs fire every minute, matching the exact-minute primary time check.
type ReminderScheduler struct {
	cronEngine           *cron.Cron
	runner               app.ReminderRunner
	logger               *logrus.Entry
	cronSpecMainReminder string
	cronSpecFollowUp     string
	now                  func() time.Time
}

func NewReminderScheduler(
	runner app.ReminderRunner,
	logger *logrus.Entry,
	cronSpecMainReminder string, // e.g. "* * * * *"
	cronSpecFollowUp string,
) *ReminderScheduler {
	return &ReminderScheduler{
		// Users' timezones are handled per user; cron itself runs on UTC.
		cronEngine:           cron.New(cron.WithLocation(time.UTC)),
		runner:               runner,
		logger:               logger.WithField("component", "scheduler"),
		cronSpecMainReminder: cronSpecMainReminder,
		cronSpecFollowUp:     cronSpecFollowUp,
		now:                  time.Now,
	}
}

// Start registers both jobs and starts the cron engine. A bad spec is returned before anything runs.
func (s *ReminderScheduler) Start() error {
	s.logger.Info("Starting reminder scheduler...")

	if _, err := s.cronEngine.AddFunc(s.cronSpecMainReminder, s.runMainReminder); err != nil {
		return fmt.Errorf("could not add main reminder cron job %q: %w", s.cronSpecMainReminder, err)
	}
	if _, err := s.cronEngine.AddFunc(s.cronSpecFollowUp, s.runFollowUp); err != nil {
		return fmt.Errorf("could not add follow-up cron job %q: %w", s.cronSpecFollowUp, err)
	}

	s.cronEngine.Start()
	s.logger.WithFields(logrus.Fields{
		"main_reminder_spec": s.cronSpecMainReminder,
		"follow_up_spec":     s.cronSpecFollowUp,
	}).Info("Reminder scheduler started with jobs")
	return nil
}

func (s *ReminderScheduler) runMainReminder() {
	ctx, cancel := context.WithTimeout(context.Background(), mainReminderTimeout)
	defer cancel()
	s.run(ctx, "main_reminder", s.runner.RunMainReminderTick)
}

func (s *ReminderScheduler) runFollowUp() {
	ctx, cancel := context.WithTimeout(context.Background(), followUpTimeout)
	defer cancel()
	s.run(ctx, "follow_up", s.runner.RunFollowUpTick)
}

func (s *ReminderScheduler) run(ctx context.Context, job string, tick func(context.Context, time.Time) (app.TickSummary, error)) {
	// Truncate so every user in one run sees the same minute.
	now := s.now().UTC().Truncate(time.Minute)
	logCtx := s.logger.WithFields(logrus.Fields{"job": job, "tick": now.Format(time.RFC3339)})

	sum, err := tick(ctx, now)
	if err != nil {
		logCtx.WithError(err).Error("Reminder sweep failed")
		return
	}
	entry := logCtx.WithFields(logrus.Fields{
		"checked":    sum.Checked,
		"dispatched": sum.Dispatched,
		"failed":     sum.Failed,
	})
	if sum.Dispatched > 0 || sum.Failed > 0 {
		entry.Info("Reminder sweep finished")
		return
	}
	entry.Debug("Reminder sweep finished")
}

// Stop prevents new runs and waits for running jobs to finish.
func (s *ReminderScheduler) Stop() {
	s.logger.Info("Stopping reminder scheduler...")
	ctx := s.cronEngine.Stop()
	<-ctx.Done()
	s.logger.Info("Reminder scheduler gracefully stopped")
}
