// internal/app/dispatcher.go
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"journal_reminder_service/internal/domain/entry"
	"journal_reminder_service/internal/domain/localtime"
	"journal_reminder_service/internal/domain/notification"
	"journal_reminder_service/internal/domain/push"

	"github.com/sirupsen/logrus"
)

// Dispatcher fans a payload out to every device a user registered.
type Dispatcher struct {
	pushClient push.Client
	subRepo    push.Repository
	entryRepo  entry.Repository
	logger     *logrus.Entry
}

func NewDispatcher(pc push.Client, sr push.Repository, er entry.Repository, logger *logrus.Entry) *Dispatcher {
	return &Dispatcher{
		pushClient: pc,
		subRepo:    sr,
		entryRepo:  er,
		logger:     logger.WithField("component", "dispatcher"),
	}
}

// SendNotification pushes payload to one subscription and classifies the outcome.
// A push-service failure is a result, not an error: 410 marks the subscription
// for removal, anything else keeps it. Only VAPID misconfiguration is an error.
func (d *Dispatcher) SendNotification(ctx context.Context, sub *push.Subscription, payload notification.Payload) (notification.SendResult, error) {
	if err := d.pushClient.Validate(); err != nil {
		return notification.SendResult{}, fmt.Errorf("%w: %w", notification.ErrVAPID, err)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return notification.SendResult{}, fmt.Errorf("%w: encode payload: %v", notification.ErrValidation, err)
	}

	result := notification.SendResult{SubscriptionID: sub.ID}
	status, err := d.pushClient.Send(ctx, sub, body)
	if err == nil {
		result.Success = true
		result.StatusCode = status
		return result, nil
	}

	result.Error = err.Error()
	var se *push.StatusError
	if errors.As(err, &se) {
		result.StatusCode = se.StatusCode
		result.ShouldRemove = se.Gone()
	} else {
		result.StatusCode = status
	}
	return result, nil
}

// SendToAllDevices pushes payload to every subscription of the user, in parallel.
// Results keep subscription order. Dead subscriptions are removed after all
// sends finish; removal failures are only logged. When no device accepted the
// push the error is an *notification.AllFailedError carrying every result.
func (d *Dispatcher) SendToAllDevices(ctx context.Context, userID string, payload notification.Payload) ([]notification.SendResult, error) {
	logCtx := d.logger.WithField("user_id", userID)

	if err := d.pushClient.Validate(); err != nil {
		logCtx.WithError(err).Error("Push client is not configured")
		return nil, fmt.Errorf("%w: %w", notification.ErrVAPID, err)
	}

	subs, err := d.subRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, notification.WrapDatabase("list push subscriptions", err)
	}
	if len(subs) == 0 {
		logCtx.Debug("User has no push subscriptions")
		return nil, fmt.Errorf("%w: user %s", notification.ErrNoSubscriptions, userID)
	}

	results := make([]notification.SendResult, len(subs))
	var wg sync.WaitGroup
	for i, sub := range subs {
		wg.Add(1)
		go func(i int, sub *push.Subscription) {
			defer wg.Done()
			res, err := d.SendNotification(ctx, sub, payload)
			if err != nil {
				res = notification.SendResult{SubscriptionID: sub.ID, Error: err.Error()}
			}
			results[i] = res
		}(i, sub)
	}
	wg.Wait()

	d.removeDead(ctx, logCtx, results)

	succeeded := 0
	for _, r := range results {
		if r.Success {
			succeeded++
			continue
		}
		logCtx.WithFields(logrus.Fields{
			"subscription_id": r.SubscriptionID,
			"status_code":     r.StatusCode,
			"should_remove":   r.ShouldRemove,
			"error":           r.Error,
		}).Warn("Push to device failed")
	}
	if succeeded == 0 {
		return nil, &notification.AllFailedError{Results: results}
	}
	logCtx.WithFields(logrus.Fields{"devices": len(results), "succeeded": succeeded}).Info("Push delivered")
	return results, nil
}

// removeDead deletes subscriptions the push service reported as gone. Best effort.
func (d *Dispatcher) removeDead(ctx context.Context, logCtx *logrus.Entry, results []notification.SendResult) {
	var wg sync.WaitGroup
	for _, r := range results {
		if !r.ShouldRemove {
			continue
		}
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			err := d.subRepo.Remove(ctx, id)
			if errors.Is(err, push.ErrSubscriptionNotFound) {
				logCtx.WithField("subscription_id", id).Debug("Dead push subscription already removed")
				return
			}
			if err != nil {
				logCtx.WithError(err).WithField("subscription_id", id).Warn("Failed to remove dead push subscription")
				return
			}
			logCtx.WithField("subscription_id", id).Info("Removed dead push subscription")
		}(r.SubscriptionID)
	}
	wg.Wait()
}

// ShouldSkipNotification reports whether the user already recorded an entry on now's local day.
func (d *Dispatcher) ShouldSkipNotification(ctx context.Context, userID string, now time.Time, timezone string) (bool, error) {
	bounds, err := localtime.DayBoundaries(timezone, now)
	if err != nil {
		return false, err
	}
	exists, err := d.entryRepo.ExistsNonDeletedInRange(ctx, userID, bounds.Start, bounds.End)
	if err != nil {
		return false, notification.WrapDatabase("check entries for day", err)
	}
	return exists, nil
}

// IsTimeToSendNotification is true when the local "HH:mm" at now equals the
// primary time and the local weekday is active. It is an exact-minute check
// meant to be polled once a minute; a missed tick is not caught up.
func IsTimeToSendNotification(settings *notification.Settings, now time.Time) (bool, error) {
	clock, err := localtime.ClockString(settings.Timezone, now)
	if err != nil {
		return false, err
	}
	if clock != settings.PrimaryTime {
		return false, nil
	}
	day, err := localtime.DayOfWeek(settings.Timezone, now)
	if err != nil {
		return false, err
	}
	return settings.IsActiveDay(day), nil
}
