package app

import (
	"context"
	"io"
	"sync"
	"time"

	"journal_reminder_service/internal/domain/notification"
	"journal_reminder_service/internal/domain/push"

	"github.com/sirupsen/logrus"
)

// Mock SettingsRepository
type MockSettingsRepo struct {
	GetByUserIDFunc func(ctx context.Context, userID string) (*notification.Settings, error)
	ListEnabledFunc func(ctx context.Context) ([]*notification.Settings, error)
}

func (m *MockSettingsRepo) GetByUserID(ctx context.Context, userID string) (*notification.Settings, error) {
	if m.GetByUserIDFunc != nil {
		return m.GetByUserIDFunc(ctx, userID)
	}
	return nil, notification.ErrSettingsNotFound
}

func (m *MockSettingsRepo) ListEnabled(ctx context.Context) ([]*notification.Settings, error) {
	if m.ListEnabledFunc != nil {
		return m.ListEnabledFunc(ctx)
	}
	return nil, nil
}

// Mock LogRepository. Appended logs are kept for assertions.
type MockLogRepo struct {
	mu                        sync.Mutex
	Appended                  []*notification.Log
	ListForRangeFunc          func(ctx context.Context, userID string, start, end time.Time) ([]*notification.Log, error)
	AppendFunc                func(ctx context.Context, l *notification.Log) error
	UpdateEntryRecordedAtFunc func(ctx context.Context, userID string, start, end, recordedAt time.Time) (int64, error)
}

func (m *MockLogRepo) ListForRange(ctx context.Context, userID string, start, end time.Time) ([]*notification.Log, error) {
	if m.ListForRangeFunc != nil {
		return m.ListForRangeFunc(ctx, userID, start, end)
	}
	return nil, nil
}

func (m *MockLogRepo) Append(ctx context.Context, l *notification.Log) error {
	m.mu.Lock()
	m.Appended = append(m.Appended, l)
	m.mu.Unlock()
	if m.AppendFunc != nil {
		return m.AppendFunc(ctx, l)
	}
	return nil
}

func (m *MockLogRepo) UpdateEntryRecordedAt(ctx context.Context, userID string, start, end, recordedAt time.Time) (int64, error) {
	if m.UpdateEntryRecordedAtFunc != nil {
		return m.UpdateEntryRecordedAtFunc(ctx, userID, start, end, recordedAt)
	}
	return 1, nil
}

// Mock entry.Repository
type MockEntryRepo struct {
	ExistsFunc func(ctx context.Context, userID string, start, end time.Time) (bool, error)
}

func (m *MockEntryRepo) ExistsNonDeletedInRange(ctx context.Context, userID string, start, end time.Time) (bool, error) {
	if m.ExistsFunc != nil {
		return m.ExistsFunc(ctx, userID, start, end)
	}
	return false, nil
}

// In-memory CancellationLedger that honours the unique (user, date) key.
type MockLedger struct {
	mu             sync.Mutex
	rows           map[string]bool
	InsertFunc     func(ctx context.Context, userID, localDate string) error
	InsertAttempts int
}

func (m *MockLedger) InsertIfAbsent(ctx context.Context, userID, localDate string) error {
	m.mu.Lock()
	m.InsertAttempts++
	m.mu.Unlock()
	if m.InsertFunc != nil {
		if err := m.InsertFunc(ctx, userID, localDate); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rows == nil {
		m.rows = make(map[string]bool)
	}
	m.rows[userID+"|"+localDate] = true
	return nil
}

func (m *MockLedger) Exists(ctx context.Context, userID, localDate string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[userID+"|"+localDate], nil
}

func (m *MockLedger) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

// Mock push.Client
type MockPushClient struct {
	ValidateFunc func() error
	SendFunc     func(ctx context.Context, sub *push.Subscription, payload []byte) (int, error)
}

func (m *MockPushClient) Validate() error {
	if m.ValidateFunc != nil {
		return m.ValidateFunc()
	}
	return nil
}

func (m *MockPushClient) Send(ctx context.Context, sub *push.Subscription, payload []byte) (int, error) {
	if m.SendFunc != nil {
		return m.SendFunc(ctx, sub, payload)
	}
	return 201, nil
}

// Mock push.Repository. Removed IDs are kept for assertions.
type MockSubscriptionRepo struct {
	mu              sync.Mutex
	Removed         []string
	ListForUserFunc func(ctx context.Context, userID string) ([]*push.Subscription, error)
	RemoveFunc      func(ctx context.Context, id string) error
}

func (m *MockSubscriptionRepo) ListForUser(ctx context.Context, userID string) ([]*push.Subscription, error) {
	if m.ListForUserFunc != nil {
		return m.ListForUserFunc(ctx, userID)
	}
	return nil, nil
}

func (m *MockSubscriptionRepo) Remove(ctx context.Context, id string) error {
	m.mu.Lock()
	m.Removed = append(m.Removed, id)
	m.mu.Unlock()
	if m.RemoveFunc != nil {
		return m.RemoveFunc(ctx, id)
	}
	return nil
}

func (m *MockSubscriptionRepo) Upsert(ctx context.Context, sub *push.Subscription) error {
	return nil
}

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func tokyoSettings() *notification.Settings {
	return &notification.Settings{
		UserID:                  "user-1",
		Enabled:                 true,
		PrimaryTime:             "21:00",
		Timezone:                "Asia/Tokyo",
		FollowUpEnabled:         true,
		FollowUpIntervalMinutes: 30,
		FollowUpMaxCount:        2,
		ActiveDays:              []int{0, 1, 2, 3, 4, 5, 6},
	}
}

func chaseLogs(n int) []*notification.Log {
	logs := []*notification.Log{{Type: notification.LogTypeMainReminder, Result: notification.LogResultSuccess}}
	for i := 0; i < n; i++ {
		logs = append(logs, &notification.Log{Type: notification.LogTypeChaseReminder, Result: notification.LogResultSuccess})
	}
	return logs
}

func subscriptions(ids ...string) []*push.Subscription {
	subs := make([]*push.Subscription, 0, len(ids))
	for _, id := range ids {
		subs = append(subs, &push.Subscription{ID: id, UserID: "user-1", Endpoint: "https://push.example/" + id})
	}
	return subs
}
