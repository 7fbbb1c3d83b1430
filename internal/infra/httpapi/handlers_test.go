package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"journal_reminder_service/internal/app"
	"journal_reminder_service/internal/domain/entry"
	"journal_reminder_service/internal/domain/notification"
	"journal_reminder_service/internal/domain/push"

	"github.com/sirupsen/logrus"
)

// Mock EntryHook
type MockEntryHook struct {
	HandleEntryCreatedFunc func(ctx context.Context, ev entry.CreatedEvent) (app.EntryHookResult, error)
}

func (m *MockEntryHook) HandleEntryCreated(ctx context.Context, ev entry.CreatedEvent) (app.EntryHookResult, error) {
	if m.HandleEntryCreatedFunc != nil {
		return m.HandleEntryCreatedFunc(ctx, ev)
	}
	return app.EntryHookResult{LogUpdated: true, FollowUpsCancelled: true}, nil
}

// Mock FollowUps
type MockFollowUps struct {
	NextFunc      func(ctx context.Context, userID string, now time.Time) (*time.Time, error)
	CancelledFunc func(ctx context.Context, userID string, target time.Time) (bool, error)
	CancelFunc    func(ctx context.Context, userID string, target time.Time) error
}

func (m *MockFollowUps) NextFollowUpTime(ctx context.Context, userID string, now time.Time) (*time.Time, error) {
	if m.NextFunc != nil {
		return m.NextFunc(ctx, userID, now)
	}
	return nil, nil
}

func (m *MockFollowUps) IsFollowUpCancelled(ctx context.Context, userID string, target time.Time) (bool, error) {
	if m.CancelledFunc != nil {
		return m.CancelledFunc(ctx, userID, target)
	}
	return false, nil
}

func (m *MockFollowUps) CancelFollowUps(ctx context.Context, userID string, target time.Time) error {
	if m.CancelFunc != nil {
		return m.CancelFunc(ctx, userID, target)
	}
	return nil
}

// Mock SubscriptionSaver
type MockSubscriptions struct {
	UpsertFunc func(ctx context.Context, sub *push.Subscription) error
}

func (m *MockSubscriptions) Upsert(ctx context.Context, sub *push.Subscription) error {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, sub)
	}
	sub.ID = "generated-id"
	return nil
}

var fixedNow = time.Date(2025, time.December, 18, 12, 0, 0, 0, time.UTC)

func newTestServer(hook EntryHook, fu FollowUps, subs SubscriptionSaver, secret string) *httptest.Server {
	l := logrus.New()
	l.SetOutput(io.Discard)
	h := &handlers{
		hook:       hook,
		followUps:  fu,
		subs:       subs,
		hookSecret: secret,
		logger:     logrus.NewEntry(l),
		now:        func() time.Time { return fixedNow },
	}
	return httptest.NewServer(newRouter(h))
}

func do(t *testing.T, method, url, body string, header map[string]string) (int, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp.StatusCode, decoded
}

func TestEntryCreated(t *testing.T) {
	validBody := `{"userId":"user-1","entryId":"entry-1","createdAt":"2025-12-18T12:30:00Z"}`

	tests := []struct {
		name       string
		body       string
		header     map[string]string
		hookResult app.EntryHookResult
		hookErr    error
		wantStatus int
		wantField  string
		wantValue  any
	}{
		{
			name:       "both branches succeeded",
			body:       validBody,
			header:     map[string]string{hookSecretHeader: "s3cret"},
			hookResult: app.EntryHookResult{LogUpdated: true, FollowUpsCancelled: true},
			wantStatus: http.StatusOK,
			wantField:  "followUpsCancelled",
			wantValue:  true,
		},
		{
			name:       "partial bookkeeping is still 200",
			body:       validBody,
			header:     map[string]string{hookSecretHeader: "s3cret"},
			hookResult: app.EntryHookResult{LogUpdated: false, FollowUpsCancelled: true},
			wantStatus: http.StatusOK,
			wantField:  "logUpdated",
			wantValue:  false,
		},
		{
			name:       "validation error",
			body:       `{"userId":"","entryId":"entry-1","createdAt":"2025-12-18T12:30:00Z"}`,
			header:     map[string]string{hookSecretHeader: "s3cret"},
			hookErr:    fmt.Errorf("%w: userId is required", notification.ErrValidation),
			wantStatus: http.StatusBadRequest,
			wantField:  "error",
			wantValue:  "VALIDATION_ERROR",
		},
		{
			name:       "malformed timestamp",
			body:       `{"userId":"user-1","entryId":"entry-1","createdAt":"yesterday"}`,
			header:     map[string]string{hookSecretHeader: "s3cret"},
			wantStatus: http.StatusBadRequest,
			wantField:  "error",
			wantValue:  "VALIDATION_ERROR",
		},
		{
			name:       "wrong secret",
			body:       validBody,
			header:     map[string]string{hookSecretHeader: "guess"},
			wantStatus: http.StatusUnauthorized,
			wantField:  "error",
			wantValue:  "UNAUTHORIZED",
		},
		{
			name:       "unexpected failure",
			body:       validBody,
			header:     map[string]string{hookSecretHeader: "s3cret"},
			hookErr:    errors.New("entry-created hook: unexpected failure: boom"),
			wantStatus: http.StatusInternalServerError,
			wantField:  "message",
			wantValue:  "internal error",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hook := &MockEntryHook{HandleEntryCreatedFunc: func(ctx context.Context, ev entry.CreatedEvent) (app.EntryHookResult, error) {
				return tt.hookResult, tt.hookErr
			}}
			srv := newTestServer(hook, &MockFollowUps{}, &MockSubscriptions{}, "s3cret")
			defer srv.Close()

			status, body := do(t, http.MethodPost, srv.URL+"/hooks/entry-created", tt.body, tt.header)
			if status != tt.wantStatus {
				t.Fatalf("want status %d, got %d (%v)", tt.wantStatus, status, body)
			}
			if body[tt.wantField] != tt.wantValue {
				t.Fatalf("want %s=%v, got %v", tt.wantField, tt.wantValue, body)
			}
		})
	}
}

func TestEntryCreated_PassesEvent(t *testing.T) {
	var got entry.CreatedEvent
	hook := &MockEntryHook{HandleEntryCreatedFunc: func(ctx context.Context, ev entry.CreatedEvent) (app.EntryHookResult, error) {
		got = ev
		return app.EntryHookResult{}, nil
	}}
	srv := newTestServer(hook, &MockFollowUps{}, &MockSubscriptions{}, "")
	defer srv.Close()

	body := `{"userId":"user-1","entryId":"entry-1","createdAt":"2025-12-18T21:30:00+09:00"}`
	if status, _ := do(t, http.MethodPost, srv.URL+"/hooks/entry-created", body, nil); status != http.StatusOK {
		t.Fatalf("want 200 without a configured secret, got %d", status)
	}
	if got.UserID != "user-1" || got.EntryID != "entry-1" || !got.CreatedAt.Equal(fixedNow.Add(30*time.Minute)) {
		t.Fatalf("unexpected event: %+v", got)
	}
}

func TestNextFollowUp(t *testing.T) {
	next := fixedNow.Add(30 * time.Minute)
	fu := &MockFollowUps{NextFunc: func(ctx context.Context, userID string, now time.Time) (*time.Time, error) {
		switch userID {
		case "user-1":
			if !now.Equal(fixedNow) {
				t.Errorf("want now %s, got %s", fixedNow, now)
			}
			return &next, nil
		case "user-2":
			return nil, nil
		case "ghost":
			return nil, fmt.Errorf("get settings: %w", notification.ErrSettingsNotFound)
		default:
			return nil, fmt.Errorf("%w: list logs: connection reset", notification.ErrDatabase)
		}
	}}
	srv := newTestServer(&MockEntryHook{}, fu, &MockSubscriptions{}, "")
	defer srv.Close()

	status, body := do(t, http.MethodGet, srv.URL+"/users/user-1/follow-ups/next", "", nil)
	if status != http.StatusOK || body["nextAt"] != "2025-12-18T12:30:00Z" {
		t.Fatalf("unexpected response %d %v", status, body)
	}
	status, body = do(t, http.MethodGet, srv.URL+"/users/user-2/follow-ups/next", "", nil)
	if status != http.StatusOK || body["nextAt"] != nil {
		t.Fatalf("want null nextAt, got %d %v", status, body)
	}
	status, body = do(t, http.MethodGet, srv.URL+"/users/ghost/follow-ups/next", "", nil)
	if status != http.StatusNotFound || body["error"] != "SETTINGS_NOT_FOUND" {
		t.Fatalf("want 404 SETTINGS_NOT_FOUND, got %d %v", status, body)
	}
	status, body = do(t, http.MethodGet, srv.URL+"/users/flaky/follow-ups/next", "", nil)
	if status != http.StatusServiceUnavailable || body["message"] != "internal error" {
		t.Fatalf("want 503 with hidden detail, got %d %v", status, body)
	}
}

func TestFollowUpsCancelled(t *testing.T) {
	var gotTarget time.Time
	fu := &MockFollowUps{CancelledFunc: func(ctx context.Context, userID string, target time.Time) (bool, error) {
		gotTarget = target
		return true, nil
	}}
	srv := newTestServer(&MockEntryHook{}, fu, &MockSubscriptions{}, "")
	defer srv.Close()

	status, body := do(t, http.MethodGet, srv.URL+"/users/user-1/follow-ups/cancelled", "", nil)
	if status != http.StatusOK || body["cancelled"] != true || !gotTarget.Equal(fixedNow) {
		t.Fatalf("unexpected response %d %v (target %s)", status, body, gotTarget)
	}

	status, _ = do(t, http.MethodGet, srv.URL+"/users/user-1/follow-ups/cancelled?at=2025-12-01T08:00:00Z", "", nil)
	if status != http.StatusOK || !gotTarget.Equal(time.Date(2025, time.December, 1, 8, 0, 0, 0, time.UTC)) {
		t.Fatalf("want explicit target, got %d %s", status, gotTarget)
	}

	status, body = do(t, http.MethodGet, srv.URL+"/users/user-1/follow-ups/cancelled?at=monday", "", nil)
	if status != http.StatusBadRequest || body["error"] != "VALIDATION_ERROR" {
		t.Fatalf("want 400, got %d %v", status, body)
	}
}

func TestCancelFollowUps(t *testing.T) {
	calls := 0
	fu := &MockFollowUps{CancelFunc: func(ctx context.Context, userID string, target time.Time) error {
		calls++
		if userID != "user-1" || !target.Equal(fixedNow) {
			t.Errorf("unexpected cancel %s at %s", userID, target)
		}
		return nil
	}}
	srv := newTestServer(&MockEntryHook{}, fu, &MockSubscriptions{}, "")
	defer srv.Close()

	for i := 0; i < 2; i++ {
		status, body := do(t, http.MethodPost, srv.URL+"/users/user-1/follow-ups/cancel", "", nil)
		if status != http.StatusOK || body["cancelled"] != true {
			t.Fatalf("call %d: unexpected response %d %v", i, status, body)
		}
	}
	if calls != 2 {
		t.Fatalf("want 2 calls, got %d", calls)
	}
}

func TestSubscribe(t *testing.T) {
	var saved *push.Subscription
	subs := &MockSubscriptions{UpsertFunc: func(ctx context.Context, sub *push.Subscription) error {
		saved = sub
		sub.ID = "sub-9"
		return nil
	}}
	srv := newTestServer(&MockEntryHook{}, &MockFollowUps{}, subs, "")
	defer srv.Close()

	body := `{"endpoint":"https://push.example/abc","keys":{"p256dh":"BPk","auth":"c2VjcmV0"}}`
	status, resp := do(t, http.MethodPost, srv.URL+"/users/user-1/push-subscriptions", body, map[string]string{"User-Agent": "Firefox"})
	if status != http.StatusCreated || resp["id"] != "sub-9" {
		t.Fatalf("unexpected response %d %v", status, resp)
	}
	if saved.UserID != "user-1" || saved.P256dhKey != "BPk" || saved.AuthKey != "c2VjcmV0" || saved.UserAgent.String != "Firefox" {
		t.Fatalf("unexpected subscription: %+v", saved)
	}

	status, resp = do(t, http.MethodPost, srv.URL+"/users/user-1/push-subscriptions", `{"endpoint":"http://insecure"}`, nil)
	if status != http.StatusBadRequest || resp["error"] != "VALIDATION_ERROR" {
		t.Fatalf("want 400, got %d %v", status, resp)
	}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(&MockEntryHook{}, &MockFollowUps{}, &MockSubscriptions{}, "")
	defer srv.Close()
	status, body := do(t, http.MethodGet, srv.URL+"/healthz", "", nil)
	if status != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("unexpected response %d %v", status, body)
	}
}
