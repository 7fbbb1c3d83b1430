package httpapi

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"journal_reminder_service/internal/app"
	"journal_reminder_service/internal/domain/entry"
	"journal_reminder_service/internal/domain/notification"
	"journal_reminder_service/internal/domain/push"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/sirupsen/logrus"
)

const hookSecretHeader = "X-Hook-Secret"

type EntryHook interface {
	HandleEntryCreated(ctx context.Context, ev entry.CreatedEvent) (app.EntryHookResult, error)
}

type FollowUps interface {
	NextFollowUpTime(ctx context.Context, userID string, now time.Time) (*time.Time, error)
	IsFollowUpCancelled(ctx context.Context, userID string, target time.Time) (bool, error)
	CancelFollowUps(ctx context.Context, userID string, target time.Time) error
}

type SubscriptionSaver interface {
	Upsert(ctx context.Context, sub *push.Subscription) error
}

type errorResponse struct {
	Error   notification.Kind `json:"error"`
	Message string            `json:"message"`
}

type nextFollowUpResponse struct {
	UserID string     `json:"userId"`
	NextAt *time.Time `json:"nextAt"`
}

type cancelledResponse struct {
	UserID    string `json:"userId"`
	Cancelled bool   `json:"cancelled"`
}

type subscribeRequest struct {
	Endpoint string `json:"endpoint"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
}

type subscribeResponse struct {
	ID string `json:"id"`
}

type handlers struct {
	hook       EntryHook
	followUps  FollowUps
	subs       SubscriptionSaver
	hookSecret string
	logger     *logrus.Entry
	now        func() time.Time
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}

func (h *handlers) entryCreated(w http.ResponseWriter, r *http.Request) {
	if h.hookSecret != "" && subtle.ConstantTimeCompare([]byte(r.Header.Get(hookSecretHeader)), []byte(h.hookSecret)) != 1 {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, errorResponse{Error: "UNAUTHORIZED", Message: "invalid hook secret"})
		return
	}

	var ev entry.CreatedEvent
	if err := render.DecodeJSON(r.Body, &ev); err != nil {
		h.writeError(w, r, fmt.Errorf("%w: malformed body: %v", notification.ErrValidation, err))
		return
	}
	res, err := h.hook.HandleEntryCreated(r.Context(), ev)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	render.JSON(w, r, res)
}

func (h *handlers) nextFollowUp(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	next, err := h.followUps.NextFollowUpTime(r.Context(), userID, h.now())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	render.JSON(w, r, nextFollowUpResponse{UserID: userID, NextAt: next})
}

func (h *handlers) followUpsCancelled(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	at := h.now()
	if raw := r.URL.Query().Get("at"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.writeError(w, r, fmt.Errorf("%w: at must be an RFC3339 timestamp", notification.ErrValidation))
			return
		}
		at = parsed
	}
	cancelled, err := h.followUps.IsFollowUpCancelled(r.Context(), userID, at)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	render.JSON(w, r, cancelledResponse{UserID: userID, Cancelled: cancelled})
}

func (h *handlers) cancelFollowUps(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if err := h.followUps.CancelFollowUps(r.Context(), userID, h.now()); err != nil {
		h.writeError(w, r, err)
		return
	}
	render.JSON(w, r, cancelledResponse{UserID: userID, Cancelled: true})
}

func (h *handlers) subscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.writeError(w, r, fmt.Errorf("%w: malformed body: %v", notification.ErrValidation, err))
		return
	}
	if !strings.HasPrefix(req.Endpoint, "https://") || req.Keys.P256dh == "" || req.Keys.Auth == "" {
		h.writeError(w, r, fmt.Errorf("%w: endpoint must be https and keys.p256dh, keys.auth are required", notification.ErrValidation))
		return
	}

	sub := &push.Subscription{
		UserID:    chi.URLParam(r, "userID"),
		Endpoint:  req.Endpoint,
		P256dhKey: req.Keys.P256dh,
		AuthKey:   req.Keys.Auth,
	}
	if ua := r.UserAgent(); ua != "" {
		sub.UserAgent.String, sub.UserAgent.Valid = ua, true
	}
	if err := h.subs.Upsert(r.Context(), sub); err != nil {
		h.writeError(w, r, notification.WrapDatabase("upsert push subscription", err))
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, subscribeResponse{ID: sub.ID})
}

func (h *handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := notification.KindOf(err)
	status := statusFor(kind)
	logCtx := h.logger.WithError(err).WithFields(logrus.Fields{"path": r.URL.Path, "kind": kind})
	if status >= http.StatusInternalServerError {
		logCtx.Error("Request failed")
	} else {
		logCtx.Warn("Request rejected")
	}

	msg := err.Error()
	if errors.Is(err, notification.ErrDatabase) || kind == notification.KindUnexpected {
		msg = "internal error"
	}
	render.Status(r, status)
	render.JSON(w, r, errorResponse{Error: kind, Message: msg})
}

func statusFor(kind notification.Kind) int {
	switch kind {
	case notification.KindValidation:
		return http.StatusBadRequest
	case notification.KindSettingsNotFound, notification.KindNoSubscriptions:
		return http.StatusNotFound
	case notification.KindConfiguration:
		return http.StatusUnprocessableEntity
	case notification.KindDatabase:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
