package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"journal_reminder_service/internal/app"
	"journal_reminder_service/internal/domain/notification"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// Operator is the subset of app.AdminService the bot needs.
type Operator interface {
	NextFollowUp(ctx context.Context, performingAdminID int64, userID string) (*time.Time, error)
	FollowUpStatus(ctx context.Context, performingAdminID int64, userID string) (app.FollowUpStatus, error)
	CancelFollowUps(ctx context.Context, performingAdminID int64, userID string) error
}

type adminHandlers struct {
	ctx             context.Context
	operator        Operator
	adminTelegramID int64
	logger          *logrus.Entry
}

// RegisterAdminHandlers registers the operator commands. Only adminTelegramID may use them.
func RegisterAdminHandlers(ctx context.Context, b *telebot.Bot, operator Operator, adminTelegramID int64, baseLogger *logrus.Entry) {
	h := &adminHandlers{ctx: ctx, operator: operator, adminTelegramID: adminTelegramID, logger: baseLogger}
	b.Handle("/next_followup", h.nextFollowUp)
	b.Handle("/followup_status", h.followUpStatus)
	b.Handle("/cancel_followups", h.cancelFollowUps)
}

func (h *adminHandlers) nextFollowUp(c telebot.Context) error {
	userID, logCtx, ok, err := h.begin(c, "/next_followup")
	if !ok {
		return err
	}

	next, err := h.operator.NextFollowUp(h.ctx, c.Sender().ID, userID)
	if err != nil {
		return h.reply(c, logCtx, err)
	}
	if next == nil {
		return c.Send(fmt.Sprintf("No follow-up pending today for %s.", userID))
	}
	return c.Send(fmt.Sprintf("Next follow-up for %s: %s", userID, next.UTC().Format(time.RFC3339)))
}

func (h *adminHandlers) followUpStatus(c telebot.Context) error {
	userID, logCtx, ok, err := h.begin(c, "/followup_status")
	if !ok {
		return err
	}

	st, err := h.operator.FollowUpStatus(h.ctx, c.Sender().ID, userID)
	if err != nil {
		return h.reply(c, logCtx, err)
	}
	return c.Send(formatStatus(userID, st))
}

func (h *adminHandlers) cancelFollowUps(c telebot.Context) error {
	userID, logCtx, ok, err := h.begin(c, "/cancel_followups")
	if !ok {
		return err
	}

	if err := h.operator.CancelFollowUps(h.ctx, c.Sender().ID, userID); err != nil {
		return h.reply(c, logCtx, err)
	}
	logCtx.Info("Follow-ups cancelled by operator")
	return c.Send(fmt.Sprintf("Follow-ups for %s cancelled for today.", userID))
}

// begin authorizes the sender and extracts the single <userID> argument.
// When ok is false the reply has already been sent and err is its result.
func (h *adminHandlers) begin(c telebot.Context, command string) (string, *logrus.Entry, bool, error) {
	logCtx := h.logger.WithFields(logrus.Fields{
		"handler":   command,
		"sender_id": c.Sender().ID,
	})
	logCtx.Info("Command received")

	if c.Sender().ID != h.adminTelegramID {
		logCtx.Warn("Unauthorized access attempt")
		return "", logCtx, false, c.Send("Error: you are not allowed to use this command.")
	}
	args := c.Args()
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return "", logCtx, false, c.Send(fmt.Sprintf("Usage: %s <userID>", command))
	}
	return args[0], logCtx.WithField("user_id", args[0]), true, nil
}

func (h *adminHandlers) reply(c telebot.Context, logCtx *logrus.Entry, err error) error {
	logWithError := logCtx.WithError(err)
	switch {
	case errors.Is(err, app.ErrAdminNotAuthorized):
		logWithError.Warn("Admin not authorized (service level)")
		return c.Send("Error: you are not allowed to use this command.")
	case errors.Is(err, notification.ErrSettingsNotFound):
		logWithError.Info("User has no notification settings")
		return c.Send("This user has no notification settings.")
	default:
		logWithError.Error("Operator command failed")
		return c.Send(fmt.Sprintf("Command failed (%s). See logs for details.", notification.KindOf(err)))
	}
}

func formatStatus(userID string, st app.FollowUpStatus) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Follow-ups for %s\n", userID)
	switch {
	case st.Decision.ShouldSend:
		fmt.Fprintf(&b, "Decision: follow-up #%d is due now\n", st.Decision.FollowUpCount)
	default:
		fmt.Fprintf(&b, "Decision: hold (%s), count %d\n", st.Decision.Reason, st.Decision.FollowUpCount)
	}
	if st.NextAt != nil {
		fmt.Fprintf(&b, "Next: %s\n", st.NextAt.UTC().Format(time.RFC3339))
	} else {
		b.WriteString("Next: none\n")
	}
	fmt.Fprintf(&b, "Cancelled today: %t", st.Cancelled)
	return b.String()
}
