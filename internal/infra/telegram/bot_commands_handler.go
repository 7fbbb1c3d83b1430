// internal/infra/telegram/bot_commands_handler.go
package telegram

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const adminHelp = "Operator commands:\n\n" +
	"`/next_followup <userID>`\n - When the next follow-up is due today.\n\n" +
	"`/followup_status <userID>`\n - Current decision, next time and cancellation.\n\n" +
	"`/cancel_followups <userID>`\n - Stop the remaining follow-ups for today.\n\n" +
	"`/help`\n - Show this message."

func RegisterBotCommands(b *telebot.Bot, adminTelegramID int64, baseLogger *logrus.Entry) {
	startHelpLogger := baseLogger.WithField("handler_group", "start_help")
	b.Handle("/start", startHandler(adminTelegramID, startHelpLogger))
	b.Handle("/help", helpHandler(adminTelegramID, startHelpLogger))
}

func startHandler(adminTelegramID int64, logger *logrus.Entry) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		senderID := c.Sender().ID
		logCtx := logger.WithFields(logrus.Fields{"command": "/start", "sender_id": senderID})
		logCtx.Info("Processing /start command")

		if senderID == adminTelegramID {
			return c.Send(fmt.Sprintf("Hello, %s! The reminder service is running. Use /help for the command list.", c.Sender().FirstName))
		}
		return c.Send("This bot is for the reminder service operator only.")
	}
}

func helpHandler(adminTelegramID int64, logger *logrus.Entry) telebot.HandlerFunc {
	return func(c telebot.Context) error {
		senderID := c.Sender().ID
		logCtx := logger.WithFields(logrus.Fields{"command": "/help", "sender_id": senderID})
		logCtx.Info("Processing /help command")

		if senderID != adminTelegramID {
			return c.Send("No commands are available to you.")
		}
		return c.Send(strings.TrimSpace(adminHelp), &telebot.SendOptions{ParseMode: telebot.ModeMarkdown})
	}
}
