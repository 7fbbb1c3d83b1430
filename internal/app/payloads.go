package app

import (
	"fmt"

	"journal_reminder_service/internal/domain/notification"

	"github.com/google/uuid"
)

// PayloadBuilder renders the reminder messages. Each payload gets a fresh notification ID.
type PayloadBuilder struct {
	URL   string
	Icon  string
	Badge string
}

func (b PayloadBuilder) Main() notification.Payload {
	return b.build(notification.LogTypeMainReminder,
		"Time to write",
		"Take a minute to record today's entry.")
}

// Chase renders the n-th follow-up (1-based).
func (b PayloadBuilder) Chase(n int) notification.Payload {
	body := "You haven't recorded anything today yet. Keep your streak going!"
	if n > 1 {
		body = fmt.Sprintf("Reminder #%d: today's entry is still waiting for you.", n)
	}
	return b.build(notification.LogTypeChaseReminder, "Don't forget today's entry", body)
}

func (b PayloadBuilder) build(t notification.LogType, title, body string) notification.Payload {
	url := b.URL
	if url == "" {
		url = "/"
	}
	return notification.Payload{
		Title: title,
		Body:  body,
		Icon:  b.Icon,
		Badge: b.Badge,
		Data: &notification.PayloadData{
			URL:            url,
			Type:           string(t),
			NotificationID: uuid.NewString(),
		},
	}
}
