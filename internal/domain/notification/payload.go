package notification

// Payload is the JSON body delivered as the push message.
type Payload struct {
	Title string       `json:"title"`
	Body  string       `json:"body"`
	Icon  string       `json:"icon,omitempty"`
	Badge string       `json:"badge,omitempty"`
	Data  *PayloadData `json:"data,omitempty"`
}

type PayloadData struct {
	URL            string `json:"url"`
	Type           string `json:"type"`
	NotificationID string `json:"notificationId"`
}

// SendResult is the outcome of a push to one device.
type SendResult struct {
	SubscriptionID string `json:"subscriptionId"`
	Success        bool   `json:"success"`
	StatusCode     int    `json:"statusCode,omitempty"`
	Error          string `json:"error,omitempty"`
	ShouldRemove   bool   `json:"shouldRemove,omitempty"`
}
