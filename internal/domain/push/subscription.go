// internal/domain/push/subscription.go
package push

import (
	"database/sql"
	"time"
)

// Subscription is one registered browser/device endpoint for Web Push.
// Corresponds to the 'push_subscriptions' table; endpoint is unique.
type Subscription struct {
	ID        string
	UserID    string
	Endpoint  string
	P256dhKey string
	AuthKey   string
	UserAgent sql.NullString
	CreatedAt time.Time
}
