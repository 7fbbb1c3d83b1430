package push

import (
	"context"
	"errors"
)

// ErrSubscriptionNotFound means the subscription is already gone.
var ErrSubscriptionNotFound = errors.New("push subscription not found")

// Repository persists push subscriptions.
type Repository interface {
	ListForUser(ctx context.Context, userID string) ([]*Subscription, error)
	Remove(ctx context.Context, subscriptionID string) error
	// Upsert registers sub; a concurrent duplicate endpoint is not an error.
	Upsert(ctx context.Context, sub *Subscription) error
}
