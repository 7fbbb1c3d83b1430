// Package redisledger keeps follow-up cancellation marks in Redis.
package redisledger

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL outlives any local day in any timezone.
const DefaultTTL = 48 * time.Hour

const keyPrefix = "followup:cancel:"

// Ledger is a CancellationLedger on Redis. Marks expire after ttl,
// so Exists answers for the current and previous local day only.
type Ledger struct {
	rdb *redis.Client
	ttl time.Duration
}

func New(rdb *redis.Client, ttl time.Duration) *Ledger {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Ledger{rdb: rdb, ttl: ttl}
}

// NewClient opens a client and checks the connection.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// InsertIfAbsent uses SET NX; an existing mark is success.
func (l *Ledger) InsertIfAbsent(ctx context.Context, userID, localDate string) error {
	if err := l.rdb.SetNX(ctx, Key(userID, localDate), 1, l.ttl).Err(); err != nil {
		return fmt.Errorf("error setting follow-up cancellation: %w", err)
	}
	return nil
}

func (l *Ledger) Exists(ctx context.Context, userID, localDate string) (bool, error) {
	n, err := l.rdb.Exists(ctx, Key(userID, localDate)).Result()
	if err != nil {
		return false, fmt.Errorf("error checking follow-up cancellation: %w", err)
	}
	return n > 0, nil
}

func Key(userID, localDate string) string {
	return keyPrefix + userID + ":" + localDate
}
