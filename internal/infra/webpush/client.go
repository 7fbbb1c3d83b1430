// Package webpush delivers push messages through the Web Push protocol with VAPID.
package webpush

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"journal_reminder_service/internal/domain/push"

	webpush "github.com/SherClockHolmes/webpush-go"
)

const maxErrorBody = 512

// VAPIDConfig is the application server identity sent with every push.
type VAPIDConfig struct {
	PublicKey  string
	PrivateKey string
	Subject    string // mailto: address or https URL
	TTL        time.Duration
}

// Client implements push.Client. The VAPID configuration is checked once;
// the outcome is reused for the lifetime of the client.
type Client struct {
	cfg        VAPIDConfig
	httpClient *http.Client

	once        sync.Once
	validateErr error
}

func NewClient(cfg VAPIDConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{cfg: cfg, httpClient: httpClient}
}

func (c *Client) Validate() error {
	c.once.Do(func() {
		c.validateErr = validateVAPID(c.cfg)
	})
	return c.validateErr
}

// Send delivers payload to sub. A non-2xx answer is returned as *push.StatusError.
func (c *Client) Send(ctx context.Context, sub *push.Subscription, payload []byte) (int, error) {
	if err := c.Validate(); err != nil {
		return 0, err
	}

	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dhKey,
			Auth:   sub.AuthKey,
		},
	}, &webpush.Options{
		HTTPClient:      c.httpClient,
		Subscriber:      strings.TrimPrefix(c.cfg.Subject, "mailto:"),
		VAPIDPublicKey:  c.cfg.PublicKey,
		VAPIDPrivateKey: c.cfg.PrivateKey,
		TTL:             int(c.cfg.TTL / time.Second),
		Urgency:         webpush.UrgencyNormal,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to send push to %s: %w", endpointHost(sub.Endpoint), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp.StatusCode, nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return resp.StatusCode, &push.StatusError{
		StatusCode: resp.StatusCode,
		Body:       strings.TrimSpace(string(body)),
	}
}

func validateVAPID(cfg VAPIDConfig) error {
	var problems []string
	if cfg.PublicKey == "" {
		problems = append(problems, "VAPID public key is not set")
	} else if pub, err := decodeKey(cfg.PublicKey); err != nil || len(pub) != 65 || pub[0] != 0x04 {
		problems = append(problems, "VAPID public key must be an uncompressed P-256 point")
	}
	if cfg.PrivateKey == "" {
		problems = append(problems, "VAPID private key is not set")
	} else if priv, err := decodeKey(cfg.PrivateKey); err != nil || len(priv) != 32 {
		problems = append(problems, "VAPID private key must be a 32-byte P-256 scalar")
	}
	if strings.TrimSpace(cfg.Subject) == "" {
		problems = append(problems, "VAPID subject is not set")
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// decodeKey accepts URL-safe or standard base64, with or without padding,
// the same alphabets webpush-go reads VAPID keys in.
func decodeKey(s string) ([]byte, error) {
	s = strings.TrimRight(s, "=")
	if b, err := base64.RawURLEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.RawStdEncoding.DecodeString(s)
}

func endpointHost(endpoint string) string {
	rest := endpoint
	if i := strings.Index(rest, "://"); i >= 0 {
		rest = rest[i+3:]
	}
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		rest = rest[:i]
	}
	return rest
}
