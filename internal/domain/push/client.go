package push

import (
	"context"
	"fmt"
	"net/http"
)

// Client delivers an encrypted payload to a subscription endpoint.
// This decouples the dispatcher from the Web Push library.
type Client interface {
	// Validate reports whether the client is configured to send at all.
	Validate() error
	// Send returns the push service status code. Non-2xx answers are *StatusError.
	Send(ctx context.Context, sub *Subscription, payload []byte) (int, error)
}

// StatusError is a non-success answer from the push service.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("push service responded %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("push service responded %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

// Gone reports whether the endpoint is permanently dead (HTTP 410).
func (e *StatusError) Gone() bool {
	return e.StatusCode == http.StatusGone
}
