// internal/domain/notification/errors.go
package notification

import (
	"errors"
	"fmt"
	"strings"

	"journal_reminder_service/internal/domain/localtime"
)

// Error kinds shared by every layer. Wrap them with %w and match with errors.Is.
var (
	ErrValidation       = errors.New("validation error")
	ErrSettingsNotFound = errors.New("notification settings not found")
	ErrDatabase         = errors.New("database error")
	ErrVAPID            = errors.New("vapid configuration error")
	ErrNoSubscriptions  = errors.New("no push subscriptions")
	ErrAllFailed        = errors.New("all push sends failed")
	ErrConfiguration    = localtime.ErrInvalidTimezone
)

// Kind is the stable, machine-readable name of an error kind.
type Kind string

const (
	KindValidation       Kind = "VALIDATION_ERROR"
	KindSettingsNotFound Kind = "SETTINGS_NOT_FOUND"
	KindDatabase         Kind = "DATABASE_ERROR"
	KindVAPID            Kind = "VAPID_ERROR"
	KindNoSubscriptions  Kind = "NO_SUBSCRIPTIONS"
	KindAllFailed        Kind = "ALL_FAILED"
	KindConfiguration    Kind = "CONFIGURATION_ERROR"
	KindUnexpected       Kind = "UNEXPECTED_ERROR"
)

var kinds = []struct {
	err  error
	kind Kind
}{
	{ErrValidation, KindValidation},
	{ErrSettingsNotFound, KindSettingsNotFound},
	{ErrVAPID, KindVAPID},
	{ErrNoSubscriptions, KindNoSubscriptions},
	{ErrAllFailed, KindAllFailed},
	{ErrConfiguration, KindConfiguration},
	{ErrDatabase, KindDatabase},
}

// KindOf maps err to its kind. Unknown non-nil errors are KindUnexpected; nil is "".
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindUnexpected
}

// WrapDatabase tags a storage failure with ErrDatabase unless it already carries a kind.
func WrapDatabase(op string, err error) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != KindUnexpected {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrDatabase, op, err)
}

// AllFailedError is returned when every device send failed. Results keeps the
// per-device outcome in subscription order.
type AllFailedError struct {
	Results []SendResult
}

func (e *AllFailedError) Error() string {
	msgs := make([]string, 0, len(e.Results))
	for _, r := range e.Results {
		msgs = append(msgs, fmt.Sprintf("%s: %s", r.SubscriptionID, r.Error))
	}
	return fmt.Sprintf("%s (%d devices): %s", ErrAllFailed, len(e.Results), strings.Join(msgs, "; "))
}

// Is makes errors.Is(err, ErrAllFailed) true.
func (e *AllFailedError) Is(target error) bool {
	return target == ErrAllFailed
}
