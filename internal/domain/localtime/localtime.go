// internal/domain/localtime/localtime.go
package localtime

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidTimezone is returned when a timezone name is not a known IANA zone.
var ErrInvalidTimezone = errors.New("configuration error: invalid timezone")

// DateLayout is the layout of a local calendar date ("YYYY-MM-DD").
const DateLayout = "2006-01-02"

// ClockLayout is the layout of a local wall-clock time ("HH:mm").
const ClockLayout = "15:04"

// Boundaries holds the UTC instants of the first and last millisecond of a local day.
type Boundaries struct {
	Start time.Time
	End   time.Time
}

// LoadLocation resolves an IANA timezone name.
// Empty names are rejected instead of silently meaning UTC.
func LoadLocation(timezone string) (*time.Location, error) {
	tz := strings.TrimSpace(timezone)
	if tz == "" {
		return nil, fmt.Errorf("%w: empty timezone", ErrInvalidTimezone)
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidTimezone, tz, err)
	}
	return loc, nil
}

// OffsetMinutes returns the signed offset such that local = UTC + offset.
// The offset is derived for the given instant, so DST transitions are honored.
func OffsetMinutes(timezone string, at time.Time) (int, error) {
	loc, err := LoadLocation(timezone)
	if err != nil {
		return 0, err
	}
	_, offsetSec := at.In(loc).Zone()
	return offsetSec / 60, nil
}

// LocalDateString returns the calendar date of the instant in the zone.
func LocalDateString(timezone string, at time.Time) (string, error) {
	loc, err := LoadLocation(timezone)
	if err != nil {
		return "", err
	}
	return at.In(loc).Format(DateLayout), nil
}

// ClockString returns the zero-padded local "HH:mm" of the instant.
func ClockString(timezone string, at time.Time) (string, error) {
	loc, err := LoadLocation(timezone)
	if err != nil {
		return "", err
	}
	return at.In(loc).Format(ClockLayout), nil
}

// DayOfWeek returns the local weekday of the instant (Sunday = 0).
func DayOfWeek(timezone string, at time.Time) (time.Weekday, error) {
	loc, err := LoadLocation(timezone)
	if err != nil {
		return 0, err
	}
	return at.In(loc).Weekday(), nil
}

// DayBoundaries returns local 00:00:00.000 and 23:59:59.999 of the instant's
// local day, both expressed in UTC.
func DayBoundaries(timezone string, at time.Time) (Boundaries, error) {
	loc, err := LoadLocation(timezone)
	if err != nil {
		return Boundaries{}, err
	}
	start := StartOfDay(at, loc)
	end := start.AddDate(0, 0, 1).Add(-time.Millisecond)
	return Boundaries{Start: start.UTC(), End: end.UTC()}, nil
}

// StartOfDay returns local midnight of the day containing at.
func StartOfDay(at time.Time, loc *time.Location) time.Time {
	local := at.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}

// ParseClock parses a strict 24h "HH:mm" value into minutes since midnight.
func ParseClock(value string) (int, error) {
	if len(value) != 5 || value[2] != ':' {
		return 0, fmt.Errorf("invalid time %q: want HH:mm", value)
	}
	h, okH := twoDigits(value[0:2])
	m, okM := twoDigits(value[3:5])
	if !okH || !okM || h > 23 || m > 59 {
		return 0, fmt.Errorf("invalid time %q: want HH:mm", value)
	}
	return h*60 + m, nil
}

func twoDigits(s string) (int, bool) {
	if s[0] < '0' || s[0] > '9' || s[1] < '0' || s[1] > '9' {
		return 0, false
	}
	return int(s[0]-'0')*10 + int(s[1]-'0'), true
}
