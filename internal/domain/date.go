package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the ISO calendar date format used on every wire boundary.
const DateLayout = "2006-01-02"

const (
	monthLayout = "2006-01"
	yearLayout  = "2006"
)

// ErrInvalidDate is returned when a date string cannot be parsed.
var ErrInvalidDate = errors.New("invalid date")

// ParseDate parses the date-only part of s. It accepts "YYYY-MM-DD",
// longer timestamps that start with one ("2024-05-01T08:00:00",
// "2024-05-01 08:00"), monthly labels ("YYYY-MM") and yearly labels
// ("YYYY"), the last two read as the first day of the period. The result is
// UTC midnight.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var (
		t   time.Time
		err error
	)
	switch {
	case len(s) >= len(DateLayout):
		t, err = time.Parse(DateLayout, s[:len(DateLayout)])
	case len(s) == len(monthLayout):
		t, err = time.Parse(monthLayout, s)
	case len(s) == len(yearLayout):
		t, err = time.Parse(yearLayout, s)
	default:
		err = errors.New("unrecognized layout")
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// FormatDate renders t as "YYYY-MM-DD". The zero time renders as "".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateLayout)
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
