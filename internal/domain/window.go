package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidWindow is returned for an unrecognized chart window.
var ErrInvalidWindow = errors.New("invalid window")

// Window selects how far back a chart reaches from today.
type Window string

const (
	Window1Y  Window = "1y"
	Window5Y  Window = "5y"
	WindowAll Window = "all"
)

// ParseWindow parses a window name. The empty string means WindowAll.
func ParseWindow(s string) (Window, error) {
	switch w := Window(s); w {
	case Window1Y, Window5Y, WindowAll:
		return w, nil
	case "":
		return WindowAll, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidWindow, s)
	}
}

// Since returns the earliest date the window keeps, relative to today.
// WindowAll reports false: nothing is cut.
func (w Window) Since(today time.Time) (time.Time, bool) {
	today = truncateDay(today)
	switch w {
	case Window1Y:
		return today.AddDate(-1, 0, 0), true
	case Window5Y:
		return today.AddDate(-5, 0, 0), true
	default:
		return time.Time{}, false
	}
}

// FilterLevels returns the suffix of an ascending series dated on or after
// today minus the window. The result shares storage with series.
func FilterLevels(series []LevelPoint, w Window, today time.Time) []LevelPoint {
	return filterWindow(series, w, today, func(p LevelPoint) time.Time { return p.Date })
}

// FilterRainfall is FilterLevels for rainfall series.
func FilterRainfall(series []RainfallPoint, w Window, today time.Time) []RainfallPoint {
	return filterWindow(series, w, today, func(p RainfallPoint) time.Time { return p.Date })
}

func filterWindow[P any](series []P, w Window, today time.Time, dateOf func(P) time.Time) []P {
	since, ok := w.Since(today)
	if !ok {
		return series
	}
	for i, p := range series {
		if !dateOf(p).Before(since) {
			return series[i:]
		}
	}
	return nil
}
