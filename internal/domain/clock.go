package domain

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// clock supplies "today". Tests freeze it with SetClock.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source used for chart windows and default dates.
// Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// Today returns the current calendar date at UTC midnight.
func Today() time.Time {
	return truncateDay(clock.Now())
}
