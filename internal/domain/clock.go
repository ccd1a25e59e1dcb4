package domain

import "github.com/jonboulle/clockwork"

// clock stamps reports that carry neither a time field nor a message
// timestamp.
var clock = clockwork.NewRealClock()

// SetClock replaces the package time source. nil restores the real clock.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}
