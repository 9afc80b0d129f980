package viewer

import "github.com/jonboulle/clockwork"

var clock clockwork.Clock = clockwork.NewRealClock()

// SetClock overrides the package clock. Pass nil to restore the real clock.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}
