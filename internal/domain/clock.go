package domain

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// clock is a package-level time source so tests can freeze time via SetClock.
// Production code uses the real clock; tests inject a fake so ScoredAt stamps
// are deterministic.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source for scoring. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// Now returns the current time from the package clock, in UTC. ScoredAt and
// ProducedAt stamps serialize to RFC3339, so they must not vary with the
// host timezone of whichever replica scored the snapshot.
func Now() time.Time {
	return clock.Now().UTC()
}
