package clock

import "time"

// FakeClock is a manually advanced Clock. Tests use it to cross token expiry
// boundaries and pin settlement timestamps without sleeping.
type FakeClock struct {
	now time.Time
}

func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{now: t.UTC()}
}

func (c *FakeClock) Now() time.Time {
	return c.now
}

// Advance moves the clock forward; it never runs backwards in tests.
func (c *FakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}
