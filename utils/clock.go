package utils

import "time"

// Clock abstracts "now" so entitlement and slot logic can be tested with a
// controlled date instead of the system clock.
type Clock interface {
	Now() time.Time
	Today() string // "2006-01-02" in the studio's local time
}

// SystemClock is the production Clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) Today() string { return time.Now().Format("2006-01-02") }

// FixedClock returns a constant instant; test helper.
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time { return c.T }

func (c FixedClock) Today() string { return c.T.Format("2006-01-02") }
