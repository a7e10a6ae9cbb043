// Package clock provides an injectable time source so time-dependent
// components (booking, presence monitoring, retention) stay testable.
// This is part of the platform layer and contains no business logic.
package clock

import "time"

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// NewSystem returns a clock backed by the wall clock, in UTC.
func NewSystem() Clock {
	return systemClock{}
}

// Fixed is a clock pinned to a settable instant, for tests.
type Fixed struct {
	t time.Time
}

// NewFixed returns a clock pinned to t.
func NewFixed(t time.Time) *Fixed {
	return &Fixed{t: t}
}

// Now returns the pinned instant.
func (f *Fixed) Now() time.Time { return f.t }

// Set moves the pinned instant.
func (f *Fixed) Set(t time.Time) { f.t = t }

// Advance moves the pinned instant forward by d.
func (f *Fixed) Advance(d time.Duration) { f.t = f.t.Add(d) }
