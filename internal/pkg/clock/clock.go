// Package clock injects time. Anything that stamps or compares times takes a
// Clocker so tests can pin the moment; only the composition root constructs
// the real one.
package clock

import "time"

// Clocker is the read-only view of time components depend on.
type Clocker interface {
	Now() time.Time
}

// TimeClocker reads the system clock.
type TimeClocker struct{}

// New returns the production clock.
func New() *TimeClocker {
	return &TimeClocker{}
}

// Now reports the current system time.
func (*TimeClocker) Now() time.Time {
	return time.Now()
}
