package service

import "time"

// Clock abstracts the current time so event application is testable against
// fixed instants. All progression semantics (day rollover, streak evaluation,
// review scheduling) derive from the single instant captured per operation.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock reading the wall clock in UTC.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
