// Package clock abstracts the time operations used by timer-driven
// controllers so tests can drive them without real waits.
package clock

import "time"

// Clock is injected into every component that schedules work. Production
// code uses Real(); tests use Fake() and call Advance.
type Clock interface {
	Now() time.Time

	// AfterFunc calls f once d has elapsed. With the fake clock f runs
	// synchronously inside Advance.
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a pending AfterFunc call.
type Timer interface {
	// Stop cancels the call. It returns false if the call already
	// happened or was stopped before.
	Stop() bool
}
