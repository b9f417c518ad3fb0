// Package clock abstracts the two time operations the recorder needs,
// reading the current instant and scheduling a callback, so that phase
// timers can be driven deterministically in tests.
//
// Production code uses Real(). Tests use Fake(start) and call Advance to
// fire due callbacks synchronously, in deadline order.
package clock

import "time"

// Clock provides the current time and delayed callbacks.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// AfterFunc calls f once d has elapsed. The returned Timer can
	// cancel the pending call.
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a pending AfterFunc callback.
type Timer interface {
	// Stop prevents the callback from running. It reports whether the
	// call stopped the timer; false means it already fired or was
	// stopped before.
	Stop() bool
}
