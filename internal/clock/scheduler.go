// scheduler.go - Scheduler and Timer contracts shared by Loop and Fake.
package clock

import "time"

// Scheduler schedules callbacks onto a single cooperative queue.
type Scheduler interface {
	Now() time.Time
	// AfterFunc runs fn on the scheduler's queue once d has elapsed.
	AfterFunc(d time.Duration, fn func()) Timer
}

// Timer is a pending AfterFunc callback.
type Timer interface {
	// Stop cancels the callback. Returns false if it already ran or was stopped.
	Stop() bool
}
