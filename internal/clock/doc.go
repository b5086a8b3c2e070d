// doc.go - Package documentation for the scheduling abstraction.

// Package clock provides the scheduler the materializer runs on.
//
// Every materialization callback executes on a single cooperative queue: the
// real Loop drains timers and posted work on one goroutine, while Fake fires
// timers synchronously from Advance so driver tests are deterministic.
package clock
