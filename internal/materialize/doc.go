// doc.go - Package documentation for the virtualized-list materializer.

// Package materialize drives a virtualized grid until every row it would
// otherwise only render on demand has been observed.
//
// The Driver advances the host's scroll offset one step at a time, absorbs
// the mounted rows into an append-only Registry keyed by item index, backs
// up when the new window skipped indices, and stops once scroll geometry no
// longer changes across a settle interval. The Controller owns the session:
// it starts at most one Driver per page-state generation and resets
// everything when the underlying dataset is refreshed.
//
// Every callback runs on a clock.Scheduler, so no locking is needed inside
// this package. Callers outside the scheduler goroutine must post onto it.
package materialize
