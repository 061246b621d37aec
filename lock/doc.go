// Package lock implements an asynchronous, owner-keyed mutual-exclusion
// primitive for coordinating access to a shared resource across
// independent callers.
//
// Unlike a goroutine-oriented mutex, a Lock is held by an arbitrary
// application-supplied owner — typically a transaction id — so the
// goroutine that calls Acquire need not be the one that later calls
// Release. Acquire never blocks; it returns a Request (a lock promise)
// that can be polled with IsAvailable, awaited with Wait, given a
// Listener, or cancelled. Ownership hand-off between the current holder
// and the next waiter is driven entirely by a single compare-and-swap on
// the Lock's "current" slot; the only place a caller ever blocks is
// Request.Wait.
package lock
