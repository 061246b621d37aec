package lock

import "errors"

// Sentinel errors returned by the Lock and Request API. Callers should
// compare with errors.Is, since Wait wraps ErrInterrupted with the
// underlying context error.
var (
	// ErrNullArgument is returned by Acquire when owner is nil or timeout
	// is not positive. This is a programming error, not a race outcome.
	ErrNullArgument = errors.New("lock: owner and timeout are required")

	// ErrTimeout is returned by Wait when the deadline passed before the
	// Request was promoted to Acquired.
	ErrTimeout = errors.New("lock: acquisition timed out")

	// ErrDeadlock is returned by Wait when an external DeadlockChecker
	// reported a cycle involving this Request.
	ErrDeadlock = errors.New("lock: deadlock detected")

	// ErrIllegalState is returned by Wait when the Request was already
	// Released before the wait observed any other state. Waiting on an
	// already-released request is a programming error.
	ErrIllegalState = errors.New("lock: request already released")

	// ErrIllegalArgument is returned by Cancel when target is not
	// TimedOut or Deadlocked.
	ErrIllegalArgument = errors.New("lock: cancel target must be TimedOut or Deadlocked")

	// ErrInterrupted is wrapped, together with ctx.Err(), in the error
	// Wait returns when its context is cancelled. Interruption does not
	// alter the Request's state.
	ErrInterrupted = errors.New("lock: wait interrupted")
)
