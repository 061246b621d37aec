package lock

import (
	"sync"
	"sync/atomic"
	"time"
)

// DeadlockChecker is an external predicate over a global wait-for
// graph. The Lock treats it as pure and idempotent: it only ever asks
// whether holding holderOwner causes a deadlock for waiterOwner.
type DeadlockChecker interface {
	DeadlockDetected(waiterOwner, holderOwner any) bool
}

// ReleaseHook is invoked once per Request cleanup, after the Request
// has been removed from its Lock's owner index. It takes no arguments
// and returns nothing; a Lock that doesn't care about cleanup events
// passes nil.
type ReleaseHook func()

// Lock is the owner-keyed mutual-exclusion primitive. The zero value is
// not usable; construct one with New. A Lock must not be copied after
// first use.
type Lock struct {
	current     atomic.Pointer[Request]
	queue       *queue
	owners      sync.Map // owner any -> *Request
	timeService TimeService
	releaseHook ReleaseHook
}

// New constructs a Lock. timeService may be nil, in which case
// SystemTimeService is used; releaseHook may be nil, in which case no
// hook runs on cleanup. The TimeService is fixed for the lifetime of
// the Lock — there is no setter, by design (see DESIGN.md).
func New(timeService TimeService, releaseHook ReleaseHook) *Lock {
	if timeService == nil {
		timeService = SystemTimeService{}
	}
	return &Lock{
		queue:       newQueue(),
		timeService: timeService,
		releaseHook: releaseHook,
	}
}

// Acquire returns the Request for owner, creating one if owner has no
// outstanding Request on this Lock. Re-acquiring with an owner that
// already has an outstanding Request is idempotent: the original
// Request is returned unchanged and timeout is ignored. owner must be
// non-nil and comparable (it is used as a map key); timeout must be
// positive. Acquire never blocks — it returns immediately whether or
// not the Request was promoted to Acquired.
func (l *Lock) Acquire(owner any, timeout time.Duration) (*Request, error) {
	if owner == nil || timeout <= 0 {
		return nil, ErrNullArgument
	}
	if existing, ok := l.owners.Load(owner); ok {
		return existing.(*Request), nil
	}

	req := &Request{
		owner:    owner,
		deadline: l.timeService.ExpectedEnd(time.Now(), timeout),
		lock:     l,
		notifier: newNotifier(),
	}

	if actual, loaded := l.owners.LoadOrStore(owner, req); loaded {
		return actual.(*Request), nil
	}

	l.queue.enqueue(req)
	l.handoff(nil)
	return req, nil
}

// Release resolves owner to its outstanding Request, if any, and
// drives it to Released. If that Request currently holds the lock,
// Release runs the handoff protocol to elect the next waiter. Release
// on an owner with no outstanding Request is a no-op.
func (l *Lock) Release(owner any) error {
	if owner == nil {
		return ErrNullArgument
	}
	value, ok := l.owners.Load(owner)
	if !ok {
		return nil
	}
	req := value.(*Request)
	wasCurrent := l.current.Load() == req
	req.setReleased()
	if wasCurrent {
		l.handoff(req)
	}
	return nil
}

// LockOwner returns the owner of the current holder, or nil if the
// lock is free.
func (l *Lock) LockOwner() any {
	if cur := l.current.Load(); cur != nil {
		return cur.owner
	}
	return nil
}

// IsLocked reports whether some Request currently holds the lock. A
// false return does not imply an empty wait queue.
func (l *Lock) IsLocked() bool {
	return l.current.Load() != nil
}

// ContainsOwner reports whether owner has an outstanding Request on
// this Lock.
func (l *Lock) ContainsOwner(owner any) bool {
	_, ok := l.owners.Load(owner)
	return ok
}

// DeadlockCheck asks checker, for every Request still waiting in the
// queue, whether holding the current holder's owner deadlocks that
// waiter. A timeout check runs first for each waiter — timeouts preempt
// deadlock reporting, since detection is the more expensive of the two.
// Waiters the checker flags transition to Deadlocked and are handed off
// past, exactly like an explicit Cancel(Deadlocked).
func (l *Lock) DeadlockCheck(checker DeadlockChecker) {
	cur := l.current.Load()
	if cur == nil {
		return
	}
	holderOwner := cur.owner
	l.queue.forEach(func(p *Request) {
		p.checkTimeout()
		if p.State() != Waiting {
			return
		}
		if p.owner == holderOwner {
			return
		}
		if checker.DeadlockDetected(p.owner, holderOwner) {
			p.cancelTo(Deadlocked)
		}
	})
}

// handoff is the CAS-based protocol that elects the next holder. It
// accepts an optional releaser (the Request vacating current, or nil
// when only a freshly-queued waiter needs a chance at promotion) and
// loops until stable:
//
//  1. Peek the queue head, candidate.
//  2. candidate == nil && releaser == nil: nothing to do.
//  3. candidate == nil && releaser != nil: try to clear current back to
//     nil; return regardless of outcome.
//  4. Otherwise CAS current: releaser -> candidate.
//     - On success, remove candidate from the queue, then attempt to
//       promote it. A successful promotion ends the loop; a failed one
//       (candidate had already left Waiting) retries with
//       releaser = candidate, so the next queued Request gets a turn.
//     - On failure, another actor already moved current; return.
func (l *Lock) handoff(releaser *Request) {
	for {
		candidate := l.queue.peek()
		if candidate == nil {
			if releaser == nil {
				return
			}
			l.current.CompareAndSwap(releaser, nil)
			return
		}
		if !l.current.CompareAndSwap(releaser, candidate) {
			return
		}
		l.queue.removeHead(candidate)
		if candidate.setAcquire() {
			return
		}
		releaser = candidate
	}
}
