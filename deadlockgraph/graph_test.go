package deadlockgraph

import (
	"context"
	"testing"
	"time"

	"gridlock/lock"
	"gridlock/registry"
)

func TestScanOnceBreaksTwoResourceCycle(t *testing.T) {
	reg := registry.New(nil, nil)

	// txn-1 holds "a", waits on "b". txn-2 holds "b", waits on "a".
	acquireHeld(t, reg, "a", "txn-1")
	acquireHeld(t, reg, "b", "txn-2")
	bWaiter := acquireQueued(t, reg, "b", "txn-1") // txn-1 now waiting on "b"
	aWaiter := acquireQueued(t, reg, "a", "txn-2") // txn-2 now waiting on "a"

	s := New(reg, time.Hour, nil)
	broken := s.ScanOnce()
	if broken == 0 {
		t.Fatal("expected ScanOnce to break at least one cycle")
	}

	// One of the two waiters must now be Deadlocked.
	aDeadlocked := aWaiter.State() == lock.Deadlocked
	bDeadlocked := bWaiter.State() == lock.Deadlocked
	if !aDeadlocked && !bDeadlocked {
		t.Fatal("expected one of the two waiters to be Deadlocked")
	}
}

func TestScanOnceIsNoopWithoutContention(t *testing.T) {
	reg := registry.New(nil, nil)
	acquireHeld(t, reg, "solo", "txn-1")

	s := New(reg, time.Hour, nil)
	if broken := s.ScanOnce(); broken != 0 {
		t.Fatalf("ScanOnce = %d, want 0 with no waiters", broken)
	}
}

// acquireHeld acquires key for owner on a lock expected to be free, and
// waits for the immediate grant.
func acquireHeld(t *testing.T, reg *registry.Registry, key string, owner any) *lock.Request {
	t.Helper()
	req, err := reg.Acquire(key, owner, 5*time.Second)
	if err != nil {
		t.Fatalf("Acquire(%s, %v): %v", key, owner, err)
	}
	if err := req.Wait(context.Background()); err != nil {
		t.Fatalf("Wait(%s, %v): %v", key, owner, err)
	}
	return req
}

// acquireQueued acquires key for owner on a lock expected to be held by
// someone else, without waiting for the grant.
func acquireQueued(t *testing.T, reg *registry.Registry, key string, owner any) *lock.Request {
	t.Helper()
	req, err := reg.Acquire(key, owner, 5*time.Second)
	if err != nil {
		t.Fatalf("Acquire(%s, %v): %v", key, owner, err)
	}
	return req
}
