// Package registry maps string resource keys to independent lock.Lock
// instances, creating each lazily on first use the way
// DefaultLockManager keeps one ResourceLock per resource string.
package registry

import (
	"sync"
	"time"

	"gridlock/internal/telemetry"
	"gridlock/lock"
)

// Registry lazily creates and hands out a *lock.Lock per resource key.
// Every lock it creates shares the Registry's TimeService and logs
// release events through its Logger. The zero value is not usable;
// construct one with New.
type Registry struct {
	mu    sync.RWMutex
	locks map[string]*lock.Lock
	ts    lock.TimeService
	log   *telemetry.Logger
}

// New constructs a Registry. ts may be nil, in which case
// lock.SystemTimeService is used; logger may be nil, in which case
// registry events are discarded.
func New(ts lock.TimeService, logger *telemetry.Logger) *Registry {
	if ts == nil {
		ts = lock.SystemTimeService{}
	}
	if logger == nil {
		logger = telemetry.New(telemetry.LevelError + 1) // effectively silent
	}
	return &Registry{
		locks: make(map[string]*lock.Lock),
		ts:    ts,
		log:   logger,
	}
}

// Get returns the Lock for key, creating it if this is the first
// reference to key.
func (r *Registry) Get(key string) *lock.Lock {
	r.mu.RLock()
	l, ok := r.locks[key]
	r.mu.RUnlock()
	if ok {
		return l
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.locks[key]; ok {
		return l
	}

	l = lock.New(r.ts, func() {
		r.log.Debug("registry", "release", "request released", map[string]interface{}{"key": key})
	})
	r.locks[key] = l
	r.log.Info("registry", "create", "resource lock created", map[string]interface{}{"key": key})
	return l
}

// Acquire is a convenience wrapper: Get(key).Acquire(owner, timeout).
func (r *Registry) Acquire(key string, owner any, timeout time.Duration) (*lock.Request, error) {
	return r.Get(key).Acquire(owner, timeout)
}

// Release is a convenience wrapper: Get(key).Release(owner). It is a
// no-op if key has never been referenced.
func (r *Registry) Release(key string, owner any) error {
	r.mu.RLock()
	l, ok := r.locks[key]
	r.mu.RUnlock()
	if !ok {
		return nil
	}
	return l.Release(owner)
}

// Keys returns a snapshot of every resource key currently tracked.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.locks))
	for k := range r.locks {
		keys = append(keys, k)
	}
	return keys
}

// ForEach applies f to every (key, Lock) pair currently tracked. f must
// not call back into the Registry.
func (r *Registry) ForEach(f func(key string, l *lock.Lock)) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for k, l := range r.locks {
		f(k, l)
	}
}

// Len reports how many resource keys the Registry is tracking.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.locks)
}
