package uthsync

import (
	"context"
	"sync"

	"github.com/brho/uthsync/sched"
)

// RecursiveMutex is an owner-tracking wrapper over Mutex: the same thread
// may lock it repeatedly without deadlocking itself, and must unlock it the
// same number of times before another thread can acquire it.
//
// Only the owning thread's own goroutine may ever read or write owner/count
// (other than the none -> new-owner transition, which happens while holding
// the embedded mutex) — a thread is single-threaded with respect to itself,
// so no additional locking protects those two fields.
type RecursiveMutex struct {
	once  sync.Once
	mtx   Mutex
	owner *sched.Thread
	count uint
}

// NewRecursiveMutex allocates and initializes an unlocked recursive mutex.
func NewRecursiveMutex(opts ...Option) *RecursiveMutex {
	r := &RecursiveMutex{}
	r.Init(opts...)
	return r
}

// Init initializes a recursive mutex acquired from elsewhere.
func (r *RecursiveMutex) Init(opts ...Option) {
	r.mtx.Init(opts...)
	r.owner = nil
	r.count = 0
	r.once.Do(func() {})
}

func (r *RecursiveMutex) ensureInit() {
	r.once.Do(func() {
		r.mtx.ensureInit()
		r.owner = nil
		r.count = 0
	})
}

// Destroy undoes Init/NewRecursiveMutex; panics if still contended.
func (r *RecursiveMutex) Destroy() { r.mtx.Destroy() }

// Free is an alias for Destroy.
func (r *RecursiveMutex) Free() { r.mtx.Free() }

// Lock blocks until the calling thread holds the lock, incrementing the
// recursion count if it already does. If ctx carries a deadline that elapses
// before a *new* acquisition completes, Lock returns false, leaving
// owner/count untouched; an already-owning caller's Lock never fails.
func (r *RecursiveMutex) Lock(ctx context.Context) bool {
	th := assertCanBlock(ctx)
	r.ensureInit()
	if r.owner == th {
		r.count++
		return true
	}
	if !r.mtx.Lock(ctx) {
		return false
	}
	r.owner = th
	r.count = 1
	return true
}

// TryLock is Lock's non-blocking counterpart.
func (r *RecursiveMutex) TryLock(ctx context.Context) bool {
	th := assertCanBlock(ctx)
	r.ensureInit()
	if r.owner == th {
		r.count++
		return true
	}
	if !r.mtx.TryLock(ctx) {
		return false
	}
	r.owner = th
	r.count = 1
	return true
}

// Unlock decrements the recursion count; once it reaches zero, the owner is
// cleared and the embedded mutex is released.
func (r *RecursiveMutex) Unlock() {
	r.ensureInit()
	r.count--
	if r.count == 0 {
		r.owner = nil
		r.mtx.Unlock()
	}
}
