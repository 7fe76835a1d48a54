// Package queue implements the wait-queue abstraction: an opaque,
// per-primitive ordered collection of blocked threads. The default
// implementation is FIFO; a 2LS may substitute any implementation that
// honors the same contract.
package queue

import (
	"container/list"

	"github.com/brho/uthsync/sched"
)

// Queue is opaque per-primitive storage for blocked threads. All methods
// are called with the owning primitive's spinlock already held — Queue
// implementations must not do their own locking.
type Queue interface {
	// Enqueue places th at the tail.
	Enqueue(th *sched.Thread)

	// PopNext removes and returns the head, or (nil, false) if empty.
	PopNext() (th *sched.Thread, ok bool)

	// Remove removes th if present, reporting whether it was found. This is
	// the entry point the timeout handler uses to race against a waker.
	Remove(th *sched.Thread) bool

	// Swap atomically (from the caller's point of view — both queues are
	// already protected by the same spinlock) exchanges the full membership
	// of this queue with other's. Used by broadcast to drain a queue onto a
	// throwaway local queue before waking everyone, without holding the
	// spinlock across the wake loop.
	Swap(other Queue)

	// IsEmpty reports whether the queue currently holds no threads.
	IsEmpty() bool
}

// Provider resolves the queue implementation a primitive should use. A 2LS
// that wants custom wait-queue semantics (e.g. priority order) implements
// Provider and installs it per-primitive.
type Provider interface {
	New() Queue
}

// DefaultProvider returns the FIFO default and is used by any primitive that
// isn't configured with a custom queue.Provider.
var DefaultProvider Provider = fifoProvider{}

type fifoProvider struct{}

func (fifoProvider) New() Queue { return NewFIFO() }

// FIFO is the default wait-queue implementation: a plain doubly-linked list,
// unsynchronized — the owning primitive's spinlock is the only protection
// it needs, since every method above is documented as requiring that lock
// already held.
type FIFO struct {
	l *list.List
}

var _ Queue = (*FIFO)(nil)

// NewFIFO returns an empty FIFO wait queue.
func NewFIFO() *FIFO {
	return &FIFO{l: list.New()}
}

// Enqueue places th at the tail and marks it queued, asserting the
// one-queue-at-a-time invariant via sched.Thread.MarkQueued.
func (q *FIFO) Enqueue(th *sched.Thread) {
	th.MarkQueued()
	q.l.PushBack(th)
}

// PopNext removes and returns the head of the queue.
func (q *FIFO) PopNext() (*sched.Thread, bool) {
	e := q.l.Front()
	if e == nil {
		return nil, false
	}
	q.l.Remove(e)
	th := e.Value.(*sched.Thread)
	th.MarkDequeued()
	return th, true
}

// Remove removes th if it is present, for use by the timeout handler racing
// a waker.
func (q *FIFO) Remove(th *sched.Thread) bool {
	for e := q.l.Front(); e != nil; e = e.Next() {
		if e.Value.(*sched.Thread) == th {
			q.l.Remove(e)
			th.MarkDequeued()
			return true
		}
	}
	return false
}

// Swap exchanges this queue's members with other's. other must itself be a
// *FIFO (both sides of a swap are always constructed by the same Provider in
// practice — condition variable broadcast swaps cv's queue with a freshly
// created local queue from the very same provider).
func (q *FIFO) Swap(other Queue) {
	o, ok := other.(*FIFO)
	if !ok {
		panic("queue: FIFO.Swap called with a mismatched Queue implementation")
	}
	q.l, o.l = o.l, q.l
}

// IsEmpty reports whether the queue holds no threads.
func (q *FIFO) IsEmpty() bool {
	return q.l.Len() == 0
}

// Len reports the number of threads currently queued. Not part of the Queue
// interface, but convenient for tests and diagnostics.
func (q *FIFO) Len() int {
	return q.l.Len()
}
