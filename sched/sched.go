package sched

import (
	"context"
)

// BlockKind enumerates why a thread told the 2LS it had blocked. The sync
// core only ever reports one kind today, but the type exists so a 2LS can
// distinguish sync-core blocks from other external blocking sources without
// us having to revisit the interface.
type BlockKind int

// BlockMutex is the only BlockKind reported today: semaphores, mutexes,
// condition variables, and rwlocks all block the same way from the 2LS's
// point of view ("mutex-class wait").
const BlockMutex BlockKind = 0

// Ops is the 2LS interface every synchronization primitive is built on top
// of. Every method is mandatory on this interface — the "optional, falls
// back to default" knobs are the sync-specific ones living in package queue
// (queue.Provider) and the BulkWaker below.
type Ops interface {
	// ThreadHasBlocked notifies the 2LS that th has entered an external
	// blocked state. It is called with the owning primitive's spinlock
	// still held, and must not itself block or re-enter the sync core.
	ThreadHasBlocked(th *Thread, kind BlockKind)

	// MakeRunnable schedules th to run again. It is always called after the
	// caller has released the relevant spinlock.
	MakeRunnable(th *Thread)
}

// BulkWaker is an optional fast path a 2LS may implement for broadcast-style
// wakeups. If Ops does not also implement BulkWaker, the sync core wakes
// each thread individually via MakeRunnable.
type BulkWaker interface {
	// ThreadBulkRunnable wakes every thread in ths at once. Order is
	// unspecified; a 2LS implementing this may reorder wakeups relative to
	// the individual-wake path.
	ThreadBulkRunnable(ths []*Thread)
}

// GoroutineScheduler is the default 2LS: every uthread is exactly one
// goroutine, "blocked" means parked on a channel receive, and
// "make runnable" means closing that channel. Spawn is how callers create
// threads that the rest of this module recognizes.
type GoroutineScheduler struct{}

var _ Ops = GoroutineScheduler{}
var _ BulkWaker = GoroutineScheduler{}

// Default is the package-level default scheduler, used by every primitive
// that isn't configured with an explicit sched.Ops.
var Default Ops = GoroutineScheduler{}

// ThreadHasBlocked is a no-op for the goroutine scheduler: there is no
// run-queue bookkeeping to update, since the Go runtime scheduler parks the
// goroutine itself at the channel receive in Yield, right after cb returns.
func (GoroutineScheduler) ThreadHasBlocked(*Thread, BlockKind) {}

// MakeRunnable unparks th by closing its wake channel.
func (GoroutineScheduler) MakeRunnable(th *Thread) {
	th.signalWake()
}

// ThreadBulkRunnable wakes every thread in ths. The goroutine scheduler has
// no faster bulk primitive than looping (closing N channels is already
// O(N) with no syscalls), but it's provided so broadcast call sites can
// always go through the same BulkWaker type-assertion path a custom 2LS
// would use.
func (GoroutineScheduler) ThreadBulkRunnable(ths []*Thread) {
	for _, th := range ths {
		th.signalWake()
	}
}

// Spawn starts fn in a new goroutine with its own Thread identity attached
// to ctx, and returns that Thread so the caller can join on it if desired
// (via a channel of its own — Spawn itself does not provide join semantics,
// matching parlib's uthread_create, which is fire-and-forget).
func Spawn(ctx context.Context, fn func(ctx context.Context)) *Thread {
	th := NewThread()
	go fn(WithThread(ctx, th))
	return th
}

// Yield is the atomic "enqueue and block" primitive every synchronization
// primitive is built around. cb runs synchronously, with the primitive's
// spinlock still held; it must enqueue th on the relevant wait queue and
// then release that spinlock before returning. Only once cb has returned
// does Yield park th, so no waker can observe th as runnable before its
// continuation (cb) has finished recording where to find it.
//
// Lock ordering: cb may call Ops.ThreadHasBlocked while still holding the
// primitive's spinlock; the 2LS must not acquire the primitive's spinlock
// from within ThreadHasBlocked, which is what lets wakers safely call
// MakeRunnable only after releasing that same spinlock.
func Yield(th *Thread, cb func()) {
	th.arm()
	cb()
	th.park()
}
