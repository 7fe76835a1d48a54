package uthsync

import (
	"context"
	"sync"

	"github.com/brho/uthsync/queue"
	"github.com/brho/uthsync/sched"
)

// CondVar is a condition variable: it has no count and no mutex of its own.
// Callers must hold the mutex passed to Wait themselves; signallers are not
// required to, though the standard "invariant guarded by a mutex" pattern
// requires it to avoid lost wakeups — left to the application, not enforced
// here.
type CondVar struct {
	once sync.Once
	spin sync.Mutex
	q    queue.Queue
	cfg  config
}

// NewCondVar allocates and initializes a condition variable.
func NewCondVar(opts ...Option) *CondVar {
	cv := &CondVar{}
	cv.Init(opts...)
	return cv
}

// Init initializes a condition variable acquired from elsewhere.
func (cv *CondVar) Init(opts ...Option) {
	cv.cfg = newConfig(opts)
	cv.q = cv.cfg.provider.New()
	cv.once.Do(func() {})
}

func (cv *CondVar) ensureInit() {
	cv.once.Do(func() {
		cv.cfg = defaultConfig()
		cv.q = cv.cfg.provider.New()
	})
}

// Destroy undoes Init/NewCondVar; panics if threads are still waiting.
func (cv *CondVar) Destroy() {
	cv.ensureInit()
	cv.spin.Lock()
	defer cv.spin.Unlock()
	if !cv.q.IsEmpty() {
		panic("uthsync: CondVar.Destroy called with waiters still queued")
	}
}

// Free is an alias for Destroy.
func (cv *CondVar) Free() { cv.Destroy() }

// threadOnlyContext strips any deadline from ctx while preserving the
// current-thread identity sched.MustFromContext relies on. Used to
// reacquire mtx after waking: the mutex must always be reacquired
// unconditionally — a timeout applies only to waiting for the signal, never
// to getting the mutex back.
func threadOnlyContext(ctx context.Context) context.Context {
	th := sched.MustFromContext(ctx)
	return sched.WithThread(context.Background(), th)
}

// Wait atomically releases mtx and blocks the caller on cv; on return
// (whether by signal, broadcast, or timeout) mtx is held again. The caller
// must hold mtx when calling Wait. It returns true if woken by a
// signal/broadcast, false if ctx's deadline elapsed first.
func (cv *CondVar) Wait(ctx context.Context, mtx *Mutex) bool {
	th := assertCanBlock(ctx)
	cv.ensureInit()
	cv.spin.Lock()
	disarm := armTimeout(ctx, th, cv.q, &cv.spin, cv.cfg.ops)
	cv.cfg.log.Debug().Uint64("thread", th.ID()).Log("cond wait blocked")
	// Atomically: enqueue on cv's queue, release cv's spin, then release
	// mtx. Releasing mtx after cv's spin (rather than under it) avoids a
	// lock-ordering cycle between the two spinlocks, which have no defined
	// order relative to each other. The thread is already visible to signallers
	// the instant cv's spin is released, so the only thing mtx's release
	// can race against is a waker that merely tries to make this thread
	// runnable — it never touches mtx itself.
	sched.Yield(th, func() {
		cv.cfg.ops.ThreadHasBlocked(th, sched.BlockMutex)
		cv.q.Enqueue(th)
		cv.spin.Unlock()
		mtx.Unlock()
	})
	timedOut := disarm()
	cv.cfg.log.Debug().Uint64("thread", th.ID()).Bool("timed_out", timedOut).Log("cond wait woke")
	mtx.Lock(threadOnlyContext(ctx))
	return !timedOut
}

// WaitRecurse is Wait for a RecursiveMutex: the full recursion depth is
// surrendered for the duration of the wait and exactly restored on return.
func (cv *CondVar) WaitRecurse(ctx context.Context, r *RecursiveMutex) bool {
	th := assertCanBlock(ctx)
	r.ensureInit()
	savedCount := r.count
	r.owner = nil
	r.count = 0
	ret := cv.Wait(ctx, &r.mtx)
	r.owner = th
	r.count = savedCount
	return ret
}

// Signal wakes at most one waiter, preferring the one that has waited
// longest under the default FIFO queue.
func (cv *CondVar) Signal() {
	cv.ensureInit()
	cv.spin.Lock()
	th, popped := cv.q.PopNext()
	cv.spin.Unlock()
	if popped {
		cv.cfg.ops.MakeRunnable(th)
	}
}

// Broadcast wakes every current waiter. It is a no-op on an empty cv. The
// queue is swapped out to a throwaway local queue before waking anyone, so
// the (potentially expensive) wake loop never runs with cv's spin held.
func (cv *CondVar) Broadcast() {
	cv.ensureInit()
	cv.spin.Lock()
	if cv.q.IsEmpty() {
		cv.spin.Unlock()
		return
	}
	restartees := cv.cfg.provider.New()
	cv.q.Swap(restartees)
	cv.spin.Unlock()
	wakeAll(restartees, cv.cfg.ops)
}

// wakeAll drains q and wakes every thread found, preferring the 2LS's
// bulk-wake fast path if it offers one.
func wakeAll(q queue.Queue, ops sched.Ops) {
	var ths []*sched.Thread
	for {
		th, ok := q.PopNext()
		if !ok {
			break
		}
		ths = append(ths, th)
	}
	wakeThreads(ths, ops)
}

// wakeThreads wakes every thread in ths, preferring the 2LS's bulk-wake
// fast path if it offers one.
func wakeThreads(ths []*sched.Thread, ops sched.Ops) {
	if len(ths) == 0 {
		return
	}
	if bulk, ok := ops.(sched.BulkWaker); ok {
		bulk.ThreadBulkRunnable(ths)
		return
	}
	for _, th := range ths {
		ops.MakeRunnable(th)
	}
}
