package uthsync

import (
	"context"
	"sync"

	"github.com/brho/uthsync/alarm"
	"github.com/brho/uthsync/queue"
	"github.com/brho/uthsync/sched"
)

// armTimeout is the shared timeout helper every blocking primitive arms
// before yielding. If ctx carries a deadline, it arms a one-shot alarm whose
// handler — on firing — takes lock, tries to remove th from q, and if that
// succeeds, marks timedOut and makes th runnable again. It returns a disarm
// function that must always be called once the waiter has woken, before
// inspecting timedOut; disarm is a no-op if ctx carried no deadline.
//
// The waiter is expected to arm the timeout *before* yielding: because the
// alarm handler takes the same lock as the enqueue path, whichever of
// "thread already enqueued, handler removes it" or "waker already popped
// thread, handler finds it absent" happens first is well-defined and
// race-free.
func armTimeout(ctx context.Context, th *sched.Thread, q queue.Queue, lock *sync.Mutex, ops sched.Ops) (disarm func() (timedOut bool)) {
	deadline, ok := ctx.Deadline()
	if !ok {
		return func() bool { return false }
	}
	timedOut := false
	w := alarm.Arm(deadline, func() {
		lock.Lock()
		removed := q.Remove(th)
		if removed {
			timedOut = true
		}
		lock.Unlock()
		if removed {
			ops.MakeRunnable(th)
		}
	})
	return func() bool {
		w.Cancel()
		return timedOut
	}
}

// assertCanBlock is the precondition check every blocking entry point makes
// before touching any primitive state: the caller must be running with a
// well-defined current-thread identity. It panics — a programming-error
// precondition failure — if ctx was not produced by sched.Spawn.
func assertCanBlock(ctx context.Context) *sched.Thread {
	return sched.MustFromContext(ctx)
}
