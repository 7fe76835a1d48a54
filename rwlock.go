package uthsync

import (
	"context"
	"sync"

	"github.com/brho/uthsync/queue"
	"github.com/brho/uthsync/sched"
)

// RWMutex is a shared/exclusive lock with a writer-preferring unlock
// policy: a writer waiting at unlock time is always promoted ahead of any
// waiting readers, but readers may freely acquire the lock while no writer
// holds it and none is being promoted.
//
// State machine: Free ⇌ Reading(n≥1) ⇌ Writing. Free->Reading and
// Free->Writing happen only via the acquire fast paths below; Reading->Free
// happens on the last reader's Unlock (which may immediately promote a
// waiting writer, skipping Free); Writing->{Reading,Writing,Free} happens
// only on a writer's Unlock.
type RWMutex struct {
	once      sync.Once
	spin      sync.Mutex
	nrReaders uint
	hasWriter bool
	readers   queue.Queue
	writers   queue.Queue
	cfg       config
}

// NewRWMutex allocates and initializes an unlocked reader-writer lock.
func NewRWMutex(opts ...Option) *RWMutex {
	rw := &RWMutex{}
	rw.Init(opts...)
	return rw
}

// Init initializes a reader-writer lock acquired from elsewhere.
func (rw *RWMutex) Init(opts ...Option) {
	rw.cfg = newConfig(opts)
	rw.readers = rw.cfg.provider.New()
	rw.writers = rw.cfg.provider.New()
	rw.once.Do(func() {})
}

func (rw *RWMutex) ensureInit() {
	rw.once.Do(func() {
		rw.cfg = defaultConfig()
		rw.readers = rw.cfg.provider.New()
		rw.writers = rw.cfg.provider.New()
	})
}

// Destroy undoes Init/NewRWMutex; panics if either queue still has waiters.
func (rw *RWMutex) Destroy() {
	rw.ensureInit()
	rw.spin.Lock()
	defer rw.spin.Unlock()
	if !rw.readers.IsEmpty() || !rw.writers.IsEmpty() {
		panic("uthsync: RWMutex.Destroy called with waiters still queued")
	}
}

// Free is an alias for Destroy.
func (rw *RWMutex) Free() { rw.Destroy() }

// RLock blocks until the calling thread holds a shared (reader) lock. It
// fails only if ctx's deadline elapses first.
func (rw *RWMutex) RLock(ctx context.Context) bool {
	th := assertCanBlock(ctx)
	rw.ensureInit()
	rw.spin.Lock()
	if !rw.hasWriter {
		rw.nrReaders++
		rw.spin.Unlock()
		return true
	}
	disarm := armTimeout(ctx, th, rw.readers, &rw.spin, rw.cfg.ops)
	rw.cfg.log.Debug().Uint64("thread", th.ID()).Log("rwlock rlock blocked")
	sched.Yield(th, func() {
		rw.cfg.ops.ThreadHasBlocked(th, sched.BlockMutex)
		rw.readers.Enqueue(th)
		rw.spin.Unlock()
	})
	return !disarm()
}

// TryRLock acquires a shared lock only if no writer currently holds or is
// being promoted.
func (rw *RWMutex) TryRLock(ctx context.Context) bool {
	assertCanBlock(ctx)
	rw.ensureInit()
	rw.spin.Lock()
	defer rw.spin.Unlock()
	if rw.hasWriter {
		return false
	}
	rw.nrReaders++
	return true
}

// Lock blocks until the calling thread holds the exclusive (writer) lock.
// It fails only if ctx's deadline elapses first.
func (rw *RWMutex) Lock(ctx context.Context) bool {
	th := assertCanBlock(ctx)
	rw.ensureInit()
	rw.spin.Lock()
	if !rw.hasWriter && rw.nrReaders == 0 {
		rw.hasWriter = true
		rw.spin.Unlock()
		return true
	}
	disarm := armTimeout(ctx, th, rw.writers, &rw.spin, rw.cfg.ops)
	rw.cfg.log.Debug().Uint64("thread", th.ID()).Log("rwlock lock blocked")
	sched.Yield(th, func() {
		rw.cfg.ops.ThreadHasBlocked(th, sched.BlockMutex)
		rw.writers.Enqueue(th)
		rw.spin.Unlock()
	})
	return !disarm()
}

// TryLock acquires the exclusive lock only if it is immediately free: no
// writer holds it and no reader is inside their critical section.
func (rw *RWMutex) TryLock(ctx context.Context) bool {
	assertCanBlock(ctx)
	rw.ensureInit()
	rw.spin.Lock()
	defer rw.spin.Unlock()
	if rw.hasWriter || rw.nrReaders > 0 {
		return false
	}
	rw.hasWriter = true
	return true
}

// Unlock releases either a reader or a writer hold, whichever the calling
// thread actually has. The lock itself carries no record of which: it is
// the caller's responsibility to call Unlock exactly once per successful
// RLock/Lock (or TryRLock/TryLock), matching Mutex.Unlock, which likewise
// does not check the caller against the holder.
//
// Writer unlock and reader unlock are kept as two separate unexported
// helpers, rather than folded into one branch, because their restart-set
// construction differs enough that merging them would obscure both.
func (rw *RWMutex) Unlock() {
	rw.ensureInit()
	if rw.hasWriter {
		rw.unlockWriter()
	} else {
		rw.unlockReader()
	}
}

// unlockWriter implements the writer side of Unlock: a queued writer is
// promoted directly (ownership transfers without ever observing Free); only
// if none is queued does the lock open up to draining the entire reader
// queue at once. The restart set is built under rw.spin so the state
// transition and the eventual wakeups stay consistent, and the actual wake
// calls happen after rw.spin is released.
func (rw *RWMutex) unlockWriter() {
	rw.spin.Lock()
	if th, ok := rw.writers.PopNext(); ok {
		rw.spin.Unlock()
		rw.cfg.ops.MakeRunnable(th)
		return
	}
	rw.hasWriter = false
	if rw.readers.IsEmpty() {
		rw.spin.Unlock()
		return
	}
	restartees := rw.cfg.provider.New()
	rw.readers.Swap(restartees)
	var drained []*sched.Thread
	for {
		th, ok := restartees.PopNext()
		if !ok {
			break
		}
		drained = append(drained, th)
	}
	rw.nrReaders += uint(len(drained))
	rw.spin.Unlock()
	wakeThreads(drained, rw.cfg.ops)
}

// unlockReader implements the reader side of Unlock: decrementing
// nr_readers, and promoting a single queued writer if this was the last
// reader out.
func (rw *RWMutex) unlockReader() {
	rw.spin.Lock()
	rw.nrReaders--
	if rw.nrReaders > 0 {
		rw.spin.Unlock()
		return
	}
	th, ok := rw.writers.PopNext()
	if ok {
		rw.hasWriter = true
	}
	rw.spin.Unlock()
	if ok {
		rw.cfg.ops.MakeRunnable(th)
	}
}

