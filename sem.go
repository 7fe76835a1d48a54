package uthsync

import (
	"context"
	"sync"

	"github.com/brho/uthsync/queue"
	"github.com/brho/uthsync/sched"
)

// Semaphore is a counting semaphore: the foundation Mutex is built on. Its
// zero value takes the count passed to Init once Init is called, or is
// ready to lazily initialize itself (with count 0) on first use if neither
// Init nor a New* constructor was used.
type Semaphore struct {
	once  sync.Once
	spin  sync.Mutex
	count uint
	q     queue.Queue
	cfg   config
}

// NewSemaphore allocates and initializes a semaphore with the given count.
func NewSemaphore(count uint, opts ...Option) *Semaphore {
	s := &Semaphore{}
	s.Init(count, opts...)
	return s
}

// Init initializes a semaphore acquired from elsewhere (e.g. embedded in a
// larger struct), for callers that don't want NewSemaphore's allocation.
func (s *Semaphore) Init(count uint, opts ...Option) {
	s.cfg = newConfig(opts)
	s.q = s.cfg.provider.New()
	s.count = count
	s.once.Do(func() {}) // mark lazy-init as already satisfied
}

// ensureInit lazily completes initialization for a zero-valued Semaphore
// that nobody called Init or NewSemaphore on, matching parlib's
// parlib_run_once(&sem->once_ctl, __uth_semaphore_init, sem).
func (s *Semaphore) ensureInit() {
	s.once.Do(func() {
		s.cfg = defaultConfig()
		s.q = s.cfg.provider.New()
	})
}

// Destroy undoes Init/NewSemaphore. It panics if the semaphore still has
// waiters: destroying a contended semaphore is a programming error.
func (s *Semaphore) Destroy() {
	s.ensureInit()
	s.spin.Lock()
	defer s.spin.Unlock()
	if !s.q.IsEmpty() {
		panic("uthsync: Semaphore.Destroy called with waiters still queued")
	}
}

// Free is an alias for Destroy. Go's garbage collector obviates any malloc
// counterpart to alloc/free pairing; Free exists only so the full
// POSIX-shaped API surface is present.
func (s *Semaphore) Free() { s.Destroy() }

// TryDown decrements count if it is currently greater than zero, never
// blocking. It reports whether it succeeded.
func (s *Semaphore) TryDown(ctx context.Context) bool {
	assertCanBlock(ctx)
	s.ensureInit()
	s.spin.Lock()
	defer s.spin.Unlock()
	if s.count > 0 {
		s.count--
		return true
	}
	return false
}

// Down decrements count, blocking until a unit is available. If ctx carries
// a deadline and it elapses first, Down returns false; it returns true on
// every other path (including a count already available).
func (s *Semaphore) Down(ctx context.Context) bool {
	th := assertCanBlock(ctx)
	s.ensureInit()
	s.spin.Lock()
	if s.count > 0 {
		// Only down if we got one: a sem with no free units has count == 0,
		// never negative (waiters live in the queue, not in the sign bit).
		s.count--
		s.spin.Unlock()
		return true
	}
	disarm := armTimeout(ctx, th, s.q, &s.spin, s.cfg.ops)
	s.cfg.log.Debug().Uint64("thread", th.ID()).Log("semaphore down blocked")
	// Atomic enqueue-and-yield: the callback runs with s.spin still held.
	sched.Yield(th, func() {
		s.cfg.ops.ThreadHasBlocked(th, sched.BlockMutex)
		s.q.Enqueue(th)
		s.spin.Unlock()
	})
	timedOut := disarm()
	s.cfg.log.Debug().Uint64("thread", th.ID()).Bool("timed_out", timedOut).Log("semaphore down woke")
	return !timedOut
}

// Up releases one unit. If a thread is already waiting, the unit is handed
// directly to it (count is not incremented) rather than returned to the
// pool; otherwise count is incremented.
func (s *Semaphore) Up() {
	s.ensureInit()
	s.spin.Lock()
	th, popped := s.q.PopNext()
	if !popped {
		s.count++
	}
	s.spin.Unlock()
	if popped {
		s.cfg.log.Debug().Uint64("thread", th.ID()).Log("semaphore up handed off")
		s.cfg.ops.MakeRunnable(th)
	}
}
