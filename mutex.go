package uthsync

import "context"

// Mutex is a non-recursive mutual-exclusion lock: a binary semaphore
// initialized with count 1. Its zero value is directly usable, locked by
// nobody.
type Mutex struct {
	sem Semaphore
}

// NewMutex allocates and initializes an unlocked mutex.
func NewMutex(opts ...Option) *Mutex {
	m := &Mutex{}
	m.Init(opts...)
	return m
}

// Init initializes a mutex acquired from elsewhere.
func (m *Mutex) Init(opts ...Option) {
	m.sem.Init(1, opts...)
}

// Destroy undoes Init/NewMutex; panics if still contended.
func (m *Mutex) Destroy() { m.sem.Destroy() }

// Free is an alias for Destroy.
func (m *Mutex) Free() { m.sem.Free() }

// ensureInit lazily completes initialization (count 1) for a zero-valued
// Mutex, exactly as __uth_mutex_init does over __uth_semaphore_init.
func (m *Mutex) ensureInit() {
	m.sem.once.Do(func() {
		m.sem.cfg = defaultConfig()
		m.sem.q = m.sem.cfg.provider.New()
		m.sem.count = 1
	})
}

// Lock blocks until the mutex is held. If ctx carries a deadline that elapses
// first, Lock returns false without acquiring the mutex; otherwise it
// returns true.
func (m *Mutex) Lock(ctx context.Context) bool {
	m.ensureInit()
	return m.sem.Down(ctx)
}

// TryLock acquires the mutex only if it is immediately available.
func (m *Mutex) TryLock(ctx context.Context) bool {
	m.ensureInit()
	return m.sem.TryDown(ctx)
}

// Unlock releases the mutex. Unlocking a mutex not held by the caller is a
// programming error and is not detected, matching standard POSIX mutex
// semantics.
func (m *Mutex) Unlock() {
	m.ensureInit()
	m.sem.Up()
}
