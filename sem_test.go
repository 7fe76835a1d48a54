package uthsync

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brho/uthsync/sched"
)

// runAsThread spawns fn as a uthread and blocks until it returns.
func runAsThread(fn func(ctx context.Context)) {
	done := make(chan struct{})
	sched.Spawn(context.Background(), func(ctx context.Context) {
		fn(ctx)
		close(done)
	})
	<-done
}

func TestSemaphoreZeroValueUsable(t *testing.T) {
	var s Semaphore
	runAsThread(func(ctx context.Context) {
		assert.True(t, s.TryDown(ctx) == false, "zero-valued semaphore starts at count 0")
		s.Up()
		assert.True(t, s.TryDown(ctx))
	})
}

func TestSemaphoreHandoff(t *testing.T) {
	// Handoff: count=0; T1 downs and blocks; once blocked,
	// main calls up; T1 resumes with success; final count stays 0.
	s := NewSemaphore(0)
	blocked := make(chan struct{})
	resumed := make(chan bool, 1)
	sched.Spawn(context.Background(), func(ctx context.Context) {
		close(blocked)
		resumed <- s.Down(ctx)
	})
	<-blocked
	time.Sleep(10 * time.Millisecond) // let T1 reach the enqueue-and-yield point
	s.Up()

	select {
	case ok := <-resumed:
		assert.True(t, ok)
	case <-time.After(time.Second):
		t.Fatal("down never resumed after up")
	}

	runAsThread(func(ctx context.Context) {
		assert.False(t, s.TryDown(ctx), "handed-off unit must not also increment count")
	})
}

func TestSemaphoreTryDownNeverBlocks(t *testing.T) {
	s := NewSemaphore(1)
	runAsThread(func(ctx context.Context) {
		assert.True(t, s.TryDown(ctx))
		assert.False(t, s.TryDown(ctx))
	})
}

func TestSemaphoreInvariantCountAndWaiters(t *testing.T) {
	// count >= 0, and count > 0 implies no waiters.
	s := NewSemaphore(3)
	runAsThread(func(ctx context.Context) {
		require.True(t, s.Down(ctx))
		require.True(t, s.Down(ctx))
		require.True(t, s.Down(ctx))
		assert.False(t, s.TryDown(ctx))
	})
	s.Up()
	assert.Equal(t, uint(1), s.count)
	assert.True(t, s.q.IsEmpty(), "count > 0 implies no waiters")
	runAsThread(func(ctx context.Context) {
		assert.True(t, s.TryDown(ctx))
	})
}

func TestSemaphoreTimedDown(t *testing.T) {
	// Timed down: count=0; deadline ~50ms; no up occurs;
	// returns failure around the deadline; queue empties; later up leaves
	// count==1 with no ghost waiter.
	s := NewSemaphore(0)
	runAsThread(func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()
		start := time.Now()
		ok := s.Down(ctx)
		elapsed := time.Since(start)
		assert.False(t, ok)
		assert.GreaterOrEqual(t, elapsed, 40*time.Millisecond)
	})
	s.Up()
	runAsThread(func(ctx context.Context) {
		assert.True(t, s.TryDown(ctx), "no ghost waiter should remain after a timeout")
		assert.False(t, s.TryDown(ctx))
	})
}

func TestSemaphoreDestroyPanicsWithWaiters(t *testing.T) {
	s := NewSemaphore(0)
	blocked := make(chan struct{})
	sched.Spawn(context.Background(), func(ctx context.Context) {
		close(blocked)
		s.Down(ctx)
	})
	<-blocked
	time.Sleep(10 * time.Millisecond)
	assert.Panics(t, func() { s.Destroy() })
	s.Up()
}

func TestSemaphoreConcurrentDownUp(t *testing.T) {
	const n = 50
	s := NewSemaphore(0)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		sched.Spawn(context.Background(), func(ctx context.Context) {
			defer wg.Done()
			assert.True(t, s.Down(ctx))
		})
	}
	time.Sleep(20 * time.Millisecond)
	for i := 0; i < n; i++ {
		s.Up()
	}
	wg.Wait()
}
