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

func TestCondVarPingPong(t *testing.T) {
	// CV ping-pong between two threads sharing flag/mtx/cv.
	m := NewMutex()
	cv := NewCondVar()
	flag := 0
	done := make(chan struct{}, 2)

	sched.Spawn(context.Background(), func(ctx context.Context) {
		m.Lock(ctx)
		for flag == 0 {
			cv.Wait(ctx, m)
		}
		flag = 0
		cv.Signal()
		m.Unlock()
		done <- struct{}{}
	})

	sched.Spawn(context.Background(), func(ctx context.Context) {
		m.Lock(ctx)
		flag = 1
		cv.Signal()
		for flag == 1 {
			cv.Wait(ctx, m)
		}
		m.Unlock()
		done <- struct{}{}
	})

	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("ping-pong did not terminate")
		}
	}
}

func TestCondVarBroadcast(t *testing.T) {
	// 16 waiters on a shared predicate, woken by broadcast, each
	// observed holding the mutex in turn.
	const waiters = 16
	m := NewMutex()
	cv := NewCondVar()
	flag := false
	var wg sync.WaitGroup
	wg.Add(waiters)

	for i := 0; i < waiters; i++ {
		sched.Spawn(context.Background(), func(ctx context.Context) {
			defer wg.Done()
			m.Lock(ctx)
			for !flag {
				cv.Wait(ctx, m)
			}
			m.Unlock()
		})
	}

	time.Sleep(20 * time.Millisecond)
	runAsThread(func(ctx context.Context) {
		m.Lock(ctx)
		flag = true
		m.Unlock()
		cv.Broadcast()
	})

	doneCh := make(chan struct{})
	go func() {
		wg.Wait()
		close(doneCh)
	}()
	select {
	case <-doneCh:
	case <-time.After(2 * time.Second):
		t.Fatal("not all waiters woke from broadcast")
	}
}

func TestCondVarBroadcastOnEmptyIsNoop(t *testing.T) {
	cv := NewCondVar()
	assert.NotPanics(t, func() { cv.Broadcast() })
}

func TestCondVarTimedWait(t *testing.T) {
	m := NewMutex()
	cv := NewCondVar()
	runAsThread(func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, 30*time.Millisecond)
		defer cancel()
		require.True(t, m.Lock(ctx))
		ok := cv.Wait(ctx, m)
		assert.False(t, ok, "no signal arrives before the deadline")
		// The mutex is reacquired on every exit path,
		// including timeout.
		assert.False(t, m.TryLock(ctx), "Wait must return with m held")
		m.Unlock()
	})
}

func TestCondVarWaitRecurse(t *testing.T) {
	r := NewRecursiveMutex()
	cv := NewCondVar()
	flag := false

	sched.Spawn(context.Background(), func(ctx context.Context) {
		require.True(t, r.Lock(ctx))
		require.True(t, r.Lock(ctx)) // depth 2
		for !flag {
			cv.WaitRecurse(ctx, r)
		}
		assert.Equal(t, uint(2), r.count, "recursion depth restored after wake")
		r.Unlock()
		r.Unlock()
	})

	time.Sleep(20 * time.Millisecond)
	runAsThread(func(ctx context.Context) {
		require.True(t, r.Lock(ctx))
		flag = true
		r.Unlock()
		cv.Signal()
	})
	time.Sleep(20 * time.Millisecond)
}
