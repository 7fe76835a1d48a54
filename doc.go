// Copyright 2020 Nathan Taylor (nbtaylor@gmail.com)
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies
// of the Software, and to permit persons to whom the Software is furnished to do
// so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package uthsync implements the synchronization primitives of a
// user-level-thread ("uthread") runtime: counting semaphores, non-recursive
// and recursive mutexes, condition variables, and reader-writer locks, all
// with optional absolute-deadline timeouts.
//
// These primitives are built for cooperatively-scheduled uthreads that are
// multiplexed onto a pluggable second-level scheduler ("2LS", package
// sched), not for OS threads directly. The hard part these primitives solve
// is composing three concurrent actors correctly: the waiting thread, the
// waker, and an independent timeout source, without ever losing a wakeup or
// leaving a thread enqueued after it stopped waiting.
//
// Every primitive:
//
//   - Protects its own mutable state (counts, flags, wait queue) with an
//     internal lock.
//   - Blocks, when it must, by atomically enqueuing the calling thread on
//     its wait queue and yielding — see sched.Yield.
//   - Delegates "what to do with a blocked/woken thread" to a 2LS (package
//     sched) and "how to store blocked threads" to a wait-queue provider
//     (package queue), both of which default to a concrete, usable
//     implementation but may be overridden per primitive.
//   - Is safe to use from its zero value (no constructor call required) as
//     well as via an explicit New* constructor.
//
// Timed operations take a context.Context; if it carries a deadline, that
// deadline plays the role of the uthread runtime's "absolute alarm" (package
// alarm). An untimed call is just a call with a context that has no
// deadline.
package uthsync
