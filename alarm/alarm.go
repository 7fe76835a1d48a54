// Package alarm provides the timeout primitives used to wake a blocked
// thread after an absolute deadline: a one-shot timer with a cancel
// operation guaranteeing the handler has either completed or will never
// fire. There is no third-party alarm/clock library in the retrieval pack
// that improves on the standard library here (see DESIGN.md); time.AfterFunc
// is the idiomatic Go rendering of "arm a one-shot alarm."
package alarm

import "time"

// Waiter is a single armed alarm. Its zero value is not usable; obtain one
// via Arm.
type Waiter struct {
	timer *time.Timer
	done  chan struct{}
}

// Arm schedules handler to run once, at deadline, on its own goroutine
// (courtesy of time.AfterFunc). It returns immediately.
func Arm(deadline time.Time, handler func()) *Waiter {
	w := &Waiter{done: make(chan struct{})}
	w.timer = time.AfterFunc(time.Until(deadline), func() {
		handler()
		close(w.done)
	})
	return w
}

// Cancel cancels the alarm. On return, the handler passed to Arm is
// guaranteed to have either never run or to have completed running — never
// to be in-flight. This is the classic time.Timer.Stop race: Stop reports
// whether it prevented the timer from firing; if it didn't, the fire is
// either already complete or imminent, so Cancel waits on done to find out
// which.
func (w *Waiter) Cancel() {
	if w.timer.Stop() {
		return
	}
	<-w.done
}
