package uthsync

import (
	"github.com/brho/uthsync/queue"
	"github.com/brho/uthsync/sched"
)

// config holds the pluggable pieces every primitive is built from: the 2LS
// (sched.Ops), the wait-queue provider (queue.Provider), and an optional
// structured logger. Every field has a usable zero-value-compatible
// default, so primitives may still be constructed via `var s Semaphore`.
type config struct {
	ops      sched.Ops
	provider queue.Provider
	log      Logger
}

// Option configures a primitive at construction time, via a New* constructor
// or Init. Zero-valued primitives that skip both always get the package
// defaults below instead.
type Option func(*config)

// WithScheduler overrides the default goroutine-backed 2LS.
func WithScheduler(ops sched.Ops) Option {
	return func(c *config) { c.ops = ops }
}

// WithQueueProvider overrides the default FIFO wait-queue implementation.
func WithQueueProvider(p queue.Provider) Option {
	return func(c *config) { c.provider = p }
}

// WithLogger attaches a structured logger; see Logger and NewZerologLogger.
func WithLogger(l Logger) Option {
	return func(c *config) { c.log = l }
}

func newConfig(opts []Option) config {
	c := config{
		ops:      sched.Default,
		provider: queue.DefaultProvider,
	}
	for _, o := range opts {
		o(&c)
	}
	return c
}

func defaultConfig() config {
	return config{ops: sched.Default, provider: queue.DefaultProvider}
}
