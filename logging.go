package uthsync

import (
	"github.com/joeycumines/go-utilpkg/logiface"
	logzerolog "github.com/joeycumines/go-utilpkg/logiface/zerolog"
	"github.com/rs/zerolog"
)

// Logger is the structured logger type every primitive in this package
// accepts via WithLogger. Its zero value (nil) is always a safe, silent
// no-op — every logiface.Builder method short-circuits on a nil receiver —
// so primitives remain constructible via their zero value with no logger
// configured at all.
type Logger = *logiface.Logger[*logzerolog.Event]

// NewZerologLogger builds a Logger backed by zerolog, mirroring exactly how
// github.com/joeycumines/go-utilpkg/logiface/zerolog wires a zerolog.Logger
// into logiface in its own test suite.
func NewZerologLogger(z zerolog.Logger) Logger {
	return logzerolog.L.New(logzerolog.L.WithZerolog(z))
}
