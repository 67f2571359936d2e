// logging.go - Structured Logging Interface for the LWP Runtime
//
// Package-level Logger abstraction so callers can plug in their own
// structured logging stack without this package committing to one
// concrete implementation. NewLogifaceLogger bridges to
// github.com/joeycumines/logiface over log/slog, with repetitive warnings
// throttled via github.com/joeycumines/go-catrate so a misbehaving
// scheduler can't flood a log sink every time it re-admits a thread.

package lwp

import (
	"log/slog"
	"time"

	"github.com/joeycumines/go-catrate"
	"github.com/joeycumines/logiface"
	logifaceslog "github.com/joeycumines/logiface-slog"
)

// Logger is the structured logging sink used throughout the runtime. It is
// deliberately narrow: three severities and a flat key/value tail, matching
// what a scheduler hot path can afford to call without first checking
// whether logging is even enabled.
type Logger interface {
	Debug(msg string, kv ...any)
	Warn(msg string, kv ...any)
	Error(msg string, kv ...any)
}

// nopLogger discards everything. It is the default installed by
// resolveOptions when the caller supplies no WithLogger option.
type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// NopLogger returns a Logger that discards all messages.
func NopLogger() Logger { return nopLogger{} }

// logifaceLogger adapts a *logiface.Logger[*logifaceslog.Event] to Logger,
// throttling Warn/Error lines through a multi-window rate limiter so a
// busy-looping caller (e.g. Yield in a tight loop whose re-admits keep
// failing) can't
// overwhelm the underlying handler.
type logifaceLogger struct {
	root  *logiface.Logger[*logifaceslog.Event]
	limit *catrate.Limiter
}

// NewLogifaceLogger builds a Logger that writes through handler via
// logiface's event pipeline. Warn and Error messages are throttled to at
// most 5 per second and 60 per minute per distinct message string; Debug
// is left unthrottled since it is expected to be disabled in production via
// the handler's own level filter.
func NewLogifaceLogger(handler slog.Handler) Logger {
	root := logiface.New[*logifaceslog.Event](
		logifaceslog.NewLogger(handler),
	)
	return &logifaceLogger{
		root: root,
		limit: catrate.NewLimiter(map[time.Duration]int{
			time.Second: 5,
			time.Minute: 60,
		}),
	}
}

func fieldPairs[E logiface.Event](b *logiface.Builder[E], kv []any) *logiface.Builder[E] {
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		b = b.Any(key, kv[i+1])
	}
	return b
}

func (l *logifaceLogger) Debug(msg string, kv ...any) {
	fieldPairs(l.root.Debug(), kv).Log(msg)
}

func (l *logifaceLogger) Warn(msg string, kv ...any) {
	if _, ok := l.limit.Allow(msg); !ok {
		return
	}
	fieldPairs(l.root.Warning(), kv).Log(msg)
}

func (l *logifaceLogger) Error(msg string, kv ...any) {
	if _, ok := l.limit.Allow(msg); !ok {
		return
	}
	fieldPairs(l.root.Err(), kv).Log(msg)
}
