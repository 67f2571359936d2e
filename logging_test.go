package lwp

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNopLoggerDoesNotPanic(t *testing.T) {
	l := NopLogger()
	assert.NotPanics(t, func() {
		l.Debug("msg", "k", "v")
		l.Warn("msg", "k", "v")
		l.Error("msg", "k", "v")
	})
}

func TestNewLogifaceLoggerWritesThroughHandler(t *testing.T) {
	handler := slog.NewTextHandler(io.Discard, nil)
	l := NewLogifaceLogger(handler)

	assert.NotPanics(t, func() {
		l.Debug("thread created", "tid", 1)
		l.Warn("yield: re-admit failed", "tid", 1)
		l.Error("reap failed", "tid", 1)
	})
}

func TestNewLogifaceLoggerThrottlesRepeatedWarnings(t *testing.T) {
	handler := slog.NewTextHandler(io.Discard, nil)
	l := NewLogifaceLogger(handler)

	assert.NotPanics(t, func() {
		for i := 0; i < 20; i++ {
			l.Warn("repeated warning")
		}
	})
}
