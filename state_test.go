package lwp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFastStateTryTransition(t *testing.T) {
	s := newFastState()
	assert.Equal(t, StateIdle, s.Load())

	assert.True(t, s.TryTransition(StateIdle, StateRunning))
	assert.Equal(t, StateRunning, s.Load())

	// Wrong "from" fails and leaves state untouched.
	assert.False(t, s.TryTransition(StateIdle, StateTerminated))
	assert.Equal(t, StateRunning, s.Load())
}

func TestRuntimeStateString(t *testing.T) {
	assert.Equal(t, "Idle", StateIdle.String())
	assert.Equal(t, "Running", StateRunning.String())
	assert.Equal(t, "Terminating", StateTerminating.String())
	assert.Equal(t, "Terminated", StateTerminated.String())
	assert.Equal(t, "Unknown", RuntimeState(99).String())
}
