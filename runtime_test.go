package lwp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetRuntimeState lets a single test binary run several independent
// Start/Wait scenarios: Start's StateTerminated->StateRunning transition
// already allows restarting after a clean run, but tests also need to
// force state back to idle if an earlier case left it running due to an
// assertion failure.
func resetRuntimeState(t *testing.T) {
	t.Cleanup(func() {
		current = nil
		runtimeState.Store(StateIdle)
	})
}

func TestStartRunsAndReturns(t *testing.T) {
	resetRuntimeState(t)

	ran := false
	err := Start(func(arg uintptr) int {
		ran = true
		return 0
	}, 0)
	require.NoError(t, err)
	assert.True(t, ran)
	assert.Equal(t, StateTerminated, runtimeState.Load())
}

func TestStartReentryIsNoop(t *testing.T) {
	resetRuntimeState(t)

	var innerRan bool
	err := Start(func(arg uintptr) int {
		before := current
		err := Start(func(uintptr) int {
			innerRan = true
			return 0
		}, 0)
		assert.NoError(t, err)
		assert.False(t, innerRan, "a re-entrant Start must not run its worker")
		assert.Same(t, before, current, "a re-entrant Start must not install a new Runtime")
		return 0
	}, 0)
	require.NoError(t, err)
}

func TestCreateAssignsMonotonicIdentities(t *testing.T) {
	resetRuntimeState(t)

	var tids []Tid
	err := Start(func(arg uintptr) int {
		a, err := Create(func(uintptr) int { return 0 }, 0)
		require.NoError(t, err)
		b, err := Create(func(uintptr) int { return 0 }, 0)
		require.NoError(t, err)
		tids = append(tids, a, b)
		Yield()
		return 0
	}, 0)
	require.NoError(t, err)
	require.Len(t, tids, 2)
	assert.Less(t, tids[0], tids[1])
}

func TestExitCodeRoundTripsThroughWait(t *testing.T) {
	resetRuntimeState(t)

	var gotTid Tid
	var gotStatus uint32
	err := Start(func(arg uintptr) int {
		child, err := Create(func(uintptr) int { return 7 }, 0)
		require.NoError(t, err)

		tid, status, err := Wait()
		require.NoError(t, err)
		gotTid, gotStatus = tid, status
		assert.Equal(t, child, tid)
		return 0
	}, 0)
	require.NoError(t, err)
	assert.True(t, IsTerminated(gotStatus))
	assert.Equal(t, 7, ExitCode(gotStatus))
	assert.NotEqual(t, NoThread, gotTid)
}

func TestYieldInterleavesRoundRobin(t *testing.T) {
	resetRuntimeState(t)

	var order []string
	err := Start(func(arg uintptr) int {
		_, err := Create(func(uintptr) int {
			order = append(order, "a1")
			Yield()
			order = append(order, "a2")
			return 0
		}, 0)
		require.NoError(t, err)

		_, err = Create(func(uintptr) int {
			order = append(order, "b1")
			Yield()
			order = append(order, "b2")
			return 0
		}, 0)
		require.NoError(t, err)

		Wait()
		Wait()
		return 0
	}, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "b1", "a2", "b2"}, order)
}

func TestWaitReturnsErrNoChildren(t *testing.T) {
	resetRuntimeState(t)

	var waitErr error
	err := Start(func(arg uintptr) int {
		_, _, waitErr = Wait()
		return 0
	}, 0)
	require.NoError(t, err)
	assert.ErrorIs(t, waitErr, ErrNoChildren)
}

func TestWaitOnManyFIFOOrder(t *testing.T) {
	resetRuntimeState(t)

	var reaped []int
	err := Start(func(arg uintptr) int {
		for i := 1; i <= 3; i++ {
			code := i
			_, err := Create(func(uintptr) int { return code }, 0)
			require.NoError(t, err)
		}
		for i := 0; i < 3; i++ {
			_, status, err := Wait()
			require.NoError(t, err)
			reaped = append(reaped, ExitCode(status))
		}
		return 0
	}, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, reaped)
}

func TestSetSchedulerDrainsAndReAdmits(t *testing.T) {
	resetRuntimeState(t)

	err := Start(func(arg uintptr) int {
		_, err := Create(func(uintptr) int { return 0 }, 0)
		require.NoError(t, err)

		require.NoError(t, SetScheduler(NewRoundRobin()))
		assert.Equal(t, 1, GetScheduler().Qlen())

		Wait()
		return 0
	}, 0)
	require.NoError(t, err)
}
