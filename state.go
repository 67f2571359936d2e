package lwp

import (
	"sync/atomic"
)

// RuntimeState represents the lifecycle stage of a Runtime.
//
// State Machine:
//
//	StateIdle (0) → StateRunning (3)        [Start()]
//	StateTerminated (1) → StateRunning (3)  [a later Start()]
//	StateRunning (3) → StateTerminating (4) [dispatch loop finds the ready queue empty]
//	StateRunning (3) → StateTerminated (1)  [Start fails before dispatching]
//	StateTerminating (4) → StateTerminated (1) [scheduler shut down, Start returning]
//
// Values are intentionally non-sequential so StateIdle and StateRunning
// remain far apart bit-wise, making a torn/garbage read easier to notice
// when paired with the foreign-thread assertion in debug.go.
type RuntimeState uint64

const (
	// StateIdle indicates a Runtime has been allocated but Start has not
	// yet installed it as the package-level current Runtime.
	StateIdle RuntimeState = 0
	// StateTerminated indicates the Runtime has fully drained and Start
	// has returned.
	StateTerminated RuntimeState = 1
	// StateRunning indicates the Runtime is actively dispatching threads.
	StateRunning RuntimeState = 3
	// StateTerminating indicates the dispatch loop has observed an empty
	// ready queue with no blocked waiters and is unwinding back to Start's
	// caller.
	StateTerminating RuntimeState = 4
)

func (s RuntimeState) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateRunning:
		return "Running"
	case StateTerminating:
		return "Terminating"
	case StateTerminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}

// fastState is a lock-free state machine guarding Runtime installation.
// Using atomic CAS rather than a mutex means Start's re-entry check in
// runtime.go never blocks, matching the original library's single-
// threaded, non-blocking lwp_start entry point.
type fastState struct {
	v atomic.Uint64
}

func newFastState() *fastState {
	s := &fastState{}
	s.v.Store(uint64(StateIdle))
	return s
}

func (s *fastState) Load() RuntimeState {
	return RuntimeState(s.v.Load())
}

func (s *fastState) Store(state RuntimeState) {
	s.v.Store(uint64(state))
}

// TryTransition attempts to atomically move from one state to another,
// reporting whether it succeeded.
func (s *fastState) TryTransition(from, to RuntimeState) bool {
	return s.v.CompareAndSwap(uint64(from), uint64(to))
}
