package lwp

import (
	"fmt"
	"os"
	"runtime"
)

// Runtime is the process-wide LWP scheduler and thread registry. A process
// hosts exactly one active Runtime, installed by Start; the package-level
// Create/Exit/Yield/Wait/Gettid functions all operate against it. This
// mirrors the original library's single set of file-scope globals
// (cur_sched, current, tidtab, ...), gathered here into one struct so the
// ambient stack (logging, metrics) has somewhere to live per-instance
// rather than as further package globals.
type Runtime struct {
	reg       *registry
	logger    Logger
	metrics   *Metrics
	stackSize int
}

var current *Runtime

// runtimeState guards installation of the package-level current Runtime
// with an atomic CAS rather than a mutex, so a foreign OS thread racing
// Start (see debug.go) fails fast instead of blocking.
var runtimeState = newFastState()

// Start installs a fresh Runtime on the calling OS thread, captures that
// thread's own context as the "system" thread record, and
// creates and runs f(arg) as the first LWP. Start returns once the ready
// queue is empty and no thread remains blocked in Wait, handing control
// back to the caller on its original stack exactly as it found it.
//
// If a system-thread record already exists (a Runtime is active or
// mid-teardown), Start is a silent no-op returning nil: the original
// library's lwp_start checks a single scheduler_main pointer and returns
// immediately if it is already set, with no error signal, and re-entry
// here is held to that same contract.
func Start(f Func, arg uintptr, opts ...Option) error {
	if !runtimeState.TryTransition(StateIdle, StateRunning) &&
		!runtimeState.TryTransition(StateTerminated, StateRunning) {
		return nil
	}

	o := resolveOptions(opts)
	rt := &Runtime{
		reg:       newRegistry(o.scheduler),
		logger:    o.logger,
		metrics:   o.metrics,
		stackSize: o.stackSize,
	}
	if err := rt.reg.sched.Init(); err != nil {
		runtimeState.Store(StateTerminated)
		return WrapError("scheduler init", err)
	}

	sys := &Thread{
		tid:    rt.reg.allocTid(),
		status: MkStatus(false, 0),
		regs:   newAlignedRegFile(),
		system: true,
		resume: make(chan struct{}),
		// The system thread's goroutine is this very call stack: it is
		// already running, so wake must never try to start it.
		started: true,
	}
	rt.reg.insert(sys)
	rt.reg.system = sys
	rt.reg.current = sys

	current = rt
	registerGoroutineOwner(sys.tid)
	rt.logger.Debug("lwp: runtime started", "tid", sys.tid)

	if _, err := Create(f, arg); err != nil {
		current = nil
		runtimeState.Store(StateTerminated)
		return err
	}

	schedulerDispatch()

	runtimeState.Store(StateTerminating)
	_ = rt.reg.sched.Shutdown()
	current = nil
	runtimeState.Store(StateTerminated)
	return nil
}

// schedulerDispatch runs the system thread's dispatch loop: repeatedly
// hand off to the scheduler's next ready thread until the ready queue is
// empty, then return control to Start's caller. Every switchAway call
// here blocks (from this goroutine's point of view) until some other
// thread's own switchAway names the system thread as its target again.
func schedulerDispatch() {
	rt := current
	for rt.reg.sched.Qlen() > 0 {
		switchAway(rt.reg.system)
	}
}

// Create allocates a new LWP bound to f/arg, with a freshly mapped stack
// and a synthesized boot frame, and admits it to the active scheduler. It
// does not itself run the new thread, and does not start its goroutine:
// that happens lazily, the first time the scheduler actually selects it
// (see wake). The caller continues executing until it yields, waits, or
// exits.
func Create(f Func, arg uintptr) (Tid, error) {
	rt := current
	if rt == nil {
		return NoThread, ErrNotStarted
	}

	tid := rt.reg.allocTid()
	t, err := newThread(tid, f, arg, rt.stackSizeHint())
	if err != nil {
		return NoThread, WrapError("create thread", err)
	}
	rt.reg.insert(t)
	if err := rt.reg.sched.Admit(t); err != nil {
		rt.reg.forget(tid)
		_ = t.release()
		return NoThread, WrapError("admit thread", err)
	}

	rt.logger.Debug("lwp: thread created", "tid", tid)
	return tid, nil
}

// stackSizeHint returns the configured default stack size for new threads,
// or 0 to let newThread apply its own default.
func (rt *Runtime) stackSizeHint() int {
	return rt.stackSize
}

// Gettid returns the identity of the calling LWP.
func Gettid() Tid {
	if current == nil || current.reg.current == nil {
		return NoThread
	}
	return current.reg.current.tid
}

// Tid2Thread resolves a Tid to its Thread record, or nil if the identity
// is unknown or has already been reaped.
func Tid2Thread(tid Tid) *Thread {
	if current == nil {
		return nil
	}
	return current.reg.lookup(tid)
}

// SetScheduler replaces the active Scheduler. Any threads currently
// admitted to the outgoing scheduler are drained and re-admitted to the
// incoming one.
func SetScheduler(s Scheduler) error {
	rt := current
	if rt == nil {
		return ErrNotStarted
	}
	if err := s.Init(); err != nil {
		return WrapError("scheduler init", err)
	}

	var drained []*Thread
	for {
		t := rt.reg.sched.Next()
		if t == nil {
			break
		}
		drained = append(drained, t)
	}
	if err := rt.reg.sched.Shutdown(); err != nil {
		return WrapError("scheduler shutdown", err)
	}

	rt.reg.sched = s
	for _, t := range drained {
		if err := s.Admit(t); err != nil {
			return WrapError("re-admit thread", err)
		}
	}
	return nil
}

// GetScheduler returns the currently active Scheduler.
func GetScheduler() Scheduler {
	if current == nil {
		return nil
	}
	return current.reg.sched
}

// Yield voluntarily relinquishes the CPU, re-admitting the calling thread
// to the scheduler before selecting and switching to whatever thread runs
// next. If no other thread is ready, Yield returns
// immediately without switching context.
func Yield() {
	rt := current
	assertCurrentThread(rt)
	if rt == nil {
		return
	}
	self := rt.reg.current
	if rt.reg.sched.Qlen() == 0 {
		return
	}
	if !self.system {
		if err := rt.reg.sched.Admit(self); err != nil {
			rt.logger.Warn("lwp: yield: re-admit failed", "tid", self.tid, "err", err)
			return
		}
	}
	switchAway(self)
}

// Exit terminates the calling thread with the given exit code. It never
// returns to its caller: after handing off to whatever thread runs next,
// it calls runtime.Goexit on the calling goroutine, so nothing after
// Exit(...) in a worker body ever executes and the goroutine's stack is
// released rather than left parked. If a thread is already blocked in
// Wait, it is woken directly via the rendezvous handoff; otherwise the
// terminated record is queued for a future Wait to reap.
func Exit(code int) {
	rt := current
	assertCurrentThread(rt)
	if rt == nil {
		// No current thread to terminate; this is a
		// defensive, unrecoverable condition, so end the whole process
		// rather than returning into undefined state.
		os.Exit(code & 0xFF)
	}
	self := rt.reg.current
	if self.system {
		os.Exit(code & 0xFF)
	}
	self.status = MkStatus(true, code)
	_ = rt.reg.sched.Remove(self)

	if w := rt.reg.wakeOneWaiter(self); w != nil {
		_ = rt.reg.sched.Admit(w)
		rt.logger.Debug("lwp: exit: handed off to waiter", "tid", self.tid, "waiter", w.tid)
	} else {
		rt.reg.pushTerminated(self)
	}

	rt.metrics.recordExit()
	switchAwayFinal(self)
	runtime.Goexit()
}

// Wait blocks until some LWP has terminated, reaps it, and returns its
// identity and final status. If a terminated thread is
// already queued, Wait returns immediately without switching context.
func Wait() (Tid, uint32, error) {
	rt := current
	assertCurrentThread(rt)
	if rt == nil {
		return NoThread, 0, ErrNotStarted
	}

	for {
		if t := rt.reg.popTerminated(); t != nil {
			return rt.reap(t), t.status, nil
		}

		self := rt.reg.current
		if rt.reg.sched.Qlen() == 0 {
			// Nothing is runnable, so no further termination can ever be
			// produced to satisfy this wait.
			return NoThread, 0, ErrNoChildren
		}
		rt.reg.pushWaiter(self)
		switchAway(self)

		if self.rendezvous != nil {
			t := self.rendezvous
			self.rendezvous = nil
			return rt.reap(t), t.status, nil
		}
		// Spurious wake with nothing handed off directly; loop and check
		// the terminated FIFO again.
	}
}

// reap clears a terminated thread's identity-table slot and releases its
// stack, returning its Tid for the caller's convenience.
func (rt *Runtime) reap(t *Thread) Tid {
	tid := t.tid
	rt.reg.forget(tid)
	if err := t.release(); err != nil {
		rt.logger.Warn("lwp: reap: stack release failed", "tid", tid, "err", err)
	}
	return tid
}

// wake hands t the exclusive right to run. The first time t is selected,
// starting its goroutine IS the wake signal — there is nothing yet parked
// to receive on t.resume, since bootTrampoline hasn't run once to reach
// switchAway's receive. Every later wake instead sends on that channel,
// releasing whichever switchAway call parked t there.
func wake(t *Thread) {
	if !t.started {
		t.started = true
		go bootTrampoline(t)
		return
	}
	t.resume <- struct{}{}
}

// switchAway parks self and hands off to whatever the scheduler selects
// next (falling back to the system thread if nothing is ready), blocking
// until self is woken again. If the selected thread is self (the system
// thread calling with nothing ready), switchAway returns at once without
// parking. A lone thread's Yield never reaches this point: Yield returns
// early when the ready queue is empty.
func switchAway(self *Thread) {
	rt := current
	next := rt.reg.sched.Next()
	if next == nil {
		next = rt.reg.system
	}
	if next == self {
		return
	}

	start := rt.metrics.beginSwitch()
	rt.reg.current = next
	wake(next)
	<-self.resume
	rt.metrics.endSwitch(start)
}

// switchAwayFinal hands off to the next thread without parking self
// afterward. Used only by Exit: self is terminated and already removed
// from the scheduler, so it can never be selected back, and there would
// be nothing left to ever send on self.resume — blocking on it here would
// leak a permanently parked goroutine per terminated thread.
func switchAwayFinal(self *Thread) {
	rt := current
	next := rt.reg.sched.Next()
	if next == nil {
		next = rt.reg.system
	}
	rt.reg.current = next
	wake(next)
}

// ErrNotStarted is returned by operations requiring an active Runtime.
var ErrNotStarted = fmt.Errorf("lwp: runtime not started")

// ErrNoChildren is returned by Wait when no terminated thread is queued for
// reaping and no thread is ready to run.
var ErrNoChildren = fmt.Errorf("lwp: wait: no children")
