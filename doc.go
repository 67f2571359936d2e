// Package lwp provides cooperative, user-space lightweight processes
// (LWPs): independently-stacked units of execution that run on a single
// OS thread and switch between each other only when a running LWP
// explicitly yields, blocks in Wait, or exits.
//
// # Architecture
//
// A [Runtime] is installed by [Start], which captures the calling OS
// thread's own context as a "system" thread record and then dispatches
// LWPs until none remain ready or blocked. [Create] allocates a new LWP:
// a private mmap'd stack, a zeroed register file primed with the host's
// initial FPU/SSE state, and a synthesized boot frame recording what a
// register-swap-based switch-in would look like.
//
// That boot frame is never actually entered. A worker's body is arbitrary
// Go code, and Go code only grows its stack and reports its roots to the
// garbage collector correctly when it runs on a stack the Go runtime
// itself owns; jumping onto an mmap'd region via a raw register restore
// would run the worker against another goroutine's stackguard0 and
// outside any GC root scan. So each LWP instead runs as its own ordinary
// goroutine, started the first time the scheduler selects it and parked
// on a per-thread channel the rest of the time; switching between LWPs is
// a channel handoff (see [Yield], and switchAway/wake in runtime.go), not
// a jump. The mmap'd stack and register file ([swap_amd64.s]'s
// captureFPUInit included) still exist and are still populated exactly as
// a real switch-based implementation would, but purely as an
// introspectable boot-frame record, never as a code-execution target.
//
// # Scheduling
//
// Which ready LWP runs next is delegated to a pluggable [Scheduler]. The
// built-in [NewRoundRobin] implementation is a plain FIFO; [SetScheduler]
// hot-swaps the active policy, draining and re-admitting every currently
// ready thread to the replacement.
//
// # Termination and reaping
//
// [Exit] marks the calling LWP terminated and either hands it directly to
// a thread already blocked in [Wait] or queues it for a future [Wait] to
// reap. [Wait] blocks until some LWP has terminated, reaps its stack, and
// returns its identity and final status word (see [MkStatus],
// [IsTerminated], [ExitCode]).
//
// # Thread safety
//
// A Runtime is not safe for concurrent use from multiple OS threads.
// LWPs are cooperative: exactly one LWP's goroutine ever holds the
// scheduling baton at a time, every other one parked on its resume
// channel, so the package uses no locks on its hot paths. [Start] does
// guard installation of the package-level active Runtime with an atomic
// compare-and-swap; a second, re-entrant call to Start while one is
// already active is a silent no-op, matching the original library's
// lwp_start contract.
//
// # Usage
//
//	err := lwp.Start(func(arg uintptr) int {
//	    lwp.Create(worker, 0)
//	    lwp.Yield()
//	    _, status, _ := lwp.Wait()
//	    return lwp.ExitCode(status)
//	}, 0, lwp.WithLogger(lwp.NewLogifaceLogger(slog.Default().Handler())))
//	if err != nil {
//	    log.Fatal(err)
//	}
package lwp
