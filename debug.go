package lwp

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
)

// DebugChecks, when true, makes Yield, Exit and Wait verify they are being
// called from the goroutine that currently holds the scheduling baton.
// Under the goroutine-per-thread model every LWP is its own real goroutine,
// parked on its resume channel while some other LWP runs; calling into this
// package from a goroutine that is not the current baton-holder (e.g. a
// stray goroutine the worker spawned itself, or a previously-resumed LWP
// that raced a wakeup) corrupts the registry's notion of "current" in ways
// that are hard to diagnose from the resulting crash. The check walks
// runtime.Stack's header on every call, so it defaults to off.
var DebugChecks = false

// goroutineID returns the id of the calling goroutine, parsed out of the
// "goroutine N [...]" header runtime.Stack writes. Go has no public
// goroutine-local-storage API, so this scrapes the same debug header
// net/http and friends have long relied on for debug-only goroutine-local
// tricks.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := buf[:n]
	const prefix = "goroutine "
	if !bytes.HasPrefix(b, []byte(prefix)) {
		return 0
	}
	b = b[len(prefix):]
	if i := bytes.IndexByte(b, ' '); i >= 0 {
		b = b[:i]
	}
	id, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// goroutineOwners maps a live goroutine's id to the Tid it is currently
// hosting: the system thread's goroutine (registered once by Start) and
// every worker's bootTrampoline goroutine (registered on entry). It is
// never cleared on exit; a terminated thread's Tid is never reused (see
// registry.go's allocTid), so a stale entry is simply dead weight, not a
// correctness hazard.
var goroutineOwners sync.Map // goroutine id (uint64) -> Tid

// registerGoroutineOwner records that the calling goroutine is hosting tid,
// for assertCurrentThread to check against later. Cheap enough to call
// unconditionally, so it does not gate on DebugChecks the way
// assertCurrentThread does — a thread's owner must be recorded before it
// can ever be the baton-holder, regardless of whether checks are enabled
// right now.
func registerGoroutineOwner(tid Tid) {
	goroutineOwners.Store(goroutineID(), tid)
}

// assertCurrentThread panics if the calling goroutine is not the one
// registered as hosting rt's current thread. A no-op unless DebugChecks is
// set.
func assertCurrentThread(rt *Runtime) {
	if !DebugChecks || rt == nil || rt.reg.current == nil {
		return
	}
	owner, ok := goroutineOwners.Load(goroutineID())
	if !ok || owner.(Tid) != rt.reg.current.tid {
		panic("lwp: called from a goroutine other than the current thread's own")
	}
}
