package lwp

import (
	"reflect"
	"unsafe"

	"golang.org/x/sys/unix"
)

// defaultStackSize is the default per-LWP stack size before page rounding.
const defaultStackSize = 1 << 20

// Func is a worker function hosted by an LWP, mirroring the original C
// library's `int (*lwpfun)(void *)`: a single pointer-sized argument and an
// integer return, so both fit in one machine register apiece for the
// boot-frame record built below.
type Func func(arg uintptr) int

// Thread is a single LWP's record: its identity, private stack, boot-frame
// register snapshot, and status. Thread is owned by the Runtime's registry,
// which is the sole allocator/freer of its stack mapping.
//
// Thread carries no intrusive link fields; the ready/terminated/waiters FIFOs are
// separate slices holding *Thread pointers, removing the aliasing the original C implementation's lib_one/
// lib_two/sched_one/sched_two fields required.
//
// Execution itself does not run on Thread's mmap'd stack. A goroutine can
// only safely run arbitrary, possibly-allocating, possibly-stack-growing
// Go code when the Go runtime owns its stack bounds and GC root set, which
// it does only for stacks it allocated itself. Jumping into an mmap'd
// region via a raw register restore would run worker code against a
// stackguard0 belonging to some unrelated goroutine, on a stack the
// garbage collector never scans, silently corrupting memory under the
// first deep call or GC cycle. So each Thread's worker body instead runs
// on its own ordinary goroutine (see bootTrampoline, and runtime.go's
// wake/switchAway), and the mmap'd stack plus regs field below exist
// purely as the architecturally-accurate boot-frame record: a faithful,
// byte-for-byte reproduction of what a real register-swap-based
// implementation would construct, kept for introspection and for the
// register-layout invariants this package tests, but never itself entered.
type Thread struct {
	tid    Tid
	status uint32

	stack     []byte
	stackBase uintptr

	regs *alignedRegFile

	// rendezvous is the "who-I-am-waiting-on -> the exited record" slot,
	// populated by Exit when handing a terminated thread directly to a
	// blocked waiter rather than the terminated FIFO.
	rendezvous *Thread

	// system marks the thread captured by Start as the hosting OS thread's
	// record: never admitted to a scheduler, never placed on the
	// terminated FIFO.
	system bool

	f   Func
	arg uintptr

	// resume is the baton: switchAway's wake sends on it to hand this
	// thread the exclusive right to run; its own switchAway blocks on it
	// while parked. Unused for a thread that has never yet run (started
	// is still false), since starting its goroutine for the first time is
	// itself the wake signal.
	resume  chan struct{}
	started bool
}

// Tid returns the thread's identity.
func (t *Thread) Tid() Tid { return t.tid }

// Status returns the thread's current status word.
func (t *Thread) Status() uint32 { return t.status }

// allocStack maps a private, read/write, anonymous stack of at least size
// bytes, rounded up to the page size. A size <= 0
// uses defaultStackSize.
func allocStack(size int) ([]byte, error) {
	if size <= 0 {
		size = defaultStackSize
	}
	pageSize := unix.Getpagesize()
	size = (size + pageSize - 1) &^ (pageSize - 1)
	return unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
}

func freeStack(mem []byte) error {
	if len(mem) == 0 {
		return nil
	}
	return unix.Munmap(mem)
}

// bootTrampolinePC is the address recorded at the boot frame's frame+8
// slot, matching what a real register-swap-based implementation's return
// address would be. Computed once via reflection since Go offers no
// portable `&funcName` address-of syntax for a direct code pointer.
var bootTrampolinePC = reflect.ValueOf(bootTrampoline).Pointer()

// bootTrampoline is a freshly created LWP's entry point, run on its own
// goroutine (started by runtime.go's wake, never by a jump into the boot
// frame). It registers the goroutine with the debug-assertion owner map,
// runs the worker to completion, and exits the LWP with its return value.
func bootTrampoline(t *Thread) {
	registerGoroutineOwner(t.tid)
	rc := t.f(t.arg)
	Exit(rc)
}

// syntheticBootFrame builds a bootable call frame: let top be the byte one
// past the end of the stack. Choose the highest 16-byte-aligned address at
// or below top-24, then add 8; call this frame. Store the value 0 at
// frame+0 and the address of trampoline at frame+8, so a standard
// POPQ BP; RET epilogue would land control in trampoline with an
// ABI-aligned stack. Nothing in this package performs that jump (see
// Thread's doc comment); this function exists to keep the boot-frame
// record spec-accurate and independently testable.
func syntheticBootFrame(stack []byte, trampolineAddr uintptr) uintptr {
	base := uintptr(unsafe.Pointer(&stack[0]))
	top := base + uintptr(len(stack))
	frame := ((top - 24) &^ 15) + 8

	words := (*[2]uintptr)(unsafe.Pointer(frame))
	words[0] = 0
	words[1] = trampolineAddr
	return frame
}

// newThread builds a fresh thread record: a private mmap'd stack, an
// architecturally-accurate boot-frame register snapshot (RAX/RBX seeded
// with the worker's code pointer and argument, RBP/RSP seeded with the
// synthesized frame), and the resume channel its eventual goroutine will
// block on after its first run. Admission to a scheduler is the caller's
// responsibility. It returns a nil *Thread on stack allocation failure.
func newThread(tid Tid, f Func, arg uintptr, stackSize int) (*Thread, error) {
	stack, err := allocStack(stackSize)
	if err != nil {
		return nil, err
	}

	t := &Thread{
		tid:    tid,
		status: MkStatus(false, 0),
		stack:  stack,
		f:      f,
		arg:    arg,
		regs:   newAlignedRegFile(),
		resume: make(chan struct{}),
	}
	t.stackBase = uintptr(unsafe.Pointer(&stack[0]))

	copy(t.regs.ptr.FPU[:], fpuInit[:])

	t.regs.ptr.RAX = uint64(reflect.ValueOf(f).Pointer())
	t.regs.ptr.RBX = uint64(arg)

	frame := syntheticBootFrame(stack, bootTrampolinePC)
	t.regs.ptr.RBP = uint64(frame)
	t.regs.ptr.RSP = uint64(frame)

	return t, nil
}

// release unmaps the thread's stack. It is the sole place a worker's stack
// is ever freed.
func (t *Thread) release() error {
	if t.system {
		return nil
	}
	err := freeStack(t.stack)
	t.stack = nil
	return err
}
