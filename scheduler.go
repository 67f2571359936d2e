package lwp

// Scheduler is the pluggable admission/selection policy used by a Runtime.
// Implementations decide which ready thread runs next; the Runtime itself
// never inspects run-queue order directly. This mirrors the six-operation
// scheduler struct of the original C library (lwp.h's `struct scheduler`),
// generalized from raw function pointers to a Go interface.
type Scheduler interface {
	// Init is called once, when the scheduler is installed by Start or
	// SetScheduler, before any thread is admitted.
	Init() error

	// Shutdown is called once, when the scheduler is replaced or the
	// Runtime is torn down. Implementations should release any resources
	// held by still-admitted threads, though by contract no threads remain
	// admitted at shutdown.
	Shutdown() error

	// Admit makes t eligible to be returned by a future Next call.
	Admit(t *Thread) error

	// Remove withdraws t from eligibility, e.g. because it blocked or
	// terminated. Removing a thread not currently admitted is a no-op.
	Remove(t *Thread) error

	// Next selects and removes the next thread to run, or returns nil if
	// none are ready.
	Next() *Thread

	// Qlen reports the number of threads currently admitted.
	Qlen() int
}

// roundRobin is the default Scheduler: a plain FIFO ready queue, grounded
// on the original library's sched_rr.c. Where the original threads a
// doubly-linked list through each thread's own sched_one/sched_two fields,
// roundRobin instead holds a slice of *Thread, keeping Thread free of
// scheduler-owned link fields.
type roundRobin struct {
	queue []*Thread
}

// NewRoundRobin constructs the default round-robin Scheduler.
func NewRoundRobin() Scheduler {
	return &roundRobin{}
}

func (r *roundRobin) Init() error {
	r.queue = r.queue[:0]
	return nil
}

func (r *roundRobin) Shutdown() error {
	r.queue = nil
	return nil
}

func (r *roundRobin) Admit(t *Thread) error {
	r.queue = append(r.queue, t)
	return nil
}

func (r *roundRobin) Remove(t *Thread) error {
	for i, q := range r.queue {
		if q == t {
			r.queue = append(r.queue[:i], r.queue[i+1:]...)
			return nil
		}
	}
	return nil
}

func (r *roundRobin) Next() *Thread {
	if len(r.queue) == 0 {
		return nil
	}
	t := r.queue[0]
	r.queue = r.queue[1:]
	return t
}

func (r *roundRobin) Qlen() int {
	return len(r.queue)
}
