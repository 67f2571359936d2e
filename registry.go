package lwp

// registry holds all process-wide LWP bookkeeping: the identity table, the
// terminated-but-unreaped FIFO, the blocked-waiters FIFO, and the pointer
// to whichever thread is currently executing. It is grounded on lwp.c's
// global state (tidtab, term_head/term_tail, wait_head/wait_tail, current,
// next_tid), generalized from a fixed-size realloc'd array and intrusive
// linked lists into a map plus plain slices, dropping the lib_one/lib_two/
// sched_one/sched_two aliasing the original required.
//
// A registry is not safe for concurrent use from multiple OS threads; LWPs
// are cooperative, and although each runs on its own goroutine, only the
// one holding the scheduling baton runs at any time, so no locking is used
// here, matching the original library's single-
// threaded assumption.
type registry struct {
	threads map[Tid]*Thread
	nextTid Tid

	current *Thread
	system  *Thread

	terminated []*Thread
	waiters    []*Thread

	sched Scheduler
}

func newRegistry(sched Scheduler) *registry {
	return &registry{
		threads: make(map[Tid]*Thread),
		nextTid: 1,
		sched:   sched,
	}
}

// allocTid returns the next process-unique identity.
func (r *registry) allocTid() Tid {
	tid := r.nextTid
	r.nextTid++
	return tid
}

// insert adds t to the identity table.
func (r *registry) insert(t *Thread) {
	r.threads[t.tid] = t
}

// lookup returns the thread with the given identity, or nil.
func (r *registry) lookup(tid Tid) *Thread {
	return r.threads[tid]
}

// forget removes a thread's identity-table slot; called once a thread has
// been reaped.
func (r *registry) forget(tid Tid) {
	delete(r.threads, tid)
}

// pushTerminated appends t to the terminated FIFO.
func (r *registry) pushTerminated(t *Thread) {
	r.terminated = append(r.terminated, t)
}

// popTerminated removes and returns the oldest terminated thread, or nil.
func (r *registry) popTerminated() *Thread {
	if len(r.terminated) == 0 {
		return nil
	}
	t := r.terminated[0]
	r.terminated = r.terminated[1:]
	return t
}

// pushWaiter appends t to the blocked-waiters FIFO.
func (r *registry) pushWaiter(t *Thread) {
	r.waiters = append(r.waiters, t)
}

// popWaiter removes and returns the oldest blocked waiter, or nil.
func (r *registry) popWaiter() *Thread {
	if len(r.waiters) == 0 {
		return nil
	}
	t := r.waiters[0]
	r.waiters = r.waiters[1:]
	return t
}

// wakeOneWaiter pops the oldest waiter, if any, and hands it term directly
// via its rendezvous slot, bypassing the terminated FIFO entirely. This is
// the "direct handoff" path for Wait: a blocked waiter is
// satisfied by the very next Exit rather than having to also drain the
// FIFO afterwards.
func (r *registry) wakeOneWaiter(term *Thread) *Thread {
	w := r.popWaiter()
	if w != nil {
		w.rendezvous = term
	}
	return w
}
