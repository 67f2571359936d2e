package lwp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistryAllocTidMonotonic(t *testing.T) {
	r := newRegistry(NewRoundRobin())
	a := r.allocTid()
	b := r.allocTid()
	assert.Less(t, a, b)
}

func TestRegistryInsertLookupForget(t *testing.T) {
	r := newRegistry(NewRoundRobin())
	th := &Thread{tid: r.allocTid()}
	r.insert(th)

	assert.Same(t, th, r.lookup(th.tid))
	r.forget(th.tid)
	assert.Nil(t, r.lookup(th.tid))
}

func TestRegistryTerminatedFIFO(t *testing.T) {
	r := newRegistry(NewRoundRobin())
	a := &Thread{tid: 1}
	b := &Thread{tid: 2}
	r.pushTerminated(a)
	r.pushTerminated(b)

	assert.Same(t, a, r.popTerminated())
	assert.Same(t, b, r.popTerminated())
	assert.Nil(t, r.popTerminated())
}

func TestRegistryWakeOneWaiterHandsOffDirectly(t *testing.T) {
	r := newRegistry(NewRoundRobin())
	waiter := &Thread{tid: 1}
	r.pushWaiter(waiter)

	term := &Thread{tid: 2, status: MkStatus(true, 5)}
	woken := r.wakeOneWaiter(term)

	assert.Same(t, waiter, woken)
	assert.Same(t, term, waiter.rendezvous)
	assert.Nil(t, r.wakeOneWaiter(term))
}
