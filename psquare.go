package lwp

import (
	"time"
)

// quantileEstimator implements the P² algorithm for streaming quantile
// estimation: O(1) per-observation updates and O(1) quantile retrieval, with
// no need to retain the observed samples. Used here to track a single
// target quantile of context-switch latency.
//
// Reference: Jain, R. and Chlamtac, I. (1985). "The P² Algorithm for Dynamic
// Calculation of Quantiles and Histograms Without Storing Observations".
// Communications of the ACM, 28(10), pp. 1076-1085.
//
// Not safe for concurrent use; a Runtime's Metrics is only ever touched from
// whichever goroutine currently holds the scheduling baton.
type quantileEstimator struct {
	p float64 // target quantile, 0 to 1

	q  [5]float64 // marker heights
	n  [5]int     // marker positions
	np [5]float64 // desired marker positions
	dn [5]float64 // desired position increments

	count      int
	initBuffer [5]float64
}

func newQuantileEstimator(p float64) *quantileEstimator {
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	return &quantileEstimator{
		p:  p,
		dn: [5]float64{0, p / 2, p, (1 + p) / 2, 1},
	}
}

// observe folds one sample into the estimator. O(1).
func (ps *quantileEstimator) observe(x float64) {
	ps.count++

	if ps.count <= 5 {
		ps.initBuffer[ps.count-1] = x
		if ps.count == 5 {
			ps.seed()
		}
		return
	}

	var k int
	switch {
	case x < ps.q[0]:
		ps.q[0] = x
		k = 0
	case x >= ps.q[4]:
		ps.q[4] = x
		k = 3
	default:
		for k = 0; k < 4; k++ {
			if ps.q[k] <= x && x < ps.q[k+1] {
				break
			}
		}
	}

	for i := k + 1; i < 5; i++ {
		ps.n[i]++
	}
	for i := 0; i < 5; i++ {
		ps.np[i] += ps.dn[i]
	}

	for i := 1; i < 4; i++ {
		d := ps.np[i] - float64(ps.n[i])
		if (d >= 1 && ps.n[i+1]-ps.n[i] > 1) || (d <= -1 && ps.n[i-1]-ps.n[i] < -1) {
			sign := 1
			if d < 0 {
				sign = -1
			}

			qPrime := ps.parabolic(i, sign)
			if ps.q[i-1] < qPrime && qPrime < ps.q[i+1] {
				ps.q[i] = qPrime
			} else {
				ps.q[i] = ps.linear(i, sign)
			}
			ps.n[i] += sign
		}
	}
}

// seed initializes the five markers from the first five observations.
func (ps *quantileEstimator) seed() {
	sorted := ps.initBuffer
	for i := 1; i < 5; i++ {
		key := sorted[i]
		j := i - 1
		for j >= 0 && sorted[j] > key {
			sorted[j+1] = sorted[j]
			j--
		}
		sorted[j+1] = key
	}

	for i := 0; i < 5; i++ {
		ps.q[i] = sorted[i]
		ps.n[i] = i
	}
	ps.np = [5]float64{0, 2 * ps.p, 4 * ps.p, 2 + 2*ps.p, 4}
}

func (ps *quantileEstimator) parabolic(i, d int) float64 {
	df := float64(d)
	ni := float64(ps.n[i])
	niPrev := float64(ps.n[i-1])
	niNext := float64(ps.n[i+1])

	term1 := df / (niNext - niPrev)
	term2 := (ni - niPrev + df) * (ps.q[i+1] - ps.q[i]) / (niNext - ni)
	term3 := (niNext - ni - df) * (ps.q[i] - ps.q[i-1]) / (ni - niPrev)

	return ps.q[i] + term1*(term2+term3)
}

func (ps *quantileEstimator) linear(i, d int) float64 {
	if d == 1 {
		return ps.q[i] + (ps.q[i+1]-ps.q[i])/float64(ps.n[i+1]-ps.n[i])
	}
	return ps.q[i] - (ps.q[i]-ps.q[i-1])/float64(ps.n[i]-ps.n[i-1])
}

// value returns the current estimate, falling back to an exact sort of the
// handful of samples seen so far until the five markers are seeded.
func (ps *quantileEstimator) value() float64 {
	if ps.count == 0 {
		return 0
	}
	if ps.count < 5 {
		sorted := ps.initBuffer
		n := ps.count
		for i := 1; i < n; i++ {
			key := sorted[i]
			j := i - 1
			for j >= 0 && sorted[j] > key {
				sorted[j+1] = sorted[j]
				j--
			}
			sorted[j+1] = key
		}
		idx := int(float64(n-1) * ps.p)
		if idx >= n {
			idx = n - 1
		}
		return sorted[idx]
	}
	return ps.q[2]
}

// switchLatencyQuantiles tracks the P50/P90/P99 of context-switch handoff
// latency (the interval switchAway spends parked before its caller is woken
// again), plus the running mean and max, all in nanosecond-resolution
// time.Duration rather than the generic percentile-indexed float64 surface
// a library-agnostic estimator would expose — Metrics has exactly three
// percentiles it ever asks for, so they are named fields, not a slice
// indexed by position.
type switchLatencyQuantiles struct {
	p50, p90, p99 *quantileEstimator

	count int
	sum   time.Duration
	max   time.Duration
}

func newSwitchLatencyQuantiles() *switchLatencyQuantiles {
	return &switchLatencyQuantiles{
		p50: newQuantileEstimator(0.5),
		p90: newQuantileEstimator(0.9),
		p99: newQuantileEstimator(0.99),
	}
}

// update folds one switch's handoff latency into all three percentiles plus
// the running mean/max. O(1).
func (s *switchLatencyQuantiles) update(d time.Duration) {
	s.count++
	s.sum += d
	if d > s.max {
		s.max = d
	}
	x := float64(d)
	s.p50.observe(x)
	s.p90.observe(x)
	s.p99.observe(x)
}

func (s *switchLatencyQuantiles) quantiles() (p50, p90, p99 time.Duration) {
	return time.Duration(s.p50.value()), time.Duration(s.p90.value()), time.Duration(s.p99.value())
}

func (s *switchLatencyQuantiles) mean() time.Duration {
	if s.count == 0 {
		return 0
	}
	return time.Duration(float64(s.sum) / float64(s.count))
}

func (s *switchLatencyQuantiles) maxObserved() time.Duration {
	return s.max
}
