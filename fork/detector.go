package fork

import (
	"sync"
	"time"
)

// Detector accumulates competing branch pairs as they arrive from
// independent observations and drains them through Resolve.
//
// Distinct pairs resolve independently; there is no ordering requirement
// among them, and resolving one pair never touches another pair's inputs.
type Detector struct {
	mu      sync.Mutex
	now     func() time.Time
	pending []branchPair
}

type branchPair struct {
	a, b Branch
}

// NewDetector returns a detector using the wall clock for the future-drift
// bound.
func NewDetector() *Detector {
	return NewDetectorWithClock(time.Now)
}

// NewDetectorWithClock injects the clock; resolution itself never reads it.
func NewDetectorWithClock(now func() time.Time) *Detector {
	return &Detector{now: now}
}

// Observe registers two observations of the same chain position. It reports
// whether a fork was queued: identical digests are the same branch and
// nothing is queued. Branch shape and the future-drift bound are enforced
// here, at the trust boundary, so Resolve can stay pure.
func (d *Detector) Observe(a, b Branch) (bool, error) {
	if err := a.validate(); err != nil {
		return false, err
	}
	if err := b.validate(); err != nil {
		return false, err
	}
	horizon := d.now().Add(MaxFutureDrift)
	if a.Timestamp.After(horizon) || b.Timestamp.After(horizon) {
		return false, ErrFutureTimestamp
	}
	if !IsFork(a, b) {
		return false, nil
	}
	d.mu.Lock()
	d.pending = append(d.pending, branchPair{a: a, b: b})
	d.mu.Unlock()
	return true, nil
}

// Pending returns the number of queued fork pairs.
func (d *Detector) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Drain resolves every queued pair and empties the queue. Pairs that were
// valid at Observe time cannot fail resolution.
func (d *Detector) Drain() ([]Resolution, error) {
	d.mu.Lock()
	pairs := d.pending
	d.pending = nil
	d.mu.Unlock()

	out := make([]Resolution, 0, len(pairs))
	for _, p := range pairs {
		res, err := Resolve(p.a, p.b)
		if err != nil {
			return out, err
		}
		out = append(out, res)
	}
	return out, nil
}
