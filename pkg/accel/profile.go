package accel

import (
	"time"

	"go.uber.org/atomic"
)

// Profile accumulates traversal counters for one worker. It is not safe for
// concurrent use: each worker owns one and flushes it into ProfileTotals.
type Profile struct {
	TraversalTime time.Duration // Time spent in traversal, excluding leaf callbacks
	NodeRayTests  uint64        // Ray/box tests performed
}

// Add accumulates other into p
func (p *Profile) Add(other Profile) {
	p.TraversalTime += other.TraversalTime
	p.NodeRayTests += other.NodeRayTests
}

// Reset zeroes the counters
func (p *Profile) Reset() {
	*p = Profile{}
}

// ProfileTotals sums Profiles flushed from many workers without locking
type ProfileTotals struct {
	traversalTime atomic.Duration
	nodeRayTests  atomic.Uint64
	flushes       atomic.Int64
}

// Flush adds p to the totals and resets p
func (t *ProfileTotals) Flush(p *Profile) {
	t.traversalTime.Add(p.TraversalTime)
	t.nodeRayTests.Add(p.NodeRayTests)
	t.flushes.Inc()
	p.Reset()
}

// Snapshot returns the current totals
func (t *ProfileTotals) Snapshot() Profile {
	return Profile{
		TraversalTime: t.traversalTime.Load(),
		NodeRayTests:  t.nodeRayTests.Load(),
	}
}

// Flushes returns how many profiles have been flushed
func (t *ProfileTotals) Flushes() int64 {
	return t.flushes.Load()
}

// traversalTimer measures traversal time with leaf callbacks excluded
type traversalTimer struct {
	profile *Profile
	start   time.Time
	tests   uint64
}

func startTimer(p *Profile) traversalTimer {
	if p == nil {
		return traversalTimer{}
	}
	return traversalTimer{profile: p, start: time.Now()}
}

func (t *traversalTimer) count(n int) {
	t.tests += uint64(n)
}

// pause stops the clock before handing control to a leaf callback
func (t *traversalTimer) pause() {
	if t.profile != nil {
		t.profile.TraversalTime += time.Since(t.start)
	}
}

func (t *traversalTimer) resume() {
	if t.profile != nil {
		t.start = time.Now()
	}
}

func (t *traversalTimer) stop() {
	if t.profile != nil {
		t.profile.TraversalTime += time.Since(t.start)
		t.profile.NodeRayTests += t.tests
	}
}
