package clock

import (
	"sort"
	"sync"
	"time"
)

// #region clock-interface

// Clock abstracts wall-clock reads and timed waits so hysteresis and
// reflection scheduling can be driven deterministically in tests.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

// #endregion clock-interface

// #region real

// Real is the process wall clock.
type Real struct{}

// Now returns time.Now().
func (Real) Now() time.Time { return time.Now() }

// After delegates to time.After.
func (Real) After(d time.Duration) <-chan time.Time { return time.After(d) }

// #endregion real

// #region fake

// Fake is a manually advanced clock. Waiters registered through After fire
// when Advance moves the clock past their deadline.
type Fake struct {
	mu      sync.Mutex
	now     time.Time
	waiters []fakeWaiter
}

type fakeWaiter struct {
	deadline time.Time
	ch       chan time.Time
}

// NewFake creates a fake clock starting at start.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

// Now returns the fake time.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// After returns a channel that receives once the clock reaches now+d.
func (f *Fake) After(d time.Duration) <-chan time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan time.Time, 1)
	deadline := f.now.Add(d)
	if d <= 0 {
		ch <- f.now
		return ch
	}
	f.waiters = append(f.waiters, fakeWaiter{deadline: deadline, ch: ch})
	return ch
}

// Advance moves the clock forward and fires due waiters in deadline order.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	now := f.now
	sort.Slice(f.waiters, func(i, j int) bool {
		return f.waiters[i].deadline.Before(f.waiters[j].deadline)
	})
	pending := f.waiters[:0]
	var due []fakeWaiter
	for _, w := range f.waiters {
		if !w.deadline.After(now) {
			due = append(due, w)
			continue
		}
		pending = append(pending, w)
	}
	f.waiters = pending
	f.mu.Unlock()

	for _, w := range due {
		w.ch <- now
	}
}

// Waiters reports how many After channels have not fired yet.
func (f *Fake) Waiters() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.waiters)
}

// #endregion fake
