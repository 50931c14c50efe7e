package clock

import (
	"sort"
	"sync"
	"time"
)

// Fake returns a FakeClock frozen at initial. Time moves only when
// Advance is called.
func Fake(initial time.Time) *FakeClock {
	return &FakeClock{current: initial}
}

// FakeClock is safe for concurrent use. AfterFunc callbacks fire in
// deadline order on the goroutine calling Advance; callbacks may
// schedule further timers, which fire within the same Advance if their
// deadline is reached.
type FakeClock struct {
	mu      sync.Mutex
	current time.Time
	waiters []*fakeTimer
}

type fakeTimer struct {
	clock    *FakeClock
	deadline time.Time
	callback func()
	stopped  bool
	fired    bool
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *FakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	timer := &fakeTimer{clock: c, deadline: c.current.Add(d), callback: f}
	if d <= 0 {
		timer.fired = true
		c.mu.Unlock()
		f()
		return timer
	}
	c.waiters = append(c.waiters, timer)
	c.mu.Unlock()
	return timer
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves the clock forward by d and fires every timer whose
// deadline falls within the new time.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.current.Add(d)
	c.mu.Unlock()

	for {
		next := c.popExpired(target)
		if next == nil {
			break
		}
		next.callback()
	}

	c.mu.Lock()
	c.current = target
	c.mu.Unlock()
}

// popExpired removes and returns the earliest live timer due at or
// before target, moving the clock to its deadline.
func (c *FakeClock) popExpired(target time.Time) *fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()

	live := c.waiters[:0]
	for _, w := range c.waiters {
		if !w.stopped && !w.fired {
			live = append(live, w)
		}
	}
	c.waiters = live

	sort.SliceStable(c.waiters, func(i, j int) bool {
		return c.waiters[i].deadline.Before(c.waiters[j].deadline)
	})
	if len(c.waiters) == 0 || c.waiters[0].deadline.After(target) {
		return nil
	}

	next := c.waiters[0]
	c.waiters = c.waiters[1:]
	next.fired = true
	if next.deadline.After(c.current) {
		c.current = next.deadline
	}
	return next
}

// Pending returns the number of timers that have not fired or been
// stopped.
func (c *FakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	count := 0
	for _, w := range c.waiters {
		if !w.stopped && !w.fired {
			count++
		}
	}
	return count
}
