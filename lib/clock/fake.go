// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"slices"
	"sync"
	"time"
)

// FakeClock is a Clock whose time moves only on Advance. It is safe
// for concurrent use.
type FakeClock struct {
	mu      sync.Mutex
	now     time.Time
	pending []*alarm
	changed *sync.Cond
}

// alarm is one outstanding After or Ticker registration.
type alarm struct {
	due    time.Time
	ch     chan time.Time
	period time.Duration // zero for After
	done   bool
}

// Fake returns a FakeClock reading initial.
func Fake(initial time.Time) *FakeClock {
	c := &FakeClock{now: initial}
	c.changed = sync.NewCond(&c.mu)
	return c
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := make(chan time.Time, 1)
	if d <= 0 {
		ch <- c.now
		return ch
	}
	c.add(&alarm{due: c.now.Add(d), ch: ch})
	return ch
}

func (c *FakeClock) NewTicker(d time.Duration) *Ticker {
	if d <= 0 {
		panic("clock: NewTicker with non-positive interval")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	entry := &alarm{due: c.now.Add(d), ch: make(chan time.Time, 1), period: d}
	c.add(entry)
	return &Ticker{C: entry.ch, stop: func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		entry.done = true
		c.pending = slices.DeleteFunc(c.pending, func(a *alarm) bool { return a == entry })
	}}
}

// add registers entry. Caller holds c.mu.
func (c *FakeClock) add(entry *alarm) {
	c.pending = append(c.pending, entry)
	c.changed.Broadcast()
}

// Advance moves time forward by d and fires every alarm that falls
// due, earliest first. A ticker spanning several periods fires once
// per period; ticks that find its channel full are dropped.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	target := c.now.Add(d)
	for {
		next := c.earliestDue(target)
		if next == nil {
			break
		}
		c.now = next.due
		select {
		case next.ch <- next.due:
		default:
		}
		if next.period > 0 {
			next.due = next.due.Add(next.period)
		} else {
			next.done = true
			c.pending = slices.DeleteFunc(c.pending, func(a *alarm) bool { return a == next })
		}
	}
	c.now = target
}

// earliestDue returns the pending alarm with the earliest deadline at
// or before target. Caller holds c.mu.
func (c *FakeClock) earliestDue(target time.Time) *alarm {
	var best *alarm
	for _, entry := range c.pending {
		if entry.due.After(target) {
			continue
		}
		if best == nil || entry.due.Before(best.due) {
			best = entry
		}
	}
	return best
}

// WaitForTimers blocks until at least n alarms are pending.
func (c *FakeClock) WaitForTimers(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.pending) < n {
		c.changed.Wait()
	}
}

// PendingCount returns the number of alarms not yet fired or stopped.
func (c *FakeClock) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}
