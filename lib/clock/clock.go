// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock is the subset of the time package the stream client waits on.
type Clock interface {
	Now() time.Time

	// After returns a channel that receives once d has elapsed. A
	// non-positive d is ready immediately.
	After(d time.Duration) <-chan time.Time

	// NewTicker delivers ticks every d on a channel of capacity one,
	// dropping ticks the reader misses. Panics if d <= 0.
	NewTicker(d time.Duration) *Ticker
}

// Ticker is a periodic timer.
type Ticker struct {
	C    <-chan time.Time
	stop func()
}

// Stop ends delivery. C is not closed.
func (t *Ticker) Stop() { t.stop() }

// Real returns the standard library clock.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

func (realClock) NewTicker(d time.Duration) *Ticker {
	ticker := time.NewTicker(d)
	return &Ticker{C: ticker.C, stop: ticker.Stop}
}
