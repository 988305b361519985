// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock is the time source for reconnect backoff, cursor save
// throttling, and periodic stream statistics.
//
// Code that waits takes a [Clock] instead of calling time.After or
// time.NewTicker. [Real] is the standard library. [Fake] stands still
// until the test calls [FakeClock.Advance]:
//
//	fake := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	session, _ := firehose.NewSession(firehose.SessionConfig{Clock: fake, ...})
//	go session.Run(ctx)
//	fake.WaitForTimers(1)     // the session is now in backoff
//	fake.Advance(time.Second) // and reconnects
//
// WaitForTimers closes the race between a goroutine registering a wait
// and the test moving time forward.
package clock
