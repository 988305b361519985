// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil holds channel helpers for tests that drive
// goroutines with a fake clock.
//
// Those tests still need a wall-clock safety valve so that a bug
// fails the test instead of hanging it. [RequireReceive] and
// [RequireClosed] are the only place such timeouts live; everything
// else in the suite moves time with lib/clock.
package testutil
