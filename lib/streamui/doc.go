// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package streamui is a terminal viewer for a live firehose.
//
// The viewer is a bubbletea [Model] fed by a [Feed]: the Feed is a
// [firehose.Sink] and state-change hook that forwards session activity
// into the running program as messages. The model keeps a bounded
// scrollback of one-line event summaries (see [Summary]), per-kind
// counters, and the current cursor. Log records at or above a level
// can be routed into the status bar with [LogHandler].
//
// Pausing stops new lines from entering the scrollback; counters and
// the cursor keep moving so the status bar stays truthful.
package streamui
