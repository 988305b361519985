// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package firehose consumes a repository event stream
// (com.atproto.sync.subscribeRepos) and delivers typed events to a
// [Sink].
//
// The pipeline, leaves first:
//
//   - [SplitFrame] and [DecodeFrame] split one transport message into
//     its header and body values.
//   - [ResolveCommit] extracts the commit's embedded CAR blocks once and
//     pairs each declared operation with its decoded record, degrading
//     per operation (see [OpWarning]) instead of per frame.
//   - [Decoder] maps a frame onto the closed set of [Event] types.
//     Unknown kinds become an [InfoEvent] or [ErrorEvent] carrying the
//     raw discriminant.
//   - [Dispatcher] hands each event to the sink exactly once, logging
//     sink errors and recovering sink panics.
//   - [Processor] joins decoding and dispatch and tracks the resume
//     cursor, flagging sequence decreases.
//   - [Session] owns the [Transport], drives the receive loop, and
//     reconnects with capped exponential backoff, resuming from the
//     cursor.
//
// A Session delivers events in arrival order on a single goroutine. A
// slow sink stalls the receive loop, which is the intended
// backpressure: consumers that need parallelism should hand events to
// their own workers.
//
// Decode errors (truncated input, malformed CIDs, duplicate keys,
// nesting limits, incomplete frames, malformed bodies) skip the frame
// and the stream continues. Transport errors move the session to
// backoff and are retried indefinitely. Context cancellation is the
// only way Run returns without error.
package firehose
