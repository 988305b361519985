// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cursor persists the firehose resume cursor between runs.
//
// Each store implements firehose.CursorStore:
//
//   - [File] keeps the sequence number as decimal text in one file,
//     replaced atomically on every save.
//   - [SQLite] keeps one row per relay endpoint, so several
//     subscriptions can share a database.
//   - [Memory] keeps it in process, for callers that persist it themselves.
//
// A store never sees a negative sequence number; an absent cursor is
// represented by clearing the store.
package cursor
