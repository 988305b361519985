// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool wraps zombiezen.com/go/sqlite's connection pool
// with the pragmas and schema setup skystream's SQLite stores share.
//
// Every connection is opened in WAL mode with synchronous=NORMAL and
// a busy timeout, so a reader (for example "skystream stream" showing
// its cursor while another process writes it) never fails with
// SQLITE_BUSY on a short write. [Config.Schema] is executed on each
// new connection and must be idempotent (CREATE ... IF NOT EXISTS).
//
// Callers borrow a connection for the duration of one operation:
//
//	err := pool.With(ctx, func(conn *sqlite.Conn) error {
//		return sqlitex.Execute(conn, "SELECT ...", &sqlitex.ExecOptions{...})
//	})
package sqlitepool
