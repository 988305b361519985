// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cursor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bureau-foundation/skystream/lib/sqlitepool"
)

const schema = `
CREATE TABLE IF NOT EXISTS cursors (
	endpoint   TEXT PRIMARY KEY,
	seq        INTEGER NOT NULL CHECK (seq >= 0),
	updated_at TEXT NOT NULL
);
`

// SQLite stores cursors in a table keyed by relay endpoint.
type SQLite struct {
	pool     *sqlitepool.Pool
	endpoint string
}

// OpenSQLite opens (creating if needed) the database at path and
// returns the store for one endpoint. Close releases the database.
func OpenSQLite(path, endpoint string, logger *slog.Logger) (*SQLite, error) {
	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:   path,
		Schema: schema,
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}
	return &SQLite{pool: pool, endpoint: endpoint}, nil
}

// Close closes the underlying pool.
func (s *SQLite) Close() error { return s.pool.Close() }

func (s *SQLite) Load(ctx context.Context) (int64, bool, error) {
	var (
		seq   int64
		found bool
	)
	err := s.pool.With(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, "SELECT seq FROM cursors WHERE endpoint = ?", &sqlitex.ExecOptions{
			Args: []any{s.endpoint},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				seq = stmt.ColumnInt64(0)
				found = true
				return nil
			},
		})
	})
	if err != nil {
		return 0, false, fmt.Errorf("loading cursor for %s: %w", s.endpoint, err)
	}
	return seq, found, nil
}

func (s *SQLite) Save(ctx context.Context, seq int64) error {
	if seq < 0 {
		return fmt.Errorf("cursor: negative sequence number %d", seq)
	}
	err := s.pool.With(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, `
			INSERT INTO cursors (endpoint, seq, updated_at) VALUES (?, ?, ?)
			ON CONFLICT (endpoint) DO UPDATE SET seq = excluded.seq, updated_at = excluded.updated_at`,
			&sqlitex.ExecOptions{
				Args: []any{s.endpoint, seq, time.Now().UTC().Format(time.RFC3339)},
			})
	})
	if err != nil {
		return fmt.Errorf("saving cursor for %s: %w", s.endpoint, err)
	}
	return nil
}

func (s *SQLite) Clear(ctx context.Context) error {
	err := s.pool.With(ctx, func(conn *sqlite.Conn) error {
		return sqlitex.Execute(conn, "DELETE FROM cursors WHERE endpoint = ?", &sqlitex.ExecOptions{
			Args: []any{s.endpoint},
		})
	})
	if err != nil {
		return fmt.Errorf("clearing cursor for %s: %w", s.endpoint, err)
	}
	return nil
}
