// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"
)

// NewCommandLogger returns a logger on stderr at level: a text handler
// when stderr is a terminal, JSON otherwise so piped output stays
// machine-readable.
//
// Commands scope it with With:
//
//	logger := cli.NewCommandLogger(level).With("command", "stream", "endpoint", endpoint)
func NewCommandLogger(level slog.Level) *slog.Logger {
	return slog.New(NewHandler(os.Stderr, level, term.IsTerminal(int(os.Stderr.Fd()))))
}

// NewHandler returns a text handler when text is set and a JSON
// handler otherwise.
func NewHandler(w io.Writer, level slog.Level, text bool) slog.Handler {
	options := &slog.HandlerOptions{Level: level}
	if text {
		return slog.NewTextHandler(w, options)
	}
	return slog.NewJSONHandler(w, options)
}

// ParseLevel parses a --log-level value: debug, info, warn or error,
// in any case, optionally with an offset such as "warn+2".
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return 0, fmt.Errorf("invalid log level %q: want debug, info, warn or error", name)
	}
	return level, nil
}
