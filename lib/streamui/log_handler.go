// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package streamui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

// logRecordMsg shows a log record in the status bar.
type logRecordMsg struct {
	Summary string
	Level   slog.Level
}

// logRecordFadeMsg clears the status bar record shown at generation,
// unless a newer one replaced it.
type logRecordFadeMsg struct {
	generation int
}

// logRecordFadeDelay is how long a record stays in the status bar.
const logRecordFadeDelay = 5 * time.Second

// senderRef boxes a Sender so it can live in an atomic.Pointer.
type senderRef struct {
	Sender
}

// LogHandler is a slog.Handler that shows records in the viewer's
// status bar. Records below the level, and records arriving before
// SetSender, are dropped.
//
// Handlers derived via WithAttrs and WithGroup share the sender, so
// one SetSender call reaches all of them.
type LogHandler struct {
	level  slog.Level
	sender *atomic.Pointer[senderRef]
	attrs  []slog.Attr
	groups []string
}

// NewLogHandler returns a handler for records at or above level.
func NewLogHandler(level slog.Level) *LogHandler {
	return &LogHandler{
		level:  level,
		sender: &atomic.Pointer[senderRef]{},
	}
}

// SetSender connects the handler to a program. Safe to call from any
// goroutine.
func (handler *LogHandler) SetSender(sender Sender) {
	handler.sender.Store(&senderRef{sender})
}

// Enabled implements slog.Handler.
func (handler *LogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= handler.level
}

// Handle formats the record as "message (key=value, ...)" and sends
// it to the program.
func (handler *LogHandler) Handle(_ context.Context, record slog.Record) error {
	ref := handler.sender.Load()
	if ref == nil {
		return nil
	}

	prefix := ""
	if len(handler.groups) > 0 {
		prefix = strings.Join(handler.groups, ".") + "."
	}
	var parts []string
	for _, attr := range handler.attrs {
		parts = append(parts, fmt.Sprintf("%s=%s", attr.Key, attr.Value))
	}
	record.Attrs(func(attr slog.Attr) bool {
		parts = append(parts, fmt.Sprintf("%s%s=%s", prefix, attr.Key, attr.Value))
		return true
	})

	summary := record.Message
	if len(parts) > 0 {
		summary += " (" + strings.Join(parts, ", ") + ")"
	}
	ref.Send(logRecordMsg{Summary: summary, Level: record.Level})
	return nil
}

// WithAttrs implements slog.Handler.
func (handler *LogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	prefix := ""
	if len(handler.groups) > 0 {
		prefix = strings.Join(handler.groups, ".") + "."
	}
	derived := &LogHandler{
		level:  handler.level,
		sender: handler.sender,
		attrs:  append([]slog.Attr(nil), handler.attrs...),
		groups: append([]string(nil), handler.groups...),
	}
	for _, attr := range attrs {
		derived.attrs = append(derived.attrs, slog.Attr{Key: prefix + attr.Key, Value: attr.Value})
	}
	return derived
}

// WithGroup implements slog.Handler.
func (handler *LogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return handler
	}
	return &LogHandler{
		level:  handler.level,
		sender: handler.sender,
		attrs:  append([]slog.Attr(nil), handler.attrs...),
		groups: append(append([]string(nil), handler.groups...), name),
	}
}
