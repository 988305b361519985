// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package streamui

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bureau-foundation/skystream/firehose"
)

type recordingSender struct {
	mu   sync.Mutex
	msgs []tea.Msg
}

func (sender *recordingSender) Send(msg tea.Msg) {
	sender.mu.Lock()
	defer sender.mu.Unlock()
	sender.msgs = append(sender.msgs, msg)
}

func (sender *recordingSender) messages() []tea.Msg {
	sender.mu.Lock()
	defer sender.mu.Unlock()
	return append([]tea.Msg(nil), sender.msgs...)
}

func TestFeedForwardsEventsAndStates(t *testing.T) {
	sender := &recordingSender{}
	feed := NewFeed(sender)

	event := &firehose.TombstoneEvent{DID: "did:plc:gone"}
	if err := feed.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	feed.StateChange(firehose.StateConnecting, firehose.StateStreaming)

	msgs := sender.messages()
	if len(msgs) != 2 {
		t.Fatalf("sent %d messages, want 2", len(msgs))
	}
	if got, ok := msgs[0].(EventMsg); !ok || got.Event != event {
		t.Errorf("first message = %#v", msgs[0])
	}
	if got, ok := msgs[1].(StateMsg); !ok || got.To != firehose.StateStreaming {
		t.Errorf("second message = %#v", msgs[1])
	}
}

func TestLogHandler(t *testing.T) {
	handler := NewLogHandler(slog.LevelWarn)
	logger := slog.New(handler)

	// Nothing is delivered before a sender is attached.
	logger.Warn("early")

	sender := &recordingSender{}
	handler.SetSender(sender)

	derived := logger.With("endpoint", "wss://relay.test").WithGroup("stream")
	logger.Info("below level")
	derived.Warn("reconnecting", "delay", "2s")
	logger.Error("failed")

	msgs := sender.messages()
	if len(msgs) != 2 {
		t.Fatalf("delivered %d records, want 2: %#v", len(msgs), msgs)
	}
	first := msgs[0].(logRecordMsg)
	if want := "reconnecting (endpoint=wss://relay.test, stream.delay=2s)"; first.Summary != want {
		t.Errorf("summary = %q, want %q", first.Summary, want)
	}
	if first.Level != slog.LevelWarn {
		t.Errorf("level = %v", first.Level)
	}
	if second := msgs[1].(logRecordMsg); second.Summary != "failed" || second.Level != slog.LevelError {
		t.Errorf("second record = %#v", second)
	}
}
