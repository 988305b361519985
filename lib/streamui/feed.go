// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package streamui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bureau-foundation/skystream/firehose"
)

// Sender delivers messages into a running program. *tea.Program
// satisfies it.
type Sender interface {
	Send(msg tea.Msg)
}

// EventMsg carries one event into the model.
type EventMsg struct {
	Event firehose.Event
}

// StateMsg reports a session state transition.
type StateMsg struct {
	From, To firehose.State
}

// Feed forwards session activity to a Sender. Use HandleEvent as the
// session's sink (or the tail of a filter chain) and StateChange as
// its OnStateChange hook.
type Feed struct {
	sender Sender
}

// NewFeed returns a Feed that delivers to sender.
func NewFeed(sender Sender) *Feed {
	return &Feed{sender: sender}
}

// HandleEvent implements [firehose.Sink]. It blocks until the program
// accepts the message, so a stalled viewer applies backpressure to the
// stream instead of buffering without bound.
func (feed *Feed) HandleEvent(_ context.Context, event firehose.Event) error {
	feed.sender.Send(EventMsg{Event: event})
	return nil
}

// StateChange matches [firehose.SessionConfig.OnStateChange].
func (feed *Feed) StateChange(from, to firehose.State) {
	feed.sender.Send(StateMsg{From: from, To: to})
}
