// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package firehose

import (
	"context"
	"errors"
	"slices"
	"testing"
)

// recordingSink collects events and optionally fails or panics on
// them.
type recordingSink struct {
	events []Event
	fail   error
	panics bool
}

func (s *recordingSink) HandleEvent(_ context.Context, event Event) error {
	s.events = append(s.events, event)
	if s.panics {
		panic("sink exploded")
	}
	return s.fail
}

func (s *recordingSink) seqs() []int64 {
	var out []int64
	for _, event := range s.events {
		if seq, ok := Sequence(event); ok {
			out = append(out, seq)
		}
	}
	return out
}

func TestDispatcherRecoversPanic(t *testing.T) {
	sink := &recordingSink{panics: true}
	err := NewDispatcher(sink, nil).Dispatch(context.Background(), &InfoEvent{Type: TypeInfo})
	if !errors.Is(err, ErrSinkPanic) {
		t.Errorf("error = %v, want ErrSinkPanic", err)
	}
	if len(sink.events) != 1 {
		t.Errorf("sink invoked %d times, want 1", len(sink.events))
	}
}

func TestDispatcherReturnsSinkError(t *testing.T) {
	failure := errors.New("disk full")
	sink := &recordingSink{fail: failure}
	if err := NewDispatcher(sink, nil).Dispatch(context.Background(), &TombstoneEvent{}); !errors.Is(err, failure) {
		t.Errorf("error = %v, want %v", err, failure)
	}
}

func TestProcessorAdvancesCursor(t *testing.T) {
	sink := &recordingSink{}
	processor := NewProcessor(ProcessorConfig{Sink: sink})
	if _, ok := processor.Cursor(); ok {
		t.Fatal("new processor should have no cursor")
	}

	for _, seq := range []int64{1, 2, 2, 5} {
		if _, err := processor.Process(context.Background(), simpleCommit(t, seq)); err != nil {
			t.Fatalf("Process(%d): %v", seq, err)
		}
	}
	if cursor, ok := processor.Cursor(); !ok || cursor != 5 {
		t.Errorf("Cursor() = %d, %v; want 5", cursor, ok)
	}
	for _, event := range sink.events {
		if event.(*CommitEvent).OutOfOrder {
			t.Errorf("seq %d flagged out of order", event.(*CommitEvent).Seq)
		}
	}
}

func TestProcessorCursorAdvancesPastSinkFailure(t *testing.T) {
	sink := &recordingSink{fail: errors.New("rejected"), panics: false}
	processor := NewProcessor(ProcessorConfig{Sink: sink})
	if _, err := processor.Process(context.Background(), simpleCommit(t, 3)); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if cursor, _ := processor.Cursor(); cursor != 3 {
		t.Errorf("Cursor() = %d, want 3", cursor)
	}
}

func TestProcessorFlagsSequenceDecrease(t *testing.T) {
	sink := &recordingSink{}
	processor := NewProcessor(ProcessorConfig{Sink: sink})
	for _, seq := range []int64{10, 4, 6} {
		if _, err := processor.Process(context.Background(), simpleCommit(t, seq)); err != nil {
			t.Fatalf("Process(%d): %v", seq, err)
		}
	}
	if len(sink.events) != 3 {
		t.Fatalf("delivered %d events, want 3", len(sink.events))
	}
	flags := []bool{false, true, false}
	for i, event := range sink.events {
		if got := event.(*CommitEvent).OutOfOrder; got != flags[i] {
			t.Errorf("event %d OutOfOrder = %v, want %v", i, got, flags[i])
		}
	}
	if cursor, _ := processor.Cursor(); cursor != 6 {
		t.Errorf("Cursor() = %d, want 6", cursor)
	}
}

func TestProcessorResumeDropsRepeatOfCursor(t *testing.T) {
	sink := &recordingSink{}
	processor := NewProcessor(ProcessorConfig{Sink: sink})
	processor.SetCursor(4)
	processor.Resume(4)

	for _, seq := range []int64{4, 5, 6} {
		if _, err := processor.Process(context.Background(), simpleCommit(t, seq)); err != nil {
			t.Fatalf("Process(%d): %v", seq, err)
		}
	}
	if got := sink.seqs(); !slices.Equal(got, []int64{5, 6}) {
		t.Errorf("delivered %v, want [5 6]", got)
	}

	// Once past the resume point, a repeat is an ordinary sequence
	// decrease and is delivered flagged.
	if _, err := processor.Process(context.Background(), simpleCommit(t, 4)); err != nil {
		t.Fatalf("Process(4): %v", err)
	}
	if len(sink.events) != 3 || !sink.events[2].(*CommitEvent).OutOfOrder {
		t.Errorf("late repeat not delivered as out of order: %d events", len(sink.events))
	}
}

func TestProcessorLiveResumeKeepsEverything(t *testing.T) {
	sink := &recordingSink{}
	processor := NewProcessor(ProcessorConfig{Sink: sink})
	processor.SetCursor(4)
	processor.Resume(-1)
	if _, err := processor.Process(context.Background(), simpleCommit(t, 4)); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(sink.events) != 1 {
		t.Errorf("delivered %d events, want 1", len(sink.events))
	}
}

func TestProcessorSkipsUndecodableFrames(t *testing.T) {
	sink := &recordingSink{}
	processor := NewProcessor(ProcessorConfig{Sink: sink})
	processor.SetCursor(8)

	good := simpleCommit(t, 9)
	if _, err := processor.Process(context.Background(), good[:len(good)-1]); !errors.Is(err, ErrIncompleteFrame) {
		t.Errorf("error = %v, want ErrIncompleteFrame", err)
	}
	if len(sink.events) != 0 {
		t.Errorf("sink saw %d events for a bad frame", len(sink.events))
	}
	if cursor, _ := processor.Cursor(); cursor != 8 {
		t.Errorf("Cursor() = %d, want 8 after a skipped frame", cursor)
	}
}

func TestProcessorFutureCursorClearsCursor(t *testing.T) {
	sink := &recordingSink{}
	processor := NewProcessor(ProcessorConfig{Sink: sink})
	processor.SetCursor(1_000_000)

	event, err := processor.Process(context.Background(), errorMessage(t, ErrorFutureCursor, "ahead"))
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if _, ok := event.(*ErrorEvent); !ok {
		t.Errorf("event = %T, want *ErrorEvent", event)
	}
	if _, ok := processor.Cursor(); ok {
		t.Error("FutureCursor should clear the cursor")
	}
	if len(sink.events) != 1 {
		t.Errorf("sink saw %d events, want the error event", len(sink.events))
	}
}

func TestProcessorNonSequencedEventsKeepCursor(t *testing.T) {
	processor := NewProcessor(ProcessorConfig{Sink: &recordingSink{}})
	processor.SetCursor(42)
	if _, err := processor.Process(context.Background(), message(t, "#brandnew", identityBody(99, "did:plc:z"))); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if cursor, _ := processor.Cursor(); cursor != 42 {
		t.Errorf("Cursor() = %d, want 42", cursor)
	}
}
