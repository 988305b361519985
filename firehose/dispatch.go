// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package firehose

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync/atomic"
)

// Sink receives events one at a time in arrival order. HandleEvent
// must not block indefinitely: the receive loop waits for it.
type Sink interface {
	HandleEvent(ctx context.Context, event Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, event Event) error

func (f SinkFunc) HandleEvent(ctx context.Context, event Event) error { return f(ctx, event) }

// ErrSinkPanic wraps a panic recovered from a sink.
var ErrSinkPanic = errors.New("sink panicked")

// Dispatcher delivers events to a sink. A sink error or panic is
// logged and returned but never propagates further.
type Dispatcher struct {
	sink   Sink
	logger *slog.Logger
}

// NewDispatcher returns a dispatcher for sink. A nil logger discards.
func NewDispatcher(sink Sink, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Dispatcher{sink: sink, logger: logger}
}

// Dispatch invokes the sink exactly once for event.
func (d *Dispatcher) Dispatch(ctx context.Context, event Event) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("%w: %v", ErrSinkPanic, recovered)
			d.logger.Error("sink panicked",
				"kind", event.Kind(),
				"panic", recovered,
				"stack", string(debug.Stack()),
			)
		}
	}()
	if err := d.sink.HandleEvent(ctx, event); err != nil {
		attrs := []any{"kind", event.Kind(), "error", err}
		if seq, ok := Sequence(event); ok {
			attrs = append(attrs, "seq", seq)
		}
		d.logger.Warn("sink rejected event", attrs...)
		return err
	}
	return nil
}

// Processor runs raw messages through decoding and dispatch, tracking
// the highest-numbered event position (the cursor). It is not safe for
// concurrent use; Cursor may be read from any goroutine.
type Processor struct {
	decoder    Decoder
	dispatcher *Dispatcher
	logger     *slog.Logger

	// cursor holds the last sequence number, or noCursor.
	cursor atomic.Int64

	// resumedAt is the cursor the current connection resumed from,
	// or noCursor once an event past it has arrived.
	resumedAt int64
}

const noCursor = -1

// ProcessorConfig configures a Processor.
type ProcessorConfig struct {
	Sink     Sink
	MaxDepth int
	Logger   *slog.Logger
}

// NewProcessor returns a processor with no cursor.
func NewProcessor(config ProcessorConfig) *Processor {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	p := &Processor{
		decoder:    Decoder{MaxDepth: config.MaxDepth},
		dispatcher: NewDispatcher(config.Sink, logger),
		logger:     logger,
		resumedAt:  noCursor,
	}
	p.cursor.Store(noCursor)
	return p
}

// Cursor returns a snapshot of the last sequence number processed.
func (p *Processor) Cursor() (int64, bool) {
	seq := p.cursor.Load()
	return seq, seq != noCursor
}

// SetCursor replaces the cursor, typically with a value restored from
// storage. A negative seq clears it.
func (p *Processor) SetCursor(seq int64) {
	if seq < 0 {
		seq = noCursor
	}
	p.cursor.Store(seq)
}

// Resume records that a connection was opened asking for events after
// seq. Until an event past seq arrives, an event repeating seq itself
// is dropped, so a service that replays inclusively does not deliver
// the cursor's event twice. A negative seq marks a live connection.
func (p *Processor) Resume(seq int64) {
	if seq < 0 {
		seq = noCursor
	}
	p.resumedAt = seq
}

// Process decodes message and dispatches the resulting event. A decode
// error is returned with a nil event and nothing reaches the sink. A
// sink error is logged by the dispatcher and not returned, and the
// cursor still advances past the event. An event dropped as a repeat
// of the resume cursor is returned without reaching the sink.
func (p *Processor) Process(ctx context.Context, message []byte) (Event, error) {
	event, err := p.decoder.Decode(message)
	if err != nil {
		return nil, err
	}

	if s, ok := event.(sequenced); ok {
		envelope := s.envelope()
		if p.resumedAt != noCursor {
			if envelope.Seq == p.resumedAt {
				p.logger.Debug("dropping event repeated at resume cursor",
					"kind", event.Kind(), "seq", envelope.Seq)
				return event, nil
			}
			p.resumedAt = noCursor
		}
		if last, ok := p.Cursor(); ok && envelope.Seq < last {
			envelope.OutOfOrder = true
			p.logger.Warn("sequence decreased",
				"error", ErrProtocolViolation,
				"kind", event.Kind(),
				"seq", envelope.Seq,
				"cursor", last,
			)
		}
	}

	p.dispatcher.Dispatch(ctx, event)

	switch event := event.(type) {
	case sequenced:
		p.cursor.Store(event.envelope().Seq)
	case *ErrorEvent:
		if event.Code == ErrorFutureCursor {
			p.logger.Warn("service rejected cursor as in the future, clearing it",
				"cursor", p.cursor.Load(), "message", event.Message)
			p.cursor.Store(noCursor)
		}
	case *InfoEvent:
		if event.Name == InfoOutdatedCursor {
			p.logger.Info("cursor is older than the service's backfill window",
				"cursor", p.cursor.Load(), "message", event.Message)
		}
	}
	return event, nil
}
