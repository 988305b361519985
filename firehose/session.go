// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package firehose

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/bureau-foundation/skystream/lib/clock"
	"github.com/bureau-foundation/skystream/lib/netutil"
)

// State is the connection state of a Session.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateStreaming
	StateBackoff
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateStreaming:
		return "streaming"
	case StateBackoff:
		return "backoff"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// CursorStore persists the resume cursor across process restarts.
type CursorStore interface {
	// Load returns the stored cursor. The second result is false when
	// nothing is stored.
	Load(ctx context.Context) (int64, bool, error)
	Save(ctx context.Context, seq int64) error
	Clear(ctx context.Context) error
}

// Reconnection and timeout defaults.
const (
	DefaultInitialBackoff   = 1 * time.Second
	DefaultMaxBackoff       = 30 * time.Second
	DefaultHandshakeTimeout = 30 * time.Second
	DefaultReceiveTimeout   = 60 * time.Second
)

// SessionConfig configures a Session. Transport and Sink are required.
type SessionConfig struct {
	Transport Transport
	Sink      Sink

	// Cursor, when set, is read once when Run starts and written as
	// events are processed.
	Cursor CursorStore

	// StartCursor overrides the stored cursor for the first
	// connection.
	StartCursor *int64

	// HandshakeTimeout bounds each Dial. ReceiveTimeout bounds each
	// wait for a message; a timed-out receive is a transport error.
	// Zero selects the default; negative disables the timeout.
	HandshakeTimeout time.Duration
	ReceiveTimeout   time.Duration

	// InitialBackoff is the first reconnect delay, doubled after each
	// consecutive failure up to MaxBackoff. A connection that delivers
	// at least one message resets the delay.
	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	// CursorSaveInterval throttles CursorStore.Save. Zero saves after
	// every event. The cursor is always saved on disconnect and when
	// Run returns.
	CursorSaveInterval time.Duration

	// MaxDepth bounds value nesting; zero means the codec default.
	MaxDepth int

	Clock  clock.Clock
	Logger *slog.Logger

	// OnStateChange is called on the Run goroutine for every state
	// transition.
	OnStateChange func(from, to State)

	// OnFrame is called with every raw message before it is decoded.
	// The slice must not be retained past the call.
	OnFrame func(message []byte)
}

// Session is one logical stream consumer. Its methods other than Run
// are safe to call from any goroutine.
type Session struct {
	config    SessionConfig
	processor *Processor
	clock     clock.Clock
	logger    *slog.Logger

	state atomic.Int32

	// savedCursor is the last value written to the store, or noCursor.
	savedCursor int64
	lastSave    time.Time
}

// NewSession validates config and returns an idle session.
func NewSession(config SessionConfig) (*Session, error) {
	if config.Transport == nil {
		return nil, errors.New("firehose session requires a transport")
	}
	if config.Sink == nil {
		return nil, errors.New("firehose session requires a sink")
	}
	if config.HandshakeTimeout == 0 {
		config.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if config.ReceiveTimeout == 0 {
		config.ReceiveTimeout = DefaultReceiveTimeout
	}
	if config.InitialBackoff <= 0 {
		config.InitialBackoff = DefaultInitialBackoff
	}
	if config.MaxBackoff < config.InitialBackoff {
		config.MaxBackoff = max(DefaultMaxBackoff, config.InitialBackoff)
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &Session{
		config: config,
		processor: NewProcessor(ProcessorConfig{
			Sink:     config.Sink,
			MaxDepth: config.MaxDepth,
			Logger:   config.Logger,
		}),
		clock:       config.Clock,
		logger:      config.Logger,
		savedCursor: noCursor,
	}, nil
}

// State returns the current connection state.
func (s *Session) State() State { return State(s.state.Load()) }

// Cursor returns a snapshot of the resume cursor.
func (s *Session) Cursor() (int64, bool) { return s.processor.Cursor() }

func (s *Session) setState(to State) {
	from := State(s.state.Swap(int32(to)))
	if from == to {
		return
	}
	s.logger.Debug("firehose state change", "from", from, "to", to)
	if s.config.OnStateChange != nil {
		s.config.OnStateChange(from, to)
	}
}

// Run connects and streams until ctx is cancelled, reconnecting with
// backoff after every transport failure. It returns nil on
// cancellation and an error only when the cursor store cannot be read
// at startup.
func (s *Session) Run(ctx context.Context) error {
	if err := s.restoreCursor(ctx); err != nil {
		return err
	}
	defer s.setState(StateDisconnected)
	defer s.saveCursor(context.WithoutCancel(ctx), true)

	backoff := s.config.InitialBackoff
	for {
		if ctx.Err() != nil {
			return nil
		}

		s.setState(StateConnecting)
		received, err := s.stream(ctx)
		s.saveCursor(context.WithoutCancel(ctx), true)
		if ctx.Err() != nil {
			return nil
		}
		if received {
			backoff = s.config.InitialBackoff
		}

		cursor, hasCursor := s.Cursor()
		attrs := []any{"error", err, "backoff", backoff}
		if hasCursor {
			attrs = append(attrs, "cursor", cursor)
		}
		if netutil.IsExpectedCloseError(err) {
			s.logger.Info("firehose closed by relay, reconnecting", attrs...)
		} else {
			s.logger.Warn("firehose disconnected, reconnecting", attrs...)
		}

		s.setState(StateBackoff)
		select {
		case <-ctx.Done():
			return nil
		case <-s.clock.After(backoff):
		}
		backoff = min(backoff*2, s.config.MaxBackoff)
	}
}

func (s *Session) restoreCursor(ctx context.Context) error {
	if s.config.StartCursor != nil {
		s.processor.SetCursor(*s.config.StartCursor)
		return nil
	}
	if s.config.Cursor == nil {
		return nil
	}
	seq, ok, err := s.config.Cursor.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading cursor: %w", err)
	}
	if ok {
		s.processor.SetCursor(seq)
		s.savedCursor = seq
		s.logger.Info("restored firehose cursor", "cursor", seq)
	}
	return nil
}

// stream runs one connection. It reports whether any message arrived,
// and returns nil only when ctx was cancelled.
func (s *Session) stream(ctx context.Context) (bool, error) {
	var cursor *int64
	if seq, ok := s.Cursor(); ok {
		cursor = &seq
	}

	dialCtx, cancel := withOptionalTimeout(ctx, s.config.HandshakeTimeout)
	conn, err := s.config.Transport.Dial(dialCtx, cursor)
	cancel()
	if err != nil {
		return false, err
	}
	defer conn.Close()

	s.setState(StateStreaming)
	if cursor != nil {
		s.processor.Resume(*cursor)
		s.logger.Info("firehose connected", "cursor", *cursor)
	} else {
		s.processor.Resume(noCursor)
		s.logger.Info("firehose connected", "cursor", "live")
	}

	received := false
	for {
		// Cancellation is honored between frames only, so a frame
		// that has been received is always fully processed.
		if ctx.Err() != nil {
			return received, nil
		}
		receiveCtx, cancel := withOptionalTimeout(ctx, s.config.ReceiveTimeout)
		message, err := conn.Receive(receiveCtx)
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				return received, nil
			}
			if !IsTransportError(err) {
				err = &TransportError{Op: "receive", Err: err}
			}
			return received, err
		}
		received = true

		if s.config.OnFrame != nil {
			s.config.OnFrame(message)
		}
		if _, err := s.processor.Process(ctx, message); err != nil {
			attrs := []any{"error", err, "length", len(message)}
			if seq, ok := s.Cursor(); ok {
				attrs = append(attrs, "after_seq", seq)
			}
			s.logger.Warn("skipping undecodable frame", attrs...)
			continue
		}
		s.saveCursor(ctx, false)
	}
}

// saveCursor writes the cursor to the store when it changed since the
// last write. Unless force is set, writes are throttled to one per
// CursorSaveInterval.
func (s *Session) saveCursor(ctx context.Context, force bool) {
	store := s.config.Cursor
	if store == nil {
		return
	}
	seq, ok := s.Cursor()
	if !ok {
		seq = noCursor
	}
	if seq == s.savedCursor {
		return
	}
	now := s.clock.Now()
	if !force && s.config.CursorSaveInterval > 0 && now.Sub(s.lastSave) < s.config.CursorSaveInterval {
		return
	}

	var err error
	if ok {
		err = store.Save(ctx, seq)
	} else {
		err = store.Clear(ctx)
	}
	if err != nil {
		s.logger.Error("saving firehose cursor failed", "cursor", seq, "error", err)
		return
	}
	s.savedCursor = seq
	s.lastSave = now
}

func withOptionalTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
