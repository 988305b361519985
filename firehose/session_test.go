// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package firehose

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/bureau-foundation/skystream/lib/clock"
	"github.com/bureau-foundation/skystream/lib/testutil"
)

var epoch = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger { return slog.New(slog.DiscardHandler) }

// scriptedConn delivers messages in order, then fails with err. With a
// nil err it blocks until the receive context ends.
type scriptedConn struct {
	messages [][]byte
	err      error
	closed   chan struct{}
	once     sync.Once
}

func newScriptedConn(messages [][]byte, err error) *scriptedConn {
	return &scriptedConn{messages: messages, err: err, closed: make(chan struct{})}
}

func (c *scriptedConn) Receive(ctx context.Context) ([]byte, error) {
	if len(c.messages) > 0 {
		next := c.messages[0]
		c.messages = c.messages[1:]
		return next, nil
	}
	if c.err != nil {
		return nil, c.err
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.closed:
		return nil, io.EOF
	}
}

func (c *scriptedConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

// replayService is a Transport backed by a fixed event log. It honors
// the cursor the way the real service does, replaying every event with
// a higher sequence number. dropAfter, when set, ends a connection with
// a transport error once that many events have been sent on it. With
// inclusive set it also replays the event at the cursor.
type replayService struct {
	t         *testing.T
	log       []int64
	dropAfter []int
	inclusive bool

	mu      sync.Mutex
	cursors []*int64
}

func (s *replayService) Dial(_ context.Context, cursor *int64) (Conn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cursor != nil {
		copied := *cursor
		cursor = &copied
	}
	attempt := len(s.cursors)
	s.cursors = append(s.cursors, cursor)

	var messages [][]byte
	for _, seq := range s.log {
		if cursor == nil || seq > *cursor || (s.inclusive && seq == *cursor) {
			messages = append(messages, simpleCommit(s.t, seq))
		}
	}
	var err error
	if attempt < len(s.dropAfter) && s.dropAfter[attempt] < len(messages) {
		messages = messages[:s.dropAfter[attempt]]
		err = &TransportError{Op: "receive", Err: io.ErrUnexpectedEOF}
	}
	return newScriptedConn(messages, err), nil
}

func (s *replayService) dialCursors() []*int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.cursors)
}

// memoryCursor is a CursorStore in memory.
type memoryCursor struct {
	mu    sync.Mutex
	seq   int64
	ok    bool
	saves int
}

func (m *memoryCursor) Load(context.Context) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seq, m.ok, nil
}

func (m *memoryCursor) Save(_ context.Context, seq int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq, m.ok = seq, true
	m.saves++
	return nil
}

func (m *memoryCursor) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq, m.ok = 0, false
	return nil
}

func (m *memoryCursor) get() (int64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seq, m.ok
}

// channelSink forwards sequence numbers to a channel.
func channelSink(ch chan<- int64) Sink {
	return SinkFunc(func(_ context.Context, event Event) error {
		if seq, ok := Sequence(event); ok {
			ch <- seq
		}
		return nil
	})
}

func runSession(t *testing.T, session *Session, ctx context.Context) <-chan error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- session.Run(ctx) }()
	return done
}

func TestSessionResumesWithoutRedelivery(t *testing.T) {
	service := &replayService{t: t, log: []int64{1, 2, 3, 4, 5, 6, 7, 8}, dropAfter: []int{5}}
	fakeClock := clock.Fake(epoch)
	store := &memoryCursor{}
	delivered := make(chan int64, 16)

	session, err := NewSession(SessionConfig{
		Transport:      service,
		Sink:           channelSink(delivered),
		Cursor:         store,
		ReceiveTimeout: -1,
		Clock:          fakeClock,
		Logger:         discardLogger(),
	})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := runSession(t, session, ctx)

	var got []int64
	for range 5 {
		got = append(got, testutil.RequireReceive(t, delivered, 5*time.Second, "first connection events"))
	}

	// The first connection drops; the session backs off before
	// reconnecting from the cursor.
	fakeClock.WaitForTimers(1)
	if session.State() != StateBackoff {
		t.Errorf("state during backoff = %s", session.State())
	}
	if seq, ok := store.get(); !ok || seq != 5 {
		t.Errorf("stored cursor after disconnect = %d, %v; want 5", seq, ok)
	}
	fakeClock.Advance(DefaultInitialBackoff)

	for range 3 {
		got = append(got, testutil.RequireReceive(t, delivered, 5*time.Second, "resumed events"))
	}
	if want := []int64{1, 2, 3, 4, 5, 6, 7, 8}; !slices.Equal(got, want) {
		t.Errorf("delivered %v, want %v", got, want)
	}

	cancel()
	if err := testutil.RequireReceive(t, done, 5*time.Second, "Run to return"); err != nil {
		t.Errorf("Run returned %v, want nil on cancellation", err)
	}
	select {
	case extra := <-delivered:
		t.Errorf("redelivered seq %d", extra)
	default:
	}

	cursors := service.dialCursors()
	if len(cursors) != 2 {
		t.Fatalf("dialed %d times, want 2", len(cursors))
	}
	if cursors[0] != nil {
		t.Errorf("first dial cursor = %d, want none", *cursors[0])
	}
	if cursors[1] == nil || *cursors[1] != 5 {
		t.Errorf("second dial cursor = %v, want 5", cursors[1])
	}
	if seq, _ := store.get(); seq != 8 {
		t.Errorf("stored cursor at shutdown = %d, want 8", seq)
	}
	if session.State() != StateDisconnected {
		t.Errorf("final state = %s, want disconnected", session.State())
	}
}

func TestSessionDropsEventRepeatedAtResumeCursor(t *testing.T) {
	service := &replayService{t: t, log: []int64{1, 2, 3, 4, 5, 6}, dropAfter: []int{3}, inclusive: true}
	fakeClock := clock.Fake(epoch)
	delivered := make(chan int64, 16)

	session, err := NewSession(SessionConfig{
		Transport:      service,
		Sink:           channelSink(delivered),
		ReceiveTimeout: -1,
		Clock:          fakeClock,
		Logger:         discardLogger(),
	})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := runSession(t, session, ctx)

	var got []int64
	for range 3 {
		got = append(got, testutil.RequireReceive(t, delivered, 5*time.Second, "first connection events"))
	}
	fakeClock.WaitForTimers(1)
	fakeClock.Advance(DefaultInitialBackoff)
	for range 3 {
		got = append(got, testutil.RequireReceive(t, delivered, 5*time.Second, "resumed events"))
	}
	if want := []int64{1, 2, 3, 4, 5, 6}; !slices.Equal(got, want) {
		t.Errorf("delivered %v, want %v", got, want)
	}

	cancel()
	if err := testutil.RequireReceive(t, done, 5*time.Second, "Run to return"); err != nil {
		t.Errorf("Run returned %v, want nil on cancellation", err)
	}
	select {
	case extra := <-delivered:
		t.Errorf("redelivered seq %d", extra)
	default:
	}
	if cursors := service.dialCursors(); len(cursors) != 2 || cursors[1] == nil || *cursors[1] != 3 {
		t.Errorf("dial cursors = %v, want resume from 3", cursors)
	}
}

func TestSessionStartsFromStoredCursor(t *testing.T) {
	service := &replayService{t: t, log: []int64{10, 11, 12}}
	store := &memoryCursor{seq: 10, ok: true}
	delivered := make(chan int64, 8)

	session, err := NewSession(SessionConfig{
		Transport:      service,
		Sink:           channelSink(delivered),
		Cursor:         store,
		ReceiveTimeout: -1,
		Clock:          clock.Fake(epoch),
		Logger:         discardLogger(),
	})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := runSession(t, session, ctx)

	if seq := testutil.RequireReceive(t, delivered, 5*time.Second, "first event"); seq != 11 {
		t.Errorf("first seq = %d, want 11", seq)
	}
	if seq := testutil.RequireReceive(t, delivered, 5*time.Second, "second event"); seq != 12 {
		t.Errorf("second seq = %d, want 12", seq)
	}
	cancel()
	testutil.RequireReceive(t, done, 5*time.Second, "Run to return")

	if cursors := service.dialCursors(); cursors[0] == nil || *cursors[0] != 10 {
		t.Errorf("dial cursor = %v, want 10", cursors[0])
	}
}

func TestSessionStartCursorOverridesStore(t *testing.T) {
	service := &replayService{t: t, log: []int64{1, 2, 3}}
	start := int64(2)
	delivered := make(chan int64, 8)

	session, err := NewSession(SessionConfig{
		Transport:      service,
		Sink:           channelSink(delivered),
		Cursor:         &memoryCursor{seq: 0, ok: true},
		StartCursor:    &start,
		ReceiveTimeout: -1,
		Clock:          clock.Fake(epoch),
		Logger:         discardLogger(),
	})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := runSession(t, session, ctx)
	if seq := testutil.RequireReceive(t, delivered, 5*time.Second, "event"); seq != 3 {
		t.Errorf("first seq = %d, want 3", seq)
	}
	cancel()
	testutil.RequireReceive(t, done, 5*time.Second, "Run to return")
}

// failingTransport refuses every dial and reports each attempt.
type failingTransport struct {
	attempts chan struct{}
}

func (f *failingTransport) Dial(context.Context, *int64) (Conn, error) {
	f.attempts <- struct{}{}
	return nil, &TransportError{Op: "dial", Err: errors.New("connection refused")}
}

func TestSessionBackoffDoublesToCap(t *testing.T) {
	fakeClock := clock.Fake(epoch)
	transport := &failingTransport{attempts: make(chan struct{}, 16)}
	session, err := NewSession(SessionConfig{
		Transport:      transport,
		Sink:           SinkFunc(func(context.Context, Event) error { return nil }),
		InitialBackoff: time.Second,
		MaxBackoff:     4 * time.Second,
		Clock:          fakeClock,
		Logger:         discardLogger(),
	})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := runSession(t, session, ctx)

	testutil.RequireReceive(t, transport.attempts, 5*time.Second, "first dial")
	for i, delay := range []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 4 * time.Second} {
		fakeClock.WaitForTimers(1)
		fakeClock.Advance(delay - time.Millisecond)
		if fakeClock.PendingCount() != 1 {
			t.Fatalf("backoff %d fired before %v elapsed", i, delay)
		}
		fakeClock.Advance(time.Millisecond)
		testutil.RequireReceive(t, transport.attempts, 5*time.Second, "redial %d", i)
	}

	cancel()
	if err := testutil.RequireReceive(t, done, 5*time.Second, "Run to return"); err != nil {
		t.Errorf("Run returned %v", err)
	}
}

func TestSessionBackoffResetsAfterTraffic(t *testing.T) {
	fakeClock := clock.Fake(epoch)
	// Connection 0 fails at once, connection 1 fails at once, then
	// connection 2 delivers one event before failing. The delay after
	// connection 2 starts over at the initial backoff.
	service := &replayService{t: t, log: []int64{1, 2}, dropAfter: []int{0, 0, 1, 0}}
	delivered := make(chan int64, 8)
	session, err := NewSession(SessionConfig{
		Transport:      service,
		Sink:           channelSink(delivered),
		ReceiveTimeout: -1,
		InitialBackoff: time.Second,
		MaxBackoff:     time.Minute,
		Clock:          fakeClock,
		Logger:         discardLogger(),
	})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := runSession(t, session, ctx)

	fakeClock.WaitForTimers(1)
	fakeClock.Advance(time.Second)
	fakeClock.WaitForTimers(1)
	fakeClock.Advance(2 * time.Second)
	testutil.RequireReceive(t, delivered, 5*time.Second, "event on third connection")

	fakeClock.WaitForTimers(1)
	fakeClock.Advance(time.Second - time.Millisecond)
	if fakeClock.PendingCount() != 1 {
		t.Fatal("reset backoff fired early")
	}
	fakeClock.Advance(time.Millisecond)

	// The fourth dial resumes after the one delivered event.
	fakeClock.WaitForTimers(1)
	cursors := service.dialCursors()
	if len(cursors) != 4 {
		t.Fatalf("dialed %d times, want 4", len(cursors))
	}
	if cursors[3] == nil || *cursors[3] != 1 {
		t.Errorf("fourth dial cursor = %v, want 1", cursors[3])
	}

	cancel()
	testutil.RequireReceive(t, done, 5*time.Second, "Run to return")
}

func TestSessionCancelDuringBackoff(t *testing.T) {
	fakeClock := clock.Fake(epoch)
	transport := &failingTransport{attempts: make(chan struct{}, 4)}

	var mu sync.Mutex
	var transitions []State
	session, err := NewSession(SessionConfig{
		Transport: transport,
		Sink:      SinkFunc(func(context.Context, Event) error { return nil }),
		Clock:     fakeClock,
		Logger:    discardLogger(),
		OnStateChange: func(_, to State) {
			mu.Lock()
			transitions = append(transitions, to)
			mu.Unlock()
		},
	})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := runSession(t, session, ctx)

	testutil.RequireReceive(t, transport.attempts, 5*time.Second, "dial")
	fakeClock.WaitForTimers(1)
	cancel()
	if err := testutil.RequireReceive(t, done, 5*time.Second, "Run to return"); err != nil {
		t.Errorf("Run returned %v, want nil", err)
	}

	mu.Lock()
	defer mu.Unlock()
	want := []State{StateConnecting, StateBackoff, StateDisconnected}
	if !slices.Equal(transitions, want) {
		t.Errorf("transitions = %v, want %v", transitions, want)
	}
}

func TestSessionSkipsBadFramesAndKeepsStreaming(t *testing.T) {
	good := simpleCommit(t, 2)
	conn := newScriptedConn([][]byte{
		simpleCommit(t, 1),
		good[:len(good)-3],
		message(t, "#mystery", identityBody(0, "did:plc:q")),
		simpleCommit(t, 3),
	}, nil)

	var mu sync.Mutex
	var kinds []string
	reachedEnd := make(chan struct{})
	var frames int
	session, err := NewSession(SessionConfig{
		Transport: transportFunc(func(context.Context, *int64) (Conn, error) { return conn, nil }),
		Sink: SinkFunc(func(_ context.Context, event Event) error {
			mu.Lock()
			kinds = append(kinds, event.Kind())
			mu.Unlock()
			if seq, _ := Sequence(event); seq == 3 {
				close(reachedEnd)
			}
			return nil
		}),
		ReceiveTimeout: -1,
		Clock:          clock.Fake(epoch),
		Logger:         discardLogger(),
		OnFrame:        func([]byte) { frames++ },
	})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := runSession(t, session, ctx)

	testutil.RequireClosed(t, reachedEnd, 5*time.Second, "last event")
	cancel()
	testutil.RequireReceive(t, done, 5*time.Second, "Run to return")

	mu.Lock()
	defer mu.Unlock()
	if want := []string{"commit", "info", "commit"}; !slices.Equal(kinds, want) {
		t.Errorf("kinds = %v, want %v", kinds, want)
	}
	if frames != 4 {
		t.Errorf("OnFrame saw %d frames, want 4", frames)
	}
	if cursor, _ := session.Cursor(); cursor != 3 {
		t.Errorf("Cursor() = %d, want 3", cursor)
	}
}

func TestSessionCursorSaveThrottling(t *testing.T) {
	fakeClock := clock.Fake(epoch)
	conn := newScriptedConn([][]byte{simpleCommit(t, 1), simpleCommit(t, 2), simpleCommit(t, 3)}, nil)
	store := &memoryCursor{}
	delivered := make(chan int64, 4)
	session, err := NewSession(SessionConfig{
		Transport:          transportFunc(func(context.Context, *int64) (Conn, error) { return conn, nil }),
		Sink:               channelSink(delivered),
		Cursor:             store,
		CursorSaveInterval: time.Minute,
		ReceiveTimeout:     -1,
		Clock:              fakeClock,
		Logger:             discardLogger(),
	})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := runSession(t, session, ctx)
	for range 3 {
		testutil.RequireReceive(t, delivered, 5*time.Second, "event")
	}
	cancel()
	testutil.RequireReceive(t, done, 5*time.Second, "Run to return")

	// The first event is saved at once, the next two fall inside the
	// interval, and the disconnect writes the final value.
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.seq != 3 {
		t.Errorf("stored cursor = %d, want 3", store.seq)
	}
	if store.saves != 2 {
		t.Errorf("saves = %d, want 2 (first event and shutdown)", store.saves)
	}
}

func TestNewSessionValidates(t *testing.T) {
	if _, err := NewSession(SessionConfig{Sink: &recordingSink{}}); err == nil {
		t.Error("NewSession without transport should fail")
	}
	if _, err := NewSession(SessionConfig{Transport: &failingTransport{}}); err == nil {
		t.Error("NewSession without sink should fail")
	}
}

type transportFunc func(ctx context.Context, cursor *int64) (Conn, error)

func (f transportFunc) Dial(ctx context.Context, cursor *int64) (Conn, error) { return f(ctx, cursor) }
