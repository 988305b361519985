// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/bureau-foundation/skystream/cmd/skystream/cli"
	"github.com/bureau-foundation/skystream/firehose"
	"github.com/bureau-foundation/skystream/lib/config"
	"github.com/bureau-foundation/skystream/lib/cursor"
	"github.com/bureau-foundation/skystream/lib/filter"
	"github.com/bureau-foundation/skystream/lib/identity"
	"github.com/bureau-foundation/skystream/lib/netutil"
	"github.com/bureau-foundation/skystream/lib/streamui"
)

// commonParams are accepted by every command that reads configuration.
type commonParams struct {
	ConfigPath string `flag:"config" desc:"configuration file (default $SKYSTREAM_CONFIG, else built-in defaults)"`
	LogLevel   string `flag:"log-level" default:"info" desc:"minimum log level: debug, info, warn or error"`
}

// readConfig loads the configuration without validating it.
func (p *commonParams) readConfig() (*config.Config, error) {
	path := p.ConfigPath
	if path == "" {
		path = os.Getenv(config.EnvVar)
	}
	if path == "" {
		cfg := config.Default()
		cfg.ExpandVariables()
		return cfg, nil
	}
	return config.LoadFile(path)
}

func (p *commonParams) loadConfig() (*config.Config, error) {
	cfg, err := p.readConfig()
	if err != nil {
		return nil, err
	}
	return validated(cfg)
}

func validated(cfg *config.Config) (*config.Config, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (p *commonParams) level() (slog.Level, error) {
	return cli.ParseLevel(p.LogLevel)
}

func (p *commonParams) logger(command string) (*slog.Logger, error) {
	level, err := p.level()
	if err != nil {
		return nil, err
	}
	return cli.NewCommandLogger(level).With("command", command), nil
}

// connectParams select the relay and the starting position.
type connectParams struct {
	Endpoint string `flag:"endpoint" desc:"relay base URL, overriding stream.endpoint"`
	Cursor   int64  `flag:"cursor" default:"-1" desc:"start at this sequence number instead of the stored cursor"`
}

func (p *connectParams) apply(cfg *config.Config) {
	if p.Endpoint != "" {
		cfg.Stream.Endpoint = p.Endpoint
	}
}

// sessionConfig fills everything except the sink, cursor store and
// hooks.
func (p *connectParams) sessionConfig(cfg *config.Config, logger *slog.Logger) firehose.SessionConfig {
	sessionConfig := firehose.SessionConfig{
		Transport: &firehose.WebSocketTransport{
			Endpoint:       cfg.Stream.Endpoint,
			MaxMessageSize: cfg.Stream.MaxMessageSize,
			Logger:         logger,
		},
		HandshakeTimeout:   cfg.Stream.HandshakeTimeout,
		ReceiveTimeout:     cfg.Stream.ReceiveTimeout,
		InitialBackoff:     cfg.Stream.InitialBackoff,
		MaxBackoff:         cfg.Stream.MaxBackoff,
		CursorSaveInterval: cfg.Cursor.SaveInterval,
		MaxDepth:           cfg.Stream.MaxDepth,
		Logger:             logger,
	}
	if p.Cursor >= 0 {
		start := p.Cursor
		sessionConfig.StartCursor = &start
	}
	return sessionConfig
}

// openCursorStore opens the configured store. The returned close
// function is never nil.
func openCursorStore(cfg *config.Config, logger *slog.Logger) (firehose.CursorStore, func() error, error) {
	switch cfg.Cursor.Backend {
	case config.CursorFile:
		return cursor.NewFile(cfg.Cursor.Path), func() error { return nil }, nil
	case config.CursorSQLite:
		store, err := cursor.OpenSQLite(cfg.Cursor.Path, cfg.Stream.Endpoint, logger)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		return nil, func() error { return nil }, nil
	}
}

// loadFilters loads the filters file named by override or the
// configuration and resolves its handles. No file means no filtering,
// reported as nil.
func loadFilters(ctx context.Context, cfg *config.Config, override string, logger *slog.Logger) (*filter.Filters, error) {
	path := override
	if path == "" {
		path = cfg.Filters.Path
	}
	if path == "" {
		return nil, nil
	}
	filters, err := filter.Load(path)
	if err != nil {
		return nil, err
	}
	client, err := newIdentityClient(cfg, "", logger)
	if err != nil {
		return nil, err
	}
	filters.Init(ctx, client, logger)
	logger.Info("filters loaded", "path", path, "filters", len(filters.Filters))
	return filters, nil
}

func newIdentityClient(cfg *config.Config, serviceURL string, logger *slog.Logger) (*identity.Client, error) {
	if serviceURL == "" {
		serviceURL = cfg.Identity.ServiceURL
	}
	return identity.NewClient(identity.ClientConfig{
		ServiceURL: serviceURL,
		Timeout:    cfg.Identity.Timeout,
		Logger:     logger,
	})
}

// filtered puts filters in front of sink when there are any.
func filtered(filters *filter.Filters, sink firehose.Sink) firehose.Sink {
	if filters == nil {
		return sink
	}
	return filters.Sink(sink)
}

// eventRecord is the JSON line written for each event.
type eventRecord struct {
	Kind  string         `json:"kind"`
	Event firehose.Event `json:"event"`
}

// Output formats for streamed events.
const (
	formatJSON = "json"
	formatText = "text"
)

// printer writes events to an output stream in one of the formats.
type printer struct {
	w       io.Writer
	format  string
	encoder *json.Encoder
}

func newPrinter(w io.Writer, format string) (*printer, error) {
	switch format {
	case formatJSON:
		return &printer{w: w, format: format, encoder: json.NewEncoder(w)}, nil
	case formatText:
		return &printer{w: w, format: format}, nil
	default:
		return nil, fmt.Errorf("unknown format %q: want %s or %s", format, formatJSON, formatText)
	}
}

// HandleEvent implements firehose.Sink.
func (p *printer) HandleEvent(_ context.Context, event firehose.Event) error {
	if p.format == formatText {
		_, err := fmt.Fprintf(p.w, "%-9s %s\n", event.Kind(), streamui.Summary(event))
		return err
	}
	return p.encoder.Encode(eventRecord{Kind: event.Kind(), Event: event})
}

// stopOnError wraps a sink whose failure should end the run, such as
// a printer writing to a closed pipe. The first error is kept and
// cancel is called.
type stopOnError struct {
	next   firehose.Sink
	cancel context.CancelFunc

	mu  sync.Mutex
	err error
}

func (s *stopOnError) HandleEvent(ctx context.Context, event firehose.Event) error {
	err := s.next.HandleEvent(ctx, event)
	if err != nil {
		s.mu.Lock()
		if s.err == nil {
			s.err = err
			s.cancel()
		}
		s.mu.Unlock()
	}
	return err
}

// Err returns the first error, or nil when the reader of the output
// went away.
func (s *stopOnError) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil || netutil.IsExpectedCloseError(s.err) || errors.Is(s.err, os.ErrClosed) {
		return nil
	}
	return fmt.Errorf("writing output: %w", s.err)
}
