// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/skystream/cmd/skystream/cli"
	"github.com/bureau-foundation/skystream/firehose"
	"github.com/bureau-foundation/skystream/lib/clock"
	"github.com/bureau-foundation/skystream/lib/config"
)

type streamParams struct {
	commonParams
	connectParams
	NoCursor      bool          `flag:"no-cursor" desc:"neither read nor write the stored cursor"`
	Format        string        `flag:"format" default:"json" desc:"output format: json (one object per line) or text"`
	FiltersPath   string        `flag:"filters" desc:"filters file, overriding filters.path"`
	StatsInterval time.Duration `flag:"stats" desc:"log throughput at this interval (0 disables)"`
}

func streamCommand(stdout io.Writer) *cli.Command {
	var params streamParams
	return &cli.Command{
		Name:    "stream",
		Summary: "Print events from the relay",
		Description: `Connect to the relay and print every event on stdout until interrupted.

The JSON format writes one {"kind": ..., "event": ...} object per line.
The text format writes one summary line per event. The cursor is stored
as configured (cursor.backend) so the next run resumes where this one
stopped; --cursor starts somewhere else and --no-cursor ignores the
store entirely.`,
		Usage: "skystream stream [flags]",
		Examples: []cli.Example{
			{
				Description: "Posts only, as summaries",
				Command:     "skystream stream --format text | grep app.bsky.feed.post",
			},
			{
				Description: "Replay the relay's backfill window from a known sequence number",
				Command:     "skystream stream --no-cursor --cursor 8123456789",
			},
		},
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("stream", &params) },
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument %q", args[0])
			}
			return runStream(ctx, stdout, &params)
		},
	}
}

func runStream(ctx context.Context, stdout io.Writer, params *streamParams) error {
	cfg, err := params.readConfig()
	if err != nil {
		return err
	}
	params.apply(cfg)
	if params.NoCursor {
		cfg.Cursor.Backend = config.CursorNone
	}
	if cfg, err = validated(cfg); err != nil {
		return err
	}
	logger, err := params.logger("stream")
	if err != nil {
		return err
	}
	logger = logger.With("endpoint", cfg.Stream.Endpoint)

	output, err := newPrinter(stdout, params.Format)
	if err != nil {
		return err
	}
	filters, err := loadFilters(ctx, cfg, params.FiltersPath, logger)
	if err != nil {
		return err
	}
	store, closeStore, err := openCursorStore(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var frames, events atomic.Int64
	sink := &stopOnError{
		next: firehose.SinkFunc(func(ctx context.Context, event firehose.Event) error {
			events.Add(1)
			return output.HandleEvent(ctx, event)
		}),
		cancel: cancel,
	}

	sessionConfig := params.sessionConfig(cfg, logger)
	sessionConfig.Sink = filtered(filters, sink)
	sessionConfig.Cursor = store
	sessionConfig.OnFrame = func([]byte) { frames.Add(1) }
	sessionConfig.OnStateChange = func(from, to firehose.State) {
		logger.Debug("session state", "from", from, "to", to)
	}
	session, err := firehose.NewSession(sessionConfig)
	if err != nil {
		return err
	}

	if params.StatsInterval > 0 {
		go reportStats(ctx, clock.Real(), params.StatsInterval, logger, session, &frames, &events)
	}

	if err := session.Run(ctx); err != nil {
		return err
	}
	return sink.Err()
}

// reportStats logs counters every interval until ctx is done.
func reportStats(ctx context.Context, clk clock.Clock, interval time.Duration, logger *slog.Logger,
	session *firehose.Session, frames, events *atomic.Int64) {
	ticker := clk.NewTicker(interval)
	defer ticker.Stop()

	var lastFrames int64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		total := frames.Load()
		attrs := []any{
			"state", session.State(),
			"frames", total,
			"events", events.Load(),
			"frames_per_second", float64(total-lastFrames) / interval.Seconds(),
		}
		if seq, ok := session.Cursor(); ok {
			attrs = append(attrs, "cursor", seq)
		}
		logger.Info("stream stats", attrs...)
		lastFrames = total
	}
}
