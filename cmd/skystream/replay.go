// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/skystream/cmd/skystream/cli"
	"github.com/bureau-foundation/skystream/firehose"
	"github.com/bureau-foundation/skystream/lib/capture"
)

type replayParams struct {
	commonParams
	Format      string `flag:"format" default:"json" desc:"output format: json (one object per line) or text"`
	FiltersPath string `flag:"filters" desc:"filters file, overriding filters.path"`
	Strict      bool   `flag:"strict" desc:"exit with status 1 when any frame fails to decode"`
}

func replayCommand(stdout io.Writer) *cli.Command {
	var params replayParams
	return &cli.Command{
		Name:    "replay",
		Summary: "Decode a capture file offline",
		Description: `Run every frame of a capture file through the same decoding, record
resolution and filtering as a live stream, and print the events.

Frames that fail to decode are logged and skipped. With --strict the
command then exits with status 1.`,
		Usage: "skystream replay [flags] FILE",
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("replay", &params) },
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return errors.New("usage: skystream replay [flags] FILE")
			}
			return runReplay(ctx, stdout, args[0], &params)
		},
	}
}

func runReplay(ctx context.Context, stdout io.Writer, path string, params *replayParams) error {
	cfg, err := params.loadConfig()
	if err != nil {
		return err
	}
	logger, err := params.logger("replay")
	if err != nil {
		return err
	}
	logger = logger.With("capture", path)

	output, err := newPrinter(stdout, params.Format)
	if err != nil {
		return err
	}
	filters, err := loadFilters(ctx, cfg, params.FiltersPath, logger)
	if err != nil {
		return err
	}

	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()
	reader, err := capture.NewReader(file)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	defer reader.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	sink := &stopOnError{next: output, cancel: cancel}
	processor := firehose.NewProcessor(firehose.ProcessorConfig{
		Sink:     filtered(filters, sink),
		MaxDepth: cfg.Stream.MaxDepth,
		Logger:   logger,
	})

	var frames, failures int
	for frame, err := range reader.Frames() {
		if err != nil {
			return fmt.Errorf("%s: frame %d: %w", path, frames+1, err)
		}
		if ctx.Err() != nil {
			break
		}
		frames++
		if _, err := processor.Process(ctx, frame); err != nil {
			failures++
			logger.Warn("frame did not decode", "frame", frames, "error", err)
		}
	}

	attrs := []any{"frames", frames, "failures", failures, "compression", reader.Compression()}
	if seq, ok := processor.Cursor(); ok {
		attrs = append(attrs, "cursor", seq)
	}
	logger.Info("replay finished", attrs...)

	if err := sink.Err(); err != nil {
		return err
	}
	if params.Strict && failures > 0 {
		return &cli.ExitError{Code: 1}
	}
	return nil
}
