// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/skystream/cmd/skystream/cli"
	"github.com/bureau-foundation/skystream/firehose"
	"github.com/bureau-foundation/skystream/lib/capture"
)

type captureParams struct {
	commonParams
	connectParams
	Output      string        `flag:"output,o" desc:"capture file to write (required)"`
	Compression string        `flag:"compression" desc:"none, lz4 or zstd, overriding capture.compression"`
	Limit       int           `flag:"limit" desc:"stop after this many frames (0 means no limit)"`
	Duration    time.Duration `flag:"duration" desc:"stop after this long (0 means until interrupted)"`
}

func captureCommand() *cli.Command {
	var params captureParams
	return &cli.Command{
		Name:    "capture",
		Summary: "Record raw frames to a file",
		Description: `Connect to the relay and write every raw message to a capture file,
exactly as received, until interrupted or a limit is reached.

Captures never read or move the stored cursor. Use --cursor to start
from a specific sequence number. Replay a capture with "skystream
replay" and inspect its frames with "skystream diag".`,
		Usage: "skystream capture --output FILE [flags]",
		Examples: []cli.Example{
			{
				Description: "One minute of traffic, lz4-compressed",
				Command:     "skystream capture -o minute.skycap --duration 1m --compression lz4",
			},
		},
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("capture", &params) },
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument %q", args[0])
			}
			if params.Output == "" {
				return errors.New("--output is required")
			}
			return runCapture(ctx, &params)
		},
	}
}

func runCapture(ctx context.Context, params *captureParams) (err error) {
	cfg, err := params.readConfig()
	if err != nil {
		return err
	}
	params.apply(cfg)
	if cfg, err = validated(cfg); err != nil {
		return err
	}
	logger, err := params.logger("capture")
	if err != nil {
		return err
	}
	logger = logger.With("endpoint", cfg.Stream.Endpoint, "output", params.Output)

	compressionName := params.Compression
	if compressionName == "" {
		compressionName = cfg.Capture.Compression
	}
	compression, err := capture.ParseCompression(compressionName)
	if err != nil {
		return err
	}

	file, err := os.Create(params.Output)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); err == nil {
			err = closeErr
		}
	}()
	writer, err := capture.NewWriter(file, compression)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if params.Duration > 0 {
		ctx, cancel = context.WithTimeout(ctx, params.Duration)
		defer cancel()
	}

	// OnFrame runs on the session goroutine, so writer needs no lock.
	var writeErr error
	sessionConfig := params.sessionConfig(cfg, logger)
	sessionConfig.Sink = firehose.SinkFunc(func(context.Context, firehose.Event) error { return nil })
	sessionConfig.OnFrame = func(message []byte) {
		if writeErr != nil || (params.Limit > 0 && writer.Frames() >= params.Limit) {
			return
		}
		if writeErr = writer.WriteFrame(message); writeErr != nil {
			cancel()
			return
		}
		if params.Limit > 0 && writer.Frames() >= params.Limit {
			cancel()
		}
	}
	session, err := firehose.NewSession(sessionConfig)
	if err != nil {
		return err
	}

	logger.Info("capturing", "compression", compression)
	runErr := session.Run(ctx)
	closeErr := writer.Close()
	if err := errors.Join(runErr, writeErr, closeErr); err != nil {
		return fmt.Errorf("capture: %w", err)
	}
	logger.Info("capture finished", "frames", writer.Frames())
	return nil
}
