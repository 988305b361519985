// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/skystream/cmd/skystream/cli"
	"github.com/bureau-foundation/skystream/firehose"
	"github.com/bureau-foundation/skystream/lib/config"
	"github.com/bureau-foundation/skystream/lib/streamui"
)

type viewParams struct {
	commonParams
	connectParams
	NoCursor    bool   `flag:"no-cursor" desc:"neither read nor write the stored cursor"`
	FiltersPath string `flag:"filters" desc:"filters file, overriding filters.path"`
	LogOutput   string `flag:"log-output" desc:"append logs to this file instead of showing warnings in the status bar"`
	Scrollback  int    `flag:"scrollback" default:"1000" desc:"summary lines kept for scrolling back"`
}

func viewCommand() *cli.Command {
	var params viewParams
	return &cli.Command{
		Name:    "view",
		Summary: "Watch the stream in a terminal viewer",
		Description: `Open a full-screen view of the live stream.

The header shows the connection state and cursor, the line below it
counts events by kind, and the body scrolls one summary per event.
Space pauses the scrollback (counters keep running), c clears it, and
q quits. Warnings appear in the status bar unless --log-output sends
logs to a file.`,
		Usage: "skystream view [flags]",
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("view", &params) },
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument %q", args[0])
			}
			return runView(ctx, &params)
		},
	}
}

func runView(ctx context.Context, params *viewParams) error {
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
	level, err := params.level()
	if err != nil {
		return err
	}

	// The terminal belongs to the viewer, so logs go to the status bar
	// or to a file.
	statusHandler := streamui.NewLogHandler(max(level, slog.LevelWarn))
	logger := slog.New(statusHandler)
	if params.LogOutput != "" {
		file, err := os.OpenFile(params.LogOutput, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("opening log output: %w", err)
		}
		defer file.Close()
		logger = slog.New(cli.NewHandler(file, level, false))
	}
	logger = logger.With("command", "view", "endpoint", cfg.Stream.Endpoint)

	filters, err := loadFilters(ctx, cfg, params.FiltersPath, logger)
	if err != nil {
		return err
	}
	store, closeStore, err := openCursorStore(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	model := streamui.New(streamui.Config{
		Endpoint:   cfg.Stream.Endpoint,
		Scrollback: params.Scrollback,
	})
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	statusHandler.SetSender(program)
	feed := streamui.NewFeed(program)

	sessionConfig := params.sessionConfig(cfg, logger)
	sessionConfig.Sink = filtered(filters, feed)
	sessionConfig.Cursor = store
	sessionConfig.OnStateChange = feed.StateChange
	session, err := firehose.NewSession(sessionConfig)
	if err != nil {
		return err
	}

	sessionContext, cancel := context.WithCancel(ctx)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- session.Run(sessionContext) }()

	_, runErr := program.Run()
	// Sends to a finished program return at once, so the session
	// winds down without a reader.
	cancel()
	sessionErr := <-done

	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return fmt.Errorf("viewer: %w", runErr)
	}
	return sessionErr
}
