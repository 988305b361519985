// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"io"

	"github.com/bureau-foundation/skystream/cmd/skystream/cli"
)

// root builds the command tree. Commands write their results to
// stdout; logs and help go to stderr.
func root(stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name: "skystream",
		Description: `Skystream: a client for the AT Protocol repository event stream.

Connects to a relay's com.atproto.sync.subscribeRepos endpoint, decodes
commits and account events, and resumes from a stored cursor after
disconnects.`,
		Subcommands: []*cli.Command{
			streamCommand(stdout),
			viewCommand(),
			captureCommand(),
			replayCommand(stdout),
			diagCommand(stdout),
			resolveCommand(stdout),
			filtersCommand(stdout),
			versionCommand(stdout),
		},
		Examples: []cli.Example{
			{
				Description: "Print every event as JSON, resuming where the last run stopped",
				Command:     "skystream stream",
			},
			{
				Description: "Watch the stream live, filtered by filters.yaml",
				Command:     "skystream view --filters filters.yaml",
			},
			{
				Description: "Record ten thousand frames for later replay",
				Command:     "skystream capture --output sample.skycap --limit 10000",
			},
			{
				Description: "Summarize a capture without touching the network",
				Command:     "skystream replay --format text sample.skycap",
			},
		},
	}
}
