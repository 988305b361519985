// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/skystream/cmd/skystream/cli"
	"github.com/bureau-foundation/skystream/lib/identity"
)

type resolveParams struct {
	commonParams
	cli.JSONOutput
	ServiceURL string `flag:"service-url" desc:"XRPC service, overriding identity.service_url"`
}

type resolution struct {
	Handle string `json:"handle"`
	DID    string `json:"did,omitempty"`
	Error  string `json:"error,omitempty"`
}

func resolveCommand(stdout io.Writer) *cli.Command {
	var params resolveParams
	return &cli.Command{
		Name:    "resolve",
		Summary: "Resolve handles to DIDs",
		Usage:   "skystream resolve [flags] HANDLE...",
		Examples: []cli.Example{
			{Command: "skystream resolve jay.bsky.team @pfrazee.com"},
		},
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("resolve", &params) },
		Run: func(ctx context.Context, args []string) error {
			if len(args) == 0 {
				return errors.New("usage: skystream resolve [flags] HANDLE...")
			}
			return runResolve(ctx, stdout, args, &params)
		},
	}
}

func runResolve(ctx context.Context, stdout io.Writer, handles []string, params *resolveParams) error {
	cfg, err := params.loadConfig()
	if err != nil {
		return err
	}
	logger, err := params.logger("resolve")
	if err != nil {
		return err
	}
	client, err := newIdentityClient(cfg, params.ServiceURL, logger)
	if err != nil {
		return err
	}

	results := make([]resolution, 0, len(handles))
	failed := false
	for _, handle := range handles {
		result := resolution{Handle: identity.NormalizeHandle(handle)}
		did, err := client.ResolveHandle(ctx, handle)
		if err != nil {
			result.Error = err.Error()
			failed = true
		} else {
			result.DID = did
		}
		results = append(results, result)
	}

	if done, err := params.EmitJSON(stdout, results); done {
		if err != nil {
			return err
		}
	} else {
		table := tabwriter.NewWriter(stdout, 2, 0, 2, ' ', 0)
		for _, result := range results {
			if result.Error != "" {
				fmt.Fprintf(table, "%s\t(%s)\n", result.Handle, result.Error)
			} else {
				fmt.Fprintf(table, "%s\t%s\n", result.Handle, result.DID)
			}
		}
		if err := table.Flush(); err != nil {
			return err
		}
	}

	if failed {
		return &cli.ExitError{Code: 1}
	}
	return nil
}
