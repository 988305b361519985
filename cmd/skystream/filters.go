// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/skystream/cmd/skystream/cli"
	"github.com/bureau-foundation/skystream/lib/filter"
)

type filtersParams struct {
	commonParams
	FiltersPath string `flag:"filters" desc:"filters file, overriding filters.path"`
}

// path returns the filters file to operate on.
func (p *filtersParams) path() (string, error) {
	if p.FiltersPath != "" {
		return p.FiltersPath, nil
	}
	cfg, err := p.loadConfig()
	if err != nil {
		return "", err
	}
	if cfg.Filters.Path == "" {
		return "", errors.New("no filters file: set filters.path in the configuration or pass --filters")
	}
	return cfg.Filters.Path, nil
}

type filtersListParams struct {
	filtersParams
	cli.JSONOutput
}

// subscriptionParams name what to add or remove.
type subscriptionParams struct {
	filtersParams
	DIDs    []string `flag:"did" desc:"repository DID (repeatable)"`
	Handles []string `flag:"handle" desc:"handle, resolved when the filters load (repeatable)"`
}

func filtersCommand(stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:    "filters",
		Summary: "List and edit the filters file",
		Description: `Inspect and modify the filters file used by stream, view and replay.

Each filter has a name, subscribed repositories (DIDs and handles), and
keywords. A commit passes a filter when it comes from a subscribed
repository and contains no excluded keyword, or when any of its posts
contains an included keyword. Handle and identity events pass when they
concern a subscribed DID. Other events always pass. An event is kept
when any filter passes it.`,
		Subcommands: []*cli.Command{
			filtersListCommand(stdout),
			subscriptionCommand(stdout, "subscribe", "Add repositories to a filter", subscribe),
			subscriptionCommand(stdout, "unsubscribe", "Remove repositories from a filter", unsubscribe),
		},
	}
}

func filtersListCommand(stdout io.Writer) *cli.Command {
	var params filtersListParams
	return &cli.Command{
		Name:    "list",
		Summary: "Show every filter",
		Flags:   func() *pflag.FlagSet { return cli.FlagsFromParams("list", &params) },
		Run: func(_ context.Context, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument %q", args[0])
			}
			path, err := params.path()
			if err != nil {
				return err
			}
			filters, err := filter.Load(path)
			if err != nil {
				return err
			}
			if done, err := params.EmitJSON(stdout, filters.Filters); done {
				return err
			}
			writeFilters(stdout, filters)
			return nil
		},
	}
}

func writeFilters(w io.Writer, filters *filter.Filters) {
	for index, entry := range filters.Filters {
		if index > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, entry.Name)
		if entry.Subscribes != nil {
			writeList(w, "dids", entry.Subscribes.DIDs)
			writeList(w, "handles", entry.Subscribes.Handles)
		}
		if entry.Keywords != nil {
			writeList(w, "includes", entry.Keywords.Includes)
			writeList(w, "excludes", entry.Keywords.Excludes)
		}
	}
}

func writeList(w io.Writer, label string, values []string) {
	if len(values) > 0 {
		fmt.Fprintf(w, "  %-9s %s\n", label+":", strings.Join(values, ", "))
	}
}

// subscriptionChange applies one DID or handle change to a filter.
type subscriptionChange struct {
	repo   func(filters *filter.Filters, name, did string) error
	handle func(filters *filter.Filters, name, handle string) error
}

var (
	subscribe = subscriptionChange{
		repo:   (*filter.Filters).SubscribeRepo,
		handle: (*filter.Filters).SubscribeHandle,
	}
	unsubscribe = subscriptionChange{
		repo:   (*filter.Filters).UnsubscribeRepo,
		handle: (*filter.Filters).UnsubscribeHandle,
	}
)

func subscriptionCommand(stdout io.Writer, name, summary string, change subscriptionChange) *cli.Command {
	var params subscriptionParams
	return &cli.Command{
		Name:    name,
		Summary: summary,
		Usage:   fmt.Sprintf("skystream filters %s [flags] FILTER", name),
		Examples: []cli.Example{
			{Command: fmt.Sprintf("skystream filters %s 'bluesky team' --did did:plc:yk4dd2qkboz2yv6tpubpc6co --handle pfrazee.com", name)},
		},
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams(name, &params) },
		Run: func(_ context.Context, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: skystream filters %s [flags] FILTER", name)
			}
			if len(params.DIDs) == 0 && len(params.Handles) == 0 {
				return errors.New("nothing to change: pass --did or --handle")
			}
			path, err := params.path()
			if err != nil {
				return err
			}
			filters, err := filter.Load(path)
			if err != nil {
				return err
			}
			for _, did := range params.DIDs {
				if err := change.repo(filters, args[0], did); err != nil {
					return err
				}
			}
			for _, handle := range params.Handles {
				if err := change.handle(filters, args[0], handle); err != nil {
					return err
				}
			}
			if err := filters.Save(path); err != nil {
				return err
			}
			fmt.Fprintf(stdout, "updated %s in %s\n", args[0], path)
			return nil
		},
	}
}
