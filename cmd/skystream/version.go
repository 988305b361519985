// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/skystream/cmd/skystream/cli"
	"github.com/bureau-foundation/skystream/lib/version"
)

func versionCommand(stdout io.Writer) *cli.Command {
	var params cli.JSONOutput
	return &cli.Command{
		Name:    "version",
		Summary: "Print version information",
		Flags:   func() *pflag.FlagSet { return cli.FlagsFromParams("version", &params) },
		Run: func(context.Context, []string) error {
			if done, err := params.EmitJSON(stdout, version.Current()); done {
				return err
			}
			_, err := fmt.Fprintf(stdout, "skystream %s\n", version.Full())
			return err
		},
	}
}
