// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/skystream/cmd/skystream/cli"
	"github.com/bureau-foundation/skystream/lib/capture"
	"github.com/bureau-foundation/skystream/lib/codec"
)

type diagParams struct {
	Skip  int `flag:"skip" desc:"frames to skip before printing"`
	Limit int `flag:"limit" desc:"frames to print (0 means all)"`
}

func diagCommand(stdout io.Writer) *cli.Command {
	var params diagParams
	return &cli.Command{
		Name:    "diag",
		Summary: "Print frames in CBOR diagnostic notation",
		Description: `Print the header and body of stream frames in CBOR extended diagnostic
notation (RFC 8949 section 8).

FILE is either a capture file, in which case every frame is printed, or
a single raw frame as received from the relay. Frames that do not parse
are reported and skipped.`,
		Usage: "skystream diag [flags] FILE",
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("diag", &params) },
		Run: func(_ context.Context, args []string) error {
			if len(args) != 1 {
				return errors.New("usage: skystream diag [flags] FILE")
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			return runDiag(stdout, data, &params)
		},
	}
}

func runDiag(stdout io.Writer, data []byte, params *diagParams) error {
	if !bytes.HasPrefix(data, []byte(capture.Magic)) {
		return diagFrame(stdout, data)
	}

	reader, err := capture.NewReader(bytes.NewReader(data))
	if err != nil {
		return err
	}
	defer reader.Close()

	index, printed := 0, 0
	for frame, err := range reader.Frames() {
		if err != nil {
			return fmt.Errorf("frame %d: %w", index+1, err)
		}
		index++
		if index <= params.Skip {
			continue
		}
		if params.Limit > 0 && printed >= params.Limit {
			break
		}
		fmt.Fprintf(stdout, "frame %d (%d bytes)\n", index, len(frame))
		if err := diagFrame(stdout, frame); err != nil {
			return err
		}
		printed++
	}
	return nil
}

// diagFrame prints the two values of one frame, and any bytes after
// them.
func diagFrame(w io.Writer, frame []byte) error {
	rest := frame
	for _, label := range []string{"header", "body"} {
		if len(rest) == 0 {
			_, err := fmt.Fprintf(w, "  %s: missing\n", label)
			return err
		}
		notation, remaining, err := codec.DiagnoseFirst(rest)
		if err != nil {
			_, err = fmt.Fprintf(w, "  %s: error: %v\n", label, err)
			return err
		}
		if _, err := fmt.Fprintf(w, "  %s: %s\n", label, notation); err != nil {
			return err
		}
		rest = remaining
	}
	if len(rest) > 0 {
		_, err := fmt.Fprintf(w, "  trailing: %d bytes\n", len(rest))
		return err
	}
	return nil
}
