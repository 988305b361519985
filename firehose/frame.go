// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package firehose

import (
	"errors"
	"fmt"

	"github.com/bureau-foundation/skystream/lib/dagcbor"
)

// Frame op values carried in the header's "op" field.
const (
	OpMessage int64 = 1
	OpError   int64 = -1
)

// Frame is one transport message split into its two values. The
// decoder does not interpret either; see ParseHeader.
type Frame struct {
	Header dagcbor.Value
	Body   dagcbor.Value
}

// Header is the interpreted frame header.
type Header struct {
	Op int64
	// Type is the message kind ("#commit", "#identity", ...). Empty
	// when the header has no "t", as error frames do.
	Type string
}

// SplitFrame decodes the header and body at the start of data and
// returns the bytes after the body. Running out of input inside
// either value fails with ErrIncompleteFrame wrapping the codec error.
func SplitFrame(decoder dagcbor.Decoder, data []byte) (Frame, []byte, error) {
	header, n, err := decoder.DecodePrefix(data)
	if err != nil {
		return Frame{}, nil, frameError("header", err)
	}
	if n == len(data) {
		return Frame{}, nil, fmt.Errorf("%w: no body after %d-byte header", ErrIncompleteFrame, n)
	}
	body, m, err := decoder.DecodePrefix(data[n:])
	if err != nil {
		return Frame{}, nil, frameError("body", err)
	}
	return Frame{Header: header, Body: body}, data[n+m:], nil
}

// DecodeFrame decodes a message that must hold exactly one header and
// one body.
func DecodeFrame(decoder dagcbor.Decoder, data []byte) (Frame, error) {
	frame, rest, err := SplitFrame(decoder, data)
	if err != nil {
		return Frame{}, err
	}
	if len(rest) > 0 {
		return Frame{}, fmt.Errorf("%w: %d bytes after body", ErrIncompleteFrame, len(rest))
	}
	return frame, nil
}

func frameError(part string, err error) error {
	if errors.Is(err, dagcbor.ErrTruncated) {
		return fmt.Errorf("%w: %s: %w", ErrIncompleteFrame, part, err)
	}
	return fmt.Errorf("frame %s: %w", part, err)
}

// ParseHeader interprets a decoded header value.
func ParseHeader(value dagcbor.Value) (Header, error) {
	fields, ok := value.(dagcbor.Map)
	if !ok {
		return Header{}, fmt.Errorf("%w: header is a %s, want map", ErrMalformedBody, value.Kind())
	}
	op, ok := fields.Int("op")
	if !ok {
		return Header{}, fmt.Errorf("%w: header has no integer op", ErrMalformedBody)
	}
	header := Header{Op: op}
	header.Type, _ = fields.Text("t")
	return header, nil
}
