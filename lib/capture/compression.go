// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package capture

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression identifies the stream compression of a capture file.
// The values are stored in the file header.
type Compression uint8

const (
	// CompressionNone stores frames as-is.
	CompressionNone Compression = 0

	// CompressionLZ4 uses the LZ4 frame format. Cheapest to write
	// when capturing the full relay firehose.
	CompressionLZ4 Compression = 1

	// CompressionZstd uses zstd at the default level. Roughly half
	// the size of LZ4 for commit traffic.
	CompressionZstd Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(c))
	}
}

// ParseCompression parses a compression name as used in
// configuration and flags.
func ParseCompression(name string) (Compression, error) {
	switch name {
	case "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZstd, nil
	default:
		return 0, fmt.Errorf("unknown capture compression %q (want none, lz4 or zstd)", name)
	}
}

// compressor wraps w. Close flushes the compressed stream without
// closing w.
func (c Compression) compressor(w io.Writer) (io.WriteCloser, error) {
	switch c {
	case CompressionNone:
		return nopWriteCloser{w}, nil
	case CompressionLZ4:
		return lz4.NewWriter(w), nil
	case CompressionZstd:
		encoder, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return nil, fmt.Errorf("creating zstd encoder: %w", err)
		}
		return encoder, nil
	default:
		return nil, fmt.Errorf("unsupported capture compression %d", uint8(c))
	}
}

// decompressor wraps r. The returned function releases decoder
// resources.
func (c Compression) decompressor(r io.Reader) (io.Reader, func(), error) {
	switch c {
	case CompressionNone:
		return r, func() {}, nil
	case CompressionLZ4:
		return lz4.NewReader(r), func() {}, nil
	case CompressionZstd:
		decoder, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, nil, fmt.Errorf("creating zstd decoder: %w", err)
		}
		return decoder, decoder.Close, nil
	default:
		return nil, nil, fmt.Errorf("%w: unsupported compression %d", ErrMalformed, uint8(c))
	}
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
