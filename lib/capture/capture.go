// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package capture

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/bureau-foundation/skystream/lib/varint"
)

// Magic opens every capture file.
const Magic = "SKYCAP"

// Version is the only format version written and read.
const Version = 1

// MaxFrameSize bounds a single stored record. It matches the largest
// message the WebSocket transport will accept by default, with room
// for relays configured higher.
const MaxFrameSize = 64 << 20

// ErrMalformed reports a file that is not a capture or whose records
// are damaged.
var ErrMalformed = errors.New("capture: malformed file")

const headerSize = len(Magic) + 2

// Writer appends frames to a capture stream.
type Writer struct {
	compression Compression
	stream      io.WriteCloser
	buffer      *bufio.Writer
	scratch     []byte
	frames      int
}

// NewWriter writes the file header to w and returns a Writer. Close
// must be called to flush the compressed stream; it does not close w.
func NewWriter(w io.Writer, compression Compression) (*Writer, error) {
	if compression > CompressionZstd {
		return nil, fmt.Errorf("unsupported capture compression %d", uint8(compression))
	}
	header := append([]byte(Magic), Version, byte(compression))
	if _, err := w.Write(header); err != nil {
		return nil, fmt.Errorf("writing capture header: %w", err)
	}
	stream, err := compression.compressor(w)
	if err != nil {
		return nil, err
	}
	return &Writer{
		compression: compression,
		stream:      stream,
		buffer:      bufio.NewWriterSize(stream, 64<<10),
	}, nil
}

// WriteFrame appends one message.
func (w *Writer) WriteFrame(frame []byte) error {
	if len(frame) > MaxFrameSize {
		return fmt.Errorf("capture: frame of %d bytes exceeds the %d byte limit", len(frame), MaxFrameSize)
	}
	w.scratch = varint.Append(w.scratch[:0], uint64(len(frame)))
	if _, err := w.buffer.Write(w.scratch); err != nil {
		return err
	}
	if _, err := w.buffer.Write(frame); err != nil {
		return err
	}
	w.frames++
	return nil
}

// Flush pushes buffered frames into the compressor. A compressed
// stream is only readable up to its last complete block, so Flush
// does not make a partial file fully readable; Close does.
func (w *Writer) Flush() error { return w.buffer.Flush() }

// Frames returns the number of frames written.
func (w *Writer) Frames() int { return w.frames }

// Close flushes and terminates the compressed stream.
func (w *Writer) Close() error {
	if err := w.buffer.Flush(); err != nil {
		w.stream.Close()
		return err
	}
	return w.stream.Close()
}

// Reader reads frames from a capture stream.
type Reader struct {
	compression Compression
	buffer      *bufio.Reader
	release     func()
	offset      int64
}

// NewReader validates the file header and returns a Reader. Close
// releases decompressor state; it does not close r.
func NewReader(r io.Reader) (*Reader, error) {
	header := make([]byte, headerSize)
	if _, err := io.ReadFull(r, header); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: file shorter than its header", ErrMalformed)
		}
		return nil, err
	}
	if string(header[:len(Magic)]) != Magic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrMalformed, header[:len(Magic)])
	}
	if version := header[len(Magic)]; version != Version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrMalformed, version)
	}
	compression := Compression(header[len(Magic)+1])
	stream, release, err := compression.decompressor(r)
	if err != nil {
		return nil, err
	}
	return &Reader{
		compression: compression,
		buffer:      bufio.NewReaderSize(stream, 64<<10),
		release:     release,
	}, nil
}

// Compression reports the file's compression.
func (r *Reader) Compression() Compression { return r.compression }

// Next returns the next frame, or io.EOF after the last one. A file
// cut off mid-record returns an error wrapping ErrMalformed.
func (r *Reader) Next() ([]byte, error) {
	length, consumed, err := varint.Read(r.buffer)
	if err != nil {
		if consumed == 0 && errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("%w: record length at stream offset %d: %w", ErrMalformed, r.offset, err)
	}
	if length > MaxFrameSize {
		return nil, fmt.Errorf("%w: record at stream offset %d claims %d bytes", ErrMalformed, r.offset, length)
	}
	frame := make([]byte, length)
	if _, err := io.ReadFull(r.buffer, frame); err != nil {
		return nil, fmt.Errorf("%w: record at stream offset %d: %w", ErrMalformed, r.offset, err)
	}
	r.offset += int64(consumed) + int64(length)
	return frame, nil
}

// Frames yields every remaining frame. Iteration stops after the
// first error, which is yielded with a nil frame.
func (r *Reader) Frames() iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		for {
			frame, err := r.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if !yield(frame, err) || err != nil {
				return
			}
		}
	}
}

// Close releases the decompressor.
func (r *Reader) Close() error {
	r.release()
	return nil
}
