// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package car extracts content-addressed blocks from a CAR v1 byte
// buffer.
//
// A buffer is a sequence of sections, each a varint length followed by
// that many bytes. A block section is a binary CID followed by the
// block payload. The first section may instead be a DAG-CBOR header
// {version: 1, roots: [...]}; a CIDv1 always begins with 0x01 and a
// header map never does, which is how the two are told apart.
//
// Extraction is structural only. Payloads are not hashed against their
// CIDs; use cid.Verify when that matters.
package car

import (
	"errors"
	"fmt"
	"iter"

	"github.com/bureau-foundation/skystream/lib/cid"
	"github.com/bureau-foundation/skystream/lib/dagcbor"
	"github.com/bureau-foundation/skystream/lib/varint"
)

var (
	// ErrTruncated reports a section whose declared length runs past
	// the end of the buffer.
	ErrTruncated = varint.ErrTruncated

	// ErrMalformed reports an empty section or an invalid header.
	ErrMalformed = errors.New("malformed CAR")

	// ErrNoHeader is returned by ParseHeader when the buffer begins
	// with a block section.
	ErrNoHeader = errors.New("CAR buffer has no header")
)

// cidV1Lead is the first byte of every binary CIDv1.
const cidV1Lead = 0x01

// Block is one extracted section.
type Block struct {
	CID cid.CID
	// Data is the block payload. It is a copy; the source buffer may
	// be reused once extraction finishes.
	Data []byte
}

// Header is the optional leading CAR section.
type Header struct {
	Version int64
	Roots   []cid.CID
}

// SectionError locates a failure within the buffer.
type SectionError struct {
	// Offset is where the failing section's length prefix starts.
	Offset int
	Err    error
}

func (e *SectionError) Error() string {
	return fmt.Sprintf("car: section at offset %d: %v", e.Offset, e.Err)
}

func (e *SectionError) Unwrap() error { return e.Err }

// section slices the section starting at offset and returns it with
// the offset of the next one.
func section(buf []byte, offset int) ([]byte, int, error) {
	length, n, err := varint.Decode(buf[offset:])
	if err != nil {
		return nil, 0, &SectionError{Offset: offset, Err: fmt.Errorf("reading length: %w", err)}
	}
	start := offset + n
	if length > uint64(len(buf)-start) {
		return nil, 0, &SectionError{Offset: offset, Err: fmt.Errorf("length %d exceeds %d remaining bytes: %w", length, len(buf)-start, ErrTruncated)}
	}
	if length == 0 {
		return nil, 0, &SectionError{Offset: offset, Err: fmt.Errorf("%w: empty section", ErrMalformed)}
	}
	end := start + int(length)
	return buf[start:end], end, nil
}

// ParseHeader decodes the header section at the start of buf and
// returns the number of bytes it occupies.
func ParseHeader(buf []byte) (Header, int, error) {
	if len(buf) == 0 {
		return Header{}, 0, ErrNoHeader
	}
	body, next, err := section(buf, 0)
	if err != nil {
		return Header{}, 0, err
	}
	if body[0] == cidV1Lead {
		return Header{}, 0, ErrNoHeader
	}

	value, err := dagcbor.Decode(body)
	if err != nil {
		return Header{}, 0, &SectionError{Offset: 0, Err: fmt.Errorf("%w: header: %w", ErrMalformed, err)}
	}
	fields, ok := value.(dagcbor.Map)
	if !ok {
		return Header{}, 0, &SectionError{Offset: 0, Err: fmt.Errorf("%w: header is a %s, want map", ErrMalformed, value.Kind())}
	}
	version, ok := fields.Int("version")
	if !ok || version != 1 {
		return Header{}, 0, &SectionError{Offset: 0, Err: fmt.Errorf("%w: unsupported header version", ErrMalformed)}
	}
	header := Header{Version: version}
	roots, _ := fields.Array("roots")
	for _, root := range roots {
		link, ok := root.(dagcbor.Link)
		if !ok {
			return Header{}, 0, &SectionError{Offset: 0, Err: fmt.Errorf("%w: root is a %s, want link", ErrMalformed, root.Kind())}
		}
		header.Roots = append(header.Roots, link.CID)
	}
	return header, next, nil
}

// Blocks yields each block section of buf in order. A leading header
// section is skipped. Iteration stops after the first error, which is
// yielded with a zero Block. Each call to the returned sequence starts
// again from the beginning of buf.
func Blocks(buf []byte) iter.Seq2[Block, error] {
	return func(yield func(Block, error) bool) {
		offset := 0
		if len(buf) > 0 {
			_, next, err := ParseHeader(buf)
			switch {
			case err == nil:
				offset = next
			case !errors.Is(err, ErrNoHeader):
				yield(Block{}, err)
				return
			}
		}

		for offset < len(buf) {
			start := offset
			body, next, err := section(buf, offset)
			if err != nil {
				yield(Block{}, err)
				return
			}
			offset = next

			blockCID, n, err := cid.ParsePrefix(body)
			if err != nil {
				yield(Block{}, &SectionError{Offset: start, Err: err})
				return
			}
			block := Block{CID: blockCID, Data: append([]byte(nil), body[n:]...)}
			if !yield(block, nil) {
				return
			}
		}
	}
}

// Read collects every block of buf. The header is zero when buf has
// none.
func Read(buf []byte) (Header, []Block, error) {
	header, _, err := ParseHeader(buf)
	if err != nil && !errors.Is(err, ErrNoHeader) {
		return Header{}, nil, err
	}
	var blocks []Block
	for block, err := range Blocks(buf) {
		if err != nil {
			return Header{}, nil, err
		}
		blocks = append(blocks, block)
	}
	return header, blocks, nil
}

// AppendBlock appends one block section to dst.
func AppendBlock(dst []byte, c cid.CID, data []byte) []byte {
	raw := c.Bytes()
	dst = varint.Append(dst, uint64(len(raw)+len(data)))
	dst = append(dst, raw...)
	return append(dst, data...)
}

// AppendHeader appends a version 1 header section naming roots.
func AppendHeader(dst []byte, roots ...cid.CID) ([]byte, error) {
	links := make(dagcbor.Array, len(roots))
	for i, root := range roots {
		links[i] = dagcbor.Link{CID: root}
	}
	encoded, err := dagcbor.Encode(dagcbor.Map{
		{Key: "version", Value: dagcbor.Int(1)},
		{Key: "roots", Value: links},
	})
	if err != nil {
		return nil, err
	}
	dst = varint.Append(dst, uint64(len(encoded)))
	return append(dst, encoded...), nil
}
