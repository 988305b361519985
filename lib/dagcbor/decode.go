// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dagcbor

import (
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/x448/float16"

	"github.com/bureau-foundation/skystream/lib/cid"
)

// DefaultMaxDepth is the container nesting limit used when a Decoder
// does not set one. Repository records nest a handful of levels; 64
// leaves headroom without letting a hostile frame recurse far.
const DefaultMaxDepth = 64

// CBOR major types.
const (
	majorUnsigned = 0
	majorNegative = 1
	majorBytes    = 2
	majorText     = 3
	majorArray    = 4
	majorMap      = 5
	majorTag      = 6
	majorSimple   = 7
)

// tagCID is the only tag DAG-CBOR permits.
const tagCID = 42

// Decoder holds decode limits. The zero value is ready to use.
type Decoder struct {
	// MaxDepth bounds container nesting. A top-level array or map is
	// depth 1. Zero or negative means DefaultMaxDepth.
	MaxDepth int
}

var defaultDecoder Decoder

// Decode parses one value that must occupy all of data.
func Decode(data []byte) (Value, error) { return defaultDecoder.Decode(data) }

// DecodePrefix parses the value at the start of data and reports how
// many bytes it consumed.
func DecodePrefix(data []byte) (Value, int, error) { return defaultDecoder.DecodePrefix(data) }

// Decode parses one value that must occupy all of data. Bytes left
// over after the value fail with ErrMalformed.
func (d Decoder) Decode(data []byte) (Value, error) {
	v, n, err := d.DecodePrefix(data)
	if err != nil {
		return nil, err
	}
	if n != len(data) {
		return nil, &DecodeError{Offset: n, Err: fmt.Errorf("%w: %d trailing bytes", ErrMalformed, len(data)-n)}
	}
	return v, nil
}

// DecodePrefix parses the value at the start of data and returns it
// with the number of bytes consumed. Bytes after the value are not
// examined.
func (d Decoder) DecodePrefix(data []byte) (Value, int, error) {
	maxDepth := d.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	state := &decodeState{data: data, maxDepth: maxDepth}
	v, err := state.value(1)
	if err != nil {
		return nil, 0, err
	}
	return v, state.offset, nil
}

type decodeState struct {
	data     []byte
	offset   int
	maxDepth int
}

func (s *decodeState) fail(at int, err error) error {
	return &DecodeError{Offset: at, Err: err}
}

func (s *decodeState) failf(at int, sentinel error, format string, args ...any) error {
	return &DecodeError{Offset: at, Err: fmt.Errorf("%w: "+format, append([]any{sentinel}, args...)...)}
}

func (s *decodeState) remaining() int { return len(s.data) - s.offset }

// head reads an initial byte and its argument. For major type 7 the
// argument of a float is its raw bit pattern.
func (s *decodeState) head() (major byte, info byte, argument uint64, err error) {
	start := s.offset
	if s.remaining() < 1 {
		return 0, 0, 0, s.fail(start, ErrTruncated)
	}
	initial := s.data[s.offset]
	s.offset++
	major, info = initial>>5, initial&0x1f

	var size int
	switch {
	case info < 24:
		return major, info, uint64(info), nil
	case info == 24:
		size = 1
	case info == 25:
		size = 2
	case info == 26:
		size = 4
	case info == 27:
		size = 8
	case info == 31:
		return 0, 0, 0, s.failf(start, ErrMalformed, "indefinite-length item (major type %d)", major)
	default:
		return 0, 0, 0, s.failf(start, ErrMalformed, "reserved additional information %d", info)
	}
	if s.remaining() < size {
		return 0, 0, 0, s.fail(start, ErrTruncated)
	}
	raw := s.data[s.offset : s.offset+size]
	s.offset += size
	switch size {
	case 1:
		argument = uint64(raw[0])
	case 2:
		argument = uint64(binary.BigEndian.Uint16(raw))
	case 4:
		argument = uint64(binary.BigEndian.Uint32(raw))
	case 8:
		argument = binary.BigEndian.Uint64(raw)
	}
	return major, info, argument, nil
}

// take returns the next length bytes without copying.
func (s *decodeState) take(start int, length uint64) ([]byte, error) {
	if length > uint64(s.remaining()) {
		return nil, s.fail(start, ErrTruncated)
	}
	out := s.data[s.offset : s.offset+int(length)]
	s.offset += int(length)
	return out, nil
}

func (s *decodeState) value(depth int) (Value, error) {
	start := s.offset
	major, info, argument, err := s.head()
	if err != nil {
		return nil, err
	}

	switch major {
	case majorUnsigned:
		if argument > math.MaxInt64 {
			return nil, s.failf(start, ErrOverflow, "unsigned integer %d", argument)
		}
		return Int(argument), nil

	case majorNegative:
		if argument > math.MaxInt64 {
			return nil, s.failf(start, ErrOverflow, "negative integer -1-%d", argument)
		}
		return Int(-1 - int64(argument)), nil

	case majorBytes:
		raw, err := s.take(start, argument)
		if err != nil {
			return nil, err
		}
		return Bytes(append([]byte(nil), raw...)), nil

	case majorText:
		raw, err := s.take(start, argument)
		if err != nil {
			return nil, err
		}
		if !utf8.Valid(raw) {
			return nil, s.failf(start, ErrMalformed, "text string is not valid UTF-8")
		}
		return Text(raw), nil

	case majorArray:
		if depth > s.maxDepth {
			return nil, s.failf(start, ErrDepthExceeded, "array at depth %d, limit %d", depth, s.maxDepth)
		}
		// Every element takes at least one byte, which caps the
		// allocation a lying length can force.
		if argument > uint64(s.remaining()) {
			return nil, s.fail(start, ErrTruncated)
		}
		items := make(Array, 0, int(argument))
		for range argument {
			item, err := s.value(depth + 1)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		return items, nil

	case majorMap:
		if depth > s.maxDepth {
			return nil, s.failf(start, ErrDepthExceeded, "map at depth %d, limit %d", depth, s.maxDepth)
		}
		if argument > uint64(s.remaining()/2) {
			return nil, s.fail(start, ErrTruncated)
		}
		return s.mapBody(start, int(argument), depth)

	case majorTag:
		if argument != tagCID {
			return nil, s.failf(start, ErrMalformed, "unsupported tag %d", argument)
		}
		return s.link(start)

	case majorSimple:
		return s.simple(start, info, argument)
	}
	// Unreachable: the major type is three bits.
	return nil, s.failf(start, ErrMalformed, "major type %d", major)
}

func (s *decodeState) mapBody(start, count, depth int) (Value, error) {
	entries := make(Map, 0, count)
	var seen map[string]struct{}
	if count > 8 {
		seen = make(map[string]struct{}, count)
	}
	for range count {
		keyStart := s.offset
		major, _, length, err := s.head()
		if err != nil {
			return nil, err
		}
		if major != majorText {
			return nil, s.failf(keyStart, ErrMalformed, "map key has major type %d, want text", major)
		}
		raw, err := s.take(keyStart, length)
		if err != nil {
			return nil, err
		}
		if !utf8.Valid(raw) {
			return nil, s.failf(keyStart, ErrMalformed, "map key is not valid UTF-8")
		}
		key := string(raw)
		if seen != nil {
			if _, dup := seen[key]; dup {
				return nil, s.failf(keyStart, ErrDuplicateKey, "%q", key)
			}
			seen[key] = struct{}{}
		} else if _, dup := entries.Get(key); dup {
			return nil, s.failf(keyStart, ErrDuplicateKey, "%q", key)
		}

		item, err := s.value(depth + 1)
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{Key: key, Value: item})
	}
	return entries, nil
}

func (s *decodeState) link(start int) (Value, error) {
	contentStart := s.offset
	major, _, length, err := s.head()
	if err != nil {
		return nil, err
	}
	if major != majorBytes {
		return nil, s.failf(contentStart, ErrMalformed, "tag 42 content has major type %d, want bytes", major)
	}
	raw, err := s.take(contentStart, length)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 || raw[0] != 0x00 {
		return nil, s.failf(start, cid.ErrMalformed, "tag 42 content lacks the identity multibase prefix")
	}
	parsed, err := cid.Parse(raw[1:])
	if err != nil {
		return nil, s.fail(start, err)
	}
	return Link{CID: parsed}, nil
}

func (s *decodeState) simple(start int, info byte, argument uint64) (Value, error) {
	var f float64
	switch info {
	case 20:
		return Bool(false), nil
	case 21:
		return Bool(true), nil
	case 22:
		return Null{}, nil
	case 23:
		return nil, s.failf(start, ErrMalformed, "undefined is not permitted")
	case 25:
		f = float64(float16.Frombits(uint16(argument)).Float32())
	case 26:
		f = float64(math.Float32frombits(uint32(argument)))
	case 27:
		f = math.Float64frombits(argument)
	default:
		return nil, s.failf(start, ErrMalformed, "simple value %d is not permitted", argument)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, s.failf(start, ErrMalformed, "non-finite float")
	}
	return Float(f), nil
}
