// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dagcbor

import (
	"encoding/binary"
	"fmt"
	"math"
	"slices"
	"strings"
	"unicode/utf8"
)

// maxEncodeDepth bounds recursion when encoding a tree built in
// memory. Slices can alias themselves, so an Array may contain itself.
const maxEncodeDepth = 4096

// Encode writes v in canonical form: minimal heads, 64-bit floats, and
// map keys sorted by length and then bytewise. Encoding the same
// logical value always yields the same bytes.
func Encode(v Value) ([]byte, error) {
	return AppendEncode(nil, v)
}

// AppendEncode appends the canonical encoding of v to dst.
func AppendEncode(dst []byte, v Value) ([]byte, error) {
	return appendValue(dst, v, 1)
}

func appendHead(dst []byte, major byte, argument uint64) []byte {
	major <<= 5
	switch {
	case argument < 24:
		return append(dst, major|byte(argument))
	case argument <= math.MaxUint8:
		return append(dst, major|24, byte(argument))
	case argument <= math.MaxUint16:
		return binary.BigEndian.AppendUint16(append(dst, major|25), uint16(argument))
	case argument <= math.MaxUint32:
		return binary.BigEndian.AppendUint32(append(dst, major|26), uint32(argument))
	default:
		return binary.BigEndian.AppendUint64(append(dst, major|27), argument)
	}
}

func appendValue(dst []byte, v Value, depth int) ([]byte, error) {
	switch v := v.(type) {
	case nil:
		return nil, fmt.Errorf("%w: nil value", ErrMalformed)

	case Null:
		return append(dst, 0xf6), nil

	case Bool:
		if v {
			return append(dst, 0xf5), nil
		}
		return append(dst, 0xf4), nil

	case Int:
		if v >= 0 {
			return appendHead(dst, majorUnsigned, uint64(v)), nil
		}
		return appendHead(dst, majorNegative, uint64(-1-v)), nil

	case Float:
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("%w: cannot encode non-finite float", ErrMalformed)
		}
		return binary.BigEndian.AppendUint64(append(dst, 0xfb), math.Float64bits(f)), nil

	case Bytes:
		return append(appendHead(dst, majorBytes, uint64(len(v))), v...), nil

	case Text:
		if !utf8.ValidString(string(v)) {
			return nil, fmt.Errorf("%w: text is not valid UTF-8", ErrMalformed)
		}
		return append(appendHead(dst, majorText, uint64(len(v))), v...), nil

	case Link:
		if !v.CID.Defined() {
			return nil, fmt.Errorf("%w: link to undefined CID", ErrMalformed)
		}
		dst = appendHead(dst, majorTag, tagCID)
		raw := v.CID.AppendBytes([]byte{0x00})
		return append(appendHead(dst, majorBytes, uint64(len(raw))), raw...), nil

	case Array:
		if depth > maxEncodeDepth {
			return nil, fmt.Errorf("%w: array at depth %d", ErrDepthExceeded, depth)
		}
		dst = appendHead(dst, majorArray, uint64(len(v)))
		var err error
		for _, item := range v {
			if dst, err = appendValue(dst, item, depth+1); err != nil {
				return nil, err
			}
		}
		return dst, nil

	case Map:
		if depth > maxEncodeDepth {
			return nil, fmt.Errorf("%w: map at depth %d", ErrDepthExceeded, depth)
		}
		return appendMap(dst, v, depth)
	}
	return nil, fmt.Errorf("%w: unsupported value type %T", ErrMalformed, v)
}

func appendMap(dst []byte, m Map, depth int) ([]byte, error) {
	sorted := slices.Clone(m)
	slices.SortFunc(sorted, func(a, b Entry) int {
		return compareKeys(a.Key, b.Key)
	})
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Key == sorted[i-1].Key {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateKey, sorted[i].Key)
		}
	}

	dst = appendHead(dst, majorMap, uint64(len(sorted)))
	var err error
	for _, entry := range sorted {
		dst, err = appendValue(dst, Text(entry.Key), depth+1)
		if err != nil {
			return nil, err
		}
		if dst, err = appendValue(dst, entry.Value, depth+1); err != nil {
			return nil, err
		}
	}
	return dst, nil
}

// compareKeys orders map keys the way DAG-CBOR requires: shorter keys
// first, equal lengths bytewise. For text keys this matches sorting by
// their encoded form.
func compareKeys(a, b string) int {
	if len(a) != len(b) {
		return len(a) - len(b)
	}
	return strings.Compare(a, b)
}
