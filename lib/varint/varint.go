// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package varint

import (
	"errors"
	"io"
)

// MaxLen is the longest valid encoding of a uint64.
const MaxLen = 10

var (
	// ErrTruncated reports that the input ended before a complete
	// value (or a declared length) could be read.
	ErrTruncated = errors.New("truncated input")

	// ErrOverflow reports a varint that does not fit in 64 bits.
	ErrOverflow = errors.New("varint overflows uint64")
)

// Decode reads one varint from the start of data and returns the value
// and the number of bytes consumed.
func Decode(data []byte) (uint64, int, error) {
	var value uint64
	var shift uint
	for i, b := range data {
		// The tenth byte holds bit 63 only; anything larger, including
		// another continuation, cannot fit.
		if i == MaxLen-1 && b > 1 {
			return 0, 0, ErrOverflow
		}
		value |= uint64(b&0x7f) << shift
		if b < 0x80 {
			return value, i + 1, nil
		}
		shift += 7
	}
	return 0, 0, ErrTruncated
}

// Read reads one varint from r. It returns io.EOF only when r is
// exhausted before the first byte; running out mid-value is
// ErrTruncated.
func Read(r io.ByteReader) (uint64, int, error) {
	var value uint64
	var shift uint
	for i := 0; ; i++ {
		b, err := r.ReadByte()
		if err != nil {
			if err == io.EOF {
				if i == 0 {
					return 0, 0, io.EOF
				}
				return 0, i, ErrTruncated
			}
			return 0, i, err
		}
		if i == MaxLen-1 && b > 1 {
			return 0, i + 1, ErrOverflow
		}
		value |= uint64(b&0x7f) << shift
		if b < 0x80 {
			return value, i + 1, nil
		}
		shift += 7
	}
}

// Len returns the number of bytes Encode(value) produces.
func Len(value uint64) int {
	n := 1
	for value >= 0x80 {
		value >>= 7
		n++
	}
	return n
}

// Encode returns the minimal encoding of value.
func Encode(value uint64) []byte {
	return Append(make([]byte, 0, Len(value)), value)
}

// Append appends the minimal encoding of value to dst.
func Append(dst []byte, value uint64) []byte {
	for value >= 0x80 {
		dst = append(dst, byte(value)|0x80)
		value >>= 7
	}
	return append(dst, byte(value))
}
