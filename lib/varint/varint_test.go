// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package varint

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestEncodeKnownValues(t *testing.T) {
	tests := []struct {
		value uint64
		want  []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x01}},
		{127, []byte{0x7f}},
		{128, []byte{0x80, 0x01}},
		{300, []byte{0xac, 0x02}},
		{16384, []byte{0x80, 0x80, 0x01}},
		{math.MaxUint64, []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x01}},
	}
	for _, test := range tests {
		got := Encode(test.value)
		if !bytes.Equal(got, test.want) {
			t.Errorf("Encode(%d) = %x, want %x", test.value, got, test.want)
		}
		if Len(test.value) != len(test.want) {
			t.Errorf("Len(%d) = %d, want %d", test.value, Len(test.value), len(test.want))
		}
	}
}

func TestDecodeStopsAtTerminator(t *testing.T) {
	value, consumed, err := Decode([]byte{0xac, 0x02, 0xff, 0xff})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if value != 300 || consumed != 2 {
		t.Errorf("Decode = (%d, %d), want (300, 2)", value, consumed)
	}
}

func TestDecodeTruncated(t *testing.T) {
	for _, input := range [][]byte{nil, {}, {0x80}, {0xff, 0xff}, {0x80, 0x80, 0x80}} {
		if _, _, err := Decode(input); !errors.Is(err, ErrTruncated) {
			t.Errorf("Decode(%x) error = %v, want ErrTruncated", input, err)
		}
	}
}

func TestDecodeOverflow(t *testing.T) {
	// Ten continuation bytes.
	tooLong := bytes.Repeat([]byte{0x80}, 11)
	if _, _, err := Decode(tooLong); !errors.Is(err, ErrOverflow) {
		t.Errorf("Decode(11 continuation bytes) error = %v, want ErrOverflow", err)
	}

	// Ten bytes whose last byte sets bit 64.
	wide := append(bytes.Repeat([]byte{0xff}, 9), 0x02)
	if _, _, err := Decode(wide); !errors.Is(err, ErrOverflow) {
		t.Errorf("Decode(65-bit value) error = %v, want ErrOverflow", err)
	}
}

func TestReadFromStream(t *testing.T) {
	var stream []byte
	stream = Append(stream, 5)
	stream = Append(stream, 1<<40)
	reader := bufio.NewReader(bytes.NewReader(stream))

	first, _, err := Read(reader)
	if err != nil || first != 5 {
		t.Fatalf("first Read = (%d, %v), want (5, nil)", first, err)
	}
	second, consumed, err := Read(reader)
	if err != nil || second != 1<<40 || consumed != Len(1<<40) {
		t.Fatalf("second Read = (%d, %d, %v), want (%d, %d, nil)", second, consumed, err, uint64(1)<<40, Len(1<<40))
	}
	if _, _, err := Read(reader); err != io.EOF {
		t.Fatalf("Read at end = %v, want io.EOF", err)
	}
}

func TestReadTruncatedMidValue(t *testing.T) {
	reader := bufio.NewReader(bytes.NewReader([]byte{0x80, 0x80}))
	if _, _, err := Read(reader); !errors.Is(err, ErrTruncated) {
		t.Errorf("Read error = %v, want ErrTruncated", err)
	}
}

func TestRoundTripProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	properties.Property("Decode(Encode(n)) == (n, Len(n))", prop.ForAll(
		func(n uint64) bool {
			encoded := Encode(n)
			value, consumed, err := Decode(encoded)
			return err == nil && value == n && consumed == len(encoded) && consumed == Len(n)
		},
		gen.UInt64(),
	))

	properties.Property("every strict prefix fails with ErrTruncated", prop.ForAll(
		func(n uint64) bool {
			encoded := Encode(n)
			for cut := 0; cut < len(encoded); cut++ {
				if _, _, err := Decode(encoded[:cut]); !errors.Is(err, ErrTruncated) {
					return false
				}
			}
			return true
		},
		gen.UInt64(),
	))

	properties.TestingRun(t)
}
