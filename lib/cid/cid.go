// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cid

import (
	"encoding/base32"
	"errors"
	"fmt"
	"strings"

	"github.com/bureau-foundation/skystream/lib/varint"
)

// ErrMalformed reports bytes or text that are not a valid CID.
var ErrMalformed = errors.New("malformed CID")

// Codec identifies how the addressed content is encoded.
type Codec uint64

const (
	// Raw content is an opaque byte sequence.
	Raw Codec = 0x55
	// DagCBOR content is a DAG-CBOR encoded value.
	DagCBOR Codec = 0x71
)

func (c Codec) String() string {
	switch c {
	case Raw:
		return "raw"
	case DagCBOR:
		return "dag-cbor"
	default:
		return fmt.Sprintf("codec(0x%x)", uint64(c))
	}
}

// HashAlgorithm is a multihash function code.
type HashAlgorithm uint64

const (
	SHA256 HashAlgorithm = 0x12
	BLAKE3 HashAlgorithm = 0x1e
)

// Size returns the digest length in bytes, or 0 for an unsupported
// algorithm.
func (h HashAlgorithm) Size() int {
	switch h {
	case SHA256, BLAKE3:
		return 32
	default:
		return 0
	}
}

func (h HashAlgorithm) String() string {
	switch h {
	case SHA256:
		return "sha2-256"
	case BLAKE3:
		return "blake3"
	default:
		return fmt.Sprintf("hash(0x%x)", uint64(h))
	}
}

// version is the only CID version this package reads or writes.
const version = 1

// base32Lower is the multibase "b" alphabet: RFC 4648 base32, no padding, lower case.
var base32Lower = base32.NewEncoding("abcdefghijklmnopqrstuvwxyz234567").WithPadding(base32.NoPadding)

// CID is a parsed content identifier. The zero value is the undefined
// CID; it equals no parsed CID.
type CID struct {
	codec  Codec
	hash   HashAlgorithm
	digest string
}

// New builds a CID from its parts.
func New(codec Codec, hash HashAlgorithm, digest []byte) (CID, error) {
	if err := checkCodec(codec); err != nil {
		return CID{}, err
	}
	size := hash.Size()
	if size == 0 {
		return CID{}, fmt.Errorf("%w: unsupported hash algorithm %s", ErrMalformed, hash)
	}
	if len(digest) != size {
		return CID{}, fmt.Errorf("%w: %s digest is %d bytes, want %d", ErrMalformed, hash, len(digest), size)
	}
	return CID{codec: codec, hash: hash, digest: string(digest)}, nil
}

// Parse decodes a CID occupying all of data.
func Parse(data []byte) (CID, error) {
	parsed, consumed, err := ParsePrefix(data)
	if err != nil {
		return CID{}, err
	}
	if consumed != len(data) {
		return CID{}, fmt.Errorf("%w: %d trailing bytes", ErrMalformed, len(data)-consumed)
	}
	return parsed, nil
}

// ParsePrefix decodes the CID at the start of data and returns the
// number of bytes it occupies. Bytes after the CID are not examined.
func ParsePrefix(data []byte) (CID, int, error) {
	offset := 0
	next := func(field string) (uint64, error) {
		value, n, err := varint.Decode(data[offset:])
		if err != nil {
			return 0, fmt.Errorf("%w: reading %s: %w", ErrMalformed, field, err)
		}
		offset += n
		return value, nil
	}

	cidVersion, err := next("version")
	if err != nil {
		return CID{}, 0, err
	}
	if cidVersion != version {
		return CID{}, 0, fmt.Errorf("%w: unsupported version %d", ErrMalformed, cidVersion)
	}
	codec, err := next("codec")
	if err != nil {
		return CID{}, 0, err
	}
	if err := checkCodec(Codec(codec)); err != nil {
		return CID{}, 0, err
	}
	hash, err := next("hash algorithm")
	if err != nil {
		return CID{}, 0, err
	}
	size := HashAlgorithm(hash).Size()
	if size == 0 {
		return CID{}, 0, fmt.Errorf("%w: unsupported hash algorithm %s", ErrMalformed, HashAlgorithm(hash))
	}
	length, err := next("digest length")
	if err != nil {
		return CID{}, 0, err
	}
	if length != uint64(size) {
		return CID{}, 0, fmt.Errorf("%w: %s digest length %d, want %d", ErrMalformed, HashAlgorithm(hash), length, size)
	}
	if len(data)-offset < size {
		return CID{}, 0, fmt.Errorf("%w: digest needs %d bytes, %d remain: %w", ErrMalformed, size, len(data)-offset, varint.ErrTruncated)
	}

	parsed := CID{
		codec:  Codec(codec),
		hash:   HashAlgorithm(hash),
		digest: string(data[offset : offset+size]),
	}
	return parsed, offset + size, nil
}

// Decode parses the multibase base32 string form produced by String.
func Decode(text string) (CID, error) {
	if len(text) < 2 || text[0] != 'b' {
		return CID{}, fmt.Errorf("%w: %q is not a base32 CID string", ErrMalformed, text)
	}
	data, err := base32Lower.DecodeString(strings.ToLower(text[1:]))
	if err != nil {
		return CID{}, fmt.Errorf("%w: %q: %w", ErrMalformed, text, err)
	}
	return Parse(data)
}

func checkCodec(codec Codec) error {
	switch codec {
	case Raw, DagCBOR:
		return nil
	default:
		return fmt.Errorf("%w: unsupported codec %s", ErrMalformed, codec)
	}
}

// Defined reports whether c was produced by a parse or constructor
// rather than being the zero value.
func (c CID) Defined() bool { return c.digest != "" }

// Codec returns the content codec.
func (c CID) Codec() Codec { return c.codec }

// Hash returns the multihash algorithm.
func (c CID) Hash() HashAlgorithm { return c.hash }

// Digest returns a copy of the digest bytes.
func (c CID) Digest() []byte { return []byte(c.digest) }

// Bytes returns the binary form. Parse(c.Bytes()) == c for every
// defined CID.
func (c CID) Bytes() []byte {
	if !c.Defined() {
		return nil
	}
	return c.AppendBytes(make([]byte, 0, 4+len(c.digest)))
}

// AppendBytes appends the binary form to dst.
func (c CID) AppendBytes(dst []byte) []byte {
	dst = varint.Append(dst, version)
	dst = varint.Append(dst, uint64(c.codec))
	dst = varint.Append(dst, uint64(c.hash))
	dst = varint.Append(dst, uint64(len(c.digest)))
	return append(dst, c.digest...)
}

// String returns the multibase base32 form ("bafy..."), or "<undefined>"
// for the zero value.
func (c CID) String() string {
	if !c.Defined() {
		return "<undefined>"
	}
	return "b" + base32Lower.EncodeToString(c.Bytes())
}

// MarshalText implements encoding.TextMarshaler using the String form.
func (c CID) MarshalText() ([]byte, error) {
	if !c.Defined() {
		return nil, fmt.Errorf("%w: cannot marshal undefined CID", ErrMalformed)
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *CID) UnmarshalText(text []byte) error {
	parsed, err := Decode(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
