// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package dagcbor

import (
	"errors"
	"fmt"

	"github.com/bureau-foundation/skystream/lib/varint"
)

var (
	// ErrTruncated reports input that ends in the middle of a value.
	// It is the same sentinel the varint and car packages use.
	ErrTruncated = varint.ErrTruncated

	// ErrOverflow reports an integer outside the signed 64-bit range.
	ErrOverflow = varint.ErrOverflow

	// ErrDuplicateKey reports a map with two entries under one key,
	// on the wire or in a Map handed to Encode.
	ErrDuplicateKey = errors.New("duplicate map key")

	// ErrDepthExceeded reports containers nested deeper than the
	// configured limit.
	ErrDepthExceeded = errors.New("nesting depth exceeded")

	// ErrMalformed reports input that is CBOR-shaped but not valid
	// DAG-CBOR: reserved or indefinite-length heads, non-text map keys,
	// invalid UTF-8, unsupported tags or simple values, non-finite
	// floats, and trailing bytes after a complete value.
	ErrMalformed = errors.New("malformed DAG-CBOR")
)

// DecodeError locates a decode failure. Err is one of the package
// sentinels or a wrapped cid.ErrMalformed, so callers classify with
// errors.Is and read the offset with errors.As.
type DecodeError struct {
	// Offset is the byte position of the head that failed, relative to
	// the start of the buffer passed to the decoder.
	Offset int
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("dagcbor: at offset %d: %v", e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
