// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package dagcbor decodes and encodes the DAG-CBOR subset of CBOR into
// a generic value tree.
//
// The tree is a closed set of types implementing [Value]: [Null],
// [Bool], [Int], [Float], [Bytes], [Text], [Array], [Map], and [Link].
// Links are opaque CIDs and are never resolved in place, so a decoded
// tree has no cycles.
//
// Decoding is strict where DAG-CBOR requires it and where untrusted
// input could hurt the process:
//
//   - map keys must be text strings and must be unique
//   - indefinite-length items, undefined, and simple values are rejected
//   - tag 42 (a CID link) is the only tag, and its content must parse
//   - floats must be finite
//   - container nesting beyond [Decoder.MaxDepth] fails with
//     [ErrDepthExceeded] before any allocation for the deeper level
//
// Map entries keep their wire order. [Encode] always writes the
// canonical form (minimal integer heads, 64-bit floats, keys sorted
// length-first then bytewise), so re-encoding the same logical value is
// byte-identical regardless of the order it was built in. Use [Equal]
// to compare trees, since map order is not significant.
//
// Stream frames are two values placed back to back with no outer
// length prefix. [Decoder.DecodePrefix] returns the number of bytes one
// value consumed so the caller can find the next:
//
//	header, n, err := dagcbor.DecodePrefix(message)
//	body, m, err := dagcbor.DecodePrefix(message[n:])
package dagcbor
