// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package varint implements the unsigned LEB128 variable-length
// integers used as length prefixes and identifiers throughout the
// repository stream: CID version/codec/hash fields, CAR section
// lengths, and capture file record lengths.
//
// Each byte carries seven value bits, least significant group first.
// The high bit is set on every byte except the last. A uint64 needs at
// most [MaxLen] bytes; input that continues past that, or whose tenth
// byte carries more than the single remaining bit, fails with
// [ErrOverflow]. Input that ends before a terminating byte fails with
// [ErrTruncated].
//
// Decoding never panics on arbitrary input. [ErrTruncated] is shared
// by the value codec and block extractor so that callers can classify
// every "ran out of bytes" failure with one errors.Is check.
package varint
