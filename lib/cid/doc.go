// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cid implements version 1 content identifiers: the
// self-describing addresses that link records, commits, and blocks in
// a repository stream.
//
// The binary form is four varints followed by the digest:
//
//	version(1) ‖ codec ‖ hash algorithm ‖ digest length ‖ digest
//
// Only the codecs and hash algorithms the stream actually uses are
// accepted ([Raw], [DagCBOR]; [SHA256], [BLAKE3]). Anything else, or a
// digest whose declared length disagrees with the algorithm, fails
// with [ErrMalformed].
//
// [CID] is an immutable, comparable value: two CIDs are equal under ==
// exactly when their binary forms are byte-identical, so CIDs work
// directly as map keys. Parsing never recomputes a digest. [Sum] is
// the only place a digest is computed, and nothing in the decode path
// calls it.
package cid
