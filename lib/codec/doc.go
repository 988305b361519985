// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec projects DAG-CBOR records onto Go structs.
//
// lib/dagcbor decodes untrusted frames into a generic value tree and
// enforces the strict DAG-CBOR rules. Once a record is in that tree,
// consumers usually want a typed view of it: a post with its text and
// reply refs, a like with its subject. This package bridges the two
// with fxamacker/cbor:
//
//	var post lexicon.Post
//	err := codec.FromValue(record, &post)
//
// [FromValue] re-encodes the tree canonically and unmarshals it with
// a decoder configured to reject the same things lib/dagcbor rejects
// (duplicate keys, indefinite lengths, NaN and infinity). [ToValue]
// goes the other way, for building records in tests and fixtures.
//
// [Link] is the struct field type for a tag 42 content link.
// [Diagnose] renders raw bytes in RFC 8949 diagnostic notation for the
// diag subcommand.
//
// # Struct Tag Rules
//
// Record types use `json` tags only. fxamacker/cbor falls back to json
// tags when cbor tags are absent, so one tag controls the field name
// for both the CBOR projection and the CLI's JSON output.
package codec
