// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package capture records raw firehose messages to a file and reads
// them back.
//
// A capture file is a 6-byte magic "SKYCAP", a version byte (1), and
// a compression byte, followed by a compressed stream of records.
// Each record is varint(length) followed by one WebSocket message
// exactly as received:
//
//	"SKYCAP" 0x01 <compression> | <stream: varint(len) frame, varint(len) frame, ...>
//
// Frames are stored undecoded, so a capture taken before a decoder
// fix replays through the fixed decoder. "skystream capture" writes
// them from the session's frame tap; "skystream replay" and
// "skystream diag" read them.
package capture
