// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Skystream consumes the AT Protocol repository event stream.
//
// Commands:
//
//   - stream: print events as JSON lines or one-line summaries,
//     resuming from the stored cursor
//   - view: live terminal viewer
//   - capture: record raw frames to a capture file
//   - replay: run a capture file through the decoder
//   - diag: print CBOR diagnostic notation for raw or captured frames
//   - resolve: resolve handles to DIDs
//   - filters: list and edit the filters file
//   - version: print build information
//
// Configuration comes from the file named by --config or
// SKYSTREAM_CONFIG, falling back to built-in defaults. Flags override
// individual settings.
package main
