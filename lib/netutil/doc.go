// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil holds the HTTP and connection helpers shared by the
// stream transport and the identity resolver.
//
// Response helpers bound every body read at [MaxResponseSize]. The
// firehose itself never goes through them; they are for XRPC JSON
// responses and handshake error bodies.
//
// [IsExpectedCloseError] separates a relay hanging up cleanly from a
// failure worth a warning.
package netutil
