// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package identity resolves Bluesky handles to DIDs over XRPC.
//
// The firehose identifies repositories by DID, while people write
// handles. Filters name accounts by handle and resolve them once at
// startup; "skystream resolve" exposes the same lookup.
//
// Errors returned by the service come back as [*XRPCError], so
// callers can tell an unknown handle (400, InvalidRequest) from an
// unreachable service:
//
//	did, err := client.ResolveHandle(ctx, "alice.bsky.social")
//	if identity.IsXRPCError(err, "InvalidRequest") { ... }
package identity
