// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports build information for the skystream binary.
//
// Values are injected at build time via -ldflags:
//
//	go build -ldflags "-X github.com/bureau-foundation/skystream/lib/version.GitCommit=$(git rev-parse --short HEAD)"
package version
