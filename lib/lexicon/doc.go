// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package lexicon gives typed views of the common Bluesky record
// types carried in commit operations.
//
// [Project] reads a record's $type and decodes it into the matching
// struct through lib/codec. A record with an unrecognized $type, or
// whose shape does not fit its declared type, comes back as [Unknown]
// holding the untouched value; projection never fails.
//
//	for _, op := range commit.Ops {
//		if post, ok := lexicon.Project(op.Record).(*lexicon.Post); ok {
//			fmt.Println(post.Text)
//		}
//	}
package lexicon
