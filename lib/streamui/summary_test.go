// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package streamui

import (
	"errors"
	"strings"
	"testing"

	"github.com/bureau-foundation/skystream/firehose"
	"github.com/bureau-foundation/skystream/lib/dagcbor"
)

func postOp(rkey, text string) firehose.ResolvedOp {
	return firehose.ResolvedOp{
		RepoOp: firehose.RepoOp{Action: firehose.ActionCreate, Path: "app.bsky.feed.post/" + rkey},
		Record: dagcbor.Map{
			{Key: "$type", Value: dagcbor.Text("app.bsky.feed.post")},
			{Key: "text", Value: dagcbor.Text(text)},
			{Key: "createdAt", Value: dagcbor.Text("2026-03-01T12:00:00.000Z")},
		},
	}
}

func TestSummary(t *testing.T) {
	tests := []struct {
		name  string
		event firehose.Event
		want  string
	}{
		{
			name: "post",
			event: &firehose.CommitEvent{
				Envelope: firehose.Envelope{Seq: 7},
				Repo:     "did:plc:alice",
				Ops:      []firehose.ResolvedOp{postOp("3k", "hello\n  world")},
			},
			want: `#7 did:plc:alice create app.bsky.feed.post/3k "hello world"`,
		},
		{
			name: "several ops",
			event: &firehose.CommitEvent{
				Envelope: firehose.Envelope{Seq: 8},
				Repo:     "did:plc:alice",
				Ops: []firehose.ResolvedOp{
					postOp("a", "one"),
					{RepoOp: firehose.RepoOp{Action: firehose.ActionDelete, Path: "app.bsky.feed.like/b"}},
				},
			},
			want: `#8 did:plc:alice create app.bsky.feed.post/a "one" (+1 more)`,
		},
		{
			name: "like",
			event: &firehose.CommitEvent{
				Envelope: firehose.Envelope{Seq: 9},
				Repo:     "did:plc:bob",
				Ops: []firehose.ResolvedOp{{
					RepoOp: firehose.RepoOp{Action: firehose.ActionCreate, Path: "app.bsky.feed.like/x"},
					Record: dagcbor.Map{
						{Key: "$type", Value: dagcbor.Text("app.bsky.feed.like")},
						{Key: "subject", Value: dagcbor.Map{
							{Key: "uri", Value: dagcbor.Text("at://did:plc:alice/app.bsky.feed.post/3k")},
							{Key: "cid", Value: dagcbor.Text("bafyrei")},
						}},
						{Key: "createdAt", Value: dagcbor.Text("2026-03-01T12:00:00.000Z")},
					},
				}},
			},
			want: "#9 did:plc:bob create app.bsky.feed.like/x of at://did:plc:alice/app.bsky.feed.post/3k",
		},
		{
			name: "unresolved",
			event: &firehose.CommitEvent{
				Envelope: firehose.Envelope{Seq: 10, OutOfOrder: true},
				Repo:     "did:plc:bob",
				TooBig:   true,
				Warnings: []firehose.OpWarning{{Index: 0, Err: errors.New("missing block")}},
			},
			want: "#10 did:plc:bob (too big) no ops (out of order)",
		},
		{
			name:  "identity",
			event: &firehose.IdentityEvent{Envelope: firehose.Envelope{Seq: 11}, DID: "did:plc:alice", Handle: "alice.test"},
			want:  "#11 did:plc:alice alice.test",
		},
		{
			name:  "inactive account",
			event: &firehose.AccountEvent{Envelope: firehose.Envelope{Seq: 12}, DID: "did:plc:alice", Status: "takendown"},
			want:  "#12 did:plc:alice inactive (takendown)",
		},
		{
			name:  "active account",
			event: &firehose.AccountEvent{Envelope: firehose.Envelope{Seq: 13}, DID: "did:plc:alice", Active: true},
			want:  "#13 did:plc:alice active",
		},
		{
			name:  "handle",
			event: &firehose.HandleEvent{Envelope: firehose.Envelope{Seq: 14}, DID: "did:plc:alice", Handle: "alice.test"},
			want:  "#14 did:plc:alice -> alice.test",
		},
		{
			name:  "tombstone",
			event: &firehose.TombstoneEvent{Envelope: firehose.Envelope{Seq: 15}, DID: "did:plc:gone"},
			want:  "#15 did:plc:gone",
		},
		{
			name:  "info",
			event: &firehose.InfoEvent{Type: "#info", Name: "OutdatedCursor", Message: "cursor is\ttoo old"},
			want:  "OutdatedCursor: cursor is too old",
		},
		{
			name:  "unknown type",
			event: &firehose.InfoEvent{Type: "#sync"},
			want:  `unknown message type "#sync"`,
		},
		{
			name:  "error",
			event: &firehose.ErrorEvent{Op: -1, Code: "FutureCursor", Message: "cursor in the future"},
			want:  "FutureCursor: cursor in the future",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := Summary(test.event); got != test.want {
				t.Errorf("Summary = %q, want %q", got, test.want)
			}
		})
	}
}

func TestSummaryTruncatesLongPosts(t *testing.T) {
	event := &firehose.CommitEvent{
		Repo: "did:plc:alice",
		Ops:  []firehose.ResolvedOp{postOp("3k", strings.Repeat("a", 500))},
	}
	got := Summary(event)
	want := `"` + strings.Repeat("a", maxQuoteLength) + `..."`
	if !strings.HasSuffix(got, want) {
		t.Errorf("Summary = %q, want suffix %q", got, want)
	}
}
