// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package firehose

import (
	"testing"

	"github.com/bureau-foundation/skystream/lib/car"
	"github.com/bureau-foundation/skystream/lib/cid"
	"github.com/bureau-foundation/skystream/lib/dagcbor"
)

const testTime = "2026-03-01T12:00:00.000Z"

func encodeValue(t *testing.T, v dagcbor.Value) []byte {
	t.Helper()
	data, err := dagcbor.Encode(v)
	if err != nil {
		t.Fatalf("dagcbor.Encode: %v", err)
	}
	return data
}

// message builds a complete op=1 stream message.
func message(t *testing.T, typ string, body dagcbor.Map) []byte {
	t.Helper()
	header := dagcbor.Map{{Key: "op", Value: dagcbor.Int(OpMessage)}, {Key: "t", Value: dagcbor.Text(typ)}}
	return append(encodeValue(t, header), encodeValue(t, body)...)
}

func errorMessage(t *testing.T, code, text string) []byte {
	t.Helper()
	header := dagcbor.Map{{Key: "op", Value: dagcbor.Int(OpError)}}
	body := dagcbor.Map{{Key: "error", Value: dagcbor.Text(code)}, {Key: "message", Value: dagcbor.Text(text)}}
	return append(encodeValue(t, header), encodeValue(t, body)...)
}

// record is a record block ready to place in a commit.
type record struct {
	cid  cid.CID
	data []byte
}

func postRecord(t *testing.T, text string) record {
	t.Helper()
	data := encodeValue(t, dagcbor.Map{
		{Key: "$type", Value: dagcbor.Text("app.bsky.feed.post")},
		{Key: "text", Value: dagcbor.Text(text)},
		{Key: "createdAt", Value: dagcbor.Text(testTime)},
	})
	c, err := cid.Sum(cid.DagCBOR, cid.SHA256, data)
	if err != nil {
		t.Fatalf("cid.Sum: %v", err)
	}
	return record{cid: c, data: data}
}

func blockBuffer(t *testing.T, records ...record) []byte {
	t.Helper()
	var buf []byte
	if len(records) > 0 {
		var err error
		if buf, err = car.AppendHeader(buf, records[0].cid); err != nil {
			t.Fatalf("car.AppendHeader: %v", err)
		}
	}
	for _, r := range records {
		buf = car.AppendBlock(buf, r.cid, r.data)
	}
	return buf
}

func opValue(action Action, path string, c *cid.CID) dagcbor.Value {
	var link dagcbor.Value = dagcbor.Null{}
	if c != nil {
		link = dagcbor.Link{CID: *c}
	}
	return dagcbor.Map{
		{Key: "action", Value: dagcbor.Text(action)},
		{Key: "path", Value: dagcbor.Text(path)},
		{Key: "cid", Value: link},
	}
}

func commitBody(t *testing.T, seq int64, ops dagcbor.Array, blocks []byte) dagcbor.Map {
	t.Helper()
	commitCID, err := cid.Sum(cid.DagCBOR, cid.SHA256, []byte("commit"))
	if err != nil {
		t.Fatalf("cid.Sum: %v", err)
	}
	return dagcbor.Map{
		{Key: "seq", Value: dagcbor.Int(seq)},
		{Key: "repo", Value: dagcbor.Text("did:plc:alice")},
		{Key: "rev", Value: dagcbor.Text("3kabc")},
		{Key: "since", Value: dagcbor.Null{}},
		{Key: "commit", Value: dagcbor.Link{CID: commitCID}},
		{Key: "ops", Value: ops},
		{Key: "blocks", Value: dagcbor.Bytes(blocks)},
		{Key: "blobs", Value: dagcbor.Array{}},
		{Key: "rebase", Value: dagcbor.Bool(false)},
		{Key: "tooBig", Value: dagcbor.Bool(false)},
		{Key: "time", Value: dagcbor.Text(testTime)},
	}
}

// simpleCommit is a one-post commit message with the given seq.
func simpleCommit(t *testing.T, seq int64) []byte {
	t.Helper()
	post := postRecord(t, "post")
	ops := dagcbor.Array{opValue(ActionCreate, "app.bsky.feed.post/a", &post.cid)}
	return message(t, TypeCommit, commitBody(t, seq, ops, blockBuffer(t, post)))
}

func identityBody(seq int64, did string) dagcbor.Map {
	return dagcbor.Map{
		{Key: "seq", Value: dagcbor.Int(seq)},
		{Key: "did", Value: dagcbor.Text(did)},
		{Key: "time", Value: dagcbor.Text(testTime)},
	}
}
