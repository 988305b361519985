// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package lexicon

import (
	"github.com/bureau-foundation/skystream/lib/codec"
	"github.com/bureau-foundation/skystream/lib/dagcbor"
)

// Record type identifiers.
const (
	TypePost    = "app.bsky.feed.post"
	TypeLike    = "app.bsky.feed.like"
	TypeRepost  = "app.bsky.feed.repost"
	TypeFollow  = "app.bsky.graph.follow"
	TypeBlock   = "app.bsky.graph.block"
	TypeProfile = "app.bsky.actor.profile"
)

// Record is a projected record.
type Record interface {
	RecordType() string
}

// StrongRef points at a specific version of a record. The CID here
// is a string field in the record, not a tag 42 link.
type StrongRef struct {
	URI string `json:"uri"`
	CID string `json:"cid"`
}

// Blob references uploaded media.
type Blob struct {
	Ref      codec.Link `json:"ref"`
	MimeType string     `json:"mimeType"`
	Size     int64      `json:"size"`
}

// ReplyRef places a post in a thread.
type ReplyRef struct {
	Root   StrongRef `json:"root"`
	Parent StrongRef `json:"parent"`
}

// Post is app.bsky.feed.post.
type Post struct {
	Text      string    `json:"text"`
	CreatedAt string    `json:"createdAt"`
	Langs     []string  `json:"langs,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
	Reply     *ReplyRef `json:"reply,omitempty"`
}

// Like is app.bsky.feed.like.
type Like struct {
	Subject   StrongRef `json:"subject"`
	CreatedAt string    `json:"createdAt"`
}

// Repost is app.bsky.feed.repost.
type Repost struct {
	Subject   StrongRef `json:"subject"`
	CreatedAt string    `json:"createdAt"`
}

// Follow is app.bsky.graph.follow. Subject is a DID.
type Follow struct {
	Subject   string `json:"subject"`
	CreatedAt string `json:"createdAt"`
}

// Block is app.bsky.graph.block. Subject is a DID.
type Block struct {
	Subject   string `json:"subject"`
	CreatedAt string `json:"createdAt"`
}

// Profile is app.bsky.actor.profile.
type Profile struct {
	DisplayName string `json:"displayName,omitempty"`
	Description string `json:"description,omitempty"`
	Avatar      *Blob  `json:"avatar,omitempty"`
	Banner      *Blob  `json:"banner,omitempty"`
}

// Unknown is a record that did not project. Type is its $type, empty
// when absent; Value is the record as decoded.
type Unknown struct {
	Type  string        `json:"$type,omitempty"`
	Value dagcbor.Value `json:"value"`
}

func (*Post) RecordType() string    { return TypePost }
func (*Like) RecordType() string    { return TypeLike }
func (*Repost) RecordType() string  { return TypeRepost }
func (*Follow) RecordType() string  { return TypeFollow }
func (*Block) RecordType() string   { return TypeBlock }
func (*Profile) RecordType() string { return TypeProfile }
func (u *Unknown) RecordType() string {
	return u.Type
}

var constructors = map[string]func() Record{
	TypePost:    func() Record { return new(Post) },
	TypeLike:    func() Record { return new(Like) },
	TypeRepost:  func() Record { return new(Repost) },
	TypeFollow:  func() Record { return new(Follow) },
	TypeBlock:   func() Record { return new(Block) },
	TypeProfile: func() Record { return new(Profile) },
}

// Project returns the typed view of a record value. A nil value (a
// delete) projects to nil.
func Project(value dagcbor.Value) Record {
	if value == nil {
		return nil
	}
	record, ok := value.(dagcbor.Map)
	if !ok {
		return &Unknown{Value: value}
	}
	recordType, _ := record.Text("$type")
	construct, known := constructors[recordType]
	if !known {
		return &Unknown{Type: recordType, Value: value}
	}
	typed := construct()
	if err := codec.FromValue(record, typed); err != nil {
		return &Unknown{Type: recordType, Value: value}
	}
	return typed
}
