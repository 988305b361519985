// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package firehose

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/bureau-foundation/skystream/lib/cid"
	"github.com/bureau-foundation/skystream/lib/dagcbor"
)

// Event is one decoded stream message. The concrete type is one of
// *CommitEvent, *IdentityEvent, *AccountEvent, *HandleEvent,
// *TombstoneEvent, *InfoEvent, or *ErrorEvent.
type Event interface {
	// Kind is the short kind name: "commit", "identity", "account",
	// "handle", "tombstone", "info", or "error".
	Kind() string
	isEvent()
}

// Envelope is the sequencing metadata shared by every event that
// advances the cursor.
type Envelope struct {
	Seq  int64     `json:"seq"`
	Time time.Time `json:"time,omitzero"`
	// OutOfOrder is set when Seq is lower than the cursor at the time
	// the event arrived.
	OutOfOrder bool `json:"outOfOrder,omitempty"`
}

func (e *Envelope) envelope() *Envelope { return e }

type sequenced interface {
	Event
	envelope() *Envelope
}

// Sequence returns the event's sequence number. The second result is
// false for events that do not advance the cursor.
func Sequence(event Event) (int64, bool) {
	if s, ok := event.(sequenced); ok {
		return s.envelope().Seq, true
	}
	return 0, false
}

// EnvelopeOf returns a copy of the event's envelope, with false for
// events that carry none.
func EnvelopeOf(event Event) (Envelope, bool) {
	if s, ok := event.(sequenced); ok {
		return *s.envelope(), true
	}
	return Envelope{}, false
}

// Action is a repository operation kind.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

func (a Action) valid() bool {
	return a == ActionCreate || a == ActionUpdate || a == ActionDelete
}

// RepoOp is one operation as declared in a commit.
type RepoOp struct {
	Action Action `json:"action"`
	// Path is "<collection>/<record key>".
	Path string `json:"path"`
	// CID addresses the new record. Zero for deletes.
	CID cid.CID `json:"cid,omitzero"`
}

// Collection returns the collection NSID part of Path.
func (op RepoOp) Collection() string {
	collection, _, _ := strings.Cut(op.Path, "/")
	return collection
}

// RecordKey returns the record key part of Path.
func (op RepoOp) RecordKey() string {
	_, key, _ := strings.Cut(op.Path, "/")
	return key
}

// ResolvedOp pairs an operation with its record. Record is nil for
// deletes and otherwise holds the decoded block, whatever its shape.
type ResolvedOp struct {
	RepoOp
	Record dagcbor.Value `json:"record,omitempty"`
}

// OpWarning explains why a declared operation is absent from
// CommitEvent.Ops.
type OpWarning struct {
	// Index is the operation's position in the declared list.
	Index int
	Op    RepoOp
	Err   error
}

func (w OpWarning) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Index int    `json:"index"`
		Op    RepoOp `json:"op"`
		Error string `json:"error"`
	}{w.Index, w.Op, w.Err.Error()})
}

// CommitEvent reports a batch of record operations on one repository.
type CommitEvent struct {
	Envelope
	Repo string `json:"repo"`
	Rev  string `json:"rev"`
	// Since is the previous revision, empty for a repository's first
	// commit.
	Since  string    `json:"since,omitempty"`
	Commit cid.CID   `json:"commit,omitzero"`
	TooBig bool      `json:"tooBig,omitempty"`
	Rebase bool      `json:"rebase,omitempty"`
	Blobs  []cid.CID `json:"blobs,omitempty"`
	// Ops holds the resolved operations in declared order.
	Ops      []ResolvedOp `json:"ops"`
	Warnings []OpWarning  `json:"warnings,omitempty"`
}

// Effective collapses Ops to the last operation per path, keeping the
// position of each path's final operation.
func (c *CommitEvent) Effective() []ResolvedOp {
	last := make(map[string]int, len(c.Ops))
	for i, op := range c.Ops {
		last[op.Path] = i
	}
	out := make([]ResolvedOp, 0, len(last))
	for i, op := range c.Ops {
		if last[op.Path] == i {
			out = append(out, op)
		}
	}
	return out
}

// IdentityEvent reports that a DID's identity data may have changed.
type IdentityEvent struct {
	Envelope
	DID    string `json:"did"`
	Handle string `json:"handle,omitempty"`
}

// AccountEvent reports a change in an account's hosting status.
type AccountEvent struct {
	Envelope
	DID    string `json:"did"`
	Active bool   `json:"active"`
	// Status explains an inactive account: "takendown", "suspended",
	// "deleted", "deactivated", or a value added later.
	Status string `json:"status,omitempty"`
}

// HandleEvent reports a handle change. Newer services send an
// IdentityEvent instead.
type HandleEvent struct {
	Envelope
	DID    string `json:"did"`
	Handle string `json:"handle"`
}

// TombstoneEvent reports a deleted repository.
type TombstoneEvent struct {
	Envelope
	DID string `json:"did"`
}

// InfoEvent carries an informational message from the service, or a
// message kind this package does not know.
type InfoEvent struct {
	// Type is the raw header type, "#info" for service messages. It
	// is empty for a message frame whose header names no type.
	Type    string `json:"type"`
	Name    string `json:"name,omitempty"`
	Message string `json:"message,omitempty"`
	// Body is the undecoded body of an unknown message kind.
	Body dagcbor.Value `json:"body,omitempty"`
}

// ErrorEvent carries an error frame from the service, or a frame
// whose op this package does not know.
type ErrorEvent struct {
	Op      int64  `json:"op"`
	Code    string `json:"error"`
	Message string `json:"message,omitempty"`
	// Body is the undecoded body of a frame with an unknown op.
	Body dagcbor.Value `json:"body,omitempty"`
}

// Info names the service sends.
const (
	InfoOutdatedCursor = "OutdatedCursor"
)

// Error codes the service sends.
const (
	ErrorFutureCursor    = "FutureCursor"
	ErrorConsumerTooSlow = "ConsumerTooSlow"
	// ErrorUnknownOp is used for frames with an unrecognized op.
	ErrorUnknownOp = "UnknownOp"
)

func (*CommitEvent) Kind() string    { return "commit" }
func (*IdentityEvent) Kind() string  { return "identity" }
func (*AccountEvent) Kind() string   { return "account" }
func (*HandleEvent) Kind() string    { return "handle" }
func (*TombstoneEvent) Kind() string { return "tombstone" }
func (*InfoEvent) Kind() string      { return "info" }
func (*ErrorEvent) Kind() string     { return "error" }

func (*CommitEvent) isEvent()    {}
func (*IdentityEvent) isEvent()  {}
func (*AccountEvent) isEvent()   {}
func (*HandleEvent) isEvent()    {}
func (*TombstoneEvent) isEvent() {}
func (*InfoEvent) isEvent()      {}
func (*ErrorEvent) isEvent()     {}
