// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package firehose

import (
	"fmt"
	"time"

	"github.com/bureau-foundation/skystream/lib/dagcbor"
)

// Message types carried in the header's "t" field.
const (
	TypeCommit    = "#commit"
	TypeIdentity  = "#identity"
	TypeAccount   = "#account"
	TypeHandle    = "#handle"
	TypeTombstone = "#tombstone"
	TypeInfo      = "#info"
)

// Decoder turns raw transport messages into events. The zero value
// uses dagcbor.DefaultMaxDepth.
type Decoder struct {
	// MaxDepth bounds value nesting in headers, bodies, and records.
	MaxDepth int
}

func (d Decoder) values() dagcbor.Decoder {
	return dagcbor.Decoder{MaxDepth: d.MaxDepth}
}

// Decode decodes one message into an event. A nil event is never
// returned with a nil error.
func (d Decoder) Decode(message []byte) (Event, error) {
	frame, err := DecodeFrame(d.values(), message)
	if err != nil {
		return nil, err
	}
	return d.DecodeFrame(frame)
}

// DecodeFrame maps an already split frame onto an event. Unknown ops
// and message types produce ErrorEvent and InfoEvent values rather
// than errors.
func (d Decoder) DecodeFrame(frame Frame) (Event, error) {
	header, err := ParseHeader(frame.Header)
	if err != nil {
		return nil, err
	}

	switch header.Op {
	case OpError:
		body, err := mapBody(frame.Body)
		if err != nil {
			return nil, err
		}
		code, _ := body.Text("error")
		message, _ := body.Text("message")
		return &ErrorEvent{Op: header.Op, Code: code, Message: message}, nil
	case OpMessage:
		return d.message(header.Type, frame.Body)
	default:
		// The body of an unknown op may have any shape.
		return &ErrorEvent{
			Op:      header.Op,
			Code:    ErrorUnknownOp,
			Message: fmt.Sprintf("unrecognized frame op %d (type %q)", header.Op, header.Type),
			Body:    frame.Body,
		}, nil
	}
}

func mapBody(value dagcbor.Value) (dagcbor.Map, error) {
	body, ok := value.(dagcbor.Map)
	if !ok {
		return nil, fmt.Errorf("%w: body is a %s, want map", ErrMalformedBody, value.Kind())
	}
	return body, nil
}

func (d Decoder) message(typ string, value dagcbor.Value) (Event, error) {
	if !knownType(typ) {
		// Forward compatibility: a kind added by the service after
		// this package was written reaches the sink as info.
		return &InfoEvent{
			Type:    typ,
			Message: fmt.Sprintf("unrecognized message type %q", typ),
			Body:    value,
		}, nil
	}
	body, err := mapBody(value)
	if err != nil {
		return nil, err
	}

	switch typ {
	case TypeCommit:
		return ResolveCommit(d.values(), body)

	case TypeIdentity:
		envelope, err := parseEnvelope(body)
		if err != nil {
			return nil, err
		}
		event := &IdentityEvent{Envelope: envelope}
		if event.DID, err = requireText(body, "did"); err != nil {
			return nil, err
		}
		event.Handle, _ = body.Text("handle")
		return event, nil

	case TypeAccount:
		envelope, err := parseEnvelope(body)
		if err != nil {
			return nil, err
		}
		event := &AccountEvent{Envelope: envelope}
		if event.DID, err = requireText(body, "did"); err != nil {
			return nil, err
		}
		active, ok := body.Bool("active")
		if !ok {
			return nil, fmt.Errorf("%w: account event has no active flag", ErrMalformedBody)
		}
		event.Active = active
		event.Status, _ = body.Text("status")
		return event, nil

	case TypeHandle:
		envelope, err := parseEnvelope(body)
		if err != nil {
			return nil, err
		}
		event := &HandleEvent{Envelope: envelope}
		if event.DID, err = requireText(body, "did"); err != nil {
			return nil, err
		}
		if event.Handle, err = requireText(body, "handle"); err != nil {
			return nil, err
		}
		return event, nil

	case TypeTombstone:
		envelope, err := parseEnvelope(body)
		if err != nil {
			return nil, err
		}
		event := &TombstoneEvent{Envelope: envelope}
		if event.DID, err = requireText(body, "did"); err != nil {
			return nil, err
		}
		return event, nil

	default: // TypeInfo
		event := &InfoEvent{Type: typ}
		event.Name, _ = body.Text("name")
		event.Message, _ = body.Text("message")
		return event, nil
	}
}

func knownType(typ string) bool {
	switch typ {
	case TypeCommit, TypeIdentity, TypeAccount, TypeHandle, TypeTombstone, TypeInfo:
		return true
	}
	return false
}

func parseEnvelope(body dagcbor.Map) (Envelope, error) {
	seq, ok := body.Int("seq")
	if !ok {
		return Envelope{}, fmt.Errorf("%w: body has no integer seq", ErrMalformedBody)
	}
	envelope := Envelope{Seq: seq}
	if text, ok := body.Text("time"); ok {
		// An unparseable timestamp is not worth dropping the event.
		if parsed, err := time.Parse(time.RFC3339Nano, text); err == nil {
			envelope.Time = parsed
		}
	}
	return envelope, nil
}

func requireText(body dagcbor.Map, key string) (string, error) {
	value, ok := body.Text(key)
	if !ok {
		return "", fmt.Errorf("%w: body has no text %s", ErrMalformedBody, key)
	}
	return value, nil
}
