// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package firehose

import (
	"errors"
	"fmt"

	"github.com/bureau-foundation/skystream/lib/cid"
	"github.com/bureau-foundation/skystream/lib/dagcbor"
	"github.com/bureau-foundation/skystream/lib/varint"
)

// Codec sentinels, re-exported so callers can classify every
// pipeline error with this package alone.
var (
	ErrTruncated     = varint.ErrTruncated
	ErrOverflow      = varint.ErrOverflow
	ErrMalformedCID  = cid.ErrMalformed
	ErrDuplicateKey  = dagcbor.ErrDuplicateKey
	ErrDepthExceeded = dagcbor.ErrDepthExceeded
)

var (
	// ErrIncompleteFrame reports a message that ends inside its header
	// or body, or that carries bytes after the body.
	ErrIncompleteFrame = errors.New("incomplete frame")

	// ErrMalformedBody reports a header or body that decoded but lacks
	// a required field or has one of the wrong kind.
	ErrMalformedBody = errors.New("malformed frame body")

	// ErrMissingRecordBlock reports a create or update whose record CID
	// has no block in the commit. It appears in OpWarning, never as a
	// frame error.
	ErrMissingRecordBlock = errors.New("record block missing from commit")

	// ErrTransport is matched by every *TransportError.
	ErrTransport = errors.New("transport error")

	// ErrProtocolViolation reports a sequence number lower than the
	// cursor. The event is still delivered with OutOfOrder set.
	ErrProtocolViolation = errors.New("protocol violation")
)

// TransportError wraps a failure to dial or read the stream.
type TransportError struct {
	// Op is "dial" or "receive".
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("firehose %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Is makes every TransportError match ErrTransport.
func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// IsTransportError reports whether err is or wraps a *TransportError.
func IsTransportError(err error) bool {
	var transportError *TransportError
	return errors.As(err, &transportError)
}
