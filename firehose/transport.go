// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package firehose

import "context"

// Transport opens stream connections.
type Transport interface {
	// Dial connects to the stream. A non-nil cursor asks the service
	// to replay events after that sequence number. The context bounds
	// the handshake only.
	Dial(ctx context.Context, cursor *int64) (Conn, error)
}

// Conn is one open stream connection. Receive and Close may be called
// from different goroutines; Receive is never called concurrently with
// itself.
type Conn interface {
	// Receive blocks for the next binary message. It returns when ctx
	// is done; the connection is not expected to survive that.
	Receive(ctx context.Context) ([]byte, error)
	Close() error
}
