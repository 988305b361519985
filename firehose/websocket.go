// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package firehose

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/bureau-foundation/skystream/lib/netutil"
	"github.com/bureau-foundation/skystream/lib/version"
)

// SubscribePath is the XRPC method path of the repository stream.
const SubscribePath = "/xrpc/com.atproto.sync.subscribeRepos"

// DefaultMaxMessageSize bounds a single stream message. Commits above
// the service's own limit arrive with tooBig set and no blocks, so
// real messages stay far below this.
const DefaultMaxMessageSize = 8 << 20

// WebSocketTransport dials the stream over WebSocket.
type WebSocketTransport struct {
	// Endpoint is the service base URL: "wss://bsky.network". An
	// http or https scheme is mapped to ws or wss.
	Endpoint string

	// Dialer overrides websocket.DefaultDialer.
	Dialer *websocket.Dialer

	// Header is sent with the handshake. A User-Agent naming this
	// client is added when absent.
	Header http.Header

	// MaxMessageSize bounds one message. Zero means
	// DefaultMaxMessageSize.
	MaxMessageSize int64

	Logger *slog.Logger
}

// URL returns the subscribe URL for cursor.
func (t *WebSocketTransport) URL(cursor *int64) (string, error) {
	if t.Endpoint == "" {
		return "", errors.New("websocket transport has no endpoint")
	}
	endpoint, err := url.Parse(t.Endpoint)
	if err != nil {
		return "", fmt.Errorf("parsing endpoint %q: %w", t.Endpoint, err)
	}
	switch endpoint.Scheme {
	case "ws", "wss":
	case "http":
		endpoint.Scheme = "ws"
	case "https":
		endpoint.Scheme = "wss"
	default:
		return "", fmt.Errorf("endpoint %q: unsupported scheme %q", t.Endpoint, endpoint.Scheme)
	}
	endpoint.Path = strings.TrimSuffix(endpoint.Path, "/") + SubscribePath
	query := endpoint.Query()
	if cursor != nil {
		query.Set("cursor", strconv.FormatInt(*cursor, 10))
	} else {
		query.Del("cursor")
	}
	endpoint.RawQuery = query.Encode()
	return endpoint.String(), nil
}

// Dial implements Transport.
func (t *WebSocketTransport) Dial(ctx context.Context, cursor *int64) (Conn, error) {
	target, err := t.URL(cursor)
	if err != nil {
		return nil, &TransportError{Op: "dial", Err: err}
	}
	dialer := t.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	header := t.Header.Clone()
	if header == nil {
		header = http.Header{}
	}
	if header.Get("User-Agent") == "" {
		header.Set("User-Agent", "skystream/"+version.Short())
	}

	conn, response, err := dialer.DialContext(ctx, target, header)
	if err != nil {
		if response != nil {
			body := netutil.ErrorBody(response.Body)
			response.Body.Close()
			return nil, &TransportError{Op: "dial", Err: fmt.Errorf("%s: HTTP %d: %w: %s", target, response.StatusCode, err, body)}
		}
		return nil, &TransportError{Op: "dial", Err: fmt.Errorf("%s: %w", target, err)}
	}

	limit := t.MaxMessageSize
	if limit <= 0 {
		limit = DefaultMaxMessageSize
	}
	conn.SetReadLimit(limit)

	logger := t.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger.Debug("websocket connected", "url", target)
	return &webSocketConn{conn: conn, logger: logger}, nil
}

type webSocketConn struct {
	conn   *websocket.Conn
	logger *slog.Logger
}

// Receive implements Conn. Text messages are skipped; ping and close
// control frames are handled by the websocket library during the read.
func (c *webSocketConn) Receive(ctx context.Context) ([]byte, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, &TransportError{Op: "receive", Err: err}
		}
		deadline, _ := ctx.Deadline()
		if err := c.conn.SetReadDeadline(deadline); err != nil {
			return nil, &TransportError{Op: "receive", Err: err}
		}
		// Expire the read as soon as ctx is cancelled.
		stop := context.AfterFunc(ctx, func() {
			c.conn.SetReadDeadline(time.Unix(1, 0))
		})
		messageType, data, err := c.conn.ReadMessage()
		stop()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, &TransportError{Op: "receive", Err: fmt.Errorf("%w (%w)", ctxErr, err)}
			}
			return nil, &TransportError{Op: "receive", Err: err}
		}
		if messageType != websocket.BinaryMessage {
			c.logger.Debug("skipping non-binary websocket message", "type", messageType, "length", len(data))
			continue
		}
		return data, nil
	}
}

func (c *webSocketConn) Close() error {
	deadline := time.Now().Add(time.Second)
	message := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	// Best effort: the peer may already be gone.
	_ = c.conn.WriteControl(websocket.CloseMessage, message, deadline)
	return c.conn.Close()
}
