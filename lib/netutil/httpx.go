// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package netutil

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// MaxResponseSize bounds JSON response body reads: 4 MB. XRPC replies
// handled here are a few hundred bytes.
const MaxResponseSize int64 = 4 << 20

// maxErrorBody bounds how much of an error body ends up in a message.
const maxErrorBody = 512

// ReadResponse reads a response body up to MaxResponseSize bytes.
func ReadResponse(body io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(body, MaxResponseSize))
}

// DecodeResponse reads a body (up to MaxResponseSize bytes) and
// JSON-decodes it into v.
func DecodeResponse(body io.Reader, v any) error {
	data, err := ReadResponse(body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding response body: %w", err)
	}
	return nil
}

// ErrorBody returns the start of an error response body, trimmed, for
// use in an error message. Read errors are ignored: a partial body
// still helps.
func ErrorBody(body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, maxErrorBody+1))
	text := strings.TrimSpace(string(data))
	if len(text) > maxErrorBody {
		text = text[:maxErrorBody] + "..."
	}
	return text
}
