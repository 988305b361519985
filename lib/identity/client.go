// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bureau-foundation/skystream/lib/netutil"
	"github.com/bureau-foundation/skystream/lib/version"
)

// ResolveHandlePath is the XRPC method path for handle resolution.
const ResolveHandlePath = "/xrpc/com.atproto.identity.resolveHandle"

// DefaultTimeout bounds a request when ClientConfig.Timeout is zero.
const DefaultTimeout = 10 * time.Second

// XRPCError is an error response from an XRPC service.
type XRPCError struct {
	// Code is the XRPC error name (e.g., "InvalidRequest").
	Code string `json:"error"`
	// Message is the human-readable description from the server.
	Message string `json:"message"`
	// StatusCode is the HTTP status of the response.
	StatusCode int `json:"-"`
}

func (e *XRPCError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("xrpc: %s (%d)", e.Code, e.StatusCode)
	}
	return fmt.Sprintf("xrpc: %s (%d): %s", e.Code, e.StatusCode, e.Message)
}

// IsXRPCError reports whether err is an *XRPCError with the given code.
func IsXRPCError(err error, code string) bool {
	var xrpcErr *XRPCError
	return errors.As(err, &xrpcErr) && xrpcErr.Code == code
}

// ClientConfig configures NewClient.
type ClientConfig struct {
	// ServiceURL is the XRPC host, e.g. https://public.api.bsky.app.
	ServiceURL string

	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client

	// Timeout bounds each request. Default: DefaultTimeout.
	Timeout time.Duration

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Client performs identity lookups.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	logger     *slog.Logger
}

// NewClient validates config and returns a Client.
func NewClient(config ClientConfig) (*Client, error) {
	if config.ServiceURL == "" {
		return nil, errors.New("identity: ServiceURL is required")
	}
	parsed, err := url.Parse(config.ServiceURL)
	if err != nil {
		return nil, fmt.Errorf("identity: invalid ServiceURL %q: %w", config.ServiceURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("identity: ServiceURL %q must be http or https", config.ServiceURL)
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(config.ServiceURL, "/"),
		httpClient: httpClient,
		timeout:    timeout,
		logger:     logger,
	}, nil
}

// NormalizeHandle lowercases a handle and strips a leading "@".
func NormalizeHandle(handle string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(handle), "@"))
}

// ResolveHandle returns the DID currently bound to handle.
func (c *Client) ResolveHandle(ctx context.Context, handle string) (string, error) {
	handle = NormalizeHandle(handle)
	if handle == "" {
		return "", errors.New("identity: empty handle")
	}

	var response struct {
		DID string `json:"did"`
	}
	if err := c.get(ctx, ResolveHandlePath, url.Values{"handle": {handle}}, &response); err != nil {
		return "", err
	}
	if !strings.HasPrefix(response.DID, "did:") {
		return "", fmt.Errorf("identity: %s resolved to %q, which is not a DID", handle, response.DID)
	}
	c.logger.Debug("resolved handle", "handle", handle, "did", response.DID)
	return response.DID, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("identity: creating request: %w", err)
	}
	request.Header.Set("Accept", "application/json")
	request.Header.Set("User-Agent", "skystream/"+version.Short())

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("identity: GET %s failed: %w", path, err)
	}
	defer response.Body.Close()

	if response.StatusCode >= 200 && response.StatusCode < 300 {
		if err := netutil.DecodeResponse(response.Body, out); err != nil {
			return fmt.Errorf("identity: GET %s: %w", path, err)
		}
		return nil
	}

	body, err := netutil.ReadResponse(response.Body)
	if err != nil {
		return fmt.Errorf("identity: reading %d response from %s: %w", response.StatusCode, path, err)
	}
	var xrpcErr XRPCError
	if jsonErr := json.Unmarshal(body, &xrpcErr); jsonErr != nil || xrpcErr.Code == "" {
		return fmt.Errorf("identity: unexpected %d response from %s: %s",
			response.StatusCode, path, netutil.ErrorBody(bytes.NewReader(body)))
	}
	xrpcErr.StatusCode = response.StatusCode
	return &xrpcErr
}
