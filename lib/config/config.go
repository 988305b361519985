// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvVar names the environment variable [Load] reads.
const EnvVar = "SKYSTREAM_CONFIG"

// Config is the skystream configuration file.
type Config struct {
	// Stream configures the relay connection.
	Stream StreamConfig `yaml:"stream"`

	// Cursor configures where the resume cursor is kept between runs.
	Cursor CursorConfig `yaml:"cursor"`

	// Identity configures handle resolution.
	Identity IdentityConfig `yaml:"identity"`

	// Filters points at the filter definitions.
	Filters FiltersConfig `yaml:"filters"`

	// Capture configures recorded frame files.
	Capture CaptureConfig `yaml:"capture"`
}

// StreamConfig configures the relay connection.
type StreamConfig struct {
	// Endpoint is the relay base URL. Default: wss://bsky.network
	Endpoint string `yaml:"endpoint"`

	// HandshakeTimeout bounds the WebSocket dial. Default: 30s
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`

	// ReceiveTimeout bounds each wait for a frame. A quiet relay
	// longer than this is treated as a dead connection. Default: 60s
	ReceiveTimeout time.Duration `yaml:"receive_timeout"`

	// InitialBackoff and MaxBackoff bound the reconnect delay, which
	// doubles from the first up to the second. Defaults: 1s, 30s
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff"`

	// MaxDepth is the nesting limit for decoded values. Default: 64
	MaxDepth int `yaml:"max_depth"`

	// MaxMessageSize is the largest accepted frame in bytes.
	// Default: 8 MiB
	MaxMessageSize int64 `yaml:"max_message_size"`
}

// Cursor backends.
const (
	CursorNone   = "none"
	CursorFile   = "file"
	CursorSQLite = "sqlite"
)

// CursorConfig configures cursor persistence.
type CursorConfig struct {
	// Backend is one of none, file, sqlite. Default: file
	Backend string `yaml:"backend"`

	// Path is the cursor file or SQLite database.
	// Default: ${XDG_STATE_HOME:-$HOME/.local/state}/skystream/cursor
	Path string `yaml:"path"`

	// SaveInterval throttles cursor writes while streaming. Zero
	// writes after every event. Default: 5s
	SaveInterval time.Duration `yaml:"save_interval"`
}

// IdentityConfig configures handle resolution.
type IdentityConfig struct {
	// ServiceURL is the XRPC host for resolveHandle.
	// Default: https://public.api.bsky.app
	ServiceURL string `yaml:"service_url"`

	// Timeout bounds each resolution request. Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}

// FiltersConfig points at the filter definitions.
type FiltersConfig struct {
	// Path is the filters YAML file. Empty disables filtering.
	Path string `yaml:"path"`
}

// CaptureConfig configures recorded frame files.
type CaptureConfig struct {
	// Compression for new captures: none, lz4, zstd. Default: zstd
	Compression string `yaml:"compression"`
}

// Default returns the configuration used when no file is given, and
// the base that a loaded file is merged over.
func Default() *Config {
	return &Config{
		Stream: StreamConfig{
			Endpoint:         "wss://bsky.network",
			HandshakeTimeout: 30 * time.Second,
			ReceiveTimeout:   60 * time.Second,
			InitialBackoff:   time.Second,
			MaxBackoff:       30 * time.Second,
			MaxDepth:         64,
			MaxMessageSize:   8 << 20,
		},
		Cursor: CursorConfig{
			Backend:      CursorFile,
			Path:         "${XDG_STATE_HOME:-${HOME}/.local/state}/skystream/cursor",
			SaveInterval: 5 * time.Second,
		},
		Identity: IdentityConfig{
			ServiceURL: "https://public.api.bsky.app",
			Timeout:    10 * time.Second,
		},
		Capture: CaptureConfig{
			Compression: "zstd",
		},
	}
}

// Load loads the file named by SKYSTREAM_CONFIG. It fails when the
// variable is unset; callers with no config use [Default] instead.
func Load() (*Config, error) {
	path := os.Getenv(EnvVar)
	if path == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your skystream.yaml, or use --config", EnvVar)
	}
	return LoadFile(path)
}

// LoadFile reads path over the defaults and expands variables in the
// path fields.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults. Unknown keys are errors, so
// a misspelled option does not silently fall back to its default.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if len(data) > 0 {
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		// A file holding only comments decodes as io.EOF.
		if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
	}
	cfg.ExpandVariables()
	return cfg, nil
}

// ExpandVariables expands ${VAR} and ${VAR:-default} in path fields.
// Default calls this implicitly through Parse; a config built by hand
// calls it before use.
func (c *Config) ExpandVariables() {
	c.Cursor.Path = expandPath(c.Cursor.Path)
	c.Filters.Path = expandPath(c.Filters.Path)
}

func expandPath(path string) string {
	path = expandVars(path)
	if path == "" {
		return ""
	}
	return filepath.Clean(path)
}

var varPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-((?:[^{}]|\$\{[^}]*\})*))?\}`)

// expandVars expands one level of ${VAR:-default}, with the default
// itself allowed to reference a variable.
func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		return expandVars(parts[2])
	})
}

// Validate reports every problem in the configuration at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Stream.Endpoint == "" {
		errs = append(errs, errors.New("stream.endpoint is required"))
	} else if endpoint, err := url.Parse(c.Stream.Endpoint); err != nil {
		errs = append(errs, fmt.Errorf("stream.endpoint: %w", err))
	} else if !slices.Contains([]string{"ws", "wss", "http", "https"}, endpoint.Scheme) {
		errs = append(errs, fmt.Errorf("stream.endpoint scheme must be ws, wss, http or https, got %q", endpoint.Scheme))
	}
	if c.Stream.HandshakeTimeout < 0 {
		errs = append(errs, errors.New("stream.handshake_timeout must not be negative"))
	}
	if c.Stream.InitialBackoff <= 0 {
		errs = append(errs, errors.New("stream.initial_backoff must be positive"))
	}
	if c.Stream.MaxBackoff < c.Stream.InitialBackoff {
		errs = append(errs, errors.New("stream.max_backoff must be at least stream.initial_backoff"))
	}
	if c.Stream.MaxDepth <= 0 {
		errs = append(errs, errors.New("stream.max_depth must be positive"))
	}
	if c.Stream.MaxMessageSize <= 0 {
		errs = append(errs, errors.New("stream.max_message_size must be positive"))
	}

	backends := []string{CursorNone, CursorFile, CursorSQLite}
	if !slices.Contains(backends, c.Cursor.Backend) {
		errs = append(errs, fmt.Errorf("cursor.backend must be one of: %v", backends))
	} else if c.Cursor.Backend != CursorNone && c.Cursor.Path == "" {
		errs = append(errs, fmt.Errorf("cursor.path is required for the %s backend", c.Cursor.Backend))
	}
	if c.Cursor.SaveInterval < 0 {
		errs = append(errs, errors.New("cursor.save_interval must not be negative"))
	}

	if c.Identity.ServiceURL == "" {
		errs = append(errs, errors.New("identity.service_url is required"))
	}
	if c.Identity.Timeout <= 0 {
		errs = append(errs, errors.New("identity.timeout must be positive"))
	}

	compressions := []string{"none", "lz4", "zstd"}
	if !slices.Contains(compressions, c.Capture.Compression) {
		errs = append(errs, fmt.Errorf("capture.compression must be one of: %v", compressions))
	}

	return errors.Join(errs...)
}
