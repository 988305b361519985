// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the skystream YAML configuration.
//
// A file is named either by the SKYSTREAM_CONFIG environment variable
// ([Load]) or by --config ([LoadFile]). There is no search path.
// Without either, the CLI runs on [Default]. Command-line flags
// override individual values after loading.
//
// Values in the file are merged over the defaults, so a file only
// names what it changes:
//
//	stream:
//	  endpoint: wss://relay.example.com
//	cursor:
//	  backend: sqlite
//	  path: ${HOME}/.local/state/skystream/cursor.db
//
// Durations use Go syntax ("30s", "5m"). ${VAR} and ${VAR:-default}
// are expanded in path fields. [Config.Validate] reports every
// problem at once.
//
// This package depends on no other skystream packages.
package config
