// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the command-line framework for skystream.
//
// The central type is [Command]: a named command with optional nested
// [Command.Subcommands], a [pflag.FlagSet] factory, and a Run function.
// The skystream binary assembles a tree of commands and dispatches with
// [Command.Execute], which parses flags, routes subcommands, and prints
// structured help with examples. [FlagsFromParams] builds a flag set
// from struct tags so commands declare their options as a params
// struct.
//
// Unknown commands and flags get a "did you mean" suggestion when an
// existing name is within a Levenshtein distance of 3.
//
// [NewCommandLogger] picks a text or JSON slog handler depending on
// whether stderr is a terminal.
package cli
