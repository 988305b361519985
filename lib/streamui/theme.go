// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package streamui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/bureau-foundation/skystream/firehose"
)

// Theme is the viewer's color palette, in ANSI 256-color codes.
type Theme struct {
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	HeaderForeground lipgloss.Color
	HeaderBackground lipgloss.Color
	HelpText         lipgloss.Color

	// Event kind labels.
	KindCommit    lipgloss.Color
	KindIdentity  lipgloss.Color
	KindAccount   lipgloss.Color
	KindHandle    lipgloss.Color
	KindTombstone lipgloss.Color
	KindInfo      lipgloss.Color
	KindError     lipgloss.Color

	// Connection states.
	StateStreaming lipgloss.Color
	StateWaiting   lipgloss.Color
	StateDown      lipgloss.Color

	// Status bar log records.
	LogWarn  lipgloss.Color
	LogError lipgloss.Color
}

// DefaultTheme is the built-in palette for dark terminals.
var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("243"),

	HeaderForeground: lipgloss.Color("255"),
	HeaderBackground: lipgloss.Color("236"),
	HelpText:         lipgloss.Color("241"),

	KindCommit:    lipgloss.Color("75"),
	KindIdentity:  lipgloss.Color("141"),
	KindAccount:   lipgloss.Color("214"),
	KindHandle:    lipgloss.Color("141"),
	KindTombstone: lipgloss.Color("203"),
	KindInfo:      lipgloss.Color("114"),
	KindError:     lipgloss.Color("196"),

	StateStreaming: lipgloss.Color("114"),
	StateWaiting:   lipgloss.Color("220"),
	StateDown:      lipgloss.Color("203"),

	LogWarn:  lipgloss.Color("220"),
	LogError: lipgloss.Color("196"),
}

// KindColor returns the label color for an event kind, or FaintText
// for a kind it does not know.
func (theme Theme) KindColor(kind string) lipgloss.Color {
	switch kind {
	case "commit":
		return theme.KindCommit
	case "identity":
		return theme.KindIdentity
	case "account":
		return theme.KindAccount
	case "handle":
		return theme.KindHandle
	case "tombstone":
		return theme.KindTombstone
	case "info":
		return theme.KindInfo
	case "error":
		return theme.KindError
	default:
		return theme.FaintText
	}
}

// StateColor returns the color used to show a session state.
func (theme Theme) StateColor(state firehose.State) lipgloss.Color {
	switch state {
	case firehose.StateStreaming:
		return theme.StateStreaming
	case firehose.StateConnecting, firehose.StateBackoff:
		return theme.StateWaiting
	default:
		return theme.StateDown
	}
}
