// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package streamui

import (
	"fmt"
	"strings"

	"github.com/bureau-foundation/skystream/firehose"
	"github.com/bureau-foundation/skystream/lib/lexicon"
)

// maxQuoteLength bounds quoted post text inside a summary, in runes.
const maxQuoteLength = 120

// Summary returns a single-line description of event without its
// kind. Sequenced events start with "#seq". Commits describe their
// first effective operation; post text is quoted with whitespace
// collapsed.
func Summary(event firehose.Event) string {
	var builder strings.Builder
	envelope, sequenced := firehose.EnvelopeOf(event)
	if sequenced {
		fmt.Fprintf(&builder, "#%d ", envelope.Seq)
	}

	switch typed := event.(type) {
	case *firehose.CommitEvent:
		builder.WriteString(typed.Repo)
		if typed.TooBig {
			builder.WriteString(" (too big)")
		}
		ops := typed.Effective()
		if len(ops) == 0 {
			builder.WriteString(" no ops")
			break
		}
		builder.WriteString(" ")
		builder.WriteString(describeOp(ops[0]))
		if len(ops) > 1 {
			fmt.Fprintf(&builder, " (+%d more)", len(ops)-1)
		}
		if len(typed.Warnings) > 0 {
			fmt.Fprintf(&builder, " [%d unresolved]", len(typed.Warnings))
		}

	case *firehose.IdentityEvent:
		builder.WriteString(typed.DID)
		if typed.Handle != "" {
			builder.WriteString(" ")
			builder.WriteString(typed.Handle)
		}

	case *firehose.AccountEvent:
		builder.WriteString(typed.DID)
		if typed.Active {
			builder.WriteString(" active")
		} else {
			builder.WriteString(" inactive")
			if typed.Status != "" {
				fmt.Fprintf(&builder, " (%s)", typed.Status)
			}
		}

	case *firehose.HandleEvent:
		fmt.Fprintf(&builder, "%s -> %s", typed.DID, typed.Handle)

	case *firehose.TombstoneEvent:
		builder.WriteString(typed.DID)

	case *firehose.InfoEvent:
		if typed.Type != "#info" {
			fmt.Fprintf(&builder, "unknown message type %q", typed.Type)
			break
		}
		builder.WriteString(typed.Name)
		if typed.Message != "" {
			builder.WriteString(": ")
			builder.WriteString(singleLine(typed.Message))
		}

	case *firehose.ErrorEvent:
		builder.WriteString(typed.Code)
		if typed.Message != "" {
			builder.WriteString(": ")
			builder.WriteString(singleLine(typed.Message))
		}

	default:
		fmt.Fprintf(&builder, "%T", event)
	}

	if envelope.OutOfOrder {
		builder.WriteString(" (out of order)")
	}
	return builder.String()
}

// describeOp renders "action collection/rkey" plus a short record
// description when the record projects to a known type.
func describeOp(op firehose.ResolvedOp) string {
	description := string(op.Action) + " " + op.Path
	if op.Action == firehose.ActionDelete {
		return description
	}
	switch record := lexicon.Project(op.Record).(type) {
	case *lexicon.Post:
		return description + " " + quote(record.Text)
	case *lexicon.Like:
		return description + " of " + record.Subject.URI
	case *lexicon.Repost:
		return description + " of " + record.Subject.URI
	case *lexicon.Follow:
		return description + " of " + record.Subject
	case *lexicon.Block:
		return description + " of " + record.Subject
	case *lexicon.Profile:
		if record.DisplayName != "" {
			return description + " " + quote(record.DisplayName)
		}
	}
	return description
}

func quote(text string) string {
	text = singleLine(text)
	if runes := []rune(text); len(runes) > maxQuoteLength {
		text = string(runes[:maxQuoteLength]) + "..."
	}
	return fmt.Sprintf("%q", text)
}

func singleLine(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
