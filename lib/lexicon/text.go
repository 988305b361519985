// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package lexicon

import (
	"github.com/bureau-foundation/skystream/firehose"
)

// PostTexts returns the text of every post created or updated in
// commit, in operation order.
func PostTexts(commit *firehose.CommitEvent) []string {
	var texts []string
	for _, op := range commit.Ops {
		if op.Action == firehose.ActionDelete || op.Collection() != TypePost {
			continue
		}
		if post, ok := Project(op.Record).(*Post); ok {
			texts = append(texts, post.Text)
		}
	}
	return texts
}
