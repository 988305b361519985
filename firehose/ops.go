// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package firehose

import (
	"fmt"

	"github.com/bureau-foundation/skystream/lib/car"
	"github.com/bureau-foundation/skystream/lib/cid"
	"github.com/bureau-foundation/skystream/lib/dagcbor"
)

// blockIndex maps each CID in a commit's block buffer to its decoded
// value. Blocks whose payload fails to decode are kept as errors so
// only the operations that reference them degrade.
type blockIndex struct {
	values map[cid.CID]dagcbor.Value
	failed map[cid.CID]error
}

func indexBlocks(decoder dagcbor.Decoder, buffer []byte) (blockIndex, error) {
	index := blockIndex{values: make(map[cid.CID]dagcbor.Value)}
	for block, err := range car.Blocks(buffer) {
		if err != nil {
			return blockIndex{}, err
		}
		if block.CID.Codec() == cid.Raw {
			index.values[block.CID] = dagcbor.Bytes(block.Data)
			continue
		}
		value, err := decoder.Decode(block.Data)
		if err != nil {
			if index.failed == nil {
				index.failed = make(map[cid.CID]error)
			}
			index.failed[block.CID] = err
			continue
		}
		index.values[block.CID] = value
	}
	return index, nil
}

func (index blockIndex) lookup(c cid.CID) (dagcbor.Value, error) {
	if value, ok := index.values[c]; ok {
		return value, nil
	}
	if err, ok := index.failed[c]; ok {
		return nil, fmt.Errorf("record block %s: %w", c, err)
	}
	return nil, fmt.Errorf("%w: %s", ErrMissingRecordBlock, c)
}

// parseOp reads one entry of a commit's ops array.
func parseOp(value dagcbor.Value) (RepoOp, error) {
	fields, ok := value.(dagcbor.Map)
	if !ok {
		return RepoOp{}, fmt.Errorf("%w: op is a %s, want map", ErrMalformedBody, value.Kind())
	}
	action, ok := fields.Text("action")
	if !ok {
		return RepoOp{}, fmt.Errorf("%w: op has no action", ErrMalformedBody)
	}
	path, ok := fields.Text("path")
	if !ok {
		return RepoOp{}, fmt.Errorf("%w: op has no path", ErrMalformedBody)
	}
	op := RepoOp{Action: Action(action), Path: path}
	if link, ok := fields.Link("cid"); ok {
		op.CID = link
	}
	if !op.Action.valid() {
		return op, fmt.Errorf("%w: unknown action %q", ErrMalformedBody, action)
	}
	return op, nil
}

// ResolveCommit builds a CommitEvent from a #commit body. The block
// buffer is scanned once. Operations are resolved in declared order:
// deletes carry only their path, creates and updates carry their
// decoded record. An operation that cannot be resolved is left out of
// Ops and explained in Warnings. A structurally broken block buffer or
// a missing required field fails the whole commit.
func ResolveCommit(decoder dagcbor.Decoder, body dagcbor.Map) (*CommitEvent, error) {
	envelope, err := parseEnvelope(body)
	if err != nil {
		return nil, err
	}
	event := &CommitEvent{Envelope: envelope}
	if event.Repo, err = requireText(body, "repo"); err != nil {
		return nil, err
	}
	if event.Rev, err = requireText(body, "rev"); err != nil {
		return nil, err
	}
	event.Since, _ = body.Text("since")
	event.Commit, _ = body.Link("commit")
	event.TooBig, _ = body.Bool("tooBig")
	event.Rebase, _ = body.Bool("rebase")
	if blobs, ok := body.Array("blobs"); ok {
		for _, blob := range blobs {
			if link, ok := blob.(dagcbor.Link); ok {
				event.Blobs = append(event.Blobs, link.CID)
			}
		}
	}

	declared, ok := body.Array("ops")
	if !ok {
		return nil, fmt.Errorf("%w: commit has no ops array", ErrMalformedBody)
	}
	blocks, ok := body.Bytes("blocks")
	if !ok {
		return nil, fmt.Errorf("%w: commit has no blocks", ErrMalformedBody)
	}
	index, err := indexBlocks(decoder, blocks)
	if err != nil {
		return nil, fmt.Errorf("commit blocks: %w", err)
	}

	event.Ops = make([]ResolvedOp, 0, len(declared))
	for i, value := range declared {
		op, err := parseOp(value)
		if err != nil {
			event.Warnings = append(event.Warnings, OpWarning{Index: i, Op: op, Err: err})
			continue
		}
		resolved := ResolvedOp{RepoOp: op}
		if op.Action != ActionDelete {
			if !op.CID.Defined() {
				event.Warnings = append(event.Warnings, OpWarning{Index: i, Op: op,
					Err: fmt.Errorf("%w: %s has no record CID", ErrMissingRecordBlock, op.Action)})
				continue
			}
			record, err := index.lookup(op.CID)
			if err != nil {
				event.Warnings = append(event.Warnings, OpWarning{Index: i, Op: op, Err: err})
				continue
			}
			resolved.Record = record
		}
		event.Ops = append(event.Ops, resolved)
	}
	return event, nil
}
