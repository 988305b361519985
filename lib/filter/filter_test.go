// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package filter

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"slices"
	"testing"

	"github.com/bureau-foundation/skystream/firehose"
	"github.com/bureau-foundation/skystream/lib/dagcbor"
	"github.com/bureau-foundation/skystream/lib/lexicon"
)

const sampleYAML = `
filters:
  - name: bluesky team
    subscribes:
      dids:
        - did:plc:team
      handles:
        - jay.bsky.team
        - missing.invalid
    keywords:
      includes:
        - bluesky
      excludes:
        - twitter
  - name: empty
`

func commitWithPost(repo, text string) *firehose.CommitEvent {
	return &firehose.CommitEvent{
		Repo: repo,
		Ops: []firehose.ResolvedOp{{
			RepoOp: firehose.RepoOp{Action: firehose.ActionCreate, Path: "app.bsky.feed.post/3k"},
			Record: dagcbor.Map{
				{Key: "$type", Value: dagcbor.Text(lexicon.TypePost)},
				{Key: "text", Value: dagcbor.Text(text)},
				{Key: "createdAt", Value: dagcbor.Text("2026-01-01T00:00:00Z")},
			},
		}},
	}
}

type resolverFunc func(ctx context.Context, handle string) (string, error)

func (f resolverFunc) ResolveHandle(ctx context.Context, handle string) (string, error) {
	return f(ctx, handle)
}

var errUnknownHandle = errors.New("unknown handle")

func fakeResolver(known map[string]string) Resolver {
	return resolverFunc(func(_ context.Context, handle string) (string, error) {
		if did, ok := known[handle]; ok {
			return did, nil
		}
		return "", errUnknownHandle
	})
}

func mustParse(t *testing.T, data string) *Filters {
	t.Helper()
	filters, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return filters
}

func TestFilterIsMatch(t *testing.T) {
	filter := mustParse(t, sampleYAML).Filters[0]

	tests := []struct {
		name  string
		event firehose.Event
		want  bool
	}{
		{"subscribed commit", commitWithPost("did:plc:team", "shipping today"), true},
		{"subscribed commit with excluded keyword", commitWithPost("did:plc:team", "cross-posted from twitter"), false},
		{"other commit with included keyword", commitWithPost("did:plc:stranger", "I love bluesky"), true},
		{"other commit without keyword", commitWithPost("did:plc:stranger", "hello"), false},
		{"other commit with no posts", &firehose.CommitEvent{Repo: "did:plc:stranger"}, false},
		{"subscribed handle event", &firehose.HandleEvent{DID: "did:plc:team", Handle: "new.handle"}, true},
		{"other handle event", &firehose.HandleEvent{DID: "did:plc:stranger"}, false},
		{"subscribed identity event", &firehose.IdentityEvent{DID: "did:plc:team"}, true},
		{"other identity event", &firehose.IdentityEvent{DID: "did:plc:stranger"}, false},
		{"account event", &firehose.AccountEvent{DID: "did:plc:stranger"}, true},
		{"info event", &firehose.InfoEvent{Name: firehose.InfoOutdatedCursor}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := filter.IsMatch(tt.event); got != tt.want {
				t.Errorf("IsMatch = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilterWithoutRulesMatchesOnlyNonCommits(t *testing.T) {
	filter := Filter{Name: "bare"}
	if filter.IsMatch(commitWithPost("did:plc:any", "bluesky")) {
		t.Error("bare filter matched a commit")
	}
	if filter.IsMatch(&firehose.HandleEvent{DID: "did:plc:any"}) {
		t.Error("bare filter matched a handle event")
	}
	if !filter.IsMatch(&firehose.TombstoneEvent{DID: "did:plc:any"}) {
		t.Error("bare filter rejected a tombstone")
	}
}

func TestInitResolvesHandles(t *testing.T) {
	filters := mustParse(t, sampleYAML)
	filters.Init(context.Background(), fakeResolver(map[string]string{
		"jay.bsky.team": "did:plc:jay",
	}), slog.New(slog.DiscardHandler))

	got := filters.Filters[0].Subscribes.DIDs
	if want := []string{"did:plc:jay", "did:plc:team"}; !slices.Equal(got, want) {
		t.Errorf("DIDs = %v, want %v", got, want)
	}
	if !filters.Filters[0].IsMatch(commitWithPost("did:plc:jay", "hi")) {
		t.Error("resolved handle does not match")
	}
}

func TestInitDeduplicates(t *testing.T) {
	filter := Filter{Name: "dup", Subscribes: &Subscribes{
		DIDs:    []string{"did:plc:a"},
		Handles: []string{"a.example", "also-a.example"},
	}}
	filter.Init(context.Background(), fakeResolver(map[string]string{
		"a.example":      "did:plc:a",
		"also-a.example": "did:plc:a",
	}), slog.New(slog.DiscardHandler))
	if !slices.Equal(filter.Subscribes.DIDs, []string{"did:plc:a"}) {
		t.Errorf("DIDs = %v", filter.Subscribes.DIDs)
	}
}

func TestSinkForwardsMatches(t *testing.T) {
	filters := mustParse(t, sampleYAML)
	var forwarded []firehose.Event
	sink := filters.Sink(firehose.SinkFunc(func(_ context.Context, event firehose.Event) error {
		forwarded = append(forwarded, event)
		return nil
	}))

	events := []firehose.Event{
		commitWithPost("did:plc:stranger", "hello"),
		commitWithPost("did:plc:stranger", "bluesky rocks"),
		&firehose.AccountEvent{DID: "did:plc:x"},
	}
	for _, event := range events {
		if err := sink.HandleEvent(context.Background(), event); err != nil {
			t.Fatalf("HandleEvent: %v", err)
		}
	}
	if len(forwarded) != 2 || forwarded[0] != events[1] || forwarded[1] != events[2] {
		t.Errorf("forwarded %d events: %v", len(forwarded), forwarded)
	}
}

func TestEmptyFiltersPassEverything(t *testing.T) {
	filters := mustParse(t, "")
	if !filters.IsMatch(commitWithPost("did:plc:any", "anything")) {
		t.Error("empty filter set dropped a commit")
	}
}

func TestSubscribeUnsubscribe(t *testing.T) {
	filters := mustParse(t, sampleYAML)

	if err := filters.SubscribeRepo("empty", "did:plc:new"); err != nil {
		t.Fatalf("SubscribeRepo: %v", err)
	}
	if err := filters.SubscribeRepo("empty", "did:plc:new"); err != nil {
		t.Fatalf("repeat SubscribeRepo: %v", err)
	}
	empty, _ := filters.Lookup("empty")
	if !slices.Equal(empty.Subscribes.DIDs, []string{"did:plc:new"}) {
		t.Errorf("DIDs = %v", empty.Subscribes.DIDs)
	}
	if err := filters.UnsubscribeRepo("empty", "did:plc:new"); err != nil {
		t.Fatalf("UnsubscribeRepo: %v", err)
	}
	if err := filters.UnsubscribeRepo("empty", "did:plc:new"); !errors.Is(err, ErrNoSuchDID) {
		t.Errorf("second UnsubscribeRepo = %v, want ErrNoSuchDID", err)
	}

	if err := filters.SubscribeHandle("bluesky team", "pfrazee.com"); err != nil {
		t.Fatalf("SubscribeHandle: %v", err)
	}
	if err := filters.UnsubscribeHandle("bluesky team", "jay.bsky.team"); err != nil {
		t.Fatalf("UnsubscribeHandle: %v", err)
	}
	team, _ := filters.Lookup("bluesky team")
	if !slices.Equal(team.Subscribes.Handles, []string{"missing.invalid", "pfrazee.com"}) {
		t.Errorf("Handles = %v", team.Subscribes.Handles)
	}
	if err := filters.UnsubscribeHandle("empty", "x"); !errors.Is(err, ErrNoSuchHandle) {
		t.Errorf("UnsubscribeHandle on bare filter = %v, want ErrNoSuchHandle", err)
	}

	if err := filters.SubscribeRepo("nope", "did:plc:x"); !errors.Is(err, ErrNoSuchFilter) {
		t.Errorf("SubscribeRepo(nope) = %v, want ErrNoSuchFilter", err)
	}
}

func TestParseErrors(t *testing.T) {
	tests := map[string]string{
		"unknown key":    "filters:\n  - name: x\n    subscribe: {}\n",
		"missing name":   "filters:\n  - keywords: {includes: [a]}\n",
		"duplicate name": "filters:\n  - name: a\n  - name: a\n",
		"not yaml":       "filters: [",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(data)); err == nil {
				t.Error("Parse succeeded")
			}
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "filters.yaml")
	filters := mustParse(t, sampleYAML)
	filters.SubscribeRepo("empty", "did:plc:saved")
	if err := filters.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Filters) != 2 {
		t.Fatalf("loaded %d filters", len(loaded.Filters))
	}
	empty, err := loaded.Lookup("empty")
	if err != nil || !empty.Subscribes.IsMatch("did:plc:saved") {
		t.Errorf("saved subscription lost: %+v, %v", empty, err)
	}
	team, _ := loaded.Lookup("bluesky team")
	if !slices.Equal(team.Keywords.Excludes, []string{"twitter"}) {
		t.Errorf("Excludes = %v", team.Keywords.Excludes)
	}
}
