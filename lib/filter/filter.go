// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package filter

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"

	"github.com/bureau-foundation/skystream/firehose"
	"github.com/bureau-foundation/skystream/lib/lexicon"
)

var (
	ErrNoSuchFilter = errors.New("no such named filter")
	ErrNoSuchDID    = errors.New("no such did")
	ErrNoSuchHandle = errors.New("no such handle")
)

// Resolver turns a handle into a DID.
type Resolver interface {
	ResolveHandle(ctx context.Context, handle string) (string, error)
}

// Subscribes lists the accounts a filter follows.
type Subscribes struct {
	DIDs    []string `yaml:"dids,omitempty" json:"dids,omitempty"`
	Handles []string `yaml:"handles,omitempty" json:"handles,omitempty"`
}

// IsMatch reports whether repo is one of the subscribed DIDs.
func (s *Subscribes) IsMatch(repo string) bool {
	return s != nil && slices.Contains(s.DIDs, repo)
}

// Keywords are substrings searched for in post text.
type Keywords struct {
	Includes []string `yaml:"includes,omitempty" json:"includes,omitempty"`
	Excludes []string `yaml:"excludes,omitempty" json:"excludes,omitempty"`
}

// MatchesIncludes reports whether any text contains an included keyword.
func (k *Keywords) MatchesIncludes(texts []string) bool {
	return k != nil && containsAny(texts, k.Includes)
}

// MatchesExcludes reports whether any text contains an excluded keyword.
func (k *Keywords) MatchesExcludes(texts []string) bool {
	return k != nil && containsAny(texts, k.Excludes)
}

func containsAny(texts, keywords []string) bool {
	for _, text := range texts {
		for _, keyword := range keywords {
			if strings.Contains(text, keyword) {
				return true
			}
		}
	}
	return false
}

// Filter is one named rule.
type Filter struct {
	Name       string      `yaml:"name" json:"name"`
	Subscribes *Subscribes `yaml:"subscribes,omitempty" json:"subscribes,omitempty"`
	Keywords   *Keywords   `yaml:"keywords,omitempty" json:"keywords,omitempty"`
}

// IsMatch reports whether event passes the filter.
func (f *Filter) IsMatch(event firehose.Event) bool {
	switch event := event.(type) {
	case *firehose.CommitEvent:
		texts := lexicon.PostTexts(event)
		if f.Subscribes.IsMatch(event.Repo) {
			return !f.Keywords.MatchesExcludes(texts)
		}
		return f.Keywords.MatchesIncludes(texts)
	case *firehose.HandleEvent:
		return f.Subscribes.IsMatch(event.DID)
	case *firehose.IdentityEvent:
		return f.Subscribes.IsMatch(event.DID)
	default:
		return true
	}
}

// Init resolves the filter's handles and merges them into its DIDs.
// The result is deduplicated and sorted. Handles that fail to resolve
// are logged and skipped.
func (f *Filter) Init(ctx context.Context, resolver Resolver, logger *slog.Logger) {
	if f.Subscribes == nil {
		return
	}
	dids := slices.Clone(f.Subscribes.DIDs)
	for _, handle := range f.Subscribes.Handles {
		did, err := resolver.ResolveHandle(ctx, handle)
		if err != nil {
			logger.Warn("skipping unresolvable handle", "filter", f.Name, "handle", handle, "error", err)
			continue
		}
		dids = append(dids, did)
	}
	slices.Sort(dids)
	f.Subscribes.DIDs = slices.Compact(dids)
}

// SubscribeRepo adds a DID.
func (f *Filter) SubscribeRepo(did string) {
	if f.Subscribes == nil {
		f.Subscribes = &Subscribes{}
	}
	if !slices.Contains(f.Subscribes.DIDs, did) {
		f.Subscribes.DIDs = append(f.Subscribes.DIDs, did)
	}
}

// UnsubscribeRepo removes a DID.
func (f *Filter) UnsubscribeRepo(did string) error {
	if f.Subscribes == nil || !slices.Contains(f.Subscribes.DIDs, did) {
		return ErrNoSuchDID
	}
	f.Subscribes.DIDs = slices.DeleteFunc(f.Subscribes.DIDs, func(d string) bool { return d == did })
	return nil
}

// SubscribeHandle adds a handle. It takes effect at the next Init.
func (f *Filter) SubscribeHandle(handle string) {
	if f.Subscribes == nil {
		f.Subscribes = &Subscribes{}
	}
	if !slices.Contains(f.Subscribes.Handles, handle) {
		f.Subscribes.Handles = append(f.Subscribes.Handles, handle)
	}
}

// UnsubscribeHandle removes a handle. A DID it already resolved to
// stays until the filter is reloaded.
func (f *Filter) UnsubscribeHandle(handle string) error {
	if f.Subscribes == nil || !slices.Contains(f.Subscribes.Handles, handle) {
		return ErrNoSuchHandle
	}
	f.Subscribes.Handles = slices.DeleteFunc(f.Subscribes.Handles, func(h string) bool { return h == handle })
	return nil
}
