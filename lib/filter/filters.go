// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package filter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/skystream/firehose"
)

// Filters is the set of rules from one filters file. It is not safe
// for modification while a Sink built from it is running.
type Filters struct {
	Filters []Filter `yaml:"filters" json:"filters"`
}

// Parse decodes a filters document.
func Parse(data []byte) (*Filters, error) {
	var filters Filters
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&filters); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing filters: %w", err)
	}
	seen := make(map[string]bool, len(filters.Filters))
	for _, filter := range filters.Filters {
		if filter.Name == "" {
			return nil, fmt.Errorf("parsing filters: every filter needs a name")
		}
		if seen[filter.Name] {
			return nil, fmt.Errorf("parsing filters: duplicate filter name %q", filter.Name)
		}
		seen[filter.Name] = true
	}
	return &filters, nil
}

// Load reads and parses a filters file.
func Load(path string) (*Filters, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	filters, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return filters, nil
}

// Save writes the filters to path, replacing it atomically.
func (f *Filters) Save(path string) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("encoding filters: %w", err)
	}
	temporary, err := os.CreateTemp(filepath.Dir(path), ".filters-*")
	if err != nil {
		return fmt.Errorf("creating temporary filters file: %w", err)
	}
	if _, err := temporary.Write(data); err != nil {
		temporary.Close()
		os.Remove(temporary.Name())
		return fmt.Errorf("writing temporary filters file: %w", err)
	}
	if err := temporary.Close(); err != nil {
		os.Remove(temporary.Name())
		return fmt.Errorf("closing temporary filters file: %w", err)
	}
	if err := os.Rename(temporary.Name(), path); err != nil {
		os.Remove(temporary.Name())
		return fmt.Errorf("renaming filters file into place: %w", err)
	}
	return nil
}

// Init resolves handles in every filter.
func (f *Filters) Init(ctx context.Context, resolver Resolver, logger *slog.Logger) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	for i := range f.Filters {
		f.Filters[i].Init(ctx, resolver, logger)
	}
}

// IsMatch reports whether any filter passes event. An empty set
// passes everything.
func (f *Filters) IsMatch(event firehose.Event) bool {
	if len(f.Filters) == 0 {
		return true
	}
	for i := range f.Filters {
		if f.Filters[i].IsMatch(event) {
			return true
		}
	}
	return false
}

// Sink forwards events that pass to next and drops the rest.
func (f *Filters) Sink(next firehose.Sink) firehose.Sink {
	return firehose.SinkFunc(func(ctx context.Context, event firehose.Event) error {
		if !f.IsMatch(event) {
			return nil
		}
		return next.HandleEvent(ctx, event)
	})
}

// Lookup returns the filter with the given name.
func (f *Filters) Lookup(name string) (*Filter, error) {
	for i := range f.Filters {
		if f.Filters[i].Name == name {
			return &f.Filters[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrNoSuchFilter, name)
}

// SubscribeRepo adds did to the named filter.
func (f *Filters) SubscribeRepo(name, did string) error {
	filter, err := f.Lookup(name)
	if err != nil {
		return err
	}
	filter.SubscribeRepo(did)
	return nil
}

// UnsubscribeRepo removes did from the named filter.
func (f *Filters) UnsubscribeRepo(name, did string) error {
	filter, err := f.Lookup(name)
	if err != nil {
		return err
	}
	return filter.UnsubscribeRepo(did)
}

// SubscribeHandle adds handle to the named filter.
func (f *Filters) SubscribeHandle(name, handle string) error {
	filter, err := f.Lookup(name)
	if err != nil {
		return err
	}
	filter.SubscribeHandle(handle)
	return nil
}

// UnsubscribeHandle removes handle from the named filter.
func (f *Filters) UnsubscribeHandle(name, handle string) error {
	filter, err := f.Lookup(name)
	if err != nil {
		return err
	}
	return filter.UnsubscribeHandle(handle)
}
