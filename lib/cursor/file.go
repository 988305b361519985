// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cursor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// File stores the cursor in a single file.
type File struct {
	path string
}

// NewFile returns a store at path. The file and its directory are
// created on the first Save.
func NewFile(path string) *File { return &File{path: path} }

// Path returns the file location.
func (f *File) Path() string { return f.path }

// Load reads the cursor. A missing file means no cursor.
func (f *File) Load(context.Context) (int64, bool, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("reading cursor file: %w", err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return 0, false, nil
	}
	seq, err := strconv.ParseInt(text, 10, 64)
	if err != nil || seq < 0 {
		return 0, false, fmt.Errorf("cursor file %s holds %q, not a sequence number", f.path, text)
	}
	return seq, true, nil
}

// Save replaces the file's contents with seq. The write goes to a
// temporary file that is synced and renamed into place, so a crash
// leaves either the old cursor or the new one.
func (f *File) Save(_ context.Context, seq int64) error {
	if seq < 0 {
		return fmt.Errorf("cursor: negative sequence number %d", seq)
	}
	directory := filepath.Dir(f.path)
	if err := os.MkdirAll(directory, 0o755); err != nil {
		return fmt.Errorf("creating cursor directory: %w", err)
	}

	temporary, err := os.CreateTemp(directory, ".cursor-*")
	if err != nil {
		return fmt.Errorf("creating temporary cursor file: %w", err)
	}
	temporaryPath := temporary.Name()
	fail := func(step string, err error) error {
		temporary.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("%s temporary cursor file: %w", step, err)
	}

	if _, err := temporary.WriteString(strconv.FormatInt(seq, 10) + "\n"); err != nil {
		return fail("writing", err)
	}
	if err := temporary.Sync(); err != nil {
		return fail("syncing", err)
	}
	if err := temporary.Close(); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("closing temporary cursor file: %w", err)
	}
	if err := os.Rename(temporaryPath, f.path); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("renaming cursor file into place: %w", err)
	}

	// Best effort: persist the rename itself.
	if parent, err := os.Open(directory); err == nil {
		parent.Sync()
		parent.Close()
	}
	return nil
}

// Clear removes the file. Clearing an absent cursor is not an error.
func (f *File) Clear(context.Context) error {
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing cursor file: %w", err)
	}
	return nil
}
