// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"strings"
	"testing"
)

func TestLdflagsTakePrecedence(t *testing.T) {
	savedCommit, savedDirty, savedTime := GitCommit, GitDirty, BuildTime
	t.Cleanup(func() { GitCommit, GitDirty, BuildTime = savedCommit, savedDirty, savedTime })

	GitCommit, GitDirty, BuildTime = "abc1234", "true", "2026-01-01T00:00:00Z"
	build := Current()
	if build.Commit != "abc1234" || !build.Dirty || build.BuildTime != "2026-01-01T00:00:00Z" {
		t.Errorf("Current() = %+v", build)
	}
	if got, want := Info(), Version+" (abc1234-dirty, 2026-01-01T00:00:00Z)"; got != want {
		t.Errorf("Info() = %q, want %q", got, want)
	}
}

func TestFullIncludesPlatform(t *testing.T) {
	full := Full()
	build := Current()
	if !strings.Contains(full, build.GoVersion) || !strings.Contains(full, build.Platform) {
		t.Errorf("Full() = %q", full)
	}
}

func TestShort(t *testing.T) {
	if Short() != Version {
		t.Errorf("Short() = %q, want %q", Short(), Version)
	}
}
