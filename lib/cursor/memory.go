// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cursor

import (
	"context"
	"sync"
)

// Memory is a process-local store.
type Memory struct {
	mu    sync.Mutex
	seq   int64
	set   bool
	saves int
}

func (m *Memory) Load(context.Context) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.seq, m.set, nil
}

func (m *Memory) Save(_ context.Context, seq int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq, m.set = seq, true
	m.saves++
	return nil
}

func (m *Memory) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq, m.set = 0, false
	return nil
}

// Saves returns how many times Save was called.
func (m *Memory) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
