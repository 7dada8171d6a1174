// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package statstore

import (
	"fmt"
	"sync"
)

// Handle is a process-wide store that opens on first use. A Handle is
// Unopened after NewHandle, Open after the first successful Get, and
// Closed after Close. A failed open is cached: every later Get returns
// the same error.
type Handle struct {
	config Config

	once  sync.Once
	store Store
	err   error

	mu     sync.Mutex
	closed bool
}

// NewHandle records config without touching the filesystem.
func NewHandle(config Config) *Handle {
	return &Handle{config: config}
}

// Get returns the shared store, opening it exactly once across all
// callers.
func (h *Handle) Get() (Store, error) {
	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	h.once.Do(func() {
		h.store, h.err = Open(h.config)
	})
	if h.err != nil {
		return nil, h.err
	}

	// Close may have run while the open was in progress.
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrClosed
	}
	return h.store, nil
}

// Path is the configured store location.
func (h *Handle) Path() string { return h.config.Path }

// Close closes the store if it was opened. Later Get calls return
// ErrClosed. Close is idempotent.
func (h *Handle) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	h.mu.Unlock()

	// Wait out an in-flight open, and prevent a later one.
	h.once.Do(func() { h.err = ErrClosed })

	if h.store == nil {
		return nil
	}
	if err := h.store.Close(); err != nil {
		return fmt.Errorf("statstore: closing %s: %w", h.config.Path, err)
	}
	return nil
}
