// SPDX-FileCopyrightText: Copyright 2026 Arcline Software, Inc.
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"strings"
	"sync"
	"time"
)

// timedEntry wraps a value with its expiry deadline for TTL tracking.
// A zero expiresAt means the entry never expires.
type timedEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryStore implements Store with a mutex-guarded map.
// It is thread-safe and suitable for development and testing; production
// deployments should use the Redis backend.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]timedEntry

	// now is the clock used for TTL decisions, replaceable in tests.
	now func() time.Time
}

// MemoryStoreOption configures a MemoryStore instance.
type MemoryStoreOption func(*MemoryStore)

// WithClock sets a custom clock. Tests use this to simulate TTL expiry
// without sleeping.
func WithClock(now func() time.Time) MemoryStoreOption {
	return func(s *MemoryStore) {
		s.now = now
	}
}

// NewMemoryStore creates a new MemoryStore instance.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]timedEntry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// live reports whether the entry exists and has not expired, deleting it
// if the deadline has passed. Callers must hold the write lock.
func (s *MemoryStore) live(key string) (timedEntry, bool) {
	entry, ok := s.entries[key]
	if !ok {
		return timedEntry{}, false
	}
	if !entry.expiresAt.IsZero() && !s.now().Before(entry.expiresAt) {
		delete(s.entries, key)
		return timedEntry{}, false
	}
	return entry, true
}

// Get returns the value for key, or ErrNotFound if absent or expired.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.live(key)
	if !ok {
		return nil, ErrNotFound
	}

	// Copy so callers cannot mutate the stored bytes.
	value := make([]byte, len(entry.value))
	copy(value, entry.value)
	return value, nil
}

// Set stores value under key, replacing any existing entry.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = s.newEntry(value, ttl)
	return nil
}

// SetNX stores value under key only if the key does not already exist.
func (s *MemoryStore) SetNX(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.live(key); ok {
		return false, nil
	}
	s.entries[key] = s.newEntry(value, ttl)
	return true, nil
}

// Delete removes key unconditionally.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}

// List returns all live keys with the given prefix.
func (s *MemoryStore) List(_ context.Context, prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var keys []string
	for key := range s.entries {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if _, ok := s.live(key); ok {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (s *MemoryStore) newEntry(value []byte, ttl time.Duration) timedEntry {
	stored := make([]byte, len(value))
	copy(stored, value)

	entry := timedEntry{value: stored}
	if ttl > 0 {
		entry.expiresAt = s.now().Add(ttl)
	}
	return entry
}

// Compile-time interface compliance check.
var _ Store = (*MemoryStore)(nil)
