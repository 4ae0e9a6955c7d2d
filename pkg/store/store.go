// SPDX-FileCopyrightText: Copyright 2026 Arcline Software, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package store provides the credential store interface and implementations
// backing all tokengate state: admin sessions, registered applications, and
// pending OAuth authorization state.
package store

import (
	"context"
	"errors"
	"time"
)

// Key prefixes partition the single key-value namespace into typed
// collections. Records under each prefix carry their own JSON contract.
const (
	// KeyPrefixSession holds admin session records, keyed by session token.
	KeyPrefixSession = "session:"

	// KeyPrefixApp holds registered application records, keyed by name.
	KeyPrefixApp = "app:"

	// KeyPrefixOAuthState holds pending authorization state, keyed by the
	// OAuth state value.
	KeyPrefixOAuthState = "oauth_state:"
)

// Fixed credential keys, seeded out-of-band (see provisioning docs).
const (
	// KeyAdminUsername holds the admin username.
	KeyAdminUsername = "username"

	// KeyAdminPassword holds the admin password.
	KeyAdminPassword = "password"
)

// ErrNotFound is returned when a key is absent or its TTL has elapsed.
// It is distinct from transport errors so callers can tell "missing" from
// "store unavailable".
var ErrNotFound = errors.New("key not found")

// SessionKey returns the store key for an admin session token.
func SessionKey(token string) string {
	return KeyPrefixSession + token
}

// AppKey returns the store key for an application name.
func AppKey(name string) string {
	return KeyPrefixApp + name
}

// OAuthStateKey returns the store key for an OAuth state value.
func OAuthStateKey(state string) string {
	return KeyPrefixOAuthState + state
}

// Store is a durable key-value map with per-key optional TTL and
// prefix-scanning list capability. Implementations must provide atomic
// single-key operations; cross-key transactions are not assumed anywhere.
type Store interface {
	// Get returns the value for key, or ErrNotFound if the key is absent
	// or expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key. A zero ttl means the key never expires.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// SetNX stores value under key only if the key does not already exist,
	// reporting whether the write happened. Used to close the
	// read-before-write race on unique-name creation.
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)

	// Delete removes key unconditionally. Deleting an absent key is not
	// an error.
	Delete(ctx context.Context, key string) error

	// List returns all live keys with the given prefix. Order is
	// unspecified.
	List(ctx context.Context, prefix string) ([]string, error)
}
