// SPDX-FileCopyrightText: Copyright 2026 Arcline Software, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package session issues, validates, and revokes short-lived admin sessions.
package session

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/arcline/tokengate/pkg/errs"
	"github.com/arcline/tokengate/pkg/logger"
	"github.com/arcline/tokengate/pkg/store"
	"github.com/arcline/tokengate/pkg/tokens"
)

// DefaultTTL is the lifetime of an admin session.
const DefaultTTL = 15 * time.Minute

// Session is an authenticated admin session.
type Session struct {
	// Token is the opaque session token handed to the client as a cookie.
	Token string

	// Username is the admin account the session is bound to.
	Username string
}

// sessionRecord is the JSON contract for session:{token} values.
type sessionRecord struct {
	Username string `json:"username"`
}

// Manager issues and validates admin sessions against the credential store.
// It holds no authoritative state of its own; every call round-trips the
// store, so concurrent use needs no coordination here.
type Manager struct {
	store store.Store
	ttl   time.Duration
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithTTL sets a custom session lifetime.
func WithTTL(ttl time.Duration) ManagerOption {
	return func(m *Manager) {
		m.ttl = ttl
	}
}

// NewManager creates a session manager backed by the given store.
func NewManager(st store.Store, opts ...ManagerOption) *Manager {
	m := &Manager{
		store: st,
		ttl:   DefaultTTL,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Login checks the supplied credentials against the fixed admin credentials
// held in the store and, on match, creates a new session. A fresh login
// never invalidates existing sessions; concurrent sessions for the same
// username are permitted.
//
// On mismatch it returns a single opaque auth error regardless of which
// field was wrong.
func (m *Manager) Login(ctx context.Context, username, password string) (*Session, error) {
	storedUsername, err := m.credential(ctx, store.KeyAdminUsername)
	if err != nil {
		return nil, err
	}
	storedPassword, err := m.credential(ctx, store.KeyAdminPassword)
	if err != nil {
		return nil, err
	}

	// Compare both fields before deciding so response timing does not
	// reveal which one was wrong.
	usernameOK := subtle.ConstantTimeCompare([]byte(username), []byte(storedUsername))
	passwordOK := subtle.ConstantTimeCompare([]byte(password), []byte(storedPassword))
	if usernameOK&passwordOK != 1 {
		return nil, errs.NewAuthError("invalid credentials", nil)
	}

	token := tokens.Generate()
	data, err := json.Marshal(sessionRecord{Username: username})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := m.store.Set(ctx, store.SessionKey(token), data, m.ttl); err != nil {
		return nil, errs.NewStoreError("failed to persist session", err)
	}

	logger.Infow("admin session created", "username", username)
	return &Session{Token: token, Username: username}, nil
}

// Validate resolves a session token to its username. It is side-effect-free:
// the remaining session lifetime is not extended by use. An absent or
// expired token yields an auth error; a store transport failure propagates
// as a retryable store error, never as "not authenticated".
func (m *Manager) Validate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", errs.NewAuthError("missing session token", nil)
	}

	data, err := m.store.Get(ctx, store.SessionKey(token))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", errs.NewAuthError("invalid or expired session", nil)
		}
		return "", errs.NewStoreError("failed to look up session", err)
	}

	var record sessionRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return "", errs.NewAuthError("malformed session record", err)
	}
	return record.Username, nil
}

// Revoke deletes a session unconditionally. Revoking an already-expired or
// unknown token is not an error.
func (m *Manager) Revoke(ctx context.Context, token string) error {
	if err := m.store.Delete(ctx, store.SessionKey(token)); err != nil {
		return errs.NewStoreError("failed to revoke session", err)
	}
	return nil
}

// credential loads one of the fixed admin credential values. Missing
// credentials collapse to the same opaque auth error as a bad password so
// an unprovisioned deployment does not leak its state to probers.
func (m *Manager) credential(ctx context.Context, key string) (string, error) {
	value, err := m.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			logger.Warnw("admin credential not provisioned", "key", key)
			return "", errs.NewAuthError("invalid credentials", nil)
		}
		return "", errs.NewStoreError("failed to load admin credentials", err)
	}
	return string(value), nil
}
