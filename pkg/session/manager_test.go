// SPDX-FileCopyrightText: Copyright 2026 Arcline Software, Inc.
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcline/tokengate/pkg/errs"
	"github.com/arcline/tokengate/pkg/store"
	"github.com/arcline/tokengate/pkg/tokens"
)

type sessionClock struct {
	now time.Time
}

func (c *sessionClock) Now() time.Time {
	return c.now
}

func seededManager(t *testing.T, opts ...ManagerOption) (*Manager, *store.MemoryStore, *sessionClock) {
	t.Helper()
	ctx := context.Background()
	clock := &sessionClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	st := store.NewMemoryStore(store.WithClock(clock.Now))
	require.NoError(t, st.Set(ctx, store.KeyAdminUsername, []byte("admin"), 0))
	require.NoError(t, st.Set(ctx, store.KeyAdminPassword, []byte("password123"), 0))
	return NewManager(st, opts...), st, clock
}

func TestLogin_Success(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, _, _ := seededManager(t)

	sess, err := m.Login(ctx, "admin", "password123")
	require.NoError(t, err)
	assert.Equal(t, "admin", sess.Username)
	assert.Len(t, sess.Token, 64)

	username, err := m.Validate(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, "admin", username)
}

func TestLogin_BadCredentials(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, _, _ := seededManager(t)

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"wrong password", "admin", "wrong"},
		{"wrong username", "nobody", "password123"},
		{"both wrong", "nobody", "wrong"},
		{"empty", "", ""},
	}

	var messages []string
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Login(ctx, tt.username, tt.password)
			require.Error(t, err)
			assert.True(t, errs.IsAuth(err))
			messages = append(messages, err.Error())
		})
	}

	// The error must not reveal which field was wrong.
	for _, msg := range messages[1:] {
		assert.Equal(t, messages[0], msg)
	}
}

func TestLogin_UnprovisionedCredentials(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m := NewManager(store.NewMemoryStore())

	_, err := m.Login(ctx, "admin", "password123")
	require.Error(t, err)
	assert.True(t, errs.IsAuth(err))
}

func TestLogin_ConcurrentSessionsPermitted(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, _, _ := seededManager(t)

	first, err := m.Login(ctx, "admin", "password123")
	require.NoError(t, err)
	second, err := m.Login(ctx, "admin", "password123")
	require.NoError(t, err)
	assert.NotEqual(t, first.Token, second.Token)

	// The older session still validates after the new login.
	username, err := m.Validate(ctx, first.Token)
	require.NoError(t, err)
	assert.Equal(t, "admin", username)
}

func TestValidate_UnknownToken(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, _, _ := seededManager(t)

	_, err := m.Validate(ctx, tokens.Generate())
	require.Error(t, err)
	assert.True(t, errs.IsAuth(err))

	_, err = m.Validate(ctx, "")
	require.Error(t, err)
	assert.True(t, errs.IsAuth(err))
}

func TestValidate_TTLExpiry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, _, clock := seededManager(t)

	sess, err := m.Login(ctx, "admin", "password123")
	require.NoError(t, err)

	clock.now = clock.now.Add(14 * time.Minute)
	_, err = m.Validate(ctx, sess.Token)
	require.NoError(t, err)

	// Validation does not refresh the TTL, so one more minute expires it.
	clock.now = clock.now.Add(time.Minute)
	_, err = m.Validate(ctx, sess.Token)
	require.Error(t, err)
	assert.True(t, errs.IsAuth(err))

	// Expired sessions never resurrect.
	clock.now = clock.now.Add(time.Hour)
	_, err = m.Validate(ctx, sess.Token)
	assert.True(t, errs.IsAuth(err))
}

func TestRevoke(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, _, _ := seededManager(t)

	sess, err := m.Login(ctx, "admin", "password123")
	require.NoError(t, err)

	require.NoError(t, m.Revoke(ctx, sess.Token))

	_, err = m.Validate(ctx, sess.Token)
	require.Error(t, err)
	assert.True(t, errs.IsAuth(err))

	// Idempotent: revoking again or revoking garbage is fine.
	require.NoError(t, m.Revoke(ctx, sess.Token))
	require.NoError(t, m.Revoke(ctx, "never-existed"))
}

// failingStore simulates a store transport failure on every call.
type failingStore struct {
	store.Store
}

func (*failingStore) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("connection refused")
}

func TestValidate_StoreFailureIsNotAuthFailure(t *testing.T) {
	t.Parallel()
	m := NewManager(&failingStore{})

	_, err := m.Validate(context.Background(), "some-token")
	require.Error(t, err)
	assert.True(t, errs.IsStore(err), "store outage must not read as unauthenticated")
	assert.False(t, errs.IsAuth(err))
}

func TestWithTTL(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	m, _, clock := seededManager(t, WithTTL(time.Minute))

	sess, err := m.Login(ctx, "admin", "password123")
	require.NoError(t, err)

	clock.now = clock.now.Add(2 * time.Minute)
	_, err = m.Validate(ctx, sess.Token)
	assert.True(t, errs.IsAuth(err))
}
