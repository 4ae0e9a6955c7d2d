// SPDX-FileCopyrightText: Copyright 2026 Arcline Software, Inc.
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func redisTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStoreWithClient(client), mr
}

func TestRedisStore_GetSet(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _ := redisTestStore(t)

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, "app:svc", []byte(`{"name":"svc"}`), 0))

	got, err := s.Get(ctx, "app:svc")
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"svc"}`, string(got))
}

func TestRedisStore_TTLExpiry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, mr := redisTestStore(t)

	require.NoError(t, s.Set(ctx, "session:tok", []byte(`{"username":"admin"}`), 900*time.Second))

	_, err := s.Get(ctx, "session:tok")
	require.NoError(t, err)

	mr.FastForward(901 * time.Second)

	_, err = s.Get(ctx, "session:tok")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_SetNX(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _ := redisTestStore(t)

	ok, err := s.SetNX(ctx, "app:svc", []byte("one"), 0)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.SetNX(ctx, "app:svc", []byte("two"), 0)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := s.Get(ctx, "app:svc")
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), got)
}

func TestRedisStore_Delete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _ := redisTestStore(t)

	require.NoError(t, s.Set(ctx, "k", []byte("v"), 0))
	require.NoError(t, s.Delete(ctx, "k"))

	_, err := s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting an absent key is not an error.
	require.NoError(t, s.Delete(ctx, "k"))
}

func TestRedisStore_List(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _ := redisTestStore(t)

	require.NoError(t, s.Set(ctx, "app:alpha", []byte("a"), 0))
	require.NoError(t, s.Set(ctx, "app:beta", []byte("b"), 0))
	require.NoError(t, s.Set(ctx, "oauth_state:x", []byte("p"), time.Minute))

	keys, err := s.List(ctx, "app:")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"app:alpha", "app:beta"}, keys)

	keys, err = s.List(ctx, "nope:")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestNewRedisStore_BadURL(t *testing.T) {
	t.Parallel()

	_, err := NewRedisStore(context.Background(), RedisConfig{URL: "not-a-url"})
	assert.Error(t, err)

	_, err = NewRedisStore(context.Background(), RedisConfig{})
	assert.Error(t, err)
}

func TestNewRedisStore_Connects(t *testing.T) {
	t.Parallel()
	mr := miniredis.RunT(t)

	s, err := NewRedisStore(context.Background(), RedisConfig{URL: "redis://" + mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Ping(context.Background()))
}
