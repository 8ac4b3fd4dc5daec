package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	s := NewMemoryStore()
	s.now = clock.now

	require.NoError(t, s.Set(ctx, "k", []byte("v"), time.Minute))
	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	clock.t = clock.t.Add(time.Minute)
	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)

	ok, err := s.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestJSONRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	type payload struct {
		Count int `json:"count"`
	}
	require.NoError(t, SetJSON(ctx, s, "stats", payload{Count: 4}, 0))

	var got payload
	require.NoError(t, GetJSON(ctx, s, "stats", &got))
	assert.Equal(t, 4, got.Count)

	require.NoError(t, s.Delete(ctx, "stats"))
	assert.ErrorIs(t, GetJSON(ctx, s, "stats", &got), ErrMiss)
}

func TestTokenRevoker(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	store := NewMemoryStore()
	store.now = clock.now
	r := NewTokenRevoker(store)
	r.now = clock.now

	require.NoError(t, r.Revoke(ctx, "jti-1", clock.t.Add(time.Hour)))
	require.NoError(t, r.Revoke(ctx, "jti-old", clock.t.Add(-time.Hour)))

	revoked, err := r.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = r.IsRevoked(ctx, "jti-old")
	require.NoError(t, err)
	assert.False(t, revoked)

	clock.t = clock.t.Add(2 * time.Hour)
	revoked, err = r.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}
