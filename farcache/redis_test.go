package farcache

import (
	"context"
	"testing"
	"time"

	"github.com/agilira/bastion"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store[string] {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return New[string](Config{Client: client})
}

func TestStorePutGetRoundTrips(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	entry := bastion.NewEntry[string]("A", 1000, int64(time.Hour), false)
	require.NoError(t, s.Put(ctx, "user:1", entry, int64(time.Minute)))

	got, found, err := s.Get(ctx, "user:1")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "A", got.Value)
}

func TestStoreGetMissing(t *testing.T) {
	s := newTestStore(t)
	_, found, err := s.Get(context.Background(), "user:404")
	require.NoError(t, err)
	require.False(t, found)
}

func TestStoreLockAcquireAndRelease(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, found, acquired, token, err := s.GetWithLock(ctx, "user:1", int64(3*time.Second))
	require.NoError(t, err)
	require.False(t, found)
	require.True(t, acquired)

	// A second, concurrent acquisition attempt fails while the first holds it.
	_, _, acquired2, _, err := s.GetWithLock(ctx, "user:1", int64(3*time.Second))
	require.NoError(t, err)
	require.False(t, acquired2)

	require.NoError(t, s.ReleaseLock(ctx, "user:1", token))

	_, _, acquired3, _, err := s.GetWithLock(ctx, "user:1", int64(3*time.Second))
	require.NoError(t, err)
	require.True(t, acquired3)
}

func TestStoreReleaseLockWithStaleTokenIsNoop(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, _, _, token, err := s.GetWithLock(ctx, "user:1", int64(3*time.Second))
	require.NoError(t, err)

	require.NoError(t, s.ReleaseLock(ctx, "user:1", "not-"+token))

	// Lock still held; a new acquisition attempt should fail.
	_, _, acquired, _, err := s.GetWithLock(ctx, "user:1", int64(3*time.Second))
	require.NoError(t, err)
	require.False(t, acquired)
}

func TestStorePutWithRandomTTLWithinBounds(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	entry := bastion.NewEntry[string]("A", 0, int64(time.Hour), false)

	require.NoError(t, s.PutWithRandomTTL(ctx, "user:1", entry, int64(100*time.Second), 20))

	ttl := s.client.TTL(ctx, "user:1").Val()
	require.GreaterOrEqual(t, ttl, 69*time.Second)
	require.LessOrEqual(t, ttl, 131*time.Second)
}
