package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) (*RedisSessionStore, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	client, err := NewRedisClient(context.Background(), "redis://"+mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	return NewRedisSessionStore(client), mr
}

func TestRedisSessionStore_Revoke(t *testing.T) {
	store, mr := setupTestStore(t)
	ctx := context.Background()

	err := store.Revoke(ctx, "sess-1", time.Hour)
	require.NoError(t, err)

	revoked, err := store.IsRevoked(ctx, "sess-1")
	assert.NoError(t, err)
	assert.True(t, revoked)

	assert.Equal(t, time.Hour, mr.TTL(revokedKeyPrefix+"sess-1"))
}

func TestRedisSessionStore_UnknownSession(t *testing.T) {
	store, _ := setupTestStore(t)

	revoked, err := store.IsRevoked(context.Background(), "never-seen")
	assert.NoError(t, err)
	assert.False(t, revoked)
}

func TestRedisSessionStore_Expiration(t *testing.T) {
	store, mr := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Revoke(ctx, "sess-2", time.Second))

	revoked, err := store.IsRevoked(ctx, "sess-2")
	assert.NoError(t, err)
	assert.True(t, revoked)

	mr.FastForward(2 * time.Second)

	revoked, err = store.IsRevoked(ctx, "sess-2")
	assert.NoError(t, err)
	assert.False(t, revoked, "revocation should expire with the token")
}

func TestRedisSessionStore_ExpiredTokenStoresNothing(t *testing.T) {
	store, mr := setupTestStore(t)

	require.NoError(t, store.Revoke(context.Background(), "sess-3", -time.Minute))
	assert.False(t, mr.Exists(revokedKeyPrefix+"sess-3"))
}

func TestRedisSessionStore_EmptySessionID(t *testing.T) {
	store, _ := setupTestStore(t)

	err := store.Revoke(context.Background(), "", time.Hour)
	assert.Error(t, err)
}

func TestRedisSessionStore_ServerDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	store := NewRedisSessionStore(client)

	mr.Close()

	_, err := store.IsRevoked(context.Background(), "sess-4")
	assert.Error(t, err)
}

func TestNewRedisClient_BadURL(t *testing.T) {
	_, err := NewRedisClient(context.Background(), "not-a-url://")
	assert.Error(t, err)
}
