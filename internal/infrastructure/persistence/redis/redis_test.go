package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/bookplus/internal/domain/cart"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestSessionStore(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestClient(t)
	store := NewSessionStore(client)

	revoked, err := store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.Revoke(ctx, "jti-1", time.Minute))
	revoked, err = store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.Equal(t, time.Minute, mr.TTL("blacklist:jti-1"))

	mr.FastForward(2 * time.Minute)
	revoked, err = store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	// 已过期的Token无需加入黑名单
	require.NoError(t, store.Revoke(ctx, "jti-2", 0))
	assert.False(t, mr.Exists("blacklist:jti-2"))
}

func TestSessionStore_RedisDown(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	store := NewSessionStore(client)
	mr.Close()

	_, err = store.IsRevoked(context.Background(), "jti")
	assert.Error(t, err)
}

func TestCartKey(t *testing.T) {
	assert.Equal(t, "cart:abc", cartKey("abc"))
	assert.Equal(t, "blacklist:abc", blacklistKey("abc"))
}

func TestCartStorage(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestClient(t)
	s := NewCartStorage(client, 24*time.Hour)

	_, err := s.Load(ctx, "missing")
	assert.ErrorIs(t, err, cart.ErrCartNotFound)

	c := &cart.Cart{Token: "tok"}
	require.NoError(t, c.Set(3, 2))
	require.NoError(t, c.Set(1, 1))
	require.NoError(t, s.Save(ctx, c))
	assert.Equal(t, 24*time.Hour, mr.TTL("cart:tok"))

	got, err := s.Load(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, c.Lines, got.Lines)
	assert.Equal(t, "tok", got.Token)

	require.NoError(t, s.Delete(ctx, "tok"))
	_, err = s.Load(ctx, "tok")
	assert.ErrorIs(t, err, cart.ErrCartNotFound)

	require.NoError(t, mr.Set("cart:bad", "{not json"))
	_, err = s.Load(ctx, "bad")
	assert.Error(t, err)
}
