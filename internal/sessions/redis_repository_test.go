package sessions

import (
	"context"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newRedisRepo(t *testing.T, prefix string) (*RedisRepository, *mr.Miniredis) {
	t.Helper()
	m, err := mr.Run()
	require.NoError(t, err)
	t.Cleanup(m.Close)
	return NewRedisRepository(redis.NewClient(&redis.Options{Addr: m.Addr()}), prefix), m
}

func TestRedisRepository_StoresHashWithTTL(t *testing.T) {
	repo, m := newRedisRepo(t, "test:session:")
	ctx := context.Background()

	s := &Session{TokenHash: hashToken("r1"), UserID: "user-1", ExpiresAt: time.Now().UTC().Add(time.Minute)}
	require.NoError(t, repo.Create(ctx, s))

	key := "test:session:" + s.TokenHash
	require.True(t, m.Exists(key))
	require.Equal(t, "user-1", m.HGet(key, "userId"))
	require.Greater(t, m.TTL(key), 50*time.Second)

	got, err := repo.GetByHash(ctx, s.TokenHash)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, s.UserID, got.UserID)
	require.Equal(t, s.TokenHash, got.TokenHash)
	require.WithinDuration(t, s.ExpiresAt, got.ExpiresAt, time.Millisecond)

	deleted, err := repo.DeleteByHash(ctx, s.TokenHash)
	require.NoError(t, err)
	require.True(t, deleted)
	deleted, err = repo.DeleteByHash(ctx, s.TokenHash)
	require.NoError(t, err)
	require.False(t, deleted, "second delete must not report the session as removed")
	got, err = repo.GetByHash(ctx, s.TokenHash)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestRedisRepository_TTLExpiry(t *testing.T) {
	repo, m := newRedisRepo(t, "")
	ctx := context.Background()

	s := &Session{TokenHash: hashToken("r2"), UserID: "user-2", ExpiresAt: time.Now().UTC().Add(time.Second)}
	require.NoError(t, repo.Create(ctx, s))

	got, err := repo.GetByHash(ctx, s.TokenHash)
	require.NoError(t, err)
	require.NotNil(t, got)

	m.FastForward(2 * time.Second)

	got, err = repo.GetByHash(ctx, s.TokenHash)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestRedisRepository_CorruptSession(t *testing.T) {
	repo, m := newRedisRepo(t, "")
	m.HSet("session:broken", "userId", "u", "createdAt", "x", "expiresAt", "y")

	_, err := repo.GetByHash(context.Background(), "broken")
	require.Error(t, err)
}
