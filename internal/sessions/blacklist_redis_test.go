package sessions

import (
	"context"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestBlacklist_Revoke(t *testing.T) {
	tests := []struct {
		name        string
		ttl         time.Duration
		advance     time.Duration
		wantRevoked bool
	}{
		{name: "live token", ttl: 2 * time.Second, wantRevoked: true},
		{name: "past expiry", ttl: 2 * time.Second, advance: 3 * time.Second, wantRevoked: false},
		{name: "already expired token is not stored", ttl: 0, wantRevoked: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := mr.Run()
			require.NoError(t, err)
			t.Cleanup(m.Close)

			bl := NewBlacklist(redis.NewClient(&redis.Options{Addr: m.Addr()}))
			ctx := context.Background()
			require.NoError(t, bl.Revoke(ctx, "jti-1", tt.ttl))
			m.FastForward(tt.advance)

			revoked, err := bl.IsRevoked(ctx, "jti-1")
			require.NoError(t, err)
			require.Equal(t, tt.wantRevoked, revoked)
		})
	}
}

func TestBlacklist_WithoutRedisIsNoop(t *testing.T) {
	ctx := context.Background()
	for _, bl := range []*Blacklist{NewBlacklist(nil), nil} {
		require.NoError(t, bl.Revoke(ctx, "jti-2", time.Second))
		revoked, err := bl.IsRevoked(ctx, "jti-2")
		require.NoError(t, err)
		require.False(t, revoked)
	}
}

func TestBlacklist_RedisDown(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	t.Cleanup(m.Close)
	bl := NewBlacklist(redis.NewClient(&redis.Options{Addr: m.Addr()}))
	m.SetError("LOADING")

	_, err = bl.IsRevoked(context.Background(), "jti-3")
	require.Error(t, err)
}
