package sessions

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Blacklist records revoked access tokens until they would have expired.
// A Blacklist with a nil client is a no-op, which is how single-node setups
// without Redis run.
type Blacklist struct {
	client *redis.Client
	prefix string
}

func NewBlacklist(c *redis.Client) *Blacklist {
	return &Blacklist{client: c, prefix: "blacklist:access:"}
}

// Revoke stores the token id (jti) with the given TTL.
func (b *Blacklist) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if b == nil || b.client == nil || ttl <= 0 {
		return nil
	}
	return b.client.Set(ctx, b.prefix+tokenID, "1", ttl).Err()
}

// IsRevoked reports whether the token id was revoked.
func (b *Blacklist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if b == nil || b.client == nil {
		return false, nil
	}
	exists, err := b.client.Exists(ctx, b.prefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}
