package sessions

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRepository stores each session as a Redis hash at
// "<prefix><tokenHash>" that expires together with the session.
type RedisRepository struct {
	client *redis.Client
	prefix string
}

// NewRedisRepository creates a Redis-based session repository. Prefix may be empty.
func NewRedisRepository(client *redis.Client, prefix string) *RedisRepository {
	if prefix == "" {
		prefix = "session:"
	}
	return &RedisRepository{client: client, prefix: prefix}
}

func (r *RedisRepository) key(hash string) string {
	return r.prefix + hash
}

func (r *RedisRepository) Create(ctx context.Context, s *Session) error {
	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	ttl := s.ExpiresAt.Sub(now)
	if ttl <= 0 {
		ttl = time.Second
	}
	key := r.key(s.TokenHash)
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, key,
			"userId", s.UserID,
			"createdAt", s.CreatedAt.UnixMilli(),
			"expiresAt", s.ExpiresAt.UnixMilli(),
		)
		p.PExpire(ctx, key, ttl)
		return nil
	})
	return err
}

func (r *RedisRepository) GetByHash(ctx context.Context, hash string) (*Session, error) {
	fields, err := r.client.HGetAll(ctx, r.key(hash)).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, nil
	}
	created, err := strconv.ParseInt(fields["createdAt"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("session %s: bad createdAt: %w", hash, err)
	}
	expires, err := strconv.ParseInt(fields["expiresAt"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("session %s: bad expiresAt: %w", hash, err)
	}
	s := &Session{
		TokenHash: hash,
		UserID:    fields["userId"],
		CreatedAt: time.UnixMilli(created).UTC(),
		ExpiresAt: time.UnixMilli(expires).UTC(),
	}
	if time.Now().UTC().After(s.ExpiresAt) {
		_ = r.client.Del(ctx, r.key(hash)).Err()
		return nil, nil
	}
	return s, nil
}

func (r *RedisRepository) DeleteByHash(ctx context.Context, hash string) (bool, error) {
	n, err := r.client.Del(ctx, r.key(hash)).Result()
	return n > 0, err
}
