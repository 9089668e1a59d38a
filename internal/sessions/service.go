package sessions

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"
)

// Service wraps repository operations with business logic
type Service struct {
	repo Repository
	ttl  time.Duration
}

func NewService(r Repository, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Service{repo: r, ttl: ttl}
}

// CreateSession stores a new refresh session and returns the raw refresh token
func (s *Service) CreateSession(ctx context.Context, userID string) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	raw := hex.EncodeToString(b)
	sess := &Session{
		TokenHash: hashToken(raw),
		UserID:    userID,
		ExpiresAt: time.Now().UTC().Add(s.ttl),
	}
	if err := s.repo.Create(ctx, sess); err != nil {
		return "", err
	}
	return raw, nil
}

// ValidateRefresh returns the session if refresh token is valid and not expired.
// Unknown or expired tokens yield (nil, nil).
func (s *Service) ValidateRefresh(ctx context.Context, refresh string) (*Session, error) {
	h := hashToken(refresh)
	sess, err := s.repo.GetByHash(ctx, h)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, nil
	}
	if time.Now().UTC().After(sess.ExpiresAt) {
		_, _ = s.repo.DeleteByHash(ctx, h)
		return nil, nil
	}
	return sess, nil
}

// Rotate invalidates refresh and issues a replacement for the same user.
// When two callers present the same token only the one whose delete removed
// the session gets a replacement; the other sees (nil, "", nil).
func (s *Service) Rotate(ctx context.Context, refresh string) (*Session, string, error) {
	sess, err := s.ValidateRefresh(ctx, refresh)
	if err != nil || sess == nil {
		return nil, "", err
	}
	deleted, err := s.repo.DeleteByHash(ctx, hashToken(refresh))
	if err != nil || !deleted {
		return nil, "", err
	}
	next, err := s.CreateSession(ctx, sess.UserID)
	if err != nil {
		return nil, "", err
	}
	return sess, next, nil
}

func (s *Service) DeleteRefresh(ctx context.Context, refresh string) error {
	_, err := s.repo.DeleteByHash(ctx, hashToken(refresh))
	return err
}
