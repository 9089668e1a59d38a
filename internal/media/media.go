// Package media validates and normalizes uploaded images and hands them to
// an object store, returning the durable URL the store assigns.
package media

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/forkful/forkful/backend/pkg/apperrors"
)

// Store is an object store addressed by key that serves objects at durable URLs.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Remove(ctx context.Context, url string) error
}

// Constraints bound what an upload may be.
type Constraints struct {
	MaxBytes  int64
	MaxWidth  int
	MaxHeight int
}

// DefaultConstraints: 5 MiB, scaled down to fit 800x600.
var DefaultConstraints = Constraints{MaxBytes: 5 << 20, MaxWidth: 800, MaxHeight: 600}

// Service uploads normalized images under a key prefix.
type Service struct {
	store  Store
	prefix string
	limits Constraints
}

func NewService(store Store, prefix string, limits Constraints) *Service {
	if limits.MaxBytes <= 0 {
		limits.MaxBytes = DefaultConstraints.MaxBytes
	}
	return &Service{store: store, prefix: prefix, limits: limits}
}

// Upload normalizes raw and stores it. Constraint violations are InvalidInput;
// store failures are Internal.
func (s *Service) Upload(ctx context.Context, raw []byte) (string, error) {
	img, err := Normalize(raw, s.limits)
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("%s/%s.%s", s.prefix, uuid.NewString(), img.Ext)
	url, err := s.store.Put(ctx, key, img.Data, img.ContentType)
	if err != nil {
		return "", apperrors.Internal("upload image", err)
	}
	return url, nil
}

// Delete releases the object behind url. Empty urls are ignored.
func (s *Service) Delete(ctx context.Context, url string) error {
	if url == "" {
		return nil
	}
	return s.store.Remove(ctx, url)
}
