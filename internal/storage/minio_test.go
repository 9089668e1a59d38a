package storage

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/forkful/forkful/backend/internal/config"
)

func TestPublicBase(t *testing.T) {
	require.Equal(t, "http://minio:9000/images", publicBase(config.MinIOConfig{Endpoint: "minio:9000", Bucket: "images"}))
	require.Equal(t, "https://minio:9000/images", publicBase(config.MinIOConfig{Endpoint: "minio:9000", Bucket: "images", UseSSL: true}))
	require.Equal(t, "https://cdn.forkful.app/images", publicBase(config.MinIOConfig{Endpoint: "minio:9000", Bucket: "images", PublicURL: "https://cdn.forkful.app/"}))
}

func TestURLKeyRoundTrip(t *testing.T) {
	s := &MinIOStorage{bucket: "images", base: "http://minio:9000/images"}
	url := s.URLFor("recipes/abc.jpg")
	require.Equal(t, "http://minio:9000/images/recipes/abc.jpg", url)

	key, err := s.KeyFor(url)
	require.NoError(t, err)
	require.Equal(t, "recipes/abc.jpg", key)

	_, err = s.KeyFor("https://elsewhere.example.com/abc.jpg")
	require.Error(t, err)
}
