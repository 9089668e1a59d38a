package main

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/forkful/forkful/backend/internal/config"
	"github.com/forkful/forkful/backend/internal/users"
)

func TestPublicURL(t *testing.T) {
	t.Setenv("RECIPE_SERVICE_PUBLIC_URL", "")
	assert.Equal(t, "http://localhost:5010", publicURL("5010"))
	t.Setenv("RECIPE_SERVICE_PUBLIC_URL", "https://recipes.example.com/")
	assert.Equal(t, "https://recipes.example.com", publicURL("5010"))
}

func TestInMemory_ServesUploadedAvatar(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		Server: config.ServerConfig{Environment: "test"},
		JWT:    config.JWTConfig{Secret: "test-secret", AccessTokenTTL: time.Minute, RefreshTokenTTL: time.Hour},
		Upload: config.UploadConfig{MaxBytes: 1 << 20, MaxWidth: 400, MaxHeight: 400},
	}
	ctx := context.Background()
	a := inMemory(ctx, cfg, "http://recipes.test")
	t.Cleanup(func() { _ = a.Close(ctx) })
	a.Users.SetHashCost(bcrypt.MinCost)

	u, err := a.Users.Register(ctx, users.RegisterInput{Username: "chef", Email: "chef@example.com", Password: "secret123"})
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	u, err = a.Users.UpdateProfile(ctx, u.ID, nil, buf.Bytes())
	require.NoError(t, err, "uploads must be enabled without an object store")
	require.True(t, strings.HasPrefix(u.Avatar, "http://recipes.test/media/avatars/"), u.Avatar)

	w := httptest.NewRecorder()
	a.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, strings.TrimPrefix(u.Avatar, "http://recipes.test"), nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.NotZero(t, w.Body.Len())
}
