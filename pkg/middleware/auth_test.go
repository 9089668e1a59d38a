package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/forkful/forkful/backend/internal/sessions"
	"github.com/forkful/forkful/backend/internal/tokens"
	"github.com/forkful/forkful/backend/pkg/apperrors"
)

var testUser = primitive.NewObjectID()

// fakeVerifier accepts "goodtoken" for testUser.
type fakeVerifier struct{}

func (f *fakeVerifier) Verify(_ context.Context, raw string) (*tokens.Claims, error) {
	switch raw {
	case "goodtoken":
		return &tokens.Claims{Username: "chef", RegisteredClaims: jwt.RegisteredClaims{Subject: testUser.Hex(), ID: "jti-1"}}, nil
	case "badsubject":
		return &tokens.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "not-an-id"}}, nil
	}
	return nil, apperrors.Unauthorized("invalid token")
}

func newAuthEngine(mw gin.HandlerFunc) *gin.Engine {
	g := gin.New()
	g.Use(ErrorHandler(false))
	g.GET("/", mw, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": UserID(c).Hex(), "anonymous": Claims(c) == nil})
	})
	return g
}

func do(g *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rw := httptest.NewRecorder()
	g.ServeHTTP(rw, req)
	return rw
}

func TestAuthMiddleware_Rejections(t *testing.T) {
	g := newAuthEngine(AuthMiddleware(&fakeVerifier{}, nil))

	for _, h := range []string{"", "BadHeader", "Bearer ", "Basic abc", "Bearer nope", "Bearer badsubject"} {
		rw := do(g, h)
		require.Equal(t, http.StatusUnauthorized, rw.Code, "header %q", h)
		var body map[string]string
		require.NoError(t, json.Unmarshal(rw.Body.Bytes(), &body))
		require.Equal(t, "UNAUTHORIZED", body["code"])
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	g := newAuthEngine(AuthMiddleware(&fakeVerifier{}, nil))
	rw := do(g, "Bearer goodtoken")
	require.Equal(t, http.StatusOK, rw.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rw.Body.Bytes(), &body))
	require.Equal(t, testUser.Hex(), body["user"])
	require.Equal(t, false, body["anonymous"])
}

func TestAuthMiddleware_RevokedToken(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()
	bl := sessions.NewBlacklist(redis.NewClient(&redis.Options{Addr: m.Addr()}))
	g := newAuthEngine(AuthMiddleware(&fakeVerifier{}, bl))

	require.Equal(t, http.StatusOK, do(g, "Bearer goodtoken").Code)
	require.NoError(t, bl.Revoke(context.Background(), "jti-1", time.Minute))

	rw := do(g, "Bearer goodtoken")
	require.Equal(t, http.StatusUnauthorized, rw.Code)
	require.Contains(t, rw.Body.String(), "token revoked")
}

func TestOptionalAuth(t *testing.T) {
	g := newAuthEngine(OptionalAuth(&fakeVerifier{}, nil))

	rw := do(g, "")
	require.Equal(t, http.StatusOK, rw.Code)
	require.Contains(t, rw.Body.String(), `"anonymous":true`)
	require.Contains(t, rw.Body.String(), primitive.NilObjectID.Hex())

	rw = do(g, "Bearer nope")
	require.Equal(t, http.StatusOK, rw.Code)
	require.Contains(t, rw.Body.String(), `"anonymous":true`)

	rw = do(g, "Bearer goodtoken")
	require.Contains(t, rw.Body.String(), testUser.Hex())
}
