package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/forkful/forkful/backend/internal/tokens"
	"github.com/forkful/forkful/backend/pkg/apperrors"
	"github.com/forkful/forkful/backend/pkg/logger"
)

const (
	ContextUserID = "userID"
	ContextClaims = "claims"
)

// Verifier checks an access token and returns its claims.
type Verifier interface {
	Verify(ctx context.Context, raw string) (*tokens.Claims, error)
}

// RevocationChecker reports whether a token id was revoked at logout.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

func bearerToken(c *gin.Context) (string, error) {
	auth := c.GetHeader("Authorization")
	if auth == "" {
		return "", apperrors.Unauthorized("missing Authorization header")
	}
	scheme, token, ok := strings.Cut(auth, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", apperrors.Unauthorized("invalid Authorization header")
	}
	return strings.TrimSpace(token), nil
}

func authenticate(c *gin.Context, ver Verifier, revoked RevocationChecker, raw string) error {
	claims, err := ver.Verify(c.Request.Context(), raw)
	if err != nil {
		return err
	}
	uid, err := primitive.ObjectIDFromHex(claims.Subject)
	if err != nil {
		return apperrors.Unauthorized("invalid token")
	}
	if revoked != nil {
		gone, err := revoked.IsRevoked(c.Request.Context(), claims.ID)
		if err != nil {
			logger.Warnf("blacklist lookup failed: %v", err)
		} else if gone {
			return apperrors.Unauthorized("token revoked")
		}
	}
	c.Set(ContextUserID, uid)
	c.Set(ContextClaims, claims)
	return nil
}

// AuthMiddleware rejects requests without a valid, unrevoked Bearer token and
// stores the caller's id and claims in the context. Requests already
// identified by OptionalAuth pass through.
func AuthMiddleware(ver Verifier, revoked RevocationChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !UserID(c).IsZero() {
			c.Next()
			return
		}
		raw, err := bearerToken(c)
		if err == nil {
			err = authenticate(c, ver, revoked, raw)
		}
		if err != nil {
			Fail(c, err)
			return
		}
		c.Next()
	}
}

// OptionalAuth identifies the caller when a valid token is present and lets
// anonymous requests through otherwise.
func OptionalAuth(ver Verifier, revoked RevocationChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if raw, err := bearerToken(c); err == nil {
			if err := authenticate(c, ver, revoked, raw); err != nil {
				logger.Debugf("ignoring bad optional token: %v", err)
			}
		}
		c.Next()
	}
}

// UserID returns the authenticated caller, or the zero id.
func UserID(c *gin.Context) primitive.ObjectID {
	if v, ok := c.Get(ContextUserID); ok {
		if id, ok := v.(primitive.ObjectID); ok {
			return id
		}
	}
	return primitive.NilObjectID
}

// Claims returns the verified claims, or nil for anonymous requests.
func Claims(c *gin.Context) *tokens.Claims {
	if v, ok := c.Get(ContextClaims); ok {
		if cl, ok := v.(*tokens.Claims); ok {
			return cl
		}
	}
	return nil
}
