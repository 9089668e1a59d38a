package tokens

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/forkful/forkful/backend/internal/config"
	"github.com/forkful/forkful/backend/internal/models"
	"github.com/forkful/forkful/backend/pkg/apperrors"
)

const issuer = "forkful-api"

// Claims carried by access tokens. Subject is the user's hex ObjectID.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// GenerateAccessToken creates a signed JWT access token for the user
func GenerateAccessToken(secret string, u *models.User, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Username: u.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.Hex(),
			Issuer:    issuer,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	jt := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return jt.SignedString([]byte(secret))
}

// ParseAccessToken verifies signature, algorithm and expiry. Every failure
// is reported as Unauthorized.
func ParseAccessToken(secret, raw string) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.Wrap(apperrors.CodeUnauthorized, "token expired", err)
		}
		return nil, apperrors.Wrap(apperrors.CodeUnauthorized, "invalid token", err)
	}
	if claims.Subject == "" {
		return nil, apperrors.Unauthorized("token has no subject")
	}
	return &claims, nil
}

// Manager signs and verifies access tokens with the configured secret.
type Manager struct {
	secret string
	ttl    time.Duration
}

func NewManager(cfg *config.Config) *Manager {
	return &Manager{secret: cfg.JWT.Secret, ttl: cfg.JWT.AccessTokenTTL}
}

// TTL is the lifetime of issued access tokens.
func (m *Manager) TTL() time.Duration { return m.ttl }

func (m *Manager) Sign(u *models.User) (string, error) {
	return GenerateAccessToken(m.secret, u, m.ttl)
}

func (m *Manager) Verify(_ context.Context, raw string) (*Claims, error) {
	return ParseAccessToken(m.secret, raw)
}
