package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/forkful/forkful/backend/internal/models"
	"github.com/forkful/forkful/backend/internal/sessions"
	"github.com/forkful/forkful/backend/internal/tokens"
	"github.com/forkful/forkful/backend/internal/users"
	"github.com/forkful/forkful/backend/pkg/apperrors"
	"github.com/forkful/forkful/backend/pkg/logger"
	"github.com/forkful/forkful/backend/pkg/middleware"
)

// AuthHandler holds dependencies
type AuthHandler struct {
	usersSvc    *users.Service
	sessionsSvc *sessions.Service
	tokens      *tokens.Manager
	blacklist   *sessions.Blacklist
}

func NewAuthHandler(u *users.Service, s *sessions.Service, tm *tokens.Manager, bl *sessions.Blacklist) *AuthHandler {
	return &AuthHandler{usersSvc: u, sessionsSvc: s, tokens: tm, blacklist: bl}
}

// Register routes under /auth
func (h *AuthHandler) Register(rg *gin.RouterGroup, auth, optional gin.HandlerFunc) {
	a := rg.Group("/auth")
	a.POST("/register", h.SignUp)
	a.POST("/login", h.Login)
	a.POST("/refresh", h.Refresh)
	a.POST("/logout", optional, h.Logout)
	a.GET("/me", auth, h.Me)
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// logoutRequest carries an optional refresh token to drop with the session.
type logoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// tokenPair issues an access token and a refresh session for u.
func (h *AuthHandler) tokenPair(c *gin.Context, u *models.User) (gin.H, error) {
	access, err := h.tokens.Sign(u)
	if err != nil {
		return nil, apperrors.Internal("sign access token", err)
	}
	refresh, err := h.sessionsSvc.CreateSession(c.Request.Context(), u.ID.Hex())
	if err != nil {
		return nil, apperrors.Internal("create session", err)
	}
	return gin.H{
		"accessToken":  access,
		"refreshToken": refresh,
		"expiresIn":    int(h.tokens.TTL().Seconds()),
		"user":         u,
	}, nil
}

// SignUp creates an account and logs it in.
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req RegisterRequest
	if !middleware.BindJSON(c, &req) {
		return
	}
	u, err := h.usersSvc.Register(c.Request.Context(), users.RegisterInput(req))
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	resp, err := h.tokenPair(c, u)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !middleware.BindJSON(c, &req) {
		return
	}
	u, err := h.usersSvc.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	resp, err := h.tokenPair(c, u)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Refresh rotates a refresh token and returns a new token pair.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if !middleware.BindJSON(c, &req) {
		return
	}
	sess, next, err := h.sessionsSvc.Rotate(c.Request.Context(), req.RefreshToken)
	if err != nil {
		middleware.Fail(c, apperrors.Internal("rotate session", err))
		return
	}
	if sess == nil {
		middleware.Fail(c, apperrors.Unauthorized("invalid refresh token"))
		return
	}
	uid, err := primitive.ObjectIDFromHex(sess.UserID)
	if err != nil {
		middleware.Fail(c, apperrors.Unauthorized("invalid refresh token"))
		return
	}
	u, err := h.usersSvc.GetByID(c.Request.Context(), uid)
	if err != nil {
		if apperrors.CodeOf(err) == apperrors.CodeNotFound {
			err = apperrors.Unauthorized("invalid refresh token")
		}
		middleware.Fail(c, err)
		return
	}
	access, err := h.tokens.Sign(u)
	if err != nil {
		middleware.Fail(c, apperrors.Internal("sign access token", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"accessToken": access, "refreshToken": next, "expiresIn": int(h.tokens.TTL().Seconds())})
}

// Logout drops the refresh session and, when the caller presented a valid
// access token, blacklists it until it would have expired.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req logoutRequest
	_ = c.ShouldBindJSON(&req)

	if claims := middleware.Claims(c); claims != nil && claims.ExpiresAt != nil {
		ttl := time.Until(claims.ExpiresAt.Time)
		if err := h.blacklist.Revoke(c.Request.Context(), claims.ID, ttl); err != nil {
			middleware.Fail(c, apperrors.Internal("blacklist access token", err))
			return
		}
	}
	if req.RefreshToken != "" {
		if err := h.sessionsSvc.DeleteRefresh(c.Request.Context(), req.RefreshToken); err != nil {
			logger.Warnf("failed to remove session: %v", err)
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Me returns the authenticated account.
func (h *AuthHandler) Me(c *gin.Context) {
	u, err := h.usersSvc.GetByID(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}
