package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/forkful/forkful/backend/internal/recipe"
	recipehandler "github.com/forkful/forkful/backend/internal/recipe/handler"
	"github.com/forkful/forkful/backend/internal/recipe/service"
	"github.com/forkful/forkful/backend/internal/users"
	"github.com/forkful/forkful/backend/pkg/apperrors"
	"github.com/forkful/forkful/backend/pkg/middleware"
)

// UsersHandler serves profiles and the follow graph.
type UsersHandler struct {
	users     *users.Service
	recipes   *service.Service
	maxAvatar int64
}

func NewUsersHandler(u *users.Service, r *service.Service, maxAvatarBytes int64) *UsersHandler {
	return &UsersHandler{users: u, recipes: r, maxAvatar: maxAvatarBytes}
}

func (h *UsersHandler) Register(rg *gin.RouterGroup, auth, optional gin.HandlerFunc) {
	u := rg.Group("/users")
	u.PUT("/me", auth, h.UpdateMe)
	u.GET("/:id", optional, h.Profile)
	u.GET("/:id/recipes", h.Recipes)
	u.GET("/:id/followers", h.Followers)
	u.GET("/:id/following", h.Following)
	u.POST("/:id/follow", auth, h.Follow)
}

func userID(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := recipe.ParseID(c.Param("id"), "user")
	if err != nil {
		middleware.Fail(c, err)
		return id, false
	}
	return id, true
}

func (h *UsersHandler) authored(c *gin.Context, id primitive.ObjectID) (*recipe.Page, error) {
	q := recipe.ParseListQuery(recipehandler.ListParams(c))
	q.Author = id
	return h.recipes.List(c.Request.Context(), q)
}

// Profile returns the public profile together with the first page of the
// user's recipes.
func (h *UsersHandler) Profile(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	p, err := h.users.Profile(c.Request.Context(), id, middleware.UserID(c))
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	page, err := h.authored(c, id)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": p, "recipes": page.Recipes, "pagination": page.Pagination})
}

func (h *UsersHandler) Recipes(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	if _, err := h.users.GetByID(c.Request.Context(), id); err != nil {
		middleware.Fail(c, err)
		return
	}
	page, err := h.authored(c, id)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *UsersHandler) Followers(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	list, err := h.users.Followers(c.Request.Context(), id)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": list, "count": len(list)})
}

func (h *UsersHandler) Following(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	list, err := h.users.Following(c.Request.Context(), id)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": list, "count": len(list)})
}

func (h *UsersHandler) Follow(c *gin.Context) {
	id, ok := userID(c)
	if !ok {
		return
	}
	following, n, err := h.users.ToggleFollow(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"following": following, "followersCount": n})
}

// UpdateMe changes the caller's bio and, for multipart bodies, avatar.
func (h *UsersHandler) UpdateMe(c *gin.Context) {
	var (
		bio    *string
		avatar []byte
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxAvatar+(1<<20))
		if v, ok := c.GetPostForm("bio"); ok {
			bio = &v
		}
		fh, err := c.FormFile("avatar")
		switch {
		case err == nil:
			if fh.Size > h.maxAvatar {
				middleware.Fail(c, apperrors.InvalidInput("avatar exceeds %d bytes", h.maxAvatar))
				return
			}
			f, err := fh.Open()
			if err != nil {
				middleware.Fail(c, apperrors.Internal("open upload", err))
				return
			}
			avatar, err = io.ReadAll(io.LimitReader(f, h.maxAvatar+1))
			f.Close()
			if err != nil {
				middleware.Fail(c, apperrors.InvalidInput("invalid avatar upload"))
				return
			}
		case !errors.Is(err, http.ErrMissingFile):
			middleware.Fail(c, apperrors.InvalidInput("invalid avatar upload"))
			return
		}
	} else {
		var req struct {
			Bio *string `json:"bio"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			middleware.Fail(c, apperrors.InvalidInput("malformed JSON body"))
			return
		}
		bio = req.Bio
	}
	u, err := h.users.UpdateProfile(c.Request.Context(), middleware.UserID(c), bio, avatar)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}
