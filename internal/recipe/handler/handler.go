package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/forkful/forkful/backend/internal/recipe"
	"github.com/forkful/forkful/backend/internal/recipe/service"
	"github.com/forkful/forkful/backend/pkg/apperrors"
	"github.com/forkful/forkful/backend/pkg/middleware"
)

// Handler serves the /recipes routes.
type Handler struct {
	svc      *service.Service
	maxImage int64
}

func New(svc *service.Service, maxImageBytes int64) *Handler {
	return &Handler{svc: svc, maxImage: maxImageBytes}
}

// RegisterRoutes mounts the recipe routes on rg. auth rejects anonymous
// callers; optional only identifies them.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, auth, optional gin.HandlerFunc) {
	r := rg.Group("/recipes")
	r.GET("", h.list)
	r.GET("/liked", auth, h.liked)
	r.GET("/:id", optional, h.get)
	r.POST("", auth, h.create)
	r.PUT("/:id", auth, h.update)
	r.DELETE("/:id", auth, h.delete)
	r.POST("/:id/like", auth, h.like)
	r.POST("/:id/rate", auth, h.rate)
	r.POST("/:id/comment", auth, h.comment)
	r.DELETE("/:id/comment/:commentId", auth, h.deleteComment)
}

// ListParams reads the listing query string.
func ListParams(c *gin.Context) recipe.ListParams {
	return recipe.ListParams{
		Search: c.Query("search"),
		Tag:    c.Query("tag"),
		Page:   c.Query("page"),
		Limit:  c.Query("limit"),
		Sort:   c.Query("sort"),
		Order:  c.Query("order"),
	}
}

func (h *Handler) list(c *gin.Context) {
	page, err := h.svc.List(c.Request.Context(), recipe.ParseListQuery(ListParams(c)))
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) liked(c *gin.Context) {
	q := recipe.ParseListQuery(ListParams(c))
	q.LikedBy = middleware.UserID(c)
	page, err := h.svc.List(c.Request.Context(), q)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func recipeID(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := recipe.ParseID(c.Param("id"), "recipe")
	if err != nil {
		middleware.Fail(c, err)
		return id, false
	}
	return id, true
}

func (h *Handler) get(c *gin.Context) {
	id, ok := recipeID(c)
	if !ok {
		return
	}
	d, err := h.svc.Get(c.Request.Context(), id, middleware.UserID(c))
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

type jsonPayload struct {
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Ingredients  json.RawMessage `json:"ingredients"`
	Instructions json.RawMessage `json:"instructions"`
	Tags         json.RawMessage `json:"tags"`
}

// listField accepts a list either inline or already serialized into a string.
func listField(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	if string(raw) == "null" {
		return ""
	}
	return string(raw)
}

// readPayload accepts multipart forms with an optional "image" file, and
// plain JSON bodies.
func (h *Handler) readPayload(c *gin.Context) (recipe.RawPayload, []byte, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxImage+(1<<20))
		raw := recipe.RawPayload{
			Title:        c.PostForm("title"),
			Description:  c.PostForm("description"),
			Ingredients:  c.PostForm("ingredients"),
			Instructions: c.PostForm("instructions"),
			Tags:         c.PostForm("tags"),
		}
		if c.Request.MultipartForm == nil {
			return raw, nil, apperrors.InvalidInput("malformed multipart body")
		}
		img, err := h.readImage(c)
		return raw, img, err
	}
	var body jsonPayload
	if err := c.ShouldBindJSON(&body); err != nil {
		return recipe.RawPayload{}, nil, apperrors.InvalidInput("malformed JSON body")
	}
	return recipe.RawPayload{
		Title:        body.Title,
		Description:  body.Description,
		Ingredients:  listField(body.Ingredients),
		Instructions: listField(body.Instructions),
		Tags:         listField(body.Tags),
	}, nil, nil
}

func (h *Handler) readImage(c *gin.Context) ([]byte, error) {
	fh, err := c.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, apperrors.InvalidInput("invalid image upload")
	}
	if fh.Size > h.maxImage {
		return nil, apperrors.InvalidInput("image exceeds %d bytes", h.maxImage)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, apperrors.Internal("open upload", err)
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, h.maxImage+1))
}

func (h *Handler) create(c *gin.Context) {
	raw, img, err := h.readPayload(c)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	d, err := h.svc.Create(c.Request.Context(), middleware.UserID(c), raw, img)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

func (h *Handler) update(c *gin.Context) {
	id, ok := recipeID(c)
	if !ok {
		return
	}
	raw, img, err := h.readPayload(c)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	d, err := h.svc.Update(c.Request.Context(), id, middleware.UserID(c), raw, img)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *Handler) delete(c *gin.Context) {
	id, ok := recipeID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id, middleware.UserID(c)); err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "recipe deleted"})
}

func (h *Handler) like(c *gin.Context) {
	id, ok := recipeID(c)
	if !ok {
		return
	}
	res, err := h.svc.ToggleLike(c.Request.Context(), id, middleware.UserID(c))
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) rate(c *gin.Context) {
	id, ok := recipeID(c)
	if !ok {
		return
	}
	var req struct {
		Value  *int `json:"value" binding:"required_without=Rating,omitempty,min=1,max=5"`
		Rating *int `json:"rating" binding:"required_without=Value,omitempty,min=1,max=5"`
	}
	if !middleware.BindJSON(c, &req) {
		return
	}
	v := req.Value
	if v == nil {
		v = req.Rating
	}
	res, err := h.svc.Rate(c.Request.Context(), id, middleware.UserID(c), *v)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) comment(c *gin.Context) {
	id, ok := recipeID(c)
	if !ok {
		return
	}
	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if !middleware.BindJSON(c, &req) {
		return
	}
	cv, err := h.svc.AddComment(c.Request.Context(), id, middleware.UserID(c), req.Text)
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, cv)
}

func (h *Handler) deleteComment(c *gin.Context) {
	id, ok := recipeID(c)
	if !ok {
		return
	}
	cid, err := recipe.ParseID(c.Param("commentId"), "comment")
	if err != nil {
		middleware.Fail(c, err)
		return
	}
	if err := h.svc.DeleteComment(c.Request.Context(), id, cid, middleware.UserID(c)); err != nil {
		middleware.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "comment deleted"})
}
