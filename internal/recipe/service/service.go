package service

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/forkful/forkful/backend/internal/recipe"
	"github.com/forkful/forkful/backend/pkg/apperrors"
	"github.com/forkful/forkful/backend/pkg/logger"
	"github.com/forkful/forkful/backend/pkg/metrics"
)

// MediaStore uploads normalized images and releases them by URL.
type MediaStore interface {
	Upload(ctx context.Context, raw []byte) (string, error)
	Delete(ctx context.Context, url string) error
}

// Service implements the recipe operations used by the handler layer.
type Service struct {
	repo    recipe.Repository
	media   MediaStore
	authors recipe.AuthorResolver
}

func NewService(repo recipe.Repository, media MediaStore, authors recipe.AuthorResolver) *Service {
	return &Service{repo: repo, media: media, authors: authors}
}

func record(op string, err error) {
	metrics.RecipeOperations.WithLabelValues(op, metrics.Outcome(err)).Inc()
}

// release deletes an asset best-effort.
func (s *Service) release(ctx context.Context, url string) {
	if url == "" || s.media == nil {
		return
	}
	if err := s.media.Delete(ctx, url); err != nil {
		metrics.MediaCleanupFailures.Inc()
		logger.Warnf("media cleanup failed for %s: %v", url, err)
	}
}

func (s *Service) upload(ctx context.Context, image []byte) (string, error) {
	if len(image) == 0 {
		return "", nil
	}
	if s.media == nil {
		return "", apperrors.InvalidInput("image uploads are not enabled")
	}
	return s.media.Upload(ctx, image)
}

func (s *Service) detail(ctx context.Context, r *recipe.Recipe, viewer primitive.ObjectID) (*recipe.Detail, error) {
	authors, err := s.authors.ResolveAuthors(ctx, r.ReferencedUsers())
	if err != nil {
		return nil, err
	}
	return recipe.DetailFor(r, authors, viewer), nil
}

// Create validates the payload before touching media, then persists. If
// persistence fails the uploaded asset is released.
func (s *Service) Create(ctx context.Context, author primitive.ObjectID, raw recipe.RawPayload, image []byte) (d *recipe.Detail, err error) {
	defer func() { record("create", err) }()

	draft, err := recipe.Validate(raw)
	if err != nil {
		return nil, err
	}
	url, err := s.upload(ctx, image)
	if err != nil {
		return nil, err
	}
	r := &recipe.Recipe{
		Title:        draft.Title,
		Description:  draft.Description,
		Ingredients:  draft.Ingredients,
		Instructions: draft.Instructions,
		Tags:         draft.Tags,
		Image:        url,
		Author:       author,
	}
	if err = s.repo.Insert(ctx, r); err != nil {
		s.release(ctx, url)
		return nil, err
	}
	return s.detail(ctx, r, author)
}

func (s *Service) Get(ctx context.Context, id, viewer primitive.ObjectID) (*recipe.Detail, error) {
	r, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, r, viewer)
}

// loadOwned returns the recipe when actor may modify it. Existence is
// checked first so a missing recipe is NotFound for everyone.
func (s *Service) loadOwned(ctx context.Context, id, actor primitive.ObjectID) (*recipe.Recipe, error) {
	r, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !recipe.CanModify(r.Author, actor) {
		return nil, apperrors.Forbidden("only the author can modify this recipe")
	}
	return r, nil
}

// Update replaces the validated fields. A new image replaces the old one, and
// the old asset is released only after the write succeeds.
func (s *Service) Update(ctx context.Context, id, actor primitive.ObjectID, raw recipe.RawPayload, image []byte) (d *recipe.Detail, err error) {
	defer func() { record("update", err) }()

	current, err := s.loadOwned(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	draft, err := recipe.Validate(raw)
	if err != nil {
		return nil, err
	}
	url, err := s.upload(ctx, image)
	if err != nil {
		return nil, err
	}
	var newImage *string
	if url != "" {
		newImage = &url
	}
	updated, err := s.repo.Replace(ctx, id, actor, draft, newImage)
	if err != nil {
		s.release(ctx, url)
		return nil, err
	}
	if newImage != nil && current.Image != url {
		s.release(ctx, current.Image)
	}
	return s.detail(ctx, updated, actor)
}

// Delete removes the recipe, then releases its image.
func (s *Service) Delete(ctx context.Context, id, actor primitive.ObjectID) (err error) {
	defer func() { record("delete", err) }()

	r, err := s.loadOwned(ctx, id, actor)
	if err != nil {
		return err
	}
	if err = s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.release(ctx, r.Image)
	return nil
}

func (s *Service) List(ctx context.Context, q recipe.ListQuery) (*recipe.Page, error) {
	items, total, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []recipe.Summary{}
	}
	return &recipe.Page{Recipes: items, Pagination: recipe.NewPagination(q.Page, q.Limit, total)}, nil
}

type LikeResult struct {
	Liked      bool `json:"liked"`
	LikesCount int  `json:"likesCount"`
}

func (s *Service) ToggleLike(ctx context.Context, id, user primitive.ObjectID) (res *LikeResult, err error) {
	defer func() { record("like", err) }()

	liked, n, err := s.repo.ToggleLike(ctx, id, user)
	if err != nil {
		return nil, err
	}
	return &LikeResult{Liked: liked, LikesCount: n}, nil
}

type RatingResult struct {
	AvgRating    float64 `json:"avgRating"`
	RatingsCount int     `json:"ratingsCount"`
	UserRating   int     `json:"userRating"`
}

func (s *Service) Rate(ctx context.Context, id, user primitive.ObjectID, value int) (res *RatingResult, err error) {
	defer func() { record("rate", err) }()

	if err = recipe.ValidateRating(value); err != nil {
		return nil, err
	}
	r, err := s.repo.UpsertRating(ctx, id, user, value)
	if err != nil {
		return nil, err
	}
	return &RatingResult{
		AvgRating:    recipe.RoundRating(r.AvgRating()),
		RatingsCount: len(r.Ratings),
		UserRating:   r.RatingBy(user),
	}, nil
}

func (s *Service) AddComment(ctx context.Context, id, user primitive.ObjectID, text string) (cv *recipe.CommentView, err error) {
	defer func() { record("comment", err) }()

	text, err = recipe.ValidateComment(text)
	if err != nil {
		return nil, err
	}
	c := recipe.Comment{ID: primitive.NewObjectID(), Author: user, Text: text, CreatedAt: time.Now().UTC()}
	if err = s.repo.AddComment(ctx, id, c); err != nil {
		return nil, err
	}
	authors, err := s.authors.ResolveAuthors(ctx, []primitive.ObjectID{user})
	if err != nil {
		return nil, err
	}
	d := recipe.DetailFor(&recipe.Recipe{Author: user, Comments: []recipe.Comment{c}}, authors, user)
	return &d.Comments[0], nil
}

// DeleteComment is allowed to the comment's author and the recipe's author.
func (s *Service) DeleteComment(ctx context.Context, id, commentID, actor primitive.ObjectID) (err error) {
	defer func() { record("uncomment", err) }()

	r, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	c := r.FindComment(commentID)
	if c == nil {
		return apperrors.NotFound("comment not found")
	}
	if !recipe.CanModify(c.Author, actor) && !recipe.CanModify(r.Author, actor) {
		return apperrors.Forbidden("not allowed to delete this comment")
	}
	return s.repo.RemoveComment(ctx, id, commentID)
}
