package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/forkful/forkful/backend/internal/models"
	"github.com/forkful/forkful/backend/internal/recipe"
)

// MemoryRepo is an in-memory recipe.Repository used by tests and by the
// standalone server when no database is configured. Each mutation holds the
// lock for its whole read-modify-write, matching the atomicity of the Mongo
// pipeline updates.
type MemoryRepo struct {
	mu      sync.RWMutex
	store   map[primitive.ObjectID]*recipe.Recipe
	authors recipe.AuthorResolver
}

// NewMemoryRepo creates a repository. authors may be nil, in which case every
// listed author is reported as unknown.
var _ recipe.Repository = (*MemoryRepo)(nil)

func NewMemoryRepo(authors recipe.AuthorResolver) *MemoryRepo {
	return &MemoryRepo{store: make(map[primitive.ObjectID]*recipe.Recipe), authors: authors}
}

func clone(r *recipe.Recipe) *recipe.Recipe {
	c := *r
	c.Ingredients = append([]string(nil), r.Ingredients...)
	c.Instructions = append([]string(nil), r.Instructions...)
	c.Tags = append([]string{}, r.Tags...)
	c.Likes = append([]primitive.ObjectID{}, r.Likes...)
	c.Ratings = append([]recipe.Rating{}, r.Ratings...)
	c.Comments = append([]recipe.Comment{}, r.Comments...)
	return &c
}

func (m *MemoryRepo) Insert(_ context.Context, r *recipe.Recipe) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	r.CreatedAt, r.UpdatedAt = now, now
	stored := clone(r)
	m.store[r.ID] = stored
	*r = *clone(stored)
	return nil
}

func (m *MemoryRepo) Get(_ context.Context, id primitive.ObjectID) (*recipe.Recipe, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.store[id]
	if !ok {
		return nil, errRecipeNotFound
	}
	return clone(r), nil
}

func (m *MemoryRepo) Replace(_ context.Context, id, author primitive.ObjectID, d recipe.Draft, image *string) (*recipe.Recipe, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.store[id]
	if !ok || r.Author != author {
		return nil, errRecipeNotFound
	}
	r.Title = d.Title
	r.Description = d.Description
	r.Ingredients = append([]string(nil), d.Ingredients...)
	r.Instructions = append([]string(nil), d.Instructions...)
	r.Tags = append([]string{}, d.Tags...)
	if image != nil {
		r.Image = *image
	}
	r.UpdatedAt = time.Now().UTC()
	return clone(r), nil
}

func (m *MemoryRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[id]; !ok {
		return errRecipeNotFound
	}
	delete(m.store, id)
	return nil
}

func matches(r *recipe.Recipe, q recipe.ListQuery) bool {
	if q.Search != "" {
		needle := strings.ToLower(q.Search)
		hit := strings.Contains(strings.ToLower(r.Title), needle) ||
			strings.Contains(strings.ToLower(r.Description), needle)
		for _, t := range r.Tags {
			if hit {
				break
			}
			hit = strings.Contains(strings.ToLower(t), needle)
		}
		if !hit {
			return false
		}
	}
	if q.Tag != "" && !contains(r.Tags, q.Tag) {
		return false
	}
	if !q.Author.IsZero() && r.Author != q.Author {
		return false
	}
	if !q.LikedBy.IsZero() && !r.LikedBy(q.LikedBy) {
		return false
	}
	return true
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func less(a, b *recipe.Recipe, key recipe.SortKey) int {
	var ka, kb float64
	if key == recipe.SortRating {
		ka, kb = a.AvgRating(), b.AvgRating()
	} else {
		ka, kb = float64(a.CreatedAt.UnixNano()), float64(b.CreatedAt.UnixNano())
	}
	switch {
	case ka < kb:
		return -1
	case ka > kb:
		return 1
	}
	return strings.Compare(a.ID.Hex(), b.ID.Hex())
}

func (m *MemoryRepo) List(ctx context.Context, q recipe.ListQuery) ([]recipe.Summary, int64, error) {
	m.mu.RLock()
	hits := make([]*recipe.Recipe, 0)
	for _, r := range m.store {
		if matches(r, q) {
			hits = append(hits, clone(r))
		}
	}
	m.mu.RUnlock()

	sort.Slice(hits, func(i, j int) bool {
		return less(hits[i], hits[j], q.Sort)*q.Order < 0
	})

	total := int64(len(hits))
	start := q.Skip()
	if start < 0 || start > total {
		start = total
	}
	end := start + int64(q.Limit)
	if end > total {
		end = total
	}
	page := hits[start:end]

	var authors map[primitive.ObjectID]models.AuthorSummary
	if m.authors != nil && len(page) > 0 {
		ids := make([]primitive.ObjectID, 0, len(page))
		for _, r := range page {
			ids = append(ids, r.Author)
		}
		var err error
		if authors, err = m.authors.ResolveAuthors(ctx, ids); err != nil {
			return nil, 0, err
		}
	}

	out := make([]recipe.Summary, 0, len(page))
	for _, r := range page {
		a, ok := authors[r.Author]
		if !ok {
			a = models.UnknownAuthor(r.Author)
		}
		out = append(out, recipe.Summary{
			ID:            r.ID,
			Author:        a,
			Title:         r.Title,
			Description:   r.Description,
			Image:         r.Image,
			Tags:          r.Tags,
			AvgRating:     recipe.RoundRating(r.AvgRating()),
			RatingsCount:  len(r.Ratings),
			LikesCount:    len(r.Likes),
			CommentsCount: len(r.Comments),
			CreatedAt:     r.CreatedAt,
			UpdatedAt:     r.UpdatedAt,
		})
	}
	return out, total, nil
}

func (m *MemoryRepo) ToggleLike(_ context.Context, id, user primitive.ObjectID) (bool, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.store[id]
	if !ok {
		return false, 0, errRecipeNotFound
	}
	if r.LikedBy(user) {
		kept := r.Likes[:0]
		for _, u := range r.Likes {
			if u != user {
				kept = append(kept, u)
			}
		}
		r.Likes = kept
		return false, len(r.Likes), nil
	}
	r.Likes = append(r.Likes, user)
	return true, len(r.Likes), nil
}

func (m *MemoryRepo) UpsertRating(_ context.Context, id, user primitive.ObjectID, value int) (*recipe.Recipe, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.store[id]
	if !ok {
		return nil, errRecipeNotFound
	}
	kept := make([]recipe.Rating, 0, len(r.Ratings)+1)
	for _, x := range r.Ratings {
		if x.User != user {
			kept = append(kept, x)
		}
	}
	r.Ratings = append(kept, recipe.Rating{User: user, Value: value})
	return clone(r), nil
}

func (m *MemoryRepo) AddComment(_ context.Context, id primitive.ObjectID, c recipe.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.store[id]
	if !ok {
		return errRecipeNotFound
	}
	r.Comments = append(r.Comments, c)
	return nil
}

func (m *MemoryRepo) RemoveComment(_ context.Context, id, commentID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.store[id]
	if !ok || r.FindComment(commentID) == nil {
		return errCommentNotFound
	}
	kept := make([]recipe.Comment, 0, len(r.Comments))
	for _, c := range r.Comments {
		if c.ID != commentID {
			kept = append(kept, c)
		}
	}
	r.Comments = kept
	return nil
}
