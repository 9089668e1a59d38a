package recipe

import (
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/forkful/forkful/backend/internal/models"
)

// Recipe is the persisted recipe document. Comments, ratings and likes are
// embedded sub-documents.
type Recipe struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Title        string               `bson:"title" json:"title"`
	Description  string               `bson:"description" json:"description"`
	Ingredients  []string             `bson:"ingredients" json:"ingredients"`
	Instructions []string             `bson:"instructions" json:"instructions"`
	Tags         []string             `bson:"tags" json:"tags"`
	Image        string               `bson:"image,omitempty" json:"image,omitempty"`
	Author       primitive.ObjectID   `bson:"author" json:"author"`
	Likes        []primitive.ObjectID `bson:"likes" json:"likes"`
	Ratings      []Rating             `bson:"ratings" json:"-"`
	Comments     []Comment            `bson:"comments" json:"-"`
	CreatedAt    time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// Rating is one user's score; a recipe holds at most one per user.
type Rating struct {
	User  primitive.ObjectID `bson:"user" json:"user"`
	Value int                `bson:"value" json:"value"`
}

type Comment struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	Author    primitive.ObjectID `bson:"author" json:"author"`
	Text      string             `bson:"text" json:"text"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// AvgRating is sum/count of ratings, or 0 with no ratings.
func (r *Recipe) AvgRating() float64 {
	return average(r.Ratings)
}

func average(rs []Rating) float64 {
	if len(rs) == 0 {
		return 0
	}
	sum := 0
	for _, x := range rs {
		sum += x.Value
	}
	return float64(sum) / float64(len(rs))
}

// RoundRating rounds to one decimal place.
func RoundRating(v float64) float64 {
	return math.Round(v*10) / 10
}

// LikedBy reports whether user has liked the recipe.
func (r *Recipe) LikedBy(user primitive.ObjectID) bool {
	for _, id := range r.Likes {
		if id == user {
			return true
		}
	}
	return false
}

// RatingBy returns user's rating, or 0 when absent.
func (r *Recipe) RatingBy(user primitive.ObjectID) int {
	for _, x := range r.Ratings {
		if x.User == user {
			return x.Value
		}
	}
	return 0
}

// FindComment returns the comment with id, or nil.
func (r *Recipe) FindComment(id primitive.ObjectID) *Comment {
	for i := range r.Comments {
		if r.Comments[i].ID == id {
			return &r.Comments[i]
		}
	}
	return nil
}

// Summary is the listing projection: no ingredient, instruction or comment bodies.
type Summary struct {
	ID            primitive.ObjectID   `bson:"_id" json:"id"`
	Author        models.AuthorSummary `bson:"-" json:"author"`
	Title         string               `bson:"title" json:"title"`
	Description   string               `bson:"description" json:"description"`
	Image         string               `bson:"image" json:"image,omitempty"`
	Tags          []string             `bson:"tags" json:"tags"`
	AvgRating     float64              `bson:"avgRating" json:"avgRating"`
	RatingsCount  int                  `bson:"ratingsCount" json:"ratingsCount"`
	LikesCount    int                  `bson:"likesCount" json:"likesCount"`
	CommentsCount int                  `bson:"commentsCount" json:"commentsCount"`
	CreatedAt     time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// CommentView is a comment with its author expanded.
type CommentView struct {
	ID        primitive.ObjectID   `json:"id"`
	Author    models.AuthorSummary `json:"author"`
	Text      string               `json:"text"`
	CreatedAt time.Time            `json:"createdAt"`
}

// Detail is the single-recipe response.
type Detail struct {
	ID            primitive.ObjectID   `json:"id"`
	Title         string               `json:"title"`
	Description   string               `json:"description"`
	Ingredients   []string             `json:"ingredients"`
	Instructions  []string             `json:"instructions"`
	Tags          []string             `json:"tags"`
	Image         string               `json:"image,omitempty"`
	Author        models.AuthorSummary `json:"author"`
	Likes         []primitive.ObjectID `json:"likes"`
	LikesCount    int                  `json:"likesCount"`
	LikedByMe     bool                 `json:"likedByMe"`
	AvgRating     float64              `json:"avgRating"`
	RatingsCount  int                  `json:"ratingsCount"`
	MyRating      int                  `json:"myRating,omitempty"`
	Comments      []CommentView        `json:"comments"`
	CommentsCount int                  `json:"commentsCount"`
	CreatedAt     time.Time            `json:"createdAt"`
	UpdatedAt     time.Time            `json:"updatedAt"`
}

// DetailFor expands r for viewer using the resolved authors. Unresolved
// author ids become the "Unknown" placeholder.
func DetailFor(r *Recipe, authors map[primitive.ObjectID]models.AuthorSummary, viewer primitive.ObjectID) *Detail {
	lookup := func(id primitive.ObjectID) models.AuthorSummary {
		if a, ok := authors[id]; ok {
			return a
		}
		return models.UnknownAuthor(id)
	}
	comments := make([]CommentView, 0, len(r.Comments))
	for _, c := range r.Comments {
		comments = append(comments, CommentView{ID: c.ID, Author: lookup(c.Author), Text: c.Text, CreatedAt: c.CreatedAt})
	}
	likes := r.Likes
	if likes == nil {
		likes = []primitive.ObjectID{}
	}
	d := &Detail{
		ID:            r.ID,
		Title:         r.Title,
		Description:   r.Description,
		Ingredients:   r.Ingredients,
		Instructions:  r.Instructions,
		Tags:          nonNil(r.Tags),
		Image:         r.Image,
		Author:        lookup(r.Author),
		Likes:         likes,
		LikesCount:    len(r.Likes),
		AvgRating:     RoundRating(r.AvgRating()),
		RatingsCount:  len(r.Ratings),
		Comments:      comments,
		CommentsCount: len(r.Comments),
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
	if !viewer.IsZero() {
		d.LikedByMe = r.LikedBy(viewer)
		d.MyRating = r.RatingBy(viewer)
	}
	return d
}

// ReferencedUsers returns the author and every comment author, deduplicated.
func (r *Recipe) ReferencedUsers() []primitive.ObjectID {
	seen := map[primitive.ObjectID]bool{r.Author: true}
	ids := []primitive.ObjectID{r.Author}
	for _, c := range r.Comments {
		if !seen[c.Author] {
			seen[c.Author] = true
			ids = append(ids, c.Author)
		}
	}
	return ids
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// Pagination is the listing metadata.
type Pagination struct {
	Page    int   `json:"page"`
	Limit   int   `json:"limit"`
	Total   int64 `json:"total"`
	Pages   int   `json:"pages"`
	HasNext bool  `json:"hasNext"`
	HasPrev bool  `json:"hasPrev"`
}

// NewPagination derives page counts from total.
func NewPagination(page, limit int, total int64) Pagination {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{
		Page:    page,
		Limit:   limit,
		Total:   total,
		Pages:   pages,
		HasNext: page < pages,
		HasPrev: page > 1,
	}
}

// Page is one page of a listing.
type Page struct {
	Recipes    []Summary  `json:"recipes"`
	Pagination Pagination `json:"pagination"`
}
