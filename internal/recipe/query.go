package recipe

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	DefaultLimit = 12
	MaxLimit     = 50
	// MaxPage keeps (page-1)*limit well inside int64. Pages past the last
	// match are simply empty.
	MaxPage = math.MaxInt32
)

type SortKey string

const (
	SortCreatedAt SortKey = "createdAt"
	SortRating    SortKey = "rating"
)

// ListQuery selects a page of recipe summaries.
type ListQuery struct {
	Search string
	Tag    string
	Page   int
	Limit  int
	Sort   SortKey
	// Order is 1 for ascending, -1 for descending.
	Order int

	// Author restricts to one author's recipes.
	Author primitive.ObjectID
	// LikedBy restricts to recipes the user has liked.
	LikedBy primitive.ObjectID
}

// Skip is the number of documents before this page.
func (q ListQuery) Skip() int64 {
	if q.Page <= 1 || q.Limit <= 0 {
		return 0
	}
	return int64(min(q.Page, MaxPage)-1) * int64(q.Limit)
}

// ListParams are the raw query string values.
type ListParams struct {
	Search string
	Tag    string
	Page   string
	Limit  string
	Sort   string
	Order  string
}

// ParseListQuery applies defaults and clamps out-of-range values.
func ParseListQuery(p ListParams) ListQuery {
	q := ListQuery{
		Search: strings.TrimSpace(p.Search),
		Tag:    strings.ToLower(strings.TrimSpace(p.Tag)),
		Page:   1,
		Limit:  DefaultLimit,
		Sort:   SortCreatedAt,
		Order:  -1,
	}
	page := strings.TrimSpace(p.Page)
	n, err := strconv.ParseInt(page, 10, 64)
	switch {
	case err == nil && n > 1:
		q.Page = int(min(n, MaxPage))
	case errors.Is(err, strconv.ErrRange) && !strings.HasPrefix(page, "-"):
		q.Page = MaxPage
	}
	if n, err := strconv.Atoi(p.Limit); err == nil {
		switch {
		case n < 1:
			q.Limit = 1
		case n > MaxLimit:
			q.Limit = MaxLimit
		default:
			q.Limit = n
		}
	}
	if SortKey(p.Sort) == SortRating {
		q.Sort = SortRating
	}
	if strings.EqualFold(p.Order, "asc") {
		q.Order = 1
	}
	return q
}
