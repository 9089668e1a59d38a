package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/forkful/forkful/backend/internal/models"
	"github.com/forkful/forkful/backend/internal/recipe"
)

func TestBuildFilterSearchIsEscapedAndCaseInsensitive(t *testing.T) {
	f := buildFilter(recipe.ListQuery{Search: "choco (dark)", Tag: "dessert"})
	or, ok := f["$or"].(bson.A)
	require.True(t, ok)
	require.Len(t, or, 3)
	rx := or[0].(bson.M)["title"].(primitive.Regex)
	assert.Equal(t, `choco \(dark\)`, rx.Pattern)
	assert.Equal(t, "i", rx.Options)
	assert.Equal(t, "dessert", f["tags"])
	assert.NotContains(t, f, "author")
}

func TestBuildFilterEmpty(t *testing.T) {
	assert.Empty(t, buildFilter(recipe.ListQuery{}))

	user := primitive.NewObjectID()
	f := buildFilter(recipe.ListQuery{Author: user, LikedBy: user})
	assert.Equal(t, user, f["author"])
	assert.Equal(t, user, f["likes"])
}

func TestListPipelineStages(t *testing.T) {
	q := recipe.ParseListQuery(recipe.ListParams{Page: "3", Limit: "5", Sort: "rating", Order: "asc"})
	p := listPipeline(q, "users")
	require.Len(t, p, 7)

	stages := make([]string, len(p))
	for i, st := range p {
		stages[i] = st[0].Key
	}
	assert.Equal(t, []string{"$match", "$addFields", "$sort", "$skip", "$limit", "$lookup", "$project"}, stages)

	sortSpec := p[2][0].Value.(bson.D)
	assert.Equal(t, "avgRating", sortSpec[0].Key)
	assert.Equal(t, 1, sortSpec[0].Value)
	assert.Equal(t, int64(10), p[3][0].Value)
	assert.Equal(t, int64(5), p[4][0].Value)
	assert.Equal(t, "users", p[5][0].Value.(bson.M)["from"])

	proj := p[6][0].Value.(bson.M)
	assert.NotContains(t, proj, "ingredients")
	assert.NotContains(t, proj, "comments")
	assert.Contains(t, proj, "commentsCount")
}

func TestListPipelineSkipNeverNegative(t *testing.T) {
	p := listPipeline(recipe.ParseListQuery(recipe.ListParams{Page: "9223372036854775807", Limit: "50"}), "users")
	skip := p[3][0].Value.(int64)
	assert.Equal(t, int64(recipe.MaxPage-1)*50, skip)
}

func TestListPipelineDefaultSort(t *testing.T) {
	p := listPipeline(recipe.ParseListQuery(recipe.ListParams{}), "users")
	sortSpec := p[2][0].Value.(bson.D)
	assert.Equal(t, "createdAt", sortSpec[0].Key)
	assert.Equal(t, -1, sortSpec[0].Value)
}

func TestSummaryDocAuthorPlaceholder(t *testing.T) {
	author := primitive.NewObjectID()
	d := summaryDoc{AuthorID: author}
	d.AvgRating = 4.333
	s := d.toSummary()
	assert.Equal(t, "Unknown", s.Author.Username)
	assert.Equal(t, author, s.Author.ID)
	assert.Equal(t, 4.3, s.AvgRating)
	assert.Equal(t, []string{}, s.Tags)

	d.AuthorDocs = []models.AuthorSummary{{ID: author, Username: "chef", Avatar: "a.png"}}
	assert.Equal(t, "chef", d.toSummary().Author.Username)
}

func TestSocialUpdatesArePipelines(t *testing.T) {
	user := primitive.NewObjectID()

	like := likeToggle(user)
	require.Len(t, like, 1)
	set := like[0][0].Value.(bson.M)
	cond := set["likes"].(bson.M)["$cond"].(bson.A)
	require.Len(t, cond, 3)
	assert.Contains(t, cond[0].(bson.M), "$in")

	rate := ratingUpsert(user, 4)
	set = rate[0][0].Value.(bson.M)
	parts := set["ratings"].(bson.M)["$concatArrays"].(bson.A)
	require.Len(t, parts, 2)
	assert.Equal(t, bson.A{bson.M{"user": user, "value": 4}}, parts[1])
}

func TestSummaryDocDecodesAggregateShape(t *testing.T) {
	author := primitive.NewObjectID()
	raw, err := bson.Marshal(bson.M{
		"_id":          primitive.NewObjectID(),
		"title":        "Cake",
		"author":       author,
		"avgRating":    4.0,
		"ratingsCount": 2,
		"likesCount":   1,
		"authorDocs":   bson.A{bson.M{"_id": author, "username": "chef"}},
	})
	require.NoError(t, err)

	var d summaryDoc
	require.NoError(t, bson.Unmarshal(raw, &d))
	s := d.toSummary()
	assert.Equal(t, "Cake", s.Title)
	assert.Equal(t, 2, s.RatingsCount)
	assert.Equal(t, "chef", s.Author.Username)
}
