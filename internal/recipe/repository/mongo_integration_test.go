package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/forkful/forkful/backend/internal/database"
	"github.com/forkful/forkful/backend/internal/recipe"
)

// Runs against a live server only when FORKFUL_TEST_MONGODB_URI is set.
func newIntegrationRepo(t *testing.T) *MongoRepo {
	t.Helper()
	uri := os.Getenv("FORKFUL_TEST_MONGODB_URI")
	if uri == "" {
		t.Skip("FORKFUL_TEST_MONGODB_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := database.ConnectMongo(ctx, uri, 5*time.Second)
	require.NoError(t, err)
	db := client.Database("forkful_test_" + primitive.NewObjectID().Hex())
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})
	return NewMongoRepo(db)
}

func TestMongoRepoSocialRoundTrip(t *testing.T) {
	repo := newIntegrationRepo(t)
	ctx := context.Background()
	rec := &recipe.Recipe{Title: "Chocolate Cake", Ingredients: []string{"flour"}, Instructions: []string{"bake"}, Author: primitive.NewObjectID()}
	require.NoError(t, repo.Insert(ctx, rec))

	user := primitive.NewObjectID()
	liked, n, err := repo.ToggleLike(ctx, rec.ID, user)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, 1, n)
	liked, n, err = repo.ToggleLike(ctx, rec.ID, user)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Zero(t, n)

	_, err = repo.UpsertRating(ctx, rec.ID, user, 3)
	require.NoError(t, err)
	got, err := repo.UpsertRating(ctx, rec.ID, user, 5)
	require.NoError(t, err)
	require.Len(t, got.Ratings, 1)
	assert.Equal(t, 5, got.Ratings[0].Value)

	list, total, err := repo.List(ctx, recipe.ParseListQuery(recipe.ListParams{Search: "CHOCO"}))
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)
	assert.Equal(t, "Unknown", list[0].Author.Username)
	assert.Equal(t, 5.0, list[0].AvgRating)
}
