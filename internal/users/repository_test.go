package users

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/forkful/forkful/backend/internal/database"
	"github.com/forkful/forkful/backend/internal/models"
)

func TestFollowerMirrorUpdate(t *testing.T) {
	id := primitive.NewObjectID()
	assert.Equal(t, bson.M{"$addToSet": bson.M{"followers": id}}, followerMirrorUpdate(id, true))
	assert.Equal(t, bson.M{"$pull": bson.M{"followers": id}}, followerMirrorUpdate(id, false))
}

// Runs against a live server only when FORKFUL_TEST_MONGODB_URI is set.
func newIntegrationUserRepo(t *testing.T) *MongoUserRepository {
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
	return NewMongoUserRepository(db.Collection(database.UsersCollection))
}

func TestMongoToggleFollow_ConcurrentTogglesStaySymmetric(t *testing.T) {
	repo := newIntegrationUserRepo(t)
	ctx := context.Background()
	a := &models.User{Username: "alice", Email: "alice@example.com"}
	b := &models.User{Username: "bob", Email: "bob@example.com"}
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))

	var wg sync.WaitGroup
	for i := 0; i < 9; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = repo.ToggleFollow(ctx, a.ID, b.ID)
		}()
	}
	wg.Wait()
	// A trailing toggle pair re-mirrors from the authoritative side.
	_, err := repo.ToggleFollow(ctx, a.ID, b.ID)
	require.NoError(t, err)
	_, err = repo.ToggleFollow(ctx, a.ID, b.ID)
	require.NoError(t, err)

	fa, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	fb, err := repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, indexOf(fa.Following, b.ID) >= 0, indexOf(fb.Followers, a.ID) >= 0)
}

func TestMemoryToggleFollow_ConcurrentTogglesStaySymmetric(t *testing.T) {
	repo := NewMemoryUserRepository()
	ctx := context.Background()
	a := &models.User{Username: "alice", Email: "alice@example.com"}
	b := &models.User{Username: "bob", Email: "bob@example.com"}
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))

	var wg sync.WaitGroup
	for i := 0; i < 9; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = repo.ToggleFollow(ctx, a.ID, b.ID)
		}()
	}
	wg.Wait()

	fa, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	fb, err := repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	// An odd number of toggles leaves the edge in place on both sides.
	assert.Contains(t, fa.Following, b.ID)
	assert.Contains(t, fb.Followers, a.ID)
}
