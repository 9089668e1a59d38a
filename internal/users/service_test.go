package users

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/forkful/forkful/backend/internal/media"
	"github.com/forkful/forkful/backend/internal/models"
	"github.com/forkful/forkful/backend/pkg/apperrors"
)

func newTestService(t *testing.T) (*Service, *media.MemoryStore) {
	t.Helper()
	store := media.NewMemoryStore("http://media.local")
	svc := NewService(NewMemoryUserRepository(), media.NewService(store, "avatars", media.DefaultConstraints))
	svc.SetHashCost(bcrypt.MinCost)
	return svc, store
}

func register(t *testing.T, svc *Service, name string) *models.User {
	t.Helper()
	u, err := svc.Register(context.Background(), RegisterInput{Username: name, Email: name + "@example.com", Password: "secret123"})
	require.NoError(t, err)
	return u
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8))))
	return buf.Bytes()
}

func TestRegister(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{Username: " chef_anna ", Email: "Anna@Example.com", Password: "secret123"})
	require.NoError(t, err)
	require.False(t, u.ID.IsZero())
	require.Equal(t, "chef_anna", u.Username)
	require.Equal(t, "anna@example.com", u.Email)
	require.NotEqual(t, "secret123", u.PasswordHash)

	_, err = svc.Register(ctx, RegisterInput{Username: "chef_anna", Email: "other@example.com", Password: "secret123"})
	require.True(t, errors.Is(err, apperrors.ErrConflict))

	_, err = svc.Register(ctx, RegisterInput{Username: "other", Email: "anna@example.com", Password: "secret123"})
	require.True(t, errors.Is(err, apperrors.ErrConflict))
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	cases := []RegisterInput{
		{Username: "ab", Email: "ab@example.com", Password: "secret123"},
		{Username: "has space", Email: "x@example.com", Password: "secret123"},
		{Username: "valid", Email: "not-an-email", Password: "secret123"},
		{Username: "valid", Email: "valid@example.com", Password: "123"},
	}
	for _, in := range cases {
		_, err := svc.Register(ctx, in)
		require.True(t, errors.Is(err, apperrors.ErrInvalidInput), "%+v", in)
	}
}

func TestAuthenticate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	register(t, svc, "baker")

	u, err := svc.Authenticate(ctx, "BAKER@example.com", "secret123")
	require.NoError(t, err)
	require.Equal(t, "baker", u.Username)

	_, err = svc.Authenticate(ctx, "baker@example.com", "wrong")
	require.True(t, errors.Is(err, apperrors.ErrUnauthorized))

	_, err = svc.Authenticate(ctx, "nobody@example.com", "secret123")
	require.True(t, errors.Is(err, apperrors.ErrUnauthorized))
	require.Equal(t, "invalid email or password", apperrors.MessageOf(err))
}

func TestToggleFollow_SymmetricAndIdempotent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	a := register(t, svc, "alice")
	b := register(t, svc, "bob")

	following, count, err := svc.ToggleFollow(ctx, a.ID, b.ID)
	require.NoError(t, err)
	require.True(t, following)
	require.Equal(t, 1, count)

	followers, err := svc.Followers(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, followers, 1)
	require.Equal(t, "alice", followers[0].Username)

	followingList, err := svc.Following(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, followingList, 1)
	require.Equal(t, "bob", followingList[0].Username)

	p, err := svc.Profile(ctx, b.ID, a.ID)
	require.NoError(t, err)
	require.True(t, p.IsFollowing)

	following, count, err = svc.ToggleFollow(ctx, a.ID, b.ID)
	require.NoError(t, err)
	require.False(t, following)
	require.Equal(t, 0, count)

	followingList, err = svc.Following(ctx, a.ID)
	require.NoError(t, err)
	require.Empty(t, followingList)
}

func TestToggleFollow_Errors(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	a := register(t, svc, "alice")

	_, _, err := svc.ToggleFollow(ctx, a.ID, a.ID)
	require.True(t, errors.Is(err, apperrors.ErrInvalidInput))

	_, _, err = svc.ToggleFollow(ctx, a.ID, primitive.NewObjectID())
	require.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestUpdateProfile_ReplacesAvatarAfterCommit(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	u := register(t, svc, "carol")

	bio := "  I bake bread  "
	u1, err := svc.UpdateProfile(ctx, u.ID, &bio, pngBytes(t))
	require.NoError(t, err)
	require.Equal(t, "I bake bread", u1.Bio)
	require.True(t, store.Has(u1.Avatar))

	u2, err := svc.UpdateProfile(ctx, u.ID, nil, pngBytes(t))
	require.NoError(t, err)
	require.NotEqual(t, u1.Avatar, u2.Avatar)
	require.True(t, store.Has(u2.Avatar))
	require.False(t, store.Has(u1.Avatar))
	require.Equal(t, "I bake bread", u2.Bio)
}

func TestResolveAuthors(t *testing.T) {
	svc, _ := newTestService(t)
	a := register(t, svc, "alice")
	missing := primitive.NewObjectID()

	got, err := svc.ResolveAuthors(context.Background(), []primitive.ObjectID{a.ID, missing})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "alice", got[a.ID].Username)
}
