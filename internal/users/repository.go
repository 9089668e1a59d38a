package users

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/forkful/forkful/backend/internal/models"
	"github.com/forkful/forkful/backend/pkg/apperrors"
)

// UserRepository defines persistence operations for users
type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetManyByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*models.User, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, upd ProfileUpdate) (*models.User, error)
	// ToggleFollow flips the follower->target edge and reports whether it now exists.
	ToggleFollow(ctx context.Context, follower, target primitive.ObjectID) (bool, error)
}

// ProfileUpdate holds the optional fields a user may change.
type ProfileUpdate struct {
	Bio    *string
	Avatar *string
}

// MongoUserRepository implements UserRepository using MongoDB
type MongoUserRepository struct {
	col *mongo.Collection
}

// NewMongoUserRepository creates a new repository for the given collection
func NewMongoUserRepository(col *mongo.Collection) *MongoUserRepository {
	return &MongoUserRepository{col: col}
}

var errUserNotFound = apperrors.NotFound("user not found")

func (r *MongoUserRepository) Create(ctx context.Context, u *models.User) error {
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	if u.Followers == nil {
		u.Followers = []primitive.ObjectID{}
	}
	if u.Following == nil {
		u.Following = []primitive.ObjectID{}
	}
	res, err := r.col.InsertOne(ctx, u)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return duplicateError(err.Error())
		}
		return apperrors.Internal("insert user", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		u.ID = oid
	}
	return nil
}

func duplicateError(detail string) error {
	if strings.Contains(detail, "username") {
		return apperrors.Conflict("username already taken")
	}
	return apperrors.Conflict("email already registered")
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	if err := r.col.FindOne(ctx, filter).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errUserNotFound
		}
		return nil, apperrors.Internal("find user", err)
	}
	return &u, nil
}

func (r *MongoUserRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": strings.ToLower(email)})
}

func (r *MongoUserRepository) GetManyByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*models.User, error) {
	if len(ids) == 0 {
		return []*models.User{}, nil
	}
	opts := options.Find().SetProjection(bson.M{"passwordHash": 0})
	cur, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, apperrors.Internal("find users", err)
	}
	out := []*models.User{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, apperrors.Internal("decode users", err)
	}
	return out, nil
}

func (r *MongoUserRepository) UpdateProfile(ctx context.Context, id primitive.ObjectID, upd ProfileUpdate) (*models.User, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if upd.Bio != nil {
		set["bio"] = *upd.Bio
	}
	if upd.Avatar != nil {
		set["avatar"] = *upd.Avatar
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var u models.User
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errUserNotFound
		}
		return nil, apperrors.Internal("update user", err)
	}
	return &u, nil
}

// ToggleFollow flips follower.following with one conditional update; the
// "following: {$ne: target}" guard picks the direction atomically. The
// follower's set is authoritative and target.followers is a mirror: it is
// rewritten from a fresh read of the follower rather than from the direction
// this call took, so interleaved toggles converge on the follower's state.
func (r *MongoUserRepository) ToggleFollow(ctx context.Context, follower, target primitive.ObjectID) (bool, error) {
	now := time.Now().UTC()
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": follower, "following": bson.M{"$ne": target}},
		bson.M{"$addToSet": bson.M{"following": target}, "$set": bson.M{"updatedAt": now}},
	)
	if err != nil {
		return false, apperrors.Internal("follow", err)
	}
	followed := res.MatchedCount == 1
	if !followed {
		res, err = r.col.UpdateOne(ctx,
			bson.M{"_id": follower},
			bson.M{"$pull": bson.M{"following": target}, "$set": bson.M{"updatedAt": now}},
		)
		if err != nil {
			return false, apperrors.Internal("unfollow", err)
		}
		if res.MatchedCount == 0 {
			return false, errUserNotFound
		}
	}
	if err := r.mirrorFollower(ctx, follower, target); err != nil {
		return false, err
	}
	return followed, nil
}

// mirrorFollower makes target.followers agree with follower.following.
func (r *MongoUserRepository) mirrorFollower(ctx context.Context, follower, target primitive.ObjectID) error {
	n, err := r.col.CountDocuments(ctx, bson.M{"_id": follower, "following": target})
	if err != nil {
		return apperrors.Internal("read follow edge", err)
	}
	if _, err := r.col.UpdateOne(ctx, bson.M{"_id": target}, followerMirrorUpdate(follower, n > 0)); err != nil {
		return apperrors.Internal("mirror follow edge", err)
	}
	return nil
}

func followerMirrorUpdate(follower primitive.ObjectID, following bool) bson.M {
	if following {
		return bson.M{"$addToSet": bson.M{"followers": follower}}
	}
	return bson.M{"$pull": bson.M{"followers": follower}}
}
