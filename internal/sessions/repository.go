package sessions

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository persists refresh sessions keyed by token hash. Lookups of an
// unknown or expired hash return (nil, nil).
type Repository interface {
	Create(ctx context.Context, s *Session) error
	GetByHash(ctx context.Context, hash string) (*Session, error)
	// DeleteByHash reports whether this call removed the session.
	DeleteByHash(ctx context.Context, hash string) (bool, error)
}

var (
	_ Repository = (*MongoRepository)(nil)
	_ Repository = (*RedisRepository)(nil)
	_ Repository = (*MemoryRepository)(nil)
)

// MongoRepository is the session store used when Redis is not configured.
type MongoRepository struct {
	col *mongo.Collection
}

func NewMongoRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

// EnsureIndexes creates the unique token index and a TTL index on expiresAt.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "tokenHash", Value: 1}}, Options: options.Index().SetUnique(true).SetName("tokenHash_unique")},
		{Keys: bson.D{{Key: "expiresAt", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0).SetName("expiresAt_ttl")},
	})
	return err
}

func (r *MongoRepository) Create(ctx context.Context, s *Session) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	_, err := r.col.InsertOne(ctx, s)
	return err
}

// lookupFilter matches the hash only while the session is live; the TTL
// monitor removes expired documents with up to a minute of delay.
func lookupFilter(hash string, now time.Time) bson.M {
	return bson.M{"tokenHash": hash, "expiresAt": bson.M{"$gt": now}}
}

func (r *MongoRepository) GetByHash(ctx context.Context, hash string) (*Session, error) {
	var s Session
	err := r.col.FindOne(ctx, lookupFilter(hash, time.Now().UTC())).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *MongoRepository) DeleteByHash(ctx context.Context, hash string) (bool, error) {
	res, err := r.col.DeleteOne(ctx, bson.M{"tokenHash": hash})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}
