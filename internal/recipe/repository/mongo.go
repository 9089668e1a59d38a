package repository

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"

	"github.com/forkful/forkful/backend/internal/database"
	"github.com/forkful/forkful/backend/internal/models"
	"github.com/forkful/forkful/backend/internal/recipe"
	"github.com/forkful/forkful/backend/pkg/apperrors"
)

var (
	errRecipeNotFound  = apperrors.NotFound("recipe not found")
	errCommentNotFound = apperrors.NotFound("comment not found")
)

// MongoRepo implements recipe.Repository on the recipes collection.
type MongoRepo struct {
	col       *mongo.Collection
	usersFrom string
}

var _ recipe.Repository = (*MongoRepo)(nil)

func NewMongoRepo(db *mongo.Database) *MongoRepo {
	return &MongoRepo{col: db.Collection(database.RecipesCollection), usersFrom: database.UsersCollection}
}

func (m *MongoRepo) Insert(ctx context.Context, r *recipe.Recipe) error {
	now := time.Now().UTC()
	r.CreatedAt, r.UpdatedAt = now, now
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	if r.Likes == nil {
		r.Likes = []primitive.ObjectID{}
	}
	if r.Ratings == nil {
		r.Ratings = []recipe.Rating{}
	}
	if r.Comments == nil {
		r.Comments = []recipe.Comment{}
	}
	if r.Tags == nil {
		r.Tags = []string{}
	}
	if _, err := m.col.InsertOne(ctx, r); err != nil {
		return apperrors.Internal("insert recipe", err)
	}
	return nil
}

func notFoundOr(err error, nf error, op string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nf
	}
	return apperrors.Internal(op, err)
}

func (m *MongoRepo) Get(ctx context.Context, id primitive.ObjectID) (*recipe.Recipe, error) {
	var r recipe.Recipe
	if err := m.col.FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		return nil, notFoundOr(err, errRecipeNotFound, "get recipe")
	}
	return &r, nil
}

func (m *MongoRepo) Replace(ctx context.Context, id, author primitive.ObjectID, d recipe.Draft, image *string) (*recipe.Recipe, error) {
	set := bson.M{
		"title":        d.Title,
		"description":  d.Description,
		"ingredients":  d.Ingredients,
		"instructions": d.Instructions,
		"tags":         d.Tags,
		"updatedAt":    time.Now().UTC(),
	}
	if image != nil {
		set["image"] = *image
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var r recipe.Recipe
	err := m.col.FindOneAndUpdate(ctx, bson.M{"_id": id, "author": author}, bson.M{"$set": set}, opts).Decode(&r)
	if err != nil {
		return nil, notFoundOr(err, errRecipeNotFound, "update recipe")
	}
	return &r, nil
}

func (m *MongoRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := m.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return apperrors.Internal("delete recipe", err)
	}
	if res.DeletedCount == 0 {
		return errRecipeNotFound
	}
	return nil
}

// buildFilter combines search (OR over title, description, tags) with the
// exact tag, author and liked-by filters (AND).
func buildFilter(q recipe.ListQuery) bson.M {
	filter := bson.M{}
	if q.Search != "" {
		rx := primitive.Regex{Pattern: regexp.QuoteMeta(q.Search), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"title": rx},
			bson.M{"description": rx},
			bson.M{"tags": rx},
		}
	}
	if q.Tag != "" {
		filter["tags"] = q.Tag
	}
	if !q.Author.IsZero() {
		filter["author"] = q.Author
	}
	if !q.LikedBy.IsZero() {
		filter["likes"] = q.LikedBy
	}
	return filter
}

func sizeOf(field string) bson.M {
	return bson.M{"$size": bson.M{"$ifNull": bson.A{"$" + field, bson.A{}}}}
}

func listPipeline(q recipe.ListQuery, usersFrom string) mongo.Pipeline {
	sortKey := "createdAt"
	if q.Sort == recipe.SortRating {
		sortKey = "avgRating"
	}
	return mongo.Pipeline{
		{{Key: "$match", Value: buildFilter(q)}},
		{{Key: "$addFields", Value: bson.M{
			"avgRating": bson.M{"$ifNull": bson.A{bson.M{"$avg": "$ratings.value"}, 0}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: sortKey, Value: q.Order}, {Key: "_id", Value: q.Order}}}},
		{{Key: "$skip", Value: q.Skip()}},
		{{Key: "$limit", Value: int64(q.Limit)}},
		{{Key: "$lookup", Value: bson.M{
			"from":         usersFrom,
			"localField":   "author",
			"foreignField": "_id",
			"as":           "authorDocs",
		}}},
		{{Key: "$project", Value: bson.M{
			"title":               1,
			"description":         1,
			"image":               1,
			"tags":                1,
			"author":              1,
			"avgRating":           1,
			"createdAt":           1,
			"updatedAt":           1,
			"ratingsCount":        sizeOf("ratings"),
			"likesCount":          sizeOf("likes"),
			"commentsCount":       sizeOf("comments"),
			"authorDocs._id":      1,
			"authorDocs.username": 1,
			"authorDocs.avatar":   1,
		}}},
	}
}

type summaryDoc struct {
	recipe.Summary `bson:",inline"`
	AuthorID       primitive.ObjectID     `bson:"author"`
	AuthorDocs     []models.AuthorSummary `bson:"authorDocs"`
}

func (d *summaryDoc) toSummary() recipe.Summary {
	s := d.Summary
	if len(d.AuthorDocs) > 0 {
		s.Author = d.AuthorDocs[0]
	} else {
		s.Author = models.UnknownAuthor(d.AuthorID)
	}
	if s.Tags == nil {
		s.Tags = []string{}
	}
	s.AvgRating = recipe.RoundRating(s.AvgRating)
	return s
}

// List runs the page aggregation and the count concurrently against the same
// filter. The two reads are not a snapshot.
func (m *MongoRepo) List(ctx context.Context, q recipe.ListQuery) ([]recipe.Summary, int64, error) {
	var (
		docs  []summaryDoc
		total int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cur, err := m.col.Aggregate(gctx, listPipeline(q, m.usersFrom))
		if err != nil {
			return err
		}
		return cur.All(gctx, &docs)
	})
	g.Go(func() error {
		n, err := m.col.CountDocuments(gctx, buildFilter(q))
		total = n
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, 0, apperrors.Internal("list recipes", err)
	}
	out := make([]recipe.Summary, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toSummary())
	}
	return out, total, nil
}

func orEmpty(field string) bson.M {
	return bson.M{"$ifNull": bson.A{"$" + field, bson.A{}}}
}

// likeToggle removes user from likes when present and appends it otherwise,
// in one pipeline update.
func likeToggle(user primitive.ObjectID) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"likes": bson.M{"$cond": bson.A{
				bson.M{"$in": bson.A{user, orEmpty("likes")}},
				bson.M{"$filter": bson.M{"input": orEmpty("likes"), "cond": bson.M{"$ne": bson.A{"$$this", user}}}},
				bson.M{"$concatArrays": bson.A{orEmpty("likes"), bson.A{user}}},
			}},
		}}},
	}
}

// ratingUpsert drops any previous rating by user and appends the new one.
func ratingUpsert(user primitive.ObjectID, value int) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"ratings": bson.M{"$concatArrays": bson.A{
				bson.M{"$filter": bson.M{"input": orEmpty("ratings"), "cond": bson.M{"$ne": bson.A{"$$this.user", user}}}},
				bson.A{bson.M{"user": user, "value": value}},
			}},
		}}},
	}
}

func (m *MongoRepo) ToggleLike(ctx context.Context, id, user primitive.ObjectID) (bool, int, error) {
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"likes": 1})
	var r recipe.Recipe
	if err := m.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, likeToggle(user), opts).Decode(&r); err != nil {
		return false, 0, notFoundOr(err, errRecipeNotFound, "toggle like")
	}
	return r.LikedBy(user), len(r.Likes), nil
}

func (m *MongoRepo) UpsertRating(ctx context.Context, id, user primitive.ObjectID, value int) (*recipe.Recipe, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var r recipe.Recipe
	if err := m.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, ratingUpsert(user, value), opts).Decode(&r); err != nil {
		return nil, notFoundOr(err, errRecipeNotFound, "rate recipe")
	}
	return &r, nil
}

func (m *MongoRepo) AddComment(ctx context.Context, id primitive.ObjectID, c recipe.Comment) error {
	res, err := m.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$push": bson.M{"comments": c}})
	if err != nil {
		return apperrors.Internal("add comment", err)
	}
	if res.MatchedCount == 0 {
		return errRecipeNotFound
	}
	return nil
}

func (m *MongoRepo) RemoveComment(ctx context.Context, id, commentID primitive.ObjectID) error {
	res, err := m.col.UpdateOne(ctx,
		bson.M{"_id": id, "comments._id": commentID},
		bson.M{"$pull": bson.M{"comments": bson.M{"_id": commentID}}},
	)
	if err != nil {
		return apperrors.Internal("remove comment", err)
	}
	if res.MatchedCount == 0 {
		return errCommentNotFound
	}
	return nil
}
