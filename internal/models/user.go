package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is an application account. PasswordHash never leaves the server.
type User struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Username     string               `bson:"username" json:"username"`
	Email        string               `bson:"email" json:"email"`
	PasswordHash string               `bson:"passwordHash" json:"-"`
	Avatar       string               `bson:"avatar,omitempty" json:"avatar"`
	Bio          string               `bson:"bio,omitempty" json:"bio"`
	Followers    []primitive.ObjectID `bson:"followers" json:"-"`
	Following    []primitive.ObjectID `bson:"following" json:"-"`
	CreatedAt    time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// AuthorSummary is the display-safe projection of a user embedded in
// recipe and comment responses.
type AuthorSummary struct {
	ID       primitive.ObjectID `bson:"_id" json:"id"`
	Username string             `bson:"username" json:"username"`
	Avatar   string             `bson:"avatar" json:"avatar"`
}

// UnknownAuthor is used when an author reference no longer resolves.
func UnknownAuthor(id primitive.ObjectID) AuthorSummary {
	return AuthorSummary{ID: id, Username: "Unknown"}
}

// Summary returns the display-safe projection of u.
func (u *User) Summary() AuthorSummary {
	return AuthorSummary{ID: u.ID, Username: u.Username, Avatar: u.Avatar}
}

// Profile is the public view of a user.
type Profile struct {
	ID             primitive.ObjectID `json:"id"`
	Username       string             `json:"username"`
	Avatar         string             `json:"avatar"`
	Bio            string             `json:"bio"`
	FollowersCount int                `json:"followersCount"`
	FollowingCount int                `json:"followingCount"`
	IsFollowing    bool               `json:"isFollowing"`
	CreatedAt      time.Time          `json:"createdAt"`
}

// ProfileFor builds the public view of u as seen by viewer (zero when anonymous).
func (u *User) ProfileFor(viewer primitive.ObjectID) Profile {
	p := Profile{
		ID:             u.ID,
		Username:       u.Username,
		Avatar:         u.Avatar,
		Bio:            u.Bio,
		FollowersCount: len(u.Followers),
		FollowingCount: len(u.Following),
		CreatedAt:      u.CreatedAt,
	}
	if !viewer.IsZero() {
		for _, f := range u.Followers {
			if f == viewer {
				p.IsFollowing = true
				break
			}
		}
	}
	return p
}
