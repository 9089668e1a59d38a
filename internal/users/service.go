package users

import (
	"context"
	"errors"
	"net/mail"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/forkful/forkful/backend/internal/models"
	"github.com/forkful/forkful/backend/pkg/apperrors"
	"github.com/forkful/forkful/backend/pkg/logger"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,30}$`)

const (
	minPasswordLen = 6
	maxBioLen      = 300
)

// ImageUploader stores avatar images.
type ImageUploader interface {
	Upload(ctx context.Context, raw []byte) (string, error)
	Delete(ctx context.Context, url string) error
}

// Service encapsulates user-related business logic
type Service struct {
	repo     UserRepository
	images   ImageUploader
	hashCost int
}

func NewService(r UserRepository, images ImageUploader) *Service {
	return &Service{repo: r, images: images, hashCost: bcrypt.DefaultCost}
}

// SetHashCost overrides the bcrypt cost; tests use bcrypt.MinCost.
func (s *Service) SetHashCost(cost int) { s.hashCost = cost }

// RegisterInput is the raw registration payload.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// Register validates the payload, hashes the password and creates the user.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if !usernamePattern.MatchString(username) {
		return nil, apperrors.InvalidInput("username must be 3-30 letters, digits or underscores")
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, apperrors.InvalidInput("email is invalid")
	}
	if len(in.Password) < minPasswordLen {
		return nil, apperrors.InvalidInput("password must be at least %d characters", minPasswordLen)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, apperrors.Internal("hash password", err)
	}
	u := &models.User{Username: username, Email: email, PasswordHash: string(hash)}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

var errBadCredentials = apperrors.Unauthorized("invalid email or password")

// Authenticate checks credentials. Unknown email and wrong password are
// indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	u, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, errBadCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, errBadCredentials
	}
	return u, nil
}

func (s *Service) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.repo.GetByID(ctx, id)
}

// Profile returns the public view of id as seen by viewer.
func (s *Service) Profile(ctx context.Context, id, viewer primitive.ObjectID) (*models.Profile, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	p := u.ProfileFor(viewer)
	return &p, nil
}

// UpdateProfile changes bio and/or avatar. A new avatar is committed before
// the previous one is released; release failures are only logged.
func (s *Service) UpdateProfile(ctx context.Context, id primitive.ObjectID, bio *string, avatar []byte) (*models.User, error) {
	var upd ProfileUpdate
	if bio != nil {
		b := strings.TrimSpace(*bio)
		if len([]rune(b)) > maxBioLen {
			return nil, apperrors.InvalidInput("bio must be at most %d characters", maxBioLen)
		}
		upd.Bio = &b
	}
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	var uploaded string
	if len(avatar) > 0 {
		if s.images == nil {
			return nil, apperrors.InvalidInput("image uploads are not enabled")
		}
		uploaded, err = s.images.Upload(ctx, avatar)
		if err != nil {
			return nil, err
		}
		upd.Avatar = &uploaded
	}
	u, err := s.repo.UpdateProfile(ctx, id, upd)
	if err != nil {
		s.release(ctx, uploaded)
		return nil, err
	}
	if uploaded != "" {
		s.release(ctx, current.Avatar)
	}
	return u, nil
}

func (s *Service) release(ctx context.Context, url string) {
	if url == "" || s.images == nil {
		return
	}
	if err := s.images.Delete(ctx, url); err != nil {
		logger.Warnf("avatar cleanup failed for %s: %v", url, err)
	}
}

// ToggleFollow flips whether follower follows target and returns the new
// state with target's follower count.
func (s *Service) ToggleFollow(ctx context.Context, follower, target primitive.ObjectID) (bool, int, error) {
	if follower == target {
		return false, 0, apperrors.InvalidInput("you cannot follow yourself")
	}
	if _, err := s.repo.GetByID(ctx, target); err != nil {
		return false, 0, err
	}
	following, err := s.repo.ToggleFollow(ctx, follower, target)
	if err != nil {
		return false, 0, err
	}
	t, err := s.repo.GetByID(ctx, target)
	if err != nil {
		return false, 0, err
	}
	return following, len(t.Followers), nil
}

// Followers lists the users following id.
func (s *Service) Followers(ctx context.Context, id primitive.ObjectID) ([]models.AuthorSummary, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.summaries(ctx, u.Followers)
}

// Following lists the users id follows.
func (s *Service) Following(ctx context.Context, id primitive.ObjectID) ([]models.AuthorSummary, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.summaries(ctx, u.Following)
}

func (s *Service) summaries(ctx context.Context, ids []primitive.ObjectID) ([]models.AuthorSummary, error) {
	list, err := s.repo.GetManyByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]models.AuthorSummary, 0, len(list))
	for _, u := range list {
		out = append(out, u.Summary())
	}
	return out, nil
}

// ResolveAuthors maps user ids to display projections. Ids that do not
// resolve are absent from the result.
func (s *Service) ResolveAuthors(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.AuthorSummary, error) {
	list, err := s.repo.GetManyByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[primitive.ObjectID]models.AuthorSummary, len(list))
	for _, u := range list {
		out[u.ID] = u.Summary()
	}
	return out, nil
}
