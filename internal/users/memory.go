package users

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/forkful/forkful/backend/internal/models"
)

// MemoryUserRepository is an in-memory UserRepository with the same
// uniqueness and follow semantics as the Mongo implementation.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[primitive.ObjectID]*models.User
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[primitive.ObjectID]*models.User)}
}

func clone(u *models.User) *models.User {
	c := *u
	c.Followers = append([]primitive.ObjectID{}, u.Followers...)
	c.Following = append([]primitive.ObjectID{}, u.Following...)
	return &c
}

func (m *MemoryUserRepository) Create(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Username == u.Username {
			return duplicateError("username")
		}
		if existing.Email == u.Email {
			return duplicateError("email")
		}
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	m.users[u.ID] = clone(u)
	return nil
}

func (m *MemoryUserRepository) GetByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, errUserNotFound
	}
	return clone(u), nil
}

func (m *MemoryUserRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	email = strings.ToLower(email)
	for _, u := range m.users {
		if u.Email == email {
			return clone(u), nil
		}
	}
	return nil, errUserNotFound
}

func (m *MemoryUserRepository) GetManyByIDs(_ context.Context, ids []primitive.ObjectID) ([]*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*models.User{}
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out = append(out, clone(u))
		}
	}
	return out, nil
}

func (m *MemoryUserRepository) UpdateProfile(_ context.Context, id primitive.ObjectID, upd ProfileUpdate) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, errUserNotFound
	}
	if upd.Bio != nil {
		u.Bio = *upd.Bio
	}
	if upd.Avatar != nil {
		u.Avatar = *upd.Avatar
	}
	u.UpdatedAt = time.Now().UTC()
	return clone(u), nil
}

func (m *MemoryUserRepository) ToggleFollow(_ context.Context, follower, target primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.users[follower]
	if !ok {
		return false, errUserNotFound
	}
	t, ok := m.users[target]
	if !ok {
		return false, errUserNotFound
	}
	if idx := indexOf(f.Following, target); idx >= 0 {
		f.Following = append(f.Following[:idx], f.Following[idx+1:]...)
		if j := indexOf(t.Followers, follower); j >= 0 {
			t.Followers = append(t.Followers[:j], t.Followers[j+1:]...)
		}
		return false, nil
	}
	f.Following = append(f.Following, target)
	if indexOf(t.Followers, follower) < 0 {
		t.Followers = append(t.Followers, follower)
	}
	return true, nil
}

func indexOf(ids []primitive.ObjectID, id primitive.ObjectID) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
