package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/gamebot/backend/internal/apperr"
	"github.com/zhouzirui/gamebot/backend/internal/model/user"
)

var _ user.Store = (*UserStore)(nil)

// UserStore indexes users by name.
type UserStore struct {
	mu    sync.RWMutex
	users map[string]user.User
}

func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]user.User)}
}

func (s *UserStore) Create(_ context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[u.Name]; ok {
		return fmt.Errorf("%w: user %q", apperr.ErrConflict, u.Name)
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	s.users[u.Name] = *u
	return nil
}

func (s *UserStore) GetByName(_ context.Context, name string) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[name]
	if !ok {
		return nil, fmt.Errorf("%w: user %q", apperr.ErrNotFound, name)
	}
	return &u, nil
}
