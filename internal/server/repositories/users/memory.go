package users

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/clipher/internal/common"
	"github.com/dmitrijs2005/clipher/internal/server/models"
)

// MemoryRepository keeps users in process memory. Records are copied on
// the way in and out so callers cannot mutate stored state.
type MemoryRepository struct {
	mu    sync.RWMutex
	users map[string]models.User
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{users: make(map[string]models.User)}
}

func (r *MemoryRepository) Get(_ context.Context, userName string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[userName]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &u, nil
}

func (r *MemoryRepository) Add(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.UserName]; ok {
		return common.ErrorAlreadyExists
	}
	r.users[user.UserName] = *user
	return nil
}

func (r *MemoryRepository) Remove(_ context.Context, userName string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[userName]; !ok {
		return false, nil
	}
	delete(r.users, userName)
	return true, nil
}

func (r *MemoryRepository) Exists(_ context.Context, userName string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.users[userName]
	return ok, nil
}

func (r *MemoryRepository) SetTfaVerified(_ context.Context, userName string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userName]
	if !ok || u.TfaVerified {
		return false, nil
	}
	u.TfaVerified = true
	r.users[userName] = u
	return true, nil
}
