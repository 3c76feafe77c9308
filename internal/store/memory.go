package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/Chative-core-poc-v1/userdesk/internal/agent/model"
	errx "github.com/Chative-core-poc-v1/userdesk/internal/core/error"
)

// MemoryUserRepository keeps records in process memory. Selected by memory:// URLs.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]model.User
	ids   map[string]string
}

func NewMemoryUserRepository(seed ...model.User) *MemoryUserRepository {
	r := &MemoryUserRepository{users: map[string]model.User{}, ids: map[string]string{}}
	for _, u := range seed {
		r.users[u.Email] = u
		r.ids[u.Email] = uuid.NewString()
	}
	return r
}

func (r *MemoryUserRepository) Ping(context.Context) error { return nil }

func (r *MemoryUserRepository) CreateUser(_ context.Context, user model.User) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.Email]; ok {
		return "", fmt.Errorf("create %s: %w", user.Email, errx.ErrUserExists)
	}
	id := uuid.NewString()
	r.users[user.Email] = user
	r.ids[user.Email] = id
	return id, nil
}

func (r *MemoryUserRepository) GetUsers(_ context.Context, filter map[string]any) ([]model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.User, 0, len(r.users))
	for _, u := range r.users {
		if u.Matches(filter) {
			out = append(out, u)
		}
	}
	sortUsers(out)
	return out, nil
}

func (r *MemoryUserRepository) UpdateUser(_ context.Context, email string, patch map[string]any) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[email]
	if !ok {
		return false, nil
	}
	r.users[email] = u.Merge(withoutIdentity(patch))
	return true, nil
}

func (r *MemoryUserRepository) DeleteUser(_ context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[email]; !ok {
		return false, nil
	}
	delete(r.users, email)
	delete(r.ids, email)
	return true, nil
}

func (r *MemoryUserRepository) Close() error { return nil }

// withoutIdentity drops keys a patch must never rewrite: the email key and the internal id.
func withoutIdentity(patch map[string]any) map[string]any {
	out := make(map[string]any, len(patch))
	for k, v := range patch {
		if k == "email" || k == model.InternalIDField {
			continue
		}
		out[k] = v
	}
	return out
}

func sortUsers(users []model.User) {
	sort.Slice(users, func(i, j int) bool { return users[i].Email < users[j].Email })
}

var _ model.UserRepository = (*MemoryUserRepository)(nil)
