package repo

import (
	"context"
	"strings"
	"sync"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/user/entity"
)

// MemoryRepo is an in-process user store for development and tests.
type MemoryRepo struct {
	mu      sync.RWMutex
	byName  map[string]*entity.User
	byEmail map[string]*entity.User
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byName: map[string]*entity.User{}, byEmail: map[string]*entity.User{}}
}

func (r *MemoryRepo) Create(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	email := strings.ToLower(u.Email)
	if _, ok := r.byName[u.Username]; ok {
		return entity.ErrDuplicate
	}
	if _, ok := r.byEmail[email]; ok {
		return entity.ErrDuplicate
	}
	cp := *u
	r.byName[u.Username] = &cp
	r.byEmail[email] = &cp
	return nil
}

func (r *MemoryRepo) FindByUsername(_ context.Context, username string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byName[username]
	if !ok {
		return nil, entity.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *MemoryRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, entity.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

// Deactivate marks a user as disabled.
func (r *MemoryRepo) Deactivate(_ context.Context, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byName[username]
	if !ok {
		return entity.ErrNotFound
	}
	u.Disabled = true
	return nil
}
