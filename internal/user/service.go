package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-auth-go/pkg/utilities"
)

// Store is the user lookup collaborator. Implementations return
// entity.ErrNotFound when no row matches and entity.ErrDuplicate when Create
// hits a unique username or email.
type Store interface {
	FindByUsername(ctx context.Context, username string) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	Create(ctx context.Context, u *entity.User) error
}

var (
	ErrUserNotFound    = entity.ErrNotFound
	ErrUserExists      = entity.ErrDuplicate
	ErrDisabled        = errors.New("user disabled")
	ErrBadCredentials  = errors.New("invalid credentials")
	ErrMissingIdentity = errors.New("username and email required")
)

// UserService guards token issuance with password verification and owns
// registration.
type UserService struct {
	store  Store
	hasher PasswordHasher

	dummyOnce sync.Once
	dummyHash string
}

func NewUserService(store Store, hasher PasswordHasher) *UserService {
	if hasher == nil {
		hasher = BcryptHasher{Cost: 12}
	}
	return &UserService{store: store, hasher: hasher}
}

// AuthenticatePassword verifies password for username. Unknown users and
// wrong passwords both yield ErrBadCredentials; a disabled account is only
// reported once the password has matched.
func (s *UserService) AuthenticatePassword(ctx context.Context, username, password string) (*entity.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		s.burn(password)
		return nil, ErrBadCredentials
	}
	u, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			// keep timing close to the wrong-password path
			s.burn(password)
			return nil, ErrBadCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if !s.hasher.Verify(password, u.PasswordHash) {
		return nil, ErrBadCredentials
	}
	if u.Disabled {
		return nil, ErrDisabled
	}
	return u, nil
}

// NeedsRehash reports whether u's stored hash is weaker than current policy.
func (s *UserService) NeedsRehash(u *entity.User) bool {
	return s.hasher.NeedsRehash(u.PasswordHash)
}

// SignupUser creates a user with password (hashing inside). Username, email
// and password are required.
func (s *UserService) SignupUser(ctx context.Context, username, email, fullName, password string) (*entity.User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" || email == "" {
		return nil, ErrMissingIdentity
	}
	if _, err := s.store.FindByEmail(ctx, email); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, entity.ErrNotFound) {
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	u := &entity.User{
		ID:           utilities.NewSnowflakeID(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if fullName = strings.TrimSpace(fullName); fullName != "" {
		u.FullName = &fullName
	}
	if err := s.store.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// GetActive loads the user named by a verified token subject.
func (s *UserService) GetActive(ctx context.Context, username string) (*entity.User, error) {
	u, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if u.Disabled {
		return nil, ErrDisabled
	}
	return u, nil
}

func (s *UserService) burn(password string) {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash(utilities.NewKSUID())
	})
	_ = s.hasher.Verify(password, s.dummyHash)
}
