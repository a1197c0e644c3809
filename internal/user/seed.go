package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-auth-go/pkg/utilities"
)

// SeedUser describes a demo account loaded at startup.
type SeedUser struct {
	Username string
	FullName string
	Email    string
	Password string
	Disabled bool
}

// DemoUsers are the accounts loaded into development stores.
var DemoUsers = []SeedUser{
	{Username: "johndoe", FullName: "John Doe", Email: "johndoe@example.com", Password: "test123"},
	{Username: "alice", FullName: "Alice Wonderson", Email: "alice@example.com", Password: "secret", Disabled: true},
}

// Seed hashes and stores users. Accounts that already exist are skipped, so
// seeding is safe to repeat. It returns the number of accounts created.
func (s *UserService) Seed(ctx context.Context, users []SeedUser) (int, error) {
	created := 0
	for _, su := range users {
		hash, err := s.hasher.Hash(su.Password)
		if err != nil {
			return created, fmt.Errorf("hash password for %s: %w", su.Username, err)
		}
		now := time.Now().UTC()
		fullName := su.FullName
		u := &entity.User{
			ID:           utilities.NewSnowflakeID(),
			Username:     su.Username,
			Email:        su.Email,
			FullName:     &fullName,
			PasswordHash: hash,
			Disabled:     su.Disabled,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := s.store.Create(ctx, u); err != nil {
			if errors.Is(err, entity.ErrDuplicate) {
				continue
			}
			return created, fmt.Errorf("create %s: %w", su.Username, err)
		}
		created++
	}
	return created, nil
}
