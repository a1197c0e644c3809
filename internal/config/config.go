// Package config assembles the process-wide configuration from the
// environment. It is loaded once in main and handed to constructors.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/token"
	"github.com/ovaphlow/pitchfork/service-auth-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-auth-go/pkg/utilities"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	HTTPAddr   string
	UserStore  string
	SeedDemo   bool
	BcryptCost int
	Token      token.Config
	Cookie     auth.CookieConfig
	Database   database.Config
	Log        utilities.Config
}

// FromEnv reads and validates the configuration. It fails when the signing
// secret is absent so the process never starts without one.
func FromEnv() (Config, error) {
	cfg := Config{
		HTTPAddr:   os.Getenv("HTTP_ADDR"),
		UserStore:  os.Getenv("USER_STORE"),
		SeedDemo:   os.Getenv("SEED_DEMO_USERS") == "1",
		BcryptCost: 12,
		Token:      token.ConfigFromEnv(),
		Cookie:     auth.CookieConfigFromEnv(),
		Database:   database.ConfigFromEnv(),
		Log:        utilities.ConfigFromEnv(),
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = "0.0.0.0:8431"
	}
	if cfg.UserStore == "" {
		cfg.UserStore = StorePostgres
	}
	if v, err := strconv.Atoi(os.Getenv("BCRYPT_COST")); err == nil {
		cfg.BcryptCost = v
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if err := c.Token.Validate(); err != nil {
		return fmt.Errorf("token config: %w", err)
	}
	switch c.UserStore {
	case StorePostgres, StoreMemory:
	default:
		return fmt.Errorf("unknown USER_STORE %q", c.UserStore)
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("bcrypt cost %d out of range", c.BcryptCost)
	}
	return nil
}
