package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/token"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{"HTTP_ADDR", "USER_STORE", "SEED_DEMO_USERS", "BCRYPT_COST", "SECRET_KEY", "ALGORITHM",
		"ACCESS_TOKEN_EXPIRE_MINUTES", "REFRESH_TOKEN_EXPIRE_DAYS"} {
		t.Setenv(k, "")
	}
}

func TestFromEnvFailsWithoutSecret(t *testing.T) {
	clearEnv(t)
	_, err := FromEnv()
	assert.ErrorIs(t, err, token.ErrMissingSecret)
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("SECRET_KEY", "s3cr3t")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:8431", cfg.HTTPAddr)
	assert.Equal(t, StorePostgres, cfg.UserStore)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.False(t, cfg.SeedDemo)
	assert.Equal(t, "HS256", cfg.Token.Algorithm)
	assert.Equal(t, 30*time.Minute, cfg.Token.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.Token.RefreshTTL)
	assert.Equal(t, "refresh_token", cfg.Cookie.Name)
}

func TestFromEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("SECRET_KEY", "s3cr3t")
	t.Setenv("USER_STORE", "memory")
	t.Setenv("SEED_DEMO_USERS", "1")
	t.Setenv("BCRYPT_COST", "10")
	t.Setenv("HTTP_ADDR", ":9000")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, StoreMemory, cfg.UserStore)
	assert.True(t, cfg.SeedDemo)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, ":9000", cfg.HTTPAddr)
}

func TestFromEnvRejectsBadValues(t *testing.T) {
	tests := map[string][2]string{
		"unknown store": {"USER_STORE", "mongo"},
		"low cost":      {"BCRYPT_COST", "2"},
		"bad algorithm": {"ALGORITHM", "RS256"},
	}
	for name, kv := range tests {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("SECRET_KEY", "s3cr3t")
			t.Setenv(kv[0], kv[1])
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}
