package token

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	DefaultAlgorithm  = "HS256"
	DefaultAccessTTL  = 30 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

var ErrMissingSecret = errors.New("token signing secret is not configured")

// Config holds the process-wide signing settings. It is built once at startup
// and passed by value into the codec and issuer.
type Config struct {
	Secret     []byte
	Algorithm  string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// ConfigFromEnv reads SECRET_KEY, ALGORITHM, ACCESS_TOKEN_EXPIRE_MINUTES and
// REFRESH_TOKEN_EXPIRE_DAYS. Missing values fall back to defaults except the
// secret, which Validate rejects.
func ConfigFromEnv() Config {
	cfg := Config{
		Secret:     []byte(os.Getenv("SECRET_KEY")),
		Algorithm:  os.Getenv("ALGORITHM"),
		AccessTTL:  DefaultAccessTTL,
		RefreshTTL: DefaultRefreshTTL,
	}
	if cfg.Algorithm == "" {
		cfg.Algorithm = DefaultAlgorithm
	}
	if v, err := strconv.Atoi(os.Getenv("ACCESS_TOKEN_EXPIRE_MINUTES")); err == nil && v > 0 {
		cfg.AccessTTL = time.Duration(v) * time.Minute
	}
	if v, err := strconv.Atoi(os.Getenv("REFRESH_TOKEN_EXPIRE_DAYS")); err == nil && v > 0 {
		cfg.RefreshTTL = time.Duration(v) * 24 * time.Hour
	}
	return cfg
}

// Validate checks that the config can sign and verify tokens.
func (c Config) Validate() error {
	if len(c.Secret) == 0 {
		return ErrMissingSecret
	}
	if _, err := hmacMethod(c.Algorithm); err != nil {
		return err
	}
	if c.AccessTTL <= 0 || c.RefreshTTL <= 0 {
		return errors.New("token lifetimes must be positive")
	}
	if c.AccessTTL >= c.RefreshTTL {
		return errors.New("access token lifetime must be shorter than refresh token lifetime")
	}
	return nil
}

// only shared-secret algorithms are accepted
func hmacMethod(alg string) (*jwt.SigningMethodHMAC, error) {
	m, ok := jwt.GetSigningMethod(alg).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", alg)
	}
	return m, nil
}
