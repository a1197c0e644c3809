package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ovaphlow/pitchfork/service-auth-go/pkg/utilities"
)

// Kind distinguishes access tokens from refresh tokens.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

var (
	ErrExpiredToken     = errors.New("token expired")
	ErrInvalidSignature = errors.New("token signature invalid")
	ErrMalformedToken   = errors.New("token malformed")
)

// Claims is the payload carried by every token.
type Claims struct {
	Kind Kind `json:"kind"`
	jwt.RegisteredClaims
}

// Codec signs and verifies tokens with a single shared secret and algorithm.
type Codec struct {
	secret []byte
	method *jwt.SigningMethodHMAC
	parser *jwt.Parser
	now    func() time.Time
}

// NewCodec validates cfg and returns a codec bound to it.
func NewCodec(cfg Config) (*Codec, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m, _ := hmacMethod(cfg.Algorithm)
	secret := make([]byte, len(cfg.Secret))
	copy(secret, cfg.Secret)
	return &Codec{
		secret: secret,
		method: m,
		// expiry is checked by Decode against the codec clock
		parser: jwt.NewParser(jwt.WithValidMethods([]string{m.Alg()}), jwt.WithoutClaimsValidation()),
		now:    time.Now,
	}, nil
}

// WithClock returns a copy of the codec that reads the current time from now.
func (c *Codec) WithClock(now func() time.Time) *Codec {
	cp := *c
	cp.now = now
	return &cp
}

// Now returns the codec's current time.
func (c *Codec) Now() time.Time { return c.now() }

// Encode signs a token for subject that expires at expiresAt.
func (c *Codec) Encode(subject string, kind Kind, expiresAt time.Time) (string, error) {
	if subject == "" {
		return "", errors.New("token subject is empty")
	}
	claims := Claims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(c.now()),
			ID:        utilities.NewKSUID(),
		},
	}
	signed, err := jwt.NewWithClaims(c.method, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Decode verifies the signature and expiry of raw and returns its claims.
// A token whose expiry equals the current time is already expired.
func (c *Codec) Decode(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := c.parser.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
			return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		default:
			return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
		}
	}
	if claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: missing exp claim", ErrMalformedToken)
	}
	if !c.now().Before(claims.ExpiresAt.Time) {
		return nil, ErrExpiredToken
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing sub claim", ErrMalformedToken)
	}
	return claims, nil
}
