package token

import (
	"errors"
	"fmt"
)

// ErrUnauthorized is the single outcome callers see for any rejected token.
// The wrapped cause (expired, bad signature, malformed, wrong kind) is kept
// for diagnostics and can be inspected with errors.Is.
var ErrUnauthorized = errors.New("unauthorized")

// ErrWrongKind is returned when a refresh token is presented as an access
// token or the other way round.
var ErrWrongKind = errors.New("token kind mismatch")

// Verifier validates presented tokens and rotates refresh tokens.
//
// Rotation is stateless: a refresh token stays valid until its own expiry
// even after it has been exchanged, since nothing records that it was used.
type Verifier struct {
	codec  *Codec
	issuer *Issuer
}

func NewVerifier(codec *Codec, issuer *Issuer) *Verifier {
	return &Verifier{codec: codec, issuer: issuer}
}

// VerifyAccess returns the subject of a valid access token.
func (v *Verifier) VerifyAccess(raw string) (string, error) {
	claims, err := v.decode(raw, KindAccess)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// VerifyAndRotateRefresh validates a refresh token and mints a brand-new pair
// for the same subject. The presented token is never re-signed or extended.
func (v *Verifier) VerifyAndRotateRefresh(raw string) (Pair, error) {
	claims, err := v.decode(raw, KindRefresh)
	if err != nil {
		return Pair{}, err
	}
	pair, err := v.issuer.IssuePair(claims.Subject)
	if err != nil {
		return Pair{}, fmt.Errorf("rotate refresh token: %w", err)
	}
	return pair, nil
}

func (v *Verifier) decode(raw string, want Kind) (*Claims, error) {
	claims, err := v.codec.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	if claims.Kind != want {
		return nil, fmt.Errorf("%w: %w: got %q want %q", ErrUnauthorized, ErrWrongKind, claims.Kind, want)
	}
	return claims, nil
}
