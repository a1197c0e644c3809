package token

import (
	"time"
)

// Issued is a freshly signed token together with the claims it carries.
type Issued struct {
	Value     string
	Kind      Kind
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Pair is a matched access/refresh token pair for one subject.
type Pair struct {
	Access  Issued
	Refresh Issued
}

// Issuer mints access and refresh tokens with fixed lifetimes.
type Issuer struct {
	codec      *Codec
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewIssuer(codec *Codec, cfg Config) *Issuer {
	return &Issuer{codec: codec, accessTTL: cfg.AccessTTL, refreshTTL: cfg.RefreshTTL}
}

// AccessTTL is the lifetime of access tokens.
func (i *Issuer) AccessTTL() time.Duration { return i.accessTTL }

// RefreshTTL is the lifetime of refresh tokens.
func (i *Issuer) RefreshTTL() time.Duration { return i.refreshTTL }

func (i *Issuer) IssueAccessToken(subject string) (Issued, error) {
	return i.issue(subject, KindAccess, i.accessTTL)
}

func (i *Issuer) IssueRefreshToken(subject string) (Issued, error) {
	return i.issue(subject, KindRefresh, i.refreshTTL)
}

// IssuePair mints a new access and refresh token for subject.
func (i *Issuer) IssuePair(subject string) (Pair, error) {
	access, err := i.IssueAccessToken(subject)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := i.IssueRefreshToken(subject)
	if err != nil {
		return Pair{}, err
	}
	return Pair{Access: access, Refresh: refresh}, nil
}

func (i *Issuer) issue(subject string, kind Kind, ttl time.Duration) (Issued, error) {
	now := i.codec.Now()
	exp := now.Add(ttl)
	v, err := i.codec.Encode(subject, kind, exp)
	if err != nil {
		return Issued{}, err
	}
	return Issued{Value: v, Kind: kind, Subject: subject, IssuedAt: now, ExpiresAt: exp}, nil
}
