package auth

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/token"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/user"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/user/entity"
)

var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrMissingRefreshToken = errors.New("missing refresh token")
	ErrUnauthorized        = token.ErrUnauthorized
	ErrInactiveAccount     = errors.New("inactive account")
)

// Session is the result of a successful login or refresh as seen by the
// transport: the access token goes back to the caller directly, the refresh
// token has already been handed to the renewal channel.
type Session struct {
	AccessToken string
	ExpiresIn   int64
	Subject     string
}

// Service composes password verification and token issuance into login,
// refresh and logout.
type Service struct {
	users    *user.UserService
	issuer   *token.Issuer
	verifier *token.Verifier
	logger   *zap.SugaredLogger
}

func NewService(users *user.UserService, issuer *token.Issuer, verifier *token.Verifier, logger *zap.SugaredLogger) *Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{users: users, issuer: issuer, verifier: verifier, logger: logger}
}

// Login checks username and password, mints a token pair, hands the refresh
// token to ch and returns the access token.
func (s *Service) Login(ctx context.Context, username, password string, ch RenewalChannel) (*Session, error) {
	u, err := s.users.AuthenticatePassword(ctx, username, password)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrBadCredentials):
			s.logger.Debugw("login rejected", "reason", "bad credentials")
			return nil, ErrInvalidCredentials
		case errors.Is(err, user.ErrDisabled):
			s.logger.Infow("login rejected", "reason", "account disabled", "username", username)
			return nil, ErrInactiveAccount
		default:
			return nil, fmt.Errorf("authenticate: %w", err)
		}
	}
	if s.users.NeedsRehash(u) {
		s.logger.Infow("password hash below current cost", "username", u.Username)
	}
	pair, err := s.issuer.IssuePair(u.Username)
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}
	ch.SetRefreshToken(pair.Refresh.Value, pair.Refresh.ExpiresAt)
	s.logger.Debugw("login succeeded", "username", u.Username)
	return s.session(pair), nil
}

// Refresh exchanges the refresh token held by ch for a new pair. The new
// refresh token replaces the old one on ch.
func (s *Service) Refresh(ctx context.Context, ch RenewalChannel) (*Session, error) {
	raw := ch.RefreshToken()
	if raw == "" {
		return nil, ErrMissingRefreshToken
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pair, err := s.verifier.VerifyAndRotateRefresh(raw)
	if err != nil {
		if errors.Is(err, token.ErrUnauthorized) {
			s.logger.Debugw("refresh rejected", "err", err)
		}
		return nil, err
	}
	ch.SetRefreshToken(pair.Refresh.Value, pair.Refresh.ExpiresAt)
	return s.session(pair), nil
}

// Logout clears the renewal channel. Tokens are stateless, so an access or
// refresh token copied elsewhere stays valid until it expires.
func (s *Service) Logout(_ context.Context, ch RenewalChannel) {
	ch.Clear()
}

// Authenticate returns the subject of a valid access token.
func (s *Service) Authenticate(raw string) (string, error) {
	sub, err := s.verifier.VerifyAccess(raw)
	if err != nil {
		s.logger.Debugw("access token rejected", "err", err)
		return "", err
	}
	return sub, nil
}

// CurrentUser loads the active account behind subject.
func (s *Service) CurrentUser(ctx context.Context, subject string) (*entity.User, error) {
	u, err := s.users.GetActive(ctx, subject)
	switch {
	case err == nil:
		return u, nil
	case errors.Is(err, user.ErrDisabled):
		return nil, ErrInactiveAccount
	case errors.Is(err, user.ErrUserNotFound):
		// token outlived its account
		return nil, ErrUnauthorized
	default:
		return nil, err
	}
}

// Register creates an account. Duplicate username or email yields user.ErrUserExists.
func (s *Service) Register(ctx context.Context, username, email, fullName, password string) (*entity.User, error) {
	return s.users.SignupUser(ctx, username, email, fullName, password)
}

func (s *Service) session(p token.Pair) *Session {
	return &Session{
		AccessToken: p.Access.Value,
		ExpiresIn:   int64(s.issuer.AccessTTL().Seconds()),
		Subject:     p.Access.Subject,
	}
}
