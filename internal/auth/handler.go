package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/user"
)

// Handler exposes HTTP endpoints for login, refresh, logout, registration
// and the current user.
type Handler struct {
	svc     *Service
	cookies CookieConfig
	logger  *zap.SugaredLogger
}

func NewHandler(svc *Service, cookies CookieConfig, logger *zap.SugaredLogger) *Handler {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Handler{svc: svc, cookies: cookies, logger: logger}
}

// TokenResponse is returned by login and refresh.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// RegisterRequest request body for register endpoint.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
}

// RegisterResponse response body containing new user id.
type RegisterResponse struct {
	ID string `json:"id"`
}

// Login accepts an OAuth2 password form (username, password).
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	sess, err := h.svc.Login(r.Context(), r.PostForm.Get("username"), r.PostForm.Get("password"), newCookieChannel(h.cookies, w, r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeToken(w, sess)
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	ch := newCookieChannel(h.cookies, w, r)
	sess, err := h.svc.Refresh(r.Context(), ch)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			// drop a cookie that can never succeed
			ch.Clear()
		}
		h.writeError(w, err)
		return
	}
	h.writeToken(w, sess)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.svc.Logout(r.Context(), newCookieChannel(h.cookies, w, r))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Debugw("invalid register payload", "err", err)
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	u, err := h.svc.Register(r.Context(), req.Username, req.Email, req.FullName, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrUserExists):
			h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "user already exists"})
		case errors.Is(err, user.ErrMissingIdentity), errors.Is(err, user.ErrEmptyPassword):
			h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		default:
			h.logger.Warnw("register failed", "err", err)
			h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "register failed"})
		}
		return
	}
	h.writeJSON(w, http.StatusCreated, RegisterResponse{ID: u.ID})
}

// Me returns the profile of the authenticated user. Must run behind RequireAccess.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	sub, ok := SubjectFromContext(r.Context())
	if !ok {
		h.writeError(w, ErrUnauthorized)
		return
	}
	u, err := h.svc.CurrentUser(r.Context(), sub)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, u.Profile())
}

// Routes mounts the auth endpoints on mux under /auth.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /auth/login", h.Login)
	mux.HandleFunc("POST /auth/refresh", h.Refresh)
	mux.HandleFunc("POST /auth/logout", h.Logout)
	mux.HandleFunc("POST /auth/register", h.Register)
	mux.Handle("GET /auth/users/me", h.RequireAccess(http.HandlerFunc(h.Me)))
}

// writeError maps service errors to generic responses. The specific cause is
// only logged.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		w.Header().Set("WWW-Authenticate", "Bearer")
		h.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
	case errors.Is(err, ErrMissingRefreshToken), errors.Is(err, ErrUnauthorized):
		h.logger.Debugw("unauthorized", "err", err)
		w.Header().Set("WWW-Authenticate", "Bearer")
		h.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	case errors.Is(err, ErrInactiveAccount):
		h.writeJSON(w, http.StatusForbidden, map[string]string{"error": "inactive account"})
	default:
		h.logger.Errorw("auth request failed", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func (h *Handler) writeToken(w http.ResponseWriter, sess *Session) {
	w.Header().Set("Cache-Control", "no-store")
	h.writeJSON(w, http.StatusOK, TokenResponse{AccessToken: sess.AccessToken, TokenType: "bearer", ExpiresIn: sess.ExpiresIn})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
