package auth

import (
	"context"
	"net/http"
	"strings"
)

type ctxKey struct{}

// WithSubject returns a context carrying the subject of a verified access token.
func WithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, ctxKey{}, subject)
}

// SubjectFromContext returns the subject stored by RequireAccess.
func SubjectFromContext(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(ctxKey{}).(string)
	return s, ok && s != ""
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" header.
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) < len("bearer ") || !strings.EqualFold(h[:len("bearer ")], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[len("bearer "):])
}

// RequireAccess rejects requests without a valid access token and stores the
// token subject on the request context.
func (h *Handler) RequireAccess(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			h.writeError(w, ErrUnauthorized)
			return
		}
		sub, err := h.svc.Authenticate(raw)
		if err != nil {
			h.writeError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithSubject(r.Context(), sub)))
	})
}
