package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/user/entity"
)

var testCookies = CookieConfig{Name: "refresh_token", Path: "/auth", Secure: true, SameSite: http.SameSiteStrictMode}

func newTestMux(t *testing.T) (*http.ServeMux, *fixture) {
	t.Helper()
	f := newFixture(t)
	mux := http.NewServeMux()
	NewHandler(f.svc, testCookies, nil).Routes(mux)
	return mux, f
}

func do(mux http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func loginRequest(username, password string) *http.Request {
	form := url.Values{"username": {username}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func refreshCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == testCookies.Name {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", testCookies.Name)
	return nil
}

func decodeToken(t *testing.T, rec *httptest.ResponseRecorder) TokenResponse {
	t.Helper()
	var out TokenResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func TestHandlerLogin(t *testing.T) {
	mux, f := newTestMux(t)

	rec := do(mux, loginRequest("alice", "secret"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	body := decodeToken(t, rec)
	assert.Equal(t, "bearer", body.TokenType)
	assert.Equal(t, int64(1800), body.ExpiresIn)
	sub, err := f.svc.Authenticate(body.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", sub)

	c := refreshCookie(t, rec)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteStrictMode, c.SameSite)
	assert.Equal(t, "/auth", c.Path)
	assert.InDelta(t, f.issuer.RefreshTTL().Seconds(), float64(c.MaxAge), 2)
	assert.NotContains(t, rec.Body.String(), c.Value)
}

func TestHandlerLoginFailuresLookAlike(t *testing.T) {
	mux, _ := newTestMux(t)

	wrong := do(mux, loginRequest("alice", "nope"))
	unknown := do(mux, loginRequest("nobody", "secret"))

	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, wrong.Code, unknown.Code)
	assert.Equal(t, wrong.Body.String(), unknown.Body.String())
	assert.Equal(t, "Bearer", wrong.Header().Get("WWW-Authenticate"))
	assert.Empty(t, wrong.Result().Cookies())
}

func TestHandlerLoginDisabled(t *testing.T) {
	mux, _ := newTestMux(t)
	rec := do(mux, loginRequest("mallory", "hunter2"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHandlerRefreshAndLogout(t *testing.T) {
	mux, f := newTestMux(t)

	login := do(mux, loginRequest("alice", "secret"))
	require.Equal(t, http.StatusOK, login.Code)
	first := refreshCookie(t, login)

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.AddCookie(first)
	rec := do(mux, req)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeToken(t, rec)
	sub, err := f.svc.Authenticate(body.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "alice", sub)
	second := refreshCookie(t, rec)
	assert.NotEqual(t, first.Value, second.Value)

	rec = do(mux, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	cleared := refreshCookie(t, rec)
	assert.Empty(t, cleared.Value)
	assert.Less(t, cleared.MaxAge, 0)

	rec = do(mux, httptest.NewRequest(http.MethodPost, "/auth/refresh", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandlerRefreshInvalidCookieIsCleared(t *testing.T) {
	mux, _ := newTestMux(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/refresh", nil)
	req.AddCookie(&http.Cookie{Name: testCookies.Name, Value: "garbage"})
	rec := do(mux, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"unauthorized"}`, rec.Body.String())
	assert.Empty(t, refreshCookie(t, rec).Value)
}

func TestHandlerMe(t *testing.T) {
	mux, f := newTestMux(t)

	login := decodeToken(t, do(mux, loginRequest("alice", "secret")))
	req := httptest.NewRequest(http.MethodGet, "/auth/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+login.AccessToken)
	rec := do(mux, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var p entity.Profile
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&p))
	assert.Equal(t, "alice", p.Username)
	assert.Equal(t, "alice@example.com", p.Email)
	assert.NotContains(t, rec.Body.String(), "password")

	disabled, err := f.issuer.IssueAccessToken("mallory")
	require.NoError(t, err)
	refresh, err := f.issuer.IssueRefreshToken("alice")
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{name: "no header", status: http.StatusUnauthorized},
		{name: "not bearer", header: "Basic abc", status: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer abc.def.ghi", status: http.StatusUnauthorized},
		{name: "refresh token", header: "Bearer " + refresh.Value, status: http.StatusUnauthorized},
		{name: "disabled account", header: "bearer " + disabled.Value, status: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/auth/users/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			assert.Equal(t, tt.status, do(mux, req).Code)
		})
	}
}

func TestHandlerRegister(t *testing.T) {
	mux, _ := newTestMux(t)

	register := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		return do(mux, req)
	}

	rec := register(`{"username":"bob","email":"bob@example.com","full_name":"Bob","password":"pw123"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var out RegisterResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	assert.NotEmpty(t, out.ID)

	assert.Equal(t, http.StatusOK, do(mux, loginRequest("bob", "pw123")).Code)

	assert.Equal(t, http.StatusBadRequest, register(`{"username":"bob2","email":"bob@example.com","password":"pw"}`).Code)
	assert.Equal(t, http.StatusBadRequest, register(`{"username":"","email":"x@example.com","password":"pw"}`).Code)
	assert.Equal(t, http.StatusBadRequest, register(`{"username":"carl","email":"carl@example.com","password":""}`).Code)
	assert.Equal(t, http.StatusBadRequest, register(`{`).Code)
}

func TestHandlerMethodRouting(t *testing.T) {
	mux, _ := newTestMux(t)
	rec := do(mux, httptest.NewRequest(http.MethodGet, "/auth/login", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
