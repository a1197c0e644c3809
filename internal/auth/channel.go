package auth

import (
	"net/http"
	"os"
	"strings"
	"time"
)

// RenewalChannel carries the refresh token separately from the access token.
type RenewalChannel interface {
	// RefreshToken returns the stored refresh token, or "" if there is none.
	RefreshToken() string
	SetRefreshToken(value string, expiresAt time.Time)
	Clear()
}

// CookieConfig controls how the refresh token cookie is exposed.
type CookieConfig struct {
	Name     string
	Path     string
	Domain   string
	Secure   bool
	SameSite http.SameSite
}

// CookieConfigFromEnv reads REFRESH_COOKIE_* settings. Secure defaults to
// true; set REFRESH_COOKIE_SECURE=0 for plain-http development.
func CookieConfigFromEnv() CookieConfig {
	cfg := CookieConfig{
		Name:     os.Getenv("REFRESH_COOKIE_NAME"),
		Path:     os.Getenv("REFRESH_COOKIE_PATH"),
		Domain:   os.Getenv("REFRESH_COOKIE_DOMAIN"),
		Secure:   os.Getenv("REFRESH_COOKIE_SECURE") != "0",
		SameSite: parseSameSite(os.Getenv("REFRESH_COOKIE_SAMESITE")),
	}
	if cfg.Name == "" {
		cfg.Name = "refresh_token"
	}
	if cfg.Path == "" {
		cfg.Path = "/auth"
	}
	return cfg
}

func parseSameSite(v string) http.SameSite {
	switch strings.ToLower(v) {
	case "lax":
		return http.SameSiteLaxMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteStrictMode
	}
}

// cookieChannel is the HTTP renewal channel: it reads the refresh token from
// the request and writes Set-Cookie headers on the response.
type cookieChannel struct {
	cfg CookieConfig
	w   http.ResponseWriter
	r   *http.Request
	now func() time.Time
}

func newCookieChannel(cfg CookieConfig, w http.ResponseWriter, r *http.Request) *cookieChannel {
	return &cookieChannel{cfg: cfg, w: w, r: r, now: time.Now}
}

func (c *cookieChannel) RefreshToken() string {
	ck, err := c.r.Cookie(c.cfg.Name)
	if err != nil {
		return ""
	}
	return ck.Value
}

func (c *cookieChannel) SetRefreshToken(value string, expiresAt time.Time) {
	maxAge := int(expiresAt.Sub(c.now()).Seconds())
	if maxAge <= 0 {
		c.Clear()
		return
	}
	http.SetCookie(c.w, c.cookie(value, maxAge, expiresAt))
}

func (c *cookieChannel) Clear() {
	http.SetCookie(c.w, c.cookie("", -1, time.Unix(0, 0)))
}

func (c *cookieChannel) cookie(value string, maxAge int, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     c.cfg.Name,
		Value:    value,
		Path:     c.cfg.Path,
		Domain:   c.cfg.Domain,
		Expires:  expires.UTC(),
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.cfg.Secure,
		SameSite: c.cfg.SameSite,
	}
}
