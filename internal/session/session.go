// Package session is the accessor for the signed, encrypted cookie session
// that carries the logged-in user between requests. The whole session
// lives in the cookie; there is no server-side session table.
package session

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/hkdf"
)

// CookieName is the session cookie name.
const CookieName = "boc-menh-session"

// valueKey is the gorilla session value holding the JSON-encoded Session.
const valueKey = "data"

// contextKey caches the loaded session on the Echo context.
const contextKey = "session"

// Session is the per-user state kept in the cookie.
type Session struct {
	ID          string `json:"id,omitempty"`
	Email       string `json:"email,omitempty"`
	Name        string `json:"name,omitempty"`
	AccessToken string `json:"accessToken,omitempty"`
	IsPremium   bool   `json:"isPremium"`
	IsLoggedIn  bool   `json:"isLoggedIn"`
	Avatar      string `json:"avatar,omitempty"`
	Language    string `json:"language,omitempty"`
}

// LoggedIn reports whether the session may be forwarded to the backend.
// A flagged session without a usable access token does not count.
func (s *Session) LoggedIn() bool {
	if s == nil || !s.IsLoggedIn || s.AccessToken == "" {
		return false
	}
	return !tokenExpired(s.AccessToken, time.Now())
}

// tokenExpired reads the exp claim of a JWT access token without verifying
// it. The backend owns verification; this only avoids forwarding tokens
// that are certain to be rejected. Opaque tokens never expire here.
func tokenExpired(token string, now time.Time) bool {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !now.Before(claims.ExpiresAt.Time)
}

// Options configures the cookie.
type Options struct {
	// Password is SECRET_COOKIE_PASSWORD. Signing and encryption keys are
	// derived from it.
	Password string

	// MaxAge is the cookie lifetime.
	MaxAge time.Duration

	// Secure marks the cookie HTTPS-only (production).
	Secure bool
}

// Manager loads, saves, and destroys sessions on Echo requests.
type Manager struct {
	store *sessions.CookieStore
}

// NewManager builds a cookie store with HMAC-SHA256 signing and AES-256
// encryption keys derived from opts.Password.
func NewManager(opts Options) (*Manager, error) {
	kdf := hkdf.New(sha256.New, []byte(opts.Password), nil, []byte("bocmenh/session/v1"))
	hashKey := make([]byte, 32)
	blockKey := make([]byte, 32)
	if _, err := io.ReadFull(kdf, hashKey); err != nil {
		return nil, fmt.Errorf("deriving session hash key: %w", err)
	}
	if _, err := io.ReadFull(kdf, blockKey); err != nil {
		return nil, fmt.Errorf("deriving session block key: %w", err)
	}

	store := sessions.NewCookieStore(hashKey, blockKey)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(opts.MaxAge.Seconds()),
		Secure:   opts.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	store.MaxAge(store.Options.MaxAge)

	return &Manager{store: store}, nil
}

// Load returns the request's session. A missing, tampered, or undecodable
// cookie yields a new empty session, never an error.
func (m *Manager) Load(c echo.Context) *Session {
	if s, ok := c.Get(contextKey).(*Session); ok {
		return s
	}

	s := &Session{}
	raw, err := m.store.Get(c.Request(), CookieName)
	if err == nil {
		if data, ok := raw.Values[valueKey].(string); ok {
			if err := json.Unmarshal([]byte(data), s); err != nil {
				s = &Session{}
			}
		}
	}

	c.Set(contextKey, s)
	return s
}

// Save writes s to the response cookie.
func (m *Manager) Save(c echo.Context, s *Session) error {
	raw, _ := m.store.Get(c.Request(), CookieName)
	if raw == nil {
		raw = sessions.NewSession(m.store, CookieName)
	}

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshaling session: %w", err)
	}
	raw.Values[valueKey] = string(data)
	raw.Options = m.cookieOptions(m.store.Options.MaxAge)

	if err := raw.Save(c.Request(), c.Response()); err != nil {
		return fmt.Errorf("saving session cookie: %w", err)
	}
	c.Set(contextKey, s)
	return nil
}

// Destroy expires the cookie and resets the cached session to empty.
func (m *Manager) Destroy(c echo.Context) error {
	raw, _ := m.store.Get(c.Request(), CookieName)
	if raw == nil {
		raw = sessions.NewSession(m.store, CookieName)
	}
	raw.Values = map[any]any{}
	raw.Options = m.cookieOptions(-1)

	if err := raw.Save(c.Request(), c.Response()); err != nil {
		return fmt.Errorf("destroying session cookie: %w", err)
	}
	c.Set(contextKey, &Session{})
	return nil
}

func (m *Manager) cookieOptions(maxAge int) *sessions.Options {
	opts := *m.store.Options
	opts.MaxAge = maxAge
	return &opts
}
