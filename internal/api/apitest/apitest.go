// Package apitest drives wrapped handlers end to end in tests: it seals
// request payloads, opens response envelopes, and mints session cookies.
package apitest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/lethanhdatit/bocmenh/internal/api"
	"github.com/lethanhdatit/bocmenh/internal/i18n"
	"github.com/lethanhdatit/bocmenh/internal/session"
	"github.com/lethanhdatit/bocmenh/pkg/envelope"
)

// Env is an Echo instance with a Wrapper sharing one codec and session
// manager.
type Env struct {
	Echo     *echo.Echo
	Codec    *envelope.Codec
	Sessions *session.Manager
	Wrapper  *api.Wrapper
}

// New builds an Env with vi as default and en enabled.
func New(t *testing.T) *Env {
	t.Helper()
	codec, err := envelope.New("apitest-secret")
	if err != nil {
		t.Fatalf("envelope.New: %v", err)
	}
	sm, err := session.NewManager(session.Options{Password: "apitest-cookie-password-0123456789", MaxAge: time.Hour})
	if err != nil {
		t.Fatalf("session.NewManager: %v", err)
	}
	tr, err := i18n.New("vi", []string{"vi", "en"})
	if err != nil {
		t.Fatalf("i18n.New: %v", err)
	}
	e := echo.New()
	return &Env{Echo: e, Codec: codec, Sessions: sm, Wrapper: api.NewWrapper(codec, sm, tr)}
}

// Call is one request against Env.
type Call struct {
	Method  string
	Path    string
	Payload any // sealed into {"encrypted": ...} when non-nil
	Cookies []*http.Cookie
	Header  http.Header
	Remote  string
}

// Reply is a decoded response.
type Reply struct {
	Status  int
	Payload envelope.Payload
	Cookies []*http.Cookie
}

// Data re-decodes Payload.Data into out.
func (r *Reply) Data(t *testing.T, out any) {
	t.Helper()
	raw, err := json.Marshal(r.Payload.Data)
	if err != nil {
		t.Fatalf("marshal data: %v", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		t.Fatalf("unmarshal data: %v", err)
	}
}

// Cookie returns the named response cookie, or nil.
func (r *Reply) Cookie(name string) *http.Cookie {
	for _, ck := range r.Cookies {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

// Do performs call and opens the response envelope.
func (env *Env) Do(t *testing.T, call Call) *Reply {
	t.Helper()

	var body io.Reader
	if call.Payload != nil {
		sealed, err := env.Codec.Seal(call.Payload)
		if err != nil {
			t.Fatalf("Seal: %v", err)
		}
		raw, _ := json.Marshal(sealed)
		body = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(call.Method, call.Path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, vs := range call.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	for _, ck := range call.Cookies {
		req.AddCookie(ck)
	}
	if call.Remote != "" {
		req.RemoteAddr = call.Remote
	}

	rec := httptest.NewRecorder()
	env.Echo.ServeHTTP(rec, req)

	var sealed envelope.Body
	if err := json.Unmarshal(rec.Body.Bytes(), &sealed); err != nil || sealed.Encrypted == "" {
		t.Fatalf("%s %s: response is not an envelope (status %d): %s", call.Method, call.Path, rec.Code, rec.Body.String())
	}
	reply := &Reply{Status: rec.Code, Cookies: rec.Result().Cookies()}
	if err := env.Codec.Decrypt(sealed.Encrypted, &reply.Payload); err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	return reply
}

// SessionCookie returns a cookie carrying s.
func (env *Env) SessionCookie(t *testing.T, s *session.Session) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	c := env.Echo.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	if err := env.Sessions.Save(c, s); err != nil {
		t.Fatalf("Save session: %v", err)
	}
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == session.CookieName {
			return ck
		}
	}
	t.Fatal("no session cookie written")
	return nil
}

// LoggedIn returns a session cookie for a logged-in user with an opaque
// access token.
func (env *Env) LoggedIn(t *testing.T) *http.Cookie {
	t.Helper()
	return env.SessionCookie(t, &session.Session{
		ID:          "user-1",
		Email:       "an@example.com",
		Name:        "An",
		AccessToken: "opaque-token",
		IsLoggedIn:  true,
	})
}

// ReadSession decodes the session carried by a response cookie.
func (env *Env) ReadSession(t *testing.T, ck *http.Cookie) *session.Session {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if ck != nil {
		req.AddCookie(ck)
	}
	return env.Sessions.Load(env.Echo.NewContext(req, httptest.NewRecorder()))
}
