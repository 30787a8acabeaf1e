package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/lethanhdatit/bocmenh/internal/api"
	"github.com/lethanhdatit/bocmenh/internal/api/apitest"
	"github.com/lethanhdatit/bocmenh/internal/backend"
	"github.com/lethanhdatit/bocmenh/internal/session"
	"github.com/lethanhdatit/bocmenh/pkg/envelope"
)

// --- Test Helpers ---

type reading struct {
	Question string `json:"question"`
}

// newServer mounts a small API on a real listener:
//
//	POST /api/login     logs in (public)
//	POST /api/reading   echoes the question (authed)
//	POST /api/upload    always fails with a backend 401 (public)
//	POST /api/validate  always fails validation (public)
//	GET  /api/whoami    reports language and time zone (public)
func newServer(t *testing.T) (*httptest.Server, *apitest.Env) {
	t.Helper()
	env := apitest.New(t)
	w := env.Wrapper

	env.Echo.POST("/api/login", w.Wrap(api.Public, func(r *api.Request) *api.Response {
		r.Session = &session.Session{ID: "user-1", AccessToken: "opaque-token", IsLoggedIn: true}
		if err := r.SaveSession(); err != nil {
			return api.HandleServerError(r, err)
		}
		return api.OK("", nil)
	}))
	env.Echo.POST("/api/reading", w.Wrap(api.Authed, func(r *api.Request) *api.Response {
		var in reading
		if err := r.Bind(&in); err != nil {
			return api.HandleServerError(r, err)
		}
		return api.OK("", in)
	}))
	env.Echo.POST("/api/upload", w.Wrap(api.Public, func(r *api.Request) *api.Response {
		return api.HandleServerError(r, &backend.Error{Status: http.StatusUnauthorized})
	}))
	env.Echo.POST("/api/validate", w.Wrap(api.Public, func(r *api.Request) *api.Response {
		v := api.NewValidator()
		v.Required("name", "")
		return api.HandleServerError(r, v.Err())
	}))
	env.Echo.GET("/api/whoami", w.Wrap(api.Public, func(r *api.Request) *api.Response {
		return api.OK("", map[string]string{"language": r.Language, "timeZone": r.TimeZone})
	}))

	srv := httptest.NewServer(env.Echo)
	t.Cleanup(srv.Close)
	return srv, env
}

func newClient(t *testing.T, srv *httptest.Server, env *apitest.Env, opts Options) *Client {
	t.Helper()
	opts.BaseURL = srv.URL
	c, err := New(env.Codec, opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

// loginPrompter logs in through c and counts prompts.
func loginPrompter(c *Client, prompts *atomic.Int32, seen *Challenge) LoginPrompterFunc {
	return func(ctx context.Context, ch Challenge) error {
		prompts.Add(1)
		if seen != nil {
			*seen = ch
		}
		return c.Do(ctx, http.MethodPost, "/api/login", map[string]string{"email": "an@example.com"}, nil)
	}
}

// --- Tests ---

func TestDo_SendsLanguageAndTimeZone(t *testing.T) {
	srv, env := newServer(t)
	c := newClient(t, srv, env, Options{
		Language: func() string { return "en" },
		TimeZone: "Asia/Ho_Chi_Minh",
	})

	var out map[string]string
	if err := c.Do(context.Background(), http.MethodGet, "/api/whoami", nil, &out); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if out["language"] != "en" || out["timeZone"] != "Asia/Ho_Chi_Minh" {
		t.Errorf("out = %v", out)
	}
}

func TestDo_RetriesAfterLogin(t *testing.T) {
	srv, env := newServer(t)
	c := newClient(t, srv, env, Options{})

	var prompts, logouts atomic.Int32
	var seen Challenge
	c.SetLoginPrompter(loginPrompter(c, &prompts, &seen))
	c.OnLogout(func() { logouts.Add(1) })

	var out reading
	err := c.Do(context.Background(), http.MethodPost, "/api/reading", reading{Question: "Năm nay thế nào?"}, &out)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if out.Question != "Năm nay thế nào?" {
		t.Errorf("question = %q, want replayed payload", out.Question)
	}
	if prompts.Load() != 1 || logouts.Load() != 1 {
		t.Errorf("prompts = %d, logouts = %d, want 1 and 1", prompts.Load(), logouts.Load())
	}
	if !seen.Retryable() || seen.Path != "/api/reading" || seen.Method != http.MethodPost {
		t.Errorf("challenge = %+v", seen)
	}

	// The cookie jar now carries the session.
	if err := c.Do(context.Background(), http.MethodPost, "/api/reading", reading{Question: "again"}, &out); err != nil {
		t.Fatalf("second Do: %v", err)
	}
	if prompts.Load() != 1 {
		t.Errorf("logged-in call prompted again")
	}
}

func TestDo_NonReplayableAsksToTryAgain(t *testing.T) {
	srv, env := newServer(t)
	c := newClient(t, srv, env, Options{})

	var prompts atomic.Int32
	var seen Challenge
	c.SetLoginPrompter(loginPrompter(c, &prompts, &seen))

	body := Raw{Body: strings.NewReader("--boundary--"), ContentType: "multipart/form-data; boundary=boundary"}
	err := c.Do(context.Background(), http.MethodPost, "/api/upload", body, nil)
	if !errors.Is(err, ErrPleaseTryAgain) {
		t.Fatalf("err = %v, want ErrPleaseTryAgain", err)
	}
	if seen.Code != envelope.CodeAuthRequired || seen.Retryable() {
		t.Errorf("challenge = %+v", seen)
	}
	if prompts.Load() != 1 {
		t.Errorf("prompts = %d", prompts.Load())
	}
}

func TestDo_DrainedBodyIsNotReplayed(t *testing.T) {
	srv, env := newServer(t)
	var hits atomic.Int32
	env.Echo.POST("/api/avatar", env.Wrapper.Wrap(api.Authed, func(r *api.Request) *api.Response {
		hits.Add(1)
		return api.OK("", nil)
	}))

	c := newClient(t, srv, env, Options{})
	var prompts atomic.Int32
	var seen Challenge
	c.SetLoginPrompter(loginPrompter(c, &prompts, &seen))

	form := "--b\r\nContent-Disposition: form-data\r\n\r\n--b--"
	body := Raw{Body: strings.NewReader(form), ContentType: "multipart/form-data; boundary=b"}
	err := c.Do(context.Background(), http.MethodPost, "/api/avatar", body, nil)
	if !errors.Is(err, ErrPleaseTryAgain) {
		t.Fatalf("err = %v, want ErrPleaseTryAgain", err)
	}
	if prompts.Load() != 1 {
		t.Errorf("prompts = %d, want 1", prompts.Load())
	}
	if seen.Retryable() {
		t.Errorf("challenge = %+v, a drained body cannot be replayed", seen)
	}
	if hits.Load() != 0 {
		t.Errorf("handler ran %d times with an empty replay", hits.Load())
	}
}

func TestDo_DeclinedLoginReturnsOriginalError(t *testing.T) {
	srv, env := newServer(t)
	c := newClient(t, srv, env, Options{})
	c.SetLoginPrompter(LoginPrompterFunc(func(context.Context, Challenge) error {
		return errors.New("user closed the prompt")
	}))

	err := c.Do(context.Background(), http.MethodPost, "/api/reading", reading{Question: "x"}, nil)
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *Error", err)
	}
	if apiErr.Status != http.StatusUnauthorized || apiErr.Payload.ErrorCode != envelope.CodeAuthRequiredRetry {
		t.Errorf("apiErr = %+v", apiErr)
	}
}

func TestDo_RetriesOnlyOnce(t *testing.T) {
	srv, env := newServer(t)
	c := newClient(t, srv, env, Options{})

	var prompts atomic.Int32
	// Claims success without logging in, so the replay hits 401 again.
	c.SetLoginPrompter(LoginPrompterFunc(func(context.Context, Challenge) error {
		prompts.Add(1)
		return nil
	}))

	err := c.Do(context.Background(), http.MethodPost, "/api/reading", reading{Question: "x"}, nil)
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		t.Fatalf("err = %v, want 401 *Error", err)
	}
	if prompts.Load() != 1 {
		t.Errorf("prompts = %d, want 1", prompts.Load())
	}
}

func TestDo_WithoutPrompter(t *testing.T) {
	srv, env := newServer(t)
	c := newClient(t, srv, env, Options{})

	var logouts atomic.Int32
	c.OnLogout(func() { logouts.Add(1) })

	err := c.Do(context.Background(), http.MethodPost, "/api/reading", reading{Question: "x"}, nil)
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		t.Fatalf("err = %v, want 401 *Error", err)
	}
	if apiErr.Payload.ForwardData == nil {
		t.Error("expected forwardData on a retryable 401")
	}
	if logouts.Load() != 1 {
		t.Errorf("logouts = %d", logouts.Load())
	}
}

func TestDo_ValidationError(t *testing.T) {
	srv, env := newServer(t)
	c := newClient(t, srv, env, Options{Language: func() string { return "en" }})

	err := c.Do(context.Background(), http.MethodPost, "/api/validate", map[string]string{}, nil)
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *Error", err)
	}
	if apiErr.Status != http.StatusBadRequest || apiErr.Payload.Errors["name"] == "" {
		t.Errorf("apiErr = %+v", apiErr)
	}
	if apiErr.Error() == "" {
		t.Error("empty error string")
	}
}

func TestDo_PlainJSONReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":{"status":"ok"}}`))
	}))
	t.Cleanup(srv.Close)

	codec, err := envelope.New("plain-secret")
	if err != nil {
		t.Fatal(err)
	}
	c, err := New(codec, Options{BaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}

	var out map[string]string
	if err := c.Do(context.Background(), http.MethodGet, "/healthz", nil, &out); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if out["status"] != "ok" {
		t.Errorf("out = %v", out)
	}
}
