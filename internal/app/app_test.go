package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/lethanhdatit/bocmenh/internal/config"
	"github.com/lethanhdatit/bocmenh/pkg/envelope"
)

func testConfig() *config.Config {
	return &config.Config{
		Env:     "development",
		Port:    3000,
		BaseURL: "http://localhost:3000",
		Security: config.SecurityConfig{
			EncryptionSecret: "app-test-secret",
			CookiePassword:   "app-test-cookie-password-0123456789abcdef",
			SessionMaxAge:    time.Hour,
		},
		Backend:    config.BackendConfig{BaseURL: "http://127.0.0.1:1", Timeout: time.Second},
		Locale:     config.LocaleConfig{Default: "vi", Enabled: []string{"vi", "en"}},
		LuckyBox:   config.LuckyBoxConfig{Store: config.StoreMemory, TimeZone: "Asia/Ho_Chi_Minh"},
		ResetToken: config.ResetTokenConfig{Store: config.StoreMemory, TTL: 15 * time.Minute},
	}
}

func newTestApp(t *testing.T, cfg *config.Config, rdb *redis.Client) *App {
	t.Helper()
	a, err := New(cfg, nil, rdb)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		for _, c := range a.closers {
			c.Close()
		}
	})
	if err := a.RegisterRoutes(ctx); err != nil {
		t.Fatalf("RegisterRoutes: %v", err)
	}
	return a
}

func serve(a *App, method, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, vs := range header {
		req.Header[k] = vs
	}
	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)
	return rec
}

func openEnvelope(t *testing.T, cfg *config.Config, rec *httptest.ResponseRecorder) envelope.Payload {
	t.Helper()
	codec, err := envelope.New(cfg.Security.EncryptionSecret)
	if err != nil {
		t.Fatal(err)
	}
	var body envelope.Body
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body.Encrypted == "" {
		t.Fatalf("not an envelope: %s", rec.Body.String())
	}
	var p envelope.Payload
	if err := codec.Decrypt(body.Encrypted, &p); err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	return p
}

func TestErrorHandler_APIErrorsAreEnvelopes(t *testing.T) {
	cfg := testConfig()
	a := newTestApp(t, cfg, nil)

	tests := []struct {
		name    string
		method  string
		path    string
		status  int
		message string
	}{
		{"unknown route", http.MethodGet, "/api/nope", http.StatusNotFound, "The requested content was not found."},
		{"wrong method", http.MethodDelete, "/api/lucky-box", http.StatusMethodNotAllowed, "This action is not allowed."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(a, tt.method, tt.path, http.Header{"Accept-Language": {"en"}})
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			p := openEnvelope(t, cfg, rec)
			if p.Success || p.Message != tt.message {
				t.Errorf("payload = %+v", p)
			}
		})
	}
}

func TestErrorHandler_PagesRenderHTML(t *testing.T) {
	a := newTestApp(t, testConfig(), nil)

	rec := serve(a, http.MethodGet, "/no-such-page", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "Không tìm thấy nội dung yêu cầu.") {
		t.Errorf("expected Vietnamese error page, got %s", rec.Body.String())
	}
}

func TestLuckyBoxEndToEnd(t *testing.T) {
	cfg := testConfig()
	a := newTestApp(t, cfg, nil)

	first := openEnvelope(t, cfg, serve(a, http.MethodGet, "/api/lucky-box", nil))
	second := openEnvelope(t, cfg, serve(a, http.MethodGet, "/api/lucky-box", nil))
	if !first.Success || !second.Success {
		t.Fatalf("draws failed: %+v %+v", first, second)
	}

	d1 := first.Data.(map[string]any)
	d2 := second.Data.(map[string]any)
	if d1["luckyNumber"] != d2["luckyNumber"] || d1["isFirstTime"] != true || d2["isFirstTime"] != false {
		t.Errorf("same IP must see the same draw: %v then %v", d1, d2)
	}
}

func TestSecurityHeadersAndRequestID(t *testing.T) {
	a := newTestApp(t, testConfig(), nil)

	rec := serve(a, http.MethodGet, "/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("missing security headers")
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Error("missing request id")
	}
}

func TestSecurityHeaders_OnLocaleRedirects(t *testing.T) {
	a := newTestApp(t, testConfig(), nil)

	tests := []struct {
		name     string
		path     string
		header   http.Header
		location string
	}{
		{"default locale prefix", "/vi/about", nil, "/about"},
		{"visitor prefers en", "/", http.Header{"Accept-Language": {"en"}}, "/en"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(a, http.MethodGet, tt.path, tt.header)
			if rec.Code != http.StatusTemporaryRedirect || rec.Header().Get("Location") != tt.location {
				t.Fatalf("got %d Location=%q, want 307 %q", rec.Code, rec.Header().Get("Location"), tt.location)
			}
			h := rec.Header()
			if h.Get("X-Frame-Options") != "DENY" ||
				h.Get("X-Content-Type-Options") != "nosniff" ||
				h.Get("Referrer-Policy") != "strict-origin-when-cross-origin" {
				t.Errorf("redirect missing security headers: %v", h)
			}
		})
	}
}

func TestRecovery_CoversPreRoutingPanics(t *testing.T) {
	a := newTestApp(t, testConfig(), nil)
	a.Echo.Pre(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().URL.Path == "/boom" {
				panic("pre-routing failure")
			}
			return next(c)
		}
	})

	rec := serve(a, http.MethodGet, "/boom", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type = %q, want the error page", ct)
	}
	if rec.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("missing security headers on recovered panic")
	}
}

func TestHealth(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	cfg := testConfig()
	cfg.LuckyBox.Store = config.StoreRedis
	a := newTestApp(t, cfg, rdb)

	rec := serve(a, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"redis":"ok"`) {
		t.Fatalf("healthy: %d %s", rec.Code, rec.Body.String())
	}

	mr.Close()
	rec = serve(a, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 with redis down, got %d", rec.Code)
	}
}

func TestRegisterRoutes_StoreNeedsInfrastructure(t *testing.T) {
	cfg := testConfig()
	cfg.ResetToken.Store = config.StoreMariaDB

	a, err := New(cfg, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := a.RegisterRoutes(context.Background()); err == nil {
		t.Error("expected error when mariadb store has no database")
	}
}
