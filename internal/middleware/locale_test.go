package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/lethanhdatit/bocmenh/internal/i18n"
)

func newLocaleEcho(t *testing.T) *echo.Echo {
	t.Helper()
	tr, err := i18n.New("vi", []string{"vi", "en"})
	if err != nil {
		t.Fatalf("i18n.New: %v", err)
	}

	e := echo.New()
	e.Pre(Locale(LocaleConfig{Translator: tr}))

	h := func(c echo.Context) error {
		return c.String(http.StatusOK, GetLocale(c)+"|"+c.Request().URL.Path)
	}
	e.GET("/", h)
	e.GET("/about", h)
	e.GET("/api/lucky-box", h)
	e.GET("/static/app.css", h)
	e.GET("/logo.png", h)
	e.GET("/healthz", h)
	return e
}

func TestLocale(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		cookie         string
		acceptLanguage string
		wantStatus     int
		wantLocation   string
		wantBody       string
		wantCookie     string
	}{
		{
			name:       "default locale served unprefixed",
			path:       "/about",
			wantStatus: http.StatusOK,
			wantBody:   "vi|/about",
		},
		{
			name:         "default locale prefix redirects away",
			path:         "/vi/about?tab=2",
			wantStatus:   http.StatusTemporaryRedirect,
			wantLocation: "/about?tab=2",
			wantCookie:   "vi",
		},
		{
			name:       "other locale prefix is stripped",
			path:       "/en/about",
			wantStatus: http.StatusOK,
			wantBody:   "en|/about",
			wantCookie: "en",
		},
		{
			name:       "bare locale prefix maps to root",
			path:       "/en",
			wantStatus: http.StatusOK,
			wantBody:   "en|/",
			wantCookie: "en",
		},
		{
			name:           "accept-language redirects to prefix",
			path:           "/about",
			acceptLanguage: "en-US,en;q=0.9",
			wantStatus:     http.StatusTemporaryRedirect,
			wantLocation:   "/en/about",
		},
		{
			name:         "cookie redirects root to prefix",
			path:         "/",
			cookie:       "en",
			wantStatus:   http.StatusTemporaryRedirect,
			wantLocation: "/en",
		},
		{
			name:           "cookie beats accept-language",
			path:           "/about",
			cookie:         "vi",
			acceptLanguage: "en",
			wantStatus:     http.StatusOK,
			wantBody:       "vi|/about",
		},
		{
			name:           "disabled cookie locale is ignored",
			path:           "/about",
			cookie:         "fr",
			acceptLanguage: "en",
			wantStatus:     http.StatusTemporaryRedirect,
			wantLocation:   "/en/about",
		},
		{
			name:           "unsupported accept-language falls back to default",
			path:           "/about",
			acceptLanguage: "ja",
			wantStatus:     http.StatusOK,
			wantBody:       "vi|/about",
		},
		{
			name:           "api is skipped",
			path:           "/api/lucky-box",
			acceptLanguage: "en",
			wantStatus:     http.StatusOK,
			wantBody:       "|/api/lucky-box",
		},
		{
			name:           "static is skipped",
			path:           "/static/app.css",
			acceptLanguage: "en",
			wantStatus:     http.StatusOK,
			wantBody:       "|/static/app.css",
		},
		{
			name:           "file extension is skipped",
			path:           "/logo.png",
			acceptLanguage: "en",
			wantStatus:     http.StatusOK,
			wantBody:       "|/logo.png",
		},
		{
			name:           "health check is skipped",
			path:           "/healthz",
			acceptLanguage: "en",
			wantStatus:     http.StatusOK,
			wantBody:       "|/healthz",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newLocaleEcho(t)
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: LocaleCookie, Value: tt.cookie})
			}
			if tt.acceptLanguage != "" {
				req.Header.Set("Accept-Language", tt.acceptLanguage)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %q)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantLocation != "" {
				if got := rec.Header().Get("Location"); got != tt.wantLocation {
					t.Errorf("Location = %q, want %q", got, tt.wantLocation)
				}
			}
			if tt.wantBody != "" && rec.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.wantBody)
			}
			if tt.wantCookie != "" {
				var got string
				for _, ck := range rec.Result().Cookies() {
					if ck.Name == LocaleCookie {
						got = ck.Value
					}
				}
				if got != tt.wantCookie {
					t.Errorf("%s cookie = %q, want %q", LocaleCookie, got, tt.wantCookie)
				}
			}
		})
	}
}

func TestSkipLocale(t *testing.T) {
	for _, p := range []string{"/api", "/api/x", "/_next/static/chunk.js", "/.well-known/security.txt", "/favicon.ico", "/robots.txt", "/sitemap.xml", "/fonts/a.woff2"} {
		if !skipLocale(p) {
			t.Errorf("expected %q to be skipped", p)
		}
	}
	for _, p := range []string{"/", "/about", "/apiary", "/en/tarot"} {
		if skipLocale(p) {
			t.Errorf("expected %q to be localized", p)
		}
	}
}
