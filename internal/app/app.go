// Package app is the application bootstrap and dependency injection root.
// It holds the shared infrastructure (optional DB pool and Redis client,
// envelope codec, session manager, translator, Echo instance) and wires
// every plugin onto it.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/lethanhdatit/bocmenh/internal/api"
	"github.com/lethanhdatit/bocmenh/internal/apperror"
	"github.com/lethanhdatit/bocmenh/internal/config"
	"github.com/lethanhdatit/bocmenh/internal/i18n"
	"github.com/lethanhdatit/bocmenh/internal/middleware"
	"github.com/lethanhdatit/bocmenh/internal/session"
	"github.com/lethanhdatit/bocmenh/internal/templates/pages"
	"github.com/lethanhdatit/bocmenh/pkg/envelope"
)

// App holds all shared dependencies and the Echo HTTP server instance.
// Created once at startup in main.go and used to register all routes.
type App struct {
	// Config holds the loaded application configuration.
	Config *config.Config

	// DB is the MariaDB pool, nil unless RESET_TOKEN_STORE is mariadb.
	DB *sql.DB

	// Redis is the Redis client, nil unless LUCKY_BOX_STORE is redis.
	Redis *redis.Client

	// Echo is the HTTP server instance.
	Echo *echo.Echo

	Translator *i18n.Translator
	Wrapper    *api.Wrapper

	pages   *pages.Handler
	closers []io.Closer
}

// New creates the App: shared codec, session manager, and translator,
// global middleware, and the error handler.
func New(cfg *config.Config, db *sql.DB, rdb *redis.Client) (*App, error) {
	codec, err := envelope.New(cfg.Security.EncryptionSecret)
	if err != nil {
		return nil, fmt.Errorf("creating envelope codec: %w", err)
	}
	sessions, err := session.NewManager(session.Options{
		Password: cfg.Security.CookiePassword,
		MaxAge:   cfg.Security.SessionMaxAge,
		Secure:   cfg.IsProduction(),
	})
	if err != nil {
		return nil, fmt.Errorf("creating session manager: %w", err)
	}
	tr, err := i18n.New(cfg.Locale.Default, cfg.Locale.Enabled)
	if err != nil {
		return nil, fmt.Errorf("loading translations: %w", err)
	}

	e := echo.New()

	// We log our own startup line.
	e.HideBanner = true
	e.HidePort = true

	// c.RealIP() must see the client behind the reverse proxy; the lucky
	// box and rate limiters key on it.
	if err := middleware.TrustedProxies(e, cfg.TrustedProxies); err != nil {
		return nil, err
	}

	app := &App{
		Config:     cfg,
		DB:         db,
		Redis:      rdb,
		Echo:       e,
		Translator: tr,
		Wrapper:    api.NewWrapper(codec, sessions, tr),
		pages:      pages.NewHandler(tr, sessions),
	}

	app.setupMiddleware()
	e.HTTPErrorHandler = app.errorHandler

	// Serve static files (CSS, JS, fonts, images).
	e.Static("/static", "static")

	return app, nil
}

// setupMiddleware registers global middleware on the Echo instance.
// Pre middleware wraps the router, so recovery and security headers also
// cover the locale redirects that never reach a route.
func (a *App) setupMiddleware() {
	a.Echo.Pre(middleware.Recovery())
	a.Echo.Pre(middleware.RequestID())
	a.Echo.Pre(middleware.RequestLogger())
	a.Echo.Pre(middleware.SecurityHeaders())

	// Locale prefixes are stripped before routing.
	a.Echo.Pre(middleware.Locale(middleware.LocaleConfig{
		Translator: a.Translator,
		Secure:     a.Config.IsProduction(),
	}))

	a.Echo.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:   []string{a.Config.BaseURL},
		AllowCredentials: true,
	}))
}

// errorHandler is the custom Echo error handler. Errors escaping an /api
// route (router 404/405, rate limiting, panics) still leave as an
// encrypted envelope; everything else renders the error page.
func (a *App) errorHandler(err error, c echo.Context) {
	// Don't double-write if response is already committed.
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := "errors.generic"

	var appErr *apperror.AppError
	var echoErr *echo.HTTPError
	switch {
	case errors.As(err, &appErr):
		if appErr.Internal != nil {
			slog.Error("internal error",
				slog.String("type", appErr.Type),
				slog.Any("internal", appErr.Internal),
				slog.String("path", c.Request().URL.Path),
			)
		}
		code, message = apperror.SafeCode(err), apperror.SafeMessage(err)
	case errors.As(err, &echoErr):
		code = echoErr.Code
		message = statusMessage(code)
	default:
		slog.Error("unhandled error",
			slog.Any("error", err),
			slog.String("path", c.Request().URL.Path),
		)
	}

	if isAPIRequest(c) {
		if err := a.Wrapper.WriteError(c, code, message); err != nil {
			slog.Error("failed to write error envelope", slog.Any("error", err))
		}
		return
	}

	if c.Request().Method == http.MethodHead {
		c.NoContent(code)
		return
	}
	if err := a.pages.Error(c, code, message); err != nil {
		slog.Error("failed to render error page", slog.Any("error", err))
	}
}

// statusMessage maps an HTTP status to a translation key.
func statusMessage(code int) string {
	switch code {
	case http.StatusBadRequest:
		return "errors.badRequest"
	case http.StatusUnauthorized:
		return "errors.authRequired"
	case http.StatusForbidden:
		return "errors.forbidden"
	case http.StatusNotFound:
		return "errors.notFound"
	case http.StatusMethodNotAllowed:
		return "errors.methodNotAllowed"
	case http.StatusTooManyRequests:
		return "errors.tooManyRequests"
	default:
		return "errors.generic"
	}
}

// isAPIRequest returns true if the request targets the encrypted API.
func isAPIRequest(c echo.Context) bool {
	p := c.Request().URL.Path
	return p == "/api" || strings.HasPrefix(p, "/api/")
}

// Start begins listening for HTTP requests on the configured port.
func (a *App) Start() error {
	addr := fmt.Sprintf(":%d", a.Config.Port)
	slog.Info("starting Bói Mệnh server",
		slog.String("addr", addr),
		slog.String("env", a.Config.Env),
	)
	return a.Echo.Start(addr)
}

// Shutdown drains in-flight requests, then closes the stores that own
// background goroutines.
func (a *App) Shutdown(ctx context.Context) error {
	err := a.Echo.Shutdown(ctx)
	for _, c := range a.closers {
		if cerr := c.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}
	return err
}
