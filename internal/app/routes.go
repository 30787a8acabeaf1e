package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/lethanhdatit/bocmenh/internal/backend"
	"github.com/lethanhdatit/bocmenh/internal/config"
	"github.com/lethanhdatit/bocmenh/internal/plugins/auth"
	"github.com/lethanhdatit/bocmenh/internal/plugins/fortune"
	"github.com/lethanhdatit/bocmenh/internal/plugins/locale"
	"github.com/lethanhdatit/bocmenh/internal/plugins/luckybox"
	"github.com/lethanhdatit/bocmenh/internal/plugins/payments"
	"github.com/lethanhdatit/bocmenh/internal/plugins/shop"
	"github.com/lethanhdatit/bocmenh/internal/templates/pages"
)

// tokenCleanupInterval is how often expired reset tokens are purged.
const tokenCleanupInterval = time.Hour

// RegisterRoutes wires every plugin and registers its routes. ctx bounds
// the background workers the plugins start.
//
// This is the single place where all routes are aggregated. When a new
// plugin is added, its routes are registered here.
func (a *App) RegisterRoutes(ctx context.Context) error {
	e := a.Echo
	cfg := a.Config
	w := a.Wrapper

	be := backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.APIKey, cfg.Backend.Timeout)

	// --- Pages ---
	pages.RegisterRoutes(e, a.pages)
	e.GET("/healthz", a.health)

	// --- Auth ---
	tokens, err := a.resetTokenStore()
	if err != nil {
		return err
	}
	go auth.CleanupExpiredTokens(ctx, tokens, tokenCleanupInterval)

	authService := auth.NewAuthService(be, tokens, auth.ServiceConfig{
		BaseURL:       cfg.BaseURL,
		DefaultLocale: cfg.Locale.Default,
		ResetTokenTTL: cfg.ResetToken.TTL,
	})
	auth.RegisterRoutes(e, w, auth.NewHandler(authService))

	// --- Lucky box ---
	boxes, err := a.luckyBoxStore()
	if err != nil {
		return err
	}
	luckyService := luckybox.NewLuckyBoxService(boxes, cfg.LuckyBox.Location())
	luckybox.RegisterRoutes(e, w, luckybox.NewHandler(luckyService))

	// --- Backend-backed features ---
	fortune.RegisterRoutes(e, w, fortune.NewHandler(fortune.NewFortuneService(be)))
	payments.RegisterRoutes(e, w, payments.NewHandler(payments.NewPaymentService(be)))
	shop.RegisterRoutes(e, w, shop.NewHandler(shop.NewShopService(be)))

	// --- Preferences ---
	locale.RegisterRoutes(e, w, locale.NewHandler(cfg.IsProduction()))

	return nil
}

func (a *App) resetTokenStore() (auth.ResetTokenStore, error) {
	switch a.Config.ResetToken.Store {
	case config.StoreMariaDB:
		if a.DB == nil {
			return nil, fmt.Errorf("reset token store %q needs a database", config.StoreMariaDB)
		}
		return auth.NewResetTokenRepository(a.DB), nil
	default:
		return auth.NewMemoryTokenStore(), nil
	}
}

func (a *App) luckyBoxStore() (luckybox.Store, error) {
	switch a.Config.LuckyBox.Store {
	case config.StoreRedis:
		if a.Redis == nil {
			return nil, fmt.Errorf("lucky box store %q needs redis", config.StoreRedis)
		}
		return luckybox.NewRedisStore(a.Redis), nil
	default:
		store := luckybox.NewMemoryStore(a.Config.LuckyBox.Location())
		a.closers = append(a.closers, store)
		return store, nil
	}
}

// health reports 503 when a configured dependency does not answer.
func (a *App) health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{}
	healthy := true
	if a.DB != nil {
		checks["mariadb"] = "ok"
		if err := a.DB.PingContext(ctx); err != nil {
			checks["mariadb"] = err.Error()
			healthy = false
		}
	}
	if a.Redis != nil {
		checks["redis"] = "ok"
		if err := a.Redis.Ping(ctx).Err(); err != nil {
			checks["redis"] = err.Error()
			healthy = false
		}
	}

	if !healthy {
		return c.JSON(http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "checks": checks})
	}
	return c.JSON(http.StatusOK, map[string]any{"status": "ok", "checks": checks})
}
