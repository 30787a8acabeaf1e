package payments

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/lethanhdatit/bocmenh/internal/api"
	"github.com/lethanhdatit/bocmenh/internal/middleware"
)

// RegisterRoutes sets up the payment routes. Only the package list is
// public.
func RegisterRoutes(e *echo.Echo, w *api.Wrapper, h *Handler) {
	e.GET("/api/topups/packages", w.Wrap(api.Public, h.Packages))
	e.POST("/api/topups", w.Wrap(api.Authed, h.CreateTopup), middleware.RateLimit(10, time.Minute))
	e.GET("/api/topups/memo-checkout", w.Wrap(api.Authed, h.MemoCheckout))
	e.POST("/api/transaction/status", w.Wrap(api.Authed, h.TransactionStatus))
}
