package fortune

import (
	"github.com/labstack/echo/v4"

	"github.com/lethanhdatit/bocmenh/internal/api"
)

// RegisterRoutes sets up the fortune routes. Readings need a logged-in
// user; dreams and zodiac are public.
func RegisterRoutes(e *echo.Echo, w *api.Wrapper, h *Handler) {
	e.POST("/api/destiny", w.Wrap(api.Authed, h.Destiny))
	e.POST("/api/numerology", w.Wrap(api.Authed, h.Numerology))
	e.POST("/api/tarot", w.Wrap(api.Authed, h.Tarot))

	e.GET("/api/dreams", w.Wrap(api.Public, h.Dreams))
	e.GET("/api/zodiac", w.Wrap(api.Public, h.Zodiac))
}
