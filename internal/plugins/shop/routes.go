package shop

import (
	"github.com/labstack/echo/v4"

	"github.com/lethanhdatit/bocmenh/internal/api"
)

// RegisterRoutes sets up the public catalog routes.
func RegisterRoutes(e *echo.Echo, w *api.Wrapper, h *Handler) {
	g := e.Group("/api/store/products")
	g.GET("", w.Wrap(api.Public, h.List))
	g.GET("/:id", w.Wrap(api.Public, h.Get))
}
