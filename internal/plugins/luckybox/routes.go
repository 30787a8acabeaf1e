package luckybox

import (
	"github.com/labstack/echo/v4"

	"github.com/lethanhdatit/bocmenh/internal/api"
)

// RegisterRoutes sets up the lucky box route. It is public.
func RegisterRoutes(e *echo.Echo, w *api.Wrapper, h *Handler) {
	e.GET("/api/lucky-box", w.Wrap(api.Public, h.Get))
}
