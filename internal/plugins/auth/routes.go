package auth

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/lethanhdatit/bocmenh/internal/api"
	"github.com/lethanhdatit/bocmenh/internal/middleware"
)

// RegisterRoutes sets up the auth API. Credential endpoints are rate
// limited per IP: 10/min for login, 5/min for register and reset requests.
func RegisterRoutes(e *echo.Echo, w *api.Wrapper, h *Handler) {
	g := e.Group("/api/auth")

	g.POST("/login", w.Wrap(api.Public, h.Login), middleware.RateLimit(10, time.Minute))
	g.POST("/register", w.Wrap(api.Public, h.Register), middleware.RateLimit(5, time.Minute))
	g.POST("/logout", w.Wrap(api.Public, h.Logout))
	g.GET("/me", w.Wrap(api.Public, h.Me))
	g.PUT("/profile", w.Wrap(api.Authed, h.UpdateProfile))

	g.POST("/forgot-password", w.Wrap(api.Public, h.ForgotPassword), middleware.RateLimit(5, time.Minute))
	g.POST("/validate-reset-token", w.Wrap(api.Public, h.ValidateResetToken), middleware.RateLimit(20, time.Minute))
	g.POST("/reset-password", w.Wrap(api.Public, h.ResetPassword), middleware.RateLimit(5, time.Minute))
}
