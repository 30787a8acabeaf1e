package middleware

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// CORSConfig holds configuration for the CORS middleware.
type CORSConfig struct {
	// AllowedOrigins lists the origins allowed to call /api. The site itself
	// (NEXT_PUBLIC_BASE_URL) is usually the only entry.
	AllowedOrigins []string

	// AllowCredentials lets the browser send the session cookie.
	AllowCredentials bool
}

// CORS returns Echo's CORS middleware configured for the envelope API:
// the client sends Accept-Language and X-Timezone on every call.
func CORS(cfg CORSConfig) echo.MiddlewareFunc {
	for _, o := range cfg.AllowedOrigins {
		if o == "*" && cfg.AllowCredentials {
			slog.Warn("CORS: wildcard origin with credentials is not allowed; credentials disabled")
			cfg.AllowCredentials = false
		}
	}

	return echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowCredentials: cfg.AllowCredentials,
		AllowMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowHeaders: []string{
			echo.HeaderContentType,
			echo.HeaderAccept,
			"Accept-Language",
			"X-Timezone",
			echo.HeaderXRequestID,
		},
		ExposeHeaders: []string{echo.HeaderXRequestID},
		MaxAge:        3600,
	})
}
