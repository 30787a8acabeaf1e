// Package locale lets the client switch language. The choice is stored in
// the NEXT_LOCALE cookie read by the locale routing middleware and in the
// session, where the API wrapper falls back to it.
package locale

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/lethanhdatit/bocmenh/internal/api"
	"github.com/lethanhdatit/bocmenh/internal/middleware"
)

// Request is the body of POST /api/locale.
type Request struct {
	Locale string `json:"locale"`
}

// Handler serves the locale endpoint.
type Handler struct {
	secure bool
}

// NewHandler creates a locale handler. secure marks the cookie Secure.
func NewHandler(secure bool) *Handler {
	return &Handler{secure: secure}
}

// Set stores the chosen language (POST /api/locale). The reply is in the
// new language.
func (h *Handler) Set(r *api.Request) *api.Response {
	var req Request
	if err := r.Bind(&req); err != nil {
		return api.HandleServerError(r, err)
	}
	loc := strings.ToLower(strings.TrimSpace(req.Locale))

	v := api.NewValidator()
	if v.Required("locale", loc) {
		v.Check(r.Enabled(loc), "locale", "errors.invalidLocale")
	}
	if err := v.Err(); err != nil {
		return api.HandleServerError(r, err)
	}

	middleware.SetLocaleCookie(r.Echo(), loc, h.secure)
	r.Session.Language = loc
	if err := r.SaveSession(); err != nil {
		return api.HandleServerError(r, err)
	}

	r.Language = loc
	return api.OK("locale.updated", map[string]string{"locale": loc})
}

// RegisterRoutes sets up POST /api/locale.
func RegisterRoutes(e *echo.Echo, w *api.Wrapper, h *Handler) {
	e.POST("/api/locale", w.Wrap(api.Public, h.Set))
}

