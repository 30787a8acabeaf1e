package pages

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lethanhdatit/bocmenh/internal/i18n"
	"github.com/lethanhdatit/bocmenh/internal/middleware"
	"github.com/lethanhdatit/bocmenh/internal/session"
	"github.com/lethanhdatit/bocmenh/internal/templates/layouts"
)

// Handler serves the HTML shell.
type Handler struct {
	translator *i18n.Translator
	sessions   *session.Manager
}

// NewHandler creates a pages handler.
func NewHandler(tr *i18n.Translator, sessions *session.Manager) *Handler {
	return &Handler{translator: tr, sessions: sessions}
}

// Landing renders the landing page (GET / and GET /<locale>).
func (h *Handler) Landing(c echo.Context) error {
	h.inject(c)
	return middleware.Render(c, http.StatusOK, Landing(h.translator))
}

// Error renders the error page for a non-API request.
func (h *Handler) Error(c echo.Context, status int, messageKey string) error {
	h.inject(c)
	return middleware.Render(c, status, ErrorPage(h.translator, status, messageKey))
}

// inject copies the locale, session user, and request id into the
// request context for the layout.
func (h *Handler) inject(c echo.Context) {
	loc := middleware.GetLocale(c)
	if loc == "" {
		loc = h.translator.Default()
	}
	s := h.sessions.Load(c)

	ctx := layouts.WithData(c.Request().Context(), layouts.Data{
		Locale:          loc,
		IsAuthenticated: s.LoggedIn(),
		UserName:        s.Name,
		RequestID:       middleware.GetRequestID(c),
	})
	c.SetRequest(c.Request().WithContext(ctx))
}

// RegisterRoutes sets up the landing page.
func RegisterRoutes(e *echo.Echo, h *Handler) {
	e.GET("/", h.Landing)
}
