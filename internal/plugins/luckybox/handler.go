package luckybox

import (
	"github.com/lethanhdatit/bocmenh/internal/api"
)

// Handler serves the lucky box endpoint.
type Handler struct {
	service LuckyBoxService
}

// NewHandler creates a new lucky box handler.
func NewHandler(service LuckyBoxService) *Handler {
	return &Handler{service: service}
}

// Get returns today's draw for the caller's IP (GET /api/lucky-box).
func (h *Handler) Get(r *api.Request) *api.Response {
	draw, err := h.service.Draw(r.Context(), r.RealIP())
	if err != nil {
		return api.HandleServerError(r, err)
	}
	return api.OK("", draw)
}
