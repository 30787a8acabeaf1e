package shop

import (
	"strconv"

	"github.com/lethanhdatit/bocmenh/internal/api"
)

// Handler serves the product catalog.
type Handler struct {
	service ShopService
}

// NewHandler creates a new shop handler.
func NewHandler(service ShopService) *Handler {
	return &Handler{service: service}
}

// List returns a page of products
// (GET /api/store/products?page=&pageSize=&category=&q=).
func (h *Handler) List(r *api.Request) *api.Response {
	v := api.NewValidator()
	p := ListParams{
		Page:     intQuery(r, v, "page"),
		PageSize: intQuery(r, v, "pageSize"),
		Category: r.Query("category"),
		Q:        r.Query("q"),
	}
	if err := v.Err(); err != nil {
		return api.HandleServerError(r, err)
	}

	data, err := h.service.List(r.Context(), r.Backend(), p)
	if err != nil {
		return api.HandleServerError(r, err)
	}
	return api.OK("", data)
}

// Get returns one product (GET /api/store/products/:id).
func (h *Handler) Get(r *api.Request) *api.Response {
	data, err := h.service.Get(r.Context(), r.Backend(), r.Param("id"))
	if err != nil {
		return api.HandleServerError(r, err)
	}
	return api.OK("", data)
}

// intQuery parses an optional positive integer query parameter. Absent
// parameters are 0 and take the service default.
func intQuery(r *api.Request, v *api.Validator, name string) int {
	raw := r.Query(name)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	v.Check(err == nil && n > 0, name, "validation.page")
	return n
}
