package payments

import (
	"net/http"

	"github.com/lethanhdatit/bocmenh/internal/api"
)

// Handler serves the payment endpoints.
type Handler struct {
	service PaymentService
}

// NewHandler creates a new payments handler.
func NewHandler(service PaymentService) *Handler {
	return &Handler{service: service}
}

// Packages lists the top-up packages (GET /api/topups/packages).
func (h *Handler) Packages(r *api.Request) *api.Response {
	data, err := h.service.Packages(r.Context(), r.Backend())
	if err != nil {
		return api.HandleServerError(r, err)
	}
	return api.OK("", data)
}

// CreateTopup starts a checkout (POST /api/topups).
func (h *Handler) CreateTopup(r *api.Request) *api.Response {
	var req TopupRequest
	if err := r.Bind(&req); err != nil {
		return api.HandleServerError(r, err)
	}

	v := api.NewValidator()
	v.Required("packageId", req.PackageID)
	if v.Required("provider", req.Provider) {
		v.OneOf("provider", req.Provider, "validation.provider", providers...)
	}
	if err := v.Err(); err != nil {
		return api.HandleServerError(r, err)
	}

	data, err := h.service.CreateTopup(r.Context(), r.Backend(), req)
	if err != nil {
		return api.HandleServerError(r, err)
	}
	return api.Respond(http.StatusCreated, "payments.checkoutCreated", data, nil)
}

// MemoCheckout returns the transfer details for a memo checkout
// (GET /api/topups/memo-checkout?id=).
func (h *Handler) MemoCheckout(r *api.Request) *api.Response {
	id := r.Query("id")

	v := api.NewValidator()
	v.Required("id", id)
	if err := v.Err(); err != nil {
		return api.HandleServerError(r, err)
	}

	data, err := h.service.MemoCheckout(r.Context(), r.Backend(), id)
	if err != nil {
		return api.HandleServerError(r, err)
	}
	return api.OK("", data)
}

// TransactionStatus polls a transaction (POST /api/transaction/status).
func (h *Handler) TransactionStatus(r *api.Request) *api.Response {
	var req StatusRequest
	if err := r.Bind(&req); err != nil {
		return api.HandleServerError(r, err)
	}

	v := api.NewValidator()
	v.Required("transactionId", req.TransactionID)
	if err := v.Err(); err != nil {
		return api.HandleServerError(r, err)
	}

	data, err := h.service.TransactionStatus(r.Context(), r.Backend(), req)
	if err != nil {
		return api.HandleServerError(r, err)
	}
	return api.OK("", data)
}
