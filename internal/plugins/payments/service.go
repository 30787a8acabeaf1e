package payments

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/lethanhdatit/bocmenh/internal/backend"
)

// Backend paths.
const (
	pathPackages     = "/topups/packages"
	pathTopups       = "/topups"
	pathMemoCheckout = "/topups/memo-checkout"
	pathTxStatus     = "/transactions/status"
)

// PaymentService forwards payment calls to the backend.
type PaymentService interface {
	Packages(ctx context.Context, meta backend.Call) (json.RawMessage, error)
	CreateTopup(ctx context.Context, meta backend.Call, req TopupRequest) (json.RawMessage, error)
	MemoCheckout(ctx context.Context, meta backend.Call, id string) (json.RawMessage, error)
	TransactionStatus(ctx context.Context, meta backend.Call, req StatusRequest) (json.RawMessage, error)
}

type paymentService struct {
	backend backend.Service
}

// NewPaymentService creates a PaymentService.
func NewPaymentService(be backend.Service) PaymentService {
	return &paymentService{backend: be}
}

func (s *paymentService) Packages(ctx context.Context, meta backend.Call) (json.RawMessage, error) {
	return s.forward(ctx, meta.With(http.MethodGet, pathPackages, nil))
}

func (s *paymentService) CreateTopup(ctx context.Context, meta backend.Call, req TopupRequest) (json.RawMessage, error) {
	req.PackageID = strings.TrimSpace(req.PackageID)
	data, err := s.forward(ctx, meta.With(http.MethodPost, pathTopups, req))
	if err != nil {
		return nil, err
	}
	slog.Info("topup created",
		slog.String("package_id", req.PackageID),
		slog.String("provider", req.Provider),
	)
	return data, nil
}

func (s *paymentService) MemoCheckout(ctx context.Context, meta backend.Call, id string) (json.RawMessage, error) {
	call := meta.With(http.MethodGet, pathMemoCheckout, nil)
	call.Query = url.Values{"id": {id}}
	return s.forward(ctx, call)
}

func (s *paymentService) TransactionStatus(ctx context.Context, meta backend.Call, req StatusRequest) (json.RawMessage, error) {
	return s.forward(ctx, meta.With(http.MethodPost, pathTxStatus, req))
}

func (s *paymentService) forward(ctx context.Context, call backend.Call) (json.RawMessage, error) {
	res, err := s.backend.Do(ctx, call)
	if err != nil {
		return nil, err
	}
	return res.Data, nil
}
