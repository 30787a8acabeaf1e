// Package shop serves the affiliate product catalog. Products are owned by
// the backend; listing parameters are clamped here.
package shop

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/lethanhdatit/bocmenh/internal/backend"
	"github.com/lethanhdatit/bocmenh/internal/sanitize"
)

// Paging bounds.
const (
	DefaultPageSize = 12
	MaxPageSize     = 50
)

const pathProducts = "/store/products"

// ListParams filters the product listing.
type ListParams struct {
	Page     int
	PageSize int
	Category string
	Q        string
}

// normalize clamps paging and cleans the free-text filters.
func (p ListParams) normalize() ListParams {
	if p.Page < 1 {
		p.Page = 1
	}
	switch {
	case p.PageSize < 1:
		p.PageSize = DefaultPageSize
	case p.PageSize > MaxPageSize:
		p.PageSize = MaxPageSize
	}
	p.Category = strings.TrimSpace(p.Category)
	p.Q = sanitize.Text(strings.TrimSpace(p.Q))
	return p
}

// ShopService reads the product catalog.
type ShopService interface {
	List(ctx context.Context, meta backend.Call, p ListParams) (json.RawMessage, error)
	Get(ctx context.Context, meta backend.Call, id string) (json.RawMessage, error)
}

type shopService struct {
	backend backend.Service
}

// NewShopService creates a ShopService.
func NewShopService(be backend.Service) ShopService {
	return &shopService{backend: be}
}

func (s *shopService) List(ctx context.Context, meta backend.Call, p ListParams) (json.RawMessage, error) {
	p = p.normalize()

	call := meta.With(http.MethodGet, pathProducts, nil)
	call.Query = url.Values{
		"page":     {strconv.Itoa(p.Page)},
		"pageSize": {strconv.Itoa(p.PageSize)},
	}
	if p.Category != "" {
		call.Query.Set("category", p.Category)
	}
	if p.Q != "" {
		call.Query.Set("q", p.Q)
	}

	res, err := s.backend.Do(ctx, call)
	if err != nil {
		return nil, err
	}
	return res.Data, nil
}

func (s *shopService) Get(ctx context.Context, meta backend.Call, id string) (json.RawMessage, error) {
	res, err := s.backend.Do(ctx, meta.With(http.MethodGet, pathProducts+"/"+url.PathEscape(id), nil))
	if err != nil {
		return nil, err
	}
	return res.Data, nil
}
