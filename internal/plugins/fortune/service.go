package fortune

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/lethanhdatit/bocmenh/internal/backend"
	"github.com/lethanhdatit/bocmenh/internal/sanitize"
)

// Backend paths.
const (
	pathDestiny    = "/fortune/destiny"
	pathNumerology = "/fortune/numerology"
	pathTarot      = "/fortune/tarot"
	pathDreams     = "/dreams"
)

// FortuneService forwards readings to the backend and returns its data
// untouched for the client to render.
type FortuneService interface {
	Destiny(ctx context.Context, meta backend.Call, req DestinyRequest) (json.RawMessage, error)
	Numerology(ctx context.Context, meta backend.Call, req NumerologyRequest) (json.RawMessage, error)
	Tarot(ctx context.Context, meta backend.Call, req TarotRequest) (json.RawMessage, error)
	SearchDreams(ctx context.Context, meta backend.Call, q DreamQuery) (json.RawMessage, error)
}

type fortuneService struct {
	backend backend.Service
}

// NewFortuneService creates a FortuneService on top of the backend client.
func NewFortuneService(be backend.Service) FortuneService {
	return &fortuneService{backend: be}
}

func (s *fortuneService) Destiny(ctx context.Context, meta backend.Call, req DestinyRequest) (json.RawMessage, error) {
	req.Name = sanitize.Name(req.Name)
	data, err := s.forward(ctx, meta.With(http.MethodPost, pathDestiny, req))
	if err == nil {
		slog.Info("destiny reading", slog.String("birth_date", req.BirthDate))
	}
	return data, err
}

func (s *fortuneService) Numerology(ctx context.Context, meta backend.Call, req NumerologyRequest) (json.RawMessage, error) {
	req.Name = sanitize.Name(req.Name)
	return s.forward(ctx, meta.With(http.MethodPost, pathNumerology, req))
}

func (s *fortuneService) Tarot(ctx context.Context, meta backend.Call, req TarotRequest) (json.RawMessage, error) {
	req.Question = sanitize.Text(strings.TrimSpace(req.Question))
	return s.forward(ctx, meta.With(http.MethodPost, pathTarot, req))
}

// SearchDreams queries the dream dictionary. An empty query lists entries.
func (s *fortuneService) SearchDreams(ctx context.Context, meta backend.Call, q DreamQuery) (json.RawMessage, error) {
	call := meta.With(http.MethodGet, pathDreams, nil)
	call.Query = url.Values{}
	if q.Q != "" {
		call.Query.Set("q", sanitize.Text(strings.TrimSpace(q.Q)))
	}
	call.Query.Set("page", strconv.Itoa(max(q.Page, 1)))
	if q.PageSize > 0 {
		call.Query.Set("pageSize", strconv.Itoa(q.PageSize))
	}
	return s.forward(ctx, call)
}

func (s *fortuneService) forward(ctx context.Context, call backend.Call) (json.RawMessage, error) {
	res, err := s.backend.Do(ctx, call)
	if err != nil {
		return nil, err
	}
	return res.Data, nil
}
