package fortune

import (
	"strconv"

	"github.com/lethanhdatit/bocmenh/internal/api"
)

// Handler serves the fortune endpoints.
type Handler struct {
	service FortuneService
}

// NewHandler creates a new fortune handler.
func NewHandler(service FortuneService) *Handler {
	return &Handler{service: service}
}

// Destiny returns a destiny reading (POST /api/destiny).
func (h *Handler) Destiny(r *api.Request) *api.Response {
	var req DestinyRequest
	if err := r.Bind(&req); err != nil {
		return api.HandleServerError(r, err)
	}

	v := api.NewValidator()
	if v.Required("name", req.Name) {
		v.Length("name", req.Name, "validation.nameLength", 2, 100)
	}
	if v.Required("birthDate", req.BirthDate) {
		v.Date("birthDate", req.BirthDate)
	}
	v.Clock("birthTime", req.BirthTime)
	if v.Required("gender", req.Gender) {
		v.OneOf("gender", req.Gender, "validation.gender", GenderMale, GenderFemale)
	}
	if err := v.Err(); err != nil {
		return api.HandleServerError(r, err)
	}

	data, err := h.service.Destiny(r.Context(), r.Backend(), req)
	if err != nil {
		return api.HandleServerError(r, err)
	}
	return api.OK("", data)
}

// Numerology returns a numerology reading (POST /api/numerology).
func (h *Handler) Numerology(r *api.Request) *api.Response {
	var req NumerologyRequest
	if err := r.Bind(&req); err != nil {
		return api.HandleServerError(r, err)
	}

	v := api.NewValidator()
	if v.Required("name", req.Name) {
		v.Length("name", req.Name, "validation.nameLength", 2, 100)
	}
	if v.Required("birthDate", req.BirthDate) {
		v.Date("birthDate", req.BirthDate)
	}
	if err := v.Err(); err != nil {
		return api.HandleServerError(r, err)
	}

	data, err := h.service.Numerology(r.Context(), r.Backend(), req)
	if err != nil {
		return api.HandleServerError(r, err)
	}
	return api.OK("", data)
}

// Tarot draws a reading for the picked cards (POST /api/tarot).
func (h *Handler) Tarot(r *api.Request) *api.Response {
	var req TarotRequest
	if err := r.Bind(&req); err != nil {
		return api.HandleServerError(r, err)
	}

	v := api.NewValidator()
	if v.Required("question", req.Question) {
		v.Length("question", req.Question, "validation.question", minQuestionLen, maxQuestionLen)
	}
	v.Count("cardIds", len(req.CardIDs), "validation.cardCount", minCards, maxCards)
	v.Check(distinct(req.CardIDs), "cardIds", "validation.cardIds")
	if err := v.Err(); err != nil {
		return api.HandleServerError(r, err)
	}

	data, err := h.service.Tarot(r.Context(), r.Backend(), req)
	if err != nil {
		return api.HandleServerError(r, err)
	}
	return api.OK("", data)
}

// Dreams searches the dream dictionary (GET /api/dreams?q=&page=).
func (h *Handler) Dreams(r *api.Request) *api.Response {
	q := DreamQuery{Q: r.Query("q"), Page: 1}

	v := api.NewValidator()
	if p := r.Query("page"); p != "" {
		n, err := strconv.Atoi(p)
		v.Check(err == nil && n > 0, "page", "validation.page")
		q.Page = n
	}
	if err := v.Err(); err != nil {
		return api.HandleServerError(r, err)
	}

	data, err := h.service.SearchDreams(r.Context(), r.Backend(), q)
	if err != nil {
		return api.HandleServerError(r, err)
	}
	return api.OK("", data)
}

// Zodiac computes the western sign and can-chi year locally
// (GET /api/zodiac?birthDate=YYYY-MM-DD).
func (h *Handler) Zodiac(r *api.Request) *api.Response {
	birthDate := r.Query("birthDate")

	v := api.NewValidator()
	if v.Required("birthDate", birthDate) {
		v.Date("birthDate", birthDate)
	}
	if err := v.Err(); err != nil {
		return api.HandleServerError(r, err)
	}

	z, err := Lookup(birthDate, func(key string) string { return r.T(key) })
	if err != nil {
		return api.HandleServerError(r, err)
	}
	return api.OK("", z)
}

func distinct(ids []int) bool {
	seen := make(map[int]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return false
		}
		seen[id] = true
	}
	return true
}
