package luckybox

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"
)

// lazyPurgeInterval bounds how often a request triggers Store.Purge.
const lazyPurgeInterval = 4 * time.Hour

// LuckyBoxService defines the business logic contract for the lucky box.
type LuckyBoxService interface {
	// Draw returns today's result for ip, drawing one on the first call of
	// the day.
	Draw(ctx context.Context, ip string) (*Draw, error)
}

// luckyBoxService implements LuckyBoxService.
type luckyBoxService struct {
	store Store
	loc   *time.Location
	now   func() time.Time
	intn  func(n int) int

	mu        sync.Mutex
	lastPurge time.Time
}

// NewLuckyBoxService creates a lucky box service whose calendar day is
// taken in loc.
func NewLuckyBoxService(store Store, loc *time.Location) LuckyBoxService {
	return &luckyBoxService{
		store: store,
		loc:   loc,
		now:   time.Now,
		intn:  rand.IntN,
	}
}

// Draw implements LuckyBoxService.
func (s *luckyBoxService) Draw(ctx context.Context, ip string) (*Draw, error) {
	now := s.now().In(s.loc)
	today := now.Format(time.DateOnly)
	s.maybePurge(ctx, now, today)

	existing, err := s.store.Get(ctx, today, ip)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return newDraw(today, *existing, false), nil
	}

	drawn := Result{
		LuckyNumber:  MinLuckyNumber + s.intn(MaxLuckyNumber-MinLuckyNumber+1),
		MessageIndex: s.intn(MessageCount),
		Timestamp:    now,
	}
	stored, created, err := s.store.Create(ctx, today, ip, drawn)
	if err != nil {
		return nil, err
	}
	return newDraw(today, stored, created), nil
}

func (s *luckyBoxService) maybePurge(ctx context.Context, now time.Time, today string) {
	s.mu.Lock()
	if !s.lastPurge.IsZero() && now.Sub(s.lastPurge) < lazyPurgeInterval {
		s.mu.Unlock()
		return
	}
	s.lastPurge = now
	s.mu.Unlock()

	if err := s.store.Purge(ctx, today); err != nil {
		slog.Warn("lucky box purge failed", slog.Any("error", err))
	}
}
