package luckybox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store keeps one Result per (date, IP). Dates are YYYY-MM-DD in the
// service's time zone.
type Store interface {
	// Get returns the stored result, or nil when none exists.
	Get(ctx context.Context, date, ip string) (*Result, error)

	// Create stores r unless a result already exists for (date, ip). It
	// returns the result that is stored afterwards and whether r was the
	// one written.
	Create(ctx context.Context, date, ip string, r Result) (Result, bool, error)

	// Purge drops every date bucket other than today.
	Purge(ctx context.Context, today string) error
}

// --- In-memory store ---

// backgroundPurgeInterval is how often MemoryStore sweeps on its own.
const backgroundPurgeInterval = 6 * time.Hour

// MemoryStore is a process-local Store. Assignments are lost on restart
// and not shared between instances.
type MemoryStore struct {
	mu      sync.Mutex
	buckets map[string]map[string]Result

	now       func() time.Time
	loc       *time.Location
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewMemoryStore creates a MemoryStore and starts its background purge,
// which uses loc to decide what "today" is. Call Close to stop it.
func NewMemoryStore(loc *time.Location) *MemoryStore {
	s := newMemoryStore(loc, time.Now)
	go s.run(backgroundPurgeInterval)
	return s
}

func newMemoryStore(loc *time.Location, now func() time.Time) *MemoryStore {
	return &MemoryStore{
		buckets: make(map[string]map[string]Result),
		now:     now,
		loc:     loc,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

func (s *MemoryStore) run(interval time.Duration) {
	defer close(s.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = s.Purge(context.Background(), s.now().In(s.loc).Format(time.DateOnly))
		case <-s.stop:
			return
		}
	}
}

// Close stops the background purge. It is safe to call more than once.
func (s *MemoryStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stop)
	})
	return nil
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, date, ip string) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.buckets[date][ip]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

// Create implements Store.
func (s *MemoryStore) Create(_ context.Context, date, ip string, r Result) (Result, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bucket, ok := s.buckets[date]
	if !ok {
		bucket = make(map[string]Result)
		s.buckets[date] = bucket
	}
	if existing, ok := bucket[ip]; ok {
		return existing, false, nil
	}
	bucket[ip] = r
	return r, true, nil
}

// Purge implements Store.
func (s *MemoryStore) Purge(_ context.Context, today string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for date := range s.buckets {
		if date != today {
			delete(s.buckets, date)
		}
	}
	return nil
}

// --- Redis store ---

// redisTTL outlives any calendar day in any time zone, so a key expires
// only after its date is over everywhere.
const redisTTL = 48 * time.Hour

// RedisStore is a Store shared by every instance behind the same Redis.
// Uniqueness per (date, IP) comes from SET NX, so concurrent first visits
// on different instances agree on one draw.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore creates a RedisStore.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func redisKey(date, ip string) string {
	return "luckybox:" + date + ":" + ip
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, date, ip string) (*Result, error) {
	data, err := s.rdb.Get(ctx, redisKey(date, ip)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading lucky box result: %w", err)
	}

	var r Result
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decoding lucky box result: %w", err)
	}
	return &r, nil
}

// Create implements Store.
func (s *RedisStore) Create(ctx context.Context, date, ip string, r Result) (Result, bool, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return Result{}, false, fmt.Errorf("encoding lucky box result: %w", err)
	}

	// A key can expire between SET NX and GET; one more SET NX settles it.
	for range 2 {
		ok, err := s.rdb.SetNX(ctx, redisKey(date, ip), data, redisTTL).Result()
		if err != nil {
			return Result{}, false, fmt.Errorf("storing lucky box result: %w", err)
		}
		if ok {
			return r, true, nil
		}

		existing, err := s.Get(ctx, date, ip)
		if err != nil {
			return Result{}, false, err
		}
		if existing != nil {
			return *existing, false, nil
		}
	}
	return Result{}, false, fmt.Errorf("storing lucky box result: key for %s kept vanishing", date)
}

// Purge is a no-op; keys expire through their TTL.
func (s *RedisStore) Purge(context.Context, string) error {
	return nil
}
