package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bookshelf/bookshelf-go/internal/metrics"
)

// sweepThreshold is the number of tracked keys above which expired windows are dropped.
const sweepThreshold = 10000

// CounterStore counts hits per key within fixed time windows.
type CounterStore interface {
	// Increment records a hit for key in the window starting at windowStart
	// and returns the hit count for that window, including this one.
	Increment(ctx context.Context, key string, windowStart time.Time, window time.Duration) (int, error)
}

type windowCount struct {
	start time.Time
	end   time.Time
	count int
}

// MemoryStore is an in-process CounterStore. Counts are per process and lost on restart.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*windowCount
	now     func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*windowCount),
		now:     time.Now,
	}
}

// Increment implements CounterStore.
func (s *MemoryStore) Increment(_ context.Context, key string, windowStart time.Time, window time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.entries) > sweepThreshold {
		now := s.now()
		for k, e := range s.entries {
			if !now.Before(e.end) {
				delete(s.entries, k)
			}
		}
	}

	e, ok := s.entries[key]
	if !ok || !e.start.Equal(windowStart) {
		e = &windowCount{start: windowStart, end: windowStart.Add(window)}
		s.entries[key] = e
	}
	e.count++
	return e.count, nil
}

// Len returns the number of tracked keys.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// RateLimiter enforces a fixed request budget per client per window.
type RateLimiter struct {
	store  CounterStore
	limit  int
	window time.Duration
	now    func() time.Time
}

// NewRateLimiter creates a limiter allowing limit requests per window.
func NewRateLimiter(store CounterStore, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{store: store, limit: limit, window: window, now: time.Now}
}

// Handler returns the rate limiting middleware. Windows are aligned to
// multiples of the window length. Rejected requests still count.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		now := rl.now()
		start := now.Truncate(rl.window)

		count, err := rl.store.Increment(r.Context(), ClientKey(r), start, rl.window)
		if err != nil {
			// Fail open.
			next.ServeHTTP(w, r)
			return
		}

		if count > rl.limit {
			retry := start.Add(rl.window).Sub(now)
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retry.Seconds()))))
			metrics.RateLimitRejections.Inc()
			writeJSONError(w, http.StatusTooManyRequests, "Too many attempts, please try again later")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RateLimit returns middleware allowing limit requests per window per client.
func RateLimit(store CounterStore, limit int, window time.Duration) func(http.Handler) http.Handler {
	return NewRateLimiter(store, limit, window).Handler
}

// ClientKey identifies the caller: the first X-Forwarded-For entry, else
// X-Real-IP, else "unknown".
func ClientKey(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	return "unknown"
}
