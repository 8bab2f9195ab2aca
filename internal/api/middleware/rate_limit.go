package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/juju/ratelimit"
	"github.com/phrazzld/pksim-api/internal/api/shared"
	"github.com/phrazzld/pksim-api/internal/config"
	"github.com/phrazzld/pksim-api/internal/metrics"
)

// Token costs per route family. Simulation and estimation do the most work.
const (
	CostFree       int64 = 0
	CostDefault    int64 = 1
	CostWorkspace  int64 = 5
	CostSimulation int64 = 10
	CostEstimate   int64 = 20
)

// RateLimiter keeps one token bucket per client address.
type RateLimiter struct {
	rate     float64
	capacity int64

	mu      sync.RWMutex
	clients map[string]*ratelimit.Bucket

	// takeMu serializes check-and-take so a rejected request never drains
	// the bucket.
	takeMu sync.Mutex
}

// NewRateLimiter creates a RateLimiter refilling cfg.Rate tokens per second
// up to cfg.Capacity.
func NewRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		rate:     cfg.Rate,
		capacity: cfg.Capacity,
		clients:  make(map[string]*ratelimit.Bucket),
	}
}

func (rl *RateLimiter) bucket(client string) *ratelimit.Bucket {
	rl.mu.RLock()
	b, ok := rl.clients[client]
	rl.mu.RUnlock()
	if ok {
		return b
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if b, ok = rl.clients[client]; !ok {
		b = ratelimit.NewBucketWithRate(rl.rate, rl.capacity)
		rl.clients[client] = b
		metrics.RateLimiterBucketsTotal.Set(float64(len(rl.clients)))
	}
	return b
}

// take charges cost against b only when the whole cost is available.
func (rl *RateLimiter) take(b *ratelimit.Bucket, cost int64) bool {
	rl.takeMu.Lock()
	defer rl.takeMu.Unlock()
	if b.Available() < cost {
		return false
	}
	return b.TakeAvailable(cost) == cost
}

// Prune forgets clients whose buckets have refilled completely and returns
// how many were removed.
func (rl *RateLimiter) Prune() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	removed := 0
	for client, b := range rl.clients {
		if b.Available() >= b.Capacity() {
			delete(rl.clients, client)
			removed++
		}
	}
	metrics.RateLimiterBucketsTotal.Set(float64(len(rl.clients)))
	return removed
}

// Len returns the number of tracked clients.
func (rl *RateLimiter) Len() int {
	rl.mu.RLock()
	defer rl.mu.RUnlock()
	return len(rl.clients)
}

// RouteCost returns the number of tokens a request consumes.
func RouteCost(r *http.Request) int64 {
	path := r.URL.Path
	switch {
	case path == "/metrics":
		return CostFree
	case strings.HasPrefix(path, "/api/estimates"):
		return CostEstimate
	case strings.HasPrefix(path, "/api/simulations"):
		return CostSimulation
	case strings.HasPrefix(path, "/api/workspace"):
		if r.Method == http.MethodGet {
			return CostDefault
		}
		return CostWorkspace
	default:
		return CostDefault
	}
}

// Handler rejects requests with 429 once the client's bucket cannot cover
// the route cost.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cost := RouteCost(r)
		if cost == CostFree {
			next.ServeHTTP(w, r)
			return
		}

		b := rl.bucket(clientKey(r))
		w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(rl.capacity, 10))
		w.Header().Set("X-RateLimit-Rate", strconv.FormatFloat(rl.rate, 'f', -1, 64))

		if !rl.take(b, cost) {
			w.Header().Set("X-RateLimit-Remaining", "0")
			w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds(cost, rl.rate)))
			shared.RespondWithError(w, r, http.StatusTooManyRequests, "Rate limit exceeded")
			return
		}

		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(b.Available(), 10))
		next.ServeHTTP(w, r)
	})
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func retryAfterSeconds(cost int64, rate float64) int {
	if rate <= 0 {
		return 60
	}
	s := int(float64(cost)/rate + 0.999)
	if s < 1 {
		s = 1
	}
	return s
}
