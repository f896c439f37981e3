package server

import (
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// QueryRateLimitWindow is the window over which per-role query budgets apply.
const QueryRateLimitWindow = time.Minute

// QueryRateLimiter implements per-role rate limiting using in-memory token buckets.
type QueryRateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*roleLimiter
	perWindow int
	logger    *slog.Logger
}

type roleLimiter struct {
	limiter   *rate.Limiter
	lastReset time.Time
}

// NewQueryRateLimiter creates a limiter allowing perWindow queries per role
// per QueryRateLimitWindow. A perWindow of zero or less disables limiting.
func NewQueryRateLimiter(perWindow int, logger *slog.Logger) *QueryRateLimiter {
	return &QueryRateLimiter{
		limiters:  make(map[string]*roleLimiter),
		perWindow: perWindow,
		logger:    logger,
	}
}

// Allow returns true if the role is within its query budget.
func (r *QueryRateLimiter) Allow(role string) bool {
	if r.perWindow <= 0 {
		return true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rl, exists := r.limiters[role]
	now := time.Now()

	// Reset if more than the rate limit window has passed
	if exists && now.Sub(rl.lastReset) > QueryRateLimitWindow {
		rl.limiter = r.newBucket()
		rl.lastReset = now
	}

	if !exists {
		rl = &roleLimiter{
			limiter:   r.newBucket(),
			lastReset: now,
		}
		r.limiters[role] = rl
	}

	allowed := rl.limiter.Allow()
	if !allowed {
		r.logger.Warn("query rate limit exceeded", "role", role, "perWindow", r.perWindow)
	}
	return allowed
}

func (r *QueryRateLimiter) newBucket() *rate.Limiter {
	return rate.NewLimiter(rate.Every(QueryRateLimitWindow/time.Duration(r.perWindow)), r.perWindow)
}
