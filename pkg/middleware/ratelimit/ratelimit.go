package ratelimit

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	appErrors "github.com/noah-isme/lakgs-api/pkg/errors"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// PerIP keeps one token bucket per client IP and evicts idle buckets.
type PerIP struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	expiry   time.Duration
	now      func() time.Time
}

// New builds a limiter allowing rps requests per second with the given burst.
func New(rps float64, burst int) *PerIP {
	if burst <= 0 {
		burst = 1
	}
	return &PerIP{
		visitors: make(map[string]*visitor),
		limit:    rate.Limit(rps),
		burst:    burst,
		expiry:   3 * time.Minute,
		now:      time.Now,
	}
}

// Allow consumes one token for key.
func (p *PerIP) Allow(key string) bool {
	if p.limit <= 0 {
		return true
	}
	p.mu.Lock()
	v, ok := p.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(p.limit, p.burst)}
		p.visitors[key] = v
	}
	v.lastSeen = p.now()
	p.mu.Unlock()
	return v.limiter.Allow()
}

// Sweep drops visitors idle for longer than the expiry window.
func (p *PerIP) Sweep() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	removed := 0
	for key, v := range p.visitors {
		if p.now().Sub(v.lastSeen) > p.expiry {
			delete(p.visitors, key)
			removed++
		}
	}
	return removed
}

// Run sweeps idle visitors every minute until ctx is done.
func (p *PerIP) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Sweep()
		}
	}
}

// Middleware rejects requests over the per-IP budget with 429.
func (p *PerIP) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !p.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": appErrors.ErrTooManyRequests})
			return
		}
		c.Next()
	}
}
