package main

import (
	"net/http"
	"sync"
	"time"

	"giveback/pkg/forms"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const limiterIdle = 10 * time.Minute

// ipLimiter keeps one token bucket per client IP.
type ipLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	limit    rate.Limit
	burst    int
}

type limiterEntry struct {
	lim  *rate.Limiter
	seen time.Time
}

// newIPLimiter allows perMin requests per minute per IP, in bursts of up to perMin.
func newIPLimiter(perMin int) *ipLimiter {
	if perMin <= 0 {
		perMin = 10
	}
	return &ipLimiter{
		limiters: map[string]*limiterEntry{},
		limit:    rate.Every(time.Minute / time.Duration(perMin)),
		burst:    perMin,
	}
}

func (l *ipLimiter) allow(ip string) bool {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.limiters[ip]
	if !ok {
		if len(l.limiters) >= 1024 {
			l.prune(now)
		}
		e = &limiterEntry{lim: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[ip] = e
	}
	e.seen = now
	return e.lim.AllowN(now, 1)
}

// prune drops idle buckets. Callers hold l.mu.
func (l *ipLimiter) prune(now time.Time) {
	for ip, e := range l.limiters {
		if now.Sub(e.seen) > limiterIdle {
			delete(l.limiters, ip)
		}
	}
}

// loginThrottle rejects login attempts above the per-IP rate.
func (l *ipLimiter) loginThrottle() gin.HandlerFunc {
	return func(c *gin.Context) {
		if l.allow(c.ClientIP()) {
			c.Next()
			return
		}
		errs := forms.FieldErrors{}
		errs.Add(forms.NonField, "Too many login attempts. Please wait a minute and try again.")
		renderPage(c, http.StatusTooManyRequests, "login.html", gin.H{"Form": forms.LoginForm{}, "Errors": errs})
		c.Abort()
	}
}
