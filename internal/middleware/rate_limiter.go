package middleware

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/Code-Vida/apistock/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// windowEntry counts requests from one IP inside a fixed window.
type windowEntry struct {
	mu        sync.Mutex
	count     int
	windowEnd time.Time
}

// Limiter is a per-IP fixed-window rate limiter.
type Limiter struct {
	limit   int
	window  time.Duration
	message string

	mu      sync.Mutex
	entries map[string]*windowEntry
	now     func() time.Time
}

func NewLimiter(limit int, window time.Duration, message string) *Limiter {
	return &Limiter{
		limit:   limit,
		window:  window,
		message: message,
		entries: make(map[string]*windowEntry),
		now:     time.Now,
	}
}

// Allow records one request from key and reports whether it is within the
// limit, with the end of the current window.
func (l *Limiter) Allow(key string) (bool, time.Time) {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &windowEntry{}
		l.entries[key] = e
	}
	l.mu.Unlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	now := l.now()
	if now.After(e.windowEnd) {
		e.count = 0
		e.windowEnd = now.Add(l.window)
	}
	e.count++
	return e.count <= l.limit, e.windowEnd
}

func (l *Limiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, windowEnd := l.Allow(c.ClientIP())
		if !ok {
			retry := int(time.Until(windowEnd).Seconds()) + 1
			c.Header("Retry-After", strconv.Itoa(retry))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New(l.message))
			return
		}
		c.Next()
	}
}

// purge drops every entry whose window has ended and returns how many.
func (l *Limiter) purge() int {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	purged := 0
	for key, e := range l.entries {
		e.mu.Lock()
		if now.After(e.windowEnd) {
			delete(l.entries, key)
			purged++
		}
		e.mu.Unlock()
	}
	return purged
}

// StartPurge removes expired entries every interval until ctx is done, so
// IPs that never return do not accumulate.
func (l *Limiter) StartPurge(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := l.purge(); n > 0 {
					log.Debug().Int("entries_purged", n).Msg("rate limiter purged")
				}
			}
		}
	}()
}

// LoginRateLimiter limits auth attempts to 20 per minute per IP.
func LoginRateLimiter() *Limiter {
	return NewLimiter(20, time.Minute, "Muitas tentativas de login. Tente novamente em 1 minuto.")
}

// APIRateLimiter is the general limiter for every route.
func APIRateLimiter(limit int, window time.Duration) *Limiter {
	return NewLimiter(limit, window, "Muitas requisições. Tente novamente em instantes.")
}
