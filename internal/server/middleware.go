package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/VantageDataChat/LyricDeck/internal/logging"
	"github.com/VantageDataChat/LyricDeck/internal/metrics"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// requestID tags every request with an ID, reusing a well-formed incoming
// X-Request-ID.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func accessLog(logger logging.Logger, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)
		status := c.Writer.Status()

		m.ObserveHTTP(c.Request.Method, c.FullPath(), status, elapsed)

		format := "%s %s %d %s bytes=%d request_id=%s"
		args := []any{c.Request.Method, c.Request.URL.Path, status, elapsed, c.Writer.Size(), c.GetString(requestIDKey)}
		switch {
		case status >= http.StatusInternalServerError:
			logger.Error(format, args...)
		case status >= http.StatusBadRequest:
			logger.Warn(format, args...)
		default:
			logger.Info(format, args...)
		}
	}
}

// limitBody caps request bodies at n bytes.
func limitBody(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		c.Next()
	}
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// clientLimiters holds one token bucket per client IP.
type clientLimiters struct {
	mu          sync.Mutex
	limit       rate.Limit
	burst       int
	entries     map[string]*clientLimiter
	ttl         time.Duration
	lastCleanup time.Time
}

func newClientLimiters(perMinute, burst int) *clientLimiters {
	return &clientLimiters{
		limit:       rate.Every(time.Minute / time.Duration(perMinute)),
		burst:       burst,
		entries:     make(map[string]*clientLimiter),
		ttl:         15 * time.Minute,
		lastCleanup: time.Now(),
	}
}

func (l *clientLimiters) allow(key string) bool {
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastCleanup) >= l.ttl/3 {
		for k, e := range l.entries {
			if now.Sub(e.lastSeen) > l.ttl {
				delete(l.entries, k)
			}
		}
		l.lastCleanup = now
	}

	e, ok := l.entries[key]
	if !ok {
		e = &clientLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[key] = e
	}
	e.lastSeen = now
	return e.limiter.Allow()
}

// rateLimit rejects clients that exceed perMinute requests with 429. A zero
// rate or burst disables it.
func rateLimit(perMinute, burst int) gin.HandlerFunc {
	if perMinute <= 0 || burst <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	limiters := newClientLimiters(perMinute, burst)
	return func(c *gin.Context) {
		if !limiters.allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded, please wait and try again"})
			return
		}
		c.Next()
	}
}
