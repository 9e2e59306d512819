package httpapi

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/bioqa-cli/internal/logger"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

// RequestID tags each request with an ID, reusing the caller's when sent.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// RequestLog logs each request at debug level.
func RequestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http: request_id=%s %s %s status=%d took=%s",
			c.GetString(requestIDKey), c.Request.Method, c.Request.URL.Path,
			c.Writer.Status(), time.Since(start).Round(time.Millisecond))
	}
}

// Client limiters are kept in a bounded LRU. An idle client is evicted after
// clientTTL and starts again with a full bucket.
const (
	maxClients = 10000
	clientTTL  = 10 * time.Minute
)

// RateLimit throttles each client IP to rps requests per second.
func RateLimit(rps float64) gin.HandlerFunc {
	return rateLimit(rps, maxClients, clientTTL)
}

func rateLimit(rps float64, size int, ttl time.Duration) gin.HandlerFunc {
	var mu sync.Mutex
	limiters := expirable.NewLRU[string, *rate.Limiter](size, nil, ttl)

	return func(c *gin.Context) {
		ip := c.ClientIP()
		mu.Lock()
		l, ok := limiters.Get(ip)
		if !ok {
			l = rate.NewLimiter(rate.Limit(rps), int(rps)+1)
		}
		// Re-adding refreshes the expiry of active clients.
		limiters.Add(ip, l)
		mu.Unlock()

		if !l.Allow() {
			logger.Warn("http: rate limit hit ip=%s path=%s", ip, c.Request.URL.Path)
			writeError(c, http.StatusTooManyRequests, "rate_limited", http.StatusText(http.StatusTooManyRequests))
			c.Abort()
			return
		}
		c.Next()
	}
}
