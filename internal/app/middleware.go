package app

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/garyellow/triangulator-go/internal/ctxutil"
	"github.com/garyellow/triangulator-go/internal/logger"
	"github.com/garyellow/triangulator-go/internal/metrics"
)

const (
	headerRequestID = "X-Request-ID"
	headerClientID  = "X-Client-ID"

	// maxHeaderID bounds caller-supplied IDs copied into logs.
	maxHeaderID = 128
)

// Allower admits or rejects a request. *ratelimit.Limiter satisfies it.
type Allower interface {
	Allow() bool
}

// KeyedAllower admits or rejects a request for a key. *ratelimit.KeyedLimiter
// satisfies it.
type KeyedAllower interface {
	Allow(key string) bool
}

// securityHeadersMiddleware adds security headers to responses.
func securityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Header("Content-Security-Policy", "default-src 'none'")
		c.Header("X-Permitted-Cross-Domain-Policies", "none")
		c.Next()
	}
}

// requestContextMiddleware puts the request ID and client ID on the request
// context. Caller-supplied IDs are kept; a missing request ID is generated
// and the client ID falls back to the remote address.
func requestContextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := headerID(c, headerRequestID, "X-Correlation-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		clientID := headerID(c, headerClientID)
		if clientID == "" {
			clientID = c.ClientIP()
		}

		ctx := ctxutil.WithRequestID(c.Request.Context(), requestID)
		ctx = ctxutil.WithClientID(ctx, clientID)
		c.Request = c.Request.WithContext(ctx)
		c.Header(headerRequestID, requestID)
		c.Next()
	}
}

func headerID(c *gin.Context, names ...string) string {
	for _, name := range names {
		if v := strings.TrimSpace(c.GetHeader(name)); v != "" {
			if len(v) > maxHeaderID {
				v = v[:maxHeaderID]
			}
			return v
		}
	}
	return ""
}

// loggingMiddleware logs each request: 5xx at error, 4xx other than 404 at
// warn, the rest at debug.
func loggingMiddleware(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		entry := log.WithFields(map[string]any{
			"http_method": c.Request.Method,
			"http_path":   path,
			"http_status": status,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		if len(c.Errors) > 0 {
			entry = entry.WithField("errors", c.Errors.String())
		}

		ctx := c.Request.Context()
		switch {
		case status >= 500:
			entry.ErrorContext(ctx, "HTTP request failed")
		case status >= 400 && status != http.StatusNotFound:
			entry.WarnContext(ctx, "HTTP request rejected")
		default:
			entry.DebugContext(ctx, "HTTP request completed")
		}
	}
}

// rateLimitMiddleware rejects requests over the global limit or over the
// calling client's limit with 429. Either limiter may be nil.
func rateLimitMiddleware(global Allower, clients KeyedAllower, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if global != nil && !global.Allow() {
			m.RecordRateLimiterDrop("global")
			abortRateLimited(c, m)
			return
		}
		if clients != nil && !clients.Allow(ctxutil.GetClientID(c.Request.Context())) {
			abortRateLimited(c, m)
			return
		}
		c.Next()
	}
}

func abortRateLimited(c *gin.Context, m *metrics.Metrics) {
	m.RecordHTTPError("rate_limited", c.FullPath())
	c.Header("Retry-After", "1")
	c.AbortWithStatusJSON(http.StatusTooManyRequests, errorBody{Error: "rate limit exceeded"})
}
