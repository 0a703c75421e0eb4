package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/marmos91/nestfs/internal/logger"
	"github.com/marmos91/nestfs/internal/ratelimiter"
	"github.com/marmos91/nestfs/pkg/metrics"
)

// unmatchedRoute labels requests that matched no route.
const unmatchedRoute = "unmatched"

func routeLabel(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return unmatchedRoute
}

// requestLogger logs every request at DEBUG, client errors at WARN and
// server errors at ERROR.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		latency := logger.Since(start)
		path := c.Request.URL.Path

		switch {
		case status >= http.StatusInternalServerError:
			logger.Error("%s %s -> %d (%s) %s", c.Request.Method, path, status, latency, c.Errors.String())
		case status >= http.StatusBadRequest:
			logger.Warn("%s %s -> %d (%s) %s", c.Request.Method, path, status, latency, c.Errors.String())
		default:
			logger.Debug("%s %s -> %d (%s)", c.Request.Method, path, status, latency)
		}
	}
}

// recordMetrics records request counts, latency and in-flight requests by
// route template.
func recordMetrics(m metrics.APIMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := routeLabel(c)
		method := c.Request.Method

		m.RecordRequestStart(method, route)
		start := time.Now()

		c.Next()

		m.RecordRequestEnd(method, route)
		m.RecordRequest(method, route, c.Writer.Status(), time.Since(start))
	}
}

// rateLimit rejects clients that exceed their token bucket with 429.
func rateLimit(limiter *ratelimiter.RateLimiter, m metrics.APIMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter.Allow(c.ClientIP()) {
			c.Next()
			return
		}

		m.RecordRateLimited(routeLabel(c))
		c.Header("Retry-After", "1")
		c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{
			Error:   kindRateLimited,
			Message: "rate limit exceeded",
		})
	}
}
