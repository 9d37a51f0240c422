package server

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"eta-service/internal/common/logger"
	"eta-service/internal/common/observability"
)

// corsMiddleware allows the configured front-end origins to call the API.
func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if allowed[origin] || allowed["*"] {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Header("Access-Control-Max-Age", "86400")
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// requestLogger assigns each request an id and logs its outcome.
func requestLogger(log logger.Logger, obs *observability.Observability) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.New().String()
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)

		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}

		fields := map[string]interface{}{
			"request_id": requestID,
			"method":     c.Request.Method,
			"route":      route,
			"status":     c.Writer.Status(),
			"elapsed_ms": elapsed.Milliseconds(),
			"client_ip":  c.ClientIP(),
		}

		if c.Writer.Status() >= 500 {
			log.Error("Request failed", fields)
		} else {
			log.Info("Request handled", fields)
		}

		if obs != nil {
			obs.RecordRequest(c.Request.Context(), route, httpStatusClass(c.Writer.Status()))
			obs.RecordDuration(c.Request.Context(), route, elapsed)
		}
	}
}

func httpStatusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	default:
		return "2xx"
	}
}
