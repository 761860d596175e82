package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"audiosketch/internal/logging"
	"audiosketch/internal/services"
)

const requestIDHeader = "X-Request-ID"

// requestLogger assigns a request id, threads it through the request context
// and logs each request once it completes. Health and metrics probes are not
// logged.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)
		c.Request = c.Request.WithContext(services.WithRequestID(c.Request.Context(), requestID))

		if path == "/health" || path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		attrs := []logging.Attr{
			logging.String(logging.FieldCorrelationID, requestID),
			logging.String("method", c.Request.Method),
			logging.String("path", path),
			logging.Int("status", status),
			logging.Duration("latency", time.Since(start)),
		}
		switch {
		case status >= http.StatusInternalServerError:
			logger.Error("request failed", logging.Args(attrs...)...)
		case status >= http.StatusBadRequest:
			logger.Warn("request rejected", logging.Args(attrs...)...)
		default:
			logger.Info("request served", logging.Args(attrs...)...)
		}
	}
}
