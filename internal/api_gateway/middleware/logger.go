package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger writes one access line per request. Server errors log at ERROR and
// client errors at WARN so failed ledger calls stand out from reads.
func Logger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"method", c.Request.Method,
			"route", c.FullPath(),
			"path", c.Request.URL.Path,
			"status", status,
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
			"bytes", c.Writer.Size(),
		}
		if causer, ok := GetCauser(c); ok {
			attrs = append(attrs, "causer", causer.Ref.String())
		}
		if key := c.GetHeader(IdempotencyKeyHeader); key != "" {
			attrs = append(attrs, "idempotency_key", key)
		}
		if replayed := c.Writer.Header().Get(replayedHeader); replayed != "" {
			attrs = append(attrs, "replayed", true)
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "errors", c.Errors.String())
		}

		requestLogger := requestLogger(logger, c)
		switch {
		case status >= http.StatusInternalServerError:
			requestLogger.Error("HTTP request", attrs...)
		case status >= http.StatusBadRequest:
			requestLogger.Warn("HTTP request", attrs...)
		default:
			requestLogger.Info("HTTP request", attrs...)
		}
	}
}

// requestLogger scopes logger to the request's correlation id
func requestLogger(logger *slog.Logger, c *gin.Context) *slog.Logger {
	if correlationID := GetCorrelationID(c); correlationID != "" {
		return logger.With("correlation_id", correlationID)
	}
	return logger
}
