package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	IdempotencyKeyHeader = "Idempotency-Key"
	replayedHeader       = "Idempotent-Replayed"
	idempotencyPrefix    = "idempotency:v1:"
	inProgressMarker     = "__in_progress__"
	idempotencyTimeout   = 2 * time.Second
)

type storedResponse struct {
	Status  int               `json:"status"`
	Body    string            `json:"body"`
	Headers map[string]string `json:"headers"`
}

// bodyRecorder tees the response body so it can be stored after the handler ran
type bodyRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency makes unsafe requests replayable. The first response for an
// Idempotency-Key is stored in Redis and returned verbatim to every retry by
// the same causer.
// Server errors are not stored so the client can retry them.
func Idempotency(cache redis.UniversalClient, ttl time.Duration, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" {
			abortWithError(c, http.StatusBadRequest, "BAD_REQUEST", "missing "+IdempotencyKeyHeader+" header")
			return
		}

		cacheKey := idempotencyCacheKey(c, key)
		ctx, cancel := context.WithTimeout(c.Request.Context(), idempotencyTimeout)
		defer cancel()

		cached, err := cache.Get(ctx, cacheKey).Result()
		if err == nil {
			replay(c, cached, key, logger)
			return
		}
		if !errors.Is(err, redis.Nil) {
			logger.Error("Idempotency lookup failed", "key", key, "error", err)
			abortWithError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "idempotency store failure")
			return
		}

		reserved, err := cache.SetNX(ctx, cacheKey, inProgressMarker, ttl).Result()
		if err != nil {
			logger.Error("Idempotency reservation failed", "key", key, "error", err)
			abortWithError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "idempotency reservation failure")
			return
		}
		if !reserved {
			abortWithError(c, http.StatusConflict, "CONFLICT", "duplicate request currently processing")
			return
		}

		recorder := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = recorder

		c.Next()

		persistCtx, persistCancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), idempotencyTimeout)
		defer persistCancel()

		status := recorder.Status()
		if status >= http.StatusInternalServerError {
			cache.Del(persistCtx, cacheKey)
			return
		}

		stored := storedResponse{
			Status:  status,
			Body:    recorder.body.String(),
			Headers: map[string]string{},
		}
		for header, values := range recorder.Header() {
			if len(values) > 0 && header != "Content-Length" && header != http.CanonicalHeaderKey(CorrelationIDHeader) {
				stored.Headers[header] = values[0]
			}
		}

		payload, err := json.Marshal(stored)
		if err != nil {
			logger.Error("Failed to encode idempotent response", "key", key, "error", err)
			cache.Del(persistCtx, cacheKey)
			return
		}
		if err := cache.Set(persistCtx, cacheKey, payload, ttl).Err(); err != nil {
			logger.Error("Failed to persist idempotent response", "key", key, "error", err)
			cache.Del(persistCtx, cacheKey)
		}
	}
}

// idempotencyCacheKey scopes key to the causer, method and path. Requests
// without a causer share the "-" scope.
func idempotencyCacheKey(c *gin.Context, key string) string {
	scope := "-"
	if causer, ok := GetCauser(c); ok {
		scope = causer.Ref.String()
	}
	return idempotencyPrefix + scope + ":" + c.Request.Method + ":" + c.Request.URL.Path + ":" + key
}

func replay(c *gin.Context, cached, key string, logger *slog.Logger) {
	if cached == inProgressMarker {
		abortWithError(c, http.StatusConflict, "CONFLICT", "duplicate request currently processing")
		return
	}

	var stored storedResponse
	if err := json.Unmarshal([]byte(cached), &stored); err != nil {
		logger.Warn("Failed to decode stored idempotent response", "key", key, "error", err)
		abortWithError(c, http.StatusConflict, "CONFLICT", "duplicate request")
		return
	}

	for header, value := range stored.Headers {
		c.Header(header, value)
	}
	c.Header(replayedHeader, "true")
	c.Status(stored.Status)
	_, _ = c.Writer.WriteString(stored.Body)
	c.Abort()
}

func abortWithError(c *gin.Context, status int, code, message string) {
	response := gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
	if correlationID := GetCorrelationID(c); correlationID != "" {
		response["correlation_id"] = correlationID
	}
	c.AbortWithStatusJSON(status, response)
}
