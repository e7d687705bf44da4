package middleware

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/conghuan0502/planzaa-api/internal/service"
	appErrors "github.com/conghuan0502/planzaa-api/pkg/errors"
)

// httpCacheKeyPrefix namespaces cached responses so event mutations can
// invalidate them by pattern.
const httpCacheKeyPrefix = "httpcache:"

// ResponseCacheStore is the slice of the cache repository the middleware needs.
type ResponseCacheStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type cachedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

type bodyCapturer struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *bodyCapturer) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyCapturer) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// ResponseCache serves successful GET responses from Redis. Entries are keyed
// by request URI and expire after ttl; event mutations also delete them
// eagerly by pattern.
func ResponseCache(cache ResponseCacheStore, metricsSvc *service.MetricsService, logger *zap.Logger, ttl time.Duration) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		if cache == nil || c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := httpCacheKeyPrefix + c.Request.RequestURI

		var cached cachedResponse
		err := cache.Get(c.Request.Context(), key, &cached)
		if err == nil {
			if metricsSvc != nil {
				metricsSvc.ObserveCacheLookup(true)
			}
			c.Header("X-Cache", "HIT")
			c.Data(cached.Status, cached.ContentType, cached.Body)
			c.Abort()
			return
		}
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			logger.Sugar().Warnw("response cache lookup failed", "key", key, "error", err)
		}
		if metricsSvc != nil {
			metricsSvc.ObserveCacheLookup(false)
		}

		c.Header("X-Cache", "MISS")
		capture := &bodyCapturer{ResponseWriter: c.Writer}
		c.Writer = capture
		c.Next()

		if capture.Status() != http.StatusOK {
			return
		}
		entry := cachedResponse{
			Status:      capture.Status(),
			ContentType: capture.Header().Get("Content-Type"),
			Body:        capture.buf.Bytes(),
		}
		if err := cache.Set(c.Request.Context(), key, entry, ttl); err != nil {
			logger.Sugar().Warnw("response cache store failed", "key", key, "error", err)
		}
	}
}
