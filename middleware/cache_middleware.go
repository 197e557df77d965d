package middleware

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Bekzhanizb/QuitTrackerBackend/cache"
	"github.com/Bekzhanizb/QuitTrackerBackend/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CachedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

type bodyLogWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w bodyLogWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w bodyLogWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

func userCacheKey(userID, path, query string) string {
	return fmt.Sprintf("cache:user:%s:%s?%s", userID, path, query)
}

// CacheMiddleware caches successful GET responses per :id user.
func CacheMiddleware(store *cache.Cache, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("id")
		if c.Request.Method != http.MethodGet || userID == "" || !store.Enabled() {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := userCacheKey(userID, c.Request.URL.Path, c.Request.URL.RawQuery)

		var cached CachedResponse
		if err := store.Get(ctx, key, &cached); err == nil {
			utils.Logger.Debug("cache_hit", zap.String("key", key))
			c.Header("X-Cache", "HIT")
			c.Data(cached.Status, cached.ContentType, cached.Body)
			c.Abort()
			return
		}

		utils.Logger.Debug("cache_miss", zap.String("key", key))
		c.Header("X-Cache", "MISS")

		blw := &bodyLogWriter{body: bytes.NewBufferString(""), ResponseWriter: c.Writer}
		c.Writer = blw

		c.Next()

		if c.Writer.Status() != http.StatusOK {
			return
		}
		resp := CachedResponse{
			Status:      http.StatusOK,
			ContentType: c.Writer.Header().Get("Content-Type"),
			Body:        blw.body.Bytes(),
		}
		if err := store.Set(ctx, key, resp, ttl); err != nil {
			utils.Logger.Warn("cache_set_failed", zap.Error(err), zap.String("key", key))
		}
	}
}

// InvalidateUserCache drops every cached response of the :id user once a
// write request succeeded.
func InvalidateUserCache(store *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		userID := c.Param("id")
		if c.Request.Method == http.MethodGet || userID == "" || c.Writer.Status() >= 400 {
			return
		}
		if err := store.DeletePattern(c.Request.Context(), fmt.Sprintf("cache:user:%s:*", cache.EscapePattern(userID))); err != nil {
			utils.Logger.Warn("cache_invalidate_failed", zap.String("user_id", userID), zap.Error(err))
			return
		}
		utils.Logger.Debug("user_cache_invalidated", zap.String("user_id", userID))
	}
}

// RateLimitMiddleware allows maxRequests per window per client IP.
func RateLimitMiddleware(store *cache.Cache, maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !store.Enabled() || maxRequests <= 0 {
			c.Next()
			return
		}

		clientIP := c.ClientIP()
		key := fmt.Sprintf("rate_limit:%s", clientIP)

		count, err := store.IncrementCounter(c.Request.Context(), key, window)
		if err != nil {
			utils.Logger.Error("rate_limit_error", zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(maxRequests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(max(0, maxRequests-int(count))))

		if count > int64(maxRequests) {
			utils.Logger.Warn("rate_limit_exceeded",
				zap.String("ip", clientIP),
				zap.Int64("count", count),
			)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests, try again later"})
			return
		}

		c.Next()
	}
}
