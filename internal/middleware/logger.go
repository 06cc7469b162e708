package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/liftbeat/backend/internal/logger"
)

// RequestLogger injects a request ID into the request context and logs one
// structured line per request after it completes.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		ctx := logger.WithRequestID(c.Request.Context(), c.GetHeader("X-Request-ID"))
		c.Set("request_id", logger.RequestIDFromContext(ctx))
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		log := logger.Ctx(c.Request.Context())
		log.Info("request completed",
			logger.String("method", method),
			logger.String("path", path),
			logger.Int("status", c.Writer.Status()),
			logger.Duration("latency", time.Since(start)),
		)
	}
}
