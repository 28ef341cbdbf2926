package server

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const loggerKey = "ratesd-logger"

// RequestLogger tags every request with a generated request ID, stores a
// request-scoped logger in the gin context and logs the outcome.
func RequestLogger(base *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := uuid.NewString()

		logger := base.With(
			slog.String("request_id", requestID),
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
		)

		c.Set(loggerKey, logger)
		c.Writer.Header().Set("X-Request-Id", requestID)

		c.Next()

		logger.Info("request completed",
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", time.Since(start)),
		)
	}
}

func loggerFrom(c *gin.Context) *slog.Logger {
	value, exists := c.Get(loggerKey)
	if !exists {
		return slog.Default()
	}

	logger, ok := value.(*slog.Logger)
	if !ok {
		return slog.Default()
	}

	return logger
}
