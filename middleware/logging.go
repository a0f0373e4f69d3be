package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// LoggingConfig holds logging middleware configuration
type LoggingConfig struct {
	SkipPaths []string // Paths to skip logging (e.g., health checks)
}

// Logging creates a logging middleware
func Logging(logger zerolog.Logger) gin.HandlerFunc {
	return LoggingWithConfig(logger, LoggingConfig{
		SkipPaths: []string{"/health", "/api/health"},
	})
}

// LoggingWithConfig creates a logging middleware with custom configuration
func LoggingWithConfig(logger zerolog.Logger, config LoggingConfig) gin.HandlerFunc {
	skipPaths := make(map[string]bool)
	for _, path := range config.SkipPaths {
		skipPaths[path] = true
	}

	return func(c *gin.Context) {
		if skipPaths[c.Request.URL.Path] {
			c.Next()
			return
		}

		traceID := GetTraceID(c)
		startTime := time.Now()

		reqLogger := logger.With().
			Str("trace_id", traceID).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("client_ip", c.ClientIP()).
			Str("user_agent", c.Request.UserAgent()).
			Logger()

		reqLogger.Info().Msg("Request started")

		c.Next()

		duration := time.Since(startTime)

		status := c.Writer.Status()
		var event *zerolog.Event
		switch {
		case status >= 500:
			event = reqLogger.Error()
		case status >= 400:
			event = reqLogger.Warn()
		default:
			event = reqLogger.Info()
		}

		event.
			Int("status", status).
			Dur("duration", duration).
			Int("response_size", c.Writer.Size()).
			Msg("Request completed")

		if len(c.Errors) > 0 {
			for _, err := range c.Errors {
				reqLogger.Error().
					Err(err.Err).
					Uint64("type", uint64(err.Type)).
					Msg("Request error")
			}
		}
	}
}
